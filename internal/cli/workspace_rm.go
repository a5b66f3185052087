package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// workspaceRmCmd removes a workspace id from the list.
var workspaceRmCmd = &cobra.Command{
	Use:   "rm <workspace-id>",
	Short: "Remove a workspace from the list",
	Long: `Remove a workspace id from the persisted list.

IMPORTANT: This only removes the id from the list. The workspace document in
the backing store is kept and reappears if the id is added again.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]

		s, err := newEngine()
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.eng.RemoveWorkspace(id); err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(workspaceListResult{
				Selected:   s.eng.Selected(),
				Workspaces: s.eng.Workspaces(),
			})
		}

		PrintSuccess(fmt.Sprintf("Removed workspace %s", id))
		return nil
	},
}
