package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var workspaceAddSelect bool

// workspaceAddCmd appends a workspace id to the list.
var workspaceAddCmd = &cobra.Command{
	Use:   "add <workspace-id>",
	Short: "Add a workspace",
	Long: `Append a workspace id to the persisted list.

The workspace document is created the first time the workspace is opened.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]

		s, err := newEngine()
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.eng.AddWorkspace(id); err != nil {
			return err
		}
		if workspaceAddSelect {
			if err := s.eng.Select(id); err != nil {
				return err
			}
		}

		if jsonOutput {
			return outputJSON(workspaceListResult{
				Selected:   s.eng.Selected(),
				Workspaces: s.eng.Workspaces(),
			})
		}

		PrintSuccess(fmt.Sprintf("Added workspace %s", id))
		PrintLabelValue("Workspaces", PrintCount(len(s.eng.Workspaces()), "workspace", "workspaces"))
		return nil
	},
}

func init() {
	workspaceAddCmd.Flags().BoolVar(&workspaceAddSelect, "select", false, "Select the workspace after adding it")
}
