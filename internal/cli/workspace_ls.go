package cli

import (
	"github.com/spf13/cobra"
)

// workspaceListResult is the JSON form of ls.
type workspaceListResult struct {
	Selected   string   `json:"selected"`
	Workspaces []string `json:"workspaces"`
}

// workspaceLsCmd lists all workspaces.
var workspaceLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all workspaces",
	Long:  `Display the persisted workspace list and mark the selected workspace.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newEngine()
		if err != nil {
			return err
		}
		defer s.Close()

		ids := s.eng.Workspaces()
		selected := s.eng.Selected()

		if jsonOutput {
			return outputJSON(workspaceListResult{Selected: selected, Workspaces: ids})
		}

		PrintSection("Workspaces")
		if len(ids) == 0 {
			PrintEmptyState("No workspaces found. Add one with 'blockpad add <workspace-id>'.")
			return nil
		}

		rows := make([][]string, 0, len(ids))
		for _, id := range ids {
			mark := " "
			if id == selected {
				mark = "✓"
			}
			rows = append(rows, []string{id, mark})
		}
		PrintTable([]string{"Workspace ID", "Selected"}, rows)
		return nil
	},
}
