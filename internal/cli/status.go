package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusTimeout time.Duration

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show workspace status",
	Long: `Display the selected workspace and the sync state of each listed workspace.

The selected workspace is opened first, so its document is synced and
bootstrapped or validated before the report is printed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newEngine()
		if err != nil {
			return err
		}
		defer s.Close()

		var waitErr error
		if selected := s.eng.Selected(); selected != "" {
			ctx, cancel := context.WithTimeout(cmd.Context(), statusTimeout)
			_, waitErr = s.eng.WaitHandle(ctx, selected)
			cancel()
		}

		result := s.eng.Status()
		if jsonOutput {
			return outputJSON(result)
		}

		PrintSection("Status")
		selected := result.Selected
		if selected == "" {
			selected = "(none)"
		}
		PrintLabelValue("Selected", selected)
		PrintLabelValue("Connected", PrintCount(result.Connected, "provider", "providers"))

		PrintSection("Workspaces")
		if len(result.Workspaces) == 0 {
			PrintEmptyState("No workspaces found")
			return nil
		}
		rows := make([][]string, 0, len(result.Workspaces))
		for _, ws := range result.Workspaces {
			mark := " "
			if ws.Selected {
				mark = "✓"
			}
			state := ws.State
			if !ws.Loaded {
				state = "not loaded"
			}
			rows = append(rows, []string{ws.ID, mark, state, ws.Error})
		}
		PrintTable([]string{"Workspace ID", "Selected", "State", "Error"}, rows)

		if errors.Is(waitErr, context.DeadlineExceeded) {
			fmt.Fprintln(out)
			PrintWarning(fmt.Sprintf("%s did not finish syncing within %s", result.Selected, statusTimeout))
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().DurationVar(&statusTimeout, "timeout", 10*time.Second, "How long to wait for the selected workspace to sync")
}
