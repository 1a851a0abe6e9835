package cli

import (
	"context"

	"github.com/spf13/cobra"

	"remindsync/internal/engine"
)

func newRunCmd(app *App) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one reconciliation pass (notes -> reminders -> notes)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			eng, _, closeAll, err := openWorkspace(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeAll()

			report, err := eng.RunOnce(ctx, engine.RunOpts{DryRun: dryRun})
			if err != nil {
				return writeErr(cmd, err)
			}

			hints := []string{}
			if report.Skipped {
				hints = append(hints, "another pass holds the lock; try again shortly")
			}
			if dryRun && (report.TasksCreated > 0 || report.Completions > 0) {
				hints = append(hints, "re-run without --dry-run to apply")
			}

			return writeOut(cmd, app, map[string]any{
				"data":   report,
				"_hints": hints,
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Plan the pass without writing to notes or reminders")
	return cmd
}
