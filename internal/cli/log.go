package cli

import (
	"github.com/spf13/cobra"

	"remindsync/internal/store"
)

func newLogCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recent pass summaries from the pass log",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveDir(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			recs, err := store.ReadPassTail(dir, limit)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": recs})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Max passes to show (0 = all)")
	return cmd
}
