package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"remindsync/internal/store"
)

func newInitCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the workspace: config, notes folder, canonical document, task db",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			dir, err := resolveDir(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := os.MkdirAll(store.NotesDir(dir), 0o755); err != nil {
				return writeErr(cmd, err)
			}

			cfg, err := store.LoadConfig(dir)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := store.SaveConfig(dir, cfg); err != nil {
				return writeErr(cmd, err)
			}

			docs := store.NewFSDocs(store.NotesDir(dir))
			created := false
			_, err = docs.CreateDocument(ctx, cfg.CanonicalName, cfg.CanonicalName+"\n\n")
			switch {
			case err == nil:
				created = true
			case errors.Is(err, store.ErrDocumentExists):
				// Re-running init is fine.
			default:
				return writeErr(cmd, err)
			}

			tasks, err := store.OpenSQLiteTasks(ctx, store.TasksDBPath(dir))
			if err != nil {
				return writeErr(cmd, err)
			}
			defer tasks.Close()

			return writeOut(cmd, app, map[string]any{
				"dir":              dir,
				"canonical":        cfg.CanonicalName,
				"list":             cfg.ListName,
				"canonicalCreated": created,
			})
		},
	}
	return cmd
}
