package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"remindsync/internal/canon"
	"remindsync/internal/model"
	"remindsync/internal/store"
	"remindsync/internal/tag"
)

func newStatusCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Summarize the canonical list and the reminder list",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			_, ws, closeAll, err := openWorkspace(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeAll()

			parser := tag.NewParser(ws.Config.OpenMarker, ws.Config.DoneMarker)
			text, err := ws.Docs.ReadText(ctx, store.DocumentID(ws.Config.CanonicalName))
			if err != nil && !errors.Is(err, store.ErrDocumentNotFound) {
				return writeErr(cmd, err)
			}
			doc := canon.Parse(parser, ws.Config.Separator, text)

			open, completed := 0, 0
			bySource := map[string]int{}
			openKeys := map[string]bool{}
			for _, it := range doc.Items() {
				if it.State == model.StateCompleted {
					completed++
				} else {
					open++
					openKeys[tag.Key(it.Text)] = true
				}
				if it.Source != "" {
					bySource[it.Source]++
				}
			}

			tasks, err := ws.Tasks.ListTasks(ctx, ws.Config.ListName)
			if err != nil {
				return writeErr(cmd, err)
			}
			tasksOpen, tasksDone := 0, 0
			pending := open
			for _, t := range tasks {
				if t.Completed {
					tasksDone++
				} else {
					tasksOpen++
				}
				if openKeys[tag.Key(t.Name)] {
					pending--
				}
			}

			return writeOut(cmd, app, map[string]any{
				"canonical": map[string]any{
					"name":      ws.Config.CanonicalName,
					"open":      open,
					"completed": completed,
					"bySource":  bySource,
				},
				"tasks": map[string]any{
					"list":      ws.Config.ListName,
					"open":      tasksOpen,
					"completed": tasksDone,
				},
				"pendingProjections": pending,
			})
		},
	}
	return cmd
}
