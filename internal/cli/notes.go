package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"remindsync/internal/store"
)

func newNotesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Inspect and edit source note documents",
	}
	cmd.AddCommand(newNotesListCmd(app))
	cmd.AddCommand(newNotesAddCmd(app))
	return cmd
}

func newNotesListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List source documents (the canonical document is excluded)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			_, ws, closeAll, err := openWorkspace(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeAll()

			ids, err := ws.Docs.ListDocuments(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			names := []string{}
			for _, id := range ids {
				if string(id) == ws.Config.CanonicalName {
					continue
				}
				names = append(names, string(id))
			}
			return writeOut(cmd, app, map[string]any{"data": names})
		},
	}
}

func newNotesAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <note> <line>",
		Short: "Append a line to a note, creating the note if needed",
		Long: strings.TrimSpace(`
Append a line to a source note. Tagged lines become action items on the next
pass, e.g.:

  remindsync notes add Groceries "TODO: Buy milk"
`),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			_, ws, closeAll, err := openWorkspace(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeAll()

			name := strings.TrimSpace(args[0])
			if name == ws.Config.CanonicalName {
				return writeErr(cmd, errors.New("the canonical document is managed by the engine; edit a source note instead"))
			}
			line := args[1]

			id := store.DocumentID(name)
			text, err := ws.Docs.ReadText(ctx, id)
			switch {
			case err == nil:
				if text != "" && !strings.HasSuffix(text, "\n") {
					text += "\n"
				}
				if err := ws.Docs.WriteText(ctx, id, text+line+"\n"); err != nil {
					return writeErr(cmd, err)
				}
			case errors.Is(err, store.ErrDocumentNotFound):
				if _, err := ws.Docs.CreateDocument(ctx, name, line+"\n"); err != nil {
					return writeErr(cmd, err)
				}
			default:
				return writeErr(cmd, err)
			}

			return writeOut(cmd, app, map[string]any{
				"note":   name,
				"_hints": []string{"run `remindsync run` to reconcile"},
			})
		},
	}
}
