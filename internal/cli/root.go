package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"remindsync/internal/engine"
	"remindsync/internal/format"
	"remindsync/internal/logs"
	"remindsync/internal/store"
)

type App struct {
	Dir    string
	Pretty bool
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "remindsync",
		Short:        "Reconcile tagged notes with a reminders list",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # One-time workspace setup
  remindsync init

  # Capture an action item in a note
  remindsync notes add Groceries "TODO: Buy milk"

  # Run one reconciliation pass
  remindsync run

  # Check a reminder off (normally the user's move in their reminder app)
  remindsync tasks complete "Buy milk"

  # Propagate the completion back into notes
  remindsync run
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", "", "Path to workspace dir (default: $REMINDSYNC_DIR, discovered .remindsync, or ~/.remindsync)")
	cmd.PersistentFlags().BoolVar(&app.Pretty, "pretty", false, "Pretty-print JSON output")

	cmd.AddCommand(newInitCmd(app))
	cmd.AddCommand(newRunCmd(app))
	cmd.AddCommand(newStatusCmd(app))
	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newNotesCmd(app))
	cmd.AddCommand(newLogCmd(app))

	return cmd
}

func resolveDir(app *App) (string, error) {
	if strings.TrimSpace(app.Dir) != "" {
		return app.Dir, nil
	}
	return store.DefaultDir()
}

// openWorkspace wires the stores and engine for one command invocation.
// The returned close func releases the sqlite handle and the log file.
func openWorkspace(ctx context.Context, app *App) (*engine.Engine, *workspace, func(), error) {
	dir, err := resolveDir(app)
	if err != nil {
		return nil, nil, nil, err
	}
	cfg, err := store.LoadConfig(dir)
	if err != nil {
		return nil, nil, nil, err
	}
	tasks, err := store.OpenSQLiteTasks(ctx, store.TasksDBPath(dir))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open task store: %w", err)
	}
	logger, closeLog := logs.New(dir, slog.LevelInfo)
	docs := store.NewFSDocs(store.NotesDir(dir))

	eng, err := engine.New(engine.Config{
		Docs:          docs,
		Tasks:         tasks,
		Logger:        logger,
		CanonicalName: cfg.CanonicalName,
		ListName:      cfg.ListName,
		OpenMarker:    cfg.OpenMarker,
		DoneMarker:    cfg.DoneMarker,
		Separator:     cfg.Separator,
		LockDir:       dir,
		LockStale:     secondsToDuration(cfg.LockStaleSeconds),
		PassLogDir:    dir,
		LogMaxLines:   cfg.LogMaxLines,
	})
	if err != nil {
		_ = tasks.Close()
		_ = closeLog()
		return nil, nil, nil, err
	}

	ws := &workspace{Dir: dir, Config: cfg, Docs: docs, Tasks: tasks}
	closeAll := func() {
		_ = tasks.Close()
		_ = closeLog()
	}
	return eng, ws, closeAll, nil
}

type workspace struct {
	Dir    string
	Config *store.Config
	Docs   store.FSDocs
	Tasks  *store.SQLiteTasks
}

func secondsToDuration(s int) time.Duration {
	return time.Duration(s) * time.Second
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Pretty)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
