package cli

import (
	"context"

	"github.com/spf13/cobra"
)

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Inspect and drive the reminder list",
	}
	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksAddCmd(app))
	cmd.AddCommand(newTasksCompleteCmd(app))
	cmd.AddCommand(newTasksRmCmd(app))
	return cmd
}

func newTasksListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all tasks in the reminder list",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			_, ws, closeAll, err := openWorkspace(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeAll()

			tasks, err := ws.Tasks.ListTasks(ctx, ws.Config.ListName)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": tasks})
		},
	}
}

func newTasksAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Create an open task directly in the reminder list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			_, ws, closeAll, err := openWorkspace(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeAll()

			t, err := ws.Tasks.CreateTask(ctx, ws.Config.ListName, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": t})
		},
	}
}

func newTasksCompleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <name>",
		Short: "Mark a task done (stands in for the user's reminder app)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			_, ws, closeAll, err := openWorkspace(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeAll()

			if err := ws.Tasks.CompleteTask(ctx, ws.Config.ListName, args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"completed": args[0],
				"_hints":    []string{"run `remindsync run` to propagate the completion into notes"},
			})
		},
	}
}

func newTasksRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <name>",
		Short: "Delete a task from the reminder list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			_, ws, closeAll, err := openWorkspace(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer closeAll()

			if err := ws.Tasks.DeleteTask(ctx, ws.Config.ListName, args[0]); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"deleted": args[0]})
		},
	}
}
