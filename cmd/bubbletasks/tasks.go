package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bubbletasks/backend"
	"bubbletasks/internal/cli"
	"bubbletasks/internal/tasks"
	"bubbletasks/internal/utils"
)

// taskCompletion loads the collection for shell completion
func taskCompletion(opts *rootOptions, includeCompleted bool) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return cli.TaskCompletion(func() []backend.Task {
		app, err := openApp(opts)
		if err != nil {
			return nil
		}
		defer app.Close()
		return app.store.Load(context.Background())
	}, includeCompleted)
}

// resolveAll maps every ref onto a task id before anything changes, so
// positions refer to the collection as listed
func resolveAll(list []backend.Task, refs []string) ([]backend.Task, error) {
	out := make([]backend.Task, 0, len(refs))
	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		t, err := tasks.Resolve(list, ref)
		if err != nil {
			return nil, err
		}
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out, nil
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <text>",
		Short: "Add a task",
		Long: `Add a new task to the end of the list.

Examples:
  bubbletasks add "Buy milk"
  bubbletasks add Call the plumber`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, app *App) error {
				app.attachSync(ctx)

				var added backend.Task
				_, err := app.store.Update(ctx, func(list []backend.Task) ([]backend.Task, error) {
					next, task, err := tasks.Add(list, strings.Join(args, " "))
					added = task
					return next, err
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added: %s\n", added.Text)
				return nil
			})(cmd, args)
		},
	}
}

func newEditCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <task> <text>",
		Short: "Change the text of a task",
		Long: `Change the text of a task. <task> is a position from 'list', an id,
or a unique prefix of the task text.

Examples:
  bubbletasks edit 2 "Buy oat milk"
  bubbletasks edit buy "Buy oat milk"`,
		Args:              cobra.MinimumNArgs(2),
		ValidArgsFunction: taskCompletion(opts, true),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, app *App) error {
				text := strings.TrimSpace(strings.Join(args[1:], " "))
				if text == "" {
					return utils.ErrEmptyTaskText()
				}
				app.attachSync(ctx)

				changed := false
				_, err := app.store.Update(ctx, func(list []backend.Task) ([]backend.Task, error) {
					t, err := tasks.Resolve(list, args[0])
					if err != nil {
						return list, err
					}
					next, ok, err := tasks.Edit(list, t.ID, text)
					changed = ok
					return next, err
				})
				if err != nil {
					return err
				}
				if !changed {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing changed")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated: %s\n", text)
				return nil
			})(cmd, args)
		},
	}
}

func newDoneCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "done <task>...",
		Short: "Mark tasks as completed",
		Long: `Mark one or more tasks as completed. Completion cannot be undone.

Examples:
  bubbletasks done 1
  bubbletasks done 1 3 milk`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: taskCompletion(opts, false),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, app *App) error {
				app.attachSync(ctx)

				var completed []backend.Task
				_, err := app.store.Update(ctx, func(list []backend.Task) ([]backend.Task, error) {
					targets, err := resolveAll(list, args)
					if err != nil {
						return list, err
					}
					now := app.store.Now()
					for _, t := range targets {
						var ok bool
						list, ok, err = tasks.Complete(list, t.ID, now)
						if err != nil {
							return list, err
						}
						if ok {
							completed = append(completed, t)
						}
					}
					return list, nil
				})
				if err != nil {
					return err
				}
				if len(completed) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Already completed")
				}
				for _, t := range completed {
					fmt.Fprintf(cmd.OutOrStdout(), "Completed: %s\n", t.Text)
				}
				return nil
			})(cmd, args)
		},
	}
}

func newRemoveCmd(opts *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "rm <task>...",
		Aliases: []string{"delete"},
		Short:   "Delete tasks",
		Long: `Delete one or more tasks, completed or not.

Examples:
  bubbletasks rm 2
  bubbletasks rm 2 4 --force`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: taskCompletion(opts, true),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, app *App) error {
				targets, err := resolveAll(app.store.Load(ctx), args)
				if err != nil {
					return err
				}
				if !force && len(targets) > 1 {
					question := fmt.Sprintf("Delete %d tasks?", len(targets))
					if !utils.AskYesNo(cmd.InOrStdin(), cmd.OutOrStdout(), question) {
						fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
						return nil
					}
				}
				app.attachSync(ctx)

				_, err = app.store.Update(ctx, func(list []backend.Task) ([]backend.Task, error) {
					for _, t := range targets {
						if list, err = tasks.Delete(list, t.ID); err != nil {
							return list, err
						}
					}
					return list, nil
				})
				if err != nil {
					return err
				}
				for _, t := range targets {
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted: %s\n", t.Text)
				}
				return nil
			})(cmd, args)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "do not ask before deleting several tasks")
	return cmd
}

func newMoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move <task> <before|after> <target>",
		Short: "Reorder an active task",
		Long: `Move an active task before or after another active task. Completed
tasks always stay after the active ones.

Examples:
  bubbletasks move 3 before 1
  bubbletasks move milk after bread`,
		Args: cobra.ExactArgs(3),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			switch len(args) {
			case 1:
				return []string{"before", "after"}, cobra.ShellCompDirectiveNoFileComp
			case 2:
				return taskCompletion(opts, false)(cmd, nil, toComplete)
			}
			return taskCompletion(opts, false)(cmd, args, toComplete)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var where tasks.Placement
			switch strings.ToLower(args[1]) {
			case "before":
				where = tasks.Before
			case "after":
				where = tasks.After
			default:
				return fmt.Errorf("placement must be 'before' or 'after', got %q", args[1])
			}

			return withApp(opts, func(ctx context.Context, app *App) error {
				app.attachSync(ctx)

				moved := false
				var dragged, target backend.Task
				_, err := app.store.Update(ctx, func(list []backend.Task) ([]backend.Task, error) {
					var err error
					if dragged, err = tasks.Resolve(list, args[0]); err != nil {
						return list, err
					}
					if target, err = tasks.Resolve(list, args[2]); err != nil {
						return list, err
					}
					next, ok := tasks.Reorder(list, dragged.ID, target.ID, where)
					moved = ok
					return next, nil
				})
				if err != nil {
					return err
				}
				if !moved {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing moved")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Moved %q %s %q\n", dragged.Text, where, target.Text)
				return nil
			})(cmd, args)
		},
	}
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var (
		all    bool
		output string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show tasks",
		Long: `Show the tasks in their stored order. Completed tasks are hidden unless
--all is given.

Examples:
  bubbletasks list
  bubbletasks list --all
  bubbletasks list -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := utils.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			return withApp(opts, func(ctx context.Context, app *App) error {
				rows := cli.Rows(app.store.Load(ctx), all)
				if format != utils.FormatTable {
					return utils.WriteStructured(cmd.OutOrStdout(), format, rows)
				}
				cli.ShowTasks(cmd.OutOrStdout(), rows)
				return nil
			})(cmd, args)
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "include completed tasks")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table, json or yaml")
	return cmd
}
