package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"bubbletasks/internal/tui"
	"bubbletasks/internal/utils"
)

func newWidgetCmd(opts *rootOptions) *cobra.Command {
	var noSync bool

	cmd := &cobra.Command{
		Use:   "widget",
		Short: "Show the floating bubble",
		Long: `Open the interactive bubble. Drag it with the mouse to move it; it snaps
to the nearest corner when released. Click it, or press space, to open the
task list.

Keys:
  space/m   open or close the list     a         add a task
  j/k       move the cursor            e         edit the selected task
  x/enter   complete the task          d         delete the task
  J/K       move the task down/up      t         switch theme
  q         quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return fmt.Errorf("the widget needs an interactive terminal")
			}

			return withApp(opts, func(ctx context.Context, app *App) error {
				if !noSync && app.cfg.Sync.Enabled {
					resumeSync(ctx, app)
				}

				tuiOpts := tui.Options{Refresh: app.cfg.TUI.Refresh}
				if app.db != nil {
					tuiOpts.Refresher = app.db.Refresh
				}
				return tui.Run(ctx, app.store, app.cfg.TerminalSettings(), tuiOpts)
			})(cmd, args)
		},
	}

	cmd.Flags().BoolVar(&noSync, "no-sync", false, "do not sync with the remote for this session")
	return cmd
}

// resumeSync signs the stored session back in, taking the synced list
func resumeSync(ctx context.Context, app *App) {
	r, err := app.syncReconciler()
	if err != nil {
		utils.Warnf("Sync unavailable: %v", err)
		return
	}

	res, ok := r.Resume(ctx)
	if !ok {
		return
	}
	if res.Pulled {
		utils.Infof("Loaded %d synced tasks for %s", res.TaskCount, res.UserID)
	}
}
