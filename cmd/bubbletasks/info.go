package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"bubbletasks/backend"
	"bubbletasks/internal/config"
	"bubbletasks/internal/tasks"
)

func newInfoCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show storage and session details",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, app *App) error {
				out := cmd.OutOrStdout()

				fmt.Fprintln(out, "\n=== Storage ===")
				if path, err := config.GetConfigPath(); err == nil {
					fmt.Fprintf(out, "Config:   %s\n", path)
				}
				if app.db == nil {
					fmt.Fprintln(out, "Database: in memory")
				} else {
					db := app.db.Database()
					fmt.Fprintf(out, "Database: %s\n", db.Path())
					if version, err := db.GetSchemaVersion(); err == nil {
						fmt.Fprintf(out, "Schema:   v%d\n", version)
					}
					stats, err := db.GetStats()
					if err != nil {
						return fmt.Errorf("failed to get storage stats: %w", err)
					}
					fmt.Fprintf(out, "Stats:    %s\n", stats)
				}

				list := app.store.Load(ctx)
				fmt.Fprintln(out, "\n=== Tasks ===")
				fmt.Fprintf(out, "Active:    %d\n", tasks.ActiveCount(list))
				fmt.Fprintf(out, "Completed: %d\n", len(list)-tasks.ActiveCount(list))
				fmt.Fprintf(out, "Theme:     %s\n", app.store.Theme(ctx))

				fmt.Fprintln(out, "\n=== Sync ===")
				if !app.cfg.Sync.Enabled {
					fmt.Fprintln(out, "Disabled")
					return nil
				}
				fmt.Fprintf(out, "Remote:   %s\n", remoteLabel(app.cfg.Sync.Remote))
				if sess, ok := app.store.Session(ctx); ok {
					fmt.Fprintf(out, "Session:  %s since %s\n", sess.UserID, sess.SignedInAt.Local().Format("2006-01-02 15:04"))
				} else {
					fmt.Fprintln(out, "Session:  signed out")
				}
				return nil
			})(cmd, args)
		},
	}
}

func remoteLabel(rc *backend.RemoteConfig) string {
	switch {
	case rc == nil:
		return "none"
	case rc.URL != "":
		return fmt.Sprintf("%s (%s)", rc.Type, rc.URL)
	}
	return rc.Type
}
