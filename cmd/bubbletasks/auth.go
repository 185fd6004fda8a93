package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bubbletasks/internal/utils"
)

func newAuthCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Sign in to premium sync",
		Long: `Sign in to sync the task list with the configured remote. Only premium
accounts are synced; signing in replaces the local tasks with the remote
copy when one exists.

Examples:
  bubbletasks auth login alice
  bubbletasks auth status
  bubbletasks auth logout`,
	}

	cmd.AddCommand(newAuthLoginCmd(opts))
	cmd.AddCommand(newAuthLogoutCmd(opts))
	cmd.AddCommand(newAuthStatusCmd(opts))
	return cmd
}

func newAuthLoginCmd(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "login <user-id>",
		Short: "Sign in as a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, app *App) error {
				r, err := app.syncReconciler()
				if err != nil {
					return err
				}

				if !yes && len(app.store.Load(ctx)) > 0 {
					question := "Local tasks are replaced by your synced list if you have one. Continue?"
					if !utils.AskYesNo(cmd.InOrStdin(), cmd.OutOrStdout(), question) {
						fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
						return nil
					}
				}

				res, err := r.SignIn(ctx, strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Signed in as %s\n", res.UserID)
				switch {
				case !res.Entitled:
					fmt.Fprintln(out, "Premium is not active; tasks stay on this machine")
				case res.Pulled:
					fmt.Fprintf(out, "Loaded %d synced tasks\n", res.TaskCount)
				default:
					fmt.Fprintln(out, "No synced tasks yet; local tasks will be uploaded on the next change")
				}
				return nil
			})(cmd, args)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask before replacing local tasks")
	return cmd
}

func newAuthLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, app *App) error {
				sess, ok := app.store.Session(ctx)
				if !ok {
					return utils.ErrNotSignedIn()
				}
				r, err := app.syncReconciler()
				if err != nil {
					return err
				}
				r.Attach(ctx)
				if err := r.SignOut(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Signed out %s; tasks stay on this machine\n", sess.UserID)
				return nil
			})(cmd, args)
		},
	}
}

func newAuthStatusCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show sign-in and premium state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := utils.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			return withApp(opts, func(ctx context.Context, app *App) error {
				r, err := app.syncReconciler()
				if err != nil {
					return err
				}
				r.Attach(ctx)
				st := r.Status(ctx)

				if format != utils.FormatTable {
					return utils.WriteStructured(cmd.OutOrStdout(), format, st)
				}

				out := cmd.OutOrStdout()
				if !st.SignedIn {
					fmt.Fprintln(out, "Not signed in")
					return nil
				}
				fmt.Fprintf(out, "User:     %s\n", st.UserID)
				fmt.Fprintf(out, "Remote:   %s\n", st.Remote)
				if st.Entitled {
					since := "unknown"
					if st.PremiumSince != nil {
						since = st.PremiumSince.Local().Format("2006-01-02")
					}
					fmt.Fprintf(out, "Premium:  yes (since %s)\n", since)
					fmt.Fprintf(out, "Synced:   %d tasks\n", st.RemoteTasks)
				} else {
					fmt.Fprintln(out, "Premium:  no")
				}
				return nil
			})(cmd, args)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table, json or yaml")
	return cmd
}
