package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"bubbletasks/backend"
	"bubbletasks/internal/utils"
)

func newSyncCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Transfer tasks to or from the remote now",
		Long: `Changes are pushed automatically while signed in to a premium account.
These commands force a transfer in one direction.

Examples:
  bubbletasks sync pull   # replace local tasks with the synced list
  bubbletasks sync push   # upload local tasks`,
	}

	cmd.AddCommand(newSyncPullCmd(opts))
	cmd.AddCommand(newSyncPushCmd(opts))
	return cmd
}

// entitlementHint turns a missing entitlement into an actionable error
func entitlementHint(err error) error {
	if errors.Is(err, backend.ErrNotEntitled) {
		return utils.WrapWithSuggestion(err, "Sync is a premium feature; ask an administrator to run 'bubbletasks remote grant <user-id>'")
	}
	return err
}

func newSyncPullCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Replace local tasks with the synced list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, app *App) error {
				r, err := app.syncReconciler()
				if err != nil {
					return err
				}
				if !r.Attach(ctx) {
					return utils.ErrNotSignedIn()
				}
				n, err := r.Pull(ctx)
				if err != nil {
					return entitlementHint(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pulled %d tasks\n", n)
				return nil
			})(cmd, args)
		},
	}
}

func newSyncPushCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Upload local tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, app *App) error {
				r, err := app.syncReconciler()
				if err != nil {
					return err
				}
				if !r.Attach(ctx) {
					return utils.ErrNotSignedIn()
				}
				if err := r.Push(ctx); err != nil {
					return entitlementHint(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pushed %d tasks\n", len(app.store.Load(ctx)))
				return nil
			})(cmd, args)
		},
	}
}
