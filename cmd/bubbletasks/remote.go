package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bubbletasks/backend"
	"bubbletasks/internal/config"
	"bubbletasks/internal/utils"
)

func newRemoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Administer user profiles on the sync remote",
		Long: `Inspect and change the premium entitlement of a user on the configured
sync remote.

Examples:
  bubbletasks remote show alice
  bubbletasks remote grant alice
  bubbletasks remote revoke alice`,
	}

	cmd.AddCommand(newRemoteShowCmd())
	cmd.AddCommand(newRemoteGrantCmd(true))
	cmd.AddCommand(newRemoteGrantCmd(false))
	return cmd
}

// withRemote opens the configured sync remote around fn
func withRemote(fn func(ctx context.Context, cmd *cobra.Command, remote backend.RemoteStore, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg := config.GetConfig()
		if cfg.Sync.Remote == nil {
			return utils.ErrSyncNotEnabled()
		}
		remote, err := openRemote(*cfg.Sync.Remote)
		if err != nil {
			return err
		}
		defer remote.Close()

		ctx := cmd.Context()
		if cfg.Sync.Remote.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.Sync.Remote.Timeout)
			defer cancel()
		}
		return fn(ctx, cmd, remote, args)
	}
}

func newRemoteShowCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show a user's profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := utils.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			return withRemote(func(ctx context.Context, cmd *cobra.Command, remote backend.RemoteStore, args []string) error {
				p, err := remote.GetProfile(ctx, args[0])
				if err != nil {
					return err
				}
				if format != utils.FormatTable {
					return utils.WriteStructured(cmd.OutOrStdout(), format, p)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: premium=%t", args[0], p.IsPremium)
				if p.PremiumSince != nil {
					fmt.Fprintf(cmd.OutOrStdout(), " since %s", p.PremiumSince.Local().Format(time.RFC3339))
				}
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			})(cmd, args)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table, json or yaml")
	return cmd
}

func newRemoteGrantCmd(premium bool) *cobra.Command {
	use, short := "grant <user-id>", "Turn on premium sync for a user"
	if !premium {
		use, short = "revoke <user-id>", "Turn off premium sync for a user"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: withRemote(func(ctx context.Context, cmd *cobra.Command, remote backend.RemoteStore, args []string) error {
			profile := backend.Profile{IsPremium: premium}
			if premium {
				// Keep the original date when the user already had premium
				since := time.Now().UTC()
				if p, err := remote.GetProfile(ctx, args[0]); err == nil && p.IsPremium && p.PremiumSince != nil {
					since = *p.PremiumSince
				}
				profile.PremiumSince = &since
			}
			if err := remote.PutProfile(ctx, args[0], profile); err != nil {
				return err
			}
			state := "granted"
			if !premium {
				state = "revoked"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Premium %s for %s\n", state, args[0])
			return nil
		}),
	}
}
