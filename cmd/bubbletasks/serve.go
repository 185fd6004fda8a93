package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bubbletasks/internal/config"
	"bubbletasks/internal/credentials"
	"bubbletasks/internal/server"
	"bubbletasks/internal/utils"
)

// serverCredential names the keyring and environment entry of the serve token
const serverCredential = "server"

func newServeCmd() *cobra.Command {
	var (
		addr    string
		token   string
		noToken bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the sync API",
		Long: `Serve the profile and premium record API used by the http sync remote.
Records are kept in the store named by server.remote (memory or postgres).

The bearer token is taken from --token, the keyring entry 'server', the
BUBBLETASKS_SERVER_TOKEN variable or server.token, in that order.

Examples:
  bubbletasks serve
  bubbletasks serve --addr :8787
  bubbletasks credentials set server --prompt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetConfig()
			if !cmd.Flags().Changed("addr") {
				addr = cfg.Server.Addr
			}

			if !noToken && token == "" {
				tok, err := credentials.NewResolver().Resolve(serverCredential, cfg.Server.Token)
				if err != nil {
					return err
				}
				token = tok.Value
				utils.Debugf("Server token from %s", tok.Source)
			}
			if noToken {
				token = ""
			}
			if token == "" {
				utils.Warnf("Serving without authentication")
			}

			if cfg.Server.Remote == nil {
				return utils.ErrInvalidConfig("server.remote", "required to serve")
			}
			store, err := openRemote(*cfg.Server.Remote)
			if err != nil {
				return err
			}
			defer store.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Serving %s records on %s\n", cfg.Server.Remote.Type, addr)
			return server.New(store, token).ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr)")
	cmd.Flags().StringVar(&token, "token", "", "bearer token required from clients")
	cmd.Flags().BoolVar(&noToken, "no-token", false, "serve without authentication")
	return cmd
}
