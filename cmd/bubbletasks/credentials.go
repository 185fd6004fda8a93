package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bubbletasks/internal/credentials"
	"bubbletasks/internal/utils"
)

func newCredentialsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage remote tokens",
		Long: `Securely manage bearer tokens using the system keyring.

Tokens are looked up in three places (in priority order):
  1. System keyring (most secure) - recommended
  2. Environment variables (good for CI/CD)
  3. The token field of the config file

Use 'http' for the sync client and 'server' for 'bubbletasks serve'.

Examples:
  # Store a token in the keyring (interactive prompt)
  bubbletasks credentials set http --prompt

  # Check where a token comes from
  bubbletasks credentials get http

  # Remove a token from the keyring
  bubbletasks credentials delete http`,
	}

	cmd.AddCommand(newCredentialsSetCmd())
	cmd.AddCommand(newCredentialsGetCmd())
	cmd.AddCommand(newCredentialsDeleteCmd())
	return cmd
}

func envHint(name string) string {
	return fmt.Sprintf("BUBBLETASKS_%s_TOKEN", strings.ToUpper(strings.ReplaceAll(name, "-", "_")))
}

func newCredentialsSetCmd() *cobra.Command {
	var prompt bool

	cmd := &cobra.Command{
		Use:   "set <remote> [token]",
		Short: "Store a token in the system keyring",
		Long: `Store a bearer token in the system keyring.

If --prompt is specified, the token is read without echo (recommended).

Examples:
  bubbletasks credentials set http --prompt
  bubbletasks credentials set server s3cret`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			var token string
			switch {
			case prompt:
				secret, err := utils.PromptSecret(fmt.Sprintf("Token for %s", name))
				if err != nil {
					return err
				}
				token = secret
			case len(args) == 2:
				token = args[1]
			default:
				return fmt.Errorf("token is required (use --prompt for interactive input)")
			}
			if token == "" {
				return fmt.Errorf("token cannot be empty")
			}

			if err := credentials.SetToken(name, token); err != nil {
				if !credentials.IsAvailable() {
					return fmt.Errorf("system keyring is not available. Try an environment variable instead:\n  export %s=<token>", envHint(name))
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Token stored for %s\n", name)
			return nil
		},
	}

	cmd.Flags().BoolVar(&prompt, "prompt", false, "prompt for the token interactively (recommended)")
	return cmd
}

func newCredentialsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <remote>",
		Short: "Show where a token comes from",
		Long: `Show which source provides the token for a remote. The token itself is
never printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			tok, err := credentials.NewResolver().Resolve(name, "")
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if tok.Source == credentials.SourceNone {
				fmt.Fprintf(out, "✗ No token found for %q\n", name)
				fmt.Fprintln(out, "\nAvailable options:")
				fmt.Fprintf(out, "  1. bubbletasks credentials set %s --prompt\n", name)
				fmt.Fprintf(out, "  2. export %s=<token>\n", envHint(name))
				fmt.Fprintln(out, "  3. token: <token> in the config file")
				return nil
			}
			fmt.Fprintf(out, "✓ Token found for %q\n", name)
			fmt.Fprintf(out, "  Source: %s\n", tok.Source)
			return nil
		},
	}
}

func newCredentialsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <remote>",
		Short: "Remove a token from the keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := credentials.DeleteToken(args[0]); err != nil {
				if errors.Is(err, credentials.ErrNoToken) {
					fmt.Fprintf(cmd.OutOrStdout(), "No token stored for %s\n", args[0])
					return nil
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Token removed for %s\n", args[0])
			return nil
		},
	}
}
