package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	_ "bubbletasks/backend/httpremote"
	_ "bubbletasks/backend/postgres"
	"bubbletasks/internal/config"
	"bubbletasks/internal/utils"
)

// rootOptions are the persistent flags shared by every command
type rootOptions struct {
	configPath string
	verbose    bool
	dbPath     string
	ephemeral  bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "bubbletasks",
		Short: "Floating to-do bubble for the terminal",
		Long: `bubbletasks keeps a small to-do list in a bubble pinned to a corner of
the screen. Run 'bubbletasks widget' for the interactive bubble, or manage
tasks straight from the shell.

Examples:
  bubbletasks widget
  bubbletasks add "Buy milk"
  bubbletasks list
  bubbletasks done 1
  bubbletasks export tasks.csv`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env is the normal case
			_ = godotenv.Load()

			if cmd.Flags().Changed("config") {
				config.SetCustomConfigPath(opts.configPath)
			}
			cfg := config.GetConfig()
			if cfg.LogLevel != "" {
				if err := utils.SetLevel(cfg.LogLevel); err != nil {
					return err
				}
			}
			if opts.verbose {
				utils.SetVerboseMode(true)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file or directory (default $XDG_CONFIG_HOME/bubbletasks/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "storage database path (overrides storage.db_path)")
	rootCmd.PersistentFlags().BoolVar(&opts.ephemeral, "ephemeral", false, "keep everything in memory for this run")

	rootCmd.AddCommand(
		newAddCmd(opts),
		newEditCmd(opts),
		newDoneCmd(opts),
		newRemoveCmd(opts),
		newMoveCmd(opts),
		newListCmd(opts),
		newImportCmd(opts),
		newExportCmd(opts),
		newThemeCmd(opts),
		newPositionCmd(opts),
		newAuthCmd(opts),
		newSyncCmd(opts),
		newRemoteCmd(),
		newWidgetCmd(opts),
		newInfoCmd(opts),
		newServeCmd(),
		newConfigCmd(),
		newCredentialsCmd(),
	)

	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
