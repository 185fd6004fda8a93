package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"bubbletasks/backend"
	"bubbletasks/internal/transfer"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Export tasks as CSV",
		Long: `Write every task as CSV with the columns Task, FinishedAt and Done.
Without a file, or with "-", the CSV goes to standard output.

Examples:
  bubbletasks export tasks.csv
  bubbletasks export > tasks.csv`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, app *App) error {
				list := app.store.Load(ctx)

				if len(args) == 0 || args[0] == "-" {
					return transfer.Export(cmd.OutOrStdout(), list)
				}

				var buf bytes.Buffer
				if err := transfer.Export(&buf, list); err != nil {
					return err
				}
				if err := os.WriteFile(args[0], buf.Bytes(), 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", args[0], err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d tasks to %s\n", len(list), args[0])
				return nil
			})(cmd, args)
		},
	}
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import tasks from CSV",
		Long: `Append the rows of a CSV file as new tasks. The header row is optional;
rows with empty text are skipped. Use "-" to read standard input.

Examples:
  bubbletasks import tasks.csv
  cat tasks.csv | bubbletasks import -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", args[0], err)
				}
				defer f.Close()
				in = f
			}

			return withApp(opts, func(ctx context.Context, app *App) error {
				app.attachSync(ctx)

				var result transfer.ImportResult
				_, err := app.store.Update(ctx, func(list []backend.Task) ([]backend.Task, error) {
					next, res, err := transfer.Import(in, list, app.store.Now())
					result = res
					return next, err
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Import finished: %s\n", result)
				return nil
			})(cmd, args)
		},
	}
}
