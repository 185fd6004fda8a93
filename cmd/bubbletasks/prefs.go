package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"bubbletasks/backend"
	"bubbletasks/internal/position"
	"bubbletasks/internal/utils"
)

func newThemeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "theme [system|light|dark]",
		Short: "Show or set the theme",
		Long: `Show the current theme, or set it. The theme is shared with every
open bubble.

Examples:
  bubbletasks theme
  bubbletasks theme dark`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(backend.ThemeSystem), string(backend.ThemeLight), string(backend.ThemeDark)},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, app *App) error {
				if len(args) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), app.store.Theme(ctx))
					return nil
				}
				app.attachSync(ctx)
				theme := backend.Theme(strings.ToLower(strings.TrimSpace(args[0])))
				if err := app.store.SetTheme(ctx, theme); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Theme set to %s\n", theme)
				return nil
			})(cmd, args)
		},
	}
}

var cornerNames = map[string]position.Corner{
	position.TopLeft.String():     position.TopLeft,
	position.TopRight.String():    position.TopRight,
	position.BottomLeft.String():  position.BottomLeft,
	position.BottomRight.String(): position.BottomRight,
}

// parseSize reads WIDTHxHEIGHT with positive finite dimensions
func parseSize(value string) (position.Size, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(value)), "x")
	if !ok {
		return position.Size{}, utils.ErrInvalidViewport(value)
	}
	width, errW := strconv.ParseFloat(w, 64)
	height, errH := strconv.ParseFloat(h, 64)
	if errW != nil || errH != nil || !(width > 0) || !(height > 0) || width > 1e6 || height > 1e6 {
		return position.Size{}, utils.ErrInvalidViewport(value)
	}
	return position.Size{Width: width, Height: height}, nil
}

func newPositionCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "position",
		Short: "Show or pin the bubble position",
		Long: `Show the saved bubble position, pin it to a corner, or reset it.

Examples:
  bubbletasks position
  bubbletasks position pin top-left --viewport 1280x800
  bubbletasks position reset`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, app *App) error {
				p := app.store.Position(ctx)
				if p == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "No saved position (bottom-right corner)")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "top=%g left=%g\n", p.Top, p.Left)
				return nil
			})(cmd, args)
		},
	}

	cmd.AddCommand(newPositionPinCmd(opts))
	cmd.AddCommand(newPositionResetCmd(opts))
	return cmd
}

func newPositionPinCmd(opts *rootOptions) *cobra.Command {
	var viewport, size string

	cmd := &cobra.Command{
		Use:       "pin <corner>",
		Short:     "Pin the bubble to a corner",
		Long:      `Pin the bubble to top-left, top-right, bottom-left or bottom-right of a viewport of the given size.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"top-left", "top-right", "bottom-left", "bottom-right"},
		RunE: func(cmd *cobra.Command, args []string) error {
			corner, ok := cornerNames[strings.ToLower(args[0])]
			if !ok {
				return fmt.Errorf("unknown corner %q (want top-left, top-right, bottom-left or bottom-right)", args[0])
			}
			vp, err := parseSize(viewport)
			if err != nil {
				return err
			}
			widget, err := parseSize(size)
			if err != nil {
				return err
			}

			return withApp(opts, func(ctx context.Context, app *App) error {
				app.attachSync(ctx)
				p := position.CornerPosition(corner, widget, vp, app.cfg.Widget.Margin)
				if err := app.store.SetPosition(ctx, p); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pinned to %s: top=%g left=%g\n", corner, p.Top, p.Left)
				return nil
			})(cmd, args)
		},
	}

	cmd.Flags().StringVar(&viewport, "viewport", "1280x800", "viewport size as WIDTHxHEIGHT")
	cmd.Flags().StringVar(&size, "size", "60x60", "bubble size as WIDTHxHEIGHT")
	return cmd
}

func newPositionResetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget the saved position",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, app *App) error {
				app.attachSync(ctx)
				if err := app.store.Storage().Sync.Remove(ctx, backend.PositionKey); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Position reset")
				return nil
			})(cmd, args)
		},
	}
}
