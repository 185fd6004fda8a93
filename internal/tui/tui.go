// Package tui renders the floating to-do bubble in a terminal. The bubble
// lives in a corner of the screen and can be dragged with the mouse; clicking
// it opens the task menu.
package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"bubbletasks/internal/tasks"
	"bubbletasks/internal/widget"
)

// Run starts the terminal widget over store and blocks until the user quits
func Run(ctx context.Context, store *tasks.Store, cfg widget.Config, opts Options) error {
	surface := NewSurface()
	ctrl := widget.NewController(cfg, store, surface, nil)
	defer ctrl.Close()
	defer surface.Close()

	model := New(ctx, ctrl, store, surface, opts)
	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("error running widget: %w", err)
	}
	return nil
}
