package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"bubbletasks/backend"
	"bubbletasks/internal/widget"
)

// Surface receives controller callbacks from any goroutine and wakes the
// bubbletea program, which then reads the latest snapshot
type Surface struct {
	mu     sync.Mutex
	state  widget.State
	theme  backend.Theme
	notify chan struct{}
	done   chan struct{}
	once   sync.Once
}

// NewSurface creates an idle surface
func NewSurface() *Surface {
	return &Surface{
		theme:  backend.ThemeSystem,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

func (s *Surface) Render(state widget.State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.signal()
}

func (s *Surface) ApplyTheme(theme backend.Theme) {
	s.mu.Lock()
	s.theme = theme
	s.mu.Unlock()
	s.signal()
}

// Snapshot returns the last rendered state and the applied theme
func (s *Surface) Snapshot() (widget.State, backend.Theme) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.theme
}

// Close releases a pending wait
func (s *Surface) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *Surface) signal() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

type renderMsg struct{}

// wait blocks until the controller renders again
func (s *Surface) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-s.notify:
			return renderMsg{}
		case <-s.done:
			return nil
		}
	}
}
