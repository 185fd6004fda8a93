// Package widget holds the interaction state machine of the floating bubble:
// dragging, corner pinning, menu toggling, auto-hide and the task commands
// issued from the menu. Step is a pure transition function; Controller runs
// it on a single logical thread and carries out the requested effects.
package widget

import (
	"strconv"
	"time"

	"bubbletasks/backend"
	"bubbletasks/internal/position"
	"bubbletasks/internal/tasks"
)

// Default timings
const (
	DefaultAutoHideDelay = 5 * time.Second
	DefaultPinTransition = 300 * time.Millisecond
)

// Config holds the geometry and timings of one surface
type Config struct {
	Engine        position.Engine
	AutoHideDelay time.Duration
	PinTransition time.Duration
}

// DefaultConfig returns the browser defaults
func DefaultConfig() Config {
	return Config{
		Engine:        position.NewEngine(),
		AutoHideDelay: DefaultAutoHideDelay,
		PinTransition: DefaultPinTransition,
	}
}

// State is every piece of interaction state owned by the controller
type State struct {
	Loaded bool

	Viewport position.Size
	Widget   position.Size
	Position position.Position
	Corner   position.Corner

	Dragging bool
	Moved    bool
	Grab     position.Point

	MenuVisible bool
	Menu        position.Size
	Placement   position.MenuPlacement

	AutoHidden bool
	Pinning    bool

	DialogOpen bool
	EditingID  string

	Tasks []backend.Task
	Theme backend.Theme

	HideGen uint64
	PinGen  uint64
}

// Active returns the tasks still to do, in user order
func (s State) Active() []backend.Task {
	active, _ := tasks.Partition(s.Tasks)
	return active
}

// Completed returns the finished tasks
func (s State) Completed() []backend.Task {
	_, done := tasks.Partition(s.Tasks)
	return done
}

// Badge returns the text shown on the bubble: the active count when more
// than one task is open, otherwise empty for the default icon
func (s State) Badge() string {
	if n := tasks.ActiveCount(s.Tasks); n > 1 {
		return strconv.Itoa(n)
	}
	return ""
}

// BubbleRect returns the bubble's bounding box
func (s State) BubbleRect() position.Rect {
	return s.Position.Rect(s.Widget)
}

// MenuRect returns the menu's bounding box at its current placement
func (s State) MenuRect() position.Rect {
	return position.Rect{
		Top:    s.Placement.Top,
		Left:   s.Placement.Left,
		Width:  s.Menu.Width,
		Height: s.Placement.Height(s.Menu.Height),
	}
}

// Visible reports whether the bubble is currently drawn
func (s State) Visible() bool {
	return s.Loaded && !s.AutoHidden
}
