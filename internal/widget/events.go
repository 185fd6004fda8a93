package widget

import (
	"fmt"
	"time"

	"bubbletasks/backend"
	"bubbletasks/internal/position"
	"bubbletasks/internal/tasks"
)

// Event is an input to the state machine
type Event interface {
	isEvent()
}

// Loaded initializes the widget from persisted state
type Loaded struct {
	Tasks    []backend.Task
	Theme    backend.Theme
	Position *position.Position
	Viewport position.Size
	Widget   position.Size
}

// PointerDown is a press on the bubble
type PointerDown struct{ At position.Point }

// PointerMove is any pointer motion on the surface
type PointerMove struct{ At position.Point }

// PointerUp ends a press anywhere on the surface
type PointerUp struct{ At position.Point }

// BubbleClick is a completed click on the bubble
type BubbleClick struct{}

// OutsideClick is a click outside both the bubble and the menu
type OutsideClick struct{}

// MenuClick is a click inside the menu; it never closes the menu
type MenuClick struct{}

// Activity is keyboard, scroll or other user activity that keeps the
// bubble visible
type Activity struct{}

// HideTimerFired is delivered when an auto-hide timer elapses
type HideTimerFired struct{ Gen uint64 }

// PinTimerFired is delivered when the pin transition ends
type PinTimerFired struct{ Gen uint64 }

// Resize reports a new viewport size
type Resize struct{ Viewport position.Size }

// MenuResized reports the natural size of the rendered menu
type MenuResized struct{ Size position.Size }

// TasksChanged carries a collection written by this or another context
type TasksChanged struct{ Tasks []backend.Task }

// ThemeChanged carries a theme written by this or another context
type ThemeChanged struct{ Theme backend.Theme }

// ShowDialog opens the add dialog, or the edit dialog when TaskID is set
type ShowDialog struct{ TaskID string }

// CloseDialog dismisses the dialog without saving
type CloseDialog struct{}

// SubmitDialog saves the dialog text as a new task or as an edit
type SubmitDialog struct{ Text string }

// AddTask appends a new active task
type AddTask struct{ Text string }

// EditTask replaces the text of a task
type EditTask struct {
	ID   string
	Text string
}

// CompleteTask marks a task done at the given time
type CompleteTask struct {
	ID string
	At time.Time
}

// DeleteTask removes a task
type DeleteTask struct{ ID string }

// ReorderTask drops one active task before or after another
type ReorderTask struct {
	DraggedID string
	TargetID  string
	Where     tasks.Placement
}

func (Loaded) isEvent()         {}
func (PointerDown) isEvent()    {}
func (PointerMove) isEvent()    {}
func (PointerUp) isEvent()      {}
func (BubbleClick) isEvent()    {}
func (OutsideClick) isEvent()   {}
func (MenuClick) isEvent()      {}
func (Activity) isEvent()       {}
func (HideTimerFired) isEvent() {}
func (PinTimerFired) isEvent()  {}
func (Resize) isEvent()         {}
func (MenuResized) isEvent()    {}
func (TasksChanged) isEvent()   {}
func (ThemeChanged) isEvent()   {}
func (ShowDialog) isEvent()     {}
func (CloseDialog) isEvent()    {}
func (SubmitDialog) isEvent()   {}
func (AddTask) isEvent()        {}
func (EditTask) isEvent()       {}
func (CompleteTask) isEvent()   {}
func (DeleteTask) isEvent()     {}
func (ReorderTask) isEvent()    {}

// Effect is a side effect requested by a transition
type Effect interface {
	isEffect()
}

// SaveTasks persists the whole collection
type SaveTasks struct{ Tasks []backend.Task }

// SavePosition persists the pinned bubble position
type SavePosition struct{ Position position.Position }

// ArmHideTimer schedules HideTimerFired{Gen} after the delay, replacing any
// pending auto-hide timer
type ArmHideTimer struct {
	Gen   uint64
	After time.Duration
}

// CancelHideTimer stops the pending auto-hide timer
type CancelHideTimer struct{}

// ArmPinTimer schedules PinTimerFired{Gen} after the delay
type ArmPinTimer struct {
	Gen   uint64
	After time.Duration
}

// Render asks the surface to redraw from the current state
type Render struct{}

// ApplyTheme asks the surface to restyle itself
type ApplyTheme struct{ Theme backend.Theme }

func (SaveTasks) isEffect()       {}
func (SavePosition) isEffect()    {}
func (ArmHideTimer) isEffect()    {}
func (CancelHideTimer) isEffect() {}
func (ArmPinTimer) isEffect()     {}
func (Render) isEffect()          {}
func (ApplyTheme) isEffect()      {}

func (e ArmHideTimer) String() string {
	return fmt.Sprintf("arm-hide(gen=%d, %s)", e.Gen, e.After)
}

func (e ArmPinTimer) String() string {
	return fmt.Sprintf("arm-pin(gen=%d, %s)", e.Gen, e.After)
}
