package widget

import (
	"context"
	"sync"
	"time"

	"bubbletasks/backend"
	"bubbletasks/internal/position"
	"bubbletasks/internal/tasks"
	"bubbletasks/internal/utils"
)

// Surface is the rendering boundary driven by the controller
type Surface interface {
	Render(State)
	ApplyTheme(backend.Theme)
}

// Controller owns the widget state. Events from any goroutine are queued
// and applied one at a time; events raised while effects run (storage
// notifications, timers firing synchronously) are appended to the queue
// instead of re-entering Step.
type Controller struct {
	cfg     Config
	store   *tasks.Store
	surface Surface
	clock   Clock

	mu       sync.Mutex
	state    State
	queue    []Event
	draining bool

	hideTimer Timer
	pinTimer  Timer
	unwatch   func()
}

// NewController creates a controller. A nil clock means the wall clock.
func NewController(cfg Config, store *tasks.Store, surface Surface, clock Clock) *Controller {
	if clock == nil {
		clock = RealClock()
	}
	return &Controller{
		cfg:     cfg,
		store:   store,
		surface: surface,
		clock:   clock,
	}
}

// Start loads the persisted state, subscribes to store changes and arms
// the first auto-hide countdown
func (c *Controller) Start(ctx context.Context, viewport, widget position.Size) {
	c.unwatch = c.store.Watch(func(ev tasks.Event) {
		switch ev.Kind {
		case tasks.TasksChanged:
			c.Dispatch(TasksChanged{Tasks: ev.Tasks})
		case tasks.ThemeChanged:
			c.Dispatch(ThemeChanged{Theme: ev.Theme})
		}
	})

	c.Dispatch(Loaded{
		Tasks:    c.store.Load(ctx),
		Theme:    c.store.Theme(ctx),
		Position: c.store.Position(ctx),
		Viewport: viewport,
		Widget:   widget,
	})
}

// Close stops the store subscription and any pending timers
func (c *Controller) Close() {
	if c.unwatch != nil {
		c.unwatch()
		c.unwatch = nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	stopTimer(&c.hideTimer)
	stopTimer(&c.pinTimer)
}

// State returns a snapshot of the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Now returns the controller clock's time
func (c *Controller) Now() time.Time {
	return c.clock.Now()
}

// Complete marks a task done, stamped with the controller clock
func (c *Controller) Complete(id string) {
	c.Dispatch(CompleteTask{ID: id, At: c.clock.Now()})
}

// Dispatch queues ev and, unless another call is already draining the
// queue, applies queued events until it is empty
func (c *Controller) Dispatch(ev Event) {
	c.mu.Lock()
	c.queue = append(c.queue, ev)
	if c.draining {
		c.mu.Unlock()
		return
	}
	c.draining = true

	for len(c.queue) > 0 {
		next := c.queue[0]
		c.queue = c.queue[1:]

		state, effects := Step(c.state, next, c.cfg)
		c.state = state
		c.mu.Unlock()

		c.run(state, effects)

		c.mu.Lock()
	}
	c.draining = false
	c.mu.Unlock()
}

func (c *Controller) run(state State, effects []Effect) {
	ctx := context.Background()

	for _, e := range effects {
		switch e := e.(type) {
		case SaveTasks:
			if err := c.store.Save(ctx, e.Tasks); err != nil {
				utils.Warnf("Failed to save tasks: %v", err)
			}
		case SavePosition:
			if err := c.store.SetPosition(ctx, e.Position); err != nil {
				utils.Warnf("Failed to save bubble position: %v", err)
			}
		case ArmHideTimer:
			gen := e.Gen
			c.replaceTimer(&c.hideTimer, c.clock.AfterFunc(e.After, func() {
				c.Dispatch(HideTimerFired{Gen: gen})
			}))
		case CancelHideTimer:
			c.replaceTimer(&c.hideTimer, nil)
		case ArmPinTimer:
			gen := e.Gen
			c.replaceTimer(&c.pinTimer, c.clock.AfterFunc(e.After, func() {
				c.Dispatch(PinTimerFired{Gen: gen})
			}))
		case Render:
			if c.surface != nil {
				c.surface.Render(state)
			}
		case ApplyTheme:
			if c.surface != nil {
				c.surface.ApplyTheme(e.Theme)
			}
		}
	}
}

func (c *Controller) replaceTimer(slot *Timer, t Timer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stopTimer(slot)
	*slot = t
}

func stopTimer(slot *Timer) {
	if *slot != nil {
		(*slot).Stop()
		*slot = nil
	}
}
