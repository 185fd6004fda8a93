package widget

import (
	"strings"

	"bubbletasks/internal/position"
	"bubbletasks/internal/tasks"
)

// Step applies one event to the state and returns the next state together
// with the effects the controller must carry out. It never mutates s.
func Step(s State, ev Event, cfg Config) (State, []Effect) {
	var fx []Effect

	if l, ok := ev.(Loaded); ok {
		return load(s, l, cfg)
	}

	switch ev := ev.(type) {
	case TasksChanged:
		s.Tasks = ev.Tasks
		return s, render(s)
	case ThemeChanged:
		s.Theme = ev.Theme
		return s, []Effect{ApplyTheme{Theme: ev.Theme}}
	}

	if !s.Loaded {
		return s, nil
	}

	switch ev := ev.(type) {
	case PointerDown:
		s.Dragging = true
		s.Moved = false
		s.Grab = position.GrabOffset(ev.At, s.Position)

	case PointerMove:
		if s.Dragging {
			next := cfg.Engine.Drag(ev.At, s.Grab, s.Widget, s.Viewport)
			if next != s.Position {
				s.Moved = true
				s.Position = next
				s = placeMenu(s, cfg)
				fx = append(fx, Render{})
			}
		}
		s, fx = activity(s, fx, cfg)

	case PointerUp:
		if !s.Dragging {
			return s, nil
		}
		s.Dragging = false
		s, fx = pin(s, fx, cfg)
		s, fx = activity(s, fx, cfg)

	case BubbleClick:
		if s.Moved {
			// the click that ends a drag never toggles the menu
			s.Moved = false
			return s, nil
		}
		s.MenuVisible = !s.MenuVisible
		s = placeMenu(s, cfg)
		fx = append(fx, Render{})
		s, fx = activity(s, fx, cfg)

	case OutsideClick:
		if s.MenuVisible {
			s.MenuVisible = false
			fx = append(fx, Render{})
		}
		s, fx = activity(s, fx, cfg)

	case MenuClick:
		return s, nil

	case Activity:
		s, fx = activity(s, fx, cfg)

	case HideTimerFired:
		if ev.Gen != s.HideGen || s.MenuVisible || s.Dragging || s.AutoHidden {
			return s, nil
		}
		s.AutoHidden = true
		fx = append(fx, Render{})

	case PinTimerFired:
		if ev.Gen != s.PinGen || !s.Pinning {
			return s, nil
		}
		s.Pinning = false
		fx = append(fx, Render{})

	case Resize:
		s.Viewport = ev.Viewport
		s, fx = pin(s, fx, cfg)

	case MenuResized:
		if s.Menu == ev.Size {
			return s, nil
		}
		s.Menu = ev.Size
		if s.MenuVisible {
			s = placeMenu(s, cfg)
			fx = append(fx, Render{})
		}

	case ShowDialog:
		if ev.TaskID != "" {
			if _, ok := tasks.Find(s.Tasks, ev.TaskID); !ok {
				return s, nil
			}
		}
		s.DialogOpen = true
		s.EditingID = ev.TaskID
		fx = append(fx, Render{})

	case CloseDialog:
		if !s.DialogOpen {
			return s, nil
		}
		s.DialogOpen = false
		s.EditingID = ""
		fx = append(fx, Render{})

	case SubmitDialog:
		if !s.DialogOpen || strings.TrimSpace(ev.Text) == "" {
			return s, nil
		}
		var changed bool
		if s.EditingID != "" {
			s, changed = editTask(s, s.EditingID, ev.Text)
		} else {
			s, changed = addTask(s, ev.Text)
		}
		s.DialogOpen = false
		s.EditingID = ""
		if changed {
			fx = append(fx, SaveTasks{Tasks: s.Tasks})
		}
		fx = append(fx, Render{})

	case AddTask:
		var changed bool
		if s, changed = addTask(s, ev.Text); changed {
			fx = append(fx, SaveTasks{Tasks: s.Tasks}, Render{})
		}

	case EditTask:
		var changed bool
		if s, changed = editTask(s, ev.ID, ev.Text); changed {
			fx = append(fx, SaveTasks{Tasks: s.Tasks}, Render{})
		}

	case CompleteTask:
		next, changed, err := tasks.Complete(s.Tasks, ev.ID, ev.At)
		if err != nil || !changed {
			return s, nil
		}
		s.Tasks = next
		fx = append(fx, SaveTasks{Tasks: s.Tasks}, Render{})

	case DeleteTask:
		next, err := tasks.Delete(s.Tasks, ev.ID)
		if err != nil {
			return s, nil
		}
		s.Tasks = next
		fx = append(fx, SaveTasks{Tasks: s.Tasks}, Render{})

	case ReorderTask:
		next, changed := tasks.Reorder(s.Tasks, ev.DraggedID, ev.TargetID, ev.Where)
		if !changed {
			return s, nil
		}
		s.Tasks = next
		fx = append(fx, SaveTasks{Tasks: s.Tasks}, Render{})
	}

	return s, fx
}

func load(s State, l Loaded, cfg Config) (State, []Effect) {
	s.Loaded = true
	s.Tasks = l.Tasks
	s.Theme = l.Theme
	s.Viewport = l.Viewport
	s.Widget = l.Widget
	s.Position = cfg.Engine.Restore(l.Position, l.Widget, l.Viewport)
	s.Corner = position.NearestCorner(s.Position, s.Widget, s.Viewport)

	fx := []Effect{ApplyTheme{Theme: s.Theme}}
	if l.Position == nil || *l.Position != s.Position {
		fx = append(fx, SavePosition{Position: s.Position})
	}
	fx = append(fx, Render{})
	s, fx = activity(s, fx, cfg)
	return s, fx
}

// activity makes the bubble visible again and restarts the auto-hide
// countdown. The countdown only runs while the menu is closed and no drag
// is in progress.
func activity(s State, fx []Effect, cfg Config) (State, []Effect) {
	if s.AutoHidden {
		s.AutoHidden = false
		fx = appendRender(fx)
	}

	s.HideGen++
	if s.MenuVisible || s.Dragging {
		return s, append(fx, CancelHideTimer{})
	}
	return s, append(fx, ArmHideTimer{Gen: s.HideGen, After: cfg.AutoHideDelay})
}

// pin snaps the bubble to the corner of its quadrant, starts the pin
// transition and persists the new position
func pin(s State, fx []Effect, cfg Config) (State, []Effect) {
	s.Position, s.Corner = cfg.Engine.Pin(s.Position, s.Widget, s.Viewport)
	s.Pinning = true
	s.PinGen++
	s = placeMenu(s, cfg)

	return s, append(fx,
		SavePosition{Position: s.Position},
		ArmPinTimer{Gen: s.PinGen, After: cfg.PinTransition},
		Render{},
	)
}

func placeMenu(s State, cfg Config) State {
	if !s.MenuVisible {
		return s
	}
	s.Placement = cfg.Engine.PlaceMenu(s.BubbleRect(), s.Menu, s.Viewport)
	return s
}

func addTask(s State, text string) (State, bool) {
	next, _, err := tasks.Add(s.Tasks, text)
	if err != nil {
		return s, false
	}
	s.Tasks = next
	return s, true
}

func editTask(s State, id, text string) (State, bool) {
	next, changed, err := tasks.Edit(s.Tasks, id, text)
	if err != nil || !changed {
		return s, false
	}
	s.Tasks = next
	return s, true
}

func render(s State) []Effect {
	if !s.Loaded {
		return nil
	}
	return []Effect{Render{}}
}

func appendRender(fx []Effect) []Effect {
	for _, e := range fx {
		if _, ok := e.(Render); ok {
			return fx
		}
	}
	return append(fx, Render{})
}
