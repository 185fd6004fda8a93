package position

// Default spacing used for the task menu
const (
	DefaultMenuGap       = 20
	DefaultScreenPadding = 20
)

// Engine bundles the spacing constants of one rendering surface
type Engine struct {
	Margin  float64 // distance between a pinned bubble and the viewport edges
	Gap     float64 // distance between the bubble and its menu
	Padding float64 // minimum distance between the menu and the viewport edges
}

// NewEngine returns an engine with the default browser spacing
func NewEngine() Engine {
	return Engine{
		Margin:  DefaultMargin,
		Gap:     DefaultMenuGap,
		Padding: DefaultScreenPadding,
	}
}

// Drag returns the live position while the pointer drags the widget
func (e Engine) Drag(pointer, grab Point, widget, viewport Size) Position {
	return Clamp(Position{Top: pointer.Y - grab.Y, Left: pointer.X - grab.X}, widget, viewport)
}

// Pin snaps the widget to the corner of its current quadrant
func (e Engine) Pin(current Position, widget, viewport Size) (Position, Corner) {
	corner := NearestCorner(current, widget, viewport)
	return CornerPosition(corner, widget, viewport, e.Margin), corner
}

// Default returns the bottom-right anchor used when nothing is persisted
func (e Engine) Default(widget, viewport Size) Position {
	return CornerPosition(BottomRight, widget, viewport, e.Margin)
}

// Restore pins a persisted position against the current viewport, falling
// back to the default anchor when none is stored
func (e Engine) Restore(saved *Position, widget, viewport Size) Position {
	if saved == nil {
		return e.Default(widget, viewport)
	}
	p, _ := e.Pin(*saved, widget, viewport)
	return p
}

// MenuPlacement is where the task menu is drawn relative to the viewport
type MenuPlacement struct {
	Top       float64
	Left      float64
	Above     bool
	Capped    bool    // the natural height does not fit on either side
	MaxHeight float64 // only meaningful when Capped; may be 0
}

// Offset returns the placement relative to the anchor's top-left corner
func (m MenuPlacement) Offset(anchor Rect) Point {
	return Point{X: m.Left - anchor.Left, Y: m.Top - anchor.Top}
}

// Height returns the rendered height for a menu of natural height h
func (m MenuPlacement) Height(h float64) float64 {
	if m.Capped && m.MaxHeight < h {
		return m.MaxHeight
	}
	return h
}

// PlaceMenu positions the menu next to the anchor. Above is preferred when
// the full height plus the gap fits, then below, then whichever side has
// strictly more room with the height capped to it. Horizontally the menu is
// centred on the anchor. Both axes are finally clamped into the viewport
// minus the screen padding.
func (e Engine) PlaceMenu(anchor Rect, menu, viewport Size) MenuPlacement {
	var pl MenuPlacement

	spaceAbove := anchor.Top
	spaceBelow := viewport.Height - anchor.Bottom()
	height := menu.Height

	switch {
	case spaceAbove >= menu.Height+e.Gap:
		pl.Above = true
	case spaceBelow >= menu.Height+e.Gap:
		pl.Above = false
	case spaceAbove > spaceBelow:
		pl.Above = true
		pl.Capped = true
		pl.MaxHeight = nonNegative(spaceAbove - 2*e.Gap)
		height = pl.Height(menu.Height)
	default:
		pl.Above = false
		pl.Capped = true
		pl.MaxHeight = nonNegative(spaceBelow - 2*e.Gap)
		height = pl.Height(menu.Height)
	}

	if pl.Above {
		pl.Top = anchor.Top - height - e.Gap
	} else {
		pl.Top = anchor.Bottom() + e.Gap
	}

	pl.Left = anchor.Left + anchor.Width/2 - menu.Width/2
	if pl.Left < e.Padding {
		pl.Left = e.Padding
	} else if pl.Left+menu.Width > viewport.Width-e.Padding {
		pl.Left = viewport.Width - e.Padding - menu.Width
	}

	if pl.Top < e.Padding {
		pl.Top = e.Padding
	} else if pl.Top+height > viewport.Height-e.Padding {
		pl.Top = viewport.Height - e.Padding - height
	}

	return pl
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
