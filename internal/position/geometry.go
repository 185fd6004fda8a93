// Package position computes where the floating bubble and its task menu sit
// inside the viewport. All functions are pure; units are whatever the
// rendering surface uses (pixels in a browser, cells in a terminal).
package position

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// DefaultMargin is the distance kept between a pinned bubble and the edges
const DefaultMargin = 20

// Point is a pointer location in viewport coordinates
type Point struct {
	X float64
	Y float64
}

// Size is the extent of a viewport, widget or menu
type Size struct {
	Width  float64
	Height float64
}

func (s Size) String() string {
	return fmt.Sprintf("%gx%g", s.Width, s.Height)
}

// Position is the persisted top-left corner of the bubble
type Position struct {
	Top  float64 `json:"top"`
	Left float64 `json:"left"`
}

// Rect returns the bounding box of a widget of size s placed at p
func (p Position) Rect(s Size) Rect {
	return Rect{Top: p.Top, Left: p.Left, Width: s.Width, Height: s.Height}
}

// Rect is a bounding box in viewport coordinates
type Rect struct {
	Top    float64
	Left   float64
	Width  float64
	Height float64
}

// Bottom returns the y coordinate of the lower edge
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Right returns the x coordinate of the right edge
func (r Rect) Right() float64 { return r.Left + r.Width }

// Center returns the middle of the box
func (r Rect) Center() Point {
	return Point{X: r.Left + r.Width/2, Y: r.Top + r.Height/2}
}

// Contains reports whether pt lies inside the box (edges inclusive)
func (r Rect) Contains(pt Point) bool {
	return pt.X >= r.Left && pt.X <= r.Right() && pt.Y >= r.Top && pt.Y <= r.Bottom()
}

// Corner names one of the four pinning targets
type Corner int

const (
	TopLeft Corner = iota
	TopRight
	BottomLeft
	BottomRight
)

func (c Corner) String() string {
	switch c {
	case TopLeft:
		return "top-left"
	case TopRight:
		return "top-right"
	case BottomLeft:
		return "bottom-left"
	case BottomRight:
		return "bottom-right"
	}
	return fmt.Sprintf("corner(%d)", int(c))
}

// clampAxis keeps v within [0, viewport-widget]. When the widget is larger
// than the viewport the lower bound wins so the leading edge stays visible.
func clampAxis(v, widget, viewport float64) float64 {
	if max := viewport - widget; v > max {
		v = max
	}
	if v < 0 {
		v = 0
	}
	return v
}

// Clamp moves p so that a widget of the given size lies inside the viewport
func Clamp(p Position, widget, viewport Size) Position {
	return Position{
		Top:  clampAxis(p.Top, widget.Height, viewport.Height),
		Left: clampAxis(p.Left, widget.Width, viewport.Width),
	}
}

// GrabOffset returns where inside the widget the pointer grabbed it
func GrabOffset(pointer Point, current Position) Point {
	return Point{X: pointer.X - current.Left, Y: pointer.Y - current.Top}
}

// NearestCorner picks the corner of the quadrant holding the widget centre.
// Each axis is decided independently against the viewport midpoint.
func NearestCorner(p Position, widget, viewport Size) Corner {
	center := p.Rect(widget).Center()
	left := center.X < viewport.Width/2
	top := center.Y < viewport.Height/2

	switch {
	case top && left:
		return TopLeft
	case top:
		return TopRight
	case left:
		return BottomLeft
	default:
		return BottomRight
	}
}

// CornerPosition returns the pinned position for corner c, margin away from
// the two adjacent edges
func CornerPosition(c Corner, widget, viewport Size, margin float64) Position {
	p := Position{Top: margin, Left: margin}
	if c == TopRight || c == BottomRight {
		p.Left = viewport.Width - widget.Width - margin
	}
	if c == BottomLeft || c == BottomRight {
		p.Top = viewport.Height - widget.Height - margin
	}
	return Clamp(p, widget, viewport)
}

// DecodePosition reads a persisted position. Both the object form and the
// older string-encoded object are accepted. Non-finite coordinates are
// rejected.
func DecodePosition(data []byte) (Position, bool) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return Position{}, false
	}

	if strings.HasPrefix(trimmed, `"`) {
		var inner string
		if err := json.Unmarshal([]byte(trimmed), &inner); err != nil {
			return Position{}, false
		}
		trimmed = inner
	}

	var raw struct {
		Top  *float64 `json:"top"`
		Left *float64 `json:"left"`
	}
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return Position{}, false
	}
	if raw.Top == nil || raw.Left == nil {
		return Position{}, false
	}
	if !finite(*raw.Top) || !finite(*raw.Left) {
		return Position{}, false
	}
	return Position{Top: *raw.Top, Left: *raw.Left}, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
