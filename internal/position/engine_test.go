package position

import (
	"testing"
)

var (
	viewport = Size{Width: 1000, Height: 800}
	bubble   = Size{Width: 60, Height: 60}
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name string
		in   Position
		want Position
	}{
		{"inside", Position{Top: 100, Left: 200}, Position{Top: 100, Left: 200}},
		{"negative", Position{Top: -50, Left: -10}, Position{Top: 0, Left: 0}},
		{"past bottom right", Position{Top: 900, Left: 2000}, Position{Top: 740, Left: 940}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clamp(tt.in, bubble, viewport)
			if got != tt.want {
				t.Errorf("Clamp(%+v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestClamp_WidgetLargerThanViewport(t *testing.T) {
	got := Clamp(Position{Top: 30, Left: 30}, Size{Width: 200, Height: 200}, Size{Width: 100, Height: 100})
	if got.Top != 0 || got.Left != 0 {
		t.Errorf("Expected lower bound to win, got %+v", got)
	}
}

func TestClamp_StaysInBounds(t *testing.T) {
	for top := -300.0; top <= 1200; top += 37 {
		for left := -300.0; left <= 1400; left += 41 {
			p := Clamp(Position{Top: top, Left: left}, bubble, viewport)
			if p.Top < 0 || p.Left < 0 {
				t.Fatalf("Clamp(%v,%v) = %+v has negative coordinate", top, left, p)
			}
			if p.Top+bubble.Height > viewport.Height || p.Left+bubble.Width > viewport.Width {
				t.Fatalf("Clamp(%v,%v) = %+v overflows viewport", top, left, p)
			}
		}
	}
}

func TestPin_TopLeftAfterDrag(t *testing.T) {
	e := NewEngine()

	dragged := e.Drag(Point{X: 10, Y: 10}, Point{X: 0, Y: 0}, bubble, viewport)
	if dragged != (Position{Top: 10, Left: 10}) {
		t.Fatalf("Drag = %+v", dragged)
	}

	pinned, corner := e.Pin(dragged, bubble, viewport)
	if corner != TopLeft {
		t.Errorf("Expected top-left, got %s", corner)
	}
	if pinned != (Position{Top: 20, Left: 20}) {
		t.Errorf("Pin = %+v, want {20 20}", pinned)
	}
}

func TestPin_Corners(t *testing.T) {
	e := NewEngine()

	tests := []struct {
		from   Position
		corner Corner
		want   Position
	}{
		{Position{Top: 100, Left: 100}, TopLeft, Position{Top: 20, Left: 20}},
		{Position{Top: 100, Left: 800}, TopRight, Position{Top: 20, Left: 920}},
		{Position{Top: 600, Left: 100}, BottomLeft, Position{Top: 720, Left: 20}},
		{Position{Top: 600, Left: 800}, BottomRight, Position{Top: 720, Left: 920}},
	}

	for _, tt := range tests {
		t.Run(tt.corner.String(), func(t *testing.T) {
			got, corner := e.Pin(tt.from, bubble, viewport)
			if corner != tt.corner {
				t.Errorf("corner = %s, want %s", corner, tt.corner)
			}
			if got != tt.want {
				t.Errorf("Pin(%+v) = %+v, want %+v", tt.from, got, tt.want)
			}
		})
	}
}

func TestPin_CentreOnMidlineGoesRightAndBottom(t *testing.T) {
	e := NewEngine()
	// centre at exactly (500, 400)
	_, corner := e.Pin(Position{Top: 370, Left: 470}, bubble, viewport)
	if corner != BottomRight {
		t.Errorf("Expected bottom-right on the midlines, got %s", corner)
	}
}

func TestPin_TinyViewportStaysClamped(t *testing.T) {
	e := NewEngine()
	tiny := Size{Width: 70, Height: 70}
	got, _ := e.Pin(Position{Top: 5, Left: 5}, bubble, tiny)
	if got.Top < 0 || got.Left < 0 || got.Top+bubble.Height > tiny.Height || got.Left+bubble.Width > tiny.Width {
		t.Errorf("Pinned position %+v escapes tiny viewport", got)
	}
}

func TestDefaultAndRestore(t *testing.T) {
	e := NewEngine()

	def := e.Default(bubble, viewport)
	if def != (Position{Top: 720, Left: 920}) {
		t.Errorf("Default = %+v", def)
	}
	if got := e.Restore(nil, bubble, viewport); got != def {
		t.Errorf("Restore(nil) = %+v, want default", got)
	}

	saved := Position{Top: 30, Left: 900}
	if got := e.Restore(&saved, bubble, viewport); got != (Position{Top: 20, Left: 920}) {
		t.Errorf("Restore(%+v) = %+v", saved, got)
	}
}

func TestDecodePosition(t *testing.T) {
	tests := []struct {
		in   string
		want Position
		ok   bool
	}{
		{`{"top":10,"left":20}`, Position{Top: 10, Left: 20}, true},
		{`"{\"top\":5,\"left\":6}"`, Position{Top: 5, Left: 6}, true},
		{`{"top":10}`, Position{}, false},
		{`null`, Position{}, false},
		{``, Position{}, false},
		{`[1,2]`, Position{}, false},
	}

	for _, tt := range tests {
		got, ok := DecodePosition([]byte(tt.in))
		if ok != tt.ok || got != tt.want {
			t.Errorf("DecodePosition(%s) = %+v, %v; want %+v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestPlaceMenu_AboveWhenRoom(t *testing.T) {
	e := NewEngine()
	anchor := Position{Top: 720, Left: 920}.Rect(bubble)

	pl := e.PlaceMenu(anchor, Size{Width: 300, Height: 400}, viewport)
	if !pl.Above {
		t.Fatal("Expected menu above the bubble")
	}
	if pl.Capped {
		t.Errorf("Natural height should fit, got max %v", pl.MaxHeight)
	}
	if pl.Top != 720-400-20 {
		t.Errorf("Top = %v", pl.Top)
	}
	// centred at 950 would overflow, so clamped to the right padding
	if pl.Left != 1000-20-300 {
		t.Errorf("Left = %v", pl.Left)
	}
}

func TestPlaceMenu_BelowWhenAboveTooSmall(t *testing.T) {
	e := NewEngine()
	anchor := Position{Top: 20, Left: 470}.Rect(bubble)

	pl := e.PlaceMenu(anchor, Size{Width: 300, Height: 400}, viewport)
	if pl.Above {
		t.Fatal("Expected menu below the bubble")
	}
	if pl.Top != 20+60+20 {
		t.Errorf("Top = %v", pl.Top)
	}
	if pl.Left != 500-150 {
		t.Errorf("Left = %v, want centred", pl.Left)
	}
}

func TestPlaceMenu_CappedOnLargerSide(t *testing.T) {
	e := NewEngine()
	anchor := Position{Top: 500, Left: 20}.Rect(bubble)

	pl := e.PlaceMenu(anchor, Size{Width: 300, Height: 700}, viewport)
	if !pl.Above {
		t.Fatal("Expected the larger side (above) to win")
	}
	if pl.MaxHeight != 500-40 {
		t.Errorf("MaxHeight = %v, want %v", pl.MaxHeight, 500-40)
	}
	if pl.Top != 20 {
		t.Errorf("Top = %v", pl.Top)
	}
	if pl.Left != 20 {
		t.Errorf("Left = %v, want left padding", pl.Left)
	}
}

func TestPlaceMenu_ZeroRoomStaysCapped(t *testing.T) {
	e := NewEngine()
	small := Size{Width: 400, Height: 140}
	anchor := Position{Top: 40, Left: 170}.Rect(bubble)

	pl := e.PlaceMenu(anchor, Size{Width: 200, Height: 300}, small)
	if !pl.Capped || pl.MaxHeight != 0 {
		t.Fatalf("Expected a zero cap, got %+v", pl)
	}
	if h := pl.Height(300); h != 0 {
		t.Errorf("Height = %v, want 0", h)
	}
}

func TestPlaceMenu_TieGoesBelow(t *testing.T) {
	e := NewEngine()
	anchor := Position{Top: 370, Left: 470}.Rect(bubble)

	pl := e.PlaceMenu(anchor, Size{Width: 200, Height: 600}, viewport)
	if pl.Above {
		t.Error("Equal space should place the menu below")
	}
	if pl.MaxHeight != 370-40 {
		t.Errorf("MaxHeight = %v", pl.MaxHeight)
	}
}

func TestPlaceMenu_WithinPadding(t *testing.T) {
	e := NewEngine()
	menu := Size{Width: 250, Height: 300}

	for top := 0.0; top <= viewport.Height-bubble.Height; top += 53 {
		for left := 0.0; left <= viewport.Width-bubble.Width; left += 71 {
			pl := e.PlaceMenu(Position{Top: top, Left: left}.Rect(bubble), menu, viewport)
			h := pl.Height(menu.Height)
			if pl.Left < e.Padding || pl.Left+menu.Width > viewport.Width-e.Padding {
				t.Fatalf("menu at %+v escapes horizontally for anchor (%v,%v)", pl, top, left)
			}
			if pl.Top < e.Padding || pl.Top+h > viewport.Height-e.Padding {
				t.Fatalf("menu at %+v escapes vertically for anchor (%v,%v)", pl, top, left)
			}
		}
	}
}
