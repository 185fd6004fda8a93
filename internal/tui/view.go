package tui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View draws the bubble, the menu and the dialog at their absolute cells
func (m Model) View() string {
	if m.quitting || !m.started {
		return ""
	}

	c := newCanvas(m.width, m.height)

	if m.state.Visible() {
		c.place(cell(m.state.Position.Top), cell(m.state.Position.Left), m.renderBubble())
	}

	if m.state.MenuVisible {
		menu := m.renderMenu()
		if p := m.state.Placement; p.Capped {
			menu = clipLines(menu, cell(p.MaxHeight))
		}
		if menu != "" {
			c.place(cell(m.state.Placement.Top), cell(m.state.Placement.Left), menu)
		}
	}

	if m.state.DialogOpen {
		dialog := m.renderDialog()
		top := (m.height - lipgloss.Height(dialog)) / 2
		left := (m.width - lipgloss.Width(dialog)) / 2
		c.place(max(top, 0), max(left, 0), dialog)
	}

	return c.String()
}

func (m Model) renderBubble() string {
	label := m.state.Badge()
	switch {
	case label == "":
		label = "≡"
	case len(label) > BubbleWidth-2:
		label = "99+"
	}

	style := m.styles.Bubble
	if m.state.Pinning {
		style = m.styles.BubblePinning
	}
	return style.Width(BubbleWidth - 2).Render(label)
}

func (m Model) renderDialog() string {
	title := "New task"
	if m.state.EditingID != "" {
		title = "Edit task"
	}
	body := strings.Join([]string{
		m.styles.Title.Render(title),
		m.input.View(),
		m.styles.Help.Render("enter save · esc cancel"),
	}, "\n")
	return m.styles.Dialog.Render(body)
}

func clipLines(block string, n int) string {
	if n <= 0 {
		return ""
	}
	lines := strings.Split(block, "\n")
	if len(lines) <= n {
		return block
	}
	return strings.Join(lines[:n], "\n")
}

// span is a rendered fragment occupying [left, left+width) of one row
type span struct {
	left  int
	width int
	text  string
}

// canvas composes blocks at absolute positions. A block placed later hides
// whatever it overlaps on the same row.
type canvas struct {
	width int
	rows  [][]span
}

func newCanvas(width, height int) *canvas {
	return &canvas{width: width, rows: make([][]span, max(height, 0))}
}

func (c *canvas) place(top, left int, block string) {
	for i, line := range strings.Split(block, "\n") {
		y := top + i
		if y < 0 || y >= len(c.rows) {
			continue
		}
		s := span{left: left, width: lipgloss.Width(line), text: line}

		kept := c.rows[y][:0]
		for _, old := range c.rows[y] {
			if old.left+old.width <= s.left || s.left+s.width <= old.left {
				kept = append(kept, old)
			}
		}
		c.rows[y] = append(kept, s)
	}
}

func (c *canvas) String() string {
	var b strings.Builder
	for y, row := range c.rows {
		sort.Slice(row, func(i, j int) bool { return row[i].left < row[j].left })

		x := 0
		for _, s := range row {
			if s.left < x || s.left+s.width > c.width {
				continue
			}
			b.WriteString(strings.Repeat(" ", s.left-x))
			b.WriteString(s.text)
			x = s.left + s.width
		}
		if y < len(c.rows)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
