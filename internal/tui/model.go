package tui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"bubbletasks/backend"
	"bubbletasks/internal/position"
	"bubbletasks/internal/tasks"
	"bubbletasks/internal/utils"
	"bubbletasks/internal/widget"
)

// Bubble size in cells, borders included
const (
	BubbleWidth  = 5
	BubbleHeight = 3
)

const maxTaskWidth = 40

var bubbleSize = position.Size{Width: BubbleWidth, Height: BubbleHeight}

// Options tunes the terminal program
type Options struct {
	// Refresh is the interval at which Refresher is polled; zero disables it
	Refresh time.Duration
	// Refresher reloads storage changed by other processes
	Refresher func(context.Context) error
}

type pressKind int

const (
	pressNone pressKind = iota
	pressBubble
	pressMenu
)

// menuRow maps one content line of the menu to the task drawn on it
type menuRow struct {
	taskID string
	active bool
}

type refreshTickMsg struct{}

type refreshedMsg struct{ err error }

// Model is the bubbletea model drawing the bubble, its menu and the task
// dialog. It translates terminal input into controller events.
type Model struct {
	ctx     context.Context
	ctrl    *widget.Controller
	store   *tasks.Store
	surface *Surface
	opts    Options

	state  widget.State
	theme  backend.Theme
	styles Styles
	input  textinput.Model

	width, height int
	started       bool
	quitting      bool

	cursor    int
	press     pressKind
	pressTask string
}

// New creates the model. The controller must render into surface.
func New(ctx context.Context, ctrl *widget.Controller, store *tasks.Store, surface *Surface, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "What needs doing?"
	ti.CharLimit = 500
	ti.Width = maxTaskWidth

	return Model{
		ctx:     ctx,
		ctrl:    ctrl,
		store:   store,
		surface: surface,
		opts:    opts,
		theme:   backend.ThemeSystem,
		styles:  StylesFor(backend.ThemeSystem),
		input:   ti,
		width:   80,
		height:  24,
	}
}

// Init waits for the first render and starts the storage poll
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.surface.wait(), m.tick())
}

// Update handles messages and forwards input to the controller
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		viewport := position.Size{Width: float64(msg.Width), Height: float64(msg.Height)}
		if !m.started {
			m.started = true
			m.ctrl.Start(m.ctx, viewport, bubbleSize)
		} else {
			m.ctrl.Dispatch(widget.Resize{Viewport: viewport})
		}
		return m.refresh(), nil

	case renderMsg:
		return m.refresh(), m.surface.wait()

	case refreshTickMsg:
		return m, m.reload()

	case refreshedMsg:
		if msg.err != nil {
			utils.Debugf("Storage refresh failed: %v", msg.err)
		}
		return m.refresh(), m.tick()

	case tea.MouseMsg:
		if !m.started {
			return m, nil
		}
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.state.DialogOpen {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" || (!m.state.DialogOpen && msg.String() == "q") {
		return m.quit()
	}
	if !m.started {
		return m, nil
	}

	m.ctrl.Dispatch(widget.Activity{})

	if m.state.DialogOpen {
		switch msg.Type {
		case tea.KeyEsc:
			m.ctrl.Dispatch(widget.CloseDialog{})
			m.input.Blur()
			return m.refresh(), nil
		case tea.KeyEnter:
			m.ctrl.Dispatch(widget.SubmitDialog{Text: m.input.Value()})
			m.input.Reset()
			m.input.Blur()
			return m.refresh(), nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case " ", "m":
		m.ctrl.Dispatch(widget.BubbleClick{})
	case "esc":
		m.ctrl.Dispatch(widget.OutsideClick{})
	case "a":
		return m.openDialog("")
	case "t":
		next := nextTheme(m.theme)
		if err := m.store.SetTheme(m.ctx, next); err != nil {
			utils.Warnf("Failed to save theme: %v", err)
		}
	}

	if m.state.MenuVisible {
		rows := m.taskRows()
		selected := ""
		if m.cursor >= 0 && m.cursor < len(rows) {
			selected = rows[m.cursor].ID
		}

		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(rows)-1 {
				m.cursor++
			}
		case "e":
			if selected != "" {
				return m.openDialog(selected)
			}
		case "x", "enter":
			if selected != "" {
				m.ctrl.Complete(selected)
			}
		case "d", "delete":
			if selected != "" {
				m.ctrl.Dispatch(widget.DeleteTask{ID: selected})
			}
		case "K", "shift+up":
			if m.cursor > 0 && rows[m.cursor].IsActive() {
				m.ctrl.Dispatch(widget.ReorderTask{DraggedID: selected, TargetID: rows[m.cursor-1].ID, Where: tasks.Before})
				m.cursor--
			}
		case "J", "shift+down":
			if m.cursor < len(rows)-1 && rows[m.cursor].IsActive() && rows[m.cursor+1].IsActive() {
				m.ctrl.Dispatch(widget.ReorderTask{DraggedID: selected, TargetID: rows[m.cursor+1].ID, Where: tasks.After})
				m.cursor++
			}
		}
	}

	return m.refresh(), nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	at := position.Point{X: float64(msg.X), Y: float64(msg.Y)}

	switch msg.Action {
	case tea.MouseActionPress:
		if m.state.DialogOpen {
			return m, nil
		}
		if msg.Button != tea.MouseButtonLeft {
			// wheel and other buttons only count as activity
			m.ctrl.Dispatch(widget.Activity{})
			return m.refresh(), nil
		}
		switch {
		case m.state.Visible() && inCell(m.state.BubbleRect(), msg.X, msg.Y):
			m.press = pressBubble
			m.ctrl.Dispatch(widget.PointerDown{At: at})
		case m.state.MenuVisible && inCell(m.menuRect(), msg.X, msg.Y):
			m.press = pressMenu
			m.ctrl.Dispatch(widget.MenuClick{})
			if idx, row, ok := m.menuRowAt(msg.X, msg.Y); ok {
				m.cursor = idx
				if row.active && m.onCheckbox(msg.X) {
					m.ctrl.Complete(row.taskID)
				} else {
					m.pressTask = row.taskID
				}
			}
		default:
			m.ctrl.Dispatch(widget.OutsideClick{})
		}

	case tea.MouseActionMotion:
		if m.state.Dragging {
			m.ctrl.Dispatch(widget.PointerMove{At: at})
		} else {
			m.ctrl.Dispatch(widget.Activity{})
		}

	case tea.MouseActionRelease:
		switch m.press {
		case pressBubble:
			m.ctrl.Dispatch(widget.PointerUp{At: at})
			m.ctrl.Dispatch(widget.BubbleClick{})
		case pressMenu:
			m.dropTask(msg.X, msg.Y)
		}
		m.press = pressNone
		m.pressTask = ""
	}

	return m.refresh(), nil
}

// dropTask finishes a drag inside the menu: a task dropped on another
// active task lands before it when moved up and after it when moved down
func (m *Model) dropTask(x, y int) {
	if m.pressTask == "" {
		return
	}
	idx, target, ok := m.menuRowAt(x, y)
	if !ok || !target.active || target.taskID == m.pressTask {
		return
	}
	from := tasks.IndexOf(m.taskRows(), m.pressTask)
	where := tasks.After
	if idx < from {
		where = tasks.Before
	}
	m.ctrl.Dispatch(widget.ReorderTask{DraggedID: m.pressTask, TargetID: target.taskID, Where: where})
	m.cursor = idx
}

func (m Model) openDialog(taskID string) (tea.Model, tea.Cmd) {
	m.ctrl.Dispatch(widget.ShowDialog{TaskID: taskID})
	m = m.refresh()
	if !m.state.DialogOpen {
		return m, nil
	}

	m.input.Reset()
	if t, ok := tasks.Find(m.state.Tasks, taskID); ok {
		m.input.SetValue(t.Text)
		m.input.CursorEnd()
	}
	return m, tea.Batch(m.input.Focus(), textinput.Blink)
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	if m.started {
		m.ctrl.Close()
	}
	m.surface.Close()
	return m, tea.Quit
}

// refresh pulls the latest controller state and keeps the controller's
// idea of the menu size in step with what will be drawn
func (m Model) refresh() Model {
	m.state = m.ctrl.State()
	_, theme := m.surface.Snapshot()
	if theme != m.theme {
		m.theme = theme
		m.styles = StylesFor(theme)
	}

	if rows := m.taskRows(); m.cursor >= len(rows) {
		m.cursor = max(len(rows)-1, 0)
	}

	if m.state.Loaded {
		if size := m.menuSize(); size != m.state.Menu {
			m.ctrl.Dispatch(widget.MenuResized{Size: size})
			m.state = m.ctrl.State()
		}
	}
	return m
}

func (m Model) tick() tea.Cmd {
	if m.opts.Refresh <= 0 || m.opts.Refresher == nil {
		return nil
	}
	return tea.Tick(m.opts.Refresh, func(time.Time) tea.Msg { return refreshTickMsg{} })
}

func (m Model) reload() tea.Cmd {
	refresher, ctx := m.opts.Refresher, m.ctx
	return func() tea.Msg {
		return refreshedMsg{err: refresher(ctx)}
	}
}

// taskRows returns the tasks in menu order: active first, then completed
func (m Model) taskRows() []backend.Task {
	return append(m.state.Active(), m.state.Completed()...)
}

// menuContent returns the menu's lines and, for each line, the task it shows
func (m Model) menuContent() ([]string, []menuRow) {
	active := m.state.Active()
	done := m.state.Completed()

	lines := []string{m.styles.Title.Render(fmt.Sprintf("To-do (%d)", len(active)))}
	rows := []menuRow{{}}

	idx := 0
	for _, t := range active {
		line := "[ ] " + truncate(t.Text, maxTaskWidth)
		style := m.styles.Task
		if idx == m.cursor {
			style = m.styles.Cursor
		}
		lines = append(lines, style.Render(line))
		rows = append(rows, menuRow{taskID: t.ID, active: true})
		idx++
	}

	if len(done) > 0 {
		lines = append(lines, m.styles.Help.Render("Done"))
		rows = append(rows, menuRow{})
	}
	for _, t := range done {
		line := "[x] " + truncate(t.Text, maxTaskWidth)
		style := m.styles.Done
		if idx == m.cursor {
			style = m.styles.Cursor
		}
		lines = append(lines, style.Render(line))
		rows = append(rows, menuRow{taskID: t.ID})
		idx++
	}

	if len(m.state.Tasks) == 0 {
		lines = append(lines, m.styles.Help.Render("No tasks yet"))
		rows = append(rows, menuRow{})
	}

	lines = append(lines, m.styles.Help.Render("a add · e edit · x done · d del"))
	rows = append(rows, menuRow{})
	return lines, rows
}

func (m Model) renderMenu() string {
	lines, _ := m.menuContent()
	return m.styles.Menu.Render(strings.Join(lines, "\n"))
}

func (m Model) menuSize() position.Size {
	menu := m.renderMenu()
	return position.Size{Width: float64(lipgloss.Width(menu)), Height: float64(lipgloss.Height(menu))}
}

func (m Model) menuRect() position.Rect {
	return m.state.MenuRect()
}

// menuRowAt returns the task row under a cell of the menu together with
// its index in taskRows
func (m Model) menuRowAt(x, y int) (int, menuRow, bool) {
	r := m.menuRect()
	line := y - cell(r.Top) - 1
	_, rows := m.menuContent()
	if line < 0 || line >= len(rows) || rows[line].taskID == "" {
		return 0, menuRow{}, false
	}
	idx := tasks.IndexOf(m.taskRows(), rows[line].taskID)
	return idx, rows[line], idx >= 0
}

// onCheckbox reports whether column x hits the "[ ]" of a menu row
func (m Model) onCheckbox(x int) bool {
	col := x - cell(m.menuRect().Left) - 2
	return col >= 0 && col < 3
}

func nextTheme(t backend.Theme) backend.Theme {
	switch t {
	case backend.ThemeSystem:
		return backend.ThemeLight
	case backend.ThemeLight:
		return backend.ThemeDark
	default:
		return backend.ThemeSystem
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func cell(v float64) int {
	return int(math.Round(v))
}

// inCell reports whether the cell (x, y) lies inside r
func inCell(r position.Rect, x, y int) bool {
	left, top := cell(r.Left), cell(r.Top)
	return x >= left && x < left+cell(r.Width) && y >= top && y < top+cell(r.Height)
}
