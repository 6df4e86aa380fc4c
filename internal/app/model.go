// Package app embeds the editing engine in a bubbletea program. It is
// a thin shell: every edit goes through the controller and the command
// history, and the view re-reads the store after each change
// notification. The app keeps no copy of curve data.
package app

import (
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/semmlerino/curveditor/internal/config"
	"github.com/semmlerino/curveditor/internal/controller"
	"github.com/semmlerino/curveditor/internal/curve"
	"github.com/semmlerino/curveditor/internal/history"
	"github.com/semmlerino/curveditor/internal/render"
	"github.com/semmlerino/curveditor/internal/store"
	"github.com/semmlerino/curveditor/internal/track"
)

// curvesLoadedMsg hands the result of a background file load back to
// the interaction goroutine. The store is only touched from Update.
type curvesLoadedMsg struct {
	path string
	data []track.Data
	err  error
}

func loadCurvesCmd(path string) tea.Cmd {
	return func() tea.Msg {
		data, err := track.LoadFile(path)
		return curvesLoadedMsg{path: path, data: data, err: err}
	}
}

// Model is the bubbletea model.
type Model struct {
	st     *store.Store
	hist   *history.History
	ctrl   *controller.Controller
	cfg    *config.Config
	logger *slog.Logger
	keys   keyMap

	width  int
	height int

	// Crosshair cursor in screen cells; space "presses" the pointer at
	// the cursor so cursor moves become drag or rect-select motion.
	cursorX int
	cursorY int
	pressed bool

	// View transform: data coords of the top-left cell, and data units
	// per cell. Terminal cells are about twice as tall as wide, so the
	// vertical step doubles.
	panX, panY   float64
	unitsPerCell float64

	help      bool
	statusMsg string
	errMsg    string
	loadPaths []string
	savePath  string

	// timeline is a derived, disposable view of the aggregate frame
	// status. It is rebuilt whenever the store reports a change; the
	// app never keeps curve data of its own.
	timeline      string
	timelineDirty bool
}

func New(cfg *config.Config, logger *slog.Logger, loadPaths []string) *Model {
	if logger == nil {
		logger = slog.Default()
	}
	st := store.New(store.WithLogger(logger))
	hist := history.New(cfg.HistorySize, logger)
	ctrl := controller.New(st, hist,
		controller.WithTolerance(cfg.HitTolerance),
		controller.WithNudgeStep(cfg.NudgeStep),
		controller.WithLogger(logger),
	)
	ctrl.CrossFrame = cfg.CrossFrameSelect
	m := &Model{
		st:            st,
		hist:          hist,
		ctrl:          ctrl,
		cfg:           cfg,
		logger:        logger,
		keys:          defaultKeyMap(),
		unitsPerCell:  8,
		loadPaths:     loadPaths,
		savePath:      cfg.SavePath("curves.txt"),
		timelineDirty: true,
	}
	st.Subscribe(func(store.Change) {
		m.timelineDirty = true
	})
	return m
}

// Store exposes the state store for tests and collaborators.
func (m *Model) Store() *store.Store { return m.st }

func (m *Model) Init() tea.Cmd {
	m.st.BindGoroutine()
	var cmds []tea.Cmd
	for _, p := range m.loadPaths {
		cmds = append(cmds, loadCurvesCmd(p))
	}
	return tea.Batch(cmds...)
}

// cellSteps returns the data-unit step of one cell horizontally and
// vertically.
func (m *Model) cellSteps() (float64, float64) {
	return m.unitsPerCell, m.unitsPerCell * 2
}

// dataAt maps a screen cell to data coordinates.
func (m *Model) dataAt(cellX, cellY int) (float64, float64) {
	sx, sy := m.cellSteps()
	return m.panX + float64(cellX)*sx, m.panY + float64(cellY)*sy
}

func (m *Model) cursorData() (float64, float64) {
	return m.dataAt(m.cursorX, m.cursorY)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clampCursor()
		m.timelineDirty = true
		return m, nil

	case curvesLoadedMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		err := m.st.Batch(func() error {
			for _, d := range msg.data {
				if err := m.st.SetCurveData(d.Name, d.Points); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.afterLoad(msg.data)
		m.statusMsg = fmt.Sprintf("loaded %d curve(s) from %s", len(msg.data), msg.path)
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// afterLoad activates the first loaded curve, widens the frame range
// to cover the data, and fits the view.
func (m *Model) afterLoad(data []track.Data) {
	start, end := m.st.FrameRange()
	for _, d := range data {
		c := curve.Curve{Name: d.Name, Points: d.Points}
		if first, last, ok := c.FrameSpan(); ok {
			if first < start {
				start = first
			}
			if last > end {
				end = last
			}
		}
	}
	m.st.Batch(func() error {
		m.st.SetFrameRange(start, end)
		if m.st.ActiveCurve() == "" && len(data) > 0 {
			m.st.SetActiveCurve(data[0].Name)
		}
		return nil
	})
	m.fitView()
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Model {
	x, y := m.dataAt(msg.X, msg.Y)
	switch msg.Type {
	case tea.MouseLeft:
		m.ctrl.PointerDown(x, y, controller.Modifiers{Multi: msg.Shift})
		m.cursorX, m.cursorY = msg.X, msg.Y
	case tea.MouseMotion:
		m.ctrl.PointerMove(x, y)
		m.cursorX, m.cursorY = msg.X, msg.Y
	case tea.MouseRelease:
		m.ctrl.PointerUp(x, y)
	}
	return m
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.statusMsg = ""
	m.errMsg = ""

	if m.help {
		m.help = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help = true
		return m, nil

	case key.Matches(msg, m.keys.Cancel):
		m.ctrl.Cancel()
		m.pressed = false
		return m, nil

	case key.Matches(msg, m.keys.CursorLeft), key.Matches(msg, m.keys.FastLeft):
		m.moveCursor(-m.cursorSpeed(msg), 0)
	case key.Matches(msg, m.keys.CursorRight), key.Matches(msg, m.keys.FastRight):
		m.moveCursor(m.cursorSpeed(msg), 0)
	case key.Matches(msg, m.keys.CursorUp), key.Matches(msg, m.keys.FastUp):
		m.moveCursor(0, -m.cursorSpeed(msg))
	case key.Matches(msg, m.keys.CursorDown), key.Matches(msg, m.keys.FastDown):
		m.moveCursor(0, m.cursorSpeed(msg))

	case key.Matches(msg, m.keys.Press):
		x, y := m.cursorData()
		if m.pressed {
			m.ctrl.PointerUp(x, y)
			m.pressed = false
		} else {
			m.ctrl.PointerDown(x, y, controller.Modifiers{})
			m.pressed = true
		}

	case key.Matches(msg, m.keys.NudgeLeft):
		m.ctrl.Nudge(-1, 0)
	case key.Matches(msg, m.keys.NudgeRight):
		m.ctrl.Nudge(1, 0)
	case key.Matches(msg, m.keys.NudgeUp):
		m.ctrl.Nudge(0, -1)
	case key.Matches(msg, m.keys.NudgeDown):
		m.ctrl.Nudge(0, 1)

	case key.Matches(msg, m.keys.PrevFrame):
		m.st.SetCurrentFrame(m.st.CurrentFrame() - 1)
	case key.Matches(msg, m.keys.NextFrame):
		m.st.SetCurrentFrame(m.st.CurrentFrame() + 1)

	case key.Matches(msg, m.keys.Undo):
		if err := m.ctrl.Undo(); err != nil {
			m.errMsg = "operation failed"
			m.logger.Error("undo failed", "err", err)
		}
	case key.Matches(msg, m.keys.Redo):
		if err := m.ctrl.Redo(); err != nil {
			m.errMsg = "operation failed"
			m.logger.Error("redo failed", "err", err)
		}

	case key.Matches(msg, m.keys.Delete):
		if err := m.ctrl.DeleteSelected(); err != nil {
			m.errMsg = err.Error()
		}

	case key.Matches(msg, m.keys.Insert):
		x, y := m.cursorData()
		if err := m.ctrl.InsertPointAt(x, y, curve.StatusKeyframe); err != nil {
			m.errMsg = err.Error()
		}

	case key.Matches(msg, m.keys.Copy):
		m.copySelection()

	case key.Matches(msg, m.keys.StatusNormal):
		m.setStatus(curve.StatusNormal)
	case key.Matches(msg, m.keys.StatusKeyframe):
		m.setStatus(curve.StatusKeyframe)
	case key.Matches(msg, m.keys.StatusTracked):
		m.setStatus(curve.StatusTracked)
	case key.Matches(msg, m.keys.StatusInterp):
		m.setStatus(curve.StatusInterpolated)
	case key.Matches(msg, m.keys.StatusEndframe):
		m.setStatus(curve.StatusEndframe)

	case key.Matches(msg, m.keys.NextCurve):
		m.cycleActiveCurve()

	case key.Matches(msg, m.keys.Save):
		m.saveCurves()
	case key.Matches(msg, m.keys.Export):
		m.exportPNG()
	case key.Matches(msg, m.keys.Fit):
		m.fitView()
	}
	return m, nil
}

func (m *Model) cursorSpeed(msg tea.KeyMsg) int {
	switch msg.String() {
	case "H", "L", "K", "J":
		return 2
	}
	return 1
}

func (m *Model) moveCursor(dx, dy int) {
	m.cursorX += dx
	m.cursorY += dy
	m.clampCursor()
	if m.pressed {
		x, y := m.cursorData()
		m.ctrl.PointerMove(x, y)
	}
}

func (m *Model) clampCursor() {
	if m.cursorX < 0 {
		m.cursorX = 0
	}
	if m.cursorY < 0 {
		m.cursorY = 0
	}
	if m.width > 0 && m.cursorX >= m.width {
		m.cursorX = m.width - 1
	}
	maxY := m.height - statusBarHeight - 1
	if maxY < 0 {
		maxY = 0
	}
	if m.cursorY > maxY {
		m.cursorY = maxY
	}
}

func (m *Model) setStatus(s curve.Status) {
	if err := m.ctrl.SetSelectedStatus(s); err != nil {
		m.errMsg = err.Error()
		return
	}
	m.statusMsg = fmt.Sprintf("selection set to %s", s)
}

func (m *Model) cycleActiveCurve() {
	names := m.st.CurveNames()
	if len(names) == 0 {
		return
	}
	active := m.st.ActiveCurve()
	next := names[0]
	for i, n := range names {
		if n == active && i+1 < len(names) {
			next = names[i+1]
			break
		}
	}
	m.st.SetActiveCurve(next)
}

func (m *Model) copySelection() {
	name, c, ok := m.st.ActiveCurveData()
	if !ok {
		return
	}
	sel := m.st.Selection(name)
	if len(sel) == 0 {
		m.statusMsg = "nothing selected"
		return
	}
	pts := make([]curve.Point, 0, len(sel))
	for _, i := range sel {
		pts = append(pts, c.Points[i])
	}
	if err := track.CopyPoints(pts); err != nil {
		m.errMsg = "clipboard unavailable"
		m.logger.Warn("clipboard copy failed", "err", err)
		return
	}
	m.statusMsg = fmt.Sprintf("copied %d point(s)", len(pts))
}

func (m *Model) saveCurves() {
	names := m.st.CurveNames()
	data := make([]track.Data, 0, len(names))
	for _, name := range names {
		c, ok := m.st.Curve(name)
		if !ok {
			continue
		}
		data = append(data, track.Data{Name: name, Points: c.Points})
	}
	if err := track.SaveFile(m.savePath, data); err != nil {
		m.errMsg = err.Error()
		return
	}
	m.statusMsg = fmt.Sprintf("saved %d curve(s) to %s", len(data), m.savePath)
}

func (m *Model) exportPNG() {
	path := m.cfg.SavePath("curves.png")
	err := render.Snapshot(path, m.st.Curves(), m.st.CurrentFrame(), 1280, 720)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.statusMsg = "exported " + path
}

// fitView pans and scales so every point is on screen.
func (m *Model) fitView() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	minX, minY, maxX, maxY, ok := m.dataBounds()
	if !ok {
		return
	}
	viewW := float64(m.width - 2)
	viewH := float64(m.height - statusBarHeight - 2)
	if viewW < 1 || viewH < 1 {
		return
	}
	spanX := maxX - minX
	spanY := maxY - minY
	if spanX <= 0 {
		spanX = 1
	}
	if spanY <= 0 {
		spanY = 1
	}
	m.unitsPerCell = spanX / viewW
	if vertical := spanY / (viewH * 2); vertical > m.unitsPerCell {
		m.unitsPerCell = vertical
	}
	if m.unitsPerCell <= 0 {
		m.unitsPerCell = 1
	}
	m.panX = minX - m.unitsPerCell
	m.panY = minY - m.unitsPerCell*2
}

func (m *Model) dataBounds() (minX, minY, maxX, maxY float64, ok bool) {
	first := true
	for _, name := range m.st.CurveNames() {
		c, exists := m.st.Curve(name)
		if !exists {
			continue
		}
		for _, p := range c.Points {
			if first {
				minX, maxX = p.X, p.X
				minY, maxY = p.Y, p.Y
				first = false
				continue
			}
			if p.X < minX {
				minX = p.X
			}
			if p.X > maxX {
				maxX = p.X
			}
			if p.Y < minY {
				minY = p.Y
			}
			if p.Y > maxY {
				maxY = p.Y
			}
		}
	}
	return minX, minY, maxX, maxY, !first
}
