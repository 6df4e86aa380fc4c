package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/semmlerino/curveditor/internal/curve"
	"github.com/semmlerino/curveditor/internal/framestatus"
)

// statusBarHeight covers the timeline row and the status line.
const statusBarHeight = 2

var (
	styleNormal       = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	styleKeyframe     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	styleTracked      = lipgloss.NewStyle().Foreground(lipgloss.Color("77"))
	styleInterpolated = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	styleEndframe     = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	styleDim          = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	styleSelected     = lipgloss.NewStyle().Foreground(lipgloss.Color("228")).Bold(true)
	styleCursor       = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Bold(true)
	styleCurrentFrame = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("63"))
	styleInactive     = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	styleStartframe   = lipgloss.NewStyle().Foreground(lipgloss.Color("120"))
	styleStatusBar    = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236"))
	styleError        = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Background(lipgloss.Color("236")).Bold(true)
)

func statusStyle(s curve.Status) lipgloss.Style {
	switch s {
	case curve.StatusKeyframe:
		return styleKeyframe
	case curve.StatusTracked:
		return styleTracked
	case curve.StatusInterpolated:
		return styleInterpolated
	case curve.StatusEndframe:
		return styleEndframe
	}
	return styleNormal
}

type viewCell struct {
	ch    rune
	style lipgloss.Style
}

func (m *Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	if m.help {
		return m.helpView()
	}

	canvasH := m.height - statusBarHeight
	if canvasH < 1 {
		canvasH = 1
	}

	grid := make([][]viewCell, canvasH)
	for y := range grid {
		grid[y] = make([]viewCell, m.width)
		for x := range grid[y] {
			grid[y][x] = viewCell{ch: ' ', style: styleDim}
		}
	}

	m.plotCurves(grid)

	// Crosshair last so it stays visible on top of points.
	if m.cursorY >= 0 && m.cursorY < canvasH && m.cursorX >= 0 && m.cursorX < m.width {
		ch := '+'
		if m.pressed {
			ch = '✛'
		}
		grid[m.cursorY][m.cursorX] = viewCell{ch: ch, style: styleCursor}
	}

	var b strings.Builder
	for y := 0; y < canvasH; y++ {
		for x := 0; x < m.width; x++ {
			c := grid[y][x]
			if c.ch == ' ' {
				b.WriteByte(' ')
			} else {
				b.WriteString(c.style.Render(string(c.ch)))
			}
		}
		b.WriteByte('\n')
	}

	b.WriteString(m.timelineView())
	b.WriteByte('\n')
	b.WriteString(m.statusBarView())
	return b.String()
}

// plotCurves paints every curve's points into the cell grid. The
// active curve draws in status colors; other curves draw dim so the
// working curve dominates.
func (m *Model) plotCurves(grid [][]viewCell) {
	stepX, stepY := m.cellSteps()
	active := m.st.ActiveCurve()
	currentFrame := m.st.CurrentFrame()
	for _, name := range m.st.CurveNames() {
		c, ok := m.st.Curve(name)
		if !ok {
			continue
		}
		isActive := name == active
		for i, p := range c.Points {
			cx := int((p.X - m.panX) / stepX)
			cy := int((p.Y - m.panY) / stepY)
			if cy < 0 || cy >= len(grid) || cx < 0 || cx >= len(grid[cy]) {
				continue
			}
			cell := viewCell{ch: '·', style: styleDim}
			if isActive {
				cell = viewCell{ch: '○', style: statusStyle(p.Status)}
				if p.Frame == currentFrame {
					cell.ch = '●'
				}
				if m.st.IsSelected(name, i) {
					cell = viewCell{ch: '◆', style: styleSelected}
				}
			}
			grid[cy][cx] = cell
		}
	}
}

// timelineView paints one cell per frame, colored by the aggregate
// frame status across all curves. The rendered row is cached until the
// store's change notification invalidates it.
func (m *Model) timelineView() string {
	if !m.timelineDirty && m.timeline != "" {
		return m.timeline
	}
	m.timeline = m.renderTimeline()
	m.timelineDirty = false
	return m.timeline
}

func (m *Model) renderTimeline() string {
	start, end := m.st.FrameRange()
	current := m.st.CurrentFrame()
	selections := make(map[string][]int)
	for _, name := range m.st.CurveNames() {
		selections[name] = m.st.Selection(name)
	}
	agg := framestatus.Aggregate(m.st.Curves(), selections)

	span := end - start + 1
	// Squeeze the range into the window when there are more frames
	// than columns.
	step := 1
	if span > m.width && m.width > 0 {
		step = (span + m.width - 1) / m.width
	}

	var b strings.Builder
	cells := 0
	for f := start; f <= end; f += step {
		fs := agg[f]
		ch, style := timelineCell(fs)
		if f <= current && current < f+step {
			style = styleCurrentFrame
		}
		b.WriteString(style.Render(string(ch)))
		cells++
	}
	for cells < m.width {
		b.WriteByte(' ')
		cells++
	}
	return b.String()
}

func timelineCell(fs framestatus.FrameStatus) (rune, lipgloss.Style) {
	switch {
	case fs.HasSelected:
		return '▣', styleSelected
	case fs.IsStartframe:
		return '▷', styleStartframe
	case fs.KeyframeCount > 0:
		return '◆', styleKeyframe
	case fs.EndframeCount > 0:
		return '◀', styleEndframe
	case fs.IsInactive:
		return '·', styleInactive
	case fs.PointCount() > 0:
		return '─', styleTracked
	}
	return ' ', styleDim
}

func (m *Model) statusBarView() string {
	if m.errMsg != "" {
		return styleError.Width(m.width).Render(" " + m.errMsg)
	}

	active := m.st.ActiveCurve()
	if active == "" {
		active = "(no curve)"
	}
	selCount := 0
	if name := m.st.ActiveCurve(); name != "" {
		selCount = len(m.st.Selection(name))
	}
	left := fmt.Sprintf(" %s  frame %d  sel %d  undo %d", active, m.st.CurrentFrame(), selCount, m.hist.UndoDepth())
	if m.ctrl.Dragging() {
		left += "  [drag]"
	}
	if m.ctrl.RectSelecting() {
		left += "  [rect]"
	}
	if m.statusMsg != "" {
		left += "  " + m.statusMsg
	}
	return styleStatusBar.Width(m.width).Render(left)
}

func (m *Model) helpView() string {
	lines := []string{
		"CurvEditor Help",
		"===============",
		"",
		"  h/j/k/l          Move cursor (H/J/K/L fast)",
		"  space            Press/release pointer at cursor",
		"                   - press on a point, move, release: drag",
		"                   - press on empty space: rectangle select",
		"  arrows           Nudge selected points",
		"  , / .            Step frame back / forward",
		"  tab              Next curve",
		"  i                Insert keyframe point at cursor",
		"  d                Delete selected points",
		"  1..5             Set point status (normal/key/track/interp/end)",
		"  c                Copy selection to clipboard",
		"  u / U            Undo / redo",
		"  esc              Cancel drag or rect select",
		"  f                Fit view to data",
		"  s / S            Save curves / export PNG",
		"  q                Quit",
		"",
		"Press any key to close.",
	}
	return strings.Join(lines, "\n")
}
