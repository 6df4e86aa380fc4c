// Package controller turns pointer and keyboard input into commands
// against the state store. It owns the selection and drag state
// machines; it never touches curve data except through commands, and
// never caches curve data of its own.
package controller

import (
	"errors"
	"log/slog"
	"time"

	"github.com/semmlerino/curveditor/internal/curve"
	"github.com/semmlerino/curveditor/internal/history"
	"github.com/semmlerino/curveditor/internal/store"
)

type stateKind int

const (
	stateIdle stateKind = iota
	stateDragging
	stateRectSelecting
)

// Modifiers carries the modifier keys held during a pointer event.
type Modifiers struct {
	// Multi is the multi-select modifier (shift/ctrl in most UIs).
	Multi bool
}

// DefaultHitTolerance is the hit-test radius in data units.
const DefaultHitTolerance = 8.0

// DefaultNudgeStep is the distance one arrow-key nudge moves a point.
const DefaultNudgeStep = 1.0

// Controller is the interaction state machine. Collaborators are
// passed in explicitly; the controller holds no back-reference to any
// owner.
type Controller struct {
	st     *store.Store
	hist   *history.History
	logger *slog.Logger

	tolerance float64
	nudgeStep float64

	// CrossFrame widens hit-testing and rect selection to points on
	// every frame instead of only the current one.
	CrossFrame bool

	state stateKind

	// Dragging.
	dragCurve     string
	dragIndices   []int
	dragLastX     float64
	dragLastY     float64
	dragMoved     bool
	preDragSelect map[string][]int

	// Rect selecting.
	anchorX, anchorY float64
	rectCurves       []string
}

type Option func(*Controller)

func WithTolerance(t float64) Option {
	return func(c *Controller) { c.tolerance = t }
}

func WithNudgeStep(step float64) Option {
	return func(c *Controller) { c.nudgeStep = step }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

func New(st *store.Store, hist *history.History, opts ...Option) *Controller {
	c := &Controller{
		st:        st,
		hist:      hist,
		logger:    slog.Default(),
		tolerance: DefaultHitTolerance,
		nudgeStep: DefaultNudgeStep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dragging reports whether a drag gesture is in progress.
func (c *Controller) Dragging() bool { return c.state == stateDragging }

// RectSelecting reports whether a rectangle selection is in progress.
func (c *Controller) RectSelecting() bool { return c.state == stateRectSelecting }

func (c *Controller) hitFrame() int {
	if c.CrossFrame {
		return -1
	}
	return c.st.CurrentFrame()
}

// PointerDown starts a drag when it hits a point, or a rectangle
// selection on empty space. A hit on an unselected point collapses the
// selection to that point (or adds it, with the multi modifier); a hit
// on a selected point drags the whole selection.
func (c *Controller) PointerDown(x, y float64, mod Modifiers) {
	if c.state != stateIdle {
		c.logger.Warn("pointer down while not idle, resetting", "state", int(c.state))
		c.abortInteraction()
	}
	hit, ok := c.st.FindPoint(x, y, c.tolerance, c.hitFrame())
	if !ok {
		if !mod.Multi {
			// A miss clears stale selection state rather than leaving
			// it dangling.
			c.st.ClearSelections()
		}
		c.state = stateRectSelecting
		c.anchorX, c.anchorY = x, y
		c.rectCurves = c.selectionScope()
		return
	}

	c.preDragSelect = c.snapshotSelections()
	sel := c.st.Selection(hit.Curve)
	if !c.st.IsSelected(hit.Curve, hit.Index) {
		if mod.Multi {
			sel = append(append([]int{}, sel...), hit.Index)
		} else {
			sel = []int{hit.Index}
		}
		c.st.Batch(func() error {
			// A drag operates on exactly one curve; selection on other
			// curves goes away so the drag set is unambiguous.
			for _, name := range c.st.CurveNames() {
				if name != hit.Curve {
					c.st.SetSelection(name, nil)
				}
			}
			c.st.SetSelection(hit.Curve, sel)
			return nil
		})
	}
	if err := c.st.SetActiveCurve(hit.Curve); err != nil {
		c.logger.Error("activating hit curve failed", "curve", hit.Curve, "err", err)
	}

	c.state = stateDragging
	c.dragCurve = hit.Curve
	c.dragIndices = c.st.Selection(hit.Curve)
	c.dragLastX, c.dragLastY = x, y
	c.dragMoved = false
}

// PointerMove advances a drag by the delta since the last event, or
// recomputes a live rectangle selection.
func (c *Controller) PointerMove(x, y float64) {
	switch c.state {
	case stateDragging:
		dx := x - c.dragLastX
		dy := y - c.dragLastY
		if dx == 0 && dy == 0 {
			return
		}
		cmd := &history.MovePoints{
			Curve:   c.dragCurve,
			Indices: c.dragIndices,
			DX:      dx,
			DY:      dy,
		}
		if err := c.hist.Execute(c.st, cmd); err != nil {
			// This increment is lost; the gesture's merged entry stays
			// valid and undoable. Keep the last-good position so the
			// next move retries the full delta.
			c.logger.Warn("drag increment failed", "curve", c.dragCurve, "err", err)
			return
		}
		c.dragMoved = true
		c.dragLastX, c.dragLastY = x, y

	case stateRectSelecting:
		frame := c.hitFrame()
		c.st.Batch(func() error {
			for _, name := range c.rectCurves {
				c.st.SetSelection(name, c.st.PointsInRect(name, c.anchorX, c.anchorY, x, y, frame))
			}
			return nil
		})
	}
}

// PointerUp finalizes the gesture and returns to idle. The next drag
// starts a new undo entry even when it moves the same points.
func (c *Controller) PointerUp(x, y float64) {
	switch c.state {
	case stateDragging:
		c.PointerMove(x, y)
		c.hist.EndGesture()
	case stateRectSelecting:
		c.PointerMove(x, y)
	}
	c.resetInteraction()
}

// Cancel aborts the gesture in progress. A cancelled drag undoes every
// increment merged so far and restores the pre-drag selection, leaving
// exactly the pre-drag state.
func (c *Controller) Cancel() {
	switch c.state {
	case stateDragging:
		if c.dragMoved {
			if err := c.hist.CancelGesture(c.st); err != nil {
				c.logger.Error("cancelling drag gesture failed", "curve", c.dragCurve, "err", err)
			}
		} else {
			c.hist.EndGesture()
		}
		c.restoreSelections(c.preDragSelect)
	case stateRectSelecting:
		c.st.Batch(func() error {
			for _, name := range c.rectCurves {
				c.st.SetSelection(name, nil)
			}
			return nil
		})
	}
	c.resetInteraction()
}

func (c *Controller) abortInteraction() {
	if c.state == stateDragging {
		c.hist.EndGesture()
	}
	c.resetInteraction()
}

func (c *Controller) resetInteraction() {
	c.state = stateIdle
	c.dragCurve = ""
	c.dragIndices = nil
	c.preDragSelect = nil
	c.rectCurves = nil
}

func (c *Controller) snapshotSelections() map[string][]int {
	snap := make(map[string][]int)
	for _, name := range c.st.CurveNames() {
		snap[name] = c.st.Selection(name)
	}
	return snap
}

func (c *Controller) restoreSelections(snap map[string][]int) {
	c.st.Batch(func() error {
		for name, sel := range snap {
			c.st.SetSelection(name, sel)
		}
		return nil
	})
}

// selectionScope is the curve set a rectangle selection applies to:
// the active curve when one is set, else every curve.
func (c *Controller) selectionScope() []string {
	if name := c.st.ActiveCurve(); name != "" {
		return []string{name}
	}
	return c.st.CurveNames()
}

// Nudge moves the active curve's selection by a small discrete step.
// Consecutive nudges in the same direction merge into one undo entry;
// a nudge never merges with a drag.
func (c *Controller) Nudge(dirX, dirY float64) {
	name, _, ok := c.st.ActiveCurveData()
	if !ok {
		return
	}
	sel := c.st.Selection(name)
	if len(sel) == 0 {
		return
	}
	cmd := &history.NudgeSelection{
		MovePoints: history.MovePoints{
			Curve:   name,
			Indices: sel,
			DX:      dirX * c.nudgeStep,
			DY:      dirY * c.nudgeStep,
		},
		At: time.Now(),
	}
	if err := c.hist.Execute(c.st, cmd); err != nil {
		c.logger.Warn("nudge failed", "curve", name, "err", err)
	}
}

// DeleteSelected removes every selected point of the active curve as
// one atomic command.
func (c *Controller) DeleteSelected() error {
	name, _, ok := c.st.ActiveCurveData()
	if !ok {
		return nil
	}
	sel := c.st.Selection(name)
	if len(sel) == 0 {
		return nil
	}
	c.hist.EndGesture()
	cmd := &history.DeletePoints{Curve: name, Indices: sel}
	if err := c.hist.Execute(c.st, cmd); err != nil {
		return err
	}
	c.hist.EndGesture()
	return nil
}

// SetSelectedStatus retags every selected point of the active curve.
func (c *Controller) SetSelectedStatus(status curve.Status) error {
	name, _, ok := c.st.ActiveCurveData()
	if !ok {
		return nil
	}
	sel := c.st.Selection(name)
	if len(sel) == 0 {
		return nil
	}
	c.hist.EndGesture()
	cmd := &history.SetPointStatus{Curve: name, Indices: sel, Status: status}
	if err := c.hist.Execute(c.st, cmd); err != nil {
		return err
	}
	c.hist.EndGesture()
	return nil
}

// InsertPointAt adds a point to the active curve at the current frame.
func (c *Controller) InsertPointAt(x, y float64, status curve.Status) error {
	name, _, ok := c.st.ActiveCurveData()
	if !ok {
		return nil
	}
	c.hist.EndGesture()
	cmd := &history.InsertPoint{
		Curve: name,
		Point: curve.Point{Frame: c.st.CurrentFrame(), X: x, Y: y, Status: status},
	}
	err := c.hist.Execute(c.st, cmd)
	c.hist.EndGesture()
	return err
}

// Undo reverts the newest undo entry. Exhausted history is a silent
// no-op; real failures come back to the caller.
func (c *Controller) Undo() error {
	err := c.hist.Undo(c.st)
	if errors.Is(err, history.ErrNothingToUndo) {
		return nil
	}
	return err
}

// Redo re-applies the newest undone entry.
func (c *Controller) Redo() error {
	err := c.hist.Redo(c.st)
	if errors.Is(err, history.ErrNothingToRedo) {
		return nil
	}
	return err
}
