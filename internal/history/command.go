// Package history provides reversible commands against the state
// store and the bounded undo/redo log that executes them.
package history

import (
	"fmt"
	"time"

	"github.com/semmlerino/curveditor/internal/curve"
	"github.com/semmlerino/curveditor/internal/store"
)

// Command is a reversible mutation of the state store. Apply must be
// all-or-nothing: on error the store is unchanged. Undo restores the
// exact pre-Apply state.
type Command interface {
	Description() string
	TargetCurve() string
	Apply(st *store.Store) error
	Undo(st *store.Store) error
}

// merger is implemented by commands that can absorb a later command of
// the same gesture into themselves, keeping their original "before"
// snapshot while adopting the newcomer's effect.
type merger interface {
	merge(next Command) bool
}

// CommandError reports a failed apply or undo precondition, such as a
// target curve that no longer exists or an index that went stale.
type CommandError struct {
	Op    string
	Curve string
	Err   error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s on curve %q: %v", e.Op, e.Curve, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// MovePoints moves a set of points of one curve by a delta. Successive
// moves of the same point set merge into one undo entry, so a drag
// gesture undoes in a single step.
type MovePoints struct {
	Curve   string
	Indices []int
	DX, DY  float64

	before map[int]curve.Point
}

func (c *MovePoints) Description() string { return "move points" }
func (c *MovePoints) TargetCurve() string { return c.Curve }

func (c *MovePoints) Apply(st *store.Store) error {
	// Validate every index up front so the command either moves all
	// points or none.
	pts := make(map[int]curve.Point, len(c.Indices))
	for _, i := range c.Indices {
		p, err := st.PointAt(c.Curve, i)
		if err != nil {
			return &CommandError{Op: "move points", Curve: c.Curve, Err: err}
		}
		pts[i] = p
	}
	if c.before == nil {
		c.before = pts
	}
	return st.Batch(func() error {
		for _, i := range c.Indices {
			p := pts[i]
			p.X += c.DX
			p.Y += c.DY
			if err := st.UpdatePoint(c.Curve, i, p); err != nil {
				// Frames are unchanged, so UpdatePoint cannot fail
				// after the validation above.
				panic(fmt.Sprintf("history: move apply failed after validation: %v", err))
			}
		}
		return nil
	})
}

func (c *MovePoints) Undo(st *store.Store) error {
	return st.Batch(func() error {
		for i, p := range c.before {
			if err := st.UpdatePoint(c.Curve, i, p); err != nil {
				return &CommandError{Op: "undo move points", Curve: c.Curve, Err: err}
			}
		}
		return nil
	})
}

func (c *MovePoints) merge(next Command) bool {
	n, ok := next.(*MovePoints)
	if !ok || n.Curve != c.Curve || !sameIndices(c.Indices, n.Indices) {
		return false
	}
	c.DX += n.DX
	c.DY += n.DY
	// The before snapshot stays: one undo reverts the whole gesture.
	return true
}

// nudgeMergeWindow bounds how far apart two key presses can be and
// still collapse into one undo entry.
const nudgeMergeWindow = 500 * time.Millisecond

// NudgeSelection is a discrete keyboard move. Consecutive nudges in
// the same direction within a short window merge; a nudge never merges
// with a pointer drag.
type NudgeSelection struct {
	MovePoints
	At time.Time
}

func (c *NudgeSelection) Description() string { return "nudge selection" }

func (c *NudgeSelection) merge(next Command) bool {
	n, ok := next.(*NudgeSelection)
	if !ok || n.Curve != c.Curve || !sameIndices(c.Indices, n.Indices) {
		return false
	}
	if !sameDirection(c.DX, n.DX) || !sameDirection(c.DY, n.DY) {
		return false
	}
	if n.At.Sub(c.At) > nudgeMergeWindow {
		return false
	}
	c.DX += n.DX
	c.DY += n.DY
	c.At = n.At
	return true
}

func sameDirection(a, b float64) bool {
	if a == 0 || b == 0 {
		return a == b
	}
	return (a > 0) == (b > 0)
}

func sameIndices(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SetPointStatus changes the status tag of a set of points.
type SetPointStatus struct {
	Curve   string
	Indices []int
	Status  curve.Status

	before map[int]curve.Status
}

func (c *SetPointStatus) Description() string { return "set point status" }
func (c *SetPointStatus) TargetCurve() string { return c.Curve }

func (c *SetPointStatus) Apply(st *store.Store) error {
	pts := make(map[int]curve.Point, len(c.Indices))
	for _, i := range c.Indices {
		p, err := st.PointAt(c.Curve, i)
		if err != nil {
			return &CommandError{Op: "set status", Curve: c.Curve, Err: err}
		}
		pts[i] = p
	}
	if c.before == nil {
		c.before = make(map[int]curve.Status, len(pts))
		for i, p := range pts {
			c.before[i] = p.Status
		}
	}
	return st.Batch(func() error {
		for _, i := range c.Indices {
			p := pts[i]
			p.Status = c.Status
			if err := st.UpdatePoint(c.Curve, i, p); err != nil {
				panic(fmt.Sprintf("history: status apply failed after validation: %v", err))
			}
		}
		return nil
	})
}

func (c *SetPointStatus) Undo(st *store.Store) error {
	return st.Batch(func() error {
		for i, status := range c.before {
			p, err := st.PointAt(c.Curve, i)
			if err != nil {
				return &CommandError{Op: "undo set status", Curve: c.Curve, Err: err}
			}
			p.Status = status
			if err := st.UpdatePoint(c.Curve, i, p); err != nil {
				return &CommandError{Op: "undo set status", Curve: c.Curve, Err: err}
			}
		}
		return nil
	})
}

// InsertPoint adds one point to a curve.
type InsertPoint struct {
	Curve string
	Point curve.Point
}

func (c *InsertPoint) Description() string { return "insert point" }
func (c *InsertPoint) TargetCurve() string { return c.Curve }

func (c *InsertPoint) Apply(st *store.Store) error {
	if _, err := st.InsertPoint(c.Curve, c.Point); err != nil {
		return &CommandError{Op: "insert point", Curve: c.Curve, Err: err}
	}
	return nil
}

func (c *InsertPoint) Undo(st *store.Store) error {
	// Look the index up by frame at undo time: earlier undos may have
	// shifted indices, but the frame is the point's stable identity.
	cur, ok := st.Curve(c.Curve)
	if !ok {
		return &CommandError{Op: "undo insert point", Curve: c.Curve, Err: fmt.Errorf("curve missing")}
	}
	i, found := cur.FindFrame(c.Point.Frame)
	if !found {
		return &CommandError{Op: "undo insert point", Curve: c.Curve, Err: fmt.Errorf("no point at frame %d", c.Point.Frame)}
	}
	if _, err := st.RemovePoint(c.Curve, i); err != nil {
		return &CommandError{Op: "undo insert point", Curve: c.Curve, Err: err}
	}
	return nil
}

// DeletePoints removes a set of points from one curve as a single
// atomic edit: if any index is invalid, nothing is removed.
type DeletePoints struct {
	Curve   string
	Indices []int

	removed []curve.Point
}

func (c *DeletePoints) Description() string { return "delete points" }
func (c *DeletePoints) TargetCurve() string { return c.Curve }

func (c *DeletePoints) Apply(st *store.Store) error {
	for _, i := range c.Indices {
		if _, err := st.PointAt(c.Curve, i); err != nil {
			return &CommandError{Op: "delete points", Curve: c.Curve, Err: err}
		}
	}
	// Remove in descending index order so earlier removals do not
	// shift the indices still to be removed.
	desc := make([]int, len(c.Indices))
	copy(desc, c.Indices)
	sortDescending(desc)
	removed := make([]curve.Point, 0, len(desc))
	err := st.Batch(func() error {
		for _, i := range desc {
			p, err := st.RemovePoint(c.Curve, i)
			if err != nil {
				panic(fmt.Sprintf("history: delete apply failed after validation: %v", err))
			}
			removed = append(removed, p)
		}
		return nil
	})
	if err != nil {
		return err
	}
	c.removed = removed
	return nil
}

func (c *DeletePoints) Undo(st *store.Store) error {
	return st.Batch(func() error {
		for _, p := range c.removed {
			if _, err := st.InsertPoint(c.Curve, p); err != nil {
				return &CommandError{Op: "undo delete points", Curve: c.Curve, Err: err}
			}
		}
		return nil
	})
}

func sortDescending(a []int) {
	for i := 1; i < len(a); i++ {
		for j := i; j > 0 && a[j] > a[j-1]; j-- {
			a[j], a[j-1] = a[j-1], a[j]
		}
	}
}

// SetCurveData replaces a curve's points wholesale. Used by load and
// paste paths.
type SetCurveData struct {
	Curve  string
	Points []curve.Point

	before   []curve.Point
	hadCurve bool
	applied  bool
}

func (c *SetCurveData) Description() string { return "replace curve data" }
func (c *SetCurveData) TargetCurve() string { return c.Curve }

func (c *SetCurveData) Apply(st *store.Store) error {
	if !c.applied {
		if cur, ok := st.Curve(c.Curve); ok {
			c.before = cur.Points
			c.hadCurve = true
		}
	}
	if err := st.SetCurveData(c.Curve, c.Points); err != nil {
		return &CommandError{Op: "replace curve data", Curve: c.Curve, Err: err}
	}
	c.applied = true
	return nil
}

func (c *SetCurveData) Undo(st *store.Store) error {
	if !c.hadCurve {
		st.DeleteCurve(c.Curve)
		return nil
	}
	if err := st.SetCurveData(c.Curve, c.before); err != nil {
		return &CommandError{Op: "undo replace curve data", Curve: c.Curve, Err: err}
	}
	return nil
}
