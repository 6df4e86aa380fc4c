package controller

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semmlerino/curveditor/internal/curve"
	"github.com/semmlerino/curveditor/internal/history"
	"github.com/semmlerino/curveditor/internal/store"
)

func fixture(t *testing.T) (*store.Store, *history.History, *Controller) {
	t.Helper()
	s := store.New()
	require.NoError(t, s.SetCurveData("a", []curve.Point{
		{Frame: 1, X: 10, Y: 10, Status: curve.StatusKeyframe},
		{Frame: 5, X: 50, Y: 50, Status: curve.StatusTracked},
		{Frame: 10, X: 90, Y: 90, Status: curve.StatusKeyframe},
	}))
	require.NoError(t, s.SetCurveData("b", []curve.Point{
		{Frame: 1, X: 200, Y: 200, Status: curve.StatusNormal},
	}))
	h := history.New(20, nil)
	c := New(s, h, WithTolerance(5))
	c.CrossFrame = true
	return s, h, c
}

func TestClickSelectsAndDragMoves(t *testing.T) {
	s, h, c := fixture(t)

	// Pointer down on the point at (50,50) collapses selection to it.
	c.PointerDown(51, 50, Modifiers{})
	require.True(t, c.Dragging())
	assert.Equal(t, []int{1}, s.Selection("a"))
	assert.Equal(t, "a", s.ActiveCurve(), "hit curve becomes active")

	// Five move events merge into one undo entry.
	for i := 1; i <= 5; i++ {
		c.PointerMove(51+float64(i), 50+float64(i))
	}
	c.PointerUp(56, 55)
	assert.False(t, c.Dragging())
	assert.Equal(t, 1, h.UndoDepth())

	p, err := s.PointAt("a", 1)
	require.NoError(t, err)
	assert.Equal(t, 55.0, p.X)
	assert.Equal(t, 55.0, p.Y)
	assert.Equal(t, curve.StatusTracked, p.Status, "drag never changes status")

	// One undo reverts the whole drag.
	require.NoError(t, c.Undo())
	p, _ = s.PointAt("a", 1)
	assert.Equal(t, 50.0, p.X)
	assert.Equal(t, 50.0, p.Y)
}

func TestSeparateDragsAreSeparateUndoEntries(t *testing.T) {
	_, h, c := fixture(t)

	c.PointerDown(50, 50, Modifiers{})
	c.PointerMove(52, 50)
	c.PointerUp(52, 50)

	c.PointerDown(52, 50, Modifiers{})
	c.PointerMove(54, 50)
	c.PointerUp(54, 50)

	assert.Equal(t, 2, h.UndoDepth(), "pointer-up ends the gesture")
}

func TestDragOfSelectedPointMovesWholeSelection(t *testing.T) {
	s, _, c := fixture(t)
	s.SetSelection("a", []int{0, 1})

	// The hit point is already selected: the whole selection drags.
	c.PointerDown(10, 10, Modifiers{})
	c.PointerMove(13, 14)
	c.PointerUp(13, 14)

	p0, _ := s.PointAt("a", 0)
	p1, _ := s.PointAt("a", 1)
	assert.Equal(t, curve.Point{Frame: 1, X: 13, Y: 14, Status: curve.StatusKeyframe}, p0)
	assert.Equal(t, curve.Point{Frame: 5, X: 53, Y: 54, Status: curve.StatusTracked}, p1)
}

func TestMultiSelectModifierAddsToSelection(t *testing.T) {
	s, _, c := fixture(t)
	s.SetSelection("a", []int{0})

	c.PointerDown(50, 50, Modifiers{Multi: true})
	c.PointerUp(50, 50)
	assert.Equal(t, []int{0, 1}, s.Selection("a"))
}

func TestDragIsSingleCurve(t *testing.T) {
	s, _, c := fixture(t)
	// Selection exists on curve b; the initiating hit is on curve a,
	// so only a's points drag.
	s.SetSelection("b", []int{0})

	c.PointerDown(10, 10, Modifiers{})
	assert.Empty(t, s.Selection("b"), "cross-curve selection collapses on hit")
	c.PointerMove(15, 15)
	c.PointerUp(15, 15)

	pb, _ := s.PointAt("b", 0)
	assert.Equal(t, 200.0, pb.X, "curve b never moves")
}

func TestMissClearsSelectionAndStartsRect(t *testing.T) {
	s, _, c := fixture(t)
	s.SetSelection("a", []int{0})
	require.NoError(t, s.SetActiveCurve("a"))

	c.PointerDown(500, 500, Modifiers{})
	assert.True(t, c.RectSelecting())
	assert.Empty(t, s.Selection("a"), "a miss clears stale selection")

	// The rectangle selection recomputes live.
	c.PointerMove(400, 400)
	assert.Empty(t, s.Selection("a"))
	c.PointerMove(0, 0)
	// Rect now spans (500,500)-(0,0): all of curve a.
	assert.Equal(t, []int{0, 1, 2}, s.Selection("a"))
	c.PointerUp(0, 0)
	assert.False(t, c.RectSelecting())
	assert.Equal(t, []int{0, 1, 2}, s.Selection("a"))
}

func TestMissWithModifierKeepsSelection(t *testing.T) {
	s, _, c := fixture(t)
	s.SetSelection("a", []int{1})

	c.PointerDown(500, 500, Modifiers{Multi: true})
	assert.Equal(t, []int{1}, s.Selection("a"))
	c.PointerUp(500, 500)
}

func TestCancelDragRestoresExactPreDragState(t *testing.T) {
	s, h, c := fixture(t)
	s.SetSelection("a", []int{0})
	before := s.Curves()

	c.PointerDown(50, 50, Modifiers{})
	c.PointerMove(60, 70)
	c.PointerMove(65, 75)
	c.Cancel()

	if diff := cmp.Diff(before, s.Curves()); diff != "" {
		t.Fatalf("cancel left partial drag state (-want +got):\n%s", diff)
	}
	assert.Equal(t, []int{0}, s.Selection("a"), "pre-drag selection restored")
	assert.Equal(t, 0, h.UndoDepth())
	assert.False(t, c.Dragging())
}

func TestCancelRectSelect(t *testing.T) {
	s, _, c := fixture(t)
	require.NoError(t, s.SetActiveCurve("a"))

	c.PointerDown(500, 500, Modifiers{})
	c.PointerMove(0, 0)
	require.NotEmpty(t, s.Selection("a"))
	c.Cancel()
	assert.Empty(t, s.Selection("a"))
	assert.False(t, c.RectSelecting())
}

func TestRectSelectScopesToActiveCurve(t *testing.T) {
	s, _, c := fixture(t)
	require.NoError(t, s.SetActiveCurve("a"))

	// Rect covers every point of both curves, but only the active
	// curve is in scope.
	c.PointerDown(-10, -10, Modifiers{})
	c.PointerMove(300, 300)
	c.PointerUp(300, 300)
	assert.Equal(t, []int{0, 1, 2}, s.Selection("a"))
	assert.Empty(t, s.Selection("b"))
}

func TestNudgeMovesSelection(t *testing.T) {
	s, h, c := fixture(t)
	require.NoError(t, s.SetActiveCurve("a"))
	s.SetSelection("a", []int{1})

	c.Nudge(1, 0)
	c.Nudge(1, 0)
	p, _ := s.PointAt("a", 1)
	assert.Equal(t, 52.0, p.X)
	assert.Equal(t, 1, h.UndoDepth(), "rapid same-direction nudges merge")

	// No selection, no command.
	s.SetSelection("a", nil)
	c.Nudge(1, 0)
	assert.Equal(t, 1, h.UndoDepth())
}

func TestDeleteSelectedIsAtomic(t *testing.T) {
	s, h, c := fixture(t)
	require.NoError(t, s.SetActiveCurve("a"))
	s.SetSelection("a", []int{0, 2})

	require.NoError(t, c.DeleteSelected())
	cur, _ := s.Curve("a")
	require.Len(t, cur.Points, 1)
	assert.Equal(t, 5, cur.Points[0].Frame)

	// Undo restores both points as one entry.
	require.NoError(t, c.Undo())
	cur, _ = s.Curve("a")
	assert.Len(t, cur.Points, 3)

	// Empty selection is a no-op.
	s.SetSelection("a", nil)
	require.NoError(t, c.DeleteSelected())
	assert.Equal(t, 1, h.RedoDepth())
}

func TestSetSelectedStatus(t *testing.T) {
	s, _, c := fixture(t)
	require.NoError(t, s.SetActiveCurve("a"))
	s.SetSelection("a", []int{0, 1})

	require.NoError(t, c.SetSelectedStatus(curve.StatusInterpolated))
	p0, _ := s.PointAt("a", 0)
	p1, _ := s.PointAt("a", 1)
	p2, _ := s.PointAt("a", 2)
	assert.Equal(t, curve.StatusInterpolated, p0.Status)
	assert.Equal(t, curve.StatusInterpolated, p1.Status)
	assert.Equal(t, curve.StatusKeyframe, p2.Status, "unselected point untouched")

	require.NoError(t, c.Undo())
	p0, _ = s.PointAt("a", 0)
	assert.Equal(t, curve.StatusKeyframe, p0.Status)
}

func TestInsertPointAt(t *testing.T) {
	s, _, c := fixture(t)
	require.NoError(t, s.SetActiveCurve("a"))
	s.SetFrameRange(1, 20)
	s.SetCurrentFrame(7)

	require.NoError(t, c.InsertPointAt(70, 70, curve.StatusKeyframe))
	cur, _ := s.Curve("a")
	require.Len(t, cur.Points, 4)
	i, ok := cur.FindFrame(7)
	require.True(t, ok)
	assert.Equal(t, curve.Point{Frame: 7, X: 70, Y: 70, Status: curve.StatusKeyframe}, cur.Points[i])

	// A second insert at the same frame is rejected and changes
	// nothing.
	err := c.InsertPointAt(0, 0, curve.StatusKeyframe)
	require.Error(t, err)
	cur, _ = s.Curve("a")
	assert.Len(t, cur.Points, 4)
}

func TestCurrentFrameHitRestriction(t *testing.T) {
	s, _, c := fixture(t)
	c.CrossFrame = false
	s.SetFrameRange(1, 10)
	s.SetCurrentFrame(5)

	// (10,10) is the frame-1 point; with frame restriction on, it is
	// not hittable while frame 5 is current.
	c.PointerDown(10, 10, Modifiers{})
	assert.True(t, c.RectSelecting(), "frame-restricted miss becomes rect select")
	c.PointerUp(10, 10)

	c.PointerDown(50, 50, Modifiers{})
	assert.True(t, c.Dragging(), "the frame-5 point is hittable")
	c.PointerUp(50, 50)
}

func TestUndoRedoBoundaryIsSilent(t *testing.T) {
	_, _, c := fixture(t)
	assert.NoError(t, c.Undo(), "nothing to undo is a no-op, not an error")
	assert.NoError(t, c.Redo())
}
