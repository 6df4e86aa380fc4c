package framestatus

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/semmlerino/curveditor/internal/curve"
)

func TestComputeCounts(t *testing.T) {
	c := curve.Curve{Name: "a", Points: []curve.Point{
		{Frame: 1, X: 0, Y: 0, Status: curve.StatusKeyframe},
		{Frame: 2, X: 1, Y: 1, Status: curve.StatusTracked},
		{Frame: 3, X: 2, Y: 2, Status: curve.StatusInterpolated},
		{Frame: 4, X: 3, Y: 3, Status: curve.StatusNormal},
		{Frame: 5, X: 4, Y: 4, Status: curve.StatusEndframe},
	}}
	got := Compute(c, []int{2})

	assert.Len(t, got, 5, "one entry per frame of the span")
	assert.Equal(t, 1, got[1].KeyframeCount)
	assert.Equal(t, 1, got[2].TrackedCount)
	assert.Equal(t, 1, got[3].InterpolatedCount)
	assert.Equal(t, 1, got[4].NormalCount)
	assert.Equal(t, 1, got[5].EndframeCount)
	for f := 1; f <= 5; f++ {
		assert.Equal(t, 1, got[f].PointCount(), "frame %d", f)
	}

	assert.True(t, got[3].HasSelected, "selected index 2 sits on frame 3")
	assert.False(t, got[2].HasSelected)
	assert.True(t, got[1].IsStartframe, "first point starts the curve")
	assert.False(t, got[2].IsStartframe)
}

func TestComputeEmptyCurve(t *testing.T) {
	got := Compute(curve.Curve{Name: "empty"}, nil)
	assert.Empty(t, got)
}

func TestComputeGapFrames(t *testing.T) {
	c := curve.Curve{Name: "a", Points: []curve.Point{
		{Frame: 1, Status: curve.StatusKeyframe},
		{Frame: 5, Status: curve.StatusKeyframe},
	}}
	got := Compute(c, nil)

	require.Len(t, got, 5)
	for f := 2; f <= 4; f++ {
		assert.Equal(t, 0, got[f].PointCount(), "gap frame %d has no points", f)
		assert.False(t, got[f].IsInactive, "gap inside a tracked segment is active")
	}
}

func TestComputeInactiveRange(t *testing.T) {
	// Tracked segment ends at frame 3; a new segment starts at the
	// keyframe on frame 7.
	c := curve.Curve{Name: "a", Points: []curve.Point{
		{Frame: 1, Status: curve.StatusKeyframe},
		{Frame: 3, Status: curve.StatusEndframe},
		{Frame: 7, Status: curve.StatusKeyframe},
		{Frame: 9, Status: curve.StatusTracked},
	}}
	got := Compute(c, nil)

	assert.False(t, got[3].IsInactive, "the endframe's own frame stays active")
	assert.True(t, got[4].IsInactive)
	assert.True(t, got[5].IsInactive)
	assert.True(t, got[6].IsInactive)
	assert.False(t, got[7].IsInactive, "keyframe reopens the segment")
	assert.False(t, got[8].IsInactive)

	assert.True(t, got[7].IsStartframe, "keyframe after endframe starts a segment")
	assert.False(t, got[9].IsStartframe)
}

func TestComputeTrailingInactive(t *testing.T) {
	c := curve.Curve{Name: "a", Points: []curve.Point{
		{Frame: 1, Status: curve.StatusKeyframe},
		{Frame: 3, Status: curve.StatusEndframe},
	}}
	got := Compute(c, nil)
	assert.False(t, got[3].IsInactive)
	assert.Len(t, got, 3, "span ends at the last point")
}

func TestAggregateSumsAndFlags(t *testing.T) {
	curves := map[string]curve.Curve{
		"a": {Name: "a", Points: []curve.Point{
			{Frame: 1, Status: curve.StatusKeyframe},
			{Frame: 5, Status: curve.StatusKeyframe},
		}},
		"b": {Name: "b", Points: []curve.Point{
			{Frame: 5, Status: curve.StatusTracked},
			{Frame: 8, Status: curve.StatusTracked},
		}},
	}
	got := Aggregate(curves, map[string][]int{"b": {0}})

	assert.Equal(t, 1, got[5].KeyframeCount)
	assert.Equal(t, 1, got[5].TrackedCount)
	assert.Equal(t, 2, got[5].PointCount())
	assert.True(t, got[5].HasSelected, "selection on either curve is enough")
	assert.True(t, got[1].IsStartframe)
	assert.True(t, got[5].IsStartframe, "b starts at frame 5")
	assert.Equal(t, 1, got[8].TrackedCount, "frames covered by one curve still appear")
}

func TestAggregateInactiveRequiresAllCurves(t *testing.T) {
	// At frame 5, a is inactive (past its endframe) but b is mid
	// segment: the frame paints active.
	curves := map[string]curve.Curve{
		"a": {Name: "a", Points: []curve.Point{
			{Frame: 1, Status: curve.StatusKeyframe},
			{Frame: 3, Status: curve.StatusEndframe},
			{Frame: 9, Status: curve.StatusKeyframe},
		}},
		"b": {Name: "b", Points: []curve.Point{
			{Frame: 4, Status: curve.StatusKeyframe},
			{Frame: 6, Status: curve.StatusEndframe},
			{Frame: 9, Status: curve.StatusKeyframe},
		}},
	}
	got := Aggregate(curves, nil)

	assert.False(t, got[5].IsInactive, "b is still tracking at frame 5")
	assert.True(t, got[7].IsInactive, "both curves are past their endframes")
	assert.True(t, got[8].IsInactive)
	assert.False(t, got[9].IsInactive)

	// Frame 4 is only inactive for a; b's segment covers it.
	assert.False(t, got[4].IsInactive)
}

func TestAggregateWholeTimeline(t *testing.T) {
	curves := map[string]curve.Curve{
		"a": {Name: "a", Points: []curve.Point{
			{Frame: 1, Status: curve.StatusKeyframe},
			{Frame: 3, Status: curve.StatusEndframe},
		}},
		"b": {Name: "b", Points: []curve.Point{
			{Frame: 3, Status: curve.StatusTracked},
			{Frame: 5, Status: curve.StatusTracked},
		}},
	}
	want := map[int]FrameStatus{
		1: {KeyframeCount: 1, IsStartframe: true},
		2: {},
		3: {EndframeCount: 1, TrackedCount: 1, IsStartframe: true},
		4: {},
		5: {TrackedCount: 1},
	}
	if diff := cmp.Diff(want, Aggregate(curves, nil)); diff != "" {
		t.Fatalf("timeline mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregateEmpty(t *testing.T) {
	assert.Empty(t, Aggregate(nil, nil))
	assert.Empty(t, Aggregate(map[string]curve.Curve{"a": {Name: "a"}}, nil))
}
