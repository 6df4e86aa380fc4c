// Package framestatus summarizes curve health per frame, for painting
// a timeline. All functions are pure: they read curve data and produce
// fresh maps, never caching or mutating.
package framestatus

import "github.com/semmlerino/curveditor/internal/curve"

// FrameStatus is the per-frame summary. Counts say how many points of
// each status sit on the frame. The flags have asymmetric aggregation
// semantics: IsStartframe and HasSelected answer "does anything
// interesting happen here" and OR across curves; IsInactive answers
// "is everything quiet here" and ANDs across curves.
type FrameStatus struct {
	KeyframeCount     int
	InterpolatedCount int
	TrackedCount      int
	EndframeCount     int
	NormalCount       int

	IsStartframe bool
	IsInactive   bool
	HasSelected  bool
}

func (fs FrameStatus) PointCount() int {
	return fs.KeyframeCount + fs.InterpolatedCount + fs.TrackedCount + fs.EndframeCount + fs.NormalCount
}

// Compute summarizes one curve. The result covers every frame in the
// curve's span, including gap frames between points, because inactive
// ranges (after an endframe, before the next keyframe) live in the
// gaps. selected lists the curve's selected point indices.
func Compute(c curve.Curve, selected []int) map[int]FrameStatus {
	out := make(map[int]FrameStatus)
	first, last, ok := c.FrameSpan()
	if !ok {
		return out
	}
	isSelected := make(map[int]bool, len(selected))
	for _, i := range selected {
		isSelected[i] = true
	}

	for f := first; f <= last; f++ {
		out[f] = FrameStatus{}
	}

	for i, p := range c.Points {
		fs := out[p.Frame]
		switch p.Status {
		case curve.StatusKeyframe:
			fs.KeyframeCount++
		case curve.StatusInterpolated:
			fs.InterpolatedCount++
		case curve.StatusTracked:
			fs.TrackedCount++
		case curve.StatusEndframe:
			fs.EndframeCount++
		case curve.StatusNormal:
			fs.NormalCount++
		}
		if isSelected[i] {
			fs.HasSelected = true
		}
		out[p.Frame] = fs
	}

	// The first point starts the curve; a keyframe that follows an
	// endframe starts a new tracked segment.
	markStart := func(frame int) {
		fs := out[frame]
		fs.IsStartframe = true
		out[frame] = fs
	}
	markStart(first)
	for i := 1; i < len(c.Points); i++ {
		if c.Points[i].Status == curve.StatusKeyframe && c.Points[i-1].Status == curve.StatusEndframe {
			markStart(c.Points[i].Frame)
		}
	}

	// Frames after an endframe up to the next segment start are
	// outside any tracked segment.
	inactive := false
	next := 0
	for f := first; f <= last; f++ {
		for next < len(c.Points) && c.Points[next].Frame == f {
			p := c.Points[next]
			if p.Status == curve.StatusKeyframe {
				inactive = false
			}
			next++
			if p.Status == curve.StatusEndframe {
				inactive = true
			}
		}
		if inactive {
			fs := out[f]
			// The endframe's own frame stays active; inactivity begins
			// on the next frame.
			if fs.EndframeCount == 0 {
				fs.IsInactive = true
				out[f] = fs
			}
		}
	}
	return out
}

// Aggregate merges per-curve summaries across all curves. Counts are
// commutative sums, so each curve is computed independently and
// merged. IsStartframe and HasSelected OR together; IsInactive ANDs,
// so a frame only paints inactive when every curve covering it is
// inactive there.
func Aggregate(curves map[string]curve.Curve, selections map[string][]int) map[int]FrameStatus {
	out := make(map[int]FrameStatus)
	seen := make(map[int]bool)
	for name, c := range curves {
		for frame, fs := range Compute(c, selections[name]) {
			agg := out[frame]
			agg.KeyframeCount += fs.KeyframeCount
			agg.InterpolatedCount += fs.InterpolatedCount
			agg.TrackedCount += fs.TrackedCount
			agg.EndframeCount += fs.EndframeCount
			agg.NormalCount += fs.NormalCount
			agg.IsStartframe = agg.IsStartframe || fs.IsStartframe
			agg.HasSelected = agg.HasSelected || fs.HasSelected
			if !seen[frame] {
				agg.IsInactive = fs.IsInactive
			} else {
				agg.IsInactive = agg.IsInactive && fs.IsInactive
			}
			seen[frame] = true
			out[frame] = agg
		}
	}
	return out
}
