package curve

import (
	"fmt"
	"sort"
)

// Status tags how a point's position was determined, or its role in a
// tracked segment.
type Status int

const (
	StatusNormal Status = iota
	StatusKeyframe
	StatusTracked
	StatusInterpolated
	StatusEndframe
)

func (s Status) String() string {
	switch s {
	case StatusNormal:
		return "normal"
	case StatusKeyframe:
		return "keyframe"
	case StatusTracked:
		return "tracked"
	case StatusInterpolated:
		return "interpolated"
	case StatusEndframe:
		return "endframe"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// ParseStatus accepts the names produced by Status.String.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "normal":
		return StatusNormal, nil
	case "keyframe":
		return StatusKeyframe, nil
	case "tracked":
		return StatusTracked, nil
	case "interpolated":
		return StatusInterpolated, nil
	case "endframe":
		return StatusEndframe, nil
	}
	return StatusNormal, fmt.Errorf("unknown point status %q", s)
}

// Point is one tracked position at one frame. Points are immutable
// values: edits replace the point rather than mutating it in place.
type Point struct {
	Frame  int
	X, Y   float64
	Status Status
}

// Curve is a named, frame-ordered sequence of tracked points. The
// points are sorted strictly ascending by frame; no two points share a
// frame.
type Curve struct {
	Name   string
	Points []Point
}

func (c Curve) Len() int { return len(c.Points) }

// FindFrame returns the index of the point at the given frame, or the
// insertion index and false when no point exists there.
func (c Curve) FindFrame(frame int) (int, bool) {
	i := sort.Search(len(c.Points), func(i int) bool {
		return c.Points[i].Frame >= frame
	})
	if i < len(c.Points) && c.Points[i].Frame == frame {
		return i, true
	}
	return i, false
}

// FrameSpan returns the first and last frame covered by the curve.
func (c Curve) FrameSpan() (first, last int, ok bool) {
	if len(c.Points) == 0 {
		return 0, 0, false
	}
	return c.Points[0].Frame, c.Points[len(c.Points)-1].Frame, true
}

// Clone returns a deep copy. The store hands out clones so that no
// caller can hold a second writable reference to curve data.
func (c Curve) Clone() Curve {
	pts := make([]Point, len(c.Points))
	copy(pts, c.Points)
	return Curve{Name: c.Name, Points: pts}
}

// ValidatePoints rejects sequences that are not strictly ascending by
// frame. Loaders must sort and deduplicate before handing data in.
func ValidatePoints(points []Point) error {
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1].Frame, points[i].Frame
		if cur == prev {
			return fmt.Errorf("duplicate frame %d at points %d and %d", cur, i-1, i)
		}
		if cur < prev {
			return fmt.Errorf("points not sorted by frame: frame %d at point %d follows frame %d", cur, i, prev)
		}
	}
	return nil
}
