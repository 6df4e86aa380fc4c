package store

import "fmt"

// IndexError reports a point or selection index outside a curve's
// point range.
type IndexError struct {
	Curve string
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("curve %q: index %d out of range (%d points)", e.Curve, e.Index, e.Len)
}

// OrderError reports an edit that would break the strictly-ascending
// frame order of a curve's points. The store rejects these rather than
// silently reordering, so index-based selections stay stable.
type OrderError struct {
	Curve string
	Frame int
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("curve %q: edit would violate frame ordering at frame %d", e.Curve, e.Frame)
}
