// Package spatial indexes a curve's points on a uniform grid so that
// hit-testing stays fast in dense point clouds. Each curve gets its own
// Index; the state store owns them and keeps them in sync on mutation.
package spatial

import "math"

// DefaultCellSize is sized to a couple of typical hit-test tolerance
// radii. Smaller cells mean more buckets to scan per query; larger
// cells degrade each bucket toward a linear scan.
const DefaultCellSize = 16.0

type cellKey struct {
	cx, cy int
}

type entry struct {
	index int
	x, y  float64
}

// Position is a point location in the curve's coordinate space.
type Position struct {
	X, Y float64
}

// Index buckets point positions by quantized (x, y). Queries inspect
// the bucket containing the query position plus its 8 neighbors and
// compute exact distances to the candidates found there.
type Index struct {
	cell    float64
	buckets map[cellKey][]entry
	count   int
}

func NewIndex(cellSize float64) *Index {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &Index{
		cell:    cellSize,
		buckets: make(map[cellKey][]entry),
	}
}

func (ix *Index) Len() int { return ix.count }

func (ix *Index) key(x, y float64) cellKey {
	return cellKey{
		cx: int(math.Floor(x / ix.cell)),
		cy: int(math.Floor(y / ix.cell)),
	}
}

// Rebuild replaces the whole index. Used on wholesale curve
// replacement; single-point edits go through Insert/Update/Remove.
func (ix *Index) Rebuild(positions []Position) {
	ix.buckets = make(map[cellKey][]entry, len(positions)/4+1)
	ix.count = 0
	for i, p := range positions {
		ix.add(i, p.X, p.Y)
	}
}

func (ix *Index) add(index int, x, y float64) {
	k := ix.key(x, y)
	ix.buckets[k] = append(ix.buckets[k], entry{index: index, x: x, y: y})
	ix.count++
}

// Insert adds a point at the given curve index and shifts the stored
// indices of every later point up by one.
func (ix *Index) Insert(index int, x, y float64) {
	for k, bucket := range ix.buckets {
		for i := range bucket {
			if bucket[i].index >= index {
				bucket[i].index++
			}
		}
		ix.buckets[k] = bucket
	}
	ix.add(index, x, y)
}

// Update moves the point at index to a new position, touching only the
// affected bucket(s).
func (ix *Index) Update(index int, oldX, oldY, newX, newY float64) {
	oldKey := ix.key(oldX, oldY)
	newKey := ix.key(newX, newY)
	if oldKey == newKey {
		bucket := ix.buckets[oldKey]
		for i := range bucket {
			if bucket[i].index == index {
				bucket[i].x = newX
				bucket[i].y = newY
				return
			}
		}
		// Position was not where the caller thought; fall through to a
		// full remove so the entry is not duplicated.
	}
	ix.removeEntry(oldKey, index)
	ix.add(index, newX, newY)
	ix.count--
}

// Remove drops the point at the given curve index and shifts the
// stored indices of every later point down by one.
func (ix *Index) Remove(index int, x, y float64) {
	ix.removeEntry(ix.key(x, y), index)
	ix.count--
	for k, bucket := range ix.buckets {
		for i := range bucket {
			if bucket[i].index > index {
				bucket[i].index--
			}
		}
		ix.buckets[k] = bucket
	}
}

func (ix *Index) removeEntry(k cellKey, index int) {
	bucket := ix.buckets[k]
	for i := range bucket {
		if bucket[i].index == index {
			bucket[i] = bucket[len(bucket)-1]
			bucket = bucket[:len(bucket)-1]
			if len(bucket) == 0 {
				delete(ix.buckets, k)
			} else {
				ix.buckets[k] = bucket
			}
			return
		}
	}
	// Entry missing: scan every bucket. This only happens if a caller
	// fed a stale position, but a stale entry left behind would make
	// queries lie, so pay the linear cost.
	for bk, b := range ix.buckets {
		for i := range b {
			if b[i].index == index {
				b[i] = b[len(b)-1]
				b = b[:len(b)-1]
				if len(b) == 0 {
					delete(ix.buckets, bk)
				} else {
					ix.buckets[bk] = b
				}
				return
			}
		}
	}
}

// Nearest returns the index of the point closest to (x, y) within
// tolerance, restricted to points the accept filter admits (nil
// accepts everything). Equidistant candidates resolve to the lower
// point index so results are deterministic. ok is false when nothing
// is within tolerance.
func (ix *Index) Nearest(x, y, tolerance float64, accept func(index int) bool) (index int, dist float64, ok bool) {
	if tolerance <= 0 || ix.count == 0 {
		return 0, 0, false
	}
	center := ix.key(x, y)
	// The 3x3 neighborhood only covers the tolerance radius when cells
	// are at least as large as the radius; widen the ring when a caller
	// passes an unusually large tolerance.
	reach := 1
	if tolerance > ix.cell {
		reach = int(math.Ceil(tolerance/ix.cell)) + 1
	}
	best := -1
	bestDist := 0.0
	for cy := center.cy - reach; cy <= center.cy+reach; cy++ {
		for cx := center.cx - reach; cx <= center.cx+reach; cx++ {
			for _, e := range ix.buckets[cellKey{cx: cx, cy: cy}] {
				if accept != nil && !accept(e.index) {
					continue
				}
				d := math.Hypot(e.x-x, e.y-y)
				if d > tolerance {
					continue
				}
				if best < 0 || d < bestDist || (d == bestDist && e.index < best) {
					best = e.index
					bestDist = d
				}
			}
		}
	}
	if best < 0 {
		return 0, 0, false
	}
	return best, bestDist, true
}
