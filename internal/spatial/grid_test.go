package spatial

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bruteNearest is the reference implementation every grid query must
// agree with.
func bruteNearest(positions []Position, x, y, tolerance float64, accept func(int) bool) (int, bool) {
	best := -1
	bestDist := 0.0
	for i, p := range positions {
		if accept != nil && !accept(i) {
			continue
		}
		d := math.Hypot(p.X-x, p.Y-y)
		if d > tolerance {
			continue
		}
		if best < 0 || d < bestDist || (d == bestDist && i < best) {
			best = i
			bestDist = d
		}
	}
	return best, best >= 0
}

func buildIndex(positions []Position, cell float64) *Index {
	ix := NewIndex(cell)
	ix.Rebuild(positions)
	return ix
}

func TestNearestMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	distributions := map[string]func(n int) []Position{
		"uniform": func(n int) []Position {
			out := make([]Position, n)
			for i := range out {
				out[i] = Position{X: rng.Float64() * 1000, Y: rng.Float64() * 1000}
			}
			return out
		},
		"clustered": func(n int) []Position {
			out := make([]Position, n)
			for i := range out {
				cx := float64(rng.Intn(4)) * 250
				cy := float64(rng.Intn(4)) * 250
				out[i] = Position{X: cx + rng.Float64()*20, Y: cy + rng.Float64()*20}
			}
			return out
		},
		"collinear": func(n int) []Position {
			out := make([]Position, n)
			for i := range out {
				out[i] = Position{X: float64(i) * 3, Y: 100}
			}
			return out
		},
	}

	for name, gen := range distributions {
		t.Run(name, func(t *testing.T) {
			positions := gen(500)
			ix := buildIndex(positions, DefaultCellSize)
			for _, tol := range []float64{0.5, 5, 16, 60} {
				for q := 0; q < 200; q++ {
					x := rng.Float64() * 1000
					y := rng.Float64() * 1000
					gotIdx, gotDist, gotOK := ix.Nearest(x, y, tol, nil)
					wantIdx, wantOK := bruteNearest(positions, x, y, tol, nil)
					require.Equal(t, wantOK, gotOK, "tol=%v query=(%v,%v)", tol, x, y)
					if wantOK {
						require.Equal(t, wantIdx, gotIdx, "tol=%v query=(%v,%v)", tol, x, y)
						assert.InDelta(t, math.Hypot(positions[wantIdx].X-x, positions[wantIdx].Y-y), gotDist, 1e-9)
					}
				}
			}
		})
	}
}

func TestNearestWithFilter(t *testing.T) {
	positions := []Position{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}}
	ix := buildIndex(positions, DefaultCellSize)

	even := func(i int) bool { return i%2 == 0 }
	idx, _, ok := ix.Nearest(1.1, 0, 10, even)
	require.True(t, ok)
	assert.Equal(t, 2, idx, "index 1 is closer but filtered out")
}

func TestNearestTieBreaksToLowerIndex(t *testing.T) {
	// Two points equidistant from the query.
	positions := []Position{{X: 10, Y: 0}, {X: -10, Y: 0}}
	ix := buildIndex(positions, DefaultCellSize)

	idx, _, ok := ix.Nearest(0, 0, 20, nil)
	require.True(t, ok)
	assert.Equal(t, 0, idx)
}

func TestNearestEmptyAndOutOfTolerance(t *testing.T) {
	ix := NewIndex(DefaultCellSize)
	_, _, ok := ix.Nearest(0, 0, 100, nil)
	assert.False(t, ok, "empty index never matches")

	ix.Rebuild([]Position{{X: 500, Y: 500}})
	_, _, ok = ix.Nearest(0, 0, 10, nil)
	assert.False(t, ok, "nothing within tolerance")

	_, _, ok = ix.Nearest(0, 0, 0, nil)
	assert.False(t, ok, "zero tolerance never matches")
}

func TestIncrementalEditsMatchRebuild(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	positions := make([]Position, 0, 64)
	ix := NewIndex(DefaultCellSize)

	check := func() {
		t.Helper()
		for q := 0; q < 50; q++ {
			x := rng.Float64() * 300
			y := rng.Float64() * 300
			gotIdx, _, gotOK := ix.Nearest(x, y, 40, nil)
			wantIdx, wantOK := bruteNearest(positions, x, y, 40, nil)
			require.Equal(t, wantOK, gotOK)
			if wantOK {
				require.Equal(t, wantIdx, gotIdx)
			}
		}
		require.Equal(t, len(positions), ix.Len())
	}

	// Grow through Insert at random indices.
	for i := 0; i < 40; i++ {
		p := Position{X: rng.Float64() * 300, Y: rng.Float64() * 300}
		at := rng.Intn(len(positions) + 1)
		positions = append(positions, Position{})
		copy(positions[at+1:], positions[at:])
		positions[at] = p
		ix.Insert(at, p.X, p.Y)
	}
	check()

	// Move points through Update.
	for i := 0; i < 20; i++ {
		at := rng.Intn(len(positions))
		old := positions[at]
		moved := Position{X: old.X + rng.Float64()*50 - 25, Y: old.Y + rng.Float64()*50 - 25}
		positions[at] = moved
		ix.Update(at, old.X, old.Y, moved.X, moved.Y)
	}
	check()

	// Shrink through Remove.
	for i := 0; i < 25; i++ {
		at := rng.Intn(len(positions))
		old := positions[at]
		positions = append(positions[:at], positions[at+1:]...)
		ix.Remove(at, old.X, old.Y)
	}
	check()
}
