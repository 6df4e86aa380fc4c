// Package store holds the single source of truth for everything the
// editor displays and edits: curves, selections, the active curve, the
// timeline position, and the per-curve spatial indexes used for
// hit-testing. No other component keeps an authoritative copy of curve
// data; readers get clones or derived views they rebuild on change
// notifications.
package store

import (
	"bytes"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strconv"

	"github.com/semmlerino/curveditor/internal/curve"
	"github.com/semmlerino/curveditor/internal/spatial"
)

// ChangeKind is a bitmask describing what a mutation touched, so a
// renderer can decide whether it needs to redraw.
type ChangeKind uint16

const (
	ChangeCurveData ChangeKind = 1 << iota
	ChangePoint
	ChangeSelection
	ChangeActiveCurve
	ChangeCurrentFrame
	ChangeFrameRange
	ChangeImageIndex
	ChangeCurveRemoved
	ChangeCurveRenamed
)

// Change is the payload of a state-change notification. Curves lists
// the curve names the change touched; batched mutations coalesce into
// one Change with the union of kinds and names.
type Change struct {
	Kinds  ChangeKind
	Curves []string
}

// Listener receives change notifications on the interaction goroutine.
type Listener func(Change)

// PointHit is a spatial query result.
type PointHit struct {
	Curve    string
	Index    int
	X, Y     float64
	Distance float64
}

// Store is the application state. It is not safe for concurrent use:
// all mutation must happen on the single interaction goroutine (the UI
// event loop). See BindGoroutine.
type Store struct {
	logger *slog.Logger

	order      []string
	curves     map[string]curve.Curve
	indexes    map[string]*spatial.Index
	selections map[string]map[int]struct{}

	activeCurve  string
	currentFrame int
	frameStart   int
	frameEnd     int
	imageIndex   int

	cellSize float64

	batchDepth int
	pending    Change
	hasPending bool
	listeners  []Listener

	boundGoroutine uint64
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for guard-rail diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithCellSize overrides the spatial grid cell size.
func WithCellSize(size float64) Option {
	return func(s *Store) { s.cellSize = size }
}

func New(opts ...Option) *Store {
	s := &Store{
		logger:     slog.Default(),
		curves:     make(map[string]curve.Curve),
		indexes:    make(map[string]*spatial.Index),
		selections: make(map[string]map[int]struct{}),
		frameStart: 1,
		frameEnd:   1,
		cellSize:   spatial.DefaultCellSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BindGoroutine records the calling goroutine as the interaction
// goroutine. After binding, mutations from any other goroutine panic.
// Call it once from the event loop; tests that drive the store from a
// single goroutine may skip it.
func (s *Store) BindGoroutine() {
	s.boundGoroutine = goroutineID()
}

func (s *Store) checkGoroutine() {
	if s.boundGoroutine == 0 {
		return
	}
	if id := goroutineID(); id != s.boundGoroutine {
		panic(fmt.Sprintf("store: mutation from goroutine %d, bound to %d", id, s.boundGoroutine))
	}
}

func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	// Stack header looks like "goroutine 12 [running]:".
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return 0
	}
	id, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// Subscribe registers a change listener. Listeners run synchronously
// on the interaction goroutine, in registration order.
func (s *Store) Subscribe(l Listener) {
	s.listeners = append(s.listeners, l)
}

func (s *Store) notify(kinds ChangeKind, curves ...string) {
	if s.batchDepth > 0 {
		s.pending.Kinds |= kinds
		s.pending.Curves = appendUnique(s.pending.Curves, curves...)
		s.hasPending = true
		return
	}
	change := Change{Kinds: kinds, Curves: curves}
	for _, l := range s.listeners {
		l(change)
	}
}

func appendUnique(dst []string, names ...string) []string {
	for _, name := range names {
		found := false
		for _, have := range dst {
			if have == name {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, name)
		}
	}
	return dst
}

// BeginBatch suppresses change notifications until the matching
// EndBatch. Batches nest; exactly one coalesced notification fires
// when the depth returns to zero.
func (s *Store) BeginBatch() {
	s.checkGoroutine()
	s.batchDepth++
}

// EndBatch closes the innermost batch. Safe to call from a defer, so a
// batch body that returns early or fails still restores notification
// delivery.
func (s *Store) EndBatch() {
	if s.batchDepth == 0 {
		s.logger.Warn("EndBatch without matching BeginBatch")
		return
	}
	s.batchDepth--
	if s.batchDepth > 0 || !s.hasPending {
		return
	}
	change := s.pending
	s.pending = Change{}
	s.hasPending = false
	for _, l := range s.listeners {
		l(change)
	}
}

// Batch runs fn inside a batch scope. The batch closes on every exit
// path, including error returns and panics.
func (s *Store) Batch(fn func() error) error {
	s.BeginBatch()
	defer s.EndBatch()
	return fn()
}

// CurveNames returns the curve names in their stable display order.
func (s *Store) CurveNames() []string {
	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// Curve returns a clone of the named curve.
func (s *Store) Curve(name string) (curve.Curve, bool) {
	c, ok := s.curves[name]
	if !ok {
		return curve.Curve{}, false
	}
	return c.Clone(), true
}

// Curves returns clones of all curves keyed by name.
func (s *Store) Curves() map[string]curve.Curve {
	out := make(map[string]curve.Curve, len(s.curves))
	for name, c := range s.curves {
		out[name] = c.Clone()
	}
	return out
}

// PointAt returns the point at index of the named curve.
func (s *Store) PointAt(name string, index int) (curve.Point, error) {
	c, ok := s.curves[name]
	if !ok {
		return curve.Point{}, fmt.Errorf("no curve %q", name)
	}
	if index < 0 || index >= len(c.Points) {
		return curve.Point{}, &IndexError{Curve: name, Index: index, Len: len(c.Points)}
	}
	return c.Points[index], nil
}

// ActiveCurve returns the active curve name, or "" when none is set.
func (s *Store) ActiveCurve() string { return s.activeCurve }

// ActiveCurveData returns the active curve's name and a clone of its
// data. This is the blessed accessor: it can never report an active
// curve whose data is missing, which checking the name and fetching
// separately could.
func (s *Store) ActiveCurveData() (string, curve.Curve, bool) {
	if s.activeCurve == "" {
		return "", curve.Curve{}, false
	}
	c, ok := s.curves[s.activeCurve]
	if !ok {
		// The invariant says this cannot happen; treat it as fatal
		// rather than limping on with ghost state.
		panic(fmt.Sprintf("store: active curve %q has no data", s.activeCurve))
	}
	return s.activeCurve, c.Clone(), ok
}

// SetActiveCurve sets the active curve. Empty name clears it.
func (s *Store) SetActiveCurve(name string) error {
	s.checkGoroutine()
	if name != "" {
		if _, ok := s.curves[name]; !ok {
			return fmt.Errorf("no curve %q", name)
		}
	}
	if s.activeCurve == name {
		return nil
	}
	s.activeCurve = name
	s.notify(ChangeActiveCurve, name)
	return nil
}

func (s *Store) CurrentFrame() int { return s.currentFrame }

func (s *Store) SetCurrentFrame(frame int) {
	s.checkGoroutine()
	if frame < s.frameStart {
		frame = s.frameStart
	}
	if frame > s.frameEnd {
		frame = s.frameEnd
	}
	if frame == s.currentFrame {
		return
	}
	s.currentFrame = frame
	s.notify(ChangeCurrentFrame)
}

func (s *Store) FrameRange() (start, end int) { return s.frameStart, s.frameEnd }

func (s *Store) SetFrameRange(start, end int) {
	s.checkGoroutine()
	if end < start {
		end = start
	}
	s.frameStart, s.frameEnd = start, end
	if s.currentFrame < start {
		s.currentFrame = start
	}
	if s.currentFrame > end {
		s.currentFrame = end
	}
	s.notify(ChangeFrameRange)
}

func (s *Store) ImageIndex() int { return s.imageIndex }

func (s *Store) SetImageIndex(i int) {
	s.checkGoroutine()
	if i == s.imageIndex {
		return
	}
	s.imageIndex = i
	s.notify(ChangeImageIndex)
}

// SetCurveData replaces a curve's points wholesale, creating the curve
// if it does not exist. This is the loader contract entry point: input
// must already be sorted with unique frames, or it is rejected.
func (s *Store) SetCurveData(name string, points []curve.Point) error {
	s.checkGoroutine()
	if name == "" {
		return fmt.Errorf("curve name must not be empty")
	}
	if err := curve.ValidatePoints(points); err != nil {
		return fmt.Errorf("curve %q: %w", name, err)
	}
	if _, ok := s.curves[name]; !ok {
		s.order = append(s.order, name)
	}
	pts := make([]curve.Point, len(points))
	copy(pts, points)
	s.curves[name] = curve.Curve{Name: name, Points: pts}
	s.rebuildIndex(name)
	s.clampSelection(name)
	s.notify(ChangeCurveData, name)
	return nil
}

// UpdatePoint replaces the point at index. Changing the point's frame
// past a neighbor is rejected with an OrderError so selections keyed
// by index stay valid.
func (s *Store) UpdatePoint(name string, index int, p curve.Point) error {
	s.checkGoroutine()
	c, ok := s.curves[name]
	if !ok {
		return fmt.Errorf("no curve %q", name)
	}
	if index < 0 || index >= len(c.Points) {
		return &IndexError{Curve: name, Index: index, Len: len(c.Points)}
	}
	if index > 0 && p.Frame <= c.Points[index-1].Frame {
		return &OrderError{Curve: name, Frame: p.Frame}
	}
	if index < len(c.Points)-1 && p.Frame >= c.Points[index+1].Frame {
		return &OrderError{Curve: name, Frame: p.Frame}
	}
	old := c.Points[index]
	c.Points[index] = p
	s.curves[name] = c
	s.indexes[name].Update(index, old.X, old.Y, p.X, p.Y)
	s.notify(ChangePoint, name)
	return nil
}

// InsertPoint adds a point, keeping frame order. A point already at
// that frame is an OrderError. Returns the insertion index. Selection
// indices at or past the insertion point shift up with the data.
func (s *Store) InsertPoint(name string, p curve.Point) (int, error) {
	s.checkGoroutine()
	c, ok := s.curves[name]
	if !ok {
		return 0, fmt.Errorf("no curve %q", name)
	}
	i, exists := c.FindFrame(p.Frame)
	if exists {
		return 0, &OrderError{Curve: name, Frame: p.Frame}
	}
	c.Points = append(c.Points, curve.Point{})
	copy(c.Points[i+1:], c.Points[i:])
	c.Points[i] = p
	s.curves[name] = c
	s.indexes[name].Insert(i, p.X, p.Y)
	s.shiftSelection(name, i, +1)
	s.notify(ChangePoint, name)
	return i, nil
}

// RemovePoint deletes the point at index and returns it. Selection
// indices past the removed point shift down; the removed index drops
// out of the selection.
func (s *Store) RemovePoint(name string, index int) (curve.Point, error) {
	s.checkGoroutine()
	c, ok := s.curves[name]
	if !ok {
		return curve.Point{}, fmt.Errorf("no curve %q", name)
	}
	if index < 0 || index >= len(c.Points) {
		return curve.Point{}, &IndexError{Curve: name, Index: index, Len: len(c.Points)}
	}
	p := c.Points[index]
	c.Points = append(c.Points[:index], c.Points[index+1:]...)
	s.curves[name] = c
	s.indexes[name].Remove(index, p.X, p.Y)
	s.shiftSelection(name, index, -1)
	s.notify(ChangePoint, name)
	return p, nil
}

// DeleteCurve removes the curve, its selection, and its index, and
// clears the active pointer if it referenced the curve. Deleting a
// curve that does not exist is a no-op.
func (s *Store) DeleteCurve(name string) {
	s.checkGoroutine()
	if _, ok := s.curves[name]; !ok {
		return
	}
	delete(s.curves, name)
	delete(s.indexes, name)
	delete(s.selections, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	kinds := ChangeCurveRemoved
	if s.activeCurve == name {
		s.activeCurve = ""
		kinds |= ChangeActiveCurve
	}
	s.notify(kinds, name)
}

// RenameCurve renames a curve and follows every reference: display
// order, selection keys, and the active-curve pointer.
func (s *Store) RenameCurve(oldName, newName string) error {
	s.checkGoroutine()
	c, ok := s.curves[oldName]
	if !ok {
		return fmt.Errorf("no curve %q", oldName)
	}
	if newName == "" {
		return fmt.Errorf("curve name must not be empty")
	}
	if _, exists := s.curves[newName]; exists {
		return fmt.Errorf("curve %q already exists", newName)
	}
	c.Name = newName
	delete(s.curves, oldName)
	s.curves[newName] = c
	s.indexes[newName] = s.indexes[oldName]
	delete(s.indexes, oldName)
	if sel, ok := s.selections[oldName]; ok {
		s.selections[newName] = sel
		delete(s.selections, oldName)
	}
	for i, n := range s.order {
		if n == oldName {
			s.order[i] = newName
			break
		}
	}
	if s.activeCurve == oldName {
		s.activeCurve = newName
	}
	s.notify(ChangeCurveRenamed, oldName, newName)
	return nil
}

// Selection returns the selected point indices of a curve, sorted
// ascending.
func (s *Store) Selection(name string) []int {
	sel, ok := s.selections[name]
	if !ok || len(sel) == 0 {
		return nil
	}
	out := make([]int, 0, len(sel))
	for i := range sel {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// SetSelection replaces a curve's selection. Out-of-range indices are
// dropped silently: upstream UI can race with data mutation, and a
// stale index must not wedge the selection.
func (s *Store) SetSelection(name string, indices []int) {
	s.checkGoroutine()
	c, ok := s.curves[name]
	if !ok {
		return
	}
	sel := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(c.Points) {
			sel[i] = struct{}{}
		}
	}
	if len(sel) == 0 {
		delete(s.selections, name)
	} else {
		s.selections[name] = sel
	}
	s.notify(ChangeSelection, name)
}

// ClearSelections drops every curve's selection.
func (s *Store) ClearSelections() {
	s.checkGoroutine()
	if len(s.selections) == 0 {
		return
	}
	names := make([]string, 0, len(s.selections))
	for name := range s.selections {
		names = append(names, name)
	}
	sort.Strings(names)
	s.selections = make(map[string]map[int]struct{})
	s.notify(ChangeSelection, names...)
}

// IsSelected reports whether a point index is selected on a curve.
func (s *Store) IsSelected(name string, index int) bool {
	_, ok := s.selections[name][index]
	return ok
}

func (s *Store) shiftSelection(name string, from, delta int) {
	sel, ok := s.selections[name]
	if !ok {
		return
	}
	shifted := make(map[int]struct{}, len(sel))
	for i := range sel {
		switch {
		case delta < 0 && i == from:
			// Deleted point leaves the selection.
		case i >= from:
			shifted[i+delta] = struct{}{}
		default:
			shifted[i] = struct{}{}
		}
	}
	if len(shifted) == 0 {
		delete(s.selections, name)
	} else {
		s.selections[name] = shifted
	}
	s.clampSelection(name)
}

func (s *Store) clampSelection(name string) {
	sel, ok := s.selections[name]
	if !ok {
		return
	}
	n := len(s.curves[name].Points)
	for i := range sel {
		if i < 0 || i >= n {
			delete(sel, i)
		}
	}
	if len(sel) == 0 {
		delete(s.selections, name)
	}
}

func (s *Store) rebuildIndex(name string) {
	ix, ok := s.indexes[name]
	if !ok {
		ix = spatial.NewIndex(s.cellSize)
		s.indexes[name] = ix
	}
	pts := s.curves[name].Points
	positions := make([]spatial.Position, len(pts))
	for i, p := range pts {
		positions[i] = spatial.Position{X: p.X, Y: p.Y}
	}
	ix.Rebuild(positions)
}

// FindPoint hit-tests all curves for the point nearest (x, y) within
// tolerance. frame restricts matches to points at that frame; pass a
// negative frame to search across frames. Equidistant hits prefer the
// active curve, then the lower point index, then curve display order.
func (s *Store) FindPoint(x, y, tolerance float64, frame int) (PointHit, bool) {
	best := PointHit{}
	found := false
	consider := func(name string) {
		ix, ok := s.indexes[name]
		if !ok {
			return
		}
		pts := s.curves[name].Points
		var accept func(int) bool
		if frame >= 0 {
			accept = func(i int) bool { return pts[i].Frame == frame }
		}
		idx, dist, ok := ix.Nearest(x, y, tolerance, accept)
		if !ok {
			return
		}
		// Strict less-than keeps the earlier candidate on ties, which
		// gives the active curve priority because it is scanned first.
		if !found || dist < best.Distance {
			best = PointHit{Curve: name, Index: idx, X: pts[idx].X, Y: pts[idx].Y, Distance: dist}
			found = true
		}
	}
	if s.activeCurve != "" {
		consider(s.activeCurve)
	}
	for _, name := range s.order {
		if name == s.activeCurve {
			continue
		}
		consider(name)
	}
	return best, found
}

// PointsInRect returns the indices of a curve's points inside the
// rectangle spanned by the two corners. frame restricts matches to
// points at that frame; negative searches all frames.
func (s *Store) PointsInRect(name string, x0, y0, x1, y1 float64, frame int) []int {
	c, ok := s.curves[name]
	if !ok {
		return nil
	}
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	var out []int
	for i, p := range c.Points {
		if frame >= 0 && p.Frame != frame {
			continue
		}
		if p.X >= x0 && p.X <= x1 && p.Y >= y0 && p.Y <= y1 {
			out = append(out, i)
		}
	}
	return out
}
