package history

import (
	"errors"
	"log/slog"

	"github.com/semmlerino/curveditor/internal/store"
)

var (
	// ErrNothingToUndo means the undo stack is empty. Callers treat it
	// as a no-op, not a failure.
	ErrNothingToUndo = errors.New("nothing to undo")
	// ErrNothingToRedo means the redo stack is empty.
	ErrNothingToRedo = errors.New("nothing to redo")
)

// DefaultMaxSize bounds the undo stack. The oldest entry is discarded
// past the limit; bounded memory is the point, so eviction is silent.
const DefaultMaxSize = 100

// History is the linear undo/redo log. Executing any new command
// clears the redo stack. Commands of the same kind and target issued
// within one gesture merge into a single entry, so one undo reverts
// the whole gesture.
type History struct {
	logger  *slog.Logger
	undo    []Command
	redo    []Command
	maxSize int

	// gestureTop is true while the top undo entry belongs to the
	// gesture still in progress. EndGesture drops the flag so the next
	// command of the same kind starts a fresh entry.
	gestureTop bool
}

func New(maxSize int, logger *slog.Logger) *History {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &History{maxSize: maxSize, logger: logger}
}

func (h *History) UndoDepth() int { return len(h.undo) }
func (h *History) RedoDepth() int { return len(h.redo) }

// Execute applies the command. On success it lands on the undo stack,
// merged into the top entry when the gesture merge predicate matches,
// and the redo stack is cleared. On failure the store is unchanged and
// the error comes back to the caller.
func (h *History) Execute(st *store.Store, cmd Command) error {
	if err := cmd.Apply(st); err != nil {
		return err
	}
	h.redo = h.redo[:0]
	if h.gestureTop && len(h.undo) > 0 {
		if m, ok := h.undo[len(h.undo)-1].(merger); ok && m.merge(cmd) {
			return nil
		}
	}
	h.undo = append(h.undo, cmd)
	h.gestureTop = true
	if len(h.undo) > h.maxSize {
		h.logger.Debug("undo history full, evicting oldest entry",
			"evicted", h.undo[0].Description())
		h.undo = append(h.undo[:0], h.undo[1:]...)
	}
	return nil
}

// EndGesture closes the current gesture. The next command starts a new
// undo entry even if it would otherwise merge.
func (h *History) EndGesture() {
	h.gestureTop = false
}

// CancelGesture undoes and discards the entry merged by the gesture in
// progress, returning the store to its pre-gesture state. The undone
// entry does not land on the redo stack. No-op when no gesture is
// open.
func (h *History) CancelGesture(st *store.Store) error {
	if !h.gestureTop || len(h.undo) == 0 {
		return nil
	}
	top := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.gestureTop = false
	return top.Undo(st)
}

// Undo reverts the newest entry and moves it to the redo stack.
func (h *History) Undo(st *store.Store) error {
	if len(h.undo) == 0 {
		return ErrNothingToUndo
	}
	top := h.undo[len(h.undo)-1]
	if err := top.Undo(st); err != nil {
		return err
	}
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, top)
	h.gestureTop = false
	return nil
}

// Redo re-applies the newest undone entry and moves it back to the
// undo stack.
func (h *History) Redo(st *store.Store) error {
	if len(h.redo) == 0 {
		return ErrNothingToRedo
	}
	top := h.redo[len(h.redo)-1]
	if err := top.Apply(st); err != nil {
		return err
	}
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, top)
	h.gestureTop = false
	return nil
}

// Invalidate drops every entry targeting the named curve from both
// stacks. Called after a non-undoable structural change, e.g. the
// curve was deleted outside the command path.
func (h *History) Invalidate(curveName string) {
	h.undo = dropTarget(h.undo, curveName)
	h.redo = dropTarget(h.redo, curveName)
	if len(h.undo) == 0 {
		h.gestureTop = false
	}
}

func dropTarget(cmds []Command, curveName string) []Command {
	kept := cmds[:0]
	for _, c := range cmds {
		if c.TargetCurve() != curveName {
			kept = append(kept, c)
		}
	}
	return kept
}
