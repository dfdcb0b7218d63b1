package annotation

import (
	"time"

	"wavemark/app/interfaces"
)

// DefaultHistoryLimit bounds the undo stack. Tunable, not a correctness
// requirement; oldest entries are evicted past the cap.
const DefaultHistoryLimit = 100

// Entry is an immutable full snapshot of the collection with an action
// tag for debugging and UI display.
type Entry struct {
	Boxes  []interfaces.BoundingBox
	Action string
	At     time.Time
}

// History is a bounded linear undo/redo stack of full snapshots with a
// cursor. While a gesture is active no entries are appended even though
// the store mutates continuously; one entry is recorded when the gesture
// ends, comparing pre- and post-gesture snapshots. Without that, a drag
// would flood the stack and undo would only step back sub-pixel amounts.
type History struct {
	entries []Entry
	cursor  int
	limit   int

	gestureActive bool
	preGesture    []interfaces.BoundingBox
}

// NewHistory creates a history seeded with the loaded snapshot, which
// becomes the undo floor for this recording.
func NewHistory(loaded []interfaces.BoundingBox, limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{
		entries: []Entry{{Boxes: interfaces.CloneBoxes(loaded), Action: "load", At: time.Now()}},
		cursor:  0,
		limit:   limit,
	}
}

// BeginGesture enters the GestureActive state, capturing the
// pre-operation snapshot. Nested begins are ignored; a gesture is a
// single pointer-down to pointer-up interaction.
func (h *History) BeginGesture(snapshot []interfaces.BoundingBox) {
	if h.gestureActive {
		return
	}
	h.gestureActive = true
	h.preGesture = interfaces.CloneBoxes(snapshot)
}

// GestureActive reports whether a drag/resize gesture is in progress.
// Undo/redo must not run while this is true.
func (h *History) GestureActive() bool { return h.gestureActive }

// EndGesture leaves the GestureActive state and appends exactly one entry
// if the gesture changed anything. A gesture that ends where it started
// (e.g. a click that never moved) records nothing.
func (h *History) EndGesture(action string, post []interfaces.BoundingBox) {
	if !h.gestureActive {
		return
	}
	h.gestureActive = false
	pre := h.preGesture
	h.preGesture = nil
	if interfaces.BoxesEqual(pre, post) {
		return
	}
	h.record(action, post)
}

// CancelGesture abandons an in-progress gesture and returns the
// pre-gesture snapshot so the caller can restore it. Returns nil if no
// gesture was active.
func (h *History) CancelGesture() []interfaces.BoundingBox {
	if !h.gestureActive {
		return nil
	}
	h.gestureActive = false
	pre := h.preGesture
	h.preGesture = nil
	return pre
}

// Record appends a snapshot for a committed single-step mutation (label
// change, paste, delete, draw commit). Suppressed while a gesture is
// active; gesture mutations are recorded once by EndGesture.
func (h *History) Record(action string, snapshot []interfaces.BoundingBox) {
	if h.gestureActive {
		return
	}
	h.record(action, snapshot)
}

func (h *History) record(action string, snapshot []interfaces.BoundingBox) {
	// Truncate the redo branch: classic linear history.
	h.entries = h.entries[:h.cursor+1]
	h.entries = append(h.entries, Entry{
		Boxes:  interfaces.CloneBoxes(snapshot),
		Action: action,
		At:     time.Now(),
	})
	h.cursor++
	if len(h.entries) > h.limit {
		evict := len(h.entries) - h.limit
		h.entries = h.entries[evict:]
		h.cursor -= evict
	}
}

// CanUndo reports whether an older snapshot exists.
func (h *History) CanUndo() bool { return h.cursor > 0 && !h.gestureActive }

// CanRedo reports whether a newer snapshot exists.
func (h *History) CanRedo() bool { return h.cursor < len(h.entries)-1 && !h.gestureActive }

// Undo steps the cursor back and returns the snapshot to restore, or
// (nil, false) at the floor or mid-gesture.
func (h *History) Undo() ([]interfaces.BoundingBox, bool) {
	if !h.CanUndo() {
		return nil, false
	}
	h.cursor--
	return interfaces.CloneBoxes(h.entries[h.cursor].Boxes), true
}

// Redo steps the cursor forward and returns the snapshot to restore, or
// (nil, false) at the newest entry or mid-gesture.
func (h *History) Redo() ([]interfaces.BoundingBox, bool) {
	if !h.CanRedo() {
		return nil, false
	}
	h.cursor++
	return interfaces.CloneBoxes(h.entries[h.cursor].Boxes), true
}

// Len returns the number of entries currently held.
func (h *History) Len() int { return len(h.entries) }

// Cursor returns the current position, for tests and diagnostics.
func (h *History) Cursor() int { return h.cursor }
