// Package annotation owns the in-memory collection of bounding boxes for
// the open recording, the current selection, and the undo/redo history.
package annotation

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"wavemark/app/geometry"
	"wavemark/app/interfaces"
)

// Store is the authoritative in-memory annotation collection for one
// recording. It is not safe for concurrent use; the editor session
// serializes access to it.
type Store struct {
	conv  geometry.Converter
	boxes []interfaces.BoundingBox

	// baseline is the last successfully persisted snapshot. Dirtiness is
	// structural inequality against it, not a boolean toggle, so undoing
	// back to the saved state reads as clean again.
	baseline []interfaces.BoundingBox

	selection map[int]struct{}
	primary   int // index of the primary selection, -1 if none
}

// BoxPatch is a partial update to a box's pixel rectangle or label. Nil
// fields are left untouched. Time/frequency is always re-derived from the
// resulting rectangle, never patched directly.
type BoxPatch struct {
	X      *float64
	Y      *float64
	Width  *float64
	Height *float64
	Label  *string
}

// NewStore creates an empty store bound to the recording's converter.
func NewStore(conv geometry.Converter) *Store {
	return &Store{
		conv:      conv,
		selection: make(map[int]struct{}),
		primary:   -1,
	}
}

// NewBoxID returns a fresh annotation box identifier.
func NewBoxID() string {
	return fmt.Sprintf("box_%s", uuid.New().String())
}

// Converter returns the geometry converter the store derives time and
// frequency with.
func (s *Store) Converter() geometry.Converter { return s.conv }

// Len returns the number of boxes.
func (s *Store) Len() int { return len(s.boxes) }

// Boxes returns a deep copy of the collection, safe to hand to history,
// save payloads, or the frontend.
func (s *Store) Boxes() []interfaces.BoundingBox {
	return interfaces.CloneBoxes(s.boxes)
}

// Box returns a copy of the box at index i.
func (s *Store) Box(i int) (interfaces.BoundingBox, error) {
	if i < 0 || i >= len(s.boxes) {
		return interfaces.BoundingBox{}, fmt.Errorf("box index %d out of range (have %d)", i, len(s.boxes))
	}
	return s.boxes[i], nil
}

// Add appends a box, normalizing its rectangle and deriving time and
// frequency. Returns the new box's index.
func (s *Store) Add(box interfaces.BoundingBox) int {
	if box.ID == "" {
		box.ID = NewBoxID()
	}
	if box.Label == "" {
		box.Label = interfaces.DefaultLabel
	}
	box = s.normalize(box)
	s.boxes = append(s.boxes, box)
	return len(s.boxes) - 1
}

// Update applies a partial rectangle/label edit to the box at index i.
// Negative widths or heights are normalized by swapping the origin, so a
// resize that crosses the opposite edge flips instead of failing.
func (s *Store) Update(i int, patch BoxPatch) error {
	if i < 0 || i >= len(s.boxes) {
		return fmt.Errorf("box index %d out of range (have %d)", i, len(s.boxes))
	}
	box := s.boxes[i]
	if patch.X != nil {
		box.X = *patch.X
	}
	if patch.Y != nil {
		box.Y = *patch.Y
	}
	if patch.Width != nil {
		box.Width = *patch.Width
	}
	if patch.Height != nil {
		box.Height = *patch.Height
	}
	if patch.Label != nil {
		box.Label = *patch.Label
	}
	s.boxes[i] = s.normalize(box)
	return nil
}

// SetRect replaces the box's rectangle wholesale, normalizing and
// re-deriving. Used by continuous drag/resize steps.
func (s *Store) SetRect(i int, r geometry.Rect) error {
	if i < 0 || i >= len(s.boxes) {
		return fmt.Errorf("box index %d out of range (have %d)", i, len(s.boxes))
	}
	box := s.boxes[i]
	box.X, box.Y, box.Width, box.Height = r.X, r.Y, r.Width, r.Height
	s.boxes[i] = s.normalize(box)
	return nil
}

// Constrain clamps the box at index i into the valid world region and
// re-derives time/frequency. Called after every drag/resize step so no
// box can escape the canvas even transiently.
func (s *Store) Constrain(i int) error {
	if i < 0 || i >= len(s.boxes) {
		return fmt.Errorf("box index %d out of range (have %d)", i, len(s.boxes))
	}
	box := s.boxes[i]
	r := s.conv.ClampRect(geometry.Rect{X: box.X, Y: box.Y, Width: box.Width, Height: box.Height})
	box.X, box.Y, box.Width, box.Height = r.X, r.Y, r.Width, r.Height
	s.boxes[i] = s.derive(box)
	return nil
}

// RemoveSet deletes the given indices in one batch and drops any
// selection entries that referenced them. Remaining selection indices
// are shifted down to keep pointing at the same boxes.
func (s *Store) RemoveSet(indices []int) {
	if len(indices) == 0 {
		return
	}
	doomed := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(s.boxes) {
			doomed[i] = struct{}{}
		}
	}
	if len(doomed) == 0 {
		return
	}

	kept := make([]interfaces.BoundingBox, 0, len(s.boxes)-len(doomed))
	remap := make(map[int]int, len(s.boxes))
	for i, box := range s.boxes {
		if _, gone := doomed[i]; gone {
			continue
		}
		remap[i] = len(kept)
		kept = append(kept, box)
	}
	s.boxes = kept

	newSel := make(map[int]struct{}, len(s.selection))
	for i := range s.selection {
		if ni, ok := remap[i]; ok {
			newSel[ni] = struct{}{}
		}
	}
	s.selection = newSel
	if ni, ok := remap[s.primary]; ok {
		s.primary = ni
	} else {
		s.primary = -1
	}
}

// SetAll replaces the collection wholesale. Used by undo/redo and by
// recording load. Selection is cleared because indices are no longer
// meaningful.
func (s *Store) SetAll(boxes []interfaces.BoundingBox) {
	s.boxes = interfaces.CloneBoxes(boxes)
	s.ClearSelection()
}

// SetBaseline records the given snapshot as the last persisted state.
func (s *Store) SetBaseline(boxes []interfaces.BoundingBox) {
	s.baseline = interfaces.CloneBoxes(boxes)
}

// Dirty reports whether the live collection differs structurally from the
// last persisted baseline.
func (s *Store) Dirty() bool {
	return !interfaces.BoxesEqual(s.boxes, s.baseline)
}

// HitTest returns the topmost box containing the world point, or -1.
// Later boxes render on top, so iteration runs back to front.
func (s *Store) HitTest(p geometry.Point) int {
	for i := len(s.boxes) - 1; i >= 0; i-- {
		b := s.boxes[i]
		r := geometry.Rect{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
		if r.Contains(p) {
			return i
		}
	}
	return -1
}

// Handle identifies a resize corner.
type Handle string

const (
	HandleNW Handle = "nw"
	HandleNE Handle = "ne"
	HandleSW Handle = "sw"
	HandleSE Handle = "se"
)

// HitTestHandle returns the box index and corner handle within
// tolerance of the world point, or (-1, ""). Tolerances are separate
// per axis: horizontal zoom shrinks the world-space slop in X only, so
// the caller passes an already-scaled tolX and an unscaled tolY.
// Handles of later boxes win, matching render order.
func (s *Store) HitTestHandle(p geometry.Point, tolX, tolY float64) (int, Handle) {
	for i := len(s.boxes) - 1; i >= 0; i-- {
		b := s.boxes[i]
		corners := []struct {
			h    Handle
			x, y float64
		}{
			{HandleNW, b.X, b.Y},
			{HandleNE, b.X + b.Width, b.Y},
			{HandleSW, b.X, b.Y + b.Height},
			{HandleSE, b.X + b.Width, b.Y + b.Height},
		}
		for _, c := range corners {
			dx, dy := (p.X-c.x)/tolX, (p.Y-c.y)/tolY
			if dx*dx+dy*dy <= 1 {
				return i, c.h
			}
		}
	}
	return -1, ""
}

// IndicesIn returns the boxes fully or partially inside the world
// rectangle, used by rubber-band selection.
func (s *Store) IndicesIn(r geometry.Rect) []int {
	var out []int
	for i, b := range s.boxes {
		if b.X+b.Width < r.X || b.X > r.X+r.Width {
			continue
		}
		if b.Y+b.Height < r.Y || b.Y > r.Y+r.Height {
			continue
		}
		out = append(out, i)
	}
	return out
}

// Select replaces the selection with the single box at index i.
func (s *Store) Select(i int) {
	s.selection = map[int]struct{}{i: {}}
	s.primary = i
}

// SelectMany replaces the selection with the given indices.
func (s *Store) SelectMany(indices []int) {
	s.selection = make(map[int]struct{}, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(s.boxes) {
			s.selection[i] = struct{}{}
		}
	}
	s.primary = -1
	if len(indices) > 0 {
		s.primary = indices[0]
	}
}

// ToggleSelect flips membership of index i without touching the rest of
// the selection (shift/ctrl-click behaviour).
func (s *Store) ToggleSelect(i int) {
	if _, ok := s.selection[i]; ok {
		delete(s.selection, i)
		if s.primary == i {
			s.primary = -1
		}
		return
	}
	s.selection[i] = struct{}{}
	s.primary = i
}

// ClearSelection empties the selection.
func (s *Store) ClearSelection() {
	s.selection = make(map[int]struct{})
	s.primary = -1
}

// IsSelected reports membership of index i.
func (s *Store) IsSelected(i int) bool {
	_, ok := s.selection[i]
	return ok
}

// Selected returns the selected indices in ascending order.
func (s *Store) Selected() []int {
	out := make([]int, 0, len(s.selection))
	for i := range s.selection {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Primary returns the primary selection index, or -1.
func (s *Store) Primary() int { return s.primary }

// normalize swaps the origin for negative extents, clamps the rectangle
// into bounds, and re-derives time/frequency.
func (s *Store) normalize(box interfaces.BoundingBox) interfaces.BoundingBox {
	if box.Width < 0 {
		box.X += box.Width
		box.Width = -box.Width
	}
	if box.Height < 0 {
		box.Y += box.Height
		box.Height = -box.Height
	}
	r := s.conv.ClampRect(geometry.Rect{X: box.X, Y: box.Y, Width: box.Width, Height: box.Height})
	box.X, box.Y, box.Width, box.Height = r.X, r.Y, r.Width, r.Height
	return s.derive(box)
}

func (s *Store) derive(box interfaces.BoundingBox) interfaces.BoundingBox {
	box.StartTime, box.EndTime, box.MinFrequency, box.MaxFrequency = s.conv.DeriveTimeFrequency(
		geometry.Rect{X: box.X, Y: box.Y, Width: box.Width, Height: box.Height})
	return box
}
