package editor

import (
	"fmt"

	"wavemark/app/annotation"
	"wavemark/app/geometry"
	"wavemark/app/interfaces"
)

const (
	// HandleRadius is the hit tolerance around a box corner, in screen
	// pixels.
	HandleRadius = 8.0
	// MinBoxSize is the smallest committable rectangle edge in world
	// pixels. A draw gesture below it is discarded as an accidental
	// click; a resize step is clamped to it.
	MinBoxSize = 2.0
)

// modeKind tags the active interaction mode. Modes are mutually
// exclusive by construction: the session holds exactly one mode value,
// entered on pointer-down and exited on pointer-up.
type modeKind int

const (
	modeIdle modeKind = iota
	modeDrawing
	modeDragging
	modeResizing
	modeRectSelecting
	modePanning
)

func (k modeKind) String() string {
	switch k {
	case modeDrawing:
		return "drawing"
	case modeDragging:
		return "dragging"
	case modeResizing:
		return "resizing"
	case modeRectSelecting:
		return "rectSelecting"
	case modePanning:
		return "panning"
	default:
		return "idle"
	}
}

// interactionMode is the tagged union of gesture state. Only the fields
// of the active kind are meaningful.
type interactionMode struct {
	kind modeKind

	// Drawing / RectSelecting: the pointer-down anchor in world space
	// and the live preview rectangle.
	anchor  geometry.Point
	preview geometry.Rect

	// Dragging: offset from the pointer to each dragged box's origin,
	// so multi-selections keep their relative layout.
	dragOffsets map[int]geometry.Point

	// Resizing: the box, which corner is held, and the fixed opposite
	// corner.
	resizeIndex  int
	handle       annotation.Handle
	resizeAnchor geometry.Point

	// Panning: scroll offset and pointer X captured at pointer-down.
	panStartScroll  float64
	panStartScreenX float64
}

func idleMode() interactionMode {
	return interactionMode{kind: modeIdle}
}

// previewRect returns the live rubber-band/draw rectangle, nil outside
// those modes.
func (m *interactionMode) previewRect() *geometry.Rect {
	if m.kind == modeDrawing || m.kind == modeRectSelecting {
		r := m.preview
		return &r
	}
	return nil
}

// Modifiers are the keyboard modifiers held during a pointer event.
type Modifiers struct {
	Shift bool `json:"shift"`
	Ctrl  bool `json:"ctrl"`
	Alt   bool `json:"alt"`
	Meta  bool `json:"meta"`
}

func (m Modifiers) selection() bool { return m.Shift || m.Ctrl || m.Meta }
func (m Modifiers) pan() bool       { return m.Alt }

// Mouse buttons as reported by the frontend.
const (
	buttonPrimary = 0
	buttonMiddle  = 1
)

// PointerDown resolves a pointer-down into exactly one interaction
// mode. The checks run in priority order; the first match wins, so the
// ambiguous cases (a handle inside a box, a box under the pan modifier)
// resolve deterministically.
func (s *Session) PointerDown(screen geometry.Point, button int, mods Modifiers) {
	s.mu.Lock()
	world := s.conv.ScreenToWorld(screen, s.view.Scroll(), s.view.Zoom())
	s.lastPointer = world

	var seekFraction = -1.0

	switch {
	case s.resolveResize(world):
	case s.resolveBoxClick(world, mods):
	case s.annotationMode && screen.Y <= s.conv.SpectrogramHeight:
		s.mode = interactionMode{
			kind:    modeDrawing,
			anchor:  world,
			preview: geometry.Rect{X: world.X, Y: world.Y},
		}
	case mods.pan() || button == buttonMiddle:
		s.mode = interactionMode{
			kind:            modePanning,
			panStartScroll:  s.view.Scroll(),
			panStartScreenX: screen.X,
		}
	case mods.selection():
		s.store.ClearSelection()
		s.mode = interactionMode{
			kind:    modeRectSelecting,
			anchor:  world,
			preview: geometry.Rect{X: world.X, Y: world.Y},
		}
	default:
		// Plain background click: drop the selection and, outside
		// annotation mode, seek the transport to the clicked position.
		s.store.ClearSelection()
		if !s.annotationMode {
			absX := world.X * s.view.Zoom()
			seekFraction = s.conv.SeekFraction(absX, s.conv.ContentWidth, s.view.Zoom())
			s.play.onTimeUpdate(seekFraction * s.play.duration)
		}
	}
	s.mu.Unlock()

	if seekFraction >= 0 {
		s.emit(EventPlaybackSeek, seekFraction)
	}
	s.emitUpdated()
}

// resolveResize enters Resizing when the pointer is on a corner handle.
// Handles are not live in annotation mode, where every press inside the
// spectrogram starts a draw.
func (s *Session) resolveResize(world geometry.Point) bool {
	if s.annotationMode {
		return false
	}
	// Zoom stretches X only, so the screen-circular grab target is an
	// ellipse in world space: X slop shrinks with zoom, Y does not.
	idx, handle := s.store.HitTestHandle(world, HandleRadius/s.view.Zoom(), HandleRadius)
	if idx < 0 {
		return false
	}
	box, err := s.store.Box(idx)
	if err != nil {
		return false
	}
	s.store.Select(idx)
	s.history.BeginGesture(interfaces.CloneBoxes(s.store.Boxes()))
	s.mode = interactionMode{
		kind:         modeResizing,
		resizeIndex:  idx,
		handle:       handle,
		resizeAnchor: oppositeCorner(box, handle),
	}
	return true
}

// resolveBoxClick handles presses inside a box body: selection toggling
// with a modifier, otherwise a drag of the clicked box or of the whole
// current selection.
func (s *Session) resolveBoxClick(world geometry.Point, mods Modifiers) bool {
	idx := s.store.HitTest(world)
	if idx < 0 {
		return false
	}

	if mods.selection() {
		s.store.ToggleSelect(idx)
		s.mode = idleMode()
		return true
	}

	if !s.store.IsSelected(idx) {
		s.store.Select(idx)
	}

	offsets := make(map[int]geometry.Point)
	for _, i := range s.store.Selected() {
		box, err := s.store.Box(i)
		if err != nil {
			continue
		}
		offsets[i] = geometry.Point{X: box.X - world.X, Y: box.Y - world.Y}
	}
	s.history.BeginGesture(interfaces.CloneBoxes(s.store.Boxes()))
	s.mode = interactionMode{kind: modeDragging, dragOffsets: offsets}
	return true
}

// PointerMove advances the active gesture. Store mutations here pass
// through Constrain so a box cannot escape the canvas even transiently;
// history entries are suppressed until pointer-up.
func (s *Session) PointerMove(screen geometry.Point, mods Modifiers) {
	s.mu.Lock()
	world := s.conv.ScreenToWorld(screen, s.view.Scroll(), s.view.Zoom())
	s.lastPointer = world

	changed := true
	switch s.mode.kind {
	case modeDrawing, modeRectSelecting:
		s.mode.preview = rectBetween(s.mode.anchor, world)
		if s.mode.kind == modeRectSelecting {
			s.store.SelectMany(s.store.IndicesIn(s.mode.preview))
		}
	case modeDragging:
		s.moveSelection(world)
	case modeResizing:
		s.resizeStep(world)
	case modePanning:
		s.view.SetScroll(s.mode.panStartScroll - (screen.X - s.mode.panStartScreenX))
	default:
		changed = false
	}
	s.mu.Unlock()

	if changed {
		s.emitUpdated()
	}
}

func (s *Session) moveSelection(world geometry.Point) {
	for idx, off := range s.mode.dragOffsets {
		box, err := s.store.Box(idx)
		if err != nil {
			continue
		}
		r := geometry.Rect{
			X:      world.X + off.X,
			Y:      world.Y + off.Y,
			Width:  box.Width,
			Height: box.Height,
		}
		if err := s.store.SetRect(idx, r); err != nil {
			s.log("error", fmt.Sprintf("Failed to move box %d: %v", idx, err))
			continue
		}
		if err := s.store.Constrain(idx); err != nil {
			s.log("error", fmt.Sprintf("Failed to constrain box %d: %v", idx, err))
		}
	}
}

// resizeStep recomputes the rectangle between the fixed opposite corner
// and the pointer, holding the minimum size on both axes.
func (s *Session) resizeStep(world geometry.Point) {
	r := rectBetween(s.mode.resizeAnchor, world)
	if r.Width < MinBoxSize {
		r.Width = MinBoxSize
		if world.X < s.mode.resizeAnchor.X {
			r.X = s.mode.resizeAnchor.X - MinBoxSize
		} else {
			r.X = s.mode.resizeAnchor.X
		}
	}
	if r.Height < MinBoxSize {
		r.Height = MinBoxSize
		if world.Y < s.mode.resizeAnchor.Y {
			r.Y = s.mode.resizeAnchor.Y - MinBoxSize
		} else {
			r.Y = s.mode.resizeAnchor.Y
		}
	}
	idx := s.mode.resizeIndex
	if err := s.store.SetRect(idx, r); err != nil {
		s.log("error", fmt.Sprintf("Failed to resize box %d: %v", idx, err))
		return
	}
	if err := s.store.Constrain(idx); err != nil {
		s.log("error", fmt.Sprintf("Failed to constrain box %d: %v", idx, err))
	}
}

// PointerUp commits or abandons the active gesture and returns to Idle.
func (s *Session) PointerUp(screen geometry.Point, mods Modifiers) {
	s.mu.Lock()
	world := s.conv.ScreenToWorld(screen, s.view.Scroll(), s.view.Zoom())
	s.lastPointer = world

	switch s.mode.kind {
	case modeDrawing:
		r := rectBetween(s.mode.anchor, world)
		// A near-zero-area rectangle is an accidental click, not an
		// annotation; it leaves no box and no history entry.
		if r.Width >= MinBoxSize && r.Height >= MinBoxSize {
			idx := s.store.Add(interfaces.BoundingBox{
				X: r.X, Y: r.Y, Width: r.Width, Height: r.Height,
			})
			s.store.Select(idx)
			s.history.Record("draw", interfaces.CloneBoxes(s.store.Boxes()))
			s.noteMutationLocked()
		}
	case modeDragging:
		s.history.EndGesture("move", interfaces.CloneBoxes(s.store.Boxes()))
		s.noteMutationLocked()
	case modeResizing:
		s.history.EndGesture("resize", interfaces.CloneBoxes(s.store.Boxes()))
		s.noteMutationLocked()
	}
	s.mode = idleMode()
	s.mu.Unlock()
	s.emitUpdated()
}

// PointerCancel abandons the active gesture, restoring the pre-gesture
// collection. Fired when the pointer is lost (window blur, capture
// release outside the canvas).
func (s *Session) PointerCancel() {
	s.mu.Lock()
	if s.history.GestureActive() {
		if pre := s.history.CancelGesture(); pre != nil {
			s.store.SetAll(pre)
		}
	}
	s.mode = idleMode()
	s.mu.Unlock()
	s.emitUpdated()
}

// DoubleClick on a box plays just that segment: seek to its start and
// auto-pause at its end.
func (s *Session) DoubleClick(screen geometry.Point) {
	s.mu.Lock()
	world := s.conv.ScreenToWorld(screen, s.view.Scroll(), s.view.Zoom())
	idx := s.store.HitTest(world)
	var start, end float64
	hit := idx >= 0
	if hit {
		if box, err := s.store.Box(idx); err == nil {
			start, end = box.StartTime, box.EndTime
		} else {
			hit = false
		}
	}
	s.mu.Unlock()

	if hit {
		s.PlaySegment(start, end)
	}
}

// Mode returns the active interaction mode name.
func (s *Session) Mode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode.kind.String()
}

// rectBetween builds the normalized rectangle spanned by two points.
func rectBetween(a, b geometry.Point) geometry.Rect {
	r := geometry.Rect{
		X:      a.X,
		Y:      a.Y,
		Width:  b.X - a.X,
		Height: b.Y - a.Y,
	}
	if r.Width < 0 {
		r.X += r.Width
		r.Width = -r.Width
	}
	if r.Height < 0 {
		r.Y += r.Height
		r.Height = -r.Height
	}
	return r
}

// oppositeCorner returns the corner diagonally across from the held
// handle; it stays fixed for the whole resize.
func oppositeCorner(box interfaces.BoundingBox, h annotation.Handle) geometry.Point {
	switch h {
	case annotation.HandleNW:
		return geometry.Point{X: box.X + box.Width, Y: box.Y + box.Height}
	case annotation.HandleNE:
		return geometry.Point{X: box.X, Y: box.Y + box.Height}
	case annotation.HandleSW:
		return geometry.Point{X: box.X + box.Width, Y: box.Y}
	default: // se
		return geometry.Point{X: box.X, Y: box.Y}
	}
}
