package editor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"wavemark/app/annotation"
	"wavemark/app/geometry"
	"wavemark/app/interfaces"
)

// Event names emitted to the frontend.
const (
	EventEditorUpdated  = "editor:updated"
	EventSaveState      = "save:stateChanged"
	EventPlaybackCursor = "playback:cursor"
	EventPlaybackSeek   = "playback:seek"
	EventPlaybackPlay   = "playback:play"
	EventPlaybackPause  = "playback:pause"
	EventPlaybackRate   = "playback:rate"
)

// Emitter delivers events to the frontend; wails runtime.EventsEmit in
// production, a capture func in tests.
type Emitter func(event string, data ...interface{})

// SessionConfig carries the per-session tunables from settings.
type SessionConfig struct {
	ZoomMax      float64
	HistoryLimit int
	Labels       []string
	Autosave     AutosaveConfig
	// DraftDir is where crash-recovery drafts are written; empty
	// disables drafts.
	DraftDir string
}

// Session owns all editor state for one open recording: annotations,
// selection, history, viewport, interaction mode, playback cursor, and
// save state. It is the only mutation path; every transition happens
// through a method under one lock, so the interdependent pieces can
// never drift out of sync. Exactly one session exists per recording at
// a time — opening another recording closes this one first.
type Session struct {
	mu sync.Mutex

	rec     interfaces.Recording
	conv    geometry.Converter
	store   *annotation.Store
	history *annotation.History
	view    *Viewport
	play    Playback

	mode           interactionMode
	annotationMode bool
	quickLabels    map[string]string
	lastPointer    geometry.Point

	autosave  *Autosave
	draftPath string

	emit Emitter
	log  interfaces.Logger

	cancel context.CancelFunc
	closed bool
}

// EditorState is the full render model pushed to the frontend after
// every transition.
type EditorState struct {
	RecordingID    int                      `json:"recordingId"`
	Boxes          []interfaces.BoundingBox `json:"boxes"`
	Selected       []int                    `json:"selected"`
	Primary        int                      `json:"primary"`
	Mode           string                   `json:"mode"`
	DraftRect      *geometry.Rect           `json:"draftRect,omitempty"`
	AnnotationMode bool                     `json:"annotationMode"`
	CanUndo        bool                     `json:"canUndo"`
	CanRedo        bool                     `json:"canRedo"`
	Viewport       interfaces.ViewportState `json:"viewport"`
	Save           interfaces.SaveState     `json:"save"`
	Playback       PlaybackState            `json:"playback"`
	VisibleMinX    float64                  `json:"visibleMinX"`
	VisibleMaxX    float64                  `json:"visibleMaxX"`
}

// NewSession creates a session for one recording with its loaded
// annotations. The loaded snapshot seeds both the history floor and the
// save baseline.
func NewSession(rec interfaces.Recording, conv geometry.Converter, canvasW, canvasH float64, loaded []interfaces.BoundingBox, save SaveFunc, cfg SessionConfig, emit Emitter, log interfaces.Logger) *Session {
	if log == nil {
		log = interfaces.NopLogger
	}
	if emit == nil {
		emit = func(string, ...interface{}) {}
	}

	store := annotation.NewStore(conv)
	store.SetAll(loaded)
	store.SetBaseline(loaded)

	s := &Session{
		rec:         rec,
		conv:        conv,
		store:       store,
		history:     annotation.NewHistory(loaded, cfg.HistoryLimit),
		view:        NewViewport(conv, canvasW, canvasH, cfg.ZoomMax),
		play:        newPlayback(rec.Duration),
		mode:        idleMode(),
		quickLabels: buildQuickLabels(cfg.Labels),
		emit:        emit,
		log:         log,
	}
	if cfg.DraftDir != "" {
		s.draftPath = DraftPath(cfg.DraftDir, rec.ID)
	}
	s.autosave = NewAutosave(cfg.Autosave, save, s.snapshotForSave, s.commitBaseline, log)
	return s
}

// buildQuickLabels maps the lowercase first letter of each configured
// label to the label, first occurrence wins. The app shell reserves
// some keys for shortcuts ("a" toggles annotation mode) and never
// forwards them here, so those mappings are reachable only through the
// selection menu.
func buildQuickLabels(labels []string) map[string]string {
	m := make(map[string]string, len(labels))
	for _, l := range labels {
		if l == "" {
			continue
		}
		key := strings.ToLower(l[:1])
		if _, taken := m[key]; !taken {
			m[key] = l
		}
	}
	return m
}

// Start launches the autosave timers and the playback cursor loop.
func (s *Session) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.autosave.Start(ctx)
	go s.cursorLoop(ctx)
}

// Close flushes any unsaved state, then stops timers and loops. After
// Close the session must not be used; the recording's annotation
// collection is released.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	// A gesture interrupted by close is cancelled, not committed.
	if s.history.GestureActive() {
		if pre := s.history.CancelGesture(); pre != nil {
			s.store.SetAll(pre)
		}
	}
	dirty := s.store.Dirty()
	s.mu.Unlock()

	if dirty {
		if !s.autosave.FlushSync() {
			s.writeDraft()
			s.log("warn", fmt.Sprintf("Closing recording %d with unsaved changes, draft written", s.rec.ID))
		}
	}
	s.autosave.Stop()
	if s.cancel != nil {
		s.cancel()
	}
}

// Recording returns the open recording's metadata.
func (s *Session) Recording() interfaces.Recording { return s.rec }

// State returns the current render model.
func (s *Session) State() EditorState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() EditorState {
	minX, maxX := s.view.VisibleWorldRange()
	st := EditorState{
		RecordingID:    s.rec.ID,
		Boxes:          s.store.Boxes(),
		Selected:       s.store.Selected(),
		Primary:        s.store.Primary(),
		Mode:           s.mode.kind.String(),
		AnnotationMode: s.annotationMode,
		CanUndo:        s.history.CanUndo(),
		CanRedo:        s.history.CanRedo(),
		Viewport:       s.view.State(),
		Save:           s.autosave.State(s.store.Dirty()),
		Playback:       s.playbackStateLocked(),
		VisibleMinX:    minX,
		VisibleMaxX:    maxX,
	}
	if r := s.mode.previewRect(); r != nil {
		st.DraftRect = r
	}
	return st
}

func (s *Session) playbackStateLocked() PlaybackState {
	cursorWorldX := s.conv.TimeToWorld(s.play.currentTime)
	return PlaybackState{
		Ready:       s.play.ready,
		Playing:     s.play.playing,
		CurrentTime: s.play.currentTime,
		Duration:    s.play.duration,
		Rate:        s.play.rate,
		CursorX:     s.conv.WorldToScreen(geometry.Point{X: cursorWorldX}, s.view.Scroll(), s.view.Zoom()).X,
	}
}

// emitUpdated pushes the full state; call without the lock held.
func (s *Session) emitUpdated() {
	s.emit(EventEditorUpdated, s.State())
}

// --- save plumbing ---

// snapshotForSave is the autosave snapshot callback: a deep copy of the
// live collection plus dirtiness, taken atomically.
func (s *Session) snapshotForSave() ([]interfaces.BoundingBox, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return interfaces.CloneBoxes(s.store.Boxes()), s.store.Dirty()
}

// commitBaseline installs a successfully saved snapshot as the new
// baseline and clears any crash-recovery draft.
func (s *Session) commitBaseline(saved []interfaces.BoundingBox) {
	s.mu.Lock()
	s.store.SetBaseline(saved)
	dirty := s.store.Dirty()
	s.mu.Unlock()

	if s.draftPath != "" {
		if err := RemoveDraft(s.draftPath); err != nil {
			s.log("warn", fmt.Sprintf("Failed to remove draft: %v", err))
		}
	}
	s.emit(EventSaveState, s.autosave.State(dirty))
}

// noteMutationLocked marks a completed mutation: restart the autosave
// debounce. Caller holds the lock and emits state afterwards.
func (s *Session) noteMutationLocked() {
	s.autosave.NoteMutation()
}

// Save runs a manual save. Returns false when there was nothing to save
// or a save is already in flight.
func (s *Session) Save() bool {
	ok := s.autosave.TriggerManual()
	s.mu.Lock()
	dirty := s.store.Dirty()
	s.mu.Unlock()
	s.emit(EventSaveState, s.autosave.State(dirty))
	return ok
}

// FlushBestEffort is the visibility-hidden/unload hook: fire-and-forget
// with no completion guarantee, plus a local draft in case the process
// dies before the request lands.
func (s *Session) FlushBestEffort() {
	s.mu.Lock()
	dirty := s.store.Dirty()
	s.mu.Unlock()
	if !dirty {
		return
	}
	s.writeDraft()
	s.autosave.Flush()
}

func (s *Session) writeDraft() {
	if s.draftPath == "" {
		return
	}
	boxes, _ := s.snapshotForSave()
	if err := WriteDraft(s.draftPath, boxes); err != nil {
		s.log("warn", fmt.Sprintf("Failed to write draft: %v", err))
	}
}

// HasDraft reports whether a crash-recovery draft exists for this
// recording.
func (s *Session) HasDraft() bool {
	return s.draftPath != "" && HasDraft(s.draftPath)
}

// RecoverDraft replaces the collection with the crash-recovery draft,
// recorded as one history entry so it can be undone.
func (s *Session) RecoverDraft() error {
	if s.draftPath == "" {
		return fmt.Errorf("drafts are disabled")
	}
	boxes, err := ReadDraft(s.draftPath)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.store.SetAll(boxes)
	s.history.Record("recover draft", interfaces.CloneBoxes(boxes))
	s.noteMutationLocked()
	s.mu.Unlock()
	s.emitUpdated()
	return nil
}

// DiscardDraft deletes the crash-recovery draft without applying it.
func (s *Session) DiscardDraft() error {
	if s.draftPath == "" {
		return nil
	}
	return RemoveDraft(s.draftPath)
}

// --- history ---

// Undo reverts to the previous history entry. Ignored while a gesture
// is in progress.
func (s *Session) Undo() {
	s.mu.Lock()
	boxes, ok := s.history.Undo()
	if ok {
		s.store.SetAll(boxes)
		s.noteMutationLocked()
	}
	s.mu.Unlock()
	if ok {
		s.emitUpdated()
	}
}

// Redo re-applies the next history entry. Ignored while a gesture is in
// progress.
func (s *Session) Redo() {
	s.mu.Lock()
	boxes, ok := s.history.Redo()
	if ok {
		s.store.SetAll(boxes)
		s.noteMutationLocked()
	}
	s.mu.Unlock()
	if ok {
		s.emitUpdated()
	}
}

// --- selection edits ---

// DeleteSelection removes every selected box as one batch with one
// history entry.
func (s *Session) DeleteSelection() {
	s.mu.Lock()
	indices := s.store.Selected()
	if len(indices) == 0 {
		s.mu.Unlock()
		return
	}
	s.store.RemoveSet(indices)
	s.history.Record("delete", interfaces.CloneBoxes(s.store.Boxes()))
	s.noteMutationLocked()
	s.mu.Unlock()
	s.emitUpdated()
}

// SetLabel relabels every selected box.
func (s *Session) SetLabel(label string) {
	if label == "" {
		return
	}
	s.mu.Lock()
	indices := s.store.Selected()
	if len(indices) == 0 {
		s.mu.Unlock()
		return
	}
	for _, i := range indices {
		if err := s.store.Update(i, annotation.BoxPatch{Label: &label}); err != nil {
			s.log("error", fmt.Sprintf("Failed to relabel box %d: %v", i, err))
		}
	}
	s.history.Record("label", interfaces.CloneBoxes(s.store.Boxes()))
	s.noteMutationLocked()
	s.mu.Unlock()
	s.emitUpdated()
}

// QuickLabel applies the configured label bound to a letter key, if the
// key is bound and a selection is active.
func (s *Session) QuickLabel(key string) {
	s.mu.Lock()
	label, ok := s.quickLabels[strings.ToLower(key)]
	s.mu.Unlock()
	if ok {
		s.SetLabel(label)
	}
}

// SelectAll selects every box.
func (s *Session) SelectAll() {
	s.mu.Lock()
	all := make([]int, s.store.Len())
	for i := range all {
		all[i] = i
	}
	s.store.SelectMany(all)
	s.mu.Unlock()
	s.emitUpdated()
}

// ToggleAnnotationMode flips between seek-on-click and draw-on-drag.
func (s *Session) ToggleAnnotationMode() {
	s.mu.Lock()
	s.annotationMode = !s.annotationMode
	s.mu.Unlock()
	s.emitUpdated()
}

// AnnotationMode reports whether draw mode is active.
func (s *Session) AnnotationMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.annotationMode
}

// --- clipboard ---

// CopySelection returns deep copies of the selected boxes, primary-order
// preserved.
func (s *Session) CopySelection() []interfaces.BoundingBox {
	s.mu.Lock()
	defer s.mu.Unlock()
	indices := s.store.Selected()
	out := make([]interfaces.BoundingBox, 0, len(indices))
	for _, i := range indices {
		box, err := s.store.Box(i)
		if err != nil {
			continue
		}
		out = append(out, box)
	}
	return interfaces.CloneBoxes(out)
}

// CutSelection copies then deletes the selected boxes.
func (s *Session) CutSelection() []interfaces.BoundingBox {
	boxes := s.CopySelection()
	if len(boxes) > 0 {
		s.DeleteSelection()
	}
	return boxes
}

// Paste inserts the boxes translated so their collective centroid lands
// at the last-known pointer position, preserving relative layout. Each
// pasted box gets a fresh ID and re-derived time/frequency.
func (s *Session) Paste(boxes []interfaces.BoundingBox) {
	if len(boxes) == 0 {
		return
	}
	s.mu.Lock()
	target := s.lastPointer

	var cx, cy float64
	for _, b := range boxes {
		cx += b.X + b.Width/2
		cy += b.Y + b.Height/2
	}
	cx /= float64(len(boxes))
	cy /= float64(len(boxes))
	dx, dy := target.X-cx, target.Y-cy

	pasted := make([]int, 0, len(boxes))
	for _, b := range boxes {
		b.ID = annotation.NewBoxID()
		b.X += dx
		b.Y += dy
		idx := s.store.Add(b)
		if err := s.store.Constrain(idx); err != nil {
			s.log("error", fmt.Sprintf("Failed to constrain pasted box: %v", err))
		}
		pasted = append(pasted, idx)
	}
	s.store.SelectMany(pasted)
	s.history.Record("paste", interfaces.CloneBoxes(s.store.Boxes()))
	s.noteMutationLocked()
	s.mu.Unlock()
	s.emitUpdated()
}

// --- viewport ---

// WheelZoom applies a throttled cursor-centered wheel zoom.
func (s *Session) WheelZoom(screenX, deltaY float64) {
	s.mu.Lock()
	applied := s.view.WheelZoom(screenX, deltaY)
	s.mu.Unlock()
	if applied {
		s.emitUpdated()
	}
}

// ZoomIn steps zoom up around the canvas center.
func (s *Session) ZoomIn() {
	s.mu.Lock()
	s.view.ZoomIn()
	s.mu.Unlock()
	s.emitUpdated()
}

// ZoomOut steps zoom down around the canvas center.
func (s *Session) ZoomOut() {
	s.mu.Lock()
	s.view.ZoomOut()
	s.mu.Unlock()
	s.emitUpdated()
}

// ZoomReset returns to the unzoomed view.
func (s *Session) ZoomReset() {
	s.mu.Lock()
	s.view.ZoomReset()
	s.mu.Unlock()
	s.emitUpdated()
}

// SetScroll updates the scroll offset from the frontend scroll
// container.
func (s *Session) SetScroll(offset float64) {
	s.mu.Lock()
	s.view.SetScroll(offset)
	s.mu.Unlock()
	s.emitUpdated()
}

// ResizeCanvas records a canvas size change.
func (s *Session) ResizeCanvas(w, h float64) {
	s.mu.Lock()
	s.view.Resize(w, h)
	s.mu.Unlock()
	s.emitUpdated()
}

// VisibleBoxes returns the indices of boxes intersecting the visible
// world-X window (plus buffer), sorted ascending; the frontend draws
// only these.
func (s *Session) VisibleBoxes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	minX, maxX := s.view.VisibleWorldRange()
	var out []int
	for i, b := range s.store.Boxes() {
		if b.X+b.Width >= minX && b.X <= maxX {
			out = append(out, i)
		}
	}
	sort.Ints(out)
	return out
}

// --- playback ---

// TransportReady is called when the frontend audio element has loaded.
func (s *Session) TransportReady(duration float64) {
	s.mu.Lock()
	s.play.onReady(duration)
	s.mu.Unlock()
	s.emitUpdated()
}

// TransportPlay mirrors the transport's play event.
func (s *Session) TransportPlay() {
	s.mu.Lock()
	s.play.onPlay()
	s.mu.Unlock()
	s.emitUpdated()
}

// TransportPause mirrors the transport's pause event.
func (s *Session) TransportPause() {
	s.mu.Lock()
	s.play.onPause()
	s.mu.Unlock()
	s.emitUpdated()
}

// TransportFinish mirrors the transport's finish event.
func (s *Session) TransportFinish() {
	s.mu.Lock()
	s.play.onFinish()
	s.mu.Unlock()
	s.emitUpdated()
}

// TransportTimeUpdate re-anchors the cursor to the transport's reported
// position.
func (s *Session) TransportTimeUpdate(t float64) {
	s.mu.Lock()
	s.play.onTimeUpdate(t)
	s.mu.Unlock()
}

// SetPlaybackRate changes the transport rate.
func (s *Session) SetPlaybackRate(rate float64) {
	s.mu.Lock()
	s.play.setRate(rate)
	s.mu.Unlock()
	s.emit(EventPlaybackRate, rate)
}

// TogglePlay asks the transport to play or pause depending on its
// current state. The state itself only changes once the transport
// reports back through TransportPlay or TransportPause.
func (s *Session) TogglePlay() {
	s.mu.Lock()
	playing := s.play.playing
	s.mu.Unlock()
	if playing {
		s.emit(EventPlaybackPause)
	} else {
		s.emit(EventPlaybackPlay)
	}
}

// Seek moves the transport to the given fraction of the recording.
func (s *Session) Seek(fraction float64) {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	s.mu.Lock()
	s.play.onTimeUpdate(fraction * s.play.duration)
	s.mu.Unlock()
	s.emit(EventPlaybackSeek, fraction)
	s.emitUpdated()
}

// Scrub nudges the transport by a signed number of seconds; bound to
// held arrow keys.
func (s *Session) Scrub(deltaSeconds float64) {
	s.mu.Lock()
	duration := s.play.duration
	t := clampTime(s.play.currentTime+deltaSeconds, duration)
	s.play.onTimeUpdate(t)
	s.mu.Unlock()
	if duration > 0 {
		s.emit(EventPlaybackSeek, t/duration)
	}
	s.emitUpdated()
}

// PlaySegment seeks to a time range and arms auto-pause at its end;
// bound to double-click on a box.
func (s *Session) PlaySegment(start, end float64) {
	s.mu.Lock()
	s.play.beginSegment(start, end)
	duration := s.play.duration
	s.mu.Unlock()
	if duration > 0 {
		s.emit(EventPlaybackSeek, start/duration)
	}
	s.emit(EventPlaybackPlay)
}

// cursorLoop advances the interpolated playback cursor while audio is
// transporting. It exits when the session is closed so no ticker leaks.
func (s *Session) cursorLoop(ctx context.Context) {
	ticker := time.NewTicker(cursorTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.mu.Lock()
			if !s.play.playing {
				s.mu.Unlock()
				continue
			}
			segmentDone := s.play.advance(now)
			st := s.playbackStateLocked()
			s.view.ScrollWorldIntoView(s.conv.TimeToWorld(st.CurrentTime))
			s.mu.Unlock()

			s.emit(EventPlaybackCursor, st)
			if segmentDone {
				s.emit(EventPlaybackPause)
			}
		}
	}
}
