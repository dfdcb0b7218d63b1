package editor

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"wavemark/app/geometry"
	"wavemark/app/interfaces"
)

// newDraftSession builds a session with drafts enabled and a
// controllable save func.
func newDraftSession(t *testing.T, loaded []interfaces.BoundingBox, save SaveFunc) (*Session, *eventLog) {
	t.Helper()
	conv := geometry.Converter{
		ContentWidth:      800,
		SpectrogramHeight: 200,
		Duration:          10,
		Nyquist:           22050,
	}
	events := newEventLog()
	cfg := SessionConfig{
		ZoomMax:  8,
		Labels:   []string{"Sparrow", "None"},
		DraftDir: t.TempDir(),
		Autosave: AutosaveConfig{
			Enabled:     false,
			MaxRetries:  1,
			BackoffBase: time.Millisecond,
		},
	}
	rec := interfaces.Recording{ID: 42, Filename: "rec42.wav", Duration: 10, SampleRate: 44100}
	s := NewSession(rec, conv, 800, 300, loaded, save, cfg, events.emit, nil)
	return s, events
}

func TestCloseWritesDraftWhenSaveFails(t *testing.T) {
	save := func(ctx context.Context, boxes []interfaces.BoundingBox) error {
		return fmt.Errorf("backend down")
	}
	s, _ := newDraftSession(t, nil, save)
	s.Start(context.Background())

	s.ToggleAnnotationMode()
	s.PointerDown(geometry.Point{X: 100, Y: 50}, buttonPrimary, Modifiers{})
	s.PointerUp(geometry.Point{X: 200, Y: 100}, Modifiers{})

	draftPath := s.draftPath
	s.Close()

	if !HasDraft(draftPath) {
		t.Fatal("expected a draft after close with failing save")
	}
	boxes, err := ReadDraft(draftPath)
	if err != nil {
		t.Fatalf("draft did not read back: %v", err)
	}
	if len(boxes) != 1 {
		t.Errorf("expected 1 box in draft, got %d", len(boxes))
	}
}

func TestCloseFlushesInsteadOfDraftWhenSaveWorks(t *testing.T) {
	var saves atomic.Int32
	save := func(ctx context.Context, boxes []interfaces.BoundingBox) error {
		saves.Add(1)
		return nil
	}
	s, _ := newDraftSession(t, nil, save)
	s.Start(context.Background())

	s.ToggleAnnotationMode()
	s.PointerDown(geometry.Point{X: 100, Y: 50}, buttonPrimary, Modifiers{})
	s.PointerUp(geometry.Point{X: 200, Y: 100}, Modifiers{})

	draftPath := s.draftPath
	s.Close()

	if saves.Load() != 1 {
		t.Errorf("expected exactly 1 save on close, got %d", saves.Load())
	}
	if HasDraft(draftPath) {
		t.Error("no draft should remain after a successful close save")
	}
}

func TestCloseCancelsOpenGesture(t *testing.T) {
	save := func(ctx context.Context, boxes []interfaces.BoundingBox) error {
		t.Error("clean session must not save on close")
		return nil
	}
	s, _ := newDraftSession(t, []interfaces.BoundingBox{worldBox(100, 50, 100, 50)}, save)
	s.Start(context.Background())

	// Start dragging the box but never release.
	s.PointerDown(geometry.Point{X: 150, Y: 75}, buttonPrimary, Modifiers{})
	s.PointerMove(geometry.Point{X: 400, Y: 75}, Modifiers{})

	s.Close()
	if HasDraft(s.draftPath) {
		t.Error("cancelled gesture must not leave a dirty draft")
	}
}

func TestRecoverDraftIsUndoable(t *testing.T) {
	save := func(ctx context.Context, boxes []interfaces.BoundingBox) error { return nil }
	s, _ := newDraftSession(t, nil, save)

	drafted := []interfaces.BoundingBox{worldBox(160, 40, 80, 60)}
	if err := WriteDraft(s.draftPath, drafted); err != nil {
		t.Fatal(err)
	}
	if !s.HasDraft() {
		t.Fatal("draft not visible through session")
	}

	if err := s.RecoverDraft(); err != nil {
		t.Fatalf("RecoverDraft failed: %v", err)
	}
	st := s.State()
	if len(st.Boxes) != 1 || st.Boxes[0].X != 160 {
		t.Fatalf("draft not applied: %+v", st.Boxes)
	}
	if !st.CanUndo {
		t.Fatal("recovery should be a history entry")
	}

	s.Undo()
	if len(s.State().Boxes) != 0 {
		t.Error("undo should revert the recovered draft")
	}
}

func TestDiscardDraftLeavesCollection(t *testing.T) {
	save := func(ctx context.Context, boxes []interfaces.BoundingBox) error { return nil }
	loaded := []interfaces.BoundingBox{worldBox(100, 50, 100, 50)}
	s, _ := newDraftSession(t, loaded, save)

	if err := WriteDraft(s.draftPath, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.DiscardDraft(); err != nil {
		t.Fatalf("DiscardDraft failed: %v", err)
	}
	if s.HasDraft() {
		t.Error("draft should be gone")
	}
	if len(s.State().Boxes) != 1 {
		t.Error("discard must not touch the live collection")
	}
}

func TestFlushBestEffortWritesDraftAndSavesOnce(t *testing.T) {
	saved := make(chan int, 1)
	release := make(chan struct{})
	save := func(ctx context.Context, boxes []interfaces.BoundingBox) error {
		saved <- len(boxes)
		<-release
		return nil
	}
	s, _ := newDraftSession(t, nil, save)
	s.Start(context.Background())

	s.ToggleAnnotationMode()
	s.PointerDown(geometry.Point{X: 100, Y: 50}, buttonPrimary, Modifiers{})
	s.PointerUp(geometry.Point{X: 200, Y: 100}, Modifiers{})

	s.FlushBestEffort()

	select {
	case n := <-saved:
		if n != 1 {
			t.Errorf("save payload had %d boxes, want 1", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("best-effort save never fired")
	}
	// The save is still blocked, so the draft written before the
	// fire-and-forget attempt must still be on disk.
	if !HasDraft(s.draftPath) {
		t.Error("hidden-visibility flush must write a draft before saving")
	}
	close(release)
	s.Close()
}

func TestFlushBestEffortCleanSessionIsNoOp(t *testing.T) {
	save := func(ctx context.Context, boxes []interfaces.BoundingBox) error {
		t.Error("clean session must not save on a visibility flush")
		return nil
	}
	s, _ := newDraftSession(t, []interfaces.BoundingBox{worldBox(100, 50, 100, 50)}, save)
	s.Start(context.Background())

	s.FlushBestEffort()
	if HasDraft(s.draftPath) {
		t.Error("clean session must not write a draft")
	}
	s.Close()
}

func TestTogglePlayRequestsTransport(t *testing.T) {
	s, events := newTestSession(nil)
	s.TransportReady(10)

	s.TogglePlay()
	if !events.saw(EventPlaybackPlay) {
		t.Fatal("expected a play request while paused")
	}

	// Transport obeys and reports back; next toggle asks for pause.
	s.TransportPlay()
	s.TogglePlay()
	if !events.saw(EventPlaybackPause) {
		t.Fatal("expected a pause request while playing")
	}
}

func TestSaveEmitsSaveState(t *testing.T) {
	save := func(ctx context.Context, boxes []interfaces.BoundingBox) error { return nil }
	s, events := newDraftSession(t, nil, save)
	s.Start(context.Background())
	defer s.Close()

	s.ToggleAnnotationMode()
	s.PointerDown(geometry.Point{X: 100, Y: 50}, buttonPrimary, Modifiers{})
	s.PointerUp(geometry.Point{X: 200, Y: 100}, Modifiers{})

	if !s.Save() {
		t.Fatal("Save should report work for a dirty session")
	}
	if !events.saw(EventSaveState) {
		t.Error("manual save should emit save state")
	}
}
