package app

import (
	"context"
	"testing"

	"wavemark/app/editor"
	"wavemark/app/geometry"
	"wavemark/app/interfaces"
)

func newKeyTestApp(t *testing.T) *App {
	t.Helper()
	conv := geometry.Converter{
		ContentWidth:      800,
		SpectrogramHeight: 200,
		Duration:          10,
		Nyquist:           22050,
	}
	rec := interfaces.Recording{ID: 1, Filename: "a.wav", Duration: 10, SampleRate: 44100}
	save := func(ctx context.Context, boxes []interfaces.BoundingBox) error { return nil }
	cfg := editor.SessionConfig{ZoomMax: 8, Labels: []string{"Sparrow", "None"}}

	a := &App{}
	a.session = editor.NewSession(rec, conv, 800, 300, nil, save, cfg, nil, nil)
	return a
}

func TestHandleKeyIgnoresEditableTargets(t *testing.T) {
	a := newKeyTestApp(t)
	if a.HandleKey(KeyEvent{Key: "Delete", EditableTarget: true}) {
		t.Error("shortcuts must not fire while a text input has focus")
	}
}

func TestHandleKeyWithoutSession(t *testing.T) {
	a := &App{}
	if a.HandleKey(KeyEvent{Key: " "}) {
		t.Error("no session, nothing to consume")
	}
}

func TestHandleKeyAnnotationModeToggle(t *testing.T) {
	a := newKeyTestApp(t)
	if !a.HandleKey(KeyEvent{Key: "a"}) {
		t.Fatal("plain A should be consumed")
	}
	if state := a.GetEditorState(); state == nil || !state.AnnotationMode {
		t.Error("plain A should toggle annotation mode on")
	}
}

func TestHandleKeyZoomShortcuts(t *testing.T) {
	a := newKeyTestApp(t)
	if !a.HandleKey(KeyEvent{Key: "=", Ctrl: true}) {
		t.Fatal("Ctrl+= should be consumed")
	}
	state := a.GetEditorState()
	if state == nil || state.Viewport.ZoomLevel <= 1 {
		t.Fatalf("zoom should have increased, got %+v", state)
	}

	a.HandleKey(KeyEvent{Key: "0", Ctrl: true})
	if state := a.GetEditorState(); state.Viewport.ZoomLevel != 1 {
		t.Errorf("Ctrl+0 should reset zoom, got %f", state.Viewport.ZoomLevel)
	}
}

func TestHandleKeyUndoRedo(t *testing.T) {
	a := newKeyTestApp(t)
	a.session.ToggleAnnotationMode()
	a.session.PointerDown(geometry.Point{X: 100, Y: 50}, 0, editor.Modifiers{})
	a.session.PointerUp(geometry.Point{X: 200, Y: 100}, editor.Modifiers{})
	if len(a.GetEditorState().Boxes) != 1 {
		t.Fatal("setup: expected one drawn box")
	}

	a.HandleKey(KeyEvent{Key: "z", Ctrl: true})
	if len(a.GetEditorState().Boxes) != 0 {
		t.Fatal("Ctrl+Z should undo the draw")
	}
	a.HandleKey(KeyEvent{Key: "z", Ctrl: true, Shift: true})
	if len(a.GetEditorState().Boxes) != 1 {
		t.Fatal("Ctrl+Shift+Z should redo the draw")
	}
	a.HandleKey(KeyEvent{Key: "z", Ctrl: true})
	a.HandleKey(KeyEvent{Key: "y", Ctrl: true})
	if len(a.GetEditorState().Boxes) != 1 {
		t.Fatal("Ctrl+Y should also redo")
	}
}

func TestHandleKeyDeleteSelection(t *testing.T) {
	a := newKeyTestApp(t)
	a.session.ToggleAnnotationMode()
	a.session.PointerDown(geometry.Point{X: 100, Y: 50}, 0, editor.Modifiers{})
	a.session.PointerUp(geometry.Point{X: 200, Y: 100}, editor.Modifiers{})

	if !a.HandleKey(KeyEvent{Key: "Delete"}) {
		t.Fatal("Delete should be consumed")
	}
	if len(a.GetEditorState().Boxes) != 0 {
		t.Error("Delete should remove the selected box")
	}
}

func TestHandleKeyAnnotationToggleShadowsALabels(t *testing.T) {
	conv := geometry.Converter{
		ContentWidth:      800,
		SpectrogramHeight: 200,
		Duration:          10,
		Nyquist:           22050,
	}
	rec := interfaces.Recording{ID: 1, Filename: "a.wav", Duration: 10, SampleRate: 44100}
	save := func(ctx context.Context, boxes []interfaces.BoundingBox) error { return nil }
	cfg := editor.SessionConfig{ZoomMax: 8, Labels: []string{"Albatross", "None"}}

	a := &App{}
	a.session = editor.NewSession(rec, conv, 800, 300, nil, save, cfg, nil, nil)

	a.session.ToggleAnnotationMode()
	a.session.PointerDown(geometry.Point{X: 100, Y: 50}, 0, editor.Modifiers{})
	a.session.PointerUp(geometry.Point{X: 200, Y: 100}, editor.Modifiers{})

	// "a" belongs to the mode toggle even when a label starts with it;
	// the selected box keeps its default label.
	a.HandleKey(KeyEvent{Key: "a"})
	st := a.GetEditorState()
	if st.AnnotationMode {
		t.Error("a should have toggled annotation mode back off")
	}
	if got := st.Boxes[0].Label; got != "None" {
		t.Errorf("a must not quick-apply a label, box got %q", got)
	}
}

func TestHandleKeyQuickLabel(t *testing.T) {
	a := newKeyTestApp(t)
	a.session.ToggleAnnotationMode()
	a.session.PointerDown(geometry.Point{X: 100, Y: 50}, 0, editor.Modifiers{})
	a.session.PointerUp(geometry.Point{X: 200, Y: 100}, editor.Modifiers{})

	a.HandleKey(KeyEvent{Key: "s"})
	if got := a.GetEditorState().Boxes[0].Label; got != "Sparrow" {
		t.Errorf("quick label s should apply Sparrow, got %q", got)
	}
}
