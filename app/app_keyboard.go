package app

import (
	"strings"
)

// scrubStepSeconds is the seek distance for one arrow key press; with
// Shift held, the finer step is used.
const (
	scrubStepSeconds     = 1.0
	scrubFineStepSeconds = 0.1
)

// KeyEvent is a raw keydown forwarded from the frontend. Key follows
// the DOM KeyboardEvent.key convention ("a", "Delete", "ArrowLeft",
// " "). EditableTarget is true when a text input had focus, in which
// case shortcuts must not fire.
type KeyEvent struct {
	Key            string `json:"key"`
	Shift          bool   `json:"shift"`
	Ctrl           bool   `json:"ctrl"`
	Alt            bool   `json:"alt"`
	Meta           bool   `json:"meta"`
	EditableTarget bool   `json:"editableTarget"`
}

// primary reports whether the platform primary modifier is held
// (Ctrl, or Cmd on macOS).
func (e KeyEvent) primary() bool {
	return e.Ctrl || e.Meta
}

// HandleKey dispatches a keyboard shortcut to the open session.
// Returns true when the key was consumed, so the frontend can
// preventDefault.
func (a *App) HandleKey(e KeyEvent) bool {
	session := a.activeSession()
	if session == nil || e.EditableTarget {
		return false
	}

	if e.primary() {
		switch strings.ToLower(e.Key) {
		case "z":
			if e.Shift {
				session.Redo()
			} else {
				session.Undo()
			}
			return true
		case "y":
			session.Redo()
			return true
		case "s":
			session.Save()
			return true
		case "a":
			session.SelectAll()
			return true
		case "c":
			a.CopySelection()
			return true
		case "x":
			a.CutSelection()
			return true
		case "v":
			a.PasteClipboard()
			return true
		case "=", "+":
			session.ZoomIn()
			return true
		case "-":
			session.ZoomOut()
			return true
		case "0":
			session.ZoomReset()
			return true
		}
		return false
	}

	switch e.Key {
	case " ":
		session.TogglePlay()
		return true
	case "ArrowLeft":
		session.Scrub(-scrubStep(e.Shift))
		return true
	case "ArrowRight":
		session.Scrub(scrubStep(e.Shift))
		return true
	case "Delete", "Backspace":
		session.DeleteSelection()
		return true
	case "Escape":
		session.PointerCancel()
		return true
	case "a", "A":
		// "a" always toggles annotation mode; a label starting with
		// "a" can only be applied via the selection menu.
		session.ToggleAnnotationMode()
		return true
	}

	// Other letters map to quick labels (first letter of a configured
	// label, case-insensitive); no-op without a selection.
	if len(e.Key) == 1 && !e.Alt {
		session.QuickLabel(strings.ToLower(e.Key))
		return true
	}
	return false
}

func scrubStep(fine bool) float64 {
	if fine {
		return scrubFineStepSeconds
	}
	return scrubStepSeconds
}
