package app

import (
	"fmt"

	"github.com/ohler55/ojg/oj"
	clipboard "golang.design/x/clipboard"

	"wavemark/app/interfaces"
)

// Maximum clipboard size in bytes (10MB) - helps avoid X11 BadLength errors on Linux
const maxClipboardSize = 10 * 1024 * 1024

// clipboardPayload is the JSON envelope written to the system
// clipboard so annotations can be pasted across recordings or into
// other tools.
type clipboardPayload struct {
	Kind  string                   `json:"kind"`
	Boxes []interfaces.BoundingBox `json:"boxes"`
}

const clipboardKind = "wavemark/annotations"

// safeClipboardWrite attempts to write data to clipboard with panic recovery.
// Returns an error if the write fails or data is too large.
func safeClipboardWrite(format clipboard.Format, data []byte) (err error) {
	if len(data) > maxClipboardSize {
		return fmt.Errorf("data too large for clipboard (%d bytes, max %d bytes). Try selecting fewer annotations",
			len(data), maxClipboardSize)
	}

	// Use defer/recover to catch panics from clipboard operations
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("clipboard write failed: %v", r)
		}
	}()

	clipboard.Write(format, data)
	return nil
}

func safeClipboardRead(format clipboard.Format) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("clipboard read failed: %v", r)
		}
	}()
	return clipboard.Read(format), nil
}

// initClipboard lazily initialises the system clipboard once.
func (a *App) initClipboard() bool {
	a.clipOnce.Do(func() {
		if err := clipboard.Init(); err == nil {
			a.clipOK = true
		} else {
			a.clipOK = false
			a.Log("error", fmt.Sprintf("Clipboard init failed: %v", err))
		}
	})
	return a.clipOK
}

// CopySelection copies the selected annotations to the system
// clipboard as JSON. Returns the number of annotations copied.
func (a *App) CopySelection() int {
	session := a.activeSession()
	if session == nil {
		return 0
	}
	return a.writeBoxes(session.CopySelection())
}

// CutSelection copies the selected annotations to the clipboard and
// deletes them as a single undoable action.
func (a *App) CutSelection() int {
	session := a.activeSession()
	if session == nil {
		return 0
	}
	return a.writeBoxes(session.CutSelection())
}

func (a *App) writeBoxes(boxes []interfaces.BoundingBox) int {
	if len(boxes) == 0 {
		return 0
	}
	if !a.initClipboard() {
		return 0
	}
	payload := clipboardPayload{Kind: clipboardKind, Boxes: boxes}
	data := oj.JSON(&payload, &oj.Options{OmitNil: true})
	if err := safeClipboardWrite(clipboard.FmtText, []byte(data)); err != nil {
		a.Log("error", err.Error())
		return 0
	}
	return len(boxes)
}

// PasteClipboard pastes annotations from the system clipboard at the
// last pointer position. Returns the number pasted.
func (a *App) PasteClipboard() int {
	session := a.activeSession()
	if session == nil || !a.initClipboard() {
		return 0
	}

	data, err := safeClipboardRead(clipboard.FmtText)
	if err != nil {
		a.Log("error", err.Error())
		return 0
	}
	if len(data) == 0 {
		return 0
	}

	var payload clipboardPayload
	if err := oj.Unmarshal(data, &payload); err != nil || payload.Kind != clipboardKind {
		// Clipboard holds something other than annotations; ignore.
		return 0
	}
	if len(payload.Boxes) == 0 {
		return 0
	}

	session.Paste(payload.Boxes)
	return len(payload.Boxes)
}
