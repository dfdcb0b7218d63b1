package app

import (
	"wavemark/app/editor"
	"wavemark/app/geometry"
)

// PointerEvent is a raw pointer event forwarded from the frontend
// canvas. Coordinates are canvas-relative screen pixels.
type PointerEvent struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Button int     `json:"button"`
	Shift  bool    `json:"shift"`
	Ctrl   bool    `json:"ctrl"`
	Alt    bool    `json:"alt"`
	Meta   bool    `json:"meta"`
}

func (e PointerEvent) point() geometry.Point {
	return geometry.Point{X: e.X, Y: e.Y}
}

func (e PointerEvent) modifiers() editor.Modifiers {
	return editor.Modifiers{Shift: e.Shift, Ctrl: e.Ctrl, Alt: e.Alt, Meta: e.Meta}
}

// PointerDown forwards a pointerdown event to the open session.
func (a *App) PointerDown(e PointerEvent) {
	if session := a.activeSession(); session != nil {
		session.PointerDown(e.point(), e.Button, e.modifiers())
	}
}

// PointerMove forwards a pointermove event to the open session.
func (a *App) PointerMove(e PointerEvent) {
	if session := a.activeSession(); session != nil {
		session.PointerMove(e.point(), e.modifiers())
	}
}

// PointerUp forwards a pointerup event to the open session.
func (a *App) PointerUp(e PointerEvent) {
	if session := a.activeSession(); session != nil {
		session.PointerUp(e.point(), e.modifiers())
	}
}

// PointerCancel aborts the in-progress gesture, e.g. when the pointer
// capture is lost or the window loses focus mid-drag.
func (a *App) PointerCancel() {
	if session := a.activeSession(); session != nil {
		session.PointerCancel()
	}
}

// DoubleClick forwards a double click; on a box it plays that box's
// time segment.
func (a *App) DoubleClick(e PointerEvent) {
	if session := a.activeSession(); session != nil {
		session.DoubleClick(e.point())
	}
}

// Wheel applies a cursor-anchored zoom from a wheel event. screenX is
// the canvas-relative pointer position, deltaY the wheel delta.
func (a *App) Wheel(screenX, deltaY float64) {
	if session := a.activeSession(); session != nil {
		session.WheelZoom(screenX, deltaY)
	}
}

// ZoomIn zooms one step towards the canvas centre.
func (a *App) ZoomIn() {
	if session := a.activeSession(); session != nil {
		session.ZoomIn()
	}
}

// ZoomOut zooms one step out from the canvas centre.
func (a *App) ZoomOut() {
	if session := a.activeSession(); session != nil {
		session.ZoomOut()
	}
}

// ZoomReset returns to 1x zoom at scroll origin.
func (a *App) ZoomReset() {
	if session := a.activeSession(); session != nil {
		session.ZoomReset()
	}
}

// SetScroll sets the horizontal scroll offset, clamped to content.
func (a *App) SetScroll(offset float64) {
	if session := a.activeSession(); session != nil {
		session.SetScroll(offset)
	}
}

// ResizeCanvas updates the canvas dimensions after a window resize.
func (a *App) ResizeCanvas(width, height float64) {
	if session := a.activeSession(); session != nil {
		session.ResizeCanvas(width, height)
	}
}

// VisibleBoxes returns the indexes of boxes intersecting the current
// viewport, for frontend render culling.
func (a *App) VisibleBoxes() []int {
	if session := a.activeSession(); session != nil {
		return session.VisibleBoxes()
	}
	return nil
}

// ToggleAnnotationMode switches between annotate and navigate pointer
// behaviour.
func (a *App) ToggleAnnotationMode() {
	if session := a.activeSession(); session != nil {
		session.ToggleAnnotationMode()
	}
}

// SetLabel applies a label to the current selection.
func (a *App) SetLabel(label string) {
	if session := a.activeSession(); session != nil {
		session.SetLabel(label)
	}
}
