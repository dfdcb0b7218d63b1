package editor

import (
	"math"
	"time"

	"wavemark/app/geometry"
	"wavemark/app/interfaces"
)

const (
	// DefaultZoomMax caps horizontal zoom; overridable from settings.
	DefaultZoomMax = 16.0
	// wheelThrottle drops wheel-zoom events arriving faster than one
	// render frame so the render loop is never saturated.
	wheelThrottle = 16 * time.Millisecond
	// wheelZoomBase is the zoom factor applied per 120-unit wheel notch.
	wheelZoomBase = 1.25
	// zoomStepFactor is the factor applied by the zoom in/out shortcuts.
	zoomStepFactor = 1.5
	// cullBuffer expands the visible world-X window so boxes just off
	// screen are still drawn during fast scrolls.
	cullBuffer = 100.0
)

// Viewport owns zoom level and scroll offset for the spectrogram view.
// Zoom is horizontal-only: world Y never scales. Not safe for concurrent
// use on its own; the owning session serializes access.
type Viewport struct {
	conv    geometry.Converter
	zoom    float64
	scroll  float64
	canvasW float64
	canvasH float64
	zoomMax float64

	lastWheel time.Time
}

// NewViewport creates a viewport at zoom 1, scroll 0.
func NewViewport(conv geometry.Converter, canvasW, canvasH, zoomMax float64) *Viewport {
	if zoomMax < 1 {
		zoomMax = DefaultZoomMax
	}
	return &Viewport{
		conv:    conv,
		zoom:    1,
		canvasW: canvasW,
		canvasH: canvasH,
		zoomMax: zoomMax,
	}
}

// Zoom returns the current zoom level.
func (v *Viewport) Zoom() float64 { return v.zoom }

// Scroll returns the current scroll offset in screen pixels.
func (v *Viewport) Scroll() float64 { return v.scroll }

// State returns the viewport state for the frontend.
func (v *Viewport) State() interfaces.ViewportState {
	return interfaces.ViewportState{
		ZoomLevel:    v.zoom,
		ScrollOffset: v.scroll,
		CanvasWidth:  v.canvasW,
		CanvasHeight: v.canvasH,
	}
}

// Resize records a new canvas size and re-clamps the scroll offset.
func (v *Viewport) Resize(w, h float64) {
	v.canvasW = w
	v.canvasH = h
	v.scroll = clampScroll(v.scroll, v.maxScroll())
}

// ZoomAt sets the zoom level while keeping the world point under the
// given screen X fixed on screen. This is what makes wheel zoom feel
// anchored to the cursor instead of the left edge.
func (v *Viewport) ZoomAt(screenX, newZoom float64) {
	newZoom = clampZoom(newZoom, v.zoomMax)
	if newZoom == v.zoom {
		return
	}
	world := v.conv.ScreenToWorld(geometry.Point{X: screenX}, v.scroll, v.zoom)
	v.zoom = newZoom
	// Solve screenX = worldX*zoom - scroll + gutter for the new scroll.
	v.scroll = clampScroll(world.X*v.zoom-(screenX-v.conv.AxisGutter), v.maxScroll())
}

// WheelZoom applies a wheel delta as cursor-centered zoom. Events inside
// the throttle window are dropped; returns whether the event was applied.
func (v *Viewport) WheelZoom(screenX, deltaY float64) bool {
	now := time.Now()
	if now.Sub(v.lastWheel) < wheelThrottle {
		return false
	}
	v.lastWheel = now
	factor := math.Pow(wheelZoomBase, -deltaY/120)
	v.ZoomAt(screenX, v.zoom*factor)
	return true
}

// ZoomIn steps zoom up, centered on the midpoint of the content area
// (the canvas minus the axis gutter).
func (v *Viewport) ZoomIn() {
	v.ZoomAt(v.contentCenter(), v.zoom*zoomStepFactor)
}

// ZoomOut steps zoom down, centered on the midpoint of the content
// area.
func (v *Viewport) ZoomOut() {
	v.ZoomAt(v.contentCenter(), v.zoom/zoomStepFactor)
}

func (v *Viewport) contentCenter() float64 {
	return v.conv.AxisGutter + (v.canvasW-v.conv.AxisGutter)/2
}

// ZoomReset returns to zoom 1 at the start of the recording.
func (v *Viewport) ZoomReset() {
	v.zoom = 1
	v.scroll = 0
}

// SetScroll sets the scroll offset, clamped to the scrollable range.
func (v *Viewport) SetScroll(offset float64) {
	v.scroll = clampScroll(offset, v.maxScroll())
}

// ScrollBy shifts the scroll offset by a delta in screen pixels.
func (v *Viewport) ScrollBy(delta float64) {
	v.SetScroll(v.scroll + delta)
}

// ScrollWorldIntoView scrolls the minimum amount needed to bring the
// given world X on screen; used to keep the playback cursor visible.
func (v *Viewport) ScrollWorldIntoView(worldX float64) {
	screenX := v.conv.WorldToScreen(geometry.Point{X: worldX}, v.scroll, v.zoom).X
	if screenX < v.conv.AxisGutter {
		v.SetScroll(worldX * v.zoom)
	} else if screenX > v.canvasW {
		v.SetScroll(worldX*v.zoom - (v.canvasW - v.conv.AxisGutter))
	}
}

// VisibleWorldRange returns the world-X window currently on screen,
// expanded by the culling buffer. Boxes outside it need not be drawn.
func (v *Viewport) VisibleWorldRange() (minX, maxX float64) {
	minX = v.scroll/v.zoom - cullBuffer
	maxX = (v.scroll+v.canvasW-v.conv.AxisGutter)/v.zoom + cullBuffer
	if minX < 0 {
		minX = 0
	}
	if maxX > v.conv.ContentWidth {
		maxX = v.conv.ContentWidth
	}
	return minX, maxX
}

// maxScroll is the largest valid scroll offset at the current zoom.
func (v *Viewport) maxScroll() float64 {
	max := v.conv.ContentWidth*v.zoom - (v.canvasW - v.conv.AxisGutter)
	if max < 0 {
		return 0
	}
	return max
}

func clampZoom(z, max float64) float64 {
	if z < 1 {
		return 1
	}
	if z > max {
		return max
	}
	return z
}

func clampScroll(s, max float64) float64 {
	if s < 0 {
		return 0
	}
	if s > max {
		return max
	}
	return s
}
