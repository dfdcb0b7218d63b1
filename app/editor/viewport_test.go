package editor

import (
	"math"
	"testing"

	"wavemark/app/geometry"
)

func testConverter() geometry.Converter {
	return geometry.Converter{
		ContentWidth:      800,
		SpectrogramHeight: 200,
		AxisGutter:        40,
		Duration:          10,
		Nyquist:           22050,
	}
}

func TestZoomAtKeepsCursorWorldPoint(t *testing.T) {
	conv := testConverter()
	v := NewViewport(conv, 440, 300, DefaultZoomMax)

	// Put world X 400 under screen X 300 first.
	v.SetScroll(400*v.Zoom() - (300 - conv.AxisGutter))
	before := conv.ScreenToWorld(geometry.Point{X: 300}, v.Scroll(), v.Zoom())

	v.ZoomAt(300, 3)

	after := conv.ScreenToWorld(geometry.Point{X: 300}, v.Scroll(), v.Zoom())
	if math.Abs(after.X-before.X) > 0.5 {
		t.Errorf("world X under cursor moved: before=%f after=%f", before.X, after.X)
	}
	if v.Zoom() != 3 {
		t.Errorf("zoom = %f, want 3", v.Zoom())
	}
}

func TestZoomClampedToRange(t *testing.T) {
	v := NewViewport(testConverter(), 840, 300, 8)

	v.ZoomAt(100, 0.25)
	if v.Zoom() != 1 {
		t.Errorf("zoom below floor not clamped: %f", v.Zoom())
	}
	v.ZoomAt(100, 64)
	if v.Zoom() != 8 {
		t.Errorf("zoom above max not clamped: %f", v.Zoom())
	}
}

func TestScrollClampedToContent(t *testing.T) {
	v := NewViewport(testConverter(), 840, 300, 8)

	// At zoom 1 the content fits the canvas; no scroll possible.
	v.SetScroll(500)
	if v.Scroll() != 0 {
		t.Errorf("scroll at zoom 1 = %f, want 0", v.Scroll())
	}

	v.ZoomAt(0, 2)
	v.SetScroll(1e9)
	max := 800*2.0 - (840 - 40)
	if v.Scroll() != max {
		t.Errorf("scroll = %f, want clamped to %f", v.Scroll(), max)
	}
	v.SetScroll(-50)
	if v.Scroll() != 0 {
		t.Errorf("negative scroll not clamped: %f", v.Scroll())
	}
}

func TestStepZoomAnchorsContentCenter(t *testing.T) {
	conv := testConverter()
	// Canvas 840 with a 40px gutter leaves exactly the 800px content
	// visible; the content midpoint (world 400) sits at screen 440.
	v := NewViewport(conv, 840, 300, 8)

	v.ZoomIn()
	after := conv.ScreenToWorld(geometry.Point{X: 440}, v.Scroll(), v.Zoom())
	if math.Abs(after.X-400) > 0.5 {
		t.Errorf("step zoom moved the content midpoint: world under center = %f, want 400", after.X)
	}

	v.ZoomOut()
	restored := conv.ScreenToWorld(geometry.Point{X: 440}, v.Scroll(), v.Zoom())
	if math.Abs(restored.X-400) > 0.5 {
		t.Errorf("zoom out moved the content midpoint: world under center = %f, want 400", restored.X)
	}
}

func TestZoomResetReturnsToOrigin(t *testing.T) {
	v := NewViewport(testConverter(), 840, 300, 8)
	v.ZoomAt(400, 4)
	v.SetScroll(600)

	v.ZoomReset()

	if v.Zoom() != 1 || v.Scroll() != 0 {
		t.Errorf("reset left zoom=%f scroll=%f", v.Zoom(), v.Scroll())
	}
}

func TestVisibleWorldRange(t *testing.T) {
	v := NewViewport(testConverter(), 840, 300, 8)

	minX, maxX := v.VisibleWorldRange()
	if minX != 0 {
		t.Errorf("minX = %f, want 0 at left edge", minX)
	}
	if maxX != 800 {
		t.Errorf("maxX = %f, want clamped to content width", maxX)
	}

	v.ZoomAt(0, 4)
	v.SetScroll(1200)
	minX, maxX = v.VisibleWorldRange()
	wantMin := 1200/4.0 - cullBuffer
	wantMax := (1200 + 840 - 40) / 4.0
	if math.Abs(minX-wantMin) > 1e-9 {
		t.Errorf("minX = %f, want %f", minX, wantMin)
	}
	if math.Abs(maxX-(wantMax+cullBuffer)) > 1e-9 {
		t.Errorf("maxX = %f, want %f", maxX, wantMax+cullBuffer)
	}
}

func TestWheelZoomThrottled(t *testing.T) {
	v := NewViewport(testConverter(), 840, 300, 8)

	if !v.WheelZoom(300, -120) {
		t.Fatal("first wheel event should apply")
	}
	if v.WheelZoom(300, -120) {
		t.Error("second wheel event inside the throttle window should be dropped")
	}
}

func TestResizeReclampsScroll(t *testing.T) {
	v := NewViewport(testConverter(), 440, 300, 8)
	v.ZoomAt(0, 2)
	v.SetScroll(1000)

	// A wider canvas shrinks the scrollable range.
	v.Resize(1640, 300)
	if v.Scroll() != 0 {
		t.Errorf("scroll = %f, want 0 when content fits the canvas", v.Scroll())
	}
}
