// Package geometry provides the pure coordinate conversions between the
// three spaces the editor works in: screen pixels (what the pointer
// reports, a function of zoom and scroll), world pixels (the canonical
// zoom-independent space boxes are stored in), and the domain space of
// time-seconds by frequency-Hz.
package geometry

import "math"

// Point is a position in world or screen space depending on context.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle. Width and Height are non-negative
// once committed; normalization happens in the annotation store.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether p lies inside the rectangle (inclusive edges).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Converter holds the fixed canvas parameters of the open recording and
// performs stateless conversions. Zoom and scroll are passed per call
// because they change continuously; the rest is fixed per recording.
type Converter struct {
	// ContentWidth is the unzoomed width of the drawable content in
	// world pixels, excluding the frequency-axis gutter.
	ContentWidth float64
	// SpectrogramHeight is the height of the spectrogram sub-region in
	// world pixels. The waveform/timeline strip below it is not a valid
	// target for boxes.
	SpectrogramHeight float64
	// AxisGutter is the fixed width of the frequency-axis gutter on the
	// left edge, in screen pixels. It does not scale with zoom.
	AxisGutter float64
	// Duration is the recording length in seconds.
	Duration float64
	// Nyquist is half the sample rate in Hz, the top of the frequency
	// axis.
	Nyquist float64
}

// ScreenToWorld maps a screen position to world space under the given
// scroll offset and zoom level. Zoom is horizontal only: Y passes through
// unscaled. Both axes are clamped so noisy pointer input can never
// produce an out-of-bounds world point.
func (c Converter) ScreenToWorld(screen Point, scrollOffset, zoomLevel float64) Point {
	if zoomLevel <= 0 {
		zoomLevel = 1
	}
	wx := (screen.X - c.AxisGutter + scrollOffset) / zoomLevel
	wy := screen.Y
	return Point{
		X: clamp(wx, 0, c.ContentWidth),
		Y: clamp(wy, 0, c.SpectrogramHeight),
	}
}

// WorldToScreen is the inverse of ScreenToWorld without clamping; callers
// use it to place already-valid world geometry on screen.
func (c Converter) WorldToScreen(world Point, scrollOffset, zoomLevel float64) Point {
	return Point{
		X: world.X*zoomLevel - scrollOffset + c.AxisGutter,
		Y: world.Y,
	}
}

// WorldToTime converts a world X coordinate to seconds.
func (c Converter) WorldToTime(worldX float64) float64 {
	if c.ContentWidth <= 0 {
		return 0
	}
	return (worldX / c.ContentWidth) * c.Duration
}

// TimeToWorld converts seconds to a world X coordinate.
func (c Converter) TimeToWorld(t float64) float64 {
	if c.Duration <= 0 {
		return 0
	}
	return (t / c.Duration) * c.ContentWidth
}

// WorldToFrequency converts a world Y coordinate to Hz. The axis is
// inverted: higher frequencies render nearer the top of the spectrogram.
func (c Converter) WorldToFrequency(worldY float64) float64 {
	if c.SpectrogramHeight <= 0 {
		return 0
	}
	return c.Nyquist * (1 - worldY/c.SpectrogramHeight)
}

// FrequencyToWorld converts Hz to a world Y coordinate.
func (c Converter) FrequencyToWorld(f float64) float64 {
	if c.Nyquist <= 0 {
		return 0
	}
	return (1 - f/c.Nyquist) * c.SpectrogramHeight
}

// SeekFraction maps an absolute (unscrolled) screen X position to a
// [0,1] transport fraction. Because the input is the absolute position
// within the zoomed content, the result is invariant under scrolling.
func (c Converter) SeekFraction(absoluteScreenX, effectiveWidth, zoomLevel float64) float64 {
	if effectiveWidth <= 0 || zoomLevel <= 0 {
		return 0
	}
	return clamp(absoluteScreenX/(effectiveWidth*zoomLevel), 0, 1)
}

// DeriveTimeFrequency fills in the time/frequency representation of a
// world rectangle. Every edit to the pixel side of a box must pass
// through here so the two representations never drift.
func (c Converter) DeriveTimeFrequency(r Rect) (startTime, endTime, minFreq, maxFreq float64) {
	startTime = c.WorldToTime(r.X)
	endTime = c.WorldToTime(r.X + r.Width)
	// Top edge of the rect is the higher frequency.
	maxFreq = c.WorldToFrequency(r.Y)
	minFreq = c.WorldToFrequency(r.Y + r.Height)
	return
}

// ClampRect restricts a rectangle to the valid world region, preserving
// its size where possible. Used after every drag/resize step so a box can
// never escape the canvas even transiently.
func (c Converter) ClampRect(r Rect) Rect {
	if r.Width > c.ContentWidth {
		r.Width = c.ContentWidth
	}
	if r.Height > c.SpectrogramHeight {
		r.Height = c.SpectrogramHeight
	}
	r.X = clamp(r.X, 0, c.ContentWidth-r.Width)
	r.Y = clamp(r.Y, 0, c.SpectrogramHeight-r.Height)
	return r
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
