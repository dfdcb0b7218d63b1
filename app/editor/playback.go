package editor

import "time"

// cursorTick is how often the displayed playback cursor advances between
// transport time updates.
const cursorTick = 33 * time.Millisecond

// Playback mirrors the frontend audio transport and interpolates the
// cursor position between its time updates. The transport itself (decode,
// output) lives in the frontend; this side owns the authoritative cursor
// shown over the spectrogram. Serialized by the owning session.
type Playback struct {
	ready       bool
	playing     bool
	currentTime float64
	duration    float64
	rate        float64
	// segmentEnd is the auto-pause bound set by double-click segment
	// playback; negative when no segment is active.
	segmentEnd float64
	lastTick   time.Time
}

func newPlayback(duration float64) Playback {
	return Playback{
		duration:   duration,
		rate:       1,
		segmentEnd: -1,
	}
}

// PlaybackState is the transport view sent to the frontend.
type PlaybackState struct {
	Ready       bool    `json:"ready"`
	Playing     bool    `json:"playing"`
	CurrentTime float64 `json:"currentTime"`
	Duration    float64 `json:"duration"`
	Rate        float64 `json:"rate"`
	// CursorX is the screen X of the playback cursor line under the
	// current viewport, recomputed on every tick and viewport change.
	CursorX float64 `json:"cursorX"`
}

func (p *Playback) onReady(duration float64) {
	p.ready = true
	if duration > 0 {
		p.duration = duration
	}
}

func (p *Playback) onPlay() {
	p.playing = true
	p.lastTick = time.Now()
}

func (p *Playback) onPause() {
	p.playing = false
	p.segmentEnd = -1
}

func (p *Playback) onFinish() {
	p.playing = false
	p.segmentEnd = -1
	p.currentTime = p.duration
}

// onTimeUpdate re-anchors the interpolated cursor to the transport's
// reported position, correcting any drift from local interpolation.
func (p *Playback) onTimeUpdate(t float64) {
	p.currentTime = clampTime(t, p.duration)
	p.lastTick = time.Now()
}

func (p *Playback) setRate(rate float64) {
	if rate > 0 {
		p.rate = rate
	}
}

// advance moves the interpolated cursor forward by the wall time elapsed
// since the last tick. Returns true when the cursor crossed the active
// segment end, meaning the transport should be paused.
func (p *Playback) advance(now time.Time) bool {
	if !p.playing {
		return false
	}
	elapsed := now.Sub(p.lastTick).Seconds()
	p.lastTick = now
	p.currentTime = clampTime(p.currentTime+elapsed*p.rate, p.duration)

	if p.segmentEnd >= 0 && p.currentTime >= p.segmentEnd {
		p.currentTime = p.segmentEnd
		p.playing = false
		p.segmentEnd = -1
		return true
	}
	return false
}

// beginSegment arms auto-pause at end; the caller issues the seek/play.
func (p *Playback) beginSegment(start, end float64) {
	p.currentTime = clampTime(start, p.duration)
	p.segmentEnd = clampTime(end, p.duration)
}

func clampTime(t, duration float64) float64 {
	if t < 0 {
		return 0
	}
	if duration > 0 && t > duration {
		return duration
	}
	return t
}
