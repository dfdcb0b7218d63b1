package interfaces

// BoundingBox is one annotated acoustic event. The pixel rectangle (world
// coordinates, zoom-independent) and the time/frequency bounds are two
// representations of the same region and are kept in sync by the geometry
// converter whenever either side is edited.
type BoundingBox struct {
	ID     string  `json:"id,omitempty"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	StartTime    float64 `json:"start_time"`
	EndTime      float64 `json:"end_time"`
	MinFrequency float64 `json:"min_frequency"`
	MaxFrequency float64 `json:"max_frequency"`

	Label string `json:"label"`

	// Confidence and Metadata are preserved for machine-generated
	// annotations so a load/save round-trip is lossless.
	Confidence float64           `json:"confidence,omitempty"`
	Metadata   map[string]string `json:"extra_metadata,omitempty"`
}

// DefaultLabel is assigned to boxes created by a draw gesture until the
// user relabels them.
const DefaultLabel = "None"

// Equals reports structural equality of the annotation payload. Used for
// dirty detection against the last-saved baseline, so it must cover every
// persisted field.
func (b BoundingBox) Equals(o BoundingBox) bool {
	if b.ID != o.ID || b.X != o.X || b.Y != o.Y || b.Width != o.Width || b.Height != o.Height {
		return false
	}
	if b.StartTime != o.StartTime || b.EndTime != o.EndTime {
		return false
	}
	if b.MinFrequency != o.MinFrequency || b.MaxFrequency != o.MaxFrequency {
		return false
	}
	if b.Label != o.Label || b.Confidence != o.Confidence {
		return false
	}
	if len(b.Metadata) != len(o.Metadata) {
		return false
	}
	for k, v := range b.Metadata {
		if ov, ok := o.Metadata[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// BoxesEqual reports structural equality of two annotation collections in
// order. Order matters: boxes are addressed by index in the editor.
func BoxesEqual(a, b []BoundingBox) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equals(b[i]) {
			return false
		}
	}
	return true
}

// CloneBoxes returns a deep copy of the collection. History snapshots and
// save payloads must never alias the live slice.
func CloneBoxes(boxes []BoundingBox) []BoundingBox {
	if boxes == nil {
		return nil
	}
	out := make([]BoundingBox, len(boxes))
	copy(out, boxes)
	for i := range out {
		if boxes[i].Metadata != nil {
			m := make(map[string]string, len(boxes[i].Metadata))
			for k, v := range boxes[i].Metadata {
				m[k] = v
			}
			out[i].Metadata = m
		}
	}
	return out
}

// Recording describes the audio file currently open in the editor, as
// reported by the backend API.
type Recording struct {
	ID         int     `json:"id"`
	Filename   string  `json:"filename"`
	Duration   float64 `json:"duration"`    // seconds
	SampleRate int     `json:"sample_rate"` // Hz
}

// Nyquist returns half the sample rate, the top of the spectrogram's
// frequency axis.
func (r Recording) Nyquist() float64 {
	return float64(r.SampleRate) / 2
}

// SpectrogramState is the lifecycle of the asynchronous spectrogram
// generation job.
type SpectrogramState string

const (
	SpectrogramNotStarted SpectrogramState = "not_started"
	SpectrogramPending    SpectrogramState = "pending"
	SpectrogramProcessing SpectrogramState = "processing"
	SpectrogramCompleted  SpectrogramState = "completed"
	SpectrogramFailed     SpectrogramState = "failed"
	SpectrogramTimeout    SpectrogramState = "timeout"
)

// Terminal reports whether polling should stop at this state.
func (s SpectrogramState) Terminal() bool {
	switch s {
	case SpectrogramCompleted, SpectrogramFailed, SpectrogramTimeout:
		return true
	}
	return false
}

// SpectrogramStatus is the poll response for one recording's spectrogram
// job, mirrored to the frontend as-is.
type SpectrogramStatus struct {
	Status         SpectrogramState `json:"status"`
	RecordingID    int              `json:"recording_id"`
	Available      bool             `json:"available"`
	ErrorMessage   string           `json:"error_message,omitempty"`
	ProcessingTime float64          `json:"processing_time,omitempty"`
	Width          int              `json:"width,omitempty"`
	Height         int              `json:"height,omitempty"`
}

// SaveState is the persistence status surfaced in the editor chrome.
type SaveState struct {
	HasUnsavedChanges bool   `json:"hasUnsavedChanges"`
	IsSaving          bool   `json:"isSaving"`
	IsAutoSaving      bool   `json:"isAutoSaving"`
	LastSaveTime      int64  `json:"lastSaveTime,omitempty"` // unix millis, 0 if never saved
	LastError         string `json:"lastError,omitempty"`
}

// ViewportState is the zoom/scroll state of the spectrogram view. Not
// persisted; reset when the open recording changes.
type ViewportState struct {
	ZoomLevel    float64 `json:"zoomLevel"`
	ScrollOffset float64 `json:"scrollOffset"`
	CanvasWidth  float64 `json:"canvasWidth"`
	CanvasHeight float64 `json:"canvasHeight"`
}

// Logger is the logging hook injected into subsystems. Levels follow the
// wails runtime: debug, info, warn, error.
type Logger func(level, message string)

// NopLogger discards everything; used in tests.
func NopLogger(level, message string) {}
