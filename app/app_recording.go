package app

import (
	"context"
	"fmt"

	"wavemark/app/api"
	"wavemark/app/editor"
	"wavemark/app/geometry"
	"wavemark/app/interfaces"
)

// axisGutterWidth is the frequency-axis gutter on the left edge of the
// canvas, in screen pixels. Must match the frontend layout.
const axisGutterWidth = 40.0

// RecordingView is everything the frontend needs to render a freshly
// opened recording.
type RecordingView struct {
	Recording   interfaces.Recording `json:"recording"`
	Spectrogram SpectrogramView      `json:"spectrogram"`
	Editor      editor.EditorState   `json:"editor"`
	HasDraft    bool                 `json:"hasDraft"`
}

// SpectrogramView carries the spectrogram image and overview strip.
// Byte slices cross the Wails bridge as base64 strings.
type SpectrogramView struct {
	PNG      []byte `json:"png"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Overview []byte `json:"overview"`
}

// OpenRecording loads a recording and its annotations and replaces the
// current session. Any open session is flushed and closed first. The
// canvas dimensions come from the frontend's measured editor area.
func (a *App) OpenRecording(recordingID int, canvasWidth, canvasHeight float64) (*RecordingView, error) {
	a.CloseRecording()

	rec, err := a.client.GetRecording(a.ctx, recordingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recording %d: %w", recordingID, err)
	}

	status, err := a.waitForSpectrogram(recordingID)
	if err != nil {
		return nil, err
	}
	if status.Status != interfaces.SpectrogramCompleted {
		return nil, fmt.Errorf("spectrogram not available for recording %d: %s", recordingID, status.Status)
	}

	img, err := a.assets.Spectrogram(a.ctx, recordingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load spectrogram for recording %d: %w", recordingID, err)
	}

	boxes, err := a.client.GetAnnotations(a.ctx, recordingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load annotations for recording %d: %w", recordingID, err)
	}

	conv := geometry.Converter{
		ContentWidth:      float64(img.Width),
		SpectrogramHeight: float64(img.Height),
		AxisGutter:        axisGutterWidth,
		Duration:          rec.Duration,
		Nyquist:           rec.Nyquist(),
	}

	save := func(ctx context.Context, toSave []interfaces.BoundingBox) error {
		return a.client.SaveAnnotations(ctx, recordingID, toSave)
	}

	session := editor.NewSession(*rec, conv, canvasWidth, canvasHeight, boxes, save,
		a.settingsService.SessionConfig(), a.emit, a.Log)
	session.Start(a.ctx)

	a.sessionMu.Lock()
	a.session = session
	a.sessionMu.Unlock()

	a.Log("info", fmt.Sprintf("Opened recording %d (%s)", rec.ID, rec.Filename))

	return &RecordingView{
		Recording: *rec,
		Spectrogram: SpectrogramView{
			PNG:      img.PNG,
			Width:    img.Width,
			Height:   img.Height,
			Overview: img.Overview,
		},
		Editor:   session.State(),
		HasDraft: session.HasDraft(),
	}, nil
}

// CloseRecording flushes and closes the current session, if any.
func (a *App) CloseRecording() {
	a.stopSpectrogramPoll()

	a.sessionMu.Lock()
	session := a.session
	a.session = nil
	a.sessionMu.Unlock()

	if session != nil {
		session.Close()
	}
}

// waitForSpectrogram polls the backend until the spectrogram run
// reaches a terminal state, emitting progress events along the way.
func (a *App) waitForSpectrogram(recordingID int) (*interfaces.SpectrogramStatus, error) {
	ctx, cancel := context.WithCancel(a.ctx)
	a.pollMu.Lock()
	a.pollCancel = cancel
	a.pollMu.Unlock()
	defer a.stopSpectrogramPoll()

	poller := api.NewStatusPoller(a.client, recordingID)
	poller.OnStatus = func(status interfaces.SpectrogramStatus) {
		a.emit("spectrogram:status", status)
	}
	return poller.Run(ctx)
}

func (a *App) stopSpectrogramPoll() {
	a.pollMu.Lock()
	if a.pollCancel != nil {
		a.pollCancel()
		a.pollCancel = nil
	}
	a.pollMu.Unlock()
}

// RetrySpectrogram drops cached spectrogram bytes and reloads the
// image after a failed or regenerated run.
func (a *App) RetrySpectrogram(recordingID int) (*SpectrogramView, error) {
	a.assets.Evict(recordingID)

	status, err := a.waitForSpectrogram(recordingID)
	if err != nil {
		return nil, err
	}
	if status.Status != interfaces.SpectrogramCompleted {
		return nil, fmt.Errorf("spectrogram not available for recording %d: %s", recordingID, status.Status)
	}

	img, err := a.assets.Spectrogram(a.ctx, recordingID)
	if err != nil {
		return nil, err
	}
	return &SpectrogramView{PNG: img.PNG, Width: img.Width, Height: img.Height, Overview: img.Overview}, nil
}

// GetAudioData returns the recording's audio bytes for the frontend
// player, falling back to a local file search when the API blob is
// unavailable.
func (a *App) GetAudioData(recordingID int) ([]byte, error) {
	session := a.activeSession()
	rec := interfaces.Recording{ID: recordingID}
	if session != nil && session.Recording().ID == recordingID {
		rec = session.Recording()
	}
	return a.assets.Audio(a.ctx, rec)
}

// LocateLocalAudio reports the local path that would be used for a
// recording's audio, for display in the asset inspector.
func (a *App) LocateLocalAudio(filename string) (string, error) {
	return a.assets.LocateLocalAudio(filename)
}

// GetEditorState returns the current editor state, or nil when no
// recording is open.
func (a *App) GetEditorState() *editor.EditorState {
	session := a.activeSession()
	if session == nil {
		return nil
	}
	state := session.State()
	return &state
}

// SaveAnnotations triggers a manual save of the open session. Returns
// false when there was nothing to save.
func (a *App) SaveAnnotations() bool {
	session := a.activeSession()
	if session == nil {
		return false
	}
	return session.Save()
}

// HasDraft reports whether an unsent draft exists for the open
// recording.
func (a *App) HasDraft() bool {
	session := a.activeSession()
	return session != nil && session.HasDraft()
}

// RecoverDraft restores the open recording's annotations from the
// local draft written during a failed exit save.
func (a *App) RecoverDraft() error {
	session := a.activeSession()
	if session == nil {
		return fmt.Errorf("no recording open")
	}
	return session.RecoverDraft()
}

// DiscardDraft deletes the open recording's local draft.
func (a *App) DiscardDraft() error {
	session := a.activeSession()
	if session == nil {
		return fmt.Errorf("no recording open")
	}
	return session.DiscardDraft()
}
