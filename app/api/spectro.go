package api

import (
	"context"
	"fmt"
	"time"

	"wavemark/app/interfaces"
)

const (
	// DefaultPollInterval is the gap between spectrogram status polls.
	DefaultPollInterval = 2 * time.Second
	// DefaultMaxPollAttempts bounds a polling run; hitting it yields a
	// synthetic timeout status so the UI never spins forever.
	DefaultMaxPollAttempts = 150
	// maxConsecutivePollErrors aborts a run when the backend is
	// persistently unreachable.
	maxConsecutivePollErrors = 5
)

// StatusPoller polls the spectrogram generation status for one recording
// until the job reaches a terminal state. Each update is delivered
// through the OnStatus callback; the final status is also returned.
type StatusPoller struct {
	client      *Client
	recordingID int

	Interval    time.Duration
	MaxAttempts int

	// OnStatus is invoked after every successful poll, including the
	// terminal one. Optional.
	OnStatus func(interfaces.SpectrogramStatus)
}

// NewStatusPoller creates a poller with default interval and attempt cap.
func NewStatusPoller(client *Client, recordingID int) *StatusPoller {
	return &StatusPoller{
		client:      client,
		recordingID: recordingID,
		Interval:    DefaultPollInterval,
		MaxAttempts: DefaultMaxPollAttempts,
	}
}

// Run polls until the job reaches a terminal state, the attempt budget is
// spent, or ctx is cancelled. The first poll happens immediately.
func (p *StatusPoller) Run(ctx context.Context) (*interfaces.SpectrogramStatus, error) {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	errStreak := 0
	for attempt := 1; ; attempt++ {
		status, err := p.client.GetSpectrogramStatus(ctx, p.recordingID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			errStreak++
			p.client.log("warn", fmt.Sprintf("Spectrogram status poll failed (attempt %d): %v", attempt, err))
			if errStreak >= maxConsecutivePollErrors {
				return nil, fmt.Errorf("spectrogram status polling aborted after %d consecutive errors: %w", errStreak, err)
			}
		} else {
			errStreak = 0
			if p.OnStatus != nil {
				p.OnStatus(*status)
			}
			if status.Status.Terminal() {
				return status, nil
			}
		}

		if attempt >= p.MaxAttempts {
			timedOut := &interfaces.SpectrogramStatus{
				Status:       interfaces.SpectrogramTimeout,
				RecordingID:  p.recordingID,
				ErrorMessage: fmt.Sprintf("spectrogram generation did not finish within %d polls", p.MaxAttempts),
			}
			if p.OnStatus != nil {
				p.OnStatus(*timedOut)
			}
			return timedOut, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
