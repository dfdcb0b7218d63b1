// Package api is the HTTP client for the annotation backend: annotation
// load/save, audio and spectrogram blobs, and spectrogram job status.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"wavemark/app/interfaces"
)

// TokenStore supplies and persists the API token pair. The settings
// service implements it; tests use an in-memory fake.
type TokenStore interface {
	Tokens() (access, refresh string)
	SaveTokens(access, refresh string) error
}

// Client talks to the annotation backend. Safe for concurrent use; token
// refresh is single-flight.
type Client struct {
	baseURL string
	client  *http.Client
	tokens  TokenStore
	log     interfaces.Logger

	refresh refreshGate
}

// NewClient creates a client for the given base URL, e.g.
// "http://localhost:8000/api/v1".
func NewClient(baseURL string, tokens TokenStore, log interfaces.Logger) *Client {
	if log == nil {
		log = interfaces.NopLogger
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		tokens:  tokens,
		log:     log,
	}
}

// GetRecording fetches recording metadata (duration, sample rate).
func (c *Client) GetRecording(ctx context.Context, recordingID int) (*interfaces.Recording, error) {
	var rec interfaces.Recording
	if err := c.getJSON(ctx, fmt.Sprintf("%s/recordings/%d", c.baseURL, recordingID), &rec); err != nil {
		return nil, fmt.Errorf("failed to fetch recording %d: %w", recordingID, err)
	}
	return &rec, nil
}

// GetAnnotations fetches the annotation entries for a recording and
// returns the bounding boxes of the latest entry. Multiple entries can
// exist (historical saves); the newest one wins.
func (c *Client) GetAnnotations(ctx context.Context, recordingID int) ([]interfaces.BoundingBox, error) {
	var entries []AnnotationEntry
	url := fmt.Sprintf("%s/annotations/?recording_id=%d", c.baseURL, recordingID)
	if err := c.getJSON(ctx, url, &entries); err != nil {
		return nil, fmt.Errorf("failed to fetch annotations for recording %d: %w", recordingID, err)
	}
	if len(entries) == 0 {
		return nil, nil
	}
	latest := entries[0]
	for _, e := range entries[1:] {
		if e.ID > latest.ID {
			latest = e
		}
	}
	return latest.BoundingBoxes, nil
}

// SaveAnnotations persists the full box collection for a recording.
func (c *Client) SaveAnnotations(ctx context.Context, recordingID int, boxes []interfaces.BoundingBox) error {
	payload := SaveAnnotationsRequest{RecordingID: recordingID, BoundingBoxes: boxes}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal annotations: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/annotations/", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.doRequestWithAuth(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return c.apiError(resp)
	}
	return nil
}

// GetAudioBlob fetches the raw audio bytes for a recording.
func (c *Client) GetAudioBlob(ctx context.Context, recordingID int) ([]byte, error) {
	data, err := c.getBytes(ctx, fmt.Sprintf("%s/recordings/%d/audio", c.baseURL, recordingID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audio for recording %d: %w", recordingID, err)
	}
	return data, nil
}

// GetSpectrogramStatus fetches the generation job status for a recording.
func (c *Client) GetSpectrogramStatus(ctx context.Context, recordingID int) (*interfaces.SpectrogramStatus, error) {
	var status interfaces.SpectrogramStatus
	url := fmt.Sprintf("%s/recordings/%d/spectrogram/status", c.baseURL, recordingID)
	if err := c.getJSON(ctx, url, &status); err != nil {
		return nil, fmt.Errorf("failed to fetch spectrogram status for recording %d: %w", recordingID, err)
	}
	return &status, nil
}

// GetSpectrogramBlob fetches the rendered spectrogram image bytes. The
// backend answers 202 while the job is still running; that is surfaced
// as an error so the caller keeps polling status instead.
func (c *Client) GetSpectrogramBlob(ctx context.Context, recordingID int) ([]byte, error) {
	data, err := c.getBytes(ctx, fmt.Sprintf("%s/recordings/%d/spectrogram", c.baseURL, recordingID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch spectrogram for recording %d: %w", recordingID, err)
	}
	return data, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.doRequestWithAuth(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return c.apiErrorBody(resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func (c *Client) getBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.doRequestWithAuth(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.apiErrorBody(resp.StatusCode, body)
	}
	return body, nil
}

func (c *Client) apiError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return c.apiErrorBody(resp.StatusCode, body)
}

func (c *Client) apiErrorBody(status int, body []byte) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Detail != "" {
		return fmt.Errorf("request failed with status %d: %s", status, errResp.Detail)
	}
	return fmt.Errorf("request failed with status %d: %s", status, string(body))
}
