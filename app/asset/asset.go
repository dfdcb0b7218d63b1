// Package asset fetches and caches the binary assets of a recording:
// the audio blob and the rendered spectrogram image.
package asset

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/disintegration/imaging"

	"wavemark/app/cache"
	"wavemark/app/interfaces"
)

// overviewHeight is the pixel height of the downsampled overview strip
// rendered above the timeline.
const overviewHeight = 48

// Fetcher is the API surface the manager needs; satisfied by the api
// client.
type Fetcher interface {
	GetAudioBlob(ctx context.Context, recordingID int) ([]byte, error)
	GetSpectrogramBlob(ctx context.Context, recordingID int) ([]byte, error)
}

// SpectrogramImage is a decoded spectrogram with its dimensions and a
// low-resolution overview strip for the timeline.
type SpectrogramImage struct {
	PNG      []byte `json:"png"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Overview []byte `json:"overview"`
}

// Manager resolves recording assets through the cache, the API, and as
// a last resort for audio, a local file search.
type Manager struct {
	client      Fetcher
	cache       *cache.Cache
	searchPaths []string
	log         interfaces.Logger
}

// NewManager creates an asset manager. searchPaths are directories
// searched recursively for a local copy of a recording's audio file
// when the API blob is unavailable.
func NewManager(client Fetcher, c *cache.Cache, searchPaths []string, log interfaces.Logger) *Manager {
	if log == nil {
		log = interfaces.NopLogger
	}
	return &Manager{client: client, cache: c, searchPaths: searchPaths, log: log}
}

// Audio returns the recording's audio bytes: cache, then API, then a
// local file matching the recording's filename under the configured
// search paths.
func (m *Manager) Audio(ctx context.Context, rec interfaces.Recording) ([]byte, error) {
	key := cache.Key("audio", rec.ID)
	if blob, ok := m.cache.Get(key); ok {
		return blob.Data, nil
	}

	data, apiErr := m.client.GetAudioBlob(ctx, rec.ID)
	if apiErr != nil {
		m.log("warn", fmt.Sprintf("Audio fetch failed for recording %d, trying local files: %v", rec.ID, apiErr))
		path, locErr := m.LocateLocalAudio(rec.Filename)
		if locErr != nil {
			return nil, fmt.Errorf("audio unavailable for recording %d: %w", rec.ID, apiErr)
		}
		data, locErr = os.ReadFile(path)
		if locErr != nil {
			return nil, fmt.Errorf("failed to read local audio %s: %w", path, locErr)
		}
		m.log("info", fmt.Sprintf("Using local audio file %s for recording %d", path, rec.ID))
	}

	m.cache.Put(key, cache.Blob{Data: data, ContentType: "audio/wav", FetchedAt: time.Now()})
	return data, nil
}

// Spectrogram returns the recording's spectrogram image with its
// dimensions and overview strip. The raw PNG is cached; decode and
// overview are recomputed on a cache hit, which is cheap next to the
// fetch.
func (m *Manager) Spectrogram(ctx context.Context, recordingID int) (*SpectrogramImage, error) {
	key := cache.Key("spectrogram", recordingID)
	data, ok := blobData(m.cache, key)
	if !ok {
		var err error
		data, err = m.client.GetSpectrogramBlob(ctx, recordingID)
		if err != nil {
			return nil, err
		}
		m.cache.Put(key, cache.Blob{Data: data, ContentType: "image/png", FetchedAt: time.Now()})
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode spectrogram image: %w", err)
	}
	bounds := img.Bounds()

	overview, err := buildOverview(img)
	if err != nil {
		m.log("warn", fmt.Sprintf("Failed to build spectrogram overview: %v", err))
	}

	return &SpectrogramImage{
		PNG:      data,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Overview: overview,
	}, nil
}

// buildOverview downsamples the spectrogram to a short strip, keeping
// full width so time positions line up with the main view.
func buildOverview(img image.Image) ([]byte, error) {
	strip := imaging.Resize(img, img.Bounds().Dx(), overviewHeight, imaging.Box)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, strip, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode overview strip: %w", err)
	}
	return buf.Bytes(), nil
}

// LocateLocalAudio searches the configured paths recursively for a file
// with the recording's filename.
func (m *Manager) LocateLocalAudio(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("recording has no filename")
	}
	base := filepath.Base(filename)
	for _, root := range m.searchPaths {
		pattern := filepath.Join(root, "**", base)
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			m.log("warn", fmt.Sprintf("Bad audio search pattern %q: %v", pattern, err))
			continue
		}
		if len(matches) > 0 {
			return matches[0], nil
		}
	}
	return "", fmt.Errorf("no local copy of %s found", base)
}

// Evict drops a recording's assets from the cache, forcing a refetch;
// used by the retry action after a failed or replaced spectrogram.
func (m *Manager) Evict(recordingID int) {
	m.cache.Remove(cache.Key("audio", recordingID))
	m.cache.Remove(cache.Key("spectrogram", recordingID))
}

func blobData(c *cache.Cache, key string) ([]byte, bool) {
	blob, ok := c.Get(key)
	if !ok {
		return nil, false
	}
	return blob.Data, true
}
