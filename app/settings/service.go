package settings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"wavemark/app/editor"
)

// SettingsService manages reading/writing settings from disk. It also
// implements the API client's token store, persisting the token pair in
// the settings file.
type SettingsService struct {
	ctx          context.Context
	cacheManager CacheManager

	// tokenMu serializes token reads against the refresh flow's writes.
	tokenMu sync.Mutex
}

func NewSettingsService() *SettingsService {
	return &SettingsService{}
}

// SetCacheManager allows the main function to inject the cache manager
func (s *SettingsService) SetCacheManager(cm CacheManager) {
	s.cacheManager = cm
}

// Startup receives the Wails context
func (s *SettingsService) Startup(ctx context.Context) {
	s.ctx = ctx
}

// GetSettings returns the effective settings (defaults overlaid with file overrides if any).
func (s *SettingsService) GetSettings() (Settings, error) {
	settings := defaultSettings
	path, err := settingsFilePath()
	if err != nil {
		return settings, err
	}
	// If file doesn't exist, return defaults
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return settings, err
	}
	// Unmarshal into a generic map to detect key presence
	var m map[string]any
	if err := yaml.Unmarshal(b, &m); err != nil {
		return settings, err
	}
	overlay(&settings, m)
	return settings, nil
}

// SaveSettings saves only the values that differ from defaults into YAML in the binary directory.
func (s *SettingsService) SaveSettings(in Settings) error {
	old := GetEffectiveSettings()
	cacheSizeChanged := old.CacheSizeLimitMB != in.CacheSizeLimitMB

	// Build a minimal map containing only non-default values to avoid zero-value serialization pitfalls
	data := make(map[string]any)
	if strings.TrimSpace(in.ServerURL) != defaultSettings.ServerURL && strings.TrimSpace(in.ServerURL) != "" {
		data["server_url"] = strings.TrimSpace(in.ServerURL)
	}
	if in.AutosaveEnabled != defaultSettings.AutosaveEnabled {
		data["autosave_enabled"] = in.AutosaveEnabled
	}
	if in.AutosaveDebounceSeconds != defaultSettings.AutosaveDebounceSeconds && in.AutosaveDebounceSeconds >= 0 {
		data["autosave_debounce_seconds"] = in.AutosaveDebounceSeconds
	}
	if in.AutosaveIntervalSeconds != defaultSettings.AutosaveIntervalSeconds && in.AutosaveIntervalSeconds >= 0 {
		data["autosave_interval_seconds"] = in.AutosaveIntervalSeconds
	}
	if in.SaveMaxRetries != defaultSettings.SaveMaxRetries && in.SaveMaxRetries >= 1 {
		data["save_max_retries"] = in.SaveMaxRetries
	}
	if in.ZoomMax != defaultSettings.ZoomMax && in.ZoomMax >= 1 {
		data["zoom_max"] = in.ZoomMax
	}
	if in.HistoryLimit != defaultSettings.HistoryLimit && in.HistoryLimit >= 2 {
		data["history_limit"] = in.HistoryLimit
	}
	if len(in.Labels) > 0 && !stringSlicesEqual(in.Labels, defaultSettings.Labels) {
		data["labels"] = in.Labels
	}
	if len(in.AudioSearchPaths) > 0 {
		data["audio_search_paths"] = in.AudioSearchPaths
	}
	if in.CacheSizeLimitMB != defaultSettings.CacheSizeLimitMB {
		data["cache_size_limit_mb"] = in.CacheSizeLimitMB
	}

	// Preserve tokens from file (not visible in settings dialog, but must persist).
	// Use incoming tokens if provided, otherwise use the existing ones from old settings
	accessToken := strings.TrimSpace(in.AccessToken)
	if accessToken == "" {
		accessToken = strings.TrimSpace(old.AccessToken)
	}
	if accessToken != "" {
		data["access_token"] = accessToken
	}
	refreshToken := strings.TrimSpace(in.RefreshToken)
	if refreshToken == "" {
		refreshToken = strings.TrimSpace(old.RefreshToken)
	}
	if refreshToken != "" {
		data["refresh_token"] = refreshToken
	}

	// Preserve instance ID (not visible in settings dialog, but must persist)
	instanceID := strings.TrimSpace(in.InstanceID)
	if instanceID == "" {
		instanceID = strings.TrimSpace(old.InstanceID)
	}
	if instanceID != "" {
		data["instance_id"] = instanceID
	}

	// Preserve window size (not visible in settings dialog, but must persist)
	windowWidth := in.WindowWidth
	if windowWidth == 0 {
		windowWidth = old.WindowWidth
	}
	if windowWidth != defaultSettings.WindowWidth && windowWidth >= 400 {
		data["window_width"] = windowWidth
	}
	windowHeight := in.WindowHeight
	if windowHeight == 0 {
		windowHeight = old.WindowHeight
	}
	if windowHeight != defaultSettings.WindowHeight && windowHeight >= 300 {
		data["window_height"] = windowHeight
	}

	if err := s.writeSettingsFile(data); err != nil {
		return err
	}

	// Update cache size if cache size setting changed
	if cacheSizeChanged && s.cacheManager != nil {
		s.cacheManager.UpdateCacheSize()
	}

	return nil
}

func (s *SettingsService) writeSettingsFile(data map[string]any) error {
	path, err := settingsFilePath()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		// If there is an existing file, remove it to reflect defaults-only state
		if _, statErr := os.Stat(path); statErr == nil {
			_ = os.Remove(path)
		}
		return nil
	}
	b, err := yaml.Marshal(data)
	if err != nil {
		return err
	}
	// Ensure parent directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// Tokens returns the persisted API token pair. Implements the API
// client's TokenStore.
func (s *SettingsService) Tokens() (access, refresh string) {
	s.tokenMu.Lock()
	defer s.tokenMu.Unlock()
	settings := GetEffectiveSettings()
	return settings.AccessToken, settings.RefreshToken
}

// SaveTokens persists a refreshed token pair. Implements the API
// client's TokenStore.
func (s *SettingsService) SaveTokens(access, refresh string) error {
	s.tokenMu.Lock()
	defer s.tokenMu.Unlock()
	settings, err := s.GetSettings()
	if err != nil {
		return err
	}
	settings.AccessToken = access
	settings.RefreshToken = refresh
	return s.SaveSettings(settings)
}

// ClearTokens removes the API token pair from the settings file (logout).
func (s *SettingsService) ClearTokens() error {
	s.tokenMu.Lock()
	defer s.tokenMu.Unlock()
	settings, err := s.GetSettings()
	if err != nil {
		return err
	}
	settings.AccessToken = ""
	settings.RefreshToken = ""

	// SaveSettings preserves existing tokens on empty input, so rebuild
	// the file without them here.
	data := make(map[string]any)
	if strings.TrimSpace(settings.ServerURL) != defaultSettings.ServerURL && strings.TrimSpace(settings.ServerURL) != "" {
		data["server_url"] = strings.TrimSpace(settings.ServerURL)
	}
	if settings.AutosaveEnabled != defaultSettings.AutosaveEnabled {
		data["autosave_enabled"] = settings.AutosaveEnabled
	}
	if settings.AutosaveDebounceSeconds != defaultSettings.AutosaveDebounceSeconds {
		data["autosave_debounce_seconds"] = settings.AutosaveDebounceSeconds
	}
	if settings.AutosaveIntervalSeconds != defaultSettings.AutosaveIntervalSeconds {
		data["autosave_interval_seconds"] = settings.AutosaveIntervalSeconds
	}
	if settings.SaveMaxRetries != defaultSettings.SaveMaxRetries {
		data["save_max_retries"] = settings.SaveMaxRetries
	}
	if settings.ZoomMax != defaultSettings.ZoomMax {
		data["zoom_max"] = settings.ZoomMax
	}
	if settings.HistoryLimit != defaultSettings.HistoryLimit {
		data["history_limit"] = settings.HistoryLimit
	}
	if len(settings.Labels) > 0 && !stringSlicesEqual(settings.Labels, defaultSettings.Labels) {
		data["labels"] = settings.Labels
	}
	if len(settings.AudioSearchPaths) > 0 {
		data["audio_search_paths"] = settings.AudioSearchPaths
	}
	if settings.CacheSizeLimitMB != defaultSettings.CacheSizeLimitMB {
		data["cache_size_limit_mb"] = settings.CacheSizeLimitMB
	}
	// Preserve instance ID (must not be cleared during logout)
	if instanceID := strings.TrimSpace(settings.InstanceID); instanceID != "" {
		data["instance_id"] = instanceID
	}
	if settings.WindowWidth != defaultSettings.WindowWidth && settings.WindowWidth >= 400 {
		data["window_width"] = settings.WindowWidth
	}
	if settings.WindowHeight != defaultSettings.WindowHeight && settings.WindowHeight >= 300 {
		data["window_height"] = settings.WindowHeight
	}
	// Note: Intentionally NOT adding tokens - this clears them

	return s.writeSettingsFile(data)
}

// EnsureInstanceID generates and saves a unique instance ID if one doesn't exist
func (s *SettingsService) EnsureInstanceID() error {
	settings, err := s.GetSettings()
	if err != nil {
		return err
	}
	if strings.TrimSpace(settings.InstanceID) != "" {
		return nil
	}
	settings.InstanceID = uuid.New().String()
	return s.SaveSettings(settings)
}

// SessionConfig derives the per-recording editor configuration from the
// effective settings.
func (s *SettingsService) SessionConfig() editor.SessionConfig {
	settings := GetEffectiveSettings()
	draftDir, err := DataDir()
	if err != nil {
		draftDir = ""
	}
	return editor.SessionConfig{
		ZoomMax:      settings.ZoomMax,
		HistoryLimit: settings.HistoryLimit,
		Labels:       settings.Labels,
		DraftDir:     draftDir,
		Autosave: editor.AutosaveConfig{
			Enabled:     settings.AutosaveEnabled,
			Debounce:    time.Duration(settings.AutosaveDebounceSeconds) * time.Second,
			Interval:    time.Duration(settings.AutosaveIntervalSeconds) * time.Second,
			MaxRetries:  settings.SaveMaxRetries,
			BackoffBase: time.Second,
		},
	}
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
