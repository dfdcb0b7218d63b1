package settings

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GetEffectiveSettings returns the effective settings (defaults overlaid with file overrides if any).
// If anything goes wrong, it returns defaults.
func GetEffectiveSettings() Settings {
	settings := defaultSettings
	path, err := settingsFilePath()
	if err != nil {
		return settings
	}
	if _, err := os.Stat(path); err != nil {
		// no file or other stat error -> return defaults
		return settings
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return settings
	}
	var m map[string]any
	if err := yaml.Unmarshal(b, &m); err != nil {
		return settings
	}
	overlay(&settings, m)
	return settings
}

// overlay applies file overrides onto settings. A generic map is used to
// detect key presence, so an explicit false/zero override is honored.
func overlay(settings *Settings, m map[string]any) {
	if v, ok := m["server_url"]; ok {
		if vs, oks := v.(string); oks && vs != "" {
			settings.ServerURL = vs
		}
	}
	if v, ok := m["autosave_enabled"]; ok {
		if vb, okb := v.(bool); okb {
			settings.AutosaveEnabled = vb
		}
	}
	if v, ok := m["autosave_debounce_seconds"]; ok {
		if vi, oki := v.(int); oki && vi >= 0 {
			settings.AutosaveDebounceSeconds = vi
		}
	}
	if v, ok := m["autosave_interval_seconds"]; ok {
		if vi, oki := v.(int); oki && vi >= 0 {
			settings.AutosaveIntervalSeconds = vi
		}
	}
	if v, ok := m["save_max_retries"]; ok {
		if vi, oki := v.(int); oki && vi >= 1 {
			settings.SaveMaxRetries = vi
		}
	}
	if v, ok := m["zoom_max"]; ok {
		switch vv := v.(type) {
		case float64:
			if vv >= 1 {
				settings.ZoomMax = vv
			}
		case int:
			if vv >= 1 {
				settings.ZoomMax = float64(vv)
			}
		}
	}
	if v, ok := m["history_limit"]; ok {
		if vi, oki := v.(int); oki && vi >= 2 {
			settings.HistoryLimit = vi
		}
	}
	if v, ok := m["labels"]; ok {
		if labels := stringSlice(v); len(labels) > 0 {
			settings.Labels = labels
		}
	}
	if v, ok := m["audio_search_paths"]; ok {
		settings.AudioSearchPaths = stringSlice(v)
	}
	if v, ok := m["cache_size_limit_mb"]; ok {
		if vi, oki := v.(int); oki {
			settings.CacheSizeLimitMB = vi
		}
	}
	if v, ok := m["access_token"]; ok {
		if vs, oks := v.(string); oks {
			settings.AccessToken = vs
		}
	}
	if v, ok := m["refresh_token"]; ok {
		if vs, oks := v.(string); oks {
			settings.RefreshToken = vs
		}
	}
	if v, ok := m["instance_id"]; ok {
		if vs, oks := v.(string); oks {
			settings.InstanceID = vs
		}
	}
	if v, ok := m["window_width"]; ok {
		if vi, oki := v.(int); oki && vi >= 400 {
			settings.WindowWidth = vi
		}
	}
	if v, ok := m["window_height"]; ok {
		if vi, oki := v.(int); oki && vi >= 300 {
			settings.WindowHeight = vi
		}
	}
}

func stringSlice(v any) []string {
	arr, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func settingsFilePath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(exe)
	return filepath.Join(dir, "wavemark.yml"), nil
}

// DataDir returns the directory beside the settings file used for local
// state (crash-recovery drafts, asset cache).
func DataDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(exe), "wavemark-data"), nil
}
