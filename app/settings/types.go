package settings

// Settings holds application settings that can be overridden by the user.
type Settings struct {
	// ServerURL is the base URL of the annotation backend API.
	ServerURL string `yaml:"server_url" json:"server_url"`
	// Remove omitempty so that false is serialized (we need to persist explicit overrides)
	AutosaveEnabled bool `yaml:"autosave_enabled" json:"autosave_enabled"`
	// Quiet period after the last edit before an automatic save fires
	AutosaveDebounceSeconds int `yaml:"autosave_debounce_seconds" json:"autosave_debounce_seconds"`
	// Fixed-interval automatic save, independent of the debounce
	AutosaveIntervalSeconds int `yaml:"autosave_interval_seconds" json:"autosave_interval_seconds"`
	// Number of attempts per save before surfacing the error
	SaveMaxRetries int `yaml:"save_max_retries" json:"save_max_retries"`
	// Upper bound of the horizontal zoom range
	ZoomMax float64 `yaml:"zoom_max" json:"zoom_max"`
	// Undo history cap; oldest entries are evicted past it
	HistoryLimit int `yaml:"history_limit" json:"history_limit"`
	// Labels offered in the label picker; the first letter of each is its
	// quick-label key
	Labels []string `yaml:"labels,omitempty" json:"labels,omitempty"`
	// AudioSearchPaths are glob patterns searched for a local copy of a
	// recording when the API audio blob is unavailable
	AudioSearchPaths []string `yaml:"audio_search_paths,omitempty" json:"audio_search_paths,omitempty"`
	// Cache size limit in MB for the recording asset cache
	CacheSizeLimitMB int `yaml:"cache_size_limit_mb" json:"cache_size_limit_mb"`
	// API token pair (not visible in settings dialog, but persisted)
	AccessToken  string `yaml:"access_token,omitempty" json:"access_token,omitempty"`
	RefreshToken string `yaml:"refresh_token,omitempty" json:"refresh_token,omitempty"`
	// InstanceID is a unique identifier for this Wavemark installation (not visible in settings dialog)
	InstanceID string `yaml:"instance_id,omitempty" json:"instance_id,omitempty"`
	// Window size settings (not visible in settings dialog, but persisted)
	WindowWidth  int `yaml:"window_width,omitempty" json:"window_width,omitempty"`
	WindowHeight int `yaml:"window_height,omitempty" json:"window_height,omitempty"`
}

// CacheManager interface defines methods that SettingsService needs for cache management
// This breaks the circular dependency between app and settings packages
type CacheManager interface {
	UpdateCacheSize()
}

// defaultSettings defines the built-in defaults.
var defaultSettings = Settings{
	ServerURL:               "http://localhost:8000/api/v1",
	AutosaveEnabled:         true,
	AutosaveDebounceSeconds: 2,
	AutosaveIntervalSeconds: 30,
	SaveMaxRetries:          3,
	ZoomMax:                 16,
	HistoryLimit:            100,
	Labels:                  []string{"None"},
	CacheSizeLimitMB:        100, // Default 100MB cache size
	// Default window size (matches main.go defaults)
	WindowWidth:  1280,
	WindowHeight: 800,
}
