package app

import (
	"context"
	"fmt"
	"sync"

	"wavemark/app/api"
	"wavemark/app/asset"
	"wavemark/app/cache"
	"wavemark/app/editor"
	"wavemark/app/settings"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// App struct
type App struct {
	ctx context.Context

	settingsService *settings.SettingsService

	// backend API and asset resolution
	client *api.Client
	assets *asset.Manager

	// persistent blob cache shared by audio and spectrogram fetches
	assetCache *cache.Cache

	// current editing session (one recording open at a time)
	sessionMu sync.Mutex
	session   *editor.Session

	// clipboard init
	clipOnce sync.Once
	clipOK   bool

	// spectrogram poll cancellation
	pollMu     sync.Mutex
	pollCancel context.CancelFunc
}

// NewApp creates a new App application struct
func NewApp(settingsService *settings.SettingsService) *App {
	currentSettings := settings.GetEffectiveSettings()
	cacheSizeBytes := int64(currentSettings.CacheSizeLimitMB) * 1024 * 1024

	return &App{
		settingsService: settingsService,
		assetCache:      cache.New(cacheSizeBytes),
	}
}

// Startup is called by the runtime once the frontend is ready.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx

	currentSettings := settings.GetEffectiveSettings()
	a.client = api.NewClient(currentSettings.ServerURL, a.settingsService, a.Log)
	a.assets = asset.NewManager(a.client, a.assetCache, currentSettings.AudioSearchPaths, a.Log)
}

// Shutdown flushes the open session before the process exits.
func (a *App) Shutdown(ctx context.Context) {
	a.stopSpectrogramPoll()

	a.sessionMu.Lock()
	session := a.session
	a.session = nil
	a.sessionMu.Unlock()

	if session != nil {
		session.Close()
	}
}

// Ctx returns the app context
func (a *App) Ctx() context.Context {
	return a.ctx
}

// Log emits a structured log event to the frontend console window
func (a *App) Log(level, message string) {
	if a == nil || a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, "log", map[string]any{
		"level":   level,
		"message": message,
	})
}

// emit forwards an event to the frontend; safe before Startup.
func (a *App) emit(event string, data ...interface{}) {
	if a == nil || a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, event, data...)
}

// activeSession returns the open session, or nil when no recording is
// loaded.
func (a *App) activeSession() *editor.Session {
	a.sessionMu.Lock()
	defer a.sessionMu.Unlock()
	return a.session
}

// CacheStatsResponse contains cache statistics for the frontend
type CacheStatsResponse struct {
	TotalSize    int64   `json:"totalSize"`
	MaxSize      int64   `json:"maxSize"`
	UsagePercent float64 `json:"usagePercent"`
	EntryCount   int     `json:"entryCount"`
	HitRate      float64 `json:"hitRate"`
}

// GetCacheStats returns the current cache statistics for the frontend
func (a *App) GetCacheStats() CacheStatsResponse {
	if a.assetCache == nil {
		return CacheStatsResponse{}
	}
	stats := a.assetCache.GetStats()
	return CacheStatsResponse{
		TotalSize:    stats.TotalSize,
		MaxSize:      stats.MaxSize,
		UsagePercent: stats.UsagePercent,
		EntryCount:   stats.Entries,
		HitRate:      stats.HitRate,
	}
}

// UpdateCacheSize applies the cache size limit from current settings.
// Called by the settings service after a save changes the limit.
func (a *App) UpdateCacheSize() {
	if a.assetCache == nil {
		return
	}
	currentSettings := settings.GetEffectiveSettings()
	a.assetCache.SetMaxSize(int64(currentSettings.CacheSizeLimitMB) * 1024 * 1024)
}

// GetSavedWindowSize returns the saved window dimensions from settings
func (a *App) GetSavedWindowSize() (width, height int, err error) {
	currentSettings := settings.GetEffectiveSettings()
	return currentSettings.WindowWidth, currentSettings.WindowHeight, nil
}

// SaveWindowSize saves the current window dimensions to the settings file
func (a *App) SaveWindowSize(width, height int) error {
	if width < 800 || height < 500 {
		return fmt.Errorf("window size too small: minimum 800x500, got %dx%d", width, height)
	}
	currentSettings := settings.GetEffectiveSettings()
	currentSettings.WindowWidth = width
	currentSettings.WindowHeight = height
	return a.settingsService.SaveSettings(currentSettings)
}
