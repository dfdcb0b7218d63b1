package editor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wavemark/app/interfaces"
)

// SaveFunc persists a snapshot of the annotation collection. It receives
// the boxes as they were at the moment the save was triggered; later
// edits are picked up by a later save, never folded into this one.
type SaveFunc func(ctx context.Context, boxes []interfaces.BoundingBox) error

// AutosaveConfig are the persistence knobs, loaded from settings.
type AutosaveConfig struct {
	Enabled     bool
	Debounce    time.Duration
	Interval    time.Duration
	MaxRetries  int
	BackoffBase time.Duration
}

// DefaultAutosaveConfig returns the stock autosave timings.
func DefaultAutosaveConfig() AutosaveConfig {
	return AutosaveConfig{
		Enabled:     true,
		Debounce:    2 * time.Second,
		Interval:    30 * time.Second,
		MaxRetries:  3,
		BackoffBase: time.Second,
	}
}

// Autosave persists dirty annotation state: debounced after mutations,
// on a fixed interval, on visibility loss, on unload, and on explicit
// user request. One in-flight flag serializes manual and automatic saves
// so they can never race.
type Autosave struct {
	cfg  AutosaveConfig
	save SaveFunc
	log  interfaces.Logger

	// snapshot returns a deep copy of the live collection and whether
	// it differs from the last-saved baseline. It runs under the
	// session lock.
	snapshot func() ([]interfaces.BoundingBox, bool)
	// committed installs the successfully saved snapshot as the new
	// baseline, also under the session lock.
	committed func(saved []interfaces.BoundingBox)

	mu           sync.Mutex
	saving       bool
	autoSaving   bool
	lastSaveTime time.Time
	lastError    error
	debounce     *time.Timer

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewAutosave wires an autosave manager to its session callbacks. Start
// must be called before any trigger fires.
func NewAutosave(cfg AutosaveConfig, save SaveFunc, snapshot func() ([]interfaces.BoundingBox, bool), committed func([]interfaces.BoundingBox), log interfaces.Logger) *Autosave {
	if log == nil {
		log = interfaces.NopLogger
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Second
	}
	return &Autosave{
		cfg:       cfg,
		save:      save,
		snapshot:  snapshot,
		committed: committed,
		log:       log,
		done:      make(chan struct{}),
	}
}

// Start launches the interval timer. The manager stops when ctx is
// cancelled or Stop is called.
func (a *Autosave) Start(ctx context.Context) {
	a.ctx, a.cancel = context.WithCancel(ctx)
	go a.intervalLoop()
}

// Stop cancels timers and abandons any pending retries. In-flight save
// attempts are interrupted via context.
func (a *Autosave) Stop() {
	a.mu.Lock()
	if a.debounce != nil {
		a.debounce.Stop()
		a.debounce = nil
	}
	cancel := a.cancel
	a.cancel = nil
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (a *Autosave) intervalLoop() {
	defer close(a.done)
	if a.cfg.Interval <= 0 {
		<-a.ctx.Done()
		return
	}
	ticker := time.NewTicker(a.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			a.TriggerAuto()
		}
	}
}

// NoteMutation restarts the debounce timer. Called after every
// annotation mutation; the save fires once edits go quiet.
func (a *Autosave) NoteMutation() {
	if !a.cfg.Enabled || a.cfg.Debounce <= 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.debounce != nil {
		a.debounce.Stop()
	}
	a.debounce = time.AfterFunc(a.cfg.Debounce, func() { a.TriggerAuto() })
}

// TriggerAuto attempts an automatic save. Returns false without error
// when there is nothing to do: clean state, save already in flight, or
// autosave disabled.
func (a *Autosave) TriggerAuto() bool {
	if !a.cfg.Enabled {
		return false
	}
	return a.run(true, a.cfg.MaxRetries)
}

// TriggerManual attempts a user-initiated save. Ignores the enabled
// flag but still defers to an in-flight save.
func (a *Autosave) TriggerManual() bool {
	return a.run(false, a.cfg.MaxRetries)
}

// Flush is the best-effort unload/visibility-hidden save: one attempt,
// no retries, fire-and-forget. Completion is not guaranteed.
func (a *Autosave) Flush() {
	go a.run(true, 1)
}

// FlushSync is the recording-switch save: it blocks until the pending
// state is persisted or the attempts are exhausted, so the outgoing
// recording's edits are not discarded silently.
func (a *Autosave) FlushSync() bool {
	return a.run(false, a.cfg.MaxRetries)
}

// run is the single save path. The in-flight flag gives mutual
// exclusion between manual and automatic saves; the snapshot is taken
// at trigger time so concurrent edits land in a later save.
func (a *Autosave) run(auto bool, attempts int) bool {
	a.mu.Lock()
	if a.saving {
		a.mu.Unlock()
		return false
	}
	a.saving = true
	a.autoSaving = auto
	ctx := a.ctx
	a.mu.Unlock()

	// Snapshot outside a.mu: it takes the session lock, which also
	// guards callers of NoteMutation.
	boxes, dirty := a.snapshot()
	if !dirty {
		a.mu.Lock()
		a.saving = false
		a.autoSaving = false
		a.mu.Unlock()
		return false
	}

	if ctx == nil {
		ctx = context.Background()
	}

	err := a.attemptWithRetry(ctx, boxes, attempts)

	a.mu.Lock()
	a.saving = false
	a.autoSaving = false
	if err != nil {
		a.lastError = err
		a.mu.Unlock()
		a.log("error", fmt.Sprintf("Save failed: %v", err))
		return false
	}
	a.lastError = nil
	a.lastSaveTime = time.Now()
	a.mu.Unlock()

	a.committed(boxes)
	return true
}

func (a *Autosave) attemptWithRetry(ctx context.Context, boxes []interfaces.BoundingBox, attempts int) error {
	var err error
	backoff := a.cfg.BackoffBase
	for attempt := 1; attempt <= attempts; attempt++ {
		err = a.save(ctx, boxes)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		if attempt < attempts {
			a.log("warn", fmt.Sprintf("Save attempt %d/%d failed, retrying in %s: %v", attempt, attempts, backoff, err))
			select {
			case <-ctx.Done():
				return err
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}
	return err
}

// State reports the persistence status for the editor chrome. The
// caller supplies dirtiness (structural inequality against the
// baseline), computed under its own lock.
func (a *Autosave) State(dirty bool) interfaces.SaveState {
	a.mu.Lock()
	defer a.mu.Unlock()
	st := interfaces.SaveState{
		HasUnsavedChanges: dirty,
		IsSaving:          a.saving && !a.autoSaving,
		IsAutoSaving:      a.autoSaving,
	}
	if !a.lastSaveTime.IsZero() {
		st.LastSaveTime = a.lastSaveTime.UnixMilli()
	}
	if a.lastError != nil {
		st.LastError = a.lastError.Error()
	}
	return st
}
