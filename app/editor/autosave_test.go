package editor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"wavemark/app/interfaces"
)

// saveHarness wires an Autosave to an in-memory baseline the way the
// session does.
type saveHarness struct {
	mu       sync.Mutex
	live     []interfaces.BoundingBox
	baseline []interfaces.BoundingBox
}

func (h *saveHarness) snapshot() ([]interfaces.BoundingBox, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return interfaces.CloneBoxes(h.live), !interfaces.BoxesEqual(h.live, h.baseline)
}

func (h *saveHarness) committed(saved []interfaces.BoundingBox) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.baseline = interfaces.CloneBoxes(saved)
}

func (h *saveHarness) edit(box interfaces.BoundingBox) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.live = append(h.live, box)
}

func quickConfig() AutosaveConfig {
	return AutosaveConfig{
		Enabled:     true,
		Debounce:    0,
		Interval:    0,
		MaxRetries:  3,
		BackoffBase: time.Millisecond,
	}
}

func TestSaveSuccessUpdatesBaseline(t *testing.T) {
	h := &saveHarness{}
	var calls int32
	save := func(ctx context.Context, boxes []interfaces.BoundingBox) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}
	a := NewAutosave(quickConfig(), save, h.snapshot, h.committed, nil)
	a.Start(context.Background())
	defer a.Stop()

	h.edit(interfaces.BoundingBox{ID: "b1", X: 1})
	if !a.TriggerManual() {
		t.Fatal("manual save of dirty state should succeed")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("save called %d times, want 1", calls)
	}
	if _, dirty := h.snapshot(); dirty {
		t.Error("successful save should install the saved snapshot as baseline")
	}
	st := a.State(false)
	if st.LastSaveTime == 0 {
		t.Error("LastSaveTime should be set after a successful save")
	}
	if st.LastError != "" {
		t.Errorf("LastError = %q, want empty", st.LastError)
	}
}

func TestSaveCleanStateIsNoop(t *testing.T) {
	h := &saveHarness{}
	save := func(ctx context.Context, boxes []interfaces.BoundingBox) error {
		t.Error("save must not be called for clean state")
		return nil
	}
	a := NewAutosave(quickConfig(), save, h.snapshot, h.committed, nil)
	if a.TriggerManual() {
		t.Error("saving clean state should report false")
	}
}

func TestAutosaveDisabledIsNoop(t *testing.T) {
	h := &saveHarness{}
	h.edit(interfaces.BoundingBox{ID: "b1"})
	cfg := quickConfig()
	cfg.Enabled = false
	var calls int32
	save := func(ctx context.Context, boxes []interfaces.BoundingBox) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}
	a := NewAutosave(cfg, save, h.snapshot, h.committed, nil)

	if a.TriggerAuto() {
		t.Error("disabled autosave should report false")
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Error("disabled autosave must not call save")
	}
	// Manual save still works with autosave disabled.
	if !a.TriggerManual() {
		t.Error("manual save should ignore the autosave enable flag")
	}
}

func TestRetriesThenSurfacesError(t *testing.T) {
	h := &saveHarness{}
	h.edit(interfaces.BoundingBox{ID: "b1"})
	var calls int32
	save := func(ctx context.Context, boxes []interfaces.BoundingBox) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("network down")
	}
	a := NewAutosave(quickConfig(), save, h.snapshot, h.committed, nil)

	if a.TriggerManual() {
		t.Fatal("exhausted retries should report failure")
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("save attempted %d times, want 3", got)
	}
	if _, dirty := h.snapshot(); !dirty {
		t.Error("failed save must keep the dirty flag")
	}
	st := a.State(true)
	if st.LastError == "" {
		t.Error("LastError should surface the failure")
	}
	if !st.HasUnsavedChanges {
		t.Error("unsaved-changes indicator should remain")
	}

	// The edits are still there for a later manual retry.
	recovered := func(ctx context.Context, boxes []interfaces.BoundingBox) error { return nil }
	a2 := NewAutosave(quickConfig(), recovered, h.snapshot, h.committed, nil)
	if !a2.TriggerManual() {
		t.Error("retry after recovery should succeed")
	}
}

func TestMutualExclusionSingleInFlightSave(t *testing.T) {
	h := &saveHarness{}
	h.edit(interfaces.BoundingBox{ID: "b1"})

	var inFlight, maxInFlight, calls int32
	release := make(chan struct{})
	save := func(ctx context.Context, boxes []interfaces.BoundingBox) error {
		atomic.AddInt32(&calls, 1)
		n := atomic.AddInt32(&inFlight, 1)
		for {
			m := atomic.LoadInt32(&maxInFlight)
			if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
				break
			}
		}
		<-release
		atomic.AddInt32(&inFlight, -1)
		return nil
	}
	a := NewAutosave(quickConfig(), save, h.snapshot, h.committed, nil)
	a.Start(context.Background())
	defer a.Stop()

	var wg sync.WaitGroup
	results := make([]bool, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				results[i] = a.TriggerManual()
			} else {
				results[i] = a.TriggerAuto()
			}
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if atomic.LoadInt32(&maxInFlight) > 1 {
		t.Errorf("observed %d concurrent saves, want at most 1", maxInFlight)
	}
	succeeded := 0
	for _, ok := range results {
		if ok {
			succeeded++
		}
	}
	if succeeded != 1 {
		t.Errorf("%d triggers reported success, want exactly 1", succeeded)
	}
}

func TestSaveObservesSnapshotAtTrigger(t *testing.T) {
	h := &saveHarness{}
	h.edit(interfaces.BoundingBox{ID: "b1"})

	started := make(chan struct{})
	release := make(chan struct{})
	var saved []interfaces.BoundingBox
	save := func(ctx context.Context, boxes []interfaces.BoundingBox) error {
		close(started)
		<-release
		saved = boxes
		return nil
	}
	a := NewAutosave(quickConfig(), save, h.snapshot, h.committed, nil)
	a.Start(context.Background())
	defer a.Stop()

	done := make(chan bool)
	go func() { done <- a.TriggerManual() }()
	<-started

	// An edit racing the in-flight save must not leak into its payload.
	h.edit(interfaces.BoundingBox{ID: "b2"})
	close(release)
	if !<-done {
		t.Fatal("save should succeed")
	}

	if len(saved) != 1 || saved[0].ID != "b1" {
		t.Errorf("save payload = %+v, want only the pre-trigger box", saved)
	}
	// The racing edit re-dirties the state against the new baseline.
	if _, dirty := h.snapshot(); !dirty {
		t.Error("edit made after the trigger should leave the state dirty")
	}
}

func TestDebounceFiresAfterQuietPeriod(t *testing.T) {
	h := &saveHarness{}
	cfg := quickConfig()
	cfg.Debounce = 20 * time.Millisecond
	var calls int32
	save := func(ctx context.Context, boxes []interfaces.BoundingBox) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}
	a := NewAutosave(cfg, save, h.snapshot, h.committed, nil)
	a.Start(context.Background())
	defer a.Stop()

	// A burst of mutations restarts the timer each time; only one save
	// fires once the burst goes quiet.
	for i := 0; i < 5; i++ {
		h.edit(interfaces.BoundingBox{ID: "b"})
		a.NoteMutation()
		time.Sleep(2 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("save fired %d times after the burst, want 1", got)
	}
}
