package cache

import (
	"bytes"
	"fmt"
	"testing"
	"time"
)

func blobOf(size int) Blob {
	return Blob{Data: make([]byte, size), FetchedAt: time.Now()}
}

func TestPutGetRoundTrip(t *testing.T) {
	c := New(1024)
	key := Key("audio", 1)
	c.Put(key, Blob{Data: []byte("pcm data"), ContentType: "audio/wav"})

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if !bytes.Equal(got.Data, []byte("pcm data")) || got.ContentType != "audio/wav" {
		t.Errorf("got %+v", got)
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(300)
	for i := 0; i < 3; i++ {
		c.Put(Key("audio", i), blobOf(100))
	}
	// Touch recording 0 so recording 1 is now the eviction candidate.
	if _, ok := c.Get(Key("audio", 0)); !ok {
		t.Fatal("expected hit on recording 0")
	}

	c.Put(Key("audio", 3), blobOf(100))

	if _, ok := c.Get(Key("audio", 1)); ok {
		t.Error("least recently used entry should have been evicted")
	}
	for _, id := range []int{0, 2, 3} {
		if _, ok := c.Get(Key("audio", id)); !ok {
			t.Errorf("recording %d should still be cached", id)
		}
	}
}

func TestOversizedBlobNotStored(t *testing.T) {
	c := New(100)
	c.Put(Key("spectrogram", 1), blobOf(200))
	if _, ok := c.Get(Key("spectrogram", 1)); ok {
		t.Error("blob larger than the cache must not be stored")
	}
	if st := c.GetStats(); st.TotalSize != 0 {
		t.Errorf("TotalSize = %d, want 0", st.TotalSize)
	}
}

func TestPutReplacesExisting(t *testing.T) {
	c := New(1024)
	key := Key("audio", 5)
	c.Put(key, blobOf(100))
	c.Put(key, blobOf(50))

	st := c.GetStats()
	if st.Entries != 1 || st.TotalSize != 50 {
		t.Errorf("entries=%d size=%d, want 1/50 after replacement", st.Entries, st.TotalSize)
	}
}

func TestSetMaxSizeEvictsDown(t *testing.T) {
	c := New(400)
	for i := 0; i < 4; i++ {
		c.Put(Key("audio", i), blobOf(100))
	}
	c.SetMaxSize(150)

	st := c.GetStats()
	if st.TotalSize > 150 {
		t.Errorf("TotalSize = %d after shrink, want <= 150", st.TotalSize)
	}
	if st.Entries != 1 {
		t.Errorf("Entries = %d, want 1", st.Entries)
	}
}

func TestKeysDistinctPerKindAndRecording(t *testing.T) {
	seen := map[string]string{}
	for _, kind := range []string{"audio", "spectrogram"} {
		for id := 0; id < 50; id++ {
			k := Key(kind, id)
			name := fmt.Sprintf("%s/%d", kind, id)
			if prev, dup := seen[k]; dup {
				t.Fatalf("key collision between %s and %s", prev, name)
			}
			seen[k] = name
		}
	}
}

func TestStatsHitRate(t *testing.T) {
	c := New(1024)
	c.Put(Key("audio", 1), blobOf(10))
	c.Get(Key("audio", 1))
	c.Get(Key("audio", 2))

	st := c.GetStats()
	if st.Hits != 1 || st.Misses != 1 {
		t.Errorf("hits=%d misses=%d, want 1/1", st.Hits, st.Misses)
	}
	if st.HitRate != 0.5 {
		t.Errorf("HitRate = %f, want 0.5", st.HitRate)
	}
}
