package editor

import (
	"path/filepath"
	"testing"

	"wavemark/app/interfaces"
)

func TestDraftRoundTrip(t *testing.T) {
	path := DraftPath(t.TempDir(), 7)
	boxes := []interfaces.BoundingBox{
		{
			ID: "box_1", X: 100, Y: 50, Width: 60, Height: 40,
			StartTime: 1.25, EndTime: 2, MinFrequency: 5000, MaxFrequency: 11025,
			Label: "Sparrow", Confidence: 0.92,
			Metadata: map[string]string{"source": "detector-v2"},
		},
		{ID: "box_2", X: 300, Y: 10, Width: 20, Height: 20, Label: "None"},
	}

	if err := WriteDraft(path, boxes); err != nil {
		t.Fatalf("WriteDraft failed: %v", err)
	}
	if !HasDraft(path) {
		t.Fatal("HasDraft should report the written draft")
	}

	got, err := ReadDraft(path)
	if err != nil {
		t.Fatalf("ReadDraft failed: %v", err)
	}
	if !interfaces.BoxesEqual(got, boxes) {
		t.Errorf("draft round-trip mismatch:\n got %+v\nwant %+v", got, boxes)
	}

	if err := RemoveDraft(path); err != nil {
		t.Fatalf("RemoveDraft failed: %v", err)
	}
	if HasDraft(path) {
		t.Error("draft should be gone after RemoveDraft")
	}
}

func TestWriteDraftReplacesPrevious(t *testing.T) {
	path := DraftPath(t.TempDir(), 3)
	if err := WriteDraft(path, []interfaces.BoundingBox{{ID: "old"}}); err != nil {
		t.Fatalf("first WriteDraft failed: %v", err)
	}
	if err := WriteDraft(path, []interfaces.BoundingBox{{ID: "new"}}); err != nil {
		t.Fatalf("second WriteDraft failed: %v", err)
	}

	got, err := ReadDraft(path)
	if err != nil {
		t.Fatalf("ReadDraft failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "new" {
		t.Errorf("draft = %+v, want the replacement snapshot", got)
	}
}

func TestRemoveMissingDraftIsNotAnError(t *testing.T) {
	if err := RemoveDraft(filepath.Join(t.TempDir(), "missing.json.xz")); err != nil {
		t.Errorf("removing a missing draft should be a no-op, got %v", err)
	}
}

func TestReadMissingDraftFails(t *testing.T) {
	if _, err := ReadDraft(filepath.Join(t.TempDir(), "missing.json.xz")); err == nil {
		t.Error("reading a missing draft should fail")
	}
}
