package editor

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ohler55/ojg/oj"
	"github.com/ulikunitz/xz"

	"wavemark/app/interfaces"
)

// Drafts are xz-compressed local snapshots of unsaved annotation state,
// written when a server save fails so a crash or forced quit cannot lose
// edits. A successful server save deletes the draft; a leftover draft at
// open time is offered for recovery.

// DraftPath returns the draft file location for a recording.
func DraftPath(dir string, recordingID int) string {
	return filepath.Join(dir, fmt.Sprintf("draft-%d.json.xz", recordingID))
}

// WriteDraft persists the boxes to a compressed draft file, replacing
// any previous draft atomically via a temp-file rename.
func WriteDraft(path string, boxes []interfaces.BoundingBox) error {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return fmt.Errorf("failed to create xz writer: %w", err)
	}
	if _, err := w.Write([]byte(oj.JSON(boxes))); err != nil {
		return fmt.Errorf("failed to compress draft: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish draft compression: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create draft directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write draft file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace draft file: %w", err)
	}
	return nil
}

// ReadDraft loads a draft file. Returns os.ErrNotExist (wrapped) when no
// draft is present.
func ReadDraft(path string) ([]interfaces.BoundingBox, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open draft file: %w", err)
	}
	defer f.Close()

	r, err := xz.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read draft header: %w", err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress draft: %w", err)
	}

	var boxes []interfaces.BoundingBox
	if err := oj.Unmarshal(data, &boxes); err != nil {
		return nil, fmt.Errorf("failed to parse draft: %w", err)
	}
	return boxes, nil
}

// RemoveDraft deletes the draft file; missing files are not an error.
func RemoveDraft(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove draft file: %w", err)
	}
	return nil
}

// HasDraft reports whether a draft file exists for the recording.
func HasDraft(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
