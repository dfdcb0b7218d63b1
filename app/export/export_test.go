package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/ohler55/ojg/oj"
	"github.com/xuri/excelize/v2"

	"wavemark/app/interfaces"
)

func testBoxes() []interfaces.BoundingBox {
	return []interfaces.BoundingBox{
		{
			ID:           "box_b",
			Label:        "Warbler",
			StartTime:    4.5,
			EndTime:      5.0,
			MinFrequency: 1000,
			MaxFrequency: 4000,
		},
		{
			ID:           "box_a",
			Label:        "Sparrow",
			StartTime:    1.25,
			EndTime:      3.75,
			MinFrequency: 2000,
			MaxFrequency: 8000,
			Confidence:   0.9,
		},
	}
}

func TestBuildRowsSortsByStartTime(t *testing.T) {
	rows := BuildRows(testBoxes())
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Label != "Sparrow" || rows[1].Label != "Warbler" {
		t.Errorf("rows not sorted by start time: %v", rows)
	}
	if rows[0].DurationMS != 2500 {
		t.Errorf("expected 2500ms duration, got %v", rows[0].DurationMS)
	}
}

func TestFormatForPath(t *testing.T) {
	cases := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"annotations.json", FormatJSON, false},
		{"out/Annotations.CSV", FormatCSV, false},
		{"report.xlsx", FormatXLSX, false},
		{"report.txt", "", true},
		{"report", "", true},
	}
	for _, tc := range cases {
		got, err := FormatForPath(tc.path)
		if tc.wantErr {
			if err == nil {
				t.Errorf("%s: expected error", tc.path)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tc.path, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.path, tc.want, got)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.json")
	rec := interfaces.Recording{ID: 12, Filename: "rec12.wav"}
	if err := Write(path, rec, testBoxes()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc Document
	if err := oj.Unmarshal(data, &doc); err != nil {
		t.Fatalf("export did not parse as JSON: %v", err)
	}
	if doc.RecordingID != 12 || doc.Filename != "rec12.wav" {
		t.Errorf("wrong document metadata: %+v", doc)
	}
	if len(doc.Annotations) != 2 || doc.Annotations[0].StartTime != 1.25 {
		t.Errorf("wrong annotations: %+v", doc.Annotations)
	}
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	if err := Write(path, interfaces.Recording{ID: 1}, testBoxes()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("export did not parse as CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d records", len(records))
	}
	if records[0][0] != "label" || records[0][3] != "duration_ms" {
		t.Errorf("wrong header: %v", records[0])
	}
	if records[1][0] != "Sparrow" || records[1][1] != "1.25" {
		t.Errorf("wrong first data row: %v", records[1])
	}
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.xlsx")
	if err := Write(path, interfaces.Recording{ID: 1}, testBoxes()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("export did not open as XLSX: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[1][0] != "Sparrow" {
		t.Errorf("wrong first data row: %v", rows[1])
	}
}

func TestWriteEmptyAnnotations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := Write(path, interfaces.Recording{ID: 1}, nil); err != nil {
		t.Fatalf("Write failed for empty set: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Errorf("expected header only, got %d records", len(records))
	}
}
