// Package export writes a recording's annotations to JSON, CSV, or
// XLSX files for analysis outside the editor.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ohler55/ojg/oj"
	"github.com/xuri/excelize/v2"

	"wavemark/app/interfaces"
)

// Format identifies an export file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Row is one exported annotation. Times are seconds, frequencies Hz.
type Row struct {
	Label        string  `json:"label"`
	StartTime    float64 `json:"start_time"`
	EndTime      float64 `json:"end_time"`
	DurationMS   float64 `json:"duration_ms"`
	MinFrequency float64 `json:"min_frequency"`
	MaxFrequency float64 `json:"max_frequency"`
	Confidence   float64 `json:"confidence,omitempty"`
}

// Document is the top-level JSON export payload.
type Document struct {
	RecordingID int    `json:"recording_id"`
	Filename    string `json:"filename"`
	Annotations []Row  `json:"annotations"`
}

var header = []string{"label", "start_time", "end_time", "duration_ms", "min_frequency", "max_frequency", "confidence"}

// FormatForPath infers the export format from a file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported export extension %q", filepath.Ext(path))
}

// BuildRows converts boxes to export rows, sorted by start time.
func BuildRows(boxes []interfaces.BoundingBox) []Row {
	rows := make([]Row, 0, len(boxes))
	for _, box := range boxes {
		rows = append(rows, Row{
			Label:        box.Label,
			StartTime:    box.StartTime,
			EndTime:      box.EndTime,
			DurationMS:   (box.EndTime - box.StartTime) * 1000,
			MinFrequency: box.MinFrequency,
			MaxFrequency: box.MaxFrequency,
			Confidence:   box.Confidence,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].StartTime < rows[j].StartTime })
	return rows
}

// Write exports the recording's annotations to the given path, choosing
// the format from the file extension.
func Write(path string, rec interfaces.Recording, boxes []interfaces.BoundingBox) error {
	format, err := FormatForPath(path)
	if err != nil {
		return err
	}
	rows := BuildRows(boxes)

	switch format {
	case FormatJSON:
		return writeJSON(path, rec, rows)
	case FormatCSV:
		return writeCSV(path, rows)
	case FormatXLSX:
		return writeXLSX(path, rows)
	}
	return fmt.Errorf("unsupported export format %q", format)
}

func writeJSON(path string, rec interfaces.Recording, rows []Row) error {
	doc := Document{RecordingID: rec.ID, Filename: rec.Filename, Annotations: rows}
	data := oj.JSON(&doc, &oj.Options{Indent: 2, OmitNil: true})
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		return fmt.Errorf("failed to write JSON export: %w", err)
	}
	return nil
}

func writeCSV(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV export: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.Label,
			formatFloat(row.StartTime),
			formatFloat(row.EndTime),
			formatFloat(row.DurationMS),
			formatFloat(row.MinFrequency),
			formatFloat(row.MaxFrequency),
			formatFloat(row.Confidence),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write CSV export: %w", err)
	}
	return nil
}

func writeXLSX(path string, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	headerCells := make([]interface{}, len(header))
	for i, name := range header {
		headerCells[i] = name
	}
	if err := f.SetSheetRow(sheet, "A1", &headerCells); err != nil {
		return err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			row.Label,
			row.StartTime,
			row.EndTime,
			row.DurationMS,
			row.MinFrequency,
			row.MaxFrequency,
			row.Confidence,
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to write XLSX export: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
