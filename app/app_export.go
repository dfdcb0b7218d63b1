package app

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"wavemark/app/export"
)

// ExportAnnotations opens a save dialog and writes the open
// recording's annotations in the format implied by the chosen
// extension (.json, .csv or .xlsx). Returns the written path, or ""
// when the user cancelled.
func (a *App) ExportAnnotations() (string, error) {
	session := a.activeSession()
	if session == nil {
		return "", fmt.Errorf("no recording open")
	}
	rec := session.Recording()

	base := strings.TrimSuffix(filepath.Base(rec.Filename), filepath.Ext(rec.Filename))
	if base == "" {
		base = fmt.Sprintf("recording-%d", rec.ID)
	}

	path, err := runtime.SaveFileDialog(a.ctx, runtime.SaveDialogOptions{
		Title:           "Export Annotations",
		DefaultFilename: base + "-annotations.csv",
		Filters: []runtime.FileFilter{
			{DisplayName: "CSV", Pattern: "*.csv"},
			{DisplayName: "JSON", Pattern: "*.json"},
			{DisplayName: "Excel Workbook", Pattern: "*.xlsx"},
		},
	})
	if err != nil {
		return "", err
	}
	if path == "" {
		// user cancelled
		return "", nil
	}

	if _, err := export.FormatForPath(path); err != nil {
		path += ".csv"
	}

	if err := export.Write(path, rec, session.State().Boxes); err != nil {
		a.Log("error", fmt.Sprintf("Export failed: %v", err))
		return "", err
	}
	a.Log("info", fmt.Sprintf("Exported annotations to %s", filepath.Base(path)))
	return path, nil
}
