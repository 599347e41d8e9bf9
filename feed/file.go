// Copyright 2025 The Palytt Authors
// SPDX-License-Identifier: Apache-2.0

package feed

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/palytt/palytt-geo/pinmap"
)

// ExportData is the on-disk export format. Posts are kept sorted by id so
// exports diff cleanly under version control.
type ExportData struct {
	Posts []*pinmap.Post `json:"posts"`
}

// ReadExport loads posts from a local JSON export file.
func ReadExport(filepath string) ([]*pinmap.Post, error) {
	data, err := os.ReadFile(filepath) // #nosec G304 - filepath is provided by admin
	if err != nil {
		return nil, fmt.Errorf("reading export file: %w", err)
	}

	var export ExportData
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("parsing export JSON: %w", err)
	}

	return export.Posts, nil
}

// WriteExport stores posts to a local JSON export file.
func WriteExport(filepath string, posts []*pinmap.Post) error {
	data, err := json.MarshalIndent(ExportData{Posts: posts}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling export data: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0o600); err != nil {
		return fmt.Errorf("writing export file: %w", err)
	}

	return nil
}
