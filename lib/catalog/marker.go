// Copyright 2026 The MuleRepo Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/jsonc"
)

// ParseMarker decodes a poc.json marker. The input is treated as JSONC
// (JSON extended with comments and trailing commas): markers are
// occasionally hand-edited in the upstream repository, and one decorated
// marker must not fail the whole listing.
func ParseMarker(data []byte) (*Project, error) {
	stripped := jsonc.ToJSON(data)

	var project Project
	if err := json.Unmarshal(stripped, &project); err != nil {
		return nil, fmt.Errorf("parsing marker: %w", err)
	}

	return &project, nil
}

// EncodeMarker serializes a project's marker-persisted fields as the
// poc.json document. Indented so the file stays reviewable in the
// upstream repository's web UI.
func EncodeMarker(project *Project) ([]byte, error) {
	stored := *project
	// Derived fields are reconstructed at listing time; persisting
	// them would let a renamed folder serve stale links.
	stored.FolderName = ""
	stored.URL = ""

	data, err := json.MarshalIndent(&stored, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding marker: %w", err)
	}
	return append(data, '\n'), nil
}

// ApplyDefaults fills the fields a sparse or legacy marker may omit so
// every listed project has a complete, render-safe shape.
func (project *Project) ApplyDefaults() {
	if project.Tags == nil {
		project.Tags = []string{}
	}
	if !project.Difficulty.Valid() {
		project.Difficulty = Beginner
	}
	if project.Updated == "" {
		project.Updated = UpdatedUnknown
	}
	if project.Icon == "" {
		project.Icon = "default"
	}
	if project.Stars < 0 {
		project.Stars = 0
	}
}
