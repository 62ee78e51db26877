// Copyright 2026 The MuleRepo Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"strings"
	"testing"
)

func TestParseMarker(t *testing.T) {
	data := []byte(`{
		"id": 1700000000000,
		"title": "Demo Flow",
		"description": "A demo",
		"tags": ["http", "sap"],
		"difficulty": "Intermediate",
		"authorId": "u1",
		"authorName": "Ana",
		"createdAt": 1700000000000,
		"stars": 3
	}`)

	project, err := ParseMarker(data)
	if err != nil {
		t.Fatalf("ParseMarker: %v", err)
	}
	if project.Title != "Demo Flow" {
		t.Errorf("Title = %q", project.Title)
	}
	if project.Difficulty != Intermediate {
		t.Errorf("Difficulty = %q", project.Difficulty)
	}
	if len(project.Tags) != 2 || project.Tags[0] != "http" {
		t.Errorf("Tags = %v", project.Tags)
	}
	if project.Stars != 3 {
		t.Errorf("Stars = %d", project.Stars)
	}
}

func TestParseMarker_ToleratesCommentsAndTrailingCommas(t *testing.T) {
	data := []byte(`{
		// hand-edited by the repo admin
		"title": "Annotated",
		"tags": ["demo",],
	}`)

	project, err := ParseMarker(data)
	if err != nil {
		t.Fatalf("ParseMarker: %v", err)
	}
	if project.Title != "Annotated" {
		t.Errorf("Title = %q", project.Title)
	}
}

func TestParseMarker_RejectsCorruptJSON(t *testing.T) {
	if _, err := ParseMarker([]byte(`{"title": "broken`)); err == nil {
		t.Fatal("expected error for corrupt marker")
	}
}

func TestEncodeMarker_OmitsDerivedFields(t *testing.T) {
	project := &Project{
		ID:         42,
		Title:      "Demo",
		FolderName: "demo",
		URL:        "https://example.com/tree/main/demo",
	}

	data, err := EncodeMarker(project)
	if err != nil {
		t.Fatalf("EncodeMarker: %v", err)
	}
	text := string(data)
	if strings.Contains(text, "folderName") || strings.Contains(text, `"url"`) {
		t.Errorf("marker contains derived fields:\n%s", text)
	}

	// Round trip: what we wrote must parse back.
	parsed, err := ParseMarker(data)
	if err != nil {
		t.Fatalf("ParseMarker after encode: %v", err)
	}
	if parsed.ID != 42 || parsed.Title != "Demo" {
		t.Errorf("round trip lost fields: %+v", parsed)
	}
}

func TestApplyDefaults(t *testing.T) {
	project := &Project{}
	project.ApplyDefaults()

	if project.Tags == nil {
		t.Error("Tags should default to an empty slice")
	}
	if project.Difficulty != Beginner {
		t.Errorf("Difficulty = %q, want Beginner", project.Difficulty)
	}
	if project.Updated != UpdatedUnknown {
		t.Errorf("Updated = %q, want %q", project.Updated, UpdatedUnknown)
	}
	if project.Icon != "default" {
		t.Errorf("Icon = %q, want default", project.Icon)
	}

	// Valid values are untouched.
	populated := &Project{Difficulty: Advanced, Updated: "2026-01-01", Icon: "sap", Tags: []string{"x"}}
	populated.ApplyDefaults()
	if populated.Difficulty != Advanced || populated.Updated != "2026-01-01" || populated.Icon != "sap" {
		t.Errorf("defaults clobbered populated fields: %+v", populated)
	}
}
