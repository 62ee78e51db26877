// Copyright 2026 The MuleRepo Authors
// SPDX-License-Identifier: Apache-2.0

// Package catalog defines the Project model, the poc.json marker
// format, and folder-name derivation — the shared vocabulary between
// the repository store, the listing index, and the HTTP surface.
package catalog

import (
	"regexp"
	"strings"
)

// MarkerFile is the name of the per-project metadata file stored at
// the root of each folder. A folder without a marker is invisible to
// the catalog listing.
const MarkerFile = "poc.json"

// Difficulty grades a project for browsers of the catalog.
type Difficulty string

const (
	Beginner     Difficulty = "Beginner"
	Intermediate Difficulty = "Intermediate"
	Advanced     Difficulty = "Advanced"
)

// Valid reports whether d is one of the known difficulty grades.
func (d Difficulty) Valid() bool {
	switch d {
	case Beginner, Intermediate, Advanced:
		return true
	}
	return false
}

// Project is a catalog entry. The marker-persisted fields are stored
// in each folder's poc.json; FolderName and URL are derived from the
// marker's location at listing time and never written back.
type Project struct {
	// ID is unique across the store. It is the creation time in Unix
	// milliseconds — two creations in the same millisecond would
	// collide, which is acceptable at this catalog's write rate.
	ID int64 `json:"id"`

	Title       string     `json:"title"`
	Description string     `json:"description"`
	Tags        []string   `json:"tags"`
	Difficulty  Difficulty `json:"difficulty"`
	AuthorID    string     `json:"authorId"`
	AuthorName  string     `json:"authorName"`

	// CreatedAt is Unix milliseconds. Zero sorts as oldest.
	CreatedAt int64 `json:"createdAt"`

	// Updated is a display timestamp, or the sentinel "Unknown".
	Updated string `json:"updated"`

	// Icon is a symbolic name resolved by the presentation layer.
	Icon string `json:"icon"`

	// Stars is the star counter, floored at zero.
	Stars int `json:"stars"`

	// Fingerprint is the BLAKE3 digest of the uploaded file set,
	// recorded for upload dedup diagnostics.
	Fingerprint string `json:"fingerprint,omitempty"`

	// Analyzer-derived metadata. All optional: the analyzer may be
	// disabled or may have failed at upload time.
	Architecture   string   `json:"architecture,omitempty"`
	LogicBreakdown string   `json:"logicBreakdown,omitempty"`
	Dependencies   []string `json:"dependencies,omitempty"`
	HealthScore    int      `json:"healthScore,omitempty"`
	BestPractices  []string `json:"bestPractices,omitempty"`

	// Derived at listing time from the marker's tree path.
	FolderName string `json:"folderName,omitempty"`
	URL        string `json:"url,omitempty"`
}

// UpdatedUnknown is the sentinel for a project whose last-modified
// time is not known.
const UpdatedUnknown = "Unknown"

// MergeOverride overlays an uploader-supplied manifest onto the
// project. Only descriptive fields transfer: identity (ID, CreatedAt),
// the star counter, the fingerprint, and listing-derived fields stay
// service-owned. Zero-value override fields leave the project
// untouched.
func (p *Project) MergeOverride(override *Project) {
	if override.Description != "" {
		p.Description = override.Description
	}
	if len(override.Tags) > 0 {
		p.Tags = override.Tags
	}
	if override.Difficulty.Valid() {
		p.Difficulty = override.Difficulty
	}
	if override.AuthorID != "" {
		p.AuthorID = override.AuthorID
	}
	if override.AuthorName != "" {
		p.AuthorName = override.AuthorName
	}
	if override.Updated != "" {
		p.Updated = override.Updated
	}
	if override.Icon != "" {
		p.Icon = override.Icon
	}
	if override.Architecture != "" {
		p.Architecture = override.Architecture
	}
	if override.LogicBreakdown != "" {
		p.LogicBreakdown = override.LogicBreakdown
	}
	if len(override.Dependencies) > 0 {
		p.Dependencies = override.Dependencies
	}
	if override.HealthScore != 0 {
		p.HealthScore = override.HealthScore
	}
	if len(override.BestPractices) > 0 {
		p.BestPractices = override.BestPractices
	}
}

// nonAlphanumeric matches every run of characters that cannot appear
// in a folder name.
var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// FolderName derives the storage folder for a project title: lowercase,
// every run of non-alphanumeric characters collapsed to a single
// hyphen, leading and trailing hyphens trimmed. The folder name is the
// only handle needed to read, tree-list, or delete a project's files.
//
// "SAP → Salesforce!! Sync" becomes "sap-salesforce-sync". An empty
// result (a title with no alphanumeric characters) is the caller's
// problem to reject.
func FolderName(title string) string {
	lowered := strings.ToLower(title)
	hyphenated := nonAlphanumeric.ReplaceAllString(lowered, "-")
	return strings.Trim(hyphenated, "-")
}
