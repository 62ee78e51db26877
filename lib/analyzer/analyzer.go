// Copyright 2026 The MuleRepo Authors
// SPDX-License-Identifier: Apache-2.0

// Package analyzer asks a generative-AI service to describe an
// uploaded project: architecture summary, logic breakdown, dependency
// list, tags, difficulty, health score, best-practice notes.
//
// The analyzer is a best-effort collaborator. Upload handling proceeds
// with default metadata when it is unavailable, misconfigured, or
// returns something unparsable — analysis failure must never block a
// create.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/kavishworks45-design/mulerepo/lib/archive"
)

// Insights is the metadata the analyzer derives from project files.
// Every field is optional; consumers merge what is present over their
// defaults.
type Insights struct {
	Architecture   string   `json:"architecture"`
	LogicBreakdown string   `json:"logicBreakdown"`
	Dependencies   []string `json:"dependencies"`
	Tags           []string `json:"tags"`
	Difficulty     string   `json:"difficulty"`
	HealthScore    int      `json:"healthScore"`
	BestPractices  []string `json:"bestPractices"`
}

// Analyzer produces Insights from a set of named text files.
type Analyzer interface {
	// Analyze inspects the given files (path → text content). Returns
	// ErrDisabled when analysis is turned off, or another error when
	// the service is unavailable or its response unparsable.
	Analyze(ctx context.Context, files map[string]string) (*Insights, error)
}

// ErrDisabled is returned by the disabled analyzer. Callers treat it
// like any other analyzer failure: proceed with defaults.
var ErrDisabled = errors.New("analyzer: disabled (no API key configured)")

// Disabled returns an Analyzer that always fails with ErrDisabled.
// Used when no API key is configured.
func Disabled() Analyzer { return disabled{} }

type disabled struct{}

func (disabled) Analyze(context.Context, map[string]string) (*Insights, error) {
	return nil, ErrDisabled
}

// analyzableExtensions are the file types worth sending to the
// analyzer: Mule flows (.xml), DataWeave transforms (.dwl), API specs
// (.raml), and the dependency manifest.
var analyzableExtensions = map[string]bool{
	".xml":  true,
	".dwl":  true,
	".raml": true,
}

// maxAnalyzableBytes bounds the total content shipped to the
// generative service. Prompt size is billed and capped upstream;
// oversized projects get truncated file sets, not failures.
const maxAnalyzableBytes = 256 << 10

// AnalyzableFiles selects the flow/transform/manifest files from an
// extracted upload, as path → text content, bounded by
// maxAnalyzableBytes in deterministic (sorted path) order.
func AnalyzableFiles(entries []archive.Entry) map[string]string {
	sorted := make([]archive.Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	files := make(map[string]string)
	total := 0
	for _, entry := range sorted {
		base := path.Base(entry.Path)
		if !analyzableExtensions[strings.ToLower(path.Ext(base))] && base != "pom.xml" {
			continue
		}
		if total+len(entry.Content) > maxAnalyzableBytes {
			break
		}
		files[entry.Path] = string(entry.Content)
		total += len(entry.Content)
	}
	return files
}

// buildPrompt renders the analysis request. The instruction pins the
// response to a bare JSON object so parsing stays mechanical.
func buildPrompt(files map[string]string) string {
	paths := make([]string, 0, len(files))
	for filePath := range files {
		paths = append(paths, filePath)
	}
	sort.Strings(paths)

	var builder strings.Builder
	builder.WriteString("You are reviewing a MuleSoft integration project. ")
	builder.WriteString("Respond with a single JSON object with the fields ")
	builder.WriteString(`"architecture", "logicBreakdown", "dependencies", "tags", "difficulty", "healthScore", "bestPractices". `)
	builder.WriteString(`"difficulty" is one of Beginner, Intermediate, Advanced; "healthScore" is an integer 0-100. `)
	builder.WriteString("No prose outside the JSON object.\n\n")
	for _, filePath := range paths {
		fmt.Fprintf(&builder, "--- %s ---\n%s\n", filePath, files[filePath])
	}
	return builder.String()
}
