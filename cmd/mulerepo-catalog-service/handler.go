// Copyright 2026 The MuleRepo Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kavishworks45-design/mulerepo/lib/analyzer"
	"github.com/kavishworks45-design/mulerepo/lib/archive"
	"github.com/kavishworks45-design/mulerepo/lib/catalog"
	"github.com/kavishworks45-design/mulerepo/lib/clock"
	"github.com/kavishworks45-design/mulerepo/lib/store"
)

// maxUploadBytes bounds the multipart upload body.
const maxUploadBytes = 64 << 20

// analyzeTimeout bounds the best-effort analysis call during a create.
const analyzeTimeout = 45 * time.Second

// catalogStore is the slice of *store.Store the handler uses. Tests
// substitute fakes.
type catalogStore interface {
	Create(ctx context.Context, folderName string, files []store.File, message string) (*store.CreateResult, error)
	Delete(ctx context.Context, folderName string) error
	Exists(ctx context.Context, folderName string) (bool, error)
	GetMarker(ctx context.Context, folderName string) (*catalog.Project, error)
	GetFolderTree(ctx context.Context, folderName string) ([]store.FolderEntry, error)
	GetFileContent(ctx context.Context, sha string) ([]byte, error)
	GetCommitHistory(ctx context.Context, folderName string) ([]store.CommitRecord, error)
}

// listingCache is the slice of *store.ListingCache the handler uses.
type listingCache interface {
	Get(ctx context.Context, force bool) (*store.Snapshot, error)
	Invalidate()
}

// Handler serves the /api/pocs surface.
//
// Reads degrade: a listing, tree, or history that cannot be fetched
// returns an empty result with status 200, because a broken catalog
// page is worse than an empty one. Writes surface their errors — the
// uploader needs to know the project was not stored.
type Handler struct {
	store    catalogStore
	cache    listingCache
	analyzer analyzer.Analyzer
	clock    clock.Clock
	logger   *slog.Logger
}

// NewHandler creates the API handler.
func NewHandler(catalogStore catalogStore, cache listingCache, projectAnalyzer analyzer.Analyzer, clk clock.Clock, logger *slog.Logger) *Handler {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:    catalogStore,
		cache:    cache,
		analyzer: projectAnalyzer,
		clock:    clk,
		logger:   logger,
	}
}

// Routes returns the route table.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/pocs", h.handleList)
	mux.HandleFunc("POST /api/pocs", h.handleCreate)
	mux.HandleFunc("DELETE /api/pocs", h.handleDelete)
	mux.HandleFunc("GET /api/pocs/tree", h.handleTree)
	mux.HandleFunc("GET /api/pocs/file", h.handleFile)
	mux.HandleFunc("GET /api/pocs/commits", h.handleCommits)
	mux.HandleFunc("POST /api/pocs/star", h.handleStar)
	return mux
}

func (h *Handler) handleList(writer http.ResponseWriter, request *http.Request) {
	force := request.URL.Query().Get("fresh") == "true"

	snapshot, err := h.cache.Get(request.Context(), force)
	if err != nil {
		h.logger.Error("listing unavailable", "error", err)
		writeJSON(writer, http.StatusOK, []catalog.Project{})
		return
	}
	if snapshot.Stale {
		writer.Header().Set("X-Catalog-Stale", "true")
	}
	writeJSON(writer, http.StatusOK, snapshot.Projects)
}

func (h *Handler) handleTree(writer http.ResponseWriter, request *http.Request) {
	folderName := request.URL.Query().Get("path")
	if folderName == "" {
		writeError(writer, http.StatusBadRequest, "path is required")
		return
	}

	entries, err := h.store.GetFolderTree(request.Context(), folderName)
	if err != nil {
		h.logger.Error("folder tree unavailable", "folder", folderName, "error", err)
		writeJSON(writer, http.StatusOK, []store.FolderEntry{})
		return
	}
	writeJSON(writer, http.StatusOK, entries)
}

func (h *Handler) handleFile(writer http.ResponseWriter, request *http.Request) {
	sha := request.URL.Query().Get("sha")
	if sha == "" {
		writeError(writer, http.StatusBadRequest, "sha is required")
		return
	}

	content, err := h.store.GetFileContent(request.Context(), sha)
	if err != nil {
		h.logger.Error("file content unavailable", "sha", sha, "error", err)
		writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
		writer.WriteHeader(http.StatusOK)
		return
	}
	writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
	writer.WriteHeader(http.StatusOK)
	writer.Write(content)
}

func (h *Handler) handleCommits(writer http.ResponseWriter, request *http.Request) {
	folderName := request.URL.Query().Get("path")
	if folderName == "" {
		writeError(writer, http.StatusBadRequest, "path is required")
		return
	}

	records, err := h.store.GetCommitHistory(request.Context(), folderName)
	if err != nil {
		h.logger.Error("commit history unavailable", "folder", folderName, "error", err)
		writeJSON(writer, http.StatusOK, []store.CommitRecord{})
		return
	}
	writeJSON(writer, http.StatusOK, records)
}

// createResponse is the create reply body.
type createResponse struct {
	ID          int64  `json:"id"`
	FolderName  string `json:"folderName"`
	URL         string `json:"url"`
	Fingerprint string `json:"fingerprint"`
}

func (h *Handler) handleCreate(writer http.ResponseWriter, request *http.Request) {
	request.Body = http.MaxBytesReader(writer, request.Body, maxUploadBytes)
	if err := request.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(writer, http.StatusBadRequest, "invalid multipart body: "+err.Error())
		return
	}

	title := strings.TrimSpace(request.FormValue("title"))
	if title == "" {
		writeError(writer, http.StatusBadRequest, "title is required")
		return
	}
	folderName := catalog.FolderName(title)
	if folderName == "" {
		writeError(writer, http.StatusBadRequest, "title has no usable characters for a folder name")
		return
	}

	archiveFile, _, err := request.FormFile("archive")
	if err != nil {
		writeError(writer, http.StatusBadRequest, "archive file is required")
		return
	}
	defer archiveFile.Close()
	archiveBytes, err := io.ReadAll(archiveFile)
	if err != nil {
		writeError(writer, http.StatusBadRequest, "reading archive: "+err.Error())
		return
	}

	entries, fingerprint, err := archive.Extract(archiveBytes)
	if err != nil {
		writeError(writer, http.StatusBadRequest, "invalid archive: "+err.Error())
		return
	}

	overrideBytes, err := manifestOverride(request)
	if err != nil {
		writeError(writer, http.StatusBadRequest, "reading poc.json override: "+err.Error())
		return
	}

	// An archive may carry its own poc.json at the root. The generated
	// marker owns that path, so it is pulled out of the file set; absent
	// an explicit override part it becomes the override.
	kept := entries[:0]
	for _, entry := range entries {
		if entry.Path == catalog.MarkerFile {
			if overrideBytes == nil {
				overrideBytes = entry.Content
			}
			continue
		}
		kept = append(kept, entry)
	}
	entries = kept
	if len(entries) == 0 {
		writeError(writer, http.StatusBadRequest, "archive holds no project files")
		return
	}

	ctx := request.Context()
	exists, err := h.store.Exists(ctx, folderName)
	if err != nil {
		h.logger.Error("existence check failed", "folder", folderName, "error", err)
		writeError(writer, http.StatusBadGateway, "storage unavailable")
		return
	}
	if exists {
		writeError(writer, http.StatusConflict, "a project named "+folderName+" already exists")
		return
	}

	now := h.clock.Now()
	project := &catalog.Project{
		ID:          now.UnixMilli(),
		Title:       title,
		Description: strings.TrimSpace(request.FormValue("description")),
		Tags:        splitTags(request.FormValue("tags")),
		Difficulty:  catalog.Difficulty(request.FormValue("difficulty")),
		AuthorID:    request.FormValue("authorId"),
		AuthorName:  request.FormValue("authorName"),
		CreatedAt:   now.UnixMilli(),
		Updated:     now.Format("2006-01-02"),
		Icon:        request.FormValue("icon"),
		Fingerprint: fingerprint,
	}

	h.applyInsights(ctx, project, entries)

	// The uploader's manifest wins over form fields and generated
	// insights alike.
	if overrideBytes != nil {
		override, err := catalog.ParseMarker(overrideBytes)
		if err != nil {
			writeError(writer, http.StatusBadRequest, "invalid poc.json override: "+err.Error())
			return
		}
		project.MergeOverride(override)
	}
	project.ApplyDefaults()

	marker, err := catalog.EncodeMarker(project)
	if err != nil {
		h.logger.Error("encoding marker failed", "folder", folderName, "error", err)
		writeError(writer, http.StatusInternalServerError, "encoding project metadata")
		return
	}

	// One commit for the whole project, marker included: either the
	// project appears complete or it does not appear at all.
	files := make([]store.File, 0, len(entries)+1)
	for _, entry := range entries {
		files = append(files, store.File{Path: entry.Path, Content: entry.Content})
	}
	files = append(files, store.File{Path: catalog.MarkerFile, Content: marker})

	result, err := h.store.Create(ctx, folderName, files, "Add "+title)
	if err != nil {
		h.logger.Error("create failed", "folder", folderName, "error", err)
		writeError(writer, http.StatusBadGateway, "storing project: "+err.Error())
		return
	}
	h.cache.Invalidate()

	h.logger.Info("project created",
		"folder", folderName,
		"files", len(files),
		"commit", result.CommitSHA,
	)
	writeJSON(writer, http.StatusOK, createResponse{
		ID:          project.ID,
		FolderName:  folderName,
		URL:         result.URL,
		Fingerprint: fingerprint,
	})
}

// applyInsights runs the analyzer and merges whatever it produced into
// the project. Failure of any kind leaves the defaults in place.
func (h *Handler) applyInsights(ctx context.Context, project *catalog.Project, entries []archive.Entry) {
	analyzable := analyzer.AnalyzableFiles(entries)
	if len(analyzable) == 0 {
		return
	}

	analyzeCtx, cancel := context.WithTimeout(ctx, analyzeTimeout)
	defer cancel()

	insights, err := h.analyzer.Analyze(analyzeCtx, analyzable)
	if err != nil {
		if !errors.Is(err, analyzer.ErrDisabled) {
			h.logger.Warn("analysis failed, keeping defaults", "error", err)
		}
		return
	}

	project.Architecture = insights.Architecture
	project.LogicBreakdown = insights.LogicBreakdown
	project.Dependencies = insights.Dependencies
	project.HealthScore = insights.HealthScore
	project.BestPractices = insights.BestPractices
	if len(project.Tags) == 0 && len(insights.Tags) > 0 {
		project.Tags = insights.Tags
	}
	if derived := catalog.Difficulty(insights.Difficulty); derived.Valid() {
		project.Difficulty = derived
	}
}

func (h *Handler) handleDelete(writer http.ResponseWriter, request *http.Request) {
	folderName := request.URL.Query().Get("folderName")
	if folderName == "" {
		writeError(writer, http.StatusBadRequest, "folderName is required")
		return
	}

	if err := h.store.Delete(request.Context(), folderName); err != nil {
		h.logger.Error("delete failed", "folder", folderName, "error", err)
		writeError(writer, http.StatusBadGateway, "deleting project: "+err.Error())
		return
	}
	h.cache.Invalidate()

	h.logger.Info("project deleted", "folder", folderName)
	writeJSON(writer, http.StatusOK, map[string]string{"status": "deleted", "folderName": folderName})
}

// starRequest is the star mutation body.
type starRequest struct {
	FolderName string `json:"folderName"`
	Action     string `json:"action"` // "add" or "remove"
}

func (h *Handler) handleStar(writer http.ResponseWriter, request *http.Request) {
	var body starRequest
	if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
		writeError(writer, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.FolderName == "" {
		writeError(writer, http.StatusBadRequest, "folderName is required")
		return
	}
	if body.Action != "add" && body.Action != "remove" {
		writeError(writer, http.StatusBadRequest, "action must be add or remove")
		return
	}

	ctx := request.Context()
	project, err := h.store.GetMarker(ctx, body.FolderName)
	if errors.Is(err, store.ErrNoMarker) {
		writeError(writer, http.StatusNotFound, "no such project")
		return
	}
	if err != nil {
		h.logger.Error("star read failed", "folder", body.FolderName, "error", err)
		writeError(writer, http.StatusBadGateway, "reading project metadata")
		return
	}

	if body.Action == "add" {
		project.Stars++
	} else if project.Stars > 0 {
		project.Stars--
	}

	marker, err := catalog.EncodeMarker(project)
	if err != nil {
		writeError(writer, http.StatusInternalServerError, "encoding project metadata")
		return
	}
	_, err = h.store.Create(ctx, body.FolderName, []store.File{
		{Path: catalog.MarkerFile, Content: marker},
	}, "Update stars for "+body.FolderName)
	if err != nil {
		h.logger.Error("star write failed", "folder", body.FolderName, "error", err)
		writeError(writer, http.StatusBadGateway, "updating project metadata")
		return
	}
	h.cache.Invalidate()

	writeJSON(writer, http.StatusOK, map[string]any{
		"folderName": body.FolderName,
		"stars":      project.Stars,
	})
}

// manifestOverride reads the optional poc.json part of a create
// request, accepted as either a file part or a plain form value.
func manifestOverride(request *http.Request) ([]byte, error) {
	file, _, err := request.FormFile("pocJson")
	if err == nil {
		defer file.Close()
		return io.ReadAll(file)
	}
	if !errors.Is(err, http.ErrMissingFile) {
		return nil, err
	}
	if value := request.FormValue("pocJson"); value != "" {
		return []byte(value), nil
	}
	return nil, nil
}

func splitTags(raw string) []string {
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func writeJSON(writer http.ResponseWriter, status int, value any) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	json.NewEncoder(writer).Encode(value)
}

func writeError(writer http.ResponseWriter, status int, message string) {
	writeJSON(writer, status, map[string]string{"error": message})
}
