// Copyright 2026 The MuleRepo Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateBlob_Base64Encoding(t *testing.T) {
	var received struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}
	server := httptest.NewTLSServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/repos/octocat/pocs/git/blobs" {
			t.Errorf("path = %q", request.URL.Path)
		}
		if err := json.NewDecoder(request.Body).Decode(&received); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(http.StatusCreated)
		writer.Write([]byte(`{"sha":"abc123"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	sha, err := client.CreateBlob(context.Background(), "octocat", "pocs", []byte("<mule/>"))
	if err != nil {
		t.Fatalf("CreateBlob: %v", err)
	}
	if sha != "abc123" {
		t.Errorf("sha = %q, want %q", sha, "abc123")
	}
	if received.Encoding != "base64" {
		t.Errorf("encoding = %q, want base64", received.Encoding)
	}
	decoded, err := base64.StdEncoding.DecodeString(received.Content)
	if err != nil {
		t.Fatalf("decoding content: %v", err)
	}
	if string(decoded) != "<mule/>" {
		t.Errorf("content = %q, want %q", decoded, "<mule/>")
	}
}

func TestGetBlob_DecodesWrappedBase64(t *testing.T) {
	// GitHub wraps base64 blob content with newlines every 60 chars.
	encoded := base64.StdEncoding.EncodeToString([]byte("line one\nline two"))
	wrapped := encoded[:8] + "\n" + encoded[8:]

	server := httptest.NewTLSServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		response := map[string]string{
			"sha":      "abc123",
			"content":  wrapped,
			"encoding": "base64",
		}
		json.NewEncoder(writer).Encode(response)
	}))
	defer server.Close()

	client := newTestClient(t, server)
	content, err := client.GetBlob(context.Background(), "octocat", "pocs", "abc123")
	if err != nil {
		t.Fatalf("GetBlob: %v", err)
	}
	if string(content) != "line one\nline two" {
		t.Errorf("content = %q", content)
	}
}

func TestCreateTree_DeletionSerializesAsNullSHA(t *testing.T) {
	sha := "abc123"
	request := CreateTreeRequest{
		BaseTree: "base456",
		Entries: []CreateTreeEntry{
			{Path: "demo-flow/a.xml", Mode: "100644", Type: "blob", SHA: &sha},
			{Path: "old-flow/b.xml", Mode: "100644", Type: "blob", SHA: nil},
		},
	}

	data, err := json.Marshal(request)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}

	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(raw["tree"], &entries); err != nil {
		t.Fatalf("unmarshal entries: %v", err)
	}

	if string(entries[0]["sha"]) != `"abc123"` {
		t.Errorf("add entry sha = %s, want \"abc123\"", entries[0]["sha"])
	}
	// A tombstone entry must carry an explicit null, not omit the key.
	tombstoneSHA, present := entries[1]["sha"]
	if !present {
		t.Fatal("tombstone entry omits sha key")
	}
	if string(tombstoneSHA) != "null" {
		t.Errorf("tombstone sha = %s, want null", tombstoneSHA)
	}
}

func TestGetTree_Recursive(t *testing.T) {
	var receivedPath, receivedQuery string
	server := httptest.NewTLSServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		receivedPath = request.URL.Path
		receivedQuery = request.URL.RawQuery
		writer.Header().Set("Content-Type", "application/json")
		writer.Write([]byte(`{"sha":"t1","tree":[{"path":"demo-flow/poc.json","mode":"100644","type":"blob","sha":"b1"}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	tree, err := client.GetTree(context.Background(), "octocat", "pocs", "main", true)
	if err != nil {
		t.Fatalf("GetTree: %v", err)
	}
	if receivedPath != "/repos/octocat/pocs/git/trees/main" {
		t.Errorf("path = %q", receivedPath)
	}
	if receivedQuery != "recursive=1" {
		t.Errorf("query = %q", receivedQuery)
	}
	if len(tree.Entries) != 1 || tree.Entries[0].Path != "demo-flow/poc.json" {
		t.Errorf("entries = %+v", tree.Entries)
	}
}

func TestUpdateRef_PathAndBody(t *testing.T) {
	var receivedPath string
	var received struct {
		SHA   string `json:"sha"`
		Force bool   `json:"force"`
	}
	server := httptest.NewTLSServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		receivedPath = request.URL.Path
		if request.Method != http.MethodPatch {
			t.Errorf("method = %q, want PATCH", request.Method)
		}
		json.NewDecoder(request.Body).Decode(&received)
		writer.Header().Set("Content-Type", "application/json")
		writer.Write([]byte(`{"ref":"refs/heads/main","object":{"sha":"c9","type":"commit"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	ref, err := client.UpdateRef(context.Background(), "octocat", "pocs", "heads/main", "c9", false)
	if err != nil {
		t.Fatalf("UpdateRef: %v", err)
	}
	if receivedPath != "/repos/octocat/pocs/git/refs/heads/main" {
		t.Errorf("path = %q", receivedPath)
	}
	if received.SHA != "c9" || received.Force {
		t.Errorf("body = %+v", received)
	}
	if ref.Object.SHA != "c9" {
		t.Errorf("ref object sha = %q", ref.Object.SHA)
	}
}

func TestListCommits_PathFilter(t *testing.T) {
	var receivedQuery string
	server := httptest.NewTLSServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		receivedQuery = request.URL.RawQuery
		writer.Header().Set("Content-Type", "application/json")
		writer.Write([]byte(`[{"sha":"c1","commit":{"message":"Add demo\n\nDetails here","author":{"name":"Ana","date":"2026-01-02T03:04:05Z"}}}]`))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	commits, err := client.ListCommits(context.Background(), "octocat", "pocs", "demo-flow", 20)
	if err != nil {
		t.Fatalf("ListCommits: %v", err)
	}
	if receivedQuery != "per_page=20&path=demo-flow" {
		t.Errorf("query = %q", receivedQuery)
	}
	if len(commits) != 1 || commits[0].Commit.Author.Name != "Ana" {
		t.Errorf("commits = %+v", commits)
	}
}
