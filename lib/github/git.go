// Copyright 2026 The MuleRepo Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
)

// CreateTreeRequest contains the fields for creating a git tree via
// the GitHub API. This is the middle step of the API-mediated commit
// path: blobs → tree → commit → ref update.
type CreateTreeRequest struct {
	// BaseTree is the SHA of the tree to layer changes onto. With a
	// base tree, the request only needs to list the delta — every
	// unlisted path in the base persists untouched. This is what makes
	// one shared repository safe to use as a folder-per-project store:
	// a commit for one folder cannot disturb another folder's files.
	BaseTree string `json:"base_tree,omitempty"`

	// Entries are the tree entries to create, replace, or delete.
	Entries []CreateTreeEntry `json:"tree"`
}

// CreateTreeEntry describes a single entry in a tree creation request.
type CreateTreeEntry struct {
	// Path is the file path relative to the repository root.
	Path string `json:"path"`

	// Mode is the file mode: "100644" (regular), "100755"
	// (executable), "120000" (symlink), "040000" (directory).
	Mode string `json:"mode"`

	// Type is the object type: "blob" or "tree".
	Type string `json:"type"`

	// SHA is the blob SHA for a pre-uploaded blob, or nil to delete
	// the path from the base tree. The field is deliberately not
	// omitempty: a deletion must serialize as an explicit JSON null.
	SHA *string `json:"sha"`
}

// CreateCommitRequest contains the fields for creating a git commit
// via the GitHub API.
type CreateCommitRequest struct {
	// Message is the commit message.
	Message string `json:"message"`

	// Tree is the SHA of the tree object for this commit.
	Tree string `json:"tree"`

	// Parents are the SHAs of the parent commits.
	Parents []string `json:"parents"`
}

// CreateBlob uploads content as a git blob and returns its SHA. The
// content is base64-encoded on the wire so binary project files
// (images, keystores) survive intact.
func (client *Client) CreateBlob(ctx context.Context, owner, repo string, content []byte) (string, error) {
	request := struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}{
		Content:  base64.StdEncoding.EncodeToString(content),
		Encoding: "base64",
	}

	var blob Blob
	path := fmt.Sprintf("/repos/%s/%s/git/blobs", owner, repo)
	if err := client.post(ctx, path, request, &blob); err != nil {
		return "", fmt.Errorf("creating blob in %s/%s: %w", owner, repo, err)
	}
	return blob.SHA, nil
}

// GetBlob fetches a blob by SHA and returns its decoded content.
func (client *Client) GetBlob(ctx context.Context, owner, repo, sha string) ([]byte, error) {
	var blob Blob
	path := fmt.Sprintf("/repos/%s/%s/git/blobs/%s", owner, repo, sha)
	if err := client.get(ctx, path, &blob); err != nil {
		return nil, err
	}

	if blob.Encoding != "base64" {
		return []byte(blob.Content), nil
	}

	// GitHub inserts newlines into base64 blob content.
	decoded, err := base64.StdEncoding.DecodeString(stripNewlines(blob.Content))
	if err != nil {
		return nil, fmt.Errorf("decoding blob %s: %w", sha, err)
	}
	return decoded, nil
}

// GetTree fetches a tree by SHA or by a tree-ish reference (a branch
// name works and saves the ref-resolution round trip). With recursive
// set, all nested entries are returned in a single flat listing.
func (client *Client) GetTree(ctx context.Context, owner, repo, ref string, recursive bool) (*Tree, error) {
	path := fmt.Sprintf("/repos/%s/%s/git/trees/%s", owner, repo, url.PathEscape(ref))
	if recursive {
		path += "?recursive=1"
	}

	var tree Tree
	if err := client.get(ctx, path, &tree); err != nil {
		return nil, err
	}
	return &tree, nil
}

// CreateTree creates a git tree object in a repository.
func (client *Client) CreateTree(ctx context.Context, owner, repo string, request CreateTreeRequest) (*Tree, error) {
	var tree Tree
	path := fmt.Sprintf("/repos/%s/%s/git/trees", owner, repo)
	if err := client.post(ctx, path, request, &tree); err != nil {
		return nil, fmt.Errorf("creating tree in %s/%s: %w", owner, repo, err)
	}
	return &tree, nil
}

// GetCommit fetches a git commit object by SHA. The store uses this to
// resolve a branch head commit to its tree, which CreateTree needs as
// the base.
func (client *Client) GetCommit(ctx context.Context, owner, repo, sha string) (*Commit, error) {
	var commit Commit
	path := fmt.Sprintf("/repos/%s/%s/git/commits/%s", owner, repo, sha)
	if err := client.get(ctx, path, &commit); err != nil {
		return nil, err
	}
	return &commit, nil
}

// CreateCommit creates a git commit object in a repository.
func (client *Client) CreateCommit(ctx context.Context, owner, repo string, request CreateCommitRequest) (*Commit, error) {
	var commit Commit
	path := fmt.Sprintf("/repos/%s/%s/git/commits", owner, repo)
	if err := client.post(ctx, path, request, &commit); err != nil {
		return nil, fmt.Errorf("creating commit in %s/%s: %w", owner, repo, err)
	}
	return &commit, nil
}

// UpdateRef updates a git reference (branch) to point to a new commit.
// The ref should be the full ref path without the "refs/" prefix
// (e.g., "heads/main" — GitHub's API adds it). This is the only
// operation that changes what readers see: blobs, trees, and commits
// created earlier are unreferenced until the ref moves.
func (client *Client) UpdateRef(ctx context.Context, owner, repo, ref, sha string, force bool) (*Ref, error) {
	request := struct {
		SHA   string `json:"sha"`
		Force bool   `json:"force"`
	}{SHA: sha, Force: force}

	var result Ref
	path := fmt.Sprintf("/repos/%s/%s/git/refs/%s", owner, repo, ref)
	if err := client.patch(ctx, path, request, &result); err != nil {
		return nil, fmt.Errorf("updating ref %s in %s/%s: %w", ref, owner, repo, err)
	}
	return &result, nil
}

// stripNewlines removes the line breaks GitHub inserts into
// base64-encoded blob content.
func stripNewlines(s string) string {
	result := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' || s[i] == '\r' {
			continue
		}
		result = append(result, s[i])
	}
	return string(result)
}
