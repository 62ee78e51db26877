// Copyright 2026 The MuleRepo Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"context"
	"fmt"
	"net/url"
)

// Viewer returns the user the access token authenticates as. The
// store calls this once to resolve the owner segment of repository
// paths.
func (client *Client) Viewer(ctx context.Context) (*User, error) {
	var user User
	if err := client.get(ctx, "/user", &user); err != nil {
		return nil, fmt.Errorf("resolving token owner: %w", err)
	}
	return &user, nil
}

// GetRepo fetches a repository by owner and name. A repository that
// does not exist surfaces as an *APIError with status 404
// (IsNotFound) — for the catalog this is the expected first-run state,
// not a failure.
func (client *Client) GetRepo(ctx context.Context, owner, name string) (*Repository, error) {
	var repo Repository
	path := fmt.Sprintf("/repos/%s/%s", owner, name)
	if err := client.get(ctx, path, &repo); err != nil {
		return nil, err
	}
	return &repo, nil
}

// CreateRepo creates a repository under the authenticated user. The
// repository is auto-initialized so it has a default branch with an
// initial commit — the store's layered-tree commit path needs a head
// to build on.
//
// GitHub's repository creation is eventually consistent: the git data
// API may 404 for a short window after this call returns. Callers
// should wait briefly before the first write.
func (client *Client) CreateRepo(ctx context.Context, name, description string, private bool) (*Repository, error) {
	request := struct {
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
		Private     bool   `json:"private"`
		AutoInit    bool   `json:"auto_init"`
	}{Name: name, Description: description, Private: private, AutoInit: true}

	var repo Repository
	if err := client.post(ctx, "/user/repos", request, &repo); err != nil {
		return nil, fmt.Errorf("creating repository %s: %w", name, err)
	}
	return &repo, nil
}

// GetBranchHead returns the commit SHA a branch currently points to.
func (client *Client) GetBranchHead(ctx context.Context, owner, repo, branch string) (string, error) {
	var ref Ref
	path := fmt.Sprintf("/repos/%s/%s/git/ref/heads/%s", owner, repo, branch)
	if err := client.get(ctx, path, &ref); err != nil {
		return "", err
	}
	return ref.Object.SHA, nil
}

// ListCommits returns the most recent commits touching the given path,
// newest first. Pass an empty path for repository-wide history. The
// catalog reads a single page — per-folder history is short and the
// detail view only shows recent activity.
func (client *Client) ListCommits(ctx context.Context, owner, repo, path string, perPage int) ([]RepoCommit, error) {
	if perPage <= 0 {
		perPage = 30
	}
	endpoint := fmt.Sprintf("/repos/%s/%s/commits?per_page=%d", owner, repo, perPage)
	if path != "" {
		endpoint += "&path=" + url.QueryEscape(path)
	}

	var commits []RepoCommit
	if err := client.get(ctx, endpoint, &commits); err != nil {
		return nil, err
	}
	return commits, nil
}
