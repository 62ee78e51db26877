// Copyright 2026 The MuleRepo Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"time"

	"github.com/kavishworks45-design/mulerepo/lib/github"
	"github.com/kavishworks45-design/mulerepo/lib/retry"
)

// API is the slice of the GitHub client the store uses. *github.Client
// implements it; tests substitute an in-memory upstream with real git
// semantics.
type API interface {
	Viewer(ctx context.Context) (*github.User, error)
	GetRepo(ctx context.Context, owner, name string) (*github.Repository, error)
	CreateRepo(ctx context.Context, name, description string, private bool) (*github.Repository, error)
	GetBranchHead(ctx context.Context, owner, repo, branch string) (string, error)
	GetTree(ctx context.Context, owner, repo, ref string, recursive bool) (*github.Tree, error)
	CreateBlob(ctx context.Context, owner, repo string, content []byte) (string, error)
	GetBlob(ctx context.Context, owner, repo, sha string) ([]byte, error)
	CreateTree(ctx context.Context, owner, repo string, request github.CreateTreeRequest) (*github.Tree, error)
	GetCommit(ctx context.Context, owner, repo, sha string) (*github.Commit, error)
	CreateCommit(ctx context.Context, owner, repo string, request github.CreateCommitRequest) (*github.Commit, error)
	UpdateRef(ctx context.Context, owner, repo, ref, sha string, force bool) (*github.Ref, error)
	ListCommits(ctx context.Context, owner, repo, path string, perPage int) ([]github.RepoCommit, error)
}

// Config holds store configuration. The zero value is usable; missing
// fields are filled by withDefaults.
type Config struct {
	// RepoName is the upstream repository holding every catalog
	// folder. Created on demand on the first write.
	RepoName string

	// Branch is the branch writes target when the repository has no
	// default branch recorded yet.
	Branch string

	// Private marks the repository private when the store bootstraps
	// it.
	Private bool

	// Description is the repository description used at bootstrap.
	Description string

	// SettleDelay is how long to wait after creating the repository
	// before the first write. GitHub's repo creation is eventually
	// consistent: the git data API can 404 for a short window after
	// creation returns.
	SettleDelay time.Duration

	// CallTimeout bounds each individual remote call.
	CallTimeout time.Duration

	// Retry is the per-call retry schedule for write-path operations.
	Retry retry.Policy

	// HistoryLimit is the maximum number of commits returned per
	// folder history request.
	HistoryLimit int
}

// withDefaults returns config with unset fields filled.
func (config Config) withDefaults() Config {
	if config.RepoName == "" {
		config.RepoName = "mulerepo-pocs"
	}
	if config.Branch == "" {
		config.Branch = "main"
	}
	if config.Description == "" {
		config.Description = "MuleRepo proof-of-concept catalog storage"
	}
	if config.SettleDelay == 0 {
		config.SettleDelay = 2 * time.Second
	}
	if config.CallTimeout == 0 {
		config.CallTimeout = 60 * time.Second
	}
	if config.Retry.Attempts == 0 {
		config.Retry = retry.DefaultPolicy()
	}
	if config.Retry.Retryable == nil {
		config.Retry.Retryable = github.IsTransient
	}
	if config.HistoryLimit == 0 {
		config.HistoryLimit = 30
	}
	return config
}

// File is one file to write into a folder.
type File struct {
	// Path is relative to the folder root, slash-separated.
	Path string

	// Content is the raw file bytes.
	Content []byte
}

// CreateResult reports where a successful create landed.
type CreateResult struct {
	// URL is the browse URL of the folder on the upstream host.
	URL string

	// RepoID is the upstream repository's numeric id.
	RepoID int64

	// CommitSHA is the commit that made the files visible.
	CommitSHA string
}
