// Copyright 2026 The MuleRepo Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kavishworks45-design/mulerepo/lib/github"
)

// FolderEntry is one file or directory inside a project folder, with
// paths relative to the folder root.
type FolderEntry struct {
	Path string `json:"path"`
	Type string `json:"type"` // "blob" or "tree"
	SHA  string `json:"sha"`
	Size int64  `json:"size,omitempty"`
}

// CommitRecord is one entry of a folder's commit history, flattened
// for catalog consumers.
type CommitRecord struct {
	SHA      string    `json:"sha"`
	ShortSHA string    `json:"shortSha"`
	Date     time.Time `json:"date"`
	Author   string    `json:"author"`
	Message  string    `json:"message"`
	Changes  []string  `json:"changes"`
	URL      string    `json:"url,omitempty"`
}

// GetFolderTree lists the contents of folderName, recursively, sorted
// by path. An unknown folder returns an empty listing.
func (store *Store) GetFolderTree(ctx context.Context, folderName string) ([]FolderEntry, error) {
	if err := validateFolderName(folderName); err != nil {
		return nil, err
	}

	owner, err := store.owner(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: tree %s: %w", folderName, err)
	}

	repo, branch, err := store.repoBranch(ctx, owner)
	if github.IsNotFound(err) {
		return []FolderEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: tree %s: %w", folderName, err)
	}

	var tree *github.Tree
	err = store.call(ctx, "list tree", func(ctx context.Context) error {
		fetched, err := store.api.GetTree(ctx, owner, repo.Name, branch, true)
		if err != nil {
			return err
		}
		tree = fetched
		return nil
	})
	if github.IsNotFound(err) {
		return []FolderEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: tree %s: %w", folderName, err)
	}

	prefix := folderName + "/"
	entries := make([]FolderEntry, 0, 16)
	for _, entry := range tree.Entries {
		if !strings.HasPrefix(entry.Path, prefix) {
			continue
		}
		entries = append(entries, FolderEntry{
			Path: strings.TrimPrefix(entry.Path, prefix),
			Type: entry.Type,
			SHA:  entry.SHA,
			Size: entry.Size,
		})
	}
	sort.Slice(entries, func(a, b int) bool { return entries[a].Path < entries[b].Path })
	return entries, nil
}

// GetFileContent fetches a blob's raw bytes by SHA.
func (store *Store) GetFileContent(ctx context.Context, sha string) ([]byte, error) {
	if sha == "" {
		return nil, fmt.Errorf("store: file content: empty sha")
	}

	owner, err := store.owner(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: file content: %w", err)
	}

	var content []byte
	err = store.call(ctx, "read blob", func(ctx context.Context) error {
		fetched, err := store.api.GetBlob(ctx, owner, store.config.RepoName, sha)
		if err != nil {
			return err
		}
		content = fetched
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: file content %s: %w", sha, err)
	}
	return content, nil
}

// GetCommitHistory returns the commits touching folderName, newest
// first, up to the configured history limit. An unknown folder returns
// an empty history.
func (store *Store) GetCommitHistory(ctx context.Context, folderName string) ([]CommitRecord, error) {
	if err := validateFolderName(folderName); err != nil {
		return nil, err
	}

	owner, err := store.owner(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: history %s: %w", folderName, err)
	}

	var commits []github.RepoCommit
	err = store.call(ctx, "list commits", func(ctx context.Context) error {
		fetched, err := store.api.ListCommits(ctx, owner, store.config.RepoName, folderName, store.config.HistoryLimit)
		if err != nil {
			return err
		}
		commits = fetched
		return nil
	})
	if github.IsNotFound(err) {
		return []CommitRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: history %s: %w", folderName, err)
	}

	records := make([]CommitRecord, 0, len(commits))
	for _, commit := range commits {
		records = append(records, commitRecord(commit))
	}
	return records, nil
}

// commitRecord flattens one upstream commit listing entry. The first
// message line is the headline; remaining non-empty lines become the
// change list.
func commitRecord(commit github.RepoCommit) CommitRecord {
	record := CommitRecord{
		SHA:    commit.SHA,
		Date:   commit.Commit.Author.Date,
		Author: commit.Commit.Author.Name,
		URL:    commit.HTMLURL,
	}
	if len(commit.SHA) >= 7 {
		record.ShortSHA = commit.SHA[:7]
	} else {
		record.ShortSHA = commit.SHA
	}
	if commit.Author != nil && commit.Author.Login != "" {
		record.Author = commit.Author.Login
	}

	lines := strings.Split(commit.Commit.Message, "\n")
	record.Message = strings.TrimSpace(lines[0])
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		record.Changes = append(record.Changes, strings.TrimPrefix(line, "- "))
	}
	return record
}
