// Copyright 2026 The MuleRepo Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kavishworks45-design/mulerepo/lib/catalog"
	"github.com/kavishworks45-design/mulerepo/lib/github"
)

// ListAll scans the branch tree for catalog markers and returns every
// parseable project, newest first. Folders whose marker is missing or
// corrupt are logged and skipped rather than failing the whole
// listing. A store that was never bootstrapped lists as empty.
func (store *Store) ListAll(ctx context.Context) ([]catalog.Project, error) {
	owner, err := store.owner(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}

	repo, branch, err := store.repoBranch(ctx, owner)
	if github.IsNotFound(err) {
		return []catalog.Project{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
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
		return []catalog.Project{}, nil // repo exists but has no commits yet
	}
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	if tree.Truncated {
		store.logger.Warn("branch tree truncated by upstream, listing may be incomplete",
			"repo", store.config.RepoName,
			"entries", len(tree.Entries),
		)
	}

	type markerRef struct {
		folder string
		sha    string
	}
	var markers []markerRef
	suffix := "/" + catalog.MarkerFile
	for _, entry := range tree.Entries {
		if entry.Type != "blob" || !strings.HasSuffix(entry.Path, suffix) {
			continue
		}
		folder := strings.TrimSuffix(entry.Path, suffix)
		if strings.Contains(folder, "/") {
			continue // markers live only at folder depth one
		}
		markers = append(markers, markerRef{folder: folder, sha: entry.SHA})
	}
	if len(markers) == 0 {
		return []catalog.Project{}, nil
	}

	// Fetch markers concurrently into index-addressed slots: no result
	// channel ordering to worry about, and a failed slot stays nil.
	results := make([]*catalog.Project, len(markers))
	var waitGroup sync.WaitGroup
	for i, marker := range markers {
		waitGroup.Add(1)
		go func(i int, marker markerRef) {
			defer waitGroup.Done()

			var content []byte
			err := store.call(ctx, "read marker "+marker.folder, func(ctx context.Context) error {
				blob, err := store.api.GetBlob(ctx, owner, repo.Name, marker.sha)
				if err != nil {
					return err
				}
				content = blob
				return nil
			})
			if err != nil {
				store.logger.Warn("skipping folder: marker unreadable",
					"folder", marker.folder,
					"error", err,
				)
				return
			}

			project, err := catalog.ParseMarker(content)
			if err != nil {
				store.logger.Warn("skipping folder: marker corrupt",
					"folder", marker.folder,
					"error", err,
				)
				return
			}
			project.ApplyDefaults()
			project.FolderName = marker.folder
			project.URL = repo.HTMLURL + "/tree/" + branch + "/" + marker.folder
			results[i] = project
		}(i, marker)
	}
	waitGroup.Wait()

	projects := make([]catalog.Project, 0, len(results))
	for _, project := range results {
		if project != nil {
			projects = append(projects, *project)
		}
	}
	sort.Slice(projects, func(a, b int) bool {
		if projects[a].CreatedAt != projects[b].CreatedAt {
			return projects[a].CreatedAt > projects[b].CreatedAt
		}
		return projects[a].FolderName < projects[b].FolderName
	})
	return projects, nil
}
