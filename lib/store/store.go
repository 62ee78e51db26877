// Copyright 2026 The MuleRepo Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"

	"github.com/kavishworks45-design/mulerepo/lib/catalog"
	"github.com/kavishworks45-design/mulerepo/lib/clock"
	"github.com/kavishworks45-design/mulerepo/lib/github"
	"github.com/kavishworks45-design/mulerepo/lib/retry"
)

// ErrNoMarker is returned when a folder exists without a catalog
// marker, or does not exist at all.
var ErrNoMarker = errors.New("store: folder has no catalog marker")

// blobMode is the tree entry mode for regular files. The store never
// writes executables or symlinks.
const blobMode = "100644"

// Store is the repository-backed object store. All mutations funnel
// through one commit path and are serialized by a per-Store mutex;
// reads are lock-free.
type Store struct {
	api    API
	clock  clock.Clock
	logger *slog.Logger
	config Config

	// writeMu serializes Create and Delete. Two concurrent writers
	// would read the same branch head and race at ref update; the
	// upstream would reject one as non-fast-forward. Serializing in
	// process avoids burning the conflict retry on our own races.
	writeMu sync.Mutex

	// ownerMu guards the cached token owner.
	ownerMu     sync.Mutex
	cachedOwner string
}

// New creates a Store over the given upstream API.
func New(api API, clk clock.Clock, logger *slog.Logger, config Config) *Store {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		api:    api,
		clock:  clk,
		logger: logger,
		config: config.withDefaults(),
	}
}

// call runs one remote operation under the store's retry policy, with
// a fresh per-attempt timeout.
func (store *Store) call(ctx context.Context, operation string, fn func(context.Context) error) error {
	return retry.Do(ctx, store.clock, store.config.Retry, operation, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, store.config.CallTimeout)
		defer cancel()
		return fn(callCtx)
	})
}

// owner resolves and caches the login the access token authenticates
// as.
func (store *Store) owner(ctx context.Context) (string, error) {
	store.ownerMu.Lock()
	defer store.ownerMu.Unlock()

	if store.cachedOwner != "" {
		return store.cachedOwner, nil
	}

	var user *github.User
	err := store.call(ctx, "resolve owner", func(ctx context.Context) error {
		resolved, err := store.api.Viewer(ctx)
		if err != nil {
			return err
		}
		user = resolved
		return nil
	})
	if err != nil {
		return "", err
	}

	store.cachedOwner = user.Login
	return user.Login, nil
}

// ensureRepo fetches the catalog repository, creating it on first use.
// A freshly created repository gets a settle delay before the caller's
// first git data call — creation is eventually consistent upstream.
func (store *Store) ensureRepo(ctx context.Context, owner string) (*github.Repository, error) {
	var repo *github.Repository
	err := store.call(ctx, "get repository", func(ctx context.Context) error {
		fetched, err := store.api.GetRepo(ctx, owner, store.config.RepoName)
		if err != nil {
			return err
		}
		repo = fetched
		return nil
	})
	if err == nil {
		return repo, nil
	}
	if !github.IsNotFound(err) {
		return nil, err
	}

	// First write ever: bootstrap the repository. Auto-init gives it
	// a default branch with an initial commit to layer onto.
	store.logger.Info("bootstrapping catalog repository",
		"repo", store.config.RepoName,
		"private", store.config.Private,
	)
	err = store.call(ctx, "create repository", func(ctx context.Context) error {
		created, err := store.api.CreateRepo(ctx, store.config.RepoName, store.config.Description, store.config.Private)
		if err != nil {
			return err
		}
		repo = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	store.clock.Sleep(store.config.SettleDelay)
	return repo, nil
}

// branchFor picks the branch to read and write: the repository's
// recorded default branch when known, the configured branch otherwise.
func (store *Store) branchFor(repo *github.Repository) string {
	if repo.DefaultBranch != "" {
		return repo.DefaultBranch
	}
	return store.config.Branch
}

// repoBranch fetches the catalog repository and resolves its branch.
// Every read and write path goes through this (or ensureRepo) so that
// a pre-existing repository with a different default branch is seen
// consistently. NotFound propagates for callers to map to their empty
// state.
func (store *Store) repoBranch(ctx context.Context, owner string) (*github.Repository, string, error) {
	var repo *github.Repository
	err := store.call(ctx, "get repository", func(ctx context.Context) error {
		fetched, err := store.api.GetRepo(ctx, owner, store.config.RepoName)
		if err != nil {
			return err
		}
		repo = fetched
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return repo, store.branchFor(repo), nil
}

// Create writes files into folderName as one atomic commit. Existing
// files elsewhere in the repository are untouched; existing files at
// the same paths are replaced. Nothing is visible to readers unless
// the whole operation succeeds.
func (store *Store) Create(ctx context.Context, folderName string, files []File, message string) (*CreateResult, error) {
	if err := validateFolderName(folderName); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("store: create %s: no files", folderName)
	}

	store.writeMu.Lock()
	defer store.writeMu.Unlock()

	owner, err := store.owner(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: create %s: %w", folderName, err)
	}

	repo, err := store.ensureRepo(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("store: create %s: %w", folderName, err)
	}
	branch := store.branchFor(repo)

	// Upload blobs sequentially: bounded concurrent load upstream,
	// and a partial failure leaves a simple story (everything before
	// the failing file is an orphaned blob, nothing is visible).
	entries := make([]github.CreateTreeEntry, 0, len(files))
	for _, file := range files {
		relPath, err := cleanRelativePath(file.Path)
		if err != nil {
			return nil, fmt.Errorf("store: create %s: %w", folderName, err)
		}

		content := file.Content
		var blobSHA string
		err = store.call(ctx, "create blob "+relPath, func(ctx context.Context) error {
			sha, err := store.api.CreateBlob(ctx, owner, repo.Name, content)
			if err != nil {
				return err
			}
			blobSHA = sha
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("store: create %s: uploading %s: %w", folderName, relPath, err)
		}

		sha := blobSHA
		entries = append(entries, github.CreateTreeEntry{
			Path: folderName + "/" + relPath,
			Mode: blobMode,
			Type: "blob",
			SHA:  &sha,
		})
	}

	commitSHA, err := store.commitEntries(ctx, owner, repo.Name, branch, entries, message)
	if err != nil {
		return nil, fmt.Errorf("store: create %s: %w", folderName, err)
	}

	store.logger.Info("folder committed",
		"folder", folderName,
		"files", len(files),
		"commit", commitSHA,
	)

	return &CreateResult{
		URL:       repo.HTMLURL + "/tree/" + branch + "/" + folderName,
		RepoID:    repo.ID,
		CommitSHA: commitSHA,
	}, nil
}

// Delete removes every file under folderName as one atomic commit.
// Deleting a folder that does not exist (or a store that was never
// bootstrapped) succeeds as a no-op.
func (store *Store) Delete(ctx context.Context, folderName string) error {
	if err := validateFolderName(folderName); err != nil {
		return err
	}

	store.writeMu.Lock()
	defer store.writeMu.Unlock()

	owner, err := store.owner(ctx)
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", folderName, err)
	}

	repo, branch, err := store.repoBranch(ctx, owner)
	if github.IsNotFound(err) {
		return nil // never bootstrapped: nothing to delete
	}
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", folderName, err)
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
		return nil
	}
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", folderName, err)
	}

	// Tombstone every blob under the folder: a null SHA in a layered
	// tree removes the path.
	prefix := folderName + "/"
	var entries []github.CreateTreeEntry
	for _, entry := range tree.Entries {
		if entry.Type != "blob" {
			continue
		}
		if entry.Path != folderName && !strings.HasPrefix(entry.Path, prefix) {
			continue
		}
		entries = append(entries, github.CreateTreeEntry{
			Path: entry.Path,
			Mode: blobMode,
			Type: "blob",
			SHA:  nil,
		})
	}
	if len(entries) == 0 {
		return nil // idempotent: already gone
	}

	commitSHA, err := store.commitEntries(ctx, owner, repo.Name, branch, entries, "Remove "+folderName)
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", folderName, err)
	}

	store.logger.Info("folder removed",
		"folder", folderName,
		"paths", len(entries),
		"commit", commitSHA,
	)
	return nil
}

// commitEntries runs the tree → commit → ref-update tail of a
// mutation. On a non-fast-forward ref rejection (someone else moved
// the branch between our head read and ref update) it re-reads the
// head and reapplies the delta once — blob SHAs stay valid across
// rebuilds, so only the cheap steps repeat.
func (store *Store) commitEntries(ctx context.Context, owner, repoName, branch string, entries []github.CreateTreeEntry, message string) (string, error) {
	const conflictRetries = 1

	for attempt := 0; ; attempt++ {
		var headSHA string
		err := store.call(ctx, "read branch head", func(ctx context.Context) error {
			sha, err := store.api.GetBranchHead(ctx, owner, repoName, branch)
			if err != nil {
				return err
			}
			headSHA = sha
			return nil
		})
		if err != nil {
			return "", err
		}

		var baseTreeSHA string
		err = store.call(ctx, "resolve base tree", func(ctx context.Context) error {
			commit, err := store.api.GetCommit(ctx, owner, repoName, headSHA)
			if err != nil {
				return err
			}
			baseTreeSHA = commit.Tree.SHA
			return nil
		})
		if err != nil {
			return "", err
		}

		var treeSHA string
		err = store.call(ctx, "create tree", func(ctx context.Context) error {
			tree, err := store.api.CreateTree(ctx, owner, repoName, github.CreateTreeRequest{
				BaseTree: baseTreeSHA,
				Entries:  entries,
			})
			if err != nil {
				return err
			}
			treeSHA = tree.SHA
			return nil
		})
		if err != nil {
			return "", err
		}

		var commitSHA string
		err = store.call(ctx, "create commit", func(ctx context.Context) error {
			commit, err := store.api.CreateCommit(ctx, owner, repoName, github.CreateCommitRequest{
				Message: message,
				Tree:    treeSHA,
				Parents: []string{headSHA},
			})
			if err != nil {
				return err
			}
			commitSHA = commit.SHA
			return nil
		})
		if err != nil {
			return "", err
		}

		err = store.call(ctx, "update ref", func(ctx context.Context) error {
			_, err := store.api.UpdateRef(ctx, owner, repoName, "heads/"+branch, commitSHA, false)
			return err
		})
		if err == nil {
			return commitSHA, nil
		}
		if github.IsConflict(err) && attempt < conflictRetries {
			store.logger.Warn("ref update conflict, rebuilding on new head",
				"branch", branch,
				"attempt", attempt+1,
			)
			continue
		}
		return "", err
	}
}

// Exists reports whether folderName holds a catalog marker.
func (store *Store) Exists(ctx context.Context, folderName string) (bool, error) {
	_, err := store.markerEntry(ctx, folderName)
	if errors.Is(err, ErrNoMarker) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetMarker fetches and parses folderName's catalog marker. Returns
// ErrNoMarker when the folder has none.
func (store *Store) GetMarker(ctx context.Context, folderName string) (*catalog.Project, error) {
	entry, err := store.markerEntry(ctx, folderName)
	if err != nil {
		return nil, err
	}

	owner, err := store.owner(ctx)
	if err != nil {
		return nil, err
	}

	content, err := store.api.GetBlob(ctx, owner, store.config.RepoName, entry.SHA)
	if err != nil {
		return nil, fmt.Errorf("store: reading marker for %s: %w", folderName, err)
	}

	project, err := catalog.ParseMarker(content)
	if err != nil {
		return nil, fmt.Errorf("store: marker for %s: %w", folderName, err)
	}
	project.ApplyDefaults()
	project.FolderName = folderName
	return project, nil
}

// markerEntry locates folderName's marker in the branch tree.
func (store *Store) markerEntry(ctx context.Context, folderName string) (*github.TreeEntry, error) {
	if err := validateFolderName(folderName); err != nil {
		return nil, err
	}

	owner, err := store.owner(ctx)
	if err != nil {
		return nil, err
	}

	repo, branch, err := store.repoBranch(ctx, owner)
	if github.IsNotFound(err) {
		return nil, ErrNoMarker
	}
	if err != nil {
		return nil, fmt.Errorf("store: resolving repository: %w", err)
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
		return nil, ErrNoMarker
	}
	if err != nil {
		return nil, fmt.Errorf("store: listing tree: %w", err)
	}

	markerPath := folderName + "/" + catalog.MarkerFile
	for _, entry := range tree.Entries {
		if entry.Path == markerPath && entry.Type == "blob" {
			found := entry
			return &found, nil
		}
	}
	return nil, ErrNoMarker
}

// validateFolderName rejects folder names that could escape the
// folder-per-project layout.
func validateFolderName(folderName string) error {
	if folderName == "" {
		return errors.New("store: folder name is empty")
	}
	if strings.Contains(folderName, "/") {
		return fmt.Errorf("store: folder name %q contains a slash", folderName)
	}
	if folderName == "." || folderName == ".." {
		return fmt.Errorf("store: folder name %q is reserved", folderName)
	}
	return nil
}

// cleanRelativePath normalizes a file path inside a folder and rejects
// anything that would climb out of it.
func cleanRelativePath(filePath string) (string, error) {
	cleaned := path.Clean(strings.ReplaceAll(filePath, `\`, "/"))
	if cleaned == "." || cleaned == "" {
		return "", errors.New("empty file path")
	}
	if strings.HasPrefix(cleaned, "/") || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("file path %q escapes the folder", filePath)
	}
	return cleaned, nil
}
