// Copyright 2026 The MuleRepo Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kavishworks45-design/mulerepo/lib/github"
)

// fakeUpstream is an in-memory GitHub with real git data semantics:
// layered trees, tombstone deletion, fast-forward-only ref updates.
// Tests inject failures per method to exercise the store's retry and
// atomicity behavior.
type fakeUpstream struct {
	mu sync.Mutex

	login string
	repos map[string]*github.Repository

	blobs   map[string][]byte
	trees   map[string]map[string]github.TreeEntry // tree sha -> path -> entry
	commits map[string]*github.Commit
	refs    map[string]string // branch -> commit sha

	// changes records which paths each commit touched relative to its
	// first parent, for the commit listing's path filter.
	changes map[string][]string

	nextID int
	now    time.Time

	calls    map[string]int
	failures map[string]*injectedFailure

	// onBeforeUpdateRef runs before each ref update, outside the lock.
	// Tests use it to move the branch underneath a pending commit.
	onBeforeUpdateRef func()
}

type injectedFailure struct {
	remaining int
	status    int
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{
		login:    "octocat",
		repos:    make(map[string]*github.Repository),
		blobs:    make(map[string][]byte),
		trees:    make(map[string]map[string]github.TreeEntry),
		commits:  make(map[string]*github.Commit),
		refs:     make(map[string]string),
		changes:  make(map[string][]string),
		now:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		calls:    make(map[string]int),
		failures: make(map[string]*injectedFailure),
	}
}

// failNext makes the next count calls to method fail with the given
// HTTP status.
func (u *fakeUpstream) failNext(method string, count, status int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.failures[method] = &injectedFailure{remaining: count, status: status}
}

func (u *fakeUpstream) callCount(method string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls[method]
}

// enter must be called with the lock held.
func (u *fakeUpstream) enter(method string) error {
	u.calls[method]++
	if failure := u.failures[method]; failure != nil && failure.remaining > 0 {
		failure.remaining--
		return &github.APIError{StatusCode: failure.status, Message: "injected failure"}
	}
	return nil
}

func (u *fakeUpstream) newSHA(kind string) string {
	u.nextID++
	return fmt.Sprintf("%s-%04d", kind, u.nextID)
}

func (u *fakeUpstream) tick() time.Time {
	u.now = u.now.Add(time.Minute)
	return u.now
}

func notFound(what string) error {
	return &github.APIError{StatusCode: 404, Message: what + " not found"}
}

func (u *fakeUpstream) Viewer(ctx context.Context) (*github.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.enter("Viewer"); err != nil {
		return nil, err
	}
	return &github.User{Login: u.login, ID: 1}, nil
}

func (u *fakeUpstream) GetRepo(ctx context.Context, owner, name string) (*github.Repository, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.enter("GetRepo"); err != nil {
		return nil, err
	}
	repo, ok := u.repos[name]
	if !ok {
		return nil, notFound("repository")
	}
	copied := *repo
	return &copied, nil
}

func (u *fakeUpstream) CreateRepo(ctx context.Context, name, description string, private bool) (*github.Repository, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.enter("CreateRepo"); err != nil {
		return nil, err
	}
	repo := u.initRepo(name, "main", private)
	copied := *repo
	return &copied, nil
}

// seedRepo installs a pre-existing repository, bypassing the create
// path. Tests use it to start from a repository whose default branch
// is not the one the store would bootstrap.
func (u *fakeUpstream) seedRepo(name, defaultBranch string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.initRepo(name, defaultBranch, true)
}

// initRepo must be called with the lock held. auto_init semantics: an
// empty tree under an initial commit on the default branch.
func (u *fakeUpstream) initRepo(name, defaultBranch string, private bool) *github.Repository {
	repo := &github.Repository{
		ID:            int64(1000 + len(u.repos)),
		Name:          name,
		FullName:      u.login + "/" + name,
		Private:       private,
		DefaultBranch: defaultBranch,
		HTMLURL:       "https://github.example/" + u.login + "/" + name,
	}
	u.repos[name] = repo

	treeSHA := u.newSHA("tree")
	u.trees[treeSHA] = map[string]github.TreeEntry{}
	commitSHA := u.newSHA("commit")
	u.commits[commitSHA] = &github.Commit{
		SHA:     commitSHA,
		Message: "Initial commit",
		Tree:    github.CommitTree{SHA: treeSHA},
		Author:  github.CommitAuthor{Name: u.login, Date: u.tick()},
	}
	u.refs[defaultBranch] = commitSHA
	return repo
}

func (u *fakeUpstream) GetBranchHead(ctx context.Context, owner, repo, branch string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.enter("GetBranchHead"); err != nil {
		return "", err
	}
	sha, ok := u.refs[branch]
	if !ok {
		return "", notFound("ref")
	}
	return sha, nil
}

func (u *fakeUpstream) GetTree(ctx context.Context, owner, repo, ref string, recursive bool) (*github.Tree, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.enter("GetTree"); err != nil {
		return nil, err
	}

	treeSHA := ref
	if headSHA, ok := u.refs[ref]; ok {
		treeSHA = u.commits[headSHA].Tree.SHA
	}
	flat, ok := u.trees[treeSHA]
	if !ok {
		return nil, notFound("tree")
	}

	tree := &github.Tree{SHA: treeSHA}
	for _, entry := range flat {
		tree.Entries = append(tree.Entries, entry)
	}
	sort.Slice(tree.Entries, func(a, b int) bool {
		return tree.Entries[a].Path < tree.Entries[b].Path
	})
	return tree, nil
}

func (u *fakeUpstream) CreateBlob(ctx context.Context, owner, repo string, content []byte) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.enter("CreateBlob"); err != nil {
		return "", err
	}
	sha := u.newSHA("blob")
	u.blobs[sha] = append([]byte(nil), content...)
	return sha, nil
}

func (u *fakeUpstream) GetBlob(ctx context.Context, owner, repo, sha string) ([]byte, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.enter("GetBlob"); err != nil {
		return nil, err
	}
	content, ok := u.blobs[sha]
	if !ok {
		return nil, notFound("blob")
	}
	return append([]byte(nil), content...), nil
}

func (u *fakeUpstream) CreateTree(ctx context.Context, owner, repo string, request github.CreateTreeRequest) (*github.Tree, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.enter("CreateTree"); err != nil {
		return nil, err
	}

	flat := make(map[string]github.TreeEntry)
	if request.BaseTree != "" {
		base, ok := u.trees[request.BaseTree]
		if !ok {
			return nil, notFound("base tree")
		}
		for path, entry := range base {
			flat[path] = entry
		}
	}
	for _, entry := range request.Entries {
		if entry.SHA == nil {
			delete(flat, entry.Path) // tombstone
			continue
		}
		flat[entry.Path] = github.TreeEntry{
			Path: entry.Path,
			Mode: entry.Mode,
			Type: entry.Type,
			SHA:  *entry.SHA,
			Size: int64(len(u.blobs[*entry.SHA])),
		}
	}

	sha := u.newSHA("tree")
	u.trees[sha] = flat
	return &github.Tree{SHA: sha}, nil
}

func (u *fakeUpstream) GetCommit(ctx context.Context, owner, repo, sha string) (*github.Commit, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.enter("GetCommit"); err != nil {
		return nil, err
	}
	commit, ok := u.commits[sha]
	if !ok {
		return nil, notFound("commit")
	}
	copied := *commit
	return &copied, nil
}

func (u *fakeUpstream) CreateCommit(ctx context.Context, owner, repo string, request github.CreateCommitRequest) (*github.Commit, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.enter("CreateCommit"); err != nil {
		return nil, err
	}

	sha := u.newSHA("commit")
	commit := &github.Commit{
		SHA:     sha,
		Message: request.Message,
		Tree:    github.CommitTree{SHA: request.Tree},
		Author:  github.CommitAuthor{Name: u.login, Date: u.tick()},
	}
	for _, parent := range request.Parents {
		commit.Parents = append(commit.Parents, github.CommitRef{SHA: parent})
	}
	u.commits[sha] = commit
	u.changes[sha] = u.diffAgainstParent(commit)
	return commit, nil
}

// diffAgainstParent lists the paths added, changed, or removed by a
// commit relative to its first parent.
func (u *fakeUpstream) diffAgainstParent(commit *github.Commit) []string {
	current := u.trees[commit.Tree.SHA]
	parent := map[string]github.TreeEntry{}
	if len(commit.Parents) > 0 {
		parent = u.trees[u.commits[commit.Parents[0].SHA].Tree.SHA]
	}

	touched := map[string]bool{}
	for path, entry := range current {
		if before, ok := parent[path]; !ok || before.SHA != entry.SHA {
			touched[path] = true
		}
	}
	for path := range parent {
		if _, ok := current[path]; !ok {
			touched[path] = true
		}
	}

	paths := make([]string, 0, len(touched))
	for path := range touched {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func (u *fakeUpstream) UpdateRef(ctx context.Context, owner, repo, ref, sha string, force bool) (*github.Ref, error) {
	u.mu.Lock()
	hook := u.onBeforeUpdateRef
	u.onBeforeUpdateRef = nil
	u.mu.Unlock()
	if hook != nil {
		hook()
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.enter("UpdateRef"); err != nil {
		return nil, err
	}

	branch := strings.TrimPrefix(ref, "heads/")
	commit, ok := u.commits[sha]
	if !ok {
		return nil, notFound("commit")
	}
	if !force {
		head := u.refs[branch]
		if len(commit.Parents) == 0 || commit.Parents[0].SHA != head {
			return nil, &github.APIError{StatusCode: 409, Message: "update is not a fast forward"}
		}
	}
	u.refs[branch] = sha
	return &github.Ref{
		Ref:    "refs/" + ref,
		Object: github.RefObject{SHA: sha, Type: "commit"},
	}, nil
}

func (u *fakeUpstream) ListCommits(ctx context.Context, owner, repo, path string, perPage int) ([]github.RepoCommit, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.enter("ListCommits"); err != nil {
		return nil, err
	}

	var listed []github.RepoCommit
	var sha string
	if r, ok := u.repos[repo]; ok {
		sha = u.refs[r.DefaultBranch]
	}
	for sha != "" && len(listed) < perPage {
		commit := u.commits[sha]
		if path == "" || touchesPath(u.changes[sha], path) {
			listed = append(listed, github.RepoCommit{
				SHA: commit.SHA,
				Commit: github.RepoCommitDetail{
					Message: commit.Message,
					Author:  commit.Author,
				},
				HTMLURL: "https://github.example/" + u.login + "/" + repo + "/commit/" + commit.SHA,
				Author:  &github.User{Login: u.login},
			})
		}
		if len(commit.Parents) == 0 {
			break
		}
		sha = commit.Parents[0].SHA
	}
	return listed, nil
}

func touchesPath(changed []string, path string) bool {
	for _, p := range changed {
		if p == path || strings.HasPrefix(p, path+"/") {
			return true
		}
	}
	return false
}
