// Copyright 2026 The MuleRepo Authors
// SPDX-License-Identifier: Apache-2.0

package github

import "time"

// User is a GitHub user. The catalog resolves the token's owner via
// the viewer endpoint to address repositories as owner/name.
type User struct {
	Login   string `json:"login"`
	ID      int64  `json:"id"`
	HTMLURL string `json:"html_url"`
}

// Repository is a GitHub repository. The catalog uses exactly one,
// created on demand the first time a project is uploaded.
type Repository struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Private       bool   `json:"private"`
	DefaultBranch string `json:"default_branch"`
	HTMLURL       string `json:"html_url"`
}

// Blob is a git blob object as returned by the git data API. Content
// is base64-encoded when Encoding is "base64".
type Blob struct {
	SHA      string `json:"sha"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	Size     int64  `json:"size"`
}

// Tree is a git tree object.
type Tree struct {
	SHA       string      `json:"sha"`
	Truncated bool        `json:"truncated"`
	Entries   []TreeEntry `json:"tree"`
}

// TreeEntry is a single entry in a git tree.
type TreeEntry struct {
	Path string `json:"path"`
	Mode string `json:"mode"` // "100644", "100755", "120000", "160000", "040000"
	Type string `json:"type"` // "blob", "tree", "commit"
	SHA  string `json:"sha"`
	Size int64  `json:"size,omitempty"`
}

// Commit is a git commit object from the git data API.
type Commit struct {
	SHA     string       `json:"sha"`
	Message string       `json:"message"`
	Tree    CommitTree   `json:"tree"`
	Parents []CommitRef  `json:"parents"`
	HTMLURL string       `json:"html_url"`
	Author  CommitAuthor `json:"author"`
}

// CommitTree is a reference to the tree in a commit.
type CommitTree struct {
	SHA string `json:"sha"`
}

// CommitRef is a reference to a parent commit.
type CommitRef struct {
	SHA string `json:"sha"`
}

// CommitAuthor is the author/committer metadata on a commit.
type CommitAuthor struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Date  time.Time `json:"date"`
}

// Ref is a git reference (branch or tag).
type Ref struct {
	Ref    string    `json:"ref"` // "refs/heads/main"
	Object RefObject `json:"object"`
}

// RefObject is the object a ref points to.
type RefObject struct {
	SHA  string `json:"sha"`
	Type string `json:"type"` // "commit"
}

// RepoCommit is an entry from the repository commits listing endpoint
// (GET /repos/{owner}/{repo}/commits). Its shape differs from the git
// data API Commit: the message and author live under a nested "commit"
// object.
type RepoCommit struct {
	SHA     string           `json:"sha"`
	Commit  RepoCommitDetail `json:"commit"`
	HTMLURL string           `json:"html_url"`
	Author  *User            `json:"author"`
}

// RepoCommitDetail is the nested commit metadata in a RepoCommit.
type RepoCommitDetail struct {
	Message string       `json:"message"`
	Author  CommitAuthor `json:"author"`
}
