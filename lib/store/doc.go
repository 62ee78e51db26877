// Copyright 2026 The MuleRepo Authors
// SPDX-License-Identifier: Apache-2.0

// Package store treats one GitHub-hosted repository as a
// folder-per-project object store for the MuleRepo catalog.
//
// Writes go through the git data API's layered-commit path: upload
// blobs, build a tree on top of the current head listing only the
// delta, create one commit, move the branch ref. The ref update is the
// atomicity boundary — until it succeeds nothing is visible to
// readers, and a failure before it leaves only harmless unreferenced
// objects behind. Deletes work the same way with tombstone (null SHA)
// tree entries.
//
// Reads scan the branch tree for poc.json markers (Index), serve them
// through a TTL cache (ListingCache), and resolve per-folder detail
// (trees, file contents, commit history) on demand.
package store
