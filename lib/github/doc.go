// Copyright 2026 The MuleRepo Authors
// SPDX-License-Identifier: Apache-2.0

// Package github provides a typed Go client for the slice of the
// GitHub REST API the catalog store depends on: viewer lookup,
// repository bootstrap, and the git data API (blobs, trees, commits,
// refs) used to write and read catalog folders.
//
// The client authenticates with a personal access token. It handles
// rate limiting (X-RateLimit-* headers with automatic backoff),
// conditional requests (ETags), and structured error mapping: a 404
// surfaces as an *APIError recognizable via IsNotFound, which callers
// treat as control flow (a repository that does not exist yet, an
// empty catalog) and never retry.
//
// All requests are made over HTTPS. The client refuses non-HTTPS base
// URLs.
package github
