// Copyright 2026 The MuleRepo Authors
// SPDX-License-Identifier: Apache-2.0

// mulerepo-catalog-service is the MuleRepo catalog backend. It exposes
// the /api/pocs HTTP surface and stores every project as a folder in
// one GitHub-hosted repository, using the git data API for atomic
// multi-file commits.
//
// Configuration comes from a single YAML file (MULEREPO_CONFIG or
// --config); the GitHub token and analyzer key may instead be supplied
// via MULEREPO_GITHUB_TOKEN and MULEREPO_ANALYZER_KEY.
package main
