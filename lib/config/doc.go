// Copyright 2026 The MuleRepo Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the MuleRepo
// catalog service.
//
// Configuration is loaded from a single file specified by either the
// MULEREPO_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search. This ensures deterministic, auditable
// configuration with no hidden overrides.
//
// The two secrets are the exception: MULEREPO_GITHUB_TOKEN and
// MULEREPO_ANALYZER_KEY override github.token and analyzer.api_key so
// tokens never have to live on disk. No other environment variable
// overrides a config value.
//
// Key exports:
//
//   - [Config] -- master struct with GitHub, Cache, Analyzer
//   - [Default] -- returns a Config with the built-in defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other MuleRepo packages.
package config
