// Copyright 2026 The MuleRepo Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers for MuleRepo
// binaries. It centralizes the one legitimate raw I/O pattern that
// exists before the structured logger: fatal error reporting to stderr
// from main(). All other output in the service goes through slog.
package process
