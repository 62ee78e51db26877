// Copyright 2026 The MuleRepo Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"log/slog"
	"testing"
)

// testLogger routes structured log output through t.Logf so it shows
// up attached to the failing test.
func testLogger(t *testing.T) *slog.Logger {
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type testWriter struct {
	t *testing.T
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Logf("%s", p)
	return len(p), nil
}
