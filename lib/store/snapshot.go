// Copyright 2026 The MuleRepo Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/kavishworks45-design/mulerepo/lib/codec"
)

// Snapshot persistence: the listing cache can be written to disk at
// shutdown and seeded back at startup, so a restart does not begin
// with an empty catalog if upstream happens to be down. The format is
// deterministic CBOR wrapped in zstd.

// SaveSnapshot writes snapshot to path, creating parent directories as
// needed. The write goes through a temp file and rename so a crash
// never leaves a half-written snapshot behind.
func SaveSnapshot(path string, snapshot *Snapshot) error {
	encoded, err := codec.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("store: encoding snapshot: %w", err)
	}

	writer, err := zstd.NewWriter(nil)
	if err != nil {
		return fmt.Errorf("store: zstd writer: %w", err)
	}
	compressed := writer.EncodeAll(encoded, nil)
	writer.Close()

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("store: creating snapshot directory: %w", err)
	}

	temp := path + ".tmp"
	if err := os.WriteFile(temp, compressed, 0o600); err != nil {
		return fmt.Errorf("store: writing snapshot: %w", err)
	}
	if err := os.Rename(temp, path); err != nil {
		os.Remove(temp)
		return fmt.Errorf("store: installing snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a snapshot written by SaveSnapshot. A missing
// file returns (nil, nil): no snapshot is a normal first-run state,
// not an error.
func LoadSnapshot(path string) (*Snapshot, error) {
	compressed, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: reading snapshot: %w", err)
	}

	reader, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("store: zstd reader: %w", err)
	}
	defer reader.Close()

	encoded, err := reader.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("store: decompressing snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := codec.Unmarshal(encoded, &snapshot); err != nil {
		return nil, fmt.Errorf("store: decoding snapshot: %w", err)
	}
	return &snapshot, nil
}
