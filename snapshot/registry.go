// Copyright 2026 The Dtviz Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Registry caches one loaded Index per example for the life of the
// process. Subsequent growth of an example's files is deliberately not
// picked up: historical queries see the data as it was at first access.
//
// Safe for concurrent use.
type Registry struct {
	outputBase string
	logger     *slog.Logger

	mu      sync.Mutex
	indexes map[string]*Index
}

// NewRegistry creates a Registry over the output base directory (the
// one containing one subdirectory per example).
func NewRegistry(outputBase string, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		outputBase: outputBase,
		logger:     logger,
		indexes:    make(map[string]*Index),
	}
}

// Index returns the loaded Index for example, loading it on first
// access.
func (r *Registry) Index(example string) (*Index, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if index, ok := r.indexes[example]; ok {
		return index, nil
	}

	index := NewIndex(filepath.Join(r.outputBase, example), example, r.logger)
	if err := index.Load(); err != nil {
		return nil, err
	}
	r.indexes[example] = index
	return index, nil
}

// Examples returns the sorted names of examples that have produced at
// least a tick_summaries.csv under the output base. A missing output
// base yields an empty list.
func (r *Registry) Examples() []string {
	entries, err := os.ReadDir(r.outputBase)
	if err != nil {
		return nil
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		summaries := filepath.Join(r.outputBase, entry.Name(), "tick_summaries.csv")
		if _, err := os.Stat(summaries); err == nil {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names
}

// Preload loads the index for every discovered example. Called at
// startup so first queries are served from memory. Load failures are
// logged and skipped; the example stays loadable on demand.
func (r *Registry) Preload() {
	for _, example := range r.Examples() {
		if _, err := r.Index(example); err != nil {
			r.logger.Warn("preload failed", "example", example, "error", err)
		}
	}
}
