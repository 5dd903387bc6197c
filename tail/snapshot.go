// Copyright 2026 The Dtviz Authors
// SPDX-License-Identifier: Apache-2.0

package tail

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// SnapshotTickTailer reports each tick value the first time a row for
// it appears in agent_snapshots.csv. Rows for one tick are written in
// bursts but tick values are not guaranteed to appear in file order,
// so every poll rescans the whole file and dedups against the set of
// ticks already emitted.
//
// Not safe for concurrent use; each streaming session owns its own
// tailer.
type SnapshotTickTailer struct {
	path string
	seen map[int64]struct{}

	// tickColumn is the resolved index of the "tick" column, -1
	// until the header has been read.
	tickColumn int

	// StrictParse makes Poll return the first malformed row as an
	// error instead of dropping it.
	StrictParse bool
}

// NewSnapshotTickTailer creates a tailer for the agent-snapshot file
// at path. The file does not need to exist yet.
func NewSnapshotTickTailer(path string) *SnapshotTickTailer {
	return &SnapshotTickTailer{
		path:       path,
		seen:       make(map[int64]struct{}),
		tickColumn: -1,
	}
}

// Poll returns the tick keys newly observed since the previous poll,
// in first-row order. A tick is returned at most once over the tailer's
// lifetime no matter how many of its rows appear or how often the file
// is rescanned. A missing file or a read error yields zero ticks and a
// nil error.
func (t *SnapshotTickTailer) Poll() ([]int64, error) {
	data, err := os.ReadFile(t.path)
	if err != nil {
		return nil, nil
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) < 2 {
		return nil, nil
	}

	if t.tickColumn < 0 {
		t.tickColumn = resolveTickColumn(lines[0])
	}
	if t.tickColumn < 0 {
		// Header carries no tick column: nothing this file can emit.
		return nil, nil
	}

	var fresh []int64
	for _, line := range lines[1:] {
		fields := strings.Split(line, ",")
		if t.tickColumn >= len(fields) {
			if t.StrictParse {
				return fresh, fmt.Errorf("snapshot row has %d fields, tick column is %d", len(fields), t.tickColumn)
			}
			continue
		}
		tick, err := strconv.ParseInt(strings.TrimSpace(fields[t.tickColumn]), 10, 64)
		if err != nil {
			if t.StrictParse {
				return fresh, fmt.Errorf("snapshot row: bad tick %q", fields[t.tickColumn])
			}
			continue
		}
		if _, dup := t.seen[tick]; dup {
			continue
		}
		t.seen[tick] = struct{}{}
		fresh = append(fresh, tick)
	}
	return fresh, nil
}

// resolveTickColumn finds the "tick" column in a CSV header line.
// Returns -1 when the header does not name one.
func resolveTickColumn(header string) int {
	for i, name := range strings.Split(header, ",") {
		if strings.TrimSpace(name) == "tick" {
			return i
		}
	}
	return -1
}
