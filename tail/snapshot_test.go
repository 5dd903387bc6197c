// Copyright 2026 The Dtviz Authors
// SPDX-License-Identifier: Apache-2.0

package tail

import (
	"path/filepath"
	"testing"
)

const snapshotHeader = "agent_id,tick,departure_node,in_transit,destination_node\n"

func snapshotFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agent_snapshots.csv")
	appendTo(t, path, content)
	return path
}

func mustPollSnapshot(t *testing.T, tailer *SnapshotTickTailer) []int64 {
	t.Helper()
	ticks, err := tailer.Poll()
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	return ticks
}

func TestSnapshotTickEmittedOncePerSession(t *testing.T) {
	// Two rows with tick=3: exactly one snapshot signal, no matter
	// how many times the file is rescanned.
	path := snapshotFile(t, snapshotHeader+"0,3,10,1,20\n1,3,11,0,4294967295\n")
	tailer := NewSnapshotTickTailer(path)

	ticks := mustPollSnapshot(t, tailer)
	if len(ticks) != 1 || ticks[0] != 3 {
		t.Fatalf("first poll = %v, want [3]", ticks)
	}
	for i := 0; i < 3; i++ {
		if again := mustPollSnapshot(t, tailer); len(again) != 0 {
			t.Fatalf("repeat poll %d = %v, want none", i, again)
		}
	}
}

func TestSnapshotOutOfOrderTicksStillDetected(t *testing.T) {
	path := snapshotFile(t, snapshotHeader+"0,2,10,0,4294967295\n0,1,10,0,4294967295\n")
	tailer := NewSnapshotTickTailer(path)

	ticks := mustPollSnapshot(t, tailer)
	if len(ticks) != 2 || ticks[0] != 2 || ticks[1] != 1 {
		t.Fatalf("poll = %v, want [2 1] in first-row order", ticks)
	}

	// Rows for an older tick appended late are still a fresh key.
	appendTo(t, path, "1,0,12,1,13\n")
	ticks = mustPollSnapshot(t, tailer)
	if len(ticks) != 1 || ticks[0] != 0 {
		t.Fatalf("poll after late append = %v, want [0]", ticks)
	}
}

func TestSnapshotMissingFileIsNotAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent_snapshots.csv")
	tailer := NewSnapshotTickTailer(path)

	if ticks := mustPollSnapshot(t, tailer); len(ticks) != 0 {
		t.Fatalf("poll on missing file = %v", ticks)
	}
}

func TestSnapshotHeaderResolvesTickColumn(t *testing.T) {
	// Tick in a different position than the standard layout.
	path := snapshotFile(t, "tick,agent_id\n7,0\n7,1\n8,2\n")
	tailer := NewSnapshotTickTailer(path)

	ticks := mustPollSnapshot(t, tailer)
	if len(ticks) != 2 || ticks[0] != 7 || ticks[1] != 8 {
		t.Fatalf("poll = %v, want [7 8]", ticks)
	}
}

func TestSnapshotHeaderWithoutTickYieldsNothing(t *testing.T) {
	path := snapshotFile(t, "agent_id,node\n0,10\n")
	tailer := NewSnapshotTickTailer(path)

	if ticks := mustPollSnapshot(t, tailer); len(ticks) != 0 {
		t.Fatalf("poll = %v, want none for a file without a tick column", ticks)
	}
}

func TestSnapshotMalformedRowDropped(t *testing.T) {
	path := snapshotFile(t, snapshotHeader+"0,garbage,10,0,20\n0,5,10,0,20\n")
	tailer := NewSnapshotTickTailer(path)

	ticks := mustPollSnapshot(t, tailer)
	if len(ticks) != 1 || ticks[0] != 5 {
		t.Fatalf("poll = %v, want [5] with the bad row dropped", ticks)
	}
}

func TestSnapshotStrictParseSurfacesError(t *testing.T) {
	path := snapshotFile(t, snapshotHeader+"0,garbage,10,0,20\n")
	tailer := NewSnapshotTickTailer(path)
	tailer.StrictParse = true

	if _, err := tailer.Poll(); err == nil {
		t.Fatal("strict poll over a malformed row returned nil error")
	}
}
