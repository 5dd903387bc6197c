// Copyright 2026 The Dtviz Authors
// SPDX-License-Identifier: Apache-2.0

package tail

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func summaryFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tick_summaries.csv")
	if content != "" {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("writing fixture: %v", err)
		}
	}
	return path
}

func appendTo(t *testing.T, path, content string) {
	t.Helper()
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("opening for append: %v", err)
	}
	defer file.Close()
	if _, err := file.WriteString(content); err != nil {
		t.Fatalf("appending: %v", err)
	}
}

func mustPollSummary(t *testing.T, tailer *SummaryTailer) []TickRow {
	t.Helper()
	rows, err := tailer.Poll()
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	return rows
}

func TestSummaryFirstPollReturnsAllRows(t *testing.T) {
	path := summaryFile(t, "tick,unix_time_secs,woken_agents\n1,100,5\n2,101,7\n")
	tailer := NewSummaryTailer(path)

	rows := mustPollSummary(t, tailer)
	want := []TickRow{
		{Tick: 1, UnixTimeSecs: 100, WokenAgents: 5},
		{Tick: 2, UnixTimeSecs: 101, WokenAgents: 7},
	}
	if len(rows) != len(want) {
		t.Fatalf("first poll returned %d rows, want %d", len(rows), len(want))
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Fatalf("row %d = %+v, want %+v", i, rows[i], want[i])
		}
	}

	// Idempotence: no growth between polls, no rows on the second.
	if again := mustPollSummary(t, tailer); len(again) != 0 {
		t.Fatalf("second poll with unchanged file returned %d rows", len(again))
	}
}

func TestSummaryReturnsOnlyAppendedRows(t *testing.T) {
	path := summaryFile(t, "tick,unix_time_secs,woken_agents\n1,100,5\n")
	tailer := NewSummaryTailer(path)

	mustPollSummary(t, tailer)
	appendTo(t, path, "2,101,7\n3,102,9\n")

	rows := mustPollSummary(t, tailer)
	if len(rows) != 2 || rows[0].Tick != 2 || rows[1].Tick != 3 {
		t.Fatalf("poll after append = %+v, want ticks [2 3]", rows)
	}
}

func TestSummaryMissingFileIsNotAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tick_summaries.csv")
	tailer := NewSummaryTailer(path)

	if rows := mustPollSummary(t, tailer); len(rows) != 0 {
		t.Fatalf("poll on missing file returned %d rows", len(rows))
	}

	// The file showing up later is picked up from the start.
	appendTo(t, path, "tick,unix_time_secs,woken_agents\n1,100,5\n")
	rows := mustPollSummary(t, tailer)
	if len(rows) != 1 || rows[0].Tick != 1 {
		t.Fatalf("poll after creation = %+v, want tick 1", rows)
	}
}

func TestSummaryHeaderOnlyFileYieldsNothing(t *testing.T) {
	path := summaryFile(t, "tick,unix_time_secs,woken_agents\n")
	tailer := NewSummaryTailer(path)

	if rows := mustPollSummary(t, tailer); len(rows) != 0 {
		t.Fatalf("header-only poll returned %d rows", len(rows))
	}
}

func TestSummaryPartialTrailingLineWaits(t *testing.T) {
	path := summaryFile(t, "tick,unix_time_secs,woken_agents\n1,100,5\n2,10")
	tailer := NewSummaryTailer(path)

	rows := mustPollSummary(t, tailer)
	if len(rows) != 1 || rows[0].Tick != 1 {
		t.Fatalf("poll with partial trailing line = %+v, want just tick 1", rows)
	}

	// Completing the line delivers the row on the next poll.
	appendTo(t, path, "1,7\n")
	rows = mustPollSummary(t, tailer)
	if len(rows) != 1 || (rows[0] != TickRow{Tick: 2, UnixTimeSecs: 101, WokenAgents: 7}) {
		t.Fatalf("poll after completing line = %+v, want tick 2", rows)
	}
}

func TestSummaryMalformedRowDroppedSilently(t *testing.T) {
	path := summaryFile(t, "tick,unix_time_secs,woken_agents\n1,100,5\nnot,a,row\n3,102,9\n")
	tailer := NewSummaryTailer(path)

	rows := mustPollSummary(t, tailer)
	if len(rows) != 2 || rows[0].Tick != 1 || rows[1].Tick != 3 {
		t.Fatalf("rows = %+v, want ticks [1 3] with the bad row dropped", rows)
	}

	// The cursor advanced past the bad row: it is never retried.
	if again := mustPollSummary(t, tailer); len(again) != 0 {
		t.Fatalf("second poll returned %d rows", len(again))
	}
}

func TestSummaryStrictParseSurfacesError(t *testing.T) {
	path := summaryFile(t, "tick,unix_time_secs,woken_agents\n1,100,5\nnot,a,row\n")
	tailer := NewSummaryTailer(path)
	tailer.StrictParse = true

	rows, err := tailer.Poll()
	if err == nil {
		t.Fatal("strict poll over a malformed row returned nil error")
	}
	if len(rows) != 1 || rows[0].Tick != 1 {
		t.Fatalf("strict poll rows = %+v, want the row before the error", rows)
	}
}

func TestSummaryMonotonicAcrossManyPolls(t *testing.T) {
	path := summaryFile(t, "tick,unix_time_secs,woken_agents\n")
	tailer := NewSummaryTailer(path)

	var got []int64
	for i := 0; i < 5; i++ {
		appendTo(t, path, "")
		appendTo(t, path, rowsFor(i))
		for _, row := range mustPollSummary(t, tailer) {
			got = append(got, row.Tick)
		}
	}

	if len(got) != 10 {
		t.Fatalf("emitted %d rows, want 10", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i] < got[i-1] {
			t.Fatalf("tick sequence not non-decreasing: %v", got)
		}
	}
}

// rowsFor builds two appended rows per iteration with increasing ticks.
func rowsFor(i int) string {
	base := int64(i * 2)
	return formatRow(base) + formatRow(base+1)
}

func formatRow(tick int64) string {
	return fmt.Sprintf("%d,%d,4\n", tick, 3600+tick)
}
