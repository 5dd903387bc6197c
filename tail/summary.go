// Copyright 2026 The Dtviz Authors
// SPDX-License-Identifier: Apache-2.0

package tail

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// TickRow is one parsed tick_summaries.csv data row.
type TickRow struct {
	Tick         int64 `json:"tick"`
	UnixTimeSecs int64 `json:"unix_time_secs"`
	WokenAgents  int64 `json:"woken_agents"`
}

// SummaryTailer returns newly appended tick-summary rows on each poll.
// It keeps a byte offset into the file and only reads past it, so a
// long-running session never re-reads the whole file. The first
// complete line is consumed once as the header.
//
// Not safe for concurrent use; each streaming session owns its own
// tailer.
type SummaryTailer struct {
	path string

	// offset is the number of bytes fully consumed, always pointing
	// just past a newline (a partially written trailing line is left
	// for the next poll).
	offset int64

	headerSkipped bool

	// StrictParse makes Poll return the first malformed row as an
	// error instead of dropping it.
	StrictParse bool
}

// NewSummaryTailer creates a tailer for the tick-summary file at path.
// The file does not need to exist yet.
func NewSummaryTailer(path string) *SummaryTailer {
	return &SummaryTailer{path: path}
}

// Poll returns the data rows appended since the previous poll, in file
// order. A missing file or a read error yields zero rows and a nil
// error; the offset is only advanced past bytes that were actually
// consumed.
func (t *SummaryTailer) Poll() ([]TickRow, error) {
	chunk, ok := t.readNew()
	if !ok {
		return nil, nil
	}

	var rows []TickRow
	for _, line := range chunk {
		if !t.headerSkipped {
			t.headerSkipped = true
			continue
		}
		row, err := parseTickRow(line)
		if err != nil {
			if t.StrictParse {
				return rows, err
			}
			// Malformed row: dropped, cursor already advanced.
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// readNew reads complete lines past the current offset and advances
// the offset over them. ok is false when there is nothing new.
func (t *SummaryTailer) readNew() (lines []string, ok bool) {
	file, err := os.Open(t.path)
	if err != nil {
		return nil, false
	}
	defer file.Close()

	if _, err := file.Seek(t.offset, io.SeekStart); err != nil {
		return nil, false
	}
	data, err := io.ReadAll(file)
	if err != nil || len(data) == 0 {
		return nil, false
	}

	// Only consume up to the last newline; a trailing partial line is
	// still being written and stays for the next poll.
	end := strings.LastIndexByte(string(data), '\n')
	if end < 0 {
		return nil, false
	}
	t.offset += int64(end + 1)

	complete := string(data[:end])
	return strings.Split(complete, "\n"), true
}

// parseTickRow parses "tick,unix_time_secs,woken_agents[,...]".
// Extra columns are ignored.
func parseTickRow(line string) (TickRow, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 3 {
		return TickRow{}, fmt.Errorf("tick summary row has %d fields, want at least 3", len(fields))
	}

	tick, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
	if err != nil {
		return TickRow{}, fmt.Errorf("tick summary row: bad tick %q", fields[0])
	}
	unixTime, err := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64)
	if err != nil {
		return TickRow{}, fmt.Errorf("tick summary row: bad unix_time_secs %q", fields[1])
	}
	woken, err := strconv.ParseInt(strings.TrimSpace(fields[2]), 10, 64)
	if err != nil {
		return TickRow{}, fmt.Errorf("tick summary row: bad woken_agents %q", fields[2])
	}

	return TickRow{Tick: tick, UnixTimeSecs: unixTime, WokenAgents: woken}, nil
}
