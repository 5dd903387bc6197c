// Copyright 2026 The Dtviz Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// DefaultTickDurationSecs is the manifest fallback when the tick
// duration cannot be inferred from the summary file.
const DefaultTickDurationSecs = 3600

// Record is one agent snapshot row, keyed by column name. The known
// columns are coerced (ints for agent_id/tick/node ids, bool for
// in_transit); any other columns pass through verbatim as strings.
type Record map[string]any

// Manifest describes the historical data available for one example.
type Manifest struct {
	// AvailableTicks is the ascending list of ticks with at least
	// one snapshot row.
	AvailableTicks []int64 `json:"available_ticks"`

	// AgentCount is the row count of the earliest available tick.
	// The population is assumed uniform across ticks; this is an
	// explicit assumption, not a verified invariant.
	AgentCount int `json:"agent_count"`

	// TickDurationSecs is the difference between the first two
	// summary timestamps, or DefaultTickDurationSecs when that
	// cannot be derived.
	TickDurationSecs int64 `json:"tick_duration_secs"`
}

// Index is the loaded per-tick snapshot mapping for one example.
// Load once, then read freely: the index is immutable after Load and
// safe for concurrent readers.
type Index struct {
	example string
	dir     string
	logger  *slog.Logger

	loaded bool
	byTick map[int64][]Record
	ticks  []int64
}

// NewIndex creates an unloaded Index over the example output
// directory dir (the one containing agent_snapshots.csv).
func NewIndex(dir, example string, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Index{
		example: example,
		dir:     dir,
		logger:  logger,
		byTick:  make(map[int64][]Record),
	}
}

// Load parses the full historical file once, grouping rows by tick and
// preserving in-tick row order. An absent file loads an empty index —
// not an error. When the simulation wrote its optional SQLite backend
// (output.db), that is used instead of the CSV.
func (x *Index) Load() error {
	if x.loaded {
		return nil
	}

	dbPath := filepath.Join(x.dir, "output.db")
	if _, err := os.Stat(dbPath); err == nil {
		if err := x.loadSQLite(dbPath); err != nil {
			// Fall back to CSV rather than failing the example.
			x.logger.Warn("sqlite snapshot load failed, falling back to csv",
				"example", x.example,
				"error", err,
			)
		} else {
			x.finishLoad("sqlite")
			return nil
		}
	}

	if err := x.loadCSV(filepath.Join(x.dir, "agent_snapshots.csv")); err != nil {
		return err
	}
	x.finishLoad("csv")
	return nil
}

func (x *Index) finishLoad(source string) {
	x.ticks = make([]int64, 0, len(x.byTick))
	for tick := range x.byTick {
		x.ticks = append(x.ticks, tick)
	}
	sort.Slice(x.ticks, func(i, j int) bool { return x.ticks[i] < x.ticks[j] })
	x.loaded = true

	x.logger.Info("snapshot index loaded",
		"example", x.example,
		"source", source,
		"ticks", len(x.ticks),
	)
}

// loadCSV parses agent_snapshots.csv grouped by the header-resolved
// tick column. Rows whose tick does not parse cannot be grouped and
// are dropped.
func (x *Index) loadCSV(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		// Empty or unreadable file: same as absent.
		return nil
	}
	columns := make([]string, len(header))
	copy(columns, header)

	tickColumn := -1
	for i, name := range columns {
		if strings.TrimSpace(name) == "tick" {
			tickColumn = i
			break
		}
	}
	if tickColumn < 0 {
		return fmt.Errorf("%s: header has no tick column", path)
	}

	for {
		fields, err := reader.Read()
		if err != nil {
			// io.EOF and malformed trailing lines both end the scan.
			return nil
		}
		if tickColumn >= len(fields) {
			continue
		}
		tick, err := strconv.ParseInt(strings.TrimSpace(fields[tickColumn]), 10, 64)
		if err != nil {
			continue
		}

		record := make(Record, len(columns))
		for i, name := range columns {
			if i >= len(fields) {
				break
			}
			record[name] = coerceField(name, fields[i])
		}
		x.byTick[tick] = append(x.byTick[tick], record)
	}
}

// coerceField applies the typed coercions for the known snapshot
// columns; everything else passes through as the raw string.
func coerceField(name, value string) any {
	value = strings.TrimSpace(value)
	switch name {
	case "agent_id", "tick", "departure_node", "destination_node":
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	case "in_transit":
		switch value {
		case "1", "true", "True":
			return true
		case "0", "false", "False":
			return false
		}
	}
	return value
}

// Get returns the grouped rows for tick, in file row order. A tick
// that was never observed yields nil — a valid empty result, never an
// error.
func (x *Index) Get(tick int64) []Record {
	return x.byTick[tick]
}

// Has reports whether tick appears in the index.
func (x *Index) Has(tick int64) bool {
	_, ok := x.byTick[tick]
	return ok
}

// AvailableTicks returns the ascending tick list.
func (x *Index) AvailableTicks() []int64 {
	return x.ticks
}

// Manifest derives the summary metadata. Any failure while inferring
// the tick duration is absorbed and replaced by the default.
func (x *Index) Manifest() Manifest {
	agentCount := 0
	if len(x.ticks) > 0 {
		agentCount = len(x.byTick[x.ticks[0]])
	}
	return Manifest{
		AvailableTicks: x.ticks,
		AgentCount:     agentCount,
		TickDurationSecs: tickDuration(
			filepath.Join(x.dir, "tick_summaries.csv"),
			filepath.Join(x.dir, "output.db"),
		),
	}
}

// tickDuration infers the tick duration from the first two summary
// timestamp samples, trying the summary CSV and then the SQLite
// backend. Missing files, malformed rows, or fewer than two samples
// all yield the default.
func tickDuration(csvPath, dbPath string) int64 {
	if duration, ok := tickDurationFromCSV(csvPath); ok {
		return duration
	}
	if duration, ok := tickDurationFromSQLite(dbPath); ok {
		return duration
	}
	return DefaultTickDurationSecs
}

func tickDurationFromCSV(path string) (int64, bool) {
	file, err := os.Open(path)
	if err != nil {
		return 0, false
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return 0, false
	}
	timeColumn := -1
	for i, name := range header {
		if strings.TrimSpace(name) == "unix_time_secs" {
			timeColumn = i
			break
		}
	}
	if timeColumn < 0 {
		return 0, false
	}

	var samples []int64
	for len(samples) < 2 {
		fields, err := reader.Read()
		if err != nil {
			return 0, false
		}
		if timeColumn >= len(fields) {
			return 0, false
		}
		value, err := strconv.ParseInt(strings.TrimSpace(fields[timeColumn]), 10, 64)
		if err != nil {
			return 0, false
		}
		samples = append(samples, value)
	}
	return samples[1] - samples[0], true
}
