// Copyright 2026 The Dtviz Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// loadSQLite fills the index from the simulation's optional SQLite
// backend. The agent_snapshots table carries the same columns as the
// CSV; rowid order preserves insertion order, matching CSV row order.
func (x *Index) loadSQLite(path string) error {
	conn, err := sqlite.OpenConn(path, sqlite.OpenReadOnly)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer conn.Close()

	err = sqlitex.Execute(conn,
		`SELECT agent_id, tick, departure_node, in_transit, destination_node
		   FROM agent_snapshots ORDER BY rowid`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				tick := stmt.ColumnInt64(1)
				record := Record{
					"agent_id":         stmt.ColumnInt64(0),
					"tick":             tick,
					"departure_node":   stmt.ColumnInt64(2),
					"in_transit":       stmt.ColumnInt64(3) != 0,
					"destination_node": stmt.ColumnInt64(4),
				}
				x.byTick[tick] = append(x.byTick[tick], record)
				return nil
			},
		})
	if err != nil {
		// A partial load must not leave half an example in memory.
		x.byTick = make(map[int64][]Record)
		return fmt.Errorf("reading agent_snapshots from %s: %w", path, err)
	}
	return nil
}

// tickDurationFromSQLite samples the first two summary timestamps from
// the tick_summaries table.
func tickDurationFromSQLite(path string) (int64, bool) {
	conn, err := sqlite.OpenConn(path, sqlite.OpenReadOnly)
	if err != nil {
		return 0, false
	}
	defer conn.Close()

	var samples []int64
	err = sqlitex.Execute(conn,
		`SELECT unix_time_secs FROM tick_summaries ORDER BY tick LIMIT 2`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				samples = append(samples, stmt.ColumnInt64(0))
				return nil
			},
		})
	if err != nil || len(samples) < 2 {
		return 0, false
	}
	return samples[1] - samples[0], true
}
