// Copyright 2026 The Dtviz Authors
// SPDX-License-Identifier: Apache-2.0

// Package tail incrementally reads the growing CSV files the
// simulation writes while it runs.
//
// Two strategies cover the two output files:
//
//   - SummaryTailer reads tick_summaries.csv with a tracked byte
//     offset. Rows there are strictly append-ordered, so each poll
//     returns only the bytes past the previous offset, split into
//     complete lines.
//
//   - SnapshotTickTailer reads agent_snapshots.csv by full rescan with
//     a set of already-emitted tick keys, because rows for one tick may
//     land in any file order. A tick is reported exactly once per
//     tailer, the first time any of its rows is observed.
//
// Both strategies treat a missing file and any read error as "no new
// data this cycle", never as a failure. Malformed rows are dropped and
// the cursor still advances past them — an accepted data-loss edge
// case. StrictParse turns that drop into a returned error for callers
// that prefer to abort.
//
// Tailer state is per streaming session and never shared: concurrent
// sessions over the same files each own their cursors.
package tail
