// Package store keeps an append-only SQLite log of rule snapshots per font.
//
// Each save appends one row keyed by (font_id, seq). The row id is the
// content hash of the snapshot (ir.SnapshotID), so saving a table identical
// to the font's latest snapshot is a no-op. Ordering uses logical sequence
// numbers, never timestamps:
//
//   - seq counts snapshots within one font, starting at 1
//   - created_seq counts saves across the whole database
//
// Queries order by seq ASC, id ASC COLLATE BINARY so history reads are
// deterministic.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
package store
