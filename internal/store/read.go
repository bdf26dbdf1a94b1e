package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// LatestSnapshot returns fontID's newest snapshot, or ErrNotFound.
func (s *Store) LatestSnapshot(ctx context.Context, fontID string) (Record, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx,
		selectRecord+` WHERE font_id = ? ORDER BY seq DESC LIMIT 1`, fontID))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("font %s: %w", fontID, ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("latest snapshot: %w", err)
	}
	return rec, nil
}

// SnapshotAt returns the snapshot of fontID with the given seq, or ErrNotFound.
func (s *Store) SnapshotAt(ctx context.Context, fontID string, seq int64) (Record, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx,
		selectRecord+` WHERE font_id = ? AND seq = ?`, fontID, seq))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("font %s seq %d: %w", fontID, seq, ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("snapshot at: %w", err)
	}
	return rec, nil
}

// SnapshotHistory returns every snapshot of fontID, oldest first.
// It returns an empty slice, not nil, when there are none.
func (s *Store) SnapshotHistory(ctx context.Context, fontID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		selectRecord+` WHERE font_id = ? ORDER BY seq ASC, id COLLATE BINARY ASC`, fontID)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return records, nil
}

// Fonts returns the ids of every font with at least one snapshot, sorted.
func (s *Store) Fonts(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT font_id FROM snapshots ORDER BY font_id COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("query fonts: %w", err)
	}
	defer rows.Close()

	fonts := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan font: %w", err)
		}
		fonts = append(fonts, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fonts: %w", err)
	}
	return fonts, nil
}
