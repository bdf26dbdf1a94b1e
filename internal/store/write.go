package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/sidebearing/internal/ir"
	"github.com/roach88/sidebearing/internal/rulestore"
)

// SaveSnapshot appends snap to fontID's log. When snap has the same content
// as the font's latest snapshot nothing is written; the latest record is
// returned with saved false.
func (s *Store) SaveSnapshot(ctx context.Context, fontID string, snap ir.Snapshot) (rec Record, saved bool, err error) {
	if fontID == "" {
		return Record{}, false, errors.New("save snapshot: empty font id")
	}
	text, id, err := marshalSnapshot(snap)
	if err != nil {
		return Record{}, false, fmt.Errorf("save snapshot: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, false, fmt.Errorf("save snapshot: begin: %w", err)
	}
	defer tx.Rollback()

	latest, err := scanRecord(tx.QueryRowContext(ctx,
		selectRecord+` WHERE font_id = ? ORDER BY seq DESC LIMIT 1`, fontID))
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return Record{}, false, fmt.Errorf("save snapshot: read latest: %w", err)
	case latest.ID == id:
		return latest, false, nil
	}

	var createdSeq int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(created_seq), 0) + 1 FROM snapshots`).Scan(&createdSeq); err != nil {
		return Record{}, false, fmt.Errorf("save snapshot: next created_seq: %w", err)
	}

	rec = Record{
		ID:         id,
		FontID:     fontID,
		Seq:        latest.Seq + 1,
		CreatedSeq: createdSeq,
		Snapshot:   snap,
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, font_id, seq, version, rules, created_seq)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.FontID, rec.Seq, snap.Version, text, rec.CreatedSeq)
	if err != nil {
		return Record{}, false, fmt.Errorf("save snapshot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Record{}, false, fmt.Errorf("save snapshot: commit: %w", err)
	}
	return rec, true, nil
}

// Persister returns a rulestore.Persister that saves every snapshot to
// fontID's log.
func (s *Store) Persister(ctx context.Context, fontID string) rulestore.Persister {
	return rulestore.PersisterFunc(func(snap ir.Snapshot) error {
		_, _, err := s.SaveSnapshot(ctx, fontID, snap)
		return err
	})
}
