package store

import (
	"fmt"

	"github.com/roach88/sidebearing/internal/ir"
)

// Record is one stored snapshot.
type Record struct {
	ID         string      `json:"id"`
	FontID     string      `json:"font_id"`
	Seq        int64       `json:"seq"`
	CreatedSeq int64       `json:"created_seq"`
	Snapshot   ir.Snapshot `json:"snapshot"`
}

// marshalSnapshot returns the canonical JSON TEXT and content id of snap.
func marshalSnapshot(snap ir.Snapshot) (text, id string, err error) {
	data, err := snap.MarshalCanonical()
	if err != nil {
		return "", "", fmt.Errorf("marshal snapshot: %w", err)
	}
	id, err = ir.SnapshotID(snap)
	if err != nil {
		return "", "", fmt.Errorf("marshal snapshot: %w", err)
	}
	return string(data), id, nil
}

// unmarshalSnapshot decodes the rules column and checks it against the
// version column.
func unmarshalSnapshot(text string, version int) (ir.Snapshot, error) {
	snap, err := ir.UnmarshalSnapshot([]byte(text))
	if err != nil {
		return ir.Snapshot{}, err
	}
	if snap.Version != version {
		return ir.Snapshot{}, fmt.Errorf("unmarshal snapshot: version column %d, payload %d", version, snap.Version)
	}
	return snap, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec     Record
		version int
		text    string
	)
	if err := row.Scan(&rec.ID, &rec.FontID, &rec.Seq, &version, &text, &rec.CreatedSeq); err != nil {
		return Record{}, err
	}
	snap, err := unmarshalSnapshot(text, version)
	if err != nil {
		return Record{}, fmt.Errorf("font %s seq %d: %w", rec.FontID, rec.Seq, err)
	}
	rec.Snapshot = snap
	return rec, nil
}

const selectRecord = `SELECT id, font_id, seq, version, rules, created_seq FROM snapshots`
