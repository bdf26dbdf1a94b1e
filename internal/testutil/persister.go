package testutil

import "github.com/roach88/sidebearing/internal/ir"

// RecordingPersister captures every snapshot it is asked to persist.
//
// Set Err to make subsequent Persist calls fail; failed calls are still
// counted in Calls but not appended to Snapshots.
type RecordingPersister struct {
	Snapshots []ir.Snapshot
	Calls     int
	Err       error
}

// Persist records snap.
func (p *RecordingPersister) Persist(snap ir.Snapshot) error {
	p.Calls++
	if p.Err != nil {
		return p.Err
	}
	p.Snapshots = append(p.Snapshots, ir.Snapshot{Version: snap.Version, Rules: snap.Rules.Clone()})
	return nil
}

// Last returns the most recent persisted snapshot.
func (p *RecordingPersister) Last() (ir.Snapshot, bool) {
	if len(p.Snapshots) == 0 {
		return ir.Snapshot{}, false
	}
	return p.Snapshots[len(p.Snapshots)-1], true
}
