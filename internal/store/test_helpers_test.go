package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/sidebearing/internal/ir"
)

// createTestStore opens a fresh database in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func snapshotOf(rules map[string]string) ir.Snapshot {
	table := ir.RuleTable{}
	for glyph, rule := range rules {
		table[glyph] = ir.SideRules{ir.SideLeft: rule, ir.SideRight: rule}
	}
	return ir.NewSnapshot(table)
}
