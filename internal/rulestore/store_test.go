package rulestore

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sidebearing/internal/compiler"
	"github.com/roach88/sidebearing/internal/ir"
	"github.com/roach88/sidebearing/internal/metrics"
	"github.com/roach88/sidebearing/internal/testutil"
)

func newStore(t *testing.T) (*Store, *testutil.RecordingPersister) {
	t.Helper()
	p := &testutil.RecordingPersister{}
	return New(WithPersister(p), WithLogger(testutil.DiscardLogger())), p
}

func TestSetRuleStoresAndPersists(t *testing.T) {
	s, p := newStore(t)

	require.NoError(t, s.SetRule("Aacute", ir.SideLeft, "=A"))

	rule, ok := s.Rule("Aacute", ir.SideLeft)
	assert.True(t, ok)
	assert.Equal(t, "=A", rule)
	assert.True(t, s.HasRule("Aacute", ir.SideLeft))
	assert.False(t, s.HasRule("Aacute", ir.SideRight))
	assert.Equal(t, 1, p.Calls)

	last, ok := p.Last()
	require.True(t, ok)
	assert.Equal(t, ir.SnapshotVersion, last.Version)
	assert.Equal(t, ir.RuleTable{"Aacute": {ir.SideLeft: "=A"}}, last.Rules)
}

func TestSetRuleBothWritesBothSides(t *testing.T) {
	s, p := newStore(t)

	require.NoError(t, s.SetRule("Agrave", ir.SideBoth, "=A"))

	assert.Equal(t, ir.SideRules{ir.SideLeft: "=A", ir.SideRight: "=A"}, s.RulesForGlyph("Agrave"))
	assert.Equal(t, 1, p.Calls, "both sides are one mutation")
	assert.Equal(t, 2, s.Len())
}

func TestSetRuleRejectsInvalidSyntaxWithoutMutation(t *testing.T) {
	s, p := newStore(t)
	require.NoError(t, s.SetRule("B", ir.SideLeft, "=A"))
	before := s.Rebuilds()

	err := s.SetRule("B", ir.SideLeft, "=A++1")
	require.Error(t, err)

	var pe *compiler.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, compiler.ErrDoubledOperator, pe.Code)

	rule, _ := s.Rule("B", ir.SideLeft)
	assert.Equal(t, "=A", rule)
	assert.Equal(t, before, s.Rebuilds())
	assert.Equal(t, 1, p.Calls)
}

func TestSetRuleRejectsBadTarget(t *testing.T) {
	s, _ := newStore(t)

	err := s.SetRule("A", "top", "=H")
	assert.ErrorIs(t, err, ErrInvalidSide)

	err = s.SetRule("", ir.SideLeft, "=H")
	assert.ErrorIs(t, err, ErrEmptyGlyph)

	assert.Zero(t, s.Len())
}

func TestRemoveRule(t *testing.T) {
	s, p := newStore(t)
	require.NoError(t, s.SetRule("Aacute", ir.SideBoth, "=A"))

	removed, err := s.RemoveRule("Aacute", ir.SideLeft)
	require.NoError(t, err)
	assert.Equal(t, ir.SideRules{ir.SideLeft: "=A"}, removed)
	assert.True(t, s.HasRule("Aacute", ir.SideRight))
	assert.Equal(t, 2, p.Calls)

	removed, err = s.RemoveRule("Aacute", ir.SideBoth)
	require.NoError(t, err)
	assert.Equal(t, ir.SideRules{ir.SideRight: "=A"}, removed)
	assert.False(t, s.HasAnyRule("Aacute"))
	assert.NotContains(t, s.Glyphs(), "Aacute")
}

func TestRemoveAbsentRuleIsNoop(t *testing.T) {
	s, p := newStore(t)
	require.NoError(t, s.SetRule("B", ir.SideLeft, "=A"))
	rebuilds, calls := s.Rebuilds(), p.Calls

	removed, err := s.RemoveRule("B", ir.SideRight)
	require.NoError(t, err)
	assert.Empty(t, removed)

	removed, err = s.RemoveRule("nothing", ir.SideBoth)
	require.NoError(t, err)
	assert.Empty(t, removed)

	assert.Equal(t, rebuilds, s.Rebuilds())
	assert.Equal(t, calls, p.Calls)
}

func TestClearAndClearGlyph(t *testing.T) {
	s, p := newStore(t)
	require.NoError(t, s.SetRule("A", ir.SideRight, "=|"))
	require.NoError(t, s.SetRule("B", ir.SideBoth, "=A"))

	removed, err := s.ClearGlyph("B")
	require.NoError(t, err)
	assert.Len(t, removed, 2)
	assert.Equal(t, []string{"A"}, s.Dependents("A"))

	require.NoError(t, s.Clear())
	assert.Zero(t, s.Len())
	assert.Empty(t, s.Dependents("A"))

	calls := p.Calls
	require.NoError(t, s.Clear())
	assert.Equal(t, calls, p.Calls, "clearing an empty table is a no-op")
}

func TestReplaceGlyph(t *testing.T) {
	s, p := newStore(t)
	require.NoError(t, s.SetRule("B", ir.SideLeft, "=A"))

	require.NoError(t, s.ReplaceGlyph("B", ir.SideRules{ir.SideRight: "=C"}))
	assert.Equal(t, ir.SideRules{ir.SideRight: "=C"}, s.RulesForGlyph("B"))
	assert.Empty(t, s.Dependents("A"))
	assert.Equal(t, []string{"B"}, s.Dependents("C"))

	require.NoError(t, s.ReplaceGlyph("B", nil))
	assert.False(t, s.HasAnyRule("B"))

	calls := p.Calls
	require.NoError(t, s.ReplaceGlyph("B", nil))
	assert.Equal(t, calls, p.Calls)

	assert.ErrorIs(t, s.ReplaceGlyph("B", ir.SideRules{ir.SideBoth: "=A"}), ErrInvalidSide)
}

func TestReplaceGlyphKeepsUnparsableRules(t *testing.T) {
	s, _ := newStore(t)

	require.NoError(t, s.ReplaceGlyph("B", ir.SideRules{ir.SideLeft: "=A++"}))

	rule, ok := s.Rule("B", ir.SideLeft)
	assert.True(t, ok)
	assert.Equal(t, "=A++", rule)
	_, ok = s.Parsed("B", ir.SideLeft)
	assert.False(t, ok)
}

func TestDependencyIndex(t *testing.T) {
	s, _ := newStore(t)
	require.NoError(t, s.SetRule("Aacute", ir.SideBoth, "=A"))
	require.NoError(t, s.SetRule("Agrave", ir.SideLeft, "=A+5"))
	require.NoError(t, s.SetRule("O", ir.SideRight, "=|"))
	require.NoError(t, s.SetRule("n", ir.SideLeft, "=H|"))

	assert.Equal(t, []string{"Aacute", "Agrave"}, s.Dependents("A"))
	assert.Equal(t, []string{"O"}, s.Dependents("O"))
	assert.Equal(t, []string{"n"}, s.Dependents("H"))
	assert.Nil(t, s.Dependents("Z"))

	assert.True(t, s.IsDependent("O", "O"))
	assert.True(t, s.IsDependent("A", "Agrave"))
	assert.False(t, s.IsDependent("Agrave", "A"))

	assert.Equal(t, []string{"A", "H", "O"}, s.Sources())

	assert.Equal(t, []string{"A"}, s.Dependencies("Aacute"))
	assert.Empty(t, s.Dependencies("O"))
	assert.Empty(t, s.Dependencies("A"))
}

func TestDependencyIndexNeverStale(t *testing.T) {
	s, _ := newStore(t)
	require.NoError(t, s.SetRule("B", ir.SideLeft, "=A"))
	require.NoError(t, s.SetRule("B", ir.SideLeft, "=C"))

	assert.Empty(t, s.Dependents("A"))
	assert.Equal(t, []string{"B"}, s.Dependents("C"))

	p, ok := s.Parsed("B", ir.SideLeft)
	require.True(t, ok)
	assert.Equal(t, ir.Reference{Glyph: "C", From: ir.SourceSame}, p)
}

func TestReadsReturnCopies(t *testing.T) {
	s, _ := newStore(t)
	require.NoError(t, s.SetRule("B", ir.SideLeft, "=A"))

	all := s.AllRules()
	all["B"][ir.SideLeft] = "=Z"
	all["X"] = ir.SideRules{ir.SideLeft: "=Y"}
	g := s.RulesForGlyph("B")
	g[ir.SideRight] = "=Q"

	assert.Equal(t, ir.RuleTable{"B": {ir.SideLeft: "=A"}}, s.AllRules())
}

func TestPersistFailureKeepsMutation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	p := &testutil.RecordingPersister{Err: errors.New("disk full")}
	s := New(WithPersister(p), WithLogger(testutil.DiscardLogger()), WithMetrics(m))

	err := s.SetRule("B", ir.SideLeft, "=A")
	require.Error(t, err)
	assert.ErrorIs(t, err, p.Err)
	assert.True(t, s.HasRule("B", ir.SideLeft))
	assert.Equal(t, []string{"B"}, s.Dependents("A"))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.PersistFailures))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.Mutations.WithLabelValues("set")))
}

func TestPersisterFunc(t *testing.T) {
	var got []ir.Snapshot
	s := New(WithLogger(testutil.DiscardLogger()), WithPersister(PersisterFunc(func(snap ir.Snapshot) error {
		got = append(got, snap)
		return nil
	})))
	require.NoError(t, s.SetRule("B", ir.SideLeft, "=A"))
	assert.Len(t, got, 1)
}

func TestFromSnapshot(t *testing.T) {
	p := &testutil.RecordingPersister{}
	snap := ir.Snapshot{
		Version: ir.SnapshotVersion,
		Rules: ir.RuleTable{
			"Aacute": {ir.SideLeft: "=A", ir.SideRight: "=A"},
			"bad":    {ir.SideLeft: "=1x"},
			"":       {ir.SideLeft: "=A"},
			"empty":  {},
		},
	}

	s := FromSnapshot(snap, WithPersister(p), WithLogger(testutil.DiscardLogger()))

	assert.Equal(t, []string{"Aacute", "bad"}, s.Glyphs())
	assert.Equal(t, []string{"Aacute"}, s.Dependents("A"))
	assert.True(t, s.HasRule("bad", ir.SideLeft))
	_, ok := s.Parsed("bad", ir.SideLeft)
	assert.False(t, ok)
	assert.Zero(t, p.Calls, "loading does not persist")
}

func TestFromSnapshotVersionMismatchStartsEmpty(t *testing.T) {
	logger, buf := testutil.BufferLogger()
	snap := ir.Snapshot{Version: ir.SnapshotVersion + 1, Rules: ir.RuleTable{"B": {ir.SideLeft: "=A"}}}

	s := FromSnapshot(snap, WithLogger(logger))

	assert.Zero(t, s.Len())
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "unsupported version")
}

func TestForeignSnapshotLayoutIsDiscarded(t *testing.T) {
	snap, err := ir.UnmarshalSnapshot([]byte(`{"version": 2, "rules": {"B": {"start": "=A"}}}`))
	require.NoError(t, err)

	s := FromSnapshot(snap, WithLogger(testutil.DiscardLogger()))
	assert.Zero(t, s.Len())
	assert.Empty(t, s.Glyphs())
}

func TestSnapshotRoundTrip(t *testing.T) {
	s, _ := newStore(t)
	require.NoError(t, s.SetRule("Aacute", ir.SideBoth, "=A"))
	require.NoError(t, s.SetRule("O", ir.SideRight, "=|"))

	restored := FromSnapshot(s.Snapshot(), WithLogger(testutil.DiscardLogger()))
	assert.Equal(t, s.AllRules(), restored.AllRules())
	assert.Equal(t, s.Dependents("A"), restored.Dependents("A"))
	assert.Equal(t, ir.MustSnapshotID(s.Snapshot()), ir.MustSnapshotID(restored.Snapshot()))
}
