package engine

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sidebearing/internal/font"
	"github.com/roach88/sidebearing/internal/ir"
	"github.com/roach88/sidebearing/internal/metrics"
	"github.com/roach88/sidebearing/internal/testutil"
)

// priorRecorder keeps the metrics of each glyph at its first BeforeMargin.
type priorRecorder struct {
	font  *font.Font
	order []string
	prior map[string]font.Metrics
}

func newPriorRecorder(f *font.Font) *priorRecorder {
	return &priorRecorder{font: f, prior: map[string]font.Metrics{}}
}

func (r *priorRecorder) BeforeMargin(glyph string) {
	if _, ok := r.prior[glyph]; ok {
		return
	}
	r.order = append(r.order, glyph)
	r.prior[glyph] = r.font.Metrics()[glyph]
}

func (r *priorRecorder) BeforeRules(string) {}

func TestApplySetEditPropagatesToComposites(t *testing.T) {
	fx := newFixture(t, nil)

	out, err := fx.arb.ApplyMarginEdit(nil, SetEdit("A", ir.SideLeft, 30))
	require.NoError(t, err)

	assert.Equal(t, 30.0, fx.margin(t, "A", ir.SideLeft))
	assert.Equal(t, 30.0, fx.margin(t, "Aacute", ir.SideLeft))
	assert.Equal(t, 610.0, fx.font.Width("Aacute"))
	assert.Equal(t, 30.0, fx.margin(t, "Agrave", ir.SideLeft))
	assert.Equal(t, 20.0, fx.margin(t, "Aacute.sc", ir.SideLeft), "not recursive by default")

	assert.Equal(t, []string{"A", "Aacute", "Agrave"}, out.Affected)
	assert.Equal(t, []string{"Aacute", "Agrave"}, out.Propagated)
	assert.Empty(t, out.Warnings)
}

func TestApplyEditRecursivePropagation(t *testing.T) {
	fx := newFixture(t, nil)
	edit := AdjustEdit("A", ir.SideRight, 5)
	edit.Recursive = true

	out, err := fx.arb.ApplyMarginEdit(nil, edit)
	require.NoError(t, err)

	assert.Equal(t, 25.0, fx.margin(t, "A", ir.SideRight))
	assert.Equal(t, 25.0, fx.margin(t, "Aacute", ir.SideRight))
	assert.Equal(t, 25.0, fx.margin(t, "Aacute.sc", ir.SideRight))
	assert.Equal(t, []string{"Aacute", "Aacute.sc", "Agrave"}, out.Propagated)
}

func TestApplyEditWithoutPropagation(t *testing.T) {
	fx := newFixture(t, nil)
	edit := AdjustEdit("A", ir.SideLeft, 10)
	edit.Propagate = false

	out, err := fx.arb.ApplyMarginEdit(nil, edit)
	require.NoError(t, err)

	assert.Equal(t, 20.0, fx.margin(t, "Aacute", ir.SideLeft))
	assert.Equal(t, []string{"A"}, out.Affected)
}

func TestPropagationSkipsCompositeOwnedByUnrelatedRule(t *testing.T) {
	fx := newFixture(t, map[string]string{"Aacute.left": "=O"})

	out, err := fx.arb.ApplyMarginEdit(nil, SetEdit("A", ir.SideLeft, 45))
	require.NoError(t, err)

	assert.Equal(t, 20.0, fx.margin(t, "Aacute", ir.SideLeft), "exact pre-edit value preserved")
	assert.Equal(t, 600.0, fx.font.Width("Aacute"))
	assert.Equal(t, 45.0, fx.margin(t, "Agrave", ir.SideLeft))
	assert.NotContains(t, out.Affected, "Aacute")
	assert.Zero(t, fx.font.Writes["Aacute"])
}

func TestPropagationSkipsRuleOwnedCompositeEvenWithoutRules(t *testing.T) {
	fx := newFixture(t, map[string]string{"Aacute.left": "=A"})
	edit := SetEdit("A", ir.SideLeft, 45)
	edit.ApplyRules = false

	_, err := fx.arb.ApplyMarginEdit(nil, edit)
	require.NoError(t, err)

	assert.Equal(t, 20.0, fx.margin(t, "Aacute", ir.SideLeft))
}

func TestPropagationOnlySkipsTheRuledSide(t *testing.T) {
	fx := newFixture(t, map[string]string{"Aacute.left": "=O"})

	_, err := fx.arb.ApplyMarginEdit(nil, SetEdit("A", ir.SideRight, 40))
	require.NoError(t, err)

	assert.Equal(t, 40.0, fx.margin(t, "Aacute", ir.SideRight))
}

func TestCascadeWritesRuledComposite(t *testing.T) {
	fx := newFixture(t, map[string]string{"Agrave.left": "=A+5"})

	out, err := fx.arb.ApplyMarginEdit(nil, SetEdit("A", ir.SideLeft, 30))
	require.NoError(t, err)

	assert.Equal(t, 35.0, fx.margin(t, "Agrave", ir.SideLeft))
	assert.Equal(t, 30.0, fx.margin(t, "Aacute", ir.SideLeft))
	assert.Equal(t, []string{"Aacute"}, out.Propagated)
	assert.Equal(t, []string{"Agrave"}, out.Cascaded)
	assert.Equal(t, []string{"A", "Aacute", "Agrave"}, out.Affected)
	assert.Equal(t, 1, fx.font.Writes["Agrave"])
}

func TestCascadeChain(t *testing.T) {
	fx := newFixture(t, map[string]string{"B.left": "=A", "C.left": "=B*2", "D.right": "=C|"})

	_, err := fx.arb.ApplyMarginEdit(nil, SetEdit("A", ir.SideLeft, 15))
	require.NoError(t, err)

	assert.Equal(t, 15.0, fx.margin(t, "B", ir.SideLeft))
	assert.Equal(t, 30.0, fx.margin(t, "C", ir.SideLeft))
	assert.Equal(t, 30.0, fx.margin(t, "D", ir.SideRight))
}

func TestCascadeSymmetryOnEditedGlyph(t *testing.T) {
	fx := newFixture(t, map[string]string{"O.right": "=|"})

	out, err := fx.arb.ApplyMarginEdit(nil, SetEdit("O", ir.SideLeft, 50))
	require.NoError(t, err)

	assert.Equal(t, 50.0, fx.margin(t, "O", ir.SideRight))
	assert.Equal(t, []string{"O"}, out.Cascaded)
}

func TestApplyEditWithoutRules(t *testing.T) {
	fx := newFixture(t, map[string]string{"B.left": "=A"})
	edit := SetEdit("A", ir.SideLeft, 30)
	edit.ApplyRules = false

	out, err := fx.arb.ApplyMarginEdit(nil, edit)
	require.NoError(t, err)

	assert.Equal(t, 0.0, fx.margin(t, "B", ir.SideLeft))
	assert.Empty(t, out.Cascaded)
}

func TestEmptyGlyphAdjustsWidth(t *testing.T) {
	fx := newFixture(t, map[string]string{"B.left": "=space"})

	out, err := fx.arb.ApplyMarginEdit(nil, SetEdit("space", ir.SideLeft, 300))
	require.NoError(t, err)
	assert.Equal(t, 300.0, fx.font.Width("space"))
	assert.Equal(t, []string{"space"}, out.Affected)

	_, err = fx.arb.ApplyMarginEdit(nil, AdjustEdit("space", ir.SideRight, -20))
	require.NoError(t, err)
	assert.Equal(t, 280.0, fx.font.Width("space"))
	assert.Zero(t, fx.font.Writes["B"])
}

func TestEmptyGlyphEditLeavesCompositesAlone(t *testing.T) {
	fx := newFixture(t, nil)
	fx.font.Font.AddGlyph(font.Glyph{
		Name:       "space.frac",
		Width:      250,
		Bounds:     &font.Bounds{XMin: 10, XMax: 240},
		Components: []font.Component{{Base: "space"}},
	})

	out, err := fx.arb.ApplyMarginEdit(nil, AdjustEdit("space", ir.SideLeft, 30))
	require.NoError(t, err)

	assert.Equal(t, 280.0, fx.font.Width("space"))
	assert.Equal(t, 10.0, fx.margin(t, "space.frac", ir.SideLeft))
	assert.Equal(t, 250.0, fx.font.Width("space.frac"))
	assert.Empty(t, out.Propagated)
	assert.Equal(t, []string{"space"}, out.Affected)
}

func TestZeroDeltaSkipsPropagation(t *testing.T) {
	fx := newFixture(t, nil)

	out, err := fx.arb.ApplyMarginEdit(nil, SetEdit("A", ir.SideLeft, 20))
	require.NoError(t, err)

	assert.Empty(t, out.Propagated)
	assert.Zero(t, fx.font.Writes["Aacute"])
}

func TestApplyEditErrors(t *testing.T) {
	fx := newFixture(t, nil)

	_, err := fx.arb.ApplyMarginEdit(nil, SetEdit("nope", ir.SideLeft, 1))
	assert.ErrorIs(t, err, ErrUnknownGlyph)
	assert.True(t, IsUnknownGlyph(err))

	_, err = fx.arb.ApplyMarginEdit(nil, SetEdit("A", ir.SideBoth, 1))
	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeInvalidSide, re.Code)

	fx.font.FailWrites["A"] = true
	_, err = fx.arb.ApplyMarginEdit(nil, SetEdit("A", ir.SideLeft, 1))
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeHostWrite, re.Code)
	assert.Contains(t, err.Error(), "(A.left)")
}

func TestCascadeFaultsBecomeWarnings(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	fx := newFixture(t, map[string]string{"Agrave.left": "=A", "Agrave.right": "=H", "B.left": "=A"})
	fx.arb = NewArbiter(fx.font, fx.rules, WithLogger(testutil.DiscardLogger()), WithMetrics(m))
	fx.font.PanicReads["H"] = true
	fx.font.FailWrites["B"] = true

	out, err := fx.arb.ApplyMarginEdit(nil, SetEdit("A", ir.SideLeft, 30))
	require.NoError(t, err, "faults never fail the edit")

	assert.Equal(t, 30.0, fx.margin(t, "A", ir.SideLeft))
	assert.Equal(t, 30.0, fx.margin(t, "Agrave", ir.SideLeft))
	assert.Equal(t, []string{
		"B.left: write to B refused",
		"Agrave.right: margin read of H exploded",
	}, out.Warnings)
	assert.Equal(t, 2.0, promtest.ToFloat64(m.Warnings))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.Propagations))
}

func TestCascadeOverflowBecomesWarning(t *testing.T) {
	fx := newFixture(t, map[string]string{
		"B.left": "=A*1" + strings.Repeat("0", 307),
		"C.left": "=A",
	})
	fx.set(t, "B", ir.SideLeft, 7)

	out, err := fx.arb.ApplyMarginEdit(nil, SetEdit("A", ir.SideLeft, 50))
	require.NoError(t, err)

	assert.Equal(t, 7.0, fx.margin(t, "B", ir.SideLeft), "non-finite value never written")
	assert.Equal(t, 50.0, fx.margin(t, "C", ir.SideLeft))
	require.Len(t, out.Warnings, 1)
	assert.True(t, strings.HasPrefix(out.Warnings[0], "B.left: NON_FINITE_RESULT"), out.Warnings[0])
	assert.Equal(t, []string{"C"}, out.Cascaded)
}

func TestRecorderSeesPriorState(t *testing.T) {
	fx := newFixture(t, map[string]string{"Agrave.left": "=A+5"})
	rec := newPriorRecorder(fx.font.Font)

	_, err := fx.arb.ApplyMarginEdit(rec, SetEdit("A", ir.SideLeft, 30))
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "Aacute", "Agrave"}, rec.order)
	assert.Equal(t, 20.0, *rec.prior["A"].Left)
	assert.Equal(t, 20.0, *rec.prior["Aacute"].Left)
	assert.Equal(t, 20.0, *rec.prior["Agrave"].Left)
	assert.Equal(t, 600.0, rec.prior["Aacute"].Width)
}

func TestIndividualAndBatchEditsAgree(t *testing.T) {
	rules := map[string]string{
		"B.left":  "=A",
		"C.left":  "=E",
		"D.left":  "=B+1",
		"D.right": "=C|",
	}
	edits := []MarginEdit{
		AdjustEdit("A", ir.SideLeft, 10),
		AdjustEdit("E", ir.SideLeft, 7),
	}

	individual := newFixture(t, rules)
	for _, e := range edits {
		_, err := individual.arb.ApplyMarginEdit(nil, e)
		require.NoError(t, err)
	}

	batch := newFixture(t, rules)
	for _, e := range edits {
		e.ApplyRules = false
		_, err := batch.arb.ApplyMarginEdit(nil, e)
		require.NoError(t, err)
	}
	batch.font.Reset()
	out := batch.arb.Sync(nil, []string{"A", "E"})

	assert.Equal(t, individual.font.Metrics(), batch.font.Metrics())
	assert.Equal(t, 31.0, batch.margin(t, "D", ir.SideLeft))
	assert.Equal(t, 17.0, batch.margin(t, "D", ir.SideRight))

	assert.Equal(t, 1, batch.font.Writes["B"])
	assert.Equal(t, 1, batch.font.Writes["C"])
	assert.Equal(t, 2, batch.font.Writes["D"], "each ruled side of the shared dependent written once")
	assert.Equal(t, 4, individual.font.Writes["D"], "individual cascades revisit the shared dependent")
	assert.Equal(t, 4, out.Changed)
}

func TestSyncAllRulesAndNoChanges(t *testing.T) {
	fx := newFixture(t, map[string]string{"B.left": "=A", "O.right": "=|"})
	fx.set(t, "O", ir.SideLeft, 45)

	out := fx.arb.Sync(nil, nil)
	assert.Equal(t, 2, out.Changed)
	assert.Equal(t, []string{"B", "O"}, out.Cascaded)
	assert.Equal(t, 20.0, fx.margin(t, "B", ir.SideLeft))

	out = fx.arb.Sync(nil, nil)
	assert.True(t, out.NoChanges())
	assert.Empty(t, out.Affected)
}

func TestSyncRecordsOnlyChangedGlyphs(t *testing.T) {
	fx := newFixture(t, map[string]string{"B.left": "=A", "C.left": "=E"})
	fx.set(t, "C", ir.SideLeft, 10)
	rec := newPriorRecorder(fx.font.Font)

	fx.arb.Sync(rec, []string{"A", "E"})

	assert.Equal(t, []string{"B"}, rec.order)
}
