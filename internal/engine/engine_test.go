package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/sidebearing/internal/font"
	"github.com/roach88/sidebearing/internal/ir"
	"github.com/roach88/sidebearing/internal/rulestore"
	"github.com/roach88/sidebearing/internal/testutil"
)

const baseFont = `
glyphs:
  A: {left: 20, right: 20, width: 600, contours: 2}
  E: {left: 10, right: 10, width: 500, contours: 1}
  H: {left: 40, right: 33, width: 700, contours: 2}
  O: {left: 30, right: 30, width: 650, contours: 1}
  acutecomb: {bounds: [-120, -20], width: 0, contours: 1}
  Aacute:
    left: 20
    right: 20
    width: 600
    components: [{base: A}, {base: acutecomb, offset: 300}]
  Agrave: {left: 20, right: 20, width: 600, components: [{base: A}]}
  Aacute.sc: {left: 20, right: 20, width: 600, components: [{base: Aacute}]}
  B: {left: 0, right: 0, width: 500, contours: 1}
  C: {left: 0, right: 0, width: 500, contours: 1}
  D: {left: 0, right: 0, width: 500, contours: 1}
  space: {width: 250}
`

type fixture struct {
	font  *testutil.CountingFont
	rules *rulestore.Store
	arb   *Arbiter
	eval  *Evaluator
}

// newFixture loads baseFont with the given rules ("glyph.side" → rule).
func newFixture(t *testing.T, rules map[string]string) *fixture {
	t.Helper()
	f, _ := testutil.MustFixture(baseFont)
	store := rulestore.New(rulestore.WithLogger(testutil.DiscardLogger()))
	for key, rule := range rules {
		glyph, side := splitKey(t, key)
		require.NoError(t, store.SetRule(glyph, side, rule))
	}
	cf := testutil.NewCountingFont(f)
	arb := NewArbiter(cf, store, WithLogger(testutil.DiscardLogger()))
	return &fixture{font: cf, rules: store, arb: arb, eval: arb.Evaluator()}
}

func splitKey(t *testing.T, key string) (string, ir.Side) {
	t.Helper()
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == '.' {
			side, err := ir.ParseSide(key[i+1:])
			require.NoError(t, err)
			return key[:i], side
		}
	}
	t.Fatalf("bad key %q", key)
	return "", ""
}

func (fx *fixture) margin(t *testing.T, glyph string, side ir.Side) float64 {
	t.Helper()
	v, ok := fx.font.Margin(glyph, side)
	require.True(t, ok, "%s.%s undefined", glyph, side)
	return v
}

func (fx *fixture) set(t *testing.T, glyph string, side ir.Side, v float64) {
	t.Helper()
	require.NoError(t, fx.font.Font.SetMargin(glyph, side, v))
}

var _ Font = (*font.Font)(nil)
