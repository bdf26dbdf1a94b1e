package font

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sidebearing/internal/ir"
)

func outline(name string, left, right, width float64) Glyph {
	return Glyph{Name: name, Width: width, Bounds: &Bounds{XMin: left, XMax: width - right}, Contours: 1}
}

func TestMarginsFollowBounds(t *testing.T) {
	f := New()
	f.AddGlyph(outline("A", 20, 30, 600))

	l, ok := f.Margin("A", ir.SideLeft)
	require.True(t, ok)
	assert.Equal(t, 20.0, l)
	r, ok := f.Margin("A", ir.SideRight)
	require.True(t, ok)
	assert.Equal(t, 30.0, r)

	_, ok = f.Margin("missing", ir.SideLeft)
	assert.False(t, ok)
}

func TestSetLeftMarginShiftsOutlineAndWidth(t *testing.T) {
	f := New()
	f.AddGlyph(outline("A", 20, 30, 600))

	require.NoError(t, f.SetMargin("A", ir.SideLeft, 50))

	l, _ := f.Margin("A", ir.SideLeft)
	r, _ := f.Margin("A", ir.SideRight)
	assert.Equal(t, 50.0, l)
	assert.Equal(t, 30.0, r, "right margin is unchanged")
	assert.Equal(t, 630.0, f.Width("A"))
}

func TestSetRightMarginChangesWidth(t *testing.T) {
	f := New()
	f.AddGlyph(outline("A", 20, 30, 600))

	require.NoError(t, f.SetMargin("A", ir.SideRight, 10))

	assert.Equal(t, 580.0, f.Width("A"))
	l, _ := f.Margin("A", ir.SideLeft)
	assert.Equal(t, 20.0, l)
}

func TestEmptyGlyphHasNoMargins(t *testing.T) {
	f := New()
	f.AddGlyph(Glyph{Name: "space", Width: 250})

	_, ok := f.Margin("space", ir.SideLeft)
	assert.False(t, ok)
	assert.Error(t, f.SetMargin("space", ir.SideLeft, 10))

	require.NoError(t, f.SetWidth("space", 300))
	assert.Equal(t, 300.0, f.Width("space"))
}

func TestMissingGlyphWrites(t *testing.T) {
	f := New()
	assert.ErrorIs(t, f.SetMargin("X", ir.SideLeft, 1), ErrNoGlyph)
	assert.ErrorIs(t, f.SetWidth("X", 1), ErrNoGlyph)
	assert.Zero(t, f.Width("X"))
}

func TestReverseComponentMapIsDerived(t *testing.T) {
	f := New()
	f.AddGlyph(outline("A", 20, 20, 600))
	f.AddGlyph(Glyph{Name: "Aacute", Width: 600, Components: []Component{{Base: "A"}, {Base: "acutecomb", Offset: 200}}})
	f.AddGlyph(Glyph{Name: "Agrave", Width: 600, Components: []Component{{Base: "A"}, {Base: "gravecomb"}}})

	assert.Equal(t, []string{"Aacute", "Agrave"}, f.ReverseComponentMap()["A"])
	assert.Equal(t, []string{"Aacute"}, f.ReverseComponentMap()["acutecomb"])

	f.RemoveGlyph("Agrave")
	assert.Equal(t, []string{"Aacute"}, f.ReverseComponentMap()["A"])
	assert.Nil(t, f.ReverseComponentMap()["gravecomb"])
}

func TestGlyphReturnsCopy(t *testing.T) {
	f := New()
	f.AddGlyph(outline("A", 20, 20, 600))

	g, ok := f.Glyph("A")
	require.True(t, ok)
	g.Bounds.XMin = 999

	l, _ := f.Margin("A", ir.SideLeft)
	assert.Equal(t, 20.0, l)
}

func TestMetrics(t *testing.T) {
	f := New()
	f.AddGlyph(outline("A", 20, 30, 600))
	f.AddGlyph(Glyph{Name: "space", Width: 250})

	m := f.Metrics()
	require.NotNil(t, m["A"].Left)
	assert.Equal(t, 20.0, *m["A"].Left)
	assert.Equal(t, 30.0, *m["A"].Right)
	assert.Nil(t, m["space"].Left)
	assert.Equal(t, 250.0, m["space"].Width)
}
