package testutil

import (
	"fmt"

	"github.com/roach88/sidebearing/internal/font"
	"github.com/roach88/sidebearing/internal/ir"
)

// CountingFont wraps a font.Font and counts writes per glyph.
//
// FailWrites makes SetMargin and SetWidth fail for the named glyphs.
// PanicReads makes Margin panic for the named glyphs.
type CountingFont struct {
	*font.Font

	Writes     map[string]int
	FailWrites map[string]bool
	PanicReads map[string]bool
}

// NewCountingFont wraps f.
func NewCountingFont(f *font.Font) *CountingFont {
	return &CountingFont{
		Font:       f,
		Writes:     map[string]int{},
		FailWrites: map[string]bool{},
		PanicReads: map[string]bool{},
	}
}

// Margin implements engine.MarginAccessor.
func (c *CountingFont) Margin(glyph string, side ir.Side) (float64, bool) {
	if c.PanicReads[glyph] {
		panic(fmt.Sprintf("margin read of %s exploded", glyph))
	}
	return c.Font.Margin(glyph, side)
}

// SetMargin implements engine.Font.
func (c *CountingFont) SetMargin(glyph string, side ir.Side, value float64) error {
	if c.FailWrites[glyph] {
		return fmt.Errorf("write to %s refused", glyph)
	}
	c.Writes[glyph]++
	return c.Font.SetMargin(glyph, side, value)
}

// SetWidth implements engine.Font.
func (c *CountingFont) SetWidth(glyph string, width float64) error {
	if c.FailWrites[glyph] {
		return fmt.Errorf("write to %s refused", glyph)
	}
	c.Writes[glyph]++
	return c.Font.SetWidth(glyph, width)
}

// Reset clears the write counters.
func (c *CountingFont) Reset() {
	c.Writes = map[string]int{}
}

// MustFixture parses a YAML font fixture or panics.
func MustFixture(doc string) (*font.Font, ir.RuleTable) {
	f, rules, err := font.ParseFixture([]byte(doc))
	if err != nil {
		panic(err)
	}
	return f, rules
}
