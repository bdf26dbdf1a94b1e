// Package font is an in-memory font host for the rules engine.
//
// A glyph is an advance width plus an optional horizontal outline extent
// [XMin, XMax]. The left side bearing is XMin and the right side bearing is
// Width - XMax. Glyphs without an outline have undefined margins.
package font

import (
	"errors"
	"fmt"
	"sort"

	"github.com/roach88/sidebearing/internal/ir"
)

// ErrNoGlyph is returned when a glyph is not in the font.
var ErrNoGlyph = errors.New("glyph not in font")

// Component places another glyph inside a composite.
type Component struct {
	Base   string  `yaml:"base" json:"base"`
	Offset float64 `yaml:"offset,omitempty" json:"offset,omitempty"`
}

// Bounds is the horizontal extent of an outline.
type Bounds struct {
	XMin float64 `json:"xmin"`
	XMax float64 `json:"xmax"`
}

// Glyph is one glyph's spacing-relevant geometry.
type Glyph struct {
	Name       string      `json:"name"`
	Width      float64     `json:"width"`
	Bounds     *Bounds     `json:"bounds,omitempty"`
	Contours   int         `json:"contours,omitempty"`
	Components []Component `json:"components,omitempty"`
}

// Margin returns the side bearing on side. ok is false without an outline.
func (g *Glyph) Margin(side ir.Side) (float64, bool) {
	if g.Bounds == nil {
		return 0, false
	}
	switch side {
	case ir.SideLeft:
		return g.Bounds.XMin, true
	case ir.SideRight:
		return g.Width - g.Bounds.XMax, true
	}
	return 0, false
}

// IsComposite reports whether the glyph has components.
func (g *Glyph) IsComposite() bool {
	return len(g.Components) > 0
}

func (g *Glyph) clone() *Glyph {
	c := *g
	if g.Bounds != nil {
		b := *g.Bounds
		c.Bounds = &b
	}
	c.Components = append([]Component(nil), g.Components...)
	return &c
}

// Font holds glyphs by name.
type Font struct {
	glyphs  map[string]*Glyph
	reverse map[string][]string
}

// New returns an empty font.
func New() *Font {
	return &Font{glyphs: map[string]*Glyph{}}
}

// AddGlyph adds or replaces g.
func (f *Font) AddGlyph(g Glyph) {
	f.glyphs[g.Name] = g.clone()
	f.reverse = nil
}

// RemoveGlyph deletes name. It reports whether the glyph existed.
func (f *Font) RemoveGlyph(name string) bool {
	if _, ok := f.glyphs[name]; !ok {
		return false
	}
	delete(f.glyphs, name)
	f.reverse = nil
	return true
}

// Glyph returns a copy of the named glyph.
func (f *Font) Glyph(name string) (Glyph, bool) {
	g, ok := f.glyphs[name]
	if !ok {
		return Glyph{}, false
	}
	return *g.clone(), true
}

// GlyphNames returns every glyph name, sorted.
func (f *Font) GlyphNames() []string {
	names := make([]string, 0, len(f.glyphs))
	for name := range f.glyphs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of glyphs.
func (f *Font) Len() int {
	return len(f.glyphs)
}

// HasGlyph reports whether name is in the font.
func (f *Font) HasGlyph(name string) bool {
	_, ok := f.glyphs[name]
	return ok
}

// Margin returns the side bearing of glyph on side.
func (f *Font) Margin(glyph string, side ir.Side) (float64, bool) {
	g, ok := f.glyphs[glyph]
	if !ok {
		return 0, false
	}
	return g.Margin(side)
}

// SetMargin moves the outline (left) or the advance (right) so the side
// bearing equals value. Setting the left margin shifts the outline and grows
// the width by the same amount.
func (f *Font) SetMargin(glyph string, side ir.Side, value float64) error {
	g, ok := f.glyphs[glyph]
	if !ok {
		return fmt.Errorf("set margin %s: %w", glyph, ErrNoGlyph)
	}
	if g.Bounds == nil {
		return fmt.Errorf("set margin %s.%s: glyph has no outline", glyph, side)
	}
	switch side {
	case ir.SideLeft:
		shift := value - g.Bounds.XMin
		g.Bounds.XMin += shift
		g.Bounds.XMax += shift
		g.Width += shift
	case ir.SideRight:
		g.Width = g.Bounds.XMax + value
	default:
		return fmt.Errorf("set margin %s: invalid side %q", glyph, string(side))
	}
	return nil
}

// Width returns the advance width, or 0 for a missing glyph.
func (f *Font) Width(glyph string) float64 {
	if g, ok := f.glyphs[glyph]; ok {
		return g.Width
	}
	return 0
}

// SetWidth sets the advance width without moving the outline.
func (f *Font) SetWidth(glyph string, width float64) error {
	g, ok := f.glyphs[glyph]
	if !ok {
		return fmt.Errorf("set width %s: %w", glyph, ErrNoGlyph)
	}
	g.Width = width
	return nil
}

// ReverseComponentMap maps each base glyph to the composites using it, both
// sorted. It is derived from the glyphs and rebuilt after any structural
// change; callers must not modify it.
func (f *Font) ReverseComponentMap() map[string][]string {
	if f.reverse != nil {
		return f.reverse
	}
	rev := map[string][]string{}
	for _, name := range f.GlyphNames() {
		seen := map[string]bool{}
		for _, c := range f.glyphs[name].Components {
			if !seen[c.Base] {
				seen[c.Base] = true
				rev[c.Base] = append(rev[c.Base], name)
			}
		}
	}
	f.reverse = rev
	return rev
}

// Metrics is a flat view of one glyph's spacing.
type Metrics struct {
	Left  *float64 `json:"left,omitempty" yaml:"left,omitempty"`
	Right *float64 `json:"right,omitempty" yaml:"right,omitempty"`
	Width float64  `json:"width" yaml:"width"`
}

// Metrics returns the spacing of every glyph, keyed by name.
func (f *Font) Metrics() map[string]Metrics {
	out := make(map[string]Metrics, len(f.glyphs))
	for name, g := range f.glyphs {
		m := Metrics{Width: g.Width}
		if v, ok := g.Margin(ir.SideLeft); ok {
			m.Left = &v
		}
		if v, ok := g.Margin(ir.SideRight); ok {
			m.Right = &v
		}
		out[name] = m
	}
	return out
}
