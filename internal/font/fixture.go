package font

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sidebearing/internal/ir"
)

// Fixture is the YAML form of a font plus its metrics rules.
//
//	glyphs:
//	  A:      {left: 20, right: 20, width: 600, contours: 2}
//	  Aacute: {left: 20, right: 20, width: 600, components: [{base: A}, {base: acutecomb, offset: 250}]}
//	  space:  {width: 250}
//	rules:
//	  Aacute: {left: "=A", right: "=A"}
type Fixture struct {
	Glyphs map[string]GlyphSpec         `yaml:"glyphs"`
	Rules  map[string]map[string]string `yaml:"rules,omitempty"`
}

// GlyphSpec describes one glyph. The outline comes from Bounds when given,
// otherwise from Left and Right. A glyph with neither has no outline.
type GlyphSpec struct {
	Left       *float64    `yaml:"left,omitempty"`
	Right      *float64    `yaml:"right,omitempty"`
	Width      float64     `yaml:"width"`
	Bounds     []float64   `yaml:"bounds,omitempty"`
	Contours   int         `yaml:"contours,omitempty"`
	Components []Component `yaml:"components,omitempty"`
}

// LoadFixture reads a YAML fixture file.
func LoadFixture(path string) (*Font, ir.RuleTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read font fixture: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes a YAML fixture. Unknown fields are rejected.
func ParseFixture(data []byte) (*Font, ir.RuleTable, error) {
	var fx Fixture
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&fx); err != nil {
		return nil, nil, fmt.Errorf("failed to parse font fixture: %w", err)
	}
	return fx.Build()
}

// Build converts the fixture into a Font and a rule table.
func (fx *Fixture) Build() (*Font, ir.RuleTable, error) {
	f := New()
	for name, spec := range fx.Glyphs {
		g, err := spec.glyph(name)
		if err != nil {
			return nil, nil, err
		}
		f.AddGlyph(g)
	}

	rules := make(ir.RuleTable, len(fx.Rules))
	for glyph, sides := range fx.Rules {
		sr := make(ir.SideRules, len(sides))
		for side, rule := range sides {
			s := ir.Side(side)
			if !s.Valid() {
				return nil, nil, fmt.Errorf("rules for %s: invalid side %q", glyph, side)
			}
			sr[s] = rule
		}
		if len(sr) > 0 {
			rules[glyph] = sr
		}
	}
	return f, rules, nil
}

func (s GlyphSpec) glyph(name string) (Glyph, error) {
	g := Glyph{
		Name:       name,
		Width:      s.Width,
		Contours:   s.Contours,
		Components: s.Components,
	}
	switch {
	case len(s.Bounds) > 0:
		if len(s.Bounds) != 2 || s.Bounds[0] > s.Bounds[1] {
			return Glyph{}, fmt.Errorf("glyph %s: bounds must be [xmin, xmax]", name)
		}
		if s.Left != nil || s.Right != nil {
			return Glyph{}, fmt.Errorf("glyph %s: give either bounds or left/right, not both", name)
		}
		g.Bounds = &Bounds{XMin: s.Bounds[0], XMax: s.Bounds[1]}
	case s.Left != nil && s.Right != nil:
		xmax := s.Width - *s.Right
		if xmax < *s.Left {
			return Glyph{}, fmt.Errorf("glyph %s: margins exceed width", name)
		}
		g.Bounds = &Bounds{XMin: *s.Left, XMax: xmax}
	case s.Left != nil || s.Right != nil:
		return Glyph{}, fmt.Errorf("glyph %s: left and right must be given together", name)
	}
	return g, nil
}

// Fixture returns the font and rules in fixture form.
func (f *Font) Fixture(rules ir.RuleTable) *Fixture {
	fx := &Fixture{Glyphs: make(map[string]GlyphSpec, len(f.glyphs))}
	for name, g := range f.glyphs {
		spec := GlyphSpec{Width: g.Width, Contours: g.Contours, Components: g.Components}
		if g.Bounds != nil {
			spec.Bounds = []float64{g.Bounds.XMin, g.Bounds.XMax}
		}
		fx.Glyphs[name] = spec
	}
	if len(rules) > 0 {
		fx.Rules = make(map[string]map[string]string, len(rules))
		for glyph, sides := range rules {
			m := make(map[string]string, len(sides))
			for side, rule := range sides {
				m[string(side)] = rule
			}
			fx.Rules[glyph] = m
		}
	}
	return fx
}

// Encode renders the fixture as YAML.
func (fx *Fixture) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fx); err != nil {
		return nil, fmt.Errorf("encode font fixture: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode font fixture: %w", err)
	}
	return buf.Bytes(), nil
}
