package ir

import (
	"strconv"
)

// SourceSide says which side of the referenced glyph a rule reads.
type SourceSide string

const (
	// SourceSame reads the same side as the rule's target side.
	SourceSame SourceSide = "same"
	// SourceOpposite reads the side opposite to the target side ("=H|").
	SourceOpposite SourceSide = "opposite"
)

// Operator is the arithmetic applied to a referenced value.
type Operator string

const (
	OpNone Operator = ""
	OpAdd  Operator = "+"
	OpSub  Operator = "-"
	OpMul  Operator = "*"
	OpDiv  Operator = "/"
)

// ParsedRule is a parsed metrics rule. It is either a Reference or a Symmetry.
type ParsedRule interface {
	// SourceGlyph returns the referenced glyph; ok is false for symmetry.
	SourceGlyph() (name string, ok bool)
	String() string
	parsedRule()
}

// Reference reads a margin of another glyph, optionally applying arithmetic.
//
// Operand is only meaningful when Op != OpNone.
type Reference struct {
	Glyph   string     `json:"glyph"`
	From    SourceSide `json:"from"`
	Op      Operator   `json:"op,omitempty"`
	Operand float64    `json:"operand,omitempty"`
}

func (Reference) parsedRule() {}

// SourceGlyph implements ParsedRule.
func (r Reference) SourceGlyph() (string, bool) {
	return r.Glyph, true
}

// SourceSideFor resolves the side of the source glyph read for target.
func (r Reference) SourceSideFor(target Side) Side {
	if r.From == SourceOpposite {
		return target.Opposite()
	}
	return target
}

// String renders the rule back into DSL form.
func (r Reference) String() string {
	s := "=" + r.Glyph
	if r.From == SourceOpposite {
		return s + "|"
	}
	if r.Op != OpNone {
		s += string(r.Op) + strconv.FormatFloat(r.Operand, 'f', -1, 64)
	}
	return s
}

// Symmetry mirrors the glyph's own opposite side ("=|").
type Symmetry struct{}

func (Symmetry) parsedRule() {}

// SourceGlyph implements ParsedRule. Symmetry has no source glyph.
func (Symmetry) SourceGlyph() (string, bool) {
	return "", false
}

func (Symmetry) String() string {
	return "=|"
}

// IsSymmetry reports whether p is a symmetry rule.
func IsSymmetry(p ParsedRule) bool {
	_, ok := p.(Symmetry)
	return ok
}
