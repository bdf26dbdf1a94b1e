package ir

import "sort"

// SideRules holds the raw rules of one glyph, keyed by concrete side.
type SideRules map[Side]string

// Clone returns a copy of r. A nil or empty input yields nil.
func (r SideRules) Clone() SideRules {
	if len(r) == 0 {
		return nil
	}
	out := make(SideRules, len(r))
	for side, rule := range r {
		out[side] = rule
	}
	return out
}

// RuleTable maps glyph → side → raw rule string.
type RuleTable map[string]SideRules

// Clone returns a deep copy of t, dropping glyphs without rules.
func (t RuleTable) Clone() RuleTable {
	out := make(RuleTable, len(t))
	for glyph, sides := range t {
		if c := sides.Clone(); c != nil {
			out[glyph] = c
		}
	}
	return out
}

// Glyphs returns the glyph names in t, sorted.
func (t RuleTable) Glyphs() []string {
	names := make([]string, 0, len(t))
	for glyph := range t {
		names = append(names, glyph)
	}
	sort.Strings(names)
	return names
}

// Len returns the total number of rules across all glyphs and sides.
func (t RuleTable) Len() int {
	n := 0
	for _, sides := range t {
		n += len(sides)
	}
	return n
}
