package engine

import "github.com/roach88/sidebearing/internal/ir"

// MarginAccessor reads glyph margins. It is all the Evaluator needs.
type MarginAccessor interface {
	HasGlyph(name string) bool

	// Margin returns the side bearing of glyph on side. ok is false when the
	// glyph is missing or has no outline, in which case the margin is undefined.
	Margin(glyph string, side ir.Side) (value float64, ok bool)
}

// Font is the host font accessor used by the Arbiter.
type Font interface {
	MarginAccessor

	// SetMargin moves the outline so the side bearing equals value. The
	// advance width follows.
	SetMargin(glyph string, side ir.Side, value float64) error

	Width(glyph string) float64
	SetWidth(glyph string, width float64) error

	// ReverseComponentMap maps a base glyph to the composites using it.
	ReverseComponentMap() map[string][]string
}

// RuleSource is the read side of the rule store.
type RuleSource interface {
	Parsed(glyph string, side ir.Side) (ir.ParsedRule, bool)
	HasRule(glyph string, side ir.Side) bool
	Glyphs() []string

	// Dependents returns the glyphs whose rules read glyph, sorted.
	Dependents(glyph string) []string
	Dependencies(glyph string) []string
	IsDependent(source, dependent string) bool
}

// Recorder is told about every glyph before the engine mutates it.
// Implementations capture prior state for undo; repeated calls for the same
// glyph must be cheap.
type Recorder interface {
	BeforeMargin(glyph string)
	BeforeRules(glyph string)
}

// NopRecorder ignores every call.
type NopRecorder struct{}

func (NopRecorder) BeforeMargin(string) {}
func (NopRecorder) BeforeRules(string)  {}
