package engine

import (
	"math"

	"github.com/roach88/sidebearing/internal/ir"
)

// Evaluator resolves rules to margin values and computes update orders.
type Evaluator struct {
	rules RuleSource
	font  MarginAccessor
	cfg   config
}

// NewEvaluator returns an Evaluator reading rules and margins.
func NewEvaluator(rules RuleSource, font MarginAccessor, opts ...Option) *Evaluator {
	return &Evaluator{rules: rules, font: font, cfg: newConfig(opts)}
}

// Evaluate computes the margin glyph's rule on side prescribes.
//
// ok is false when glyph has no parsed rule on side, when the source glyph is
// missing or its margin undefined, on division by zero, and when the result is
// not finite. Arithmetic results are rounded to a whole unit, halves away from
// zero. A plain reference returns the source value unrounded.
func (e *Evaluator) Evaluate(glyph string, side ir.Side) (value float64, ok bool) {
	value, ok, err := e.Resolve(glyph, side)
	if err != nil {
		return 0, false
	}
	return value, ok
}

// Resolve is Evaluate with faults reported. It returns a NON_FINITE_RESULT
// RuntimeError when the arithmetic overflows or is undefined.
func (e *Evaluator) Resolve(glyph string, side ir.Side) (value float64, ok bool, err error) {
	defer func() { e.cfg.metrics.Evaluation(ok) }()

	p, found := e.rules.Parsed(glyph, side)
	if !found {
		return 0, false, nil
	}

	switch r := p.(type) {
	case ir.Symmetry:
		value, ok = e.font.Margin(glyph, side.Opposite())
		return value, ok, nil

	case ir.Reference:
		if !e.font.HasGlyph(r.Glyph) {
			return 0, false, nil
		}
		src, defined := e.font.Margin(r.Glyph, r.SourceSideFor(side))
		if !defined {
			return 0, false, nil
		}
		v, defined := apply(src, r.Op, r.Operand)
		if !defined {
			return 0, false, nil
		}
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, false, NewNonFiniteError(glyph, side, v)
		}
		return v, true, nil
	}
	return 0, false, nil
}

func apply(v float64, op ir.Operator, operand float64) (float64, bool) {
	switch op {
	case ir.OpNone:
		return v, true
	case ir.OpAdd:
		return math.Round(v + operand), true
	case ir.OpSub:
		return math.Round(v - operand), true
	case ir.OpMul:
		return math.Round(v * operand), true
	case ir.OpDiv:
		if operand == 0 {
			return 0, false
		}
		return math.Round(v / operand), true
	}
	return 0, false
}
