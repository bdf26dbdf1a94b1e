package engine

import (
	"fmt"
	"slices"

	"github.com/roach88/sidebearing/internal/ir"
)

// EditMode says how MarginEdit.Value is applied.
type EditMode int

const (
	// ModeSet makes Value the new margin.
	ModeSet EditMode = iota
	// ModeAdjust adds Value to the current margin.
	ModeAdjust
)

func (m EditMode) String() string {
	if m == ModeAdjust {
		return "adjust"
	}
	return "set"
}

// MarginEdit is one user edit to a glyph side bearing.
type MarginEdit struct {
	Glyph string
	Side  ir.Side
	Value float64
	Mode  EditMode

	// Propagate shifts composites built on Glyph by the same delta.
	Propagate bool
	// Recursive continues propagation into composites of composites.
	Recursive bool
	// ApplyRules replays the rule cascade after the edit.
	ApplyRules bool
}

// SetEdit returns an edit setting glyph's side to value with propagation and
// rules enabled.
func SetEdit(glyph string, side ir.Side, value float64) MarginEdit {
	return MarginEdit{Glyph: glyph, Side: side, Value: value, Mode: ModeSet, Propagate: true, ApplyRules: true}
}

// AdjustEdit returns an edit adding delta to glyph's side with propagation and
// rules enabled.
func AdjustEdit(glyph string, side ir.Side, delta float64) MarginEdit {
	return MarginEdit{Glyph: glyph, Side: side, Value: delta, Mode: ModeAdjust, Propagate: true, ApplyRules: true}
}

// Outcome reports what an edit or sync touched.
type Outcome struct {
	// Affected lists every glyph whose geometry changed, in touch order.
	Affected []string `json:"affected"`
	// Propagated lists composites shifted by geometric propagation.
	Propagated []string `json:"propagated,omitempty"`
	// Cascaded lists glyphs written by rule evaluation.
	Cascaded []string `json:"cascaded,omitempty"`
	// Warnings holds demoted evaluation faults, "glyph.side: message".
	Warnings []string `json:"warnings,omitempty"`
	// Changed counts margin writes made by rule evaluation.
	Changed int `json:"changed"`
}

// NoChanges reports whether rule evaluation wrote nothing.
func (o *Outcome) NoChanges() bool {
	return o.Changed == 0
}

func (o *Outcome) touch(glyph string) {
	if !slices.Contains(o.Affected, glyph) {
		o.Affected = append(o.Affected, glyph)
	}
}

// Arbiter decides, per composite and per side, whether geometry or a rule owns
// an update, and applies edits accordingly.
type Arbiter struct {
	font  Font
	rules RuleSource
	eval  *Evaluator
	cfg   config
}

// NewArbiter returns an Arbiter editing font under rules.
func NewArbiter(font Font, rules RuleSource, opts ...Option) *Arbiter {
	return &Arbiter{
		font:  font,
		rules: rules,
		eval:  NewEvaluator(rules, font, opts...),
		cfg:   newConfig(opts),
	}
}

// Evaluator returns the evaluator the arbiter cascades with.
func (a *Arbiter) Evaluator() *Evaluator {
	return a.eval
}

// ApplyMarginEdit applies edit and everything it implies.
//
// The direct write comes first. A glyph without an outline has its width
// changed instead, and nothing further happens: composites built on an empty
// base are not shifted and no rules are replayed. Otherwise composites using the
// glyph are shifted by the same delta unless a rule owns that side, and when
// ApplyRules is set the cascade is replayed. rec sees every glyph before it is
// mutated; a nil rec records nothing.
//
// Only failures of the direct write are returned as errors. Faults while
// cascading become warnings on the outcome.
func (a *Arbiter) ApplyMarginEdit(rec Recorder, edit MarginEdit) (*Outcome, error) {
	if rec == nil {
		rec = NopRecorder{}
	}
	if !edit.Side.Valid() {
		return nil, NewInvalidSideError(edit.Glyph, edit.Side)
	}
	if !a.font.HasGlyph(edit.Glyph) {
		return nil, NewUnknownGlyphError(edit.Glyph)
	}

	out := &Outcome{}
	rec.BeforeMargin(edit.Glyph)

	current, defined := a.font.Margin(edit.Glyph, edit.Side)
	if !defined {
		width := a.font.Width(edit.Glyph)
		if edit.Mode == ModeSet {
			width = edit.Value
		} else {
			width += edit.Value
		}
		if err := a.font.SetWidth(edit.Glyph, width); err != nil {
			return nil, NewHostWriteError(edit.Glyph, edit.Side, err)
		}
		out.touch(edit.Glyph)
		a.cfg.logger.Debug("margin undefined, width adjusted",
			"glyph", edit.Glyph, "side", edit.Side, "width", width)
		return out, nil
	}

	target, delta := edit.Value, edit.Value
	if edit.Mode == ModeSet {
		delta = edit.Value - current
	} else {
		target = current + edit.Value
	}
	if err := a.font.SetMargin(edit.Glyph, edit.Side, target); err != nil {
		return nil, NewHostWriteError(edit.Glyph, edit.Side, err)
	}
	out.touch(edit.Glyph)

	if edit.Propagate && delta != 0 {
		visited := map[string]bool{}
		a.propagate(rec, edit.Glyph, edit.Side, delta, edit.Recursive, visited, out)
	}

	if edit.ApplyRules {
		a.replay(rec, a.eval.CascadeOrder(edit.Glyph), false, out)
	}

	a.cfg.logger.Debug("margin edit applied",
		"glyph", edit.Glyph,
		"side", edit.Side,
		"mode", edit.Mode,
		"delta", delta,
		"propagated", len(out.Propagated),
		"cascaded", len(out.Cascaded),
		"warnings", len(out.Warnings),
	)
	return out, nil
}

// propagate shifts the composites built on base by delta on side. Composites
// with a rule on side are skipped: the cascade owns them.
func (a *Arbiter) propagate(rec Recorder, base string, side ir.Side, delta float64, recursive bool, visited map[string]bool, out *Outcome) {
	if visited[base] {
		return
	}
	visited[base] = true

	for _, comp := range a.font.ReverseComponentMap()[base] {
		if visited[comp] || !a.font.HasGlyph(comp) {
			continue
		}
		if a.rules.HasRule(comp, side) {
			continue
		}

		rec.BeforeMargin(comp)
		var err error
		if m, ok := a.font.Margin(comp, side); ok {
			err = a.font.SetMargin(comp, side, m+delta)
		} else {
			err = a.font.SetWidth(comp, a.font.Width(comp)+delta)
		}
		if err != nil {
			a.warn(out, comp, side, err)
			continue
		}
		a.cfg.metrics.Propagation()
		out.Propagated = append(out.Propagated, comp)
		out.touch(comp)

		if recursive {
			a.propagate(rec, comp, side, delta, true, visited, out)
		}
	}
}

// replay evaluates and writes every ruled side of the glyphs in order. With
// onlyChanged set, values equal to the current margin are not written.
func (a *Arbiter) replay(rec Recorder, order []string, onlyChanged bool, out *Outcome) {
	for _, glyph := range order {
		if !a.font.HasGlyph(glyph) {
			continue
		}
		wrote := false
		for _, side := range ir.Sides {
			if !a.rules.HasRule(glyph, side) {
				continue
			}
			value, ok, err := a.safeEvaluate(glyph, side)
			if err != nil {
				a.warn(out, glyph, side, err)
				continue
			}
			if !ok {
				continue
			}
			if onlyChanged {
				if cur, defined := a.font.Margin(glyph, side); defined && cur == value {
					continue
				}
			}
			rec.BeforeMargin(glyph)
			if err := a.font.SetMargin(glyph, side, value); err != nil {
				a.warn(out, glyph, side, err)
				continue
			}
			out.Changed++
			wrote = true
		}
		if wrote {
			out.Cascaded = append(out.Cascaded, glyph)
			out.touch(glyph)
		}
	}
}

func (a *Arbiter) safeEvaluate(glyph string, side ir.Side) (value float64, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return a.eval.Resolve(glyph, side)
}

func (a *Arbiter) warn(out *Outcome, glyph string, side ir.Side, err error) {
	msg := fmt.Sprintf("%s.%s: %v", glyph, side, err)
	out.Warnings = append(out.Warnings, msg)
	a.cfg.metrics.Warning()
	a.cfg.logger.Warn("rule evaluation fault demoted to warning",
		"glyph", glyph, "side", side, "error", err)
}
