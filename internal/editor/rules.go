package editor

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/sidebearing/internal/ir"
)

// SetRule stores a rule. With Apply set, the glyph and everything depending
// on it are re-evaluated right away.
type SetRule struct {
	Glyph string
	Side  ir.Side
	Rule  string
	Apply bool
}

func (c *SetRule) Description() string {
	if c.Side == ir.SideBoth {
		return fmt.Sprintf("Set rule %s = '%s'", c.Glyph, c.Rule)
	}
	return fmt.Sprintf("Set rule %s.%s = '%s'", c.Glyph, c.Side, c.Rule)
}

func (c *SetRule) Execute(env Env) (*Result, error) {
	env.Recorder.BeforeRules(c.Glyph)
	if err := env.Rules.SetRule(c.Glyph, c.Side, c.Rule); err != nil {
		return nil, err
	}
	if !c.Apply {
		return &Result{Message: "Set rule for " + c.Glyph}, nil
	}
	sources := append(env.Rules.Dependencies(c.Glyph), c.Glyph)
	out := env.Arbiter.Sync(env.Recorder, sources)
	return resultFrom("Set rule for "+c.Glyph, out), nil
}

// RemoveRule deletes a rule. Removing an absent rule succeeds and changes
// nothing.
type RemoveRule struct {
	Glyph string
	Side  ir.Side
}

func (c *RemoveRule) Description() string {
	if c.Side == ir.SideBoth {
		return "Remove rules for " + c.Glyph
	}
	return fmt.Sprintf("Remove rule %s.%s", c.Glyph, c.Side)
}

func (c *RemoveRule) Execute(env Env) (*Result, error) {
	env.Recorder.BeforeRules(c.Glyph)
	removed, err := env.Rules.RemoveRule(c.Glyph, c.Side)
	if err != nil {
		return nil, err
	}
	if len(removed) == 0 {
		return &Result{Message: "No rule to remove for " + c.Glyph}, nil
	}
	return &Result{Message: "Removed rule for " + c.Glyph, Affected: []string{c.Glyph}}, nil
}

// ClearRules removes every rule of Glyph, or of every glyph when Glyph is
// empty.
type ClearRules struct {
	Glyph string
}

func (c *ClearRules) Description() string {
	if c.Glyph == "" {
		return "Clear all rules"
	}
	return "Clear rules for " + c.Glyph
}

func (c *ClearRules) Execute(env Env) (*Result, error) {
	if c.Glyph != "" {
		return (&RemoveRule{Glyph: c.Glyph, Side: ir.SideBoth}).Execute(env)
	}
	glyphs := env.Rules.Glyphs()
	for _, g := range glyphs {
		env.Recorder.BeforeRules(g)
	}
	if err := env.Rules.Clear(); err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("Cleared rules for %d glyphs", len(glyphs)), Affected: glyphs}, nil
}

// SyncRules re-evaluates rules in one batch. With Sources it covers the
// glyphs depending on them; with none it covers every rule.
type SyncRules struct {
	Sources []string
}

func (c *SyncRules) Description() string {
	if len(c.Sources) == 0 {
		return "Sync all rules"
	}
	return "Sync rules from " + strings.Join(c.Sources, ", ")
}

func (c *SyncRules) Execute(env Env) (*Result, error) {
	out := env.Arbiter.Sync(env.Recorder, c.Sources)
	if out.NoChanges() {
		return resultFrom("No changes needed", out), nil
	}
	return resultFrom(fmt.Sprintf("Synced %d margins", out.Changed), out), nil
}

// ApplyRules stores many rules in one undoable step, typically the output of
// the rule generator. Glyphs that already have rules are left alone unless
// Overwrite is set; an overwritten glyph loses sides absent from the new set.
// With Sync set, the new rules are evaluated afterwards.
type ApplyRules struct {
	Rules     ir.RuleTable
	Overwrite bool
	Sync      bool
}

func (c *ApplyRules) Description() string {
	return fmt.Sprintf("Apply rules to %d glyphs", len(c.Rules))
}

func (c *ApplyRules) Execute(env Env) (*Result, error) {
	var applied []string
	for _, glyph := range c.Rules.Glyphs() {
		sides := c.Rules[glyph]
		if len(sides) == 0 {
			continue
		}
		if !c.Overwrite && len(env.Rules.RulesForGlyph(glyph)) > 0 {
			continue
		}
		env.Recorder.BeforeRules(glyph)
		if c.Overwrite {
			if _, err := env.Rules.RemoveRule(glyph, ir.SideBoth); err != nil {
				return nil, err
			}
		}
		for _, side := range ir.Sides {
			rule, ok := sides[side]
			if !ok {
				continue
			}
			if err := env.Rules.SetRule(glyph, side, rule); err != nil {
				return nil, err
			}
		}
		applied = append(applied, glyph)
	}

	msg := fmt.Sprintf("Applied rules to %d glyphs", len(applied))
	if !c.Sync || len(applied) == 0 {
		return &Result{Message: msg, Affected: applied}, nil
	}

	var sources []string
	for _, g := range applied {
		sources = append(sources, env.Rules.Dependencies(g)...)
		sources = append(sources, g)
	}
	out := env.Arbiter.Sync(env.Recorder, sources)
	res := resultFrom(msg, out)
	res.Affected = applied
	for _, g := range out.Affected {
		if !slices.Contains(res.Affected, g) {
			res.Affected = append(res.Affected, g)
		}
	}
	return res, nil
}
