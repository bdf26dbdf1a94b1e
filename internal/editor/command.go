// Package editor runs spacing edits as undoable commands.
//
// Every command implements the same interface and receives the same
// collaborators in an Env. The Editor gives each command a fresh Transaction
// as its Recorder; the transaction captures the prior state of every glyph
// and rule set the command touches, so undo is one reverse replay and needs no
// knowledge of the command type.
package editor

import (
	"github.com/roach88/sidebearing/internal/engine"
	"github.com/roach88/sidebearing/internal/ir"
)

// Rules is the rule store as seen by commands.
type Rules interface {
	engine.RuleSource

	RulesForGlyph(glyph string) ir.SideRules
	SetRule(glyph string, side ir.Side, rule string) error
	RemoveRule(glyph string, side ir.Side) (ir.SideRules, error)
	ReplaceGlyph(glyph string, rules ir.SideRules) error
	Clear() error
}

// Env is the fixed set of collaborators every command receives.
type Env struct {
	Font     engine.Font
	Rules    Rules
	Arbiter  *engine.Arbiter
	Recorder engine.Recorder
}

// Command is one undoable edit.
type Command interface {
	Description() string
	Execute(env Env) (*Result, error)
}

// Result describes a successful command, undo or redo.
type Result struct {
	ID       string   `json:"id,omitempty"`
	Message  string   `json:"message"`
	Affected []string `json:"affected,omitempty"`
	Warnings []string `json:"warnings,omitempty"`

	Outcome *engine.Outcome `json:"-"`
}

func resultFrom(msg string, out *engine.Outcome) *Result {
	r := &Result{Message: msg, Outcome: out}
	if out != nil {
		r.Affected = out.Affected
		r.Warnings = out.Warnings
	}
	return r
}
