package editor

import (
	"errors"
	"fmt"

	"github.com/roach88/sidebearing/internal/engine"
	"github.com/roach88/sidebearing/internal/ir"
)

type entryKind int

const (
	marginEntry entryKind = iota
	rulesEntry
)

type txEntry struct {
	kind  entryKind
	glyph string

	left, right *float64
	width       float64

	rules ir.SideRules
}

// Transaction records the state of each glyph before its first mutation.
// It implements engine.Recorder.
type Transaction struct {
	font    engine.Font
	rules   Rules
	entries []txEntry
	margins map[string]bool
	ruled   map[string]bool
}

func newTransaction(font engine.Font, rules Rules) *Transaction {
	return &Transaction{
		font:    font,
		rules:   rules,
		margins: map[string]bool{},
		ruled:   map[string]bool{},
	}
}

// BeforeMargin captures glyph's margins and width on first touch.
func (tx *Transaction) BeforeMargin(glyph string) {
	if tx.margins[glyph] || !tx.font.HasGlyph(glyph) {
		return
	}
	tx.margins[glyph] = true

	e := txEntry{kind: marginEntry, glyph: glyph, width: tx.font.Width(glyph)}
	if v, ok := tx.font.Margin(glyph, ir.SideLeft); ok {
		e.left = &v
	}
	if v, ok := tx.font.Margin(glyph, ir.SideRight); ok {
		e.right = &v
	}
	tx.entries = append(tx.entries, e)
}

// BeforeRules captures glyph's raw rules on first touch.
func (tx *Transaction) BeforeRules(glyph string) {
	if tx.ruled[glyph] {
		return
	}
	tx.ruled[glyph] = true
	tx.entries = append(tx.entries, txEntry{kind: rulesEntry, glyph: glyph, rules: tx.rules.RulesForGlyph(glyph)})
}

// Len returns the number of recorded entries.
func (tx *Transaction) Len() int {
	return len(tx.entries)
}

// Glyphs returns the touched glyphs in touch order, each once.
func (tx *Transaction) Glyphs() []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range tx.entries {
		if !seen[e.glyph] {
			seen[e.glyph] = true
			out = append(out, e.glyph)
		}
	}
	return out
}

// revert restores every recorded state, newest first. It returns a
// transaction holding the state it overwrote, whose revert redoes the change.
func (tx *Transaction) revert() (*Transaction, error) {
	fwd := newTransaction(tx.font, tx.rules)
	var errs []error
	for i := len(tx.entries) - 1; i >= 0; i-- {
		e := tx.entries[i]
		switch e.kind {
		case marginEntry:
			fwd.BeforeMargin(e.glyph)
			if err := restoreMargins(tx.font, e); err != nil {
				errs = append(errs, err)
			}
		case rulesEntry:
			fwd.BeforeRules(e.glyph)
			if err := tx.rules.ReplaceGlyph(e.glyph, e.rules); err != nil {
				errs = append(errs, fmt.Errorf("restore rules of %s: %w", e.glyph, err))
			}
		}
	}
	return fwd, errors.Join(errs...)
}

func restoreMargins(font engine.Font, e txEntry) error {
	if e.left == nil && e.right == nil {
		if err := font.SetWidth(e.glyph, e.width); err != nil {
			return fmt.Errorf("restore width of %s: %w", e.glyph, err)
		}
		return nil
	}
	if e.left != nil {
		if err := font.SetMargin(e.glyph, ir.SideLeft, *e.left); err != nil {
			return fmt.Errorf("restore %s.left: %w", e.glyph, err)
		}
	}
	if e.right != nil {
		if err := font.SetMargin(e.glyph, ir.SideRight, *e.right); err != nil {
			return fmt.Errorf("restore %s.right: %w", e.glyph, err)
		}
	}
	return nil
}
