// Package engine evaluates metrics rules against a font and arbitrates margin
// edits between geometric propagation and rule cascades.
//
// ARCHITECTURE:
//
// Evaluator:
// Resolves one rule to a margin value and computes update orders over the
// dependency index kept by the rule store.
//   - CascadeOrder: dependents of one changed glyph, dependencies first
//   - BatchOrder: one global order over the union of several changed glyphs
//   - FullOrder: every rule-bearing glyph
//
// Arbiter:
// Applies a margin edit in three steps:
// 1. Write the direct value or delta to the edited glyph
// 2. Shift composites built on it, skipping composites a rule owns on that side
// 3. Replay the cascade order, evaluating and writing each ruled side
//
// Every glyph is reported to the Recorder before its first mutation so an
// undo transaction can restore it exactly.
//
// Evaluation faults never fail an edit. They are caught per glyph side and
// returned as warnings of the form "glyph.side: message".
//
// Nothing here is safe for concurrent use. Hosts serialize calls.
package engine
