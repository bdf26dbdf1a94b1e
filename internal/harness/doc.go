// Package harness runs spacing scenarios end to end.
//
// A scenario loads a font fixture with its rules, applies a list of editor
// steps and checks assertions against the final margins, rules and
// validation report. Every step is recorded in a trace that can be compared
// against a golden file.
//
// # Scenario Format
//
//	name: cascade_undo
//	description: "Editing H cascades to E; undo restores both"
//	font_file: fonts/basic.yaml   # or an inline font: block
//	steps:
//	  - op: set_margin
//	    glyph: H
//	    side: left
//	    value: 50
//	  - op: undo
//	assertions:
//	  - type: margin
//	    glyph: E
//	    side: left
//	    equals: 10
//
// # Step Operations
//
//   - set_margin, adjust_margin: glyph, side, value; propagate, recursive, apply_rules
//   - set_rule: glyph, side, rule; apply
//   - remove_rule: glyph, side (empty side removes both)
//   - clear_rules: glyph (empty clears everything)
//   - sync: sources (empty syncs every rule)
//   - generate: rules from composites; overwrite, sync
//   - undo, redo
//
// Any step may set expect_error to require a failure.
//
// # Assertion Types
//
//   - margin: glyph, side, equals
//   - width: glyph, equals
//   - rule: glyph, side, rule (an empty rule asserts absence)
//   - valid: valid (whether the final rule table validates)
//   - issue_count: code, count
//
// # Deterministic Testing
//
// Each run uses a fresh in-memory SQLite snapshot log as the rule store's
// persister and a logical clock for trace sequence numbers, so identical
// scenarios produce byte-identical traces.
package harness
