// Package validate checks a rule table for structural problems.
//
// Validation never stops at the first problem. It reports:
//
//   - cycle errors: a glyph reaches itself through "depends on" edges
//   - parse errors: a stored rule string that does not parse
//   - missing-glyph warnings: a rule reads a glyph the font does not have
//   - self-reference warnings: a same-side rule reads its own glyph
//
// Only errors make a table invalid. Warnings and infos never do.
package validate

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/sidebearing/internal/compiler"
	"github.com/roach88/sidebearing/internal/ir"
)

// ErrInvalidRules is wrapped by Report.Err when the table has errors.
var ErrInvalidRules = errors.New("invalid metrics rules")

// GlyphSet answers glyph existence queries against the live font.
type GlyphSet interface {
	HasGlyph(name string) bool
}

// GlyphSetFunc adapts a function to GlyphSet.
type GlyphSetFunc func(name string) bool

// HasGlyph implements GlyphSet.
func (f GlyphSetFunc) HasGlyph(name string) bool { return f(name) }

// Validate checks rules. A nil glyphs skips missing-glyph checks.
func Validate(rules ir.RuleTable, glyphs GlyphSet) *Report {
	r := &Report{}
	names := rules.Glyphs()

	graph := make(map[string][]string, len(names))
	for _, glyph := range names {
		seen := map[string]bool{}
		for _, side := range ir.Sides {
			rule, ok := rules[glyph][side]
			if !ok {
				continue
			}
			p, err := compiler.Parse(rule, side)
			if err != nil {
				r.add(ir.ValidationIssue{
					Severity: ir.SeverityError,
					Code:     ir.CodeParseError,
					Glyph:    glyph,
					Side:     side,
					Message:  fmt.Sprintf("invalid rule %q: %s", rule, parseMessage(err)),
					Details:  map[string]string{"rule": rule},
				})
				continue
			}

			ref, ok := p.(ir.Reference)
			if !ok {
				continue
			}
			if !seen[ref.Glyph] {
				seen[ref.Glyph] = true
				graph[glyph] = append(graph[glyph], ref.Glyph)
			}
			if glyphs != nil && !glyphs.HasGlyph(ref.Glyph) {
				r.add(ir.ValidationIssue{
					Severity: ir.SeverityWarning,
					Code:     ir.CodeMissingGlyph,
					Glyph:    glyph,
					Side:     side,
					Message:  fmt.Sprintf("references missing glyph %q", ref.Glyph),
					Details:  map[string]string{"rule": rule, "source": ref.Glyph},
				})
			}
			if ref.Glyph == glyph && ref.From == ir.SourceSame {
				r.add(ir.ValidationIssue{
					Severity: ir.SeverityWarning,
					Code:     ir.CodeSelfReference,
					Glyph:    glyph,
					Side:     side,
					Message:  "rule references its own side",
					Details:  map[string]string{"rule": rule},
				})
			}
		}
		sort.Strings(graph[glyph])
	}

	for _, cycle := range findCycles(names, graph) {
		r.cycles = append(r.cycles, cycle)
		r.add(ir.ValidationIssue{
			Severity: ir.SeverityError,
			Code:     ir.CodeCycle,
			Glyph:    cycle[0],
			Message:  "circular dependency: " + strings.Join(cycle, " -> "),
			Details:  map[string]string{"path": strings.Join(cycle, ",")},
		})
	}

	r.Valid = len(r.Errors()) == 0
	return r
}

func parseMessage(err error) string {
	var pe *compiler.ParseError
	if errors.As(err, &pe) {
		return pe.Message
	}
	return err.Error()
}

// findCycles runs a depth-first search over graph keeping the current path as
// a recursion stack. Every edge back into the stack yields the path slice from
// the target to the top of the stack plus the closing repeat. The search keeps
// going after a hit so independent cycles are all reported.
func findCycles(order []string, graph map[string][]string) [][]string {
	var (
		cycles  [][]string
		visited = map[string]bool{}
		onStack = map[string]int{}
		path    []string
	)

	var visit func(node string)
	visit = func(node string) {
		visited[node] = true
		onStack[node] = len(path)
		path = append(path, node)

		for _, next := range graph[node] {
			if i, ok := onStack[next]; ok {
				cycle := make([]string, 0, len(path)-i+1)
				cycle = append(cycle, path[i:]...)
				cycles = append(cycles, append(cycle, next))
				continue
			}
			if !visited[next] {
				visit(next)
			}
		}

		path = path[:len(path)-1]
		delete(onStack, node)
	}

	for _, node := range order {
		if !visited[node] {
			visit(node)
		}
	}
	return cycles
}
