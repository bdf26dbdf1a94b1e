package harness

import (
	"strconv"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/sidebearing/internal/ir"
)

// TraceSnapshot is the part of a result compared against golden files.
// Margins are rendered as decimal strings since canonical JSON has no floats.
func TraceSnapshot(name string, r *Result) map[string]any {
	trace := make([]any, len(r.Trace))
	for i, ev := range r.Trace {
		m := map[string]any{
			"seq":         ev.Seq,
			"op":          ev.Op,
			"description": ev.Description,
		}
		if ev.Message != "" {
			m["message"] = ev.Message
		}
		if len(ev.Affected) > 0 {
			m["affected"] = ev.Affected
		}
		if len(ev.Warnings) > 0 {
			m["warnings"] = ev.Warnings
		}
		if ev.Error != "" {
			m["error"] = ev.Error
		}
		trace[i] = m
	}

	margins := make(map[string]any, len(r.Metrics))
	for glyph, m := range r.Metrics {
		g := map[string]any{"width": num(m.Width)}
		if m.Left != nil {
			g["left"] = num(*m.Left)
		}
		if m.Right != nil {
			g["right"] = num(*m.Right)
		}
		margins[glyph] = g
	}

	rules := make(map[string]any, len(r.Rules))
	for glyph, sides := range r.Rules {
		s := make(map[string]any, len(sides))
		for side, rule := range sides {
			s[string(side)] = rule
		}
		rules[glyph] = s
	}

	return map[string]any{
		"scenario_name": name,
		"trace":         trace,
		"final": map[string]any{
			"margins": margins,
			"rules":   rules,
		},
		"snapshots": r.Snapshots,
	}
}

// MarshalTrace returns the canonical JSON of TraceSnapshot(name, r).
func MarshalTrace(name string, r *Result) ([]byte, error) {
	return ir.MarshalCanonical(TraceSnapshot(name, r))
}

// RunWithGolden runs scenario and compares its trace with
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := MarshalTrace(name, result)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
