package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/sidebearing/internal/engine"
	"github.com/roach88/sidebearing/internal/ir"
)

// Evaluation is one rule resolved against the font.
type Evaluation struct {
	Glyph   string   `json:"glyph"`
	Side    ir.Side  `json:"side"`
	Rule    string   `json:"rule"`
	Value   *float64 `json:"value,omitempty"`
	Current *float64 `json:"current,omitempty"`
	Stale   bool     `json:"stale"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval <font.yaml> [glyph...]",
		Short: "Evaluate rules without changing the font",
		Long: `Evaluate metrics rules against the margins in a font fixture.

Each rule is shown with the value it prescribes and the glyph's current
margin. A rule is stale when the two differ. Without glyph arguments
every glyph that has a rule is evaluated.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(rootOpts, args[0], args[1:], cmd)
		},
	}
	return cmd
}

func runEval(opts *RootOptions, path string, glyphs []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	s, err := openSession(commandContext(cmd), opts, path, cmd)
	if err != nil {
		_ = formatter.Error(loadErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "load failed", err)
	}
	defer s.Close()

	if len(glyphs) == 0 {
		glyphs = s.rules.Glyphs()
	}
	for _, g := range glyphs {
		if !s.font.HasGlyph(g) {
			_ = formatter.Error(ErrCodeUnknownGlyph, fmt.Sprintf("glyph %s not in font", g), nil)
			return NewExitError(ExitCommandError, fmt.Sprintf("unknown glyph %s", g))
		}
	}

	eval := engine.NewEvaluator(s.rules, s.font, engine.WithMetrics(s.metrics))
	var results []Evaluation
	stale := 0
	for _, g := range glyphs {
		for _, side := range ir.Sides {
			rule, ok := s.rules.Rule(g, side)
			if !ok {
				continue
			}
			e := Evaluation{Glyph: g, Side: side, Rule: rule}
			if v, ok := eval.Evaluate(g, side); ok {
				e.Value = &v
			}
			if cur, ok := s.font.Margin(g, side); ok {
				e.Current = &cur
			}
			e.Stale = e.Value != nil && (e.Current == nil || *e.Current != *e.Value)
			if e.Stale {
				stale++
			}
			results = append(results, e)
		}
	}

	if formatter.JSON() {
		if results == nil {
			results = []Evaluation{}
		}
		return formatter.Success(results)
	}

	w := formatter.Writer
	for _, e := range results {
		mark := " "
		if e.Stale {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %s.%s %s = %s (current %s)\n", mark, e.Glyph, e.Side, e.Rule, optNumber(e.Value), optNumber(e.Current))
	}
	fmt.Fprintf(w, "%d rules, %d stale\n", len(results), stale)
	return nil
}

func optNumber(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
