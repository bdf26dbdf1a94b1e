package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/sidebearing/internal/editor"
	"github.com/roach88/sidebearing/internal/font"
	"github.com/roach88/sidebearing/internal/generate"
	"github.com/roach88/sidebearing/internal/ir"
	"github.com/roach88/sidebearing/internal/rulestore"
	"github.com/roach88/sidebearing/internal/store"
	"github.com/roach88/sidebearing/internal/testutil"
)

// fontID is the id under which scenario snapshots are logged.
const fontID = "scenario"

// Harness executes the steps of one scenario.
type Harness struct {
	font   *font.Font
	rules  *rulestore.Store
	editor *editor.Editor
	log    *store.Store
	clock  *testutil.DeterministicClock
	logger *slog.Logger
}

// Option configures Run.
type Option func(*Harness)

// WithLogger routes engine and editor logs to l. Runs are silent by default.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// Run executes scenario in a fresh environment and returns the result.
//
// Execution flow:
//  1. Build the font and rule table from the fixture
//  2. Open an in-memory snapshot log and wire it as the rule persister
//  3. Execute the steps through an editor, tracing each one
//  4. Evaluate the assertions against the final state
//
// The returned error covers setup failures only. Step and assertion failures
// are reported in the result.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{
		clock:  testutil.NewDeterministicClock(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}

	f, table, err := loadFont(scenario)
	if err != nil {
		return nil, err
	}

	log, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer log.Close()

	ctx := context.Background()
	h.font = f
	h.log = log
	h.rules = rulestore.FromSnapshot(ir.NewSnapshot(table),
		rulestore.WithPersister(log.Persister(ctx, fontID)),
		rulestore.WithLogger(h.logger),
	)
	h.editor = editor.New(f, h.rules, editor.WithLogger(h.logger))

	result := NewResult()
	for i, step := range scenario.Steps {
		h.executeStep(i, step, result)
	}

	for i, a := range scenario.Assertions {
		if err := h.evaluateAssertion(a); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d] (%s): %v", i, a.Type, err))
		}
	}

	result.Metrics = f.Metrics()
	result.Rules = h.rules.AllRules()
	history, err := log.SnapshotHistory(ctx, fontID)
	if err != nil {
		return nil, fmt.Errorf("read snapshot history: %w", err)
	}
	result.Snapshots = len(history)

	h.logger.Debug("scenario finished",
		"scenario", scenario.Name,
		"steps", len(scenario.Steps),
		"pass", result.Pass,
		"errors", len(result.Errors),
	)
	return result, nil
}

func loadFont(s *Scenario) (*font.Font, ir.RuleTable, error) {
	if s.Font != nil {
		f, rules, err := s.Font.Build()
		if err != nil {
			return nil, nil, fmt.Errorf("build font: %w", err)
		}
		return f, rules, nil
	}
	f, rules, err := font.LoadFixture(s.FontFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load font: %w", err)
	}
	return f, rules, nil
}

func (h *Harness) executeStep(i int, step Step, result *Result) {
	ev := TraceEvent{Seq: h.clock.Next(), Op: step.Op}

	var (
		res *editor.Result
		err error
	)
	switch step.Op {
	case OpUndo:
		ev.Description = "Undo"
		res, err = h.editor.Undo()
	case OpRedo:
		ev.Description = "Redo"
		res, err = h.editor.Redo()
	default:
		var cmd editor.Command
		cmd, err = h.command(step)
		if err == nil {
			ev.Description = cmd.Description()
			res, err = h.editor.Execute(cmd)
		}
	}

	if res != nil {
		ev.Message = res.Message
		ev.Affected = res.Affected
		ev.Warnings = res.Warnings
	}
	if err != nil {
		ev.Error = err.Error()
	}
	result.Trace = append(result.Trace, ev)

	switch {
	case err != nil && !step.ExpectError:
		result.AddError(fmt.Sprintf("steps[%d] (%s): %v", i, step.Op, err))
	case err == nil && step.ExpectError:
		result.AddError(fmt.Sprintf("steps[%d] (%s): expected an error", i, step.Op))
	}
}

func (h *Harness) command(step Step) (editor.Command, error) {
	side := ir.Side(step.Side)

	switch step.Op {
	case OpSetMargin:
		c := editor.NewSetMargin(step.Glyph, side, step.Value)
		applySwitches(step, &c.Propagate, &c.ApplyRules)
		c.Recursive = step.Recursive
		return c, nil

	case OpAdjustMargin:
		c := editor.NewAdjustMargin(step.Glyph, side, step.Value)
		applySwitches(step, &c.Propagate, &c.ApplyRules)
		c.Recursive = step.Recursive
		return c, nil

	case OpSetRule:
		return &editor.SetRule{Glyph: step.Glyph, Side: side, Rule: step.Rule, Apply: step.Apply}, nil

	case OpRemoveRule:
		if side == "" {
			side = ir.SideBoth
		}
		return &editor.RemoveRule{Glyph: step.Glyph, Side: side}, nil

	case OpClearRules:
		return &editor.ClearRules{Glyph: step.Glyph}, nil

	case OpSync:
		return &editor.SyncRules{Sources: step.Sources}, nil

	case OpGenerate:
		gen := generate.FromComposites(h.font, generate.Options{Logger: h.logger})
		return &editor.ApplyRules{Rules: gen.Rules, Overwrite: step.Overwrite, Sync: step.Sync}, nil
	}
	return nil, fmt.Errorf("unknown op %q", step.Op)
}

func applySwitches(step Step, propagate, applyRules *bool) {
	if step.Propagate != nil {
		*propagate = *step.Propagate
	}
	if step.ApplyRules != nil {
		*applyRules = *step.ApplyRules
	}
}
