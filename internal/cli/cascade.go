package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sidebearing/internal/editor"
	"github.com/roach88/sidebearing/internal/engine"
	"github.com/roach88/sidebearing/internal/font"
	"github.com/roach88/sidebearing/internal/ir"
)

// CascadeOptions holds flags for the cascade command.
type CascadeOptions struct {
	*RootOptions
	Set         float64
	Delta       float64
	NoPropagate bool
	Recursive   bool
	NoRules     bool
	Output      string
}

// CascadeResult is the JSON payload of the cascade command.
type CascadeResult struct {
	*editor.Result
	Propagated []string                `json:"propagated,omitempty"`
	Cascaded   []string                `json:"cascaded,omitempty"`
	Metrics    map[string]font.Metrics `json:"metrics"`
}

// NewCascadeCommand creates the cascade command.
func NewCascadeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CascadeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "cascade <font.yaml> <glyph> <left|right> (--set N | --delta N)",
		Short: "Edit a margin and cascade it through rules",
		Long: `Set or adjust one side bearing and show every glyph the edit reaches.

Composites built on the glyph are shifted by the same delta unless a rule
owns their side, then dependent rules are re-evaluated. The font is
written back with --output; with --db the rule table is logged too.

Examples:
  sidebearing cascade font.yaml H left --set 50
  sidebearing cascade font.yaml A right --delta=-5 --recursive
  sidebearing cascade font.yaml O left --set 40 --no-rules -o out.yaml`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCascade(opts, args, cmd)
		},
	}

	cmd.Flags().Float64Var(&opts.Set, "set", 0, "set the margin to this value")
	cmd.Flags().Float64Var(&opts.Delta, "delta", 0, "add this delta to the margin")
	cmd.Flags().BoolVar(&opts.NoPropagate, "no-propagate", false, "do not shift composites")
	cmd.Flags().BoolVar(&opts.Recursive, "recursive", false, "propagate into composites of composites")
	cmd.Flags().BoolVar(&opts.NoRules, "no-rules", false, "do not re-evaluate dependent rules")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the edited fixture to this file")
	cmd.MarkFlagsOneRequired("set", "delta")
	cmd.MarkFlagsMutuallyExclusive("set", "delta")

	return cmd
}

func runCascade(opts *CascadeOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	glyph := args[1]
	side, err := ir.ParseSide(strings.ToLower(args[2]))
	if err != nil || !side.Valid() {
		_ = formatter.Error(ErrCodeBadArgs, fmt.Sprintf("side must be left or right, got %q", args[2]), nil)
		return NewExitError(ExitCommandError, "invalid side")
	}
	s, err := openSession(commandContext(cmd), opts.RootOptions, args[0], cmd)
	if err != nil {
		_ = formatter.Error(loadErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "load failed", err)
	}
	defer s.Close()

	res, err := s.editor.Execute(opts.command(glyph, side, cmd.Flags().Changed("delta")))
	if err != nil {
		code := ErrCodeEditFailed
		if engine.IsUnknownGlyph(err) {
			code = ErrCodeUnknownGlyph
		}
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitCommandError, "edit failed", err)
	}
	formatter.VerboseLog("%s", res.Message)

	if opts.Output != "" {
		if err := s.writeFixture(opts.Output); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "write failed", err)
		}
		formatter.VerboseLog("Wrote %s", opts.Output)
	}

	out := CascadeResult{Result: res, Metrics: s.glyphMetrics(res.Affected)}
	if res.Outcome != nil {
		out.Propagated = res.Outcome.Propagated
		out.Cascaded = res.Outcome.Cascaded
	}
	if formatter.JSON() {
		return formatter.Success(out)
	}

	w := formatter.Writer
	fmt.Fprintln(w, res.Message)
	for _, name := range res.Affected {
		m := out.Metrics[name]
		fmt.Fprintf(w, "  %-12s L %-6s R %-6s W %s\n", name, optNumber(m.Left), optNumber(m.Right), strconv.FormatFloat(m.Width, 'f', -1, 64))
	}
	for _, warning := range res.Warnings {
		fmt.Fprintf(w, "  warning %s\n", warning)
	}
	return nil
}

func (o *CascadeOptions) command(glyph string, side ir.Side, adjust bool) editor.Command {
	if adjust {
		return &editor.AdjustMargin{
			Glyph: glyph, Side: side, Delta: o.Delta,
			Propagate: !o.NoPropagate, Recursive: o.Recursive, ApplyRules: !o.NoRules,
		}
	}
	return &editor.SetMargin{
		Glyph: glyph, Side: side, Value: o.Set,
		Propagate: !o.NoPropagate, Recursive: o.Recursive, ApplyRules: !o.NoRules,
	}
}
