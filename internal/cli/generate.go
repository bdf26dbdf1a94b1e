package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sidebearing/internal/editor"
	"github.com/roach88/sidebearing/internal/generate"
	"github.com/roach88/sidebearing/internal/ir"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Glyphs       []string
	SkipSingle   bool
	SkipExisting bool
	Apply        bool
	Overwrite    bool
	Output       string
}

// GenerateResult is the JSON payload of the generate command.
type GenerateResult struct {
	*generate.Result
	Applied *editor.Result `json:"applied,omitempty"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate <font.yaml>",
		Short: "Derive rules from composite glyphs",
		Long: `Propose "=base" rules for composites, taken from their first component.

Composites whose other components stick out past the base are reported,
as are composites with contours of their own, which are skipped. With
--apply the proposals are stored and evaluated in one step.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Glyphs, "glyphs", nil, "only analyze these glyphs")
	cmd.Flags().BoolVar(&opts.SkipSingle, "skip-single", false, "skip composites with one component")
	cmd.Flags().BoolVar(&opts.SkipExisting, "skip-existing", false, "skip glyphs that already have rules")
	cmd.Flags().BoolVar(&opts.Apply, "apply", false, "store and evaluate the generated rules")
	cmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "with --apply, replace existing rules")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "with --apply, write the fixture to this file")

	return cmd
}

func runGenerate(opts *GenerateOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	if opts.Output != "" && !opts.Apply {
		_ = formatter.Error(ErrCodeBadArgs, "--output requires --apply", nil)
		return NewExitError(ExitCommandError, "--output requires --apply")
	}

	s, err := openSession(commandContext(cmd), opts.RootOptions, path, cmd)
	if err != nil {
		_ = formatter.Error(loadErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "load failed", err)
	}
	defer s.Close()

	genOpts := generate.Options{
		Glyphs:              opts.Glyphs,
		SkipSingleComponent: opts.SkipSingle,
		Logger:              opts.logger(cmd.ErrOrStderr()),
	}
	if opts.SkipExisting {
		genOpts.Existing = s.rules
	}
	gen := generate.FromComposites(s.font, genOpts)
	out := GenerateResult{Result: gen}

	if opts.Apply && gen.Len() > 0 {
		res, err := s.editor.Execute(&editor.ApplyRules{Rules: gen.Rules, Overwrite: opts.Overwrite, Sync: true})
		if err != nil {
			_ = formatter.Error(ErrCodeEditFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "apply failed", err)
		}
		out.Applied = res
	}
	if opts.Output != "" {
		if err := s.writeFixture(opts.Output); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "write failed", err)
		}
		formatter.VerboseLog("Wrote %s", opts.Output)
	}

	if formatter.JSON() {
		return formatter.Success(out)
	}

	w := formatter.Writer
	for _, glyph := range gen.Rules.Glyphs() {
		sides := gen.Rules[glyph]
		fmt.Fprintf(w, "%-12s left %s  right %s\n", glyph, sides[ir.SideLeft], sides[ir.SideRight])
	}
	writeIssues(w, gen.Issues)
	fmt.Fprintf(w, "%d rules generated, %d skipped, %d warnings\n", gen.Len(), len(gen.Skipped), len(gen.Warnings()))
	if out.Applied != nil {
		fmt.Fprintln(w, out.Applied.Message)
	}
	return nil
}
