package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/roach88/sidebearing/internal/validate"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Watch    bool
	Debounce time.Duration
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <font.yaml|snapshot.json|snapshot.cue>",
		Short: "Check a rule table for syntax errors and cycles",
		Long: `Validate the metrics rules of a font fixture or a snapshot file.

Parse errors and dependency cycles are errors. Rules that reference
glyphs missing from the font are warnings; snapshot files carry no
glyphs, so that check is skipped for them.

With --watch the file is re-validated on every change until interrupted.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Watch {
				return watchValidate(commandContext(cmd), opts, args[0], cmd)
			}
			return runValidate(opts.RootOptions, args[0], cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "re-validate when the file changes")
	cmd.Flags().DurationVar(&opts.Debounce, "debounce", 200*time.Millisecond, "wait for writes to settle before re-validating")

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	in, err := LoadInput(path)
	if err != nil {
		_ = formatter.Error(loadErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "load failed", err)
	}
	formatter.VerboseLog("Loaded %d rules from %s", in.Rules.Len(), path)

	report := validate.Validate(in.Rules, in.glyphSet())
	return outputReport(formatter, report)
}

// outputReport prints report and returns an ExitFailure error when it has
// errors.
func outputReport(f *OutputFormatter, report *validate.Report) error {
	if f.JSON() {
		if report.Valid {
			return f.Success(report)
		}
		if err := f.Failure(ErrCodeInvalidRules, report.Summary(), report); err != nil {
			return err
		}
		return NewExitError(ExitFailure, report.Summary())
	}

	if report.Valid {
		fmt.Fprintf(f.Writer, "✓ Rules valid (%d warnings, %d infos)\n", len(report.Warnings()), len(report.Infos()))
		writeIssues(f.Writer, report.Issues)
		return nil
	}
	fmt.Fprintln(f.Writer, "✗ Validation failed")
	writeIssues(f.Writer, report.Issues)
	return NewExitError(ExitFailure, report.Summary())
}

// watchValidate validates path once, then again after each burst of writes.
// The parent directory is watched so editors that replace the file on save
// are still seen.
func watchValidate(ctx context.Context, opts *ValidateOptions, path string, cmd *cobra.Command) error {
	logger := opts.logger(cmd.ErrOrStderr())

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start watcher", err)
	}
	defer fsw.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to resolve path", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		return WrapExitError(ExitCommandError, "failed to watch directory", err)
	}

	validateOnce := func() {
		if err := runValidate(opts.RootOptions, path, cmd); err != nil {
			logger.Debug("validation failed", "path", path, "error", err)
		}
	}
	validateOnce()

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	logger.Info("watching for changes", "path", abs, "debounce", debounce)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Name != abs || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("file event", "path", event.Name, "op", event.Op.String())
			timer.Reset(debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", slog.Any("error", err))

		case <-timer.C:
			validateOnce()
		}
	}
}
