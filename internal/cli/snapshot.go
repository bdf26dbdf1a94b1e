package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/sidebearing/internal/ir"
	"github.com/roach88/sidebearing/internal/store"
	"github.com/roach88/sidebearing/internal/validate"
)

// ImportResult is the JSON payload of the import command.
type ImportResult struct {
	FontID string           `json:"font_id"`
	Seq    int64            `json:"seq"`
	ID     string           `json:"id"`
	Saved  bool             `json:"saved"`
	Report *validate.Report `json:"report"`
}

// HistoryEntry is one logged snapshot, without its rules.
type HistoryEntry struct {
	Seq        int64  `json:"seq"`
	ID         string `json:"id"`
	CreatedSeq int64  `json:"created_seq"`
	Glyphs     int    `json:"glyphs"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <snapshot.json|snapshot.cue>",
		Short: "Append a snapshot file to the snapshot log",
		Long: `Check a snapshot file against the snapshot schema and append it to
the log under --font-id. Every rule must be a string starting with "=".
Importing content identical to the latest snapshot is a no-op.

Rule tables with cycles are still imported; the report lists them.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, args[0], cmd)
		},
	}
}

func runImport(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	snap, err := LoadSnapshotFile(path)
	if err != nil {
		_ = formatter.Error(loadErrorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "load failed", err)
	}
	if !snap.Current() {
		msg := fmt.Sprintf("snapshot version %d is not supported (want %d)", snap.Version, ir.SnapshotVersion)
		_ = formatter.Error(ErrCodeSchema, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	log, err := opts.openStore()
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return err
	}
	defer log.Close()

	rec, saved, err := log.SaveSnapshot(commandContext(cmd), opts.FontID, snap)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "save failed", err)
	}

	report := validate.Validate(snap.Rules, nil)
	result := ImportResult{FontID: opts.FontID, Seq: rec.Seq, ID: rec.ID, Saved: saved, Report: report}
	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	if saved {
		fmt.Fprintf(w, "Imported %d rules as %s #%d\n", snap.Rules.Len(), opts.FontID, rec.Seq)
	} else {
		fmt.Fprintf(w, "Unchanged: %s #%d already holds these rules\n", opts.FontID, rec.Seq)
	}
	if !report.Valid {
		fmt.Fprintf(w, "Note: %s\n", report.Summary())
		writeIssues(w, report.Errors())
	}
	return nil
}

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Seq    int64
	Output string
	Force  bool
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a logged snapshot as canonical JSON",
		Long: `Export the latest snapshot of --font-id, or the one at --seq, as
canonical JSON. Export is refused while the rules contain parse errors
or cycles unless --force is given.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.Seq, "seq", 0, "snapshot sequence number (default latest)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write to this file instead of stdout")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "export even when the rules are invalid")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	log, err := opts.openStore()
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return err
	}
	defer log.Close()

	ctx := commandContext(cmd)
	var rec store.Record
	if opts.Seq > 0 {
		rec, err = log.SnapshotAt(ctx, opts.FontID, opts.Seq)
	} else {
		rec, err = log.LatestSnapshot(ctx, opts.FontID)
	}
	if errors.Is(err, store.ErrNotFound) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("no snapshot for %s", opts.FontID), nil)
		return WrapExitError(ExitCommandError, "not found", err)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "read failed", err)
	}

	report := validate.Validate(rec.Snapshot.Rules, nil)
	if err := report.Err(); err != nil && !opts.Force {
		if formatter.JSON() {
			_ = formatter.Failure(ErrCodeInvalidRules, report.Summary(), report)
		} else {
			fmt.Fprintln(formatter.Writer, "✗ Export blocked")
			writeIssues(formatter.Writer, report.Errors())
		}
		return WrapExitError(ExitFailure, "export blocked", err)
	}

	data, err := rec.Snapshot.MarshalCanonical()
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "encode failed", err)
	}

	if opts.Output == "" {
		_, err := fmt.Fprintln(formatter.Writer, string(data))
		return err
	}
	if err := os.WriteFile(opts.Output, append(data, '\n'), 0o644); err != nil {
		_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "write failed", err)
	}
	formatter.VerboseLog("Wrote %s #%d to %s", opts.FontID, rec.Seq, opts.Output)
	return nil
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "history",
		Short:         "List logged snapshots",
		Long:          "List the snapshots of --font-id, oldest first. Without --font-id set explicitly, every font in the log is listed.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(rootOpts, cmd.Flags().Changed("font-id"), cmd)
		},
	}
}

func runHistory(opts *RootOptions, oneFont bool, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	log, err := opts.openStore()
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return err
	}
	defer log.Close()

	ctx := commandContext(cmd)
	fonts := []string{opts.FontID}
	if !oneFont {
		if fonts, err = log.Fonts(ctx); err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "read failed", err)
		}
	}

	history := make(map[string][]HistoryEntry, len(fonts))
	for _, fontID := range fonts {
		records, err := log.SnapshotHistory(ctx, fontID)
		if err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "read failed", err)
		}
		entries := make([]HistoryEntry, len(records))
		for i, r := range records {
			entries[i] = HistoryEntry{Seq: r.Seq, ID: r.ID, CreatedSeq: r.CreatedSeq, Glyphs: len(r.Snapshot.Rules)}
		}
		history[fontID] = entries
	}

	if formatter.JSON() {
		return formatter.Success(history)
	}

	w := formatter.Writer
	for _, fontID := range fonts {
		fmt.Fprintf(w, "%s\n", fontID)
		for _, e := range history[fontID] {
			fmt.Fprintf(w, "  #%-4d %s  %d glyphs\n", e.Seq, shortID(e.ID), e.Glyphs)
		}
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
