package validate

import (
	"fmt"
	"strings"

	"github.com/roach88/sidebearing/internal/ir"
)

// Report is the outcome of Validate.
type Report struct {
	// Valid is true when there are no cycle errors and no parse errors.
	Valid  bool                 `json:"valid"`
	Issues []ir.ValidationIssue `json:"issues"`

	cycles [][]string
}

func (r *Report) add(issue ir.ValidationIssue) {
	r.Issues = append(r.Issues, issue)
}

func (r *Report) filter(keep func(ir.ValidationIssue) bool) []ir.ValidationIssue {
	var out []ir.ValidationIssue
	for _, issue := range r.Issues {
		if keep(issue) {
			out = append(out, issue)
		}
	}
	return out
}

// Errors returns the issues that make the table invalid.
func (r *Report) Errors() []ir.ValidationIssue {
	return r.filter(ir.ValidationIssue.IsError)
}

// Warnings returns the soft warnings.
func (r *Report) Warnings() []ir.ValidationIssue {
	return r.filter(ir.ValidationIssue.IsWarning)
}

// Infos returns informational issues.
func (r *Report) Infos() []ir.ValidationIssue {
	return r.filter(ir.ValidationIssue.IsInfo)
}

// Cycles returns every detected cycle as a glyph path ending in its first glyph.
func (r *Report) Cycles() [][]string {
	out := make([][]string, len(r.cycles))
	for i, c := range r.cycles {
		out[i] = append([]string(nil), c...)
	}
	return out
}

// ByCode returns the issues with the given code.
func (r *Report) ByCode(code string) []ir.ValidationIssue {
	return r.filter(func(i ir.ValidationIssue) bool { return i.Code == code })
}

// ForGlyph returns the issues attached to glyph.
func (r *Report) ForGlyph(glyph string) []ir.ValidationIssue {
	return r.filter(func(i ir.ValidationIssue) bool { return i.Glyph == glyph })
}

// Err returns nil for a valid table, otherwise an error wrapping
// ErrInvalidRules that lists every error.
func (r *Report) Err() error {
	errs := r.Errors()
	if len(errs) == 0 {
		return nil
	}
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = e.String()
	}
	return fmt.Errorf("%w (%d errors):\n  %s", ErrInvalidRules, len(errs), strings.Join(lines, "\n  "))
}

// Summary is a one-line count of issues by severity.
func (r *Report) Summary() string {
	state := "valid"
	if !r.Valid {
		state = "invalid"
	}
	return fmt.Sprintf("%s: %d errors, %d warnings, %d infos",
		state, len(r.Errors()), len(r.Warnings()), len(r.Infos()))
}
