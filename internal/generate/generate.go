// Package generate derives metrics rules from composite glyph structure.
//
// A composite takes both side bearings from its first component, the base.
// Every other component is checked against the base and reported when it
// sticks out, since such glyphs usually need a hand-written rule instead.
package generate

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/roach88/sidebearing/internal/font"
	"github.com/roach88/sidebearing/internal/ir"
)

// Source is the font as seen by the generator.
type Source interface {
	Glyph(name string) (font.Glyph, bool)
	GlyphNames() []string
}

// RuleChecker reports whether a glyph already has rules.
type RuleChecker interface {
	HasAnyRule(glyph string) bool
}

// Options controls which glyphs are analyzed.
type Options struct {
	// Glyphs limits the run to these names. Unknown names are ignored.
	// Empty means every glyph.
	Glyphs []string

	// SkipSingleComponent leaves out composites with one component.
	SkipSingleComponent bool

	// Existing, when set, makes glyphs that already have rules skipped.
	Existing RuleChecker

	Logger *slog.Logger
}

// Result is the output of FromComposites.
type Result struct {
	Rules   ir.RuleTable         `json:"rules"`
	Issues  []ir.ValidationIssue `json:"issues,omitempty"`
	Skipped []string             `json:"skipped,omitempty"`
}

// Len returns the number of glyphs that received rules.
func (r *Result) Len() int { return len(r.Rules) }

// Warnings returns the warning issues.
func (r *Result) Warnings() []ir.ValidationIssue {
	return r.filter(func(i ir.ValidationIssue) bool { return i.IsWarning() })
}

// Infos returns the informational issues.
func (r *Result) Infos() []ir.ValidationIssue {
	return r.filter(func(i ir.ValidationIssue) bool { return i.IsInfo() })
}

// ByCode returns the issues with code.
func (r *Result) ByCode(code string) []ir.ValidationIssue {
	return r.filter(func(i ir.ValidationIssue) bool { return i.Code == code })
}

// ForGlyph returns the issues about glyph.
func (r *Result) ForGlyph(glyph string) []ir.ValidationIssue {
	return r.filter(func(i ir.ValidationIssue) bool { return i.Glyph == glyph })
}

func (r *Result) filter(keep func(ir.ValidationIssue) bool) []ir.ValidationIssue {
	var out []ir.ValidationIssue
	for _, i := range r.Issues {
		if keep(i) {
			out = append(out, i)
		}
	}
	return out
}

// FromComposites proposes rules for the composite glyphs of src.
//
// Glyphs are visited in the order of opts.Glyphs, or sorted when that is
// empty. Non-composites are ignored silently. Composites that get no rule are
// listed in Skipped.
func FromComposites(src Source, opts Options) *Result {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	names := opts.Glyphs
	if len(names) == 0 {
		names = src.GlyphNames()
	}

	res := &Result{Rules: ir.RuleTable{}}
	for _, name := range names {
		g, ok := src.Glyph(name)
		if !ok || !g.IsComposite() {
			continue
		}
		if opts.Existing != nil && opts.Existing.HasAnyRule(name) {
			res.Skipped = append(res.Skipped, name)
			continue
		}

		rules, issues := analyze(src, g)
		res.Issues = append(res.Issues, issues...)
		if rules == nil || (opts.SkipSingleComponent && len(g.Components) == 1) {
			res.Skipped = append(res.Skipped, name)
			continue
		}
		res.Rules[name] = rules
	}

	logger.Debug("rules generated from composites",
		"candidates", len(names),
		"rules", len(res.Rules),
		"skipped", len(res.Skipped),
		"issues", len(res.Issues),
	)
	return res
}

// extent is a component's outline span in the composite's coordinates.
type extent struct {
	left, right float64
}

func (e extent) width() float64 { return e.right - e.left }

func componentExtent(src Source, c font.Component) (extent, bool) {
	base, ok := src.Glyph(c.Base)
	if !ok || base.Bounds == nil {
		return extent{}, false
	}
	return extent{left: base.Bounds.XMin + c.Offset, right: base.Bounds.XMax + c.Offset}, true
}

func analyze(src Source, g font.Glyph) (ir.SideRules, []ir.ValidationIssue) {
	var issues []ir.ValidationIssue
	add := func(sev ir.Severity, code, msg string, details map[string]string) {
		issues = append(issues, ir.ValidationIssue{
			Severity: sev,
			Code:     code,
			Glyph:    g.Name,
			Message:  msg,
			Details:  details,
		})
	}

	if g.Contours > 0 {
		add(ir.SeverityWarning, ir.CodeMixedContours,
			fmt.Sprintf("has %d contours besides its components; not generated", g.Contours),
			map[string]string{"contours": strconv.Itoa(g.Contours)})
		return nil, issues
	}

	base := g.Components[0].Base
	baseExt, ok := componentExtent(src, g.Components[0])
	if !ok {
		add(ir.SeverityWarning, ir.CodeMissingBase,
			fmt.Sprintf("base glyph %q is missing or has no outline", base),
			map[string]string{"base": base})
		return nil, issues
	}
	if baseExt.width() == 0 {
		add(ir.SeverityWarning, ir.CodeZeroWidthBase,
			fmt.Sprintf("base glyph %q has a zero-width outline; check component order", base),
			map[string]string{"base": base})
	}

	rules := ir.SideRules{ir.SideLeft: "=" + base, ir.SideRight: "=" + base}
	if len(g.Components) == 1 {
		add(ir.SeverityInfo, ir.CodeSingleComponent,
			fmt.Sprintf("single component %q", base),
			map[string]string{"base": base})
		return rules, issues
	}

	for i, c := range g.Components[1:] {
		ext, ok := componentExtent(src, c)
		if !ok {
			continue
		}
		index := strconv.Itoa(i + 1)
		if ext.width() > baseExt.width() {
			add(ir.SeverityWarning, ir.CodeComponentWider,
				fmt.Sprintf("component %d %q is wider than base %q (%s > %s)",
					i+1, c.Base, base, num(ext.width()), num(baseExt.width())),
				map[string]string{"component": c.Base, "index": index, "base": base, "width": num(ext.width())})
		}
		if ext.left < baseExt.left {
			by := baseExt.left - ext.left
			add(ir.SeverityWarning, ir.CodeExtendsLeft,
				fmt.Sprintf("component %d %q extends %s units left of base %q", i+1, c.Base, num(by), base),
				map[string]string{"component": c.Base, "index": index, "base": base, "extends_by": num(by)})
		}
		if ext.right > baseExt.right {
			by := ext.right - baseExt.right
			add(ir.SeverityWarning, ir.CodeExtendsRight,
				fmt.Sprintf("component %d %q extends %s units right of base %q", i+1, c.Base, num(by), base),
				map[string]string{"component": c.Base, "index": index, "base": base, "extends_by": num(by)})
		}
	}
	return rules, issues
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
