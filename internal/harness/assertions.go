package harness

import (
	"fmt"

	"github.com/roach88/sidebearing/internal/ir"
	"github.com/roach88/sidebearing/internal/validate"
)

func (h *Harness) evaluateAssertion(a Assertion) error {
	switch a.Type {
	case AssertMargin:
		got, ok := h.font.Margin(a.Glyph, ir.Side(a.Side))
		if !ok {
			return fmt.Errorf("%s.%s is undefined", a.Glyph, a.Side)
		}
		if got != *a.Equals {
			return fmt.Errorf("%s.%s = %v, want %v", a.Glyph, a.Side, got, *a.Equals)
		}

	case AssertWidth:
		if !h.font.HasGlyph(a.Glyph) {
			return fmt.Errorf("glyph %s not in font", a.Glyph)
		}
		if got := h.font.Width(a.Glyph); got != *a.Equals {
			return fmt.Errorf("width of %s = %v, want %v", a.Glyph, got, *a.Equals)
		}

	case AssertRule:
		got, ok := h.rules.Rule(a.Glyph, ir.Side(a.Side))
		switch {
		case *a.Rule == "" && ok:
			return fmt.Errorf("%s.%s has rule %q, want none", a.Glyph, a.Side, got)
		case *a.Rule != "" && got != *a.Rule:
			return fmt.Errorf("%s.%s rule = %q, want %q", a.Glyph, a.Side, got, *a.Rule)
		}

	case AssertValid:
		report := validate.Validate(h.rules.AllRules(), h.font)
		if report.Valid != *a.Valid {
			return fmt.Errorf("valid = %v, want %v: %s", report.Valid, *a.Valid, report.Summary())
		}

	case AssertIssueCount:
		report := validate.Validate(h.rules.AllRules(), h.font)
		if got := len(report.ByCode(a.Code)); got != *a.Count {
			return fmt.Errorf("%d %s issues, want %d", got, a.Code, *a.Count)
		}

	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
