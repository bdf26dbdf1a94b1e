package ir

import "fmt"

// Severity ranks a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue codes reported by the validator and the rule generator.
const (
	CodeCycle         = "CYCLE_DETECTED"
	CodeParseError    = "PARSE_ERROR"
	CodeMissingGlyph  = "MISSING_GLYPH"
	CodeSelfReference = "SELF_REFERENCE"

	CodeMixedContours   = "MIXED_CONTOURS"
	CodeMissingBase     = "MISSING_BASE"
	CodeZeroWidthBase   = "ZERO_WIDTH_BASE"
	CodeSingleComponent = "SINGLE_COMPONENT"
	CodeComponentWider  = "COMPONENT_WIDER"
	CodeExtendsLeft     = "EXTENDS_LEFT"
	CodeExtendsRight    = "EXTENDS_RIGHT"
)

// ValidationIssue is a single finding about the rule table.
type ValidationIssue struct {
	Severity Severity          `json:"severity"`
	Code     string            `json:"code"`
	Glyph    string            `json:"glyph,omitempty"`
	Side     Side              `json:"side,omitempty"`
	Message  string            `json:"message"`
	Details  map[string]string `json:"details,omitempty"`
}

// IsError reports whether the issue blocks validity.
func (i ValidationIssue) IsError() bool { return i.Severity == SeverityError }

// IsWarning reports whether the issue is a soft warning.
func (i ValidationIssue) IsWarning() bool { return i.Severity == SeverityWarning }

// IsInfo reports whether the issue is informational.
func (i ValidationIssue) IsInfo() bool { return i.Severity == SeverityInfo }

func (i ValidationIssue) String() string {
	switch {
	case i.Glyph != "" && i.Side != "":
		return fmt.Sprintf("[%s] %s.%s: %s", i.Code, i.Glyph, i.Side, i.Message)
	case i.Glyph != "":
		return fmt.Sprintf("[%s] %s: %s", i.Code, i.Glyph, i.Message)
	default:
		return fmt.Sprintf("[%s] %s", i.Code, i.Message)
	}
}
