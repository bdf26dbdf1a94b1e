package harness

import (
	"github.com/roach88/sidebearing/internal/font"
	"github.com/roach88/sidebearing/internal/ir"
)

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq         int64    `json:"seq"`
	Op          string   `json:"op"`
	Description string   `json:"description"`
	Message     string   `json:"message,omitempty"`
	Affected    []string `json:"affected,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step behaved as expected and every assertion held.
	Pass bool `json:"pass"`

	Trace  []TraceEvent `json:"trace"`
	Errors []string     `json:"errors,omitempty"`

	// Final state after the last step.
	Metrics   map[string]font.Metrics `json:"metrics"`
	Rules     ir.RuleTable            `json:"rules"`
	Snapshots int                     `json:"snapshots"`
}

// NewResult returns a passing result with an empty trace.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
