package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sidebearing/internal/font"
	"github.com/roach88/sidebearing/internal/ir"
)

// Scenario is one end-to-end spacing test.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// FontFile is a YAML font fixture, relative to the scenario file.
	// Exactly one of FontFile and Font must be set.
	FontFile string        `yaml:"font_file,omitempty"`
	Font     *font.Fixture `yaml:"font,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one editor operation.
type Step struct {
	Op      string   `yaml:"op"`
	Glyph   string   `yaml:"glyph,omitempty"`
	Side    string   `yaml:"side,omitempty"`
	Value   float64  `yaml:"value,omitempty"`
	Rule    string   `yaml:"rule,omitempty"`
	Sources []string `yaml:"sources,omitempty"`

	// Margin edit switches. Nil means the editor default (on).
	Propagate  *bool `yaml:"propagate,omitempty"`
	ApplyRules *bool `yaml:"apply_rules,omitempty"`
	Recursive  bool  `yaml:"recursive,omitempty"`

	Apply     bool `yaml:"apply,omitempty"`
	Overwrite bool `yaml:"overwrite,omitempty"`
	Sync      bool `yaml:"sync,omitempty"`

	ExpectError bool `yaml:"expect_error,omitempty"`
}

// Assertion checks the final state.
type Assertion struct {
	Type   string   `yaml:"type"`
	Glyph  string   `yaml:"glyph,omitempty"`
	Side   string   `yaml:"side,omitempty"`
	Equals *float64 `yaml:"equals,omitempty"`
	Rule   *string  `yaml:"rule,omitempty"`
	Valid  *bool    `yaml:"valid,omitempty"`
	Code   string   `yaml:"code,omitempty"`
	Count  *int     `yaml:"count,omitempty"`
}

// Step operations.
const (
	OpSetMargin    = "set_margin"
	OpAdjustMargin = "adjust_margin"
	OpSetRule      = "set_rule"
	OpRemoveRule   = "remove_rule"
	OpClearRules   = "clear_rules"
	OpSync         = "sync"
	OpGenerate     = "generate"
	OpUndo         = "undo"
	OpRedo         = "redo"
)

// Assertion types.
const (
	AssertMargin     = "margin"
	AssertWidth      = "width"
	AssertRule       = "rule"
	AssertValid      = "valid"
	AssertIssueCount = "issue_count"
)

// LoadScenario reads a scenario file. Unknown fields are rejected.
// A relative font_file is resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath is LoadScenario with font_file resolved against
// basePath instead.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	if s.FontFile != "" && !filepath.IsAbs(s.FontFile) && basePath != "" {
		s.FontFile = filepath.Join(basePath, s.FontFile)
	}
	if s.FontFile != "" {
		if _, err := os.Stat(s.FontFile); err != nil {
			return nil, fmt.Errorf("invalid scenario: font file: %w", err)
		}
	}
	return s, nil
}

// ParseScenario decodes and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if (s.FontFile == "") == (s.Font == nil) {
		return fmt.Errorf("exactly one of font_file and font is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(step Step) error {
	needGlyph := false
	needSide := false
	switch step.Op {
	case OpSetMargin, OpAdjustMargin:
		needGlyph, needSide = true, true
	case OpSetRule:
		needGlyph, needSide = true, true
		if step.Rule == "" {
			return fmt.Errorf("rule is required for %s", step.Op)
		}
	case OpRemoveRule:
		needGlyph = true
	case OpClearRules, OpSync, OpGenerate, OpUndo, OpRedo:
	case "":
		return fmt.Errorf("op is required")
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
	if needGlyph && step.Glyph == "" {
		return fmt.Errorf("glyph is required for %s", step.Op)
	}
	if needSide && step.Side == "" {
		return fmt.Errorf("side is required for %s", step.Op)
	}
	if step.Side != "" {
		if _, err := ir.ParseSide(step.Side); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertMargin:
		if a.Glyph == "" || a.Side == "" || a.Equals == nil {
			return fmt.Errorf("margin assertion needs glyph, side and equals")
		}
	case AssertWidth:
		if a.Glyph == "" || a.Equals == nil {
			return fmt.Errorf("width assertion needs glyph and equals")
		}
	case AssertRule:
		if a.Glyph == "" || a.Side == "" || a.Rule == nil {
			return fmt.Errorf("rule assertion needs glyph, side and rule")
		}
	case AssertValid:
		if a.Valid == nil {
			return fmt.Errorf("valid assertion needs valid")
		}
	case AssertIssueCount:
		if a.Code == "" || a.Count == nil {
			return fmt.Errorf("issue_count assertion needs code and count")
		}
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
