package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/sidebearing/internal/font"
	"github.com/roach88/sidebearing/internal/ir"
	"github.com/roach88/sidebearing/internal/validate"
)

// snapshotSchema is the shape accepted by import and validate for snapshot
// files. JSON input is valid CUE, so both go through the same check.
const snapshotSchema = `
#Snapshot: {
	version: int & >=1
	rules: [string]: {
		left?:  string & =~"^="
		right?: string & =~"^="
	}
}
`

// Error code constants, shared by all commands.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeBadArgs      = "E002" // Invalid flag or argument
	ErrCodeUnknownInput = "E003" // Unsupported input file type
	ErrCodeLoadFailed   = "E004" // Fixture or CUE parse failed
	ErrCodeNotFound     = "E005" // Path or snapshot not found
	ErrCodeSchema       = "E006" // Snapshot fails the schema
	ErrCodeWriteFailed  = "E007" // File write error
	ErrCodeStore        = "E008" // Snapshot log error

	ErrCodeInvalidRules = "E101" // Rule table has errors
	ErrCodeUnknownGlyph = "E102" // Glyph not in font
	ErrCodeEditFailed   = "E103" // Edit rejected
)

// LoadError reports a file that could not be loaded.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Input is a loaded rule source. Font is nil for snapshot files.
type Input struct {
	Path  string
	Font  *font.Font
	Rules ir.RuleTable
}

// glyphSet returns the font as a validate.GlyphSet, or nil without one.
func (in *Input) glyphSet() validate.GlyphSet {
	if in.Font == nil {
		return nil
	}
	return in.Font
}

// LoadInput reads a font fixture (.yaml, .yml) or a snapshot (.json, .cue).
func LoadInput(path string) (*Input, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		f, rules, err := LoadFontFile(path)
		if err != nil {
			return nil, err
		}
		return &Input{Path: path, Font: f, Rules: rules}, nil
	case ".json", ".cue":
		snap, err := LoadSnapshotFile(path)
		if err != nil {
			return nil, err
		}
		return &Input{Path: path, Rules: snap.Rules}, nil
	default:
		return nil, &LoadError{Code: ErrCodeUnknownInput, Message: fmt.Sprintf("unsupported input %s: want .yaml, .yml, .json or .cue", path)}
	}
}

// LoadFontFile reads a YAML font fixture.
func LoadFontFile(path string) (*font.Font, ir.RuleTable, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("font fixture not found: %s", path)}
	}
	f, rules, err := font.LoadFixture(path)
	if err != nil {
		return nil, nil, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
	}
	return f, rules, nil
}

// LoadSnapshotFile reads a snapshot file and checks it against the snapshot
// schema before decoding.
func LoadSnapshotFile(path string) (ir.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ir.Snapshot{}, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("snapshot not found: %s", path)}
		}
		return ir.Snapshot{}, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
	}
	return ParseSnapshot(data, path)
}

// ParseSnapshot checks data against the snapshot schema and decodes it.
// filename is used in error positions.
func ParseSnapshot(data []byte, filename string) (ir.Snapshot, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(snapshotSchema).LookupPath(cue.ParsePath("#Snapshot"))
	if err := schema.Err(); err != nil {
		return ir.Snapshot{}, fmt.Errorf("snapshot schema: %w", err)
	}

	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return ir.Snapshot{}, cueLoadError(ErrCodeLoadFailed, err)
	}

	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return ir.Snapshot{}, cueLoadError(ErrCodeSchema, err)
	}

	js, err := unified.MarshalJSON()
	if err != nil {
		return ir.Snapshot{}, cueLoadError(ErrCodeSchema, err)
	}
	snap, err := ir.UnmarshalSnapshot(js)
	if err != nil {
		return ir.Snapshot{}, &LoadError{Code: ErrCodeSchema, Message: err.Error()}
	}
	return snap, nil
}

// cueLoadError keeps the first CUE error and its position.
func cueLoadError(code string, err error) *LoadError {
	list := cueerrors.Errors(err)
	if len(list) == 0 {
		return &LoadError{Code: code, Message: err.Error()}
	}
	first := list[0]
	format, args := first.Msg()
	msg := fmt.Sprintf(format, args...)
	if path := first.Path(); len(path) > 0 {
		msg = strings.Join(path, ".") + ": " + msg
	}
	return &LoadError{Code: code, Message: msg, Pos: first.Position()}
}

// loadErrorCode returns the code of a LoadError, or ErrCodeGeneric.
func loadErrorCode(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return ErrCodeGeneric
}
