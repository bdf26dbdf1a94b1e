// Package compiler turns metrics rule strings into ir.ParsedRule values.
//
// Grammar:
//
//	rule       := "=" ( symmetry | opposite | arithmetic | simple )
//	symmetry   := "|"
//	opposite   := GLYPH "|"
//	arithmetic := GLYPH OP NUMBER
//	simple     := GLYPH
//	GLYPH      := (letter | "_") (letter | digit | "_" | ".")*
//	NUMBER     := digits ("." digits)?
//
// Letters and digits are ASCII. Whitespace is not allowed anywhere.
package compiler

import (
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/roach88/sidebearing/internal/ir"
)

// Parse error codes.
const (
	ErrEmptyRule       = "EMPTY_RULE"
	ErrMissingEquals   = "MISSING_EQUALS"
	ErrEmptyBody       = "EMPTY_BODY"
	ErrDoubledOperator = "DOUBLED_OPERATOR"
	ErrMissingOperand  = "MISSING_OPERAND"
	ErrBadNumber       = "BAD_NUMBER"
	ErrMisplacedPipe   = "MISPLACED_PIPE"
	ErrBadGlyphName    = "BAD_GLYPH_NAME"
	ErrUnexpectedChar  = "UNEXPECTED_CHAR"
	ErrInvalidSide     = "INVALID_SIDE"
)

// ParseError reports why a rule string was rejected.
// Pos is the byte offset into Rule where the problem was found.
type ParseError struct {
	Code    string
	Rule    string
	Pos     int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid rule %q: %s", e.Rule, e.Message)
}

// Parse parses rule for the given target side.
//
// The returned rule is side independent; Reference.SourceSideFor resolves the
// side to read once the target is known. target must be left or right.
func Parse(rule string, target ir.Side) (ir.ParsedRule, error) {
	if !target.Valid() {
		return nil, &ParseError{
			Code:    ErrInvalidSide,
			Rule:    rule,
			Message: fmt.Sprintf("target side %q must be left or right", string(target)),
		}
	}
	return parse(rule)
}

// ValidateSyntax reports whether rule is well formed. msg is empty when ok.
func ValidateSyntax(rule string) (ok bool, msg string) {
	if _, err := parse(rule); err != nil {
		return false, err.(*ParseError).Message
	}
	return true, ""
}

// ExtractReferencedGlyph returns the glyph rule reads from. It reports false
// for symmetry rules and for invalid input.
func ExtractReferencedGlyph(rule string) (string, bool) {
	p, err := parse(rule)
	if err != nil {
		return "", false
	}
	return p.SourceGlyph()
}

func parse(rule string) (ir.ParsedRule, error) {
	s := &scanner{src: rule}

	if rule == "" {
		return nil, s.fail(ErrEmptyRule, "rule is empty")
	}
	if rule[0] != '=' {
		return nil, s.fail(ErrMissingEquals, "rule must start with '='")
	}
	s.pos = 1

	if s.eof() {
		return nil, s.fail(ErrEmptyBody, "nothing after '='")
	}
	if s.peek() == '|' {
		s.pos++
		if s.eof() {
			return ir.Symmetry{}, nil
		}
		return nil, s.fail(ErrMisplacedPipe, "symmetry '|' must be the whole rule body")
	}

	glyph, err := s.glyphName()
	if err != nil {
		return nil, err
	}
	if s.eof() {
		return ir.Reference{Glyph: glyph, From: ir.SourceSame}, nil
	}

	c := s.peek()
	switch {
	case c == '|':
		s.pos++
		if !s.eof() {
			return nil, s.fail(ErrMisplacedPipe, "'|' must end the rule")
		}
		return ir.Reference{Glyph: glyph, From: ir.SourceOpposite}, nil

	case isOperator(c):
		s.pos++
		op := ir.Operator(string(c))
		operand, err := s.number(c)
		if err != nil {
			return nil, err
		}
		return ir.Reference{Glyph: glyph, From: ir.SourceSame, Op: op, Operand: operand}, nil
	}

	return nil, s.unexpected()
}

type scanner struct {
	src string
	pos int
}

func (s *scanner) eof() bool  { return s.pos >= len(s.src) }
func (s *scanner) peek() byte { return s.src[s.pos] }

func (s *scanner) fail(code, msg string) *ParseError {
	return &ParseError{Code: code, Rule: s.src, Pos: s.pos, Message: msg}
}

func (s *scanner) unexpected() *ParseError {
	r, _ := utf8.DecodeRuneInString(s.src[s.pos:])
	return s.fail(ErrUnexpectedChar, fmt.Sprintf("unexpected character %q at offset %d", r, s.pos))
}

func (s *scanner) glyphName() (string, error) {
	c := s.peek()
	switch {
	case isDigit(c):
		return "", s.fail(ErrBadGlyphName, "glyph name cannot start with a digit")
	case isOperator(c):
		return "", s.fail(ErrBadGlyphName, fmt.Sprintf("expected glyph name before %q", c))
	case !isNameStart(c):
		return "", s.unexpected()
	}
	start := s.pos
	for !s.eof() && isNameChar(s.peek()) {
		s.pos++
	}
	return s.src[start:s.pos], nil
}

// number scans NUMBER after operator op and requires it to end the rule.
func (s *scanner) number(op byte) (float64, error) {
	if s.eof() {
		return 0, s.fail(ErrMissingOperand, fmt.Sprintf("missing number after %q", op))
	}
	switch c := s.peek(); {
	case isOperator(c):
		return 0, s.fail(ErrDoubledOperator, fmt.Sprintf("operator %q follows %q", c, op))
	case c == '|':
		return 0, s.fail(ErrMisplacedPipe, "'|' cannot follow an operator")
	case !isDigit(c):
		return 0, s.fail(ErrBadNumber, fmt.Sprintf("expected a number after %q", op))
	}

	start := s.pos
	s.digits()
	if !s.eof() && s.peek() == '.' {
		s.pos++
		if s.eof() || !isDigit(s.peek()) {
			return 0, s.fail(ErrBadNumber, "expected digits after '.'")
		}
		s.digits()
	}
	text := s.src[start:s.pos]

	if !s.eof() {
		switch c := s.peek(); {
		case c == '.':
			return 0, s.fail(ErrBadNumber, fmt.Sprintf("malformed number %q", s.src[start:]))
		case c == '|':
			return 0, s.fail(ErrMisplacedPipe, "'|' cannot follow an arithmetic rule")
		case isOperator(c):
			return 0, s.fail(ErrUnexpectedChar, "only one operator is allowed")
		default:
			return 0, s.unexpected()
		}
	}

	// Numbers beyond float64 range parse to +Inf; evaluation rejects
	// non-finite results.
	v, err := strconv.ParseFloat(text, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, s.fail(ErrBadNumber, fmt.Sprintf("malformed number %q", text))
	}
	return v, nil
}

func (s *scanner) digits() {
	for !s.eof() && isDigit(s.peek()) {
		s.pos++
	}
}

func isDigit(c byte) bool     { return c >= '0' && c <= '9' }
func isLetter(c byte) bool    { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isNameStart(c byte) bool { return isLetter(c) || c == '_' }
func isNameChar(c byte) bool  { return isNameStart(c) || isDigit(c) || c == '.' }

func isOperator(c byte) bool {
	return c == '+' || c == '-' || c == '*' || c == '/'
}
