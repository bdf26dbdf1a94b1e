package editor

import (
	"fmt"
	"strconv"

	"github.com/roach88/sidebearing/internal/engine"
	"github.com/roach88/sidebearing/internal/ir"
)

// SetMargin sets a side bearing to an absolute value.
type SetMargin struct {
	Glyph      string
	Side       ir.Side
	Value      float64
	Propagate  bool
	Recursive  bool
	ApplyRules bool
}

// NewSetMargin returns a SetMargin with propagation and rules enabled.
func NewSetMargin(glyph string, side ir.Side, value float64) *SetMargin {
	return &SetMargin{Glyph: glyph, Side: side, Value: value, Propagate: true, ApplyRules: true}
}

func (c *SetMargin) Description() string {
	return fmt.Sprintf("Set %s margin %s = %s", c.Side, c.Glyph, formatNumber(c.Value))
}

func (c *SetMargin) Execute(env Env) (*Result, error) {
	out, err := env.Arbiter.ApplyMarginEdit(env.Recorder, engine.MarginEdit{
		Glyph:      c.Glyph,
		Side:       c.Side,
		Value:      c.Value,
		Mode:       engine.ModeSet,
		Propagate:  c.Propagate,
		Recursive:  c.Recursive,
		ApplyRules: c.ApplyRules,
	})
	if err != nil {
		return nil, err
	}
	return resultFrom(c.Description(), out), nil
}

// AdjustMargin adds a delta to a side bearing.
type AdjustMargin struct {
	Glyph      string
	Side       ir.Side
	Delta      float64
	Propagate  bool
	Recursive  bool
	ApplyRules bool
}

// NewAdjustMargin returns an AdjustMargin with propagation and rules enabled.
func NewAdjustMargin(glyph string, side ir.Side, delta float64) *AdjustMargin {
	return &AdjustMargin{Glyph: glyph, Side: side, Delta: delta, Propagate: true, ApplyRules: true}
}

func (c *AdjustMargin) Description() string {
	sign := ""
	if c.Delta > 0 {
		sign = "+"
	}
	return fmt.Sprintf("Adjust %s margin %s %s%s", c.Side, c.Glyph, sign, formatNumber(c.Delta))
}

func (c *AdjustMargin) Execute(env Env) (*Result, error) {
	out, err := env.Arbiter.ApplyMarginEdit(env.Recorder, engine.MarginEdit{
		Glyph:      c.Glyph,
		Side:       c.Side,
		Value:      c.Delta,
		Mode:       engine.ModeAdjust,
		Propagate:  c.Propagate,
		Recursive:  c.Recursive,
		ApplyRules: c.ApplyRules,
	})
	if err != nil {
		return nil, err
	}
	return resultFrom(c.Description(), out), nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
