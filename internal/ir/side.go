package ir

import "fmt"

// Side identifies a glyph side bearing.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"

	// SideBoth selects both sides for writes and removals. It is never stored.
	SideBoth Side = "both"
)

// Sides lists the concrete sides in evaluation order.
var Sides = []Side{SideLeft, SideRight}

// Opposite returns the other concrete side. SideBoth has no opposite and is
// returned unchanged.
func (s Side) Opposite() Side {
	switch s {
	case SideLeft:
		return SideRight
	case SideRight:
		return SideLeft
	default:
		return s
	}
}

// Valid reports whether s is a concrete side.
func (s Side) Valid() bool {
	return s == SideLeft || s == SideRight
}

// Expand returns the concrete sides selected by s.
func (s Side) Expand() ([]Side, error) {
	switch s {
	case SideLeft, SideRight:
		return []Side{s}, nil
	case SideBoth:
		return []Side{SideLeft, SideRight}, nil
	default:
		return nil, fmt.Errorf("invalid side %q: must be left, right or both", string(s))
	}
}

// ParseSide converts user input to a Side, accepting "both".
func ParseSide(s string) (Side, error) {
	side := Side(s)
	if _, err := side.Expand(); err != nil {
		return "", err
	}
	return side, nil
}
