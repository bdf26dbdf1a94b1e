package ir

import (
	"encoding/json"
	"fmt"
)

// Snapshot is the persisted form of a rule table.
//
//	{"version": 1, "rules": {"Aacute": {"left": "=A", "right": "=A"}}}
type Snapshot struct {
	Version int       `json:"version"`
	Rules   RuleTable `json:"rules"`
}

// NewSnapshot captures a copy of table at the current SnapshotVersion.
func NewSnapshot(table RuleTable) Snapshot {
	return Snapshot{Version: SnapshotVersion, Rules: table.Clone()}
}

// Current reports whether the snapshot was written by this schema version.
func (s Snapshot) Current() bool {
	return s.Version == SnapshotVersion
}

// canonicalMap converts the snapshot to a map[string]any for canonical JSON.
func (s Snapshot) canonicalMap() map[string]any {
	rules := make(map[string]any, len(s.Rules))
	for glyph, sides := range s.Rules {
		if len(sides) == 0 {
			continue
		}
		m := make(map[string]any, len(sides))
		for side, rule := range sides {
			m[string(side)] = rule
		}
		rules[glyph] = m
	}
	return map[string]any{
		"version": s.Version,
		"rules":   rules,
	}
}

// MarshalCanonical returns the canonical JSON encoding of the snapshot.
func (s Snapshot) MarshalCanonical() ([]byte, error) {
	data, err := MarshalCanonical(s.canonicalMap())
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return data, nil
}

// UnmarshalSnapshot decodes a snapshot from JSON. Unknown sides are rejected.
//
// The rules of a snapshot from another schema version are not decoded: the
// result keeps that Version with an empty table, so loaders discard it
// instead of failing on a layout they do not know.
func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	var raw struct {
		Version int             `json:"version"`
		Rules   json.RawMessage `json:"rules"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	snap := Snapshot{Version: raw.Version, Rules: RuleTable{}}
	if !snap.Current() || len(raw.Rules) == 0 {
		return snap, nil
	}

	var rules map[string]map[string]string
	if err := json.Unmarshal(raw.Rules, &rules); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal snapshot rules: %w", err)
	}
	for glyph, sides := range rules {
		if len(sides) == 0 {
			continue
		}
		sr := make(SideRules, len(sides))
		for side, rule := range sides {
			s := Side(side)
			if !s.Valid() {
				return Snapshot{}, fmt.Errorf("unmarshal snapshot: glyph %q: invalid side %q", glyph, side)
			}
			sr[s] = rule
		}
		snap.Rules[glyph] = sr
	}
	return snap, nil
}
