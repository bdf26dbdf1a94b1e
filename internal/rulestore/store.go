// Package rulestore owns the metrics rule table of one font session.
//
// The store keeps three structures in lockstep: the raw rule table, a cache of
// parsed rules, and a dependency index mapping a source glyph to the glyphs
// whose rules reference it. Every mutation rebuilds the derived structures in
// full and then hands a snapshot to the configured Persister.
//
// A Store is not safe for concurrent use.
package rulestore

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/emirpasic/gods/sets/treeset"

	"github.com/roach88/sidebearing/internal/compiler"
	"github.com/roach88/sidebearing/internal/ir"
	"github.com/roach88/sidebearing/internal/metrics"
)

var (
	// ErrInvalidSide is returned for a side other than left, right or both.
	ErrInvalidSide = errors.New("invalid side")

	// ErrEmptyGlyph is returned when a glyph name is empty.
	ErrEmptyGlyph = errors.New("empty glyph name")
)

// Persister receives a snapshot after every successful mutation.
type Persister interface {
	Persist(snap ir.Snapshot) error
}

// PersisterFunc adapts a function to Persister.
type PersisterFunc func(snap ir.Snapshot) error

// Persist implements Persister.
func (f PersisterFunc) Persist(snap ir.Snapshot) error { return f(snap) }

// Option configures a Store.
type Option func(*Store)

// WithPersister sets the persistence hook.
func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithMetrics attaches Prometheus counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// Store is the rule table plus its derived caches.
type Store struct {
	rules      ir.RuleTable
	parsed     map[string]map[ir.Side]ir.ParsedRule
	dependents map[string]*treeset.Set

	persister Persister
	logger    *slog.Logger
	metrics   *metrics.Metrics
	rebuilds  int
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{rules: ir.RuleTable{}}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.rebuild()
	return s
}

// FromSnapshot returns a store loaded from snap. A snapshot written by another
// schema version is discarded and the store starts empty.
//
// Loading does not call the persister. Rule strings are kept verbatim even when
// they fail to parse; the validator reports them.
func FromSnapshot(snap ir.Snapshot, opts ...Option) *Store {
	s := New(opts...)
	if !snap.Current() {
		s.logger.Warn("discarding rules snapshot with unsupported version",
			"version", snap.Version,
			"want", ir.SnapshotVersion,
		)
		return s
	}
	for glyph, sides := range snap.Rules {
		if glyph == "" {
			continue
		}
		sr := make(ir.SideRules, len(sides))
		for side, rule := range sides {
			if side.Valid() {
				sr[side] = rule
			}
		}
		if len(sr) > 0 {
			s.rules[glyph] = sr
		}
	}
	s.rebuild()
	return s
}

// SetRule stores rule for glyph on side. SideBoth writes the same rule to both
// sides. The rule is syntax-checked first; on failure nothing changes and the
// returned error wraps a *compiler.ParseError.
func (s *Store) SetRule(glyph string, side ir.Side, rule string) error {
	sides, err := checkTarget(glyph, side)
	if err != nil {
		return fmt.Errorf("set rule: %w", err)
	}
	if _, err := compiler.Parse(rule, sides[0]); err != nil {
		return fmt.Errorf("set rule %s.%s: %w", glyph, side, err)
	}

	sr := s.rules[glyph]
	if sr == nil {
		sr = make(ir.SideRules, 2)
		s.rules[glyph] = sr
	}
	for _, sd := range sides {
		sr[sd] = rule
	}
	return s.commit("set")
}

// RemoveRule deletes the rule(s) of glyph on side and returns what was removed.
// Removing an absent rule is a no-op: the result is empty and neither a rebuild
// nor a persistence call happens.
func (s *Store) RemoveRule(glyph string, side ir.Side) (ir.SideRules, error) {
	sides, err := checkTarget(glyph, side)
	if err != nil {
		return nil, fmt.Errorf("remove rule: %w", err)
	}

	removed := ir.SideRules{}
	sr := s.rules[glyph]
	for _, sd := range sides {
		if rule, ok := sr[sd]; ok {
			removed[sd] = rule
			delete(sr, sd)
		}
	}
	if len(removed) == 0 {
		return removed, nil
	}
	if len(sr) == 0 {
		delete(s.rules, glyph)
	}
	return removed, s.commit("remove")
}

// ClearGlyph removes every rule of glyph.
func (s *Store) ClearGlyph(glyph string) (ir.SideRules, error) {
	return s.RemoveRule(glyph, ir.SideBoth)
}

// Clear removes all rules. Clearing an empty table is a no-op.
func (s *Store) Clear() error {
	if len(s.rules) == 0 {
		return nil
	}
	s.rules = ir.RuleTable{}
	return s.commit("clear")
}

// ReplaceGlyph sets the complete rule set of glyph in one mutation. A nil or
// empty rules removes the glyph. Rules are stored without a syntax check so
// that a previously loaded state can be restored exactly.
func (s *Store) ReplaceGlyph(glyph string, rules ir.SideRules) error {
	if glyph == "" {
		return fmt.Errorf("replace glyph: %w", ErrEmptyGlyph)
	}
	for side := range rules {
		if !side.Valid() {
			return fmt.Errorf("replace glyph %s: %w %q", glyph, ErrInvalidSide, string(side))
		}
	}
	if c := rules.Clone(); c != nil {
		s.rules[glyph] = c
	} else {
		if _, ok := s.rules[glyph]; !ok {
			return nil
		}
		delete(s.rules, glyph)
	}
	return s.commit("replace")
}

// commit rebuilds the derived caches and persists the new state. A persistence
// failure is returned but the mutation stays applied.
func (s *Store) commit(op string) error {
	s.rebuild()
	s.metrics.Mutation(op)
	if s.persister == nil {
		return nil
	}
	if err := s.persister.Persist(s.Snapshot()); err != nil {
		s.metrics.PersistFailure()
		s.logger.Warn("persisting rules failed", "op", op, "error", err)
		return fmt.Errorf("persist rules after %s: %w", op, err)
	}
	return nil
}

// rebuild recomputes the parsed cache and dependency index from the raw table.
// Rules that fail to parse are skipped.
func (s *Store) rebuild() {
	s.parsed = make(map[string]map[ir.Side]ir.ParsedRule, len(s.rules))
	s.dependents = make(map[string]*treeset.Set)

	skipped := 0
	for glyph, sides := range s.rules {
		for side, rule := range sides {
			p, err := compiler.Parse(rule, side)
			if err != nil {
				skipped++
				continue
			}
			if s.parsed[glyph] == nil {
				s.parsed[glyph] = make(map[ir.Side]ir.ParsedRule, 2)
			}
			s.parsed[glyph][side] = p

			source := glyph
			if name, ok := p.SourceGlyph(); ok {
				source = name
			}
			s.addEdge(source, glyph)
		}
	}

	s.rebuilds++
	s.metrics.Rebuild()
	s.logger.Debug("rule caches rebuilt",
		"glyphs", len(s.rules),
		"sources", len(s.dependents),
		"unparsable", skipped,
	)
}

func (s *Store) addEdge(source, dependent string) {
	set, ok := s.dependents[source]
	if !ok {
		set = treeset.NewWithStringComparator()
		s.dependents[source] = set
	}
	set.Add(dependent)
}

func checkTarget(glyph string, side ir.Side) ([]ir.Side, error) {
	if glyph == "" {
		return nil, ErrEmptyGlyph
	}
	sides, err := side.Expand()
	if err != nil {
		return nil, fmt.Errorf("%w %q", ErrInvalidSide, string(side))
	}
	return sides, nil
}

// Rule returns the raw rule of glyph on side.
func (s *Store) Rule(glyph string, side ir.Side) (string, bool) {
	rule, ok := s.rules[glyph][side]
	return rule, ok
}

// RulesForGlyph returns a copy of glyph's rules, or nil.
func (s *Store) RulesForGlyph(glyph string) ir.SideRules {
	return s.rules[glyph].Clone()
}

// HasRule reports whether glyph has a rule on side.
func (s *Store) HasRule(glyph string, side ir.Side) bool {
	_, ok := s.rules[glyph][side]
	return ok
}

// HasAnyRule reports whether glyph has a rule on either side.
func (s *Store) HasAnyRule(glyph string) bool {
	return len(s.rules[glyph]) > 0
}

// AllRules returns a deep copy of the rule table.
func (s *Store) AllRules() ir.RuleTable {
	return s.rules.Clone()
}

// Glyphs returns the rule-bearing glyphs, sorted.
func (s *Store) Glyphs() []string {
	return s.rules.Glyphs()
}

// Len returns the number of stored rules.
func (s *Store) Len() int {
	return s.rules.Len()
}

// Parsed returns the cached parse of glyph's rule on side. Rules that failed
// to parse are absent.
func (s *Store) Parsed(glyph string, side ir.Side) (ir.ParsedRule, bool) {
	p, ok := s.parsed[glyph][side]
	return p, ok
}

// Snapshot returns the persisted form of the current table.
func (s *Store) Snapshot() ir.Snapshot {
	return ir.NewSnapshot(s.rules)
}

// Dependents returns the glyphs whose rules read glyph, sorted. A glyph with a
// symmetry rule lists itself.
func (s *Store) Dependents(glyph string) []string {
	set, ok := s.dependents[glyph]
	if !ok {
		return nil
	}
	out := make([]string, 0, set.Size())
	for _, v := range set.Values() {
		out = append(out, v.(string))
	}
	return out
}

// IsDependent reports whether dependent's rules read source.
func (s *Store) IsDependent(source, dependent string) bool {
	set, ok := s.dependents[source]
	return ok && set.Contains(dependent)
}

// Sources returns every glyph that has at least one dependent, sorted.
func (s *Store) Sources() []string {
	out := make([]string, 0, len(s.dependents))
	for source := range s.dependents {
		out = append(out, source)
	}
	sort.Strings(out)
	return out
}

// Dependencies returns the glyphs that glyph's own rules reference, sorted.
// Symmetry rules do not contribute.
func (s *Store) Dependencies(glyph string) []string {
	seen := map[string]bool{}
	var out []string
	for _, side := range ir.Sides {
		p, ok := s.parsed[glyph][side]
		if !ok {
			continue
		}
		if name, ok := p.SourceGlyph(); ok && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Rebuilds returns how many times the derived caches have been rebuilt.
func (s *Store) Rebuilds() int {
	return s.rebuilds
}
