package rules

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"sync/atomic"
	"time"

	"github.com/jackzampolin/firscan/internal/fields"
)

// Manifest is the serialized form of a rule set.
type Manifest struct {
	Version   int       `json:"version" yaml:"version"`
	Parent    int       `json:"parent,omitempty" yaml:"parent,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Rules     []Rule    `json:"rules" yaml:"rules"`
}

// RuleSet is an ordered, versioned and immutable collection of rules.
// Rules are ordered by ascending priority, ties kept in declaration order.
type RuleSet struct {
	version   int
	parent    int
	createdAt time.Time
	rules     []Rule
	compiled  []*regexp.Regexp
}

// New validates m and builds a RuleSet. Every pattern must compile, every
// rule id must be unique, and every field must be known.
func New(m Manifest) (*RuleSet, error) {
	if m.Version < 0 {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("negative version %d", m.Version)}
	}
	rs := &RuleSet{
		version:   m.Version,
		parent:    m.Parent,
		createdAt: m.CreatedAt.UTC(),
		rules:     make([]Rule, len(m.Rules)),
	}
	for i, r := range m.Rules {
		rs.rules[i] = r.clone()
	}
	sort.SliceStable(rs.rules, func(i, j int) bool {
		return rs.rules[i].Priority < rs.rules[j].Priority
	})

	seen := make(map[string]bool, len(rs.rules))
	rs.compiled = make([]*regexp.Regexp, len(rs.rules))
	for i, r := range rs.rules {
		if seen[r.ID] {
			return nil, &ConfigurationError{RuleID: r.ID, Reason: "duplicate rule id"}
		}
		seen[r.ID] = true
		re, err := r.compile()
		if err != nil {
			return nil, err
		}
		rs.compiled[i] = re
	}
	return rs, nil
}

// Version returns the set's version number.
func (s *RuleSet) Version() int { return s.version }

// Parent returns the version this set was derived from, or 0.
func (s *RuleSet) Parent() int { return s.parent }

// CreatedAt returns when the set was built.
func (s *RuleSet) CreatedAt() time.Time { return s.createdAt }

// Len returns the number of rules. A nil set has none.
func (s *RuleSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

// Rule returns the i-th rule in evaluation order and its compiled pattern.
func (s *RuleSet) Rule(i int) (Rule, *regexp.Regexp) {
	return s.rules[i].clone(), s.compiled[i]
}

// Rules returns a copy of the rules in evaluation order.
func (s *RuleSet) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	for i, r := range s.rules {
		out[i] = r.clone()
	}
	return out
}

// Has reports whether a rule with the same field and pattern exists.
func (s *RuleSet) Has(field fields.Kind, pattern string) bool {
	for _, r := range s.rules {
		if r.Field == field && r.Pattern == pattern {
			return true
		}
	}
	return false
}

// MinPriority returns the lowest priority among rules for field.
func (s *RuleSet) MinPriority(field fields.Kind) (int, bool) {
	lowest, found := 0, false
	for _, r := range s.rules {
		if r.Field == field && (!found || r.Priority < lowest) {
			lowest, found = r.Priority, true
		}
	}
	return lowest, found
}

// Extend returns a new set at version holding every rule of s plus added.
// s is left untouched.
func (s *RuleSet) Extend(version int, createdAt time.Time, added []Rule) (*RuleSet, error) {
	m := s.Manifest()
	m.Version = version
	m.Parent = s.version
	m.CreatedAt = createdAt
	m.Rules = append(m.Rules, added...)
	return New(m)
}

// Manifest returns the serializable form of s.
func (s *RuleSet) Manifest() Manifest {
	return Manifest{
		Version:   s.version,
		Parent:    s.parent,
		CreatedAt: s.createdAt,
		Rules:     s.Rules(),
	}
}

// MarshalJSON encodes the manifest.
func (s *RuleSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Manifest())
}

// MarshalYAML encodes the manifest.
func (s *RuleSet) MarshalYAML() (any, error) {
	return s.Manifest(), nil
}

// Active is the rule set currently used for serving. Readers load a snapshot
// once per request; a swap never disturbs a request already in flight.
type Active struct {
	p atomic.Pointer[RuleSet]
}

// NewActive returns an Active serving rs.
func NewActive(rs *RuleSet) *Active {
	a := &Active{}
	a.p.Store(rs)
	return a
}

// Load returns the current set.
func (a *Active) Load() *RuleSet {
	return a.p.Load()
}

// Swap installs rs and returns the previous set.
func (a *Active) Swap(rs *RuleSet) *RuleSet {
	return a.p.Swap(rs)
}
