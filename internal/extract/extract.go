// Package extract applies a rule set to a normalized document and resolves
// the resulting candidates into one answer per field.
//
// Extraction is a pure function of its inputs: the same document, rule set
// and threshold always give the same Result, and concurrent calls share no
// state.
package extract

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"

	"github.com/jackzampolin/firscan/internal/fields"
	"github.com/jackzampolin/firscan/internal/normalize"
	"github.com/jackzampolin/firscan/internal/rules"
	"github.com/jackzampolin/firscan/internal/types"
)

var (
	// ErrEmptyRuleSet is returned for a nil rule set or one without rules.
	ErrEmptyRuleSet = &rules.ConfigurationError{Reason: "rule set is empty"}
	// ErrInvalidDocument is returned when a span confidence is not in [0,1].
	ErrInvalidDocument = errors.New("invalid document")
	// ErrInvalidThreshold is returned when the threshold is not in [0,1].
	ErrInvalidThreshold = errors.New("confidence threshold must be within [0,1]")
)

// Candidate is one value proposed by one rule match.
type Candidate struct {
	Field      fields.Kind  `json:"field"`
	Raw        string       `json:"raw"`
	Value      fields.Value `json:"value"`
	Confidence float64      `json:"confidence"`
	RuleID     string       `json:"rule_id"`
	Priority   int          `json:"priority"`
	// Offset is the byte offset of Raw in the joined document text.
	Offset int `json:"offset"`
	// Span is the OCR span holding the start of the value.
	Span types.TextSpan `json:"span"`

	end  int
	rule int
}

// Result is the outcome of one extraction. Single-valued fields hold exactly
// one candidate; multi-valued fields hold their values in document order.
// Fields below the threshold or without a match are absent.
type Result struct {
	RuleSetVersion int                         `json:"rule_set_version"`
	Threshold      float64                     `json:"threshold"`
	Fields         map[fields.Kind][]Candidate `json:"fields"`
	// Confidence is per field; for multi-valued fields it is the lowest
	// confidence among the retained values.
	Confidence map[fields.Kind]float64 `json:"confidence"`
}

// Value returns the first value extracted for kind.
func (r *Result) Value(kind fields.Kind) (fields.Value, bool) {
	cs := r.Fields[kind]
	if len(cs) == 0 {
		return nil, false
	}
	return cs[0].Value, true
}

// Values returns every value extracted for kind.
func (r *Result) Values(kind fields.Kind) []fields.Value {
	cs := r.Fields[kind]
	out := make([]fields.Value, len(cs))
	for i, c := range cs {
		out[i] = c.Value
	}
	return out
}

// Extract runs every rule of rs over doc and keeps, per field, the best
// candidates whose confidence is at least threshold.
func Extract(doc normalize.Document, rs *rules.RuleSet, threshold float64) (*Result, error) {
	if rs.Len() == 0 {
		return nil, ErrEmptyRuleSet
	}
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidThreshold, threshold)
	}
	for i, s := range doc.Spans {
		if err := s.Source.Validate(); err != nil {
			return nil, fmt.Errorf("%w: span %d: %v", ErrInvalidDocument, i, err)
		}
	}

	l := newLayout(doc)
	byField := make(map[fields.Kind][]Candidate)
	for i := 0; i < rs.Len(); i++ {
		rule, re := rs.Rule(i)
		for _, loc := range re.FindAllStringSubmatchIndex(l.text, -1) {
			c, ok := l.candidate(rule, re, loc)
			if !ok {
				continue
			}
			c.rule = i
			byField[c.Field] = append(byField[c.Field], c)
		}
	}

	res := &Result{
		RuleSetVersion: rs.Version(),
		Threshold:      threshold,
		Fields:         make(map[fields.Kind][]Candidate),
		Confidence:     make(map[fields.Kind]float64),
	}
	for kind, cands := range byField {
		kept := resolve(kind, cands, threshold)
		if len(kept) == 0 {
			continue
		}
		res.Fields[kind] = kept
		conf := kept[0].Confidence
		for _, c := range kept[1:] {
			conf = math.Min(conf, c.Confidence)
		}
		res.Confidence[kind] = conf
	}
	return res, nil
}

// resolve filters cands by threshold and picks the winners for kind.
func resolve(kind fields.Kind, cands []Candidate, threshold float64) []Candidate {
	ranked := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if c.Confidence >= threshold {
			ranked = append(ranked, c)
		}
	}
	if len(ranked) == 0 {
		return nil
	}
	sort.SliceStable(ranked, func(i, j int) bool { return better(ranked[i], ranked[j]) })

	if !kind.Multi() {
		return ranked[:1]
	}

	var kept []Candidate
	seen := make(map[string]bool)
	for _, c := range ranked {
		if seen[c.Value.Canonical()] {
			continue
		}
		overlaps := false
		for _, k := range kept {
			if c.Offset < k.end && k.Offset < c.end {
				overlaps = true
				break
			}
		}
		if overlaps {
			continue
		}
		seen[c.Value.Canonical()] = true
		kept = append(kept, c)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Offset != kept[j].Offset {
			return kept[i].Offset < kept[j].Offset
		}
		return better(kept[i], kept[j])
	})
	return kept
}

// better orders candidates: higher confidence, then lower priority, then
// earlier offset, then rule declaration order.
func better(a, b Candidate) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	if a.Offset != b.Offset {
		return a.Offset < b.Offset
	}
	if a.rule != b.rule {
		return a.rule < b.rule
	}
	return a.end < b.end
}

// layout is the joined document text with each span's byte range.
type layout struct {
	doc   normalize.Document
	text  string
	start []int
	end   []int
}

func newLayout(doc normalize.Document) *layout {
	l := &layout{
		doc:   doc,
		text:  doc.Text(),
		start: make([]int, len(doc.Spans)),
		end:   make([]int, len(doc.Spans)),
	}
	off := 0
	for i, s := range doc.Spans {
		l.start[i] = off
		l.end[i] = off + len(s.Text)
		off = l.end[i] + 1
	}
	return l
}

// confidence is the lowest OCR confidence among spans overlapping [from, to).
func (l *layout) confidence(from, to int) float64 {
	conf, found := 1.0, false
	for i := range l.doc.Spans {
		if l.start[i] < to && from < l.end[i] {
			conf = math.Min(conf, l.doc.Spans[i].Source.Confidence)
			found = true
		}
	}
	if !found {
		return 0
	}
	return conf
}

// spanAt returns the span containing pos, or the first span after it.
func (l *layout) spanAt(pos int) types.TextSpan {
	for i := range l.doc.Spans {
		if pos < l.end[i] {
			return l.doc.Spans[i].Source
		}
	}
	return types.TextSpan{}
}

// valueGroups are the named groups that mark where a value starts, in order
// of preference.
var valueGroups = []string{"value", "section", "desc"}

func (l *layout) candidate(rule rules.Rule, re *regexp.Regexp, loc []int) (Candidate, bool) {
	caps := fields.Captures{Named: make(map[string]string)}
	from, to := -1, -1
	valueStart := -1
	names := re.SubexpNames()
	for g := 1; g < len(names); g++ {
		s, e := loc[2*g], loc[2*g+1]
		if s < 0 {
			if names[g] == "" {
				caps.Groups = append(caps.Groups, "")
			}
			continue
		}
		if names[g] == "" {
			caps.Groups = append(caps.Groups, l.text[s:e])
		} else {
			caps.Named[names[g]] = l.text[s:e]
		}
		if from < 0 || s < from {
			from = s
		}
		if e > to {
			to = e
		}
	}
	for name, v := range rule.Defaults {
		if caps.Named[name] == "" {
			caps.Named[name] = v
		}
	}
	if from < 0 {
		return Candidate{}, false
	}

	for _, name := range valueGroups {
		if g := re.SubexpIndex(name); g > 0 && loc[2*g] >= 0 {
			valueStart = loc[2*g]
			break
		}
	}
	if valueStart < 0 {
		valueStart = from
	}

	v, err := fields.FromCaptures(rule.Field, caps)
	if err != nil {
		return Candidate{}, false
	}

	conf := l.confidence(loc[0], loc[1]) * rule.Certainty
	conf = math.Max(0, math.Min(1, conf))
	return Candidate{
		Field:      rule.Field,
		Raw:        l.text[from:to],
		Value:      v,
		Confidence: conf,
		RuleID:     rule.ID,
		Priority:   rule.Priority,
		Offset:     from,
		Span:       l.spanAt(valueStart),
		end:        to,
	}, true
}
