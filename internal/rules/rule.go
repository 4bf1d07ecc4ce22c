// Package rules holds extraction rules and the versioned, immutable rule sets
// that group them.
//
// A RuleSet is never modified after construction. Learning produces a new set
// derived from its parent, and serving switches to it through Active.
package rules

import (
	"fmt"
	"regexp"

	"github.com/jackzampolin/firscan/internal/fields"
)

// Origin records where a rule came from.
type Origin string

const (
	OriginBootstrap Origin = "bootstrap"
	OriginFile      Origin = "file"
	OriginLearned   Origin = "learned"
)

// Rule extracts one field kind from normalized text.
//
// Lower Priority runs first and wins ties at equal confidence. Certainty is
// the rule's own reliability; a candidate's confidence is the OCR confidence
// of the matched spans times Certainty.
type Rule struct {
	ID        string      `json:"id" yaml:"id"`
	Field     fields.Kind `json:"field" yaml:"field"`
	Pattern   string      `json:"pattern" yaml:"pattern"`
	Priority  int         `json:"priority" yaml:"priority"`
	Certainty float64     `json:"certainty" yaml:"certainty"`
	Origin    Origin      `json:"origin,omitempty" yaml:"origin,omitempty"`
	// Defaults fills named parts the pattern does not capture, such as the
	// act of a legal section.
	Defaults map[string]string `json:"defaults,omitempty" yaml:"defaults,omitempty"`
}

// captureNames are the named groups the field contracts understand.
var captureNames = map[string]bool{
	"value":   true,
	"act":     true,
	"section": true,
	"desc":    true,
	"amount":  true,
}

// ConfigurationError reports a rule or rule set that cannot be served.
type ConfigurationError struct {
	RuleID string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.RuleID == "" {
		return "invalid rule set: " + e.Reason
	}
	return fmt.Sprintf("invalid rule %q: %s", e.RuleID, e.Reason)
}

func (r Rule) compile() (*regexp.Regexp, error) {
	if r.ID == "" {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("rule for %s has no id", r.Field)}
	}
	if !r.Field.Known() {
		return nil, &ConfigurationError{RuleID: r.ID, Reason: fmt.Sprintf("unknown field %q", r.Field)}
	}
	if !(r.Certainty > 0 && r.Certainty <= 1) {
		return nil, &ConfigurationError{RuleID: r.ID, Reason: fmt.Sprintf("certainty %v outside (0,1]", r.Certainty)}
	}
	re, err := regexp.Compile(r.Pattern)
	if err != nil {
		return nil, &ConfigurationError{RuleID: r.ID, Reason: fmt.Sprintf("pattern does not compile: %v", err)}
	}
	if re.NumSubexp() == 0 {
		return nil, &ConfigurationError{RuleID: r.ID, Reason: "pattern has no capture group"}
	}
	for _, name := range re.SubexpNames() {
		if name != "" && !captureNames[name] {
			return nil, &ConfigurationError{RuleID: r.ID, Reason: fmt.Sprintf("unsupported group name %q", name)}
		}
	}
	for name := range r.Defaults {
		if !captureNames[name] {
			return nil, &ConfigurationError{RuleID: r.ID, Reason: fmt.Sprintf("unsupported default %q", name)}
		}
	}
	return re, nil
}

func (r Rule) clone() Rule {
	if r.Defaults != nil {
		d := make(map[string]string, len(r.Defaults))
		for k, v := range r.Defaults {
			d[k] = v
		}
		r.Defaults = d
	}
	return r
}
