package learner

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/jackzampolin/firscan/internal/fields"
	"github.com/jackzampolin/firscan/internal/rules"
)

// Certainties of synthesized rules.
const (
	LabelCertainty   = 0.98
	LiteralCertainty = 0.7
)

// maxLabelTokens is how many tokens before a value form its label.
const maxLabelTokens = 3

// amount captures a rupee amount after a property description.
const amount = `[^\p{N}]{0,30}?(?P<amount>\d[\d,]*)`

// occurrence is the byte range of a corrected value in document text.
type occurrence struct {
	start, end int
}

// synthesize returns candidate rules for want in text, best first: one
// label-anchored rule per distinct label, then the literal rule for text
// kinds.
func synthesize(text string, kind fields.Kind, want fields.Value, priority int) []rules.Rule {
	occs := locate(text, kind, want)
	if len(occs) == 0 {
		return nil
	}

	var out []rules.Rule
	seen := make(map[string]bool)
	add := func(pattern string, certainty float64, defaults map[string]string) {
		if seen[pattern] {
			return
		}
		seen[pattern] = true
		out = append(out, rules.Rule{
			ID:        ruleID(kind, pattern),
			Field:     kind,
			Pattern:   pattern,
			Priority:  priority,
			Certainty: certainty,
			Origin:    rules.OriginLearned,
			Defaults:  defaults,
		})
	}

	defaults := actDefaults(want)
	for _, o := range occs {
		label := labelBefore(text, o.start)
		if label == "" {
			continue
		}
		add("(?i)"+label+`\s*`+valuePattern(text, kind, o), LabelCertainty, defaults)
	}

	if fields.Shape(kind) == "" {
		switch v := want.(type) {
		case fields.Property:
			add("(?i)(?P<desc>"+literal(v.Description)+")"+amount, LiteralCertainty, nil)
		default:
			add("(?i)(?P<value>"+literal(want.Canonical())+")", LiteralCertainty, nil)
		}
	}
	return out
}

// locate finds every place in text where want appears.
func locate(text string, kind fields.Kind, want fields.Value) []occurrence {
	if shape := fields.Shape(kind); shape != "" {
		re := regexp.MustCompile("(?i)(?:" + shape + ")")
		var out []occurrence
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if sameValue(kind, text[loc[0]:loc[1]], want) {
				out = append(out, occurrence{loc[0], loc[1]})
			}
		}
		return out
	}

	lit := want.Canonical()
	if p, ok := want.(fields.Property); ok {
		lit = p.Description
	}
	pattern := literal(lit)
	if pattern == "" {
		return nil
	}
	re := regexp.MustCompile("(?i)" + pattern)
	var out []occurrence
	for _, loc := range re.FindAllStringIndex(text, -1) {
		out = append(out, occurrence{loc[0], loc[1]})
	}
	return out
}

// sameValue reports whether raw parses to want. Legal sections compare the
// section only; the act comes from the rule defaults.
func sameValue(kind fields.Kind, raw string, want fields.Value) bool {
	got, err := fields.Parse(kind, raw)
	if err != nil {
		return false
	}
	if w, ok := want.(fields.ActSection); ok {
		g, ok := got.(fields.ActSection)
		return ok && g.Section == w.Section
	}
	return got.Canonical() == want.Canonical()
}

func actDefaults(want fields.Value) map[string]string {
	if a, ok := want.(fields.ActSection); ok && a.Act != fields.DefaultAct {
		return map[string]string{"act": a.Act}
	}
	return nil
}

// valuePattern is the capturing part of a label-anchored rule.
func valuePattern(text string, kind fields.Kind, o occurrence) string {
	switch kind {
	case fields.LegalSection:
		return "(?P<section>" + fields.Shape(kind) + ")"
	case fields.PropertyItem:
		return `(?P<desc>[\p{L}\p{M} .]+?)` + amount
	}
	if shape := fields.Shape(kind); shape != "" {
		return "(?P<value>" + shape + ")"
	}
	return `(?P<value>.+?)` + terminator(text[o.end:])
}

// terminator ends a lazy text capture at the token that followed the value
// in the sample, or at any digit when that token was numeric.
func terminator(rest string) string {
	tokens := strings.Fields(rest)
	if len(tokens) == 0 {
		return `\s*$`
	}
	if hasDigit(tokens[0]) {
		return `\s*\d`
	}
	return `\s*` + quote(tokens[0])
}

// labelBefore returns the canonical pattern for up to maxLabelTokens tokens
// immediately before pos. Tokens holding digits are values, not labels, and
// end the label.
func labelBefore(text string, pos int) string {
	tokens := strings.Fields(text[:pos])
	var label []string
	for i := len(tokens) - 1; i >= 0 && len(label) < maxLabelTokens; i-- {
		if hasDigit(tokens[i]) {
			break
		}
		label = append([]string{tokens[i]}, label...)
	}
	return join(label)
}

// literal is the canonical pattern for s: case-folded tokens, quoted, joined
// by optional whitespace.
func literal(s string) string {
	return join(strings.Fields(s))
}

func join(tokens []string) string {
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = quote(t)
	}
	return strings.Join(quoted, `\s*`)
}

func quote(token string) string {
	return regexp.QuoteMeta(strings.ToLower(token))
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

func ruleID(kind fields.Kind, pattern string) string {
	sum := sha256.Sum256([]byte(string(kind) + "\x00" + pattern))
	return fmt.Sprintf("%s.learned.%x", kind, sum[:4])
}
