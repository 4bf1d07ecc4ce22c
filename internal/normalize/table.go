package normalize

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// ConfigurationError reports a substitution table that cannot be used.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Key == "" {
		return "invalid substitution table: " + e.Reason
	}
	return fmt.Sprintf("invalid substitution table entry %q: %s", e.Key, e.Reason)
}

// Table maps known OCR misrecognitions to their canonical text. Keys are
// matched longest first in a single left-to-right pass.
//
// A table is accepted only if applying it to its own output is a no-op: no
// replacement may contain a key, and no key may straddle the boundary between
// a replacement and its surroundings.
type Table struct {
	entries map[string]string
	// byFirst holds keys grouped by their first byte, longest first.
	byFirst map[byte][]string
}

// NewTable validates entries and builds a Table.
func NewTable(entries map[string]string) (*Table, error) {
	t := &Table{
		entries: make(map[string]string, len(entries)),
		byFirst: make(map[byte][]string),
	}
	for k, v := range entries {
		if err := checkEntry(k, v); err != nil {
			return nil, err
		}
		t.entries[k] = v
		t.byFirst[k[0]] = append(t.byFirst[k[0]], k)
	}
	for b, keys := range t.byFirst {
		sort.Slice(keys, func(i, j int) bool {
			if len(keys[i]) != len(keys[j]) {
				return len(keys[i]) > len(keys[j])
			}
			return keys[i] < keys[j]
		})
		t.byFirst[b] = keys
	}
	if err := t.checkOverlaps(); err != nil {
		return nil, err
	}
	return t, nil
}

func checkEntry(k, v string) error {
	if k == "" {
		return &ConfigurationError{Reason: "empty key"}
	}
	if v == "" {
		return &ConfigurationError{Key: k, Reason: "empty replacement"}
	}
	if k == v {
		return &ConfigurationError{Key: k, Reason: "replacement equals key"}
	}
	for _, s := range []string{k, v} {
		if !utf8.ValidString(s) {
			return &ConfigurationError{Key: k, Reason: "not valid UTF-8"}
		}
		if clean(s) != s {
			return &ConfigurationError{Key: k, Reason: fmt.Sprintf("%q is not in normalized form", s)}
		}
		if r, _ := utf8.DecodeRuneInString(s); unicode.IsMark(r) {
			return &ConfigurationError{Key: k, Reason: fmt.Sprintf("%q starts with a combining mark", s)}
		}
	}
	return nil
}

// checkOverlaps rejects pairs that would let a second pass find new matches.
func (t *Table) checkOverlaps() error {
	for k := range t.entries {
		for _, r := range t.entries {
			if strings.Contains(r, k) {
				return &ConfigurationError{Key: k, Reason: fmt.Sprintf("key occurs inside replacement %q", r)}
			}
			if strings.Contains(k, r) {
				return &ConfigurationError{Key: k, Reason: fmt.Sprintf("replacement %q occurs inside key", r)}
			}
			for i := 1; i < len(k); i++ {
				if !utf8.RuneStart(k[i]) {
					continue
				}
				if strings.HasSuffix(r, k[:i]) || strings.HasPrefix(r, k[i:]) {
					return &ConfigurationError{Key: k, Reason: fmt.Sprintf("key overlaps the edge of replacement %q", r)}
				}
			}
		}
	}
	return nil
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Entries returns a copy of the substitutions.
func (t *Table) Entries() map[string]string {
	out := make(map[string]string, t.Len())
	if t == nil {
		return out
	}
	for k, v := range t.entries {
		out[k] = v
	}
	return out
}

// Apply performs one left-to-right, longest-match-first pass over s.
func (t *Table) Apply(s string) string {
	if t.Len() == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		matched := false
		for _, k := range t.byFirst[s[i]] {
			if strings.HasPrefix(s[i:], k) {
				b.WriteString(t.entries[k])
				i += len(k)
				matched = true
				break
			}
		}
		if !matched {
			_, size := utf8.DecodeRuneInString(s[i:])
			b.WriteString(s[i : i+size])
			i += size
		}
	}
	return b.String()
}

type tableFile struct {
	// ReplaceDefaults drops the built-in entries instead of extending them.
	ReplaceDefaults bool              `yaml:"replace_defaults"`
	Substitutions   map[string]string `yaml:"substitutions"`
}

// LoadTable reads a YAML substitution file and merges it over the defaults.
//
//	replace_defaults: false
//	substitutions:
//	  "FlR": "FIR"
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read substitution table: %w", err)
	}
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("malformed YAML in %s: %v", path, err)}
	}

	entries := DefaultSubstitutions()
	if f.ReplaceDefaults {
		entries = make(map[string]string, len(f.Substitutions))
	}
	for k, v := range f.Substitutions {
		entries[norm.NFC.String(k)] = norm.NFC.String(v)
	}
	return NewTable(entries)
}

// DefaultTable returns the built-in table.
func DefaultTable() *Table {
	t, err := NewTable(DefaultSubstitutions())
	if err != nil {
		panic(err)
	}
	return t
}

// DefaultSubstitutions returns the built-in entries: Devanagari digits and
// label misrecognitions seen on scanned FIR forms.
func DefaultSubstitutions() map[string]string {
	m := map[string]string{
		"FlR":         "FIR",
		"Distrlct":    "District",
		"Dlstrict":    "District",
		"Statlon":     "Station",
		"Staton":      "Station",
		"Pollce":      "Police",
		"Complainent": "Complainant",
		"Adress":      "Address",
		"Ariédt":      "Address",
		"Mobiie":      "Mobile",
		"STfeT":       "Street",
		"VoSITENs":    "Vishnu Nagar",
		"galetaR":     "Gautam",
		"caleit":      "Colony",
		"ailurst":     "Ailur",
		"fAreatearan": "Father/Husband",
	}
	for r := '०'; r <= '९'; r++ {
		m[string(r)] = string('0' + (r - '०'))
	}
	return m
}
