// Package normalize canonicalizes raw OCR text before field extraction.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/jackzampolin/firscan/internal/types"
)

// keep lists the punctuation that survives noise stripping.
const keep = ".,:/()-_"

// Span is a normalized span. Source is the untouched OCR span, kept for
// position and confidence.
type Span struct {
	Text   string         `json:"text"`
	Source types.TextSpan `json:"source"`
}

// Document is the ordered sequence of normalized spans for one request.
type Document struct {
	Spans []Span `json:"spans"`
}

// Text joins the span texts with single spaces.
func (d Document) Text() string {
	parts := make([]string, len(d.Spans))
	for i, s := range d.Spans {
		parts[i] = s.Text
	}
	return strings.Join(parts, " ")
}

// Normalizer applies noise stripping and a substitution table to OCR spans.
// It holds no mutable state and is safe for concurrent use.
type Normalizer struct {
	table *Table
}

// New creates a Normalizer. A nil table applies no substitutions.
func New(table *Table) *Normalizer {
	return &Normalizer{table: table}
}

// Table returns the substitution table in use.
func (n *Normalizer) Table() *Table {
	return n.table
}

// Normalize returns a new Document. Spans whose text is empty after cleaning
// are dropped; the input slice is not modified.
func (n *Normalizer) Normalize(spans []types.TextSpan) Document {
	doc := Document{Spans: make([]Span, 0, len(spans))}
	for _, s := range spans {
		text := n.NormalizeText(s.Text)
		if text == "" {
			continue
		}
		doc.Spans = append(doc.Spans, Span{Text: text, Source: s})
	}
	return doc
}

// NormalizeText runs the full pipeline on one string. NormalizeText is
// idempotent: NormalizeText(NormalizeText(s)) == NormalizeText(s).
func (n *Normalizer) NormalizeText(s string) string {
	s = clean(s)
	if s == "" {
		return s
	}
	s = n.table.Apply(s)
	return norm.NFC.String(s)
}

// clean composes to NFC, strips noise characters and collapses whitespace.
func clean(s string) string {
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsMark(r), unicode.IsNumber(r), unicode.IsSpace(r):
			return r
		case strings.ContainsRune(keep, r):
			return r
		}
		return -1
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
