package extract

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jackzampolin/firscan/internal/fields"
	"github.com/jackzampolin/firscan/internal/normalize"
	"github.com/jackzampolin/firscan/internal/rules"
	"github.com/jackzampolin/firscan/internal/types"
)

type span struct {
	text string
	conf float64
}

func document(spans ...span) normalize.Document {
	raw := make([]types.TextSpan, len(spans))
	for i, s := range spans {
		raw[i] = types.TextSpan{Text: s.text, Confidence: s.conf, Position: types.Position{Page: 1}}
	}
	return normalize.New(normalize.DefaultTable()).Normalize(raw)
}

func ruleSet(t *testing.T, rs ...rules.Rule) *rules.RuleSet {
	t.Helper()
	set, err := rules.New(rules.Manifest{Version: 3, Rules: rs})
	if err != nil {
		t.Fatalf("rules.New() error = %v", err)
	}
	return set
}

func firRule(id string, priority int, certainty float64) rules.Rule {
	return rules.Rule{
		ID:        id,
		Field:     fields.FIRNumber,
		Pattern:   `FIR No\. (\d+)/(\d{4})`,
		Priority:  priority,
		Certainty: certainty,
	}
}

func TestExtract_FIRNumber(t *testing.T) {
	doc := document(span{"FIR No. 0569/2025 ... Date: 01/07/2025 14:16", 0.9})
	rs := ruleSet(t, firRule("fir", 1, 0.9))

	res, err := Extract(doc, rs, 0.5)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	v, ok := res.Value(fields.FIRNumber)
	if !ok {
		t.Fatal("Extract() found no fir_number")
	}
	if v.Canonical() != "0569/2025" {
		t.Errorf("fir_number = %q, want 0569/2025", v.Canonical())
	}
	if got := res.Confidence[fields.FIRNumber]; math.Abs(got-0.81) > 1e-9 {
		t.Errorf("confidence = %v, want 0.81", got)
	}
	if res.RuleSetVersion != 3 {
		t.Errorf("RuleSetVersion = %d, want 3", res.RuleSetVersion)
	}
	c := res.Fields[fields.FIRNumber][0]
	if c.Raw != "0569/2025" || c.RuleID != "fir" || c.Offset != 8 {
		t.Errorf("candidate = raw %q rule %q offset %d", c.Raw, c.RuleID, c.Offset)
	}
}

func TestExtract_Bootstrap(t *testing.T) {
	doc := document(
		span{"FlR No. ०५६९/२०२५", 0.92},
		span{"Date: 01/07/2025 14:16", 0.95},
		span{"District : Pune", 0.9},
		span{"Police Station : Kothrud", 0.9},
		span{"Mobile No. 98765 43210", 0.97},
	)
	res, err := Extract(doc, rules.Bootstrap(), 0.5)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	want := map[fields.Kind]string{
		fields.FIRNumber:     "0569/2025",
		fields.DateTime:      "2025-07-01T14:16:00+05:30",
		fields.District:      "Pune",
		fields.PoliceStation: "Kothrud",
		fields.PhoneNumber:   "9876543210",
	}
	for kind, w := range want {
		v, ok := res.Value(kind)
		if !ok {
			t.Errorf("%s not extracted", kind)
			continue
		}
		if v.Canonical() != w {
			t.Errorf("%s = %q, want %q", kind, v.Canonical(), w)
		}
	}
}

func TestExtract_OccurrenceAndOfficer(t *testing.T) {
	doc := document(
		span{"Occurrence of Offence: Day: Monday Date From: 12/03/2025 Date To: 13/03/2025", 0.9},
		span{"Time Period: Night Time From: 22:30 Time To: 01:15", 0.9},
		span{"Direction from P.S.: North East Distance from P.S.: 2.5 km Beat No. B-12", 0.9},
		span{"First Information Contents: A black motorcycle was stolen from the parking lot near the market. Action Taken: case registered", 0.85},
		span{"Officer in charge Name: Vijay Shinde Rank: PI No.: 4521", 0.9},
	)
	res, err := Extract(doc, rules.Bootstrap(), 0.5)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	want := map[fields.Kind]string{
		fields.OccurrenceDay:        "Monday",
		fields.OccurrenceDateFrom:   "2025-03-12",
		fields.OccurrenceDateTo:     "2025-03-13",
		fields.OccurrenceTimeFrom:   "22:30",
		fields.OccurrenceTimeTo:     "01:15",
		fields.OccurrenceTimePeriod: "Night",
		fields.DirectionFromPS:      "North East",
		fields.DistanceFromPS:       "2.5 km",
		fields.FirstInformation:     "A black motorcycle was stolen from the parking lot near the market.",
		fields.OfficerName:          "Vijay Shinde",
		fields.OfficerNumber:        "4521",
	}
	for kind, w := range want {
		v, ok := res.Value(kind)
		if !ok {
			t.Errorf("%s not extracted", kind)
			continue
		}
		if v.Canonical() != w {
			t.Errorf("%s = %q, want %q", kind, v.Canonical(), w)
		}
	}
}

func TestExtract_Deterministic(t *testing.T) {
	doc := document(
		span{"FIR No. 0569/2025 Date: 01/07/2025 14:16", 0.9},
		span{"Section 303(2) Section 115 (2) Section 303 (2)", 0.8},
		span{"Complainant Name : Ramesh Patil Father Name : Suresh Patil", 0.85},
	)
	rs := rules.Bootstrap()

	first, err := Extract(doc, rs, 0.3)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	want, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	docs := make([]normalize.Document, 16)
	for i := range docs {
		docs[i] = doc
	}
	all, err := ExtractAll(context.Background(), docs, rs, 0.3, 4)
	if err != nil {
		t.Fatalf("ExtractAll() error = %v", err)
	}
	for i, res := range all {
		got, err := json.Marshal(res)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		if string(got) != string(want) {
			t.Errorf("result %d differs:\n%s\nwant\n%s", i, got, want)
		}
	}
}

func TestExtract_ThresholdMonotonic(t *testing.T) {
	doc := document(
		span{"FIR No. 0569/2025", 0.95},
		span{"Date: 01/07/2025 14:16", 0.4},
		span{"Section 303(2)", 0.7},
		span{"Section 115(2)", 0.55},
		span{"District : Pune", 0.6},
		span{"phone 9876543210", 0.99},
	)
	rs := rules.Bootstrap()

	values := func(threshold float64) map[string]bool {
		res, err := Extract(doc, rs, threshold)
		if err != nil {
			t.Fatalf("Extract(%v) error = %v", threshold, err)
		}
		out := make(map[string]bool)
		for kind, cs := range res.Fields {
			for _, c := range cs {
				if c.Confidence < threshold {
					t.Errorf("%s confidence %v below threshold %v", kind, c.Confidence, threshold)
				}
				out[string(kind)+"="+c.Value.Canonical()] = true
			}
		}
		return out
	}

	thresholds := []float64{0, 0.2, 0.4, 0.5, 0.6, 0.8, 0.9, 1}
	prev := values(thresholds[0])
	for _, th := range thresholds[1:] {
		cur := values(th)
		for k := range cur {
			if !prev[k] {
				t.Errorf("threshold %v added %s", th, k)
			}
		}
		prev = cur
	}
}

func TestExtract_TieBreaks(t *testing.T) {
	t.Run("confidence beats priority", func(t *testing.T) {
		doc := document(span{"FIR No. 12/2024", 1})
		rs := ruleSet(t, firRule("early", 1, 0.8), firRule("sure", 9, 0.9))
		res, _ := Extract(doc, rs, 0)
		if got := res.Fields[fields.FIRNumber][0].RuleID; got != "sure" {
			t.Errorf("winner = %s, want sure", got)
		}
	})

	t.Run("lower priority wins at equal confidence", func(t *testing.T) {
		doc := document(span{"FIR No. 12/2024", 1})
		rs := ruleSet(t, firRule("late", 9, 0.9), firRule("early", 1, 0.9))
		res, _ := Extract(doc, rs, 0)
		if got := res.Fields[fields.FIRNumber][0].RuleID; got != "early" {
			t.Errorf("winner = %s, want early", got)
		}
	})

	t.Run("earlier offset wins at equal priority", func(t *testing.T) {
		doc := document(span{"FIR No. 12/2024 FIR No. 13/2024", 1})
		rs := ruleSet(t, firRule("fir", 1, 0.9))
		res, _ := Extract(doc, rs, 0)
		if v, _ := res.Value(fields.FIRNumber); v.Canonical() != "12/2024" {
			t.Errorf("fir_number = %s, want 12/2024", v.Canonical())
		}
	})
}

func TestExtract_MultiValued(t *testing.T) {
	doc := document(span{"Section 303 Section 115 (2) 303 420", 0.9})
	rs := ruleSet(t,
		rules.Rule{
			ID: "section", Field: fields.LegalSection, Priority: 1, Certainty: 0.9,
			Pattern: `Section\s*(?P<section>\d+(?:\s*\(\d+\))?)`,
		},
		rules.Rule{
			ID: "bare", Field: fields.LegalSection, Priority: 2, Certainty: 0.5,
			Pattern: `\b(\d{3})\b`,
		},
	)
	res, err := Extract(doc, rs, 0)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	var got []string
	for _, v := range res.Values(fields.LegalSection) {
		got = append(got, v.(fields.ActSection).Section)
	}
	if diff := cmp.Diff([]string{"303", "115(2)", "420"}, got); diff != "" {
		t.Errorf("sections mismatch (-want +got):\n%s", diff)
	}
	if conf := res.Confidence[fields.LegalSection]; math.Abs(conf-0.45) > 1e-9 {
		t.Errorf("field confidence = %v, want min 0.45", conf)
	}
}

func TestExtract_SpanConfidenceAndSource(t *testing.T) {
	doc := document(
		span{"Header", 1},
		span{"FIR No.", 0.9},
		span{"77/2023", 0.5},
	)
	rs := ruleSet(t, firRule("fir", 1, 1))
	res, err := Extract(doc, rs, 0)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	c := res.Fields[fields.FIRNumber][0]
	if c.Confidence != 0.5 {
		t.Errorf("Confidence = %v, want 0.5 (lowest overlapped span)", c.Confidence)
	}
	if c.Span.Text != "77/2023" {
		t.Errorf("Span = %q, want the span holding the value", c.Span.Text)
	}
}

func TestExtract_ContractFailureDiscarded(t *testing.T) {
	doc := document(span{"FIR No. 1234567/2025 District : 12", 1})
	rs := ruleSet(t,
		firRule("fir", 1, 1),
		rules.Rule{ID: "district", Field: fields.District, Priority: 1, Certainty: 1, Pattern: `District : (\d+)`},
	)
	res, err := Extract(doc, rs, 0)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(res.Fields) != 0 {
		t.Errorf("Fields = %v, want none", res.Fields)
	}
}

func TestExtract_Errors(t *testing.T) {
	doc := document(span{"FIR No. 1/2025", 0.9})
	rs := ruleSet(t, firRule("fir", 1, 1))

	t.Run("nil rule set", func(t *testing.T) {
		_, err := Extract(doc, nil, 0.5)
		if !errors.Is(err, ErrEmptyRuleSet) {
			t.Errorf("Extract() error = %v, want ErrEmptyRuleSet", err)
		}
		var ce *rules.ConfigurationError
		if !errors.As(err, &ce) {
			t.Errorf("Extract() error = %T, want *rules.ConfigurationError", err)
		}
	})

	t.Run("empty rule set", func(t *testing.T) {
		empty := ruleSet(t)
		if _, err := Extract(doc, empty, 0.5); !errors.Is(err, ErrEmptyRuleSet) {
			t.Errorf("Extract() error = %v, want ErrEmptyRuleSet", err)
		}
	})

	for _, th := range []float64{-0.1, 1.01, math.NaN()} {
		if _, err := Extract(doc, rs, th); !errors.Is(err, ErrInvalidThreshold) {
			t.Errorf("Extract(threshold %v) error = %v, want ErrInvalidThreshold", th, err)
		}
	}

	for _, conf := range []float64{-1, 1.2, math.NaN()} {
		bad := normalize.Document{Spans: []normalize.Span{{
			Text:   "FIR No. 1/2025",
			Source: types.TextSpan{Text: "FIR No. 1/2025", Confidence: conf},
		}}}
		if _, err := Extract(bad, rs, 0.5); !errors.Is(err, ErrInvalidDocument) {
			t.Errorf("Extract(span confidence %v) error = %v, want ErrInvalidDocument", conf, err)
		}
	}

	t.Run("no match is not an error", func(t *testing.T) {
		res, err := Extract(document(span{"nothing here", 1}), rs, 0.5)
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		if len(res.Fields) != 0 {
			t.Errorf("Fields = %v, want none", res.Fields)
		}
	})
}

func TestExtractAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	docs := []normalize.Document{document(span{"FIR No. 1/2025", 1})}
	if _, err := ExtractAll(ctx, docs, rules.Bootstrap(), 0.5, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("ExtractAll() error = %v, want context.Canceled", err)
	}
}
