package fields

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		kind    Kind
		raw     string
		want    string
		wantErr bool
	}{
		{FIRNumber, "0569/2025", "0569/2025", false},
		{FIRNumber, "0569 / 2025", "0569/2025", false},
		{FIRNumber, "0569", "0569", false},
		{FIRNumber, "FIR", "", true},
		{DateTime, "01/07/2025 14:16", "2025-07-01T14:16:00+05:30", false},
		{DateTime, "01.07.2025 14:16:30", "2025-07-01T14:16:30+05:30", false},
		{DateTime, "01/07/202514:16", "2025-07-01T14:16:00+05:30", false},
		{DateTime, "2025-07-01T08:46:00Z", "2025-07-01T14:16:00+05:30", false},
		{DateTime, "32/13/2025 99:99", "", true},
		{DateTime, "yesterday", "", true},
		{District, " : Pune ,", "Pune", false},
		{District, "P", "", true},
		{ComplainantName, "Ramesh  Patil", "Ramesh Patil", false},
		{ComplainantName, "R4mesh", "", true},
		{ComplainantName, "राम शिंदे", "राम शिंदे", false},
		{Year, "2025", "2025", false},
		{Year, "1900", "", true},
		{DateOfBirth, "1987", "1987", false},
		{DateOfBirth, "05/03/1987", "1987-03-05", false},
		{DateOfBirth, "1850", "", true},
		{PhoneNumber, "+91 98765 43210", "9876543210", false},
		{PhoneNumber, "09876543210", "9876543210", false},
		{PhoneNumber, "12345", "", true},
		{UIDNumber, "1234 5678 9012", "123456789012", false},
		{InformationType, "Written", "लिखित", false},
		{InformationType, "मौखिक", "मौखिक", false},
		{OccurrenceDay, "सोमवार", "Monday", false},
		{OccurrenceDay, "someday", "", true},
		{OccurrenceDateFrom, "12/03/2025", "2025-03-12", false},
		{OccurrenceDateTo, "2025-03-13", "2025-03-13", false},
		{OccurrenceDateFrom, "31/02/2025", "", true},
		{OccurrenceTimeFrom, "9:05", "09:05", false},
		{OccurrenceTimeTo, "22.30 hrs", "22:30", false},
		{OccurrenceTimeTo, "25:00", "", true},
		{OccurrenceTimePeriod, "Night", "Night", false},
		{DirectionFromPS, "North East", "North East", false},
		{DistanceFromPS, "2.5 km", "2.5 km", false},
		{DistanceFromPS, "far", "", true},
		{FirstInformation, "stolen", "", true},
		{OfficerNumber, "PN 4521", "PN4521", false},
		{OfficerNumber, "PI", "", true},
		{BeatNumber, "B-12", "B-12", false},
		{Address, "12 MG Road, Pune", "12 MG Road, Pune", false},
		{LegalSection, "303(2)", DefaultAct + "|303(2)", false},
		{LegalSection, "Arms Act|25", "Arms Act|25", false},
		{LegalSection, "abc", "", true},
		{PropertyItem, "Mobile phone|Rs. 12,000/-", "Mobile phone|12000", false},
		{PropertyItem, "Mobile phone", "", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+tt.raw, func(t *testing.T) {
			v, err := Parse(tt.kind, tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse() = %v, want error", v)
				}
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("Parse() error = %T, want *ValidationError", err)
				}
				if ve.Field != tt.kind {
					t.Errorf("ValidationError.Field = %s, want %s", ve.Field, tt.kind)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got := v.Canonical(); got != tt.want {
				t.Errorf("Parse() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParse_CanonicalIsFixedPoint(t *testing.T) {
	inputs := map[Kind]string{
		FIRNumber:    "0569 / 2025",
		DateTime:     "01/07/2025 14:16",
		PhoneNumber:  "+91 98765 43210",
		DateOfBirth:  "05/03/1987",
		LegalSection: "BNS|115 (2)",
		PropertyItem: "Gold chain|45,000",

		OccurrenceDateFrom: "12.03.2025",
		OccurrenceTimeFrom: "9:05",
		OfficerNumber:      "PN 4521",
	}
	for kind, raw := range inputs {
		v, err := Parse(kind, raw)
		if err != nil {
			t.Fatalf("Parse(%s) error = %v", kind, err)
		}
		again, err := Parse(kind, v.Canonical())
		if err != nil {
			t.Fatalf("Parse(%s, canonical) error = %v", kind, err)
		}
		if again.Canonical() != v.Canonical() {
			t.Errorf("%s: canonical %q reparsed to %q", kind, v.Canonical(), again.Canonical())
		}
	}
}

func TestFromCaptures(t *testing.T) {
	t.Run("positional groups join with kind separator", func(t *testing.T) {
		v, err := FromCaptures(FIRNumber, Captures{Groups: []string{"0569", "2025"}})
		if err != nil {
			t.Fatalf("FromCaptures() error = %v", err)
		}
		if v.Canonical() != "0569/2025" {
			t.Errorf("FromCaptures() = %q, want 0569/2025", v.Canonical())
		}
	})

	t.Run("named value wins over groups", func(t *testing.T) {
		v, err := FromCaptures(District, Captures{
			Named:  map[string]string{"value": "Nashik"},
			Groups: []string{"ignored"},
		})
		if err != nil {
			t.Fatalf("FromCaptures() error = %v", err)
		}
		if v.Canonical() != "Nashik" {
			t.Errorf("FromCaptures() = %q, want Nashik", v.Canonical())
		}
	})

	t.Run("legal section act and section", func(t *testing.T) {
		v, err := FromCaptures(LegalSection, Captures{Named: map[string]string{"act": "Arms Act", "section": "25 (1)"}})
		if err != nil {
			t.Fatalf("FromCaptures() error = %v", err)
		}
		want := ActSection{Act: "Arms Act", Section: "25(1)"}
		if v != want {
			t.Errorf("FromCaptures() = %#v, want %#v", v, want)
		}
	})

	t.Run("property from groups", func(t *testing.T) {
		v, err := FromCaptures(PropertyItem, Captures{Groups: []string{"Bicycle", "3,500"}})
		if err != nil {
			t.Fatalf("FromCaptures() error = %v", err)
		}
		if v.Canonical() != "Bicycle|3500" {
			t.Errorf("FromCaptures() = %q, want Bicycle|3500", v.Canonical())
		}
	})
}

func TestDecode(t *testing.T) {
	t.Run("string", func(t *testing.T) {
		v, err := Decode(DateTime, json.RawMessage(`"01/07/2025 14:16"`))
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if _, ok := v.(Timestamp); !ok {
			t.Errorf("Decode() = %T, want Timestamp", v)
		}
	})

	t.Run("number for year", func(t *testing.T) {
		v, err := Decode(Year, json.RawMessage(`2025`))
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if v.Canonical() != "2025" {
			t.Errorf("Decode() = %q, want 2025", v.Canonical())
		}
	})

	t.Run("legal section object", func(t *testing.T) {
		v, err := Decode(LegalSection, json.RawMessage(`{"act":"BNS","section":"303(2)"}`))
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if v.Canonical() != "BNS|303(2)" {
			t.Errorf("Decode() = %q", v.Canonical())
		}
	})

	t.Run("unparseable date time names the field", func(t *testing.T) {
		_, err := Decode(DateTime, json.RawMessage(`"sometime last week"`))
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("Decode() error = %v, want *ValidationError", err)
		}
		if ve.Field != DateTime {
			t.Errorf("Field = %s, want %s", ve.Field, DateTime)
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		if _, err := Decode(Kind("shoe_size"), json.RawMessage(`"9"`)); err == nil {
			t.Error("Decode() error = nil, want error for unknown field")
		}
	})

	t.Run("object for scalar kind", func(t *testing.T) {
		if _, err := Decode(District, json.RawMessage(`{"x":1}`)); err == nil {
			t.Error("Decode() error = nil, want error")
		}
	})
}

func TestCheck(t *testing.T) {
	if _, err := Check(DateTime, Text("not a date")); err == nil {
		t.Error("Check(DateTime, garbage) error = nil, want error")
	}
	if _, err := Check(District, ActSection{Section: "1"}); err == nil {
		t.Error("Check(District, ActSection) error = nil, want error")
	}
	if _, err := Check(DateTime, Timestamp{}); err == nil {
		t.Error("Check(DateTime, zero) error = nil, want error")
	}
	v, err := Check(PhoneNumber, Text("98765-43210"))
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if v.Canonical() != "9876543210" {
		t.Errorf("Check() = %q, want normalized digits", v.Canonical())
	}
}

func TestKind(t *testing.T) {
	for _, k := range All() {
		if !k.Known() {
			t.Errorf("%s.Known() = false", k)
		}
	}
	if Kind("nope").Known() {
		t.Error(`Kind("nope").Known() = true`)
	}
	if !LegalSection.Multi() || FIRNumber.Multi() {
		t.Error("Multi() mismatch for legal_section or fir_number")
	}
	if FIRNumber.Order() != 0 {
		t.Errorf("FIRNumber.Order() = %d, want 0", FIRNumber.Order())
	}
}

func TestTimestamp_MarshalJSON(t *testing.T) {
	v, err := Parse(DateTime, "01/07/2025 14:16")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(b) != `"2025-07-01T14:16:00+05:30"` {
		t.Errorf("Marshal() = %s", b)
	}
}
