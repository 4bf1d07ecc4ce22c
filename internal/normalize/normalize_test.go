package normalize

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jackzampolin/firscan/internal/types"
)

func TestNormalizeText(t *testing.T) {
	n := New(DefaultTable())

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"digits", "FIR No. ०५६९/२०२५", "FIR No. 0569/2025"},
		{"label fix", "FlR No. 12", "FIR No. 12"},
		{"noise stripped", "Police@ Station# : Kothrud", "Police Station : Kothrud"},
		{"whitespace collapsed", "  Date:\t01/07/2025   14:16 ", "Date: 01/07/2025 14:16"},
		{"devanagari marks kept", "फिर्यादी नाव : राम", "फिर्यादी नाव : राम"},
		{"longest match first", "Distrlct", "District"},
		{"only noise", "@@##", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.NormalizeText(tt.in); got != tt.want {
				t.Errorf("NormalizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeText_Idempotent(t *testing.T) {
	n := New(DefaultTable())
	inputs := []string{
		"FlR N० ०५६९/२०२५ Distrlct: Pune",
		"Adress :: 12, MG Road $$ Pollce Statlon Kothrud",
		"Complainent Name: Ariédt Mobiie 9876543210",
		"fAreatearan galetaR caleit VoSITENs",
		"",
		"   ",
	}
	for _, in := range inputs {
		once := n.NormalizeText(in)
		twice := n.NormalizeText(once)
		if once != twice {
			t.Errorf("NormalizeText not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNormalize_Document(t *testing.T) {
	n := New(DefaultTable())
	spans := []types.TextSpan{
		{Text: "FlR No.", Confidence: 0.9, Position: types.Position{Page: 1}},
		{Text: "%%", Confidence: 0.2},
		{Text: "०५६९/२०२५", Confidence: 0.8, Position: types.Position{Page: 1, BBox: types.BBox{1, 2, 3, 4}}},
	}
	doc := n.Normalize(spans)

	want := Document{Spans: []Span{
		{Text: "FIR No.", Source: spans[0]},
		{Text: "0569/2025", Source: spans[2]},
	}}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
	}
	if doc.Text() != "FIR No. 0569/2025" {
		t.Errorf("Text() = %q", doc.Text())
	}
	if spans[0].Text != "FlR No." {
		t.Error("Normalize() mutated its input")
	}
}

func TestNewTable_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		entries map[string]string
	}{
		{"empty key", map[string]string{"": "x"}},
		{"empty replacement", map[string]string{"ab": ""}},
		{"identity", map[string]string{"ab": "ab"}},
		{"noise in key", map[string]string{"a@b": "ab"}},
		{"double space", map[string]string{"a  b": "ab"}},
		{"key inside replacement", map[string]string{"No": "Nos"}},
		{"replacement inside key", map[string]string{"N0.": "0", "०": "0"}},
		{"straddles replacement edge", map[string]string{"FlR": "FIR", "FIR N0.": "FIR No."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(tt.entries)
			var ce *ConfigurationError
			if !errors.As(err, &ce) {
				t.Fatalf("NewTable() error = %v, want *ConfigurationError", err)
			}
		})
	}
}

func TestDefaultTable(t *testing.T) {
	table := DefaultTable()
	if table.Len() != len(DefaultSubstitutions()) {
		t.Errorf("Len() = %d, want %d", table.Len(), len(DefaultSubstitutions()))
	}
}

func TestLoadTable(t *testing.T) {
	dir := t.TempDir()

	t.Run("merges over defaults", func(t *testing.T) {
		path := filepath.Join(dir, "merge.yaml")
		content := "substitutions:\n  \"Nagpr\": \"Nagpur\"\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write table: %v", err)
		}
		table, err := LoadTable(path)
		if err != nil {
			t.Fatalf("LoadTable() error = %v", err)
		}
		if got := table.Apply("Nagpr FlR"); got != "Nagpur FIR" {
			t.Errorf("Apply() = %q, want %q", got, "Nagpur FIR")
		}
	})

	t.Run("replace defaults", func(t *testing.T) {
		path := filepath.Join(dir, "replace.yaml")
		content := "replace_defaults: true\nsubstitutions:\n  \"Nagpr\": \"Nagpur\"\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write table: %v", err)
		}
		table, err := LoadTable(path)
		if err != nil {
			t.Fatalf("LoadTable() error = %v", err)
		}
		if table.Len() != 1 {
			t.Errorf("Len() = %d, want 1", table.Len())
		}
	})

	t.Run("malformed table is a configuration error", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		content := "substitutions:\n  \"No\": \"Nos\"\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write table: %v", err)
		}
		_, err := LoadTable(path)
		var ce *ConfigurationError
		if !errors.As(err, &ce) {
			t.Fatalf("LoadTable() error = %v, want *ConfigurationError", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadTable(filepath.Join(dir, "nope.yaml")); err == nil {
			t.Error("LoadTable() error = nil, want error")
		}
	})
}
