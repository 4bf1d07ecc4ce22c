package rules

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/jackzampolin/firscan/internal/fields"
	"github.com/jackzampolin/firscan/internal/store"
)

func testRule(id string, priority int) Rule {
	return Rule{
		ID:        id,
		Field:     fields.FIRNumber,
		Pattern:   `FIR No\. (\d+)/(\d{4})`,
		Priority:  priority,
		Certainty: 0.9,
	}
}

func TestNew_OrdersByPriorityThenDeclaration(t *testing.T) {
	rs, err := New(Manifest{Version: 1, Rules: []Rule{
		testRule("c", 200),
		testRule("a", 100),
		testRule("d", 200),
		testRule("b", 100),
	}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var got []string
	for _, r := range rs.Rules() {
		got = append(got, r.ID)
	}
	if diff := cmp.Diff([]string{"a", "b", "c", "d"}, got); diff != "" {
		t.Errorf("rule order mismatch (-want +got):\n%s", diff)
	}
}

func TestNew_Rejects(t *testing.T) {
	bad := func(mut func(*Rule)) []Rule {
		r := testRule("r", 100)
		mut(&r)
		return []Rule{r}
	}
	tests := []struct {
		name  string
		rules []Rule
	}{
		{"missing id", bad(func(r *Rule) { r.ID = "" })},
		{"unknown field", bad(func(r *Rule) { r.Field = "shoe_size" })},
		{"zero certainty", bad(func(r *Rule) { r.Certainty = 0 })},
		{"certainty above one", bad(func(r *Rule) { r.Certainty = 1.5 })},
		{"bad pattern", bad(func(r *Rule) { r.Pattern = `FIR (\d+` })},
		{"no capture group", bad(func(r *Rule) { r.Pattern = `FIR \d+` })},
		{"unsupported group", bad(func(r *Rule) { r.Pattern = `FIR (?P<num>\d+)` })},
		{"unsupported default", bad(func(r *Rule) { r.Defaults = map[string]string{"color": "red"} })},
		{"duplicate id", []Rule{testRule("x", 1), testRule("x", 2)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Manifest{Version: 1, Rules: tt.rules})
			var ce *ConfigurationError
			if !errors.As(err, &ce) {
				t.Fatalf("New() error = %v, want *ConfigurationError", err)
			}
		})
	}
}

func TestRuleSet_ExtendLeavesParentUntouched(t *testing.T) {
	base, err := New(Manifest{Version: 1, Rules: []Rule{testRule("a", 100)}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	learned := testRule("learned", 50)
	learned.Pattern = `(?i)FIR\s*No\.?\s*(?P<value>\d+/\d{4})`
	learned.Origin = OriginLearned
	next, err := base.Extend(2, time.Now(), []Rule{learned})
	if err != nil {
		t.Fatalf("Extend() error = %v", err)
	}

	if base.Len() != 1 {
		t.Errorf("parent Len() = %d after Extend, want 1", base.Len())
	}
	if next.Len() != 2 || next.Parent() != 1 || next.Version() != 2 {
		t.Errorf("Extend() = v%d parent %d with %d rules", next.Version(), next.Parent(), next.Len())
	}
	if first, _ := next.Rule(0); first.ID != "learned" {
		t.Errorf("first rule = %s, want learned", first.ID)
	}
	if !next.Has(fields.FIRNumber, learned.Pattern) || base.Has(fields.FIRNumber, learned.Pattern) {
		t.Error("Has() does not reflect the extension")
	}
	if p, ok := next.MinPriority(fields.FIRNumber); !ok || p != 50 {
		t.Errorf("MinPriority() = %d, %v, want 50, true", p, ok)
	}
	if _, ok := next.MinPriority(fields.District); ok {
		t.Error("MinPriority(District) found a rule")
	}
}

func TestRuleSet_RulesReturnsCopies(t *testing.T) {
	r := testRule("a", 1)
	r.Defaults = map[string]string{"value": "x"}
	rs, err := New(Manifest{Version: 1, Rules: []Rule{r}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	r.Defaults["value"] = "changed"
	got := rs.Rules()
	got[0].Defaults["value"] = "mutated"

	if again, _ := rs.Rule(0); again.Defaults["value"] != "x" {
		t.Errorf("rule defaults changed to %q", again.Defaults["value"])
	}
}

func TestActive_Swap(t *testing.T) {
	one, _ := New(Manifest{Version: 1, Rules: []Rule{testRule("a", 1)}})
	two, _ := New(Manifest{Version: 2, Rules: []Rule{testRule("a", 1)}})

	active := NewActive(one)
	held := active.Load()
	if prev := active.Swap(two); prev != one {
		t.Error("Swap() did not return the previous set")
	}
	if active.Load().Version() != 2 {
		t.Errorf("Load().Version() = %d, want 2", active.Load().Version())
	}
	if held.Version() != 1 {
		t.Error("snapshot loaded before Swap changed")
	}
}

func TestBootstrap(t *testing.T) {
	rs := Bootstrap()
	covered := map[fields.Kind]bool{}
	for _, r := range rs.Rules() {
		covered[r.Field] = true
		if r.Origin != OriginBootstrap {
			t.Errorf("rule %s origin = %s", r.ID, r.Origin)
		}
	}
	for _, k := range fields.All() {
		if !covered[k] {
			t.Errorf("no bootstrap rule for %s", k)
		}
	}
}

func TestLoadFileAndExport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	content := `rules:
  - id: fir
    field: fir_number
    pattern: 'FIR No\. (\d+)/(\d{4})'
    priority: 10
    certainty: 0.9
  - id: district
    field: district
    pattern: '(?i)District\s*:\s*(?P<value>\p{L}+)'
    priority: 10
    certainty: 0.8
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write rules: %v", err)
	}

	rs, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if rs.Version() != 1 || rs.Len() != 2 {
		t.Fatalf("LoadFile() = v%d with %d rules", rs.Version(), rs.Len())
	}
	if r, _ := rs.Rule(0); r.Origin != OriginFile {
		t.Errorf("Origin = %q, want %q", r.Origin, OriginFile)
	}

	var buf bytes.Buffer
	if err := Export(&buf, rs); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	out := filepath.Join(dir, "exported.yaml")
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write export: %v", err)
	}
	again, err := LoadFile(out)
	if err != nil {
		t.Fatalf("LoadFile(exported) error = %v", err)
	}
	if diff := cmp.Diff(rs.Rules(), again.Rules()); diff != "" {
		t.Errorf("exported rules mismatch (-want +got):\n%s", diff)
	}

	t.Run("malformed", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.yaml")
		if err := os.WriteFile(bad, []byte("rules: [\n"), 0o644); err != nil {
			t.Fatalf("failed to write rules: %v", err)
		}
		var ce *ConfigurationError
		if _, err := LoadFile(bad); !errors.As(err, &ce) {
			t.Errorf("LoadFile() error = %v, want *ConfigurationError", err)
		}
	})
}

func openRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "firscan.db"), store.Options{})
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRepository(db, nil)
}

func TestRepository(t *testing.T) {
	ctx := context.Background()
	repo := openRepo(t)

	if _, err := repo.ActiveVersion(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ActiveVersion() error = %v, want ErrNotFound", err)
	}

	seed := Bootstrap()
	active, err := repo.LoadActive(ctx, seed)
	if err != nil {
		t.Fatalf("LoadActive() error = %v", err)
	}
	if active.Version() != 1 || active.Len() != seed.Len() {
		t.Fatalf("LoadActive() = v%d with %d rules", active.Version(), active.Len())
	}
	if diff := cmp.Diff(seed.Rules(), active.Rules()); diff != "" {
		t.Errorf("seeded rules mismatch (-want +got):\n%s", diff)
	}

	next, err := repo.NextVersion(ctx)
	if err != nil || next != 2 {
		t.Fatalf("NextVersion() = %d, %v, want 2", next, err)
	}
	r := testRule("learned", 1)
	r.Origin = OriginLearned
	v2, err := active.Extend(next, time.Now(), []Rule{r})
	if err != nil {
		t.Fatalf("Extend() error = %v", err)
	}
	if err := repo.Save(ctx, v2); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := repo.Save(ctx, v2); !errors.Is(err, ErrVersionExists) {
		t.Errorf("Save() twice error = %v, want ErrVersionExists", err)
	}
	if err := repo.Activate(ctx, 2); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}
	if err := repo.Activate(ctx, 9); !errors.Is(err, ErrNotFound) {
		t.Errorf("Activate(9) error = %v, want ErrNotFound", err)
	}

	// A seed is ignored once something is active.
	got, err := repo.LoadActive(ctx, seed)
	if err != nil {
		t.Fatalf("LoadActive() error = %v", err)
	}
	if got.Version() != 2 || got.Parent() != 1 {
		t.Errorf("LoadActive() = v%d parent %d, want v2 parent 1", got.Version(), got.Parent())
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 || list[0].Active || !list[1].Active || list[1].Rules != seed.Len()+1 {
		t.Errorf("List() = %+v", list)
	}

	if _, err := repo.Get(ctx, 7); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(7) error = %v, want ErrNotFound", err)
	}
}
