package metrics

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackzampolin/firscan/internal/store"
)

func newTestRecorder(t *testing.T) (*Recorder, *Query) {
	t.Helper()
	db, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "firscan.db"), store.Options{})
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRecorder(db, nil), NewQuery(db)
}

func TestRecorder_RecordAndList(t *testing.T) {
	ctx := context.Background()
	r, q := newTestRecorder(t)
	base := time.Date(2025, 7, 1, 14, 16, 0, 0, time.UTC)

	records := []Metric{
		{Operation: OpExtract, RuleSetVersion: 1, Spans: 5, Fields: 4, Seconds: 0.01, Success: true, CreatedAt: base},
		{Operation: OpUpload, Provider: "tesseract", Pages: 2, Fields: 3, Seconds: 2.5, Success: true, CreatedAt: base.Add(time.Minute)},
		{Operation: OpUpload, Provider: "tesseract", Seconds: 0.2, ErrorType: "unsupported_format", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, m := range records {
		if _, err := r.Record(ctx, m); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	all, err := q.List(ctx, Filter{}, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("List() = %d metrics, want 3", len(all))
	}
	if all[0].ErrorType != "unsupported_format" || !all[2].CreatedAt.Equal(base) {
		t.Errorf("List() not newest first: %+v", all)
	}

	failed := false
	tests := []struct {
		name   string
		filter Filter
		limit  int
		want   int
	}{
		{"by operation", Filter{Operation: OpUpload}, 0, 2},
		{"errors only", Filter{Success: &failed}, 0, 1},
		{"after", Filter{After: base.Add(30 * time.Second)}, 0, 2},
		{"before", Filter{Before: base.Add(30 * time.Second)}, 0, 1},
		{"limit", Filter{}, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := q.List(ctx, tt.filter, tt.limit)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("List() = %d metrics, want %d", len(got), tt.want)
			}
		})
	}

	if _, err := r.Record(ctx, Metric{}); err == nil {
		t.Error("Record() without operation succeeded")
	}
}

func TestRecorder_Observe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r, q := newTestRecorder(t)
	start := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return start.Add(1500 * time.Millisecond) }

	cancel()
	r.Observe(ctx, Metric{Operation: OpRetrain}, start, errors.New("boom"))

	got, err := q.List(context.Background(), Filter{Operation: OpRetrain}, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("List() = %d metrics, want 1", len(got))
	}
	if got[0].Success || got[0].ErrorType != "error" || got[0].Seconds != 1.5 {
		t.Errorf("observed metric = %+v", got[0])
	}

	var nilRecorder *Recorder
	nilRecorder.Observe(ctx, Metric{Operation: OpExtract}, start, nil)
}

func TestQuery_Summary(t *testing.T) {
	ctx := context.Background()
	r, q := newTestRecorder(t)

	for i, secs := range []float64{1, 2, 3, 4} {
		m := Metric{Operation: OpExtract, Fields: i, Seconds: secs, Success: i != 3}
		if _, err := r.Record(ctx, m); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	summary, err := q.Summary(ctx, Filter{})
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	s := summary[OpExtract]
	if s == nil {
		t.Fatal("no extract stats")
	}
	if s.Count != 4 || s.SuccessCount != 3 || s.ErrorCount != 1 || s.TotalFields != 6 {
		t.Errorf("stats = %+v", s)
	}
	if s.LatencyMin != 1 || s.LatencyMax != 4 || s.LatencyAvg != 2.5 || s.LatencyP50 != 2.5 {
		t.Errorf("latency = min %v max %v avg %v p50 %v", s.LatencyMin, s.LatencyMax, s.LatencyAvg, s.LatencyP50)
	}
	if _, ok := summary[OpUpload]; ok {
		t.Error("summary has upload stats without uploads")
	}
}

func TestPercentile(t *testing.T) {
	tests := []struct {
		values []float64
		p      float64
		want   float64
	}{
		{nil, 50, 0},
		{[]float64{7}, 99, 7},
		{[]float64{1, 2, 3, 4, 5}, 50, 3},
		{[]float64{1, 2, 3, 4, 5}, 100, 5},
		{[]float64{0, 10}, 95, 9.5},
	}
	for _, tt := range tests {
		if got := percentile(tt.values, tt.p); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("percentile(%v, %v) = %v, want %v", tt.values, tt.p, got, tt.want)
		}
	}
}
