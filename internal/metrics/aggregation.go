package metrics

import (
	"context"
	"sort"
)

// Stats summarizes the metrics of one operation.
type Stats struct {
	Count        int `json:"count"`
	SuccessCount int `json:"success_count"`
	ErrorCount   int `json:"error_count"`

	// Volume
	TotalPages  int     `json:"total_pages,omitempty"`
	TotalFields int     `json:"total_fields"`
	AvgFields   float64 `json:"avg_fields"`

	// Latency percentiles (seconds)
	LatencyP50 float64 `json:"latency_p50"`
	LatencyP95 float64 `json:"latency_p95"`
	LatencyP99 float64 `json:"latency_p99"`
	LatencyAvg float64 `json:"latency_avg"`
	LatencyMin float64 `json:"latency_min"`
	LatencyMax float64 `json:"latency_max"`
}

// Summary returns stats per operation for metrics matching the filter.
func (q *Query) Summary(ctx context.Context, f Filter) (map[Operation]*Stats, error) {
	metrics, err := q.List(ctx, f, 0)
	if err != nil {
		return nil, err
	}

	byOp := make(map[Operation][]Metric)
	for _, m := range metrics {
		byOp[m.Operation] = append(byOp[m.Operation], m)
	}

	result := make(map[Operation]*Stats, len(byOp))
	for op, opMetrics := range byOp {
		result[op] = stats(opMetrics)
	}
	return result, nil
}

func stats(metrics []Metric) *Stats {
	s := &Stats{Count: len(metrics)}
	if len(metrics) == 0 {
		return s
	}

	latencies := make([]float64, 0, len(metrics))
	var sum float64
	for _, m := range metrics {
		if m.Success {
			s.SuccessCount++
		} else {
			s.ErrorCount++
		}
		s.TotalPages += m.Pages
		s.TotalFields += m.Fields
		latencies = append(latencies, m.Seconds)
		sum += m.Seconds
	}
	s.AvgFields = float64(s.TotalFields) / float64(s.Count)

	sort.Float64s(latencies)
	s.LatencyMin = latencies[0]
	s.LatencyMax = latencies[len(latencies)-1]
	s.LatencyAvg = sum / float64(len(latencies))
	s.LatencyP50 = percentile(latencies, 50)
	s.LatencyP95 = percentile(latencies, 95)
	s.LatencyP99 = percentile(latencies, 99)
	return s
}

// percentile calculates the p-th percentile from a sorted slice of values.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	idx := (p / 100.0) * float64(len(sorted)-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	// Linear interpolation
	weight := idx - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
