// Package metrics records extract, upload and retrain operations and
// summarizes their latency and outcomes.
package metrics

import "time"

// Operation names a recorded operation.
type Operation string

const (
	OpExtract Operation = "extract"
	OpUpload  Operation = "upload"
	OpRetrain Operation = "retrain"
)

// Metric is a single recorded operation. Metrics are append-only.
type Metric struct {
	ID int64 `json:"id,omitempty"`

	Operation Operation `json:"operation"`
	// Provider is the OCR provider for uploads.
	Provider       string `json:"provider,omitempty"`
	RuleSetVersion int    `json:"rule_set_version,omitempty"`

	// Volume
	Pages  int `json:"pages,omitempty"`
	Spans  int `json:"spans,omitempty"`
	Fields int `json:"fields,omitempty"`

	Seconds float64 `json:"seconds"`

	// Status
	Success   bool   `json:"success"`
	ErrorType string `json:"error_type,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// timeLayout is fixed width so created_at sorts and compares as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"
