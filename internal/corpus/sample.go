// Package corpus stores human-corrected training samples.
//
// The corpus is an append-only log. Each sample pairs the raw OCR spans of
// one document with the values a reviewer confirmed for it. Every correction
// passes its field contract before it is stored, so the learner never sees a
// value that extraction could not produce.
package corpus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackzampolin/firscan/internal/fields"
	"github.com/jackzampolin/firscan/internal/types"
)

var (
	// ErrNotFound is returned by Get for an unknown sample id.
	ErrNotFound = errors.New("sample not found")
	// ErrInvalidSample is returned for a sample that is malformed apart
	// from its field values.
	ErrInvalidSample = errors.New("invalid sample")
)

// Sample is one stored correction. ID, Seq and CreatedAt are assigned by the
// store.
type Sample struct {
	ID          string                         `json:"id"`
	Seq         int64                          `json:"seq"`
	FileID      string                         `json:"file_id,omitempty"`
	Spans       []types.TextSpan               `json:"spans"`
	Corrections map[fields.Kind][]fields.Value `json:"corrections"`
	CreatedAt   time.Time                      `json:"created_at"`
}

// UnmarshalJSON decodes corrections through their field contracts.
func (s *Sample) UnmarshalJSON(b []byte) error {
	type plain Sample
	var aux struct {
		plain
		Corrections json.RawMessage `json:"corrections"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*s = Sample(aux.plain)
	if len(aux.Corrections) == 0 {
		return nil
	}
	corrections, err := decodeCorrections(aux.Corrections)
	if err != nil {
		return err
	}
	s.Corrections = corrections
	return nil
}

// Snapshot is a consistent read of the corpus up to Seq.
type Snapshot struct {
	Seq     int64    `json:"seq"`
	Samples []Sample `json:"samples"`
}

// Store persists samples. Appends are serialized; reads may run alongside
// them and observe a prefix of the log.
type Store interface {
	Append(ctx context.Context, s Sample) (string, error)
	Count(ctx context.Context) (int, error)
	List(ctx context.Context) ([]Sample, error)
	Get(ctx context.Context, id string) (Sample, error)
	Snapshot(ctx context.Context) (Snapshot, error)
}

// Validate checks s and returns a copy whose corrections are in canonical
// form. The first failing correction, in field report order, is returned as
// a *fields.ValidationError.
func Validate(s Sample) (Sample, error) {
	if len(s.Corrections) == 0 {
		return Sample{}, fmt.Errorf("%w: at least one correction is required", ErrInvalidSample)
	}
	for i, sp := range s.Spans {
		if err := sp.Validate(); err != nil {
			return Sample{}, fmt.Errorf("%w: span %d: %v", ErrInvalidSample, i, err)
		}
	}
	for kind := range s.Corrections {
		if !kind.Known() {
			return Sample{}, &fields.ValidationError{Field: kind, Message: "unknown field"}
		}
	}

	out := s
	out.Spans = append([]types.TextSpan(nil), s.Spans...)
	out.Corrections = make(map[fields.Kind][]fields.Value, len(s.Corrections))
	for _, kind := range fields.All() {
		values, ok := s.Corrections[kind]
		if !ok {
			continue
		}
		if len(values) == 0 {
			return Sample{}, &fields.ValidationError{Field: kind, Message: "no value given"}
		}
		if len(values) > 1 && !kind.Multi() {
			return Sample{}, &fields.ValidationError{Field: kind, Message: "field takes a single value"}
		}
		seen := make(map[string]bool, len(values))
		for _, v := range values {
			nv, err := fields.Check(kind, v)
			if err != nil {
				return Sample{}, err
			}
			if seen[nv.Canonical()] {
				continue
			}
			seen[nv.Canonical()] = true
			out.Corrections[kind] = append(out.Corrections[kind], nv)
		}
	}
	return out, nil
}
