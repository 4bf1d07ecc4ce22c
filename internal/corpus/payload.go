package corpus

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/jackzampolin/firscan/internal/fields"
	"github.com/jackzampolin/firscan/internal/types"
)

//go:embed sample.schema.json
var sampleSchema []byte

// ErrInvalidPayload wraps schema violations in a submission body.
var ErrInvalidPayload = errors.New("invalid sample payload")

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("sample.schema.json", bytes.NewReader(sampleSchema)); err != nil {
		return nil, fmt.Errorf("failed to load sample schema: %w", err)
	}
	return compiler.Compile("sample.schema.json")
})

// Submission is the wire form of a new training sample. A correction is a
// single JSON value or, for multi-valued fields, an array of them.
type Submission struct {
	FileID      string                          `json:"file_id,omitempty"`
	Spans       []types.TextSpan                `json:"spans"`
	Corrections map[fields.Kind]json.RawMessage `json:"corrections"`
}

// ValidatePayload checks a raw submission body against the sample schema.
func ValidatePayload(raw []byte) error {
	schema, err := compileSchema()
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

// DecodeSubmission validates raw and decodes it into a Sample. Corrections
// are parsed by their field contracts; the first failure, in field report
// order, is returned as a *fields.ValidationError.
func DecodeSubmission(raw []byte) (Sample, error) {
	if err := ValidatePayload(raw); err != nil {
		return Sample{}, err
	}
	var sub Submission
	if err := json.Unmarshal(raw, &sub); err != nil {
		return Sample{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	s := Sample{
		FileID:      sub.FileID,
		Spans:       sub.Spans,
		Corrections: make(map[fields.Kind][]fields.Value, len(sub.Corrections)),
	}
	for _, kind := range fields.All() {
		rv, ok := sub.Corrections[kind]
		if !ok {
			continue
		}
		values, err := decodeValues(kind, rv)
		if err != nil {
			return Sample{}, err
		}
		s.Corrections[kind] = values
	}
	return s, nil
}

func decodeValues(kind fields.Kind, raw json.RawMessage) ([]fields.Value, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		v, err := fields.Decode(kind, raw)
		if err != nil {
			return nil, err
		}
		return []fields.Value{v}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &fields.ValidationError{Field: kind, Message: fmt.Sprintf("malformed list: %v", err)}
	}
	out := make([]fields.Value, 0, len(items))
	for _, item := range items {
		v, err := fields.Decode(kind, item)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
