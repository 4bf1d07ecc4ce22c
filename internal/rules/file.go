package rules

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML rule set. It accepts the same layout Export writes:
//
//	version: 1
//	rules:
//	  - id: fir_number.label
//	    field: fir_number
//	    pattern: 'FIR\s*No\.?\s*(\d+)/(\d{4})'
//	    priority: 100
//	    certainty: 0.95
//
// A missing version is read as 1 and rules without an origin are marked as
// coming from a file.
func LoadFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("malformed YAML in %s: %v", path, err)}
	}
	if m.Version == 0 {
		m.Version = 1
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	for i := range m.Rules {
		if m.Rules[i].Origin == "" {
			m.Rules[i].Origin = OriginFile
		}
	}
	return New(m)
}

// Export writes rs as YAML.
func Export(w io.Writer, rs *RuleSet) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rs.Manifest()); err != nil {
		return fmt.Errorf("failed to encode rule set: %w", err)
	}
	return enc.Close()
}
