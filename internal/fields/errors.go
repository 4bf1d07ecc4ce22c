package fields

import "fmt"

// ValidationError reports a value that fails its field contract.
type ValidationError struct {
	Field   Kind   `json:"field"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Message)
}

func invalid(kind Kind, value, format string, args ...any) *ValidationError {
	return &ValidationError{Field: kind, Value: value, Message: fmt.Sprintf(format, args...)}
}
