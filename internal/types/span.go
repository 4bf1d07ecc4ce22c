// Package types provides shared types used across multiple packages.
// This package has no dependencies on other firscan packages to avoid import cycles.
package types

import (
	"fmt"
	"math"
)

// BBox is an axis-aligned bounding region in page pixel coordinates:
// left, top, right, bottom.
type BBox [4]float64

// Position locates a span on a scanned page. Pages are 1-indexed.
type Position struct {
	Page int  `json:"page"`
	BBox BBox `json:"bbox"`
}

// TextSpan is one unit of OCR output as produced by an OCR provider.
type TextSpan struct {
	Text       string   `json:"text"`
	Confidence float64  `json:"confidence"`
	Position   Position `json:"position"`
}

// Validate reports whether the span's confidence is a usable probability.
func (s TextSpan) Validate() error {
	if math.IsNaN(s.Confidence) || s.Confidence < 0 || s.Confidence > 1 {
		return fmt.Errorf("span confidence %v outside [0,1]", s.Confidence)
	}
	return nil
}
