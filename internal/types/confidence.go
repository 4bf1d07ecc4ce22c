package types

// ConfidenceLevel buckets a 0-1 confidence score for display.
type ConfidenceLevel string

const (
	// ConfidenceHigh is a score of at least 0.85.
	ConfidenceHigh ConfidenceLevel = "high"
	// ConfidenceMedium is a score of at least 0.6.
	ConfidenceMedium ConfidenceLevel = "medium"
	// ConfidenceLow is everything else.
	ConfidenceLow ConfidenceLevel = "low"
)

// LevelFor converts a score to a ConfidenceLevel.
func LevelFor(score float64) ConfidenceLevel {
	switch {
	case score >= 0.85:
		return ConfidenceHigh
	case score >= 0.6:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
