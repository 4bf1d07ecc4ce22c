package fields

// Shape returns a regular expression fragment (without capture groups)
// matching the surface forms a value of kind takes in OCR text. Kinds whose
// values are free text have no shape and return "".
func Shape(kind Kind) string {
	switch kind {
	case FIRNumber:
		return `\d{1,6}\s*/\s*\d{4}|\d{1,6}`
	case DateTime:
		return `\d{1,2}[/.-]\d{1,2}[/.-]\d{4}\s*\d{1,2}:\d{2}(?::\d{2})?`
	case OccurrenceDateFrom, OccurrenceDateTo:
		return `\d{1,2}[/.-]\d{1,2}[/.-]\d{4}`
	case OccurrenceTimeFrom, OccurrenceTimeTo:
		return `\d{1,2}:\d{2}(?::\d{2})?`
	case OfficerNumber:
		return `[\p{L}\p{N}/-]*\d[\p{L}\p{N}/-]*`
	case DateOfBirth:
		return `\d{1,2}[/.-]\d{1,2}[/.-]\d{4}|\d{4}`
	case Year:
		return `\d{4}`
	case PhoneNumber:
		return `(?:\+?91[\s-]?)?\d{5}[\s-]?\d{5}`
	case UIDNumber:
		return `\d{4}\s?\d{4}\s?\d{4}`
	case LegalSection:
		return `\d{1,4}[A-Za-z]{0,2}(?:\s*\(\s*\d{1,3}\s*\))*`
	case BeatNumber:
		return `[\p{L}\p{N}/-]{1,20}`
	}
	return ""
}
