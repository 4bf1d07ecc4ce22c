package fields

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Captures is the text a rule captured from a match. Named holds named
// groups; Groups holds the unnamed positional groups in order.
type Captures struct {
	Named  map[string]string
	Groups []string
}

func (c Captures) named(name string) string {
	return strings.TrimSpace(c.Named[name])
}

func (c Captures) joined(sep string) string {
	parts := make([]string, 0, len(c.Groups))
	for _, g := range c.Groups {
		if g = strings.TrimSpace(g); g != "" {
			parts = append(parts, g)
		}
	}
	return strings.Join(parts, sep)
}

// FromCaptures assembles rule captures into a typed value for kind.
//
// Recognized group names are "value" for scalar kinds, "act" and "section"
// for legal sections, and "desc" and "amount" for property items. Without
// named groups the positional groups are joined with the kind's separator.
func FromCaptures(kind Kind, c Captures) (Value, error) {
	switch kind {
	case LegalSection:
		section := c.named("section")
		if section == "" {
			section = c.named("value")
		}
		if section == "" {
			section = c.joined("")
		}
		return parseSection(c.named("act"), section)
	case PropertyItem:
		desc, amount := c.named("desc"), c.named("amount")
		if amount == "" {
			amount = c.named("value")
		}
		if desc == "" && amount == "" && len(c.Groups) >= 2 {
			desc, amount = c.Groups[0], c.Groups[1]
		}
		return parseProperty(desc, amount)
	}

	raw := c.named("value")
	if raw == "" {
		raw = c.joined(kind.separator())
	}
	return Parse(kind, raw)
}

// Decode parses a JSON-encoded correction for kind. Scalars are JSON strings
// (numbers are accepted for numeric kinds); legal sections and property items
// may also be objects.
func Decode(kind Kind, raw json.RawMessage) (Value, error) {
	if !kind.Known() {
		return nil, invalid(kind, "", "unknown field")
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, invalid(kind, "", "value is required")
	}

	if raw[0] == '{' {
		switch kind {
		case LegalSection:
			var a ActSection
			if err := json.Unmarshal(raw, &a); err != nil {
				return nil, invalid(kind, string(raw), "malformed object: %v", err)
			}
			return parseSection(a.Act, a.Section)
		case PropertyItem:
			var p Property
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, invalid(kind, string(raw), "malformed object: %v", err)
			}
			return parseProperty(p.Description, p.Amount)
		default:
			return nil, invalid(kind, string(raw), "expected a string")
		}
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, invalid(kind, string(raw), "expected a string")
		}
		s = n.String()
	}
	return Parse(kind, s)
}

// Check validates a value supplied directly (not parsed from text) against
// kind's contract and returns its normalized form.
func Check(kind Kind, v Value) (Value, error) {
	if !kind.Known() {
		return nil, invalid(kind, "", "unknown field")
	}
	switch val := v.(type) {
	case nil:
		return nil, invalid(kind, "", "value is required")
	case Text:
		return Parse(kind, string(val))
	case Timestamp:
		if kind != DateTime {
			return nil, invalid(kind, val.Canonical(), "timestamp given for non-timestamp field")
		}
		if val.IsZero() {
			return nil, invalid(kind, "", "timestamp is zero")
		}
		return Timestamp{val.In(IST)}, nil
	case ActSection:
		if kind != LegalSection {
			return nil, invalid(kind, val.Canonical(), "legal section given for %s", kind)
		}
		return parseSection(val.Act, val.Section)
	case Property:
		if kind != PropertyItem {
			return nil, invalid(kind, val.Canonical(), "property item given for %s", kind)
		}
		return parseProperty(val.Description, val.Amount)
	default:
		return nil, invalid(kind, "", "unsupported value type %T", v)
	}
}

// Parse normalizes raw text into kind's typed value.
func Parse(kind Kind, raw string) (Value, error) {
	s := collapse(raw)
	switch kind {
	case FIRNumber:
		return parseFIRNumber(s)
	case DateTime:
		return parseDateTime(s)
	case District, PoliceStation:
		return parseText(kind, s, 3, 50, false)
	case ComplainantName, GuardianName, AccusedName, OfficerName:
		return parseText(kind, s, 3, 100, true)
	case OfficerRank:
		return parseText(kind, s, 2, 50, true)
	case Address:
		return parseText(kind, s, 6, 200, false)
	case Year:
		return parseYear(s)
	case InformationType:
		return parseInformationType(s)
	case OccurrenceDay:
		return parseDay(s)
	case OccurrenceDateFrom, OccurrenceDateTo:
		return parseDate(kind, s)
	case OccurrenceTimeFrom, OccurrenceTimeTo:
		return parseClock(kind, s)
	case OccurrenceTimePeriod:
		return parseText(kind, s, 2, 49, false)
	case DirectionFromPS:
		return parseText(kind, s, 3, 99, false)
	case DistanceFromPS:
		return parseDistance(s)
	case FirstInformation:
		return parseText(kind, s, 10, 10000, false)
	case OfficerNumber:
		return parseOfficerNumber(s)
	case BeatNumber:
		return parseBeat(s)
	case DateOfBirth:
		return parseDateOfBirth(s)
	case PhoneNumber:
		return parsePhone(s)
	case UIDNumber:
		return parseUID(s)
	case LegalSection:
		act, section, found := strings.Cut(s, "|")
		if !found {
			return parseSection("", s)
		}
		return parseSection(act, section)
	case PropertyItem:
		desc, amount, found := strings.Cut(s, "|")
		if !found {
			return nil, invalid(kind, raw, `expected "description|value"`)
		}
		return parseProperty(desc, amount)
	default:
		return nil, invalid(kind, raw, "unknown field")
	}
}

// collapse folds whitespace runs and trims label punctuation from the edges.
func collapse(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.Trim(s, " :;,-")
}

var firNumberRe = regexp.MustCompile(`^(\d{1,6})(?:/(\d{4}))?$`)

func parseFIRNumber(s string) (Value, error) {
	compact := strings.ReplaceAll(s, " ", "")
	m := firNumberRe.FindStringSubmatch(compact)
	if m == nil {
		return nil, invalid(FIRNumber, s, "expected digits with optional /YYYY")
	}
	if m[2] == "" {
		return Text(m[1]), nil
	}
	return Text(m[1] + "/" + m[2]), nil
}

var (
	dateTimeRe = regexp.MustCompile(`^(\d{1,2})[/.-](\d{1,2})[/.-](\d{4})\s*(?:at\s*)?(\d{1,2}:\d{2}(?::\d{2})?)$`)
	dateRe     = regexp.MustCompile(`^(\d{1,2})[/.-](\d{1,2})[/.-](\d{4})$`)
)

var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

func parseDateTime(s string) (Value, error) {
	if m := dateTimeRe.FindStringSubmatch(s); m != nil {
		clock := m[4]
		layout := "2/1/2006 15:04"
		if strings.Count(clock, ":") == 2 {
			layout = "2/1/2006 15:04:05"
		}
		t, err := time.ParseInLocation(layout, m[1]+"/"+m[2]+"/"+m[3]+" "+clock, IST)
		if err != nil {
			return nil, invalid(DateTime, s, "not a valid date and time")
		}
		return Timestamp{t}, nil
	}
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, s, IST); err == nil {
			return Timestamp{t.In(IST)}, nil
		}
	}
	return nil, invalid(DateTime, s, "expected DD/MM/YYYY HH:MM or ISO 8601")
}

func parseText(kind Kind, s string, minLen, maxLen int, noDigits bool) (Value, error) {
	n := utf8.RuneCountInString(s)
	if n < minLen || n > maxLen {
		return nil, invalid(kind, s, "length %d outside %d-%d", n, minLen, maxLen)
	}
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
		}
		if noDigits && unicode.IsDigit(r) {
			return nil, invalid(kind, s, "must not contain digits")
		}
	}
	if !hasLetter {
		return nil, invalid(kind, s, "must contain a letter")
	}
	return Text(s), nil
}

func parseYear(s string) (Value, error) {
	y, err := strconv.Atoi(s)
	if err != nil || len(s) != 4 {
		return nil, invalid(Year, s, "expected a four digit year")
	}
	if y < 1950 || y > 2100 {
		return nil, invalid(Year, s, "year outside 1950-2100")
	}
	return Text(s), nil
}

func parseInformationType(s string) (Value, error) {
	switch strings.ToLower(s) {
	case "लिखित", "written":
		return Text("लिखित"), nil
	case "मौखिक", "oral":
		return Text("मौखिक"), nil
	}
	return nil, invalid(InformationType, s, "expected written (लिखित) or oral (मौखिक)")
}

var dayNames = map[string]string{
	"monday":    "Monday",
	"tuesday":   "Tuesday",
	"wednesday": "Wednesday",
	"thursday":  "Thursday",
	"friday":    "Friday",
	"saturday":  "Saturday",
	"sunday":    "Sunday",
	"सोमवार":    "Monday",
	"मंगळवार":   "Tuesday",
	"मंगलवार":   "Tuesday",
	"बुधवार":    "Wednesday",
	"गुरुवार":   "Thursday",
	"शुक्रवार":  "Friday",
	"शनिवार":    "Saturday",
	"रविवार":    "Sunday",
}

func parseDay(s string) (Value, error) {
	if d, ok := dayNames[strings.ToLower(s)]; ok {
		return Text(d), nil
	}
	return nil, invalid(OccurrenceDay, s, "not a day of the week")
}

var beatRe = regexp.MustCompile(`^[\p{L}\p{N}/-]{1,20}$`)

func parseBeat(s string) (Value, error) {
	compact := strings.ReplaceAll(s, " ", "")
	if !beatRe.MatchString(compact) {
		return nil, invalid(BeatNumber, s, "expected a short alphanumeric beat identifier")
	}
	return Text(compact), nil
}

func parseDateOfBirth(s string) (Value, error) {
	now := time.Now().In(IST)
	if len(s) == 4 {
		y, err := strconv.Atoi(s)
		if err != nil || y < 1900 || y > now.Year() {
			return nil, invalid(DateOfBirth, s, "birth year outside 1900-%d", now.Year())
		}
		return Text(s), nil
	}

	var t time.Time
	var err error
	if m := dateRe.FindStringSubmatch(s); m != nil {
		t, err = time.ParseInLocation("2/1/2006", m[1]+"/"+m[2]+"/"+m[3], IST)
	} else {
		t, err = time.ParseInLocation("2006-01-02", s, IST)
	}
	if err != nil {
		return nil, invalid(DateOfBirth, s, "expected YYYY, DD/MM/YYYY or YYYY-MM-DD")
	}
	if t.Year() < 1900 || t.After(now) {
		return nil, invalid(DateOfBirth, s, "birth date out of range")
	}
	return Text(t.Format("2006-01-02")), nil
}

// parseDate accepts DD/MM/YYYY (any of / . - as separator) or YYYY-MM-DD
// and normalizes to YYYY-MM-DD.
func parseDate(kind Kind, s string) (Value, error) {
	var t time.Time
	var err error
	if m := dateRe.FindStringSubmatch(s); m != nil {
		t, err = time.ParseInLocation("2/1/2006", m[1]+"/"+m[2]+"/"+m[3], IST)
	} else {
		t, err = time.ParseInLocation("2006-01-02", s, IST)
	}
	if err != nil {
		return nil, invalid(kind, s, "expected DD/MM/YYYY or YYYY-MM-DD")
	}
	if y := t.Year(); y < 1950 || y > 2100 {
		return nil, invalid(kind, s, "year outside 1950-2100")
	}
	return Text(t.Format("2006-01-02")), nil
}

var clockRe = regexp.MustCompile(`^(\d{1,2})[:.](\d{2})(?:[:.](\d{2}))?(?:\s*(?:hrs?|hours|वाजता))?$`)

// parseClock normalizes a wall clock time to HH:MM, or HH:MM:SS when
// seconds were given.
func parseClock(kind Kind, s string) (Value, error) {
	m := clockRe.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return nil, invalid(kind, s, "expected HH:MM")
	}
	h, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	if h > 23 || mins > 59 {
		return nil, invalid(kind, s, "not a valid time of day")
	}
	if m[3] == "" {
		return Text(fmt.Sprintf("%02d:%02d", h, mins)), nil
	}
	sec, _ := strconv.Atoi(m[3])
	if sec > 59 {
		return nil, invalid(kind, s, "not a valid time of day")
	}
	return Text(fmt.Sprintf("%02d:%02d:%02d", h, mins, sec)), nil
}

// parseDistance keeps the distance as written but requires a number in it.
func parseDistance(s string) (Value, error) {
	n := utf8.RuneCountInString(s)
	if n < 2 || n > 49 {
		return nil, invalid(DistanceFromPS, s, "length %d outside 2-49", n)
	}
	if !strings.ContainsFunc(s, unicode.IsDigit) {
		return nil, invalid(DistanceFromPS, s, "expected a number")
	}
	return Text(s), nil
}

var officerNumberRe = regexp.MustCompile(`^[\p{L}\p{N}/-]{1,19}$`)

func parseOfficerNumber(s string) (Value, error) {
	compact := strings.ReplaceAll(s, " ", "")
	if !officerNumberRe.MatchString(compact) || !strings.ContainsFunc(compact, unicode.IsDigit) {
		return nil, invalid(OfficerNumber, s, "expected a short identifier with digits")
	}
	return Text(compact), nil
}

var digitsOnly = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")

func parsePhone(s string) (Value, error) {
	d := digitsOnly.Replace(s)
	d = strings.TrimPrefix(d, "+")
	switch {
	case len(d) == 12 && strings.HasPrefix(d, "91"):
		d = d[2:]
	case len(d) == 11 && strings.HasPrefix(d, "0"):
		d = d[1:]
	}
	if len(d) != 10 || !allDigits(d) {
		return nil, invalid(PhoneNumber, s, "expected a 10 digit number")
	}
	return Text(d), nil
}

func parseUID(s string) (Value, error) {
	d := digitsOnly.Replace(s)
	if len(d) != 12 || !allDigits(d) {
		return nil, invalid(UIDNumber, s, "expected a 12 digit number")
	}
	return Text(d), nil
}

var sectionRe = regexp.MustCompile(`^\d{1,4}[A-Z]{0,2}(?:\(\d{1,3}\))*$`)

func parseSection(act, section string) (Value, error) {
	act = collapse(act)
	if act == "" {
		act = DefaultAct
	}
	sec := strings.ToUpper(strings.ReplaceAll(section, " ", ""))
	sec = strings.Trim(sec, ",;:.-")
	if !sectionRe.MatchString(sec) {
		return nil, invalid(LegalSection, section, "expected a section number such as 303 or 115(2)")
	}
	return ActSection{Act: act, Section: sec}, nil
}

var amountCleaner = strings.NewReplacer("Rs.", "", "Rs", "", "rs.", "", "₹", "", "रु.", "", "रु", "", ",", "", " ", "", "/-", "")

func parseProperty(desc, amount string) (Value, error) {
	desc = collapse(desc)
	if n := utf8.RuneCountInString(desc); n < 2 || n > 200 {
		return nil, invalid(PropertyItem, desc, "description length %d outside 2-200", n)
	}
	a := amountCleaner.Replace(amount)
	a = strings.TrimRight(a, "./-")
	if a == "" || len(a) > 12 || !allDigits(a) {
		return nil, invalid(PropertyItem, amount, "expected a rupee amount")
	}
	a = strings.TrimLeft(a, "0")
	if a == "" {
		a = "0"
	}
	return Property{Description: desc, Amount: a}, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
