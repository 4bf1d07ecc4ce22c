package rules

import (
	"time"

	"github.com/jackzampolin/firscan/internal/fields"
)

// Priority bands for built-in rules. Learned rules are placed below the
// lowest priority of their field, so they always run first.
const (
	PriorityLabel    = 100
	PriorityLabelAlt = 110
	PriorityFallback = 500
	PriorityLoose    = 600
)

// Fragments shared by the built-in text patterns. Captures are lazy and end
// at the next known label or the end of the document.
const (
	sep       = `\s*[:.-]?\s*`
	textValue = `(?P<value>[\p{L}\p{M} .]+?)`
	anyValue  = `(?P<value>.+?)`
	section   = `(?P<section>\d{1,4}[A-Za-z]{0,2}(?:\s*\(\s*\d{1,3}\s*\))*)`
	dateValue = `(?P<value>\d{1,2}[/.-]\d{1,2}[/.-]\d{4})`
	clock     = `(?P<value>\d{1,2}:\d{2}(?::\d{2})?)`
	officerNo = `(?P<value>[\p{L}\p{N}/-]*\d[\p{L}\p{N}/-]*)`
	fromPS    = `\s*(?:from\s*(?:P\.\s?S\.?|Police\s*Station))?`

	labels = `Police|Station|Year|FIR|District|Date|Time|Day|Mobile|Mob|Phone|Address|Father|Husband|DOB|Age|` +
		`UID|Aadhaar|Beat|Section|Accused|Alias|Officer|Rank|Name|Nationality|Type|Property|Value|Complainant|Informant|` +
		`Direction|Distance|Occurrence`
	// stop ends a text value at the next label, a character that cannot be
	// part of a name, or the end of the document.
	stop = `\s*(?:\b(?:` + labels + `)\b|P\.\s?S\.|No\.|जिल्हा|पोलीस|वडील|पत्ता|नाव|आरोपी|$|[^\p{L}\p{M} .])`
	// addressStop ends an address, which may hold digits and punctuation.
	addressStop = `\s*(?:\b(?:Phone|Mobile|Mob|District|State|UID|Aadhaar|Beat|Date|Police)\b|पत्ता|$)`
	// periodStop ends the occurrence time period at the next occurrence label.
	periodStop = `\s*(?:\b(?:Time|Date|Day|Direction|Distance|Beat|Place|Address)\b|$)`
	// placeStop ends direction and distance from the police station.
	placeStop = `\s*(?:\b(?:Direction|Distance|Beat|Address)\b|अंतर|दिशा|पत्ता|$)`
)

func rule(id string, field fields.Kind, priority int, certainty float64, pattern string) Rule {
	return Rule{
		ID:        id,
		Field:     field,
		Pattern:   pattern,
		Priority:  priority,
		Certainty: certainty,
		Origin:    OriginBootstrap,
	}
}

// BootstrapRules returns the built-in rules for every field kind: label
// anchored rules for the printed FIR form, plus low certainty fallbacks for
// when the label itself was misread.
func BootstrapRules() []Rule {
	return []Rule{
		rule("fir_number.label", fields.FIRNumber, PriorityLabel, 0.95,
			`(?i)FIR\s*No\.?\s*:?\s*(\d{1,6})\s*/\s*(\d{4})`),
		rule("fir_number.label_short", fields.FIRNumber, PriorityLabelAlt, 0.85,
			`(?i)FIR\s*No\.?\s*:?\s*(?P<value>\d{1,6})\b`),
		rule("fir_number.loose", fields.FIRNumber, PriorityFallback, 0.5,
			`(?i)FIR.{0,40}?(?P<value>\d{4})`),

		rule("date_time.label", fields.DateTime, PriorityLabel, 0.95,
			`(?i)Date\s*(?:and|&)?\s*Time\s*(?:of\s*FIR)?`+sep+`(?P<value>\d{1,2}[/.-]\d{1,2}[/.-]\d{4}\s*\d{1,2}:\d{2}(?::\d{2})?)`),
		rule("date_time.date_label", fields.DateTime, PriorityLabelAlt, 0.9,
			`(?i)Date`+sep+`(?P<value>\d{1,2}[/.-]\d{1,2}[/.-]\d{4}\s*\d{1,2}:\d{2}(?::\d{2})?)`),
		rule("date_time.loose", fields.DateTime, PriorityFallback, 0.6,
			`(\d{2}/\d{2}/\d{4})\s*(\d{2}:\d{2})`),

		rule("district.label", fields.District, PriorityLabel, 0.9,
			`(?i)(?:District|जिल्हा|जिला)\s*(?:Name)?`+sep+textValue+stop),

		rule("police_station.label", fields.PoliceStation, PriorityLabel, 0.9,
			`(?i)(?:Police\s*Station|P\.\s?S\.|पोलीस\s*ठाणे)\s*(?:Name)?`+sep+textValue+stop),

		rule("year.label", fields.Year, PriorityLabel, 0.95,
			`(?i)(?:\bYear|वर्ष)`+sep+`(?P<value>\d{4})`),

		rule("information_type.label", fields.InformationType, PriorityLabel, 0.95,
			`(?i)(?:Type\s*of\s*Information|माहितीचा\s*प्रकार)`+sep+`(?P<value>Written|Oral|लिखित|मौखिक)`),
		rule("information_type.loose", fields.InformationType, PriorityFallback, 0.6,
			`(?i)(?P<value>लिखित|मौखिक|\bWritten\b|\bOral\b)`),

		rule("occurrence_day.label", fields.OccurrenceDay, PriorityLabel, 0.9,
			`(?i)(?:\bDay\b|दिवस)`+sep+`(?P<value>[\p{L}\p{M}]+)`),

		rule("occurrence_date_from.label", fields.OccurrenceDateFrom, PriorityLabel, 0.9,
			`(?i)(?:Date\s*From|From\s*Date|दिनांक\s*पासून)`+sep+dateValue),
		rule("occurrence_date_from.occurrence", fields.OccurrenceDateFrom, PriorityFallback, 0.6,
			`(?i)Occurrence.{0,80}?`+dateValue),
		rule("occurrence_date_to.label", fields.OccurrenceDateTo, PriorityLabel, 0.9,
			`(?i)(?:Date\s*To|To\s*Date|दिनांक\s*पर्यंत)`+sep+dateValue),
		rule("occurrence_date_to.occurrence", fields.OccurrenceDateTo, PriorityFallback, 0.55,
			`(?i)Occurrence.{0,80}?\d{1,2}[/.-]\d{1,2}[/.-]\d{4}.{0,60}?`+dateValue),

		rule("occurrence_time_from.label", fields.OccurrenceTimeFrom, PriorityLabel, 0.9,
			`(?i)(?:Time\s*From|From\s*Time|वेळ\s*पासून)`+sep+clock),
		rule("occurrence_time_from.occurrence", fields.OccurrenceTimeFrom, PriorityFallback, 0.55,
			`(?i)Occurrence.{0,120}?`+clock),
		rule("occurrence_time_to.label", fields.OccurrenceTimeTo, PriorityLabel, 0.9,
			`(?i)(?:Time\s*To|To\s*Time|वेळ\s*पर्यंत)`+sep+clock),
		rule("occurrence_time_to.occurrence", fields.OccurrenceTimeTo, PriorityFallback, 0.5,
			`(?i)Occurrence.{0,120}?\d{1,2}:\d{2}.{0,60}?`+clock),

		rule("occurrence_time_period.label", fields.OccurrenceTimePeriod, PriorityLabel, 0.85,
			`(?i)(?:Time\s*Period|कालावधी)`+sep+anyValue+periodStop),

		rule("direction_from_ps.label", fields.DirectionFromPS, PriorityLabel, 0.85,
			`(?i)(?:Direction|दिशा)(?:\s*(?:and|&)\s*Distance)?`+fromPS+sep+anyValue+placeStop),
		rule("distance_from_ps.label", fields.DistanceFromPS, PriorityLabel, 0.85,
			`(?i)(?:Distance|अंतर)`+fromPS+sep+anyValue+placeStop),

		rule("beat_number.label", fields.BeatNumber, PriorityLabel, 0.85,
			`(?i)Beat\s*(?:No\.?|Number)?`+sep+`(?P<value>[\p{L}\p{N}/-]{1,20})`),

		rule("complainant_name.label", fields.ComplainantName, PriorityLabel, 0.85,
			`(?i)(?:Complainant|Informant|फिर्यादी)\s*(?:/\s*Informant)?\s*(?:Name|नाव)?`+sep+textValue+stop),
		rule("complainant_name.name", fields.ComplainantName, PriorityFallback, 0.6,
			`(?i)\bName\s*[:.-]\s*`+textValue+stop),

		rule("guardian_name.label", fields.GuardianName, PriorityLabel, 0.85,
			`(?i)(?:Father|Husband|वडील|पती)(?:\s*/\s*(?:Husband|पती))?\s*(?:Name|नाव|चे\s*नाव)?`+sep+textValue+stop),

		rule("date_of_birth.label", fields.DateOfBirth, PriorityLabel, 0.9,
			`(?i)(?:DOB|Date\s*of\s*Birth|Year\s*of\s*Birth|जन्म\s*तारीख)`+sep+`(?P<value>\d{1,2}[/.-]\d{1,2}[/.-]\d{4}|\d{4})`),
		rule("date_of_birth.loose", fields.DateOfBirth, PriorityFallback, 0.5,
			`(?i)(?:DOB|Birth).{0,20}?(?P<value>19\d{2}|200\d|2010)`),

		rule("phone_number.label", fields.PhoneNumber, PriorityLabel, 0.95,
			`(?i)(?:Mobile|Phone|Mob|मोब\.?\s*नं\.?)\s*(?:No\.?|Number)?`+sep+`(?P<value>(?:\+?91[\s-]?)?\d{5}[\s-]?\d{5})`),
		rule("phone_number.loose", fields.PhoneNumber, PriorityFallback, 0.6,
			`\b(?P<value>[6-9]\d{9})\b`),

		rule("uid_number.label", fields.UIDNumber, PriorityLabel, 0.95,
			`(?i)(?:UID|Aadhaar|आधार)\s*(?:No\.?|Number)?`+sep+`(?P<value>\d{4}\s?\d{4}\s?\d{4})`),
		rule("uid_number.loose", fields.UIDNumber, PriorityFallback, 0.6,
			`\b(?P<value>\d{12})\b`),

		rule("address.label", fields.Address, PriorityLabel, 0.8,
			`(?i)(?:Address|पत्ता)`+sep+anyValue+addressStop),

		rule("legal_section.bns", fields.LegalSection, PriorityLabel, 0.9,
			`(?i)(?:Section|कलम|BNS)`+sep+section),
		withDefaults(rule("legal_section.ipc", fields.LegalSection, PriorityLabelAlt, 0.92,
			`(?i)(?:Indian\s*Penal\s*Code|IPC)\s*(?:Section)?`+sep+section),
			map[string]string{"act": "Indian Penal Code, 1860"}),
		rule("legal_section.bare", fields.LegalSection, PriorityLoose, 0.45,
			`\b(?P<section>1\d{2}|[2-4]\d{2}|50\d|51[01])\b`),

		rule("property_item.label", fields.PropertyItem, PriorityLabel, 0.85,
			`(?i)(?:Property|मालमत्ता)\s*(?:Description)?`+sep+`(?P<desc>[\p{L}\p{M} .]+?)\s*(?:Value|Rs\.?|किंमत)`+sep+
				`(?:Rs\.?\s*)?(?P<amount>\d[\d,]*)`),

		rule("first_information.label", fields.FirstInformation, PriorityLabel, 0.85,
			`(?is)(?:First\s*Information\s*Contents|प्रथम\s*खबर(?:\s*अंतर्गत)?)`+sep+`(?P<value>.+?)\s*(?:\bAction\s*Taken\b|$)`),

		rule("accused_name.label", fields.AccusedName, PriorityLabel, 0.85,
			`(?i)(?:Accused|आरोपी)\s*(?:Name|नाव)?`+sep+textValue+stop),

		rule("officer_name.label", fields.OfficerName, PriorityLabel, 0.85,
			`(?i)(?:Officer|अधिकारी)\s*(?:in\s*charge)?\s*(?:Name|नाव)?`+sep+textValue+stop),

		rule("officer_rank.label", fields.OfficerRank, PriorityLabel, 0.85,
			`(?i)(?:\bRank|पद)`+sep+textValue+stop),

		rule("officer_number.label", fields.OfficerNumber, PriorityLabel, 0.85,
			`(?i)(?:Buckle|Belt|Badge|बक्कल)\s*(?:No\.?|Number|नं\.?)`+sep+officerNo),
		rule("officer_number.rank", fields.OfficerNumber, PriorityLabelAlt, 0.8,
			`(?i)\bRank`+sep+`[\p{L}\p{M} .]+?\s*No\.?`+sep+officerNo),
	}
}

func withDefaults(r Rule, defaults map[string]string) Rule {
	r.Defaults = defaults
	return r
}

// Bootstrap returns the built-in rule set as version 1.
func Bootstrap() *RuleSet {
	rs, err := New(Manifest{Version: 1, CreatedAt: time.Now(), Rules: BootstrapRules()})
	if err != nil {
		panic(err)
	}
	return rs
}
