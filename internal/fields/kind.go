// Package fields defines the closed set of FIR field kinds and the value
// contract each kind enforces.
//
// Every kind normalizes captured or submitted text into a typed Value. The
// same contract is used by extraction (post-processing rule captures) and by
// the training corpus (validating human corrections), so a value accepted in
// one place is always accepted in the other.
package fields

// Kind identifies a structured FIR field.
type Kind string

const (
	FIRNumber            Kind = "fir_number"
	DateTime             Kind = "date_time"
	District             Kind = "district"
	PoliceStation        Kind = "police_station"
	Year                 Kind = "year"
	InformationType      Kind = "information_type"
	OccurrenceDay        Kind = "occurrence_day"
	OccurrenceDateFrom   Kind = "occurrence_date_from"
	OccurrenceDateTo     Kind = "occurrence_date_to"
	OccurrenceTimeFrom   Kind = "occurrence_time_from"
	OccurrenceTimeTo     Kind = "occurrence_time_to"
	OccurrenceTimePeriod Kind = "occurrence_time_period"
	DirectionFromPS      Kind = "direction_from_ps"
	DistanceFromPS       Kind = "distance_from_ps"
	BeatNumber           Kind = "beat_number"
	ComplainantName      Kind = "complainant_name"
	GuardianName         Kind = "guardian_name"
	DateOfBirth          Kind = "date_of_birth"
	PhoneNumber          Kind = "phone_number"
	UIDNumber            Kind = "uid_number"
	Address              Kind = "address"
	LegalSection         Kind = "legal_section"
	PropertyItem         Kind = "property_item"
	FirstInformation     Kind = "first_information"
	AccusedName          Kind = "accused_name"
	OfficerName          Kind = "officer_name"
	OfficerRank          Kind = "officer_rank"
	OfficerNumber        Kind = "officer_number"
)

// all lists every kind in report order.
var all = []Kind{
	FIRNumber,
	DateTime,
	District,
	PoliceStation,
	Year,
	InformationType,
	OccurrenceDay,
	OccurrenceDateFrom,
	OccurrenceDateTo,
	OccurrenceTimeFrom,
	OccurrenceTimeTo,
	OccurrenceTimePeriod,
	DirectionFromPS,
	DistanceFromPS,
	BeatNumber,
	ComplainantName,
	GuardianName,
	DateOfBirth,
	PhoneNumber,
	UIDNumber,
	Address,
	LegalSection,
	PropertyItem,
	FirstInformation,
	AccusedName,
	OfficerName,
	OfficerRank,
	OfficerNumber,
}

// All returns every known kind in report order.
func All() []Kind {
	out := make([]Kind, len(all))
	copy(out, all)
	return out
}

// Known reports whether k is one of the defined kinds.
func (k Kind) Known() bool {
	switch k {
	case FIRNumber, DateTime, District, PoliceStation, Year, InformationType,
		OccurrenceDay, OccurrenceDateFrom, OccurrenceDateTo, OccurrenceTimeFrom,
		OccurrenceTimeTo, OccurrenceTimePeriod, DirectionFromPS, DistanceFromPS,
		BeatNumber, ComplainantName, GuardianName, DateOfBirth, PhoneNumber,
		UIDNumber, Address, LegalSection, PropertyItem, FirstInformation,
		AccusedName, OfficerName, OfficerRank, OfficerNumber:
		return true
	}
	return false
}

// Multi reports whether a document may carry several values for k.
func (k Kind) Multi() bool {
	switch k {
	case LegalSection, PropertyItem, AccusedName:
		return true
	}
	return false
}

// Order returns the report position of k, or len(All()) for unknown kinds.
func (k Kind) Order() int {
	for i, kk := range all {
		if kk == k {
			return i
		}
	}
	return len(all)
}

// separator joins positional capture groups for kinds whose value is split
// across several groups (e.g. FIR number and registration year).
func (k Kind) separator() string {
	switch k {
	case FIRNumber:
		return "/"
	case LegalSection:
		return ""
	default:
		return " "
	}
}
