package fields

import (
	"encoding/json"
	"time"
)

// Value is a normalized field value. The set of implementations is closed:
// Text, Timestamp, ActSection and Property.
type Value interface {
	// Canonical is the comparison key used for equality and de-duplication.
	Canonical() string
	isValue()
}

// Text is a scalar value stored in its canonical string form.
type Text string

func (t Text) Canonical() string { return string(t) }
func (Text) isValue()            {}

// Timestamp is an absolute point in time. It serializes as RFC 3339 in IST.
type Timestamp struct {
	time.Time
}

func (t Timestamp) Canonical() string { return t.In(IST).Format(time.RFC3339) }
func (Timestamp) isValue()            {}

// MarshalJSON encodes the canonical form.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Canonical())
}

// MarshalYAML encodes the canonical form.
func (t Timestamp) MarshalYAML() (any, error) {
	return t.Canonical(), nil
}

// ActSection is a statute reference: the act name and the section within it.
type ActSection struct {
	Act     string `json:"act" yaml:"act"`
	Section string `json:"section" yaml:"section"`
}

func (a ActSection) Canonical() string { return a.Act + "|" + a.Section }
func (ActSection) isValue()            {}

// Property is an item of property of interest with its value in rupees.
type Property struct {
	Description string `json:"description" yaml:"description"`
	Amount      string `json:"value" yaml:"value"`
}

func (p Property) Canonical() string { return p.Description + "|" + p.Amount }
func (Property) isValue()            {}

// IST is Indian Standard Time. FIR timestamps without an explicit offset are
// read in this zone.
var IST = time.FixedZone("IST", 5*3600+1800)

// DefaultAct is assumed for legal sections that name no act.
const DefaultAct = "भारतीय न्याय संहिता (बी एन एस), 2023"
