package indicator

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownFamily = errors.New("unknown indicator family")
	ErrInvalidFilter = errors.New("invalid filter")
	ErrNotFound      = errors.New("not found")
)

// Family identifies one indicator (a cohort plus its rules).
type Family string

const (
	FamilyInfant       Family = "infant"
	FamilyPregnancy    Family = "pregnancy"
	FamilyDiabetes     Family = "diabetes"
	FamilyHypertension Family = "hypertension"
	FamilyElderly      Family = "elderly"
	FamilyWomen        Family = "women"
	FamilyAccess       Family = "access"
	FamilyDental       Family = "dental"
)

// NoTeam groups people without a linked care team.
const NoTeam = "Sem Equipe"

// Person is a registered citizen as seen by the indicator engine. Key is the
// citizen's fact-table key, which all clinical events reference.
type Person struct {
	Key       int64     `json:"id"`
	Name      string    `json:"name"`
	CPF       string    `json:"cpf,omitempty"`
	CNS       string    `json:"cns,omitempty"`
	BirthDate time.Time `json:"birth_date"`
	Sex       string    `json:"sex,omitempty"`
	Active    bool      `json:"active"`
	Deceased  bool      `json:"deceased"`
	TeamName  string    `json:"team"`
	TeamCode  string    `json:"team_code,omitempty"`
	Subarea   string    `json:"subarea,omitempty"`
}

// Member is a Person selected into a cohort. Anchor is the per-person date
// windows are measured from: birth date, last gestation record or first
// diagnosis, depending on the family.
type Member struct {
	Person
	Anchor time.Time `json:"anchor"`
}

// Team returns the display team, falling back to NoTeam.
func (m Member) Team() string {
	if m.TeamName == "" {
		return NoTeam
	}
	return m.TeamName
}

type EventKind string

const (
	KindConsultation EventKind = "consultation"
	KindHomeVisit    EventKind = "home_visit"
	KindVaccination  EventKind = "vaccination"
	KindProcedure    EventKind = "procedure"
	KindDentalVisit  EventKind = "dental_visit"
)

// EventKinds lists every kind in fetch order.
var EventKinds = []EventKind{KindConsultation, KindHomeVisit, KindVaccination, KindProcedure, KindDentalVisit}

// Event is one clinical record. Which fields are meaningful depends on Kind:
// consultations and home visits carry measurements, consultations also carry
// diagnoses, gestational age and care type, vaccinations and procedures
// carry a pipe-delimited code list in Codes.
type Event struct {
	Person           int64     `json:"person"`
	Kind             EventKind `json:"kind"`
	Date             time.Time `json:"date"`
	RoleCode         string    `json:"role_code,omitempty"`
	Team             string    `json:"team,omitempty"`
	Systolic         float64   `json:"systolic,omitempty"`
	Weight           float64   `json:"weight,omitempty"`
	Height           float64   `json:"height,omitempty"`
	GestationalWeeks int       `json:"gestational_weeks,omitempty"`
	Diagnoses        string    `json:"diagnoses,omitempty"`
	CareType         string    `json:"care_type,omitempty"`
	Codes            string    `json:"codes,omitempty"`
	Dose             string    `json:"dose,omitempty"`
}

// Measured reports whether the event records both weight and height.
func (e Event) Measured() bool { return e.Weight > 0 && e.Height > 0 }

type Outcome int

const (
	No Outcome = iota
	Yes
	NotApplicable
)

func (o Outcome) String() string {
	switch o {
	case Yes:
		return "yes"
	case NotApplicable:
		return "not_applicable"
	default:
		return "no"
	}
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

func (o *Outcome) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "yes":
		*o = Yes
	case "no":
		*o = No
	case "not_applicable":
		*o = NotApplicable
	default:
		return fmt.Errorf("unknown outcome %q", s)
	}
	return nil
}

// RuleResult is one rule's outcome for one person. Detail carries progress
// such as "4/6" when the rule is not met.
type RuleResult struct {
	Outcome Outcome `json:"outcome"`
	Detail  string  `json:"detail,omitempty"`
}

func yes() RuleResult           { return RuleResult{Outcome: Yes} }
func notApplicable() RuleResult { return RuleResult{Outcome: NotApplicable} }

func outcomeOf(ok bool) RuleResult {
	if ok {
		return yes()
	}
	return RuleResult{Outcome: No}
}

// progress is Yes when have >= need, otherwise No with "have/need".
func progress(have, need int) RuleResult {
	if have >= need {
		return yes()
	}
	return RuleResult{Outcome: No, Detail: fmt.Sprintf("%d/%d", have, need)}
}

// PersonResult is a cohort member with every rule evaluated and scored.
type PersonResult struct {
	Member
	Outcomes    map[string]RuleResult `json:"outcomes"`
	Points      float64               `json:"points"`
	Possible    float64               `json:"possible"`
	Numerator   float64               `json:"numerator"`
	Denominator float64               `json:"denominator"`
	Score       float64               `json:"score"`
	Extra       map[string]string     `json:"extra,omitempty"`
}

// RuleTally counts one rule's outcomes across a team.
type RuleTally struct {
	Yes      int `json:"yes"`
	Eligible int `json:"eligible"`
}

// TeamScore is the aggregate of one team's cohort.
type TeamScore struct {
	Team        string               `json:"team"`
	People      int                  `json:"people"`
	Rules       map[string]RuleTally `json:"rules"`
	Numerator   float64              `json:"numerator"`
	Denominator float64              `json:"denominator"`
	Percentage  float64              `json:"percentage"`
	Band        Band                 `json:"band"`
}

// Filter narrows a cohort. Team matches either the INE code or the team
// name; Subarea is compared ignoring leading zeros.
type Filter struct {
	Team    string
	Subarea string
	Period  Period
}
