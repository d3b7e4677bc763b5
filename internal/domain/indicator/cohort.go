package indicator

import (
	"strings"
	"time"
)

type CohortKind int

const (
	// CohortDemographic selects on age, sex and registration status only.
	CohortDemographic CohortKind = iota
	// CohortPregnancy selects people with an active gestation record.
	CohortPregnancy
	// CohortDiagnosis selects people with a qualifying diagnosis on record.
	CohortDiagnosis
	// CohortAttended selects people seen by an access professional in the period.
	CohortAttended
)

// Cohort is the eligibility definition of a family.
type Cohort struct {
	Kind CohortKind
	// RequireActive excludes inactive and deceased registrations.
	RequireActive bool
	// MaxAgeDays bounds age in days when positive.
	MaxAgeDays int
	// MinAgeYears and MaxAgeYears bound completed years; MaxAgeYears 0 is open.
	MinAgeYears int
	MaxAgeYears int
	Sex         string
	CIAP        CodeSet
	CID         CodeSet
	// LinkedOnly requires a linked care team.
	LinkedOnly bool
}

// Demographic applies the registration, age and sex criteria.
func (c Cohort) Demographic(p Person, ref time.Time) bool {
	if c.RequireActive && (!p.Active || p.Deceased) {
		return false
	}
	if c.LinkedOnly && strings.TrimSpace(p.TeamName) == "" {
		return false
	}
	if c.Sex != "" && !strings.EqualFold(p.Sex, c.Sex) {
		return false
	}
	if !c.AgeBounded() {
		return true
	}
	if p.BirthDate.IsZero() || Day(p.BirthDate).After(Day(ref)) {
		return false
	}
	if c.MaxAgeDays > 0 && DaysBetween(p.BirthDate, ref) > c.MaxAgeDays {
		return false
	}
	age := AgeYears(p.BirthDate, ref)
	return age >= c.MinAgeYears && (c.MaxAgeYears == 0 || age <= c.MaxAgeYears)
}

func (c Cohort) AgeBounded() bool {
	return c.MaxAgeDays > 0 || c.MinAgeYears > 0 || c.MaxAgeYears > 0
}

// IsDiagnosis reports whether a consultation carries one of the cohort's
// diagnosis codes.
func (c Cohort) IsDiagnosis(e Event) bool {
	return e.Kind == KindConsultation && (HasCodePrefix(e.Diagnoses, c.CIAP) || HasCodePrefix(e.Diagnoses, c.CID))
}

// DiagnosisAnchor returns the earliest qualifying encounter on or before ref.
func (c Cohort) DiagnosisAnchor(history Events, ref time.Time) (time.Time, bool) {
	for _, e := range history.Until(ref) {
		if c.IsDiagnosis(e) {
			return Day(e.Date), true
		}
	}
	return time.Time{}, false
}

// PregnancyTimeline holds the gestation constants. They come from
// configuration so care-protocol owners can adjust them.
type PregnancyTimeline struct {
	ViabilityDays  int
	LookbackMonths int
	DueDays        int
	PuerperiumDays int
	MarginDays     int
}

func DefaultTimeline() PregnancyTimeline {
	return PregnancyTimeline{
		ViabilityDays:  330,
		LookbackMonths: 14,
		DueDays:        280,
		PuerperiumDays: 42,
		MarginDays:     14,
	}
}

// DueDate is the estimated delivery date for a gestation anchored at dum.
func (t PregnancyTimeline) DueDate(dum time.Time) time.Time {
	return AddDays(dum, t.DueDays)
}

// Active reports whether a gestation anchored at dum is still in the cohort
// at ref.
func (t PregnancyTimeline) Active(dum, ref time.Time) bool {
	return !AddDays(dum, t.ViabilityDays).Before(Day(ref))
}

// PregnancyAnchor finds the most recent consultation with a gestational age
// within the lookback window ending at ref. The returned event carries the
// team the gestation is attributed to.
func (t PregnancyTimeline) PregnancyAnchor(history Events, ref time.Time) (Event, bool) {
	from := AddMonths(ref, -t.LookbackMonths)
	var last Event
	found := false
	for _, e := range history.Kind(KindConsultation).Between(from, ref) {
		if e.GestationalWeeks > 0 {
			last, found = e, true
		}
	}
	if !found || !t.Active(last.Date, ref) {
		return Event{}, false
	}
	return last, true
}

// AttendedAnchor returns the first access-professional consultation inside
// the period, if any, and the most recent one for team attribution.
func AttendedAnchor(history Events, p Period) (first, last Event, ok bool) {
	seen := history.Kind(KindConsultation).Role(AccessProfessional).Where(func(e Event) bool { return p.Contains(e.Date) })
	if len(seen) == 0 {
		return Event{}, Event{}, false
	}
	return seen[0], seen[len(seen)-1], true
}

// MatchTeam reports whether a person belongs to the team filter, given as
// INE code or name.
func MatchTeam(p Person, team string) bool {
	team = strings.TrimSpace(team)
	if team == "" {
		return true
	}
	return strings.TrimSpace(p.TeamCode) == team || strings.TrimSpace(p.TeamName) == team
}

// MatchSubarea compares sub-areas ignoring leading zeros.
func MatchSubarea(p Person, subarea string) bool {
	subarea = strings.TrimSpace(subarea)
	if subarea == "" {
		return true
	}
	return strings.TrimLeft(strings.TrimSpace(p.Subarea), "0") == strings.TrimLeft(subarea, "0")
}
