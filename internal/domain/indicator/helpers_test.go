package indicator

import (
	"testing"
	"time"
)

const (
	cboPhysician = "225125"
	cboNurse     = "223505"
	cboAgent     = "515105"
	cboDentist   = "223208"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func consultation(person int64, date, cbo string) Event {
	return Event{Person: person, Kind: KindConsultation, Date: day(date), RoleCode: cbo}
}

func homeVisit(person int64, date, cbo string) Event {
	return Event{Person: person, Kind: KindHomeVisit, Date: day(date), RoleCode: cbo}
}

func vaccination(person int64, date, codes string) Event {
	return Event{Person: person, Kind: KindVaccination, Date: day(date), Codes: codes}
}

func procedure(person int64, date, codes string) Event {
	return Event{Person: person, Kind: KindProcedure, Date: day(date), Codes: codes}
}

func subject(m Member, ref string, events ...Event) *Subject {
	es := append(Events(nil), events...)
	SortEvents(es)
	r := day(ref)
	return &Subject{
		Member:   m,
		Ref:      r,
		Period:   YearToDate(r),
		Events:   es,
		Timeline: DefaultTimeline(),
	}
}

func child(key int64, birth string) Member {
	b := day(birth)
	return Member{Person: Person{Key: key, Name: "Child", BirthDate: b, Active: true, TeamName: "ESF A"}, Anchor: b}
}

func mustRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(DefaultTimeline())
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return r
}

func mustSpec(t *testing.T, f Family) *Spec {
	t.Helper()
	sp, err := mustRegistry(t).Get(f)
	if err != nil {
		t.Fatalf("spec %s: %v", f, err)
	}
	return sp
}

func outcome(t *testing.T, sp *Spec, s *Subject, key string) RuleResult {
	t.Helper()
	r := Evaluate(sp, s)
	res, ok := r.Outcomes[key]
	if !ok {
		t.Fatalf("rule %s missing from %s outcomes", key, sp.Family)
	}
	return res
}
