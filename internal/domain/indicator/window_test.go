package indicator

import (
	"regexp"
	"testing"
)

func TestEventsBetweenInclusive(t *testing.T) {
	es := Events{
		consultation(1, "2024-01-01", cboNurse),
		consultation(1, "2024-01-10", cboNurse),
		consultation(1, "2024-01-11", cboNurse),
	}
	if n := len(es.Between(day("2024-01-01"), day("2024-01-10"))); n != 2 {
		t.Errorf("expected both ends included, got %d", n)
	}
	if n := len(es.After(day("2024-01-10"))); n != 1 {
		t.Errorf("expected strict after, got %d", n)
	}
	if n := len(es.Offsets(day("2024-01-01"), 0, 9)); n != 2 {
		t.Errorf("expected offsets 0..9 to cover two events, got %d", n)
	}
}

func TestSpacedAtLeast(t *testing.T) {
	thirty := Events{homeVisit(1, "2024-01-01", cboAgent), homeVisit(1, "2024-01-31", cboAgent)}
	if !thirty.SpacedAtLeast(30) {
		t.Error("expected 30 days apart to satisfy 30")
	}
	twentyNine := Events{homeVisit(1, "2024-01-01", cboAgent), homeVisit(1, "2024-01-30", cboAgent)}
	if twentyNine.SpacedAtLeast(30) {
		t.Error("expected 29 days apart to fail 30")
	}
	sameDay := Events{homeVisit(1, "2024-01-01", cboAgent), homeVisit(1, "2024-01-01", cboAgent)}
	if sameDay.SpacedAtLeast(0) {
		t.Error("expected visits on one day not to count as two")
	}
}

func TestSortEvents(t *testing.T) {
	es := Events{
		vaccination(1, "2024-02-01", "|42|"),
		consultation(1, "2024-02-01", cboNurse),
		consultation(1, "2024-01-01", cboNurse),
	}
	SortEvents(es)
	if !es[0].Date.Equal(day("2024-01-01")) || es[1].Kind != KindConsultation || es[2].Kind != KindVaccination {
		t.Errorf("unexpected order: %+v", es)
	}
}

func TestHasCode(t *testing.T) {
	if !HasCode("|42|22|", CodeSet{"22"}) {
		t.Error("expected token match")
	}
	if HasCode("|142|", CodeSet{"42"}) {
		t.Error("expected no partial token match")
	}
	if !HasCode("abex008", CodeSet{"ABEX008"}) {
		t.Error("expected case-insensitive match")
	}
	if HasCode("", CodeSet{"42"}) {
		t.Error("expected empty filter not to match")
	}
}

func TestHasCodePrefix(t *testing.T) {
	if !HasCodePrefix("|K86|E119|", diabetesCID) {
		t.Error("expected E119 to match E11")
	}
	if HasCodePrefix("|XE11|", diabetesCID) {
		t.Error("expected prefix match anchored at token start")
	}
}

func TestPrefixPatternAgreesWithHasCodePrefix(t *testing.T) {
	re := regexp.MustCompile("(?i)" + diabetesCID.PrefixPattern())
	for _, filter := range []string{"|E119|", "E10", "|K86|e14|", "|XE11|", "", "|T90|"} {
		if re.MatchString(filter) != HasCodePrefix(filter, diabetesCID) {
			t.Errorf("pattern and matcher disagree on %q", filter)
		}
	}
}

func TestRoleClasses(t *testing.T) {
	cases := []struct {
		rc   RoleClass
		code string
		want bool
	}{
		{PhysicianOrNurse, "225125", true},
		{PhysicianOrNurse, "223505", true},
		{PhysicianOrNurse, "515105", false},
		{PhysicianOrNurse, "", false},
		{CommunityAgent, "322255", true},
		{CommunityAgent, "", false},
		{CommunityAgentOrUnrecorded, "", true},
		{Dentist, "223208", true},
		{AccessProfessional, "225142", true},
		{AccessProfessional, "225125", false},
	}
	for _, c := range cases {
		if got := c.rc.Matches(c.code); got != c.want {
			t.Errorf("role %d code %q: got %v want %v", c.rc, c.code, got, c.want)
		}
	}
}
