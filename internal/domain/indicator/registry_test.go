package indicator

import (
	"errors"
	"math"
	"testing"
)

func TestRegistry_Families(t *testing.T) {
	r := mustRegistry(t)
	want := []Family{FamilyInfant, FamilyPregnancy, FamilyDiabetes, FamilyHypertension, FamilyElderly, FamilyWomen, FamilyAccess, FamilyDental}
	got := r.Families()
	if len(got) != len(want) {
		t.Fatalf("expected %d families, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("family %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestRegistry_WeightsSumTo100(t *testing.T) {
	r := mustRegistry(t)
	for _, f := range r.Families() {
		sp, _ := r.Get(f)
		if _, ratio := sp.Scoring.(SingleRatio); ratio {
			continue
		}
		var total float64
		for _, rule := range sp.Rules {
			total += rule.Weight
		}
		if math.Abs(total-100) > 1e-9 {
			t.Errorf("%s: weights sum to %v", f, total)
		}
	}
}

func TestRegistry_UnknownFamily(t *testing.T) {
	_, err := mustRegistry(t).Get("dialysis")
	if !errors.Is(err, ErrUnknownFamily) {
		t.Fatalf("expected ErrUnknownFamily, got %v", err)
	}
}

func TestRegistry_Catalog(t *testing.T) {
	cat := mustRegistry(t).Catalog()
	if len(cat) != 8 {
		t.Fatalf("expected 8 entries, got %d", len(cat))
	}
	for _, e := range cat {
		if e.Title == "" || e.Scoring == "" || len(e.Rules) == 0 {
			t.Errorf("incomplete catalog entry: %+v", e)
		}
	}
	if cat[6].Family != FamilyAccess || cat[6].Bands.Name != "access" {
		t.Errorf("expected access family with access bands, got %+v", cat[6])
	}
}

func TestValidate_RejectsBadWeights(t *testing.T) {
	sp := &Spec{Family: "x", Scoring: AccumulatedPoints{}, Rules: []Rule{fixedRule("a", 60)}}
	if err := sp.Validate(); err == nil {
		t.Error("expected weights not summing to 100 to be rejected")
	}
	sp = &Spec{Family: "x", Scoring: AccumulatedPoints{}, Rules: []Rule{fixedRule("a", 50), fixedRule("a", 50)}}
	if err := sp.Validate(); err == nil {
		t.Error("expected duplicate rule keys to be rejected")
	}
	sp = &Spec{Family: "x", Scoring: SingleRatio{}}
	if err := sp.Validate(); err == nil {
		t.Error("expected single ratio without measure to be rejected")
	}
}

func TestEvaluate_NoEventsNeverSucceeds(t *testing.T) {
	r := mustRegistry(t)
	m := Member{Person: Person{Key: 1, Name: "Nobody", Sex: "FEMININO", BirthDate: day("1970-01-01"), Active: true, TeamName: "ESF A"}, Anchor: day("2024-03-01")}
	for _, f := range r.Families() {
		sp, _ := r.Get(f)
		res := Evaluate(sp, subject(m, "2024-06-30"))
		if len(res.Outcomes) != len(sp.Rules) {
			t.Errorf("%s: expected %d outcomes, got %d", f, len(sp.Rules), len(res.Outcomes))
		}
		for key, o := range res.Outcomes {
			if o.Outcome == Yes {
				t.Errorf("%s rule %s: expected no success without events", f, key)
			}
		}
		if res.Points != 0 || res.Score != 0 {
			t.Errorf("%s: expected zero score, got %v/%v", f, res.Points, res.Score)
		}
	}
}

func TestSpecSince(t *testing.T) {
	p := YearToDate(day("2024-06-30"))
	since := mustSpec(t, FamilyWomen).Since(p)
	if !since[KindVaccination].IsZero() {
		t.Error("expected vaccinations to be fetched without lower bound")
	}
	if !since[KindConsultation].Equal(AddDays(p.Ref, -366)) {
		t.Errorf("unexpected consultation bound %s", since[KindConsultation])
	}
	if got := mustSpec(t, FamilyAccess).Since(p)[KindConsultation]; !got.Equal(p.From) {
		t.Errorf("expected access to start at period start, got %s", got)
	}
}
