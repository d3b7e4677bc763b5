package indicator

import (
	"fmt"
	"strings"
)

// Prenatal care: windows measured from the last gestation record (DUM).
// Events recorded before the DUM are ignored.
func pregnancySpec(tl PregnancyTimeline) *Spec {
	lookback := tl.LookbackMonths*31 + 1
	return &Spec{
		Family: FamilyPregnancy,
		Title:  "Prenatal and puerperal care",
		Cohort: Cohort{Kind: CohortPregnancy},
		Lookback: map[EventKind]int{
			KindConsultation: lookback,
			KindHomeVisit:    lookback,
			KindVaccination:  lookback,
			KindProcedure:    lookback,
			KindDentalVisit:  lookback,
		},
		Scoring: AccumulatedPoints{},
		Bands:   AbsoluteBands,
		Rules: []Rule{
			{Key: "a", Name: "First consultation by 12 weeks", Weight: 10, Eval: prenatalEarlyStart},
			{Key: "b", Name: "At least 6 physician or nurse consultations", Weight: 10, Eval: prenatalConsultations},
			{Key: "c", Name: "At least 6 blood pressure measurements", Weight: 10, Eval: prenatalPressure},
			{Key: "d", Name: "At least 6 weight and height measurements", Weight: 10, Eval: prenatalMeasurements},
			{Key: "e", Name: "At least 3 community agent visits after the first consultation", Weight: 10, Eval: prenatalHomeVisits},
			{Key: "f", Name: "dTpa vaccine from 20 weeks", Weight: 10, Eval: prenatalDTPA},
			{Key: "g", Name: "Syphilis, HIV, hepatitis B and C tests in the first trimester", Weight: 10, Eval: prenatalFirstTrimesterTests},
			{Key: "h", Name: "Syphilis and HIV tests in the third trimester", Weight: 10, Eval: prenatalThirdTrimesterTests},
			{Key: "i", Name: "Puerperal consultation", Weight: 10, Eval: puerperalConsultation},
			{Key: "j", Name: "Puerperal community agent visit", Weight: 10, Eval: puerperalHomeVisit},
			{Key: "k", Name: "Dental consultation", Weight: 0, Eval: prenatalDental},
		},
		Extra: func(s *Subject) map[string]string {
			return map[string]string{
				"gestational_weeks": fmt.Sprint(DaysBetween(s.Anchor, s.Ref) / 7),
				"due_date":          s.Timeline.DueDate(s.Anchor).Format("2006-01-02"),
			}
		},
	}
}

func gestation(s *Subject) Events { return s.Events.Since(s.Anchor) }

func prenatalConsults(s *Subject) Events {
	return gestation(s).Kind(KindConsultation).Role(PhysicianOrNurse)
}

func prenatalEarlyStart(s *Subject) RuleResult {
	first, ok := prenatalConsults(s).First()
	return outcomeOf(ok && !Day(first.Date).After(AddDays(s.Anchor, 84)))
}

func prenatalConsultations(s *Subject) RuleResult {
	return progress(prenatalConsults(s).CountDistinctDays(), 6)
}

func prenatalPressure(s *Subject) RuleResult {
	return progress(len(gestation(s).Kind(KindConsultation).WithPressure()), 6)
}

func prenatalMeasurements(s *Subject) RuleResult {
	return progress(len(gestation(s).Kind(KindConsultation, KindHomeVisit).Measured()), 6)
}

func prenatalHomeVisits(s *Subject) RuleResult {
	first, ok := prenatalConsults(s).First()
	if !ok {
		return progress(0, 3)
	}
	visits := gestation(s).Kind(KindHomeVisit).Role(CommunityAgent).After(first.Date)
	return progress(len(visits), 3)
}

func prenatalDTPA(s *Subject) RuleResult {
	return outcomeOf(gestation(s).Kind(KindVaccination).WithCode(dtpaVaccines).Since(AddDays(s.Anchor, 140)).Any())
}

func prenatalFirstTrimesterTests(s *Subject) RuleResult {
	exams := gestation(s).Kind(KindProcedure).Until(AddDays(s.Anchor, 91))
	return examPanel(exams, []examGroup{
		{"syphilis", syphilisExams},
		{"hiv", hivExams},
		{"hepatitis_b", hepatitisBExams},
		{"hepatitis_c", hepatitisCExams},
	})
}

func prenatalThirdTrimesterTests(s *Subject) RuleResult {
	start := AddDays(s.Anchor, 189)
	if s.Ref.Before(start) {
		return notApplicable()
	}
	exams := gestation(s).Kind(KindProcedure).Since(start)
	return examPanel(exams, []examGroup{
		{"syphilis", syphilisExams},
		{"hiv", hivExams},
	})
}

func puerperalConsultation(s *Subject) RuleResult {
	return puerperal(s, gestation(s).Kind(KindConsultation).Role(PhysicianOrNurse))
}

func puerperalHomeVisit(s *Subject) RuleResult {
	return puerperal(s, gestation(s).Kind(KindHomeVisit).Role(CommunityAgent))
}

// puerperal checks [DPP - margin, DPP + puerperium]. Without a record the
// rule stays pending until DPP + margin has passed.
func puerperal(s *Subject, es Events) RuleResult {
	due := s.Timeline.DueDate(s.Anchor)
	from := AddDays(due, -s.Timeline.MarginDays)
	to := AddDays(due, s.Timeline.PuerperiumDays)
	if es.Between(from, to).Any() {
		return yes()
	}
	if !Day(s.Ref).After(AddDays(due, s.Timeline.MarginDays)) {
		return notApplicable()
	}
	return outcomeOf(false)
}

func prenatalDental(s *Subject) RuleResult {
	return outcomeOf(gestation(s).Kind(KindDentalVisit).Any())
}

type examGroup struct {
	name  string
	codes CodeSet
}

func examPanel(exams Events, groups []examGroup) RuleResult {
	var missing []string
	for _, g := range groups {
		if !exams.WithCode(g.codes).Any() {
			missing = append(missing, g.name)
		}
	}
	if len(missing) == 0 {
		return yes()
	}
	return RuleResult{Outcome: No, Detail: "missing " + strings.Join(missing, ",")}
}

func joinDetail(parts []string) string { return strings.Join(parts, "; ") }
