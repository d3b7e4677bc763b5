package indicator

import "fmt"

// Infant follow-up: children up to two years old, windows from birth.
func infantSpec() *Spec {
	return &Spec{
		Family: FamilyInfant,
		Title:  "Child development follow-up (under 2 years)",
		Cohort: Cohort{Kind: CohortDemographic, RequireActive: true, MaxAgeDays: 730},
		Lookback: map[EventKind]int{
			KindConsultation: 730,
			KindHomeVisit:    730,
			KindVaccination:  730,
		},
		Scoring: AccumulatedPoints{},
		Bands:   AbsoluteBands,
		Rules: []Rule{
			{Key: "a", Name: "First physician or nurse consultation within 30 days of birth", Weight: 20, Eval: infantFirstConsultation},
			{Key: "b", Name: "At least 9 physician or nurse consultations", Weight: 20, Eval: infantConsultations},
			{Key: "c", Name: "At least 9 weight and height measurements", Weight: 20, Eval: infantMeasurements},
			{Key: "d", Name: "Community agent visits in the first 30 days and 6 months", Weight: 20, Eval: infantHomeVisits},
			{Key: "e", Name: "Pentavalent, polio, pneumococcal and MMR doses", Weight: 20, Eval: infantVaccines},
		},
		Extra: func(s *Subject) map[string]string {
			return map[string]string{"age_days": fmt.Sprint(DaysBetween(s.BirthDate, s.Ref))}
		},
	}
}

func infantConsults(s *Subject) Events {
	return s.Events.Kind(KindConsultation).Role(PhysicianOrNurse).Since(s.BirthDate)
}

func infantFirstConsultation(s *Subject) RuleResult {
	first, ok := infantConsults(s).First()
	if !ok {
		return outcomeOf(false)
	}
	d := DaysBetween(s.BirthDate, first.Date)
	return outcomeOf(d >= 0 && d <= 30)
}

func infantConsultations(s *Subject) RuleResult {
	return progress(infantConsults(s).CountDistinctDays(), 9)
}

func infantMeasurements(s *Subject) RuleResult {
	n := len(s.Events.Kind(KindConsultation, KindHomeVisit).Since(s.BirthDate).Measured())
	return progress(n, 9)
}

func infantHomeVisits(s *Subject) RuleResult {
	visits := s.Events.Kind(KindHomeVisit).Role(CommunityAgentOrUnrecorded)
	early := visits.Offsets(s.BirthDate, 0, 30).CountDistinctDays()
	semester := visits.Offsets(s.BirthDate, 0, 180).CountDistinctDays()
	if early >= 1 && semester >= 2 {
		return yes()
	}
	return RuleResult{Outcome: No, Detail: fmt.Sprintf("30d:%d/1 180d:%d/2", early, semester)}
}

func infantVaccines(s *Subject) RuleResult {
	vac := s.Events.Kind(KindVaccination)
	doses := []struct {
		name  string
		codes CodeSet
		need  int
	}{
		{"penta", pentavalentVaccines, 3},
		{"polio", polioVaccines, 3},
		{"pneumo", pneumococcalVaccines, 2},
		{"mmr", mmrVaccines, 2},
	}
	var missing []string
	for _, d := range doses {
		if n := vac.WithCode(d.codes).CountDistinctDays(); n < d.need {
			missing = append(missing, fmt.Sprintf("%s %d/%d", d.name, n, d.need))
		}
	}
	if len(missing) == 0 {
		return yes()
	}
	return RuleResult{Outcome: No, Detail: joinDetail(missing)}
}
