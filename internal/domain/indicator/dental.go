package indicator

// Dental first consultation: share of linked people seen by a dentist in
// the period.
func dentalSpec() *Spec {
	return &Spec{
		Family:       FamilyDental,
		Title:        "First programmed dental consultation",
		Cohort:       Cohort{Kind: CohortDemographic, RequireActive: true, LinkedOnly: true},
		Lookback:     map[EventKind]int{KindDentalVisit: 0},
		PeriodScoped: true,
		Scoring:      SingleRatio{},
		Bands:        AbsoluteBands,
		Rules: []Rule{
			{Key: "a", Name: "Dental consultation by a dentist in the period", Weight: 0, Eval: dentalVisit},
		},
		Measure: func(_ *Subject, outcomes map[string]RuleResult) (float64, float64) {
			if outcomes["a"].Outcome == Yes {
				return 1, 1
			}
			return 0, 1
		},
	}
}

func dentalVisit(s *Subject) RuleResult {
	visits := s.Events.Kind(KindDentalVisit).Role(Dentist).Where(func(e Event) bool {
		return s.Period.Contains(e.Date)
	})
	return outcomeOf(visits.Any())
}
