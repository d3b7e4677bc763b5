package indicator

import "strconv"

// Women's health. Each rule applies to an age band only; outside it the
// rule is NotApplicable and the team ratio for that rule ignores the person.
func womenSpec() *Spec {
	return &Spec{
		Family: FamilyWomen,
		Title:  "Women's health",
		Cohort: Cohort{Kind: CohortDemographic, RequireActive: true, Sex: "FEMININO", MinAgeYears: 9, MaxAgeYears: 69},
		Lookback: map[EventKind]int{
			KindConsultation: 366,
			KindVaccination:  0,
			KindProcedure:    3*366 + 1,
		},
		Scoring: WeightedRuleRatio{},
		Bands:   AbsoluteBands,
		Rules: []Rule{
			{Key: "a", Name: "Cervical cytology in the last 36 months (25 to 64 years)", Weight: 20,
				Eval: ageGated(25, 64, func(s *Subject) RuleResult {
					return outcomeOf(s.Events.Kind(KindProcedure).LastMonths(s.Ref, 36).WithCode(cytologyExams).Any())
				})},
			{Key: "b", Name: "HPV vaccine (9 to 14 years)", Weight: 30,
				Eval: ageGated(9, 14, func(s *Subject) RuleResult {
					return outcomeOf(s.Events.Kind(KindVaccination).Until(s.Ref).WithCode(hpvVaccines).Any())
				})},
			{Key: "c", Name: "Consultation in the last 12 months (14 to 69 years)", Weight: 30,
				Eval: ageGated(14, 69, func(s *Subject) RuleResult {
					return outcomeOf(s.Events.Kind(KindConsultation).LastMonths(s.Ref, 12).Any())
				})},
			{Key: "d", Name: "Mammography in the last 24 months (50 to 69 years)", Weight: 20,
				Eval: ageGated(50, 69, func(s *Subject) RuleResult {
					return outcomeOf(s.Events.Kind(KindProcedure).LastMonths(s.Ref, 24).WithCode(mammography).Any())
				})},
		},
		Extra: func(s *Subject) map[string]string {
			return map[string]string{"age": strconv.Itoa(s.Age())}
		},
	}
}

func ageGated(min, max int, eval func(*Subject) RuleResult) func(*Subject) RuleResult {
	return func(s *Subject) RuleResult {
		if age := s.Age(); age < min || age > max {
			return notApplicable()
		}
		return eval(s)
	}
}
