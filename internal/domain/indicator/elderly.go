package indicator

func elderlySpec() *Spec {
	return &Spec{
		Family: FamilyElderly,
		Title:  "Elderly care (60 years and over)",
		Cohort: Cohort{Kind: CohortDemographic, RequireActive: true, MinAgeYears: 60},
		Lookback: map[EventKind]int{
			KindConsultation: 365,
			KindHomeVisit:    365,
			KindVaccination:  365,
		},
		Scoring: AccumulatedPoints{},
		Bands:   AbsoluteBands,
		Rules: []Rule{
			{Key: "a", Name: "Physician or nurse consultation in the last 12 months", Weight: 25, Eval: recentConsultation(365)},
			{Key: "b", Name: "Weight and height recorded in the last 12 months", Weight: 25, Eval: recentMeasurement(365)},
			{Key: "c", Name: "Two community agent visits 30 days apart in the last 12 months", Weight: 25, Eval: spacedHomeVisits(CommunityAgent, 365)},
			{Key: "d", Name: "Influenza vaccine in the last 12 months", Weight: 25, Eval: recentVaccine(influenzaVaccines, 365)},
		},
	}
}
