package indicator

import "fmt"

var (
	diabetesCIAP     = CodeSet{"T89", "T90"}
	diabetesCID      = CodeSet{"E10", "E11", "E12", "E13", "E14"}
	hypertensionCIAP = CodeSet{"K86", "K87"}
	hypertensionCID  = CodeSet{"I10", "I11", "I12", "I13", "I15", "O10", "O11"}
)

var chronicLookback = map[EventKind]int{
	KindConsultation: 365,
	KindHomeVisit:    365,
	KindProcedure:    365,
}

func diabetesSpec() *Spec {
	return &Spec{
		Family:   FamilyDiabetes,
		Title:    "Diabetes care",
		Cohort:   Cohort{Kind: CohortDiagnosis, RequireActive: true, CIAP: diabetesCIAP, CID: diabetesCID},
		Lookback: chronicLookback,
		Scoring:  AccumulatedPoints{},
		Bands:    AbsoluteBands,
		Rules: []Rule{
			{Key: "a", Name: "Physician or nurse consultation in the last 6 months", Weight: 20, Eval: recentConsultation(180)},
			{Key: "b", Name: "Blood pressure recorded in the last 6 months", Weight: 15, Eval: recentPressure(180)},
			{Key: "c", Name: "Weight and height recorded in the last 12 months", Weight: 15, Eval: recentMeasurement(365)},
			{Key: "d", Name: "Two community agent visits 30 days apart in the last 12 months", Weight: 20, Eval: spacedHomeVisits(CommunityAgentOrUnrecorded, 365)},
			{Key: "e", Name: "HbA1c requested or assessed in the last 12 months", Weight: 15, Eval: recentProcedure(hba1cExams, 365)},
			{Key: "f", Name: "Diabetic foot exam in the last 12 months", Weight: 15, Eval: recentProcedure(diabeticFoot, 365)},
		},
	}
}

func hypertensionSpec() *Spec {
	return &Spec{
		Family:   FamilyHypertension,
		Title:    "Hypertension care",
		Cohort:   Cohort{Kind: CohortDiagnosis, RequireActive: true, CIAP: hypertensionCIAP, CID: hypertensionCID},
		Lookback: chronicLookback,
		Scoring:  AccumulatedPoints{},
		Bands:    AbsoluteBands,
		Rules: []Rule{
			{Key: "a", Name: "Physician or nurse consultation in the last 6 months", Weight: 25, Eval: recentConsultation(180)},
			{Key: "b", Name: "Blood pressure recorded in the last 6 months", Weight: 25, Eval: recentPressure(180)},
			{Key: "c", Name: "Weight and height recorded in the last 12 months", Weight: 25, Eval: recentMeasurement(365)},
			{Key: "d", Name: "Two community agent visits 30 days apart in the last 12 months", Weight: 25, Eval: spacedHomeVisits(CommunityAgent, 365)},
		},
	}
}

// Rule constructors shared by the families windowed on the reference date.

func recentConsultation(days int) func(*Subject) RuleResult {
	return func(s *Subject) RuleResult {
		return outcomeOf(s.Events.Kind(KindConsultation).Role(PhysicianOrNurse).LastDays(s.Ref, days).Any())
	}
}

func recentPressure(days int) func(*Subject) RuleResult {
	return func(s *Subject) RuleResult {
		return outcomeOf(s.Events.Kind(KindConsultation).LastDays(s.Ref, days).WithPressure().Any())
	}
}

func recentMeasurement(days int) func(*Subject) RuleResult {
	return func(s *Subject) RuleResult {
		return outcomeOf(s.Events.Kind(KindConsultation, KindHomeVisit).LastDays(s.Ref, days).Measured().Any())
	}
}

func spacedHomeVisits(rc RoleClass, days int) func(*Subject) RuleResult {
	return func(s *Subject) RuleResult {
		visits := s.Events.Kind(KindHomeVisit).Role(rc).LastDays(s.Ref, days)
		if visits.SpacedAtLeast(30) {
			return yes()
		}
		n := visits.CountDistinctDays()
		if n > 2 {
			n = 2
		}
		return RuleResult{Outcome: No, Detail: fmt.Sprintf("%d/2", n)}
	}
}

func recentProcedure(codes CodeSet, days int) func(*Subject) RuleResult {
	return func(s *Subject) RuleResult {
		return outcomeOf(s.Events.Kind(KindProcedure).LastDays(s.Ref, days).WithCode(codes).Any())
	}
}

func recentVaccine(codes CodeSet, days int) func(*Subject) RuleResult {
	return func(s *Subject) RuleResult {
		return outcomeOf(s.Events.Kind(KindVaccination).LastDays(s.Ref, days).WithCode(codes).Any())
	}
}
