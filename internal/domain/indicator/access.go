package indicator

import (
	"fmt"
	"strconv"
	"strings"
)

// Care types counted by the access indicator. Programmed demand is a subset
// of the total.
var (
	programmedCareTypes = []string{
		"CONSULTA AGENDADA PROGRAMADA",
		"CUIDADO CONTINUADO",
		"CONSULTA AGENDADA",
	}
	accessCareTypes = append(append([]string{}, programmedCareTypes...),
		"ESCUTA INICIAL/ORIENTAÇÃO",
		"ESCUTA INICIAL / ORIENTAÇÃO",
		"CONSULTA NO DIA",
		"ATENDIMENTO DE URGÊNCIA",
		"ATENDIMENTO DE URGENCIA",
	)
)

// Access measures the share of programmed demand among the consultations
// of access professionals in the period.
func accessSpec() *Spec {
	return &Spec{
		Family:       FamilyAccess,
		Title:        "Access to care (programmed demand)",
		Cohort:       Cohort{Kind: CohortAttended},
		Lookback:     map[EventKind]int{KindConsultation: 0},
		PeriodScoped: true,
		Scoring:      SingleRatio{},
		Bands:        AccessBands,
		Rules: []Rule{
			{Key: "a", Name: "Programmed demand consultation in the period", Weight: 0, Eval: func(s *Subject) RuleResult {
				programmed, total := accessCounts(s)
				if total == 0 {
					return outcomeOf(false)
				}
				return RuleResult{Outcome: outcomeOf(programmed > 0).Outcome, Detail: fmt.Sprintf("%d/%d", programmed, total)}
			}},
		},
		Measure: func(s *Subject, _ map[string]RuleResult) (float64, float64) {
			programmed, total := accessCounts(s)
			return float64(programmed), float64(total)
		},
		Extra: func(s *Subject) map[string]string {
			programmed, total := accessCounts(s)
			return map[string]string{"programmed": strconv.Itoa(programmed), "total": strconv.Itoa(total)}
		},
	}
}

func accessCounts(s *Subject) (programmed, total int) {
	for _, e := range accessConsultations(s) {
		ct := strings.ToUpper(strings.TrimSpace(e.CareType))
		if !contains(accessCareTypes, ct) {
			continue
		}
		total++
		if contains(programmedCareTypes, ct) {
			programmed++
		}
	}
	return programmed, total
}

func accessConsultations(s *Subject) Events {
	return s.Events.Kind(KindConsultation).Role(AccessProfessional).Where(func(e Event) bool {
		return s.Period.Contains(e.Date)
	})
}
