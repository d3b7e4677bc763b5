package territory

import (
	"strings"
)

// Team is a care team from the team dimension. Code is the national team
// identifier (INE); some legacy teams have none.
type Team struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Matches reports whether filter selects the team. A filter may carry the
// INE code or the display name.
func (t Team) Matches(filter string) bool {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return true
	}
	return strings.TrimSpace(t.Code) == filter || strings.TrimSpace(t.Name) == filter
}

var (
	nonClinicalMarkers  = []string{"BUCAL", "NASF", "ODONTO", "CONSULTORIO"}
	nonClinicalPrefixes = []string{"ESB", "SB ", "EMAD", "EMAP", "ENASF", "EQUIPE EMULTI"}
)

// IsClinical reports whether a team takes part in the rankings. Oral health,
// home care and multiprofessional support teams are left out.
func IsClinical(name string) bool {
	n := strings.ToUpper(strings.TrimSpace(name))
	if n == "" {
		return false
	}
	for _, m := range nonClinicalMarkers {
		if strings.Contains(n, m) {
			return false
		}
	}
	for _, p := range nonClinicalPrefixes {
		if strings.HasPrefix(n, p) {
			return false
		}
	}
	return true
}

// IsNumeric reports whether s is a non-empty run of ASCII digits.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
