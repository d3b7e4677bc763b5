package indicator

import "strings"

// RoleClass groups occupation (CBO) codes that count for a rule.
type RoleClass int

const (
	AnyRole RoleClass = iota
	PhysicianOrNurse
	CommunityAgent
	// CommunityAgentOrUnrecorded also accepts home visits with no CBO.
	CommunityAgentOrUnrecorded
	Dentist
	AccessProfessional
)

var (
	physicianNursePrefixes = []string{"2251", "2252", "2253", "2231", "2235"}
	communityAgentCodes    = []string{"515105", "322255"}
	accessCodes            = []string{"225142", "225170", "225130", "223565", "223505"}
)

func (rc RoleClass) Matches(code string) bool {
	code = strings.TrimSpace(code)
	switch rc {
	case PhysicianOrNurse:
		return hasAnyPrefix(code, physicianNursePrefixes)
	case CommunityAgent:
		return contains(communityAgentCodes, code)
	case CommunityAgentOrUnrecorded:
		return code == "" || contains(communityAgentCodes, code)
	case Dentist:
		return strings.HasPrefix(code, "2232")
	case AccessProfessional:
		return contains(accessCodes, code)
	default:
		return true
	}
}

func hasAnyPrefix(s string, prefixes []string) bool {
	if s == "" {
		return false
	}
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
