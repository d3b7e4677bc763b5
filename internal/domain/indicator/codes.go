package indicator

import (
	"regexp"
	"strings"
)

// CodeSet is a list of vaccine, procedure or diagnosis codes.
type CodeSet []string

var (
	pentavalentVaccines  = CodeSet{"9", "09", "17", "29", "39", "42", "43", "46", "47", "58"}
	polioVaccines        = CodeSet{"22", "29", "43", "58"}
	pneumococcalVaccines = CodeSet{"26", "59", "106", "107"}
	mmrVaccines          = CodeSet{"24", "56"}
	dtpaVaccines         = CodeSet{"57"}
	influenzaVaccines    = CodeSet{"33", "77"}
	hpvVaccines          = CodeSet{"67", "93"}

	syphilisExams   = CodeSet{"0202010479", "0202010118", "0214010066"}
	hivExams        = CodeSet{"0202010460", "0214010049", "0202010380", "0214010040"}
	hepatitisBExams = CodeSet{"0214010082", "0202030100", "ABPG025"}
	hepatitisCExams = CodeSet{"0214010104", "0202030070"}
	hba1cExams      = CodeSet{"0202010509", "ABEX008"}
	diabeticFoot    = CodeSet{"ABPG033", "0301040095"}
	cytologyExams   = CodeSet{"0201020033", "ABEX001", "0203010086"}
	mammography     = CodeSet{"0204030188", "0204030030"}
)

// tokens splits a pipe-delimited filter column ("|42|22|") into codes.
func tokens(filter string) []string {
	parts := strings.Split(filter, "|")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// HasCode reports whether any token of filter equals one of the codes.
func HasCode(filter string, codes CodeSet) bool {
	for _, tok := range tokens(filter) {
		for _, c := range codes {
			if strings.EqualFold(tok, c) {
				return true
			}
		}
	}
	return false
}

// HasCodePrefix reports whether any token starts with one of the codes.
// Diagnosis columns store subcategories (E119), so "E11" must match them.
func HasCodePrefix(filter string, codes CodeSet) bool {
	for _, tok := range tokens(filter) {
		tok = strings.ToUpper(tok)
		for _, c := range codes {
			if strings.HasPrefix(tok, strings.ToUpper(c)) {
				return true
			}
		}
	}
	return false
}

// PrefixPattern returns a POSIX regular expression matching a token that
// starts with one of the codes, the store-side equivalent of HasCodePrefix.
func (cs CodeSet) PrefixPattern() string {
	return "(^|[|])(" + cs.alternation() + ")"
}

func (cs CodeSet) alternation() string {
	quoted := make([]string, len(cs))
	for i, c := range cs {
		quoted[i] = regexp.QuoteMeta(c)
	}
	return strings.Join(quoted, "|")
}
