package indicator

import (
	"sort"
	"strings"
	"time"
)

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole days from a to b; negative when b is earlier.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

func AddDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}

// AddMonths adds calendar months, clamping to the last day of the target
// month (Jan 31 + 1 month is Feb 28/29).
func AddMonths(t time.Time, n int) time.Time {
	t = Day(t)
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	last := EndOfMonth(first.Year(), first.Month()).Day()
	d := t.Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

func EndOfMonth(y int, m time.Month) time.Time {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC)
}

// AgeYears returns completed years of age at ref.
func AgeYears(birth, ref time.Time) int {
	birth, ref = Day(birth), Day(ref)
	age := ref.Year() - birth.Year()
	if ref.Month() < birth.Month() || (ref.Month() == birth.Month() && ref.Day() < birth.Day()) {
		age--
	}
	return age
}

// Period is the competence window of a request. Ref is the reference date:
// the last day of the most recent listed month, or today. When Months is
// empty the period runs from January 1st of Ref's year.
type Period struct {
	Ref    time.Time
	From   time.Time
	Months []string
}

// ParsePeriod parses a comma-separated YYYY-MM list. Malformed tokens are
// ignored; with no valid token the period is year-to-date at today.
func ParsePeriod(raw string, today time.Time) Period {
	seen := map[string]bool{}
	var months []string
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		t, err := time.Parse("2006-01", tok)
		if err != nil {
			continue
		}
		key := t.Format("2006-01")
		if !seen[key] {
			seen[key] = true
			months = append(months, key)
		}
	}
	if len(months) == 0 {
		return YearToDate(today)
	}
	sort.Strings(months)
	first, _ := time.Parse("2006-01", months[0])
	last, _ := time.Parse("2006-01", months[len(months)-1])
	return Period{
		Ref:    EndOfMonth(last.Year(), last.Month()),
		From:   Day(first),
		Months: months,
	}
}

// YearToDate is the default period: January 1st to ref.
func YearToDate(ref time.Time) Period {
	ref = Day(ref)
	return Period{Ref: ref, From: Date(ref.Year(), time.January, 1)}
}

// Contains reports whether d falls inside the period, honouring gaps in a
// non-contiguous month list.
func (p Period) Contains(d time.Time) bool {
	d = Day(d)
	if d.Before(p.From) || d.After(p.Ref) {
		return false
	}
	if len(p.Months) == 0 {
		return true
	}
	key := d.Format("2006-01")
	for _, m := range p.Months {
		if m == key {
			return true
		}
	}
	return false
}

// Key identifies the period in cache keys.
func (p Period) Key() string {
	if len(p.Months) == 0 {
		return "ytd:" + p.Ref.Format("2006-01-02")
	}
	return strings.Join(p.Months, ",")
}
