package indicator

import (
	"testing"
	"time"
)

func TestParsePeriod(t *testing.T) {
	today := day("2024-08-15")

	p := ParsePeriod("2024-03, 2024-01,bogus,2024-03", today)
	if !p.Ref.Equal(day("2024-03-31")) {
		t.Errorf("expected reference at end of latest month, got %s", p.Ref.Format("2006-01-02"))
	}
	if !p.From.Equal(day("2024-01-01")) {
		t.Errorf("expected period to start on first month, got %s", p.From.Format("2006-01-02"))
	}
	if len(p.Months) != 2 {
		t.Errorf("expected duplicates and malformed tokens dropped, got %v", p.Months)
	}
	if p.Contains(day("2024-02-10")) {
		t.Error("expected February to be outside a January/March period")
	}
	if !p.Contains(day("2024-03-31")) {
		t.Error("expected last day of March inside the period")
	}

	def := ParsePeriod("", today)
	if !def.Ref.Equal(today) || !def.From.Equal(day("2024-01-01")) {
		t.Errorf("expected year to date, got %+v", def)
	}
	if !ParsePeriod("2024-13", today).Ref.Equal(today) {
		t.Error("expected invalid month to fall back to today")
	}
}

func TestParsePeriod_LeapFebruary(t *testing.T) {
	p := ParsePeriod("2024-02", time.Now())
	if !p.Ref.Equal(day("2024-02-29")) {
		t.Errorf("expected 2024-02-29, got %s", p.Ref.Format("2006-01-02"))
	}
}

func TestAddMonthsClamps(t *testing.T) {
	if got := AddMonths(day("2024-03-31"), -1); !got.Equal(day("2024-02-29")) {
		t.Errorf("expected 2024-02-29, got %s", got.Format("2006-01-02"))
	}
	if got := AddMonths(day("2024-01-15"), -14); !got.Equal(day("2022-11-15")) {
		t.Errorf("expected 2022-11-15, got %s", got.Format("2006-01-02"))
	}
}

func TestAgeYears(t *testing.T) {
	if AgeYears(day("2000-02-29"), day("2024-02-28")) != 23 {
		t.Error("expected birthday not yet reached")
	}
	if AgeYears(day("2000-02-29"), day("2024-02-29")) != 24 {
		t.Error("expected birthday reached")
	}
}

func TestDaysBetweenIgnoresClock(t *testing.T) {
	a := time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC)
	b := time.Date(2024, 1, 2, 0, 1, 0, 0, time.UTC)
	if DaysBetween(a, b) != 1 {
		t.Errorf("expected 1 day, got %d", DaysBetween(a, b))
	}
}

func TestPeriodKey(t *testing.T) {
	if ParsePeriod("2024-02,2024-01", day("2024-08-15")).Key() != "2024-01,2024-02" {
		t.Error("expected sorted month key")
	}
	if YearToDate(day("2024-08-15")).Key() != "ytd:2024-08-15" {
		t.Error("unexpected year-to-date key")
	}
}
