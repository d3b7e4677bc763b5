package indicator

import (
	"sort"
	"time"
)

// Events is one person's history, sorted by date. Filters return new slices
// and never reorder.
type Events []Event

// SortEvents orders events by date, then kind. Events of the same date and
// kind keep their insertion order.
func SortEvents(es Events) {
	sort.SliceStable(es, func(i, j int) bool {
		if !es[i].Date.Equal(es[j].Date) {
			return es[i].Date.Before(es[j].Date)
		}
		return es[i].Kind < es[j].Kind
	})
}

func (es Events) Where(pred func(Event) bool) Events {
	var out Events
	for _, e := range es {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}

func (es Events) Kind(kinds ...EventKind) Events {
	return es.Where(func(e Event) bool {
		for _, k := range kinds {
			if e.Kind == k {
				return true
			}
		}
		return false
	})
}

func (es Events) Role(rc RoleClass) Events {
	return es.Where(func(e Event) bool { return rc.Matches(e.RoleCode) })
}

// Between keeps events dated in [from, to], both ends inclusive.
func (es Events) Between(from, to time.Time) Events {
	return es.Where(func(e Event) bool { return Within(e.Date, from, to) })
}

func (es Events) Since(from time.Time) Events {
	from = Day(from)
	return es.Where(func(e Event) bool { return !Day(e.Date).Before(from) })
}

func (es Events) Until(to time.Time) Events {
	to = Day(to)
	return es.Where(func(e Event) bool { return !Day(e.Date).After(to) })
}

// After keeps events dated strictly after t's calendar day.
func (es Events) After(t time.Time) Events {
	t = Day(t)
	return es.Where(func(e Event) bool { return Day(e.Date).After(t) })
}

// Offsets keeps events between from and to days after anchor, inclusive.
func (es Events) Offsets(anchor time.Time, from, to int) Events {
	return es.Between(AddDays(anchor, from), AddDays(anchor, to))
}

// LastDays keeps events in the n days up to and including ref.
func (es Events) LastDays(ref time.Time, n int) Events {
	return es.Between(AddDays(ref, -n), ref)
}

// LastMonths keeps events in the n calendar months up to and including ref.
func (es Events) LastMonths(ref time.Time, n int) Events {
	return es.Between(AddMonths(ref, -n), ref)
}

func (es Events) WithCode(codes CodeSet) Events {
	return es.Where(func(e Event) bool { return HasCode(e.Codes, codes) })
}

func (es Events) Measured() Events {
	return es.Where(Event.Measured)
}

func (es Events) WithPressure() Events {
	return es.Where(func(e Event) bool { return e.Systolic > 0 })
}

func (es Events) First() (Event, bool) {
	if len(es) == 0 {
		return Event{}, false
	}
	return es[0], true
}

func (es Events) Any() bool { return len(es) > 0 }

// Days returns the distinct calendar days of the events, ascending.
func (es Events) Days() []time.Time {
	var out []time.Time
	for _, e := range es {
		d := Day(e.Date)
		if len(out) > 0 && out[len(out)-1].Equal(d) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// CountDistinctDays counts days with at least one event.
func (es Events) CountDistinctDays() int {
	return len(es.Days())
}

// SpacedAtLeast reports whether the first and last event are at least n
// whole days apart. A single event never qualifies.
func (es Events) SpacedAtLeast(n int) bool {
	days := es.Days()
	if len(days) < 2 {
		return false
	}
	return DaysBetween(days[0], days[len(days)-1]) >= n
}

// Within reports whether d lies in [from, to] at day precision.
func Within(d, from, to time.Time) bool {
	d = Day(d)
	return !d.Before(Day(from)) && !d.After(Day(to))
}
