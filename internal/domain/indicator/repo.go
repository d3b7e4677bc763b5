package indicator

import (
	"context"
	"time"
)

// CohortQuery selects one page of a family's cohort. Limit 0 returns every
// member.
type CohortQuery struct {
	Cohort   Cohort
	Filter   Filter
	Timeline PregnancyTimeline
	Limit    int
	Offset   int
}

// Ref is the reference date of the query.
func (q CohortQuery) Ref() time.Time { return q.Filter.Period.Ref }

// PopulationRepository selects cohort members. Members are ordered by name,
// then key, and the total ignores paging.
type PopulationRepository interface {
	Cohort(ctx context.Context, q CohortQuery) ([]Member, int, error)
	Person(ctx context.Context, key int64) (*Person, error)
}

// EventRepository loads one kind of clinical event for a set of people,
// dated in [from, to]. A zero from leaves the range open below.
type EventRepository interface {
	Events(ctx context.Context, kind EventKind, keys []int64, from, to time.Time) ([]Event, error)
}
