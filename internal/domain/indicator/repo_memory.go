package indicator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ehr/indicators/internal/domain/territory"
)

// Dataset is a self-contained snapshot of people, events and teams, loaded
// from a JSON fixture.
type Dataset struct {
	People   []Person            `json:"people"`
	Events   []Event             `json:"events"`
	Teams    []territory.Team    `json:"teams"`
	Subareas map[string][]string `json:"subareas,omitempty"`
}

// LoadDataset decodes a JSON fixture.
func LoadDataset(r io.Reader) (*Dataset, error) {
	var ds Dataset
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ds); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return &ds, nil
}

// MemoryStore evaluates cohorts over a Dataset with the same semantics as
// the Postgres store.
type MemoryStore struct {
	mu      sync.RWMutex
	people  map[int64]Person
	history map[int64]Events
	teams   map[string]territory.Team
}

func NewMemoryStore(ds *Dataset) *MemoryStore {
	m := &MemoryStore{
		people:  make(map[int64]Person),
		history: make(map[int64]Events),
		teams:   make(map[string]territory.Team),
	}
	if ds == nil {
		return m
	}
	for _, t := range ds.Teams {
		m.teams[strings.TrimSpace(t.Name)] = t
	}
	for _, p := range ds.People {
		m.AddPerson(p)
	}
	for _, e := range ds.Events {
		m.AddEvent(e)
	}
	return m
}

func (m *MemoryStore) AddPerson(p Person) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.BirthDate = Day(p.BirthDate)
	if p.TeamCode == "" {
		p.TeamCode = m.teams[p.TeamName].Code
	}
	m.people[p.Key] = p
}

func (m *MemoryStore) AddEvent(e Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.Date = Day(e.Date)
	es := append(m.history[e.Person], e)
	SortEvents(es)
	m.history[e.Person] = es
}

func (m *MemoryStore) Person(_ context.Context, key int64) (*Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.people[key]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *MemoryStore) Cohort(ctx context.Context, q CohortQuery) ([]Member, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	ref := Day(q.Ref())
	var members []Member
	for _, p := range m.people {
		mem, ok := m.candidate(q, p, ref)
		if !ok || !MatchTeam(mem.Person, q.Filter.Team) || !MatchSubarea(mem.Person, q.Filter.Subarea) {
			continue
		}
		members = append(members, mem)
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Name != members[j].Name {
			return members[i].Name < members[j].Name
		}
		return members[i].Key < members[j].Key
	})

	total := len(members)
	if q.Offset > 0 {
		if q.Offset >= len(members) {
			members = nil
		} else {
			members = members[q.Offset:]
		}
	}
	if q.Limit > 0 && len(members) > q.Limit {
		members = members[:q.Limit]
	}
	return members, total, nil
}

func (m *MemoryStore) candidate(q CohortQuery, p Person, ref time.Time) (Member, bool) {
	c := q.Cohort
	history := m.history[p.Key]
	switch c.Kind {
	case CohortPregnancy:
		e, ok := q.Timeline.PregnancyAnchor(history, ref)
		if !ok || !c.Demographic(p, ref) {
			return Member{}, false
		}
		return m.attributed(p, e.Date, e.Team), true
	case CohortAttended:
		first, last, ok := AttendedAnchor(history.Until(ref), q.Filter.Period)
		if !ok || !c.Demographic(p, ref) {
			return Member{}, false
		}
		return m.attributed(p, first.Date, last.Team), true
	case CohortDiagnosis:
		if !c.Demographic(p, ref) {
			return Member{}, false
		}
		anchor, ok := c.DiagnosisAnchor(history, ref)
		if !ok {
			return Member{}, false
		}
		return Member{Person: p, Anchor: anchor}, true
	default:
		if !c.Demographic(p, ref) {
			return Member{}, false
		}
		return Member{Person: p, Anchor: p.BirthDate}, true
	}
}

// attributed re-homes a person to the team of the encounter that selected
// them.
func (m *MemoryStore) attributed(p Person, anchor time.Time, team string) Member {
	p.TeamName = strings.TrimSpace(team)
	p.TeamCode = m.teams[p.TeamName].Code
	return Member{Person: p, Anchor: Day(anchor)}
}

func (m *MemoryStore) Events(ctx context.Context, kind EventKind, keys []int64, from, to time.Time) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Event
	for _, k := range keys {
		for _, e := range m.history[k] {
			if e.Kind != kind || Day(e.Date).After(Day(to)) {
				continue
			}
			if !from.IsZero() && Day(e.Date).Before(Day(from)) {
				continue
			}
			out = append(out, e)
		}
	}
	return out, nil
}
