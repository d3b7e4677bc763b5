package territory

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepo serves teams and sub-areas from fixtures. Used by the offline
// evaluate command and by tests.
type MemoryRepo struct {
	mu       sync.RWMutex
	teams    []Team
	subareas map[string][]string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{subareas: make(map[string][]string)}
}

func (m *MemoryRepo) AddTeam(t Team) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teams = append(m.teams, t)
}

// AddSubarea records a sub-area for the team name.
func (m *MemoryRepo) AddSubarea(team, subarea string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subareas[team] = append(m.subareas[team], subarea)
}

func (m *MemoryRepo) ListTeams(_ context.Context) ([]Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Team, len(m.teams))
	copy(out, m.teams)
	return out, nil
}

func (m *MemoryRepo) ListSubareas(_ context.Context, team string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	team = strings.TrimSpace(team)
	seen := map[string]bool{}
	var out []string
	for _, t := range m.teams {
		if team != "" && !t.Matches(team) {
			continue
		}
		for _, s := range m.subareas[t.Name] {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}
