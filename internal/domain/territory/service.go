package territory

import (
	"context"
	"sort"
	"strings"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ClinicalTeams returns the teams that appear in rankings, sorted by name.
// Duplicate names collapse into the first entry.
func (s *Service) ClinicalTeams(ctx context.Context) ([]Team, error) {
	teams, err := s.repo.ListTeams(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(teams))
	out := make([]Team, 0, len(teams))
	for _, t := range teams {
		t.Name = strings.TrimSpace(t.Name)
		t.Code = strings.TrimSpace(t.Code)
		if !IsClinical(t.Name) || seen[t.Name] {
			continue
		}
		seen[t.Name] = true
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Subareas lists the distinct trimmed sub-area codes for a team filter,
// sorted.
func (s *Service) Subareas(ctx context.Context, team string) ([]string, error) {
	raw, err := s.repo.ListSubareas(ctx, strings.TrimSpace(team))
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	sort.Strings(out)
	return out, nil
}
