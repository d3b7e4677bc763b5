package indicator

import (
	"sort"
)

// AssembleRanking groups results by team and scores each group. Every seed
// team appears even without members, scoring 0. Teams outside the seed list
// are kept only when include reports true for them.
func AssembleRanking(spec *Spec, seeds []string, results []*PersonResult, include func(team string) bool) []TeamScore {
	groups := make(map[string][]*PersonResult)
	for _, s := range seeds {
		groups[s] = nil
	}
	seeded := make(map[string]bool, len(seeds))
	for _, s := range seeds {
		seeded[s] = true
	}
	for _, r := range results {
		team := r.Team()
		if !seeded[team] && include != nil && !include(team) {
			continue
		}
		groups[team] = append(groups[team], r)
	}

	out := make([]TeamScore, 0, len(groups))
	for team, rs := range groups {
		out = append(out, Tally(spec, team, rs))
	}
	SortRanking(out)
	return out
}

// SortRanking orders by percentage descending, then team name ascending.
func SortRanking(scores []TeamScore) {
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Percentage != scores[j].Percentage {
			return scores[i].Percentage > scores[j].Percentage
		}
		return scores[i].Team < scores[j].Team
	})
}
