package territory

import "context"

type Repository interface {
	// ListTeams returns the valid family-health teams.
	ListTeams(ctx context.Context) ([]Team, error)
	// ListSubareas returns the distinct sub-areas of the people linked to
	// team, or of everyone when team is empty.
	ListSubareas(ctx context.Context, team string) ([]string, error)
}
