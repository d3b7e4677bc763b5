package indicator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ehr/indicators/internal/domain/territory"
	"github.com/ehr/indicators/internal/platform/cache"
	"github.com/ehr/indicators/internal/platform/metrics"
	"github.com/ehr/indicators/pkg/pagination"
)

const DefaultCacheTTL = 10 * time.Minute

// TeamSource lists the teams a ranking is seeded with.
type TeamSource interface {
	ClinicalTeams(ctx context.Context) ([]territory.Team, error)
}

type Service struct {
	registry *Registry
	people   PopulationRepository
	events   EventRepository
	teams    TeamSource
	agg      *Aggregator

	cache    cache.Store
	cacheTTL time.Duration
	workers  int
	chunk    int
	timeline PregnancyTimeline
	metrics  *metrics.Recorder
	logger   zerolog.Logger
	now      func() time.Time
}

type Option func(*Service)

func WithCache(store cache.Store, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = store
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

func WithMetrics(m *metrics.Recorder) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

func WithChunkSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.chunk = n
		}
	}
}

func WithTimeline(tl PregnancyTimeline) Option {
	return func(s *Service) { s.timeline = tl }
}

// WithClock replaces time.Now, which supplies the default reference date.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(registry *Registry, people PopulationRepository, events EventRepository, teams TeamSource, opts ...Option) *Service {
	s := &Service{
		registry: registry,
		people:   people,
		events:   events,
		teams:    teams,
		cache:    cache.NewMemory(),
		cacheTTL: DefaultCacheTTL,
		workers:  4,
		chunk:    DefaultChunkSize,
		timeline: DefaultTimeline(),
		logger:   zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.agg = NewAggregator(events, s.chunk, s.metrics)
	return s
}

// Today is the default reference date.
func (s *Service) Today() time.Time { return Day(s.now()) }

func (s *Service) Catalog() []CatalogEntry { return s.registry.Catalog() }

// ListResult is one page of a family's nominal list.
type ListResult struct {
	Results []*PersonResult
	Total   int
}

// List evaluates one page of the cohort.
func (s *Service) List(ctx context.Context, family Family, f Filter, page pagination.Params) (*ListResult, error) {
	start := time.Now()
	spec, err := s.registry.Get(family)
	if err != nil {
		return nil, err
	}
	results, total, err := s.compute(ctx, spec, f, page.Limit(), page.Offset())
	s.observe(family, "list", start, err)
	if err != nil {
		s.logFailure(err, family, f, "list")
		return nil, err
	}
	return &ListResult{Results: results, Total: total}, nil
}

// Ranking scores every team for a family. Results are cached per family,
// period and filter.
func (s *Service) Ranking(ctx context.Context, family Family, f Filter) ([]TeamScore, error) {
	start := time.Now()
	spec, err := s.registry.Get(family)
	if err != nil {
		return nil, err
	}

	key := rankingKey(family, f)
	if cached, ok := s.cached(ctx, key); ok {
		return cached, nil
	}

	scores, err := s.rank(ctx, spec, f)
	s.observe(family, "ranking", start, err)
	if err != nil {
		s.logFailure(err, family, f, "ranking")
		return nil, err
	}

	if data, err := json.Marshal(scores); err == nil {
		if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("ranking cache write failed")
		}
	}
	return scores, nil
}

func (s *Service) rank(ctx context.Context, spec *Spec, f Filter) ([]TeamScore, error) {
	teams, err := s.teams.ClinicalTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	var seeds []string
	for _, t := range teams {
		if t.Matches(f.Team) {
			seeds = append(seeds, t.Name)
		}
	}

	results, _, err := s.compute(ctx, spec, f, 0, 0)
	if err != nil {
		return nil, err
	}
	return AssembleRanking(spec, seeds, results, func(team string) bool {
		return team == NoTeam || territory.IsClinical(team)
	}), nil
}

// compute runs one extraction, aggregation and evaluation pass.
func (s *Service) compute(ctx context.Context, spec *Spec, f Filter, limit, offset int) ([]*PersonResult, int, error) {
	members, total, err := s.people.Cohort(ctx, CohortQuery{
		Cohort:   spec.Cohort,
		Filter:   f,
		Timeline: s.timeline,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("extract %s cohort: %w", spec.Family, err)
	}
	if s.metrics != nil {
		s.metrics.SetCohortSize(string(spec.Family), total)
	}
	if len(members) == 0 {
		return []*PersonResult{}, total, nil
	}

	keys := make([]int64, len(members))
	for i, m := range members {
		keys[i] = m.Key
	}
	histories, err := s.agg.Collect(ctx, keys, f.Period.Ref, spec.Since(f.Period))
	if err != nil {
		return nil, 0, err
	}

	subjects := make([]*Subject, len(members))
	for i, m := range members {
		subjects[i] = &Subject{
			Member:   m,
			Ref:      Day(f.Period.Ref),
			Period:   f.Period,
			Events:   histories[m.Key],
			Timeline: s.timeline,
		}
	}
	results, err := EvaluateAll(ctx, spec, subjects, s.workers)
	if err != nil {
		return nil, 0, fmt.Errorf("evaluate %s: %w", spec.Family, err)
	}
	return results, total, nil
}

func (s *Service) cached(ctx context.Context, key string) ([]TeamScore, bool) {
	data, err := s.cache.Get(ctx, key)
	switch {
	case errors.Is(err, cache.ErrMiss):
		s.cacheLookup("miss")
		return nil, false
	case err != nil:
		s.cacheLookup("error")
		s.logger.Warn().Err(err).Str("key", key).Msg("ranking cache read failed")
		return nil, false
	}
	var scores []TeamScore
	if err := json.Unmarshal(data, &scores); err != nil {
		s.cacheLookup("error")
		s.logger.Warn().Err(err).Str("key", key).Msg("ranking cache entry corrupt")
		return nil, false
	}
	s.cacheLookup("hit")
	return scores, true
}

func (s *Service) cacheLookup(result string) {
	if s.metrics != nil {
		s.metrics.CacheLookup(result)
	}
}

// InvalidateCache drops cached rankings of one family, or of every family
// when family is empty.
func (s *Service) InvalidateCache(ctx context.Context, family Family) (int, error) {
	prefix := cache.Key("ranking") + "|"
	if family != "" {
		if _, err := s.registry.Get(family); err != nil {
			return 0, err
		}
		prefix = cache.Key("ranking", string(family)) + "|"
	}
	n, err := s.cache.Invalidate(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("invalidate ranking cache: %w", err)
	}
	s.logger.Info().Str("family", string(family)).Int("entries", n).Msg("ranking cache invalidated")
	return n, nil
}

func rankingKey(family Family, f Filter) string {
	return cache.Key("ranking", string(family), f.Period.Key(), f.Team, f.Subarea)
}

// VaccinationCard is a child's vaccination history.
type VaccinationCard struct {
	Person       Person              `json:"person"`
	Vaccinations []VaccinationRecord `json:"vaccinations"`
}

type VaccinationRecord struct {
	Date  string `json:"date"`
	Codes string `json:"codes"`
	Dose  string `json:"dose,omitempty"`
	Team  string `json:"team,omitempty"`
}

// ChildVaccinations returns every vaccination of one person up to today.
func (s *Service) ChildVaccinations(ctx context.Context, key int64) (*VaccinationCard, error) {
	p, err := s.people.Person(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error().Err(err).Int64("person", key).Msg("load person failed")
		}
		return nil, err
	}
	histories, err := s.agg.Collect(ctx, []int64{key}, s.Today(), map[EventKind]time.Time{KindVaccination: {}})
	if err != nil {
		s.logger.Error().Err(err).Int64("person", key).Msg("load vaccinations failed")
		return nil, err
	}
	card := &VaccinationCard{Person: *p, Vaccinations: []VaccinationRecord{}}
	for _, e := range histories[key] {
		card.Vaccinations = append(card.Vaccinations, VaccinationRecord{
			Date:  e.Date.Format("2006-01-02"),
			Codes: e.Codes,
			Dose:  e.Dose,
			Team:  e.Team,
		})
	}
	return card, nil
}

func (s *Service) observe(family Family, view string, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.ObserveComputation(string(family), view, time.Since(start), err)
	}
}

func (s *Service) logFailure(err error, family Family, f Filter, view string) {
	s.logger.Error().Err(err).
		Str("family", string(family)).
		Str("view", view).
		Str("team", f.Team).
		Str("subarea", f.Subarea).
		Str("reference_date", f.Period.Ref.Format("2006-01-02")).
		Msg("indicator computation failed")
}
