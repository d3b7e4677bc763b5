package indicator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ehr/indicators/internal/domain/territory"
	"github.com/ehr/indicators/internal/platform/cache"
	"github.com/ehr/indicators/internal/platform/metrics"
	"github.com/ehr/indicators/pkg/pagination"
)

// countingPeople counts cohort extractions.
type countingPeople struct {
	PopulationRepository
	calls atomic.Int32
}

func (c *countingPeople) Cohort(ctx context.Context, q CohortQuery) ([]Member, int, error) {
	c.calls.Add(1)
	return c.PopulationRepository.Cohort(ctx, q)
}

type failingPeople struct{}

func (failingPeople) Cohort(context.Context, CohortQuery) ([]Member, int, error) {
	return nil, 0, errors.New("connection refused")
}

func (failingPeople) Person(context.Context, int64) (*Person, error) {
	return nil, errors.New("connection refused")
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, error) { return nil, errors.New("down") }
func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("down")
}
func (failingCache) Invalidate(context.Context, string) (int, error) { return 0, errors.New("down") }

func testTeams() *territory.Service {
	repo := territory.NewMemoryRepo()
	repo.AddTeam(territory.Team{Code: "0001", Name: "ESF A"})
	repo.AddTeam(territory.Team{Code: "0002", Name: "ESF B"})
	repo.AddTeam(territory.Team{Code: "0003", Name: "ESB BUCAL"})
	return territory.NewService(repo)
}

func newTestService(t *testing.T, people PopulationRepository, opts ...Option) *Service {
	t.Helper()
	store := newTestStore()
	store.AddEvent(consultation(1, "2023-09-10", cboNurse))
	store.AddEvent(Event{Person: 1, Kind: KindVaccination, Date: day("2023-11-01"), Codes: "|42|", Dose: "1", Team: "ESF A"})
	if people == nil {
		people = store
	}
	opts = append([]Option{
		WithClock(func() time.Time { return day("2024-06-30") }),
		WithMetrics(metrics.New()),
		WithWorkers(2),
	}, opts...)
	return NewService(mustRegistry(t), people, store, testTeams(), opts...)
}

func ytd() Filter { return Filter{Period: YearToDate(day("2024-06-30"))} }

func TestService_List(t *testing.T) {
	svc := newTestService(t, nil)
	res, err := svc.List(context.Background(), FamilyInfant, ytd(), pagination.Params{Page: 1, Size: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.Total != 3 || len(res.Results) != 2 {
		t.Fatalf("expected 2 of 3 results, got %d of %d", len(res.Results), res.Total)
	}

	all, _ := svc.List(context.Background(), FamilyInfant, ytd(), pagination.Params{Export: true})
	var bruno *PersonResult
	for _, r := range all.Results {
		if r.Key == 1 {
			bruno = r
		}
	}
	if bruno == nil || bruno.Outcomes["a"].Outcome != Yes || bruno.Points != 20 {
		t.Errorf("expected early consultation to score, got %+v", bruno)
	}
}

func TestService_ListUnknownFamily(t *testing.T) {
	_, err := newTestService(t, nil).List(context.Background(), "dialysis", ytd(), pagination.Params{Page: 1, Size: 15})
	if !errors.Is(err, ErrUnknownFamily) {
		t.Errorf("expected ErrUnknownFamily, got %v", err)
	}
}

func TestService_Ranking(t *testing.T) {
	svc := newTestService(t, nil)
	scores, err := svc.Ranking(context.Background(), FamilyInfant, ytd())
	if err != nil {
		t.Fatalf("ranking: %v", err)
	}
	var names []string
	for _, s := range scores {
		names = append(names, s.Team)
	}
	if len(names) != 3 || names[0] != "ESF A" || names[1] != "ESF B" || names[2] != NoTeam {
		t.Errorf("unexpected ranking %v", names)
	}
	if scores[0].Percentage != 20 || scores[1].Percentage != 0 {
		t.Errorf("unexpected percentages %+v", scores)
	}
}

func TestService_RankingTeamFilterSeedsOneTeam(t *testing.T) {
	f := ytd()
	f.Team = "0002"
	scores, err := newTestService(t, nil).Ranking(context.Background(), FamilyInfant, f)
	if err != nil {
		t.Fatalf("ranking: %v", err)
	}
	if len(scores) != 1 || scores[0].Team != "ESF B" {
		t.Errorf("expected only the filtered team, got %+v", scores)
	}
}

func TestService_RankingIsCached(t *testing.T) {
	people := &countingPeople{PopulationRepository: newTestStore()}
	svc := newTestService(t, people)
	ctx := context.Background()

	first, err := svc.Ranking(ctx, FamilyInfant, ytd())
	if err != nil {
		t.Fatalf("ranking: %v", err)
	}
	second, _ := svc.Ranking(ctx, FamilyInfant, ytd())
	if people.calls.Load() != 1 {
		t.Errorf("expected cached second call, got %d extractions", people.calls.Load())
	}
	if len(first) != len(second) || first[0].Team != second[0].Team {
		t.Errorf("cached ranking differs: %+v vs %+v", first, second)
	}

	other := ytd()
	other.Subarea = "2"
	svc.Ranking(ctx, FamilyInfant, other)
	if people.calls.Load() != 2 {
		t.Errorf("expected a different filter to miss, got %d extractions", people.calls.Load())
	}

	n, err := svc.InvalidateCache(ctx, FamilyInfant)
	if err != nil || n != 2 {
		t.Fatalf("expected 2 entries invalidated, got %d %v", n, err)
	}
	svc.Ranking(ctx, FamilyInfant, ytd())
	if people.calls.Load() != 3 {
		t.Errorf("expected recomputation after invalidation, got %d extractions", people.calls.Load())
	}
}

func TestService_InvalidateOtherFamilyKeepsEntries(t *testing.T) {
	store := cache.NewMemory()
	svc := newTestService(t, nil, WithCache(store, time.Minute))
	ctx := context.Background()
	svc.Ranking(ctx, FamilyInfant, ytd())

	if n, _ := svc.InvalidateCache(ctx, FamilyElderly); n != 0 {
		t.Errorf("expected no elderly entries, got %d", n)
	}
	if store.Len() != 1 {
		t.Errorf("expected infant ranking kept, got %d entries", store.Len())
	}
	if _, err := svc.InvalidateCache(ctx, "dialysis"); !errors.Is(err, ErrUnknownFamily) {
		t.Errorf("expected ErrUnknownFamily, got %v", err)
	}
	if n, _ := svc.InvalidateCache(ctx, ""); n != 1 {
		t.Errorf("expected every family cleared, got %d", n)
	}
}

func TestService_CacheFailureFallsBackToCompute(t *testing.T) {
	svc := newTestService(t, nil, WithCache(failingCache{}, time.Minute))
	scores, err := svc.Ranking(context.Background(), FamilyInfant, ytd())
	if err != nil || len(scores) != 3 {
		t.Fatalf("expected ranking despite cache failure, got %v %v", scores, err)
	}
}

func TestService_StoreError(t *testing.T) {
	svc := newTestService(t, failingPeople{})
	_, err := svc.Ranking(context.Background(), FamilyInfant, ytd())
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrUnknownFamily) || errors.Is(err, ErrNotFound) {
		t.Errorf("expected an internal error, got %v", err)
	}
}

func TestService_ChildVaccinations(t *testing.T) {
	svc := newTestService(t, nil)
	card, err := svc.ChildVaccinations(context.Background(), 1)
	if err != nil {
		t.Fatalf("vaccinations: %v", err)
	}
	if card.Person.Name != "Bruno" || len(card.Vaccinations) != 1 {
		t.Fatalf("unexpected card %+v", card)
	}
	v := card.Vaccinations[0]
	if v.Date != "2023-11-01" || v.Dose != "1" || v.Team != "ESF A" {
		t.Errorf("unexpected record %+v", v)
	}

	if _, err := svc.ChildVaccinations(context.Background(), 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
