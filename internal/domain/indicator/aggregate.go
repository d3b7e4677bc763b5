package indicator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ehr/indicators/internal/platform/metrics"
)

const (
	DefaultChunkSize = 5000
	// maxInflight bounds concurrent store queries of one aggregation.
	maxInflight = 8
)

// Aggregator loads the event histories of a cohort in bulk. Keys are split
// into chunks and every (kind, chunk) pair is one store query, so a pass
// issues ceil(n/chunk) queries per kind.
type Aggregator struct {
	events  EventRepository
	chunk   int
	metrics *metrics.Recorder
}

func NewAggregator(events EventRepository, chunk int, m *metrics.Recorder) *Aggregator {
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	return &Aggregator{events: events, chunk: chunk, metrics: m}
}

// Collect returns each person's events of the kinds in since, dated from
// the kind's lower bound up to ref inclusive, sorted by date. People without
// events are absent from the map.
func (a *Aggregator) Collect(ctx context.Context, keys []int64, ref time.Time, since map[EventKind]time.Time) (map[int64]Events, error) {
	out := make(map[int64]Events, len(keys))
	if len(keys) == 0 || len(since) == 0 {
		return out, nil
	}
	ref = Day(ref)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxInflight)
	for _, kind := range EventKinds {
		from, ok := since[kind]
		if !ok {
			continue
		}
		for start := 0; start < len(keys); start += a.chunk {
			end := start + a.chunk
			if end > len(keys) {
				end = len(keys)
			}
			chunk := keys[start:end]
			g.Go(func() error {
				evs, err := a.events.Events(gctx, kind, chunk, from, ref)
				if err != nil {
					return fmt.Errorf("fetch %s events: %w", kind, err)
				}
				if a.metrics != nil {
					a.metrics.AddEventsFetched(string(kind), len(evs))
				}
				mu.Lock()
				defer mu.Unlock()
				for _, e := range evs {
					if Day(e.Date).After(ref) {
						continue
					}
					e.Kind = kind
					out[e.Person] = append(out[e.Person], e)
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, es := range out {
		SortEvents(es)
	}
	return out, nil
}
