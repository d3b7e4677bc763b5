package indicator

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// minShard is the smallest cohort slice worth a goroutine.
const minShard = 256

// Evaluate runs every rule of spec against one subject and scores it.
func Evaluate(spec *Spec, s *Subject) *PersonResult {
	r := &PersonResult{Member: s.Member, Outcomes: make(map[string]RuleResult, len(spec.Rules))}
	for _, rule := range spec.Rules {
		r.Outcomes[rule.Key] = rule.Eval(s)
	}
	if spec.Measure != nil {
		r.Numerator, r.Denominator = spec.Measure(s, r.Outcomes)
	}
	spec.Scoring.ScorePerson(spec, r)
	if spec.Extra != nil {
		r.Extra = spec.Extra(s)
	}
	return r
}

// EvaluateAll evaluates subjects across up to workers goroutines. Result i
// belongs to subject i.
func EvaluateAll(ctx context.Context, spec *Spec, subjects []*Subject, workers int) ([]*PersonResult, error) {
	results := make([]*PersonResult, len(subjects))
	if workers < 1 {
		workers = 1
	}
	shard := (len(subjects) + workers - 1) / workers
	if shard < minShard {
		shard = minShard
	}

	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < len(subjects); start += shard {
		end := start + shard
		if end > len(subjects) {
			end = len(subjects)
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				results[i] = Evaluate(spec, subjects[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Tally aggregates the results of one team.
func Tally(spec *Spec, team string, results []*PersonResult) TeamScore {
	ts := TeamScore{Team: team, People: len(results), Rules: make(map[string]RuleTally, len(spec.Rules))}
	for _, rule := range spec.Rules {
		var t RuleTally
		for _, r := range results {
			switch r.Outcomes[rule.Key].Outcome {
			case Yes:
				t.Yes++
				t.Eligible++
			case No:
				t.Eligible++
			}
		}
		ts.Rules[rule.Key] = t
	}
	spec.Scoring.ScoreTeam(spec, &ts, results)
	ts.Band = spec.Bands.Classify(ts.Percentage)
	return ts
}
