package indicator

import (
	"fmt"
	"math"
	"time"
)

// Rule is one good-practice check. Eval must be total: it sees only the
// subject and never fails.
type Rule struct {
	Key    string
	Name   string
	Weight float64
	Eval   func(s *Subject) RuleResult
}

// Subject is the evaluation input for one cohort member.
type Subject struct {
	Member
	Ref      time.Time
	Period   Period
	Events   Events
	Timeline PregnancyTimeline
}

// Age returns the member's completed years at the reference date.
func (s *Subject) Age() int { return AgeYears(s.BirthDate, s.Ref) }

// Spec describes one indicator family end to end.
type Spec struct {
	Family Family
	Title  string
	Cohort Cohort
	// Lookback lists the event kinds the rules read and how many days
	// before the reference date they reach. 0 means the whole history.
	Lookback map[EventKind]int
	// PeriodScoped restricts events to the request period instead.
	PeriodScoped bool
	Rules        []Rule
	Scoring      Scoring
	Bands        BandTable
	// Measure yields per-person numerator and denominator for SingleRatio.
	Measure func(s *Subject, outcomes map[string]RuleResult) (num, den float64)
	// Extra adds family-specific listing columns.
	Extra func(s *Subject) map[string]string
}

// Since returns the lower date bound per event kind. A zero time means the
// kind is fetched without a lower bound.
func (sp *Spec) Since(p Period) map[EventKind]time.Time {
	out := make(map[EventKind]time.Time, len(sp.Lookback))
	for kind, days := range sp.Lookback {
		switch {
		case sp.PeriodScoped:
			out[kind] = p.From
		case days > 0:
			out[kind] = AddDays(p.Ref, -days)
		default:
			out[kind] = time.Time{}
		}
	}
	return out
}

// Validate checks the static configuration of a spec.
func (sp *Spec) Validate() error {
	if sp.Family == "" || sp.Scoring == nil {
		return fmt.Errorf("spec %q: family and scoring are required", sp.Family)
	}
	seen := map[string]bool{}
	var total float64
	for _, r := range sp.Rules {
		if r.Key == "" || r.Eval == nil {
			return fmt.Errorf("spec %q: rule %q is incomplete", sp.Family, r.Key)
		}
		if seen[r.Key] {
			return fmt.Errorf("spec %q: duplicate rule %q", sp.Family, r.Key)
		}
		seen[r.Key] = true
		total += r.Weight
	}
	switch sp.Scoring.(type) {
	case AccumulatedPoints, WeightedRuleRatio:
		if math.Abs(total-100) > 1e-9 {
			return fmt.Errorf("spec %q: rule weights sum to %v, want 100", sp.Family, total)
		}
	case SingleRatio:
		if sp.Measure == nil {
			return fmt.Errorf("spec %q: single ratio scoring needs a measure", sp.Family)
		}
	}
	return nil
}
