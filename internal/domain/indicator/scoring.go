package indicator

// Scoring turns rule outcomes into person and team scores.
type Scoring interface {
	Name() string
	ScorePerson(spec *Spec, r *PersonResult)
	ScoreTeam(spec *Spec, ts *TeamScore, results []*PersonResult)
}

// AccumulatedPoints sums the weights of met rules. A team's percentage is
// its points over the points its members could have earned, so rules that
// do not apply yet neither add nor subtract.
type AccumulatedPoints struct{}

func (AccumulatedPoints) Name() string { return "accumulated_points" }

func (AccumulatedPoints) ScorePerson(spec *Spec, r *PersonResult) {
	scorePoints(spec, r)
}

func (AccumulatedPoints) ScoreTeam(_ *Spec, ts *TeamScore, results []*PersonResult) {
	var points, possible float64
	for _, r := range results {
		points += r.Points
		possible += r.Possible
	}
	ts.Numerator = points
	ts.Denominator = float64(len(results))
	if possible > 0 {
		ts.Percentage = Round2(points / possible * 100)
	}
}

// WeightedRuleRatio scores each rule as met/eligible across the team and
// sums the ratios times their weights. Rules nobody is eligible for add 0.
type WeightedRuleRatio struct{}

func (WeightedRuleRatio) Name() string { return "weighted_rule_ratio" }

func (WeightedRuleRatio) ScorePerson(spec *Spec, r *PersonResult) {
	scorePoints(spec, r)
}

func (WeightedRuleRatio) ScoreTeam(spec *Spec, ts *TeamScore, results []*PersonResult) {
	var pct, points float64
	for _, rule := range spec.Rules {
		t := ts.Rules[rule.Key]
		if t.Eligible > 0 {
			pct += float64(t.Yes) / float64(t.Eligible) * rule.Weight
		}
	}
	for _, r := range results {
		points += r.Points
	}
	ts.Numerator = points
	ts.Denominator = float64(len(results))
	ts.Percentage = Round2(pct)
}

// SingleRatio divides summed numerators by summed denominators, both
// produced per person by the family's Measure.
type SingleRatio struct{}

func (SingleRatio) Name() string { return "single_ratio" }

func (SingleRatio) ScorePerson(_ *Spec, r *PersonResult) {
	r.Score = 0
	if r.Denominator > 0 {
		r.Score = Round2(r.Numerator / r.Denominator * 100)
	}
}

func (SingleRatio) ScoreTeam(_ *Spec, ts *TeamScore, results []*PersonResult) {
	var num, den float64
	for _, r := range results {
		num += r.Numerator
		den += r.Denominator
	}
	ts.Numerator = num
	ts.Denominator = den
	if den > 0 {
		ts.Percentage = Round2(num / den * 100)
	}
}

func scorePoints(spec *Spec, r *PersonResult) {
	r.Points, r.Possible = 0, 0
	for _, rule := range spec.Rules {
		res := r.Outcomes[rule.Key]
		switch res.Outcome {
		case Yes:
			r.Points += rule.Weight
			r.Possible += rule.Weight
		case No:
			r.Possible += rule.Weight
		}
	}
	r.Score = 0
	if r.Possible > 0 {
		r.Score = Round2(r.Points / r.Possible * 100)
	}
}
