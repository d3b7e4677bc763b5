package indicator

import "math"

type Band string

const (
	BandRegular    Band = "Regular"
	BandSufficient Band = "Sufficient"
	BandGood       Band = "Good"
	BandOptimal    Band = "Optimal"
)

// Level matches percentages in (Above, UpTo].
type Level struct {
	Band  Band    `json:"band"`
	Above float64 `json:"above"`
	UpTo  float64 `json:"up_to"`
}

// BandTable maps a percentage to a qualitative band. Levels are checked in
// order and Default applies when none matches.
type BandTable struct {
	Name    string  `json:"name"`
	Levels  []Level `json:"levels"`
	Default Band    `json:"default"`
}

// Classify rounds pct to two decimals before matching.
func (t BandTable) Classify(pct float64) Band {
	p := Round2(pct)
	for _, l := range t.Levels {
		if p > l.Above && p <= l.UpTo {
			return l.Band
		}
	}
	return t.Default
}

// AbsoluteBands splits 0-100 into quarters, upper bounds inclusive.
var AbsoluteBands = BandTable{
	Name: "absolute",
	Levels: []Level{
		{Band: BandOptimal, Above: 75, UpTo: math.MaxFloat64},
		{Band: BandGood, Above: 50, UpTo: 75},
		{Band: BandSufficient, Above: 25, UpTo: 50},
	},
	Default: BandRegular,
}

// AccessBands rates the programmed-care share. Shares above 70% fall back
// to Regular.
var AccessBands = BandTable{
	Name: "access",
	Levels: []Level{
		{Band: BandOptimal, Above: 50, UpTo: 70},
		{Band: BandGood, Above: 30, UpTo: 50},
		{Band: BandSufficient, Above: 10, UpTo: 30},
	},
	Default: BandRegular,
}

func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
