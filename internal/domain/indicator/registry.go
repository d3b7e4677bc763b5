package indicator

import (
	"fmt"
)

// Registry holds the validated spec of every family.
type Registry struct {
	specs map[Family]*Spec
	order []Family
}

// NewRegistry builds all families. The pregnancy windows come from tl.
func NewRegistry(tl PregnancyTimeline) (*Registry, error) {
	r := &Registry{specs: make(map[Family]*Spec)}
	for _, sp := range []*Spec{
		infantSpec(),
		pregnancySpec(tl),
		diabetesSpec(),
		hypertensionSpec(),
		elderlySpec(),
		womenSpec(),
		accessSpec(),
		dentalSpec(),
	} {
		if err := sp.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.specs[sp.Family]; dup {
			return nil, fmt.Errorf("family %q registered twice", sp.Family)
		}
		r.specs[sp.Family] = sp
		r.order = append(r.order, sp.Family)
	}
	return r, nil
}

func (r *Registry) Get(f Family) (*Spec, error) {
	sp, ok := r.specs[f]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, f)
	}
	return sp, nil
}

// Families returns the registered families in registration order.
func (r *Registry) Families() []Family {
	out := make([]Family, len(r.order))
	copy(out, r.order)
	return out
}

// CatalogRule describes one rule for API consumers.
type CatalogRule struct {
	Key    string  `json:"key"`
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// CatalogEntry describes one family for API consumers.
type CatalogEntry struct {
	Family  Family        `json:"family"`
	Title   string        `json:"title"`
	Scoring string        `json:"scoring"`
	Bands   BandTable     `json:"bands"`
	Rules   []CatalogRule `json:"rules"`
}

func (r *Registry) Catalog() []CatalogEntry {
	out := make([]CatalogEntry, 0, len(r.order))
	for _, f := range r.order {
		sp := r.specs[f]
		e := CatalogEntry{Family: f, Title: sp.Title, Scoring: sp.Scoring.Name(), Bands: sp.Bands}
		for _, rule := range sp.Rules {
			e.Rules = append(e.Rules, CatalogRule{Key: rule.Key, Name: rule.Name, Weight: rule.Weight})
		}
		out = append(out, e)
	}
	return out
}
