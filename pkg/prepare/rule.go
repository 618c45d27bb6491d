package prepare

import (
	"errors"
	"fmt"
	"regexp"

	tb "github.com/wdm0006/mice/pkg/table"
)

// Rule is the file form of the cleaning applied to one column. Steps run in
// field order: trim, lower, map, null_pattern, allowed, then the range,
// which nulls out-of-range cells unless Cap is set.
type Rule struct {
	Column      string            `json:"column" yaml:"column" toml:"column"`
	Trim        bool              `json:"trim" yaml:"trim" toml:"trim"`
	Lower       bool              `json:"lower" yaml:"lower" toml:"lower"`
	Map         map[string]string `json:"map" yaml:"map" toml:"map"`
	NullPattern string            `json:"null_pattern" yaml:"null_pattern" toml:"null_pattern"`
	Allowed     []string          `json:"allowed" yaml:"allowed" toml:"allowed"`
	Min         *float64          `json:"min" yaml:"min" toml:"min"`
	Max         *float64          `json:"max" yaml:"max" toml:"max"`
	Cap         bool              `json:"cap" yaml:"cap" toml:"cap"`
}

// Validate checks a rule without a table at hand.
func (r Rule) Validate() error {
	var errs []error
	if r.Column == "" {
		errs = append(errs, errors.New("rule without column"))
	}
	if r.NullPattern != "" {
		if _, err := regexp.Compile(r.NullPattern); err != nil {
			errs = append(errs, fmt.Errorf("column %s: %w", r.Column, err))
		}
	}
	if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
		errs = append(errs, fmt.Errorf("column %s: min %v above max %v", r.Column, *r.Min, *r.Max))
	}
	if r.Cap && r.Min == nil && r.Max == nil {
		errs = append(errs, fmt.Errorf("column %s: cap needs min or max", r.Column))
	}
	return errors.Join(errs...)
}

// Pipeline expands rules into transforms. It returns an empty pipeline for
// no rules.
func Pipeline(rules []Rule) (*tb.Pipeline, error) {
	p := tb.NewPipeline()
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if r.Trim {
			p.Add(&Trim{Column: r.Column})
		}
		if r.Lower {
			p.Add(&Lower{Column: r.Column})
		}
		if len(r.Map) > 0 {
			p.Add(&MapValues{Column: r.Column, Map: r.Map})
		}
		if r.NullPattern != "" {
			p.Add(&NullMatching{Column: r.Column, Pattern: r.NullPattern})
		}
		if len(r.Allowed) > 0 {
			p.Add(NewNullUnless(r.Column, r.Allowed))
		}
		switch {
		case r.Min == nil && r.Max == nil:
		case r.Cap:
			p.Add(&Cap{Column: r.Column, Min: r.Min, Max: r.Max})
		default:
			p.Add(&NullOutside{Column: r.Column, Min: r.Min, Max: r.Max})
		}
	}
	return p, nil
}
