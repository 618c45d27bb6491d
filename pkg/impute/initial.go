package impute

import (
	"context"
	"fmt"
	"slices"
	"strings"

	tb "github.com/wdm0006/mice/pkg/table"
)

// Statistic selects how numeric columns are initially filled.
type Statistic string

const (
	StatMean   Statistic = "mean"
	StatMedian Statistic = "median"
)

// Initial produces a complete starting table: numeric nulls get the column
// mean (or median), categorical nulls the column mode. Constants overrides the
// fill value for individual columns. The input table is never modified.
//
// A column with nulls but no present values makes Apply fail with
// ErrAllMissing.
type Initial struct {
	Numeric   Statistic
	Constants map[string]any
}

func (in *Initial) Name() string { return "impute_initial" }

// Pipeline returns the per-column steps Apply runs for schema s.
// Constants naming no column of s are an error.
func (in *Initial) Pipeline(s tb.Schema) (*tb.Pipeline, error) {
	var unknown []string
	for name := range in.Constants {
		if !slices.Contains(s.Names(), name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return nil, fmt.Errorf("constants: %w: %s", tb.ErrUnknownColumn, strings.Join(unknown, ", "))
	}
	p := tb.NewPipeline()
	for _, cs := range s.Columns {
		if v, ok := in.Constants[cs.Name]; ok {
			p.Add(&Constant{Column: cs.Name, Value: v})
			continue
		}
		switch {
		case cs.Type.IsNumeric():
			switch in.Numeric {
			case "", StatMean:
				p.Add(&Mean{Column: cs.Name})
			case StatMedian:
				p.Add(&Median{Column: cs.Name})
			default:
				return nil, fmt.Errorf("unknown numeric statistic %q", in.Numeric)
			}
		case cs.Type.IsCategorical():
			p.Add(&Mode{Column: cs.Name})
		default:
			return nil, fmt.Errorf("column %s has unsupported kind %s", cs.Name, cs.Type)
		}
	}
	return p, nil
}

func (in *Initial) Apply(ctx context.Context, t *tb.Table) (*tb.Table, error) {
	p, err := in.Pipeline(t.Schema())
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, t.Clone())
}
