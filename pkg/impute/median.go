package impute

import (
	"context"
	"fmt"

	"github.com/montanaflynn/stats"
	tb "github.com/wdm0006/mice/pkg/table"
)

type Median struct{ Column string }

func (t *Median) Name() string { return "impute_median" }

func (t *Median) Apply(ctx context.Context, f *tb.Table) (*tb.Table, error) {
	c, err := numericColumn(f, t.Column)
	if err != nil {
		return nil, err
	}
	vals, nulls := present(c)
	if nulls == 0 {
		return f, nil
	}
	med, err := stats.Median(vals)
	if err != nil {
		return nil, fmt.Errorf("%w: column %s: %w", ErrAllMissing, t.Column, err)
	}
	fill(c, med)
	return f, nil
}
