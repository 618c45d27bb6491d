package impute

import (
	"context"
	"fmt"

	"github.com/montanaflynn/stats"
	tb "github.com/wdm0006/mice/pkg/table"
)

// Mean fills nulls of a numeric column with the mean of its present values.
// Int columns receive the mean rounded half away from zero.
type Mean struct{ Column string }

func (t *Mean) Name() string { return "impute_mean" }

func (t *Mean) Apply(ctx context.Context, f *tb.Table) (*tb.Table, error) {
	c, err := numericColumn(f, t.Column)
	if err != nil {
		return nil, err
	}
	vals, nulls := present(c)
	if nulls == 0 {
		return f, nil
	}
	mean, err := stats.Mean(vals)
	if err != nil {
		return nil, fmt.Errorf("%w: column %s: %w", ErrAllMissing, t.Column, err)
	}
	fill(c, mean)
	return f, nil
}

func numericColumn(f *tb.Table, name string) (tb.Numeric, error) {
	col, ok := f.ColumnByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", tb.ErrUnknownColumn, name)
	}
	c, ok := col.(tb.Numeric)
	if !ok {
		return nil, fmt.Errorf("column %s is %s, not numeric", name, col.Kind())
	}
	return c, nil
}

// present returns the non-null values of c and the number of nulls.
func present(c tb.Numeric) (stats.Float64Data, int) {
	vals := make(stats.Float64Data, 0, c.Len())
	nulls := 0
	for i := 0; i < c.Len(); i++ {
		v, ok := c.Float(i)
		if !ok {
			nulls++
			continue
		}
		vals = append(vals, v)
	}
	return vals, nulls
}

func fill(c tb.Numeric, v float64) {
	for i := 0; i < c.Len(); i++ {
		if c.IsNull(i) {
			c.SetFloat(i, v)
		}
	}
}
