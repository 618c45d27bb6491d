package impute

import (
	"context"
	"errors"
	"fmt"

	tb "github.com/wdm0006/mice/pkg/table"
)

// ErrAllMissing is returned when a column has no present value to derive a
// fill statistic from.
var ErrAllMissing = errors.New("column has no observed values")

// Mode fills nulls with the most frequent present value. Ties resolve to the
// smallest value so the result does not depend on row order.
type Mode struct{ Column string }

func (t *Mode) Name() string { return "impute_mode" }

func (t *Mode) Apply(ctx context.Context, f *tb.Table) (*tb.Table, error) {
	col, ok := f.ColumnByName(t.Column)
	if !ok {
		return nil, fmt.Errorf("%w: %s", tb.ErrUnknownColumn, t.Column)
	}
	switch c := col.(type) {
	case *tb.IntColumn:
		counts := map[int64]int{}
		for i := 0; i < c.Len(); i++ {
			if v, ok := c.Get(i); ok {
				counts[v]++
			}
		}
		if len(counts) == 0 {
			return f, allMissing(c)
		}
		var best int64
		bestc := 0
		for v, n := range counts {
			if n > bestc || (n == bestc && v < best) {
				best, bestc = v, n
			}
		}
		for i := 0; i < c.Len(); i++ {
			if c.IsNull(i) {
				c.Set(i, best)
			}
		}
	case tb.Categorical:
		counts := map[string]int{}
		for i := 0; i < c.Len(); i++ {
			if v, ok := c.Label(i); ok {
				counts[v]++
			}
		}
		if len(counts) == 0 {
			return f, allMissing(c)
		}
		var best string
		bestc := 0
		for v, n := range counts {
			if n > bestc || (n == bestc && v < best) {
				best, bestc = v, n
			}
		}
		for i := 0; i < c.Len(); i++ {
			if c.IsNull(i) {
				if err := c.SetLabel(i, best); err != nil {
					return nil, err
				}
			}
		}
	default:
		return nil, fmt.Errorf("column %s is %s, mode needs categorical or int", t.Column, col.Kind())
	}
	return f, nil
}

// allMissing returns nil for empty columns, which have nothing to fill.
func allMissing(c tb.Column) error {
	if c.Len() == 0 {
		return nil
	}
	return fmt.Errorf("%w: column %s", ErrAllMissing, c.Name())
}
