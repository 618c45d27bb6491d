package prepare

import (
	"context"
	"math"

	tb "github.com/wdm0006/mice/pkg/table"
)

// Cap clamps present numeric cells into [Min, Max]. Integer columns clamp
// to the integers inside the range.
type Cap struct {
	Column string
	Min    *float64
	Max    *float64
}

func (t *Cap) Name() string { return "cap_range" }

func (t *Cap) Apply(ctx context.Context, f *tb.Table) (*tb.Table, error) {
	c, err := numericColumn(f, t.Column)
	if err != nil {
		return nil, err
	}
	lo, hi := math.Inf(-1), math.Inf(1)
	if t.Min != nil {
		lo = *t.Min
	}
	if t.Max != nil {
		hi = *t.Max
	}
	if c.Kind() == tb.KindInt {
		lo, hi = math.Ceil(lo), math.Floor(hi)
	}
	for i := 0; i < c.Len(); i++ {
		v, ok := c.Float(i)
		if !ok {
			continue
		}
		if v < lo {
			c.SetFloat(i, lo)
		} else if v > hi {
			c.SetFloat(i, hi)
		}
	}
	return f, nil
}
