package impute

import (
	"context"
	"fmt"

	tb "github.com/wdm0006/mice/pkg/table"
)

// Constant fills nulls with a fixed value coerced to the column kind.
type Constant struct {
	Column string
	Value  any
}

func (t *Constant) Name() string { return "impute_constant" }

func (t *Constant) Apply(ctx context.Context, f *tb.Table) (*tb.Table, error) {
	col, ok := f.ColumnByName(t.Column)
	if !ok {
		return nil, fmt.Errorf("%w: %s", tb.ErrUnknownColumn, t.Column)
	}
	switch c := col.(type) {
	case tb.Numeric:
		var vv float64
		switch v := t.Value.(type) {
		case int:
			vv = float64(v)
		case int64:
			vv = float64(v)
		case float64:
			vv = v
		default:
			return nil, fmt.Errorf("impute_constant: column %s expects a number, got %T", t.Column, t.Value)
		}
		fill(c, vv)
	case tb.Categorical:
		var label string
		switch v := t.Value.(type) {
		case string:
			label = v
		case bool:
			label = fmt.Sprint(v)
		default:
			return nil, fmt.Errorf("impute_constant: column %s expects a label, got %T", t.Column, t.Value)
		}
		for i := 0; i < c.Len(); i++ {
			if c.IsNull(i) {
				if err := c.SetLabel(i, label); err != nil {
					return nil, err
				}
			}
		}
	}
	return f, nil
}
