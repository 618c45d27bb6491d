// Package prepare cleans a table before imputation. Besides normalizing
// labels, its masking transforms turn invalid cells into missing ones so
// the imputer fills them like any other gap.
package prepare

import (
	"context"
	"fmt"
	"strings"

	tb "github.com/wdm0006/mice/pkg/table"
)

func stringColumn(t *tb.Table, name string) (*tb.StringColumn, error) {
	col, ok := t.ColumnByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", tb.ErrUnknownColumn, name)
	}
	sc, ok := col.(*tb.StringColumn)
	if !ok {
		return nil, fmt.Errorf("column %s is %s, want string", name, col.Kind())
	}
	return sc, nil
}

// mapStrings rewrites every present cell of a string column.
func mapStrings(t *tb.Table, name string, fn func(string) string) error {
	c, err := stringColumn(t, name)
	if err != nil {
		return err
	}
	for i := 0; i < c.Len(); i++ {
		if v, ok := c.Get(i); ok {
			c.Set(i, fn(v))
		}
	}
	return nil
}

type Trim struct{ Column string }

func (t *Trim) Name() string { return "trim" }

func (t *Trim) Apply(ctx context.Context, f *tb.Table) (*tb.Table, error) {
	return f, mapStrings(f, t.Column, strings.TrimSpace)
}

type Lower struct{ Column string }

func (t *Lower) Name() string { return "lower" }

func (t *Lower) Apply(ctx context.Context, f *tb.Table) (*tb.Table, error) {
	return f, mapStrings(f, t.Column, strings.ToLower)
}

// MapValues replaces labels found in Map; others are left alone.
type MapValues struct {
	Column string
	Map    map[string]string
}

func (t *MapValues) Name() string { return "map_values" }

func (t *MapValues) Apply(ctx context.Context, f *tb.Table) (*tb.Table, error) {
	return f, mapStrings(f, t.Column, func(v string) string {
		if nv, ok := t.Map[v]; ok {
			return nv
		}
		return v
	})
}
