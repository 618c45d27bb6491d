package prepare

import (
	"context"
	"fmt"
	"regexp"

	tb "github.com/wdm0006/mice/pkg/table"
)

// NullOutside marks numeric cells below Min or above Max as missing.
type NullOutside struct {
	Column string
	Min    *float64
	Max    *float64
}

func (t *NullOutside) Name() string { return "null_outside" }

func (t *NullOutside) Apply(ctx context.Context, f *tb.Table) (*tb.Table, error) {
	c, err := numericColumn(f, t.Column)
	if err != nil {
		return nil, err
	}
	for i := 0; i < c.Len(); i++ {
		v, ok := c.Float(i)
		if !ok {
			continue
		}
		if (t.Min != nil && v < *t.Min) || (t.Max != nil && v > *t.Max) {
			c.SetNull(i)
		}
	}
	return f, nil
}

// NullUnless marks labels outside Values as missing.
type NullUnless struct {
	Column string
	Values map[string]struct{}
}

func NewNullUnless(col string, vals []string) *NullUnless {
	m := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		m[v] = struct{}{}
	}
	return &NullUnless{Column: col, Values: m}
}

func (t *NullUnless) Name() string { return "null_unless" }

func (t *NullUnless) Apply(ctx context.Context, f *tb.Table) (*tb.Table, error) {
	c, err := stringColumn(f, t.Column)
	if err != nil {
		return nil, err
	}
	for i := 0; i < c.Len(); i++ {
		v, ok := c.Get(i)
		if !ok {
			continue
		}
		if _, allowed := t.Values[v]; !allowed {
			c.SetNull(i)
		}
	}
	return f, nil
}

// NullMatching marks labels matching Pattern as missing, for sentinels such
// as "?" or "-999" that a reader cannot know about.
type NullMatching struct {
	Column  string
	Pattern string
	re      *regexp.Regexp
}

func (t *NullMatching) Name() string { return "null_matching" }

func (t *NullMatching) Apply(ctx context.Context, f *tb.Table) (*tb.Table, error) {
	if t.re == nil {
		re, err := regexp.Compile(t.Pattern)
		if err != nil {
			return nil, err
		}
		t.re = re
	}
	c, err := stringColumn(f, t.Column)
	if err != nil {
		return nil, err
	}
	for i := 0; i < c.Len(); i++ {
		if v, ok := c.Get(i); ok && t.re.MatchString(v) {
			c.SetNull(i)
		}
	}
	return f, nil
}

func numericColumn(t *tb.Table, name string) (tb.Numeric, error) {
	col, ok := t.ColumnByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", tb.ErrUnknownColumn, name)
	}
	c, ok := col.(tb.Numeric)
	if !ok {
		return nil, fmt.Errorf("column %s is %s, want a number", name, col.Kind())
	}
	return c, nil
}
