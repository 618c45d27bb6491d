package impute

import (
	"context"
	"testing"

	tb "github.com/wdm0006/mice/pkg/table"
)

func makeLargeFloatTable(n int) *tb.Table {
	s := tb.Schema{Columns: []tb.ColumnSchema{{Name: "x", Type: tb.KindFloat}}}
	f := tb.New(s)
	for i := 0; i < n; i++ {
		f.AppendNullRow()
	}
	col, _ := f.ColumnByName("x")
	c := col.(*tb.FloatColumn)
	for i := 0; i < n; i += 2 {
		c.Set(i, float64(i%10))
	}
	return f
}

func BenchmarkInitial(b *testing.B) {
	base := makeLargeFloatTable(10000)
	in := &Initial{}
	for n := 0; n < b.N; n++ {
		if _, err := in.Apply(context.Background(), base); err != nil {
			b.Fatal(err)
		}
	}
}
