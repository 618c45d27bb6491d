package parquetio

import (
	"math"
	"path/filepath"
	"testing"

	parquet "github.com/segmentio/parquet-go"

	tb "github.com/wdm0006/mice/pkg/table"
)

func makeTable(rows int) *tb.Table {
	s := tb.Schema{Columns: []tb.ColumnSchema{
		{Name: "a", Type: tb.KindFloat},
		{Name: "b", Type: tb.KindInt},
		{Name: "c", Type: tb.KindString},
		{Name: "d", Type: tb.KindBool},
	}}
	t := tb.New(s)
	for i := 0; i < rows; i++ {
		t.AppendNullRow()
		_ = t.SetCell(i, "a", float64(i%100)+0.5)
		if i%7 != 0 {
			_ = t.SetCell(i, "b", int64(i%10))
		}
		_ = t.SetCell(i, "c", []string{"x", "y", "z"}[i%3])
		if i%5 != 0 {
			_ = t.SetCell(i, "d", i%2 == 0)
		}
	}
	return t
}

func TestRoundTrip(t *testing.T) {
	in := makeTable(50)
	p := filepath.Join(t.TempDir(), "t.parquet")
	if err := WriteAll(p, in); err != nil {
		t.Fatal(err)
	}
	out, err := Read(p)
	if err != nil {
		t.Fatal(err)
	}
	if !tb.Equal(in, out) {
		t.Fatalf("round trip differs: %v vs %v", in.Schema(), out.Schema())
	}
}

func TestNaNReadsAsMissing(t *testing.T) {
	tab := tb.New(tb.Schema{Columns: []tb.ColumnSchema{
		{Name: "a", Type: tb.KindFloat},
		{Name: "b", Type: tb.KindFloat},
		{Name: "c", Type: tb.KindInt},
	}})
	row := parquet.Row{
		parquet.ValueOf(math.NaN()).Level(0, 1, 0),
		parquet.ValueOf(float32(math.NaN())).Level(0, 1, 1),
		parquet.ValueOf(int64(4)).Level(0, 1, 2),
	}
	if err := setRow(tab, row); err != nil {
		t.Fatal(err)
	}
	if err := setRow(tab, parquet.Row{parquet.ValueOf(1.5).Level(0, 1, 0)}); err != nil {
		t.Fatal(err)
	}
	if tab.Value(0, 0) != nil || tab.Value(0, 1) != nil {
		t.Fatalf("NaN kept as a value: %v %v", tab.Value(0, 0), tab.Value(0, 1))
	}
	if v := tab.Value(0, 2); v != int64(4) {
		t.Fatalf("c = %v", v)
	}
	if v := tab.Value(1, 0); v != 1.5 {
		t.Fatalf("a[1] = %v", v)
	}
}

func TestRejectsBadColumnName(t *testing.T) {
	s := tb.Schema{Columns: []tb.ColumnSchema{{Name: "a,b", Type: tb.KindFloat}}}
	if err := WriteAll(filepath.Join(t.TempDir(), "x.parquet"), tb.New(s)); err == nil {
		t.Fatal("expected error")
	}
}

func BenchmarkParquetWrite(b *testing.B) {
	t := makeTable(50000)
	path := filepath.Join(b.TempDir(), "bench.parquet")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := WriteAll(path, t); err != nil {
			b.Fatal(err)
		}
	}
}
