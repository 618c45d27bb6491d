package impute

import (
	"context"
	"errors"
	"strings"
	"testing"

	tb "github.com/wdm0006/mice/pkg/table"
)

func makeFloatTable() *tb.Table {
	s := tb.Schema{Columns: []tb.ColumnSchema{{Name: "x", Type: tb.KindFloat}}}
	f := tb.New(s)
	for i := 0; i < 5; i++ {
		f.AppendNullRow()
	}
	col, _ := f.ColumnByName("x")
	c := col.(*tb.FloatColumn)
	c.Set(0, 1.0)
	c.Set(2, 3.0)
	c.Set(3, 8.0)
	// rows 1,4 remain null
	return f
}

func makeMixedTable() *tb.Table {
	s := tb.Schema{Columns: []tb.ColumnSchema{
		{Name: "x", Type: tb.KindFloat},
		{Name: "n", Type: tb.KindInt},
		{Name: "s", Type: tb.KindString},
		{Name: "b", Type: tb.KindBool},
	}}
	f := tb.New(s)
	rows := []struct {
		x any
		n any
		s any
		b any
	}{
		{1.0, int64(1), "red", true},
		{nil, int64(2), "blue", nil},
		{3.0, nil, nil, false},
		{4.0, int64(2), "red", false},
		{nil, nil, "blue", nil},
	}
	for i, r := range rows {
		f.AppendNullRow()
		_ = f.SetCell(i, "x", r.x)
		_ = f.SetCell(i, "n", r.n)
		_ = f.SetCell(i, "s", r.s)
		_ = f.SetCell(i, "b", r.b)
	}
	return f
}

func TestConstant(t *testing.T) {
	f := makeFloatTable()
	out, err := (&Constant{Column: "x", Value: 2.5}).Apply(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}
	if v := out.Value(1, 0); v != 2.5 {
		t.Fatalf("expected 2.5 at row 1, got %v", v)
	}
	if _, err := (&Constant{Column: "x", Value: "oops"}).Apply(context.Background(), makeFloatTable()); err == nil {
		t.Fatal("expected error for label value on numeric column")
	}
}

func TestMean(t *testing.T) {
	f := makeFloatTable()
	out, err := (&Mean{Column: "x"}).Apply(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range []int{1, 4} {
		if v := out.Value(r, 0); v != 4.0 {
			t.Fatalf("expected mean 4 at row %d, got %v", r, v)
		}
	}
}

func TestMedian(t *testing.T) {
	f := makeFloatTable()
	out, err := (&Median{Column: "x"}).Apply(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}
	if v := out.Value(4, 0); v != 3.0 {
		t.Fatalf("expected median 3, got %v", v)
	}
}

func TestModeTieBreaksLexicographically(t *testing.T) {
	f := makeMixedTable()
	if _, err := (&Mode{Column: "s"}).Apply(context.Background(), f); err != nil {
		t.Fatal(err)
	}
	// red and blue both appear twice
	if v := f.Value(2, 2); v != "blue" {
		t.Fatalf("expected blue, got %v", v)
	}
	if _, err := (&Mode{Column: "b"}).Apply(context.Background(), f); err != nil {
		t.Fatal(err)
	}
	if v := f.Value(1, 3); v != false {
		t.Fatalf("expected false, got %v", v)
	}
}

func TestAllMissingFails(t *testing.T) {
	s := tb.Schema{Columns: []tb.ColumnSchema{{Name: "x", Type: tb.KindFloat}, {Name: "s", Type: tb.KindString}}}
	f := tb.New(s)
	f.AppendNullRow()
	f.AppendNullRow()

	_, err := (&Mean{Column: "x"}).Apply(context.Background(), f)
	if !errors.Is(err, ErrAllMissing) {
		t.Fatalf("expected ErrAllMissing for numeric column, got %v", err)
	}
	_, err = (&Mode{Column: "s"}).Apply(context.Background(), f)
	if !errors.Is(err, ErrAllMissing) {
		t.Fatalf("expected ErrAllMissing for categorical column, got %v", err)
	}
	_, err = (&Initial{}).Apply(context.Background(), f)
	if !errors.Is(err, ErrAllMissing) {
		t.Fatalf("expected initial imputation to fail, got %v", err)
	}
}

func TestInitialLeavesInputUntouched(t *testing.T) {
	f := makeMixedTable()
	before := f.Clone()

	out, err := (&Initial{}).Apply(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}
	if !tb.Equal(f, before) {
		t.Fatal("initial imputation mutated its input")
	}
	if n := tb.CountMissing(out); n != 0 {
		t.Fatalf("expected no missing cells, got %d", n)
	}
	if v := out.Value(1, 0); v != 8.0/3.0 {
		t.Fatalf("expected mean 8/3, got %v", v)
	}
	// mean of 1,2,2 is 1.666 which rounds to 2
	if v := out.Value(2, 1); v != int64(2) {
		t.Fatalf("expected rounded mean 2, got %v", v)
	}
}

func TestInitialMedianAndConstants(t *testing.T) {
	f := makeMixedTable()
	in := &Initial{Numeric: StatMedian, Constants: map[string]any{"s": "green"}}
	out, err := in.Apply(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}
	if v := out.Value(1, 0); v != 3.0 {
		t.Fatalf("expected median 3, got %v", v)
	}
	if v := out.Value(2, 2); v != "green" {
		t.Fatalf("expected constant override, got %v", v)
	}

	if _, err := (&Initial{Numeric: "mode"}).Apply(context.Background(), f); err == nil {
		t.Fatal("expected error for unknown statistic")
	}
}

func TestInitialRejectsUnknownConstants(t *testing.T) {
	f := makeMixedTable()
	in := &Initial{Constants: map[string]any{"s": "green", "colour": "red", "agee": 3}}
	_, err := in.Apply(context.Background(), f)
	if !errors.Is(err, tb.ErrUnknownColumn) {
		t.Fatalf("expected unknown column error, got %v", err)
	}
	if !strings.Contains(err.Error(), "agee, colour") {
		t.Fatalf("unknown keys not listed: %v", err)
	}
}
