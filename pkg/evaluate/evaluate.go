// Package evaluate scores an imputed table against its ground truth.
package evaluate

import (
	"errors"
	"fmt"

	tb "github.com/wdm0006/mice/pkg/table"
	"gonum.org/v1/gonum/floats"
)

var (
	ErrSchemaMismatch   = errors.New("tables have different shapes or schemas")
	ErrNoNumericColumns = errors.New("no numeric columns to score")
	ErrMissingCell      = errors.New("table has a missing cell")
)

// MSE is the mean squared error between want and got over every cell of the
// numeric columns not named in drop.
func MSE(want, got *tb.Table, drop ...string) (float64, error) {
	cols, err := scored(want, got, drop)
	if err != nil {
		return 0, err
	}
	var positions []tb.Position
	for _, c := range cols {
		for r := 0; r < want.Rows(); r++ {
			positions = append(positions, tb.Position{Row: r, Col: c})
		}
	}
	return mse(want, got, positions)
}

// MSEAt is MSE restricted to positions, typically the cells that were
// missing before imputation. Positions in dropped or non-numeric columns are
// skipped.
func MSEAt(want, got *tb.Table, positions []tb.Position, drop ...string) (float64, error) {
	cols, err := scored(want, got, drop)
	if err != nil {
		return 0, err
	}
	keep := map[int]bool{}
	for _, c := range cols {
		keep[c] = true
	}
	var ps []tb.Position
	for _, p := range positions {
		if keep[p.Col] {
			ps = append(ps, p)
		}
	}
	return mse(want, got, ps)
}

func scored(want, got *tb.Table, drop []string) ([]int, error) {
	if want.Rows() != got.Rows() || want.Cols() != got.Cols() {
		return nil, fmt.Errorf("%w: %dx%d vs %dx%d", ErrSchemaMismatch, want.Rows(), want.Cols(), got.Rows(), got.Cols())
	}
	skip := map[string]bool{}
	for _, d := range drop {
		if _, err := want.ColumnIndex(d); err != nil {
			return nil, err
		}
		skip[d] = true
	}
	var cols []int
	for i, cs := range want.Schema().Columns {
		gs := got.Schema().Columns[i]
		if gs.Name != cs.Name || gs.Type != cs.Type {
			return nil, fmt.Errorf("%w: column %d is %s %s vs %s %s", ErrSchemaMismatch, i, cs.Name, cs.Type, gs.Name, gs.Type)
		}
		if cs.Type.IsNumeric() && !skip[cs.Name] {
			cols = append(cols, i)
		}
	}
	if len(cols) == 0 {
		return nil, ErrNoNumericColumns
	}
	return cols, nil
}

func mse(want, got *tb.Table, positions []tb.Position) (float64, error) {
	if len(positions) == 0 {
		return 0, nil
	}
	a := make([]float64, len(positions))
	b := make([]float64, len(positions))
	for i, p := range positions {
		wv, ok := want.Column(p.Col).(tb.Numeric).Float(p.Row)
		if !ok {
			return 0, fmt.Errorf("%w: %s row %d of reference", ErrMissingCell, want.Column(p.Col).Name(), p.Row)
		}
		gv, ok := got.Column(p.Col).(tb.Numeric).Float(p.Row)
		if !ok {
			return 0, fmt.Errorf("%w: %s row %d of imputed", ErrMissingCell, got.Column(p.Col).Name(), p.Row)
		}
		a[i], b[i] = wv, gv
	}
	d := floats.Distance(a, b, 2)
	return d * d / float64(len(a)), nil
}
