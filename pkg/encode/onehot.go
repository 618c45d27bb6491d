// Package encode builds numeric feature matrices from mixed-type tables.
package encode

import (
	"errors"
	"fmt"
	"sort"

	tb "github.com/wdm0006/mice/pkg/table"
	"gonum.org/v1/gonum/mat"
)

// ErrNoPredictors is returned when the feature view would have no columns.
var ErrNoPredictors = errors.New("no predictor columns")

// View is the feature matrix for one target column.
type View struct {
	X     *mat.Dense
	Names []string
}

// OneHot builds the feature view of t for the target column: every other
// numeric column is copied as is, every other categorical column expands to
// one indicator per level except the lexicographically smallest one. Levels
// come from the current contents of t, so the view must be rebuilt whenever
// t changes. t must not contain missing cells.
func OneHot(t *tb.Table, target int) (*View, error) {
	if target < 0 || target >= t.Cols() {
		return nil, fmt.Errorf("target column %d out of range", target)
	}
	type feature struct {
		col   int
		level string // empty for numeric passthrough
	}
	var feats []feature
	var names []string
	for c := 0; c < t.Cols(); c++ {
		if c == target {
			continue
		}
		col := t.Column(c)
		switch cc := col.(type) {
		case tb.Numeric:
			feats = append(feats, feature{col: c})
			names = append(names, col.Name())
		case tb.Categorical:
			levels, err := Levels(cc)
			if err != nil {
				return nil, err
			}
			for _, l := range levels[min(1, len(levels)):] {
				feats = append(feats, feature{col: c, level: l})
				names = append(names, col.Name()+"_"+l)
			}
		default:
			return nil, fmt.Errorf("column %s has unsupported kind %s", col.Name(), col.Kind())
		}
	}
	if len(feats) == 0 || t.Rows() == 0 {
		return nil, fmt.Errorf("%w for target %s", ErrNoPredictors, t.Column(target).Name())
	}

	X := mat.NewDense(t.Rows(), len(feats), nil)
	for j, f := range feats {
		switch cc := t.Column(f.col).(type) {
		case tb.Numeric:
			for r := 0; r < t.Rows(); r++ {
				v, ok := cc.Float(r)
				if !ok {
					return nil, fmt.Errorf("column %s has a missing value at row %d", cc.Name(), r)
				}
				X.Set(r, j, v)
			}
		case tb.Categorical:
			for r := 0; r < t.Rows(); r++ {
				if l, _ := cc.Label(r); l == f.level {
					X.Set(r, j, 1)
				}
			}
		}
	}
	return &View{X: X, Names: names}, nil
}

// Levels returns the sorted distinct labels of c. It fails on missing cells.
func Levels(c tb.Categorical) ([]string, error) {
	seen := map[string]struct{}{}
	for r := 0; r < c.Len(); r++ {
		l, ok := c.Label(r)
		if !ok {
			return nil, fmt.Errorf("column %s has a missing value at row %d", c.Name(), r)
		}
		seen[l] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for l := range seen {
		out = append(out, l)
	}
	sort.Strings(out)
	return out, nil
}

// SelectRows copies the given rows of X, in order, into a new matrix. rows
// must not be empty.
func SelectRows(X mat.Matrix, rows []int) *mat.Dense {
	_, c := X.Dims()
	out := mat.NewDense(len(rows), c, nil)
	for i, r := range rows {
		for j := 0; j < c; j++ {
			out.Set(i, j, X.At(r, j))
		}
	}
	return out
}
