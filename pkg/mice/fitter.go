package mice

import (
	"context"
	"fmt"
	"math"

	"github.com/wdm0006/mice/pkg/encode"
	"github.com/wdm0006/mice/pkg/model"
	tb "github.com/wdm0006/mice/pkg/table"
)

// Bounds is the observed range of a numeric column.
type Bounds struct {
	Min, Max float64
}

// Fitter re-estimates the cells of one work unit: it trains a model on every
// row of the target column that is not being predicted, then overwrites the
// predicted rows in place.
type Fitter struct {
	Factory model.Factory
	// Clip, keyed by column index, bounds numeric predictions.
	Clip map[int]Bounds
}

// Fit re-estimates rows of column target in t. t must be complete.
func (f *Fitter) Fit(ctx context.Context, t *tb.Table, target int, rows []int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	col := t.Column(target)
	task := model.TaskFor(col.Kind())
	wrap := func(err error) error {
		return fmt.Errorf("fit %s (%s, %d rows): %w", col.Name(), task, len(rows), err)
	}
	if len(rows) == 0 {
		return nil
	}

	held := make(map[int]bool, len(rows))
	for _, r := range rows {
		held[r] = true
	}
	train := make([]int, 0, t.Rows()-len(held))
	for r := 0; r < t.Rows(); r++ {
		if !held[r] {
			train = append(train, r)
		}
	}
	if len(train) == 0 {
		return wrap(model.ErrEmptyTraining)
	}

	view, err := encode.OneHot(t, target)
	if err != nil {
		return wrap(err)
	}
	y, err := targetOf(col, task, train)
	if err != nil {
		return wrap(err)
	}
	m, err := f.Factory.New(task)
	if err != nil {
		return wrap(err)
	}
	if err := m.Fit(encode.SelectRows(view.X, train), y); err != nil {
		return wrap(err)
	}
	pred, err := m.Predict(encode.SelectRows(view.X, rows))
	if err != nil {
		return wrap(err)
	}
	if pred.Len() != len(rows) {
		return wrap(fmt.Errorf("%w: %d predictions for %d rows", model.ErrShapeMismatch, pred.Len(), len(rows)))
	}
	if err := f.write(col, task, target, rows, pred); err != nil {
		return wrap(err)
	}
	return nil
}

func targetOf(col tb.Column, task model.Task, rows []int) (model.Target, error) {
	y := model.Target{Task: task}
	if task == model.Classification {
		c, ok := col.(tb.Categorical)
		if !ok {
			return y, fmt.Errorf("column kind %s has no %s view", col.Kind(), task)
		}
		y.Labels = make([]string, len(rows))
		for i, r := range rows {
			v, ok := c.Label(r)
			if !ok {
				return y, fmt.Errorf("row %d is missing", r)
			}
			y.Labels[i] = v
		}
		return y, nil
	}
	n, ok := col.(tb.Numeric)
	if !ok {
		return y, fmt.Errorf("column kind %s has no %s view", col.Kind(), task)
	}
	y.Values = make([]float64, len(rows))
	for i, r := range rows {
		v, ok := n.Float(r)
		if !ok {
			return y, fmt.Errorf("row %d is missing", r)
		}
		y.Values[i] = v
	}
	return y, nil
}

func (f *Fitter) write(col tb.Column, task model.Task, target int, rows []int, pred model.Target) error {
	if task == model.Classification {
		c := col.(tb.Categorical)
		for i, r := range rows {
			if err := c.SetLabel(r, pred.Labels[i]); err != nil {
				return err
			}
		}
		return nil
	}
	n := col.(tb.Numeric)
	b, clip := f.Clip[target]
	for i, r := range rows {
		v := pred.Values[i]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w at row %d", model.ErrNonFinite, r)
		}
		if clip {
			v = math.Max(b.Min, math.Min(b.Max, v))
		}
		n.SetFloat(r, v)
	}
	return nil
}

// observedBounds returns the range of present values of every numeric column
// that has at least one.
func observedBounds(t *tb.Table) map[int]Bounds {
	out := map[int]Bounds{}
	for c := 0; c < t.Cols(); c++ {
		n, ok := t.Column(c).(tb.Numeric)
		if !ok {
			continue
		}
		b := Bounds{Min: math.Inf(1), Max: math.Inf(-1)}
		seen := false
		for r := 0; r < t.Rows(); r++ {
			if v, ok := n.Float(r); ok {
				b.Min, b.Max = math.Min(b.Min, v), math.Max(b.Max, v)
				seen = true
			}
		}
		if seen {
			out[c] = b
		}
	}
	return out
}
