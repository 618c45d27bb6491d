package evaluate_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wdm0006/mice/pkg/evaluate"
	tb "github.com/wdm0006/mice/pkg/table"
)

func pair(t *testing.T) (*tb.Table, *tb.Table) {
	t.Helper()
	s := tb.Schema{Columns: []tb.ColumnSchema{
		{Name: "x", Type: tb.KindFloat},
		{Name: "n", Type: tb.KindInt},
		{Name: "c", Type: tb.KindString},
	}}
	want, got := tb.New(s), tb.New(s)
	rows := []struct {
		x1, x2 float64
		n1, n2 int64
		c1, c2 string
	}{
		{1, 2, 10, 10, "a", "b"},
		{3, 3, 20, 22, "b", "b"},
	}
	for i, r := range rows {
		want.AppendNullRow()
		got.AppendNullRow()
		require.NoError(t, want.SetCell(i, "x", r.x1))
		require.NoError(t, got.SetCell(i, "x", r.x2))
		require.NoError(t, want.SetCell(i, "n", r.n1))
		require.NoError(t, got.SetCell(i, "n", r.n2))
		require.NoError(t, want.SetCell(i, "c", r.c1))
		require.NoError(t, got.SetCell(i, "c", r.c2))
	}
	return want, got
}

func TestMSE(t *testing.T) {
	want, got := pair(t)

	v, err := evaluate.MSE(want, got)
	require.NoError(t, err)
	// squared errors 1, 0, 0, 4 over the two numeric columns
	assert.InDelta(t, 5.0/4, v, 1e-12)

	v, err = evaluate.MSE(want, got, "n")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, v, 1e-12)

	v, err = evaluate.MSE(want, want)
	require.NoError(t, err)
	assert.Zero(t, v)
}

func TestMSEErrors(t *testing.T) {
	want, got := pair(t)

	_, err := evaluate.MSE(want, got, "x", "n")
	assert.True(t, errors.Is(err, evaluate.ErrNoNumericColumns))

	_, err = evaluate.MSE(want, got, "missing")
	assert.True(t, errors.Is(err, tb.ErrUnknownColumn))

	short := got.Clone()
	short.AppendNullRow()
	_, err = evaluate.MSE(want, short)
	assert.True(t, errors.Is(err, evaluate.ErrSchemaMismatch))

	require.NoError(t, got.SetCell(0, "x", nil))
	_, err = evaluate.MSE(want, got)
	assert.True(t, errors.Is(err, evaluate.ErrMissingCell))
}

func TestMSEAt(t *testing.T) {
	want, got := pair(t)
	ps := []tb.Position{{Row: 0, Col: 0}, {Row: 1, Col: 1}, {Row: 0, Col: 2}}

	v, err := evaluate.MSEAt(want, got, ps)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, v, 1e-12)

	v, err = evaluate.MSEAt(want, got, nil)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(v))
	assert.Zero(t, v)
}
