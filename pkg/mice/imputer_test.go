package mice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wdm0006/mice/pkg/evaluate"
	"github.com/wdm0006/mice/pkg/impute"
	"github.com/wdm0006/mice/pkg/model"
	"github.com/wdm0006/mice/pkg/synth"
	tb "github.com/wdm0006/mice/pkg/table"
)

type countingFactory struct {
	inner model.Factory
	n     int
}

func (f *countingFactory) New(task model.Task) (model.Model, error) {
	f.n++
	return f.inner.New(task)
}

func linear(t *testing.T) model.Factory {
	t.Helper()
	f, err := model.NewFactory(model.FamilyLinear, model.Options{})
	require.NoError(t, err)
	return f
}

func dataset(seed int64, rows int, frac float64) (full, holes *tb.Table) {
	rng := rand.New(rand.NewSource(seed))
	full = synth.Generate(rng, synth.Options{Rows: rows, Numeric: 3, Categorical: 2})
	return full, synth.Ablate(rng, full, frac)
}

func TestCompleteTableUnchanged(t *testing.T) {
	full, _ := dataset(1, 30, 0)
	for _, s := range Strategies() {
		imp := &Imputer{Strategy: s, MaxIter: 3}
		out, err := imp.FillMissingValues(context.Background(), full)
		require.NoError(t, err, s.Name)
		assert.True(t, tb.Equal(full, out), s.Name)
	}
}

func TestFillProducesCompleteTable(t *testing.T) {
	_, holes := dataset(2, 60, 0.15)
	before := holes.Clone()
	require.NotZero(t, tb.CountMissing(holes))

	for _, s := range Strategies() {
		imp := &Imputer{Strategy: s, MaxIter: 2}
		out, err := imp.FillMissingValues(context.Background(), holes)
		require.NoError(t, err, s.Name)
		assert.Zero(t, tb.CountMissing(out), s.Name)
		assert.Equal(t, holes.Schema(), out.Schema(), s.Name)
		assert.True(t, tb.Equal(before, holes), "input modified by %s", s.Name)
	}
}

func TestOnlyMissingCellsChange(t *testing.T) {
	_, holes := dataset(3, 60, 0.1)
	missing := map[tb.Position]bool{}
	for _, p := range tb.MissingPositions(holes) {
		missing[p] = true
	}
	initial, err := (&impute.Initial{}).Apply(context.Background(), holes)
	require.NoError(t, err)

	out, err := (&Imputer{Strategy: SlowFast, MaxIter: 3}).FillMissingValues(context.Background(), holes)
	require.NoError(t, err)

	changed := 0
	for c := 0; c < out.Cols(); c++ {
		for r := 0; r < out.Rows(); r++ {
			p := tb.Position{Row: r, Col: c}
			if missing[p] {
				if out.Value(r, c) != initial.Value(r, c) {
					changed++
				}
				continue
			}
			assert.Equal(t, holes.Value(r, c), out.Value(r, c), "cell %v", p)
		}
	}
	assert.NotZero(t, changed)
}

func TestSingleCellGranularityAgrees(t *testing.T) {
	full, _ := dataset(4, 40, 0)
	holes := full.Clone()
	require.NoError(t, holes.SetCell(7, "x1", nil))

	cell, err := (&Imputer{Strategy: CellOnly, MaxIter: 1, Seed: 9}).FillMissingValues(context.Background(), holes)
	require.NoError(t, err)
	col, err := (&Imputer{Strategy: ColumnOnly, MaxIter: 1, Seed: 9}).FillMissingValues(context.Background(), holes)
	require.NoError(t, err)
	assert.True(t, tb.Equal(cell, col))
}

func TestHybridFitCounts(t *testing.T) {
	full, _ := dataset(5, 40, 0)
	holes := full.Clone()
	// five cells over two columns
	for _, c := range []struct {
		row  int
		name string
	}{{1, "x0"}, {4, "x0"}, {9, "x0"}, {2, "c0"}, {6, "c0"}} {
		require.NoError(t, holes.SetCell(c.row, c.name, nil))
	}

	want := map[string]struct {
		total  int
		perRun []int
	}{
		"cell":      {15, []int{5, 5, 5}},
		"column":    {6, []int{2, 2, 2}},
		"slow-fast": {9, []int{5, 2, 2}},
		"fast-slow": {9, []int{2, 2, 5}},
	}
	for _, s := range Strategies() {
		t.Run(s.Name, func(t *testing.T) {
			f := &countingFactory{inner: linear(t)}
			var fits []int
			imp := &Imputer{
				Strategy: s,
				MaxIter:  3,
				Factory:  f,
				OnPass:   func(p PassStats) { fits = append(fits, p.Fits) },
			}
			_, err := imp.FillMissingValues(context.Background(), holes)
			require.NoError(t, err)
			assert.Equal(t, want[s.Name].total, f.n)
			assert.Equal(t, want[s.Name].perRun, fits)
		})
	}
}

func TestBeatsMeanImputation(t *testing.T) {
	full, holes := dataset(6, 100, 0.1)
	positions := tb.MissingPositions(holes)
	require.NotEmpty(t, positions)

	base, err := (&impute.Initial{}).Apply(context.Background(), holes)
	require.NoError(t, err)
	baseLoss, err := evaluate.MSEAt(full, base, positions)
	require.NoError(t, err)

	for _, s := range Strategies() {
		out, err := (&Imputer{Strategy: s, MaxIter: 5, Seed: 1}).FillMissingValues(context.Background(), holes)
		require.NoError(t, err, s.Name)
		loss, err := evaluate.MSEAt(full, out, positions)
		require.NoError(t, err, s.Name)
		assert.Less(t, loss, baseLoss, s.Name)
	}
}

func TestGolearnFamily(t *testing.T) {
	f, err := model.NewFactory(model.FamilyGolearn, model.Options{Neighbors: 3})
	require.NoError(t, err)
	_, holes := dataset(13, 80, 0.1)
	c1, ok := holes.ColumnByName("c1")
	require.True(t, ok)
	require.Equal(t, tb.KindBool, c1.Kind())

	for _, s := range Strategies() {
		imp := &Imputer{Strategy: s, MaxIter: 2, Seed: 13, Factory: f}
		out, err := imp.FillMissingValues(context.Background(), holes)
		require.NoError(t, err, s.Name)
		assert.Zero(t, tb.CountMissing(out), s.Name)
		assert.Equal(t, holes.Schema(), out.Schema(), s.Name)
		for c := 0; c < holes.Cols(); c++ {
			for r := 0; r < holes.Rows(); r++ {
				if !holes.Column(c).IsNull(r) {
					assert.Equal(t, holes.Value(r, c), out.Value(r, c), "%s: cell (%d, %d)", s.Name, r, c)
				}
			}
		}
	}
}

func TestDeterministic(t *testing.T) {
	_, holes := dataset(7, 50, 0.1)
	for _, s := range Strategies() {
		a, err := (&Imputer{Strategy: s, MaxIter: 3, Seed: 42}).FillMissingValues(context.Background(), holes)
		require.NoError(t, err)
		b, err := (&Imputer{Strategy: s, MaxIter: 3, Rand: rand.New(rand.NewSource(42))}).FillMissingValues(context.Background(), holes)
		require.NoError(t, err)
		assert.True(t, tb.Equal(a, b), s.Name)
	}
}

func TestIntColumnsStayIntegral(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	holes := synth.Ablate(rng, synth.Generate(rng, synth.Options{Rows: 50, Numeric: 3, Ints: 2, Categorical: 1}), 0.1)
	out, err := (&Imputer{Strategy: ColumnOnly, MaxIter: 2}).FillMissingValues(context.Background(), holes)
	require.NoError(t, err)
	for _, p := range tb.MissingPositions(holes) {
		if _, ok := out.Value(p.Row, p.Col).(int64); !ok && out.Schema().Columns[p.Col].Type == tb.KindInt {
			t.Fatalf("cell %v is %T", p, out.Value(p.Row, p.Col))
		}
	}
}

func TestClipToObserved(t *testing.T) {
	s := tb.Schema{Columns: []tb.ColumnSchema{
		{Name: "x", Type: tb.KindFloat},
		{Name: "y", Type: tb.KindFloat},
	}}
	tab := tb.New(s)
	for i := 0; i < 10; i++ {
		tab.AppendNullRow()
		require.NoError(t, tab.SetCell(i, "x", float64(i)))
		require.NoError(t, tab.SetCell(i, "y", 2*float64(i)))
	}
	// x = 100 extrapolates y far beyond its observed range
	require.NoError(t, tab.SetCell(9, "x", 100.0))
	require.NoError(t, tab.SetCell(9, "y", nil))

	free, err := (&Imputer{Strategy: ColumnOnly, MaxIter: 1}).FillMissingValues(context.Background(), tab)
	require.NoError(t, err)
	clipped, err := (&Imputer{Strategy: ColumnOnly, MaxIter: 1, ClipToObserved: true}).FillMissingValues(context.Background(), tab)
	require.NoError(t, err)

	assert.InDelta(t, 200, free.Value(9, 1).(float64), 1e-6)
	assert.InDelta(t, 16, clipped.Value(9, 1).(float64), 1e-9)
}

func TestImputerErrors(t *testing.T) {
	_, holes := dataset(9, 20, 0.1)

	_, err := (&Imputer{MaxIter: -1}).FillMissingValues(context.Background(), holes)
	assert.True(t, errors.Is(err, ErrInvalidMaxIter))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = (&Imputer{}).FillMissingValues(ctx, holes)
	assert.True(t, errors.Is(err, context.Canceled))

	empty := holes.Clone()
	for r := 0; r < empty.Rows(); r++ {
		require.NoError(t, empty.SetCell(r, "x0", nil))
	}
	_, err = (&Imputer{}).FillMissingValues(context.Background(), empty)
	assert.True(t, errors.Is(err, impute.ErrAllMissing))

	failing := model.FactoryFunc(func(model.Task) (model.Model, error) {
		return nil, model.ErrUnknownFamily
	})
	_, err = (&Imputer{Factory: failing}).FillMissingValues(context.Background(), holes)
	assert.True(t, errors.Is(err, model.ErrUnknownFamily))
	assert.Contains(t, err.Error(), "iteration 0:")
}

func TestIterationsAreZeroBased(t *testing.T) {
	_, holes := dataset(12, 40, 0.1)
	var logs bytes.Buffer
	var passes []int
	imp := &Imputer{
		MaxIter: 2,
		Logger:  slog.New(slog.NewJSONHandler(&logs, nil)),
		OnPass:  func(st PassStats) { passes = append(passes, st.Iteration) },
	}
	_, err := imp.FillMissingValues(context.Background(), holes)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, passes)

	var logged []int
	dec := json.NewDecoder(&logs)
	for dec.More() {
		var line struct {
			Msg     string `json:"msg"`
			Iter    int    `json:"iter"`
			MaxIter int    `json:"max_iter"`
		}
		require.NoError(t, dec.Decode(&line))
		if line.Msg == "pass complete" {
			assert.Equal(t, 2, line.MaxIter)
			logged = append(logged, line.Iter)
		}
	}
	assert.Equal(t, passes, logged)
}

func TestImputerAsTransform(t *testing.T) {
	_, holes := dataset(10, 30, 0.1)
	p := tb.NewPipeline().Add(&Imputer{Strategy: FastSlow, MaxIter: 2})
	out, err := p.Run(context.Background(), holes)
	require.NoError(t, err)
	assert.Zero(t, tb.CountMissing(out))
	assert.Equal(t, "mice_fast-slow", (&Imputer{Strategy: FastSlow}).Name())
	assert.Equal(t, "mice_cell", (&Imputer{}).Name())
}

func TestFitterEmptyTraining(t *testing.T) {
	s := tb.Schema{Columns: []tb.ColumnSchema{
		{Name: "x", Type: tb.KindFloat},
		{Name: "y", Type: tb.KindFloat},
	}}
	tab := tb.New(s)
	for i := 0; i < 2; i++ {
		tab.AppendNullRow()
		require.NoError(t, tab.SetCell(i, "x", float64(i)))
		require.NoError(t, tab.SetCell(i, "y", float64(i)))
	}
	f := &Fitter{Factory: linear(t)}
	err := f.Fit(context.Background(), tab, 1, []int{0, 1})
	assert.True(t, errors.Is(err, model.ErrEmptyTraining))
	assert.Contains(t, err.Error(), "fit y")

	require.NoError(t, f.Fit(context.Background(), tab, 1, nil))
}

func TestBenchmark(t *testing.T) {
	full, holes := dataset(11, 80, 0.1)
	imp := &Imputer{Strategy: ColumnOnly, MaxIter: 4}

	res, err := imp.Benchmark(context.Background(), full, holes, BenchmarkOptions{})
	require.NoError(t, err)
	require.Len(t, res, 4)
	base, err := imp.BenchmarkMeanLoss(context.Background(), full, holes, BenchmarkOptions{})
	require.NoError(t, err)
	require.Len(t, base, 4)

	for i, r := range res {
		assert.Equal(t, i, r.Iteration)
		assert.False(t, math.IsNaN(r.Loss))
		assert.GreaterOrEqual(t, r.Seconds, 0.0)
		assert.Equal(t, base[0].Loss, base[i].Loss)
		assert.Equal(t, i, base[i].Iteration)
	}
	assert.Less(t, res[len(res)-1].Loss, base[0].Loss)

	dropped, err := imp.Benchmark(context.Background(), full, holes, BenchmarkOptions{DropColumns: []string{"x0", "x1"}})
	require.NoError(t, err)
	assert.NotEqual(t, res[0].Loss, dropped[0].Loss)

	_, err = imp.Benchmark(context.Background(), full, holes, BenchmarkOptions{DropColumns: []string{"nope"}})
	assert.True(t, errors.Is(err, tb.ErrUnknownColumn))

	short := tb.New(full.Schema())
	_, err = imp.Benchmark(context.Background(), short, holes, BenchmarkOptions{})
	assert.True(t, errors.Is(err, evaluate.ErrSchemaMismatch))
}
