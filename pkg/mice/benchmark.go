package mice

import (
	"context"
	"fmt"
	"time"

	"github.com/wdm0006/mice/pkg/evaluate"
	"github.com/wdm0006/mice/pkg/impute"
	tb "github.com/wdm0006/mice/pkg/table"
)

// IterationResult is the outcome of one benchmarked pass. Iteration is
// zero-based. Elapsed covers the pass alone; the initial imputation and the
// loss computation are excluded.
type IterationResult struct {
	Iteration int           `json:"iter"`
	Elapsed   time.Duration `json:"-"`
	Seconds   float64       `json:"time_seconds"`
	Loss      float64       `json:"loss"`
}

// BenchmarkOptions configure Benchmark.
type BenchmarkOptions struct {
	// DropColumns are excluded from the loss.
	DropColumns []string
}

// Benchmark imputes missing and, after every pass, scores the current table
// against original by mean squared error over the numeric columns.
func (m *Imputer) Benchmark(ctx context.Context, original, missing *tb.Table, opt BenchmarkOptions) ([]IterationResult, error) {
	if err := sameShape(original, missing); err != nil {
		return nil, err
	}
	var out []IterationResult
	_, err := m.run(ctx, missing, func(st PassStats, cur *tb.Table) error {
		loss, err := evaluate.MSE(original, cur, opt.DropColumns...)
		if err != nil {
			return fmt.Errorf("iteration %d loss: %w", st.Iteration, err)
		}
		out = append(out, IterationResult{
			Iteration: st.Iteration,
			Elapsed:   st.Elapsed,
			Seconds:   st.Elapsed.Seconds(),
			Loss:      loss,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// BenchmarkMeanLoss is the baseline series for Benchmark: the initial
// imputation of missing alone, scored once and reported for every
// iteration with the time the initial imputation took.
func (m *Imputer) BenchmarkMeanLoss(ctx context.Context, original, missing *tb.Table, opt BenchmarkOptions) ([]IterationResult, error) {
	maxIter, err := m.maxIter()
	if err != nil {
		return nil, err
	}
	if err := sameShape(original, missing); err != nil {
		return nil, err
	}
	initial := m.Initial
	if initial == nil {
		initial = &impute.Initial{}
	}
	start := time.Now()
	filled, err := initial.Apply(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("initial imputation: %w", err)
	}
	elapsed := time.Since(start)
	loss, err := evaluate.MSE(original, filled, opt.DropColumns...)
	if err != nil {
		return nil, err
	}
	out := make([]IterationResult, maxIter)
	for i := range out {
		out[i] = IterationResult{Iteration: i, Elapsed: elapsed, Seconds: elapsed.Seconds(), Loss: loss}
	}
	return out, nil
}

func sameShape(a, b *tb.Table) error {
	if a.Rows() != b.Rows() || a.Cols() != b.Cols() {
		return fmt.Errorf("%w: original is %dx%d, missing is %dx%d",
			evaluate.ErrSchemaMismatch, a.Rows(), a.Cols(), b.Rows(), b.Cols())
	}
	return nil
}
