// Package mice implements Multiple Imputation by Chained Equations with a
// configurable schedule of cell-level and column-level passes.
//
// Every run starts from a mean/mode imputation of the input. Each pass then
// visits the originally missing cells in a random order, in units of a
// single cell or of a whole column, and replaces them with the prediction of
// a model fitted on the rest of the column.
package mice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/wdm0006/mice/pkg/impute"
	"github.com/wdm0006/mice/pkg/model"
	tb "github.com/wdm0006/mice/pkg/table"
)

// DefaultMaxIter is the pass count used when Imputer.MaxIter is zero.
const DefaultMaxIter = 10

var ErrInvalidMaxIter = errors.New("max iterations must be positive")

// PassStats describes one completed pass.
type PassStats struct {
	Iteration   int
	Granularity Granularity
	Fits        int
	Cells       int
	Elapsed     time.Duration
}

// Imputer fills missing cells of a table. The zero value runs vanilla
// (cell-level) MICE for DefaultMaxIter passes with least-squares models and
// a rand source seeded with Seed.
type Imputer struct {
	Strategy Strategy
	MaxIter  int

	// Factory builds the per-column models; nil selects the linear family.
	Factory model.Factory
	// Initial is the starting imputation; nil means column mean and mode.
	Initial *impute.Initial

	// Rand orders work units. When nil, each run draws from a new source
	// seeded with Seed, so runs of the same Imputer repeat exactly.
	Rand *rand.Rand
	Seed int64

	// ClipToObserved bounds numeric predictions by the range of the values
	// present in the input.
	ClipToObserved bool

	Logger *slog.Logger
	// OnPass, when set, is called after every pass.
	OnPass func(PassStats)
}

func (m *Imputer) Name() string { return "mice_" + m.strategy().Name }

// Apply implements table.Transform.
func (m *Imputer) Apply(ctx context.Context, t *tb.Table) (*tb.Table, error) {
	return m.FillMissingValues(ctx, t)
}

// FillMissingValues returns a copy of t with every missing cell imputed. t is
// not modified. Cells present in t keep their values.
func (m *Imputer) FillMissingValues(ctx context.Context, t *tb.Table) (*tb.Table, error) {
	return m.run(ctx, t, nil)
}

func (m *Imputer) strategy() Strategy {
	if m.Strategy.Schedule == nil {
		return CellOnly
	}
	return m.Strategy
}

func (m *Imputer) maxIter() (int, error) {
	switch {
	case m.MaxIter == 0:
		return DefaultMaxIter, nil
	case m.MaxIter < 0:
		return 0, fmt.Errorf("%w: %d", ErrInvalidMaxIter, m.MaxIter)
	}
	return m.MaxIter, nil
}

func (m *Imputer) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return m.Logger
}

// afterPass observes the table after each pass. Time spent in it is not
// counted in PassStats.Elapsed.
type afterPass func(stats PassStats, cur *tb.Table) error

func (m *Imputer) run(ctx context.Context, t *tb.Table, after afterPass) (*tb.Table, error) {
	maxIter, err := m.maxIter()
	if err != nil {
		return nil, err
	}
	strat := m.strategy()
	log := m.logger().With(slog.String("component", "mice"), slog.String("strategy", strat.DisplayName))

	factory := m.Factory
	if factory == nil {
		if factory, err = model.NewFactory(model.FamilyLinear, model.Options{}); err != nil {
			return nil, err
		}
	}
	initial := m.Initial
	if initial == nil {
		initial = &impute.Initial{}
	}
	rng := m.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(m.Seed))
	}

	positions := tb.MissingPositions(t)
	fitter := &Fitter{Factory: factory}
	if m.ClipToObserved {
		fitter.Clip = observedBounds(t)
	}

	cur, err := initial.Apply(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("initial imputation: %w", err)
	}
	log.Debug("initial imputation done",
		slog.Int("rows", t.Rows()),
		slog.Int("cols", t.Cols()),
		slog.Int("missing", len(positions)))

	for iter := 0; iter < maxIter; iter++ {
		g := strat.Schedule(iter, maxIter)
		start := time.Now()
		units := Plan(positions, g, rng)
		for _, u := range units {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := fitter.Fit(ctx, cur, u.Column, u.Rows); err != nil {
				return nil, fmt.Errorf("iteration %d: %w", iter, err)
			}
		}
		stats := PassStats{
			Iteration:   iter,
			Granularity: g,
			Fits:        len(units),
			Cells:       len(positions),
			Elapsed:     time.Since(start),
		}
		log.Info("pass complete",
			slog.Int("iter", iter),
			slog.Int("max_iter", maxIter),
			slog.String("granularity", g.String()),
			slog.Int("fits", stats.Fits),
			slog.Duration("elapsed", stats.Elapsed))
		if m.OnPass != nil {
			m.OnPass(stats)
		}
		if after != nil {
			if err := after(stats, cur); err != nil {
				return nil, err
			}
		}
	}
	return cur, nil
}
