package mice

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownStrategy is returned by ParseStrategy for unrecognised names.
var ErrUnknownStrategy = errors.New("unknown strategy")

// Granularity is the unit of work of one model fit.
type Granularity int

const (
	// Cell re-estimates a single missing cell per fit.
	Cell Granularity = iota
	// Column re-estimates every missing cell of a column in one fit.
	Column
)

func (g Granularity) String() string {
	if g == Column {
		return "column"
	}
	return "cell"
}

// Schedule maps an iteration index in [0, maxIter) to a granularity.
type Schedule func(iter, maxIter int) Granularity

// Strategy names a granularity schedule.
type Strategy struct {
	Name        string
	DisplayName string
	Schedule    Schedule
}

var (
	CellOnly = Strategy{
		Name:        "cell",
		DisplayName: "Vanilla MICE",
		Schedule:    func(int, int) Granularity { return Cell },
	}
	ColumnOnly = Strategy{
		Name:        "column",
		DisplayName: "Fast MICE",
		Schedule:    func(int, int) Granularity { return Column },
	}
	// SlowFast spends the cell-level pass on the first iteration.
	SlowFast = Strategy{
		Name:        "slow-fast",
		DisplayName: "Slow-Fast MICE",
		Schedule: func(iter, _ int) Granularity {
			if iter == 0 {
				return Cell
			}
			return Column
		},
	}
	// FastSlow spends the cell-level pass on the last iteration.
	FastSlow = Strategy{
		Name:        "fast-slow",
		DisplayName: "Fast-Slow MICE",
		Schedule: func(iter, maxIter int) Granularity {
			if iter == maxIter-1 {
				return Cell
			}
			return Column
		},
	}
)

// Strategies returns the built-in strategies.
func Strategies() []Strategy {
	return []Strategy{CellOnly, ColumnOnly, SlowFast, FastSlow}
}

// ParseStrategy resolves a strategy by short or display name, ignoring case.
func ParseStrategy(name string) (Strategy, error) {
	n := strings.TrimSpace(name)
	for _, s := range Strategies() {
		if strings.EqualFold(n, s.Name) || strings.EqualFold(n, s.DisplayName) {
			return s, nil
		}
	}
	return Strategy{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}
