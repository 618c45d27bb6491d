package mice

import (
	"math/rand"
	"sort"

	tb "github.com/wdm0006/mice/pkg/table"
)

// WorkUnit is one fit/predict step: the rows of Column to re-estimate.
type WorkUnit struct {
	Column int
	Rows   []int
}

// Plan orders the work of one iteration. At Cell granularity every position
// becomes its own unit; at Column granularity positions are grouped by column.
// Units are shuffled with rng, so each call draws a fresh order.
func Plan(positions []tb.Position, g Granularity, rng *rand.Rand) []WorkUnit {
	if g == Cell {
		units := make([]WorkUnit, len(positions))
		for i, p := range rng.Perm(len(positions)) {
			units[i] = WorkUnit{Column: positions[p].Col, Rows: []int{positions[p].Row}}
		}
		return units
	}

	byCol := map[int][]int{}
	for _, p := range positions {
		byCol[p.Col] = append(byCol[p.Col], p.Row)
	}
	cols := make([]int, 0, len(byCol))
	for c, rows := range byCol {
		sort.Ints(rows)
		cols = append(cols, c)
	}
	sort.Ints(cols)
	units := make([]WorkUnit, len(cols))
	for i, p := range rng.Perm(len(cols)) {
		units[i] = WorkUnit{Column: cols[p], Rows: byCol[cols[p]]}
	}
	return units
}
