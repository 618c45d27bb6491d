// Package synth generates seeded tables with correlated columns and knocks
// cells out of them, for benchmarks and tests of the imputers.
package synth

import (
	"fmt"
	"math"
	"math/rand"

	tb "github.com/wdm0006/mice/pkg/table"
)

// Options shape a generated table.
type Options struct {
	Rows int
	// Numeric columns x0..; the last Ints of them hold rounded integers.
	Numeric int
	Ints    int
	// Categorical columns c0..; even ones are string levels, odd ones bool.
	Categorical int
	// Levels of the string columns, default 3.
	Levels int
	// Noise is the standard deviation added to numeric columns, default 1.
	Noise float64
	// Flip is the probability a categorical cell ignores its driver, default 0.1.
	Flip float64
}

// Generate builds a complete table. Every column is driven by two latent
// normal factors per row, so each column is predictable from the others.
func Generate(rng *rand.Rand, opt Options) *tb.Table {
	if opt.Levels <= 1 {
		opt.Levels = 3
	}
	if opt.Noise == 0 {
		opt.Noise = 1
	}
	if opt.Flip == 0 {
		opt.Flip = 0.1
	}
	t := tb.New(Schema(opt))
	for r := 0; r < opt.Rows; r++ {
		t.AppendNullRow()
		z, w := rng.NormFloat64(), rng.NormFloat64()
		for j := 0; j < opt.Numeric; j++ {
			v := 50 + float64(10-3*j)*z + float64(2*(j%3))*w + opt.Noise*rng.NormFloat64()
			// int columns round half away from zero
			t.Column(j).(tb.Numeric).SetFloat(r, v)
		}
		for k := 0; k < opt.Categorical; k++ {
			col := t.Column(opt.Numeric + k)
			if k%2 == 1 {
				b := w > 0
				if rng.Float64() < opt.Flip {
					b = rng.Intn(2) == 0
				}
				col.(*tb.BoolColumn).Set(r, b)
				continue
			}
			lvl := bucket(z, opt.Levels)
			if rng.Float64() < opt.Flip {
				lvl = rng.Intn(opt.Levels)
			}
			col.(*tb.StringColumn).Set(r, fmt.Sprintf("level_%d", lvl))
		}
	}
	return t
}

// Schema is the schema Generate produces for opt.
func Schema(opt Options) tb.Schema {
	var cols []tb.ColumnSchema
	for j := 0; j < opt.Numeric; j++ {
		k := tb.KindFloat
		if j >= opt.Numeric-opt.Ints {
			k = tb.KindInt
		}
		cols = append(cols, tb.ColumnSchema{Name: fmt.Sprintf("x%d", j), Type: k})
	}
	for k := 0; k < opt.Categorical; k++ {
		kind := tb.KindString
		if k%2 == 1 {
			kind = tb.KindBool
		}
		cols = append(cols, tb.ColumnSchema{Name: fmt.Sprintf("c%d", k), Type: kind})
	}
	return tb.Schema{Columns: cols}
}

// bucket maps a standard normal draw onto n roughly equal-width bins over
// [-1.5, 1.5].
func bucket(z float64, n int) int {
	i := int(math.Floor((z + 1.5) / 3 * float64(n)))
	return max(0, min(n-1, i))
}

// Ablate returns a copy of t where each present cell is nulled with
// probability frac. Every column keeps at least two present values.
func Ablate(rng *rand.Rand, t *tb.Table, frac float64) *tb.Table {
	out := t.Clone()
	present := make([]int, out.Cols())
	for c := range present {
		for r := 0; r < out.Rows(); r++ {
			if !out.Column(c).IsNull(r) {
				present[c]++
			}
		}
	}
	for r := 0; r < out.Rows(); r++ {
		for c := 0; c < out.Cols(); c++ {
			col := out.Column(c)
			if col.IsNull(r) || rng.Float64() >= frac || present[c] <= 2 {
				continue
			}
			col.SetNull(r)
			present[c]--
		}
	}
	return out
}
