// Package profile summarises a table and its missing cells before
// imputation.
package profile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	tb "github.com/wdm0006/mice/pkg/table"
)

type NumStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"stddev"`
}

type LevelCount struct {
	Level string `json:"level"`
	Count int    `json:"count"`
}

type CatStats struct {
	Levels int          `json:"levels"`
	Top    []LevelCount `json:"top,omitempty"`
}

type ColumnProfile struct {
	Name        string    `json:"name"`
	Kind        string    `json:"kind"`
	Count       int       `json:"count"`
	Missing     int       `json:"missing"`
	MissingFrac float64   `json:"missing_frac"`
	Num         *NumStats `json:"num,omitempty"`
	Cat         *CatStats `json:"cat,omitempty"`
}

// Profile is the summary of one table.
type Profile struct {
	Rows         int             `json:"rows"`
	Cols         int             `json:"cols"`
	MissingCells int             `json:"missing_cells"`
	CompleteRows int             `json:"complete_rows"`
	// Patterns counts rows by the set of columns missing in them; the key
	// lists the column names joined by "|". Complete rows are not counted.
	Patterns map[string]int  `json:"patterns,omitempty"`
	Columns  []ColumnProfile `json:"columns"`
}

// Collect profiles t. topK bounds the levels listed per categorical column;
// 0 lists none.
func Collect(t *tb.Table, topK int) Profile {
	p := Profile{Rows: t.Rows(), Cols: t.Cols(), Patterns: map[string]int{}}
	for r := 0; r < t.Rows(); r++ {
		var miss []string
		for c := 0; c < t.Cols(); c++ {
			if t.Column(c).IsNull(r) {
				miss = append(miss, t.Column(c).Name())
			}
		}
		if len(miss) == 0 {
			p.CompleteRows++
			continue
		}
		p.MissingCells += len(miss)
		p.Patterns[strings.Join(miss, "|")]++
	}
	for c := 0; c < t.Cols(); c++ {
		p.Columns = append(p.Columns, column(t.Column(c), topK))
	}
	return p
}

func column(col tb.Column, topK int) ColumnProfile {
	cp := ColumnProfile{Name: col.Name(), Kind: col.Kind().String()}
	for i := 0; i < col.Len(); i++ {
		if col.IsNull(i) {
			cp.Missing++
		}
	}
	cp.Count = col.Len() - cp.Missing
	if col.Len() > 0 {
		cp.MissingFrac = float64(cp.Missing) / float64(col.Len())
	}
	switch c := col.(type) {
	case tb.Numeric:
		cp.Num = numeric(c, col.Len())
	case tb.Categorical:
		cp.Cat = categorical(c, col.Len(), topK)
	}
	return cp
}

func numeric(c tb.Numeric, n int) *NumStats {
	var data stats.Float64Data
	for i := 0; i < n; i++ {
		if v, ok := c.Float(i); ok {
			data = append(data, v)
		}
	}
	if len(data) == 0 {
		return nil
	}
	ns := &NumStats{}
	ns.Min, _ = data.Min()
	ns.Max, _ = data.Max()
	ns.Mean, _ = data.Mean()
	ns.Median, _ = data.Median()
	if len(data) > 1 {
		ns.StdDev, _ = data.StandardDeviationSample()
	}
	return ns
}

func categorical(c tb.Categorical, n, topK int) *CatStats {
	freqs := map[string]int{}
	for i := 0; i < n; i++ {
		if v, ok := c.Label(i); ok {
			freqs[v]++
		}
	}
	cs := &CatStats{Levels: len(freqs)}
	if topK <= 0 {
		return cs
	}
	for k, v := range freqs {
		cs.Top = append(cs.Top, LevelCount{Level: k, Count: v})
	}
	sort.Slice(cs.Top, func(i, j int) bool {
		if cs.Top[i].Count != cs.Top[j].Count {
			return cs.Top[i].Count > cs.Top[j].Count
		}
		return cs.Top[i].Level < cs.Top[j].Level
	})
	if len(cs.Top) > topK {
		cs.Top = cs.Top[:topK]
	}
	return cs
}

// Text renders p for a terminal.
func (p Profile) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Profile Summary: %d rows x %d cols, %d missing cells, %d complete rows\n",
		p.Rows, p.Cols, p.MissingCells, p.CompleteRows)
	for _, cp := range p.Columns {
		fmt.Fprintf(&b, "- %s (%s): count=%d missing=%d (%.1f%%)", cp.Name, cp.Kind, cp.Count, cp.Missing, 100*cp.MissingFrac)
		switch {
		case cp.Num != nil:
			fmt.Fprintf(&b, " min=%.6g max=%.6g mean=%.6g median=%.6g sd=%.6g\n",
				cp.Num.Min, cp.Num.Max, cp.Num.Mean, cp.Num.Median, cp.Num.StdDev)
		case cp.Cat != nil:
			fmt.Fprintf(&b, " levels=%d\n", cp.Cat.Levels)
			for _, lc := range cp.Cat.Top {
				fmt.Fprintf(&b, "  * %q: %d\n", lc.Level, lc.Count)
			}
		default:
			b.WriteString("\n")
		}
	}
	if len(p.Patterns) > 0 {
		keys := make([]string, 0, len(p.Patterns))
		for k := range p.Patterns {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if p.Patterns[keys[i]] != p.Patterns[keys[j]] {
				return p.Patterns[keys[i]] > p.Patterns[keys[j]]
			}
			return keys[i] < keys[j]
		})
		b.WriteString("Missing patterns:\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "  %s: %d rows\n", k, p.Patterns[k])
		}
	}
	return b.String()
}
