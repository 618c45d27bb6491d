package csvio

import (
	"encoding/csv"
	"io"
	"strconv"

	iox "github.com/wdm0006/mice/pkg/io/ioutils"
	tb "github.com/wdm0006/mice/pkg/table"
)

type WriterOptions struct {
	Delimiter rune   // default ','
	Missing   string // text written for missing cells, default empty
}

// WriteAll writes a Table to a CSV file ("-" for stdout) with a header row.
// A .gz path is gzip compressed.
func WriteAll(path string, t *tb.Table, opt WriterOptions) error {
	out, err := iox.CreateMaybeCompressed(path)
	if err != nil {
		return err
	}
	if err := Write(out, t, opt); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// Write encodes t to w.
func Write(w io.Writer, t *tb.Table, opt WriterOptions) error {
	cw := csv.NewWriter(w)
	if opt.Delimiter != 0 {
		cw.Comma = opt.Delimiter
	}
	if err := cw.Write(t.Schema().Names()); err != nil {
		return err
	}
	row := make([]string, t.Cols())
	for r := 0; r < t.Rows(); r++ {
		for c := range row {
			row[c] = format(t.Value(r, c), opt.Missing)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func format(v any, missing string) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case string:
		return x
	}
	return missing
}
