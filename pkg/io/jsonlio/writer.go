package jsonlio

import (
	"bufio"
	"encoding/json"
	"io"

	iox "github.com/wdm0006/mice/pkg/io/ioutils"
	tb "github.com/wdm0006/mice/pkg/table"
)

// WriteAll writes t as JSON Lines to path ("-" for stdout, .gz compressed).
// Missing cells are written as null. Keys are sorted by encoding/json.
func WriteAll(path string, t *tb.Table) error {
	out, err := iox.CreateMaybeCompressed(path)
	if err != nil {
		return err
	}
	if err := Write(out, t); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func Write(w io.Writer, t *tb.Table) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	names := t.Schema().Names()
	for r := 0; r < t.Rows(); r++ {
		m := make(map[string]any, len(names))
		for c, name := range names {
			m[name] = t.Value(r, c)
		}
		if err := enc.Encode(m); err != nil {
			return err
		}
	}
	return bw.Flush()
}
