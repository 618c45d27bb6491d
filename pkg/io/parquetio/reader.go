// Package parquetio reads Parquet files with segmentio/parquet-go and writes
// them with xitongsys/parquet-go.
package parquetio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	parquet "github.com/segmentio/parquet-go"

	tb "github.com/wdm0006/mice/pkg/table"
)

// ErrNested is returned for files whose schema is not flat.
var ErrNested = errors.New("nested parquet columns are not supported")

type Reader struct {
	file   *os.File
	pf     *parquet.File
	schema tb.Schema
}

// OpenReader opens path and derives the table schema from the file schema.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open parquet %s: %w", path, err)
	}
	schema, err := schemaOf(pf.Schema())
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Reader{file: f, pf: pf, schema: schema}, nil
}

func (r *Reader) Close() error { return r.file.Close() }

func (r *Reader) Schema() tb.Schema { return r.schema }

// Read loads a whole Parquet file.
func Read(path string) (*tb.Table, error) {
	r, err := OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()
	return r.ReadAll()
}

func schemaOf(s *parquet.Schema) (tb.Schema, error) {
	var out tb.Schema
	for _, f := range s.Fields() {
		if !f.Leaf() || f.Repeated() {
			return tb.Schema{}, fmt.Errorf("%w: %s", ErrNested, f.Name())
		}
		var k tb.Kind
		switch f.Type().Kind() {
		case parquet.Boolean:
			k = tb.KindBool
		case parquet.Int32, parquet.Int64:
			k = tb.KindInt
		case parquet.Float, parquet.Double:
			k = tb.KindFloat
		default:
			k = tb.KindString
		}
		out.Columns = append(out.Columns, tb.ColumnSchema{Name: f.Name(), Type: k})
	}
	return out, nil
}

func (r *Reader) ReadAll() (*tb.Table, error) {
	t := tb.New(r.schema)
	buf := make([]parquet.Row, 1024)
	for _, rg := range r.pf.RowGroups() {
		rows := rg.Rows()
		for {
			n, err := rows.ReadRows(buf)
			for i := 0; i < n; i++ {
				if err := setRow(t, buf[i]); err != nil {
					_ = rows.Close()
					return nil, err
				}
			}
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				_ = rows.Close()
				return nil, err
			}
			if n == 0 {
				break
			}
		}
		if err := rows.Close(); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// setRow appends one parquet row to t. NaN floats are read as missing.
func setRow(t *tb.Table, row parquet.Row) error {
	t.AppendNullRow()
	r := t.Rows() - 1
	cols := t.Schema().Columns
	for _, v := range row {
		c := v.Column()
		if v.IsNull() || c < 0 || c >= len(cols) {
			continue
		}
		var x any
		switch v.Kind() {
		case parquet.Boolean:
			x = v.Boolean()
		case parquet.Int32:
			x = int64(v.Int32())
		case parquet.Int64:
			x = v.Int64()
		case parquet.Float:
			x = float64(v.Float())
		case parquet.Double:
			x = v.Double()
		case parquet.ByteArray, parquet.FixedLenByteArray:
			x = string(v.ByteArray())
		default:
			x = v.String()
		}
		if f, ok := x.(float64); ok && math.IsNaN(f) {
			continue
		}
		if err := t.SetCell(r, cols[c].Name, x); err != nil {
			return fmt.Errorf("row %d: %w", r, err)
		}
	}
	return nil
}
