// Package jsonlio reads and writes tables as JSON Lines, one object per row.
package jsonlio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	iox "github.com/wdm0006/mice/pkg/io/ioutils"
	tb "github.com/wdm0006/mice/pkg/table"
)

type ReaderOptions struct {
	SampleRows int
	// Missing lists string values read as missing; nil uses
	// ioutils.DefaultMissingTokens. JSON null is always missing.
	Missing []string
	// Logger receives a warning when ReadAll widened a column.
	Logger *slog.Logger
}

type Reader struct {
	dec     *json.Decoder
	rc      io.Closer
	opt     ReaderOptions
	missing iox.MissingSet
	buf     []object
	keys    []string
}

// object is one decoded row with its keys in document order.
type object struct {
	values map[string]any
	keys   []string
}

// Open opens a JSONL file ("-" for stdin, gzip detected). The caller must
// Close the Reader.
func Open(path string, opt ReaderOptions) (*Reader, error) {
	rc, err := iox.OpenMaybeCompressed(path)
	if err != nil {
		return nil, err
	}
	r := NewReaderFrom(rc, opt)
	r.rc = rc
	return r, nil
}

func NewReaderFrom(rd io.Reader, opt ReaderOptions) *Reader {
	return &Reader{dec: json.NewDecoder(rd), opt: opt, missing: iox.NewMissingSet(opt.Missing)}
}

func (r *Reader) Close() error {
	if r.rc == nil {
		return nil
	}
	return r.rc.Close()
}

// Read loads a whole JSONL file, inferring its schema.
func Read(path string, opt ReaderOptions) (*tb.Table, error) {
	r, err := Open(path, opt)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()
	s, err := r.InferSchema()
	if err != nil {
		return nil, err
	}
	return r.ReadAll(s)
}

// InferSchema samples objects to determine the columns and their kinds.
// Columns are ordered by first appearance. Sampled rows are kept for
// ReadAll.
func (r *Reader) InferSchema() (tb.Schema, error) {
	limit := r.opt.SampleRows
	if limit <= 0 {
		limit = 100
	}
	seen := map[string]bool{}
	for len(r.buf) < limit {
		o, err := r.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return tb.Schema{}, err
		}
		r.buf = append(r.buf, o)
		for _, k := range o.keys {
			if !seen[k] {
				seen[k] = true
				r.keys = append(r.keys, k)
			}
		}
	}
	kinds := inferKinds(r.buf, r.keys, r.missing)
	schema := tb.Schema{Columns: make([]tb.ColumnSchema, len(r.keys))}
	for i, k := range r.keys {
		schema.Columns[i] = tb.ColumnSchema{Name: k, Type: kinds[i]}
	}
	return schema, nil
}

// ReadAll loads the buffered sample and the rest of the input. Keys absent
// from schema are ignored; absent columns are missing. A column holding a
// value that does not convert to its sampled kind is widened (int to float,
// otherwise to string) so no present value is dropped.
func (r *Reader) ReadAll(schema tb.Schema) (*tb.Table, error) {
	objs := r.buf
	r.buf = nil
	for {
		o, err := r.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", len(objs), err)
		}
		objs = append(objs, o)
	}
	schema, widened := r.widen(schema, objs)
	if len(widened) > 0 && r.opt.Logger != nil {
		r.opt.Logger.Warn("jsonl columns widened", slog.String("columns", strings.Join(widened, ",")))
	}
	t := tb.New(schema)
	for _, o := range objs {
		if err := r.appendObject(t, o); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (r *Reader) widen(schema tb.Schema, objs []object) (tb.Schema, []string) {
	cols := append([]tb.ColumnSchema(nil), schema.Columns...)
	var widened []string
	for i := range cols {
		k := cols[i].Type
		for _, o := range objs {
			if k == tb.KindString {
				break
			}
			v, ok := r.present(o, cols[i].Name)
			if !ok {
				continue
			}
			if _, ok := convert(k, v); ok {
				continue
			}
			if _, ok := convert(tb.KindFloat, v); ok && k == tb.KindInt {
				k = tb.KindFloat
			} else {
				k = tb.KindString
			}
		}
		if k != cols[i].Type {
			widened = append(widened, cols[i].Name)
			cols[i].Type = k
		}
	}
	return tb.Schema{Columns: cols}, widened
}

// present returns the value of key in o unless it is null or a missing
// token.
func (r *Reader) present(o object, key string) (any, bool) {
	v, ok := o.values[key]
	if !ok || v == nil {
		return nil, false
	}
	if s, isStr := v.(string); isStr && r.missing.Has(s) {
		return nil, false
	}
	return v, true
}

func (r *Reader) next() (object, error) {
	var raw json.RawMessage
	if err := r.dec.Decode(&raw); err != nil {
		return object{}, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if tok, err := dec.Token(); err != nil {
		return object{}, err
	} else if d, ok := tok.(json.Delim); !ok || d != '{' {
		return object{}, fmt.Errorf("expected object, got %v", tok)
	}
	o := object{values: map[string]any{}}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return object{}, err
		}
		k := tok.(string)
		var v any
		if err := dec.Decode(&v); err != nil {
			return object{}, err
		}
		if _, dup := o.values[k]; !dup {
			o.keys = append(o.keys, k)
		}
		o.values[k] = v
	}
	return o, nil
}

func (r *Reader) appendObject(t *tb.Table, o object) error {
	t.AppendNullRow()
	row := t.Rows() - 1
	for _, cs := range t.Schema().Columns {
		v, ok := r.present(o, cs.Name)
		if !ok {
			continue
		}
		x, ok := convert(cs.Type, v)
		if !ok {
			return fmt.Errorf("row %d column %s: cannot read %v as %s", row, cs.Name, v, cs.Type)
		}
		if err := t.SetCell(row, cs.Name, x); err != nil {
			return err
		}
	}
	return nil
}

// convert coerces a decoded JSON value to the Go type of kind k.
func convert(k tb.Kind, v any) (any, bool) {
	switch k {
	case tb.KindFloat:
		switch t := v.(type) {
		case json.Number:
			x, err := t.Float64()
			return x, err == nil
		case string:
			x, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
			return x, err == nil
		}
	case tb.KindInt:
		switch t := v.(type) {
		case json.Number:
			x, err := t.Int64()
			return x, err == nil
		case string:
			x, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
			return x, err == nil
		}
	case tb.KindBool:
		switch t := v.(type) {
		case bool:
			return t, true
		case string:
			x, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(t)))
			return x, err == nil
		}
	default:
		switch t := v.(type) {
		case string:
			return t, true
		case json.Number:
			return t.String(), true
		default:
			b, _ := json.Marshal(t)
			return string(b), true
		}
	}
	return nil, false
}

var numre = regexp.MustCompile(`^[-+]?[0-9]*\.?[0-9]+([eE][-+]?[0-9]+)?$`)

func inferKinds(sample []object, keys []string, missing iox.MissingSet) []tb.Kind {
	kinds := make([]tb.Kind, len(keys))
	for i, k := range keys {
		nNum, nInt, nBool, nStr := 0, 0, 0, 0
		for _, o := range sample {
			v, ok := o.values[k]
			if !ok || v == nil {
				continue
			}
			switch t := v.(type) {
			case json.Number:
				nNum++
				if _, err := t.Int64(); err == nil {
					nInt++
				}
			case bool:
				nBool++
			case string:
				s := strings.TrimSpace(t)
				if missing.Has(s) {
					continue
				}
				if numre.MatchString(s) {
					nNum++
					if !strings.ContainsAny(s, ".eE") {
						nInt++
					}
				} else {
					nStr++
				}
			default:
				nStr++
			}
		}
		switch {
		case nBool > 0 && nNum == 0 && nStr == 0:
			kinds[i] = tb.KindBool
		case nNum > 0 && nStr == 0 && nBool == 0 && nInt == nNum:
			kinds[i] = tb.KindInt
		case nNum > 0 && nStr == 0 && nBool == 0:
			kinds[i] = tb.KindFloat
		default:
			kinds[i] = tb.KindString
		}
	}
	return kinds
}
