// Package csvio reads and writes tables as delimited text, optionally gzip
// compressed.
package csvio

import (
	"bufio"
	"encoding/csv"
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
	HasHeader  bool
	Delimiter  rune // 0 = sniff, default ','
	SampleRows int  // for inference; default 100
	Strict     bool // if true, error on short/long records and unparsable cells
	// Missing lists the cell texts read as missing; nil uses
	// ioutils.DefaultMissingTokens.
	Missing []string
	// Logger receives a warning when ReadAll repaired the input.
	Logger *slog.Logger
}

type Reader struct {
	read    func() ([]string, error)
	rc      io.Closer
	opt     ReaderOptions
	missing iox.MissingSet
	buf     [][]string
	// repair/warning counters
	shortRecords int
	longRecords  int
	widened      []string
}

// Open opens a CSV file ("-" for stdin) and returns a Reader. The caller
// must Close it.
func Open(path string, opt ReaderOptions) (*Reader, error) {
	rr, rc, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	if opt.Delimiter == 0 {
		if path != "-" && path != "" {
			if d, lazy, err := sniffDelimiterAndQuotes(path); err == nil && d != 0 {
				rr.Comma = d
				rr.LazyQuotes = lazy
			}
		}
	} else {
		rr.Comma = opt.Delimiter
	}
	return &Reader{read: rr.Read, rc: rc, opt: opt, missing: iox.NewMissingSet(opt.Missing)}, nil
}

func openCSV(path string) (*csv.Reader, io.ReadCloser, error) {
	rc, err := iox.OpenMaybeCompressed(path)
	if err != nil {
		return nil, nil, err
	}
	rr := csv.NewReader(rc)
	rr.FieldsPerRecord = -1
	return rr, rc, nil
}

// NewReaderFrom constructs a Reader from an arbitrary io.Reader (stdin, pipe).
func NewReaderFrom(r io.Reader, opt ReaderOptions) *Reader {
	rr := csv.NewReader(r)
	rr.FieldsPerRecord = -1
	if opt.Delimiter != 0 {
		rr.Comma = opt.Delimiter
	}
	return &Reader{read: rr.Read, opt: opt, missing: iox.NewMissingSet(opt.Missing)}
}

// FromRecords builds a table from records that are already split into
// cells, such as spreadsheet rows. The first record is the header when
// opt.HasHeader is set.
func FromRecords(recs [][]string, opt ReaderOptions) (*tb.Table, error) {
	r := &Reader{opt: opt, missing: iox.NewMissingSet(opt.Missing)}
	r.read = func() ([]string, error) {
		if len(recs) == 0 {
			return nil, io.EOF
		}
		rec := recs[0]
		recs = recs[1:]
		return rec, nil
	}
	schema, err := r.InferSchema()
	if err != nil {
		return nil, err
	}
	return r.ReadAll(schema)
}

func (r *Reader) Close() error {
	if r.rc == nil {
		return nil
	}
	return r.rc.Close()
}

// Read loads a whole CSV file, inferring its schema.
func Read(path string, opt ReaderOptions) (*tb.Table, error) {
	r, err := Open(path, opt)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()
	schema, err := r.InferSchema()
	if err != nil {
		return nil, err
	}
	return r.ReadAll(schema)
}

// InferSchema reads the header (if present) and samples rows to determine
// column kinds. Sampled rows are kept for ReadAll.
func (r *Reader) InferSchema() (tb.Schema, error) {
	var names []string
	rec, err := r.read()
	if err != nil {
		return tb.Schema{}, err
	}
	if r.opt.HasHeader {
		names = make([]string, len(rec))
		for i := range rec {
			names[i] = strings.TrimSpace(strings.ToValidUTF8(rec[i], "?"))
		}
		if len(names) > 0 {
			names[0] = strings.TrimPrefix(names[0], "\ufeff")
		}
		rec, err = r.read()
		if err == io.EOF {
			return r.schemaOf(names, nil), nil
		}
		if err != nil {
			return tb.Schema{}, err
		}
	} else {
		names = make([]string, len(rec))
		for i := range names {
			names[i] = "col_" + strconv.Itoa(i)
		}
	}

	sample := [][]string{clone(rec)}
	limit := r.opt.SampleRows
	if limit <= 0 {
		limit = 100
	}
	for i := 1; i < limit; i++ {
		rr, err := r.read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return tb.Schema{}, err
		}
		sample = append(sample, clone(rr))
	}
	r.buf = append(r.buf, sample...)
	return r.schemaOf(names, sample), nil
}

func (r *Reader) schemaOf(names []string, sample [][]string) tb.Schema {
	kinds := inferKinds(sample, len(names), r.missing)
	s := tb.Schema{Columns: make([]tb.ColumnSchema, len(names))}
	for i := range names {
		s.Columns[i] = tb.ColumnSchema{Name: names[i], Type: kinds[i]}
	}
	return s
}

// ReadAll loads the rest of the CSV into a Table.
//
// Outside strict mode the whole input is buffered first, and a column with
// a present cell that does not parse as its sampled kind is widened (int to
// float, otherwise to string), so the returned schema may differ from the
// one passed in. Observed values are never dropped.
func (r *Reader) ReadAll(schema tb.Schema) (*tb.Table, error) {
	recs := r.buf
	r.buf = nil
	for {
		rec, err := r.read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if !r.opt.Strict {
		schema = r.widen(schema, recs)
	}
	t := tb.New(schema)
	for _, rec := range recs {
		if err := r.appendRecord(t, rec); err != nil {
			return nil, err
		}
	}
	if w := r.Warnings(); w != "" && r.opt.Logger != nil {
		r.opt.Logger.Warn("csv input repaired", slog.String("warnings", w))
	}
	return t, nil
}

// widen returns schema with every column kind relaxed until all present
// cells of recs parse.
func (r *Reader) widen(schema tb.Schema, recs [][]string) tb.Schema {
	cols := append([]tb.ColumnSchema(nil), schema.Columns...)
	for i := range cols {
		k := cols[i].Type
		for _, rec := range recs {
			if k == tb.KindString {
				break
			}
			if i >= len(rec) {
				continue
			}
			val := cellText(rec[i])
			if r.missing.Has(val) {
				continue
			}
			if _, err := parseCell(k, val); err == nil {
				continue
			}
			if _, err := parseCell(tb.KindFloat, val); err == nil && k == tb.KindInt {
				k = tb.KindFloat
			} else {
				k = tb.KindString
			}
		}
		if k != cols[i].Type {
			r.widened = append(r.widened, cols[i].Name)
			cols[i].Type = k
		}
	}
	return tb.Schema{Columns: cols}
}

func cellText(s string) string { return strings.ToValidUTF8(strings.TrimSpace(s), "?") }

func (r *Reader) appendRecord(t *tb.Table, rec []string) error {
	cols := t.Schema().Columns
	t.AppendNullRow()
	row := t.Rows() - 1
	if len(rec) > len(cols) {
		r.longRecords++
		if r.opt.Strict {
			return fmt.Errorf("csv long record at row %d: need %d fields, got %d", row, len(cols), len(rec))
		}
	}
	for i, cs := range cols {
		if i >= len(rec) {
			r.shortRecords++
			if r.opt.Strict {
				return fmt.Errorf("csv short record at row %d: need %d fields, got %d", row, len(cols), len(rec))
			}
			break
		}
		val := cellText(rec[i])
		if r.missing.Has(val) {
			continue
		}
		v, err := parseCell(cs.Type, val)
		if err != nil {
			return fmt.Errorf("row %d column %s: %w", row, cs.Name, err)
		}
		if err := t.SetCell(row, cs.Name, v); err != nil {
			return err
		}
	}
	return nil
}

func parseCell(k tb.Kind, val string) (any, error) {
	switch k {
	case tb.KindFloat:
		return strconv.ParseFloat(val, 64)
	case tb.KindInt:
		return strconv.ParseInt(val, 10, 64)
	case tb.KindBool:
		return strconv.ParseBool(strings.ToLower(val))
	}
	return val, nil
}

var numre = regexp.MustCompile(`^[-+]?[0-9]*\.?[0-9]+([eE][-+]?[0-9]+)?$`)

func inferKinds(rows [][]string, ncol int, missing iox.MissingSet) []tb.Kind {
	kinds := make([]tb.Kind, ncol)
	for c := 0; c < ncol; c++ {
		num, integer, boolean, str := 0, 0, 0, 0
		for _, row := range rows {
			if c >= len(row) {
				continue
			}
			v := strings.TrimSpace(row[c])
			if missing.Has(v) {
				continue
			}
			switch lv := strings.ToLower(v); {
			case numre.MatchString(v):
				num++
				if !strings.ContainsAny(v, ".eE") {
					integer++
				}
			case lv == "true" || lv == "false":
				boolean++
			default:
				str++
			}
		}
		switch {
		case boolean > 0 && num == 0 && str == 0:
			kinds[c] = tb.KindBool
		case num > 0 && str == 0 && boolean == 0 && integer == num:
			kinds[c] = tb.KindInt
		case num > 0 && str == 0 && boolean == 0:
			kinds[c] = tb.KindFloat
		default:
			kinds[c] = tb.KindString
		}
	}
	return kinds
}

func sniffDelimiterAndQuotes(path string) (rune, bool, error) {
	rc, err := iox.OpenMaybeCompressed(path)
	if err != nil {
		return 0, false, err
	}
	defer func() { _ = rc.Close() }()
	br := bufio.NewReader(rc)
	sample, _ := br.Peek(4096)
	if len(sample) == 0 {
		return ',', false, nil
	}
	best, bestCount := byte(','), -1
	for _, c := range []byte{',', '\t', ';', '|'} {
		cnt := 0
		for _, b := range sample {
			if b == c {
				cnt++
			}
		}
		if cnt > bestCount {
			bestCount, best = cnt, c
		}
	}
	quotes := 0
	for _, b := range sample {
		if b == '"' {
			quotes++
		}
	}
	return rune(best), quotes%2 != 0, nil
}

// Warnings returns a summary string of any repairs/mismatches encountered.
func (r *Reader) Warnings() string {
	var parts []string
	if r.shortRecords > 0 {
		parts = append(parts, fmt.Sprintf("short_records=%d", r.shortRecords))
	}
	if r.longRecords > 0 {
		parts = append(parts, fmt.Sprintf("long_records=%d", r.longRecords))
	}
	if len(r.widened) > 0 {
		parts = append(parts, "widened="+strings.Join(r.widened, "|"))
	}
	return strings.Join(parts, ", ")
}

func clone(rec []string) []string { return append([]string(nil), rec...) }
