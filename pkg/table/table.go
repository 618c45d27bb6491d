package table

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrUnknownColumn is returned when a column name is not part of the schema.
var ErrUnknownColumn = errors.New("unknown column")

// Schema describes the logical shape of a table.
type Schema struct {
	Columns []ColumnSchema
}

type ColumnSchema struct {
	Name string
	Type Kind
}

// Names returns the column names in schema order.
func (s Schema) Names() []string {
	out := make([]string, len(s.Columns))
	for i, cs := range s.Columns {
		out[i] = cs.Name
	}
	return out
}

// Kind enumerates supported logical types.
type Kind int

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
)

// IsNumeric reports whether columns of this kind are imputed by regression.
func (k Kind) IsNumeric() bool { return k == KindInt || k == KindFloat }

// IsCategorical reports whether columns of this kind are imputed by classification.
func (k Kind) IsCategorical() bool { return k == KindString || k == KindBool }

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "invalid"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "bool":
		return KindBool, nil
	case "int":
		return KindInt, nil
	case "float":
		return KindFloat, nil
	case "string":
		return KindString, nil
	}
	return KindInvalid, fmt.Errorf("invalid column kind %q", s)
}

// Column is a typed, nullable column abstraction.
type Column interface {
	Name() string
	Kind() Kind
	Len() int
	IsNull(i int) bool
	SetNull(i int)
	Clone() Column
}

// Numeric is implemented by columns that hold numbers.
type Numeric interface {
	Column
	Float(i int) (float64, bool)
	SetFloat(i int, v float64)
}

// Categorical is implemented by columns whose values are labels.
type Categorical interface {
	Column
	Label(i int) (string, bool)
	SetLabel(i int, v string) error
}

type BoolColumn struct {
	name  string
	data  []bool
	nulls []bool
}

func NewBoolColumn(name string, n int) *BoolColumn {
	return &BoolColumn{name: name, data: make([]bool, n), nulls: make([]bool, n)}
}
func (c *BoolColumn) Name() string           { return c.name }
func (c *BoolColumn) Kind() Kind             { return KindBool }
func (c *BoolColumn) Len() int               { return len(c.data) }
func (c *BoolColumn) IsNull(i int) bool      { return c.nulls[i] }
func (c *BoolColumn) SetNull(i int)          { c.nulls[i] = true }
func (c *BoolColumn) Get(i int) (bool, bool) { return c.data[i], !c.nulls[i] }
func (c *BoolColumn) Set(i int, v bool)      { c.data[i] = v; c.nulls[i] = false }
func (c *BoolColumn) AppendNull()            { c.data = append(c.data, false); c.nulls = append(c.nulls, true) }
func (c *BoolColumn) Append(v bool)          { c.data = append(c.data, v); c.nulls = append(c.nulls, false) }
func (c *BoolColumn) Clone() Column {
	return &BoolColumn{name: c.name, data: append([]bool(nil), c.data...), nulls: append([]bool(nil), c.nulls...)}
}
func (c *BoolColumn) Label(i int) (string, bool) {
	if c.nulls[i] {
		return "", false
	}
	return strconv.FormatBool(c.data[i]), true
}
func (c *BoolColumn) SetLabel(i int, v string) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("column %s expects bool label, got %q", c.name, v)
	}
	c.Set(i, b)
	return nil
}

type IntColumn struct {
	name  string
	data  []int64
	nulls []bool
}

func NewIntColumn(name string, n int) *IntColumn {
	return &IntColumn{name: name, data: make([]int64, n), nulls: make([]bool, n)}
}
func (c *IntColumn) Name() string            { return c.name }
func (c *IntColumn) Kind() Kind              { return KindInt }
func (c *IntColumn) Len() int                { return len(c.data) }
func (c *IntColumn) IsNull(i int) bool       { return c.nulls[i] }
func (c *IntColumn) SetNull(i int)           { c.nulls[i] = true }
func (c *IntColumn) Get(i int) (int64, bool) { return c.data[i], !c.nulls[i] }
func (c *IntColumn) Set(i int, v int64)      { c.data[i] = v; c.nulls[i] = false }
func (c *IntColumn) AppendNull()             { c.data = append(c.data, 0); c.nulls = append(c.nulls, true) }
func (c *IntColumn) Append(v int64)          { c.data = append(c.data, v); c.nulls = append(c.nulls, false) }
func (c *IntColumn) Clone() Column {
	return &IntColumn{name: c.name, data: append([]int64(nil), c.data...), nulls: append([]bool(nil), c.nulls...)}
}
func (c *IntColumn) Float(i int) (float64, bool) { return float64(c.data[i]), !c.nulls[i] }

// SetFloat stores v rounded half away from zero.
func (c *IntColumn) SetFloat(i int, v float64) { c.Set(i, int64(math.Round(v))) }

type FloatColumn struct {
	name  string
	data  []float64
	nulls []bool
}

func NewFloatColumn(name string, n int) *FloatColumn {
	return &FloatColumn{name: name, data: make([]float64, n), nulls: make([]bool, n)}
}
func (c *FloatColumn) Name() string              { return c.name }
func (c *FloatColumn) Kind() Kind                { return KindFloat }
func (c *FloatColumn) Len() int                  { return len(c.data) }
func (c *FloatColumn) IsNull(i int) bool         { return c.nulls[i] }
func (c *FloatColumn) SetNull(i int)             { c.nulls[i] = true }
func (c *FloatColumn) Get(i int) (float64, bool) { return c.data[i], !c.nulls[i] }
func (c *FloatColumn) Set(i int, v float64)      { c.data[i] = v; c.nulls[i] = false }
func (c *FloatColumn) AppendNull()               { c.data = append(c.data, 0); c.nulls = append(c.nulls, true) }
func (c *FloatColumn) Append(v float64)          { c.data = append(c.data, v); c.nulls = append(c.nulls, false) }
func (c *FloatColumn) Clone() Column {
	return &FloatColumn{name: c.name, data: append([]float64(nil), c.data...), nulls: append([]bool(nil), c.nulls...)}
}
func (c *FloatColumn) Float(i int) (float64, bool) { return c.Get(i) }
func (c *FloatColumn) SetFloat(i int, v float64)   { c.Set(i, v) }

type StringColumn struct {
	name  string
	data  []string
	nulls []bool
}

func NewStringColumn(name string, n int) *StringColumn {
	return &StringColumn{name: name, data: make([]string, n), nulls: make([]bool, n)}
}
func (c *StringColumn) Name() string             { return c.name }
func (c *StringColumn) Kind() Kind               { return KindString }
func (c *StringColumn) Len() int                 { return len(c.data) }
func (c *StringColumn) IsNull(i int) bool        { return c.nulls[i] }
func (c *StringColumn) SetNull(i int)            { c.nulls[i] = true }
func (c *StringColumn) Get(i int) (string, bool) { return c.data[i], !c.nulls[i] }
func (c *StringColumn) Set(i int, v string)      { c.data[i] = v; c.nulls[i] = false }
func (c *StringColumn) AppendNull()              { c.data = append(c.data, ""); c.nulls = append(c.nulls, true) }
func (c *StringColumn) Append(v string)          { c.data = append(c.data, v); c.nulls = append(c.nulls, false) }
func (c *StringColumn) Clone() Column {
	return &StringColumn{name: c.name, data: append([]string(nil), c.data...), nulls: append([]bool(nil), c.nulls...)}
}
func (c *StringColumn) Label(i int) (string, bool)     { return c.Get(i) }
func (c *StringColumn) SetLabel(i int, v string) error { c.Set(i, v); return nil }

// Table is a columnar container for tabular data. Rows are addressed by
// their position, which stays stable for the lifetime of the table.
type Table struct {
	schema Schema
	cols   []Column
	index  map[string]int // name -> col index
	nrows  int
}

// New returns an empty table with the given schema. It panics on an invalid
// column kind or a duplicate column name.
func New(s Schema) *Table {
	t := &Table{schema: s, cols: make([]Column, len(s.Columns)), index: make(map[string]int, len(s.Columns))}
	for i, cs := range s.Columns {
		switch cs.Type {
		case KindBool:
			t.cols[i] = NewBoolColumn(cs.Name, 0)
		case KindInt:
			t.cols[i] = NewIntColumn(cs.Name, 0)
		case KindFloat:
			t.cols[i] = NewFloatColumn(cs.Name, 0)
		case KindString:
			t.cols[i] = NewStringColumn(cs.Name, 0)
		default:
			panic("invalid column kind")
		}
		if _, dup := t.index[cs.Name]; dup {
			panic("duplicate column name " + cs.Name)
		}
		t.index[cs.Name] = i
	}
	return t
}

func (t *Table) Schema() Schema     { return t.schema }
func (t *Table) Rows() int          { return t.nrows }
func (t *Table) Cols() int          { return len(t.cols) }
func (t *Table) Column(i int) Column { return t.cols[i] }

func (t *Table) ColumnByName(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, error) {
	i, ok := t.index[name]
	if !ok {
		return -1, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
	}
	return i, nil
}

// Clone returns a deep copy that shares no storage with t.
func (t *Table) Clone() *Table {
	out := &Table{
		schema: Schema{Columns: append([]ColumnSchema(nil), t.schema.Columns...)},
		cols:   make([]Column, len(t.cols)),
		index:  make(map[string]int, len(t.index)),
		nrows:  t.nrows,
	}
	for i, c := range t.cols {
		out.cols[i] = c.Clone()
	}
	for k, v := range t.index {
		out.index[k] = v
	}
	return out
}

// AppendNullRow appends a row with all-null values.
func (t *Table) AppendNullRow() {
	for _, c := range t.cols {
		switch col := c.(type) {
		case *BoolColumn:
			col.AppendNull()
		case *IntColumn:
			col.AppendNull()
		case *FloatColumn:
			col.AppendNull()
		case *StringColumn:
			col.AppendNull()
		default:
			panic("unknown column type")
		}
	}
	t.nrows++
}

// SetCell sets a single cell value by name (row must exist). A nil value
// marks the cell missing.
func (t *Table) SetCell(row int, name string, v any) error {
	i, ok := t.index[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, name)
	}
	if v == nil {
		t.cols[i].SetNull(row)
		return nil
	}
	switch col := t.cols[i].(type) {
	case *BoolColumn:
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("column %s expects bool", name)
		}
		col.Set(row, b)
	case *IntColumn:
		switch x := v.(type) {
		case int:
			col.Set(row, int64(x))
		case int64:
			col.Set(row, x)
		case float64:
			col.SetFloat(row, x)
		default:
			return fmt.Errorf("column %s expects int/int64", name)
		}
	case *FloatColumn:
		switch x := v.(type) {
		case float32:
			col.Set(row, float64(x))
		case float64:
			col.Set(row, x)
		case int:
			col.Set(row, float64(x))
		case int64:
			col.Set(row, float64(x))
		default:
			return fmt.Errorf("column %s expects float64", name)
		}
	case *StringColumn:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("column %s expects string", name)
		}
		col.Set(row, s)
	default:
		return fmt.Errorf("unknown column kind")
	}
	return nil
}

// Value returns the cell as a Go value, or nil when the cell is missing.
func (t *Table) Value(row, col int) any {
	switch c := t.cols[col].(type) {
	case *BoolColumn:
		if v, ok := c.Get(row); ok {
			return v
		}
	case *IntColumn:
		if v, ok := c.Get(row); ok {
			return v
		}
	case *FloatColumn:
		if v, ok := c.Get(row); ok {
			return v
		}
	case *StringColumn:
		if v, ok := c.Get(row); ok {
			return v
		}
	}
	return nil
}

// Equal reports whether a and b have the same schema and identical cells.
func Equal(a, b *Table) bool {
	if a.Rows() != b.Rows() || a.Cols() != b.Cols() {
		return false
	}
	for i, cs := range a.schema.Columns {
		if b.schema.Columns[i] != cs {
			return false
		}
	}
	for c := 0; c < a.Cols(); c++ {
		for r := 0; r < a.Rows(); r++ {
			if a.Value(r, c) != b.Value(r, c) {
				return false
			}
		}
	}
	return true
}
