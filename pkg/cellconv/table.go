package cellconv

import (
	"fmt"
	"time"
)

// Schema describes the logical shape of an experiment's table.
type Schema struct {
	Columns []ColumnSchema
}

type ColumnSchema struct {
	Name     string
	Type     Kind
	Nullable bool
}

// Equal reports whether two schemas have the same columns in the same
// order, by name and kind.
func (s Schema) Equal(o Schema) bool {
	if len(s.Columns) != len(o.Columns) {
		return false
	}
	for i := range s.Columns {
		if s.Columns[i].Name != o.Columns[i].Name || s.Columns[i].Type != o.Columns[i].Type {
			return false
		}
	}
	return true
}

// Kind enumerates supported logical types. The 32-bit variants exist for
// the precision-reduction policy.
type Kind int

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindInt32
	KindFloat
	KindFloat32
	KindString
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int64"
	case KindInt32:
		return "int32"
	case KindFloat:
		return "float64"
	case KindFloat32:
		return "float32"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	default:
		return "invalid"
	}
}

// Column is a typed, nullable column abstraction.
type Column interface {
	Name() string
	Kind() Kind
	Len() int
	IsNull(i int) bool
	SetNull(i int)
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

type Int32Column struct {
	name  string
	data  []int32
	nulls []bool
}

func NewInt32Column(name string, n int) *Int32Column {
	return &Int32Column{name: name, data: make([]int32, n), nulls: make([]bool, n)}
}
func (c *Int32Column) Name() string            { return c.name }
func (c *Int32Column) Kind() Kind              { return KindInt32 }
func (c *Int32Column) Len() int                { return len(c.data) }
func (c *Int32Column) IsNull(i int) bool       { return c.nulls[i] }
func (c *Int32Column) SetNull(i int)           { c.nulls[i] = true }
func (c *Int32Column) Get(i int) (int32, bool) { return c.data[i], !c.nulls[i] }
func (c *Int32Column) Set(i int, v int32)      { c.data[i] = v; c.nulls[i] = false }
func (c *Int32Column) AppendNull()             { c.data = append(c.data, 0); c.nulls = append(c.nulls, true) }
func (c *Int32Column) Append(v int32)          { c.data = append(c.data, v); c.nulls = append(c.nulls, false) }

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

type Float32Column struct {
	name  string
	data  []float32
	nulls []bool
}

func NewFloat32Column(name string, n int) *Float32Column {
	return &Float32Column{name: name, data: make([]float32, n), nulls: make([]bool, n)}
}
func (c *Float32Column) Name() string              { return c.name }
func (c *Float32Column) Kind() Kind                { return KindFloat32 }
func (c *Float32Column) Len() int                  { return len(c.data) }
func (c *Float32Column) IsNull(i int) bool         { return c.nulls[i] }
func (c *Float32Column) SetNull(i int)             { c.nulls[i] = true }
func (c *Float32Column) Get(i int) (float32, bool) { return c.data[i], !c.nulls[i] }
func (c *Float32Column) Set(i int, v float32)      { c.data[i] = v; c.nulls[i] = false }
func (c *Float32Column) AppendNull()               { c.data = append(c.data, 0); c.nulls = append(c.nulls, true) }
func (c *Float32Column) Append(v float32)          { c.data = append(c.data, v); c.nulls = append(c.nulls, false) }

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

type TimeColumn struct {
	name  string
	data  []time.Time
	nulls []bool
}

func NewTimeColumn(name string, n int) *TimeColumn {
	return &TimeColumn{name: name, data: make([]time.Time, n), nulls: make([]bool, n)}
}
func (c *TimeColumn) Name() string                { return c.name }
func (c *TimeColumn) Kind() Kind                  { return KindTime }
func (c *TimeColumn) Len() int                    { return len(c.data) }
func (c *TimeColumn) IsNull(i int) bool           { return c.nulls[i] }
func (c *TimeColumn) SetNull(i int)               { c.nulls[i] = true }
func (c *TimeColumn) Get(i int) (time.Time, bool) { return c.data[i], !c.nulls[i] }
func (c *TimeColumn) Set(i int, v time.Time)      { c.data[i] = v; c.nulls[i] = false }
func (c *TimeColumn) AppendNull() {
	c.data = append(c.data, time.Time{})
	c.nulls = append(c.nulls, true)
}
func (c *TimeColumn) Append(v time.Time) {
	c.data = append(c.data, v)
	c.nulls = append(c.nulls, false)
}

// Table is the in-memory, column-aligned concatenation of an experiment's
// data files. It is owned by a single experiment's conversion and
// discarded once the Parquet file is written.
type Table struct {
	schema Schema
	cols   []Column
	index  map[string]int // name -> col index
	nrows  int
}

func newColumn(cs ColumnSchema) Column {
	switch cs.Type {
	case KindBool:
		return NewBoolColumn(cs.Name, 0)
	case KindInt:
		return NewIntColumn(cs.Name, 0)
	case KindInt32:
		return NewInt32Column(cs.Name, 0)
	case KindFloat:
		return NewFloatColumn(cs.Name, 0)
	case KindFloat32:
		return NewFloat32Column(cs.Name, 0)
	case KindString:
		return NewStringColumn(cs.Name, 0)
	case KindTime:
		return NewTimeColumn(cs.Name, 0)
	default:
		panic("invalid column kind")
	}
}

func NewTable(s Schema) *Table {
	t := &Table{schema: s, cols: make([]Column, len(s.Columns)), index: make(map[string]int)}
	for i, cs := range s.Columns {
		t.cols[i] = newColumn(cs)
		t.index[cs.Name] = i
	}
	return t
}

func (t *Table) Schema() Schema { return t.schema }
func (t *Table) Rows() int      { return t.nrows }
func (t *Table) Cols() int      { return len(t.cols) }

func (t *Table) ColumnByName(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// AppendNullRow appends a row with all-null values.
func (t *Table) AppendNullRow() {
	for _, c := range t.cols {
		switch col := c.(type) {
		case *BoolColumn:
			col.AppendNull()
		case *IntColumn:
			col.AppendNull()
		case *Int32Column:
			col.AppendNull()
		case *FloatColumn:
			col.AppendNull()
		case *Float32Column:
			col.AppendNull()
		case *StringColumn:
			col.AppendNull()
		case *TimeColumn:
			col.AppendNull()
		default:
			panic("unknown column type")
		}
	}
	t.nrows++
}

// SetCell sets a single cell value by name (row must exist).
func (t *Table) SetCell(row int, name string, v any) error {
	i, ok := t.index[name]
	if !ok {
		return fmt.Errorf("unknown column: %s", name)
	}
	c := t.cols[i]
	switch col := c.(type) {
	case *BoolColumn:
		if v == nil {
			col.SetNull(row)
			return nil
		}
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("column %s expects bool", name)
		}
		col.Set(row, b)
	case *IntColumn:
		if v == nil {
			col.SetNull(row)
			return nil
		}
		switch x := v.(type) {
		case int:
			col.Set(row, int64(x))
		case int64:
			col.Set(row, x)
		case int32:
			col.Set(row, int64(x))
		case float64:
			col.Set(row, int64(x))
		default:
			return fmt.Errorf("column %s expects int/int64", name)
		}
	case *Int32Column:
		if v == nil {
			col.SetNull(row)
			return nil
		}
		switch x := v.(type) {
		case int32:
			col.Set(row, x)
		case int:
			col.Set(row, int32(x))
		case int64:
			col.Set(row, int32(x))
		default:
			return fmt.Errorf("column %s expects int32", name)
		}
	case *FloatColumn:
		if v == nil {
			col.SetNull(row)
			return nil
		}
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
	case *Float32Column:
		if v == nil {
			col.SetNull(row)
			return nil
		}
		switch x := v.(type) {
		case float32:
			col.Set(row, x)
		case float64:
			col.Set(row, float32(x))
		default:
			return fmt.Errorf("column %s expects float32", name)
		}
	case *StringColumn:
		if v == nil {
			col.SetNull(row)
			return nil
		}
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("column %s expects string", name)
		}
		col.Set(row, s)
	case *TimeColumn:
		if v == nil {
			col.SetNull(row)
			return nil
		}
		ts, ok := v.(time.Time)
		if !ok {
			return fmt.Errorf("column %s expects time.Time", name)
		}
		col.Set(row, ts)
	default:
		return fmt.Errorf("unknown column kind")
	}
	return nil
}

// Concat appends all rows of src onto dst. Both tables must have the
// same schema; a mismatch is a *FormatError so callers can skip the
// experiment rather than produce a misaligned table.
func Concat(dst, src *Table) error {
	if !dst.schema.Equal(src.schema) {
		return &FormatError{Reason: "column sets differ between concatenated tables"}
	}
	for i, c := range src.cols {
		switch col := c.(type) {
		case *BoolColumn:
			d := dst.cols[i].(*BoolColumn)
			d.data = append(d.data, col.data...)
			d.nulls = append(d.nulls, col.nulls...)
		case *IntColumn:
			d := dst.cols[i].(*IntColumn)
			d.data = append(d.data, col.data...)
			d.nulls = append(d.nulls, col.nulls...)
		case *Int32Column:
			d := dst.cols[i].(*Int32Column)
			d.data = append(d.data, col.data...)
			d.nulls = append(d.nulls, col.nulls...)
		case *FloatColumn:
			d := dst.cols[i].(*FloatColumn)
			d.data = append(d.data, col.data...)
			d.nulls = append(d.nulls, col.nulls...)
		case *Float32Column:
			d := dst.cols[i].(*Float32Column)
			d.data = append(d.data, col.data...)
			d.nulls = append(d.nulls, col.nulls...)
		case *StringColumn:
			d := dst.cols[i].(*StringColumn)
			d.data = append(d.data, col.data...)
			d.nulls = append(d.nulls, col.nulls...)
		case *TimeColumn:
			d := dst.cols[i].(*TimeColumn)
			d.data = append(d.data, col.data...)
			d.nulls = append(d.nulls, col.nulls...)
		default:
			panic("unknown column type")
		}
	}
	dst.nrows += src.nrows
	return nil
}

// DropColumn removes the named column. Reports false when the column
// does not exist.
func (t *Table) DropColumn(name string) bool {
	i, ok := t.index[name]
	if !ok {
		return false
	}
	t.cols = append(t.cols[:i], t.cols[i+1:]...)
	t.schema.Columns = append(t.schema.Columns[:i], t.schema.Columns[i+1:]...)
	t.index = make(map[string]int, len(t.cols))
	for j, cs := range t.schema.Columns {
		t.index[cs.Name] = j
	}
	return true
}

// ReplaceColumn swaps the named column for col, which must have the same
// length as the table. The schema entry takes col's kind.
func (t *Table) ReplaceColumn(name string, col Column) error {
	i, ok := t.index[name]
	if !ok {
		return fmt.Errorf("unknown column: %s", name)
	}
	if col.Len() != t.nrows {
		return fmt.Errorf("column %s: length %d does not match %d rows", name, col.Len(), t.nrows)
	}
	t.cols[i] = col
	t.schema.Columns[i].Type = col.Kind()
	if col.Name() != name {
		t.schema.Columns[i].Name = col.Name()
		delete(t.index, name)
		t.index[col.Name()] = i
	}
	return nil
}

// RenameColumn renames a column in place. Reports false when the column
// does not exist.
func (t *Table) RenameColumn(old, new string) bool {
	i, ok := t.index[old]
	if !ok {
		return false
	}
	t.schema.Columns[i].Name = new
	switch col := t.cols[i].(type) {
	case *BoolColumn:
		col.name = new
	case *IntColumn:
		col.name = new
	case *Int32Column:
		col.name = new
	case *FloatColumn:
		col.name = new
	case *Float32Column:
		col.name = new
	case *StringColumn:
		col.name = new
	case *TimeColumn:
		col.name = new
	}
	delete(t.index, old)
	t.index[new] = i
	return true
}
