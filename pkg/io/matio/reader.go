// Package matio loads MATLAB Level 5 .mat files into tables.
//
// A variable is table-shaped when it is a struct whose fields are
// equal-length numeric vectors; the fields become the table's columns.
// Every other variable is ignored. Table-shaped variables found across
// all files of an experiment are concatenated row-wise, and a column-set
// mismatch between them fails the experiment rather than merging
// ambiguously.
package matio

import (
	cc "github.com/battlab/cellconv/pkg/cellconv"
)

// Loader is the MAT adapter.
type Loader struct{}

// Load appends every table-shaped variable of every file onto one
// accumulator, in file sort order then variable order within the file.
// When nothing table-shaped exists in the whole experiment, the result
// is cellconv.ErrEmptyExperiment.
func (l *Loader) Load(paths []string) (*cc.Table, []string, error) {
	var acc *cc.Table
	for _, path := range paths {
		vars, err := parseMATFile(path)
		if err != nil {
			return nil, nil, err
		}
		for _, v := range vars {
			t, ok := asTable(v)
			if !ok {
				continue
			}
			if acc == nil {
				acc = t
				continue
			}
			if err := cc.Concat(acc, t); err != nil {
				if fe, isFormat := err.(*cc.FormatError); isFormat {
					fe.File = path
					return nil, nil, fe
				}
				return nil, nil, err
			}
		}
	}
	if acc == nil {
		return nil, nil, cc.ErrEmptyExperiment
	}
	return acc, nil, nil
}

// asTable converts a struct variable whose fields are equal-length
// numeric vectors into a table. Reports false for anything else.
func asTable(v matVar) (*cc.Table, bool) {
	if v.class != mxSTRUCT || len(v.fields) == 0 {
		return nil, false
	}
	n := -1
	for _, f := range v.fields {
		if !isNumericVector(f.v) {
			return nil, false
		}
		if n == -1 {
			n = len(f.v.values)
		} else if len(f.v.values) != n {
			return nil, false
		}
	}

	schema := cc.Schema{Columns: make([]cc.ColumnSchema, len(v.fields))}
	for i, f := range v.fields {
		schema.Columns[i] = cc.ColumnSchema{Name: f.name, Type: cc.KindFloat, Nullable: true}
	}
	t := cc.NewTable(schema)
	for r := 0; r < n; r++ {
		t.AppendNullRow()
		for _, f := range v.fields {
			_ = t.SetCell(r, f.name, f.v.values[r])
		}
	}
	return t, true
}

func isNumericVector(v matVar) bool {
	if v.class < mxDOUBLE || v.class > mxUINT64 || v.values == nil {
		return false
	}
	// column or row vector (or empty)
	nonUnit := 0
	for _, d := range v.dims {
		if d > 1 {
			nonUnit++
		}
	}
	if nonUnit > 1 {
		return false
	}
	return true
}
