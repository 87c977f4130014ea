package cellconv

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Layouts tried, in order, when parsing a string column as datetimes.
// The first non-null value picks the layout; every later value must
// parse with the same one or the cast is abandoned.
var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04:05",
}

// ApplyColumnPolicy applies the pre-write column transforms to t in
// place: index-column drop, datetime parsing, numeric downcast, and
// space-to-underscore renaming. Failed transforms leave their column
// untouched and are reported as diagnostics, never as errors.
func ApplyColumnPolicy(t *Table, opts Options) []Diagnostic {
	var diags []Diagnostic
	warn := func(format string, args ...any) {
		diags = append(diags, Diagnostic{Message: fmt.Sprintf(format, args...)})
	}

	// The index column duplicates the positional row index, so it is
	// dropped rather than written twice.
	if opts.IndexColumn != "" {
		if !t.DropColumn(opts.IndexColumn) {
			warn("index column %q not found; keeping all columns", opts.IndexColumn)
		}
	}

	if !opts.HighPrecision {
		if opts.DatetimeColumn != "" {
			col, ok := t.ColumnByName(opts.DatetimeColumn)
			if !ok {
				warn("datetime column %q not found", opts.DatetimeColumn)
			} else if col.Kind() != KindTime {
				tc, ok := castToTime(col)
				if !ok {
					warn("datetime column %q could not be parsed as timestamps; leaving as %s", opts.DatetimeColumn, col.Kind())
				} else if err := t.ReplaceColumn(opts.DatetimeColumn, tc); err != nil {
					warn("datetime column %q: %v", opts.DatetimeColumn, err)
				}
			}
		}
		// Source instruments are good to ~7 significant digits, so
		// 32-bit floats keep the meaningful precision at half the
		// storage.
		for _, cs := range append([]ColumnSchema(nil), t.Schema().Columns...) {
			if cs.Name == opts.DatetimeColumn {
				continue
			}
			col, _ := t.ColumnByName(cs.Name)
			narrow, ok := downcastNumeric(col)
			if !ok {
				if col.Kind() == KindInt {
					warn("column %q exceeds 32-bit integer range; keeping int64", cs.Name)
				}
				continue
			}
			if narrow != nil {
				_ = t.ReplaceColumn(cs.Name, narrow)
			}
		}
	}

	for _, cs := range append([]ColumnSchema(nil), t.Schema().Columns...) {
		if strings.Contains(cs.Name, " ") {
			t.RenameColumn(cs.Name, strings.ReplaceAll(cs.Name, " ", "_"))
		}
	}

	return diags
}

// castToTime converts a string or numeric column to a time column.
// String columns must parse consistently under one known layout;
// numeric columns are read as unix epoch seconds (fractions allowed).
// Nulls stay null. Reports false when the column cannot be cast.
func castToTime(col Column) (*TimeColumn, bool) {
	switch c := col.(type) {
	case *StringColumn:
		layout := ""
		for i := 0; i < c.Len(); i++ {
			v, ok := c.Get(i)
			if !ok {
				continue
			}
			layout = matchLayout(v)
			break
		}
		if layout == "" {
			return nil, false
		}
		out := NewTimeColumn(c.Name(), 0)
		for i := 0; i < c.Len(); i++ {
			v, ok := c.Get(i)
			if !ok {
				out.AppendNull()
				continue
			}
			ts, err := time.Parse(layout, v)
			if err != nil {
				return nil, false
			}
			out.Append(ts)
		}
		return out, true
	case *FloatColumn:
		out := NewTimeColumn(c.Name(), 0)
		for i := 0; i < c.Len(); i++ {
			v, ok := c.Get(i)
			if !ok {
				out.AppendNull()
				continue
			}
			out.Append(epochSeconds(v))
		}
		return out, true
	case *IntColumn:
		out := NewTimeColumn(c.Name(), 0)
		for i := 0; i < c.Len(); i++ {
			v, ok := c.Get(i)
			if !ok {
				out.AppendNull()
				continue
			}
			out.Append(time.Unix(v, 0).UTC())
		}
		return out, true
	default:
		return nil, false
	}
}

func matchLayout(v string) string {
	for _, layout := range datetimeLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return layout
		}
	}
	return ""
}

func epochSeconds(v float64) time.Time {
	sec, frac := math.Modf(v)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}

// downcastNumeric reduces a 64-bit numeric column to its 32-bit
// counterpart. Non-numeric columns return (nil, true): nothing to do.
// Integer columns that would overflow report false and are left alone.
func downcastNumeric(col Column) (Column, bool) {
	switch c := col.(type) {
	case *FloatColumn:
		out := NewFloat32Column(c.Name(), 0)
		for i := 0; i < c.Len(); i++ {
			v, ok := c.Get(i)
			if !ok {
				out.AppendNull()
				continue
			}
			out.Append(float32(v))
		}
		return out, true
	case *IntColumn:
		for i := 0; i < c.Len(); i++ {
			if v, ok := c.Get(i); ok && (v > math.MaxInt32 || v < math.MinInt32) {
				return nil, false
			}
		}
		out := NewInt32Column(c.Name(), 0)
		for i := 0; i < c.Len(); i++ {
			v, ok := c.Get(i)
			if !ok {
				out.AppendNull()
				continue
			}
			out.Append(int32(v))
		}
		return out, true
	default:
		return nil, true
	}
}
