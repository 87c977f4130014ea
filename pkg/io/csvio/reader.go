// Package csvio loads experiments of delimited text files into tables.
//
// Every file of one experiment must carry the same header; rows are
// concatenated in file sort order. Column kinds are inferred from a
// sample of the first file's rows.
package csvio

import (
	"encoding/csv"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	cc "github.com/battlab/cellconv/pkg/cellconv"
)

// Loader is the CSV adapter.
type Loader struct {
	// Delimiter defaults to ','.
	Delimiter rune
	// SampleRows bounds kind inference; default 100.
	SampleRows int
}

// Load parses every file as delimited rows under the first file's
// header and concatenates them into one table. Differing headers
// between files of the same experiment are a *cellconv.FormatError.
func (l *Loader) Load(paths []string) (*cc.Table, []string, error) {
	var table *cc.Table
	var header []string
	var schema cc.Schema
	for _, path := range paths {
		names, records, err := l.readRecords(path)
		if err != nil {
			return nil, nil, err
		}
		if table == nil {
			header = names
			schema = inferSchema(names, records, l.sampleRows())
			table = cc.NewTable(schema)
		} else if !equalHeader(header, names) {
			return nil, nil, &cc.FormatError{File: path, Reason: "header differs from first file of experiment"}
		}
		appendRecords(table, schema, records)
	}
	return table, nil, nil
}

func (l *Loader) sampleRows() int {
	if l.SampleRows <= 0 {
		return 100
	}
	return l.SampleRows
}

func (l *Loader) readRecords(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening csv")
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	if l.Delimiter != 0 {
		r.Comma = l.Delimiter
	}
	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, errors.Wrapf(err, "reading %s", path)
	}
	if len(all) == 0 {
		return nil, nil, &cc.FormatError{File: path, Reason: "empty file, no header row"}
	}
	names := make([]string, len(all[0]))
	for i, n := range all[0] {
		names[i] = strings.ToValidUTF8(strings.TrimSpace(n), "?")
	}
	// strip BOM on first header cell if present
	if len(names) > 0 {
		names[0] = strings.TrimPrefix(names[0], "\uFEFF")
	}
	return names, all[1:], nil
}

func equalHeader(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func inferSchema(names []string, records [][]string, sample int) cc.Schema {
	if len(records) < sample {
		sample = len(records)
	}
	kinds := inferKinds(records[:sample], len(names))
	schema := cc.Schema{Columns: make([]cc.ColumnSchema, len(names))}
	for i := range names {
		schema.Columns[i] = cc.ColumnSchema{Name: names[i], Type: kinds[i], Nullable: true}
	}
	return schema
}

var numre = regexp.MustCompile(`^[-+]?[0-9]*\.?[0-9]+([eE][-+]?[0-9]+)?$`)

func inferKinds(rows [][]string, ncol int) []cc.Kind {
	kinds := make([]cc.Kind, ncol)
	for c := 0; c < ncol; c++ {
		num, integer, boolean, str := 0, 0, 0, 0
		for _, row := range rows {
			if c >= len(row) {
				continue
			}
			v := strings.TrimSpace(row[c])
			if v == "" {
				continue
			}
			if numre.MatchString(v) {
				num++
				if !strings.ContainsAny(v, ".eE") {
					integer++
				}
			} else {
				lv := strings.ToLower(v)
				if lv == "true" || lv == "false" {
					boolean++
				} else {
					str++
				}
			}
		}
		// prefer float over int to be permissive
		switch {
		case boolean > num && boolean > str:
			kinds[c] = cc.KindBool
		case num > str:
			if integer == num {
				kinds[c] = cc.KindInt
			} else {
				kinds[c] = cc.KindFloat
			}
		default:
			kinds[c] = cc.KindString
		}
	}
	return kinds
}

func appendRecords(t *cc.Table, schema cc.Schema, records [][]string) {
	for _, rec := range records {
		t.AppendNullRow()
		row := t.Rows() - 1
		for i, cs := range schema.Columns {
			if i >= len(rec) {
				continue
			}
			val := strings.ToValidUTF8(strings.TrimSpace(rec[i]), "?")
			if val == "" {
				continue
			}
			switch cs.Type {
			case cc.KindFloat:
				if x, err := strconv.ParseFloat(val, 64); err == nil {
					_ = t.SetCell(row, cs.Name, x)
				}
			case cc.KindInt:
				if x, err := strconv.ParseInt(val, 10, 64); err == nil {
					_ = t.SetCell(row, cs.Name, x)
				}
			case cc.KindBool:
				if x, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
					_ = t.SetCell(row, cs.Name, x)
				}
			default:
				_ = t.SetCell(row, cs.Name, val)
			}
		}
	}
}
