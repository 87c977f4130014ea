// Package npyio loads NumPy .npy arrays into tables.
//
// An .npy file is a bare 2-D numeric array, so column names, datetime
// units and precision come from a YAML format descriptor. The default
// descriptor matches the instrument export: Time (unix seconds),
// Current, Voltage, Temperature.
package npyio

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	npy "github.com/sbinet/npyio"
	"github.com/pkg/errors"

	cc "github.com/battlab/cellconv/pkg/cellconv"
)

// Loader is the NPY adapter. Unlike the CSV and MAT paths it never
// concatenates: one experiment converts exactly one array file.
type Loader struct {
	Descriptor FormatDescriptor
}

// Load converts the first file in sort order. Additional matching files
// are ignored with a warning. When the array width does not match the
// descriptor, a template descriptor file is written next to the input
// so the user can adjust and re-run with -format.
func (l *Loader) Load(paths []string) (*cc.Table, []string, error) {
	var warnings []string
	if len(paths) > 1 {
		warnings = append(warnings, fmt.Sprintf(
			"%d additional file(s) ignored: the npy path converts one file per experiment", len(paths)-1))
	}
	path := paths[0]

	desc := l.Descriptor
	if len(desc.Columns) == 0 {
		desc = DefaultDescriptor()
	}

	data, rows, cols, err := readArray(path)
	if err != nil {
		return nil, warnings, err
	}
	if cols != len(desc.Columns) {
		templatePath := path + "_format.yml"
		if werr := os.WriteFile(templatePath, []byte(defaultDescriptorYAML), 0o644); werr == nil {
			return nil, warnings, fmt.Errorf(
				"%s has %d columns but the format names %d; wrote template %s, edit it and re-run with -format",
				path, cols, len(desc.Columns), templatePath)
		}
		return nil, warnings, fmt.Errorf("%s has %d columns but the format names %d", path, cols, len(desc.Columns))
	}

	schema := cc.Schema{Columns: make([]cc.ColumnSchema, cols)}
	for i, name := range desc.Columns {
		kind := cc.KindFloat
		if desc.Float32 {
			kind = cc.KindFloat32
		}
		if _, ok := desc.DateColumn[name]; ok {
			kind = cc.KindTime
		}
		schema.Columns[i] = cc.ColumnSchema{Name: name, Type: kind, Nullable: true}
	}
	table := cc.NewTable(schema)

	for r := 0; r < rows; r++ {
		table.AppendNullRow()
		for c, name := range desc.Columns {
			v := data[r*cols+c]
			if unit, ok := desc.DateColumn[name]; ok {
				ts, err := epochTime(v, unit)
				if err != nil {
					return nil, warnings, errors.Wrapf(err, "column %s", name)
				}
				_ = table.SetCell(r, name, ts)
				continue
			}
			if desc.Float32 {
				_ = table.SetCell(r, name, float32(v))
			} else {
				_ = table.SetCell(r, name, v)
			}
		}
	}
	return table, warnings, nil
}

// readArray reads a 1-D or 2-D numeric array as row-major float64.
func readArray(path string) (data []float64, rows, cols int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, errors.Wrap(err, "opening npy")
	}
	defer func() { _ = f.Close() }()

	r, err := npy.NewReader(f)
	if err != nil {
		return nil, 0, 0, errors.Wrapf(err, "reading %s", path)
	}
	shape := r.Header.Descr.Shape
	switch len(shape) {
	case 1:
		rows, cols = shape[0], 1
	case 2:
		rows, cols = shape[0], shape[1]
	default:
		return nil, 0, 0, fmt.Errorf("%s: unsupported array rank %d", path, len(shape))
	}

	dt := r.Header.Descr.Type
	switch {
	case strings.HasSuffix(dt, "f8"):
		data = make([]float64, 0, rows*cols)
		if err := r.Read(&data); err != nil {
			return nil, 0, 0, errors.Wrapf(err, "reading %s", path)
		}
	case strings.HasSuffix(dt, "f4"):
		var f32 []float32
		if err := r.Read(&f32); err != nil {
			return nil, 0, 0, errors.Wrapf(err, "reading %s", path)
		}
		data = make([]float64, len(f32))
		for i, v := range f32 {
			data[i] = float64(v)
		}
	case strings.HasSuffix(dt, "i8"):
		var i64 []int64
		if err := r.Read(&i64); err != nil {
			return nil, 0, 0, errors.Wrapf(err, "reading %s", path)
		}
		data = make([]float64, len(i64))
		for i, v := range i64 {
			data[i] = float64(v)
		}
	case strings.HasSuffix(dt, "i4"):
		var i32 []int32
		if err := r.Read(&i32); err != nil {
			return nil, 0, 0, errors.Wrapf(err, "reading %s", path)
		}
		data = make([]float64, len(i32))
		for i, v := range i32 {
			data[i] = float64(v)
		}
	default:
		return nil, 0, 0, fmt.Errorf("%s: unsupported dtype %q", path, dt)
	}
	if len(data) != rows*cols {
		return nil, 0, 0, fmt.Errorf("%s: read %d values, want %d", path, len(data), rows*cols)
	}

	if r.Header.Descr.Fortran && cols > 1 {
		data = fortranToRowMajor(data, rows, cols)
	}
	return data, rows, cols, nil
}

func fortranToRowMajor(data []float64, rows, cols int) []float64 {
	out := make([]float64, len(data))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out[r*cols+c] = data[c*rows+r]
		}
	}
	return out
}

func epochTime(v float64, unit string) (time.Time, error) {
	var scale float64
	switch unit {
	case "s":
		scale = 1e9
	case "ms":
		scale = 1e6
	case "us":
		scale = 1e3
	case "ns":
		scale = 1
	default:
		return time.Time{}, fmt.Errorf("unsupported date unit %q", unit)
	}
	sec, frac := math.Modf(v * scale / 1e9)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
}
