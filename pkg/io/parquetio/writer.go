// Package parquetio serializes tables to Parquet files and reads them
// back. Two writer engines are available: "segment"
// (segmentio/parquet-go, the default) and "xitongsys"
// (xitongsys/parquet-go). Both produce the same logical schema;
// timestamps are written with millisecond precision.
package parquetio

import (
	"fmt"
	"os"

	"github.com/pkg/errors"

	cc "github.com/battlab/cellconv/pkg/cellconv"
)

// Writer writes tables with a configurable engine and compression
// codec. The zero value is invalid; use NewWriter.
type Writer struct {
	engine      string
	compression string
}

// NewWriter returns a Writer for the given engine ("segment" or
// "xitongsys") and codec name (gzip, snappy, zstd, uncompressed/none).
// Both are assumed pre-validated by cellconv.Options.Validate.
func NewWriter(engine, compression string) *Writer {
	return &Writer{engine: engine, compression: compression}
}

// Write serializes t to path and returns the written file's size in
// bytes. A partial file from a failed write is removed.
func (w *Writer) Write(path string, t *cc.Table) (int64, error) {
	var err error
	switch w.engine {
	case cc.EngineSegment:
		err = writeSegment(path, t, w.compression)
	case cc.EngineXitongsys:
		err = writeXitongsys(path, t, w.compression)
	default:
		err = fmt.Errorf("unknown parquet engine %q", w.engine)
	}
	if err != nil {
		_ = os.Remove(path)
		return 0, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, errors.Wrap(err, "statting output")
	}
	return info.Size(), nil
}

// cellValue extracts one cell as a writer-friendly value. Times become
// epoch milliseconds. Reports false for nulls.
func cellValue(col cc.Column, row int) (any, bool) {
	switch c := col.(type) {
	case *cc.BoolColumn:
		return c.Get(row)
	case *cc.IntColumn:
		return c.Get(row)
	case *cc.Int32Column:
		return c.Get(row)
	case *cc.FloatColumn:
		return c.Get(row)
	case *cc.Float32Column:
		return c.Get(row)
	case *cc.StringColumn:
		return c.Get(row)
	case *cc.TimeColumn:
		v, ok := c.Get(row)
		if !ok {
			return nil, false
		}
		return v.UnixMilli(), true
	default:
		return nil, false
	}
}
