package parquetio

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	parquet "github.com/segmentio/parquet-go"
	"github.com/segmentio/parquet-go/compress"

	cc "github.com/battlab/cellconv/pkg/cellconv"
)

func segmentCodec(name string) compress.Codec {
	switch name {
	case "snappy":
		return &parquet.Snappy
	case "zstd":
		return &parquet.Zstd
	case "gzip":
		return &parquet.Gzip
	default:
		return &parquet.Uncompressed
	}
}

func segmentNode(k cc.Kind) (parquet.Node, error) {
	switch k {
	case cc.KindBool:
		return parquet.Leaf(parquet.BooleanType), nil
	case cc.KindInt:
		return parquet.Int(64), nil
	case cc.KindInt32:
		return parquet.Int(32), nil
	case cc.KindFloat:
		return parquet.Leaf(parquet.DoubleType), nil
	case cc.KindFloat32:
		return parquet.Leaf(parquet.FloatType), nil
	case cc.KindString:
		return parquet.String(), nil
	case cc.KindTime:
		return parquet.Timestamp(parquet.Millisecond), nil
	default:
		return nil, fmt.Errorf("column kind %s cannot be written", k)
	}
}

func segmentSchema(s cc.Schema) (*parquet.Schema, error) {
	group := parquet.Group{}
	for _, cs := range s.Columns {
		node, err := segmentNode(cs.Type)
		if err != nil {
			return nil, errors.Wrap(err, cs.Name)
		}
		if cs.Nullable {
			node = parquet.Optional(node)
		}
		group[cs.Name] = node
	}
	return parquet.NewSchema("table", group), nil
}

func writeSegment(path string, t *cc.Table, compression string) error {
	schema, err := segmentSchema(t.Schema())
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating output")
	}
	w := parquet.NewWriter(f, schema,
		parquet.Compression(segmentCodec(compression)))

	// Rows are assembled value by value because the column set is only
	// known at runtime. Schema fields are sorted by name, which fixes
	// the leaf column indexes; every leaf is Optional, so present values
	// carry definition level 1 and nulls level 0.
	fields := schema.Fields()
	cols := make([]cc.Column, len(fields))
	for i, fld := range fields {
		cols[i], _ = t.ColumnByName(fld.Name())
	}

	const batch = 1024
	rows := make([]parquet.Row, 0, batch)
	for r := 0; r < t.Rows(); r++ {
		row := make(parquet.Row, len(cols))
		for i, col := range cols {
			if v, ok := cellValue(col, r); ok {
				row[i] = parquet.ValueOf(v).Level(0, 1, i)
			} else {
				row[i] = parquet.ValueOf(nil).Level(0, 0, i)
			}
		}
		rows = append(rows, row)
		if len(rows) == batch {
			if _, err := w.WriteRows(rows); err != nil {
				_ = f.Close()
				return errors.Wrap(err, "writing rows")
			}
			rows = rows[:0]
		}
	}
	if len(rows) > 0 {
		if _, err := w.WriteRows(rows); err != nil {
			_ = f.Close()
			return errors.Wrap(err, "writing rows")
		}
	}
	if err := w.Close(); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "closing writer")
	}
	return f.Close()
}
