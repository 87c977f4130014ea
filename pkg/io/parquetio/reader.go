package parquetio

import (
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	parquet "github.com/segmentio/parquet-go"

	cc "github.com/battlab/cellconv/pkg/cellconv"
)

// ReadTable loads a Parquet file back into a table, recovering the
// logical schema from the file metadata.
func ReadTable(path string) (*cc.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening parquet")
	}
	defer func() { _ = f.Close() }()

	r := parquet.NewReader(f)
	defer func() { _ = r.Close() }()

	schema, err := tableSchema(r.Schema())
	if err != nil {
		return nil, err
	}
	t := cc.NewTable(schema)

	rows := make([]parquet.Row, 256)
	for {
		n, err := r.ReadRows(rows)
		for i := 0; i < n; i++ {
			appendRow(t, schema, rows[i])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading rows")
		}
		if n == 0 {
			break
		}
	}
	return t, nil
}

// NumRows reports the row count of a Parquet file without loading it.
func NumRows(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, "opening parquet")
	}
	defer func() { _ = f.Close() }()
	r := parquet.NewReader(f)
	defer func() { _ = r.Close() }()
	return r.NumRows(), nil
}

// tableSchema maps the file's fields onto column schemas. The field
// order matches the leaf column index order for a flat schema, which
// appendRow relies on.
func tableSchema(ps *parquet.Schema) (cc.Schema, error) {
	fields := ps.Fields()
	s := cc.Schema{Columns: make([]cc.ColumnSchema, len(fields))}
	for i, fld := range fields {
		kind, err := fieldKind(fld)
		if err != nil {
			return cc.Schema{}, err
		}
		s.Columns[i] = cc.ColumnSchema{Name: fld.Name(), Type: kind, Nullable: fld.Optional()}
	}
	return s, nil
}

func fieldKind(fld parquet.Field) (cc.Kind, error) {
	typ := fld.Type()
	if lt := typ.LogicalType(); lt != nil {
		if lt.Timestamp != nil {
			return cc.KindTime, nil
		}
		if lt.UTF8 != nil {
			return cc.KindString, nil
		}
	}
	switch typ.Kind() {
	case parquet.Boolean:
		return cc.KindBool, nil
	case parquet.Int32:
		return cc.KindInt32, nil
	case parquet.Int64:
		return cc.KindInt, nil
	case parquet.Float:
		return cc.KindFloat32, nil
	case parquet.Double:
		return cc.KindFloat, nil
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return cc.KindString, nil
	default:
		return cc.KindInvalid, errors.Errorf("column %s: unsupported parquet type %s", fld.Name(), typ)
	}
}

func appendRow(t *cc.Table, schema cc.Schema, row parquet.Row) {
	t.AppendNullRow()
	r := t.Rows() - 1
	for _, v := range row {
		if v.IsNull() {
			continue
		}
		ci := v.Column()
		if ci < 0 || ci >= len(schema.Columns) {
			continue
		}
		cs := schema.Columns[ci]
		switch cs.Type {
		case cc.KindTime:
			_ = t.SetCell(r, cs.Name, time.UnixMilli(v.Int64()).UTC())
		case cc.KindString:
			_ = t.SetCell(r, cs.Name, string(v.ByteArray()))
		case cc.KindBool:
			_ = t.SetCell(r, cs.Name, v.Boolean())
		case cc.KindInt:
			_ = t.SetCell(r, cs.Name, v.Int64())
		case cc.KindInt32:
			_ = t.SetCell(r, cs.Name, v.Int32())
		case cc.KindFloat:
			_ = t.SetCell(r, cs.Name, v.Double())
		case cc.KindFloat32:
			_ = t.SetCell(r, cs.Name, v.Float())
		}
	}
}
