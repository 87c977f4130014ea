package parquetio

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/xitongsys/parquet-go/parquet"
	pw "github.com/xitongsys/parquet-go/writer"
	local "github.com/xitongsys/parquet-go-source/local"

	cc "github.com/battlab/cellconv/pkg/cellconv"
)

func xitongsysCodec(name string) parquet.CompressionCodec {
	switch name {
	case "snappy":
		return parquet.CompressionCodec_SNAPPY
	case "gzip":
		return parquet.CompressionCodec_GZIP
	default:
		return parquet.CompressionCodec_UNCOMPRESSED
	}
}

// xitongsysSchemaJSON builds the JSON schema string the JSONWriter
// wants from a table schema.
func xitongsysSchemaJSON(s cc.Schema) (string, error) {
	type field struct {
		Tag string `json:"Tag"`
	}
	type schema struct {
		Tag    string  `json:"Tag"`
		Fields []field `json:"Fields"`
	}
	sc := schema{Tag: "name=schema, repetitiontype=REQUIRED"}
	for _, cs := range s.Columns {
		tag := "name=" + cs.Name + ", repetitiontype=OPTIONAL, type="
		switch cs.Type {
		case cc.KindFloat:
			tag += "DOUBLE"
		case cc.KindFloat32:
			tag += "FLOAT"
		case cc.KindInt:
			tag += "INT64"
		case cc.KindInt32:
			tag += "INT32"
		case cc.KindBool:
			tag += "BOOLEAN"
		// TIMESTAMP_MILLIS and UTF8 are converted types spelled as the
		// type itself in this writer's tag syntax; the physical types
		// (INT64, BYTE_ARRAY) are implied.
		case cc.KindTime:
			tag += "TIMESTAMP_MILLIS"
		case cc.KindString:
			tag += "UTF8"
		default:
			return "", errors.Errorf("column %s: kind %s cannot be written", cs.Name, cs.Type)
		}
		sc.Fields = append(sc.Fields, field{Tag: tag})
	}
	b, err := json.Marshal(sc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func writeXitongsys(path string, t *cc.Table, compression string) error {
	schema, err := xitongsysSchemaJSON(t.Schema())
	if err != nil {
		return err
	}
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return errors.Wrap(err, "creating output")
	}
	writer, err := pw.NewJSONWriter(schema, fw, 4)
	if err != nil {
		_ = fw.Close()
		return errors.Wrap(err, "parquet writer init")
	}
	writer.CompressionType = xitongsysCodec(compression)

	cols := make([]cc.Column, len(t.Schema().Columns))
	for i, cs := range t.Schema().Columns {
		cols[i], _ = t.ColumnByName(cs.Name)
	}

	for r := 0; r < t.Rows(); r++ {
		rec := make(map[string]any, len(cols))
		for _, col := range cols {
			if v, ok := cellValue(col, r); ok {
				rec[col.Name()] = v
			}
		}
		b, err := json.Marshal(rec)
		if err != nil {
			_ = fw.Close()
			return errors.Wrap(err, "encoding row")
		}
		if err := writer.Write(string(b)); err != nil {
			_ = fw.Close()
			return errors.Wrap(err, "parquet write row")
		}
	}
	if err := writer.WriteStop(); err != nil {
		_ = fw.Close()
		return errors.Wrap(err, "closing writer")
	}
	return fw.Close()
}
