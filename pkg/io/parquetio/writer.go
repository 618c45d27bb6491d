package parquetio

import (
	"encoding/json"
	"fmt"
	"strings"

	local "github.com/xitongsys/parquet-go-source/local"
	pw "github.com/xitongsys/parquet-go/writer"

	tb "github.com/wdm0006/mice/pkg/table"
)

func parquetSchemaJSON(s tb.Schema) (string, error) {
	type field struct {
		Tag string `json:"Tag"`
	}
	type schema struct {
		Tag    string  `json:"Tag"`
		Fields []field `json:"Fields"`
	}
	sc := schema{Tag: "name=schema, repetitiontype=REQUIRED"}
	for _, cs := range s.Columns {
		if strings.ContainsAny(cs.Name, ",= \t") {
			return "", fmt.Errorf("column name %q cannot be written to parquet", cs.Name)
		}
		tag := "name=" + cs.Name + ", repetitiontype=OPTIONAL, type="
		switch cs.Type {
		case tb.KindFloat:
			tag += "DOUBLE"
		case tb.KindInt:
			tag += "INT64"
		case tb.KindBool:
			tag += "BOOLEAN"
		default:
			tag += "BYTE_ARRAY, convertedtype=UTF8"
		}
		sc.Fields = append(sc.Fields, field{Tag: tag})
	}
	b, err := json.Marshal(sc)
	return string(b), err
}

// WriteAll writes a Table to a Parquet file. Missing cells are null.
func WriteAll(path string, t *tb.Table) error {
	schema, err := parquetSchemaJSON(t.Schema())
	if err != nil {
		return err
	}
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	writer, err := pw.NewJSONWriter(schema, fw, 4)
	if err != nil {
		_ = fw.Close()
		return fmt.Errorf("parquet writer init: %w", err)
	}
	names := t.Schema().Names()
	for r := 0; r < t.Rows(); r++ {
		rec := make(map[string]any, len(names))
		for c, name := range names {
			if v := t.Value(r, c); v != nil {
				rec[name] = v
			}
		}
		b, err := json.Marshal(rec)
		if err != nil {
			_ = fw.Close()
			return err
		}
		if err := writer.Write(string(b)); err != nil {
			_ = fw.Close()
			return fmt.Errorf("parquet write row %d: %w", r, err)
		}
	}
	if err := writer.WriteStop(); err != nil {
		_ = fw.Close()
		return fmt.Errorf("parquet finish: %w", err)
	}
	return fw.Close()
}
