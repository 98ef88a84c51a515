package frame

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/parquet-go/parquet-go"
)

// MarshalParquet encodes the frame as a snappy-compressed Parquet file.
// The schema is derived from the first non-nil value of each column; a
// column with no values at all is written as an optional string column.
func (f *Frame) MarshalParquet() ([]byte, error) {
	schema, err := f.parquetSchema()
	if err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	writer := parquet.NewGenericWriter[map[string]interface{}](buf, schema,
		parquet.Compression(&parquet.Snappy))

	if len(f.Rows) > 0 {
		if _, err := writer.Write(f.Rows); err != nil {
			return nil, fmt.Errorf("write parquet rows: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalParquet decodes a Parquet file into a frame. Column order
// follows the file schema.
func UnmarshalParquet(data []byte) (*Frame, error) {
	pqFile, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open parquet file: %w", err)
	}

	out := &Frame{}
	for _, field := range pqFile.Schema().Fields() {
		out.Columns = append(out.Columns, field.Name())
	}

	reader := parquet.NewGenericReader[map[string]interface{}](pqFile, pqFile.Schema())
	defer func() { _ = reader.Close() }()

	batch := make([]map[string]interface{}, 64)
	for {
		for i := range batch {
			batch[i] = map[string]interface{}{}
		}
		n, err := reader.Read(batch)
		for i := 0; i < n; i++ {
			out.Rows = append(out.Rows, normalizeRow(batch[i]))
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("read parquet rows: %w", err)
		}
	}
	return out, nil
}

// parquetSchema builds an all-optional schema from the frame's columns.
func (f *Frame) parquetSchema() (*parquet.Schema, error) {
	if len(f.Columns) == 0 {
		return nil, fmt.Errorf("frame has no columns")
	}
	group := parquet.Group{}
	for _, col := range f.Columns {
		node, err := nodeForColumn(f.firstValue(col))
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col, err)
		}
		group[col] = parquet.Optional(node)
	}
	return parquet.NewSchema("frame", group), nil
}

// firstValue returns the first non-nil value of a column, or nil.
func (f *Frame) firstValue(col string) interface{} {
	for _, row := range f.Rows {
		if v, ok := row[col]; ok && v != nil {
			return v
		}
	}
	return nil
}

func nodeForColumn(sample interface{}) (parquet.Node, error) {
	switch sample.(type) {
	case nil, string:
		return parquet.String(), nil
	case int, int8, int16, int32, int64:
		return parquet.Int(64), nil
	case uint, uint8, uint16, uint32, uint64:
		return parquet.Uint(64), nil
	case float32, float64:
		return parquet.Leaf(parquet.DoubleType), nil
	case bool:
		return parquet.Leaf(parquet.BooleanType), nil
	case time.Time:
		return parquet.Timestamp(parquet.Millisecond), nil
	case []byte:
		return parquet.Leaf(parquet.ByteArrayType), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", sample)
	}
}

// normalizeRow widens small integer kinds so values compare predictably
// regardless of the physical type a file used.
func normalizeRow(row map[string]interface{}) map[string]interface{} {
	for k, v := range row {
		switch n := v.(type) {
		case int32:
			row[k] = int64(n)
		case int16:
			row[k] = int64(n)
		case int8:
			row[k] = int64(n)
		case int:
			row[k] = int64(n)
		case float32:
			row[k] = float64(n)
		}
	}
	return row
}
