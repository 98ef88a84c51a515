// Package frame holds tabular result sets and their Parquet encoding.
// A Frame is the in-process analog of a DataFrame: named columns over
// rows of loosely typed values.
package frame

// Frame is an ordered set of named columns over rows. Rows are maps so
// files with differing column sets can be combined; Columns preserves
// the logical order.
type Frame struct {
	Columns []string                 `json:"columns"`
	Rows    []map[string]interface{} `json:"rows"`
}

// New creates an empty frame with the given column order.
func New(columns ...string) *Frame {
	return &Frame{Columns: columns}
}

// NumRows returns the row count.
func (f *Frame) NumRows() int { return len(f.Rows) }

// HasColumn reports whether the frame declares the named column.
func (f *Frame) HasColumn(name string) bool {
	for _, c := range f.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AppendRow adds one row. Columns seen for the first time are appended
// to the column order.
func (f *Frame) AppendRow(row map[string]interface{}) {
	for k := range row {
		if !f.HasColumn(k) {
			f.Columns = append(f.Columns, k)
		}
	}
	f.Rows = append(f.Rows, row)
}

// SetConstColumn sets the named column to the same value in every row,
// appending the column if absent. Used to materialize partition values
// as plain columns so hive-partition inference and direct column access
// agree on what the data contains.
func (f *Frame) SetConstColumn(name string, value interface{}) {
	if !f.HasColumn(name) {
		f.Columns = append(f.Columns, name)
	}
	for _, row := range f.Rows {
		row[name] = value
	}
}

// Concat appends all rows of other, unioning column sets by name in
// first-seen order. Rows keep whatever columns they were read with;
// missing values stay absent (nil on access).
func (f *Frame) Concat(other *Frame) {
	for _, c := range other.Columns {
		if !f.HasColumn(c) {
			f.Columns = append(f.Columns, c)
		}
	}
	f.Rows = append(f.Rows, other.Rows...)
}

// Clone returns a deep copy. Row values are copied by reference.
func (f *Frame) Clone() *Frame {
	out := &Frame{
		Columns: append([]string(nil), f.Columns...),
		Rows:    make([]map[string]interface{}, len(f.Rows)),
	}
	for i, row := range f.Rows {
		cp := make(map[string]interface{}, len(row))
		for k, v := range row {
			cp[k] = v
		}
		out.Rows[i] = cp
	}
	return out
}
