package record

import (
	dsql "github.com/syssam/record/dialect/sql"
)

// Row is one database row keyed by column name. Values hold whatever the
// driver produced, except that []byte is normalized to string so rows are
// comparable and usable as-is.
type Row map[string]any

// Has reports whether the row carries the named column.
func (r Row) Has(column string) bool {
	_, ok := r[column]
	return ok
}

// Result is the caller-facing shape of a multi-row finder: either a plain
// ordered list of rows, or, when every row carries the entity's primary-key
// column, a mapping from primary-key value to row. Once keyed, iteration
// order is undefined; key membership is what a keyed result guarantees.
type Result struct {
	rows  []Row
	keyed map[any]Row
}

// IsKeyed reports whether the result is keyed by primary-key value.
func (r *Result) IsKeyed() bool {
	return r.keyed != nil
}

// Len returns the number of rows in the result.
func (r *Result) Len() int {
	if r.keyed != nil {
		return len(r.keyed)
	}
	return len(r.rows)
}

// Rows returns the plain ordered row list. It is nil for keyed results.
func (r *Result) Rows() []Row {
	return r.rows
}

// Keyed returns the primary-key-to-row mapping. It is nil for unkeyed
// results.
func (r *Result) Keyed() map[any]Row {
	return r.keyed
}

// Get returns the row stored under the given primary-key value of a keyed
// result.
func (r *Result) Get(key any) (Row, bool) {
	row, ok := r.keyed[normalizeKey(key)]
	return row, ok
}

// shapeRows converts raw rows into the caller-facing Result. Empty input
// stays an empty list. Otherwise the first row decides: if it carries the
// primary-key column, the whole set is re-keyed by primary-key value
// (duplicate keys are not expected; the later row wins if they occur);
// otherwise the ordered list is returned as-is.
func shapeRows(rows []Row, pk string) *Result {
	if len(rows) == 0 || !rows[0].Has(pk) {
		return &Result{rows: rows}
	}
	keyed := make(map[any]Row, len(rows))
	for _, row := range rows {
		keyed[normalizeKey(row[pk])] = row
	}
	return &Result{keyed: keyed}
}

// normalizeKey makes driver-produced primary-key values usable as map keys.
func normalizeKey(v any) any {
	switch k := v.(type) {
	case []byte:
		return string(k)
	case int:
		return int64(k)
	case int32:
		return int64(k)
	case uint64:
		return int64(k)
	default:
		return v
	}
}

// scanRows drains a result set into Row maps. []byte cells are copied to
// string: drivers reuse the backing buffer between Next calls.
func scanRows(rows *dsql.Rows) ([]Row, error) {
	defer rows.Close()
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []Row
	for rows.Next() {
		cells := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		row := make(Row, len(columns))
		for i, col := range columns {
			if b, ok := cells[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = cells[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
