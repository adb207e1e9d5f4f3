package record

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/syssam/record/dialect"
)

// Binds maps named placeholders to their bound values. Keys carry the
// leading colon, matching the placeholder text in the synthesized SQL
// (e.g. Binds{":user_name": "bob"}). Every placeholder referenced by a
// synthesized statement has exactly one entry; when the same column appears
// more than once, later placeholders are disambiguated with a numeric suffix.
type Binds map[string]any

// clone returns a shallow copy so builders never mutate caller-owned maps.
func (b Binds) clone() Binds {
	out := make(Binds, len(b)+2)
	for k, v := range b {
		out[k] = v
	}
	return out
}

// placeholder returns the bind key for a column, e.g. ":user_name".
func placeholder(column string) string {
	return ":" + column
}

// validIdentRe validates SQL identifiers (alphanumeric, underscores, dots
// for schema.name).
var validIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

func validIdent(s string) bool {
	return s != "" && len(s) <= 128 && validIdentRe.MatchString(s)
}

// numericRe matches integer and decimal literals, the only condition values
// that may be rendered into SQL text directly.
var numericRe = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)

// numericLiteral renders cond as a SQL numeric literal and reports whether
// cond is numeric. Numeric strings count as numeric, mirroring the condition
// contract: a condition is either a primary-key value or a raw predicate.
func numericLiteral(cond any) (string, bool) {
	switch v := cond.(type) {
	case int:
		return strconv.FormatInt(int64(v), 10), true
	case int8:
		return strconv.FormatInt(int64(v), 10), true
	case int16:
		return strconv.FormatInt(int64(v), 10), true
	case int32:
		return strconv.FormatInt(int64(v), 10), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint:
		return strconv.FormatUint(uint64(v), 10), true
	case uint8:
		return strconv.FormatUint(uint64(v), 10), true
	case uint16:
		return strconv.FormatUint(uint64(v), 10), true
	case uint32:
		return strconv.FormatUint(uint64(v), 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case string:
		if numericRe.MatchString(v) {
			return v, true
		}
	}
	return "", false
}

// conditionClause renders a condition for a WHERE clause. A numeric
// condition (or numeric string) is rewritten to a primary-key equality; any
// other non-empty string passes through verbatim as a raw predicate. Raw
// predicates are a trust boundary: callers must not embed untrusted input in
// them; values belong in the bind map. An empty condition yields "".
func conditionClause(pk string, cond any) (string, error) {
	if cond == nil {
		return "", nil
	}
	if n, ok := numericLiteral(cond); ok {
		return pk + " = " + n, nil
	}
	if s, ok := cond.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("record: unsupported condition type %T", cond)
}

// sortedColumns returns the field names in deterministic order. Go maps do
// not preserve insertion order, so synthesized SQL sorts columns to stay
// stable across calls.
func sortedColumns(fields map[string]any) []string {
	cols := make([]string, 0, len(fields))
	for col := range fields {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

func checkIdents(names ...string) error {
	for _, name := range names {
		if !validIdent(name) {
			return fmt.Errorf("record: invalid identifier %q", name)
		}
	}
	return nil
}

// buildInsert synthesizes INSERT INTO <table>(<fields>) VALUES(<placeholders>).
// An empty field map declines the operation.
func buildInsert(table string, fields map[string]any) (string, Binds, error) {
	if len(fields) == 0 {
		return "", nil, ErrDeclined
	}
	cols := sortedColumns(fields)
	if err := checkIdents(cols...); err != nil {
		return "", nil, err
	}
	binds := make(Binds, len(cols))
	marks := make([]string, len(cols))
	for i, col := range cols {
		marks[i] = placeholder(col)
		binds[placeholder(col)] = fields[col]
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), strings.Join(marks, ", "))
	return query, binds, nil
}

// buildDelete synthesizes DELETE FROM <table> WHERE <condition>. An empty
// condition declines the operation: unconditional deletes are disallowed by
// construction.
func buildDelete(table, pk string, cond any, binds Binds) (string, Binds, error) {
	where, err := conditionClause(pk, cond)
	if err != nil {
		return "", nil, err
	}
	if where == "" {
		return "", nil, ErrDeclined
	}
	return fmt.Sprintf("DELETE FROM %s WHERE %s", table, where), binds.clone(), nil
}

// buildUpdate synthesizes UPDATE <table> SET <assignments> WHERE <condition>.
// Fields whose bind key the caller pre-populated are excluded from the
// assignment list and keep the caller's bind value; this lets a caller
// substitute a raw or computed placeholder without double-binding. Empty
// fields or an empty condition decline the operation.
func buildUpdate(table, pk string, fields map[string]any, cond any, binds Binds) (string, Binds, error) {
	if len(fields) == 0 {
		return "", nil, ErrDeclined
	}
	where, err := conditionClause(pk, cond)
	if err != nil {
		return "", nil, err
	}
	if where == "" {
		return "", nil, ErrDeclined
	}
	cols := sortedColumns(fields)
	if err := checkIdents(cols...); err != nil {
		return "", nil, err
	}
	out := binds.clone()
	assigns := make([]string, 0, len(cols))
	for _, col := range cols {
		key := placeholder(col)
		if _, ok := out[key]; ok {
			continue
		}
		assigns = append(assigns, col+" = "+key)
		out[key] = fields[col]
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s", table, strings.Join(assigns, ", "), where)
	return query, out, nil
}

// buildSelect synthesizes SELECT <fields> FROM <table> [WHERE <condition>].
// The field list is expected to be non-empty; the façade resolves the
// default list from the column catalog.
func buildSelect(table, pk string, fields []string, cond any, binds Binds) (string, Binds, error) {
	where, err := conditionClause(pk, cond)
	if err != nil {
		return "", nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(fields, ", "), table)
	if where != "" {
		query += " WHERE " + where
	}
	return query, binds.clone(), nil
}

// buildSelectBy synthesizes a column-equality select for one or two columns:
// SELECT <fields> FROM <table> WHERE <col> = :<col> [AND <col2> = :<col2>].
// When the same column appears twice, the second placeholder is suffixed.
func buildSelectBy(table string, fields, columns []string, values []any) (string, Binds, error) {
	if len(columns) == 0 || len(columns) > 2 {
		return "", nil, fmt.Errorf("record: column-equality select takes one or two columns, got %d", len(columns))
	}
	if len(columns) != len(values) {
		return "", nil, fmt.Errorf("record: %d column(s) but %d value(s)", len(columns), len(values))
	}
	if err := checkIdents(columns...); err != nil {
		return "", nil, err
	}
	binds := make(Binds, len(columns))
	conds := make([]string, len(columns))
	for i, col := range columns {
		key := placeholder(col)
		if _, ok := binds[key]; ok {
			key = fmt.Sprintf("%s_%d", key, i+1)
		}
		conds[i] = col + " = " + key
		binds[key] = values[i]
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s",
		strings.Join(fields, ", "), table, strings.Join(conds, " AND "))
	return query, binds, nil
}

// buildSelectByIDs synthesizes a bulk primary-key select with one placeholder
// per id and explicit database-side ordering that follows the caller's id
// order: FIELD(pk, ...) on MySQL, a CASE expression elsewhere. An empty id
// list declines the operation.
func buildSelectByIDs(dialectName, table, pk string, fields []string, ids []any) (string, Binds, error) {
	if len(ids) == 0 {
		return "", nil, ErrDeclined
	}
	binds := make(Binds, len(ids))
	marks := make([]string, len(ids))
	for i, id := range ids {
		key := fmt.Sprintf(":%s_%d", pk, i)
		marks[i] = key
		binds[key] = id
	}
	var order strings.Builder
	if dialectName == dialect.MySQL {
		fmt.Fprintf(&order, "FIELD(%s, %s)", pk, strings.Join(marks, ", "))
	} else {
		fmt.Fprintf(&order, "CASE %s", pk)
		for i, key := range marks {
			fmt.Fprintf(&order, " WHEN %s THEN %d", key, i)
		}
		order.WriteString(" END")
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s IN (%s) ORDER BY %s",
		strings.Join(fields, ", "), table, pk, strings.Join(marks, ", "), order.String())
	return query, binds, nil
}
