package record

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/syssam/record/dialect"
	dsql "github.com/syssam/record/dialect/sql"
)

// Repository is the record-access surface of one entity: it synthesizes and
// executes create/read/update/delete statements against the entity's table,
// and dispatches dynamic finder calls. A Repository is cheap to construct,
// safe for concurrent use, and intended to live for the process lifetime.
//
// Each operation performs at most one round trip. Save with an existence
// check performs two and offers no isolation between them: a concurrent
// writer may interleave, which is a documented property of Save, not a bug
// in the caller.
type Repository struct {
	drv     dialect.Driver
	desc    *Descriptor
	catalog *Catalog
	log     *slog.Logger
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger used for warning-level diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(r *Repository) { r.log = log }
}

// WithSchemaCache backs the repository's column catalog with a shared cache.
func WithSchemaCache(cache Cache) Option {
	return func(r *Repository) {
		r.catalog.cache = cache
	}
}

// New returns a Repository serving the described entity over the given
// connection.
func New(drv dialect.Driver, desc *Descriptor, opts ...Option) *Repository {
	r := &Repository{
		drv:  drv,
		desc: desc,
		log:  slog.Default(),
	}
	r.catalog = newCatalog(drv, desc.Table, desc.Connection, nil, r.log)
	for _, opt := range opts {
		opt(r)
	}
	r.catalog.log = r.log
	return r
}

// Descriptor returns the entity's metadata.
func (r *Repository) Descriptor() *Descriptor {
	return r.desc
}

// Columns returns the entity's column catalog, discovering it on first use.
func (r *Repository) Columns(ctx context.Context) ([]string, error) {
	columns, err := r.catalog.Columns(ctx)
	if err != nil {
		return nil, NewQueryError(r.desc.Entity, "columns", err)
	}
	return columns, nil
}

// Create inserts a new row from the given field map and returns the
// database-assigned insert id, or 0 when the driver does not report one.
// An empty field map returns ErrDeclined. When the descriptor carries an id
// generator and the caller did not supply a primary-key value, one is
// generated before the insert.
func (r *Repository) Create(ctx context.Context, fields map[string]any) (int64, error) {
	if r.desc.idGen != nil && len(fields) > 0 && !truthy(fields[r.desc.PrimaryKey]) {
		withID := make(map[string]any, len(fields)+1)
		for k, v := range fields {
			withID[k] = v
		}
		withID[r.desc.PrimaryKey] = r.desc.idGen()
		fields = withID
	}
	query, binds, err := buildInsert(r.desc.Table, fields)
	if err != nil {
		return 0, err
	}
	res, err := r.exec(ctx, "create", query, binds)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		// Drivers without insert-id support (e.g. Postgres).
		return 0, nil
	}
	return id, nil
}

// Update rewrites matching rows from the given field map and returns the
// affected-row count. The condition is either a numeric primary-key value or
// a raw predicate string; empty fields or an empty condition return
// ErrDeclined. A field whose bind key is pre-populated in binds is excluded
// from the assignment list and keeps the caller's bind value.
func (r *Repository) Update(ctx context.Context, fields map[string]any, cond any, binds Binds) (int64, error) {
	query, merged, err := buildUpdate(r.desc.Table, r.desc.PrimaryKey, fields, cond, binds)
	if err != nil {
		return 0, err
	}
	res, err := r.exec(ctx, "update", query, merged)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes matching rows and returns the affected-row count. An empty
// condition returns ErrDeclined; unconditional deletes are disallowed by
// construction.
func (r *Repository) Delete(ctx context.Context, cond any, binds Binds) (int64, error) {
	query, merged, err := buildDelete(r.desc.Table, r.desc.PrimaryKey, cond, binds)
	if err != nil {
		return 0, err
	}
	res, err := r.exec(ctx, "delete", query, merged)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Save creates or updates depending on the primary-key field: when it is
// present and truthy the row is updated, otherwise created. With checkExists
// set, the update path first confirms the row exists and falls back to
// create when it does not. The check and the update are two round trips
// with no isolation between them.
func (r *Repository) Save(ctx context.Context, fields map[string]any, checkExists bool) (int64, error) {
	if len(fields) == 0 {
		return 0, ErrDeclined
	}
	pkVal, ok := fields[r.desc.PrimaryKey]
	if !ok || !truthy(pkVal) {
		return r.Create(ctx, fields)
	}
	if checkExists {
		_, err := r.FindByID(ctx, pkVal)
		switch {
		case IsNotFound(err):
			return r.Create(ctx, fields)
		case err != nil:
			return 0, err
		}
	}
	cond, binds := r.pkCondition(pkVal)
	return r.Update(ctx, fields, cond, binds)
}

// Find selects matching rows. The condition is optional (nil selects all
// rows), and the field list defaults to the full column catalog. When the
// result rows carry the primary-key column, the result is keyed by
// primary-key value; otherwise it is a plain ordered list.
func (r *Repository) Find(ctx context.Context, cond any, binds Binds, fields ...string) (*Result, error) {
	selected, err := r.selectFields(ctx, fields)
	if err != nil {
		return nil, err
	}
	query, merged, err := buildSelect(r.desc.Table, r.desc.PrimaryKey, selected, cond, binds)
	if err != nil {
		return nil, err
	}
	rows, err := r.queryAll(ctx, "find", query, merged)
	if err != nil {
		return nil, err
	}
	return shapeRows(rows, r.desc.PrimaryKey), nil
}

// FindFirst selects the first matching row. A miss returns a NotFoundError
// matching ErrNotFound.
func (r *Repository) FindFirst(ctx context.Context, cond any, binds Binds, fields ...string) (Row, error) {
	selected, err := r.selectFields(ctx, fields)
	if err != nil {
		return nil, err
	}
	query, merged, err := buildSelect(r.desc.Table, r.desc.PrimaryKey, selected, cond, binds)
	if err != nil {
		return nil, err
	}
	return r.queryFirst(ctx, "findFirst", query, merged, nil)
}

// FindByID selects the row with the given primary-key value. A miss returns
// a NotFoundError carrying the id.
func (r *Repository) FindByID(ctx context.Context, id any, fields ...string) (Row, error) {
	selected, err := r.selectFields(ctx, fields)
	if err != nil {
		return nil, err
	}
	cond, binds := r.pkCondition(id)
	query, merged, err := buildSelect(r.desc.Table, r.desc.PrimaryKey, selected, cond, binds)
	if err != nil {
		return nil, err
	}
	return r.queryFirst(ctx, "findById", query, merged, id)
}

// FindByIDs selects the rows with the given primary-key values and asks the
// database to return them in the caller's id order. The result is still
// re-keyed by primary-key value, so iteration order is undefined; the id
// order only shapes the underlying query. An empty id list returns
// ErrDeclined.
func (r *Repository) FindByIDs(ctx context.Context, ids []any, fields ...string) (*Result, error) {
	if len(ids) == 0 {
		return nil, ErrDeclined
	}
	selected, err := r.selectFields(ctx, fields)
	if err != nil {
		return nil, err
	}
	query, binds, err := buildSelectByIDs(r.drv.Dialect(), r.desc.Table, r.desc.PrimaryKey, selected, ids)
	if err != nil {
		return nil, err
	}
	rows, err := r.queryAll(ctx, "findByIds", query, binds)
	if err != nil {
		return nil, err
	}
	return shapeRows(rows, r.desc.PrimaryKey), nil
}

// FindBy selects every row where the given columns (one or two, already in
// storage convention) equal the given values.
func (r *Repository) FindBy(ctx context.Context, columns []string, values []any, fields ...string) (*Result, error) {
	selected, err := r.selectFields(ctx, fields)
	if err != nil {
		return nil, err
	}
	query, binds, err := buildSelectBy(r.desc.Table, selected, columns, values)
	if err != nil {
		return nil, err
	}
	rows, err := r.queryAll(ctx, "findBy", query, binds)
	if err != nil {
		return nil, err
	}
	return shapeRows(rows, r.desc.PrimaryKey), nil
}

// FindFirstBy selects the first row where the given columns equal the given
// values. A miss returns a NotFoundError matching ErrNotFound.
func (r *Repository) FindFirstBy(ctx context.Context, columns []string, values []any, fields ...string) (Row, error) {
	selected, err := r.selectFields(ctx, fields)
	if err != nil {
		return nil, err
	}
	query, binds, err := buildSelectBy(r.desc.Table, selected, columns, values)
	if err != nil {
		return nil, err
	}
	return r.queryFirst(ctx, "findFirstBy", query, binds, nil)
}

// Call dispatches a dynamic finder by name: "FindBy<Column>",
// "FindBy<Column>And<Column>", and the "FindFirstBy" forms of both. Column
// tokens are normalized to the storage convention and validated against the
// column catalog; a name that fails the grammar or names an unknown column
// returns an UndefinedOpError carrying the attempted name. FindBy calls
// return *Result, FindFirstBy calls return Row.
func (r *Repository) Call(ctx context.Context, name string, args ...any) (any, error) {
	op, ok := Resolve(name)
	if !ok {
		return nil, NewUndefinedOpError(r.desc.Entity, name, "no matching finder")
	}
	if len(args) != len(op.Columns) {
		reason := fmt.Sprintf("expected %d argument(s), got %d", len(op.Columns), len(args))
		return nil, NewUndefinedOpError(r.desc.Entity, name, reason)
	}
	for _, column := range op.Columns {
		known, err := r.catalog.Has(ctx, column)
		if err != nil {
			return nil, NewQueryError(r.desc.Entity, "columns", err)
		}
		if !known {
			return nil, NewUndefinedOpError(r.desc.Entity, name, fmt.Sprintf("unknown column %q", column))
		}
	}
	if op.Kind == OpFindFirstBy {
		row, err := r.FindFirstBy(ctx, op.Columns, args)
		if err != nil {
			return nil, err
		}
		return row, nil
	}
	res, err := r.FindBy(ctx, op.Columns, args)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// pkCondition renders a primary-key equality condition for any key type:
// numeric keys go through the numeric-condition rewrite, string keys become
// a bound predicate.
func (r *Repository) pkCondition(id any) (any, Binds) {
	if _, ok := numericLiteral(id); ok {
		return id, nil
	}
	key := placeholder(r.desc.PrimaryKey)
	return r.desc.PrimaryKey + " = " + key, Binds{key: id}
}

// selectFields resolves the field list of a select, defaulting to the full
// column catalog.
func (r *Repository) selectFields(ctx context.Context, fields []string) ([]string, error) {
	if len(fields) > 0 {
		if err := checkIdents(fields...); err != nil {
			return nil, err
		}
		return fields, nil
	}
	return r.Columns(ctx)
}

func (r *Repository) exec(ctx context.Context, op, query string, binds Binds) (sql.Result, error) {
	bound, args, err := expandNamed(query, r.drv.Dialect(), binds)
	if err != nil {
		return nil, NewMutationError(r.desc.Entity, op, err)
	}
	var res sql.Result
	if err := r.drv.Exec(ctx, bound, args, &res); err != nil {
		return nil, NewMutationError(r.desc.Entity, op, translateConstraint(err))
	}
	return res, nil
}

func (r *Repository) queryAll(ctx context.Context, op, query string, binds Binds) ([]Row, error) {
	bound, args, err := expandNamed(query, r.drv.Dialect(), binds)
	if err != nil {
		return nil, NewQueryError(r.desc.Entity, op, err)
	}
	rows := &dsql.Rows{}
	if err := r.drv.Query(ctx, bound, args, rows); err != nil {
		return nil, NewQueryError(r.desc.Entity, op, err)
	}
	out, err := scanRows(rows)
	if err != nil {
		return nil, NewQueryError(r.desc.Entity, op, err)
	}
	return out, nil
}

// queryFirst runs the query and returns its first row. Zero rows collapse to
// the single not-found indicator regardless of how the miss happened.
func (r *Repository) queryFirst(ctx context.Context, op, query string, binds Binds, id any) (Row, error) {
	rows, err := r.queryAll(ctx, op, query, binds)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		if id != nil {
			return nil, NewNotFoundErrorWithID(r.desc.Entity, id)
		}
		return nil, NewNotFoundError(r.desc.Entity)
	}
	return rows[0], nil
}

// truthy mirrors the loose presence test applied to primary-key fields in
// Save: nil, zero numbers, empty and "0" strings, false and empty byte
// slices all count as absent.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != "" && t != "0"
	case []byte:
		return len(t) > 0
	default:
		if n, ok := numericLiteral(v); ok {
			return n != "0"
		}
		return true
	}
}
