package record

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/syssam/record/dialect"
	dsql "github.com/syssam/record/dialect/sql"
)

// Catalog lazily discovers and caches the column set of one table. The first
// Columns call issues a dialect-specific introspection query; every later
// call returns the cached set without I/O. Concurrent first calls coalesce
// into a single query. An introspection failure propagates to the caller
// unrecovered and leaves the catalog unpopulated, so a later call retries.
type Catalog struct {
	drv        dialect.Driver
	table      string
	connection string
	cache      Cache // optional shared cache
	log        *slog.Logger

	sf      singleflight.Group
	mu      sync.RWMutex
	columns []string
}

func newCatalog(drv dialect.Driver, table, connection string, cache Cache, log *slog.Logger) *Catalog {
	return &Catalog{drv: drv, table: table, connection: connection, cache: cache, log: log}
}

// Columns returns the table's column names in definition order. The returned
// slice is shared; callers must not modify it.
func (c *Catalog) Columns(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	columns := c.columns
	c.mu.RUnlock()
	if columns != nil {
		return columns, nil
	}
	v, err, _ := c.sf.Do(c.table, func() (any, error) {
		return c.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// Has reports whether the table carries the named column.
func (c *Catalog) Has(ctx context.Context, column string) (bool, error) {
	columns, err := c.Columns(ctx)
	if err != nil {
		return false, err
	}
	for _, col := range columns {
		if col == column {
			return true, nil
		}
	}
	return false, nil
}

func (c *Catalog) load(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	if c.columns != nil {
		defer c.mu.RUnlock()
		return c.columns, nil
	}
	c.mu.RUnlock()

	columns, cached := c.fromCache(ctx)
	if !cached {
		var err error
		columns, err = c.introspect(ctx)
		if err != nil {
			return nil, err
		}
		c.toCache(ctx, columns)
	}

	c.mu.Lock()
	c.columns = columns
	c.mu.Unlock()
	return columns, nil
}

func (c *Catalog) fromCache(ctx context.Context) ([]string, bool) {
	if c.cache == nil {
		return nil, false
	}
	data, err := c.cache.Get(ctx, schemaKey(c.connection, c.table))
	if err != nil {
		c.log.Warn("schema cache read failed", "table", c.table, "err", err)
		return nil, false
	}
	if data == nil {
		return nil, false
	}
	columns, err := decodeColumns(data)
	if err != nil || len(columns) == 0 {
		c.log.Warn("schema cache entry invalid", "table", c.table, "err", err)
		return nil, false
	}
	return columns, true
}

func (c *Catalog) toCache(ctx context.Context, columns []string) {
	if c.cache == nil {
		return
	}
	data, err := encodeColumns(columns)
	if err == nil {
		err = c.cache.Set(ctx, schemaKey(c.connection, c.table), data, 0)
	}
	if err != nil {
		c.log.Warn("schema cache write failed", "table", c.table, "err", err)
	}
}

// introspect issues the dialect's describe-table query and extracts the
// column-name attribute from each returned row.
func (c *Catalog) introspect(ctx context.Context) ([]string, error) {
	if err := checkIdents(c.table); err != nil {
		return nil, err
	}
	var (
		query string
		args  []any
		attr  string
	)
	switch c.drv.Dialect() {
	case dialect.MySQL:
		query, attr = "DESCRIBE "+c.table, "Field"
	case dialect.SQLite:
		query, attr = "PRAGMA table_info("+c.table+")", "name"
	case dialect.Postgres:
		query = "SELECT column_name FROM information_schema.columns WHERE table_name = $1 ORDER BY ordinal_position"
		args = []any{c.table}
		attr = "column_name"
	default:
		return nil, fmt.Errorf("record: no introspection query for dialect %q", c.drv.Dialect())
	}
	rows := &dsql.Rows{}
	if err := c.drv.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	raw, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	columns := make([]string, 0, len(raw))
	for _, row := range raw {
		name, ok := row[attr].(string)
		if !ok {
			return nil, fmt.Errorf("record: introspection row for %s misses %q attribute", c.table, attr)
		}
		columns = append(columns, name)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("record: no columns found for table %s", c.table)
	}
	return columns, nil
}
