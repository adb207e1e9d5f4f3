// Package record maps logical entities onto relational tables without
// per-entity boilerplate: given a table name (or a convention-derived one),
// a primary-key column and a lazily discovered column catalog, it
// synthesizes parameter-bound SQL for create/read/update/delete operations
// and resolves ad-hoc "find by column" calls at call time.
//
// # Repositories
//
// A Repository is the access surface of one entity:
//
//	drv, err := sql.Open(dialect.MySQL, dsn)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	users := record.New(drv, record.NewDescriptor("User", record.WithTable("users")))
//
//	id, err := users.Create(ctx, map[string]any{"name": "bob", "status": "active"})
//	row, err := users.FindByID(ctx, id)
//	res, err := users.Find(ctx, "status = :status", record.Binds{":status": "active"})
//
// Multi-row finders return a *Result keyed by primary-key value whenever the
// selected rows carry the primary-key column, and a plain ordered list
// otherwise. Single-row finders return a Row or an error matching
// ErrNotFound.
//
// # Dynamic finders
//
// Finder calls that were never declared are resolved by name at call time:
//
//	v, err := users.Call(ctx, "FindByUserNameAndStatus", "bob", "active")
//
// The name is parsed against the ("FindBy"|"FindFirstBy") grammar, its
// column tokens are normalized to the storage convention and validated
// against the live column catalog, and the call dispatches to the matching
// column-equality select. Names that fail the grammar or name an unknown
// column return an UndefinedOpError.
//
// # Conditions and binds
//
// A condition is either a numeric primary-key value, rewritten to a
// primary-key equality, or a raw boolean predicate string. Raw predicates
// are a trust boundary: never embed untrusted input in them; values go
// through the Binds map and named placeholders exclusively.
//
// # Declined operations
//
// Mutations with empty required input (no fields, no condition, no ids) are
// declined rather than failed: they return ErrDeclined, which callers check
// with errors.Is or IsDeclined.
package record
