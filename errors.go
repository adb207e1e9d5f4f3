package record

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	sqlite "modernc.org/sqlite"
)

// Standard sentinel errors for common operations.
var (
	// ErrDeclined is returned when an operation refuses to run because its
	// required input is empty: a create or update with no fields, a delete
	// or update with no condition, or a bulk finder with no ids. It is a
	// declined result rather than a failure; callers check it with
	// errors.Is and treat it as "nothing to do".
	ErrDeclined = errors.New("record: operation declined")

	// ErrNotFound is returned when a single-row finder matches no row.
	ErrNotFound = errors.New("record: entity not found")
)

// NotFoundError represents an error when an entity is not found.
type NotFoundError struct {
	label string
	id    any // Optional: the ID that was searched for
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.id != nil {
		return fmt.Sprintf("record: %s not found (id=%v)", e.label, e.id)
	}
	return fmt.Sprintf("record: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(notFoundErr, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the entity label.
func (e *NotFoundError) Label() string {
	return e.label
}

// ID returns the ID that was searched for, if available.
func (e *NotFoundError) ID() any {
	return e.id
}

// NewNotFoundError returns a new NotFoundError for the given entity type.
func NewNotFoundError(label string) *NotFoundError {
	return &NotFoundError{label: label}
}

// NewNotFoundErrorWithID returns a new NotFoundError with the ID that was searched for.
func NewNotFoundErrorWithID(label string, id any) *NotFoundError {
	return &NotFoundError{label: label, id: id}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// IsDeclined returns true if the error is the declined sentinel.
func IsDeclined(err error) bool {
	return errors.Is(err, ErrDeclined)
}

// UndefinedOpError is returned by the dynamic dispatcher when a call name
// does not match the finder grammar, or names a column the entity's table
// does not have. It carries the name exactly as the caller supplied it.
type UndefinedOpError struct {
	Name   string // The attempted call name, verbatim.
	Entity string // Entity label the call was dispatched on.
	Reason string // Optional detail, e.g. the unknown column.
}

// Error returns the error string.
func (e *UndefinedOpError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("record: undefined operation %s.%s: %s", e.Entity, e.Name, e.Reason)
	}
	return fmt.Sprintf("record: undefined operation %s.%s", e.Entity, e.Name)
}

// NewUndefinedOpError returns a new UndefinedOpError for the given call.
func NewUndefinedOpError(entity, name, reason string) *UndefinedOpError {
	return &UndefinedOpError{Name: name, Entity: entity, Reason: reason}
}

// IsUndefinedOp returns true if the error is an UndefinedOpError.
func IsUndefinedOp(err error) bool {
	if err == nil {
		return false
	}
	var e *UndefinedOpError
	return errors.As(err, &e)
}

// ConstraintError represents a database constraint violation error.
type ConstraintError struct {
	msg  string
	wrap error
}

// Error returns the error string.
func (e ConstraintError) Error() string {
	return fmt.Sprintf("record: constraint failed: %s", e.msg)
}

// Unwrap returns the underlying error.
func (e ConstraintError) Unwrap() error {
	return e.wrap
}

// NewConstraintError returns a new ConstraintError with the given message.
func NewConstraintError(msg string, wrap error) error {
	return ConstraintError{msg: msg, wrap: wrap}
}

// IsConstraintError returns true if the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e ConstraintError
	return errors.As(err, &e)
}

// QueryError wraps a query error with additional context.
type QueryError struct {
	Entity string // Entity type being queried
	Op     string // Operation (e.g., "find", "findFirst", "columns")
	Err    error  // Underlying error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("record: querying %s (%s): %v", e.Entity, e.Op, e.Err)
	}
	return fmt.Sprintf("record: querying %s: %v", e.Entity, e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewQueryError returns a new QueryError.
func NewQueryError(entity, op string, err error) *QueryError {
	return &QueryError{Entity: entity, Op: op, Err: err}
}

// IsQueryError returns true if the error is a QueryError.
func IsQueryError(err error) bool {
	if err == nil {
		return false
	}
	var e *QueryError
	return errors.As(err, &e)
}

// MutationError wraps a mutation error with additional context.
type MutationError struct {
	Entity string // Entity type being mutated
	Op     string // Operation (e.g., "create", "update", "delete")
	Err    error  // Underlying error
}

// Error returns the error string.
func (e *MutationError) Error() string {
	return fmt.Sprintf("record: %s %s: %v", e.Op, e.Entity, e.Err)
}

// Unwrap returns the underlying error.
func (e *MutationError) Unwrap() error {
	return e.Err
}

// NewMutationError returns a new MutationError.
func NewMutationError(entity, op string, err error) *MutationError {
	return &MutationError{Entity: entity, Op: op, Err: err}
}

// IsMutationError returns true if the error is a MutationError.
func IsMutationError(err error) bool {
	if err == nil {
		return false
	}
	var e *MutationError
	return errors.As(err, &e)
}

// translateConstraint rewrites driver-specific constraint violations into a
// ConstraintError so callers can branch on one type across dialects. Errors
// that are not constraint violations pass through unchanged.
func translateConstraint(err error) error {
	if err == nil {
		return nil
	}
	var my *mysql.MySQLError
	if errors.As(err, &my) {
		switch my.Number {
		case 1062, // ER_DUP_ENTRY
			1048, // ER_BAD_NULL_ERROR
			1451, // ER_ROW_IS_REFERENCED_2
			1452, // ER_NO_REFERENCED_ROW_2
			3819: // ER_CHECK_CONSTRAINT_VIOLATED
			return NewConstraintError(my.Message, err)
		}
		return err
	}
	var pqe *pq.Error
	if errors.As(err, &pqe) {
		// Class 23 covers all integrity constraint violations.
		if pqe.Code.Class() == "23" {
			return NewConstraintError(pqe.Message, err)
		}
		return err
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		// SQLITE_CONSTRAINT (19) and its extended codes.
		if se.Code()&0xff == 19 {
			return NewConstraintError(se.Error(), err)
		}
	}
	return err
}
