package record

import (
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("User")
	assert.Equal(t, "record: User not found", err.Error())
	assert.Equal(t, "User", err.Label())
	assert.Nil(t, err.ID())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, IsNotFound(err))

	withID := NewNotFoundErrorWithID("User", 42)
	assert.Equal(t, "record: User not found (id=42)", withID.Error())
	assert.Equal(t, 42, withID.ID())

	assert.False(t, IsNotFound(nil))
	assert.False(t, IsNotFound(errors.New("boom")))
}

func TestDeclined(t *testing.T) {
	assert.True(t, IsDeclined(ErrDeclined))
	assert.True(t, IsDeclined(NewMutationError("User", "create", ErrDeclined)))
	assert.False(t, IsDeclined(nil))
	assert.False(t, IsDeclined(ErrNotFound))
}

func TestUndefinedOpError(t *testing.T) {
	err := NewUndefinedOpError("User", "FindByGhost", `unknown column "ghost"`)
	assert.Equal(t, `record: undefined operation User.FindByGhost: unknown column "ghost"`, err.Error())
	assert.True(t, IsUndefinedOp(err))

	bare := NewUndefinedOpError("User", "Explode", "")
	assert.Equal(t, "record: undefined operation User.Explode", bare.Error())

	assert.False(t, IsUndefinedOp(nil))
	assert.False(t, IsUndefinedOp(ErrNotFound))
}

func TestConstraintError(t *testing.T) {
	cause := errors.New("duplicate entry")
	err := NewConstraintError("duplicate entry", cause)
	assert.Equal(t, "record: constraint failed: duplicate entry", err.Error())
	assert.True(t, IsConstraintError(err))
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsConstraintError(cause))
}

func TestQueryErrorUnwrap(t *testing.T) {
	err := NewQueryError("User", "find", ErrNotFound)
	assert.Equal(t, "record: querying User (find): record: entity not found", err.Error())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, IsQueryError(err))
	assert.False(t, IsQueryError(ErrNotFound))
}

func TestMutationErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewMutationError("User", "create", cause)
	assert.Equal(t, "record: create User: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsMutationError(err))
}

func TestTranslateConstraint(t *testing.T) {
	t.Run("MySQLDuplicate", func(t *testing.T) {
		src := &mysql.MySQLError{Number: 1062, Message: "duplicate entry 'bob'"}
		err := translateConstraint(src)
		require.True(t, IsConstraintError(err))
		assert.ErrorIs(t, err, src)
	})

	t.Run("MySQLUnrelatedPassesThrough", func(t *testing.T) {
		src := &mysql.MySQLError{Number: 1146, Message: "table doesn't exist"}
		assert.Equal(t, error(src), translateConstraint(src))
	})

	t.Run("PostgresIntegrityClass", func(t *testing.T) {
		src := &pq.Error{Code: "23505", Message: "unique violation"}
		err := translateConstraint(src)
		require.True(t, IsConstraintError(err))
		assert.ErrorIs(t, err, src)
	})

	t.Run("PostgresUnrelatedPassesThrough", func(t *testing.T) {
		src := &pq.Error{Code: "42P01", Message: "undefined table"}
		assert.Equal(t, error(src), translateConstraint(src))
	})

	t.Run("PlainErrorPassesThrough", func(t *testing.T) {
		cause := errors.New("boom")
		assert.Equal(t, cause, translateConstraint(cause))
		assert.Nil(t, translateConstraint(nil))
	})
}
