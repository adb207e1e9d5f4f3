package record_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/record"
	"github.com/syssam/record/dialect"
	dsql "github.com/syssam/record/dialect/sql"
)

func newUserRepo(t *testing.T, opts ...record.Option) (*record.Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	drv := dsql.OpenDB(dialect.MySQL, db)
	desc := record.NewDescriptor("User", record.WithTable("users"))
	return record.New(drv, desc, opts...), mock
}

// expectCatalog arms the column discovery query a repository issues the first
// time it needs the full column list.
func expectCatalog(mock sqlmock.Sqlmock, columns ...string) {
	rows := sqlmock.NewRows([]string{"Field", "Type"})
	for _, c := range columns {
		rows.AddRow(c, "text")
	}
	mock.ExpectQuery("DESCRIBE users").WillReturnRows(rows)
}

func TestRepositoryCreate(t *testing.T) {
	t.Run("ReturnsInsertID", func(t *testing.T) {
		repo, mock := newUserRepo(t)
		mock.ExpectExec("INSERT INTO users (name, status) VALUES (?, ?)").
			WithArgs("bob", "active").
			WillReturnResult(sqlmock.NewResult(7, 1))

		id, err := repo.Create(context.Background(), map[string]any{"name": "bob", "status": "active"})
		require.NoError(t, err)
		assert.Equal(t, int64(7), id)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("EmptyFieldsDeclined", func(t *testing.T) {
		repo, _ := newUserRepo(t)
		_, err := repo.Create(context.Background(), nil)
		assert.ErrorIs(t, err, record.ErrDeclined)
	})

	t.Run("GeneratedPrimaryKey", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		desc := record.NewDescriptor("User",
			record.WithTable("users"),
			record.WithIDGenerator(func() string { return "u-1" }))
		repo := record.New(dsql.OpenDB(dialect.MySQL, db), desc)

		mock.ExpectExec("INSERT INTO users (id, name) VALUES (?, ?)").
			WithArgs("u-1", "bob").
			WillReturnResult(sqlmock.NewResult(0, 1))

		_, err = repo.Create(context.Background(), map[string]any{"name": "bob"})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DuplicateKeyTranslated", func(t *testing.T) {
		repo, mock := newUserRepo(t)
		mock.ExpectExec("INSERT INTO users (name) VALUES (?)").
			WithArgs("bob").
			WillReturnError(&mysql.MySQLError{Number: 1062, Message: "duplicate entry"})

		_, err := repo.Create(context.Background(), map[string]any{"name": "bob"})
		require.Error(t, err)
		assert.True(t, record.IsMutationError(err))
		assert.True(t, record.IsConstraintError(err))
	})
}

func TestRepositoryUpdate(t *testing.T) {
	t.Run("NumericCondition", func(t *testing.T) {
		repo, mock := newUserRepo(t)
		mock.ExpectExec("UPDATE users SET name = ? WHERE id = 12").
			WithArgs("bob").
			WillReturnResult(sqlmock.NewResult(0, 1))

		n, err := repo.Update(context.Background(), map[string]any{"name": "bob"}, 12, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("RawPredicate", func(t *testing.T) {
		repo, mock := newUserRepo(t)
		mock.ExpectExec("UPDATE users SET status = ? WHERE status = ?").
			WithArgs("archived", "inactive").
			WillReturnResult(sqlmock.NewResult(0, 3))

		n, err := repo.Update(context.Background(),
			map[string]any{"status": "archived"},
			"status = :current", record.Binds{":current": "inactive"})
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("EmptyConditionDeclined", func(t *testing.T) {
		repo, _ := newUserRepo(t)
		_, err := repo.Update(context.Background(), map[string]any{"name": "x"}, nil, nil)
		assert.ErrorIs(t, err, record.ErrDeclined)
	})
}

func TestRepositoryDelete(t *testing.T) {
	t.Run("NumericCondition", func(t *testing.T) {
		repo, mock := newUserRepo(t)
		mock.ExpectExec("DELETE FROM users WHERE id = 9").
			WillReturnResult(sqlmock.NewResult(0, 1))

		n, err := repo.Delete(context.Background(), 9, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("RawPredicate", func(t *testing.T) {
		repo, mock := newUserRepo(t)
		mock.ExpectExec("DELETE FROM users WHERE status = ?").
			WithArgs("banned").
			WillReturnResult(sqlmock.NewResult(0, 2))

		n, err := repo.Delete(context.Background(), "status = :status", record.Binds{":status": "banned"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("EmptyConditionDeclined", func(t *testing.T) {
		repo, _ := newUserRepo(t)
		_, err := repo.Delete(context.Background(), nil, nil)
		assert.ErrorIs(t, err, record.ErrDeclined)
	})
}

func TestRepositoryFind(t *testing.T) {
	t.Run("KeyedByPrimaryKey", func(t *testing.T) {
		repo, mock := newUserRepo(t)
		expectCatalog(mock, "id", "user_name", "status")
		mock.ExpectQuery("SELECT id, user_name, status FROM users").
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_name", "status"}).
				AddRow(1, "bob", "active").
				AddRow(2, "amy", "pending"))

		res, err := repo.Find(context.Background(), nil, nil)
		require.NoError(t, err)
		require.True(t, res.IsKeyed())
		assert.Equal(t, 2, res.Len())
		row, ok := res.Get(int64(2))
		require.True(t, ok)
		assert.Equal(t, "amy", row["user_name"])
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ListWithoutPrimaryKeyColumn", func(t *testing.T) {
		repo, mock := newUserRepo(t)
		mock.ExpectQuery("SELECT user_name FROM users WHERE status = ?").
			WithArgs("active").
			WillReturnRows(sqlmock.NewRows([]string{"user_name"}).AddRow("bob").AddRow("amy"))

		res, err := repo.Find(context.Background(),
			"status = :status", record.Binds{":status": "active"}, "user_name")
		require.NoError(t, err)
		assert.False(t, res.IsKeyed())
		assert.Equal(t, []record.Row{{"user_name": "bob"}, {"user_name": "amy"}}, res.Rows())
	})
}

func TestRepositoryFindFirst(t *testing.T) {
	t.Run("FirstRow", func(t *testing.T) {
		repo, mock := newUserRepo(t)
		mock.ExpectQuery("SELECT id, user_name FROM users WHERE status = ?").
			WithArgs("active").
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_name"}).
				AddRow(1, "bob").
				AddRow(2, "amy"))

		row, err := repo.FindFirst(context.Background(),
			"status = :status", record.Binds{":status": "active"}, "id", "user_name")
		require.NoError(t, err)
		assert.Equal(t, "bob", row["user_name"])
	})

	t.Run("MissIsNotFound", func(t *testing.T) {
		repo, mock := newUserRepo(t)
		mock.ExpectQuery("SELECT id FROM users WHERE id = 99").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.FindFirst(context.Background(), 99, nil, "id")
		require.Error(t, err)
		assert.True(t, record.IsNotFound(err))
		assert.ErrorIs(t, err, record.ErrNotFound)
	})
}

func TestRepositoryFindByID(t *testing.T) {
	t.Run("NumericKeyInlined", func(t *testing.T) {
		repo, mock := newUserRepo(t)
		mock.ExpectQuery("SELECT id, user_name FROM users WHERE id = 9").
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_name"}).AddRow(9, "bob"))

		row, err := repo.FindByID(context.Background(), 9, "id", "user_name")
		require.NoError(t, err)
		assert.Equal(t, "bob", row["user_name"])
	})

	t.Run("StringKeyBound", func(t *testing.T) {
		repo, mock := newUserRepo(t)
		mock.ExpectQuery("SELECT id FROM users WHERE id = ?").
			WithArgs("u-1").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u-1"))

		row, err := repo.FindByID(context.Background(), "u-1", "id")
		require.NoError(t, err)
		assert.Equal(t, "u-1", row["id"])
	})

	t.Run("MissCarriesID", func(t *testing.T) {
		repo, mock := newUserRepo(t)
		mock.ExpectQuery("SELECT id FROM users WHERE id = 42").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.FindByID(context.Background(), 42, "id")
		require.Error(t, err)
		var nf *record.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, 42, nf.ID())
	})
}

func TestRepositoryFindByIDs(t *testing.T) {
	t.Run("FieldOrderingAndKeying", func(t *testing.T) {
		repo, mock := newUserRepo(t)
		mock.ExpectQuery("SELECT id, user_name FROM users WHERE id IN (?, ?, ?) "+
			"ORDER BY FIELD(id, ?, ?, ?)").
			WithArgs(5, 3, 9, 5, 3, 9).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_name"}).
				AddRow(5, "eve").
				AddRow(3, "bob").
				AddRow(9, "amy"))

		res, err := repo.FindByIDs(context.Background(), []any{5, 3, 9}, "id", "user_name")
		require.NoError(t, err)
		require.True(t, res.IsKeyed())
		assert.Equal(t, 3, res.Len())
		row, ok := res.Get(int64(3))
		require.True(t, ok)
		assert.Equal(t, "bob", row["user_name"])
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("EmptyDeclined", func(t *testing.T) {
		repo, _ := newUserRepo(t)
		_, err := repo.FindByIDs(context.Background(), nil)
		assert.ErrorIs(t, err, record.ErrDeclined)
	})
}

func TestRepositorySave(t *testing.T) {
	t.Run("MissingKeyCreates", func(t *testing.T) {
		repo, mock := newUserRepo(t)
		mock.ExpectExec("INSERT INTO users (name) VALUES (?)").
			WithArgs("bob").
			WillReturnResult(sqlmock.NewResult(7, 1))

		id, err := repo.Save(context.Background(), map[string]any{"name": "bob"}, false)
		require.NoError(t, err)
		assert.Equal(t, int64(7), id)
	})

	t.Run("ZeroKeyCreates", func(t *testing.T) {
		repo, mock := newUserRepo(t)
		mock.ExpectExec("INSERT INTO users (id, name) VALUES (?, ?)").
			WithArgs(0, "bob").
			WillReturnResult(sqlmock.NewResult(7, 1))

		_, err := repo.Save(context.Background(), map[string]any{"id": 0, "name": "bob"}, false)
		require.NoError(t, err)
	})

	t.Run("PresentKeyUpdates", func(t *testing.T) {
		repo, mock := newUserRepo(t)
		mock.ExpectExec("UPDATE users SET id = ?, name = ? WHERE id = 12").
			WithArgs(12, "bob").
			WillReturnResult(sqlmock.NewResult(0, 1))

		n, err := repo.Save(context.Background(), map[string]any{"id": 12, "name": "bob"}, false)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("CheckExistsFound", func(t *testing.T) {
		repo, mock := newUserRepo(t)
		expectCatalog(mock, "id", "name")
		mock.ExpectQuery("SELECT id, name FROM users WHERE id = 12").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(12, "old"))
		mock.ExpectExec("UPDATE users SET id = ?, name = ? WHERE id = 12").
			WithArgs(12, "bob").
			WillReturnResult(sqlmock.NewResult(0, 1))

		_, err := repo.Save(context.Background(), map[string]any{"id": 12, "name": "bob"}, true)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("CheckExistsMissingCreates", func(t *testing.T) {
		repo, mock := newUserRepo(t)
		expectCatalog(mock, "id", "name")
		mock.ExpectQuery("SELECT id, name FROM users WHERE id = 12").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
		mock.ExpectExec("INSERT INTO users (id, name) VALUES (?, ?)").
			WithArgs(12, "bob").
			WillReturnResult(sqlmock.NewResult(12, 1))

		id, err := repo.Save(context.Background(), map[string]any{"id": 12, "name": "bob"}, true)
		require.NoError(t, err)
		assert.Equal(t, int64(12), id)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("EmptyFieldsDeclined", func(t *testing.T) {
		repo, _ := newUserRepo(t)
		_, err := repo.Save(context.Background(), nil, false)
		assert.ErrorIs(t, err, record.ErrDeclined)
	})
}

func TestRepositoryCall(t *testing.T) {
	t.Run("FindByTwoColumns", func(t *testing.T) {
		repo, mock := newUserRepo(t)
		expectCatalog(mock, "id", "user_name", "status")
		mock.ExpectQuery("SELECT id, user_name, status FROM users WHERE user_name = ? AND status = ?").
			WithArgs("bob", "active").
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_name", "status"}).
				AddRow(1, "bob", "active"))

		out, err := repo.Call(context.Background(), "FindByUserNameAndStatus", "bob", "active")
		require.NoError(t, err)
		res, ok := out.(*record.Result)
		require.True(t, ok)
		assert.Equal(t, 1, res.Len())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("FindFirstByReturnsRow", func(t *testing.T) {
		repo, mock := newUserRepo(t)
		expectCatalog(mock, "id", "email")
		mock.ExpectQuery("SELECT id, email FROM users WHERE email = ?").
			WithArgs("a@b.c").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).AddRow(1, "a@b.c"))

		out, err := repo.Call(context.Background(), "FindFirstByEmail", "a@b.c")
		require.NoError(t, err)
		row, ok := out.(record.Row)
		require.True(t, ok)
		assert.Equal(t, "a@b.c", row["email"])
	})

	t.Run("UnknownColumnUndefined", func(t *testing.T) {
		repo, mock := newUserRepo(t)
		expectCatalog(mock, "id", "user_name")

		_, err := repo.Call(context.Background(), "FindByGhostColumn", "x")
		require.Error(t, err)
		assert.True(t, record.IsUndefinedOp(err))
		assert.Contains(t, err.Error(), "ghost_column")
	})

	t.Run("UnresolvableNameUndefined", func(t *testing.T) {
		repo, _ := newUserRepo(t)
		_, err := repo.Call(context.Background(), "DeleteByEmail", "a@b.c")
		require.Error(t, err)
		var undef *record.UndefinedOpError
		require.ErrorAs(t, err, &undef)
		assert.Equal(t, "DeleteByEmail", undef.Name)
	})

	t.Run("ArgumentCountMismatch", func(t *testing.T) {
		repo, _ := newUserRepo(t)
		_, err := repo.Call(context.Background(), "FindByEmail", "a@b.c", "extra")
		require.Error(t, err)
		assert.True(t, record.IsUndefinedOp(err))
	})
}
