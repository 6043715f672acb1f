package documents

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/profilekeeper/internal/common"
	"github.com/dmitrijs2005/profilekeeper/internal/docstore"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestPostgres_GetFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectDocumentQuery)).
		WithArgs("users/u1").
		WillReturnRows(sqlmock.NewRows([]string{"fields"}).AddRow([]byte(`{"displayName":"Ann","interests":["go"]}`)))

	got, ok, err := repo.Get(context.Background(), "users/u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, docstore.Fields{"displayName": "Ann", "interests": []any{"go"}}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetMissing(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectDocumentQuery)).
		WithArgs("users/u1").
		WillReturnError(sql.ErrNoRows)

	got, ok, err := repo.Get(context.Background(), "users/u1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestPostgres_GetErrors(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectDocumentQuery)).
		WithArgs("users/u1").
		WillReturnError(errors.New("connection reset"))
	_, _, err := repo.Get(context.Background(), "users/u1")
	assert.ErrorContains(t, err, "connection reset")

	mock.ExpectQuery(regexp.QuoteMeta(selectDocumentQuery)).
		WithArgs("users/u1").
		WillReturnRows(sqlmock.NewRows([]string{"fields"}).AddRow([]byte(`[1,2]`)))
	_, _, err = repo.Get(context.Background(), "users/u1")
	assert.Error(t, err)

	_, _, err = repo.Get(context.Background(), "users")
	assert.ErrorIs(t, err, common.ErrInvalidPath)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SetMergeUsesJSONBConcat(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`INSERT INTO documents .* ON CONFLICT \(path\) DO UPDATE SET fields = documents\.fields \|\| EXCLUDED\.fields`).
		WithArgs("users/u1/private/profile", "u1", `{"bio":"hi"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Set(context.Background(), "users/u1/private/profile", docstore.Fields{"bio": "hi"}, docstore.SetOptions{Merge: true})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SetReplace(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`INSERT INTO documents .* ON CONFLICT \(path\) DO UPDATE SET fields = EXCLUDED\.fields`).
		WithArgs("users/u1", "u1", `{}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Set(context.Background(), "users/u1", nil, docstore.SetOptions{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SetErrors(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`INSERT INTO documents`).WillReturnError(errors.New("disk full"))
	err := repo.Set(context.Background(), "users/u1", docstore.Fields{"a": 1}, docstore.SetOptions{})
	assert.ErrorContains(t, err, "disk full")

	err = repo.Set(context.Background(), "users/u1/private", docstore.Fields{}, docstore.SetOptions{})
	assert.ErrorIs(t, err, common.ErrInvalidPath)

	err = repo.Set(context.Background(), "users/u1", docstore.Fields{"ch": make(chan int)}, docstore.SetOptions{})
	assert.ErrorIs(t, err, common.ErrInvalidDocument)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_UsesSeam(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	var dir string
	gooseUpContext = func(ctx context.Context, _ *sql.DB, d string, _ ...goose.OptionsFunc) error {
		dir = d
		return nil
	}
	require.NoError(t, RunMigrations(context.Background(), db))
	assert.Equal(t, ".", dir)

	gooseUpContext = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	assert.ErrorContains(t, RunMigrations(context.Background(), db), "boom")
}
