package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/simpleshare/internal/common"
	"github.com/dmitrijs2005/simpleshare/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

var cols = []string{"collection", "id", "data", "version", "created_at", "updated_at"}

func TestGet(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `^SELECT\s+collection,\s*id,\s*data,\s*version,\s*created_at,\s*updated_at\s+FROM\s+documents\s+WHERE\s+collection\s*=\s*\$1\s+AND\s+id\s*=\s*\$2$`
	now := time.Now()

	mock.ExpectQuery(q).WithArgs("public", "u1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("public", "u1", []byte(`{"display_name":"Ann"}`), int64(2), now, now))

	d, err := repo.Get(context.Background(), "public", "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), d.Version)
	assert.Equal(t, "Ann", d.StringField("display_name"))

	mock.ExpectQuery(q).WithArgs("public", "nope").WillReturnError(sql.ErrNoRows)
	_, err = repo.Get(context.Background(), "public", "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+documents.*ON\s+CONFLICT\s+\(collection,\s*id\)\s+DO\s+UPDATE.*version\s*=\s*documents\.version\s*\+\s*1.*RETURNING\s+collection`
	now := time.Now()
	data := json.RawMessage(`{"name":"Work"}`)

	mock.ExpectQuery(q).WithArgs("profiles", "p1", []byte(data)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("profiles", "p1", []byte(data), int64(1), now, now))

	d, err := repo.Upsert(context.Background(), "profiles", "p1", data)
	require.NoError(t, err)
	assert.Equal(t, int64(1), d.Version)
	assert.JSONEq(t, string(data), string(d.Data))

	mock.ExpectQuery(q).WillReturnError(errors.New("boom"))
	_, err = repo.Upsert(context.Background(), "profiles", "p1", data)
	assert.ErrorContains(t, err, "db error: boom")
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `^DELETE\s+FROM\s+documents\s+WHERE\s+collection\s*=\s*\$1\s+AND\s+id\s*=\s*\$2\s+RETURNING`
	now := time.Now()

	mock.ExpectQuery(q).WithArgs("shares", "s1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("shares", "s1", []byte(`{}`), int64(1), now, now))

	d, err := repo.Delete(context.Background(), "shares", "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", d.ID)

	mock.ExpectQuery(q).WithArgs("shares", "s2").WillReturnError(sql.ErrNoRows)
	_, err = repo.Delete(context.Background(), "shares", "s2")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestQuery_BuildsFilters(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `^SELECT\s+.*FROM\s+documents\s+WHERE\s+collection\s*=\s*\$1\s+AND\s+data->>\$2\s*=\s*\$3\s+AND\s+data->>\$4\s*=\s*\$5\s+ORDER\s+BY\s+created_at,\s*id$`
	now := time.Now()

	mock.ExpectQuery(q).WithArgs("shares", "to_uid", "u2", "to_profile_id", "p9").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("shares", "s1", []byte(`{"to_uid":"u2"}`), int64(1), now, now).
			AddRow("shares", "s2", []byte(`{"to_uid":"u2"}`), int64(3), now, now))

	docs, err := repo.Query(context.Background(), "shares", []models.Filter{
		{Field: "to_uid", Value: "u2"},
		{Field: "to_profile_id", Value: "p9"},
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "s2", docs[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_RejectsBadField(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	_, err := repo.Query(context.Background(), "shares", []models.Filter{{Field: "x'; drop", Value: "1"}})
	assert.ErrorIs(t, err, common.ErrorValidation)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_RowError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`^SELECT`).WithArgs("public").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("public", "u1", []byte(`{}`), int64(1), time.Now(), time.Now()).
			RowError(0, errors.New("broken row")))

	_, err := repo.Query(context.Background(), "public", nil)
	assert.ErrorContains(t, err, "broken row")
}
