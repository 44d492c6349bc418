package postgres

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventradar/internal/discovery"
)

func testRecord() discovery.EventRecord {
	return discovery.EventRecord{
		Title:     "Lagos Tech Fest 2026",
		URL:       "https://example.com/lagos-tech-fest",
		Source:    "google_search",
		Location:  "Lagos",
		EventDate: "2026-09-12",
		Category:  "tech",
	}
}

func TestInsertWritesRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "events")
	require.NoError(t, err)

	rec := testRecord()
	mock.ExpectExec("INSERT INTO events").
		WithArgs(
			rec.Title,
			rec.Description,
			rec.URL,
			rec.Source,
			rec.Location,
			rec.EventDate,
			rec.Category,
			rec.ImageURL,
			rec.Price,
			rec.Organizer,
			"fp-1",
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Insert(context.Background(), rec, "fp-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertMapsUniqueViolationToConflict(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "events")
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO events").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "events_fingerprint_key"})

	err = store.Insert(context.Background(), testRecord(), "fp-dup")
	assert.ErrorIs(t, err, discovery.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExistsByFingerprint(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "events")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("fp-1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := store.ExistsByFingerprint(context.Background(), "fp-1")
	require.NoError(t, err)
	assert.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCount(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewWithPool(mock, "events")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(42))

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, count)
}

func TestNewWithPoolRejectsBadTableName(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewWithPool(mock, "events; DROP TABLE events")
	assert.Error(t, err)
}
