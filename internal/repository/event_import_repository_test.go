package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/orgops-api/internal/models"
)

func newEventImportRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		_ = sqlxDB.Close()
		db.Close()
	}
}

func TestEventImportTxWritesRowInsideSavepoint(t *testing.T) {
	db, mock, cleanup := newEventImportRepoMock(t)
	defer cleanup()
	repo := NewEventImportRepository(db)
	ctx := context.Background()

	committee := "7"
	event := &models.Event{
		ID:               "evt-1",
		ARN:              "ARN-001",
		Name:             "General Assembly",
		Venue:            "Online",
		Type:             "Internal",
		NatureID:         2,
		CommitteeID:      &committee,
		BudgetAllocation: decimal.RequireFromString("1000.00"),
		TermID:           "term-1",
		DurationID:       3,
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SAVEPOINT import_row_0")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM natures WHERE name = $1")).
		WithArgs("Academic").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM durations WHERE name = $1")).
		WithArgs("One-day").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectExec("INSERT INTO events").
		WithArgs("evt-1", "ARN-001", "General Assembly", "Online", "Internal", "", "", int64(2), "", "",
			&committee, sqlmock.AnyArg(), "", "term-1", int64(3), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO event_heads (event_id, member_id) VALUES ($1, $2), ($3, $4)")).
		WithArgs("evt-1", "11", "evt-1", "12").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO event_dates (event_id, start_time, end_time)")).
		WithArgs("evt-1", "2025-11-25 00:00:00", "2025-11-25 00:00:00").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO event_trackers (event_id, created_at)")).
		WithArgs("evt-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("RELEASE SAVEPOINT import_row_0")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	tx, err := repo.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Savepoint(ctx, 0))
	natureID, err := tx.NatureID(ctx, "Academic")
	require.NoError(t, err)
	assert.Equal(t, int64(2), natureID)
	durationID, err := tx.DurationID(ctx, "One-day")
	require.NoError(t, err)
	assert.Equal(t, int64(3), durationID)
	require.NoError(t, tx.InsertEvent(ctx, event))
	assert.False(t, event.CreatedAt.IsZero())
	require.NoError(t, tx.InsertHeads(ctx, "evt-1", []string{"11", "12"}))
	require.NoError(t, tx.InsertDate(ctx, models.EventDate{EventID: "evt-1", StartTime: "2025-11-25 00:00:00", EndTime: "2025-11-25 00:00:00"}))
	require.NoError(t, tx.InsertTracker(ctx, "evt-1"))
	require.NoError(t, tx.ReleaseSavepoint(ctx, 0))
	require.NoError(t, tx.Commit())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventImportTxLookupMissing(t *testing.T) {
	db, mock, cleanup := newEventImportRepoMock(t)
	defer cleanup()
	repo := NewEventImportRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM natures WHERE name = $1")).
		WithArgs("Unknown").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("ROLLBACK TO SAVEPOINT import_row_4")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := repo.Begin(ctx)
	require.NoError(t, err)
	_, err = tx.NatureID(ctx, "Unknown")
	assert.True(t, errors.Is(err, ErrLookupNotFound))
	require.NoError(t, tx.RollbackToSavepoint(ctx, 4))
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventImportTxMapsUniqueViolation(t *testing.T) {
	db, mock, cleanup := newEventImportRepoMock(t)
	defer cleanup()
	repo := NewEventImportRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO events").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "events_arn_key"})
	mock.ExpectRollback()

	tx, err := repo.Begin(ctx)
	require.NoError(t, err)
	err = tx.InsertEvent(ctx, &models.Event{ID: "evt-1", ARN: "ARN-001"})
	assert.True(t, errors.Is(err, ErrDuplicateARN))
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventImportTxSkipsEmptyHeads(t *testing.T) {
	db, mock, cleanup := newEventImportRepoMock(t)
	defer cleanup()
	repo := NewEventImportRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectRollback()

	tx, err := repo.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.InsertHeads(ctx, "evt-1", nil))
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventImportRepositoryBeginFailure(t *testing.T) {
	db, mock, cleanup := newEventImportRepoMock(t)
	defer cleanup()
	repo := NewEventImportRepository(db)

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	_, err := repo.Begin(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many connections")
}
