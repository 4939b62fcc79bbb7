package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/orgops-api/internal/models"
)

var (
	// ErrLookupNotFound is returned when a nature or duration label has no row.
	ErrLookupNotFound = errors.New("lookup value not found")
	// ErrDuplicateARN is returned when the events.arn unique constraint rejects an insert.
	ErrDuplicateARN = errors.New("arn already exists")
)

const pqUniqueViolation = "23505"

// EventImportRepository opens the transactions used by bulk event imports.
type EventImportRepository struct {
	db *sqlx.DB
}

// NewEventImportRepository constructs the repository.
func NewEventImportRepository(db *sqlx.DB) *EventImportRepository {
	return &EventImportRepository{db: db}
}

// Begin starts the single transaction that covers a whole import batch. The caller
// owns the returned handle and must Commit or Rollback it.
func (r *EventImportRepository) Begin(ctx context.Context) (*EventImportTx, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin event import tx: %w", err)
	}
	return &EventImportTx{tx: tx}, nil
}

// EventImportTx wraps the batch transaction with the statements an import needs.
type EventImportTx struct {
	tx *sqlx.Tx
}

func savepointName(row int) string {
	return fmt.Sprintf("import_row_%d", row)
}

// Savepoint marks the start of a row so a failed statement can be undone without
// aborting the whole transaction.
func (t *EventImportTx) Savepoint(ctx context.Context, row int) error {
	if _, err := t.tx.ExecContext(ctx, "SAVEPOINT "+savepointName(row)); err != nil {
		return fmt.Errorf("savepoint row %d: %w", row, err)
	}
	return nil
}

// RollbackToSavepoint discards everything written for the row.
func (t *EventImportTx) RollbackToSavepoint(ctx context.Context, row int) error {
	if _, err := t.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+savepointName(row)); err != nil {
		return fmt.Errorf("rollback to savepoint row %d: %w", row, err)
	}
	return nil
}

// ReleaseSavepoint keeps the row's writes as part of the enclosing transaction.
func (t *EventImportTx) ReleaseSavepoint(ctx context.Context, row int) error {
	if _, err := t.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+savepointName(row)); err != nil {
		return fmt.Errorf("release savepoint row %d: %w", row, err)
	}
	return nil
}

// NatureID resolves a nature name to its id.
func (t *EventImportTx) NatureID(ctx context.Context, name string) (int64, error) {
	return t.lookupID(ctx, `SELECT id FROM natures WHERE name = $1 LIMIT 1`, name)
}

// DurationID resolves a duration name to its id.
func (t *EventImportTx) DurationID(ctx context.Context, name string) (int64, error) {
	return t.lookupID(ctx, `SELECT id FROM durations WHERE name = $1 LIMIT 1`, name)
}

func (t *EventImportTx) lookupID(ctx context.Context, query, name string) (int64, error) {
	var id int64
	if err := t.tx.GetContext(ctx, &id, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrLookupNotFound
		}
		return 0, fmt.Errorf("lookup %q: %w", name, err)
	}
	return id, nil
}

// InsertEvent writes the event header row.
func (t *EventImportTx) InsertEvent(ctx context.Context, event *models.Event) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO events (id, arn, name, venue, type, strategies, objectives, nature_id, measures, goals,
	committee_id, budget_allocation, brief_description, term_id, duration_id, created_at)
VALUES (:id, :arn, :name, :venue, :type, :strategies, :objectives, :nature_id, :measures, :goals,
	:committee_id, :budget_allocation, :brief_description, :term_id, :duration_id, :created_at)`
	if _, err := t.tx.NamedExecContext(ctx, query, event); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return ErrDuplicateARN
		}
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// InsertHeads writes one event_heads row per member in a single statement.
func (t *EventImportTx) InsertHeads(ctx context.Context, eventID string, memberIDs []string) error {
	if len(memberIDs) == 0 {
		return nil
	}
	values := make([]string, len(memberIDs))
	args := make([]interface{}, 0, len(memberIDs)*2)
	for i, memberID := range memberIDs {
		values[i] = fmt.Sprintf("($%d, $%d)", i*2+1, i*2+2)
		args = append(args, eventID, memberID)
	}
	query := `INSERT INTO event_heads (event_id, member_id) VALUES ` + strings.Join(values, ", ")
	if _, err := t.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert event heads: %w", err)
	}
	return nil
}

// InsertDate writes a single target date row.
func (t *EventImportTx) InsertDate(ctx context.Context, date models.EventDate) error {
	const query = `INSERT INTO event_dates (event_id, start_time, end_time) VALUES ($1, $2, $3)`
	if _, err := t.tx.ExecContext(ctx, query, date.EventID, date.StartTime, date.EndTime); err != nil {
		return fmt.Errorf("insert event date: %w", err)
	}
	return nil
}

// InsertTracker creates the workflow tracker row with default statuses.
func (t *EventImportTx) InsertTracker(ctx context.Context, eventID string) error {
	const query = `INSERT INTO event_trackers (event_id, created_at) VALUES ($1, $2)`
	if _, err := t.tx.ExecContext(ctx, query, eventID, time.Now().UTC()); err != nil {
		return fmt.Errorf("insert event tracker: %w", err)
	}
	return nil
}

// Commit makes the batch visible.
func (t *EventImportTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit event import tx: %w", err)
	}
	return nil
}

// Rollback discards the batch. Calling it after Commit returns sql.ErrTxDone.
func (t *EventImportTx) Rollback() error {
	return t.tx.Rollback()
}
