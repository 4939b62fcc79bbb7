package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/orgops-api/internal/dto"
	"github.com/noah-isme/orgops-api/internal/models"
	"github.com/noah-isme/orgops-api/internal/repository"
	appErrors "github.com/noah-isme/orgops-api/pkg/errors"
)

// ImportTx is the transactional surface the batch insertion engine writes through.
type ImportTx interface {
	Savepoint(ctx context.Context, row int) error
	RollbackToSavepoint(ctx context.Context, row int) error
	ReleaseSavepoint(ctx context.Context, row int) error
	NatureID(ctx context.Context, name string) (int64, error)
	DurationID(ctx context.Context, name string) (int64, error)
	InsertEvent(ctx context.Context, event *models.Event) error
	InsertHeads(ctx context.Context, eventID string, memberIDs []string) error
	InsertDate(ctx context.Context, date models.EventDate) error
	InsertTracker(ctx context.Context, eventID string) error
	Commit() error
	Rollback() error
}

// ImportTxBeginner opens the transaction for one batch.
type ImportTxBeginner func(ctx context.Context) (ImportTx, error)

// RepositoryBeginner adapts the event import repository to an ImportTxBeginner.
func RepositoryBeginner(repo *repository.EventImportRepository) ImportTxBeginner {
	return func(ctx context.Context) (ImportTx, error) {
		tx, err := repo.Begin(ctx)
		if err != nil {
			return nil, err
		}
		return tx, nil
	}
}

type referenceLoader interface {
	Load(ctx context.Context) (models.ReferenceData, error)
}

type termChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type importReportRecorder interface {
	Record(ctx context.Context, drafts []models.EventDraft, result models.ImportResult, termID, actor string) (string, error)
}

type importNotifier interface {
	NotifyImported(drafts []models.EventDraft, result models.ImportResult, actor string) error
}

// EventImportServiceConfig carries deployment settings for imports.
type EventImportServiceConfig struct {
	CurrentTermID string
	MaxBatchSize  int
}

// EventImportService validates and imports batches of event drafts.
type EventImportService struct {
	begin      ImportTxBeginner
	references referenceLoader
	terms      termChecker
	validator  *EventValidator
	dates      *DateParser
	reports    importReportRecorder
	notifier   importNotifier
	metrics    *MetricsService
	logger     *zap.Logger
	cfg        EventImportServiceConfig
	newID      func() string
}

// NewEventImportService wires the import pipeline. reports, notifier and metrics are
// optional.
func NewEventImportService(
	begin ImportTxBeginner,
	references referenceLoader,
	terms termChecker,
	dates *DateParser,
	reports importReportRecorder,
	notifier importNotifier,
	metrics *MetricsService,
	logger *zap.Logger,
	cfg EventImportServiceConfig,
) *EventImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dates == nil {
		dates = NewDateParser("")
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 500
	}
	return &EventImportService{
		begin:      begin,
		references: references,
		terms:      terms,
		validator:  NewEventValidator(dates),
		dates:      dates,
		reports:    reports,
		notifier:   notifier,
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
		newID:      uuid.NewString,
	}
}

// Validate runs the advisory checks against a fresh reference snapshot.
func (s *EventImportService) Validate(ctx context.Context, drafts []models.EventDraft) (dto.ValidateEventsResponse, error) {
	report, err := s.validateDrafts(ctx, drafts)
	if err != nil {
		return dto.ValidateEventsResponse{}, err
	}
	return BuildValidationResponse(report), nil
}

func (s *EventImportService) validateDrafts(ctx context.Context, drafts []models.EventDraft) (models.ValidationReport, error) {
	if err := s.checkBatch(drafts); err != nil {
		return nil, err
	}
	ref, err := s.references.Load(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load reference data")
	}
	report := s.validator.Validate(drafts, ref)
	s.metrics.ObserveValidation(len(report))
	return report, nil
}

// Import writes the batch under the configured current term. The returned result is
// committed only when every row succeeded. The report id is empty when reports are
// disabled or could not be stored.
func (s *EventImportService) Import(ctx context.Context, drafts []models.EventDraft, actor string) (models.ImportResult, string, error) {
	if err := s.checkBatch(drafts); err != nil {
		return models.ImportResult{}, "", err
	}
	termID, err := s.currentTerm(ctx)
	if err != nil {
		return models.ImportResult{}, "", err
	}

	start := time.Now()
	result, err := s.InsertBatch(ctx, drafts, termID)
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.ObserveImport(importOutcomeError, 0, 0, elapsed)
		s.logger.Error("event import failed", zap.Int("rows", len(drafts)), zap.Error(err))
		return models.ImportResult{}, "", err
	}

	successes, failures := len(result.Successes()), len(result.Failures())
	outcome := importOutcomeRolledBack
	if result.Committed {
		outcome = importOutcomeCommitted
	}
	s.metrics.ObserveImport(outcome, successes, failures, elapsed)
	s.logger.Info("event import finished",
		zap.String("outcome", outcome),
		zap.String("term_id", termID),
		zap.String("actor", actor),
		zap.Int("successes", successes),
		zap.Int("failures", failures),
		zap.Duration("elapsed", elapsed),
	)

	var reportID string
	if s.reports != nil {
		id, err := s.reports.Record(ctx, drafts, result, termID, actor)
		if err != nil {
			s.logger.Warn("failed to store import report", zap.Error(err))
		} else {
			reportID = id
		}
	}

	if result.Committed && s.notifier != nil {
		if err := s.notifier.NotifyImported(drafts, result, actor); err != nil {
			s.logger.Warn("failed to enqueue import notification", zap.Error(err))
		}
	}

	return result, reportID, nil
}

// InsertBatch runs the whole batch inside one transaction. Row failures are collected
// and the loop continues; any failure rolls back every row. The returned error is only
// set for infrastructure failures, in which case nothing was committed.
func (s *EventImportService) InsertBatch(ctx context.Context, drafts []models.EventDraft, termID string) (models.ImportResult, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return models.ImportResult{}, appErrors.Internal(err, "failed to start import")
	}

	closed := false
	defer func() {
		if closed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Error("rollback event import", zap.Error(rbErr))
		}
	}()

	outcomes := make([]models.RowOutcome, 0, len(drafts))
	for i, draft := range drafts {
		if err := tx.Savepoint(ctx, i); err != nil {
			return models.ImportResult{}, s.infraError(err)
		}
		eventID, rowErr := s.insertRow(ctx, tx, draft, termID)
		if rowErr != nil {
			if err := tx.RollbackToSavepoint(ctx, i); err != nil {
				return models.ImportResult{}, s.infraError(err)
			}
			outcomes = append(outcomes, models.RowFailure{Index: i, Message: s.rowMessage(i, rowErr)})
			continue
		}
		if err := tx.ReleaseSavepoint(ctx, i); err != nil {
			return models.ImportResult{}, s.infraError(err)
		}
		outcomes = append(outcomes, models.RowSuccess{Index: i, EventID: eventID})
	}

	result := models.ImportResult{Outcomes: outcomes}
	if !shouldCommit(outcomes) {
		closed = true
		if err := tx.Rollback(); err != nil {
			s.logger.Error("rollback event import", zap.Error(err))
		}
		return result, nil
	}

	if err := tx.Commit(); err != nil {
		return models.ImportResult{}, s.infraError(err)
	}
	closed = true
	result.Committed = true
	return result, nil
}

func shouldCommit(outcomes []models.RowOutcome) bool {
	for _, o := range outcomes {
		if _, failed := o.(models.RowFailure); failed {
			return false
		}
	}
	return true
}

// insertRow writes one draft and all of its dependent rows. Errors describing the
// draft itself are returned as rowError; anything else is a storage failure.
func (s *EventImportService) insertRow(ctx context.Context, tx ImportTx, d models.EventDraft, termID string) (string, error) {
	natureID, err := tx.NatureID(ctx, d.Nature)
	if err != nil {
		if errors.Is(err, repository.ErrLookupNotFound) {
			return "", rowErrorf("Invalid nature: %s", d.Nature)
		}
		return "", err
	}
	durationID, err := tx.DurationID(ctx, d.Duration)
	if err != nil {
		if errors.Is(err, repository.ErrLookupNotFound) {
			return "", rowErrorf("Invalid duration: %s", d.Duration)
		}
		return "", err
	}

	venue := strings.TrimSpace(d.Venue)
	if venue == "" {
		venue = models.DefaultVenue
	}

	event := &models.Event{
		ID:               s.newID(),
		ARN:              d.ARN,
		Name:             d.Title,
		Venue:            venue,
		Type:             d.Type,
		Strategies:       d.Strategies,
		Objectives:       d.Objectives,
		NatureID:         natureID,
		Measures:         d.Measures,
		Goals:            d.Goals,
		CommitteeID:      d.Committee,
		BudgetAllocation: CoerceBudget(d.Budget),
		BriefDescription: d.BriefDescription,
		TermID:           termID,
		DurationID:       durationID,
	}
	if err := tx.InsertEvent(ctx, event); err != nil {
		if errors.Is(err, repository.ErrDuplicateARN) {
			return "", rowErrorf("ARN already exists: %s", d.ARN)
		}
		return "", err
	}

	if heads := uniqueIDs(d.ProjectHeads); len(heads) > 0 {
		if err := tx.InsertHeads(ctx, event.ID, heads); err != nil {
			return "", err
		}
	}

	for _, raw := range d.TargetDates {
		value, err := s.dates.StorageValue(raw)
		if err != nil {
			return "", rowErrorf("Invalid target date: %s", raw)
		}
		if err := tx.InsertDate(ctx, models.EventDate{EventID: event.ID, StartTime: value, EndTime: value}); err != nil {
			return "", err
		}
	}

	if err := tx.InsertTracker(ctx, event.ID); err != nil {
		return "", err
	}
	return event.ID, nil
}

func (s *EventImportService) checkBatch(drafts []models.EventDraft) error {
	if len(drafts) == 0 {
		return appErrors.ErrEmptyBatch
	}
	if len(drafts) > s.cfg.MaxBatchSize {
		return appErrors.Clone(appErrors.ErrBatchTooLarge, fmt.Sprintf("a batch may contain at most %d events", s.cfg.MaxBatchSize))
	}
	return nil
}

func (s *EventImportService) currentTerm(ctx context.Context) (string, error) {
	termID := strings.TrimSpace(s.cfg.CurrentTermID)
	if termID == "" {
		return "", appErrors.Clone(appErrors.ErrPreconditionFailed, "current term is not configured")
	}
	if s.terms == nil {
		return termID, nil
	}
	ok, err := s.terms.Exists(ctx, termID)
	if err != nil {
		return "", appErrors.Internal(err, "failed to check current term")
	}
	if !ok {
		return "", appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("current term %s does not exist", termID))
	}
	return termID, nil
}

func (s *EventImportService) infraError(err error) error {
	return appErrors.Internal(err, "event import aborted")
}

// rowMessage is what the caller sees for a failed row. Storage errors are logged and
// replaced by a generic message so driver text never reaches operators.
func (s *EventImportService) rowMessage(row int, err error) string {
	var re *rowError
	if errors.As(err, &re) {
		s.logger.Debug("event import row rejected", zap.Int("row", row), zap.Error(err))
		return re.msg
	}
	s.logger.Warn("event import row failed", zap.Int("row", row), zap.Error(err))
	return rowStorageFailure
}

const rowStorageFailure = "Could not import row"

// uniqueIDs drops repeated ids, keeping first occurrences in order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// rowError is a user-facing message attached to a single failed row.
type rowError struct {
	msg string
}

func (e *rowError) Error() string { return e.msg }

func rowErrorf(format string, args ...interface{}) error {
	return &rowError{msg: fmt.Sprintf(format, args...)}
}
