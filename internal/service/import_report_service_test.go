package service

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/orgops-api/internal/models"
	appErrors "github.com/noah-isme/orgops-api/pkg/errors"
)

type memoryCacheRepo struct {
	values map[string][]byte
	ttls   map[string]time.Duration
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{values: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = raw
	m.ttls[key] = ttl
	return nil
}

func TestImportReportRecordAndGet(t *testing.T) {
	repo := newMemoryCacheRepo()
	cache := NewCacheService(repo, CacheOptions{Enabled: true, DefaultTTL: time.Minute})
	svc := NewImportReportService(cache, time.Hour, nil)

	drafts := []models.EventDraft{validDraft("ARN-1"), validDraft("ARN-2")}
	result := models.ImportResult{Outcomes: []models.RowOutcome{
		models.RowSuccess{Index: 0, EventID: "evt-1"},
		models.RowFailure{Index: 1, Message: "Invalid nature: Unknown"},
	}}

	id, err := svc.Record(context.Background(), drafts, result, "term-1", "admin")
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, time.Hour, repo.ttls[id])

	report, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, report.Committed)
	assert.Equal(t, "term-1", report.TermID)
	require.Len(t, report.Rows, 2)
	assert.Equal(t, models.ImportRowSuccess, report.Rows[0].Status)
	assert.Empty(t, report.Rows[0].EventID, "rolled back rows carry no event id")
	assert.Equal(t, "ARN-2", report.Rows[1].ARN)
	assert.Equal(t, "Invalid nature: Unknown", report.Rows[1].Error)
}

func TestImportReportDisabledCache(t *testing.T) {
	svc := NewImportReportService(NewCacheService(nil, CacheOptions{}), 0, nil)

	id, err := svc.Record(context.Background(), nil, models.ImportResult{Committed: true}, "term-1", "admin")
	require.NoError(t, err)
	assert.Empty(t, id)

	_, err = svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}

func TestImportReportGetMissing(t *testing.T) {
	svc := NewImportReportService(NewCacheService(newMemoryCacheRepo(), CacheOptions{Enabled: true}), 0, nil)

	_, err := svc.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestImportReportRender(t *testing.T) {
	svc := NewImportReportService(nil, 0, nil)
	report := &models.ImportReport{
		ID:        "rep-1",
		Committed: true,
		CreatedAt: time.Date(2025, 11, 25, 8, 0, 0, 0, time.UTC),
		Rows: []models.ImportReportRow{
			{Index: 0, ARN: "ARN-1", Title: "Assembly", Status: models.ImportRowSuccess, EventID: "evt-1"},
		},
	}

	csvOut, err := svc.Render(report, "CSV")
	require.NoError(t, err)
	assert.Equal(t, "event-import-rep-1.csv", csvOut.Filename)
	assert.Equal(t, "Row,ARN,Title,Status,Event ID,Error\n0,ARN-1,Assembly,SUCCESS,evt-1,\n", string(csvOut.Content))

	pdfOut, err := svc.Render(report, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdfOut.ContentType)
	assert.True(t, strings.HasPrefix(string(pdfOut.Content), "%PDF"))

	_, err = svc.Render(report, "xml")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
