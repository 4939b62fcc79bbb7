package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/orgops-api/internal/dto"
	"github.com/noah-isme/orgops-api/internal/middleware"
	"github.com/noah-isme/orgops-api/internal/models"
	"github.com/noah-isme/orgops-api/internal/service"
	appErrors "github.com/noah-isme/orgops-api/pkg/errors"
)

type importServiceMock struct {
	validateResp dto.ValidateEventsResponse
	result       models.ImportResult
	reportID     string
	err          error
	preview      dto.SheetPreviewResponse
	gotDrafts    []models.EventDraft
	gotActor     string
	gotSheet     []byte
}

func (m *importServiceMock) Validate(ctx context.Context, drafts []models.EventDraft) (dto.ValidateEventsResponse, error) {
	m.gotDrafts = drafts
	return m.validateResp, m.err
}

func (m *importServiceMock) Import(ctx context.Context, drafts []models.EventDraft, actor string) (models.ImportResult, string, error) {
	m.gotDrafts = drafts
	m.gotActor = actor
	return m.result, m.reportID, m.err
}

func (m *importServiceMock) PreviewSheet(ctx context.Context, r io.Reader) (dto.SheetPreviewResponse, error) {
	m.gotSheet, _ = io.ReadAll(r)
	return m.preview, m.err
}

type reportServiceMock struct {
	report   *models.ImportReport
	rendered *service.RenderedReport
	err      error
}

func (m *reportServiceMock) Get(ctx context.Context, id string) (*models.ImportReport, error) {
	return m.report, m.err
}

func (m *reportServiceMock) Render(report *models.ImportReport, format string) (*service.RenderedReport, error) {
	return m.rendered, m.err
}

type envelope struct {
	Data  json.RawMessage  `json:"data"`
	Error *appErrors.Error `json:"error"`
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-1", Email: "officer@example.org", Role: models.RoleOfficer})
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

const batchBody = `{"events":[{"title":"Assembly","arn":"ARN-1","nature":"Academic","duration":"One-day","budget":1500,"targetDates":["November 25, 2025"],"projectHeads":[11,"12"],"committee":3}]}`

func TestImportEventsCommitted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &importServiceMock{
		result:   models.ImportResult{Committed: true, Outcomes: []models.RowOutcome{models.RowSuccess{Index: 0, EventID: "evt-1"}}},
		reportID: "rep-1",
	}
	h := NewEventImportHandler(svc, nil, nil)

	c, w := newGinContext(http.MethodPost, "/events/import", []byte(batchBody))
	h.ImportEvents(c)

	require.Equal(t, http.StatusCreated, w.Code)
	var body dto.ImportEventsResponse
	env := decode(t, w, &body)
	assert.Nil(t, env.Error)
	assert.True(t, body.Success)
	assert.Equal(t, "rep-1", body.ReportID)
	assert.Equal(t, []dto.RowResult{{Index: 0, EventID: "evt-1"}}, body.Results)

	require.Len(t, svc.gotDrafts, 1)
	d := svc.gotDrafts[0]
	assert.Equal(t, "1500", d.Budget)
	assert.Equal(t, []string{"11", "12"}, d.ProjectHeads)
	require.NotNil(t, d.Committee)
	assert.Equal(t, "3", *d.Committee)
	assert.Equal(t, "officer@example.org", svc.gotActor)
}

func TestImportEventsRolledBack(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &importServiceMock{result: models.ImportResult{Outcomes: []models.RowOutcome{
		models.RowSuccess{Index: 0, EventID: "evt-1"},
		models.RowFailure{Index: 1, Message: "Invalid nature: Unknown"},
		models.RowSuccess{Index: 2, EventID: "evt-3"},
	}}}
	h := NewEventImportHandler(svc, nil, nil)

	c, w := newGinContext(http.MethodPost, "/events/import", []byte(batchBody))
	h.ImportEvents(c)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body dto.ImportEventsResponse
	env := decode(t, w, &body)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrImportRolledBack.Code, env.Error.Code)
	assert.False(t, body.Success)
	assert.Equal(t, []dto.RowError{{Index: 1, Error: "Invalid nature: Unknown"}}, body.Errors)
	assert.Len(t, body.Results, 2)
}

func TestImportEventsInfrastructureError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &importServiceMock{err: appErrors.Clone(appErrors.ErrInternal, "event import aborted")}
	h := NewEventImportHandler(svc, nil, nil)

	c, w := newGinContext(http.MethodPost, "/events/import", []byte(batchBody))
	h.ImportEvents(c)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	env := decode(t, w, nil)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrInternal.Code, env.Error.Code)
	assert.Empty(t, env.Data)
}

func TestImportEventsRejectsBadPayloads(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewEventImportHandler(&importServiceMock{}, nil, nil)

	cases := map[string]struct {
		body string
		code string
	}{
		"malformed": {body: `{"events":`, code: appErrors.ErrValidation.Code},
		"empty":     {body: `{"events":[]}`, code: appErrors.ErrEmptyBatch.Code},
		"long arn":  {body: `{"events":[{"title":"x","arn":"` + string(bytes.Repeat([]byte("A"), 65)) + `"}]}`, code: appErrors.ErrValidation.Code},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c, w := newGinContext(http.MethodPost, "/events/import", []byte(tc.body))
			h.ImportEvents(c)
			require.Equal(t, http.StatusBadRequest, w.Code)
			env := decode(t, w, nil)
			require.NotNil(t, env.Error)
			assert.Equal(t, tc.code, env.Error.Code)
		})
	}
}

func TestValidateEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &importServiceMock{validateResp: dto.ValidateEventsResponse{Errors: []dto.RowError{{Index: 0, Error: "ARN already exists"}}}}
	h := NewEventImportHandler(svc, nil, nil)

	c, w := newGinContext(http.MethodPost, "/events/import/validate", []byte(batchBody))
	h.ValidateEvents(c)

	require.Equal(t, http.StatusOK, w.Code)
	var body dto.ValidateEventsResponse
	decode(t, w, &body)
	assert.False(t, body.Valid)
	assert.Equal(t, "ARN already exists", body.Errors[0].Error)
}

func TestPreviewSheet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &importServiceMock{preview: dto.SheetPreviewResponse{
		Events:     []dto.EventDraftPayload{{Title: "Assembly", ARN: "ARN-1"}},
		Validation: dto.ValidateEventsResponse{Valid: true},
	}}
	h := NewEventImportHandler(svc, nil, nil)

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	part, err := mw.CreateFormFile("file", "events.xlsx")
	require.NoError(t, err)
	_, err = part.Write([]byte("workbook-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	c, w := newGinContext(http.MethodPost, "/events/import/sheet", buf.Bytes())
	c.Request.Header.Set("Content-Type", mw.FormDataContentType())
	h.PreviewSheet(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "workbook-bytes", string(svc.gotSheet))
	var body dto.SheetPreviewResponse
	decode(t, w, &body)
	assert.True(t, body.Validation.Valid)
	assert.Equal(t, "ARN-1", body.Events[0].ARN)
}

func TestPreviewSheetRequiresFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewEventImportHandler(&importServiceMock{}, nil, nil)

	c, w := newGinContext(http.MethodPost, "/events/import/sheet", nil)
	h.PreviewSheet(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDownloadReport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reports := &reportServiceMock{
		report:   &models.ImportReport{ID: "rep-1", Committed: true},
		rendered: &service.RenderedReport{Filename: "event-import-rep-1.csv", ContentType: "text/csv; charset=utf-8", Content: []byte("Row\n")},
	}
	h := NewEventImportHandler(&importServiceMock{}, reports, nil)

	c, w := newGinContext(http.MethodGet, "/events/import/reports/rep-1?format=csv", nil)
	c.Params = gin.Params{{Key: "id", Value: "rep-1"}}
	h.DownloadReport(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "event-import-rep-1.csv")
	assert.Equal(t, "Row\n", w.Body.String())

	c, w = newGinContext(http.MethodGet, "/events/import/reports/rep-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "rep-1"}}
	h.DownloadReport(c)
	require.Equal(t, http.StatusOK, w.Code)
	var report models.ImportReport
	decode(t, w, &report)
	assert.Equal(t, "rep-1", report.ID)
}

func TestDownloadReportDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewEventImportHandler(&importServiceMock{}, nil, nil)

	c, w := newGinContext(http.MethodGet, "/events/import/reports/rep-1", nil)
	h.DownloadReport(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
