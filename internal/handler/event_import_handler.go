package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/orgops-api/internal/dto"
	"github.com/noah-isme/orgops-api/internal/middleware"
	"github.com/noah-isme/orgops-api/internal/models"
	"github.com/noah-isme/orgops-api/internal/service"
	appErrors "github.com/noah-isme/orgops-api/pkg/errors"
	"github.com/noah-isme/orgops-api/pkg/response"
)

const maxSheetBytes = 10 << 20

type eventImportService interface {
	Validate(ctx context.Context, drafts []models.EventDraft) (dto.ValidateEventsResponse, error)
	Import(ctx context.Context, drafts []models.EventDraft, actor string) (models.ImportResult, string, error)
	PreviewSheet(ctx context.Context, r io.Reader) (dto.SheetPreviewResponse, error)
}

type importReportService interface {
	Get(ctx context.Context, id string) (*models.ImportReport, error)
	Render(report *models.ImportReport, format string) (*service.RenderedReport, error)
}

// EventImportHandler exposes the bulk event import endpoints.
type EventImportHandler struct {
	imports  eventImportService
	reports  importReportService
	validate *validator.Validate
}

// NewEventImportHandler constructs the handler. reports may be nil when import reports
// are disabled.
func NewEventImportHandler(imports eventImportService, reports importReportService, validate *validator.Validate) *EventImportHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &EventImportHandler{imports: imports, reports: reports, validate: validate}
}

func (h *EventImportHandler) bindBatch(c *gin.Context) ([]models.EventDraft, bool) {
	var req dto.EventBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.WrapAs(appErrors.ErrValidation, err, "invalid import payload"))
		return nil, false
	}
	if len(req.Events) == 0 {
		response.Error(c, appErrors.ErrEmptyBatch)
		return nil, false
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.WrapAs(appErrors.ErrValidation, err, "invalid import payload"))
		return nil, false
	}
	return req.Drafts(), true
}

// ValidateEvents godoc
// @Summary Validate an event import batch
// @Description Advisory checks against current reference data. Nothing is written.
// @Tags EventImport
// @Accept json
// @Produce json
// @Param payload body dto.EventBatchRequest true "Draft events"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /events/import/validate [post]
func (h *EventImportHandler) ValidateEvents(c *gin.Context) {
	drafts, ok := h.bindBatch(c)
	if !ok {
		return
	}
	result, err := h.imports.Validate(c.Request.Context(), drafts)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// ImportEvents godoc
// @Summary Import an event batch
// @Description Writes every draft in one transaction. Any failed row rolls back the whole batch.
// @Tags EventImport
// @Accept json
// @Produce json
// @Param payload body dto.EventBatchRequest true "Draft events"
// @Success 201 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /events/import [post]
func (h *EventImportHandler) ImportEvents(c *gin.Context) {
	drafts, ok := h.bindBatch(c)
	if !ok {
		return
	}
	result, reportID, err := h.imports.Import(c.Request.Context(), drafts, actorName(middleware.Claims(c)))
	if err != nil {
		response.Error(c, err)
		return
	}
	status, body := service.BuildImportResponse(result)
	body.ReportID = reportID
	if status == http.StatusCreated {
		response.Created(c, body)
		return
	}
	response.Failure(c, appErrors.ErrImportRolledBack, body)
}

// PreviewSheet godoc
// @Summary Preview an xlsx import sheet
// @Description Parses the first worksheet into drafts and validates them. Nothing is written.
// @Tags EventImport
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Workbook (.xlsx)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /events/import/sheet [post]
func (h *EventImportHandler) PreviewSheet(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	if fileHeader.Size > maxSheetBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d MB", maxSheetBytes>>20)))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to open file"))
		return
	}
	defer src.Close()

	preview, err := h.imports.PreviewSheet(c.Request.Context(), src)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preview)
}

// DownloadReport godoc
// @Summary Download an import report
// @Tags EventImport
// @Produce json
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Report ID"
// @Param format query string false "json, csv or pdf"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/import/reports/{id} [get]
func (h *EventImportHandler) DownloadReport(c *gin.Context) {
	if h.reports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "import reports are disabled"))
		return
	}
	report, err := h.reports.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	format := strings.ToLower(c.DefaultQuery("format", service.ReportFormatJSON))
	if format == service.ReportFormatJSON {
		response.JSON(c, http.StatusOK, report)
		return
	}
	rendered, err := h.reports.Render(report, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", rendered.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, rendered.ContentType, rendered.Content)
}
