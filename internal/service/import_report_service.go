package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/orgops-api/internal/models"
	appErrors "github.com/noah-isme/orgops-api/pkg/errors"
	"github.com/noah-isme/orgops-api/pkg/export"
)

// Import report download formats.
const (
	ReportFormatJSON = "json"
	ReportFormatCSV  = "csv"
	ReportFormatPDF  = "pdf"
)

type reportCache interface {
	Enabled() bool
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type datasetRenderer interface {
	ContentType() string
	Render(data export.Dataset) ([]byte, error)
}

// RenderedReport is an import report serialised for download.
type RenderedReport struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ImportReportService keeps per-call import outcome reports in the cache so operators
// can download them after the response is gone.
type ImportReportService struct {
	cache     reportCache
	ttl       time.Duration
	renderers map[string]datasetRenderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewImportReportService constructs the report service.
func NewImportReportService(cache reportCache, ttl time.Duration, logger *zap.Logger) *ImportReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ImportReportService{
		cache: cache,
		ttl:   ttl,
		renderers: map[string]datasetRenderer{
			ReportFormatCSV: export.NewCSVExporter(),
			ReportFormatPDF: export.NewPDFExporter(0.5, 1.2, 2.5, 1, 2, 3),
		},
		logger: logger,
		now:    time.Now,
	}
}

// Record stores the outcome of an import call and returns its id. It is a no-op
// returning an empty id when the cache is disabled.
func (s *ImportReportService) Record(ctx context.Context, drafts []models.EventDraft, result models.ImportResult, termID, actor string) (string, error) {
	if s.cache == nil || !s.cache.Enabled() {
		return "", nil
	}
	report := models.ImportReport{
		ID:          uuid.NewString(),
		Committed:   result.Committed,
		TermID:      termID,
		SubmittedBy: actor,
		CreatedAt:   s.now().UTC(),
		Rows:        make([]models.ImportReportRow, 0, len(result.Outcomes)),
	}
	for _, outcome := range result.Outcomes {
		row := models.ImportReportRow{Index: outcome.RowIndex()}
		if row.Index >= 0 && row.Index < len(drafts) {
			row.ARN = drafts[row.Index].ARN
			row.Title = drafts[row.Index].Title
		}
		switch o := outcome.(type) {
		case models.RowSuccess:
			row.Status = models.ImportRowSuccess
			if result.Committed {
				row.EventID = o.EventID
			}
		case models.RowFailure:
			row.Status = models.ImportRowFailure
			row.Error = o.Message
		}
		report.Rows = append(report.Rows, row)
	}
	if err := s.cache.Set(ctx, report.ID, report, s.ttl); err != nil {
		return "", fmt.Errorf("store import report: %w", err)
	}
	s.logger.Debug("import report stored", zap.String("report_id", report.ID), zap.Int("rows", len(report.Rows)))
	return report.ID, nil
}

// Get loads a stored report.
func (s *ImportReportService) Get(ctx context.Context, id string) (*models.ImportReport, error) {
	if s.cache == nil || !s.cache.Enabled() {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "import reports are disabled")
	}
	var report models.ImportReport
	hit, err := s.cache.Get(ctx, id, &report)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load import report")
	}
	if !hit {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "import report not found or expired")
	}
	return &report, nil
}

// Render serialises a report as csv or pdf.
func (s *ImportReportService) Render(report *models.ImportReport, format string) (*RenderedReport, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report format %q", format))
	}
	content, err := renderer.Render(reportDataset(report))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render import report")
	}
	return &RenderedReport{
		Filename:    fmt.Sprintf("event-import-%s.%s", report.ID, format),
		ContentType: renderer.ContentType(),
		Content:     content,
	}, nil
}

func reportDataset(report *models.ImportReport) export.Dataset {
	outcome := "rolled back"
	if report.Committed {
		outcome = "committed"
	}
	data := export.Dataset{
		Title:   fmt.Sprintf("Event import %s (%s, %s)", report.ID, outcome, report.CreatedAt.Format(time.RFC3339)),
		Headers: []string{"Row", "ARN", "Title", "Status", "Event ID", "Error"},
		Rows:    make([][]string, 0, len(report.Rows)),
	}
	for _, row := range report.Rows {
		data.Rows = append(data.Rows, []string{
			strconv.Itoa(row.Index),
			row.ARN,
			row.Title,
			string(row.Status),
			row.EventID,
			row.Error,
		})
	}
	return data
}
