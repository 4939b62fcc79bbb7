package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/noah-isme/orgops-api/internal/dto"
	"github.com/noah-isme/orgops-api/internal/models"
	appErrors "github.com/noah-isme/orgops-api/pkg/errors"
	"github.com/noah-isme/orgops-api/pkg/sheet"
)

// Spreadsheet column headers expected in an event import workbook.
const (
	ColumnTitle            = "Title"
	ColumnARN              = "ARN"
	ColumnDuration         = "Duration"
	ColumnBriefDescription = "Brief Description"
	ColumnGoals            = "Goals"
	ColumnObjectives       = "Objectives"
	ColumnStrategies       = "Strategies"
	ColumnMeasures         = "Measures"
	ColumnTargetDates      = "Target Activity Date(s)"
	ColumnNature           = "Nature"
	ColumnType             = "Type"
	ColumnBudget           = "Budget"
	ColumnVenue            = "Venue"
)

// SheetColumns lists every required workbook column.
var SheetColumns = []string{
	ColumnTitle, ColumnARN, ColumnDuration, ColumnBriefDescription, ColumnGoals,
	ColumnObjectives, ColumnStrategies, ColumnMeasures, ColumnTargetDates,
	ColumnNature, ColumnType, ColumnBudget, ColumnVenue,
}

// DraftsFromSheet reads an xlsx workbook into drafts. Rows without a title are dropped.
func DraftsFromSheet(r io.Reader) ([]models.EventDraft, error) {
	rows, err := sheet.Read(r, SheetColumns)
	if err != nil {
		var missing *sheet.MissingColumnsError
		if errors.As(err, &missing) {
			return nil, appErrors.WrapAs(appErrors.ErrSheetColumns, err,
				appErrors.ErrSheetColumns.Message+": missing "+strings.Join(missing.Missing, ", "))
		}
		return nil, appErrors.WrapAs(appErrors.ErrValidation, err, "could not read spreadsheet")
	}

	drafts := make([]models.EventDraft, 0, len(rows))
	for _, row := range rows {
		title := row.Get(ColumnTitle)
		if title == "" {
			continue
		}
		drafts = append(drafts, models.EventDraft{
			Title:            title,
			ARN:              row.Get(ColumnARN),
			Duration:         row.Get(ColumnDuration),
			Nature:           row.Get(ColumnNature),
			Type:             row.Get(ColumnType),
			Budget:           row.Get(ColumnBudget),
			Venue:            row.Get(ColumnVenue),
			BriefDescription: row.Get(ColumnBriefDescription),
			Goals:            row.Get(ColumnGoals),
			Objectives:       row.Get(ColumnObjectives),
			Strategies:       row.Get(ColumnStrategies),
			Measures:         row.Get(ColumnMeasures),
			TargetDates:      splitDates(row.Get(ColumnTargetDates)),
		})
	}
	return drafts, nil
}

func splitDates(cell string) []string {
	fields := strings.FieldsFunc(cell, func(r rune) bool {
		return r == '\n' || r == '\r' || r == ';'
	})
	var dates []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			dates = append(dates, f)
		}
	}
	return dates
}

// PreviewSheet parses an uploaded workbook and validates the drafts without writing.
func (s *EventImportService) PreviewSheet(ctx context.Context, r io.Reader) (dto.SheetPreviewResponse, error) {
	drafts, err := DraftsFromSheet(r)
	if err != nil {
		return dto.SheetPreviewResponse{}, err
	}
	report, err := s.validateDrafts(ctx, drafts)
	if err != nil {
		return dto.SheetPreviewResponse{}, err
	}
	resp := dto.SheetPreviewResponse{
		Events:     make([]dto.EventDraftPayload, 0, len(drafts)),
		Validation: BuildValidationResponse(report),
	}
	for _, d := range drafts {
		resp.Events = append(resp.Events, dto.PayloadFromDraft(d))
	}
	return resp, nil
}
