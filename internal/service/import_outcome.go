package service

import (
	"net/http"
	"strings"

	"github.com/noah-isme/orgops-api/internal/dto"
	"github.com/noah-isme/orgops-api/internal/models"
)

// BuildValidationResponse flattens a validation report into one combined message per row.
func BuildValidationResponse(report models.ValidationReport) dto.ValidateEventsResponse {
	if report.Valid() {
		return dto.ValidateEventsResponse{Valid: true}
	}
	resp := dto.ValidateEventsResponse{Errors: make([]dto.RowError, 0, len(report))}
	for _, idx := range report.Indexes() {
		resp.Errors = append(resp.Errors, dto.RowError{Index: idx, Error: strings.Join(report[idx], "; ")})
	}
	return resp
}

// BuildImportResponse maps an insertion result onto the HTTP status and body. A rolled
// back batch still lists the rows that were written before the rollback; their event
// ids no longer exist.
func BuildImportResponse(result models.ImportResult) (int, dto.ImportEventsResponse) {
	resp := dto.ImportEventsResponse{
		Success: result.Committed,
		Results: make([]dto.RowResult, 0, len(result.Outcomes)),
	}
	for _, outcome := range result.Outcomes {
		switch o := outcome.(type) {
		case models.RowSuccess:
			resp.Results = append(resp.Results, dto.RowResult{Index: o.Index, EventID: o.EventID})
		case models.RowFailure:
			resp.Errors = append(resp.Errors, dto.RowError{Index: o.Index, Error: o.Message})
		}
	}
	if result.Committed {
		return http.StatusCreated, resp
	}
	return http.StatusUnprocessableEntity, resp
}
