package models

import "time"

// ImportRowStatus describes a row inside a stored import report.
type ImportRowStatus string

const (
	ImportRowSuccess ImportRowStatus = "SUCCESS"
	ImportRowFailure ImportRowStatus = "FAILURE"
)

// ImportReport is the stored summary of one import call, kept for operator download.
type ImportReport struct {
	ID          string            `json:"id"`
	Committed   bool              `json:"committed"`
	TermID      string            `json:"term_id"`
	SubmittedBy string            `json:"submitted_by,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	Rows        []ImportReportRow `json:"rows"`
}

// ImportReportRow is one row of an ImportReport.
type ImportReportRow struct {
	Index   int             `json:"index"`
	ARN     string          `json:"arn"`
	Title   string          `json:"title"`
	Status  ImportRowStatus `json:"status"`
	EventID string          `json:"event_id,omitempty"`
	Error   string          `json:"error,omitempty"`
}
