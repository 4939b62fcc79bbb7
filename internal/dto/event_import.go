package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/noah-isme/orgops-api/internal/models"
)

// FlexString accepts either a JSON string or a JSON number and keeps its textual form.
// Spreadsheet-sourced identifiers and budgets arrive in both shapes.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	*f = FlexString(n.String())
	return nil
}

// EventDraftPayload is the wire form of a single draft event.
type EventDraftPayload struct {
	Title            string       `json:"title" validate:"max=255"`
	ARN              string       `json:"arn" validate:"max=64"`
	Duration         string       `json:"duration"`
	Nature           string       `json:"nature"`
	Type             string       `json:"type"`
	Budget           FlexString   `json:"budget"`
	Venue            string       `json:"venue"`
	BriefDescription string       `json:"briefDescription"`
	Goals            string       `json:"goals"`
	Objectives       string       `json:"objectives"`
	Strategies       string       `json:"strategies"`
	Measures         string       `json:"measures"`
	TargetDates      []string     `json:"targetDates"`
	ProjectHeads     []FlexString `json:"projectHeads"`
	Committee        *FlexString  `json:"committee"`
}

// ToDraft converts the payload into the domain draft, trimming identifiers and
// dropping blank list entries and repeated project heads.
func (p EventDraftPayload) ToDraft() models.EventDraft {
	draft := models.EventDraft{
		Title:            strings.TrimSpace(p.Title),
		ARN:              strings.TrimSpace(p.ARN),
		Duration:         strings.TrimSpace(p.Duration),
		Nature:           strings.TrimSpace(p.Nature),
		Type:             strings.TrimSpace(p.Type),
		Budget:           strings.TrimSpace(string(p.Budget)),
		Venue:            strings.TrimSpace(p.Venue),
		BriefDescription: p.BriefDescription,
		Goals:            p.Goals,
		Objectives:       p.Objectives,
		Strategies:       p.Strategies,
		Measures:         p.Measures,
	}
	for _, d := range p.TargetDates {
		if d = strings.TrimSpace(d); d != "" {
			draft.TargetDates = append(draft.TargetDates, d)
		}
	}
	seen := make(map[string]bool, len(p.ProjectHeads))
	for _, h := range p.ProjectHeads {
		if id := strings.TrimSpace(string(h)); id != "" && !seen[id] {
			seen[id] = true
			draft.ProjectHeads = append(draft.ProjectHeads, id)
		}
	}
	if p.Committee != nil {
		if id := strings.TrimSpace(string(*p.Committee)); id != "" {
			draft.Committee = &id
		}
	}
	return draft
}

// PayloadFromDraft renders a domain draft back into its wire form.
func PayloadFromDraft(d models.EventDraft) EventDraftPayload {
	p := EventDraftPayload{
		Title:            d.Title,
		ARN:              d.ARN,
		Duration:         d.Duration,
		Nature:           d.Nature,
		Type:             d.Type,
		Budget:           FlexString(d.Budget),
		Venue:            d.Venue,
		BriefDescription: d.BriefDescription,
		Goals:            d.Goals,
		Objectives:       d.Objectives,
		Strategies:       d.Strategies,
		Measures:         d.Measures,
		TargetDates:      d.TargetDates,
	}
	for _, h := range d.ProjectHeads {
		p.ProjectHeads = append(p.ProjectHeads, FlexString(h))
	}
	if d.Committee != nil {
		c := FlexString(*d.Committee)
		p.Committee = &c
	}
	return p
}

// EventBatchRequest carries a batch of drafts for validation or import.
type EventBatchRequest struct {
	Events []EventDraftPayload `json:"events" validate:"required,min=1,dive"`
}

// Drafts converts every payload in order.
func (r EventBatchRequest) Drafts() []models.EventDraft {
	drafts := make([]models.EventDraft, len(r.Events))
	for i, p := range r.Events {
		drafts[i] = p.ToDraft()
	}
	return drafts
}

// RowError describes why a row failed validation or insertion.
type RowError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// RowResult identifies the event written for a row.
type RowResult struct {
	Index   int    `json:"index"`
	EventID string `json:"eventId"`
}

// ValidateEventsResponse is returned by the advisory validation endpoint.
type ValidateEventsResponse struct {
	Valid  bool       `json:"valid"`
	Errors []RowError `json:"errors,omitempty"`
}

// ImportEventsResponse is returned by the import endpoint. When Success is false the
// Results list rows that were written and then rolled back with the rest of the batch.
type ImportEventsResponse struct {
	Success  bool        `json:"success"`
	Results  []RowResult `json:"results"`
	Errors   []RowError  `json:"errors,omitempty"`
	ReportID string      `json:"reportId,omitempty"`
}

// SheetPreviewResponse returns the drafts parsed from an uploaded spreadsheet along with
// their advisory validation.
type SheetPreviewResponse struct {
	Events     []EventDraftPayload    `json:"events"`
	Validation ValidateEventsResponse `json:"validation"`
}
