package service

import (
	"fmt"
	"strings"

	"github.com/noah-isme/orgops-api/internal/models"
)

// EventValidator runs the advisory per-row checks of an import batch. It never touches
// storage; the reference snapshot is supplied by the caller.
type EventValidator struct {
	dates *DateParser
}

// NewEventValidator constructs a validator using the given date parser.
func NewEventValidator(dates *DateParser) *EventValidator {
	if dates == nil {
		dates = NewDateParser("")
	}
	return &EventValidator{dates: dates}
}

// Validate checks every draft and returns the messages of failing rows keyed by row
// index. All checks run for every row; a row can collect several messages.
func (v *EventValidator) Validate(drafts []models.EventDraft, ref models.ReferenceData) models.ValidationReport {
	report := make(models.ValidationReport)
	firstSeen := make(map[string]int, len(drafts))
	for i, draft := range drafts {
		errs := v.validateRow(draft, ref)
		if draft.ARN != "" {
			if first, dup := firstSeen[draft.ARN]; dup {
				errs = append(errs, fmt.Sprintf("Duplicate ARN in batch (first seen at row %d)", first))
			} else {
				firstSeen[draft.ARN] = i
			}
		}
		if len(errs) > 0 {
			report[i] = errs
		}
	}
	return report
}

func (v *EventValidator) validateRow(d models.EventDraft, ref models.ReferenceData) []string {
	var errs []string

	if d.Title == "" {
		errs = append(errs, "Title is required")
	}
	if d.ARN == "" {
		errs = append(errs, "ARN is required")
	}
	if d.Nature == "" {
		errs = append(errs, "Nature is required")
	}
	if d.Duration == "" {
		errs = append(errs, "Duration is required")
	}
	if len(d.TargetDates) == 0 {
		errs = append(errs, "At least one target activity date is required")
	}

	if d.ARN != "" && ref.ExistingARNs.Has(d.ARN) {
		errs = append(errs, "ARN already exists")
	}

	if d.Nature != "" && !ref.Natures.Has(d.Nature) {
		errs = append(errs, "Invalid nature: "+d.Nature)
	}
	if d.Duration != "" && !ref.Durations.Has(d.Duration) {
		errs = append(errs, "Invalid duration: "+d.Duration)
	}

	var unknownHeads []string
	for _, head := range d.ProjectHeads {
		if !ref.Members.Has(head) {
			unknownHeads = append(unknownHeads, head)
		}
	}
	if len(unknownHeads) > 0 {
		errs = append(errs, "Invalid project head(s): "+strings.Join(unknownHeads, ", "))
	}
	if d.Committee != nil && !ref.Committees.Has(*d.Committee) {
		errs = append(errs, "Invalid committee: "+*d.Committee)
	}

	var badDates []string
	for _, raw := range d.TargetDates {
		if _, err := v.dates.Parse(raw); err != nil {
			badDates = append(badDates, raw)
		}
	}
	if len(badDates) > 0 {
		errs = append(errs, "Invalid target date(s): "+strings.Join(badDates, ", "))
	}

	if _, ok := ParseBudget(d.Budget); !ok {
		errs = append(errs, "Invalid budget: "+d.Budget)
	}

	return errs
}
