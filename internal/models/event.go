package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultVenue is stored when an imported event has no venue.
const DefaultVenue = "Online"

// Event is the persisted header row of an organization activity.
type Event struct {
	ID               string          `db:"id" json:"id"`
	ARN              string          `db:"arn" json:"arn"`
	Name             string          `db:"name" json:"name"`
	Venue            string          `db:"venue" json:"venue"`
	Type             string          `db:"type" json:"type"`
	Strategies       string          `db:"strategies" json:"strategies"`
	Objectives       string          `db:"objectives" json:"objectives"`
	NatureID         int64           `db:"nature_id" json:"nature_id"`
	Measures         string          `db:"measures" json:"measures"`
	Goals            string          `db:"goals" json:"goals"`
	CommitteeID      *string         `db:"committee_id" json:"committee_id,omitempty"`
	BudgetAllocation decimal.Decimal `db:"budget_allocation" json:"budget_allocation"`
	BriefDescription string          `db:"brief_description" json:"brief_description"`
	TermID           string          `db:"term_id" json:"term_id"`
	DurationID       int64           `db:"duration_id" json:"duration_id"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
}

// EventHead links a member as project head of an event.
type EventHead struct {
	EventID  string `db:"event_id" json:"event_id"`
	MemberID string `db:"member_id" json:"member_id"`
}

// EventDate is one target activity date. Imports store a point in time, so
// StartTime and EndTime carry the same value.
type EventDate struct {
	EventID   string `db:"event_id" json:"event_id"`
	StartTime string `db:"start_time" json:"start_time"`
	EndTime   string `db:"end_time" json:"end_time"`
}

// EventTracker holds the documentation/finance workflow state of an event. Status
// columns are left to their database defaults on creation.
type EventTracker struct {
	EventID   string    `db:"event_id" json:"event_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
