package models

import "sort"

// EventDraft is one candidate event from an import batch. It only lives for the
// duration of a validate or import call.
type EventDraft struct {
	Title            string
	ARN              string
	Duration         string
	Nature           string
	Type             string
	Budget           string
	Venue            string
	BriefDescription string
	Goals            string
	Objectives       string
	Strategies       string
	Measures         string
	TargetDates      []string
	ProjectHeads     []string
	Committee        *string
}

// StringSet is a set of identifiers or names compared as strings.
type StringSet map[string]struct{}

// NewStringSet builds a set from values.
func NewStringSet(values ...string) StringSet {
	set := make(StringSet, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// Has reports membership. A nil set contains nothing.
func (s StringSet) Has(value string) bool {
	_, ok := s[value]
	return ok
}

// ReferenceData is a point-in-time snapshot of the lookup tables drafts are checked
// against. It is loaded fresh for every call and never cached.
type ReferenceData struct {
	Natures      StringSet
	Durations    StringSet
	Committees   StringSet
	Members      StringSet
	ExistingARNs StringSet
}

// ValidationReport maps a batch row index to its error messages. Valid rows are absent.
type ValidationReport map[int][]string

// Valid reports whether no row has errors.
func (r ValidationReport) Valid() bool {
	return len(r) == 0
}

// Indexes returns the failing row indexes in ascending order.
func (r ValidationReport) Indexes() []int {
	indexes := make([]int, 0, len(r))
	for idx := range r {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	return indexes
}

// RowOutcome is the result of inserting one draft: either RowSuccess or RowFailure.
type RowOutcome interface {
	RowIndex() int
	rowOutcome()
}

// RowSuccess records the event id written for a row. After a rollback the id no
// longer exists in storage.
type RowSuccess struct {
	Index   int
	EventID string
}

// RowFailure records why a row could not be inserted.
type RowFailure struct {
	Index   int
	Message string
}

func (s RowSuccess) RowIndex() int { return s.Index }
func (RowSuccess) rowOutcome()     {}

func (f RowFailure) RowIndex() int { return f.Index }
func (RowFailure) rowOutcome()     {}

// ImportResult is the outcome of one batch insertion.
type ImportResult struct {
	Committed bool
	Outcomes  []RowOutcome
}

// Successes returns the success outcomes in input order.
func (r ImportResult) Successes() []RowSuccess {
	var out []RowSuccess
	for _, o := range r.Outcomes {
		if s, ok := o.(RowSuccess); ok {
			out = append(out, s)
		}
	}
	return out
}

// Failures returns the failure outcomes in input order.
func (r ImportResult) Failures() []RowFailure {
	var out []RowFailure
	for _, o := range r.Outcomes {
		if f, ok := o.(RowFailure); ok {
			out = append(out, f)
		}
	}
	return out
}
