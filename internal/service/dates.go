package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// StorageTimeLayout is the textual date-time form written to event_dates.
const StorageTimeLayout = "2006-01-02 15:04:05"

// DateParser parses target activity dates written by people, e.g. "November 25, 2025"
// or "2025-11-25", in the organization's time zone.
type DateParser struct {
	loc *time.Location
}

// NewDateParser builds a parser for the named IANA zone. Unknown or empty zones fall
// back to UTC.
func NewDateParser(zone string) *DateParser {
	loc := time.UTC
	if zone != "" {
		if l, err := time.LoadLocation(zone); err == nil {
			loc = l
		}
	}
	return &DateParser{loc: loc}
}

// Parse returns the instant described by raw.
func (p *DateParser) Parse(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	t, err := dateparse.ParseIn(value, p.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", value, err)
	}
	return t, nil
}

// StorageValue parses raw and formats it for storage.
func (p *DateParser) StorageValue(raw string) (string, error) {
	t, err := p.Parse(raw)
	if err != nil {
		return "", err
	}
	return t.In(p.loc).Format(StorageTimeLayout), nil
}
