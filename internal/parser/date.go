package parser

import (
	"strings"
	"time"
)

const scheduleLayout = "2006-01-02 15:04"

var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseScheduleDate parses a schedule string into an instant. The exact
// "YYYY-MM-DD HH:mm" form is interpreted as local wall-clock time; anything
// else goes through a set of common ISO-8601 layouts. Returns nil when
// nothing matches.
func ParseScheduleDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if t, err := time.ParseInLocation(scheduleLayout, s, time.Local); err == nil {
		return &t
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return &t
		}
	}
	return nil
}
