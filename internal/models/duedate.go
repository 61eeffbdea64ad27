package models

import (
	"encoding/json"
	"errors"
	"time"
)

var ErrInvalidDueDate = errors.New("invalid due date")

// Layouts accepted for string due dates: ISO-8601 calendar dates and
// date-times (with or without offset) and RFC-2822 style dates.
var dueDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	time.RFC1123,
	time.RFC1123Z,
}

// ParseDueDate interprets a raw JSON due-date value. Strings are tried
// against the accepted layouts; numbers are Unix-epoch milliseconds.
// A missing or null value is not a due date.
func ParseDueDate(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, ErrInvalidDueDate
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		for _, layout := range dueDateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, ErrInvalidDueDate
	}

	var millis int64
	if err := json.Unmarshal(raw, &millis); err == nil {
		return time.UnixMilli(millis).UTC(), nil
	}

	return time.Time{}, ErrInvalidDueDate
}
