package services

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// ParseDate parses a calendar date in YYYY-MM-DD
func ParseDate(dateStr string) (time.Time, error) {
	parsedTime, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: expected YYYY-MM-DD")
	}
	return parsedTime, nil
}

// ParseDateRange turns optional inclusive bounds into a half-open [from, to) range.
// Empty bounds stay nil.
func ParseDateRange(from, to string) (*time.Time, *time.Time, error) {
	var start, end *time.Time
	if from != "" {
		t, err := ParseDate(from)
		if err != nil {
			return nil, nil, err
		}
		start = &t
	}
	if to != "" {
		t, err := ParseDate(to)
		if err != nil {
			return nil, nil, err
		}
		next := t.AddDate(0, 0, 1)
		end = &next
	}
	if start != nil && end != nil && !start.Before(*end) {
		return nil, nil, fmt.Errorf("invalid date range: start after end")
	}
	return start, end, nil
}
