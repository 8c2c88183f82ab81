package shared

import "time"

const dateOnly = "2006-01-02"

// ParseDate accepts RFC3339 timestamps or plain YYYY-MM-DD dates. Leave
// and attendance endpoints deal in calendar days, so clients commonly
// send the short form. An empty string parses to the zero time.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateOnly, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
