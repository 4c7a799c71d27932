// internal/datetime/datetime.go

// Package datetime is the single normalization point for timestamps entering or
// leaving the sync engine. Every instant it returns is in UTC.
package datetime

import (
	"strings"
	"time"

	custom_errors "github-repo-sync/internal/errors"
)

// layouts accepted by ParseExternal, tried in order. Layouts without a zone
// parse as UTC because time.Parse defaults to UTC when no offset is present.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// Now returns the current instant in UTC.
func Now() time.Time {
	return time.Now().UTC()
}

// ParseExternal parses an ISO-8601 timestamp with a "Z" suffix, an explicit
// offset, or no offset at all (treated as UTC) and returns it in UTC.
func ParseExternal(text string) (time.Time, error) {
	s := strings.TrimSpace(text)
	var firstErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, &custom_errors.MalformedTimestampError{Value: text, Err: firstErr}
}

// Normalize returns t in UTC. A zero time stays zero.
func Normalize(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// Compare orders a and b as instants: -1 if a is before b, 1 if after, 0 if equal.
func Compare(a, b time.Time) int {
	return Normalize(a).Compare(Normalize(b))
}

// Format renders t as a Z-suffixed RFC3339 string.
func Format(t time.Time) string {
	return Normalize(t).Format(time.RFC3339Nano)
}
