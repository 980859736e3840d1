package analysis

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingFile indicates a required upload slot is empty.
	ErrMissingFile = errors.New("missing required file")
	// ErrEmptyPolicy indicates an analysis was requested without policy text.
	ErrEmptyPolicy = errors.New("please enter policy text before analyzing")
	// ErrPayloadTooLarge indicates the backend answered 413.
	ErrPayloadTooLarge = errors.New("policy text is too large for reflective analysis, reduce input size or use fast analysis")
	// ErrResponseTooLarge indicates a backend body over the read limit.
	ErrResponseTooLarge = errors.New("backend response too large")
)

// StatusError is a non-2xx backend response, kept verbatim for display.
type StatusError struct {
	Endpoint string
	Code     int
	Status   string
	Body     string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s: server returned %s", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("%s: server returned %s: %s", e.Endpoint, e.Status, body)
}
