package leads

import "errors"

var (
	// ErrIncompleteLead is returned when a required lead field is empty
	ErrIncompleteLead = errors.New("leads: required field missing")
)
