package workflow

import "time"

// ValidateSchedule checks that an event has a start and does not end before it starts.
func ValidateSchedule(start time.Time, end *time.Time) error {
	if start.IsZero() {
		return Invalidf("start time is required")
	}
	if end != nil && end.Before(start) {
		return Invalidf("end time must not be before start time")
	}
	return nil
}
