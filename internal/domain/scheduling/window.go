package scheduling

import "time"

// ResolveEffectiveEnd returns the end of the window used for conflict
// checks. Without a start there is no window and end is returned as is.
// An explicit end wins; otherwise the window lasts defaultDuration.
func ResolveEffectiveEnd(start, end *time.Time, defaultDuration time.Duration) *time.Time {
	if start == nil || end != nil {
		return end
	}
	e := start.Add(defaultDuration)
	return &e
}

// ValidateTimeRange rejects an end that does not strictly follow the start.
// Either bound may be absent.
func ValidateTimeRange(start, end *time.Time) error {
	if start != nil && end != nil && !end.After(*start) {
		return ErrInvalidTimeRange
	}
	return nil
}
