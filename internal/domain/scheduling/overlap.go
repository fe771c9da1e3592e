package scheduling

import "time"

// FindConflict returns the first scheduled appointment in active whose
// effective window intersects [start, effectiveEnd). Windows are half-open,
// so touching boundaries do not conflict. excludeID skips the record being
// updated. A candidate without a full window never conflicts, and existing
// appointments without a start are ignored.
func FindConflict(start, effectiveEnd *time.Time, active []*Appointment, excludeID *int64, defaultDuration time.Duration) *Appointment {
	if start == nil || effectiveEnd == nil {
		return nil
	}

	for _, existing := range active {
		if existing.Status != StatusScheduled {
			continue
		}
		if excludeID != nil && existing.ID == *excludeID {
			continue
		}
		if existing.StartTime == nil {
			continue
		}
		existingEnd := ResolveEffectiveEnd(existing.StartTime, existing.EndTime, defaultDuration)

		if start.Before(*existingEnd) && effectiveEnd.After(*existing.StartTime) {
			return existing
		}
	}
	return nil
}

// Conflicts reports whether any appointment in active blocks the window.
func Conflicts(start, effectiveEnd *time.Time, active []*Appointment, excludeID *int64, defaultDuration time.Duration) bool {
	return FindConflict(start, effectiveEnd, active, excludeID, defaultDuration) != nil
}
