package scheduling

import "fmt"

// RequiresOverlapCheck reports whether a record ending up in target must
// be validated against the active set. Only the resulting status matters:
// leaving scheduled frees the slot, entering it always re-checks.
func RequiresOverlapCheck(target Status) bool {
	return target == StatusScheduled
}

// Transition moves a to cancelled or completed. It reports whether the
// status changed; a repeated transition is a successful no-op.
func Transition(a *Appointment, target Status) (bool, error) {
	if target != StatusCancelled && target != StatusCompleted {
		return false, fmt.Errorf("%w: cannot transition to %q", ErrInvalidTransition, target)
	}
	if a.Status == target {
		return false, nil
	}
	a.Status = target
	return true, nil
}
