package scheduling

import (
	"errors"
	"testing"
)

func TestRequiresOverlapCheck(t *testing.T) {
	tests := map[Status]bool{
		StatusScheduled: true,
		StatusCancelled: false,
		StatusCompleted: false,
	}
	for st, want := range tests {
		if got := RequiresOverlapCheck(st); got != want {
			t.Errorf("RequiresOverlapCheck(%s) = %v, want %v", st, got, want)
		}
	}
}

func TestTransition(t *testing.T) {
	a := &Appointment{Status: StatusScheduled}

	changed, err := Transition(a, StatusCancelled)
	if err != nil || !changed || a.Status != StatusCancelled {
		t.Fatalf("expected cancel to change status, got changed=%v err=%v status=%s", changed, err, a.Status)
	}

	changed, err = Transition(a, StatusCancelled)
	if err != nil || changed {
		t.Errorf("repeated cancel should be a no-op, got changed=%v err=%v", changed, err)
	}

	changed, err = Transition(a, StatusCompleted)
	if err != nil || !changed || a.Status != StatusCompleted {
		t.Errorf("expected complete, got changed=%v err=%v status=%s", changed, err, a.Status)
	}
}

func TestTransition_RejectsScheduled(t *testing.T) {
	a := &Appointment{Status: StatusCancelled}
	if _, err := Transition(a, StatusScheduled); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
	if a.Status != StatusCancelled {
		t.Errorf("status must be unchanged, got %s", a.Status)
	}
}

func TestParseStatus(t *testing.T) {
	for _, in := range []string{"scheduled", "Cancelled", " COMPLETED "} {
		if _, err := ParseStatus(in); err != nil {
			t.Errorf("ParseStatus(%q): %v", in, err)
		}
	}
	if _, err := ParseStatus("pending"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
}
