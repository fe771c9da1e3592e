package scheduling

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clinic/scheduler/pkg/optional"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrInvalidTimeRange    = errors.New("appointment end time must be after start time")
	ErrSchedulingConflict  = errors.New("appointment time overlaps with an existing appointment")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrInvalidStatus       = errors.New("invalid appointment status")
	ErrPatientRequired     = errors.New("patient_id is required")
)

// Status is the appointment lifecycle state.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// ParseStatus accepts any letter case ("Scheduled", "CANCELLED").
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusScheduled, StatusCancelled, StatusCompleted:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, data)
	}
	st, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// PatientSummary is embedded in appointment reads.
type PatientSummary struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
}

// Appointment maps to the appointments table. StartTime and EndTime are
// stored as given; the default duration is applied only when checking for
// conflicts.
type Appointment struct {
	ID         int64           `json:"id"`
	PatientID  int64           `json:"patient_id"`
	DoctorName string          `json:"doctor_name"`
	Department *string         `json:"department"`
	StartTime  *time.Time      `json:"start_time"`
	EndTime    *time.Time      `json:"end_time"`
	Notes      *string         `json:"notes"`
	Status     Status          `json:"status"`
	VersionID  int             `json:"version_id"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	Patient    *PatientSummary `json:"patient,omitempty"`
}

// Clone returns a deep copy.
func (a *Appointment) Clone() *Appointment {
	cp := *a
	cp.Department = clonePtr(a.Department)
	cp.StartTime = clonePtr(a.StartTime)
	cp.EndTime = clonePtr(a.EndTime)
	cp.Notes = clonePtr(a.Notes)
	if a.Patient != nil {
		ps := *a.Patient
		cp.Patient = &ps
	}
	return &cp
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// NewAppointment is the create payload.
type NewAppointment struct {
	PatientID  int64      `json:"patient_id"`
	DoctorName *string    `json:"doctor_name"`
	Department *string    `json:"department"`
	StartTime  *time.Time `json:"start_time"`
	EndTime    *time.Time `json:"end_time"`
	Notes      *string    `json:"notes"`
	Status     *Status    `json:"status"`
}

// AppointmentUpdate carries only the keys the client sent. A present null
// clears optional attributes; see MergeUpdate for the rest.
type AppointmentUpdate struct {
	PatientID  optional.Field[int64]     `json:"patient_id"`
	DoctorName optional.Field[string]    `json:"doctor_name"`
	Department optional.Field[string]    `json:"department"`
	StartTime  optional.Field[time.Time] `json:"start_time"`
	EndTime    optional.Field[time.Time] `json:"end_time"`
	Notes      optional.Field[string]    `json:"notes"`
	Status     optional.Field[Status]    `json:"status"`
}
