package scheduling

import (
	"context"

	"github.com/clinic/scheduler/internal/domain/patient"
)

// AppointmentRepository persists appointments. Reads populate the patient
// summary. GetByID and Delete return ErrAppointmentNotFound for unknown
// ids. Create assigns ID, version 1 and timestamps; Update bumps the
// version and UpdatedAt.
type AppointmentRepository interface {
	ListScheduled(ctx context.Context) ([]*Appointment, error)
	GetByID(ctx context.Context, id int64) (*Appointment, error)
	Create(ctx context.Context, a *Appointment) error
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, limit, offset int) ([]*Appointment, int, error)

	// WithScheduleLock runs fn while holding the lock that serializes
	// conflict checks with the writes they guard. Repository calls made
	// with the ctx handed to fn run in the same transaction, which commits
	// only if fn returns nil.
	WithScheduleLock(ctx context.Context, fn func(ctx context.Context) error) error
}

// PatientLookup resolves patient references. It returns patient.ErrNotFound
// for unknown ids.
type PatientLookup interface {
	GetPatient(ctx context.Context, id int64) (*patient.Patient, error)
}
