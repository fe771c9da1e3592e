package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinic/scheduler/internal/domain/patient"
)

type Service struct {
	appointments    AppointmentRepository
	patients        PatientLookup
	defaultDuration time.Duration
	logger          zerolog.Logger
}

func NewService(appt AppointmentRepository, patients PatientLookup, defaultDuration time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		appointments:    appt,
		patients:        patients,
		defaultDuration: defaultDuration,
		logger:          logger.With().Str("component", "scheduling").Logger(),
	}
}

// WithDefaultDuration returns a copy of the service that assumes d for
// appointments without an end time. Stored records are not touched.
func (s *Service) WithDefaultDuration(d time.Duration) *Service {
	cp := *s
	cp.defaultDuration = d
	return &cp
}

func (s *Service) DefaultDuration() time.Duration { return s.defaultDuration }

func (s *Service) lookupPatient(ctx context.Context, id int64) (*PatientSummary, error) {
	if id <= 0 {
		return nil, ErrPatientRequired
	}
	p, err := s.patients.GetPatient(ctx, id)
	if errors.Is(err, patient.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrPatientNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup patient %d: %w", id, err)
	}
	return &PatientSummary{ID: p.ID, FullName: p.FullName}, nil
}

func validStatus(st Status) error {
	_, err := ParseStatus(string(st))
	return err
}

// CreateAppointment books a new appointment for an existing patient. A
// scheduled appointment must not overlap any other scheduled one.
func (s *Service) CreateAppointment(ctx context.Context, patientID int64, in NewAppointment) (*Appointment, error) {
	summary, err := s.lookupPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	status := StatusScheduled
	if in.Status != nil {
		status = *in.Status
	}
	if err := validStatus(status); err != nil {
		return nil, err
	}

	a := &Appointment{
		PatientID:  patientID,
		DoctorName: NormalizeDoctorName(in.DoctorName),
		Department: clonePtr(in.Department),
		StartTime:  clonePtr(in.StartTime),
		EndTime:    clonePtr(in.EndTime),
		Notes:      clonePtr(in.Notes),
		Status:     status,
	}
	if err := ValidateTimeRange(a.StartTime, a.EndTime); err != nil {
		return nil, err
	}

	err = s.appointments.WithScheduleLock(ctx, func(ctx context.Context) error {
		if err := s.checkSlot(ctx, a, nil); err != nil {
			return err
		}
		if err := s.appointments.Create(ctx, a); err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	a.Patient = summary

	s.logger.Info().
		Int64("appointment_id", a.ID).
		Int64("patient_id", a.PatientID).
		Str("status", string(a.Status)).
		Msg("appointment created")
	return a, nil
}

// UpdateAppointment merges upd into the stored record and re-validates the
// result. With replace, absent fields reset to their create defaults
// (PUT); otherwise they are kept (PATCH).
//
// The stored record is read under the schedule lock, so a cancel or
// reschedule committed just before is merged rather than overwritten.
func (s *Service) UpdateAppointment(ctx context.Context, id int64, upd AppointmentUpdate, replace bool) (*Appointment, error) {
	if replace {
		upd = upd.WithReplaceDefaults()
	}

	var merged *Appointment
	err := s.appointments.WithScheduleLock(ctx, func(ctx context.Context) error {
		existing, err := s.appointments.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if upd.PatientID.IsNull() {
			return ErrPatientRequired
		}
		if upd.Status.Set && upd.Status.Value != nil {
			if err := validStatus(*upd.Status.Value); err != nil {
				return err
			}
		}

		merged = MergeUpdate(existing, upd)
		if merged.PatientID != existing.PatientID {
			summary, err := s.lookupPatient(ctx, merged.PatientID)
			if err != nil {
				return err
			}
			merged.Patient = summary
		}
		if err := ValidateTimeRange(merged.StartTime, merged.EndTime); err != nil {
			return err
		}

		if err := s.checkSlot(ctx, merged, &id); err != nil {
			return err
		}
		if err := s.appointments.Update(ctx, merged); err != nil {
			return fmt.Errorf("update appointment %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("appointment_id", merged.ID).
		Int("version_id", merged.VersionID).
		Str("status", string(merged.Status)).
		Bool("replace", replace).
		Msg("appointment updated")
	return merged, nil
}

// checkSlot rejects candidate when it is scheduled and overlaps another
// scheduled appointment. exclude skips the candidate's own stored row.
// Callers hold the schedule lock.
func (s *Service) checkSlot(ctx context.Context, candidate *Appointment, exclude *int64) error {
	if !RequiresOverlapCheck(candidate.Status) {
		return nil
	}
	active, err := s.appointments.ListScheduled(ctx)
	if err != nil {
		return fmt.Errorf("list scheduled appointments: %w", err)
	}

	end := ResolveEffectiveEnd(candidate.StartTime, candidate.EndTime, s.defaultDuration)
	blocking := FindConflict(candidate.StartTime, end, active, exclude, s.defaultDuration)
	if blocking == nil {
		return nil
	}
	s.logger.Warn().
		Time("start_time", *candidate.StartTime).
		Time("effective_end", *end).
		Int64("blocking_id", blocking.ID).
		Msg("appointment rejected: time slot unavailable")
	return ErrSchedulingConflict
}

// TransitionStatus cancels or completes an appointment. Repeating a
// transition returns the record without writing it. Leaving scheduled
// only frees a slot, so no conflict check runs; the lock still orders the
// read and write against concurrent updates.
func (s *Service) TransitionStatus(ctx context.Context, id int64, target Status) (*Appointment, error) {
	var (
		a       *Appointment
		changed bool
	)
	err := s.appointments.WithScheduleLock(ctx, func(ctx context.Context) error {
		var err error
		if a, err = s.appointments.GetByID(ctx, id); err != nil {
			return err
		}
		if changed, err = Transition(a, target); err != nil || !changed {
			return err
		}
		if err := s.appointments.Update(ctx, a); err != nil {
			return fmt.Errorf("update appointment %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !changed {
		s.logger.Debug().Int64("appointment_id", id).Str("status", string(target)).Msg("status unchanged")
		return a, nil
	}
	s.logger.Info().Int64("appointment_id", id).Str("status", string(target)).Msg("appointment status changed")
	return a, nil
}

func (s *Service) DeleteAppointment(ctx context.Context, id int64) error {
	if _, err := s.appointments.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.appointments.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete appointment %d: %w", id, err)
	}
	s.logger.Info().Int64("appointment_id", id).Msg("appointment deleted")
	return nil
}

func (s *Service) GetAppointment(ctx context.Context, id int64) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

func (s *Service) ListAppointments(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.List(ctx, limit, offset)
}
