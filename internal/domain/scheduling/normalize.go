package scheduling

import (
	"strings"
	"time"

	"github.com/clinic/scheduler/pkg/optional"
)

// DefaultDoctorName is stored when no usable doctor name is given.
const DefaultDoctorName = "TBD"

func NormalizeDoctorName(raw *string) string {
	if raw == nil {
		return DefaultDoctorName
	}
	if name := strings.TrimSpace(*raw); name != "" {
		return name
	}
	return DefaultDoctorName
}

// MergeUpdate applies the present fields of upd to a copy of existing.
// existing is never modified.
//
// Null on a required attribute falls back to its create default: doctor
// name becomes DefaultDoctorName and status becomes scheduled. A null
// patient_id leaves the reference alone here; the service rejects it.
func MergeUpdate(existing *Appointment, upd AppointmentUpdate) *Appointment {
	merged := existing.Clone()

	if upd.PatientID.Set && upd.PatientID.Value != nil {
		if *upd.PatientID.Value != merged.PatientID {
			merged.Patient = nil
		}
		merged.PatientID = *upd.PatientID.Value
	}
	if upd.DoctorName.Set {
		merged.DoctorName = NormalizeDoctorName(upd.DoctorName.Value)
	}
	upd.Department.Apply(&merged.Department)
	upd.StartTime.Apply(&merged.StartTime)
	upd.EndTime.Apply(&merged.EndTime)
	upd.Notes.Apply(&merged.Notes)
	if upd.Status.Set {
		merged.Status = StatusScheduled
		if upd.Status.Value != nil {
			merged.Status = *upd.Status.Value
		}
	}
	return merged
}

// WithReplaceDefaults turns a partial update into a full replacement: each
// absent attribute is set to the value a fresh create would give it. The
// patient reference is kept when absent.
func (u AppointmentUpdate) WithReplaceDefaults() AppointmentUpdate {
	if !u.DoctorName.Set {
		u.DoctorName = optional.Null[string]()
	}
	if !u.Department.Set {
		u.Department = optional.Null[string]()
	}
	if !u.StartTime.Set {
		u.StartTime = optional.Null[time.Time]()
	}
	if !u.EndTime.Set {
		u.EndTime = optional.Null[time.Time]()
	}
	if !u.Notes.Set {
		u.Notes = optional.Null[string]()
	}
	if !u.Status.Set {
		u.Status = optional.Of(StatusScheduled)
	}
	return u
}
