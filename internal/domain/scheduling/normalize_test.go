package scheduling

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/clinic/scheduler/pkg/optional"
)

func strPtr(s string) *string { return &s }

func TestNormalizeDoctorName(t *testing.T) {
	tests := []struct {
		in   *string
		want string
	}{
		{nil, DefaultDoctorName},
		{strPtr(""), DefaultDoctorName},
		{strPtr("  "), DefaultDoctorName},
		{strPtr(" Dr. Adams "), "Dr. Adams"},
	}
	for _, tt := range tests {
		if got := NormalizeDoctorName(tt.in); got != tt.want {
			t.Errorf("NormalizeDoctorName(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func existingAppointment() *Appointment {
	return &Appointment{
		ID:         5,
		PatientID:  1,
		DoctorName: "Dr. Adams",
		Department: strPtr("Cardiology"),
		StartTime:  at(10, 0),
		EndTime:    at(11, 0),
		Notes:      strPtr("bring results"),
		Status:     StatusScheduled,
		VersionID:  3,
		Patient:    &PatientSummary{ID: 1, FullName: "Ann Lee"},
	}
}

func decodeUpdate(t *testing.T, body string) AppointmentUpdate {
	t.Helper()
	var upd AppointmentUpdate
	if err := json.Unmarshal([]byte(body), &upd); err != nil {
		t.Fatalf("decode update: %v", err)
	}
	return upd
}

func TestMergeUpdate_LeavesAbsentFields(t *testing.T) {
	existing := existingAppointment()
	merged := MergeUpdate(existing, decodeUpdate(t, `{"department":"Neurology"}`))

	if *merged.Department != "Neurology" {
		t.Errorf("expected department Neurology, got %v", *merged.Department)
	}
	if merged.DoctorName != "Dr. Adams" {
		t.Errorf("doctor name must be untouched, got %q", merged.DoctorName)
	}
	if merged.Notes == nil || *merged.Notes != "bring results" {
		t.Errorf("PATCH must keep notes, got %v", merged.Notes)
	}
	if merged.Patient == nil {
		t.Error("patient summary should be kept when patient_id is unchanged")
	}
}

func TestMergeUpdate_BlankDoctorName(t *testing.T) {
	merged := MergeUpdate(existingAppointment(), decodeUpdate(t, `{"doctor_name":"   "}`))
	if merged.DoctorName != DefaultDoctorName {
		t.Errorf("expected %q, got %q", DefaultDoctorName, merged.DoctorName)
	}

	merged = MergeUpdate(existingAppointment(), decodeUpdate(t, `{"doctor_name":null}`))
	if merged.DoctorName != DefaultDoctorName {
		t.Errorf("expected %q for null, got %q", DefaultDoctorName, merged.DoctorName)
	}
}

func TestMergeUpdate_NullEndClearsEnd(t *testing.T) {
	merged := MergeUpdate(existingAppointment(), decodeUpdate(t, `{"end_time":null}`))
	if merged.EndTime != nil {
		t.Fatalf("expected end cleared, got %v", *merged.EndTime)
	}
	end := ResolveEffectiveEnd(merged.StartTime, merged.EndTime, 30*time.Minute)
	if !end.Equal(*at(10, 30)) {
		t.Errorf("expected effective end 10:30, got %v", *end)
	}
}

func TestMergeUpdate_NullStatusDefaultsToScheduled(t *testing.T) {
	existing := existingAppointment()
	existing.Status = StatusCancelled
	merged := MergeUpdate(existing, decodeUpdate(t, `{"status":null}`))
	if merged.Status != StatusScheduled {
		t.Errorf("expected scheduled, got %s", merged.Status)
	}
}

func TestMergeUpdate_PatientChangeDropsSummary(t *testing.T) {
	merged := MergeUpdate(existingAppointment(), decodeUpdate(t, `{"patient_id":2}`))
	if merged.PatientID != 2 || merged.Patient != nil {
		t.Errorf("expected patient 2 without summary, got %d %+v", merged.PatientID, merged.Patient)
	}
}

func TestMergeUpdate_DoesNotMutateExisting(t *testing.T) {
	existing := existingAppointment()
	upd := AppointmentUpdate{
		StartTime: optional.Of(*at(14, 0)),
		Notes:     optional.Null[string](),
		Status:    optional.Of(StatusCompleted),
	}
	MergeUpdate(existing, upd)

	if !existing.StartTime.Equal(*at(10, 0)) || existing.Notes == nil || existing.Status != StatusScheduled {
		t.Errorf("existing record mutated: %+v", existing)
	}
}

func TestWithReplaceDefaults(t *testing.T) {
	upd := decodeUpdate(t, `{"start_time":"2026-03-02T14:00:00Z"}`).WithReplaceDefaults()
	merged := MergeUpdate(existingAppointment(), upd)

	if merged.Notes != nil || merged.Department != nil || merged.EndTime != nil {
		t.Errorf("PUT must clear omitted optional fields, got %+v", merged)
	}
	if merged.DoctorName != DefaultDoctorName {
		t.Errorf("expected default doctor name, got %q", merged.DoctorName)
	}
	if merged.Status != StatusScheduled {
		t.Errorf("expected scheduled, got %s", merged.Status)
	}
	if merged.PatientID != 1 {
		t.Errorf("PUT must keep the patient when omitted, got %d", merged.PatientID)
	}
	if !merged.StartTime.Equal(*at(14, 0)) {
		t.Errorf("expected start 14:00, got %v", *merged.StartTime)
	}
}

func TestAppointmentUpdate_InvalidStatus(t *testing.T) {
	var upd AppointmentUpdate
	if err := json.Unmarshal([]byte(`{"status":"pending"}`), &upd); err == nil {
		t.Error("expected error for unknown status")
	}
}
