package scheduling

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/scheduler/internal/platform/db"
)

// scheduleLockKey is the advisory lock serializing conflict checks.
const scheduleLockKey int64 = 0x61707074

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) db.Queryable {
	return db.Conn(ctx, r.pool)
}

const apptSelect = `SELECT a.id, a.patient_id, a.doctor_name, a.department, a.start_time, a.end_time,
	a.notes, a.status, a.version_id, a.created_at, a.updated_at, p.full_name
	FROM appointments a JOIN patients p ON p.id = a.patient_id`

func (r *appointmentRepoPG) scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var status, patientName string
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorName, &a.Department, &a.StartTime, &a.EndTime,
		&a.Notes, &status, &a.VersionID, &a.CreatedAt, &a.UpdatedAt, &patientName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, err
	}
	a.Status = Status(status)
	a.Patient = &PatientSummary{ID: a.PatientID, FullName: patientName}
	return &a, nil
}

func (r *appointmentRepoPG) query(ctx context.Context, sql string, args ...interface{}) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := r.scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *appointmentRepoPG) ListScheduled(ctx context.Context) ([]*Appointment, error) {
	return r.query(ctx, apptSelect+` WHERE a.status = $1`, string(StatusScheduled))
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	return r.scanAppointment(r.conn(ctx).QueryRow(ctx, apptSelect+` WHERE a.id = $1`, id))
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointments (patient_id, doctor_name, department, start_time, end_time, notes, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, version_id, created_at, updated_at`,
		a.PatientID, a.DoctorName, a.Department, a.StartTime, a.EndTime, a.Notes, string(a.Status),
	).Scan(&a.ID, &a.VersionID, &a.CreatedAt, &a.UpdatedAt)
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE appointments SET patient_id=$2, doctor_name=$3, department=$4, start_time=$5,
			end_time=$6, notes=$7, status=$8, version_id=version_id+1, updated_at=NOW()
		WHERE id = $1
		RETURNING version_id, updated_at`,
		a.ID, a.PatientID, a.DoctorName, a.Department, a.StartTime, a.EndTime, a.Notes, string(a.Status),
	).Scan(&a.VersionID, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrAppointmentNotFound
	}
	return err
}

func (r *appointmentRepoPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *appointmentRepoPG) List(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointments`).Scan(&total); err != nil {
		return nil, 0, err
	}
	items, err := r.query(ctx, apptSelect+` ORDER BY a.start_time NULLS LAST, a.id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *appointmentRepoPG) WithScheduleLock(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.WithAdvisoryLock(ctx, r.pool, scheduleLockKey, fn)
}
