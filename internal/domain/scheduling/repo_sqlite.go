package scheduling

import (
	"context"
	"fmt"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/clinic/scheduler/internal/platform/sqlitedb"
)

type appointmentRepoSQLite struct{ pool *sqlitedb.Pool }

func NewAppointmentRepoSQLite(pool *sqlitedb.Pool) AppointmentRepository {
	return &appointmentRepoSQLite{pool: pool}
}

func scanAppointmentSQLite(stmt *sqlite.Stmt) (*Appointment, error) {
	// Columns follow apptSelect.
	a := &Appointment{
		ID:         stmt.ColumnInt64(0),
		PatientID:  stmt.ColumnInt64(1),
		DoctorName: stmt.ColumnText(2),
		Department: sqlitedb.ColumnText(stmt, 3),
		Notes:      sqlitedb.ColumnText(stmt, 6),
		Status:     Status(stmt.ColumnText(7)),
		VersionID:  stmt.ColumnInt(8),
	}
	var err error
	if a.StartTime, err = sqlitedb.ColumnTime(stmt, 4); err != nil {
		return nil, err
	}
	if a.EndTime, err = sqlitedb.ColumnTime(stmt, 5); err != nil {
		return nil, err
	}
	if a.CreatedAt, err = sqlitedb.ParseTime(stmt.ColumnText(9)); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = sqlitedb.ParseTime(stmt.ColumnText(10)); err != nil {
		return nil, err
	}
	a.Patient = &PatientSummary{ID: a.PatientID, FullName: stmt.ColumnText(11)}
	return a, nil
}

func (r *appointmentRepoSQLite) query(ctx context.Context, sql string, args ...any) ([]*Appointment, error) {
	conn, release, err := r.pool.Conn(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var items []*Appointment
	err = sqlitex.Execute(conn, sql, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			a, err := scanAppointmentSQLite(stmt)
			if err != nil {
				return err
			}
			items = append(items, a)
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *appointmentRepoSQLite) ListScheduled(ctx context.Context) ([]*Appointment, error) {
	items, err := r.query(ctx, apptSelect+` WHERE a.status = ?`, string(StatusScheduled))
	if err != nil {
		return nil, fmt.Errorf("list scheduled: %w", err)
	}
	return items, nil
}

func (r *appointmentRepoSQLite) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	items, err := r.query(ctx, apptSelect+` WHERE a.id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("select appointment %d: %w", id, err)
	}
	if len(items) == 0 {
		return nil, ErrAppointmentNotFound
	}
	return items[0], nil
}

func (r *appointmentRepoSQLite) Create(ctx context.Context, a *Appointment) error {
	conn, release, err := r.pool.Conn(ctx)
	if err != nil {
		return err
	}
	defer release()

	now := time.Now().UTC()
	err = sqlitex.Execute(conn, `
		INSERT INTO appointments (patient_id, doctor_name, department, start_time, end_time, notes,
			status, version_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{
			a.PatientID,
			a.DoctorName,
			sqlitedb.NullableText(a.Department),
			sqlitedb.NullableTime(a.StartTime),
			sqlitedb.NullableTime(a.EndTime),
			sqlitedb.NullableText(a.Notes),
			string(a.Status),
			sqlitedb.FormatTime(now),
			sqlitedb.FormatTime(now),
		}})
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	a.ID = conn.LastInsertRowID()
	a.VersionID = 1
	a.CreatedAt = now
	a.UpdatedAt = now
	return nil
}

func (r *appointmentRepoSQLite) Update(ctx context.Context, a *Appointment) error {
	conn, release, err := r.pool.Conn(ctx)
	if err != nil {
		return err
	}
	defer release()

	now := time.Now().UTC()
	var version int
	found := false
	err = sqlitex.Execute(conn, `
		UPDATE appointments SET patient_id=?, doctor_name=?, department=?, start_time=?, end_time=?,
			notes=?, status=?, version_id=version_id+1, updated_at=?
		WHERE id = ?
		RETURNING version_id`,
		&sqlitex.ExecOptions{
			Args: []any{
				a.PatientID,
				a.DoctorName,
				sqlitedb.NullableText(a.Department),
				sqlitedb.NullableTime(a.StartTime),
				sqlitedb.NullableTime(a.EndTime),
				sqlitedb.NullableText(a.Notes),
				string(a.Status),
				sqlitedb.FormatTime(now),
				a.ID,
			},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				version = stmt.ColumnInt(0)
				found = true
				return nil
			},
		})
	if err != nil {
		return fmt.Errorf("update appointment %d: %w", a.ID, err)
	}
	if !found {
		return ErrAppointmentNotFound
	}
	a.VersionID = version
	a.UpdatedAt = now
	return nil
}

func (r *appointmentRepoSQLite) Delete(ctx context.Context, id int64) error {
	conn, release, err := r.pool.Conn(ctx)
	if err != nil {
		return err
	}
	defer release()

	if err := sqlitex.Execute(conn, `DELETE FROM appointments WHERE id = ?`, &sqlitex.ExecOptions{
		Args: []any{id},
	}); err != nil {
		return fmt.Errorf("delete appointment %d: %w", id, err)
	}
	if conn.Changes() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *appointmentRepoSQLite) List(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	conn, release, err := r.pool.Conn(ctx)
	if err != nil {
		return nil, 0, err
	}
	var total int
	err = sqlitex.Execute(conn, `SELECT COUNT(*) FROM appointments`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			total = stmt.ColumnInt(0)
			return nil
		},
	})
	release()
	if err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	items, err := r.query(ctx, apptSelect+` ORDER BY a.start_time IS NULL, a.start_time, a.id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}
	return items, total, nil
}

// WithScheduleLock runs fn in a BEGIN IMMEDIATE transaction; SQLite allows
// a single such writer at a time.
func (r *appointmentRepoSQLite) WithScheduleLock(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.pool.WithImmediateTx(ctx, fn)
}
