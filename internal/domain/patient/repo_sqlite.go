package patient

import (
	"context"
	"fmt"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/clinic/scheduler/internal/platform/sqlitedb"
)

type repoSQLite struct{ pool *sqlitedb.Pool }

func NewRepoSQLite(pool *sqlitedb.Pool) Repository { return &repoSQLite{pool: pool} }

func scanPatientSQLite(stmt *sqlite.Stmt) (*Patient, error) {
	p := &Patient{
		ID:        stmt.ColumnInt64(0),
		FullName:  stmt.ColumnText(1),
		FirstName: sqlitedb.ColumnText(stmt, 2),
		LastName:  sqlitedb.ColumnText(stmt, 3),
		Email:     sqlitedb.ColumnText(stmt, 4),
		Phone:     sqlitedb.ColumnText(stmt, 5),
	}
	var err error
	if p.CreatedAt, err = sqlitedb.ParseTime(stmt.ColumnText(6)); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = sqlitedb.ParseTime(stmt.ColumnText(7)); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repoSQLite) Create(ctx context.Context, p *Patient) error {
	conn, release, err := r.pool.Conn(ctx)
	if err != nil {
		return err
	}
	defer release()

	now := time.Now().UTC()
	err = sqlitex.Execute(conn, `
		INSERT INTO patients (full_name, first_name, last_name, email, phone, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{
			p.FullName,
			sqlitedb.NullableText(p.FirstName),
			sqlitedb.NullableText(p.LastName),
			sqlitedb.NullableText(p.Email),
			sqlitedb.NullableText(p.Phone),
			sqlitedb.FormatTime(now),
			sqlitedb.FormatTime(now),
		}})
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	p.ID = conn.LastInsertRowID()
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

func (r *repoSQLite) GetByID(ctx context.Context, id int64) (*Patient, error) {
	conn, release, err := r.pool.Conn(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var found *Patient
	err = sqlitex.Execute(conn, `SELECT `+patientCols+` FROM patients WHERE id = ?`, &sqlitex.ExecOptions{
		Args: []any{id},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			p, err := scanPatientSQLite(stmt)
			found = p
			return err
		},
	})
	if err != nil {
		return nil, fmt.Errorf("select patient %d: %w", id, err)
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func (r *repoSQLite) Update(ctx context.Context, p *Patient) error {
	conn, release, err := r.pool.Conn(ctx)
	if err != nil {
		return err
	}
	defer release()

	now := time.Now().UTC()
	err = sqlitex.Execute(conn, `
		UPDATE patients SET full_name=?, first_name=?, last_name=?, email=?, phone=?, updated_at=?
		WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []any{
			p.FullName,
			sqlitedb.NullableText(p.FirstName),
			sqlitedb.NullableText(p.LastName),
			sqlitedb.NullableText(p.Email),
			sqlitedb.NullableText(p.Phone),
			sqlitedb.FormatTime(now),
			p.ID,
		}})
	if err != nil {
		return fmt.Errorf("update patient %d: %w", p.ID, err)
	}
	if conn.Changes() == 0 {
		return ErrNotFound
	}
	p.UpdatedAt = now
	return nil
}

func (r *repoSQLite) Delete(ctx context.Context, id int64) error {
	conn, release, err := r.pool.Conn(ctx)
	if err != nil {
		return err
	}
	defer release()

	if err := sqlitex.Execute(conn, `DELETE FROM patients WHERE id = ?`, &sqlitex.ExecOptions{
		Args: []any{id},
	}); err != nil {
		return fmt.Errorf("delete patient %d: %w", id, err)
	}
	if conn.Changes() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoSQLite) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	conn, release, err := r.pool.Conn(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer release()

	var total int
	err = sqlitex.Execute(conn, `SELECT COUNT(*) FROM patients`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			total = stmt.ColumnInt(0)
			return nil
		},
	})
	if err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}

	var items []*Patient
	err = sqlitex.Execute(conn, `SELECT `+patientCols+` FROM patients ORDER BY id LIMIT ? OFFSET ?`, &sqlitex.ExecOptions{
		Args: []any{limit, offset},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			p, err := scanPatientSQLite(stmt)
			if err != nil {
				return err
			}
			items = append(items, p)
			return nil
		},
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list patients: %w", err)
	}
	return items, total, nil
}
