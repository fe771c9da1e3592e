package sqlitedb

import (
	"context"
	"fmt"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

type contextKey string

const connKey contextKey = "sqlite_conn"

// ConnFromContext returns the connection of the transaction opened by
// WithImmediateTx, or nil.
func ConnFromContext(ctx context.Context) *sqlite.Conn {
	conn, _ := ctx.Value(connKey).(*sqlite.Conn)
	return conn
}

// WithImmediateTx runs fn inside a BEGIN IMMEDIATE transaction. SQLite
// admits one such writer at a time, so fn observes and writes a
// consistent database. The transaction commits when fn returns nil.
// Nested calls join the outer transaction.
func (p *Pool) WithImmediateTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ConnFromContext(ctx) != nil {
		return fn(ctx)
	}

	conn, err := p.Take(ctx)
	if err != nil {
		return err
	}
	defer p.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("sqlitedb: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	return fn(context.WithValue(ctx, connKey, conn))
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatTime encodes t in UTC for a TEXT column.
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// NullableTime encodes t, or nil for SQL NULL.
func NullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return FormatTime(*t)
}

// NullableText returns s, or nil for SQL NULL.
func NullableText(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// ParseTime decodes a TEXT column written by FormatTime.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("sqlitedb: parse time %q: %w", s, err)
		}
	}
	return t.UTC(), nil
}

// ColumnTime reads a nullable timestamp column.
func ColumnTime(stmt *sqlite.Stmt, col int) (*time.Time, error) {
	if stmt.ColumnIsNull(col) {
		return nil, nil
	}
	t, err := ParseTime(stmt.ColumnText(col))
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ColumnText reads a nullable text column.
func ColumnText(stmt *sqlite.Stmt, col int) *string {
	if stmt.ColumnIsNull(col) {
		return nil
	}
	s := stmt.ColumnText(col)
	return &s
}
