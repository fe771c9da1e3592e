// Package migrations bundles the database schema into the binary.
package migrations

import "embed"

// FS holds the numbered PostgreSQL migrations applied by `migrate up`.
//
//go:embed *.sql
var FS embed.FS

// SQLiteSchema is applied to every SQLite connection when it opens.
// Statements are idempotent.
//
//go:embed sqlite/schema.sql
var SQLiteSchema string
