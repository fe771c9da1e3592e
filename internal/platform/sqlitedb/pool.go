// Package sqlitedb is the embedded SQLite storage backend. It wraps a
// zombiezen sqlitex pool with the pragmas the clinic schema relies on and
// carries the connection of an open write transaction in the context, so
// repository calls made inside it share the transaction.
package sqlitedb

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// DefaultPoolSize is used when Config.PoolSize is not positive. Writers
// are serialized by SQLite itself, so a few connections cover the reads
// that run alongside them.
const DefaultPoolSize = 4

// connPragmas run one by one on every new connection, outside any
// transaction: journal_mode and foreign_keys are ignored inside one.
// foreign_keys makes appointments cascade on patient delete.
var connPragmas = [...]string{
	"journal_mode = WAL",
	"synchronous = NORMAL",
	"busy_timeout = 5000",
	"foreign_keys = ON",
	"temp_store = MEMORY",
}

// Config locates the database file, created when missing. OnConnect runs
// once per connection after connPragmas.
type Config struct {
	Path      string
	PoolSize  int
	Logger    zerolog.Logger
	OnConnect func(conn *sqlite.Conn) error
}

type Pool struct {
	conns  *sqlitex.Pool
	path   string
	logger zerolog.Logger
}

func Open(cfg Config) (*Pool, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlitedb: empty database path")
	}
	size := cfg.PoolSize
	if size <= 0 {
		size = DefaultPoolSize
	}

	onConnect := cfg.OnConnect
	conns, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize: size,
		PrepareConn: func(conn *sqlite.Conn) error {
			for _, pragma := range connPragmas {
				if err := sqlitex.ExecuteTransient(conn, "PRAGMA "+pragma, nil); err != nil {
					return fmt.Errorf("sqlitedb: pragma %s: %w", pragma, err)
				}
			}
			if onConnect == nil {
				return nil
			}
			if err := onConnect(conn); err != nil {
				return fmt.Errorf("sqlitedb: prepare connection: %w", err)
			}
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sqlitedb: open %s: %w", cfg.Path, err)
	}

	logger := cfg.Logger.With().Str("component", "sqlite").Str("path", cfg.Path).Logger()
	logger.Info().Int("pool_size", size).Msg("database opened")
	return &Pool{conns: conns, path: cfg.Path, logger: logger}, nil
}

// Take waits for a free connection until ctx is done.
func (p *Pool) Take(ctx context.Context) (*sqlite.Conn, error) {
	conn, err := p.conns.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlitedb: acquire connection: %w", err)
	}
	return conn, nil
}

func (p *Pool) Put(conn *sqlite.Conn) { p.conns.Put(conn) }

// Conn returns the transaction connection carried by ctx, or borrows one
// from the pool. release must always be called.
func (p *Pool) Conn(ctx context.Context) (conn *sqlite.Conn, release func(), err error) {
	if conn := ConnFromContext(ctx); conn != nil {
		return conn, func() {}, nil
	}
	conn, err = p.Take(ctx)
	if err != nil {
		return nil, nil, err
	}
	return conn, func() { p.Put(conn) }, nil
}

func (p *Pool) Ping(ctx context.Context) error {
	conn, release, err := p.Conn(ctx)
	if err != nil {
		return err
	}
	defer release()
	if err := sqlitex.ExecuteTransient(conn, "SELECT 1", nil); err != nil {
		return fmt.Errorf("sqlitedb: ping: %w", err)
	}
	return nil
}

// Close waits for borrowed connections to come back, then closes them.
func (p *Pool) Close() error {
	if err := p.conns.Close(); err != nil {
		p.logger.Error().Err(err).Msg("database close failed")
		return fmt.Errorf("sqlitedb: close %s: %w", p.path, err)
	}
	p.logger.Info().Msg("database closed")
	return nil
}

// ApplySchema returns an OnConnect hook executing script.
func ApplySchema(script string) func(*sqlite.Conn) error {
	return func(conn *sqlite.Conn) error {
		return sqlitex.ExecuteScript(conn, script, nil)
	}
}
