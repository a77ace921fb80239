// Package storage persists decks and cards. Each user owns one Partition,
// a standalone sqlite file holding the decks and cards relations; stores
// wrap a partition and translate driver failures into the domain error
// taxonomy.
package storage

import (
	"database/sql"
	"errors"
	"fmt"

	sqlite "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"

	"github.com/memodeck/memodeck/internal/domain"
)

// Partition is one user's isolated storage unit.
type Partition struct {
	conn *sql.DB
}

// Open creates a new partition connection and ensures the schema is up to
// date. Cascade deletes depend on the foreign_keys pragma, so it is set in
// the DSN rather than left to callers.
func Open(path string) (*Partition, error) {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrStorageUnavailable, path, err)
	}

	// One interactive session per user is the assumed usage; a single
	// connection serialises writers and keeps every operation's
	// transaction trivially isolated.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: connect %s: %v", domain.ErrStorageUnavailable, path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: apply schema: %v", domain.ErrStorageUnavailable, err)
	}

	return &Partition{conn: db}, nil
}

// Close closes the partition's connection.
func (p *Partition) Close() error {
	return p.conn.Close()
}

// DB exposes the underlying connection for read-only aggregation queries.
func (p *Partition) DB() *sql.DB {
	return p.conn
}

// isUniqueViolation reports whether err is a sqlite UNIQUE constraint
// failure, which is how duplicate deck names surface.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlitelib.SQLITE_CONSTRAINT_UNIQUE
}

// isForeignKeyViolation reports whether err is a sqlite FK constraint
// failure, which is how inserts against an unknown deck surface.
func isForeignKeyViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlitelib.SQLITE_CONSTRAINT_FOREIGNKEY
}

// storageErr wraps an unexpected driver error as a storage-unavailable
// condition so callers never see raw driver errors.
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, domain.ErrStorageUnavailable, err)
}
