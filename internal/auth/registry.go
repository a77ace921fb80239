// Package auth keeps the user registry: usernames and bcrypt credential
// hashes in their own sqlite database, separate from the per-user deck
// partitions.
package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	sqlite "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"

	"github.com/memodeck/memodeck/internal/domain"
)

const userSchema = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL
);
`

// ErrBadCredentials is returned for an unknown username or a wrong
// password. Deliberately one value for both, so authentication failures do
// not reveal which usernames exist.
var ErrBadCredentials = errors.New("invalid username or password")

// Registry stores users and verifies their credentials.
type Registry struct {
	conn *sql.DB
	cost int
}

// Open creates the registry database at path, applying the schema if
// needed. cost is the bcrypt work factor; pass 0 for the bcrypt default.
func Open(path string, cost int) (*Registry, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: open user registry: %v", domain.ErrStorageUnavailable, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: connect user registry: %v", domain.ErrStorageUnavailable, err)
	}
	if _, err := db.Exec(userSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: apply user schema: %v", domain.ErrStorageUnavailable, err)
	}

	return &Registry{conn: db, cost: cost}, nil
}

// Close closes the registry database.
func (r *Registry) Close() error {
	return r.conn.Close()
}

// Register creates a new user. The username must be non-empty and not yet
// taken; the password is stored only as a bcrypt hash.
func (r *Registry) Register(username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("%w: username is empty", domain.ErrValidation)
	}
	if password == "" {
		return fmt.Errorf("%w: password is empty", domain.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	_, err = r.conn.Exec(`INSERT INTO users (username, password_hash) VALUES (?, ?)`,
		username, string(hash))
	if isUniqueViolation(err) {
		return fmt.Errorf("user %q: %w", username, domain.ErrDuplicateName)
	}
	if err != nil {
		return fmt.Errorf("%w: register user: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// Authenticate verifies a username/password pair. Unknown users and wrong
// passwords both return ErrBadCredentials.
func (r *Registry) Authenticate(username, password string) error {
	var hash string
	err := r.conn.QueryRow(`SELECT password_hash FROM users WHERE username = ?`,
		strings.TrimSpace(username)).Scan(&hash)
	if err == sql.ErrNoRows {
		return ErrBadCredentials
	}
	if err != nil {
		return fmt.Errorf("%w: look up user: %v", domain.ErrStorageUnavailable, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return ErrBadCredentials
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	return errors.As(err, &se) && se.Code() == sqlitelib.SQLITE_CONSTRAINT_UNIQUE
}
