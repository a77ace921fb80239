package auth

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/memodeck/memodeck/internal/domain"
)

func openTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := Open(filepath.Join(t.TempDir(), "users.db"), bcrypt.MinCost)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRegisterAndAuthenticate(t *testing.T) {
	r := openTestRegistry(t)

	require.NoError(t, r.Register("alice", "correct horse battery staple"))
	assert.NoError(t, r.Authenticate("alice", "correct horse battery staple"))
}

func TestAuthenticateWrongPassword(t *testing.T) {
	r := openTestRegistry(t)

	require.NoError(t, r.Register("alice", "right"))
	assert.ErrorIs(t, r.Authenticate("alice", "wrong"), ErrBadCredentials)
}

func TestAuthenticateUnknownUser(t *testing.T) {
	r := openTestRegistry(t)
	assert.ErrorIs(t, r.Authenticate("nobody", "whatever"), ErrBadCredentials)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	r := openTestRegistry(t)

	require.NoError(t, r.Register("alice", "one"))
	assert.ErrorIs(t, r.Register("alice", "two"), domain.ErrDuplicateName)
}

func TestRegisterRejectsEmptyFields(t *testing.T) {
	r := openTestRegistry(t)

	assert.ErrorIs(t, r.Register("", "secret"), domain.ErrValidation)
	assert.ErrorIs(t, r.Register("   ", "secret"), domain.ErrValidation)
	assert.ErrorIs(t, r.Register("alice", ""), domain.ErrValidation)
}

// The registry must never keep the plaintext secret.
func TestPasswordStoredHashed(t *testing.T) {
	r := openTestRegistry(t)
	require.NoError(t, r.Register("alice", "topsecret"))

	var hash string
	require.NoError(t, r.conn.QueryRow(
		`SELECT password_hash FROM users WHERE username = ?`, "alice").Scan(&hash))
	assert.NotContains(t, hash, "topsecret")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("topsecret")))
}
