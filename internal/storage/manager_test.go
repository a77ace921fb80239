package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memodeck/memodeck/internal/domain"
)

func TestManagerCreatesPartitionLazily(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)
	defer m.Close()

	dbPath := filepath.Join(dir, "alice_decks.db")
	_, err := os.Stat(dbPath)
	require.True(t, os.IsNotExist(err), "no partition file before first access")

	p, err := m.PartitionFor("alice")
	require.NoError(t, err)
	require.NotNil(t, p)

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "partition file created on first access")
}

func TestManagerIsIdempotent(t *testing.T) {
	m := NewManager(t.TempDir())
	defer m.Close()

	first, err := m.PartitionFor("alice")
	require.NoError(t, err)
	second, err := m.PartitionFor("alice")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestManagerIsolatesUsers(t *testing.T) {
	m := NewManager(t.TempDir())
	defer m.Close()

	alice, err := m.PartitionFor("alice")
	require.NoError(t, err)
	bob, err := m.PartitionFor("bob")
	require.NoError(t, err)

	_, err = NewDeckStore(alice).Create("Spanish")
	require.NoError(t, err)

	bobDecks, err := NewDeckStore(bob).List()
	require.NoError(t, err)
	assert.Empty(t, bobDecks, "one user's decks must not leak into another's partition")

	// Same name in another partition is not a duplicate.
	_, err = NewDeckStore(bob).Create("Spanish")
	assert.NoError(t, err)
}

func TestManagerRejectsUnsafeUsernames(t *testing.T) {
	m := NewManager(t.TempDir())
	defer m.Close()

	for _, name := range []string{"", "../evil", `a\b`, ".hidden", " padded "} {
		_, err := m.PartitionFor(name)
		assert.ErrorIs(t, err, domain.ErrValidation, "username %q", name)
	}
}
