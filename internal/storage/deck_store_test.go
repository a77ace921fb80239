package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memodeck/memodeck/internal/domain"
)

func openTestPartition(t *testing.T) *Partition {
	t.Helper()
	p, err := Open(filepath.Join(t.TempDir(), "test_decks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestDeckStoreCreateAndList(t *testing.T) {
	decks := NewDeckStore(openTestPartition(t))

	_, err := decks.Create("Spanish")
	require.NoError(t, err)
	_, err = decks.Create("Anatomy")
	require.NoError(t, err)

	all, err := decks.List()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Anatomy", all[0].Name, "list should be ordered by name")
	assert.Equal(t, "Spanish", all[1].Name)
}

func TestDeckStoreCreateTrimsName(t *testing.T) {
	decks := NewDeckStore(openTestPartition(t))

	id, err := decks.Create("  Spanish  ")
	require.NoError(t, err)

	d, err := decks.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "Spanish", d.Name)
}

func TestDeckStoreCreateEmptyName(t *testing.T) {
	decks := NewDeckStore(openTestPartition(t))

	_, err := decks.Create("   ")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDeckStoreDuplicateName(t *testing.T) {
	decks := NewDeckStore(openTestPartition(t))

	_, err := decks.Create("Spanish")
	require.NoError(t, err)

	_, err = decks.Create("Spanish")
	assert.ErrorIs(t, err, domain.ErrDuplicateName)

	all, err := decks.List()
	require.NoError(t, err)
	assert.Len(t, all, 1, "exactly one deck named Spanish should exist")
}

func TestDeckStoreGetNotFound(t *testing.T) {
	decks := NewDeckStore(openTestPartition(t))

	_, err := decks.Get(99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeckStoreRename(t *testing.T) {
	p := openTestPartition(t)
	decks := NewDeckStore(p)

	id, err := decks.Create("Spansh")
	require.NoError(t, err)
	_, err = decks.Create("Anatomy")
	require.NoError(t, err)

	require.NoError(t, decks.Rename(id, "Spanish"))

	d, err := decks.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "Spanish", d.Name)

	assert.ErrorIs(t, decks.Rename(id, "Anatomy"), domain.ErrDuplicateName)
	assert.ErrorIs(t, decks.Rename(99, "Whatever"), domain.ErrNotFound)
}

func TestDeckStoreDeleteCascades(t *testing.T) {
	p := openTestPartition(t)
	decks := NewDeckStore(p)
	cards := NewCardStore(p, nil)

	deckID, err := decks.Create("Spanish")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := cards.Add(deckID, "hola", "hello")
		require.NoError(t, err)
	}

	require.NoError(t, decks.Delete(deckID))

	_, err = cards.List(deckID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "cards of a deleted deck should be gone with it")

	var count int
	require.NoError(t, p.DB().QueryRow(`SELECT COUNT(*) FROM cards`).Scan(&count))
	assert.Zero(t, count, "cascade should leave no orphan cards")
}

func TestDeckStoreDeleteNotFound(t *testing.T) {
	decks := NewDeckStore(openTestPartition(t))
	assert.ErrorIs(t, decks.Delete(7), domain.ErrNotFound)
}

func TestDeckStoreImportAtomicOnDuplicate(t *testing.T) {
	p := openTestPartition(t)
	decks := NewDeckStore(p)

	_, err := decks.Create("Spanish")
	require.NoError(t, err)

	_, err = decks.Import("Spanish", []domain.Card{
		{Front: "hola", Back: "hello", ReviewState: domain.DefaultReviewState()},
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateName)

	var count int
	require.NoError(t, p.DB().QueryRow(`SELECT COUNT(*) FROM cards`).Scan(&count))
	assert.Zero(t, count, "a failed import must persist nothing")
}

func TestDeckStoreImportPersistsState(t *testing.T) {
	p := openTestPartition(t)
	decks := NewDeckStore(p)
	cardStore := NewCardStore(p, nil)

	state := domain.ReviewState{Repetitions: 3, EaseFactor: 2.1, IntervalDays: 12}
	deckID, err := decks.Import("Spanish", []domain.Card{
		{Front: "hola", Back: "hello", ReviewState: state},
		{Front: "adios", Back: "goodbye", ReviewState: domain.DefaultReviewState()},
	})
	require.NoError(t, err)

	got, err := cardStore.List(deckID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "hola", got[0].Front)
	assert.Equal(t, 3, got[0].Repetitions)
	assert.Equal(t, 12, got[0].IntervalDays)
	assert.InDelta(t, 2.1, got[0].EaseFactor, 0.0001)
	assert.Nil(t, got[0].Due)
	assert.Equal(t, domain.DefaultReviewState(), got[1].ReviewState)
}
