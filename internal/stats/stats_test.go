package stats

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memodeck/memodeck/internal/domain"
	"github.com/memodeck/memodeck/internal/storage"
)

func openTestPartition(t *testing.T) *storage.Partition {
	t.Helper()
	p, err := storage.Open(filepath.Join(t.TempDir(), "stats_decks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestForDeckCountsFinishedAtThreshold(t *testing.T) {
	p := openTestPartition(t)
	decks := storage.NewDeckStore(p)
	cards := storage.NewCardStore(p, nil)

	deckID, err := decks.Create("Spanish")
	require.NoError(t, err)

	due := time.Now()
	for _, interval := range []int{1, 20, 21, 100} {
		id, err := cards.Add(deckID, "q", "a")
		require.NoError(t, err)
		require.NoError(t, cards.ApplyReview(id, domain.ReviewState{
			Repetitions: 1, EaseFactor: 2.5, IntervalDays: interval, Due: &due,
		}))
	}

	s, err := ForDeck(p, deckID)
	require.NoError(t, err)
	assert.Equal(t, 4, s.TotalCards)
	assert.Equal(t, 2, s.FinishedCards, "interval >= 21 counts as finished; 20 does not")
}

func TestForDeckUnknownDeck(t *testing.T) {
	p := openTestPartition(t)
	_, err := ForDeck(p, 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestForDeckEmptyDeck(t *testing.T) {
	p := openTestPartition(t)
	deckID, err := storage.NewDeckStore(p).Create("Empty")
	require.NoError(t, err)

	s, err := ForDeck(p, deckID)
	require.NoError(t, err)
	assert.Zero(t, s.TotalCards)
	assert.Zero(t, s.FinishedCards)
}

func TestGlobalCountsAcrossDecks(t *testing.T) {
	p := openTestPartition(t)
	decks := storage.NewDeckStore(p)
	cards := storage.NewCardStore(p, nil)

	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	spanish, err := decks.Create("Spanish")
	require.NoError(t, err)
	anatomy, err := decks.Create("Anatomy")
	require.NoError(t, err)

	// Never reviewed: due immediately.
	_, err = cards.Add(spanish, "q1", "a1")
	require.NoError(t, err)

	// Overdue and finished.
	id, err := cards.Add(spanish, "q2", "a2")
	require.NoError(t, err)
	require.NoError(t, cards.ApplyReview(id, domain.ReviewState{
		Repetitions: 9, EaseFactor: 2.5, IntervalDays: 30, Due: &past,
	}))

	// Scheduled in the future: not due.
	id, err = cards.Add(anatomy, "q3", "a3")
	require.NoError(t, err)
	require.NoError(t, cards.ApplyReview(id, domain.ReviewState{
		Repetitions: 1, EaseFactor: 2.5, IntervalDays: 1, Due: &future,
	}))

	s, err := Global(p, now)
	require.NoError(t, err)
	assert.Equal(t, 2, s.TotalDecks)
	assert.Equal(t, 3, s.TotalCards)
	assert.Equal(t, 1, s.FinishedCards)
	assert.Equal(t, 2, s.DueToday, "null due plus past due count, future does not")
}

func TestGlobalOnEmptyPartition(t *testing.T) {
	p := openTestPartition(t)

	s, err := Global(p, time.Now())
	require.NoError(t, err)
	assert.Zero(t, s.TotalDecks)
	assert.Zero(t, s.TotalCards)
	assert.Zero(t, s.FinishedCards)
	assert.Zero(t, s.DueToday)
}
