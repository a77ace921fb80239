// Package stats derives read-only counters from a partition. Nothing here
// mutates state, so it is safe to call while a review session runs.
package stats

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/memodeck/memodeck/internal/domain"
	"github.com/memodeck/memodeck/internal/storage"
)

// DeckStats are the counters for a single deck.
type DeckStats struct {
	TotalCards    int `json:"total_cards"`
	FinishedCards int `json:"finished_cards"`
}

// GlobalStats are the counters across a whole partition.
type GlobalStats struct {
	TotalDecks    int `json:"total_decks"`
	TotalCards    int `json:"total_cards"`
	FinishedCards int `json:"finished_cards"`
	DueToday      int `json:"due_today"`
}

// ForDeck counts a deck's cards and how many have matured past the
// finished threshold.
func ForDeck(p *storage.Partition, deckID int64) (DeckStats, error) {
	var s DeckStats

	// Distinguishes an unknown deck from an empty one.
	var one int
	err := p.DB().QueryRow(`SELECT 1 FROM decks WHERE id = ?`, deckID).Scan(&one)
	if err == sql.ErrNoRows {
		return s, fmt.Errorf("deck %d: %w", deckID, domain.ErrNotFound)
	}
	if err != nil {
		return s, fmt.Errorf("check deck: %w: %v", domain.ErrStorageUnavailable, err)
	}

	err = p.DB().QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(interval >= ?), 0)
		FROM cards WHERE deck_id = ?
	`, domain.FinishedIntervalDays, deckID).Scan(&s.TotalCards, &s.FinishedCards)
	if err != nil {
		return s, fmt.Errorf("deck counters: %w: %v", domain.ErrStorageUnavailable, err)
	}
	return s, nil
}

// Global counts decks, cards, finished cards and the cards due at the
// given instant across the partition.
func Global(p *storage.Partition, now time.Time) (GlobalStats, error) {
	var s GlobalStats

	if err := p.DB().QueryRow(`SELECT COUNT(*) FROM decks`).Scan(&s.TotalDecks); err != nil {
		return s, fmt.Errorf("deck count: %w: %v", domain.ErrStorageUnavailable, err)
	}

	err := p.DB().QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(interval >= ?), 0),
		       COALESCE(SUM(due_date IS NULL OR due_date <= ?), 0)
		FROM cards
	`, domain.FinishedIntervalDays, now.UTC()).Scan(&s.TotalCards, &s.FinishedCards, &s.DueToday)
	if err != nil {
		return s, fmt.Errorf("card counters: %w: %v", domain.ErrStorageUnavailable, err)
	}
	return s, nil
}
