package web

import (
	"time"

	"github.com/memodeck/memodeck/internal/domain"
)

type deckResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type cardResponse struct {
	ID           int64      `json:"id"`
	DeckID       int64      `json:"deck_id"`
	Front        string     `json:"front"`
	Back         string     `json:"back"`
	Repetitions  int        `json:"repetitions"`
	EaseFactor   float64    `json:"ease_factor"`
	IntervalDays int        `json:"interval"`
	Due          *time.Time `json:"due_date,omitempty"`
	Finished     bool       `json:"finished"`
}

type reviewResponse struct {
	Repetitions  int       `json:"repetitions"`
	EaseFactor   float64   `json:"ease_factor"`
	IntervalDays int       `json:"interval"`
	Due          time.Time `json:"due_date"`
}

type importResponse struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	ImportedCards int    `json:"imported_cards"`
	SkippedCards  int    `json:"skipped_cards"`
}

func deckListResponse(decks []domain.Deck) []deckResponse {
	out := make([]deckResponse, 0, len(decks))
	for _, d := range decks {
		out = append(out, deckResponse{ID: d.ID, Name: d.Name})
	}
	return out
}

func cardListResponse(cards []domain.Card) []cardResponse {
	out := make([]cardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, cardResponse{
			ID:           c.ID,
			DeckID:       c.DeckID,
			Front:        c.Front,
			Back:         c.Back,
			Repetitions:  c.Repetitions,
			EaseFactor:   c.EaseFactor,
			IntervalDays: c.IntervalDays,
			Due:          c.Due,
			Finished:     c.Finished(),
		})
	}
	return out
}
