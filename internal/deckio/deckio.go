// Package deckio translates between stored decks and the portable JSON
// deck format: an object with a deck_name and an ordered cards array.
//
// Structural problems (bad JSON, missing or blank deck_name) fail the
// whole parse. Individual malformed card entries are skipped, not fatal,
// so one bad card does not lose a deck.
package deckio

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/memodeck/memodeck/internal/domain"
)

var validate = validator.New()

// DeckFile is the wire form of an exported deck. Unknown extra fields in
// the JSON are ignored; a missing cards array means an empty deck.
type DeckFile struct {
	DeckName string      `json:"deck_name" validate:"required"`
	Cards    []CardEntry `json:"cards,omitempty"`
}

// CardEntry is one card in a deck file. Front and back are required but
// may be empty strings; the scheduling fields are optional and fall back
// to the card defaults. Pointers distinguish absent from zero.
type CardEntry struct {
	Front       *string  `json:"front" validate:"required"`
	Back        *string  `json:"back" validate:"required"`
	DueDate     *string  `json:"due_date,omitempty"`
	Interval    *int     `json:"interval,omitempty" validate:"omitempty,min=1"`
	EaseFactor  *float64 `json:"ease_factor,omitempty" validate:"omitempty,min=1.3"`
	Repetitions *int     `json:"repetitions,omitempty" validate:"omitempty,min=0"`
}

// dueLayouts are the accepted due_date formats, RFC 3339 plus the plain
// forms older exports used.
var dueLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// Parse decodes and validates a deck file. The returned name is trimmed.
func Parse(data []byte) (*DeckFile, error) {
	var f DeckFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: decode deck file: %v", domain.ErrValidation, err)
	}

	f.DeckName = strings.TrimSpace(f.DeckName)
	if err := validate.Struct(&f); err != nil || f.DeckName == "" {
		return nil, fmt.Errorf("%w: deck file must carry a non-empty deck_name", domain.ErrValidation)
	}

	return &f, nil
}

// BuildCards converts the file's entries into cards ready to persist,
// applying defaults for absent scheduling fields. Entries that fail
// validation are dropped; the count of dropped entries is returned so
// callers can report it.
func (f *DeckFile) BuildCards() ([]domain.Card, int) {
	cards := make([]domain.Card, 0, len(f.Cards))
	skipped := 0

	for _, e := range f.Cards {
		c, ok := e.toCard()
		if !ok {
			skipped++
			continue
		}
		cards = append(cards, c)
	}
	return cards, skipped
}

func (e CardEntry) toCard() (domain.Card, bool) {
	if err := validate.Struct(e); err != nil {
		return domain.Card{}, false
	}

	c := domain.Card{
		Front:       *e.Front,
		Back:        *e.Back,
		ReviewState: domain.DefaultReviewState(),
	}
	if e.Interval != nil {
		c.IntervalDays = *e.Interval
	}
	if e.EaseFactor != nil {
		c.EaseFactor = *e.EaseFactor
	}
	if e.Repetitions != nil {
		c.Repetitions = *e.Repetitions
	}
	if e.DueDate != nil {
		due, err := parseDue(*e.DueDate)
		if err != nil {
			return domain.Card{}, false
		}
		c.Due = &due
	}
	return c, true
}

// Export renders a deck and its cards as an indented deck file. Only the
// card text goes out; scheduling state is private to the partition and
// resets on import.
func Export(name string, cards []domain.Card) ([]byte, error) {
	f := DeckFile{DeckName: name, Cards: make([]CardEntry, 0, len(cards))}
	for i := range cards {
		front, back := cards[i].Front, cards[i].Back
		f.Cards = append(f.Cards, CardEntry{Front: &front, Back: &back})
	}

	data, err := json.MarshalIndent(&f, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode deck file: %w", err)
	}
	return data, nil
}

func parseDue(s string) (time.Time, error) {
	for _, layout := range dueLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognised due_date %q", domain.ErrValidation, s)
}
