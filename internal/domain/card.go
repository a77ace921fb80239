package domain

import "time"

// FinishedIntervalDays is the interval at which a card counts as learned.
const FinishedIntervalDays = 21

// Deck groups cards inside one user's partition. Names are unique per
// partition.
type Deck struct {
	ID   int64
	Name string
}

// Card is a single front/back flashcard together with its scheduling state.
type Card struct {
	ID     int64
	DeckID int64
	Front  string
	Back   string
	ReviewState
}

// ReviewState holds the SM-2 scheduling fields of a card.
// A nil Due means the card has never been reviewed and is due immediately.
type ReviewState struct {
	Repetitions  int
	EaseFactor   float64
	IntervalDays int
	Due          *time.Time
}

// DefaultReviewState is the state of a freshly added card.
func DefaultReviewState() ReviewState {
	return ReviewState{
		Repetitions:  0,
		EaseFactor:   2.5,
		IntervalDays: 1,
		Due:          nil,
	}
}

// Finished reports whether the card has reached the maturity threshold.
func (s ReviewState) Finished() bool {
	return s.IntervalDays >= FinishedIntervalDays
}

// DueAt reports whether the card is due at the given instant.
func (s ReviewState) DueAt(t time.Time) bool {
	return s.Due == nil || !s.Due.After(t)
}
