package storage

import (
	"database/sql"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/memodeck/memodeck/internal/domain"
)

// CardStore owns the card records of one partition.
//
// The random source drives the tie-break among cards sharing a due date.
// It is injected so tests can seed it; pass nil for a time-seeded default.
type CardStore struct {
	p *Partition

	mu  sync.Mutex
	rng *rand.Rand
}

// NewCardStore creates a card store over the given partition.
func NewCardStore(p *Partition, rng *rand.Rand) *CardStore {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &CardStore{p: p, rng: rng}
}

const cardColumns = `id, deck_id, front, back, due_date, interval, ease_factor, repetitions`

// List returns a deck's cards in insertion order. Listing an unknown deck
// is a not-found condition, not an empty result.
func (s *CardStore) List(deckID int64) ([]domain.Card, error) {
	if err := s.deckExists(deckID); err != nil {
		return nil, err
	}

	rows, err := s.p.conn.Query(`
		SELECT `+cardColumns+`
		FROM cards WHERE deck_id = ? ORDER BY id ASC
	`, deckID)
	if err != nil {
		return nil, storageErr("list cards", err)
	}
	defer rows.Close()

	return scanCards(rows)
}

// Get returns a single card by id.
func (s *CardStore) Get(cardID int64) (domain.Card, error) {
	row := s.p.conn.QueryRow(`SELECT `+cardColumns+` FROM cards WHERE id = ?`, cardID)
	c, err := scanCard(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Card{}, fmt.Errorf("card %d: %w", cardID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Card{}, storageErr("get card", err)
	}
	return c, nil
}

// Add inserts a card with the default review state and returns its id.
// Adding to an unknown deck fails the FK constraint and reports not-found.
func (s *CardStore) Add(deckID int64, front, back string) (int64, error) {
	res, err := s.p.conn.Exec(`
		INSERT INTO cards (deck_id, front, back) VALUES (?, ?, ?)
	`, deckID, front, back)
	if isForeignKeyViolation(err) {
		return 0, fmt.Errorf("deck %d: %w", deckID, domain.ErrNotFound)
	}
	if err != nil {
		return 0, storageErr("add card", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("add card id", err)
	}
	return id, nil
}

// UpdateContent replaces a card's front and back text. The review state is
// untouched.
func (s *CardStore) UpdateContent(cardID int64, front, back string) error {
	res, err := s.p.conn.Exec(`
		UPDATE cards SET front = ?, back = ? WHERE id = ?
	`, front, back, cardID)
	if err != nil {
		return storageErr("update card content", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("card %d: %w", cardID, domain.ErrNotFound)
	}
	return nil
}

// Delete removes a single card.
func (s *CardStore) Delete(cardID int64) error {
	res, err := s.p.conn.Exec(`DELETE FROM cards WHERE id = ?`, cardID)
	if err != nil {
		return storageErr("delete card", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("card %d: %w", cardID, domain.ErrNotFound)
	}
	return nil
}

// Due returns the cards in a deck that are due at asOf: never reviewed or
// past their due date. The result is ordered by ascending due date with
// never-reviewed cards first; cards sharing a due date are shuffled fresh
// on every call so a learner does not see a due cohort in a fixed order.
func (s *CardStore) Due(deckID int64, asOf time.Time) ([]domain.Card, error) {
	if err := s.deckExists(deckID); err != nil {
		return nil, err
	}

	rows, err := s.p.conn.Query(`
		SELECT `+cardColumns+`
		FROM cards
		WHERE deck_id = ? AND (due_date IS NULL OR due_date <= ?)
		ORDER BY due_date ASC
	`, deckID, asOf.UTC())
	if err != nil {
		return nil, storageErr("due cards", err)
	}
	defer rows.Close()

	cards, err := scanCards(rows)
	if err != nil {
		return nil, err
	}

	s.shuffleTies(cards)
	return cards, nil
}

// ApplyReview overwrites exactly the four scheduling fields of a card,
// atomically. Front and back are untouched.
func (s *CardStore) ApplyReview(cardID int64, state domain.ReviewState) error {
	res, err := s.p.conn.Exec(`
		UPDATE cards
		SET due_date = ?, interval = ?, ease_factor = ?, repetitions = ?
		WHERE id = ?
	`, nullableTime(state.Due), state.IntervalDays, state.EaseFactor, state.Repetitions, cardID)
	if err != nil {
		return storageErr("apply review", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("card %d: %w", cardID, domain.ErrNotFound)
	}
	return nil
}

// shuffleTies re-orders, in place, each run of cards whose due dates are
// equal (all nil dates count as one run). The overall due-date order is
// preserved.
func (s *CardStore) shuffleTies(cards []domain.Card) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sameDue := func(a, b domain.Card) bool {
		if a.Due == nil || b.Due == nil {
			return a.Due == nil && b.Due == nil
		}
		return a.Due.Equal(*b.Due)
	}

	start := 0
	for i := 1; i <= len(cards); i++ {
		if i == len(cards) || !sameDue(cards[start], cards[i]) {
			run := cards[start:i]
			s.rng.Shuffle(len(run), func(a, b int) {
				run[a], run[b] = run[b], run[a]
			})
			start = i
		}
	}
}

func (s *CardStore) deckExists(deckID int64) error {
	var one int
	err := s.p.conn.QueryRow(`SELECT 1 FROM decks WHERE id = ?`, deckID).Scan(&one)
	if err == sql.ErrNoRows {
		return fmt.Errorf("deck %d: %w", deckID, domain.ErrNotFound)
	}
	if err != nil {
		return storageErr("check deck", err)
	}
	return nil
}

func scanCard(scan func(dest ...any) error) (domain.Card, error) {
	var c domain.Card
	var due sql.NullTime
	err := scan(&c.ID, &c.DeckID, &c.Front, &c.Back, &due,
		&c.IntervalDays, &c.EaseFactor, &c.Repetitions)
	if err != nil {
		return domain.Card{}, err
	}
	if due.Valid {
		t := due.Time
		c.Due = &t
	}
	return c, nil
}

func scanCards(rows *sql.Rows) ([]domain.Card, error) {
	var cards []domain.Card
	for rows.Next() {
		c, err := scanCard(rows.Scan)
		if err != nil {
			return nil, storageErr("scan card row", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("read card rows", err)
	}
	return cards, nil
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	// Stored in UTC so sqlite's text comparison of timestamps stays
	// consistent with time order.
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
