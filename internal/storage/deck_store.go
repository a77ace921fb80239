package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/memodeck/memodeck/internal/domain"
)

// DeckStore owns the deck records of one partition.
type DeckStore struct {
	p *Partition
}

// NewDeckStore creates a deck store over the given partition.
func NewDeckStore(p *Partition) *DeckStore {
	return &DeckStore{p: p}
}

// List returns all decks ordered by name.
func (s *DeckStore) List() ([]domain.Deck, error) {
	rows, err := s.p.conn.Query(`SELECT id, name FROM decks ORDER BY name ASC`)
	if err != nil {
		return nil, storageErr("list decks", err)
	}
	defer rows.Close()

	var decks []domain.Deck
	for rows.Next() {
		var d domain.Deck
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, storageErr("scan deck row", err)
		}
		decks = append(decks, d)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list decks", err)
	}
	return decks, nil
}

// Get returns the deck with the given id.
func (s *DeckStore) Get(deckID int64) (domain.Deck, error) {
	var d domain.Deck
	err := s.p.conn.QueryRow(`SELECT id, name FROM decks WHERE id = ?`, deckID).
		Scan(&d.ID, &d.Name)
	if err == sql.ErrNoRows {
		return domain.Deck{}, fmt.Errorf("deck %d: %w", deckID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Deck{}, storageErr("get deck", err)
	}
	return d, nil
}

// Create inserts a new deck and returns its id. The name must be non-empty
// after trimming; uniqueness is enforced by the UNIQUE constraint rather
// than a pre-check, so concurrent creates cannot race past it.
func (s *DeckStore) Create(name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: deck name is empty", domain.ErrValidation)
	}

	res, err := s.p.conn.Exec(`INSERT INTO decks (name) VALUES (?)`, name)
	if isUniqueViolation(err) {
		return 0, fmt.Errorf("deck %q: %w", name, domain.ErrDuplicateName)
	}
	if err != nil {
		return 0, storageErr("create deck", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("create deck id", err)
	}
	return id, nil
}

// Rename changes a deck's name, subject to the same constraints as Create.
func (s *DeckStore) Rename(deckID int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: deck name is empty", domain.ErrValidation)
	}

	res, err := s.p.conn.Exec(`UPDATE decks SET name = ? WHERE id = ?`, name, deckID)
	if isUniqueViolation(err) {
		return fmt.Errorf("deck %q: %w", name, domain.ErrDuplicateName)
	}
	if err != nil {
		return storageErr("rename deck", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("deck %d: %w", deckID, domain.ErrNotFound)
	}
	return nil
}

// Delete removes a deck. Its cards go with it via the FK cascade, so a
// partial delete cannot occur.
func (s *DeckStore) Delete(deckID int64) error {
	res, err := s.p.conn.Exec(`DELETE FROM decks WHERE id = ?`, deckID)
	if err != nil {
		return storageErr("delete deck", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("deck %d: %w", deckID, domain.ErrNotFound)
	}
	return nil
}

// Import creates a deck and its cards in a single transaction. A duplicate
// deck name fails the whole import; nothing is partially persisted.
func (s *DeckStore) Import(name string, cards []domain.Card) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: deck name is empty", domain.ErrValidation)
	}

	tx, err := s.p.conn.Begin()
	if err != nil {
		return 0, storageErr("begin import", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`INSERT INTO decks (name) VALUES (?)`, name)
	if isUniqueViolation(err) {
		return 0, fmt.Errorf("deck %q: %w", name, domain.ErrDuplicateName)
	}
	if err != nil {
		return 0, storageErr("import deck", err)
	}
	deckID, err := res.LastInsertId()
	if err != nil {
		return 0, storageErr("import deck id", err)
	}

	for _, c := range cards {
		_, err := tx.Exec(`
			INSERT INTO cards (deck_id, front, back, due_date, interval, ease_factor, repetitions)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, deckID, c.Front, c.Back, nullableTime(c.Due), c.IntervalDays, c.EaseFactor, c.Repetitions)
		if err != nil {
			return 0, storageErr("import card", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, storageErr("commit import", err)
	}
	return deckID, nil
}
