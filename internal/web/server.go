// Package web exposes the review core over a small JSON API. It carries
// no domain logic of its own: every handler authenticates the caller,
// resolves their partition and delegates to the stores, the scheduler and
// the codec.
package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/memodeck/memodeck/internal/auth"
	"github.com/memodeck/memodeck/internal/deckio"
	"github.com/memodeck/memodeck/internal/domain"
	"github.com/memodeck/memodeck/internal/srs"
	"github.com/memodeck/memodeck/internal/stats"
	"github.com/memodeck/memodeck/internal/storage"
)

// maxBodyBytes bounds request bodies; deck imports are the largest.
const maxBodyBytes = 8 << 20

// Server holds the dependencies for the HTTP API.
type Server struct {
	registry   *auth.Registry
	partitions *storage.Manager
	router     *http.ServeMux
	now        func() time.Time
}

// NewServer creates and wires a new server.
func NewServer(registry *auth.Registry, partitions *storage.Manager) *Server {
	s := &Server{
		registry:   registry,
		partitions: partitions,
		router:     http.NewServeMux(),
		now:        time.Now,
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.HandleFunc("POST /register", s.handleRegister)
	s.router.HandleFunc("POST /login", s.withPartition(s.handleLogin))

	s.router.HandleFunc("GET /decks", s.withPartition(s.handleListDecks))
	s.router.HandleFunc("POST /decks", s.withPartition(s.handleCreateDeck))
	s.router.HandleFunc("DELETE /decks/{deckID}", s.withPartition(s.handleDeleteDeck))
	s.router.HandleFunc("GET /decks/{deckID}/cards", s.withPartition(s.handleListCards))
	s.router.HandleFunc("POST /decks/{deckID}/cards", s.withPartition(s.handleAddCard))
	s.router.HandleFunc("GET /decks/{deckID}/due", s.withPartition(s.handleDueCards))
	s.router.HandleFunc("GET /decks/{deckID}/stats", s.withPartition(s.handleDeckStats))
	s.router.HandleFunc("GET /decks/{deckID}/export", s.withPartition(s.handleExportDeck))

	s.router.HandleFunc("PUT /cards/{cardID}", s.withPartition(s.handleEditCard))
	s.router.HandleFunc("DELETE /cards/{cardID}", s.withPartition(s.handleDeleteCard))
	s.router.HandleFunc("POST /cards/{cardID}/review", s.withPartition(s.handleReview))

	s.router.HandleFunc("POST /import", s.withPartition(s.handleImportDeck))
	s.router.HandleFunc("GET /stats", s.withPartition(s.handleGlobalStats))
}

type partitionHandler func(w http.ResponseWriter, r *http.Request, p *storage.Partition)

// withPartition authenticates the request with HTTP Basic credentials and
// resolves the caller's partition, creating it on first use.
func (s *Server) withPartition(next partitionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="memodeck"`)
			s.writeError(w, auth.ErrBadCredentials)
			return
		}
		if err := s.registry.Authenticate(username, password); err != nil {
			s.writeError(w, err)
			return
		}
		p, err := s.partitions.PartitionFor(username)
		if err != nil {
			s.writeError(w, err)
			return
		}
		next(w, r, p)
	}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.registry.Register(req.Username, req.Password); err != nil {
		s.writeError(w, err)
		return
	}
	slog.Info("registered user", "username", req.Username)
	s.writeJSON(w, http.StatusCreated, map[string]string{"username": req.Username})
}

// handleLogin exists so a caller can verify credentials (and warm up the
// partition) without performing any other operation.
func (s *Server) handleLogin(w http.ResponseWriter, _ *http.Request, _ *storage.Partition) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListDecks(w http.ResponseWriter, _ *http.Request, p *storage.Partition) {
	decks, err := storage.NewDeckStore(p).List()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, deckListResponse(decks))
}

func (s *Server) handleCreateDeck(w http.ResponseWriter, r *http.Request, p *storage.Partition) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r.Body, &req); err != nil {
		s.writeError(w, err)
		return
	}
	id, err := storage.NewDeckStore(p).Create(req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleDeleteDeck(w http.ResponseWriter, r *http.Request, p *storage.Partition) {
	deckID, err := pathID(r, "deckID")
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := storage.NewDeckStore(p).Delete(deckID); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request, p *storage.Partition) {
	deckID, err := pathID(r, "deckID")
	if err != nil {
		s.writeError(w, err)
		return
	}
	cards, err := storage.NewCardStore(p, nil).List(deckID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, cardListResponse(cards))
}

func (s *Server) handleAddCard(w http.ResponseWriter, r *http.Request, p *storage.Partition) {
	deckID, err := pathID(r, "deckID")
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req struct {
		Front string `json:"front"`
		Back  string `json:"back"`
	}
	if err := decodeJSON(r.Body, &req); err != nil {
		s.writeError(w, err)
		return
	}
	id, err := storage.NewCardStore(p, nil).Add(deckID, req.Front, req.Back)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleEditCard(w http.ResponseWriter, r *http.Request, p *storage.Partition) {
	cardID, err := pathID(r, "cardID")
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req struct {
		Front string `json:"front"`
		Back  string `json:"back"`
	}
	if err := decodeJSON(r.Body, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := storage.NewCardStore(p, nil).UpdateContent(cardID, req.Front, req.Back); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request, p *storage.Partition) {
	cardID, err := pathID(r, "cardID")
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := storage.NewCardStore(p, nil).Delete(cardID); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDueCards returns the due snapshot a review session operates on.
// The session holds this list; re-fetching may reorder ties.
func (s *Server) handleDueCards(w http.ResponseWriter, r *http.Request, p *storage.Partition) {
	deckID, err := pathID(r, "deckID")
	if err != nil {
		s.writeError(w, err)
		return
	}
	cards, err := storage.NewCardStore(p, nil).Due(deckID, s.now())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, cardListResponse(cards))
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request, p *storage.Partition) {
	cardID, err := pathID(r, "cardID")
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req struct {
		Quality int `json:"quality"`
	}
	if err := decodeJSON(r.Body, &req); err != nil {
		s.writeError(w, err)
		return
	}

	cardStore := storage.NewCardStore(p, nil)
	card, err := cardStore.Get(cardID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := srs.Update(srs.Quality(req.Quality),
		card.Repetitions, card.EaseFactor, card.IntervalDays)
	if err != nil {
		s.writeError(w, err)
		return
	}

	due := srs.DueAt(s.now(), result.IntervalDays)
	state := domain.ReviewState{
		Repetitions:  result.Repetitions,
		EaseFactor:   result.EaseFactor,
		IntervalDays: result.IntervalDays,
		Due:          &due,
	}
	if err := cardStore.ApplyReview(cardID, state); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, reviewResponse{
		Repetitions:  state.Repetitions,
		EaseFactor:   state.EaseFactor,
		IntervalDays: state.IntervalDays,
		Due:          due,
	})
}

func (s *Server) handleDeckStats(w http.ResponseWriter, r *http.Request, p *storage.Partition) {
	deckID, err := pathID(r, "deckID")
	if err != nil {
		s.writeError(w, err)
		return
	}
	deckStats, err := stats.ForDeck(p, deckID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, deckStats)
}

func (s *Server) handleGlobalStats(w http.ResponseWriter, _ *http.Request, p *storage.Partition) {
	globalStats, err := stats.Global(p, s.now())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, globalStats)
}

func (s *Server) handleExportDeck(w http.ResponseWriter, r *http.Request, p *storage.Partition) {
	deckID, err := pathID(r, "deckID")
	if err != nil {
		s.writeError(w, err)
		return
	}
	deck, err := storage.NewDeckStore(p).Get(deckID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	cards, err := storage.NewCardStore(p, nil).List(deckID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	data, err := deckio.Export(deck.Name, cards)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) handleImportDeck(w http.ResponseWriter, r *http.Request, p *storage.Partition) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: read body: %v", domain.ErrValidation, err))
		return
	}
	file, err := deckio.Parse(data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	cards, skipped := file.BuildCards()
	id, err := storage.NewDeckStore(p).Import(file.DeckName, cards)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, importResponse{
		ID:            id,
		Name:          file.DeckName,
		ImportedCards: len(cards),
		SkippedCards:  skipped,
	})
}

// writeError maps the error taxonomy onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, auth.ErrBadCredentials):
		status = http.StatusUnauthorized
	case domain.IsNotFound(err):
		status = http.StatusNotFound
	case domain.IsDuplicateName(err):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrStorageUnavailable):
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "status", status, "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func decodeJSON(r io.Reader, v any) error {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("%w: decode request body: %v", domain.ErrValidation, err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s", domain.ErrValidation, name)
	}
	return id, nil
}
