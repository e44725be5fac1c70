package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/mcdev12/squadmarket/go/internal/models"
	"github.com/mcdev12/squadmarket/go/internal/team"
	"github.com/rs/zerolog/log"
)

// TeamResolver maps the authenticated owner to their acting team.
type TeamResolver interface {
	GetTeamByUser(ctx context.Context, userID uuid.UUID) (*models.Team, error)
}

// Service exposes the transfer market over HTTP.
type Service struct {
	app      *App
	resolver TeamResolver
}

func NewService(app *App, resolver TeamResolver) *Service {
	return &Service{app: app, resolver: resolver}
}

func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/transfers", s.handleList)
	mux.HandleFunc("POST /api/transfers", s.handleCreate)
	mux.HandleFunc("GET /api/transfers/mine", s.handleMine)
	mux.HandleFunc("DELETE /api/transfers/{id}", s.handleCancel)
	mux.HandleFunc("POST /api/transfers/{id}/buy", s.handleBuy)
}

func (s *Service) handleList(w http.ResponseWriter, r *http.Request) {
	f := Filters{
		TeamName:   r.URL.Query().Get("team_name"),
		PlayerName: r.URL.Query().Get("player_name"),
	}
	var err error
	if f.MinPrice, err = priceParam(r, "min_price"); err != nil {
		http.Error(w, "invalid min_price", http.StatusBadRequest)
		return
	}
	if f.MaxPrice, err = priceParam(r, "max_price"); err != nil {
		http.Error(w, "invalid max_price", http.StatusBadRequest)
		return
	}

	items, err := s.app.ListTransfers(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []ListItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Service) handleCreate(w http.ResponseWriter, r *http.Request) {
	actingTeam, ok := s.actingTeam(w, r)
	if !ok {
		return
	}

	var req CreateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	created, err := s.app.CreateTransfer(r.Context(), actingTeam.ID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Service) handleMine(w http.ResponseWriter, r *http.Request) {
	actingTeam, ok := s.actingTeam(w, r)
	if !ok {
		return
	}

	transfers, err := s.app.GetTeamTransfers(r.Context(), actingTeam.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if transfers == nil {
		transfers = []models.Transfer{}
	}
	writeJSON(w, http.StatusOK, transfers)
}

func (s *Service) handleCancel(w http.ResponseWriter, r *http.Request) {
	actingTeam, ok := s.actingTeam(w, r)
	if !ok {
		return
	}
	transferID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid transfer id", http.StatusBadRequest)
		return
	}

	if err := s.app.CancelTransfer(r.Context(), actingTeam.ID, transferID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleBuy(w http.ResponseWriter, r *http.Request) {
	actingTeam, ok := s.actingTeam(w, r)
	if !ok {
		return
	}
	transferID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid transfer id", http.StatusBadRequest)
		return
	}

	sold, err := s.app.BuyPlayer(r.Context(), actingTeam.ID, transferID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sold)
}

func (s *Service) actingTeam(w http.ResponseWriter, r *http.Request) (*models.Team, bool) {
	userID, err := uuid.Parse(r.Header.Get("X-User-ID"))
	if err != nil {
		http.Error(w, "missing or invalid X-User-ID", http.StatusUnauthorized)
		return nil, false
	}
	t, err := s.resolver.GetTeamByUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return t, true
}

// writeError maps the error taxonomy onto status classes: bad input 400,
// missing state 404, state conflicts 409, everything else 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidPrice):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrTransferNotFound),
		errors.Is(err, ErrPlayerNotOwned),
		errors.Is(err, team.ErrTeamNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrSelfTrade),
		errors.Is(err, ErrAlreadyListed),
		errors.Is(err, ErrTeamTooSmall),
		errors.Is(err, ErrTeamFull),
		errors.Is(err, ErrInsufficientBudget):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		log.Error().Err(err).Msg("transfer request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func priceParam(r *http.Request, key string) (*int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}
