package team

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Service exposes squad views over HTTP. The acting owner comes from the
// X-User-ID header set by the identity collaborator.
type Service struct {
	app *App
}

func NewService(app *App) *Service {
	return &Service{app: app}
}

func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/team", s.handleGetTeam)
	mux.HandleFunc("GET /api/team/stats", s.handleGetStats)
}

func (s *Service) handleGetTeam(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}

	view, err := s.app.GetTeamWithPlayers(r.Context(), userID)
	if err != nil {
		writeTeamError(w, err)
		return
	}
	writeJSON(w, view)
}

func (s *Service) handleGetStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}

	stats, err := s.app.GetTeamStats(r.Context(), userID)
	if err != nil {
		writeTeamError(w, err)
		return
	}
	writeJSON(w, stats)
}

func writeTeamError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrTeamNotFound) {
		http.Error(w, "team not found", http.StatusNotFound)
		return
	}
	log.Error().Err(err).Msg("team request failed")
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func actingUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.Header.Get("X-User-ID"))
	if err != nil {
		http.Error(w, "missing or invalid X-User-ID", http.StatusUnauthorized)
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}
