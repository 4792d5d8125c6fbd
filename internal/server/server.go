package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"clash-war-tracker/internal/domain"
	"clash-war-tracker/internal/monitoring"
	"clash-war-tracker/internal/service"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

type Server struct {
	playerSvc *service.PlayerService
	warSvc    *service.WarService
	logger    zerolog.Logger
}

func New(playerSvc *service.PlayerService, warSvc *service.WarService, logger zerolog.Logger) *Server {
	return &Server{playerSvc: playerSvc, warSvc: warSvc, logger: logger}
}

func (s *Server) Routes(r *mux.Router) {
	r.Handle("/player/{tag}", monitoring.Instrument("/player/{tag}", http.HandlerFunc(s.handlePlayer))).Methods(http.MethodGet)
	r.Handle("/war/{tag}", monitoring.Instrument("/war/{tag}", http.HandlerFunc(s.handleWar))).Methods(http.MethodGet)
	r.Handle("/metrics", monitoring.Handler()).Methods(http.MethodGet)
}

func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	tag := mux.Vars(r)["tag"]

	body, err := s.playerSvc.GetPlayer(r.Context(), tag)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (s *Server) handleWar(w http.ResponseWriter, r *http.Request) {
	tag := mux.Vars(r)["tag"]

	summary, err := s.warSvc.GetWarSummary(r.Context(), tag)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps the service error taxonomy onto HTTP statuses: local
// preconditions and upstream 403/404 keep their codes, any other upstream
// failure mirrors the upstream status, everything else is a 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := err.Error()

	var upstream *domain.UpstreamError
	switch {
	case errors.Is(err, domain.ErrNotInClan):
		status = http.StatusNotFound
		message = "Player is not in a clan."
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrPrivate):
		status = http.StatusForbidden
	case errors.As(err, &upstream):
		status = upstream.StatusCode
	}

	s.logger.Error().
		Err(err).
		Int("status", status).
		Str("path", r.URL.Path).
		Msg("request failed")

	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
