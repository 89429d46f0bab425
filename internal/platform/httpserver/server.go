package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	votingregistry "galleria/contexts/gallery/voting-registry"
	registryerrors "galleria/contexts/gallery/voting-registry/domain/errors"
	registryhttp "galleria/contexts/gallery/voting-registry/transport/http"
	_ "galleria/internal/platform/httpserver/docs"
	"galleria/internal/platform/metrics"

	httpSwagger "github.com/swaggo/http-swagger"
)

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	registry votingregistry.Module
	metrics  *metrics.Metrics
}

func New(
	registry votingregistry.Module,
	m *metrics.Metrics,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		registry: registry,
		metrics:  m,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)

	s.mux.HandleFunc("POST /v1/registry/subjects", s.handleCreateSubject)
	s.mux.HandleFunc("GET /v1/registry/subjects/{subject_id}", s.handleGetSubject)
	s.mux.HandleFunc("PUT /v1/registry/subjects/{subject_id}/content", s.handleUpdateContent)
	s.mux.HandleFunc("POST /v1/registry/subjects/{subject_id}/votes", s.handleCastVote)
	s.mux.HandleFunc("GET /v1/registry/leaderboard", s.handleLeaderboard)
	s.mux.HandleFunc("GET /v1/registry/stats", s.handleStats)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCreateSubject registers a new subject.
//
//	@Summary  Register a subject
//	@Router   /v1/registry/subjects [post]
func (s *Server) handleCreateSubject(w http.ResponseWriter, r *http.Request) {
	creator := r.Header.Get("X-User-Id")
	if creator == "" {
		writeRegistryError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req registryhttp.CreateSubjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.registry.Handler.CreateSubjectHandler(r.Context(), creator, req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.SubjectsCreated.Inc()
	}
	writeJSON(w, http.StatusCreated, resp)
}

// handleCastVote records one weighted vote by the calling user.
//
//	@Summary  Cast a vote
//	@Router   /v1/registry/subjects/{subject_id}/votes [post]
func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	voter := r.Header.Get("X-User-Id")
	if voter == "" {
		writeRegistryError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	subjectID, ok := parseSubjectID(w, r)
	if !ok {
		return
	}

	var req registryhttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.registry.Handler.CastVoteHandler(r.Context(), voter, subjectID, req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.VotesCast.Inc()
	}
	writeJSON(w, http.StatusCreated, resp)
}

// handleUpdateContent replaces a subject's content payload (owner only).
//
//	@Summary  Update subject content
//	@Router   /v1/registry/subjects/{subject_id}/content [put]
func (s *Server) handleUpdateContent(w http.ResponseWriter, r *http.Request) {
	requester := r.Header.Get("X-User-Id")
	if requester == "" {
		writeRegistryError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	subjectID, ok := parseSubjectID(w, r)
	if !ok {
		return
	}

	var req registryhttp.UpdateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	if err := s.registry.Handler.UpdateContentHandler(r.Context(), requester, subjectID, req); err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.ContentUpdates.Inc()
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetSubject returns the subject projection.
//
//	@Summary  Get a subject
//	@Router   /v1/registry/subjects/{subject_id} [get]
func (s *Server) handleGetSubject(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := parseSubjectID(w, r)
	if !ok {
		return
	}
	resp, err := s.registry.Handler.GetSubjectHandler(r.Context(), subjectID)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleLeaderboard serves the ranked top-K query.
//
//	@Summary  Top-K leaderboard
//	@Router   /v1/registry/leaderboard [get]
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limitRaw := r.URL.Query().Get("limit")
	if limitRaw == "" {
		writeRegistryError(w, http.StatusBadRequest, "missing_limit", "limit query parameter is required")
		return
	}
	limit, err := strconv.Atoi(limitRaw)
	if err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
		return
	}

	resp, err := s.registry.Handler.LeaderboardHandler(r.Context(), limit)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.LeaderboardQueries.Inc()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleStats serves registry-wide counters.
//
//	@Summary  Registry stats
//	@Router   /v1/registry/stats [get]
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp, err := s.registry.Handler.StatsHandler(r.Context())
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeRegistryDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registryerrors.ErrInvalidArgument):
		writeRegistryError(w, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, registryerrors.ErrInvalidWeight):
		writeRegistryError(w, http.StatusUnprocessableEntity, "invalid_weight", err.Error())
	case errors.Is(err, registryerrors.ErrSubjectNotFound):
		writeRegistryError(w, http.StatusNotFound, "subject_not_found", err.Error())
	case errors.Is(err, registryerrors.ErrPermissionDenied):
		writeRegistryError(w, http.StatusForbidden, "permission_denied", err.Error())
	case errors.Is(err, registryerrors.ErrDuplicateVote):
		writeRegistryError(w, http.StatusConflict, "duplicate_vote", err.Error())
	case errors.Is(err, registryerrors.ErrCapacityExceeded):
		writeRegistryError(w, http.StatusConflict, "capacity_exceeded", err.Error())
	case errors.Is(err, registryerrors.ErrCooldownActive):
		writeRegistryError(w, http.StatusTooManyRequests, "cooldown_active", err.Error())
	case errors.Is(err, registryerrors.ErrConflict):
		writeRegistryError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeRegistryError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeRegistryError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, registryhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func parseSubjectID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	subjectID, err := strconv.ParseInt(r.PathValue("subject_id"), 10, 64)
	if err != nil || subjectID < 0 {
		writeRegistryError(w, http.StatusBadRequest, "invalid_subject_id", "subject_id must be a non-negative integer")
		return 0, false
	}
	return subjectID, true
}
