package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/wricardo/memory-workout/game/engine"
	"github.com/wricardo/memory-workout/game/service"
	"github.com/wricardo/memory-workout/transport/websocket"
)

// Error kinds that do not come from the engine
const (
	KindSessionNotFound = "session_not_found"
	KindConfigNotFound  = "config_not_found"
	KindBadRequest      = "bad_request"
	KindCanceled        = "canceled"
)

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
	logger  zerolog.Logger
}

// NewServer creates a new API server. hub may be nil, in which case state
// changes are not broadcast.
func NewServer(gameService service.GameService, hub *websocket.Hub, logger zerolog.Logger) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
		logger:  logger,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Game operations
	api.HandleFunc("/sessions/{id}/state", s.handleGetGameState).Methods("GET")
	api.HandleFunc("/sessions/{id}/play", s.handlePlay).Methods("POST")
	api.HandleFunc("/sessions/{id}/initialize", s.handleInitialize).Methods("POST")
	api.HandleFunc("/sessions/{id}/restart", s.handleRestart).Methods("POST")
	api.HandleFunc("/sessions/{id}/history", s.handleGetHistory).Methods("GET")

	// Configuration
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	api.HandleFunc("/configs", s.handleCreateConfig).Methods("POST")
	api.HandleFunc("/configs/{name}", s.handleGetConfig).Methods("GET")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// Router exposes the route table so callers can mount extra endpoints
func (s *Server) Router() *mux.Router {
	return s.router
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler wraps the router with request logging. Every request gets a
// request ID and one access log line.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	h = hlog.RequestIDHandler("req_id", "Request-Id")(h)
	h = hlog.RemoteAddrHandler("ip")(h)
	h = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	})(h)
	return hlog.NewHandler(s.logger)(h)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, kind, message string) {
	respondJSON(w, status, map[string]string{"error": message, "kind": kind})
}

// respondServiceError maps a service error to its status code and kind
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := classify(err)
	if status >= http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
	}
	respondError(w, status, kind, err.Error())
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound, KindSessionNotFound
	case errors.Is(err, service.ErrConfigNotFound):
		return http.StatusNotFound, KindConfigNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, KindCanceled
	}

	kind := engine.ErrorKind(err)
	switch {
	case errors.Is(err, engine.ErrGameAlreadyOver), errors.Is(err, engine.ErrNotInitialized):
		return http.StatusConflict, kind
	case kind == "internal":
		return http.StatusInternalServerError, kind
	default:
		return http.StatusBadRequest, kind
	}
}

// decodeBody decodes an optional JSON body. An empty body leaves v untouched.
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) broadcastState(sessionID string, state *engine.GameState) {
	if s.hub != nil {
		s.hub.BroadcastToSession(sessionID, state)
	}
}

func (s *Server) broadcastEvent(sessionID, event string, data interface{}) {
	if s.hub != nil {
		s.hub.BroadcastEvent(sessionID, event, data)
	}
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID   string   `json:"config_id,omitempty"`
		ConfigName string   `json:"config_name,omitempty"` // Deprecated, use config_id
		Rows       *float64 `json:"rows,omitempty"`
		Columns    *float64 `json:"columns,omitempty"`
		Seed       *uint64  `json:"seed,omitempty"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, KindBadRequest, "Invalid request body")
		return
	}

	create := service.CreateSessionRequest{ConfigID: req.ConfigID, Seed: req.Seed}
	if create.ConfigID == "" {
		create.ConfigID = req.ConfigName
	}

	if req.Rows != nil || req.Columns != nil {
		if req.Rows == nil || req.Columns == nil {
			respondError(w, http.StatusBadRequest, engine.ErrorKind(engine.ErrInvalidDimension),
				"rows and columns must be given together")
			return
		}
		var err error
		if create.Rows, err = engine.IntegerDimension(*req.Rows); err != nil {
			respondServiceError(w, r, err)
			return
		}
		if create.Columns, err = engine.IntegerDimension(*req.Columns); err != nil {
			respondServiceError(w, r, err)
			return
		}
	}

	session, err := s.service.CreateSession(r.Context(), create)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	total := len(sessions)

	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy != "created" {
		sortBy = "accessed"
	}
	if order != "asc" {
		order = "desc"
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			sessions = sessions[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	session, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Game Operation Handlers

func (s *Server) handleGetGameState(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.GetGameState(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Index *float64 `json:"index"`
	}
	if err := decodeBody(r, &req); err != nil || req.Index == nil {
		respondError(w, http.StatusBadRequest, KindBadRequest, "Request body must be {\"index\": <card index>}")
		return
	}
	v := *req.Index
	if v != math.Trunc(v) || math.IsInf(v, 0) {
		respondError(w, http.StatusBadRequest, KindBadRequest,
			fmt.Sprintf("index must be an integer, got %v", v))
		return
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		respondError(w, http.StatusBadRequest, engine.ErrorKind(engine.ErrIndexOutOfRange),
			fmt.Sprintf("%v: %v", engine.ErrIndexOutOfRange, v))
		return
	}
	index := int(v)

	result, err := s.service.Play(r.Context(), sessionID, index)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.broadcastState(sessionID, result.GameState)
	for _, event := range result.Events {
		s.broadcastEvent(sessionID, event.Type, event)
	}

	hlog.FromRequest(r).Debug().
		Str("session", sessionID).
		Int("index", index).
		Str("code", result.Code).
		Int("attempts", result.GameState.Attempts).
		Int("mistakes", result.GameState.Mistakes).
		Msg("play")

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Rows    *float64 `json:"rows"`
		Columns *float64 `json:"columns"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, KindBadRequest, "Invalid request body")
		return
	}
	if req.Rows == nil || req.Columns == nil {
		respondError(w, http.StatusBadRequest, engine.ErrorKind(engine.ErrInvalidDimension),
			"rows and columns are required")
		return
	}
	rows, err := engine.IntegerDimension(*req.Rows)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	columns, err := engine.IntegerDimension(*req.Columns)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	state, err := s.service.Initialize(r.Context(), sessionID, rows, columns)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.broadcastState(sessionID, state)
	s.broadcastEvent(sessionID, service.EventInitialize, map[string]int{"rows": rows, "columns": columns})

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("New %dx%d board dealt", rows, columns),
		"state":   state,
	})
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.Restart(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.broadcastState(sessionID, state)
	s.broadcastEvent(sessionID, service.EventRestart, nil)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Game restarted",
		"state":   state,
	})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	opts := service.HistoryOptions{
		Page:  1,
		Limit: 20,
		Order: "desc",
	}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}
	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	history, err := s.service.GetTurnHistory(r.Context(), sessionID, opts)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// Configuration Handlers

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	configName := mux.Vars(r)["name"]

	config, err := s.service.LoadConfig(r.Context(), configName)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, config)
}

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID string `json:"config_id,omitempty"`
		engine.GameConfig
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, KindBadRequest, "Invalid request body")
		return
	}

	id := req.ConfigID
	if id == "" {
		id = strings.ToLower(strings.Join(strings.Fields(req.Name), "-"))
	}
	if id == "" {
		respondError(w, http.StatusBadRequest, engine.ErrorKind(engine.ErrInvalidConfig), "Config name is required")
		return
	}

	config := req.GameConfig
	if err := s.service.SaveConfig(r.Context(), id, &config); err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Configuration saved successfully",
		"config_id": id,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, KindBadRequest, "session parameter required")
		return
	}
	if s.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "unavailable", "live updates are disabled")
		return
	}

	if _, err := s.service.GetSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.hub.ServeWS(w, r, sessionID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"sessions": len(sessions),
	})
}
