package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wricardo/dogtown/game/engine"
	"github.com/wricardo/dogtown/game/service"
	"github.com/wricardo/dogtown/transport/websocket"
)

// Machine-readable error codes returned alongside HTTP statuses.
const (
	codeInvalidArgument = "invalidArgument"
	codeMapNotFound     = "mapNotFound"
	codeInvalidToken    = "invalidToken"
	codeUnknownToken    = "unknownToken"
	codeBadRequest      = "badRequest"
	codeInvalidMethod   = "invalidMethod"
	codeInternal        = "internal"
)

// Server represents the REST API server.
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
	wwwRoot string
}

// NewServer creates a new API server serving the game API, the spectator
// websocket endpoint and static files from wwwRoot.
func NewServer(gameService service.GameService, hub *websocket.Hub, wwwRoot string) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
		wwwRoot: wwwRoot,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(requestLogger)

	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/maps", s.handleListMaps).Methods("GET", "HEAD")
	api.HandleFunc("/maps/{id}", s.handleGetMap).Methods("GET", "HEAD")

	api.HandleFunc("/game/join", s.handleJoin).Methods("POST")
	api.HandleFunc("/game/players", s.handlePlayers).Methods("GET", "HEAD")
	api.HandleFunc("/game/state", s.handleState).Methods("GET", "HEAD")
	api.HandleFunc("/game/player/action", s.handleAction).Methods("POST")
	api.HandleFunc("/game/tick", s.handleTick).Methods("POST")
	api.HandleFunc("/game/records", s.handleRecords).Methods("GET", "HEAD")

	// Wrong-verb fallbacks. These match after the method-gated routes
	// above, so they only fire when the path is known but the verb is not.
	api.HandleFunc("/maps", methodNotAllowed("GET", "HEAD"))
	api.HandleFunc("/maps/{id}", methodNotAllowed("GET", "HEAD"))
	api.HandleFunc("/game/join", methodNotAllowed("POST"))
	api.HandleFunc("/game/players", methodNotAllowed("GET", "HEAD"))
	api.HandleFunc("/game/state", methodNotAllowed("GET", "HEAD"))
	api.HandleFunc("/game/player/action", methodNotAllowed("POST"))
	api.HandleFunc("/game/tick", methodNotAllowed("POST"))
	api.HandleFunc("/game/records", methodNotAllowed("GET", "HEAD"))

	s.router.HandleFunc("/ws", s.handleWebSocket)

	s.router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.wwwRoot)))
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]string{"code": code, "message": message})
}

func methodNotAllowed(allowed ...string) http.HandlerFunc {
	allow := strings.Join(allowed, ", ")
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", allow)
		respondError(w, http.StatusMethodNotAllowed, codeInvalidMethod, "Method not allowed")
	}
}

// statusRecorder captures the response status for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

// bearerToken extracts the player token from the Authorization header.
// A missing header or a token of the wrong shape are indistinguishable to
// the client: both mean it never got this token from us.
func bearerToken(r *http.Request) (service.Token, bool) {
	header := r.Header.Get("Authorization")
	raw := strings.TrimPrefix(header, "Bearer ")
	if raw == header {
		return "", false
	}
	token := service.Token(raw)
	if !token.IsWellFormed() {
		return "", false
	}
	return token, true
}

func (s *Server) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownToken):
		respondError(w, http.StatusUnauthorized, codeUnknownToken, "Player token has not been found")
	case errors.Is(err, engine.ErrMapNotFound):
		respondError(w, http.StatusNotFound, codeMapNotFound, "Map not found")
	default:
		respondError(w, http.StatusInternalServerError, codeInternal, err.Error())
	}
}

// Map handlers

func (s *Server) handleListMaps(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.service.ListMaps(r.Context()))
}

func (s *Server) handleGetMap(w http.ResponseWriter, r *http.Request) {
	detail, err := s.service.GetMap(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

// Game handlers

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserName string `json:"userName"`
		MapID    string `json:"mapId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidArgument, "Join game request parse error")
		return
	}

	result, err := s.service.Join(r.Context(), req.MapID, req.UserName)
	if errors.Is(err, service.ErrInvalidUserName) {
		respondError(w, http.StatusBadRequest, codeInvalidArgument, "Join game request parse error")
		return
	}
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, codeInvalidToken, "Authorization header is missing")
		return
	}

	players, err := s.service.Players(r.Context(), token)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, players)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, codeInvalidToken, "Authorization header is missing")
		return
	}

	state, err := s.service.State(r.Context(), token)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, codeInvalidToken, "Authorization header is missing")
		return
	}

	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		respondError(w, http.StatusBadRequest, codeInvalidArgument, "Invalid content type")
		return
	}

	var req struct {
		Move string `json:"move"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidArgument, "Failed to parse action")
		return
	}

	err := s.service.Move(r.Context(), token, req.Move)
	if errors.Is(err, service.ErrInvalidMove) {
		respondError(w, http.StatusBadRequest, codeInvalidArgument, "Failed to parse action")
		return
	}
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{})
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TimeDelta int64 `json:"timeDelta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TimeDelta < 0 {
		respondError(w, http.StatusBadRequest, codeInvalidArgument, "Failed to parse tick request")
		return
	}

	err := s.service.Tick(r.Context(), req.TimeDelta)
	if errors.Is(err, service.ErrManualTickDisabled) {
		respondError(w, http.StatusBadRequest, codeBadRequest, "Invalid endpoint")
		return
	}
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{})
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	start, _ := strconv.Atoi(query.Get("start"))
	maxItems, _ := strconv.Atoi(query.Get("maxItems"))

	records, err := s.service.Records(r.Context(), start, maxItems)
	if errors.Is(err, service.ErrRecordLimitTooLarge) {
		respondError(w, http.StatusBadRequest, codeBadRequest, "Limit can't be more than 100")
		return
	}
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, records)
}

// WebSocket handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	mapID := r.URL.Query().Get("map")
	if mapID == "" {
		http.Error(w, "map parameter required", http.StatusBadRequest)
		return
	}

	if _, err := s.service.GetMap(r.Context(), mapID); err != nil {
		http.Error(w, "Invalid map", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, mapID)
}
