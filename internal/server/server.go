// Package server exposes a running console over HTTP and a websocket.
//
// The websocket is the presentation bridge: it pushes a view after every
// visible change and forwards player input into the console loop. The REST
// routes cover health, the current view, upgrade flags and a debug spawn.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/roach88/complications/internal/complication"
	"github.com/roach88/complications/internal/console"
	"github.com/roach88/complications/internal/store"
)

// Server handles HTTP and websocket requests for one console.
type Server struct {
	loop      *console.Loop
	board     *complication.Board
	store     *store.Store
	log       *slog.Logger
	startTime time.Time
	upgrader  websocket.Upgrader
	newID     func() string
}

// New creates a server. st may be nil, in which case upgrade flags live only
// in the console and are lost on restart.
func New(loop *console.Loop, board *complication.Board, st *store.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		loop:      loop,
		board:     board,
		store:     st,
		log:       logger,
		startTime: time.Now(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		newID: uuid.NewString,
	}
}

// Routes sets up the HTTP routes with middleware.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.handleWebsocket)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/view", s.handleView)
		r.Get("/upgrades", s.handleListUpgrades)
		r.Put("/upgrades/{type}", s.handleSetUpgrade)
		r.Post("/complications", s.handleSpawn)
		r.Get("/resolutions", s.handleResolutions)
	})

	return r
}

// errorResponse is the body of every non-2xx JSON response.
type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// writeJSON writes a JSON response with proper headers.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("failed to encode response", "error", err)
	}
}

// writeError writes a structured error response.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.writeJSON(w, status, errorResponse{
		Error:     message,
		RequestID: middleware.GetReqID(r.Context()),
	})
}
