package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/roach88/complications/internal/complication"
	"github.com/roach88/complications/internal/console"
	"github.com/roach88/complications/internal/store"
)

// maxBodyBytes caps request bodies; every request body here is a tiny JSON
// object.
const maxBodyBytes = 4 << 10

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	AtMs      int64  `json:"at_ms"`
	Store     bool   `json:"store"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		AtMs:      s.loop.Snapshot().AtMs,
		Store:     s.store != nil,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.loop.Snapshot())
}

// UpgradeRequest is the body of PUT /api/v1/upgrades/{type}.
type UpgradeRequest struct {
	Maxed *bool `json:"maxed"`
}

// UpgradeResponse reports one upgrade flag.
type UpgradeResponse struct {
	Type  complication.Type `json:"type"`
	Maxed bool              `json:"maxed"`
}

func (s *Server) handleListUpgrades(w http.ResponseWriter, r *http.Request) {
	var maxed complication.MaxedSet
	if s.store != nil {
		m, err := s.store.Maxed(r.Context())
		if err != nil {
			s.log.Error("failed to read upgrades", "error", err)
			s.writeError(w, r, http.StatusInternalServerError, "failed to read upgrades")
			return
		}
		maxed = m
	} else {
		maxed = complication.MaxedSet{}
		for _, name := range s.loop.Snapshot().Maxed {
			maxed[complication.Type(name)] = true
		}
	}

	out := make([]UpgradeResponse, 0, len(complication.Types))
	for _, t := range complication.Types {
		out = append(out, UpgradeResponse{Type: t, Maxed: maxed.IsMaxed(t)})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSetUpgrade(w http.ResponseWriter, r *http.Request) {
	t, err := complication.ParseType(chi.URLParam(r, "type"))
	if err != nil {
		s.writeError(w, r, http.StatusNotFound, err.Error())
		return
	}

	var req UpgradeRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Maxed == nil {
		s.writeError(w, r, http.StatusBadRequest, "maxed is required")
		return
	}
	maxed := *req.Maxed

	if s.store != nil {
		if err := s.store.SetMaxed(r.Context(), t, maxed); err != nil {
			s.log.Error("failed to save upgrade", "type", t, "error", err)
			s.writeError(w, r, http.StatusInternalServerError, "failed to save upgrade")
			return
		}
	}
	if !s.loop.Do(func(c *console.Console) { c.SetMaxed(t, maxed) }) {
		s.writeError(w, r, http.StatusServiceUnavailable, "console stopped")
		return
	}

	s.log.Info("upgrade set", "type", t, "maxed", maxed)
	s.writeJSON(w, http.StatusOK, UpgradeResponse{Type: t, Maxed: maxed})
}

// SpawnRequest is the body of POST /api/v1/complications.
type SpawnRequest struct {
	Type string `json:"type"`
}

func (s *Server) handleSpawn(w http.ResponseWriter, r *http.Request) {
	var req SpawnRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	t, err := complication.ParseType(req.Type)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	c, err := s.board.Spawn(t)
	if errors.Is(err, complication.ErrAlreadyActive) {
		s.writeError(w, r, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	s.log.Info("complication spawned", "type", c.Type, "id", c.ID, "source", "api")
	s.writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleResolutions(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, r, http.StatusServiceUnavailable, "no save store configured")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw))
			return
		}
		limit = n
	}

	list, err := s.store.Resolutions(r.Context(), limit)
	if err != nil {
		s.log.Error("failed to read resolutions", "error", err)
		s.writeError(w, r, http.StatusInternalServerError, "failed to read resolutions")
		return
	}
	if list == nil {
		list = []store.Resolution{}
	}
	counts, err := s.store.ResolutionCounts(r.Context())
	if err != nil {
		s.log.Error("failed to count resolutions", "error", err)
		s.writeError(w, r, http.StatusInternalServerError, "failed to count resolutions")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"resolutions": list,
		"counts":      counts,
	})
}

// decodeBody decodes a small JSON body strictly.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
