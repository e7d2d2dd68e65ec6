package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lazypower/thringlet/internal/companion"
	"github.com/lazypower/thringlet/internal/engine"
	"github.com/lazypower/thringlet/internal/store"
)

const (
	maxBodyBytes = 64 << 10
	maxKindLen   = 64
)

// decodeJSON reads at most maxBodyBytes of r's body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

// writeEngineError maps engine errors onto HTTP statuses.
func (s *Server) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, companion.ErrInvalidProfile):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrExists):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleListCompanions(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.engine.List(r.Context(), r.URL.Query().Get("owner"))
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"companions": snaps,
		"count":      len(snaps),
	})
}

func (s *Server) handleCreateCompanion(w http.ResponseWriter, r *http.Request) {
	var p companion.Profile
	if !decodeJSON(w, r, &p) {
		return
	}
	// Rarity is matched case-insensitively on the wire.
	if p.Rarity != "" {
		if rarity, err := companion.ParseRarity(string(p.Rarity)); err == nil {
			p.Rarity = rarity
		}
	}

	snap, err := s.engine.Create(r.Context(), p)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleGetCompanion(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.Get(r.Context(), chi.URLParam(r, "companionID"))
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDeleteCompanion(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Delete(r.Context(), chi.URLParam(r, "companionID")); err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleInteract(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind string `json:"kind"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	kind := strings.TrimSpace(req.Kind)
	if kind == "" {
		writeError(w, http.StatusBadRequest, "kind required")
		return
	}
	if len(kind) > maxKindLen {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("kind longer than %d bytes", maxKindLen))
		return
	}

	res, snap, err := s.engine.Interact(r.Context(), chi.URLParam(r, "companionID"), kind)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"result":    res,
		"companion": snap,
	})
}

func (s *Server) handleDecay(w http.ResponseWriter, r *http.Request) {
	snap, changed, err := s.engine.Decay(r.Context(), chi.URLParam(r, "companionID"))
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"changed":   changed,
		"companion": snap,
	})
}

func (s *Server) handleAbilities(w http.ResponseWriter, r *http.Request) {
	abilities, err := s.engine.Abilities(r.Context(), chi.URLParam(r, "companionID"))
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	if abilities == nil {
		abilities = []companion.Ability{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"abilities": abilities})
}
