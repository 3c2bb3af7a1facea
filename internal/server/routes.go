package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/qualbot/qualbot/internal/category"
	"github.com/qualbot/qualbot/internal/config"
	"github.com/qualbot/qualbot/internal/engine"
	"github.com/qualbot/qualbot/internal/session"
	"github.com/qualbot/qualbot/internal/vectordb"
)

type askRequest struct {
	SessionID string `json:"session_id"`
	Category  string `json:"category"`
	Message   string `json:"message"`
}

type groundingPassage struct {
	Document string  `json:"document"`
	Passage  int     `json:"passage"`
	Score    float32 `json:"score"`
}

type askResponse struct {
	SessionID string             `json:"session_id"`
	Answer    string             `json:"answer"`
	Source    string             `json:"source"`
	Sources   []groundingPassage `json:"sources"`
}

type ingestRequest struct {
	Category     string `json:"category"`
	Source       string `json:"source"`
	ChunkSize    int    `json:"chunk_size"`
	ChunkOverlap int    `json:"chunk_overlap"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	answer, err := s.engine.Ask(r.Context(), sessionID, req.Category, req.Message)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, askResponse{
		SessionID: sessionID,
		Answer:    answer.Text,
		Source:    string(answer.Source),
		Sources:   groundingOf(answer.Grounding),
	})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Source == "" {
		writeError(w, http.StatusBadRequest, "source is required")
		return
	}

	chunkCfg := config.ChunkConfig{Size: req.ChunkSize, Overlap: req.ChunkOverlap}
	result, err := s.engine.Ingest(r.Context(), req.Category, req.Source, chunkCfg, nil)
	if err != nil {
		var invalid *category.ErrInvalid
		if errors.As(err, &invalid) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats := s.engine.Registry().All()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": names})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session id is required")
		return
	}

	turns, err := s.engine.ExportHistory(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if turns == nil {
		turns = []session.Turn{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"turns":      turns,
	})
}

func groundingOf(results []vectordb.Result) []groundingPassage {
	out := make([]groundingPassage, 0, len(results))
	for _, r := range results {
		out = append(out, groundingPassage{
			Document: r.Passage.Document,
			Passage:  r.Passage.Index + 1,
			Score:    r.Similarity,
		})
	}
	return out
}

// writeValidationError maps engine input errors to 400s; anything else is a
// server fault (degraded conditions never reach here, they resolve to
// answers inside the engine).
func writeValidationError(w http.ResponseWriter, err error) {
	var invalid *category.ErrInvalid
	if errors.As(err, &invalid) || errors.Is(err, engine.ErrEmptyQuery) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
