package service

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/yourusername/spread-edge/internal/models"
)

// Router is anything routes can be mounted on
type Router interface {
	Handle(pattern string, handler http.Handler)
}

// Handler exposes a LiveService as read-only JSON endpoints
type Handler struct {
	svc *LiveService
}

// NewHandler creates the HTTP handler set for svc
func NewHandler(svc *LiveService) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the ratings and edges routes
func (h *Handler) Register(r Router) {
	r.Handle("GET /ratings", http.HandlerFunc(h.ratings))
	r.Handle("GET /ratings/{team}", http.HandlerFunc(h.rating))
	r.Handle("GET /edges", http.HandlerFunc(h.edges))
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotReady):
		status = http.StatusServiceUnavailable
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (h *Handler) ratings(w http.ResponseWriter, r *http.Request) {
	ratings, err := h.svc.Ratings()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ratings)
}

func (h *Handler) rating(w http.ResponseWriter, r *http.Request) {
	team := r.PathValue("team")
	rating, err := h.svc.Rating(team)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"team": team, "rating": rating})
}

func (h *Handler) edges(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	season, err := strconv.Atoi(q.Get("season"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "season must be an integer"})
		return
	}
	week, err := strconv.Atoi(q.Get("week"))
	if err != nil || week < 1 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "week must be a positive integer"})
		return
	}

	edges, err := h.svc.Edges(r.Context(), season, week)
	if err != nil {
		writeError(w, err)
		return
	}
	if q.Get("qualified") == "true" {
		kept := make([]models.Edge, 0, len(edges))
		for _, e := range edges {
			if e.Qualifies {
				kept = append(kept, e)
			}
		}
		edges = kept
	}
	writeJSON(w, http.StatusOK, edges)
}
