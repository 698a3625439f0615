package search

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/moogar0880/problems"
)

// Searcher runs candidate searches.
type Searcher interface {
	Search(ctx context.Context, f Filter) (Page, error)
}

// Handler serves GET /search. It needs no company header: search is the
// candidate-facing surface.
type Handler struct {
	searcher Searcher
}

// NewHandler returns a configured Handler.
func NewHandler(s Searcher) *Handler {
	return &Handler{searcher: s}
}

// RegisterRoutes mounts the search route on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/search", h.handleSearch)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeProblem(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		writeProblem(w, r, http.StatusBadRequest, err.Error())
		return
	}
	page, err := h.searcher.Search(r.Context(), f)
	if err != nil {
		slog.Error("search failed", "err", err)
		writeProblem(w, r, http.StatusBadGateway, "search backend unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(page)
}

func writeProblem(w http.ResponseWriter, r *http.Request, code int, detail string) {
	p := problems.NewStatusProblem(code).WithInstance(r.URL.Path).WithDetail(detail)
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(p)
}
