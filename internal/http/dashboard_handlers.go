package httpx

import (
	"net/http"

	"github.com/TiwariV18/FinTrack/internal/domain"
)

func (r *Router) handleStats(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	userID, ok := r.currentUser(w, req)
	if !ok {
		return
	}
	stats, err := r.dashboard.Stats(req.Context(), userID)
	if err != nil {
		r.writeServiceError(w, req, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleCategories returns per-category totals for ?kind=income|expense (default expense).
func (r *Router) handleCategories(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	userID, ok := r.currentUser(w, req)
	if !ok {
		return
	}
	kind := domain.KindExpense
	if raw := req.URL.Query().Get("kind"); raw != "" {
		parsed, err := domain.ParseKind(raw)
		if err != nil {
			r.writeServiceError(w, req, err, http.StatusBadRequest)
			return
		}
		kind = parsed
	}
	totals, err := r.dashboard.Categories(req.Context(), kind, userID)
	if err != nil {
		r.writeServiceError(w, req, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"kind":       kind,
		"categories": totals,
	})
}
