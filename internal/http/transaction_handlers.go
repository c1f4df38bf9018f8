package httpx

import (
	"net/http"
	"strings"

	"github.com/TiwariV18/FinTrack/internal/domain"
)

// handleCollection serves GET (list) and POST (create) on /income and /expense.
func (r *Router) handleCollection(kind domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			r.listTransactions(w, req, kind)
		case http.MethodPost:
			r.createTransaction(w, req, kind)
		default:
			r.methodNotAllowed(w)
		}
	}
}

// handleCreateOnly serves the legacy POST /income/add path.
func (r *Router) handleCreateOnly(kind domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			r.methodNotAllowed(w)
			return
		}
		r.createTransaction(w, req, kind)
	}
}

// handleItem serves PUT and DELETE on /income/{id} and /expense/{id}.
func (r *Router) handleItem(kind domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id := itemID(req.URL.Path, kind)
		if id == "" {
			r.notFound(w)
			return
		}
		switch req.Method {
		case http.MethodPut:
			r.updateTransaction(w, req, kind, id)
		case http.MethodDelete:
			r.deleteTransaction(w, req, kind, id)
		default:
			r.methodNotAllowed(w)
		}
	}
}

// itemID extracts the trailing id segment. Nested paths yield "".
func itemID(path string, kind domain.Kind) string {
	marker := "/" + string(kind) + "/"
	idx := strings.Index(path, marker)
	if idx < 0 {
		return ""
	}
	id := strings.TrimSuffix(path[idx+len(marker):], "/")
	if id == "" || strings.Contains(id, "/") {
		return ""
	}
	return id
}

func (r *Router) createTransaction(w http.ResponseWriter, req *http.Request, kind domain.Kind) {
	userID, ok := r.currentUser(w, req)
	if !ok {
		return
	}
	var payload domain.TransactionInput
	if err := r.decodeJSON(w, req, &payload); err != nil {
		r.writeServiceError(w, req, err, http.StatusBadRequest)
		return
	}
	txn, err := r.ledger.Create(req.Context(), kind, userID, payload)
	if err != nil {
		r.writeServiceError(w, req, err, http.StatusBadRequest)
		return
	}
	r.recordMutation(string(kind), "create")
	writeJSON(w, http.StatusCreated, map[string]any{
		"success":    true,
		string(kind): txn,
	})
}

func (r *Router) listTransactions(w http.ResponseWriter, req *http.Request, kind domain.Kind) {
	userID, ok := r.currentUser(w, req)
	if !ok {
		return
	}
	items, err := r.ledger.List(req.Context(), kind, userID)
	if err != nil {
		r.writeServiceError(w, req, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		kind.Plural(): items,
	})
}

func (r *Router) updateTransaction(w http.ResponseWriter, req *http.Request, kind domain.Kind, id string) {
	userID, ok := r.currentUser(w, req)
	if !ok {
		return
	}
	var payload domain.TransactionInput
	if err := r.decodeJSON(w, req, &payload); err != nil {
		r.writeServiceError(w, req, err, http.StatusBadRequest)
		return
	}
	txn, err := r.ledger.Update(req.Context(), kind, userID, id, payload)
	if err != nil {
		r.writeServiceError(w, req, err, http.StatusInternalServerError)
		return
	}
	r.recordMutation(string(kind), "update")
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    kind.Label() + " updated successfully",
		string(kind): txn,
	})
}

func (r *Router) deleteTransaction(w http.ResponseWriter, req *http.Request, kind domain.Kind, id string) {
	userID, ok := r.currentUser(w, req)
	if !ok {
		return
	}
	if _, err := r.ledger.Delete(req.Context(), kind, userID, id); err != nil {
		r.writeServiceError(w, req, err, http.StatusBadRequest)
		return
	}
	r.recordMutation(string(kind), "delete")
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": kind.Label() + " deleted successfully",
	})
}
