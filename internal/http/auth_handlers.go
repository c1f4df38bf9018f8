package httpx

import (
	"net/http"

	"github.com/TiwariV18/FinTrack/internal/domain"
)

type grantResponse struct {
	Message string            `json:"message"`
	Token   string            `json:"token"`
	User    domain.PublicUser `json:"user"`
}

func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload domain.Registration
	if err := r.decodeJSON(w, req, &payload); err != nil {
		r.writeServiceError(w, req, err, http.StatusBadRequest)
		return
	}
	grant, err := r.auth.Register(req.Context(), payload)
	if err != nil {
		r.writeServiceError(w, req, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, grantResponse{
		Message: "User registered successfully",
		Token:   grant.Token,
		User:    grant.User.Public(),
	})
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload domain.Credentials
	if err := r.decodeJSON(w, req, &payload); err != nil {
		r.writeServiceError(w, req, err, http.StatusBadRequest)
		return
	}
	grant, err := r.auth.Login(req.Context(), payload)
	if err != nil {
		r.writeServiceError(w, req, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, grantResponse{
		Message: "Login successful",
		Token:   grant.Token,
		User:    grant.User.Public(),
	})
}

func (r *Router) handleMe(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	userID, ok := r.currentUser(w, req)
	if !ok {
		return
	}
	user, err := r.auth.Profile(req.Context(), userID)
	if err != nil {
		r.writeServiceError(w, req, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}
