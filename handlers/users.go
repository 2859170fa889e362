package handlers

import (
	"net/http"
	"notes-api/middleware"

	"github.com/rs/zerolog"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeBody(r, &req) {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		respondFailure(w, r, err, http.StatusBadRequest, "could not register user")
		return
	}
	w.Header().Set(middleware.AuthHeader, token)
	respondJSON(w, http.StatusOK, user)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// Login answers every failure with the same empty 400 so callers cannot
// tell an unknown email from a wrong password.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeBody(r, &req) {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	user, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		zerolog.Ctx(r.Context()).Debug().Err(err).Msg("login failed")
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.Header().Set(middleware.AuthHeader, token)
	respondJSON(w, http.StatusOK, user)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	token, _ := middleware.TokenFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if err := h.auth.RemoveToken(r.Context(), user, token); err != nil {
		respondFailure(w, r, err, http.StatusBadRequest, "could not log out")
		return
	}
	w.WriteHeader(http.StatusOK)
}
