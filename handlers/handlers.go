package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"notes-api/auth"
	"notes-api/db"
	"notes-api/models"

	"github.com/rs/zerolog"
)

type Handler struct {
	notes db.NoteStore
	auth  *auth.Service
}

func New(notes db.NoteStore, svc *auth.Service) *Handler {
	return &Handler{notes: notes, auth: svc}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

type validationResponse struct {
	Error  string              `json:"error"`
	Errors []models.FieldError `json:"errors"`
}

// respondFailure answers 400 with the field violations when err is a
// validation error, otherwise it logs err and answers status with message.
func respondFailure(w http.ResponseWriter, r *http.Request, err error, status int, message string) {
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		respondJSON(w, http.StatusBadRequest, validationResponse{Error: ve.Error(), Errors: ve.Errors})
		return
	}
	zerolog.Ctx(r.Context()).Error().Err(err).Msg(message)
	respondError(w, status, message)
}

// decodeBody decodes a JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	return err == nil || errors.Is(err, io.EOF)
}
