package handlers

import (
	"errors"
	"net/http"
	"notes-api/db"
	"notes-api/models"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type createNoteRequest struct {
	Text string `json:"text"`
}

// updateNoteRequest is the allow-list for PATCH, unknown fields are dropped.
// Completed stays untyped: only a JSON true completes a note.
type updateNoteRequest struct {
	Title     *string `json:"title"`
	Text      *string `json:"text"`
	IsTodo    *bool   `json:"isTodo"`
	Completed any     `json:"completed"`
}

// noteID parses the {id} URL param. Malformed ids answer 404 like unknown ones.
func noteID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := models.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return id, false
	}
	return id, true
}

func (h *Handler) noteResult(w http.ResponseWriter, r *http.Request, note *models.Note, err error) {
	if errors.Is(err, db.ErrNotFound) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err != nil {
		respondFailure(w, r, err, http.StatusBadRequest, "note lookup failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]*models.Note{"note": note})
}

func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req createNoteRequest
	if !decodeBody(r, &req) {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	note := models.NewNote(req.Text)
	if err := note.Validate(); err != nil {
		respondFailure(w, r, err, http.StatusBadRequest, "invalid note")
		return
	}
	if err := h.notes.InsertNote(r.Context(), note); err != nil {
		respondFailure(w, r, err, http.StatusBadRequest, "could not save note")
		return
	}
	respondJSON(w, http.StatusOK, note)
}

func (h *Handler) GetNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.notes.ListNotes(r.Context())
	if err != nil {
		respondFailure(w, r, err, http.StatusBadRequest, "could not list notes")
		return
	}
	respondJSON(w, http.StatusOK, map[string][]models.Note{"notes": notes})
}

func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	note, err := h.notes.FindNote(r.Context(), id)
	h.noteResult(w, r, note, err)
}

func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	note, err := h.notes.DeleteNote(r.Context(), id)
	h.noteResult(w, r, note, err)
}

func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}

	var req updateNoteRequest
	if !decodeBody(r, &req) {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	update := models.NewNoteUpdate(req.Title, req.Text, req.IsTodo, req.Completed, time.Now())
	if err := update.Validate(); err != nil {
		respondFailure(w, r, err, http.StatusBadRequest, "invalid note")
		return
	}
	note, err := h.notes.UpdateNote(r.Context(), id, update)
	h.noteResult(w, r, note, err)
}
