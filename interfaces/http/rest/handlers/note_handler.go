package handlers

import (
	"encoding/json"
	"net/http"

	"notevault/application/storage"
	"notevault/domain/core/entities"
	"notevault/pkg/common"
	pkgerrors "notevault/pkg/errors"
	"notevault/pkg/utils"

	"github.com/go-chi/chi/v5"
)

// NoteHandler handles note-related HTTP requests
type NoteHandler struct {
	repo   *storage.Repository
	errors *pkgerrors.ErrorHandler
}

// NewNoteHandler creates a new note handler
func NewNoteHandler(repo *storage.Repository, errors *pkgerrors.ErrorHandler) *NoteHandler {
	return &NoteHandler{
		repo:   repo,
		errors: errors,
	}
}

// CreateNoteRequest represents the request body for creating a note
type CreateNoteRequest struct {
	Content       string  `json:"content" validate:"required"`
	Type          string  `json:"type" validate:"required,oneof=text voice"`
	CategoryID    string  `json:"categoryId,omitempty"`
	AudioDuration float64 `json:"audioDuration,omitempty" validate:"omitempty,gte=0"`
}

// UpdateNoteRequest represents the request body for updating a note
type UpdateNoteRequest struct {
	Content       string  `json:"content" validate:"required"`
	Type          string  `json:"type" validate:"required,oneof=text voice"`
	CategoryID    string  `json:"categoryId,omitempty"`
	AudioDuration float64 `json:"audioDuration,omitempty" validate:"omitempty,gte=0"`
}

// ListNotesResponse carries the collection plus how the read was satisfied
type ListNotesResponse struct {
	Notes    []entities.Note `json:"notes"`
	Degraded bool            `json:"degraded,omitempty"`
}

// ListNotes handles GET /notes
func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, outcome, err := h.repo.GetNotes(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, ListNotesResponse{
		Notes:    notes,
		Degraded: outcome.Degraded(),
	})
}

// CreateNote handles POST /notes
func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	note, err := entities.NewNote(req.Content, entities.NoteType(req.Type), req.CategoryID, h.repo.Config())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if req.AudioDuration > 0 {
		note.AudioDuration = req.AudioDuration
		note.Label = note.DeriveLabel(h.repo.Config())
	}

	if err := h.repo.AddNote(r.Context(), note); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, note)
}

// UpdateNote handles PUT /notes/{noteID}
func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	noteID := chi.URLParam(r, "noteID")
	if noteID == "" {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Note ID is required")
		return
	}

	var req UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	note := &entities.Note{
		ID:            noteID,
		Content:       req.Content,
		Type:          entities.NoteType(req.Type),
		CategoryID:    req.CategoryID,
		AudioDuration: req.AudioDuration,
	}

	if err := h.repo.UpdateNote(r.Context(), note); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /notes/{noteID}
func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	noteID := chi.URLParam(r, "noteID")
	if noteID == "" {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Note ID is required")
		return
	}

	if err := h.repo.DeleteNote(r.Context(), noteID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]string{
		"id":      noteID,
		"message": "Note deleted successfully",
	})
}
