package handlers

import (
	"encoding/json"
	"net/http"

	"notevault/application/backup"
	"notevault/pkg/common"
	pkgerrors "notevault/pkg/errors"

	"github.com/go-chi/chi/v5"
)

// BackupHandler handles backup-related HTTP requests
type BackupHandler struct {
	orchestrator *backup.Orchestrator
	errors       *pkgerrors.ErrorHandler
}

// NewBackupHandler creates a new backup handler
func NewBackupHandler(orchestrator *backup.Orchestrator, errors *pkgerrors.ErrorHandler) *BackupHandler {
	return &BackupHandler{
		orchestrator: orchestrator,
		errors:       errors,
	}
}

// CreateBackupRequest represents the request body for creating a backup
type CreateBackupRequest struct {
	Source string `json:"source,omitempty"`
}

// ListBackups handles GET /backups
func (h *BackupHandler) ListBackups(w http.ResponseWriter, r *http.Request) {
	backups, err := h.orchestrator.GetAvailableBackups(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"backups": backups,
	})
}

// CreateBackup handles POST /backups
func (h *BackupHandler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	var req CreateBackupRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Invalid request body: "+err.Error())
			return
		}
	}

	info, err := h.orchestrator.CreateBackup(r.Context(), backup.BackupSource(req.Source))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, info)
}

// RestoreBackup handles POST /backups/{backupID}/restore
func (h *BackupHandler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	backupID := chi.URLParam(r, "backupID")
	if backupID == "" {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Backup ID is required")
		return
	}

	summary, err := h.orchestrator.RestoreFromBackup(r.Context(), backupID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"id":      backupID,
		"message": "Backup restored successfully",
		"summary": summary,
	})
}

// DeleteBackup handles DELETE /backups/{backupID}
func (h *BackupHandler) DeleteBackup(w http.ResponseWriter, r *http.Request) {
	backupID := chi.URLParam(r, "backupID")
	if backupID == "" {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Backup ID is required")
		return
	}

	if err := h.orchestrator.DeleteBackup(r.Context(), backupID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]string{
		"id":      backupID,
		"message": "Backup deleted successfully",
	})
}
