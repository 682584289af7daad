package handlers

import (
	"encoding/json"
	"net/http"

	"notevault/application/storage"
	"notevault/domain/core/entities"
	"notevault/pkg/common"
	pkgerrors "notevault/pkg/errors"
	"notevault/pkg/utils"
)

// SettingsHandler handles settings-related HTTP requests
type SettingsHandler struct {
	repo   *storage.Repository
	errors *pkgerrors.ErrorHandler
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(repo *storage.Repository, errors *pkgerrors.ErrorHandler) *SettingsHandler {
	return &SettingsHandler{
		repo:   repo,
		errors: errors,
	}
}

// UpdateSettingsRequest represents the request body for replacing settings
type UpdateSettingsRequest struct {
	DefaultCategoryID string `json:"defaultCategoryId" validate:"required"`
	AudioQuality      string `json:"audioQuality" validate:"required,oneof=low medium high"`
	ThemeMode         string `json:"themeMode" validate:"required,oneof=light dark system"`
}

// GetSettings handles GET /settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, _, err := h.repo.GetSettings(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, settings)
}

// UpdateSettings handles PUT /settings
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	settings := &entities.AppSettings{
		DefaultCategoryID: req.DefaultCategoryID,
		AudioQuality:      entities.AudioQuality(req.AudioQuality),
		ThemeMode:         entities.ThemeMode(req.ThemeMode),
	}

	if err := h.repo.StoreSettings(r.Context(), settings); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, settings)
}
