package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"notevault/application/storage"
	"notevault/domain/core/entities"
	"notevault/pkg/common"
	pkgerrors "notevault/pkg/errors"
	"notevault/pkg/utils"

	"github.com/go-chi/chi/v5"
)

// CategoryHandler handles category-related HTTP requests
type CategoryHandler struct {
	repo   *storage.Repository
	errors *pkgerrors.ErrorHandler
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(repo *storage.Repository, errors *pkgerrors.ErrorHandler) *CategoryHandler {
	return &CategoryHandler{
		repo:   repo,
		errors: errors,
	}
}

// CategoryRequest represents the request body for creating or updating a category
type CategoryRequest struct {
	Name  string `json:"name" validate:"required,max=50"`
	Color string `json:"color" validate:"required,max=20"`
}

// ListCategories handles GET /categories
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, outcome, err := h.repo.GetCategories(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
		"degraded":   outcome.Degraded(),
	})
}

// CreateCategory handles POST /categories
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	// Names are unique ignoring case so "Work" and "work" cannot coexist
	existing, _, err := h.repo.GetCategories(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	for _, category := range existing {
		if strings.EqualFold(category.Name, req.Name) {
			common.RespondError(w, http.StatusConflict, "CONFLICT", "A category with this name already exists")
			return
		}
	}

	category, err := entities.NewCategory(req.Name, req.Color)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	if err := h.repo.AddCategory(r.Context(), category); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, category)
}

// UpdateCategory handles PUT /categories/{categoryID}
func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "categoryID")
	if categoryID == "" {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Category ID is required")
		return
	}

	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	existing, _, err := h.repo.GetCategories(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	for _, category := range existing {
		if category.ID != categoryID && strings.EqualFold(category.Name, req.Name) {
			common.RespondError(w, http.StatusConflict, "CONFLICT", "A category with this name already exists")
			return
		}
	}

	category := &entities.Category{
		ID:    categoryID,
		Name:  req.Name,
		Color: req.Color,
	}

	if err := h.repo.UpdateCategory(r.Context(), category); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, category)
}

// DeleteCategory handles DELETE /categories/{categoryID}
func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "categoryID")
	if categoryID == "" {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "Category ID is required")
		return
	}

	if err := h.repo.DeleteCategory(r.Context(), categoryID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]string{
		"id":      categoryID,
		"message": "Category deleted successfully",
	})
}
