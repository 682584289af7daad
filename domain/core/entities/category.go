package entities

import (
	"strings"

	"notevault/domain/config"
	pkgerrors "notevault/pkg/errors"
	"notevault/pkg/utils"

	"github.com/google/uuid"
)

// Category is a user-defined grouping with a color tag
type Category struct {
	ID        string `json:"id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Color     string `json:"color" validate:"required"`
	CreatedAt string `json:"createdAt"`
}

// NewCategory creates a new category with validation
func NewCategory(name, color string) (*Category, error) {
	if strings.TrimSpace(name) == "" {
		return nil, pkgerrors.NewValidationError("category name cannot be empty")
	}
	if strings.TrimSpace(color) == "" {
		return nil, pkgerrors.NewValidationError("category color cannot be empty")
	}

	return &Category{
		ID:        uuid.New().String(),
		Name:      name,
		Color:     color,
		CreatedAt: utils.NowRFC3339(),
	}, nil
}

// DefaultCategory returns the protected default category. It must always
// exist and can never be deleted.
func DefaultCategory(cfg *config.DomainConfig) *Category {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &Category{
		ID:        cfg.DefaultCategoryID,
		Name:      cfg.DefaultCategoryName,
		Color:     cfg.DefaultCategoryColor,
		CreatedAt: utils.NowRFC3339(),
	}
}

// Validate checks that the required fields of a category are present
func (c *Category) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return pkgerrors.NewValidationError("category id is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return pkgerrors.NewValidationError("category name is required")
	}
	if strings.TrimSpace(c.Color) == "" {
		return pkgerrors.NewValidationError("category color is required")
	}
	return nil
}

// IsProtected reports whether the category is the undeletable default
func (c *Category) IsProtected(cfg *config.DomainConfig) bool {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return c.ID == cfg.DefaultCategoryID
}
