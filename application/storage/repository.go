package storage

import (
	"context"
	"encoding/json"
	"strings"

	"notevault/domain/config"
	"notevault/domain/core/entities"
	"notevault/domain/core/validators"
	pkgerrors "notevault/pkg/errors"

	"go.uber.org/zap"
)

// Repository is the validating persistence layer for the three collections.
// Every write goes through the shadow layer, every read validates the
// stored payload before trusting it and falls back to shadow snapshots when
// the primary is damaged. Errors are reserved for primitive faults; damaged
// data degrades through the ReadOutcome instead of failing the call.
type Repository struct {
	shadows *ShadowWriter
	cfg     *config.DomainConfig
	logger  *zap.Logger
}

// NewRepository creates a validating repository over the shadow layer
func NewRepository(shadows *ShadowWriter, cfg *config.DomainConfig, logger *zap.Logger) *Repository {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &Repository{
		shadows: shadows,
		cfg:     cfg,
		logger:  logger,
	}
}

// Shadows exposes the shadow layer for the auditor and repair routines
func (r *Repository) Shadows() *ShadowWriter {
	return r.shadows
}

// Config exposes the domain configuration in effect
func (r *Repository) Config() *config.DomainConfig {
	return r.cfg
}

// GetNotes loads the note collection, recovering from shadows when needed
func (r *Repository) GetNotes(ctx context.Context) ([]entities.Note, ReadOutcome, error) {
	raw, outcome, err := r.resolveRaw(ctx, KeyNotes, validators.ValidateNotesJSON)
	if err != nil {
		return nil, outcome, err
	}
	if outcome == ReadAbsent || outcome == ReadUnrecoverable {
		return []entities.Note{}, outcome, nil
	}

	var notes []entities.Note
	if err := json.Unmarshal([]byte(raw), &notes); err != nil {
		return nil, outcome, pkgerrors.NewStorageError("decode notes", err)
	}
	return notes, outcome, nil
}

// AddNote validates and appends a note to the collection
func (r *Repository) AddNote(ctx context.Context, note *entities.Note) error {
	if err := note.Validate(); err != nil {
		return err
	}
	if err := r.requireCategory(ctx, note.CategoryID); err != nil {
		return err
	}

	notes, _, err := r.GetNotes(ctx)
	if err != nil {
		return err
	}
	for _, existing := range notes {
		if existing.ID == note.ID {
			return pkgerrors.NewConflictError("note " + note.ID + " already exists")
		}
	}

	notes = append(notes, *note)
	return r.shadows.Write(ctx, KeyNotes, notes)
}

// UpdateNote replaces an existing note, preserving its creation timestamp
func (r *Repository) UpdateNote(ctx context.Context, note *entities.Note) error {
	if err := note.Validate(); err != nil {
		return err
	}
	if err := r.requireCategory(ctx, note.CategoryID); err != nil {
		return err
	}

	notes, _, err := r.GetNotes(ctx)
	if err != nil {
		return err
	}

	for i := range notes {
		if notes[i].ID != note.ID {
			continue
		}
		note.CreatedAt = notes[i].CreatedAt
		note.Touch()
		note.Label = note.DeriveLabel(r.cfg)
		notes[i] = *note
		return r.shadows.Write(ctx, KeyNotes, notes)
	}
	return pkgerrors.NewNotFoundError("note " + note.ID)
}

// DeleteNote removes a note from the collection
func (r *Repository) DeleteNote(ctx context.Context, noteID string) error {
	notes, _, err := r.GetNotes(ctx)
	if err != nil {
		return err
	}

	kept := notes[:0]
	found := false
	for _, note := range notes {
		if note.ID == noteID {
			found = true
			continue
		}
		kept = append(kept, note)
	}
	if !found {
		return pkgerrors.NewNotFoundError("note " + noteID)
	}
	return r.shadows.Write(ctx, KeyNotes, kept)
}

// GetCategories loads the category collection, recovering from shadows when needed
func (r *Repository) GetCategories(ctx context.Context) ([]entities.Category, ReadOutcome, error) {
	raw, outcome, err := r.resolveRaw(ctx, KeyCategories, validators.ValidateCategoriesJSON)
	if err != nil {
		return nil, outcome, err
	}
	if outcome == ReadAbsent || outcome == ReadUnrecoverable {
		return []entities.Category{}, outcome, nil
	}

	var categories []entities.Category
	if err := json.Unmarshal([]byte(raw), &categories); err != nil {
		return nil, outcome, pkgerrors.NewStorageError("decode categories", err)
	}
	return categories, outcome, nil
}

// AddCategory validates and appends a category to the collection
func (r *Repository) AddCategory(ctx context.Context, category *entities.Category) error {
	if err := category.Validate(); err != nil {
		return err
	}

	categories, _, err := r.GetCategories(ctx)
	if err != nil {
		return err
	}
	for _, existing := range categories {
		if existing.ID == category.ID {
			return pkgerrors.NewConflictError("category " + category.ID + " already exists")
		}
	}

	categories = append(categories, *category)
	return r.shadows.Write(ctx, KeyCategories, categories)
}

// UpdateCategory replaces an existing category
func (r *Repository) UpdateCategory(ctx context.Context, category *entities.Category) error {
	if err := category.Validate(); err != nil {
		return err
	}

	categories, _, err := r.GetCategories(ctx)
	if err != nil {
		return err
	}

	for i := range categories {
		if categories[i].ID != category.ID {
			continue
		}
		category.CreatedAt = categories[i].CreatedAt
		categories[i] = *category
		return r.shadows.Write(ctx, KeyCategories, categories)
	}
	return pkgerrors.NewNotFoundError("category " + category.ID)
}

// DeleteCategory removes a category. The default category is protected and
// cannot be deleted, and a category still referenced by any note or by the
// settings default is blocked until those references are moved or deleted.
func (r *Repository) DeleteCategory(ctx context.Context, categoryID string) error {
	if categoryID == r.cfg.DefaultCategoryID {
		return pkgerrors.NewProtectedRecordError("the default category")
	}

	categories, _, err := r.GetCategories(ctx)
	if err != nil {
		return err
	}

	kept := categories[:0]
	found := false
	for _, category := range categories {
		if category.ID == categoryID {
			found = true
			continue
		}
		kept = append(kept, category)
	}
	if !found {
		return pkgerrors.NewNotFoundError("category " + categoryID)
	}

	notes, _, err := r.GetNotes(ctx)
	if err != nil {
		return err
	}
	for _, note := range notes {
		if note.CategoryID == categoryID {
			return pkgerrors.NewReferentialIntegrityError(
				"category " + categoryID + " is still referenced by notes")
		}
	}

	settings, _, err := r.GetSettings(ctx)
	if err != nil {
		return err
	}
	if settings.DefaultCategoryID == categoryID {
		return pkgerrors.NewReferentialIntegrityError(
			"category " + categoryID + " is the settings default category")
	}

	return r.shadows.Write(ctx, KeyCategories, kept)
}

// GetSettings loads the settings record, falling back to defaults when it
// is absent or unrecoverable. Out-of-range values are normalized in memory;
// persisting the normalized record is the repair routine's job.
func (r *Repository) GetSettings(ctx context.Context) (*entities.AppSettings, ReadOutcome, error) {
	raw, outcome, err := r.resolveRaw(ctx, KeySettings, validators.ValidateSettingsJSON)
	if err != nil {
		return nil, outcome, err
	}
	if outcome == ReadAbsent || outcome == ReadUnrecoverable {
		return entities.DefaultSettings(r.cfg), outcome, nil
	}

	var settings entities.AppSettings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return nil, outcome, pkgerrors.NewStorageError("decode settings", err)
	}
	if settings.Normalize(r.cfg) {
		r.logger.Warn("Settings contained out-of-range values, using defaults for them")
	}
	return &settings, outcome, nil
}

// StoreSettings validates and replaces the settings record wholesale
func (r *Repository) StoreSettings(ctx context.Context, settings *entities.AppSettings) error {
	if settings == nil {
		return pkgerrors.NewValidationError("settings are required")
	}
	if strings.TrimSpace(settings.DefaultCategoryID) == "" {
		return pkgerrors.NewValidationError("settings default category id is required")
	}
	if !entities.ValidAudioQuality(settings.AudioQuality) {
		return pkgerrors.NewValidationError("invalid audio quality " + string(settings.AudioQuality))
	}
	if !entities.ValidThemeMode(settings.ThemeMode) {
		return pkgerrors.NewValidationError("invalid theme mode " + string(settings.ThemeMode))
	}
	return r.shadows.Write(ctx, KeySettings, settings)
}

// InitializeStorage seeds the collections on first run and migrates legacy
// notes that predate derived labels. The call is idempotent; existing data
// is only touched by the label migration.
func (r *Repository) InitializeStorage(ctx context.Context) error {
	categories, outcome, err := r.GetCategories(ctx)
	if err != nil {
		return err
	}
	hasDefault := false
	for _, category := range categories {
		if category.ID == r.cfg.DefaultCategoryID {
			hasDefault = true
			break
		}
	}
	if outcome == ReadAbsent || !hasDefault {
		categories = append(categories, *entities.DefaultCategory(r.cfg))
		if err := r.shadows.Write(ctx, KeyCategories, categories); err != nil {
			return err
		}
		r.logger.Info("Seeded default category")
	}

	notes, outcome, err := r.GetNotes(ctx)
	if err != nil {
		return err
	}
	if outcome == ReadAbsent {
		if err := r.shadows.Write(ctx, KeyNotes, []entities.Note{}); err != nil {
			return err
		}
	} else {
		migrated := 0
		for i := range notes {
			if strings.TrimSpace(notes[i].Label) == "" {
				notes[i].Label = notes[i].DeriveLabel(r.cfg)
				migrated++
			}
		}
		if migrated > 0 {
			if err := r.shadows.Write(ctx, KeyNotes, notes); err != nil {
				return err
			}
			r.logger.Info("Migrated notes to derived labels", zap.Int("count", migrated))
		}
	}

	_, outcome, err = r.GetSettings(ctx)
	if err != nil {
		return err
	}
	if outcome == ReadAbsent {
		if err := r.shadows.Write(ctx, KeySettings, entities.DefaultSettings(r.cfg)); err != nil {
			return err
		}
		r.logger.Info("Seeded default settings")
	}

	return nil
}

// ClearAllData removes every primary collection and all of its shadows
func (r *Repository) ClearAllData(ctx context.Context) error {
	for _, key := range PrimaryKeys() {
		if err := r.shadows.RemoveAll(ctx, key); err != nil {
			return err
		}
		if err := r.shadows.Adapter().Remove(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// requireCategory verifies that a referenced category exists. An empty
// reference is allowed; the note simply has no category.
func (r *Repository) requireCategory(ctx context.Context, categoryID string) error {
	if categoryID == "" {
		return nil
	}
	categories, _, err := r.GetCategories(ctx)
	if err != nil {
		return err
	}
	for _, category := range categories {
		if category.ID == categoryID {
			return nil
		}
	}
	return pkgerrors.NewReferentialIntegrityError("category " + categoryID + " does not exist")
}

// resolveRaw loads and validates the raw payload for a primary key. When
// the primary is damaged it promotes the newest valid shadow snapshot back
// to the primary key, verbatim. Errors are returned only for primitive
// faults; a damaged payload with no usable shadow yields ReadUnrecoverable.
func (r *Repository) resolveRaw(ctx context.Context, key string, validate func([]byte) error) (string, ReadOutcome, error) {
	raw, found, err := r.shadows.Adapter().GetRaw(ctx, key)
	if err != nil {
		return "", ReadAbsent, err
	}
	if !found {
		return "", ReadAbsent, nil
	}

	validationErr := validate([]byte(raw))
	if validationErr == nil {
		return raw, ReadLoaded, nil
	}
	r.logger.Warn("Primary payload failed validation, attempting shadow recovery",
		zap.String("key", key),
		zap.Error(validationErr),
	)

	shadows, err := r.shadows.Shadows(ctx, key)
	if err != nil {
		return "", ReadAbsent, err
	}

	for _, shadow := range shadows {
		candidate, found, err := r.shadows.Adapter().GetRaw(ctx, shadow.Key)
		if err != nil || !found {
			continue
		}
		if err := validate([]byte(candidate)); err != nil {
			r.logger.Warn("Shadow snapshot also failed validation",
				zap.String("shadow", shadow.Key),
				zap.Error(err),
			)
			continue
		}

		if err := r.shadows.WriteRaw(ctx, key, candidate); err != nil {
			r.logger.Error("Failed to promote shadow snapshot to primary",
				zap.String("shadow", shadow.Key),
				zap.Error(err),
			)
		} else {
			r.logger.Info("Recovered primary from shadow snapshot",
				zap.String("key", key),
				zap.String("shadow", shadow.Key),
			)
		}
		return candidate, ReadRecovered, nil
	}

	r.logger.Error("No usable shadow snapshot, returning empty default",
		zap.String("key", key),
	)
	return "", ReadUnrecoverable, nil
}
