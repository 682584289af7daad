package integrity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"notevault/application/storage"
	"notevault/domain/config"
	"notevault/domain/core/entities"

	"go.uber.org/zap"
)

// Repairer fixes the issues the auditor can detect. Every step is
// idempotent: running a repair twice leaves the vault in the same state,
// and a second run on a healthy vault repairs nothing. Repairs go through
// the repository so that damaged primaries get shadow recovery as part of
// the run.
type Repairer struct {
	repo   *storage.Repository
	cfg    *config.DomainConfig
	logger *zap.Logger
}

// NewRepairer creates a repairer over the repository
func NewRepairer(repo *storage.Repository, cfg *config.DomainConfig, logger *zap.Logger) *Repairer {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &Repairer{
		repo:   repo,
		cfg:    cfg,
		logger: logger,
	}
}

// Repair runs every repair step and reports what was fixed. Step failures
// are collected rather than aborting the run.
func (r *Repairer) Repair(ctx context.Context) *RepairResult {
	result := &RepairResult{}

	r.repairCategories(ctx, result)
	r.repairNotes(ctx, result)
	r.repairSettings(ctx, result)
	r.pruneShadows(ctx, result)

	r.logger.Info("Repair completed",
		zap.Int("repaired", result.Repaired),
		zap.Int("errors", len(result.Errors)),
	)
	return result
}

// record tallies fixes and keeps a human readable trail of what happened
func (res *RepairResult) record(fixes int, action string) {
	res.Repaired += fixes
	res.Actions = append(res.Actions, action)
}

// repairCategories ensures the default category exists
func (r *Repairer) repairCategories(ctx context.Context, result *RepairResult) {
	categories, outcome, err := r.repo.GetCategories(ctx)
	if err != nil {
		result.Errors = append(result.Errors, "categories: "+err.Error())
		return
	}
	if outcome == storage.ReadRecovered {
		result.record(1, "recovered categories from a shadow snapshot")
	}

	for _, category := range categories {
		if category.ID == r.cfg.DefaultCategoryID {
			return
		}
	}

	categories = append(categories, *entities.DefaultCategory(r.cfg))
	if err := r.repo.Shadows().Write(ctx, storage.KeyCategories, categories); err != nil {
		result.Errors = append(result.Errors, "categories: "+err.Error())
		return
	}
	result.record(1, "recreated the default category")
}

// repairNotes fills missing fields, re-points orphan references to the
// default category and drops duplicate ids keeping the first occurrence
func (r *Repairer) repairNotes(ctx context.Context, result *RepairResult) {
	notes, outcome, err := r.repo.GetNotes(ctx)
	if err != nil {
		result.Errors = append(result.Errors, "notes: "+err.Error())
		return
	}
	if outcome == storage.ReadRecovered {
		result.record(1, "recovered notes from a shadow snapshot")
	}

	categories, _, err := r.repo.GetCategories(ctx)
	if err != nil {
		result.Errors = append(result.Errors, "notes: "+err.Error())
		return
	}
	known := make(map[string]struct{}, len(categories))
	for _, category := range categories {
		known[category.ID] = struct{}{}
	}

	now := time.Now().Format(time.RFC3339)
	changed := 0
	seen := make(map[string]struct{}, len(notes))
	kept := notes[:0]

	for i := range notes {
		note := notes[i]

		if _, dup := seen[note.ID]; dup {
			changed++
			continue
		}
		seen[note.ID] = struct{}{}

		if note.Type != entities.NoteTypeText && note.Type != entities.NoteTypeVoice {
			note.Type = entities.NoteTypeText
			changed++
		}
		if strings.TrimSpace(note.CreatedAt) == "" {
			note.CreatedAt = now
			changed++
		}
		if strings.TrimSpace(note.UpdatedAt) == "" {
			note.UpdatedAt = note.CreatedAt
			changed++
		}
		if strings.TrimSpace(note.Label) == "" {
			note.Label = note.DeriveLabel(r.cfg)
			changed++
		}
		if note.CategoryID != "" {
			if _, ok := known[note.CategoryID]; !ok {
				note.CategoryID = r.cfg.DefaultCategoryID
				changed++
			}
		}

		kept = append(kept, note)
	}

	if changed == 0 {
		return
	}
	if err := r.repo.Shadows().Write(ctx, storage.KeyNotes, kept); err != nil {
		result.Errors = append(result.Errors, "notes: "+err.Error())
		return
	}
	result.record(changed, fmt.Sprintf("fixed %d note field(s)", changed))
}

// repairSettings resets out-of-range settings values to their defaults.
// The repository normalizes settings in memory on every read, so this step
// inspects the stored record directly to find what actually needs fixing.
func (r *Repairer) repairSettings(ctx context.Context, result *RepairResult) {
	_, outcome, err := r.repo.GetSettings(ctx)
	if err != nil {
		result.Errors = append(result.Errors, "settings: "+err.Error())
		return
	}
	switch outcome {
	case storage.ReadRecovered:
		result.record(1, "recovered settings from a shadow snapshot")
	case storage.ReadUnrecoverable:
		if err := r.repo.StoreSettings(ctx, entities.DefaultSettings(r.cfg)); err != nil {
			result.Errors = append(result.Errors, "settings: "+err.Error())
			return
		}
		result.record(1, "reset unrecoverable settings to defaults")
		return
	case storage.ReadAbsent:
		return
	}

	var stored entities.AppSettings
	found, err := r.repo.Shadows().Adapter().Get(ctx, storage.KeySettings, &stored)
	if err != nil || !found {
		if err != nil {
			result.Errors = append(result.Errors, "settings: "+err.Error())
		}
		return
	}
	changed := stored.Normalize(r.cfg)

	// repairCategories ran first, so the default category exists again by
	// the time a dangling settings reference is re-pointed at it
	categories, _, err := r.repo.GetCategories(ctx)
	if err != nil {
		result.Errors = append(result.Errors, "settings: "+err.Error())
		return
	}
	exists := false
	for _, category := range categories {
		if category.ID == stored.DefaultCategoryID {
			exists = true
			break
		}
	}
	if !exists {
		stored.DefaultCategoryID = r.cfg.DefaultCategoryID
		changed = true
	}

	if !changed {
		return
	}
	if err := r.repo.StoreSettings(ctx, &stored); err != nil {
		result.Errors = append(result.Errors, "settings: "+err.Error())
		return
	}
	result.record(1, "reset settings to valid values")
}

// pruneShadows trims each primary key's shadows to the repair retention cap
func (r *Repairer) pruneShadows(ctx context.Context, result *RepairResult) {
	for _, key := range storage.PrimaryKeys() {
		removed, err := r.repo.Shadows().Prune(ctx, key, r.cfg.RepairShadowRetention)
		if err != nil {
			result.Errors = append(result.Errors, "shadows: "+err.Error())
			continue
		}
		if removed > 0 {
			result.record(removed, fmt.Sprintf("pruned %d shadow snapshot(s) of %s", removed, key))
		}
	}
}
