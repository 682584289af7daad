package integrity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"notevault/application/backup"
	"notevault/application/storage"
	"notevault/domain/config"
	"notevault/domain/core/entities"
	"notevault/domain/core/validators"
	"notevault/infrastructure/persistence/abstractions"
	"notevault/pkg/utils"

	"go.uber.org/zap"
)

// Auditor runs read-only health sweeps over the vault. Each sweep is
// isolated: a failure inside one becomes an issue in the report instead of
// aborting the audit, and Audit itself never returns an error. The auditor
// reads raw payloads directly so that auditing never triggers the
// repository's shadow recovery side effects.
type Auditor struct {
	repo    *storage.Repository
	backups abstractions.ObjectStore
	cfg     *config.DomainConfig
	logger  *zap.Logger
}

// NewAuditor creates an integrity auditor
func NewAuditor(repo *storage.Repository, backups abstractions.ObjectStore, cfg *config.DomainConfig, logger *zap.Logger) *Auditor {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &Auditor{
		repo:    repo,
		backups: backups,
		cfg:     cfg,
		logger:  logger,
	}
}

// Audit runs every sweep and aggregates the findings
func (a *Auditor) Audit(ctx context.Context) *Report {
	report := &Report{CheckedAt: time.Now()}

	sweeps := []func(context.Context) []Issue{
		a.auditNotes,
		a.auditCategories,
		a.auditSettings,
		a.auditReferences,
		a.auditShadows,
		a.auditBackupStore,
		a.auditBackupIndex,
	}
	for _, sweep := range sweeps {
		report.Issues = append(report.Issues, sweep(ctx)...)
	}

	a.logger.Info("Integrity audit completed",
		zap.Int("issues", len(report.Issues)),
		zap.Bool("healthy", report.IsHealthy()),
	)
	return report
}

func (a *Auditor) auditNotes(ctx context.Context) []Issue {
	raw, found, err := a.rawPayload(ctx, storage.KeyNotes)
	if err != nil {
		return []Issue{sweepFailure("notes", err)}
	}
	if !found {
		return nil
	}

	if err := validators.ValidateNotesJSON([]byte(raw)); err != nil {
		return []Issue{{
			Type:         IssueNotesStructure,
			Severity:     SeverityCritical,
			Description:  "stored notes are structurally invalid: " + err.Error(),
			AffectedData: storage.KeyNotes,
			SuggestedFix: "run repair to recover the collection from a shadow snapshot",
		}}
	}

	var notes []entities.Note
	if err := json.Unmarshal([]byte(raw), &notes); err != nil {
		return []Issue{sweepFailure("notes", err)}
	}

	var issues []Issue
	for _, note := range notes {
		if strings.TrimSpace(note.CreatedAt) == "" || strings.TrimSpace(note.UpdatedAt) == "" {
			issues = append(issues, Issue{
				Type:         IssueMissingField,
				Severity:     SeverityMedium,
				Description:  "note is missing a timestamp",
				AffectedData: note.ID,
				SuggestedFix: "run repair to fill the missing timestamps",
			})
		}
		if note.Type != entities.NoteTypeText && note.Type != entities.NoteTypeVoice {
			issues = append(issues, Issue{
				Type:         IssueMissingField,
				Severity:     SeverityMedium,
				Description:  fmt.Sprintf("note has unknown type %q", note.Type),
				AffectedData: note.ID,
				SuggestedFix: "run repair to reset the note type",
			})
		}
	}
	return issues
}

func (a *Auditor) auditCategories(ctx context.Context) []Issue {
	raw, found, err := a.rawPayload(ctx, storage.KeyCategories)
	if err != nil {
		return []Issue{sweepFailure("categories", err)}
	}
	if !found {
		return []Issue{{
			Type:         IssueMissingDefaultCategory,
			Severity:     SeverityCritical,
			Description:  "category collection has never been initialized",
			AffectedData: storage.KeyCategories,
			SuggestedFix: "run repair to recreate the default category",
		}}
	}

	if err := validators.ValidateCategoriesJSON([]byte(raw)); err != nil {
		return []Issue{{
			Type:         IssueCategoriesStructure,
			Severity:     SeverityCritical,
			Description:  "stored categories are structurally invalid: " + err.Error(),
			AffectedData: storage.KeyCategories,
			SuggestedFix: "run repair to recover the collection from a shadow snapshot",
		}}
	}

	var categories []entities.Category
	if err := json.Unmarshal([]byte(raw), &categories); err != nil {
		return []Issue{sweepFailure("categories", err)}
	}

	for _, category := range categories {
		if category.ID == a.cfg.DefaultCategoryID {
			return nil
		}
	}
	return []Issue{{
		Type:         IssueMissingDefaultCategory,
		Severity:     SeverityCritical,
		Description:  "the default category is missing",
		AffectedData: a.cfg.DefaultCategoryID,
		SuggestedFix: "run repair to recreate the default category",
	}}
}

func (a *Auditor) auditSettings(ctx context.Context) []Issue {
	raw, found, err := a.rawPayload(ctx, storage.KeySettings)
	if err != nil {
		return []Issue{sweepFailure("settings", err)}
	}
	if !found {
		return nil
	}

	if err := validators.ValidateSettingsJSON([]byte(raw)); err != nil {
		return []Issue{{
			Type:         IssueSettingsStructure,
			Severity:     SeverityCritical,
			Description:  "stored settings are structurally invalid: " + err.Error(),
			AffectedData: storage.KeySettings,
			SuggestedFix: "run repair to reset settings to defaults",
		}}
	}

	var settings entities.AppSettings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return []Issue{sweepFailure("settings", err)}
	}

	var issues []Issue
	if !entities.ValidAudioQuality(settings.AudioQuality) {
		issues = append(issues, Issue{
			Type:         IssueSettingsOutOfRange,
			Severity:     SeverityMedium,
			Description:  fmt.Sprintf("audio quality %q is out of range", settings.AudioQuality),
			AffectedData: storage.KeySettings,
			SuggestedFix: "run repair to reset the value to its default",
		})
	}
	if !entities.ValidThemeMode(settings.ThemeMode) {
		issues = append(issues, Issue{
			Type:         IssueSettingsOutOfRange,
			Severity:     SeverityMedium,
			Description:  fmt.Sprintf("theme mode %q is out of range", settings.ThemeMode),
			AffectedData: storage.KeySettings,
			SuggestedFix: "run repair to reset the value to its default",
		})
	}
	return issues
}

func (a *Auditor) auditReferences(ctx context.Context) []Issue {
	notes, ok, issues := a.decodedNotes(ctx)
	if !ok {
		return issues
	}
	categories, ok, catIssues := a.decodedCategories(ctx)
	if !ok {
		return append(issues, catIssues...)
	}

	known := make(map[string]struct{}, len(categories))
	for _, category := range categories {
		known[category.ID] = struct{}{}
	}

	seen := make(map[string]struct{}, len(notes))
	for _, note := range notes {
		if _, dup := seen[note.ID]; dup {
			issues = append(issues, Issue{
				Type:         IssueDuplicateRecord,
				Severity:     SeverityMedium,
				Description:  "note id appears more than once",
				AffectedData: note.ID,
				SuggestedFix: "run repair to drop the duplicate records",
			})
		}
		seen[note.ID] = struct{}{}

		if note.CategoryID == "" {
			continue
		}
		if _, found := known[note.CategoryID]; !found {
			issues = append(issues, Issue{
				Type:         IssueOrphanReference,
				Severity:     SeverityMedium,
				Description:  fmt.Sprintf("note references missing category %s", note.CategoryID),
				AffectedData: note.ID,
				SuggestedFix: "run repair to move the note to the default category",
			})
		}
	}

	// The settings default must point at a category that exists
	if raw, found, err := a.rawPayload(ctx, storage.KeySettings); err == nil && found {
		var settings entities.AppSettings
		if err := json.Unmarshal([]byte(raw), &settings); err == nil && settings.DefaultCategoryID != "" {
			if _, ok := known[settings.DefaultCategoryID]; !ok {
				issues = append(issues, Issue{
					Type:         IssueOrphanReference,
					Severity:     SeverityMedium,
					Description:  fmt.Sprintf("settings reference missing default category %s", settings.DefaultCategoryID),
					AffectedData: storage.KeySettings,
					SuggestedFix: "run repair to reset the settings default category",
				})
			}
		}
	}
	return issues
}

func (a *Auditor) auditShadows(ctx context.Context) []Issue {
	var issues []Issue
	for _, key := range storage.PrimaryKeys() {
		shadows, err := a.repo.Shadows().Shadows(ctx, key)
		if err != nil {
			issues = append(issues, sweepFailure("shadows", err))
			continue
		}
		if len(shadows) > a.cfg.RepairShadowRetention {
			issues = append(issues, Issue{
				Type:         IssueShadowExcess,
				Severity:     SeverityLow,
				Description:  fmt.Sprintf("%d shadow snapshots exceed the retention cap of %d", len(shadows), a.cfg.RepairShadowRetention),
				AffectedData: key,
				SuggestedFix: "run repair to prune the oldest snapshots",
			})
		}
	}
	return issues
}

func (a *Auditor) auditBackupStore(_ context.Context) []Issue {
	if a.backups == nil || !a.backups.Available() {
		return []Issue{{
			Type:        IssueBackupStoreUnavailable,
			Severity:    SeverityMedium,
			Description: "the backup store is not available, backups cannot be created or restored",
		}}
	}
	return nil
}

func (a *Auditor) auditBackupIndex(ctx context.Context) []Issue {
	if a.backups == nil || !a.backups.Available() {
		return nil
	}

	raw, found, err := a.backups.GetItem(ctx, backup.IndexKey)
	if err != nil {
		return []Issue{sweepFailure("backup index", err)}
	}
	if !found {
		return nil
	}

	var index []backup.BackupInfo
	if err := json.Unmarshal([]byte(raw), &index); err != nil {
		return []Issue{{
			Type:         IssueBackupIndexDangling,
			Severity:     SeverityMedium,
			Description:  "the backup index is not valid JSON",
			AffectedData: backup.IndexKey,
			SuggestedFix: "create a new backup to rebuild the index",
		}}
	}

	var issues []Issue
	newest := time.Time{}
	for _, entry := range index {
		_, found, err := a.backups.GetItem(ctx, entry.ID)
		if err != nil {
			issues = append(issues, sweepFailure("backup index", err))
			continue
		}
		if !found {
			issues = append(issues, Issue{
				Type:         IssueBackupIndexDangling,
				Severity:     SeverityLow,
				Description:  "backup index references a missing artifact",
				AffectedData: entry.ID,
				SuggestedFix: "delete the index entry or recreate the backup",
			})
			continue
		}
		if created, err := utils.ParseRFC3339(entry.CreatedAt); err == nil && created.After(newest) {
			newest = created
		}
	}

	if !newest.IsZero() && time.Since(newest) > a.cfg.StaleBackupAge {
		issues = append(issues, Issue{
			Type:         IssueBackupStale,
			Severity:     SeverityLow,
			Description:  fmt.Sprintf("the newest backup is older than %s", a.cfg.StaleBackupAge),
			AffectedData: backup.IndexKey,
			SuggestedFix: "create a fresh backup",
		})
	}
	return issues
}

// rawPayload reads a primary key without touching the recovery machinery
func (a *Auditor) rawPayload(ctx context.Context, key string) (string, bool, error) {
	return a.repo.Shadows().Adapter().GetRaw(ctx, key)
}

// decodedNotes best-effort decodes the stored notes; a damaged payload is
// reported by the structural sweep, so here it just halts the sweep
func (a *Auditor) decodedNotes(ctx context.Context) ([]entities.Note, bool, []Issue) {
	raw, found, err := a.rawPayload(ctx, storage.KeyNotes)
	if err != nil {
		return nil, false, []Issue{sweepFailure("references", err)}
	}
	if !found {
		return nil, false, nil
	}
	var notes []entities.Note
	if err := json.Unmarshal([]byte(raw), &notes); err != nil {
		return nil, false, nil
	}
	return notes, true, nil
}

func (a *Auditor) decodedCategories(ctx context.Context) ([]entities.Category, bool, []Issue) {
	raw, found, err := a.rawPayload(ctx, storage.KeyCategories)
	if err != nil {
		return nil, false, []Issue{sweepFailure("references", err)}
	}
	if !found {
		return nil, false, nil
	}
	var categories []entities.Category
	if err := json.Unmarshal([]byte(raw), &categories); err != nil {
		return nil, false, nil
	}
	return categories, true, nil
}

// sweepFailure converts a fault inside a sweep into a finding; an unreadable
// store is treated as seriously as corrupted content
func sweepFailure(sweep string, err error) Issue {
	return Issue{
		Type:        IssueSweepFailed,
		Severity:    SeverityCritical,
		Description: fmt.Sprintf("the %s sweep could not complete: %v", sweep, err),
	}
}
