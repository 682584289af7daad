package backup

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"notevault/domain/core/entities"
	"notevault/domain/core/validators"
	pkgerrors "notevault/pkg/errors"
)

// IndexKey is the object store key holding the backup index
const IndexKey = "backup_list"

const artifactPrefix = "backup_"

// BackupSource records what triggered a backup
type BackupSource string

const (
	SourceManual    BackupSource = "manual"
	SourceSafety    BackupSource = "safety"
	SourceScheduled BackupSource = "scheduled"
)

// ValidSource reports whether the value is within the enum
func ValidSource(s BackupSource) bool {
	switch s {
	case SourceManual, SourceSafety, SourceScheduled:
		return true
	}
	return false
}

// DeviceInfo describes the device that produced a backup
type DeviceInfo struct {
	Platform string `json:"platform"`
	Version  string `json:"version"`
	DeviceID string `json:"deviceId"`
}

// DataSummary carries the headline counts of a backup payload
type DataSummary struct {
	NotesCount      int  `json:"notesCount"`
	CategoriesCount int  `json:"categoriesCount"`
	HasSettings     bool `json:"hasSettings"`
	TotalSize       int  `json:"totalSize"`
}

// BackupMetadata describes one backup artifact. The artifact id is not part
// of the document; it is the object store key the artifact lives under.
type BackupMetadata struct {
	Version     string      `json:"version"`
	CreatedAt   string      `json:"createdAt"`
	DeviceInfo  DeviceInfo  `json:"deviceInfo"`
	DataSummary DataSummary `json:"dataSummary"`
}

// BackupArtifact is the serialized backup document. Its JSON shape is the
// wire format shared with every released client; field names and nesting
// must not change between versions.
type BackupArtifact struct {
	Metadata   BackupMetadata        `json:"metadata"`
	Notes      []entities.Note       `json:"notes"`
	Categories []entities.Category   `json:"categories"`
	Settings   *entities.AppSettings `json:"settings"`
}

// BackupInfo is one entry of the backup index
type BackupInfo struct {
	ID              string       `json:"id"`
	CreatedAt       string       `json:"createdAt"`
	Source          BackupSource `json:"source"`
	Size            int          `json:"size"`
	NotesCount      int          `json:"notesCount"`
	CategoriesCount int          `json:"categoriesCount"`
}

// NewBackupID builds an artifact id embedding the creation instant, which
// doubles as the object store key
func NewBackupID(at time.Time) string {
	return fmt.Sprintf("%s%d", artifactPrefix, at.UnixMilli())
}

// IsArtifactKey reports whether an object store key names a backup artifact
func IsArtifactKey(key string) bool {
	return strings.HasPrefix(key, artifactPrefix) && key != IndexKey
}

// ArtifactTimestamp extracts the creation instant embedded in an artifact id
func ArtifactTimestamp(id string) (time.Time, bool) {
	if !IsArtifactKey(id) {
		return time.Time{}, false
	}
	millis, err := strconv.ParseInt(id[len(artifactPrefix):], 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(millis), true
}

// ParseArtifact decodes and validates a raw backup document. Both the
// envelope and the embedded collections are checked before anything from
// the artifact is trusted.
func ParseArtifact(raw []byte) (*BackupArtifact, error) {
	var artifact BackupArtifact
	if err := json.Unmarshal(raw, &artifact); err != nil {
		return nil, pkgerrors.NewValidationError("backup document is not valid JSON").WithCause(err)
	}
	if err := artifact.Validate(); err != nil {
		return nil, err
	}
	return &artifact, nil
}

// Validate checks the artifact envelope and the embedded collections
func (a *BackupArtifact) Validate() error {
	if strings.TrimSpace(a.Metadata.Version) == "" {
		return pkgerrors.NewValidationError("backup metadata is missing a version")
	}
	if strings.TrimSpace(a.Metadata.CreatedAt) == "" {
		return pkgerrors.NewValidationError("backup metadata is missing a creation time")
	}

	notesJSON, err := json.Marshal(a.Notes)
	if err != nil {
		return pkgerrors.NewValidationError("backup notes cannot be encoded").WithCause(err)
	}
	if err := validators.ValidateNotesJSON(notesJSON); err != nil {
		return err
	}

	categoriesJSON, err := json.Marshal(a.Categories)
	if err != nil {
		return pkgerrors.NewValidationError("backup categories cannot be encoded").WithCause(err)
	}
	if err := validators.ValidateCategoriesJSON(categoriesJSON); err != nil {
		return err
	}

	if a.Settings == nil {
		return pkgerrors.NewValidationError("backup payload is missing settings")
	}
	if strings.TrimSpace(a.Settings.DefaultCategoryID) == "" {
		return pkgerrors.NewValidationError("backup settings are missing a default category id")
	}
	if !entities.ValidAudioQuality(a.Settings.AudioQuality) {
		return pkgerrors.NewValidationError(
			fmt.Sprintf("backup settings carry invalid audio quality %q", a.Settings.AudioQuality))
	}
	if !entities.ValidThemeMode(a.Settings.ThemeMode) {
		return pkgerrors.NewValidationError(
			fmt.Sprintf("backup settings carry invalid theme mode %q", a.Settings.ThemeMode))
	}

	// Every referenced category must travel inside the same artifact, and
	// ids must be unique so a restore replay cannot hit a conflict
	known := make(map[string]struct{}, len(a.Categories))
	for _, category := range a.Categories {
		if _, dup := known[category.ID]; dup {
			return pkgerrors.NewValidationError("backup category id " + category.ID + " appears more than once")
		}
		known[category.ID] = struct{}{}
	}

	seen := make(map[string]struct{}, len(a.Notes))
	for _, note := range a.Notes {
		if _, dup := seen[note.ID]; dup {
			return pkgerrors.NewValidationError("backup note id " + note.ID + " appears more than once")
		}
		seen[note.ID] = struct{}{}

		if note.CategoryID == "" {
			continue
		}
		if _, ok := known[note.CategoryID]; !ok {
			return pkgerrors.NewReferentialIntegrityError(
				fmt.Sprintf("backup note %s references missing category %s", note.ID, note.CategoryID))
		}
	}

	if _, ok := known[a.Settings.DefaultCategoryID]; !ok {
		return pkgerrors.NewReferentialIntegrityError(
			"backup settings reference missing category " + a.Settings.DefaultCategoryID)
	}

	return nil
}
