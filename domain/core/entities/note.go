package entities

import (
	"fmt"
	"strings"

	"notevault/domain/config"
	pkgerrors "notevault/pkg/errors"
	"notevault/pkg/utils"

	"github.com/google/uuid"
)

// NoteType represents the capture medium of a note
type NoteType string

const (
	NoteTypeText  NoteType = "text"
	NoteTypeVoice NoteType = "voice"
)

// Note is a single captured idea. Field names follow the persisted JSON
// shape, which is shared with the backup artifact wire format and must not
// change between releases.
type Note struct {
	ID            string   `json:"id" validate:"required"`
	Content       string   `json:"content" validate:"required"`
	Label         string   `json:"label,omitempty"`
	Type          NoteType `json:"type" validate:"required,oneof=text voice"`
	CategoryID    string   `json:"categoryId,omitempty"`
	AudioDuration float64  `json:"audioDuration,omitempty"`
	CreatedAt     string   `json:"createdAt"`
	UpdatedAt     string   `json:"updatedAt"`
}

// NewNote creates a new note with business rule validation
func NewNote(content string, noteType NoteType, categoryID string, cfg *config.DomainConfig) (*Note, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	if strings.TrimSpace(content) == "" {
		return nil, pkgerrors.NewValidationError("note content cannot be empty")
	}

	if noteType != NoteTypeText && noteType != NoteTypeVoice {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("invalid note type %q", noteType))
	}

	if len(content) > cfg.MaxContentLength {
		return nil, pkgerrors.NewValidationError(
			fmt.Sprintf("note content exceeds maximum length of %d", cfg.MaxContentLength))
	}

	now := utils.NowRFC3339()
	note := &Note{
		ID:         uuid.New().String(),
		Content:    content,
		Type:       noteType,
		CategoryID: categoryID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	note.Label = note.DeriveLabel(cfg)

	return note, nil
}

// Validate checks that the required fields of a note are present
func (n *Note) Validate() error {
	if strings.TrimSpace(n.ID) == "" {
		return pkgerrors.NewValidationError("note id is required")
	}
	if strings.TrimSpace(n.Content) == "" {
		return pkgerrors.NewValidationError("note content is required")
	}
	if strings.TrimSpace(string(n.Type)) == "" {
		return pkgerrors.NewValidationError("note type is required")
	}
	return nil
}

// DeriveLabel computes a short display title from the note's content.
// Text notes use a truncated content prefix; voice notes use a formatted
// duration string. Missing data falls back to placeholder labels.
func (n *Note) DeriveLabel(cfg *config.DomainConfig) string {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	if n.Type == NoteTypeVoice {
		if n.AudioDuration > 0 {
			return fmt.Sprintf("Voice Note (%s)", FormatDuration(n.AudioDuration))
		}
		return "Voice Note (Unknown)"
	}

	content := strings.TrimSpace(n.Content)
	if content == "" {
		return "Untitled Note"
	}

	if len(content) > cfg.LabelMaxLength {
		return strings.TrimSpace(content[:cfg.LabelMaxLength]) + "..."
	}
	return content
}

// Touch updates the modification timestamp
func (n *Note) Touch() {
	n.UpdatedAt = utils.NowRFC3339()
}

// IsVoice reports whether the note is a voice capture
func (n *Note) IsVoice() bool {
	return n.Type == NoteTypeVoice
}

// FormatDuration renders a duration in seconds as m:ss
func FormatDuration(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
