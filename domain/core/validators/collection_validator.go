package validators

import (
	"encoding/json"
	"fmt"
	"strings"

	pkgerrors "notevault/pkg/errors"
)

// Structural validation for raw collection payloads. These checks run on
// both the write path and the read-recovery path, before any payload is
// trusted enough to unmarshal into typed records. They verify shape only;
// value range checks belong to the integrity auditor.

// ValidateNotesJSON checks that raw bytes hold a structurally valid note collection
func ValidateNotesJSON(raw []byte) error {
	var payload interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return pkgerrors.NewValidationError("notes payload is not valid JSON").WithCause(err)
	}
	return ValidateNotesPayload(payload)
}

// ValidateNotesPayload checks that a decoded payload is an array whose
// elements carry non-empty id, content and type fields
func ValidateNotesPayload(payload interface{}) error {
	items, ok := payload.([]interface{})
	if !ok {
		return pkgerrors.NewValidationError("notes payload must be an array")
	}

	for i, item := range items {
		record, ok := item.(map[string]interface{})
		if !ok {
			return pkgerrors.NewValidationError(fmt.Sprintf("note at index %d is not an object", i))
		}
		for _, field := range []string{"id", "content", "type"} {
			if err := requireNonEmptyString(record, field, "note", i); err != nil {
				return err
			}
		}
	}
	return nil
}

// ValidateCategoriesJSON checks that raw bytes hold a structurally valid category collection
func ValidateCategoriesJSON(raw []byte) error {
	var payload interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return pkgerrors.NewValidationError("categories payload is not valid JSON").WithCause(err)
	}
	return ValidateCategoriesPayload(payload)
}

// ValidateCategoriesPayload checks that a decoded payload is an array whose
// elements carry non-empty id, name and color fields
func ValidateCategoriesPayload(payload interface{}) error {
	items, ok := payload.([]interface{})
	if !ok {
		return pkgerrors.NewValidationError("categories payload must be an array")
	}

	for i, item := range items {
		record, ok := item.(map[string]interface{})
		if !ok {
			return pkgerrors.NewValidationError(fmt.Sprintf("category at index %d is not an object", i))
		}
		for _, field := range []string{"id", "name", "color"} {
			if err := requireNonEmptyString(record, field, "category", i); err != nil {
				return err
			}
		}
	}
	return nil
}

// ValidateSettingsJSON checks that raw bytes hold a structurally valid settings record
func ValidateSettingsJSON(raw []byte) error {
	var payload interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return pkgerrors.NewValidationError("settings payload is not valid JSON").WithCause(err)
	}
	return ValidateSettingsPayload(payload)
}

// ValidateSettingsPayload checks that a decoded payload is an object with
// the three settings keys present. Values are not range-checked here.
func ValidateSettingsPayload(payload interface{}) error {
	record, ok := payload.(map[string]interface{})
	if !ok {
		return pkgerrors.NewValidationError("settings payload must be an object")
	}

	for _, field := range []string{"defaultCategoryId", "audioQuality", "themeMode"} {
		if _, present := record[field]; !present {
			return pkgerrors.NewValidationError(fmt.Sprintf("settings payload is missing %q", field))
		}
	}
	return nil
}

func requireNonEmptyString(record map[string]interface{}, field, kind string, index int) error {
	value, present := record[field]
	if !present {
		return pkgerrors.NewValidationError(fmt.Sprintf("%s at index %d is missing %q", kind, index, field))
	}
	str, ok := value.(string)
	if !ok || strings.TrimSpace(str) == "" {
		return pkgerrors.NewValidationError(fmt.Sprintf("%s at index %d has an empty %q", kind, index, field))
	}
	return nil
}
