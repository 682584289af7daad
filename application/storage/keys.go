package storage

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Primary storage keys. The key-value namespace is shared between the
// repository (primary keys), the shadow layer (<key>_backup_<millis>) and
// the backup orchestrator (backup_<id>, backup_list, object store side).
// This naming discipline is the only isolation mechanism.
const (
	KeyNotes      = "notes"
	KeyCategories = "categories"
	KeySettings   = "settings"
)

const shadowInfix = "_backup_"

// ShadowKey builds the shadow snapshot key for a primary key at an instant
func ShadowKey(primaryKey string, at time.Time) string {
	return fmt.Sprintf("%s%s%d", primaryKey, shadowInfix, at.UnixMilli())
}

// ShadowTimestamp extracts the embedded instant from a shadow key.
// Returns false when the key is not a shadow of the given primary key.
func ShadowTimestamp(primaryKey, key string) (time.Time, bool) {
	prefix := primaryKey + shadowInfix
	if !strings.HasPrefix(key, prefix) {
		return time.Time{}, false
	}
	millis, err := strconv.ParseInt(key[len(prefix):], 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(millis), true
}

// IsShadowOf reports whether key is a shadow snapshot of primaryKey
func IsShadowOf(primaryKey, key string) bool {
	_, ok := ShadowTimestamp(primaryKey, key)
	return ok
}

// PrimaryKeys lists the three primary collection keys
func PrimaryKeys() []string {
	return []string{KeyNotes, KeyCategories, KeySettings}
}
