package errors

import "strings"

// ClassifyStorageCause maps an underlying storage failure to a user-facing
// category by inspecting the error text. Unknown failures fall back to the
// system category.
func ClassifyStorageCause(err error) StorageCause {
	if err == nil {
		return StorageCauseSystem
	}

	msg := strings.ToLower(err.Error())

	switch {
	case containsAny(msg, "no space", "disk full", "quota", "storage full", "enospc"):
		return StorageCauseQuota
	case containsAny(msg, "permission", "access denied", "eacces", "read-only", "readonly"):
		return StorageCausePermission
	case containsAny(msg, "corrupt", "invalid character", "unexpected end", "checksum", "unmarshal", "parse"):
		return StorageCauseCorruption
	default:
		return StorageCauseSystem
	}
}

// UserMessage returns a plain-language description for a storage cause,
// suitable for combining with the technical detail string in UI alerts.
func (c StorageCause) UserMessage() string {
	switch c {
	case StorageCauseQuota:
		return "Device storage is full. Free up space and try again."
	case StorageCausePermission:
		return "The app does not have permission to access storage."
	case StorageCauseCorruption:
		return "Saved data appears to be damaged. A backup copy will be used if one exists."
	default:
		return "A storage problem occurred. Restarting the app may help."
	}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
