package entities

import (
	"notevault/domain/config"
)

// AudioQuality represents the recording quality for voice notes
type AudioQuality string

const (
	AudioQualityLow    AudioQuality = "low"
	AudioQualityMedium AudioQuality = "medium"
	AudioQualityHigh   AudioQuality = "high"
)

// ThemeMode represents the app color scheme preference
type ThemeMode string

const (
	ThemeModeLight  ThemeMode = "light"
	ThemeModeDark   ThemeMode = "dark"
	ThemeModeSystem ThemeMode = "system"
)

// AppSettings is the singleton settings record. There is exactly one per
// vault; it is replaced wholesale, never patched.
type AppSettings struct {
	DefaultCategoryID string       `json:"defaultCategoryId" validate:"required"`
	AudioQuality      AudioQuality `json:"audioQuality" validate:"required"`
	ThemeMode         ThemeMode    `json:"themeMode" validate:"required"`
}

// DefaultSettings returns the settings used on first run
func DefaultSettings(cfg *config.DomainConfig) *AppSettings {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &AppSettings{
		DefaultCategoryID: cfg.DefaultCategoryID,
		AudioQuality:      AudioQualityMedium,
		ThemeMode:         ThemeModeSystem,
	}
}

// ValidAudioQuality reports whether the value is within the enum
func ValidAudioQuality(q AudioQuality) bool {
	switch q {
	case AudioQualityLow, AudioQualityMedium, AudioQualityHigh:
		return true
	}
	return false
}

// ValidThemeMode reports whether the value is within the enum
func ValidThemeMode(m ThemeMode) bool {
	switch m {
	case ThemeModeLight, ThemeModeDark, ThemeModeSystem:
		return true
	}
	return false
}

// Normalize resets out-of-enum fields to their defaults and reports whether
// anything was changed. Range checking happens here rather than in the
// structural schema, which only requires the keys to be present.
func (s *AppSettings) Normalize(cfg *config.DomainConfig) bool {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	changed := false
	if s.DefaultCategoryID == "" {
		s.DefaultCategoryID = cfg.DefaultCategoryID
		changed = true
	}
	if !ValidAudioQuality(s.AudioQuality) {
		s.AudioQuality = AudioQualityMedium
		changed = true
	}
	if !ValidThemeMode(s.ThemeMode) {
		s.ThemeMode = ThemeModeSystem
		changed = true
	}
	return changed
}
