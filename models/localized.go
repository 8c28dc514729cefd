package models

import "strings"

// Supported language codes for localized recipe fields.
const (
	LangEN = "en"
	LangFR = "fr"
	LangAR = "ar"
)

// LocalizedText stores one value per supported language as fixed columns,
// so a missing language is a compile-time error rather than a silent empty
// lookup.
type LocalizedText struct {
	EN string `gorm:"column:en" json:"en"`
	FR string `gorm:"column:fr" json:"fr"`
	AR string `gorm:"column:ar" json:"ar"`
}

// In returns the value for the given language code, falling back to English
// for unknown codes.
func (t LocalizedText) In(lang string) string {
	switch lang {
	case LangFR:
		return t.FR
	case LangAR:
		return t.AR
	default:
		return t.EN
	}
}

// Complete reports whether every supported language has a value.
func (t LocalizedText) Complete() bool {
	return strings.TrimSpace(t.EN) != "" &&
		strings.TrimSpace(t.FR) != "" &&
		strings.TrimSpace(t.AR) != ""
}

// ValidLanguage reports whether the code names a supported language.
func ValidLanguage(lang string) bool {
	switch lang {
	case LangEN, LangFR, LangAR:
		return true
	}
	return false
}

// NormalizeLanguage reduces an Accept-Language style value to a supported
// code. Unsupported or empty values resolve to English.
func NormalizeLanguage(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return LangEN
	}
	// "fr-FR,fr;q=0.9" -> "fr"
	if idx := strings.IndexAny(value, ",;"); idx >= 0 {
		value = value[:idx]
	}
	if idx := strings.Index(value, "-"); idx >= 0 {
		value = value[:idx]
	}
	value = strings.ToLower(strings.TrimSpace(value))
	if ValidLanguage(value) {
		return value
	}
	return LangEN
}
