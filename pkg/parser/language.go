package parser

import (
	"path/filepath"
	"strings"
)

// Language selects the grammar a declaration file is parsed with.
type Language int

const (
	// LanguageUnknown marks a file no grammar is registered for.
	LanguageUnknown Language = iota
	// LanguageJavaScript covers .js, .mjs and .cjs externs.
	LanguageJavaScript
	// LanguageTypeScript covers .ts and .d.ts declaration files.
	LanguageTypeScript
)

func (l Language) String() string {
	switch l {
	case LanguageJavaScript:
		return "javascript"
	case LanguageTypeScript:
		return "typescript"
	default:
		return "unknown"
	}
}

// DetectLanguage picks the grammar from a file extension.
func DetectLanguage(filePath string) Language {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".js", ".mjs", ".cjs":
		return LanguageJavaScript
	case ".ts", ".mts", ".cts":
		return LanguageTypeScript
	default:
		return LanguageUnknown
	}
}

// ParseLanguageString converts a configured language name.
func ParseLanguageString(lang string) Language {
	switch strings.ToLower(lang) {
	case "javascript", "js":
		return LanguageJavaScript
	case "typescript", "ts":
		return LanguageTypeScript
	default:
		return LanguageUnknown
	}
}

// SupportedLanguages lists the languages with a registered grammar.
func SupportedLanguages() []Language {
	return []Language{LanguageJavaScript, LanguageTypeScript}
}
