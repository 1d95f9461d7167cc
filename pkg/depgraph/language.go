package depgraph

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// UnsupportedLanguageError reports files for which no grammar is registered.
// Callers are expected to generate a grammar for the language and retry.
type UnsupportedLanguageError struct {
	Language string
	Files    []string
}

func (e *UnsupportedLanguageError) Error() string {
	if e.Language != "" {
		return fmt.Sprintf("no grammar registered for language '%s' (%d files); generate one and retry", e.Language, len(e.Files))
	}
	return fmt.Sprintf("no grammar registered for %d files; generate one and retry", len(e.Files))
}

// knownLanguages maps file extensions to language names the analysis service
// ships grammars for.
var knownLanguages = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".jsx":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".rs":   "rust",
	".java": "java",
	".rb":   "ruby",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".cc":   "cpp",
	".hpp":  "cpp",
	".cs":   "csharp",
}

// DetectLanguage returns the language for a file path, or "" when no grammar
// is registered for its extension.
func DetectLanguage(path string) string {
	return knownLanguages[strings.ToLower(filepath.Ext(path))]
}

// SupportedLanguages returns the sorted set of languages with registered grammars
func SupportedLanguages() []string {
	seen := make(map[string]bool)
	var langs []string
	for _, lang := range knownLanguages {
		if !seen[lang] {
			langs = append(langs, lang)
			seen[lang] = true
		}
	}
	sort.Strings(langs)
	return langs
}

// LanguageSupported reports whether a grammar is registered for the language
func LanguageSupported(language string) bool {
	for _, lang := range knownLanguages {
		if lang == language {
			return true
		}
	}
	return false
}
