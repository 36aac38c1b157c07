package workspace

import (
	"path/filepath"
	"strings"

	"github.com/go-enry/go-enry/v2"
)

// LanguageText is reported for files no detector recognises
const LanguageText = "text"

// extensionLanguages maps lowercase extensions to the language tags sent to the model
var extensionLanguages = map[string]string{
	"js":   "javascript",
	"jsx":  "javascript",
	"ts":   "typescript",
	"tsx":  "typescript",
	"py":   "python",
	"java": "java",
	"cpp":  "cpp",
	"c":    "c",
	"cs":   "csharp",
	"php":  "php",
	"rb":   "ruby",
	"go":   "go",
	"rs":   "rust",
}

// DetectLanguage returns the language tag for a file name. The fixed
// extension table wins; go-enry covers the rest by file name then by
// extension, and anything unknown is "text".
func DetectLanguage(fileName string) string {
	base := filepath.Base(fileName)
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(base), "."))
	if lang, ok := extensionLanguages[ext]; ok {
		return lang
	}

	if lang, _ := enry.GetLanguageByFilename(base); lang != "" {
		return languageTag(lang)
	}
	if lang, _ := enry.GetLanguageByExtension(base); lang != "" {
		return languageTag(lang)
	}
	return LanguageText
}

// languageTag turns a linguist name such as "Objective-C" or "Protocol Buffer"
// into a fence-friendly tag
func languageTag(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "-")
}

// IsBinary reports whether content looks like binary data rather than text
func IsBinary(content []byte) bool {
	return enry.IsBinary(content)
}

// IsVendored reports whether path is in a vendored or generated dependency directory
func IsVendored(path string) bool {
	return enry.IsVendor(path)
}
