package util

import (
	"fmt"
	"html"
	"net/http"
	"path/filepath"
	"strings"
	"unicode"

	"go-file-manager/pkg/apierror"
)

const maxFilenameRunes = 255

var windowsReservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {},
	"COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {},
	"LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// ValidateFilename checks a single path segment supplied as a new name.
// Invalid names are rejected, never rewritten: a quietly "fixed" name is a
// different file than the one the client asked for.
func ValidateFilename(name string) (string, error) {
	if name == "" {
		return "", apierror.Validation("filename cannot be empty", "")
	}

	if strings.TrimSpace(name) != name {
		return "", apierror.Validation("filename cannot begin or end with whitespace", EscapeForDisplay(name))
	}

	if strings.Contains(name, "\x00") {
		return "", apierror.Validation("filename contains null bytes", "")
	}

	if strings.ContainsAny(name, `/\`) {
		return "", apierror.Validation("filename cannot contain path separators", EscapeForDisplay(name))
	}

	for _, char := range name {
		if unicode.IsControl(char) || isInvisibleUnicode(char) {
			return "", apierror.Validation("filename contains control or invisible characters", "")
		}
	}

	if strings.Trim(name, ". ") == "" {
		return "", apierror.Validation("filename cannot consist of dots and spaces", EscapeForDisplay(name))
	}

	if strings.HasSuffix(name, ".") {
		return "", apierror.Validation("filename cannot end with a dot", EscapeForDisplay(name))
	}

	if len([]rune(name)) > maxFilenameRunes {
		return "", apierror.Validation(fmt.Sprintf("filename exceeds %d characters", maxFilenameRunes), "")
	}

	stem := name
	if idx := strings.Index(name, "."); idx >= 0 {
		stem = name[:idx]
	}
	if _, reserved := windowsReservedNames[strings.ToUpper(stem)]; reserved {
		return "", apierror.Validation("reserved filename is not allowed", EscapeForDisplay(name))
	}

	return name, nil
}

// ExtensionSet is a lowercase allow-list of dotted extensions.
type ExtensionSet map[string]struct{}

func NewExtensionSet(extensions []string) ExtensionSet {
	set := make(ExtensionSet, len(extensions))
	for _, ext := range extensions {
		cleaned := strings.ToLower(strings.TrimSpace(ext))
		if cleaned == "" {
			continue
		}
		if !strings.HasPrefix(cleaned, ".") {
			cleaned = "." + cleaned
		}
		set[cleaned] = struct{}{}
	}

	return set
}

func (s ExtensionSet) Contains(name string) bool {
	_, ok := s[strings.ToLower(filepath.Ext(name))]
	return ok
}

// ValidateExtension enforces a per-category allow-list (e.g. editable text
// types). An empty set means the category accepts everything.
func ValidateExtension(name string, allowed ExtensionSet) error {
	if len(allowed) == 0 {
		return nil
	}

	if !allowed.Contains(name) {
		return apierror.New(apierror.CodeUnsupported,
			"file extension is not allowed for this operation",
			strings.ToLower(filepath.Ext(name)), http.StatusUnsupportedMediaType)
	}

	return nil
}

// ValidateSize enforces a byte ceiling for an operation category.
func ValidateSize(sizeBytes int64, limit int64, category string) error {
	if limit > 0 && sizeBytes > limit {
		return apierror.New(apierror.CodeTooLarge,
			fmt.Sprintf("%s size exceeds the configured limit", category),
			fmt.Sprintf("%d > %d bytes", sizeBytes, limit), http.StatusRequestEntityTooLarge)
	}

	return nil
}

// EscapeForDisplay HTML-escapes text that is echoed back into a UI context.
// Filenames are attacker-controlled; a name like "<img onerror=...>" must
// render as text, not markup.
func EscapeForDisplay(text string) string {
	return html.EscapeString(text)
}

// isInvisibleUnicode returns true for zero-width and other invisible
// characters that make two visually identical names distinct files.
func isInvisibleUnicode(r rune) bool {
	switch r {
	case '\u200B', '\u200C', '\u200D', '\u200E', '\u200F',
		'\u2060', '\u2061', '\u2062', '\u2063', '\u2064',
		'\uFEFF', '\uFFF9', '\uFFFA', '\uFFFB':
		return true
	}

	return unicode.Is(unicode.Cf, r)
}
