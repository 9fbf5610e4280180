package util

import (
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DetectMIMEFromFile sniffs the content type from the file's leading bytes
// and rewinds the handle for the caller.
func DetectMIMEFromFile(file *os.File) (string, error) {
	if _, err := file.Seek(0, 0); err != nil {
		return "", err
	}

	detected, err := mimetype.DetectReader(file)
	if err != nil {
		return "", err
	}

	if _, err := file.Seek(0, 0); err != nil {
		return "", err
	}

	return detected.String(), nil
}

// DetectMIME sniffs the content type of an in-memory prefix.
func DetectMIME(head []byte) string {
	return mimetype.Detect(head).String()
}

func IsImageMIME(mimeType string) bool {
	cleaned := strings.ToLower(strings.TrimSpace(mimeType))
	return strings.HasPrefix(cleaned, "image/")
}

func IsTextMIME(mimeType string) bool {
	cleaned := strings.ToLower(strings.TrimSpace(mimeType))
	if strings.HasPrefix(cleaned, "text/") {
		return true
	}

	switch {
	case strings.HasPrefix(cleaned, "application/json"),
		strings.HasPrefix(cleaned, "application/xml"),
		strings.HasPrefix(cleaned, "application/x-yaml"),
		strings.HasPrefix(cleaned, "application/javascript"):
		return true
	}

	return false
}

func IsThumbnailMIME(mimeType string) bool {
	base := strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.Index(base, ";"); idx >= 0 {
		base = strings.TrimSpace(base[:idx])
	}

	switch base {
	case "image/jpeg", "image/png", "image/gif", "image/webp", "image/bmp", "image/tiff":
		return true
	default:
		return false
	}
}
