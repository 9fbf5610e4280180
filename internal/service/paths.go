package service

import (
	"fmt"
	"path/filepath"
	"strings"

	"go-file-manager/internal/model"
)

// normalizeAPIPath canonicalizes a client-facing path to the "/"-rooted
// form used in responses. Containment is the storage layer's job; this
// only shapes the string.
func normalizeAPIPath(path string) string {
	cleaned := filepath.ToSlash(filepath.Clean(strings.TrimSpace(path)))
	if cleaned == "." || cleaned == "" {
		return "/"
	}

	if !strings.HasPrefix(cleaned, "/") {
		cleaned = "/" + cleaned
	}

	return cleaned
}

func toAPIPath(absPath string, rootAbs string) string {
	rel, err := filepath.Rel(rootAbs, absPath)
	if err != nil {
		return "/"
	}

	rel = filepath.ToSlash(rel)
	if rel == "." || rel == "" {
		return "/"
	}

	return normalizeAPIPath("/" + rel)
}

// breadcrumbsFor splits an API path into clickable ancestry segments,
// root first.
func breadcrumbsFor(apiPath string) []model.Breadcrumb {
	apiPath = normalizeAPIPath(apiPath)
	crumbs := []model.Breadcrumb{{Label: "/", Path: "/"}}
	if apiPath == "/" {
		return crumbs
	}

	accumulated := ""
	for _, segment := range strings.Split(strings.TrimPrefix(apiPath, "/"), "/") {
		if segment == "" {
			continue
		}
		accumulated += "/" + segment
		crumbs = append(crumbs, model.Breadcrumb{Label: segment, Path: accumulated})
	}

	return crumbs
}

func humanizeSize(size int64) string {
	if size < 1024 {
		return fmt.Sprintf("%d B", size)
	}

	units := []string{"KB", "MB", "GB", "TB"}
	value := float64(size)
	for _, unit := range units {
		value = value / 1024
		if value < 1024 {
			return fmt.Sprintf("%.0f %s", value, unit)
		}
	}

	return fmt.Sprintf("%.0f PB", value/1024)
}
