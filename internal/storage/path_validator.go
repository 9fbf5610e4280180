package storage

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	"go-file-manager/pkg/apierror"
)

// PathValidator proves that request-supplied paths resolve inside the
// sandbox root. Every filesystem access in the engine routes through
// ResolvePath; nothing else is allowed to join paths on its own.
type PathValidator struct {
	rootAbs string
}

func NewPathValidator(root string) (*PathValidator, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("root path cannot be empty")
	}

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}

	// The root itself may live behind a symlink (e.g. /tmp on darwin).
	// Canonicalize it once so descendant checks compare like with like.
	if canonical, err := filepath.EvalSymlinks(rootAbs); err == nil {
		rootAbs = canonical
	}

	return &PathValidator{rootAbs: rootAbs}, nil
}

func (v *PathValidator) RootAbs() string {
	return v.rootAbs
}

// Sanitize normalizes a client path to a slash-separated path relative to
// the sandbox root ("" means the root itself). Percent-encoding is decoded
// exactly once and the decoded form re-checked, so double-encoded traversal
// sequences are caught. A ".." segment is rejected outright, never
// stripped: silently normalizing "a/../../b" to "b" is itself a traversal
// vector.
func (v *PathValidator) Sanitize(clientPath string) (string, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(clientPath), `\`, "/")
	if decoded, err := url.PathUnescape(normalized); err == nil {
		normalized = decoded
	}

	if normalized == "" || normalized == "/" {
		return "", nil
	}

	if strings.Contains(normalized, "\x00") || hasControlCharacters(normalized) {
		return "", apierror.Validation("path contains invalid characters", "")
	}

	if hasDrivePrefix(normalized) {
		return "", apierror.Traversal("absolute paths are not allowed", "")
	}

	trimmed := strings.TrimPrefix(normalized, "/")
	for _, segment := range strings.Split(trimmed, "/") {
		if segment == ".." {
			return "", apierror.Traversal("path traversal attempt detected", "")
		}
	}

	cleaned := path.Clean(trimmed)
	if cleaned == "." || cleaned == "" {
		return "", nil
	}

	return cleaned, nil
}

// ResolvePath sanitizes clientPath and resolves it to an absolute path
// proven to be the sandbox root or a descendant of it. Symlinks are
// evaluated before the containment check, so a link pointing outside the
// root fails here even though its lexical path looks fine.
func (v *PathValidator) ResolvePath(clientPath string) (string, error) {
	rel, err := v.Sanitize(clientPath)
	if err != nil {
		return "", err
	}

	if rel == "" {
		return v.rootAbs, nil
	}

	resolved := filepath.Join(v.rootAbs, filepath.FromSlash(rel))

	canonical, err := filepath.EvalSymlinks(resolved)
	switch {
	case err == nil:
		if !isWithinRoot(v.rootAbs, canonical) {
			return "", apierror.Traversal("resolved path is outside storage root", "")
		}
		return canonical, nil
	case os.IsNotExist(err):
		// The target does not exist yet (create/upload/rename destination).
		// Canonicalize the nearest existing ancestor and check that instead.
		ancestor, err := deepestExistingAncestor(resolved)
		if err != nil {
			return "", err
		}
		if !isWithinRoot(v.rootAbs, ancestor) {
			return "", apierror.Traversal("resolved path is outside storage root", "")
		}
		return resolved, nil
	default:
		return "", fmt.Errorf("canonicalize %q: %w", clientPath, err)
	}
}

// deepestExistingAncestor walks up from p until EvalSymlinks succeeds.
func deepestExistingAncestor(p string) (string, error) {
	current := filepath.Dir(p)
	for {
		canonical, err := filepath.EvalSymlinks(current)
		if err == nil {
			return canonical, nil
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("canonicalize ancestor %q: %w", current, err)
		}

		parent := filepath.Dir(current)
		if parent == current {
			return current, nil
		}
		current = parent
	}
}

func hasControlCharacters(value string) bool {
	for _, char := range value {
		if unicode.IsControl(char) {
			return true
		}
	}

	return false
}

func hasDrivePrefix(value string) bool {
	if len(value) < 2 || value[1] != ':' {
		return false
	}

	c := value[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isWithinRoot(rootAbs string, candidateAbs string) bool {
	if candidateAbs == rootAbs {
		return true
	}

	rootWithSeparator := rootAbs + string(filepath.Separator)
	return strings.HasPrefix(candidateAbs, rootWithSeparator)
}
