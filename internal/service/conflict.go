package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go-file-manager/internal/storage"
	"go-file-manager/pkg/apierror"
)

const (
	ConflictPolicyOverwrite = "overwrite"
	ConflictPolicyRename    = "rename"
	ConflictPolicySkip      = "skip"
	ConflictPolicyReject    = "reject"
)

// normalizeConflictPolicy validates a client-supplied policy, substituting
// the caller's default when none was given. Uploads default to rename;
// moves default to reject so an unqualified move never shadows or renames
// an existing file.
func normalizeConflictPolicy(raw string, fallback string) (string, error) {
	policy := strings.ToLower(strings.TrimSpace(raw))
	if policy == "" {
		policy = fallback
	}

	switch policy {
	case ConflictPolicyOverwrite, ConflictPolicyRename, ConflictPolicySkip, ConflictPolicyReject:
		return policy, nil
	default:
		return "", apierror.BadRequest("invalid conflict_policy (allowed: overwrite|rename|skip|reject)", raw)
	}
}

// resolveConflictTarget applies a normalized conflict policy to a desired
// target path. The rename policy appends " (n)" before the extension until
// a free name is found; reject fails with Conflict when the target exists.
func resolveConflictTarget(store storage.Storage, desiredPath string, policy string) (string, bool, error) {
	if _, statErr := store.Stat(desiredPath); os.IsNotExist(statErr) {
		return desiredPath, false, nil
	} else if statErr != nil {
		return "", false, statErr
	}

	switch policy {
	case ConflictPolicyReject:
		return "", false, apierror.Conflict("target path already exists", desiredPath)
	case ConflictPolicySkip:
		return "", true, nil
	case ConflictPolicyOverwrite:
		if removeErr := store.RemoveAll(desiredPath); removeErr != nil {
			return "", false, fmt.Errorf("overwrite target %q: %w", desiredPath, removeErr)
		}
		return desiredPath, false, nil
	case ConflictPolicyRename:
		ext := filepath.Ext(desiredPath)
		baseName := strings.TrimSuffix(filepath.Base(desiredPath), ext)
		parent := filepath.Dir(desiredPath)

		for index := 1; index <= 10000; index++ {
			nextName := fmt.Sprintf("%s (%d)%s", baseName, index, ext)
			nextPath := normalizeAPIPath(filepath.Join(parent, nextName))
			if _, statErr := store.Stat(nextPath); os.IsNotExist(statErr) {
				return nextPath, false, nil
			} else if statErr != nil {
				return "", false, statErr
			}
		}

		return "", false, apierror.Conflict("could not resolve unique target name", desiredPath)
	default:
		return "", false, apierror.BadRequest("invalid conflict policy", policy)
	}
}
