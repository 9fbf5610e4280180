package model

import "errors"

var (
	// File/Directory related errors
	ErrFileNotFound      = errors.New("file not found")
	ErrDirectoryNotFound = errors.New("directory not found")
	ErrPathConflict      = errors.New("path conflict")
	ErrParentNotFound    = errors.New("parent directory not found")

	// Trash related errors
	ErrTrashItemNotFound = errors.New("trash item not found")

	// Store related errors
	ErrLockTimeout = errors.New("store lock acquisition timed out")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
