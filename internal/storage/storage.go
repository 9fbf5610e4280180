package storage

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Storage is the sandboxed filesystem the services operate on. Implementors
// guarantee that every clientPath is containment-checked before any
// filesystem call; services never construct absolute paths themselves.
type Storage interface {
	RootAbs() string
	Sanitize(clientPath string) (string, error)
	Resolve(clientPath string) (string, error)
	Stat(clientPath string) (fs.FileInfo, error)
	Lstat(clientPath string) (fs.FileInfo, error)
	ReadDir(clientPath string) ([]fs.DirEntry, error)
	Mkdir(clientPath string, perm fs.FileMode) error
	MkdirAll(clientPath string, perm fs.FileMode) error
	Rename(oldPath string, newPath string) error
	RemoveAll(clientPath string) error
	OpenForRead(clientPath string) (*os.File, error)
	WriteAtomic(clientPath string, r io.Reader, perm fs.FileMode) (int64, error)
}

type Disk struct {
	validator *PathValidator
}

var _ Storage = (*Disk)(nil)

func New(root string) (*Disk, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}

	validator, err := NewPathValidator(root)
	if err != nil {
		return nil, err
	}

	return &Disk{validator: validator}, nil
}

func (s *Disk) RootAbs() string {
	return s.validator.RootAbs()
}

func (s *Disk) Sanitize(clientPath string) (string, error) {
	return s.validator.Sanitize(clientPath)
}

func (s *Disk) Resolve(clientPath string) (string, error) {
	return s.validator.ResolvePath(clientPath)
}

func (s *Disk) Stat(clientPath string) (fs.FileInfo, error) {
	resolved, err := s.Resolve(clientPath)
	if err != nil {
		return nil, err
	}

	return os.Stat(resolved)
}

func (s *Disk) Lstat(clientPath string) (fs.FileInfo, error) {
	resolved, err := s.Resolve(clientPath)
	if err != nil {
		return nil, err
	}

	return os.Lstat(resolved)
}

func (s *Disk) ReadDir(clientPath string) ([]fs.DirEntry, error) {
	resolved, err := s.Resolve(clientPath)
	if err != nil {
		return nil, err
	}

	return os.ReadDir(resolved)
}

// Mkdir creates a single directory. The parent must already exist; callers
// that want implicit parents use MkdirAll.
func (s *Disk) Mkdir(clientPath string, perm fs.FileMode) error {
	resolved, err := s.Resolve(clientPath)
	if err != nil {
		return err
	}

	return os.Mkdir(resolved, perm)
}

func (s *Disk) MkdirAll(clientPath string, perm fs.FileMode) error {
	resolved, err := s.Resolve(clientPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(resolved, perm); err != nil {
		return fmt.Errorf("mkdir %q: %w", clientPath, err)
	}

	return nil
}

// Rename moves oldPath to newPath atomically. Both ends are containment
// checked; parents are not created implicitly.
func (s *Disk) Rename(oldPath string, newPath string) error {
	oldResolved, err := s.Resolve(oldPath)
	if err != nil {
		return err
	}

	newResolved, err := s.Resolve(newPath)
	if err != nil {
		return err
	}

	return os.Rename(oldResolved, newResolved)
}

func (s *Disk) RemoveAll(clientPath string) error {
	resolved, err := s.Resolve(clientPath)
	if err != nil {
		return err
	}

	if err := os.RemoveAll(resolved); err != nil {
		return fmt.Errorf("remove %q: %w", clientPath, err)
	}

	return nil
}

func (s *Disk) OpenForRead(clientPath string) (*os.File, error) {
	resolved, err := s.Resolve(clientPath)
	if err != nil {
		return nil, err
	}

	return os.Open(resolved)
}

// WriteAtomic streams r into a temp file next to the target and commits it
// with a single rename. A crashed or aborted write never leaves a partial
// file at clientPath; the worst case is an orphaned temp file.
func (s *Disk) WriteAtomic(clientPath string, r io.Reader, perm fs.FileMode) (int64, error) {
	resolved, err := s.Resolve(clientPath)
	if err != nil {
		return 0, err
	}

	dir := filepath.Dir(resolved)
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file in %q: %w", filepath.Base(dir), err)
	}

	written, copyErr := io.CopyBuffer(tmp, r, make([]byte, 32*1024))
	closeErr := tmp.Close()
	if copyErr != nil {
		_ = os.Remove(tmp.Name())
		return 0, copyErr
	}
	if closeErr != nil {
		_ = os.Remove(tmp.Name())
		return 0, closeErr
	}

	if err := os.Chmod(tmp.Name(), perm); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, err
	}

	if err := os.Rename(tmp.Name(), resolved); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, err
	}

	return written, nil
}
