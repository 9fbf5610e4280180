package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go-file-manager/internal/model"
)

// TrashFileStore persists trash records as a JSON array in a single index
// file beside the trash directory. Every mutation rewrites the index
// atomically, mirroring the write discipline of the content store.
type TrashFileStore struct {
	filePath string
	lock     *timedLock
}

var _ TrashStore = (*TrashFileStore)(nil)

func NewTrashFileStore(filePath string, lockTimeout time.Duration) (*TrashFileStore, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, fmt.Errorf("prepare trash index directory: %w", err)
	}

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		if err := os.WriteFile(filePath, []byte("[]\n"), 0o644); err != nil {
			return nil, fmt.Errorf("initialize trash index: %w", err)
		}
	}

	return &TrashFileStore{filePath: filePath, lock: newTimedLock(lockTimeout)}, nil
}

func (s *TrashFileStore) Create(ctx context.Context, record model.TrashRecord) error {
	if err := s.lock.acquire(ctx); err != nil {
		return err
	}
	defer s.lock.release()

	records, err := s.load()
	if err != nil {
		return err
	}

	records = append(records, record)
	return s.save(records)
}

func (s *TrashFileStore) FindByID(ctx context.Context, id string) (model.TrashRecord, error) {
	if err := s.lock.acquire(ctx); err != nil {
		return model.TrashRecord{}, err
	}
	defer s.lock.release()

	records, err := s.load()
	if err != nil {
		return model.TrashRecord{}, err
	}

	for _, record := range records {
		if record.ID == id {
			return record, nil
		}
	}

	return model.TrashRecord{}, model.ErrTrashItemNotFound
}

func (s *TrashFileStore) List(ctx context.Context) ([]model.TrashRecord, error) {
	if err := s.lock.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.lock.release()

	records, err := s.load()
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i int, j int) bool {
		return records[i].DeletedAt > records[j].DeletedAt
	})
	return records, nil
}

func (s *TrashFileStore) ListOlderThan(ctx context.Context, cutoff time.Time) ([]model.TrashRecord, error) {
	if err := s.lock.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.lock.release()

	records, err := s.load()
	if err != nil {
		return nil, err
	}

	matched := make([]model.TrashRecord, 0, len(records))
	for _, record := range records {
		deletedAt, parseErr := parseActivityTime(record.DeletedAt)
		if parseErr != nil {
			continue
		}
		if deletedAt.Before(cutoff) {
			matched = append(matched, record)
		}
	}

	return matched, nil
}

func (s *TrashFileStore) Delete(ctx context.Context, id string) error {
	if err := s.lock.acquire(ctx); err != nil {
		return err
	}
	defer s.lock.release()

	records, err := s.load()
	if err != nil {
		return err
	}

	kept := make([]model.TrashRecord, 0, len(records))
	found := false
	for _, record := range records {
		if record.ID == id {
			found = true
			continue
		}
		kept = append(kept, record)
	}

	if !found {
		return model.ErrTrashItemNotFound
	}

	return s.save(kept)
}

func (s *TrashFileStore) load() ([]model.TrashRecord, error) {
	content, err := os.ReadFile(s.filePath)
	if err != nil {
		return nil, err
	}

	if len(content) == 0 {
		return []model.TrashRecord{}, nil
	}

	var records []model.TrashRecord
	if err := json.Unmarshal(content, &records); err != nil {
		return nil, fmt.Errorf("parse trash index: %w", err)
	}

	return records, nil
}

func (s *TrashFileStore) save(records []model.TrashRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal trash index: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.filePath), ".trash-index-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}

	if err := os.Rename(tmp.Name(), s.filePath); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}

	return nil
}
