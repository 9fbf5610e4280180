package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"go-file-manager/internal/model"
)

// ActivityMemoryStore is an in-memory ActivityStore used by tests.
type ActivityMemoryStore struct {
	mu      sync.RWMutex
	entries []model.ActivityEntry
}

var _ ActivityStore = (*ActivityMemoryStore)(nil)

func NewActivityMemoryStore() *ActivityMemoryStore {
	return &ActivityMemoryStore{entries: make([]model.ActivityEntry, 0, 16)}
}

func (s *ActivityMemoryStore) Append(_ context.Context, entry model.ActivityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *ActivityMemoryStore) Query(_ context.Context, query model.ActivityQuery) ([]model.ActivityEntry, model.Meta, error) {
	query = normalizeActivityQuery(query)

	from, to, err := parseQueryRange(query)
	if err != nil {
		return nil, model.Meta{}, err
	}

	s.mu.RLock()
	items := make([]model.ActivityEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		if matchesActivityQuery(entry, query, from, to) {
			items = append(items, entry)
		}
	}
	s.mu.RUnlock()

	sortActivityEntries(items, query.SortBy, query.SortOrder)

	page, meta := paginate(len(items), query.Page, query.Limit)
	return items[page.start:page.end], meta, nil
}

func (s *ActivityMemoryStore) Prune(_ context.Context, olderThan time.Time) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]model.ActivityEntry, 0, len(s.entries))
	deleted := 0
	for _, entry := range s.entries {
		at, err := parseActivityTime(entry.OccurredAt)
		if err == nil && at.Before(olderThan) {
			deleted++
			continue
		}
		kept = append(kept, entry)
	}

	s.entries = kept
	return deleted, len(kept), nil
}

// TrashMemoryStore is an in-memory TrashStore used by tests.
type TrashMemoryStore struct {
	mu      sync.RWMutex
	records map[string]model.TrashRecord
}

var _ TrashStore = (*TrashMemoryStore)(nil)

func NewTrashMemoryStore() *TrashMemoryStore {
	return &TrashMemoryStore{records: make(map[string]model.TrashRecord)}
}

func (s *TrashMemoryStore) Create(_ context.Context, record model.TrashRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = record
	return nil
}

func (s *TrashMemoryStore) FindByID(_ context.Context, id string) (model.TrashRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return model.TrashRecord{}, model.ErrTrashItemNotFound
	}
	return record, nil
}

func (s *TrashMemoryStore) List(_ context.Context) ([]model.TrashRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]model.TrashRecord, 0, len(s.records))
	for _, record := range s.records {
		records = append(records, record)
	}

	sort.SliceStable(records, func(i int, j int) bool {
		return records[i].DeletedAt > records[j].DeletedAt
	})
	return records, nil
}

func (s *TrashMemoryStore) ListOlderThan(_ context.Context, cutoff time.Time) ([]model.TrashRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]model.TrashRecord, 0, len(s.records))
	for _, record := range s.records {
		deletedAt, err := parseActivityTime(record.DeletedAt)
		if err != nil {
			continue
		}
		if deletedAt.Before(cutoff) {
			matched = append(matched, record)
		}
	}

	return matched, nil
}

func (s *TrashMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return model.ErrTrashItemNotFound
	}
	delete(s.records, id)
	return nil
}
