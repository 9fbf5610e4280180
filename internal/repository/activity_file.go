package repository

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go-file-manager/internal/model"
)

// ActivityFileStore keeps the activity log as one JSON document per line in
// a single append-only file. Filtering cost is O(n) over the file, which is
// fine at moderate volumes and the documented trade-off of this backend;
// the postgres store covers the rest.
type ActivityFileStore struct {
	filePath string
	lock     *timedLock
}

var _ ActivityStore = (*ActivityFileStore)(nil)

func NewActivityFileStore(filePath string, lockTimeout time.Duration) (*ActivityFileStore, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, fmt.Errorf("prepare activity log directory: %w", err)
	}

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		if err := os.WriteFile(filePath, []byte{}, 0o644); err != nil {
			return nil, fmt.Errorf("initialize activity log: %w", err)
		}
	}

	return &ActivityFileStore{filePath: filePath, lock: newTimedLock(lockTimeout)}, nil
}

func (s *ActivityFileStore) Append(ctx context.Context, entry model.ActivityEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal activity entry: %w", err)
	}

	if err := s.lock.acquire(ctx); err != nil {
		return err
	}
	defer s.lock.release()

	f, err := os.OpenFile(s.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(append(data, '\n'))
	return err
}

func (s *ActivityFileStore) Query(ctx context.Context, query model.ActivityQuery) ([]model.ActivityEntry, model.Meta, error) {
	query = normalizeActivityQuery(query)

	from, to, err := parseQueryRange(query)
	if err != nil {
		return nil, model.Meta{}, err
	}

	if err := s.lock.acquire(ctx); err != nil {
		return nil, model.Meta{}, err
	}
	defer s.lock.release()

	f, err := os.Open(s.filePath)
	if err != nil {
		return nil, model.Meta{}, err
	}
	defer f.Close()

	items := make([]model.ActivityEntry, 0, 128)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry model.ActivityEntry
		if unmarshalErr := json.Unmarshal([]byte(line), &entry); unmarshalErr != nil {
			continue
		}

		if matchesActivityQuery(entry, query, from, to) {
			items = append(items, entry)
		}
	}
	if scanErr := scanner.Err(); scanErr != nil {
		return nil, model.Meta{}, scanErr
	}

	sortActivityEntries(items, query.SortBy, query.SortOrder)

	total := len(items)
	page, meta := paginate(total, query.Page, query.Limit)
	return items[page.start:page.end], meta, nil
}

// Prune drops entries strictly older than olderThan by rewriting the file
// through a temp-and-rename swap under the store lock.
func (s *ActivityFileStore) Prune(ctx context.Context, olderThan time.Time) (int, int, error) {
	if err := s.lock.acquire(ctx); err != nil {
		return 0, 0, err
	}
	defer s.lock.release()

	content, err := os.ReadFile(s.filePath)
	if err != nil {
		return 0, 0, err
	}

	kept := make([]string, 0, 128)
	deleted := 0
	for _, line := range strings.Split(string(content), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		var entry model.ActivityEntry
		if unmarshalErr := json.Unmarshal([]byte(trimmed), &entry); unmarshalErr != nil {
			deleted++
			continue
		}

		at, timeErr := parseActivityTime(entry.OccurredAt)
		if timeErr == nil && at.Before(olderThan) {
			deleted++
			continue
		}

		kept = append(kept, trimmed)
	}

	if deleted == 0 {
		return 0, len(kept), nil
	}

	payload := ""
	if len(kept) > 0 {
		payload = strings.Join(kept, "\n") + "\n"
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.filePath), ".activity-*")
	if err != nil {
		return 0, 0, err
	}
	if _, err := tmp.WriteString(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return 0, 0, err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, 0, err
	}

	if err := os.Rename(tmp.Name(), s.filePath); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, 0, err
	}

	return deleted, len(kept), nil
}

func normalizeActivityQuery(query model.ActivityQuery) model.ActivityQuery {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 50
	}
	if query.Limit > 200 {
		query.Limit = 200
	}

	query.Action = strings.ToLower(strings.TrimSpace(query.Action))
	query.TargetType = strings.ToLower(strings.TrimSpace(query.TargetType))
	query.Path = strings.TrimSpace(query.Path)
	query.IP = strings.TrimSpace(query.IP)
	return query
}

func parseQueryRange(query model.ActivityQuery) (time.Time, time.Time, error) {
	from, err := parseOptionalActivityTime(query.From)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid 'from' datetime", model.ErrInvalidInput)
	}

	to, err := parseOptionalActivityTime(query.To)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid 'to' datetime", model.ErrInvalidInput)
	}

	return from, to, nil
}

func matchesActivityQuery(entry model.ActivityEntry, query model.ActivityQuery, from time.Time, to time.Time) bool {
	if query.Action != "" && strings.ToLower(strings.TrimSpace(entry.Action)) != query.Action {
		return false
	}
	if query.TargetType != "" && strings.ToLower(strings.TrimSpace(entry.TargetType)) != query.TargetType {
		return false
	}
	if query.Path != "" && !strings.Contains(strings.ToLower(entry.TargetPath), strings.ToLower(query.Path)) {
		return false
	}
	if query.IP != "" && strings.TrimSpace(entry.Actor.IP) != query.IP {
		return false
	}

	if from.IsZero() && to.IsZero() {
		return true
	}

	at, err := parseActivityTime(entry.OccurredAt)
	if err != nil {
		return false
	}
	if !from.IsZero() && at.Before(from) {
		return false
	}
	if !to.IsZero() && at.After(to) {
		return false
	}

	return true
}

func sortActivityEntries(items []model.ActivityEntry, sortBy string, sortOrder string) {
	field := strings.ToLower(strings.TrimSpace(sortBy))
	ascending := strings.EqualFold(strings.TrimSpace(sortOrder), "asc")

	less := func(i int, j int) bool {
		switch field {
		case "action":
			return items[i].Action < items[j].Action
		case "target_path":
			return items[i].TargetPath < items[j].TargetPath
		case "ip":
			return items[i].Actor.IP < items[j].Actor.IP
		default:
			return items[i].OccurredAt < items[j].OccurredAt
		}
	}

	sort.SliceStable(items, func(i int, j int) bool {
		if ascending {
			return less(i, j)
		}
		return less(j, i)
	})
}

type pageBounds struct {
	start int
	end   int
}

func paginate(total int, page int, limit int) (pageBounds, model.Meta) {
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return pageBounds{start: start, end: end},
		model.Meta{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

func parseOptionalActivityTime(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, nil
	}

	return parseActivityTime(trimmed)
}

func parseActivityTime(raw string) (time.Time, error) {
	if value, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return value.UTC(), nil
	}

	value, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}

	return value.UTC(), nil
}
