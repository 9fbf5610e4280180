package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"go-file-manager/internal/model"
)

// ActivityPGStore is the postgres-backed ActivityStore, selected when
// DATABASE_URL is configured.
type ActivityPGStore struct {
	pool *pgxpool.Pool
}

var _ ActivityStore = (*ActivityPGStore)(nil)

func NewActivityPGStore(pool *pgxpool.Pool) *ActivityPGStore {
	return &ActivityPGStore{pool: pool}
}

func (r *ActivityPGStore) Append(ctx context.Context, entry model.ActivityEntry) error {
	var extraJSON []byte
	var err error

	if entry.Extra != nil {
		extraJSON, err = json.Marshal(entry.Extra)
		if err != nil {
			return fmt.Errorf("marshal extra data: %w", err)
		}
	}

	occurredAt, err := parseActivityTime(entry.OccurredAt)
	if err != nil {
		occurredAt = time.Now().UTC()
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO activity_entries
		 (action, occurred_at, actor_ip, actor_user_agent,
		  status, target_path, target_type, extra_data, error_text)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.Action, occurredAt, entry.Actor.IP, entry.Actor.UserAgent,
		entry.Status, entry.TargetPath, entry.TargetType, extraJSON, entry.Error)
	if err != nil {
		return fmt.Errorf("append activity entry: %w", err)
	}
	return nil
}

func (r *ActivityPGStore) Query(ctx context.Context, query model.ActivityQuery) ([]model.ActivityEntry, model.Meta, error) {
	query = normalizeActivityQuery(query)

	where := make([]string, 0)
	args := make([]any, 0)
	argIdx := 1

	if query.Action != "" {
		where = append(where, fmt.Sprintf("lower(action) = lower($%d)", argIdx))
		args = append(args, query.Action)
		argIdx++
	}
	if query.TargetType != "" {
		where = append(where, fmt.Sprintf("lower(target_type) = lower($%d)", argIdx))
		args = append(args, query.TargetType)
		argIdx++
	}
	if query.Path != "" {
		where = append(where, fmt.Sprintf("lower(target_path) LIKE lower($%d)", argIdx))
		args = append(args, "%"+query.Path+"%")
		argIdx++
	}
	if query.IP != "" {
		where = append(where, fmt.Sprintf("actor_ip = $%d", argIdx))
		args = append(args, query.IP)
		argIdx++
	}
	if from := strings.TrimSpace(query.From); from != "" {
		where = append(where, fmt.Sprintf("occurred_at >= $%d::timestamptz", argIdx))
		args = append(args, from)
		argIdx++
	}
	if to := strings.TrimSpace(query.To); to != "" {
		where = append(where, fmt.Sprintf("occurred_at <= $%d::timestamptz", argIdx))
		args = append(args, to)
		argIdx++
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM activity_entries %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, model.Meta{}, fmt.Errorf("count activity entries: %w", err)
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + query.Limit - 1) / query.Limit
	}
	meta := model.Meta{Page: query.Page, Limit: query.Limit, Total: total, TotalPages: totalPages}

	offset := (query.Page - 1) * query.Limit
	dataQuery := fmt.Sprintf(
		`SELECT action, occurred_at, actor_ip, actor_user_agent,
		        status, target_path, target_type, extra_data, error_text
		 FROM activity_entries %s
		 ORDER BY %s
		 LIMIT $%d OFFSET $%d`, whereClause, activityOrderClause(query), argIdx, argIdx+1)
	args = append(args, query.Limit, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, model.Meta{}, fmt.Errorf("query activity entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.ActivityEntry, 0)
	for rows.Next() {
		var e model.ActivityEntry
		var occurredAt time.Time
		var extraJSON []byte

		if err := rows.Scan(
			&e.Action, &occurredAt, &e.Actor.IP, &e.Actor.UserAgent,
			&e.Status, &e.TargetPath, &e.TargetType, &extraJSON, &e.Error,
		); err != nil {
			return nil, model.Meta{}, fmt.Errorf("scan activity entry: %w", err)
		}

		e.OccurredAt = occurredAt.UTC().Format(time.RFC3339Nano)

		if len(extraJSON) > 0 {
			var extra map[string]any
			if jsonErr := json.Unmarshal(extraJSON, &extra); jsonErr == nil {
				e.Extra = extra
			}
		}

		entries = append(entries, e)
	}

	return entries, meta, rows.Err()
}

func (r *ActivityPGStore) Prune(ctx context.Context, olderThan time.Time) (int, int, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM activity_entries WHERE occurred_at < $1`, olderThan)
	if err != nil {
		return 0, 0, fmt.Errorf("prune activity entries: %w", err)
	}

	var remaining int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM activity_entries`).Scan(&remaining); err != nil {
		return 0, 0, fmt.Errorf("count remaining activity entries: %w", err)
	}

	return int(tag.RowsAffected()), remaining, nil
}

func activityOrderClause(query model.ActivityQuery) string {
	column := "occurred_at"
	switch strings.ToLower(strings.TrimSpace(query.SortBy)) {
	case "action":
		column = "action"
	case "target_path":
		column = "target_path"
	case "ip":
		column = "actor_ip"
	}

	direction := "DESC"
	if strings.EqualFold(strings.TrimSpace(query.SortOrder), "asc") {
		direction = "ASC"
	}

	return column + " " + direction
}
