package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-file-manager/internal/model"
)

// TrashPGStore is the postgres-backed TrashStore, selected when
// DATABASE_URL is configured.
type TrashPGStore struct {
	pool *pgxpool.Pool
}

var _ TrashStore = (*TrashPGStore)(nil)

func NewTrashPGStore(pool *pgxpool.Pool) *TrashPGStore {
	return &TrashPGStore{pool: pool}
}

func (r *TrashPGStore) Create(ctx context.Context, record model.TrashRecord) error {
	deletedAt, err := parseActivityTime(record.DeletedAt)
	if err != nil {
		deletedAt = time.Now().UTC()
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO trash_records
		 (id, original_path, original_kind, size_bytes, deleted_at,
		  deleted_by_ip, deleted_by_user_agent)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.ID, record.OriginalPath, record.OriginalKind, record.SizeBytes,
		deletedAt, record.DeletedBy.IP, record.DeletedBy.UserAgent)
	if err != nil {
		return fmt.Errorf("create trash record: %w", err)
	}
	return nil
}

func (r *TrashPGStore) FindByID(ctx context.Context, id string) (model.TrashRecord, error) {
	var rec model.TrashRecord
	var deletedAt time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT id, original_path, original_kind, size_bytes, deleted_at,
		        deleted_by_ip, deleted_by_user_agent
		 FROM trash_records
		 WHERE id = $1`, id).
		Scan(&rec.ID, &rec.OriginalPath, &rec.OriginalKind, &rec.SizeBytes,
			&deletedAt, &rec.DeletedBy.IP, &rec.DeletedBy.UserAgent)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.TrashRecord{}, model.ErrTrashItemNotFound
	}
	if err != nil {
		return model.TrashRecord{}, fmt.Errorf("find trash by id: %w", err)
	}
	rec.DeletedAt = deletedAt.UTC().Format(time.RFC3339Nano)
	return rec, nil
}

func (r *TrashPGStore) List(ctx context.Context) ([]model.TrashRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, original_path, original_kind, size_bytes, deleted_at,
		        deleted_by_ip, deleted_by_user_agent
		 FROM trash_records
		 ORDER BY deleted_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list trash: %w", err)
	}
	defer rows.Close()

	return scanTrashRecords(rows)
}

func (r *TrashPGStore) ListOlderThan(ctx context.Context, cutoff time.Time) ([]model.TrashRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, original_path, original_kind, size_bytes, deleted_at,
		        deleted_by_ip, deleted_by_user_agent
		 FROM trash_records
		 WHERE deleted_at < $1
		 ORDER BY deleted_at ASC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list expired trash: %w", err)
	}
	defer rows.Close()

	return scanTrashRecords(rows)
}

func (r *TrashPGStore) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM trash_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete trash record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTrashItemNotFound
	}
	return nil
}

func scanTrashRecords(rows pgx.Rows) ([]model.TrashRecord, error) {
	records := make([]model.TrashRecord, 0)
	for rows.Next() {
		var rec model.TrashRecord
		var deletedAt time.Time

		if err := rows.Scan(
			&rec.ID, &rec.OriginalPath, &rec.OriginalKind, &rec.SizeBytes,
			&deletedAt, &rec.DeletedBy.IP, &rec.DeletedBy.UserAgent,
		); err != nil {
			return nil, fmt.Errorf("scan trash record: %w", err)
		}

		rec.DeletedAt = deletedAt.UTC().Format(time.RFC3339Nano)
		records = append(records, rec)
	}
	return records, rows.Err()
}
