package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/climcare/repair-service/internal/domain"
)

// HistoryRepository stores the append-only status transition audit trail.
type HistoryRepository interface {
	Create(ctx context.Context, record *domain.StatusChangeRecord) error
	ListByRequest(ctx context.Context, requestID int64) ([]domain.StatusChangeRecord, error)
}

type historyRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository instantiates repository.
func NewHistoryRepository(pool *pgxpool.Pool) HistoryRepository {
	return &historyRepository{pool: pool}
}

func (r *historyRepository) Create(ctx context.Context, record *domain.StatusChangeRecord) error {
	const query = `
        INSERT INTO request_history (request_id, old_status, new_status, changed_by, change_reason)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, changed_at`
	return r.pool.QueryRow(ctx, query,
		record.RequestID,
		record.OldStatus,
		record.NewStatus,
		record.ChangedBy,
		record.Reason,
	).Scan(&record.ID, &record.ChangedAt)
}

func (r *historyRepository) ListByRequest(ctx context.Context, requestID int64) ([]domain.StatusChangeRecord, error) {
	const query = `
        SELECT id, request_id, old_status, new_status, changed_by, change_reason, changed_at
        FROM request_history WHERE request_id=$1
        ORDER BY changed_at, id`
	rows, err := r.pool.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StatusChangeRecord
	for rows.Next() {
		var record domain.StatusChangeRecord
		if err := rows.Scan(
			&record.ID,
			&record.RequestID,
			&record.OldStatus,
			&record.NewStatus,
			&record.ChangedBy,
			&record.Reason,
			&record.ChangedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}
