package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/climcare/repair-service/internal/domain"
)

// CommentRepository encapsulates comment persistence. Comments are
// append-only: there is no update or delete.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	ListByRequest(ctx context.Context, requestID int64, includeInternal bool) ([]domain.Comment, error)
}

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository instantiates repository.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	const query = `
        INSERT INTO comments (request_id, author_id, message, is_internal)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		comment.RequestID,
		comment.AuthorID,
		comment.Message,
		comment.Internal,
	).Scan(&comment.ID, &comment.CreatedAt)
}

func (r *commentRepository) ListByRequest(ctx context.Context, requestID int64, includeInternal bool) ([]domain.Comment, error) {
	query := `
        SELECT id, request_id, author_id, message, is_internal, created_at
        FROM comments WHERE request_id=$1`
	if !includeInternal {
		query += ` AND NOT is_internal`
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComments(rows)
}

func scanComments(rows pgx.Rows) ([]domain.Comment, error) {
	var result []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.RequestID,
			&comment.AuthorID,
			&comment.Message,
			&comment.Internal,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}
