package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/climcare/repair-service/internal/domain"
	"github.com/climcare/repair-service/internal/lifecycle"
)

// RequestFilter captures listing parameters.
type RequestFilter struct {
	ClientID      *int64
	MasterID      *int64
	Statuses      []domain.Status
	EquipmentType *string
	SearchTerm    *string
	StartFrom     *time.Time
	StartTo       *time.Time
	Limit         int
	Offset        int
}

// RequestRepository encapsulates repair request persistence.
type RequestRepository interface {
	Create(ctx context.Context, request *domain.Request) error
	Update(ctx context.Context, request *domain.Request) error
	GetByID(ctx context.Context, id int64) (*domain.Request, error)
	GetByNumber(ctx context.Context, number string) (*domain.Request, error)
	ListWithFilter(ctx context.Context, filter RequestFilter) ([]domain.Request, error)
	ListAll(ctx context.Context) ([]domain.Request, error)
}

type requestRepository struct {
	pool *pgxpool.Pool
}

// NewRequestRepository instantiates repository.
func NewRequestRepository(pool *pgxpool.Pool) RequestRepository {
	return &requestRepository{pool: pool}
}

const requestColumns = `id, request_number, start_date, equipment_type, equipment_model,
       problem_description, status, priority, completion_date, repair_parts,
       master_id, client_id, quality_manager_id, created_at, updated_at`

// Create inserts the request, then stamps the derived number computed by
// the caller from the returned id. Both statements run in one transaction
// so a request is never visible without its number.
func (r *requestRepository) Create(ctx context.Context, request *domain.Request) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insert = `
        INSERT INTO requests (start_date, equipment_type, equipment_model, problem_description,
            status, priority, completion_date, repair_parts, master_id, client_id, quality_manager_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, insert,
		request.StartDate,
		request.EquipmentType,
		request.EquipmentModel,
		request.ProblemDescription,
		request.Status,
		request.Priority,
		request.CompletionDate,
		request.RepairParts,
		request.MasterID,
		request.ClientID,
		request.QualityManagerID,
	).Scan(&request.ID, &request.CreatedAt, &request.UpdatedAt); err != nil {
		return err
	}

	request.Number = lifecycle.Number(request.ID, request.CreatedAt)
	if _, err := tx.Exec(ctx,
		`UPDATE requests SET request_number=$1 WHERE id=$2`,
		request.Number, request.ID,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Update persists every mutable column. The request number is immutable
// and deliberately absent from the statement.
func (r *requestRepository) Update(ctx context.Context, request *domain.Request) error {
	const query = `
        UPDATE requests SET start_date=$1, equipment_type=$2, equipment_model=$3,
            problem_description=$4, status=$5, priority=$6, completion_date=$7,
            repair_parts=$8, master_id=$9, client_id=$10, quality_manager_id=$11, updated_at=NOW()
        WHERE id=$12`
	cmd, err := r.pool.Exec(ctx, query,
		request.StartDate,
		request.EquipmentType,
		request.EquipmentModel,
		request.ProblemDescription,
		request.Status,
		request.Priority,
		request.CompletionDate,
		request.RepairParts,
		request.MasterID,
		request.ClientID,
		request.QualityManagerID,
		request.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id int64) (*domain.Request, error) {
	return r.fetchSingle(ctx, `SELECT `+requestColumns+` FROM requests WHERE id=$1`, id)
}

func (r *requestRepository) GetByNumber(ctx context.Context, number string) (*domain.Request, error) {
	return r.fetchSingle(ctx, `SELECT `+requestColumns+` FROM requests WHERE request_number=$1`, number)
}

func (r *requestRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Request, error) {
	var request domain.Request
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&request.ID,
		&request.Number,
		&request.StartDate,
		&request.EquipmentType,
		&request.EquipmentModel,
		&request.ProblemDescription,
		&request.Status,
		&request.Priority,
		&request.CompletionDate,
		&request.RepairParts,
		&request.MasterID,
		&request.ClientID,
		&request.QualityManagerID,
		&request.CreatedAt,
		&request.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *requestRepository) ListWithFilter(ctx context.Context, filter RequestFilter) ([]domain.Request, error) {
	base := `SELECT ` + requestColumns + ` FROM requests`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		clauses = append(clauses, fmt.Sprintf("client_id=$%d", len(args)))
	}
	if filter.MasterID != nil {
		args = append(args, *filter.MasterID)
		clauses = append(clauses, fmt.Sprintf("master_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.EquipmentType != nil {
		args = append(args, *filter.EquipmentType)
		clauses = append(clauses, fmt.Sprintf("equipment_type=$%d", len(args)))
	}
	if filter.StartFrom != nil {
		args = append(args, *filter.StartFrom)
		clauses = append(clauses, fmt.Sprintf("start_date >= $%d", len(args)))
	}
	if filter.StartTo != nil {
		args = append(args, *filter.StartTo)
		clauses = append(clauses, fmt.Sprintf("start_date <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(problem_description) LIKE %s OR LOWER(equipment_model) LIKE %s OR LOWER(request_number) LIKE %s)",
			placeholder, placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY start_date DESC, id DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

// ListAll is the bulk scan backing the reporting aggregates.
func (r *requestRepository) ListAll(ctx context.Context) ([]domain.Request, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+requestColumns+` FROM requests`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

func scanRequests(rows pgx.Rows) ([]domain.Request, error) {
	var result []domain.Request
	for rows.Next() {
		var request domain.Request
		if err := rows.Scan(
			&request.ID,
			&request.Number,
			&request.StartDate,
			&request.EquipmentType,
			&request.EquipmentModel,
			&request.ProblemDescription,
			&request.Status,
			&request.Priority,
			&request.CompletionDate,
			&request.RepairParts,
			&request.MasterID,
			&request.ClientID,
			&request.QualityManagerID,
			&request.CreatedAt,
			&request.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, request)
	}
	return result, rows.Err()
}
