package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/repair-service/internal/domain"
)

// RepairFilter captures listing parameters.
type RepairFilter struct {
	ShopID             *string
	CustomerID         *string
	AssignedTechnician *string
	Statuses           []domain.RepairStatus
	SearchTerm         *string
	CreatedFrom        *time.Time
	CreatedTo          *time.Time
	Limit              int
	Offset             int
}

// RepairRepository encapsulates repair persistence, including the timeline.
// Implementations must serialize concurrent writes to the same repair; the
// workflow performs read-validate-write and relies on the status guard in
// UpdateStatus to reject a stale current status.
type RepairRepository interface {
	Create(ctx context.Context, repair *domain.Repair) error
	Update(ctx context.Context, repair *domain.Repair) error
	UpdateStatus(ctx context.Context, repairID string, from, to domain.RepairStatus) error
	GetByID(ctx context.Context, id string) (*domain.Repair, error)
	GetByExternalKey(ctx context.Context, key string) (*domain.Repair, error)
	ListWithFilter(ctx context.Context, filter RepairFilter) ([]domain.Repair, error)
	GetTimeline(ctx context.Context, repairID string) ([]domain.TimelineEvent, error)
	SetTimeline(ctx context.Context, repairID string, events []domain.TimelineEvent) error
}

type repairRepository struct {
	pool *pgxpool.Pool
}

// NewRepairRepository instantiates repository.
func NewRepairRepository(pool *pgxpool.Pool) RepairRepository {
	return &repairRepository{pool: pool}
}

const repairColumns = `id, external_key, shop_id, customer_id, customer_name, customer_phone,
               product_type, product_brand, product_model, serial_number, description,
               assigned_technician, status, estimated_cost, final_cost, created_at, updated_at`

func (r *repairRepository) Create(ctx context.Context, repair *domain.Repair) error {
	const query = `
        INSERT INTO repairs (external_key, shop_id, customer_id, customer_name, customer_phone,
            product_type, product_brand, product_model, serial_number, description,
            assigned_technician, status, estimated_cost, final_cost)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		repair.ExternalKey,
		repair.ShopID,
		repair.CustomerID,
		repair.CustomerName,
		repair.CustomerPhone,
		repair.ProductType,
		repair.ProductBrand,
		repair.ProductModel,
		repair.SerialNumber,
		repair.Description,
		repair.AssignedTechnician,
		repair.Status,
		repair.EstimatedCost,
		repair.FinalCost,
	).Scan(&repair.ID, &repair.CreatedAt, &repair.UpdatedAt)
}

func (r *repairRepository) Update(ctx context.Context, repair *domain.Repair) error {
	const query = `
        UPDATE repairs SET customer_name=$1, customer_phone=$2, product_type=$3, product_brand=$4,
            product_model=$5, serial_number=$6, description=$7, assigned_technician=$8,
            status=$9, estimated_cost=$10, final_cost=$11, updated_at=NOW()
        WHERE id=$12`
	cmd, err := r.pool.Exec(ctx, query,
		repair.CustomerName,
		repair.CustomerPhone,
		repair.ProductType,
		repair.ProductBrand,
		repair.ProductModel,
		repair.SerialNumber,
		repair.Description,
		repair.AssignedTechnician,
		repair.Status,
		repair.EstimatedCost,
		repair.FinalCost,
		repair.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// UpdateStatus writes the new status only when the stored status still equals
// from, so two racing transitions cannot both commit from a stale read.
func (r *repairRepository) UpdateStatus(ctx context.Context, repairID string, from, to domain.RepairStatus) error {
	const query = `UPDATE repairs SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`
	cmd, err := r.pool.Exec(ctx, query, to, repairID, from)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repairRepository) GetByID(ctx context.Context, id string) (*domain.Repair, error) {
	query := fmt.Sprintf(`SELECT %s FROM repairs WHERE id=$1`, repairColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *repairRepository) GetByExternalKey(ctx context.Context, key string) (*domain.Repair, error) {
	query := fmt.Sprintf(`SELECT %s FROM repairs WHERE external_key=$1`, repairColumns)
	return r.fetchSingle(ctx, query, key)
}

func (r *repairRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Repair, error) {
	var repair domain.Repair
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&repair.ID,
		&repair.ExternalKey,
		&repair.ShopID,
		&repair.CustomerID,
		&repair.CustomerName,
		&repair.CustomerPhone,
		&repair.ProductType,
		&repair.ProductBrand,
		&repair.ProductModel,
		&repair.SerialNumber,
		&repair.Description,
		&repair.AssignedTechnician,
		&repair.Status,
		&repair.EstimatedCost,
		&repair.FinalCost,
		&repair.CreatedAt,
		&repair.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &repair, nil
}

func (r *repairRepository) ListWithFilter(ctx context.Context, filter RepairFilter) ([]domain.Repair, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ShopID != nil {
		args = append(args, *filter.ShopID)
		clauses = append(clauses, fmt.Sprintf("shop_id=$%d", len(args)))
	}
	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		clauses = append(clauses, fmt.Sprintf("customer_id=$%d", len(args)))
	}
	if filter.AssignedTechnician != nil {
		args = append(args, *filter.AssignedTechnician)
		clauses = append(clauses, fmt.Sprintf("assigned_technician=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(customer_name) LIKE %s OR LOWER(serial_number) LIKE %s OR LOWER(external_key) LIKE %s)",
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

	query := fmt.Sprintf(`SELECT %s FROM repairs WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		repairColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Repair
	for rows.Next() {
		var repair domain.Repair
		if err := rows.Scan(
			&repair.ID,
			&repair.ExternalKey,
			&repair.ShopID,
			&repair.CustomerID,
			&repair.CustomerName,
			&repair.CustomerPhone,
			&repair.ProductType,
			&repair.ProductBrand,
			&repair.ProductModel,
			&repair.SerialNumber,
			&repair.Description,
			&repair.AssignedTechnician,
			&repair.Status,
			&repair.EstimatedCost,
			&repair.FinalCost,
			&repair.CreatedAt,
			&repair.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, repair)
	}
	return result, rows.Err()
}

func (r *repairRepository) GetTimeline(ctx context.Context, repairID string) ([]domain.TimelineEvent, error) {
	const query = `
        SELECT step, event_date, completed, user_name
        FROM repair_timeline WHERE repair_id=$1 ORDER BY event_date ASC`
	rows, err := r.pool.Query(ctx, query, repairID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.TimelineEvent
	for rows.Next() {
		var event domain.TimelineEvent
		if err := rows.Scan(&event.Step, &event.Date, &event.Completed, &event.User); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// SetTimeline replaces the stored timeline wholesale inside one transaction.
func (r *repairRepository) SetTimeline(ctx context.Context, repairID string, events []domain.TimelineEvent) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM repair_timeline WHERE repair_id=$1`, repairID); err != nil {
		return err
	}
	const insert = `
        INSERT INTO repair_timeline (repair_id, step, event_date, completed, user_name)
        VALUES ($1,$2,$3,$4,$5)`
	for _, event := range events {
		if _, err := tx.Exec(ctx, insert, repairID, event.Step, event.Date, event.Completed, event.User); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
