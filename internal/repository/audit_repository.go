package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/repair-service/internal/domain"
)

// AuditRepository stores the append-only status update log. Entries are never
// updated or deleted.
type AuditRepository interface {
	Append(ctx context.Context, entry *domain.StatusUpdate) error
	ListByRepair(ctx context.Context, repairID string, limit, offset int) ([]domain.StatusUpdate, error)
}

type auditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository builds repository.
func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &auditRepository{pool: pool}
}

func (r *auditRepository) Append(ctx context.Context, entry *domain.StatusUpdate) error {
	const query = `
        INSERT INTO audit_log (repair_id, old_status, new_status, updated_by, notes)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.RepairID,
		entry.OldStatus,
		entry.NewStatus,
		entry.UpdatedBy,
		entry.Notes,
	).Scan(&entry.ID, &entry.Timestamp)
}

func (r *auditRepository) ListByRepair(ctx context.Context, repairID string, limit, offset int) ([]domain.StatusUpdate, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, repair_id, old_status, new_status, updated_by, notes, created_at
        FROM audit_log WHERE repair_id=$1 ORDER BY created_at ASC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, repairID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StatusUpdate
	for rows.Next() {
		var entry domain.StatusUpdate
		if err := rows.Scan(
			&entry.ID,
			&entry.RepairID,
			&entry.OldStatus,
			&entry.NewStatus,
			&entry.UpdatedBy,
			&entry.Notes,
			&entry.Timestamp,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
