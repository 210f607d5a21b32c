package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"stockledger/internal/domain"
)

const movementColumns = `id, product_variant_id, movement_type, quantity, reference_type, reference_id,
	reason, performed_by, performed_at`

const defaultMovementLimit = 100

// SQLMovementRepository only ever inserts; movements are never updated or deleted.
type SQLMovementRepository struct {
	db *sqlx.DB
}

func NewSQLMovementRepository(db *sqlx.DB) *SQLMovementRepository {
	return &SQLMovementRepository{db: db}
}

func (r *SQLMovementRepository) AppendMovement(ctx context.Context, m domain.StockMovement) error {
	query := r.db.Rebind(`
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.ProductVariantID, m.Type, m.Quantity, m.ReferenceType, m.ReferenceID,
		m.Reason, m.PerformedBy, m.PerformedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting stock movement: %w", err)
	}

	return nil
}

// ListMovementsPage returns up to limit movements of one variant strictly
// after the cursor, in (performed_at, id) order.
func (r *SQLMovementRepository) ListMovementsPage(ctx context.Context, variantID string, after *domain.MovementCursor, limit int) ([]domain.StockMovement, error) {
	if limit <= 0 {
		limit = defaultMovementLimit
	}

	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE product_variant_id = ?`
	args := []interface{}{variantID}
	if after != nil {
		query += ` AND (performed_at > ? OR (performed_at = ? AND id > ?))`
		args = append(args, after.PerformedAt, after.PerformedAt, after.ID)
	}
	query += ` ORDER BY performed_at ASC, id ASC LIMIT ?`
	args = append(args, limit)

	var movements []domain.StockMovement
	if err := r.db.SelectContext(ctx, &movements, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("querying stock movements page: %w", err)
	}

	return movements, nil
}

// ListMovements returns the newest movements matching the filter.
func (r *SQLMovementRepository) ListMovements(ctx context.Context, filter domain.MovementFilter) ([]domain.StockMovement, error) {
	var conditions []string
	var args []interface{}

	if filter.VariantID != "" {
		conditions = append(conditions, "product_variant_id = ?")
		args = append(args, filter.VariantID)
	}
	if filter.Type != "" {
		conditions = append(conditions, "movement_type = ?")
		args = append(args, filter.Type)
	}
	if filter.ReferenceType != "" {
		conditions = append(conditions, "reference_type = ?")
		args = append(args, filter.ReferenceType)
	}
	if filter.ReferenceID != "" {
		conditions = append(conditions, "reference_id = ?")
		args = append(args, filter.ReferenceID)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultMovementLimit
	}

	query := `SELECT ` + movementColumns + ` FROM stock_movements`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY performed_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	var movements []domain.StockMovement
	if err := r.db.SelectContext(ctx, &movements, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("querying stock movements: %w", err)
	}

	return movements, nil
}
