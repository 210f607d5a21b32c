package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"stockledger/internal/domain"
	apperrors "stockledger/internal/errors"
)

const variantColumns = `id, product_id, color_name, color_code, stock_quantity, reserved_quantity,
	reorder_level, unit_price, notes, is_active, created_at, updated_at`

// SQLVariantRepository applies counter changes as single UPDATE statements so
// concurrent deltas compose in the database.
type SQLVariantRepository struct {
	db *sqlx.DB
}

func NewSQLVariantRepository(db *sqlx.DB) *SQLVariantRepository {
	return &SQLVariantRepository{db: db}
}

func (r *SQLVariantRepository) FindVariantByID(ctx context.Context, id string) (*domain.ProductVariant, error) {
	query := r.db.Rebind(`SELECT ` + variantColumns + ` FROM product_variants WHERE id = ?`)

	var v domain.ProductVariant
	err := r.db.GetContext(ctx, &v, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("product variant %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying product variant by id: %w", err)
	}

	return &v, nil
}

func (r *SQLVariantRepository) AdjustStock(ctx context.Context, id string, delta int) error {
	query := r.db.Rebind(`
		UPDATE product_variants
		SET stock_quantity = stock_quantity + ?, updated_at = ?
		WHERE id = ? AND stock_quantity + ? >= 0
	`)

	result, err := r.db.ExecContext(ctx, query, delta, now(), id, delta)
	if err != nil {
		return fmt.Errorf("adjusting stock quantity: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		if _, err := r.FindVariantByID(ctx, id); err != nil {
			return err
		}
		return apperrors.NewInvalidAdjustmentError(id, delta, "stock quantity cannot become negative")
	}

	return nil
}

func (r *SQLVariantRepository) Reserve(ctx context.Context, id string, quantity int) error {
	query := `
		UPDATE product_variants
		SET reserved_quantity = reserved_quantity + ?, updated_at = ?
		WHERE id = ?
	`
	return r.execCounterUpdate(ctx, id, "incrementing reserved quantity", query, quantity, now(), id)
}

func (r *SQLVariantRepository) Release(ctx context.Context, id string, quantity int) error {
	query := `
		UPDATE product_variants
		SET reserved_quantity = GREATEST(reserved_quantity - ?, 0), updated_at = ?
		WHERE id = ?
	`
	return r.execCounterUpdate(ctx, id, "decrementing reserved quantity", query, quantity, now(), id)
}

func (r *SQLVariantRepository) Consume(ctx context.Context, id string, quantity int) error {
	query := `
		UPDATE product_variants
		SET stock_quantity = GREATEST(stock_quantity - ?, 0),
		    reserved_quantity = GREATEST(reserved_quantity - ?, 0),
		    updated_at = ?
		WHERE id = ?
	`
	return r.execCounterUpdate(ctx, id, "consuming stock", query, quantity, quantity, now(), id)
}

func (r *SQLVariantRepository) execCounterUpdate(ctx context.Context, id, action, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("product variant %s not found", id))
	}

	return nil
}

func now() time.Time {
	return time.Now().UTC()
}
