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
	"stockledger/internal/infrastructure/database"
)

const productColumns = `id, name, code, category, base_price, description, is_active, created_by, created_at, updated_at`

const variantColumns = `id, product_id, color_name, color_code, stock_quantity, reserved_quantity,
	reorder_level, unit_price, notes, is_active, created_at, updated_at`

// SQLProductRepository stores products and the descriptive side of their
// variants. Variant counters are written by the ledger only.
type SQLProductRepository struct {
	db *sqlx.DB
}

func NewSQLProductRepository(db *sqlx.DB) *SQLProductRepository {
	return &SQLProductRepository{db: db}
}

// CreateProduct inserts the product and its variants in one transaction.
func (r *SQLProductRepository) CreateProduct(ctx context.Context, p *domain.ProductWithVariants) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO products (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), p.ID, p.Name, p.Code, p.Category, p.BasePrice, p.Description, p.IsActive, p.CreatedBy, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return duplicateAsValidation(fmt.Errorf("inserting product: %w", err), "product code or id already exists")
	}

	insertVariant := tx.Rebind(`
		INSERT INTO product_variants (` + variantColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	for _, v := range p.Variants {
		_, err := tx.ExecContext(ctx, insertVariant,
			v.ID, p.ID, v.ColorName, v.ColorCode, v.StockQuantity, v.ReservedQuantity,
			v.ReorderLevel, v.UnitPrice, v.Notes, v.IsActive, v.CreatedAt, v.UpdatedAt,
		)
		if err != nil {
			return duplicateAsValidation(fmt.Errorf("inserting product variant: %w", err), fmt.Sprintf("color %q is listed twice", v.ColorName))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (r *SQLProductRepository) FindProductByID(ctx context.Context, id string) (*domain.ProductWithVariants, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, r.db.Rebind(`SELECT `+productColumns+` FROM products WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("product %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying product by id: %w", err)
	}

	variants, err := r.variantsOf(ctx, []string{id})
	if err != nil {
		return nil, err
	}

	return &domain.ProductWithVariants{Product: p, Variants: variants[id]}, nil
}

// ListProducts returns every product, newest first, with its variants
// ordered by color.
func (r *SQLProductRepository) ListProducts(ctx context.Context) ([]domain.ProductWithVariants, error) {
	var products []domain.Product
	if err := r.db.SelectContext(ctx, &products, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC, id DESC`); err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}

	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	variants, err := r.variantsOf(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]domain.ProductWithVariants, len(products))
	for i, p := range products {
		result[i] = domain.ProductWithVariants{Product: p, Variants: variants[p.ID]}
	}
	return result, nil
}

// UpdateVariantDetails rewrites descriptive fields only; counters are kept.
func (r *SQLProductRepository) UpdateVariantDetails(ctx context.Context, v domain.ProductVariant) error {
	query := r.db.Rebind(`
		UPDATE product_variants
		SET color_name = ?, color_code = ?, reorder_level = ?, unit_price = ?, notes = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`)

	result, err := r.db.ExecContext(ctx, query,
		v.ColorName, v.ColorCode, v.ReorderLevel, v.UnitPrice, v.Notes, v.IsActive, time.Now().UTC(), v.ID,
	)
	if err != nil {
		return duplicateAsValidation(fmt.Errorf("updating product variant: %w", err), fmt.Sprintf("color %q already exists for this product", v.ColorName))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("product variant %s not found", v.ID))
	}
	return nil
}

func (r *SQLProductRepository) variantsOf(ctx context.Context, productIDs []string) (map[string][]domain.ProductVariant, error) {
	grouped := make(map[string][]domain.ProductVariant, len(productIDs))
	if len(productIDs) == 0 {
		return grouped, nil
	}

	query, args, err := sqlx.In(`
		SELECT `+variantColumns+`
		FROM product_variants
		WHERE product_id IN (?)
		ORDER BY color_name
	`, productIDs)
	if err != nil {
		return nil, fmt.Errorf("building variants query: %w", err)
	}

	var variants []domain.ProductVariant
	if err := r.db.SelectContext(ctx, &variants, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("querying product variants: %w", err)
	}

	for _, v := range variants {
		grouped[v.ProductID] = append(grouped[v.ProductID], v)
	}
	return grouped, nil
}

func duplicateAsValidation(err error, message string) error {
	if database.IsDuplicateKey(err) {
		return apperrors.NewValidationError(message)
	}
	return err
}
