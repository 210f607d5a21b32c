package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"stockledger/internal/domain"
)

type SQLOrderItemRepository struct {
	db *sqlx.DB
}

func NewSQLOrderItemRepository(db *sqlx.DB) *SQLOrderItemRepository {
	return &SQLOrderItemRepository{db: db}
}

// InsertItems writes the order's items inside tx, assigning ids to new lines.
func (r *SQLOrderItemRepository) InsertItems(ctx context.Context, tx *sqlx.Tx, orderID string, items []domain.OrderItem) error {
	query := tx.Rebind(`
		INSERT INTO order_items (id, order_id, product_variant_id, quantity, unit_price)
		VALUES (?, ?, ?, ?, ?)
	`)

	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
		items[i].OrderID = orderID

		item := items[i]
		if _, err := tx.ExecContext(ctx, query, item.ID, orderID, item.ProductVariantID, item.Quantity, item.UnitPrice); err != nil {
			return fmt.Errorf("inserting order item: %w", err)
		}
	}

	return nil
}

func (r *SQLOrderItemRepository) DeleteItems(ctx context.Context, tx *sqlx.Tx, orderID string) error {
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM order_items WHERE order_id = ?`), orderID); err != nil {
		return fmt.Errorf("deleting order items: %w", err)
	}
	return nil
}

// FindByOrderIDs groups the items of several orders by order id.
func (r *SQLOrderItemRepository) FindByOrderIDs(ctx context.Context, orderIDs []string) (map[string][]domain.OrderItem, error) {
	grouped := make(map[string][]domain.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return grouped, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, order_id, product_variant_id, quantity, unit_price
		FROM order_items
		WHERE order_id IN (?)
		ORDER BY product_variant_id, id
	`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("building order items query: %w", err)
	}

	var items []domain.OrderItem
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("querying order items: %w", err)
	}

	for _, item := range items {
		grouped[item.OrderID] = append(grouped[item.OrderID], item)
	}
	return grouped, nil
}
