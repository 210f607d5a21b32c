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

const orderColumns = `id, customer_name, phone_number, shipping_method, shipping_address, delivery_notes,
	order_date, preparation_status, is_confirmed, is_accepted, total_amount, discount_amount,
	final_amount, shipping_cost, packet_number, package_sent_date, package_received_date,
	last_pickup_date, created_by, created_at, updated_at, version`

const defaultOrderLimit = 50

type SQLOrderRepository struct {
	db    *sqlx.DB
	items *SQLOrderItemRepository
}

func NewSQLOrderRepository(db *sqlx.DB) *SQLOrderRepository {
	return &SQLOrderRepository{
		db:    db,
		items: NewSQLOrderItemRepository(db),
	}
}

// CreateOrder inserts the order and its items in one transaction.
func (r *SQLOrderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		query := tx.Rebind(`
			INSERT INTO orders (` + orderColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)

		_, err := tx.ExecContext(ctx, query,
			order.ID, order.CustomerName, order.PhoneNumber, order.ShippingMethod, order.ShippingAddress,
			order.DeliveryNotes, order.OrderDate, order.PreparationStatus, order.IsConfirmed, order.IsAccepted,
			order.TotalAmount, order.DiscountAmount, order.FinalAmount, order.ShippingCost, order.PacketNumber,
			order.PackageSentDate, order.PackageReceivedDate, order.LastPickupDate, order.CreatedBy,
			order.CreatedAt, order.UpdatedAt, order.Version,
		)
		if err != nil {
			return fmt.Errorf("inserting order: %w", err)
		}

		return r.items.InsertItems(ctx, tx, order.ID, order.Items)
	})
}

func (r *SQLOrderRepository) FindOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	query := r.db.Rebind(`SELECT ` + orderColumns + ` FROM orders WHERE id = ?`)

	var order domain.Order
	err := r.db.GetContext(ctx, &order, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("order %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying order by id: %w", err)
	}

	items, err := r.items.FindByOrderIDs(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	order.Items = items[id]

	return &order, nil
}

func (r *SQLOrderRepository) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultOrderLimit
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	var args []interface{}
	if filter.Status != "" {
		query += ` WHERE preparation_status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, filter.Offset)

	var orders []domain.Order
	if err := r.db.SelectContext(ctx, &orders, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}

	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	items, err := r.items.FindByOrderIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}

	return orders, nil
}

// CompareAndSetStatus moves the order from one status to another and reports
// whether this call made the change. It matches only while the order is
// still at the given version.
func (r *SQLOrderRepository) CompareAndSetStatus(ctx context.Context, id string, version int, from, to domain.PreparationStatus) (bool, error) {
	query := r.db.Rebind(`
		UPDATE orders SET preparation_status = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ? AND preparation_status = ?
	`)

	result, err := r.db.ExecContext(ctx, query, to, time.Now().UTC(), id, version, from)
	if err != nil {
		return false, fmt.Errorf("updating order status: %w", err)
	}

	return changedRow(result)
}

// DeleteOrderAtVersion deletes the order, and through the foreign key its
// items, only while it is still at the given version.
func (r *SQLOrderRepository) DeleteOrderAtVersion(ctx context.Context, id string, version int) (bool, error) {
	query := r.db.Rebind(`DELETE FROM orders WHERE id = ? AND version = ?`)

	result, err := r.db.ExecContext(ctx, query, id, version)
	if err != nil {
		return false, fmt.Errorf("deleting order: %w", err)
	}

	return changedRow(result)
}

// UpdateOrderDetails rewrites customer fields, totals and the item list of the
// order as it was read: the row must still carry order.Version and
// order.PreparationStatus. It reports false when the order changed or is gone.
func (r *SQLOrderRepository) UpdateOrderDetails(ctx context.Context, order *domain.Order) (bool, error) {
	var saved bool
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		query := tx.Rebind(`
			UPDATE orders
			SET customer_name = ?, phone_number = ?, shipping_method = ?, shipping_address = ?,
			    delivery_notes = ?, discount_amount = ?, total_amount = ?, final_amount = ?,
			    version = version + 1, updated_at = ?
			WHERE id = ? AND version = ? AND preparation_status = ?
		`)

		result, err := tx.ExecContext(ctx, query,
			order.CustomerName, order.PhoneNumber, order.ShippingMethod, order.ShippingAddress,
			order.DeliveryNotes, order.DiscountAmount, order.TotalAmount, order.FinalAmount,
			time.Now().UTC(), order.ID, order.Version, order.PreparationStatus,
		)
		if err != nil {
			return fmt.Errorf("updating order: %w", err)
		}
		if saved, err = changedRow(result); err != nil || !saved {
			return err
		}

		if err := r.items.DeleteItems(ctx, tx, order.ID); err != nil {
			return err
		}
		return r.items.InsertItems(ctx, tx, order.ID, order.Items)
	})
	if err != nil {
		return false, err
	}
	return saved, nil
}

func (r *SQLOrderRepository) UpdateTracking(ctx context.Context, id string, tracking domain.Tracking) error {
	query := r.db.Rebind(`
		UPDATE orders
		SET is_confirmed = ?, is_accepted = ?, shipping_cost = ?, packet_number = ?,
		    package_sent_date = ?, package_received_date = ?, last_pickup_date = ?, updated_at = ?
		WHERE id = ?
	`)

	result, err := r.db.ExecContext(ctx, query,
		tracking.IsConfirmed, tracking.IsAccepted, tracking.ShippingCost, tracking.PacketNumber,
		tracking.PackageSentDate, tracking.PackageReceivedDate, tracking.LastPickupDate,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating order tracking: %w", err)
	}

	return expectRow(result, id)
}

func (r *SQLOrderRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	// Rollback is a no-op once committed.
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func changedRow(result sql.Result) (bool, error) {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

func expectRow(result sql.Result, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("order %s not found", id))
	}
	return nil
}
