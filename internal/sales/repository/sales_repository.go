package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"stockledger/internal/domain"
)

type SQLSalesRepository struct {
	db *sqlx.DB
}

func NewSQLSalesRepository(db *sqlx.DB) *SQLSalesRepository {
	return &SQLSalesRepository{db: db}
}

type saleRow struct {
	OrderID          string           `db:"order_id"`
	OrderDate        time.Time        `db:"order_date"`
	TotalAmount      decimal.Decimal  `db:"total_amount"`
	FinalAmount      *decimal.Decimal `db:"final_amount"`
	ShippingCost     *decimal.Decimal `db:"shipping_cost"`
	ProductID        *string          `db:"product_id"`
	ProductName      *string          `db:"product_name"`
	VariantID        *string          `db:"variant_id"`
	ColorName        *string          `db:"color_name"`
	Quantity         *int             `db:"quantity"`
	ItemUnitPrice    *decimal.Decimal `db:"item_unit_price"`
	VariantUnitPrice *decimal.Decimal `db:"variant_unit_price"`
}

// ListCompletedSales returns confirmed and accepted orders, newest first,
// with each line joined to its variant's cost basis. Lines whose variant no
// longer exists are dropped; the order itself is kept.
func (r *SQLSalesRepository) ListCompletedSales(ctx context.Context, rng *domain.DateRange) ([]domain.SaleOrder, error) {
	conditions := []string{"o.is_confirmed = TRUE", "o.is_accepted = TRUE"}
	var args []any
	if rng != nil && rng.From != nil {
		conditions = append(conditions, "o.order_date >= ?")
		args = append(args, *rng.From)
	}
	if rng != nil && rng.To != nil {
		conditions = append(conditions, "o.order_date < ?")
		args = append(args, *rng.To)
	}

	query := r.db.Rebind(`
		SELECT
			o.id AS order_id, o.order_date, o.total_amount, o.final_amount, o.shipping_cost,
			p.id AS product_id, p.name AS product_name,
			pv.id AS variant_id, pv.color_name,
			oi.quantity, oi.unit_price AS item_unit_price, pv.unit_price AS variant_unit_price
		FROM orders o
		LEFT JOIN order_items oi ON oi.order_id = o.id
		LEFT JOIN product_variants pv ON pv.id = oi.product_variant_id
		LEFT JOIN products p ON p.id = pv.product_id
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY o.created_at DESC, o.id DESC, oi.product_variant_id ASC
	`)

	var rows []saleRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying completed sales: %w", err)
	}

	return groupSales(rows), nil
}

func groupSales(rows []saleRow) []domain.SaleOrder {
	sales := make([]domain.SaleOrder, 0)
	for _, row := range rows {
		if len(sales) == 0 || sales[len(sales)-1].OrderID != row.OrderID {
			sales = append(sales, domain.SaleOrder{
				OrderID:      row.OrderID,
				OrderDate:    row.OrderDate,
				TotalAmount:  row.TotalAmount,
				FinalAmount:  row.FinalAmount,
				ShippingCost: row.ShippingCost,
			})
		}
		if row.VariantID == nil || row.Quantity == nil {
			continue
		}

		sale := &sales[len(sales)-1]
		line := domain.SaleLine{
			VariantID: *row.VariantID,
			Quantity:  *row.Quantity,
		}
		if row.ProductID != nil {
			line.ProductID = *row.ProductID
		}
		if row.ProductName != nil {
			line.ProductName = *row.ProductName
		}
		if row.ColorName != nil {
			line.ColorName = *row.ColorName
		}
		if row.ItemUnitPrice != nil {
			line.ItemUnitPrice = *row.ItemUnitPrice
		}
		if row.VariantUnitPrice != nil {
			line.VariantUnitPrice = *row.VariantUnitPrice
		}
		sale.Lines = append(sale.Lines, line)
	}
	return sales
}
