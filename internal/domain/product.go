package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string           `db:"id"`
	Name        string           `db:"name"`
	Code        *string          `db:"code"`
	Category    *string          `db:"category"`
	BasePrice   *decimal.Decimal `db:"base_price"`
	Description *string          `db:"description"`
	IsActive    bool             `db:"is_active"`
	CreatedBy   *string          `db:"created_by"`
	CreatedAt   time.Time        `db:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at"`
}

// ProductVariant is one sellable color of a product. Its counters are only
// ever written by the ledger.
type ProductVariant struct {
	ID               string          `db:"id"`
	ProductID        string          `db:"product_id"`
	ColorName        string          `db:"color_name"`
	ColorCode        *string         `db:"color_code"`
	StockQuantity    int             `db:"stock_quantity"`
	ReservedQuantity int             `db:"reserved_quantity"`
	ReorderLevel     int             `db:"reorder_level"`
	UnitPrice        decimal.Decimal `db:"unit_price"`
	Notes            *string         `db:"notes"`
	IsActive         bool            `db:"is_active"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

// AvailableQuantity may be negative when reservations exceed stock.
func (v ProductVariant) AvailableQuantity() int {
	return v.StockQuantity - v.ReservedQuantity
}

type ProductWithVariants struct {
	Product
	Variants []ProductVariant
}

type StockStatus string

// MaxStockAdjustment bounds a single direct stock edit so counters stay
// within the 32-bit storage columns.
const MaxStockAdjustment = 1_000_000

const (
	StockStatusInStock       StockStatus = "IN_STOCK"
	StockStatusLowStock      StockStatus = "LOW_STOCK"
	StockStatusOutOfStock    StockStatus = "OUT_OF_STOCK"
	StockStatusNegativeStock StockStatus = "NEGATIVE_STOCK"
)

// StockStatusOf classifies a product by the summed availability of its
// variants. Negative totals are reported before anything else.
func StockStatusOf(variants []ProductVariant) StockStatus {
	total := 0
	low := false
	for _, v := range variants {
		available := v.AvailableQuantity()
		total += available
		if available > 0 && available <= v.ReorderLevel {
			low = true
		}
	}

	switch {
	case total < 0:
		return StockStatusNegativeStock
	case total == 0:
		return StockStatusOutOfStock
	case low:
		return StockStatusLowStock
	default:
		return StockStatusInStock
	}
}
