package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateRange bounds order_date: From inclusive, To exclusive. Nil ends are open.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

func (r *DateRange) Contains(t time.Time) bool {
	if r == nil {
		return true
	}
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && !t.Before(*r.To) {
		return false
	}
	return true
}

// SaleOrder is a completed sale with its lines joined to the variant cost basis.
type SaleOrder struct {
	OrderID      string
	OrderDate    time.Time
	TotalAmount  decimal.Decimal
	FinalAmount  *decimal.Decimal
	ShippingCost *decimal.Decimal
	Lines        []SaleLine
}

type SaleLine struct {
	ProductID        string
	ProductName      string
	VariantID        string
	ColorName        string
	Quantity         int
	ItemUnitPrice    decimal.Decimal
	VariantUnitPrice decimal.Decimal
}
