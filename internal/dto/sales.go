package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductSalesResponse struct {
	ProductID    string          `json:"productId"`
	ProductName  string          `json:"productName"`
	ColorName    string          `json:"colorName"`
	QuantitySold int             `json:"quantitySold"`
	Revenue      decimal.Decimal `json:"revenue"`
	CapitalCost  decimal.Decimal `json:"capitalCost"`
	Profit       decimal.Decimal `json:"profit"`
}

type SalesSummaryResponse struct {
	TraceID      string                 `json:"traceId"`
	From         *time.Time             `json:"from,omitempty"`
	To           *time.Time             `json:"to,omitempty"`
	OrderCount   int                    `json:"orderCount"`
	Revenue      decimal.Decimal        `json:"revenue"`
	CapitalCost  decimal.Decimal        `json:"capitalCost"`
	ShippingCost decimal.Decimal        `json:"shippingCost"`
	Profit       decimal.Decimal        `json:"profit"`
	TopProducts  []ProductSalesResponse `json:"topProducts"`
}
