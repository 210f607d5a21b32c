package service

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stockledger/internal/domain"
	apperrors "stockledger/internal/errors"
)

type SalesRepository interface {
	ListCompletedSales(ctx context.Context, rng *domain.DateRange) ([]domain.SaleOrder, error)
}

// ProductSales is the breakdown for one color of one product.
type ProductSales struct {
	ProductID    string
	ProductName  string
	ColorName    string
	QuantitySold int
	Revenue      decimal.Decimal
	CapitalCost  decimal.Decimal
	Profit       decimal.Decimal
}

type SalesSummary struct {
	OrderCount   int
	Revenue      decimal.Decimal
	CapitalCost  decimal.Decimal
	ShippingCost decimal.Decimal
	Profit       decimal.Decimal
	TopProducts  []ProductSales
}

type SalesService struct {
	sales  SalesRepository
	logger *zap.Logger
}

func NewSalesService(sales SalesRepository, logger *zap.Logger) *SalesService {
	return &SalesService{sales: sales, logger: logger}
}

// GetSalesSummary aggregates every completed sale in rng. Capital cost uses
// the variant's current unit price, not the price recorded on the order.
func (s *SalesService) GetSalesSummary(ctx context.Context, rng *domain.DateRange) (*SalesSummary, error) {
	if rng != nil && rng.From != nil && rng.To != nil && !rng.From.Before(*rng.To) {
		return nil, apperrors.NewValidationError("invalid date range", apperrors.ValidationDetail{
			Field:   "to",
			Message: "to must be after from",
		})
	}

	orders, err := s.sales.ListCompletedSales(ctx, rng)
	if err != nil {
		return nil, err
	}

	summary := Summarize(orders)
	s.logger.Debug("sales summary computed",
		zap.Int("orderCount", summary.OrderCount),
		zap.String("profit", summary.Profit.String()),
	)
	return summary, nil
}

type productKey struct {
	productID string
	colorName string
}

// Summarize folds completed orders into totals and a per product-color
// ranking by quantity sold. Ties keep the order in which they first appeared.
func Summarize(orders []domain.SaleOrder) *SalesSummary {
	summary := &SalesSummary{
		OrderCount:   len(orders),
		Revenue:      decimal.Zero,
		CapitalCost:  decimal.Zero,
		ShippingCost: decimal.Zero,
		TopProducts:  []ProductSales{},
	}
	index := make(map[productKey]int)

	for _, o := range orders {
		revenue := o.TotalAmount
		if o.FinalAmount != nil {
			revenue = *o.FinalAmount
		}
		summary.Revenue = summary.Revenue.Add(revenue)
		if o.ShippingCost != nil {
			summary.ShippingCost = summary.ShippingCost.Add(*o.ShippingCost)
		}

		for _, line := range o.Lines {
			qty := decimal.NewFromInt(int64(line.Quantity))
			capital := line.VariantUnitPrice.Mul(qty)
			summary.CapitalCost = summary.CapitalCost.Add(capital)

			key := productKey{productID: line.ProductID, colorName: line.ColorName}
			i, ok := index[key]
			if !ok {
				i = len(summary.TopProducts)
				index[key] = i
				summary.TopProducts = append(summary.TopProducts, ProductSales{
					ProductID:   line.ProductID,
					ProductName: line.ProductName,
					ColorName:   line.ColorName,
					Revenue:     decimal.Zero,
					CapitalCost: decimal.Zero,
				})
			}

			p := &summary.TopProducts[i]
			p.QuantitySold += line.Quantity
			p.Revenue = p.Revenue.Add(line.ItemUnitPrice.Mul(qty))
			p.CapitalCost = p.CapitalCost.Add(capital)
		}
	}

	for i := range summary.TopProducts {
		p := &summary.TopProducts[i]
		p.Profit = p.Revenue.Sub(p.CapitalCost)
	}
	sort.SliceStable(summary.TopProducts, func(i, j int) bool {
		return summary.TopProducts[i].QuantitySold > summary.TopProducts[j].QuantitySold
	})

	summary.Profit = summary.Revenue.Sub(summary.CapitalCost).Sub(summary.ShippingCost)
	return summary
}
