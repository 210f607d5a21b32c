package memory

import (
	"context"

	"stockledger/internal/domain"
)

// ListCompletedSales joins completed orders to their variants and products,
// newest order first. Lines whose variant is gone are skipped, as an inner
// join would.
func (s *Store) ListCompletedSales(_ context.Context, rng *domain.DateRange) ([]domain.SaleOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if o.IsCompletedSale() && rng.Contains(o.OrderDate) {
			orders = append(orders, o)
		}
	}
	sortNewestFirst(orders)

	sales := make([]domain.SaleOrder, 0, len(orders))
	for _, o := range orders {
		sale := domain.SaleOrder{
			OrderID:      o.ID,
			OrderDate:    o.OrderDate,
			TotalAmount:  o.TotalAmount,
			FinalAmount:  o.FinalAmount,
			ShippingCost: o.ShippingCost,
		}
		for _, item := range o.Items {
			v, ok := s.variants[item.ProductVariantID]
			if !ok {
				continue
			}
			sale.Lines = append(sale.Lines, domain.SaleLine{
				ProductID:        v.ProductID,
				ProductName:      s.products[v.ProductID].Name,
				VariantID:        v.ID,
				ColorName:        v.ColorName,
				Quantity:         item.Quantity,
				ItemUnitPrice:    item.UnitPrice,
				VariantUnitPrice: v.UnitPrice,
			})
		}
		sales = append(sales, sale)
	}
	return sales, nil
}
