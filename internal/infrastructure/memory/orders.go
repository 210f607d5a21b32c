package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"stockledger/internal/domain"
	apperrors "stockledger/internal/errors"
)

func (s *Store) CreateOrder(_ context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.ID]; exists {
		return apperrors.NewValidationError(fmt.Sprintf("order %s already exists", order.ID))
	}
	s.orders[order.ID] = cloneOrder(*order)
	return nil
}

func (s *Store) FindOrderByID(_ context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, orderNotFound(id)
	}
	o = cloneOrder(o)
	return &o, nil
}

func (s *Store) ListOrders(_ context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	s.mu.RLock()
	orders := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if filter.Status != "" && o.PreparationStatus != filter.Status {
			continue
		}
		orders = append(orders, cloneOrder(o))
	}
	s.mu.RUnlock()

	sortNewestFirst(orders)

	if filter.Offset > 0 {
		if filter.Offset >= len(orders) {
			return []domain.Order{}, nil
		}
		orders = orders[filter.Offset:]
	}
	if filter.Limit > 0 && len(orders) > filter.Limit {
		orders = orders[:filter.Limit]
	}
	return orders, nil
}

func (s *Store) CompareAndSetStatus(_ context.Context, id string, version int, from, to domain.PreparationStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok || o.Version != version || o.PreparationStatus != from {
		return false, nil
	}
	o.PreparationStatus = to
	o.Version++
	o.UpdatedAt = time.Now().UTC()
	s.orders[id] = o
	return true, nil
}

func (s *Store) DeleteOrderAtVersion(_ context.Context, id string, version int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok || o.Version != version {
		return false, nil
	}
	delete(s.orders, id)
	return true, nil
}

func (s *Store) UpdateOrderDetails(_ context.Context, order *domain.Order) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.orders[order.ID]
	if !ok || current.Version != order.Version || current.PreparationStatus != order.PreparationStatus {
		return false, nil
	}

	current.CustomerName = order.CustomerName
	current.PhoneNumber = order.PhoneNumber
	current.ShippingMethod = order.ShippingMethod
	current.ShippingAddress = order.ShippingAddress
	current.DeliveryNotes = order.DeliveryNotes
	current.DiscountAmount = order.DiscountAmount
	current.TotalAmount = order.TotalAmount
	current.FinalAmount = order.FinalAmount
	current.Items = order.Items
	current.Version++
	current.UpdatedAt = time.Now().UTC()
	s.orders[order.ID] = cloneOrder(current)
	return true, nil
}

func (s *Store) UpdateTracking(_ context.Context, id string, tracking domain.Tracking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return orderNotFound(id)
	}
	o.ApplyTracking(tracking)
	o.UpdatedAt = time.Now().UTC()
	s.orders[id] = o
	return nil
}

func sortNewestFirst(orders []domain.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
}

func orderNotFound(id string) error {
	return apperrors.NewNotFoundError(fmt.Sprintf("order %s not found", id))
}
