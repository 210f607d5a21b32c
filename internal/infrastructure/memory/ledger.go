package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"stockledger/internal/domain"
	apperrors "stockledger/internal/errors"
)

func (s *Store) FindVariantByID(_ context.Context, id string) (*domain.ProductVariant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.variants[id]
	if !ok {
		return nil, variantNotFound(id)
	}
	return &v, nil
}

func (s *Store) AdjustStock(_ context.Context, id string, delta int) error {
	return s.mutateVariant(id, func(v *domain.ProductVariant) error {
		if v.StockQuantity+delta < 0 {
			return apperrors.NewInvalidAdjustmentError(id, delta, "stock quantity cannot become negative")
		}
		v.StockQuantity += delta
		return nil
	})
}

func (s *Store) Reserve(_ context.Context, id string, quantity int) error {
	return s.mutateVariant(id, func(v *domain.ProductVariant) error {
		v.ReservedQuantity += quantity
		return nil
	})
}

func (s *Store) Release(_ context.Context, id string, quantity int) error {
	return s.mutateVariant(id, func(v *domain.ProductVariant) error {
		v.ReservedQuantity = max(v.ReservedQuantity-quantity, 0)
		return nil
	})
}

func (s *Store) Consume(_ context.Context, id string, quantity int) error {
	return s.mutateVariant(id, func(v *domain.ProductVariant) error {
		v.StockQuantity = max(v.StockQuantity-quantity, 0)
		v.ReservedQuantity = max(v.ReservedQuantity-quantity, 0)
		return nil
	})
}

func (s *Store) mutateVariant(id string, apply func(v *domain.ProductVariant) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.variants[id]
	if !ok {
		return variantNotFound(id)
	}
	if err := apply(&v); err != nil {
		return err
	}
	v.UpdatedAt = time.Now().UTC()
	s.variants[id] = v
	return nil
}

func (s *Store) AppendMovement(_ context.Context, m domain.StockMovement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.movements = append(s.movements, m)
	return nil
}

func (s *Store) ListMovementsPage(_ context.Context, variantID string, after *domain.MovementCursor, limit int) ([]domain.StockMovement, error) {
	s.mu.RLock()
	var matched []domain.StockMovement
	for _, m := range s.movements {
		if m.ProductVariantID == variantID && isAfter(m, after) {
			matched = append(matched, m)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return movementLess(matched[i], matched[j])
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *Store) ListMovements(_ context.Context, filter domain.MovementFilter) ([]domain.StockMovement, error) {
	s.mu.RLock()
	var matched []domain.StockMovement
	for _, m := range s.movements {
		if filter.VariantID != "" && m.ProductVariantID != filter.VariantID {
			continue
		}
		if filter.Type != "" && m.Type != filter.Type {
			continue
		}
		if filter.ReferenceType != "" && (m.ReferenceType == nil || *m.ReferenceType != filter.ReferenceType) {
			continue
		}
		if filter.ReferenceID != "" && (m.ReferenceID == nil || *m.ReferenceID != filter.ReferenceID) {
			continue
		}
		matched = append(matched, m)
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return movementLess(matched[j], matched[i])
	})
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func movementLess(a, b domain.StockMovement) bool {
	if !a.PerformedAt.Equal(b.PerformedAt) {
		return a.PerformedAt.Before(b.PerformedAt)
	}
	return a.ID < b.ID
}

func isAfter(m domain.StockMovement, cursor *domain.MovementCursor) bool {
	if cursor == nil {
		return true
	}
	return movementLess(domain.StockMovement{PerformedAt: cursor.PerformedAt, ID: cursor.ID}, m)
}

func variantNotFound(id string) error {
	return apperrors.NewNotFoundError(fmt.Sprintf("product variant %s not found", id))
}
