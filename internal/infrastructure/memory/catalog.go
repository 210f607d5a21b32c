package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"stockledger/internal/domain"
	apperrors "stockledger/internal/errors"
)

func (s *Store) CreateProduct(_ context.Context, p *domain.ProductWithVariants) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[p.ID]; exists {
		return apperrors.NewValidationError(fmt.Sprintf("product %s already exists", p.ID))
	}

	s.products[p.ID] = p.Product
	s.productOrder = append(s.productOrder, p.ID)
	for _, v := range p.Variants {
		s.variants[v.ID] = v
	}
	return nil
}

func (s *Store) FindProductByID(_ context.Context, id string) (*domain.ProductWithVariants, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("product %s not found", id))
	}
	return &domain.ProductWithVariants{Product: p, Variants: s.variantsOf(id)}, nil
}

func (s *Store) ListProducts(_ context.Context) ([]domain.ProductWithVariants, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.ProductWithVariants, 0, len(s.productOrder))
	for i := len(s.productOrder) - 1; i >= 0; i-- {
		id := s.productOrder[i]
		products = append(products, domain.ProductWithVariants{
			Product:  s.products[id],
			Variants: s.variantsOf(id),
		})
	}
	return products, nil
}

// UpdateVariantDetails rewrites descriptive fields only; counters are kept.
func (s *Store) UpdateVariantDetails(_ context.Context, v domain.ProductVariant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.variants[v.ID]
	if !ok {
		return variantNotFound(v.ID)
	}
	for _, other := range s.variants {
		if other.ID != v.ID && other.ProductID == current.ProductID && other.ColorName == v.ColorName {
			return apperrors.NewValidationError(fmt.Sprintf("color %q already exists for this product", v.ColorName))
		}
	}

	current.ColorName = v.ColorName
	current.ColorCode = v.ColorCode
	current.ReorderLevel = v.ReorderLevel
	current.UnitPrice = v.UnitPrice
	current.Notes = v.Notes
	current.IsActive = v.IsActive
	current.UpdatedAt = time.Now().UTC()
	s.variants[v.ID] = current
	return nil
}

func (s *Store) variantsOf(productID string) []domain.ProductVariant {
	var variants []domain.ProductVariant
	for _, v := range s.variants {
		if v.ProductID == productID {
			variants = append(variants, v)
		}
	}
	sort.Slice(variants, func(i, j int) bool {
		return variants[i].ColorName < variants[j].ColorName
	})
	return variants
}
