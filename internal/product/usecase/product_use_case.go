package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stockledger/internal/actor"
	"stockledger/internal/domain"
	apperrors "stockledger/internal/errors"
	"stockledger/internal/notify"
)

type ProductRepository interface {
	CreateProduct(ctx context.Context, p *domain.ProductWithVariants) error
	FindProductByID(ctx context.Context, id string) (*domain.ProductWithVariants, error)
	ListProducts(ctx context.Context) ([]domain.ProductWithVariants, error)
	UpdateVariantDetails(ctx context.Context, v domain.ProductVariant) error
}

type StockLedger interface {
	GetVariant(ctx context.Context, variantID string) (*domain.ProductVariant, error)
	AdjustStock(ctx context.Context, variantID string, delta int, reason string) (*domain.ProductVariant, error)
}

const initialStockReason = "Initial stock"

type VariantInput struct {
	ColorName    string
	ColorCode    *string
	InitialStock int
	ReorderLevel int
	UnitPrice    decimal.Decimal
	Notes        *string
}

type CreateProductInput struct {
	Name        string
	Code        *string
	Category    *string
	BasePrice   *decimal.Decimal
	Description *string
	Variants    []VariantInput
}

// VariantPatch edits variant metadata; nil fields are left unchanged.
type VariantPatch struct {
	ColorName    *string
	ColorCode    *string
	ReorderLevel *int
	UnitPrice    *decimal.Decimal
	Notes        *string
	IsActive     *bool
}

type ProductUseCase struct {
	products  ProductRepository
	ledger    StockLedger
	publisher notify.Publisher
	logger    *zap.Logger
}

func NewProductUseCase(products ProductRepository, ledger StockLedger, publisher notify.Publisher, logger *zap.Logger) *ProductUseCase {
	if publisher == nil {
		publisher = notify.NoopPublisher{}
	}
	return &ProductUseCase{
		products:  products,
		ledger:    ledger,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateProduct stores the product with empty counters and then books each
// variant's opening stock through the ledger, so it shows up as an IN movement.
func (uc *ProductUseCase) CreateProduct(ctx context.Context, input CreateProductInput) (*domain.ProductWithVariants, error) {
	if err := validateCreateProduct(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &domain.ProductWithVariants{
		Product: domain.Product{
			ID:          uuid.NewString(),
			Name:        input.Name,
			Code:        input.Code,
			Category:    input.Category,
			BasePrice:   input.BasePrice,
			Description: input.Description,
			IsActive:    true,
			CreatedBy:   actor.FromContext(ctx),
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
	for _, in := range input.Variants {
		p.Variants = append(p.Variants, domain.ProductVariant{
			ID:           uuid.NewString(),
			ProductID:    p.ID,
			ColorName:    in.ColorName,
			ColorCode:    in.ColorCode,
			ReorderLevel: in.ReorderLevel,
			UnitPrice:    in.UnitPrice,
			Notes:        in.Notes,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	if err := uc.products.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	for i, in := range input.Variants {
		if in.InitialStock == 0 {
			continue
		}
		if _, err := uc.ledger.AdjustStock(ctx, p.Variants[i].ID, in.InitialStock, initialStockReason); err != nil {
			return nil, fmt.Errorf("booking initial stock for %s: %w", in.ColorName, err)
		}
	}

	uc.publisher.Publish(ctx, notify.Event{Type: notify.EventProductChanged, EntityID: p.ID})
	uc.logger.Info("product created", zap.String("productId", p.ID), zap.Int("variantCount", len(p.Variants)))

	return uc.products.FindProductByID(ctx, p.ID)
}

func (uc *ProductUseCase) ListProducts(ctx context.Context) ([]domain.ProductWithVariants, error) {
	return uc.products.ListProducts(ctx)
}

// UpdateVariant edits descriptive fields. Stock counters cannot be changed
// here; use a stock adjustment instead.
func (uc *ProductUseCase) UpdateVariant(ctx context.Context, variantID string, patch VariantPatch) (*domain.ProductVariant, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	v, err := uc.ledger.GetVariant(ctx, variantID)
	if err != nil {
		return nil, err
	}

	if patch.ColorName != nil {
		v.ColorName = *patch.ColorName
	}
	if patch.ColorCode != nil {
		v.ColorCode = patch.ColorCode
	}
	if patch.ReorderLevel != nil {
		v.ReorderLevel = *patch.ReorderLevel
	}
	if patch.UnitPrice != nil {
		v.UnitPrice = *patch.UnitPrice
	}
	if patch.Notes != nil {
		v.Notes = patch.Notes
	}
	if patch.IsActive != nil {
		v.IsActive = *patch.IsActive
	}

	if err := uc.products.UpdateVariantDetails(ctx, *v); err != nil {
		return nil, err
	}

	uc.publisher.Publish(ctx, notify.Event{Type: notify.EventProductChanged, EntityID: v.ProductID, VariantID: v.ID})
	return uc.ledger.GetVariant(ctx, variantID)
}

func validateCreateProduct(input CreateProductInput) error {
	var details []apperrors.ValidationDetail

	if input.Name == "" {
		details = append(details, apperrors.ValidationDetail{Field: "name", Message: "name is required"})
	}
	if input.BasePrice != nil && input.BasePrice.IsNegative() {
		details = append(details, apperrors.ValidationDetail{Field: "basePrice", Message: "basePrice must be non-negative"})
	}
	if len(input.Variants) == 0 {
		details = append(details, apperrors.ValidationDetail{Field: "variants", Message: "at least one color variant is required"})
	}

	seen := make(map[string]bool, len(input.Variants))
	for idx, v := range input.Variants {
		field := fmt.Sprintf("variants[%d]", idx)
		if v.ColorName == "" {
			details = append(details, apperrors.ValidationDetail{Field: field + ".colorName", Message: "colorName is required"})
		} else if seen[v.ColorName] {
			details = append(details, apperrors.ValidationDetail{Field: field + ".colorName", Message: "colorName must not be duplicated"})
		}
		seen[v.ColorName] = true

		if v.InitialStock < 0 {
			details = append(details, apperrors.ValidationDetail{Field: field + ".initialStock", Message: "initialStock must be non-negative"})
		}
		if v.ReorderLevel < 0 {
			details = append(details, apperrors.ValidationDetail{Field: field + ".reorderLevel", Message: "reorderLevel must be non-negative"})
		}
		if v.UnitPrice.IsNegative() {
			details = append(details, apperrors.ValidationDetail{Field: field + ".unitPrice", Message: "unitPrice must be non-negative"})
		}
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details...)
	}
	return nil
}

func validatePatch(patch VariantPatch) error {
	var details []apperrors.ValidationDetail

	if patch.ColorName != nil && *patch.ColorName == "" {
		details = append(details, apperrors.ValidationDetail{Field: "colorName", Message: "colorName must not be empty"})
	}
	if patch.ReorderLevel != nil && *patch.ReorderLevel < 0 {
		details = append(details, apperrors.ValidationDetail{Field: "reorderLevel", Message: "reorderLevel must be non-negative"})
	}
	if patch.UnitPrice != nil && patch.UnitPrice.IsNegative() {
		details = append(details, apperrors.ValidationDetail{Field: "unitPrice", Message: "unitPrice must be non-negative"})
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details...)
	}
	return nil
}
