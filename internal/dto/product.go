package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"stockledger/internal/domain"
)

type VariantRequest struct {
	ColorName    string          `json:"colorName" validate:"required,max=100"`
	ColorCode    *string         `json:"colorCode,omitempty" validate:"omitempty,max=20"`
	InitialStock int             `json:"initialStock" validate:"gte=0,lte=1000000"`
	ReorderLevel int             `json:"reorderLevel" validate:"gte=0"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	Notes        *string         `json:"notes,omitempty"`
}

type CreateProductRequest struct {
	Name        string           `json:"name" validate:"required,max=255"`
	Code        *string          `json:"code,omitempty" validate:"omitempty,max=100"`
	Category    *string          `json:"category,omitempty" validate:"omitempty,max=100"`
	BasePrice   *decimal.Decimal `json:"basePrice,omitempty"`
	Description *string          `json:"description,omitempty"`
	Variants    []VariantRequest `json:"variants" validate:"required,min=1,dive"`
}

// UpdateVariantRequest edits variant metadata. Counters are not accepted here.
type UpdateVariantRequest struct {
	ColorName    *string          `json:"colorName,omitempty" validate:"omitempty,min=1,max=100"`
	ColorCode    *string          `json:"colorCode,omitempty" validate:"omitempty,max=20"`
	ReorderLevel *int             `json:"reorderLevel,omitempty" validate:"omitempty,gte=0"`
	UnitPrice    *decimal.Decimal `json:"unitPrice,omitempty"`
	Notes        *string          `json:"notes,omitempty"`
	IsActive     *bool            `json:"isActive,omitempty"`
}

type AdjustStockRequest struct {
	Delta  int    `json:"delta" validate:"min=-1000000,max=1000000"`
	Reason string `json:"reason" validate:"max=255"`
}

type VariantResponse struct {
	ID                string          `json:"id"`
	ProductID         string          `json:"productId"`
	ColorName         string          `json:"colorName"`
	ColorCode         *string         `json:"colorCode,omitempty"`
	StockQuantity     int             `json:"stockQuantity"`
	ReservedQuantity  int             `json:"reservedQuantity"`
	AvailableQuantity int             `json:"availableQuantity"`
	ReorderLevel      int             `json:"reorderLevel"`
	UnitPrice         decimal.Decimal `json:"unitPrice"`
	Notes             *string         `json:"notes,omitempty"`
	IsActive          bool            `json:"isActive"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

type ProductResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Code        *string           `json:"code,omitempty"`
	Category    *string           `json:"category,omitempty"`
	BasePrice   *decimal.Decimal  `json:"basePrice,omitempty"`
	Description *string           `json:"description,omitempty"`
	IsActive    bool              `json:"isActive"`
	StockStatus string            `json:"stockStatus"`
	CreatedBy   *string           `json:"createdBy,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	Variants    []VariantResponse `json:"variants"`
}

type ProductListResponse struct {
	TraceID  string            `json:"traceId"`
	Products []ProductResponse `json:"products"`
}

type MovementResponse struct {
	ID            string    `json:"id"`
	VariantID     string    `json:"variantId"`
	Type          string    `json:"type"`
	Quantity      int       `json:"quantity"`
	ReferenceType *string   `json:"referenceType,omitempty"`
	ReferenceID   *string   `json:"referenceId,omitempty"`
	Reason        string    `json:"reason"`
	PerformedBy   *string   `json:"performedBy,omitempty"`
	PerformedAt   time.Time `json:"performedAt"`
}

type MovementListResponse struct {
	TraceID   string             `json:"traceId"`
	Movements []MovementResponse `json:"movements"`
}

func NewVariantResponse(v domain.ProductVariant) VariantResponse {
	return VariantResponse{
		ID:                v.ID,
		ProductID:         v.ProductID,
		ColorName:         v.ColorName,
		ColorCode:         v.ColorCode,
		StockQuantity:     v.StockQuantity,
		ReservedQuantity:  v.ReservedQuantity,
		AvailableQuantity: v.AvailableQuantity(),
		ReorderLevel:      v.ReorderLevel,
		UnitPrice:         v.UnitPrice,
		Notes:             v.Notes,
		IsActive:          v.IsActive,
		UpdatedAt:         v.UpdatedAt,
	}
}

func NewProductResponse(p domain.ProductWithVariants) ProductResponse {
	variants := make([]VariantResponse, len(p.Variants))
	for i, v := range p.Variants {
		variants[i] = NewVariantResponse(v)
	}

	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Code:        p.Code,
		Category:    p.Category,
		BasePrice:   p.BasePrice,
		Description: p.Description,
		IsActive:    p.IsActive,
		StockStatus: string(domain.StockStatusOf(p.Variants)),
		CreatedBy:   p.CreatedBy,
		CreatedAt:   p.CreatedAt,
		Variants:    variants,
	}
}

func NewMovementResponse(m domain.StockMovement) MovementResponse {
	return MovementResponse{
		ID:            m.ID,
		VariantID:     m.ProductVariantID,
		Type:          string(m.Type),
		Quantity:      m.Quantity,
		ReferenceType: m.ReferenceType,
		ReferenceID:   m.ReferenceID,
		Reason:        m.Reason,
		PerformedBy:   m.PerformedBy,
		PerformedAt:   m.PerformedAt,
	}
}
