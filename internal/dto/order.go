package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"stockledger/internal/domain"
)

type OrderItemRequest struct {
	ProductVariantID string          `json:"productVariantId" validate:"required"`
	Quantity         int             `json:"quantity" validate:"gte=1,lte=10000"`
	UnitPrice        decimal.Decimal `json:"unitPrice"`
}

type CreateOrderRequest struct {
	CustomerName    string             `json:"customerName" validate:"required,max=255"`
	PhoneNumber     string             `json:"phoneNumber" validate:"required,max=50"`
	ShippingMethod  *string            `json:"shippingMethod,omitempty" validate:"omitempty,max=100"`
	ShippingAddress *string            `json:"shippingAddress,omitempty" validate:"omitempty,max=500"`
	DeliveryNotes   *string            `json:"deliveryNotes,omitempty"`
	OrderDate       *time.Time         `json:"orderDate,omitempty"`
	DiscountAmount  decimal.Decimal    `json:"discountAmount"`
	Items           []OrderItemRequest `json:"items" validate:"required,min=1,max=100,dive"`
}

type UpdateOrderRequest struct {
	CustomerName    *string            `json:"customerName,omitempty" validate:"omitempty,min=1,max=255"`
	PhoneNumber     *string            `json:"phoneNumber,omitempty" validate:"omitempty,min=1,max=50"`
	ShippingMethod  *string            `json:"shippingMethod,omitempty" validate:"omitempty,max=100"`
	ShippingAddress *string            `json:"shippingAddress,omitempty" validate:"omitempty,max=500"`
	DeliveryNotes   *string            `json:"deliveryNotes,omitempty"`
	DiscountAmount  *decimal.Decimal   `json:"discountAmount,omitempty"`
	Items           []OrderItemRequest `json:"items,omitempty" validate:"omitempty,min=1,max=100,dive"`
}

type TransitionStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type TrackingRequest struct {
	IsConfirmed         *bool            `json:"isConfirmed,omitempty"`
	IsAccepted          *bool            `json:"isAccepted,omitempty"`
	ShippingCost        *decimal.Decimal `json:"shippingCost,omitempty"`
	PacketNumber        *string          `json:"packetNumber,omitempty" validate:"omitempty,max=100"`
	PackageSentDate     *time.Time       `json:"packageSentDate,omitempty"`
	PackageReceivedDate *time.Time       `json:"packageReceivedDate,omitempty"`
	LastPickupDate      *time.Time       `json:"lastPickupDate,omitempty"`
}

type OrderItemResponse struct {
	ID               string          `json:"id"`
	ProductVariantID string          `json:"productVariantId"`
	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unitPrice"`
	LineTotal        decimal.Decimal `json:"lineTotal"`
}

type OrderResponse struct {
	ID                  string              `json:"id"`
	CustomerName        string              `json:"customerName"`
	PhoneNumber         string              `json:"phoneNumber"`
	ShippingMethod      *string             `json:"shippingMethod,omitempty"`
	ShippingAddress     *string             `json:"shippingAddress,omitempty"`
	DeliveryNotes       *string             `json:"deliveryNotes,omitempty"`
	OrderDate           time.Time           `json:"orderDate"`
	PreparationStatus   string              `json:"preparationStatus"`
	IsConfirmed         bool                `json:"isConfirmed"`
	IsAccepted          bool                `json:"isAccepted"`
	TotalAmount         decimal.Decimal     `json:"totalAmount"`
	DiscountAmount      decimal.Decimal     `json:"discountAmount"`
	FinalAmount         *decimal.Decimal    `json:"finalAmount,omitempty"`
	ShippingCost        *decimal.Decimal    `json:"shippingCost,omitempty"`
	PacketNumber        *string             `json:"packetNumber,omitempty"`
	PackageSentDate     *time.Time          `json:"packageSentDate,omitempty"`
	PackageReceivedDate *time.Time          `json:"packageReceivedDate,omitempty"`
	LastPickupDate      *time.Time          `json:"lastPickupDate,omitempty"`
	CreatedBy           *string             `json:"createdBy,omitempty"`
	CreatedAt           time.Time           `json:"createdAt"`
	UpdatedAt           time.Time           `json:"updatedAt"`
	Items               []OrderItemResponse `json:"items"`
}

type OrderListResponse struct {
	TraceID string          `json:"traceId"`
	Orders  []OrderResponse `json:"orders"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

func NewOrderResponse(o domain.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemResponse{
			ID:               item.ID,
			ProductVariantID: item.ProductVariantID,
			Quantity:         item.Quantity,
			UnitPrice:        item.UnitPrice,
			LineTotal:        item.LineTotal(),
		}
	}

	return OrderResponse{
		ID:                  o.ID,
		CustomerName:        o.CustomerName,
		PhoneNumber:         o.PhoneNumber,
		ShippingMethod:      o.ShippingMethod,
		ShippingAddress:     o.ShippingAddress,
		DeliveryNotes:       o.DeliveryNotes,
		OrderDate:           o.OrderDate,
		PreparationStatus:   string(o.PreparationStatus),
		IsConfirmed:         o.IsConfirmed,
		IsAccepted:          o.IsAccepted,
		TotalAmount:         o.TotalAmount,
		DiscountAmount:      o.DiscountAmount,
		FinalAmount:         o.FinalAmount,
		ShippingCost:        o.ShippingCost,
		PacketNumber:        o.PacketNumber,
		PackageSentDate:     o.PackageSentDate,
		PackageReceivedDate: o.PackageReceivedDate,
		LastPickupDate:      o.LastPickupDate,
		CreatedBy:           o.CreatedBy,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
		Items:               items,
	}
}
