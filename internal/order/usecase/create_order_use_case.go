package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stockledger/internal/actor"
	"stockledger/internal/domain"
	apperrors "stockledger/internal/errors"
	"stockledger/internal/infrastructure/database"
	"stockledger/internal/notify"
)

type ItemInput struct {
	ProductVariantID string
	Quantity         int
	UnitPrice        decimal.Decimal
}

type CreateOrderInput struct {
	CustomerName    string
	PhoneNumber     string
	ShippingMethod  *string
	ShippingAddress *string
	DeliveryNotes   *string
	OrderDate       *time.Time
	DiscountAmount  decimal.Decimal
	Items           []ItemInput
}

// Backoff before attempt n+1 of a reservation that failed on a transient
// storage error.
var reserveBackoffs = []time.Duration{0, 100 * time.Millisecond, 200 * time.Millisecond}

// CreateOrder reserves stock for every item and then persists the order. No
// order is stored unless every reservation succeeded.
func (uc *OrderUseCase) CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error) {
	if err := validateCreateOrder(input); err != nil {
		return nil, err
	}

	uc.logger.Info("create order started", zap.String("customer", input.CustomerName), zap.Int("itemCount", len(input.Items)))

	for _, item := range input.Items {
		if _, err := uc.variants.GetVariant(ctx, item.ProductVariantID); err != nil {
			if _, ok := apperrors.IsNotFoundError(err); ok {
				return nil, apperrors.NewInvalidVariantError(item.ProductVariantID)
			}
			return nil, err
		}
	}

	order := newOrder(input, actor.FromContext(ctx))

	if err := uc.reserveWithRetry(ctx, order); err != nil {
		return nil, err
	}

	// Stock is already reserved; the insert must not be abandoned halfway.
	if err := uc.orders.CreateOrder(context.WithoutCancel(ctx), order); err != nil {
		uc.logger.Error("persisting order failed, releasing reservations", zap.String("orderId", order.ID), zap.Error(err))
		if releaseErr := uc.reservations.ReleaseForOrder(ctx, order, domain.ReferenceCompensation); releaseErr != nil {
			return nil, releaseErr
		}
		return nil, apperrors.NewOrderCreationFailedError(fmt.Sprintf("persisting order %s", order.ID), err)
	}

	uc.publish(ctx, notify.EventOrderCreated, order.ID)
	uc.logger.Info("order created",
		zap.String("orderId", order.ID),
		zap.String("status", string(order.PreparationStatus)),
		zap.String("total", order.TotalAmount.String()),
	)

	return order, nil
}

func newOrder(input CreateOrderInput, createdBy *string) *domain.Order {
	now := time.Now().UTC()
	order := &domain.Order{
		ID:                uuid.NewString(),
		CustomerName:      input.CustomerName,
		PhoneNumber:       input.PhoneNumber,
		ShippingMethod:    input.ShippingMethod,
		ShippingAddress:   input.ShippingAddress,
		DeliveryNotes:     input.DeliveryNotes,
		OrderDate:         now,
		PreparationStatus: domain.StatusPending,
		DiscountAmount:    input.DiscountAmount,
		CreatedBy:         createdBy,
		CreatedAt:         now,
		UpdatedAt:         now,
		Items:             itemsFrom(input.Items),
	}
	if input.OrderDate != nil {
		order.OrderDate = input.OrderDate.UTC()
	}
	if input.DeliveryNotes != nil {
		order.PreparationStatus = domain.InitialStatus(*input.DeliveryNotes)
	}
	order.Price()
	return order
}

// itemsFrom sorts lines by variant id so concurrent orders lock rows in the
// same order.
func itemsFrom(inputs []ItemInput) []domain.OrderItem {
	items := make([]domain.OrderItem, len(inputs))
	for i, in := range inputs {
		items[i] = domain.OrderItem{
			ID:               uuid.NewString(),
			ProductVariantID: in.ProductVariantID,
			Quantity:         in.Quantity,
			UnitPrice:        in.UnitPrice,
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].ProductVariantID < items[j].ProductVariantID })
	return items
}

func (uc *OrderUseCase) reserveWithRetry(ctx context.Context, order *domain.Order) error {
	var err error
	for attempt := 1; attempt <= uc.maxRetryAttempts; attempt++ {
		err = uc.reservations.ReserveForOrder(ctx, order)
		if err == nil {
			return nil
		}

		ocf, ok := apperrors.IsOrderCreationFailedError(err)
		if !ok || !database.IsTransient(ocf.Cause) || attempt == uc.maxRetryAttempts {
			return err
		}

		uc.metrics.ReservationRetried()
		uc.logger.Warn("transient storage error, retrying reservation",
			zap.String("orderId", order.ID),
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", uc.maxRetryAttempts),
			zap.Error(ocf.Cause),
		)
		if sleepErr := uc.sleep(ctx, backoffFor(attempt)); sleepErr != nil {
			return apperrors.NewOrderCreationFailedError(fmt.Sprintf("reserving stock for order %s", order.ID), sleepErr)
		}
	}
	return err
}

// backoffFor returns the wait after the given failed attempt, with ±20% jitter.
func backoffFor(attempt int) time.Duration {
	idx := attempt
	if idx >= len(reserveBackoffs) {
		idx = len(reserveBackoffs) - 1
	}
	base := reserveBackoffs[idx]
	jitter := time.Duration((rand.Float64()*0.4 - 0.2) * float64(base))
	return base + jitter
}

func validateCreateOrder(input CreateOrderInput) error {
	var details []apperrors.ValidationDetail

	if input.CustomerName == "" {
		details = append(details, apperrors.ValidationDetail{Field: "customerName", Message: "customerName is required"})
	}
	if input.PhoneNumber == "" {
		details = append(details, apperrors.ValidationDetail{Field: "phoneNumber", Message: "phoneNumber is required"})
	}
	if input.DiscountAmount.IsNegative() {
		details = append(details, apperrors.ValidationDetail{Field: "discountAmount", Message: "discountAmount must be non-negative"})
	}
	details = append(details, validateItems(input.Items)...)

	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details...)
	}
	return nil
}

func validateItems(items []ItemInput) []apperrors.ValidationDetail {
	var details []apperrors.ValidationDetail

	if len(items) == 0 {
		details = append(details, apperrors.ValidationDetail{Field: "items", Message: "items must not be empty"})
	}
	for idx, item := range items {
		if item.ProductVariantID == "" {
			details = append(details, apperrors.ValidationDetail{
				Field:   fmt.Sprintf("items[%d].productVariantId", idx),
				Message: "productVariantId is required",
			})
		}
		if item.Quantity < 1 {
			details = append(details, apperrors.ValidationDetail{
				Field:   fmt.Sprintf("items[%d].quantity", idx),
				Message: "quantity must be at least 1",
			})
		}
		if item.UnitPrice.IsNegative() {
			details = append(details, apperrors.ValidationDetail{
				Field:   fmt.Sprintf("items[%d].unitPrice", idx),
				Message: "unitPrice must be non-negative",
			})
		}
	}
	return details
}
