package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stockledger/internal/domain"
	apperrors "stockledger/internal/errors"
	"stockledger/internal/notify"
)

// UpdateOrderInput is a partial edit; nil fields are left unchanged. A nil
// Items slice keeps the current lines.
type UpdateOrderInput struct {
	CustomerName    *string
	PhoneNumber     *string
	ShippingMethod  *string
	ShippingAddress *string
	DeliveryNotes   *string
	DiscountAmount  *decimal.Decimal
	Items           []ItemInput
}

type TrackingInput struct {
	IsConfirmed         *bool
	IsAccepted          *bool
	ShippingCost        *decimal.Decimal
	PacketNumber        *string
	PackageSentDate     *time.Time
	PackageReceivedDate *time.Time
	LastPickupDate      *time.Time
}

// UpdateOrder edits customer fields and items. Item changes reserve or release
// the per-variant difference before the order is saved. The save only
// succeeds against the version that was read; if the order changed meanwhile
// (a status change such as being sent, or another edit) the reservation
// difference is reverted and ConcurrencyConflict is returned.
func (uc *OrderUseCase) UpdateOrder(ctx context.Context, orderID string, input UpdateOrderInput) (*domain.Order, error) {
	if err := validateUpdateOrder(input); err != nil {
		return nil, err
	}

	order, err := uc.orders.FindOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if input.Items != nil && order.PreparationStatus == domain.StatusSent {
		return nil, apperrors.NewValidationError("items of a sent order cannot be changed", apperrors.ValidationDetail{
			Field:   "items",
			Message: "order has already been sent",
		})
	}

	applyDetails(order, input)

	before := order.ItemQuantities()
	if input.Items != nil {
		for _, item := range input.Items {
			if _, err := uc.variants.GetVariant(ctx, item.ProductVariantID); err != nil {
				if _, ok := apperrors.IsNotFoundError(err); ok {
					return nil, apperrors.NewInvalidVariantError(item.ProductVariantID)
				}
				return nil, err
			}
		}
		order.Items = itemsFrom(input.Items)
	}
	after := order.ItemQuantities()
	order.Price()

	if err := uc.reservations.AdjustForEdit(ctx, order.ID, before, after); err != nil {
		return nil, err
	}

	saved, err := uc.orders.UpdateOrderDetails(context.WithoutCancel(ctx), order)
	if err != nil || !saved {
		uc.logger.Warn("order edit not saved, reverting reservations",
			zap.String("orderId", order.ID),
			zap.Int("version", order.Version),
			zap.Error(err),
		)
		if revertErr := uc.reservations.AdjustForEdit(context.WithoutCancel(ctx), order.ID, after, before); revertErr != nil {
			return nil, revertErr
		}
		if err != nil {
			return nil, fmt.Errorf("saving order %s: %w", order.ID, err)
		}
		return nil, uc.editConflict(ctx, order.ID)
	}

	uc.publish(ctx, notify.EventOrderUpdated, order.ID)
	uc.logger.Info("order updated", zap.String("orderId", order.ID), zap.Int("itemCount", len(order.Items)))

	return uc.orders.FindOrderByID(ctx, order.ID)
}

// editConflict explains why a guarded save matched no row.
func (uc *OrderUseCase) editConflict(ctx context.Context, orderID string) error {
	current, err := uc.orders.FindOrderByID(ctx, orderID)
	if err != nil {
		return err
	}
	return apperrors.NewConcurrencyConflictError(
		fmt.Sprintf("order %s changed while being edited (status %s, version %d)", orderID, current.PreparationStatus, current.Version),
	)
}

// UpdateTracking patches shipment and confirmation fields. It never touches
// the ledger.
func (uc *OrderUseCase) UpdateTracking(ctx context.Context, orderID string, input TrackingInput) (*domain.Order, error) {
	if input.ShippingCost != nil && input.ShippingCost.IsNegative() {
		return nil, apperrors.NewValidationError("validation failed", apperrors.ValidationDetail{
			Field:   "shippingCost",
			Message: "shippingCost must be non-negative",
		})
	}

	order, err := uc.orders.FindOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	tracking := order.Tracking()
	if input.IsConfirmed != nil {
		tracking.IsConfirmed = *input.IsConfirmed
	}
	if input.IsAccepted != nil {
		tracking.IsAccepted = *input.IsAccepted
	}
	if input.ShippingCost != nil {
		tracking.ShippingCost = input.ShippingCost
	}
	if input.PacketNumber != nil {
		tracking.PacketNumber = input.PacketNumber
	}
	if input.PackageSentDate != nil {
		tracking.PackageSentDate = input.PackageSentDate
	}
	if input.PackageReceivedDate != nil {
		tracking.PackageReceivedDate = input.PackageReceivedDate
	}
	if input.LastPickupDate != nil {
		tracking.LastPickupDate = input.LastPickupDate
	}

	if err := uc.orders.UpdateTracking(ctx, order.ID, tracking); err != nil {
		return nil, err
	}
	order.ApplyTracking(tracking)

	uc.publish(ctx, notify.EventOrderUpdated, order.ID)
	return order, nil
}

func applyDetails(order *domain.Order, input UpdateOrderInput) {
	if input.CustomerName != nil {
		order.CustomerName = *input.CustomerName
	}
	if input.PhoneNumber != nil {
		order.PhoneNumber = *input.PhoneNumber
	}
	if input.ShippingMethod != nil {
		order.ShippingMethod = input.ShippingMethod
	}
	if input.ShippingAddress != nil {
		order.ShippingAddress = input.ShippingAddress
	}
	if input.DeliveryNotes != nil {
		order.DeliveryNotes = input.DeliveryNotes
	}
	if input.DiscountAmount != nil {
		order.DiscountAmount = *input.DiscountAmount
	}
}

func validateUpdateOrder(input UpdateOrderInput) error {
	var details []apperrors.ValidationDetail

	if input.CustomerName != nil && *input.CustomerName == "" {
		details = append(details, apperrors.ValidationDetail{Field: "customerName", Message: "customerName must not be empty"})
	}
	if input.PhoneNumber != nil && *input.PhoneNumber == "" {
		details = append(details, apperrors.ValidationDetail{Field: "phoneNumber", Message: "phoneNumber must not be empty"})
	}
	if input.DiscountAmount != nil && input.DiscountAmount.IsNegative() {
		details = append(details, apperrors.ValidationDetail{Field: "discountAmount", Message: "discountAmount must be non-negative"})
	}
	if input.Items != nil {
		details = append(details, validateItems(input.Items)...)
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details...)
	}
	return nil
}
