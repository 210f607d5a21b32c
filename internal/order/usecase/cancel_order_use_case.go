package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"stockledger/internal/domain"
	apperrors "stockledger/internal/errors"
	"stockledger/internal/notify"
)

const maxCancelAttempts = 3

// CancelOrder deletes the order and returns its reservations to the ledger.
// A Sent order has already consumed its stock, so nothing is released.
// Movements are never removed; the release appends RELEASED entries.
func (uc *OrderUseCase) CancelOrder(ctx context.Context, orderID string) error {
	for attempt := 1; attempt <= maxCancelAttempts; attempt++ {
		order, err := uc.orders.FindOrderByID(ctx, orderID)
		if err != nil {
			return err
		}

		// The delete must match the version read, so the release below frees
		// exactly the items that were still reserved.
		deleted, err := uc.orders.DeleteOrderAtVersion(context.WithoutCancel(ctx), order.ID, order.Version)
		if err != nil {
			return fmt.Errorf("deleting order %s: %w", order.ID, err)
		}
		if !deleted {
			uc.logger.Debug("order changed while cancelling, re-reading",
				zap.String("orderId", order.ID),
				zap.Int("attempt", attempt),
			)
			continue
		}

		if order.PreparationStatus != domain.StatusSent {
			if err := uc.reservations.ReleaseForOrder(ctx, order, domain.ReferenceOrderCancelled); err != nil {
				return err
			}
		}

		uc.publish(ctx, notify.EventOrderCancelled, order.ID)
		uc.logger.Info("order cancelled",
			zap.String("orderId", order.ID),
			zap.String("status", string(order.PreparationStatus)),
		)
		return nil
	}

	return apperrors.NewConcurrencyConflictError(fmt.Sprintf("order %s kept changing while being cancelled", orderID))
}
