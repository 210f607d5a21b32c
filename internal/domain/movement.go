package domain

import (
	"time"

	"github.com/google/uuid"
)

type MovementType string

const (
	MovementIn         MovementType = "IN"
	MovementOut        MovementType = "OUT"
	MovementAdjustment MovementType = "ADJUSTMENT"
	MovementReserved   MovementType = "RESERVED"
	MovementReleased   MovementType = "RELEASED"
)

func (t MovementType) Valid() bool {
	switch t {
	case MovementIn, MovementOut, MovementAdjustment, MovementReserved, MovementReleased:
		return true
	}
	return false
}

const (
	ReferenceOrder          = "order"
	ReferenceOrderCancelled = "order_cancelled"
	ReferenceOrderSent      = "order_sent"
	ReferenceOrderUpdated   = "order_updated"
	ReferenceCompensation   = "compensation"
)

// Reference ties a movement to the order (or other document) that caused it.
type Reference struct {
	Type string
	ID   string
}

// StockMovement is an immutable ledger entry. Quantity is a magnitude; the
// direction comes from Type.
type StockMovement struct {
	ID               string       `db:"id"`
	ProductVariantID string       `db:"product_variant_id"`
	Type             MovementType `db:"movement_type"`
	Quantity         int          `db:"quantity"`
	ReferenceType    *string      `db:"reference_type"`
	ReferenceID      *string      `db:"reference_id"`
	Reason           string       `db:"reason"`
	PerformedBy      *string      `db:"performed_by"`
	PerformedAt      time.Time    `db:"performed_at"`
}

// NewMovement stamps a movement for a counter change on variantID.
func NewMovement(variantID string, movementType MovementType, quantity int, ref *Reference, reason string, performedBy *string, at time.Time) StockMovement {
	m := StockMovement{
		ID:               uuid.NewString(),
		ProductVariantID: variantID,
		Type:             movementType,
		Quantity:         quantity,
		Reason:           reason,
		PerformedBy:      performedBy,
		PerformedAt:      at,
	}
	if ref != nil {
		refType, refID := ref.Type, ref.ID
		m.ReferenceType = &refType
		m.ReferenceID = &refID
	}
	return m
}

// MovementCursor is the keyset position of the last movement read.
type MovementCursor struct {
	PerformedAt time.Time
	ID          string
}

type MovementFilter struct {
	VariantID     string
	Type          MovementType
	ReferenceType string
	ReferenceID   string
	Limit         int
}
