package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

type PreparationStatus string

const (
	StatusPending     PreparationStatus = "Pending"
	StatusPendingDate PreparationStatus = "Pending-Date"
	StatusPrepared    PreparationStatus = "Prepared"
	StatusSent        PreparationStatus = "Sent"
)

func (s PreparationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPendingDate, StatusPrepared, StatusSent:
		return true
	}
	return false
}

const deliveryDateKeyword = "date"

// InitialStatus picks Pending-Date when the delivery notes ask for a
// specific date.
func InitialStatus(deliveryNotes string) PreparationStatus {
	if strings.Contains(cases.Fold().String(deliveryNotes), deliveryDateKeyword) {
		return StatusPendingDate
	}
	return StatusPending
}

// Order is a customer order. Version increases with every status change and
// every edit of the items, so a write guarded by it sees the item list it was
// read with.
type Order struct {
	ID                  string            `db:"id"`
	CustomerName        string            `db:"customer_name"`
	PhoneNumber         string            `db:"phone_number"`
	ShippingMethod      *string           `db:"shipping_method"`
	ShippingAddress     *string           `db:"shipping_address"`
	DeliveryNotes       *string           `db:"delivery_notes"`
	OrderDate           time.Time         `db:"order_date"`
	PreparationStatus   PreparationStatus `db:"preparation_status"`
	IsConfirmed         bool              `db:"is_confirmed"`
	IsAccepted          bool              `db:"is_accepted"`
	TotalAmount         decimal.Decimal   `db:"total_amount"`
	DiscountAmount      decimal.Decimal   `db:"discount_amount"`
	FinalAmount         *decimal.Decimal  `db:"final_amount"`
	ShippingCost        *decimal.Decimal  `db:"shipping_cost"`
	PacketNumber        *string           `db:"packet_number"`
	PackageSentDate     *time.Time        `db:"package_sent_date"`
	PackageReceivedDate *time.Time        `db:"package_received_date"`
	LastPickupDate      *time.Time        `db:"last_pickup_date"`
	CreatedBy           *string           `db:"created_by"`
	CreatedAt           time.Time         `db:"created_at"`
	UpdatedAt           time.Time         `db:"updated_at"`
	Version             int               `db:"version"`
	Items               []OrderItem       `db:"-"`
}

type OrderItem struct {
	ID               string          `db:"id"`
	OrderID          string          `db:"order_id"`
	ProductVariantID string          `db:"product_variant_id"`
	Quantity         int             `db:"quantity"`
	UnitPrice        decimal.Decimal `db:"unit_price"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Price recomputes the order totals from its items and discount.
func (o *Order) Price() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal())
	}
	o.TotalAmount = total
	final := total.Sub(o.DiscountAmount)
	o.FinalAmount = &final
}

// ItemQuantities sums quantities per variant, so duplicated lines count once.
func (o Order) ItemQuantities() map[string]int {
	quantities := make(map[string]int, len(o.Items))
	for _, item := range o.Items {
		quantities[item.ProductVariantID] += item.Quantity
	}
	return quantities
}

type OrderFilter struct {
	Status PreparationStatus
	Limit  int
	Offset int
}

// Tracking holds the shipment and confirmation fields editable after creation.
type Tracking struct {
	IsConfirmed         bool
	IsAccepted          bool
	ShippingCost        *decimal.Decimal
	PacketNumber        *string
	PackageSentDate     *time.Time
	PackageReceivedDate *time.Time
	LastPickupDate      *time.Time
}

func (o Order) Tracking() Tracking {
	return Tracking{
		IsConfirmed:         o.IsConfirmed,
		IsAccepted:          o.IsAccepted,
		ShippingCost:        o.ShippingCost,
		PacketNumber:        o.PacketNumber,
		PackageSentDate:     o.PackageSentDate,
		PackageReceivedDate: o.PackageReceivedDate,
		LastPickupDate:      o.LastPickupDate,
	}
}

func (o *Order) ApplyTracking(t Tracking) {
	o.IsConfirmed = t.IsConfirmed
	o.IsAccepted = t.IsAccepted
	o.ShippingCost = t.ShippingCost
	o.PacketNumber = t.PacketNumber
	o.PackageSentDate = t.PackageSentDate
	o.PackageReceivedDate = t.PackageReceivedDate
	o.LastPickupDate = t.LastPickupDate
}

// IsCompletedSale is true once the customer both confirmed and accepted,
// whatever the preparation status.
func (o Order) IsCompletedSale() bool {
	return o.IsConfirmed && o.IsAccepted
}
