package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// InventorySnapshot represents the on-hand balance of an item at the start of a run.
// OnHand may be negative when consumption was recorded ahead of receipts.
type InventorySnapshot struct {
	ItemID    ItemID
	OnHand    decimal.Decimal
	Allocated decimal.Decimal
}

// Available returns on hand less allocated
func (s InventorySnapshot) Available() decimal.Decimal {
	return s.OnHand.Sub(s.Allocated)
}

// IncomingReceipt represents an expected inflow from an open purchase order
type IncomingReceipt struct {
	ItemID       ItemID
	Reference    string
	ExpectedDate time.Time
	Quantity     decimal.Decimal
	Supplier     string
}

// NewIncomingReceipt creates a validated IncomingReceipt
func NewIncomingReceipt(itemID ItemID, reference string, expectedDate time.Time, quantity decimal.Decimal) (*IncomingReceipt, error) {
	if string(itemID) == "" {
		return nil, fmt.Errorf("item id cannot be empty")
	}
	if expectedDate.IsZero() {
		return nil, fmt.Errorf("expected date cannot be empty")
	}
	if quantity.IsNegative() {
		return nil, fmt.Errorf("quantity cannot be negative, got %s", quantity)
	}

	return &IncomingReceipt{
		ItemID:       itemID,
		Reference:    reference,
		ExpectedDate: Day(expectedDate),
		Quantity:     quantity,
	}, nil
}

// PurchaseOrderStatus represents the lifecycle state of a purchase order
type PurchaseOrderStatus int

const (
	Pending PurchaseOrderStatus = iota
	Received
	Cancelled
)

// String method for PurchaseOrderStatus enum
func (s PurchaseOrderStatus) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Received:
		return "Received"
	case Cancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}
