package order

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// StatusPending is the canonical non-terminal status. Some writers
	// historically used "draft" for the same thing; the repository
	// normalizes it to pending on read.
	StatusPending   = "pending"
	StatusDraft     = "draft"
	StatusPlaced    = "placed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"

	PaymentPaid   = "paid"
	PaymentFailed = "failed"
)

type Item struct {
	MenuItemID int             `json:"menuItemId"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

type Order struct {
	ID            string          `json:"id"`
	DeviceID      string          `json:"device_id"`
	UserID        *string         `json:"user_id,omitempty"`
	Items         []Item          `json:"items"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        string          `json:"status"`
	PaymentStatus *string         `json:"payment_status,omitempty"`
	ScheduledFor  *time.Time      `json:"scheduled_for,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// HistoryEntry is an append-only archive row written exactly once per paid
// order.
type HistoryEntry struct {
	ID            string          `json:"id"`
	DeviceID      string          `json:"device_id"`
	OrderID       string          `json:"order_id"`
	Items         []Item          `json:"items"`
	Total         decimal.Decimal `json:"total"`
	PaymentStatus string          `json:"payment_status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NewDraft returns an empty pending order for a device. The id is assigned
// by the caller right before persistence.
func NewDraft(deviceID string) *Order {
	return &Order{
		DeviceID:    deviceID,
		Items:       []Item{},
		TotalAmount: decimal.Zero,
		Status:      StatusPending,
	}
}
