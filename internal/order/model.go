package order

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusUnpaid    Status = "UNPAID"
	StatusPacked    Status = "PACKED"
	StatusShipped   Status = "SHIPPED"
	StatusReceived  Status = "RECEIVED"
	StatusCancelled Status = "CANCELLED"
)

// PaymentStatus is advanced by the payment collaborator only. The state
// machine reads it for policy checks but never writes it.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "UNPAID"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

type Order struct {
	ID         uint
	ExternalID uuid.UUID
	UserID     *uint

	Status        Status
	PaymentStatus PaymentStatus

	Currency     string
	Subtotal     int
	Tax          int
	ShippingCost int
	TotalAmount  int

	// Courier selection snapshotted from checkout; consumed when the
	// waybill is created on dispatch.
	CourierCode    string
	ServiceCode    string
	Courier        *string
	TrackingNumber *string

	Items   []OrderItem
	Address Address

	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrderItem struct {
	ID          uint
	OrderID     uint
	VariantID   string
	VariantName string
	ProductName string
	Quantity    int
	// Price is the unit price at order time, never re-read from the
	// live catalog.
	Price    int
	Subtotal int
}

// Address is copied from the user's address book at checkout completion so
// later edits never rewrite historical orders.
type Address struct {
	Name     string
	Phone    string
	Line1    string
	Line2    *string
	City     string
	Province string
	Postal   string
	Country  string
}

// Waybill is the carrier-issued tracking handle returned by the courier
// collaborator during dispatch.
type Waybill struct {
	Courier        string
	TrackingNumber string
}

type CreateOrderInput struct {
	UserID       *uint
	Currency     string
	Subtotal     int
	Tax          int
	ShippingCost int
	CourierCode  string
	ServiceCode  string
	Items        []OrderItem
	Address      Address
	SessionID    uuid.UUID
}

type ListFilter struct {
	UserID *uint
	Status *Status
}
