package entities

import (
	"strings"
	"time"
)

// Order is the persisted header. Money fields are integer cents.
type Order struct {
	OrderID         string
	CustomerID      string // empty for walk-in sales
	StaffID         string
	DeliveryStaffID string
	Channel         Channel
	Subtotal        int64
	ShippingCost    int64
	FinalTotal      int64
	Status          Status
	PaymentStatus   PaymentStatus
	PaymentMethod   string
	DirectDelivery  bool
	OrderDate       time.Time
	CompletedDate   *time.Time
}

// OrderLine captures quantity and the unit price at the moment the order was
// placed; later catalog price changes never touch it.
type OrderLine struct {
	OrderID      string
	VariantID    string
	Quantity     int
	PriceAtOrder int64
}

func (l OrderLine) Total() int64 {
	return l.PriceAtOrder * int64(l.Quantity)
}

// OrderDetail is the read model: header joined with resolved names plus lines.
type OrderDetail struct {
	Order
	CustomerName      string
	CustomerPhone     string
	CustomerAddress   string
	StaffName         string
	DeliveryStaffName string
	Lines             []LineDetail
}

// LineDetail is a line joined with variant descriptive fields.
type LineDetail struct {
	VariantID    string
	ProductName  string
	Color        string
	Size         string
	Quantity     int
	PriceAtOrder int64
	LineTotal    int64
}

// OrderSummary is one row of the order list screen.
type OrderSummary struct {
	OrderID       string
	CustomerName  string
	StaffName     string
	FinalTotal    int64
	Status        Status
	PaymentStatus PaymentStatus
	Channel       Channel
	OrderDate     time.Time
}

// Customer is resolved lazily by phone when an order arrives without an id.
type Customer struct {
	CustomerID string
	FullName   string
	Phone      string
	Address    string
}

// WalkInName is the placeholder profile name for a phone-only customer.
func WalkInName(phone string) string {
	return "Walk-in " + phone
}

func normalizeUpper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
