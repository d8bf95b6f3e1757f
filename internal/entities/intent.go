package entities

import "time"

// LineIntent is one requested order line. PriceAtOrder overrides the catalog
// price when reconstructing a previously quoted price; zero means "use the
// live catalog price".
type LineIntent struct {
	VariantID    string
	Quantity     int
	PriceAtOrder int64
}

// CreateIntent is everything a caller supplies to place an order. Totals are
// always recomputed server-side from the reserved lines.
type CreateIntent struct {
	CustomerID      string
	CustomerPhone   string
	CustomerName    string
	CustomerAddress string
	StaffID         string
	DeliveryStaffID string
	Channel         Channel
	DirectDelivery  bool
	Items           []LineIntent
	ShippingCost    int64
	PaymentMethod   string
}

// CreateResult is returned from a successful create.
type CreateResult struct {
	OrderID       string
	Status        Status
	PaymentStatus PaymentStatus
	Subtotal      int64
	FinalTotal    int64
}

// UpdateIntent replaces the full line set and recomputes totals. Nil optional
// fields leave the stored value untouched.
type UpdateIntent struct {
	Items           []LineIntent
	ShippingCost    int64
	PaymentMethod   *string
	DeliveryStaffID *string
	Status          *Status
	PaymentStatus   *PaymentStatus
}

// HeaderPatch carries the recomputed totals of an order update. Nil optional
// fields keep the stored value.
type HeaderPatch struct {
	Subtotal        int64
	ShippingCost    int64
	FinalTotal      int64
	PaymentMethod   *string
	DeliveryStaffID *string
}

// OrderEvent is published to the event stream after a unit-of-work commits.
type OrderEvent struct {
	Type    string    `json:"type"`
	OrderID string    `json:"order_id"`
	Status  string    `json:"status,omitempty"`
	Payment string    `json:"payment_status,omitempty"`
	Total   int64     `json:"final_total,omitempty"`
	At      time.Time `json:"at"`
}

const (
	EventOrderCreated        = "order.created"
	EventOrderUpdated        = "order.updated"
	EventOrderStatusChanged  = "order.status_changed"
	EventOrderPaymentChanged = "order.payment_changed"
	EventOrderDeleted        = "order.deleted"
)
