package handler

import (
	"time"

	"github.com/fashionshop/order-service/internal/entities"
)

// OrderItem is one requested line. price_at_order reconstructs a previously
// quoted price on create; zero means the live catalog price.
type OrderItem struct {
	VariantID    string `json:"variant_id" validate:"required"`
	Quantity     int    `json:"quantity" validate:"required,gt=0"`
	PriceAtOrder int64  `json:"price_at_order,omitempty" validate:"gte=0"`
}

type CreateOrderRequest struct {
	CustomerID      string      `json:"customer_id,omitempty"`
	CustomerPhone   string      `json:"customer_phone,omitempty"`
	CustomerName    string      `json:"customer_name,omitempty"`
	CustomerAddress string      `json:"customer_address,omitempty"`
	EmployeeID      string      `json:"employee_id" validate:"required"`
	DeliveryStaffID string      `json:"delivery_staff_id,omitempty"`
	OrderChannel    string      `json:"order_channel,omitempty" validate:"omitempty,oneof=Direct Online"`
	DirectDelivery  bool        `json:"direct_delivery,omitempty"`
	Items           []OrderItem `json:"items" validate:"required,min=1,dive"`
	ShippingCost    int64       `json:"shipping_cost" validate:"gte=0"`
	PaymentMethod   string      `json:"payment_method,omitempty"`
}

type CreateOrderResponse struct {
	OrderID       string `json:"order_id"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	Subtotal      int64  `json:"subtotal"`
	FinalTotal    int64  `json:"final_total"`
}

type UpdateOrderRequest struct {
	Items           []OrderItem `json:"items" validate:"required,min=1,dive"`
	ShippingCost    int64       `json:"shipping_cost" validate:"gte=0"`
	PaymentMethod   *string     `json:"payment_method,omitempty"`
	DeliveryStaffID *string     `json:"delivery_staff_id,omitempty"`
	Status          *string     `json:"status,omitempty"`
	PaymentStatus   *string     `json:"payment_status,omitempty"`
}

type UpdateOrderResponse struct {
	FinalTotal int64 `json:"final_total"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type PaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required"`
}

type PaymentStatusResponse struct {
	PaymentStatus string `json:"payment_status"`
}

type DeleteOrderResponse struct {
	Message string `json:"message"`
}

type OrderLine struct {
	VariantID    string `json:"variant_id"`
	ProductName  string `json:"product_name"`
	Color        string `json:"color,omitempty"`
	Size         string `json:"size,omitempty"`
	Quantity     int    `json:"quantity"`
	PriceAtOrder int64  `json:"price_at_order"`
	LineTotal    int64  `json:"line_total"`
}

type OrderDetail struct {
	OrderID           string      `json:"order_id"`
	CustomerID        string      `json:"customer_id,omitempty"`
	CustomerName      string      `json:"customer_name,omitempty"`
	CustomerPhone     string      `json:"customer_phone,omitempty"`
	CustomerAddress   string      `json:"customer_address,omitempty"`
	StaffID           string      `json:"staff_id"`
	StaffName         string      `json:"staff_name,omitempty"`
	DeliveryStaffID   string      `json:"delivery_staff_id,omitempty"`
	DeliveryStaffName string      `json:"delivery_staff_name,omitempty"`
	OrderChannel      string      `json:"order_channel"`
	Subtotal          int64       `json:"subtotal"`
	ShippingCost      int64       `json:"shipping_cost"`
	FinalTotal        int64       `json:"final_total"`
	Status            string      `json:"status"`
	PaymentStatus     string      `json:"payment_status"`
	PaymentMethod     string      `json:"payment_method"`
	DirectDelivery    bool        `json:"direct_delivery"`
	OrderDate         time.Time   `json:"order_date"`
	CompletedDate     *time.Time  `json:"completed_date,omitempty"`
	Items             []OrderLine `json:"items"`
}

type OrderSummary struct {
	OrderID       string    `json:"order_id"`
	CustomerName  string    `json:"customer_name,omitempty"`
	StaffName     string    `json:"staff_name,omitempty"`
	FinalTotal    int64     `json:"final_total"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	OrderChannel  string    `json:"order_channel"`
	OrderDate     time.Time `json:"order_date"`
}

func (r CreateOrderRequest) ToIntent() entities.CreateIntent {
	return entities.CreateIntent{
		CustomerID:      r.CustomerID,
		CustomerPhone:   r.CustomerPhone,
		CustomerName:    r.CustomerName,
		CustomerAddress: r.CustomerAddress,
		StaffID:         r.EmployeeID,
		DeliveryStaffID: r.DeliveryStaffID,
		Channel:         entities.Channel(r.OrderChannel),
		DirectDelivery:  r.DirectDelivery,
		Items:           itemsToIntent(r.Items),
		ShippingCost:    r.ShippingCost,
		PaymentMethod:   r.PaymentMethod,
	}
}

func itemsToIntent(items []OrderItem) []entities.LineIntent {
	out := make([]entities.LineIntent, 0, len(items))
	for _, it := range items {
		out = append(out, entities.LineIntent{
			VariantID:    it.VariantID,
			Quantity:     it.Quantity,
			PriceAtOrder: it.PriceAtOrder,
		})
	}
	return out
}

func DetailEntityToJSON(d entities.OrderDetail) OrderDetail {
	items := make([]OrderLine, 0, len(d.Lines))
	for _, l := range d.Lines {
		items = append(items, OrderLine{
			VariantID:    l.VariantID,
			ProductName:  l.ProductName,
			Color:        l.Color,
			Size:         l.Size,
			Quantity:     l.Quantity,
			PriceAtOrder: l.PriceAtOrder,
			LineTotal:    l.LineTotal,
		})
	}

	return OrderDetail{
		OrderID:           d.OrderID,
		CustomerID:        d.CustomerID,
		CustomerName:      d.CustomerName,
		CustomerPhone:     d.CustomerPhone,
		CustomerAddress:   d.CustomerAddress,
		StaffID:           d.StaffID,
		StaffName:         d.StaffName,
		DeliveryStaffID:   d.DeliveryStaffID,
		DeliveryStaffName: d.DeliveryStaffName,
		OrderChannel:      string(d.Channel),
		Subtotal:          d.Subtotal,
		ShippingCost:      d.ShippingCost,
		FinalTotal:        d.FinalTotal,
		Status:            string(d.Status),
		PaymentStatus:     string(d.PaymentStatus),
		PaymentMethod:     d.PaymentMethod,
		DirectDelivery:    d.DirectDelivery,
		OrderDate:         d.OrderDate,
		CompletedDate:     d.CompletedDate,
		Items:             items,
	}
}

func SummaryEntityToJSON(s entities.OrderSummary) OrderSummary {
	return OrderSummary{
		OrderID:       s.OrderID,
		CustomerName:  s.CustomerName,
		StaffName:     s.StaffName,
		FinalTotal:    s.FinalTotal,
		Status:        string(s.Status),
		PaymentStatus: string(s.PaymentStatus),
		OrderChannel:  string(s.Channel),
		OrderDate:     s.OrderDate,
	}
}
