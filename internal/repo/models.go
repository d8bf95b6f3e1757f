package repo

import (
	"database/sql"
	"time"

	"github.com/fashionshop/order-service/internal/entities"
)

type Order struct {
	OrderID         string         `db:"order_id"`
	CustomerID      sql.NullString `db:"customer_id"`
	StaffID         string         `db:"staff_id"`
	DeliveryStaffID sql.NullString `db:"delivery_staff_id"`
	OrderDate       time.Time      `db:"order_date"`
	Subtotal        int64          `db:"subtotal"`
	ShippingCost    int64          `db:"shipping_cost"`
	FinalTotal      int64          `db:"final_total"`
	Status          string         `db:"status"`
	Channel         string         `db:"order_channel"`
	PaymentMethod   string         `db:"payment_method"`
	PaymentStatus   string         `db:"payment_status"`
	DirectDelivery  bool           `db:"direct_delivery"`
	CompletedDate   sql.NullTime   `db:"completed_date"`
}

type OrderLine struct {
	OrderID      string `db:"order_id"`
	VariantID    string `db:"variant_id"`
	Quantity     int    `db:"quantity"`
	PriceAtOrder int64  `db:"price_at_order"`
}

type orderDetailRow struct {
	Order
	CustomerName      sql.NullString `db:"customer_name"`
	CustomerPhone     sql.NullString `db:"customer_phone"`
	CustomerAddress   sql.NullString `db:"customer_address"`
	StaffName         sql.NullString `db:"staff_name"`
	DeliveryStaffName sql.NullString `db:"delivery_staff_name"`
}

type lineDetailRow struct {
	VariantID    string         `db:"variant_id"`
	ProductName  sql.NullString `db:"product_name"`
	Color        sql.NullString `db:"color"`
	Size         sql.NullString `db:"size"`
	Quantity     int            `db:"quantity"`
	PriceAtOrder int64          `db:"price_at_order"`
	LineTotal    int64          `db:"line_total"`
}

type orderSummaryRow struct {
	OrderID       string         `db:"order_id"`
	CustomerName  sql.NullString `db:"customer_name"`
	StaffName     sql.NullString `db:"staff_name"`
	FinalTotal    int64          `db:"final_total"`
	Status        string         `db:"status"`
	PaymentStatus string         `db:"payment_status"`
	Channel       string         `db:"order_channel"`
	OrderDate     time.Time      `db:"order_date"`
}

type variantRow struct {
	UnitPrice int64 `db:"unit_price"`
	Available int   `db:"available_quantity"`
}

type Customer struct {
	CustomerID string         `db:"customer_id"`
	FullName   string         `db:"full_name"`
	Phone      string         `db:"phone"`
	Address    sql.NullString `db:"address"`
}

func OrderToEntity(o Order) entities.Order {
	return entities.Order{
		OrderID:         o.OrderID,
		CustomerID:      nullStringToString(o.CustomerID),
		StaffID:         o.StaffID,
		DeliveryStaffID: nullStringToString(o.DeliveryStaffID),
		Channel:         entities.Channel(o.Channel),
		Subtotal:        o.Subtotal,
		ShippingCost:    o.ShippingCost,
		FinalTotal:      o.FinalTotal,
		Status:          entities.Status(o.Status),
		PaymentStatus:   entities.PaymentStatus(o.PaymentStatus),
		PaymentMethod:   o.PaymentMethod,
		DirectDelivery:  o.DirectDelivery,
		OrderDate:       o.OrderDate,
		CompletedDate:   nullTimeToPtr(o.CompletedDate),
	}
}

func LineToEntity(l OrderLine) entities.OrderLine {
	return entities.OrderLine{
		OrderID:      l.OrderID,
		VariantID:    l.VariantID,
		Quantity:     l.Quantity,
		PriceAtOrder: l.PriceAtOrder,
	}
}

func detailToEntity(row orderDetailRow, lines []lineDetailRow) entities.OrderDetail {
	d := entities.OrderDetail{
		Order:             OrderToEntity(row.Order),
		CustomerName:      nullStringToString(row.CustomerName),
		CustomerPhone:     nullStringToString(row.CustomerPhone),
		CustomerAddress:   nullStringToString(row.CustomerAddress),
		StaffName:         nullStringToString(row.StaffName),
		DeliveryStaffName: nullStringToString(row.DeliveryStaffName),
	}
	d.Lines = make([]entities.LineDetail, 0, len(lines))
	for _, l := range lines {
		d.Lines = append(d.Lines, entities.LineDetail{
			VariantID:    l.VariantID,
			ProductName:  nullStringToString(l.ProductName),
			Color:        nullStringToString(l.Color),
			Size:         nullStringToString(l.Size),
			Quantity:     l.Quantity,
			PriceAtOrder: l.PriceAtOrder,
			LineTotal:    l.LineTotal,
		})
	}
	return d
}

func summaryToEntity(row orderSummaryRow) entities.OrderSummary {
	return entities.OrderSummary{
		OrderID:       row.OrderID,
		CustomerName:  nullStringToString(row.CustomerName),
		StaffName:     nullStringToString(row.StaffName),
		FinalTotal:    row.FinalTotal,
		Status:        entities.Status(row.Status),
		PaymentStatus: entities.PaymentStatus(row.PaymentStatus),
		Channel:       entities.Channel(row.Channel),
		OrderDate:     row.OrderDate,
	}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullStringToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullTimeToPtr(nt sql.NullTime) *time.Time {
	if nt.Valid {
		t := nt.Time
		return &t
	}
	return nil
}
