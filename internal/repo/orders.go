package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fashionshop/order-service/internal/entities"

	sq "github.com/Masterminds/squirrel"
)

var orderColumns = []string{
	"order_id", "customer_id", "staff_id", "delivery_staff_id", "order_date",
	"subtotal", "shipping_cost", "final_total", "status", "order_channel",
	"payment_method", "payment_status", "direct_delivery", "completed_date",
}

func (r *postgresRepo) InsertOrder(ctx context.Context, o entities.Order) error {
	query, args := r.qb.Insert("orders").
		Columns(orderColumns...).
		Values(
			o.OrderID, nullString(o.CustomerID), o.StaffID, nullString(o.DeliveryStaffID),
			o.OrderDate, o.Subtotal, o.ShippingCost, o.FinalTotal, string(o.Status),
			string(o.Channel), o.PaymentMethod, string(o.PaymentStatus),
			o.DirectDelivery, nullTime(o.CompletedDate),
		).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		if mapped := asRepoErr(err); errors.Is(mapped, entities.ErrConflict) {
			return fmt.Errorf("order %s: %w", o.OrderID, mapped)
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (r *postgresRepo) InsertLines(ctx context.Context, orderID string, lines []entities.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}

	q := r.qb.Insert("order_lines").
		Columns("order_id", "variant_id", "quantity", "price_at_order")
	for _, l := range lines {
		q = q.Values(orderID, l.VariantID, l.Quantity, l.PriceAtOrder)
	}

	query, args := q.MustSql()
	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert order lines: %w", err)
	}
	return nil
}

func (r *postgresRepo) Lines(ctx context.Context, orderID string) ([]entities.OrderLine, error) {
	query, args := r.qb.Select("order_id", "variant_id", "quantity", "price_at_order").
		From("order_lines").
		Where(sq.Eq{"order_id": orderID}).
		OrderBy("variant_id").
		MustSql()

	var rows []OrderLine
	if err := r.selectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select order lines: %w", err)
	}

	lines := make([]entities.OrderLine, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, LineToEntity(row))
	}
	return lines, nil
}

func (r *postgresRepo) DeleteLines(ctx context.Context, orderID string) error {
	query, args := r.qb.Delete("order_lines").
		Where(sq.Eq{"order_id": orderID}).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete order lines: %w", err)
	}
	return nil
}

// OrderForUpdate reads the header under an exclusive row lock, serializing
// concurrent mutations of the same order for the rest of the unit-of-work.
func (r *postgresRepo) OrderForUpdate(ctx context.Context, orderID string) (entities.Order, error) {
	query, args := r.qb.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"order_id": orderID}).
		Suffix("FOR UPDATE").
		MustSql()

	var row Order
	err := r.getContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to lock order %s: %w", orderID, err)
	}
	return OrderToEntity(row), nil
}

func (r *postgresRepo) UpdateHeader(ctx context.Context, orderID string, upd entities.HeaderPatch) error {
	q := r.qb.Update("orders").
		Set("subtotal", upd.Subtotal).
		Set("shipping_cost", upd.ShippingCost).
		Set("final_total", upd.FinalTotal).
		Where(sq.Eq{"order_id": orderID})

	if upd.PaymentMethod != nil {
		q = q.Set("payment_method", *upd.PaymentMethod)
	}
	if upd.DeliveryStaffID != nil {
		q = q.Set("delivery_staff_id", nullString(*upd.DeliveryStaffID))
	}

	query, args := q.MustSql()
	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update order %s: %w", orderID, err)
	}
	return noneMeansNotFound(res)
}

func (r *postgresRepo) SetStatus(ctx context.Context, orderID string, st entities.Status, completed *time.Time) error {
	query, args := r.qb.Update("orders").
		Set("status", string(st)).
		Set("completed_date", nullTime(completed)).
		Where(sq.Eq{"order_id": orderID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to set status of %s: %w", orderID, err)
	}
	return noneMeansNotFound(res)
}

func (r *postgresRepo) SetPaymentStatus(ctx context.Context, orderID string, ps entities.PaymentStatus) error {
	query, args := r.qb.Update("orders").
		Set("payment_status", string(ps)).
		Where(sq.Eq{"order_id": orderID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to set payment status of %s: %w", orderID, err)
	}
	return noneMeansNotFound(res)
}

// StampCompletedIfUnset records the completion time once; an earlier stamp is
// never overwritten.
func (r *postgresRepo) StampCompletedIfUnset(ctx context.Context, orderID string, at time.Time) error {
	query, args := r.qb.Update("orders").
		Set("completed_date", at).
		Where(sq.Eq{"order_id": orderID}).
		Where("completed_date IS NULL").
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to stamp completion of %s: %w", orderID, err)
	}
	return nil
}

func (r *postgresRepo) DeleteOrder(ctx context.Context, orderID string) error {
	query, args := r.qb.Delete("orders").
		Where(sq.Eq{"order_id": orderID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete order %s: %w", orderID, err)
	}
	return noneMeansNotFound(res)
}

func (r *postgresRepo) OrderDetail(ctx context.Context, orderID string) (entities.OrderDetail, error) {
	query, args := r.qb.Select(
		"o.order_id", "o.customer_id", "o.staff_id", "o.delivery_staff_id",
		"o.order_date", "o.subtotal", "o.shipping_cost", "o.final_total",
		"o.status", "o.order_channel", "o.payment_method", "o.payment_status",
		"o.direct_delivery", "o.completed_date",
		"c.full_name AS customer_name", "c.phone AS customer_phone", "c.address AS customer_address",
		"es.full_name AS staff_name", "ed.full_name AS delivery_staff_name",
	).
		From("orders o").
		LeftJoin("customers c ON o.customer_id = c.customer_id").
		LeftJoin("employees es ON o.staff_id = es.user_id").
		LeftJoin("employees ed ON o.delivery_staff_id = ed.user_id").
		Where(sq.Eq{"o.order_id": orderID}).
		MustSql()

	var header orderDetailRow
	err := r.getContext(ctx, &header, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.OrderDetail{}, entities.ErrOrderNotFound
	}
	if err != nil {
		return entities.OrderDetail{}, fmt.Errorf("failed to get order %s: %w", orderID, err)
	}

	query, args = r.qb.Select(
		"ol.variant_id", "p.name AS product_name", "pv.color", "pv.size",
		"ol.quantity", "ol.price_at_order",
		"(ol.quantity * ol.price_at_order) AS line_total",
	).
		From("order_lines ol").
		Join("product_variants pv ON ol.variant_id = pv.variant_id").
		LeftJoin("products p ON pv.product_id = p.product_id").
		Where(sq.Eq{"ol.order_id": orderID}).
		OrderBy("ol.variant_id").
		MustSql()

	var lines []lineDetailRow
	if err := r.selectContext(ctx, &lines, query, args...); err != nil {
		return entities.OrderDetail{}, fmt.Errorf("failed to get lines of %s: %w", orderID, err)
	}

	return detailToEntity(header, lines), nil
}

func (r *postgresRepo) ListOrders(ctx context.Context, limit int) ([]entities.OrderSummary, error) {
	query, args := r.qb.Select(
		"o.order_id", "c.full_name AS customer_name", "es.full_name AS staff_name",
		"o.final_total", "o.status", "o.payment_status", "o.order_channel", "o.order_date",
	).
		From("orders o").
		LeftJoin("customers c ON o.customer_id = c.customer_id").
		LeftJoin("employees es ON o.staff_id = es.user_id").
		OrderBy("o.order_date DESC", "o.order_id DESC").
		Limit(uint64(limit)).
		MustSql()

	var rows []orderSummaryRow
	if err := r.selectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	result := make([]entities.OrderSummary, 0, len(rows))
	for _, row := range rows {
		result = append(result, summaryToEntity(row))
	}
	return result, nil
}

func noneMeansNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return entities.ErrOrderNotFound
	}
	return nil
}
