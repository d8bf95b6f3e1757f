package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fashionshop/order-service/internal/entities"

	sq "github.com/Masterminds/squirrel"
)

const (
	orderIDPrefix    = "ORD"
	orderIDWidth     = 3
	customerIDPrefix = "CUS"
)

// NextOrderID produces the next sequential order id (ORD001, ORD002, ...).
// The highest-suffix row is read FOR UPDATE so concurrent generators serialize
// on it; on an empty table the insert's primary key still catches the race.
// Ids are never reused, and running past the zero-pad width is an explicit
// failure rather than a silent widening.
func (r *postgresRepo) NextOrderID(ctx context.Context) (string, error) {
	last, err := r.lastID(ctx, "orders", "order_id", orderIDPrefix)
	if err != nil {
		return "", fmt.Errorf("failed to read last order id: %w", err)
	}
	next := last + 1
	if next >= pow10(orderIDWidth+1) {
		return "", entities.ErrIDExhausted
	}
	return fmt.Sprintf("%s%0*d", orderIDPrefix, orderIDWidth, next), nil
}

// NextCustomerID produces the next sequential customer id (CUS1, CUS2, ...)
// under the same locking discipline as order ids. Customer ids carry no
// zero-padding, so they never exhaust.
func (r *postgresRepo) NextCustomerID(ctx context.Context) (string, error) {
	last, err := r.lastID(ctx, "customers", "customer_id", customerIDPrefix)
	if err != nil {
		return "", fmt.Errorf("failed to read last customer id: %w", err)
	}
	return customerIDPrefix + strconv.Itoa(last+1), nil
}

func (r *postgresRepo) lastID(ctx context.Context, table, column, prefix string) (int, error) {
	suffix := fmt.Sprintf("CAST(SUBSTRING(%s FROM %d) AS INTEGER)", column, len(prefix)+1)

	query, args := r.qb.Select(column).
		From(table).
		Where(sq.Like{column: prefix + "%"}).
		OrderBy(suffix + " DESC").
		Limit(1).
		Suffix("FOR UPDATE").
		MustSql()

	var id string
	err := r.getContext(ctx, &id, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimPrefix(id, prefix))
}

func pow10(digits int) int {
	n := 1
	for i := 1; i < digits; i++ {
		n *= 10
	}
	return n
}
