package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fashionshop/order-service/internal/entities"

	sq "github.com/Masterminds/squirrel"
)

// CustomerIDByPhone looks a customer up by the phone number, the effectively
// unique key the storefront works with.
func (r *postgresRepo) CustomerIDByPhone(ctx context.Context, phone string) (string, error) {
	query, args := r.qb.Select("customer_id").
		From("customers").
		Where(sq.Eq{"phone": phone}).
		MustSql()

	var id string
	err := r.getContext(ctx, &id, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return "", entities.ErrCustomerNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up customer by phone: %w", err)
	}
	return id, nil
}

func (r *postgresRepo) CustomerExists(ctx context.Context, customerID string) (bool, error) {
	query, args := r.qb.Select("1").
		From("customers").
		Where(sq.Eq{"customer_id": customerID}).
		MustSql()

	var one int
	err := r.getContext(ctx, &one, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check customer %s: %w", customerID, err)
	}
	return true, nil
}

func (r *postgresRepo) InsertCustomer(ctx context.Context, c entities.Customer) error {
	query, args := r.qb.Insert("customers").
		Columns("customer_id", "full_name", "phone", "address").
		Values(c.CustomerID, c.FullName, c.Phone, nullString(c.Address)).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		if mapped := asRepoErr(err); errors.Is(mapped, entities.ErrConflict) {
			return fmt.Errorf("customer %s: %w", c.CustomerID, mapped)
		}
		return fmt.Errorf("failed to insert customer: %w", err)
	}
	return nil
}
