package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fashionshop/order-service/internal/entities"

	sq "github.com/Masterminds/squirrel"
)

// VariantForUpdate reads the selling price and available quantity of a variant
// under an exclusive row lock. The lock is held until the enclosing
// unit-of-work commits or rolls back, so two concurrent orders touching the
// same variant serialize instead of both passing the stock check.
func (r *postgresRepo) VariantForUpdate(ctx context.Context, variantID string) (unitPrice int64, available int, err error) {
	query, args := r.qb.Select(
		"(p.base_price + pv.additional_price) AS unit_price",
		"pv.available_quantity",
	).
		From("product_variants pv").
		Join("products p ON pv.product_id = p.product_id").
		Where(sq.Eq{"pv.variant_id": variantID}).
		Suffix("FOR UPDATE OF pv").
		MustSql()

	var row variantRow
	err = r.getContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, fmt.Errorf("variant %s: %w", variantID, entities.ErrVariantNotFound)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to lock variant %s: %w", variantID, err)
	}
	return row.UnitPrice, row.Available, nil
}

// AdjustStock shifts available quantity by delta; negative debits, positive
// credits. Callers must hold the variant row lock via VariantForUpdate before
// debiting.
func (r *postgresRepo) AdjustStock(ctx context.Context, variantID string, delta int) error {
	query, args := r.qb.Update("product_variants").
		Set("available_quantity", sq.Expr("available_quantity + ?", delta)).
		Where(sq.Eq{"variant_id": variantID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to adjust stock of %s: %w", variantID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("variant %s: %w", variantID, entities.ErrVariantNotFound)
	}
	return nil
}
