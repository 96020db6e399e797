// Package inventory owns the per-product stock counter. Nothing outside
// this package writes stock directly; the order lifecycle reserves units at
// checkout and releases them on cancellation.
package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound   = errors.New("product not found")
	ErrOutOfStock = errors.New("insufficient stock")
)

type Ledger interface {
	// Reserve decrements available stock by qty. It fails with
	// ErrOutOfStock when fewer than qty units are available and leaves the
	// counter untouched on failure.
	Reserve(ctx context.Context, productID string, qty int) error

	// Release returns qty units to available stock. There is no upper
	// bound: a release is trusted to mirror a prior reservation of the
	// same quantity.
	Release(ctx context.Context, productID string, qty int) error
}

type PGLedger struct{ DB *pgxpool.Pool }

// Reserve is a single conditional decrement, so concurrent checkouts
// racing for the last units serialize on the row update rather than on a
// stale availability pre-check.
func (l *PGLedger) Reserve(ctx context.Context, productID string, qty int) error {
	ct, err := l.DB.Exec(ctx, `
		UPDATE products SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2`, productID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 1 {
		return nil
	}

	// Distinguish a missing product from an insufficient counter.
	var stock int
	err = l.DB.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, productID).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrOutOfStock
}

func (l *PGLedger) Release(ctx context.Context, productID string, qty int) error {
	ct, err := l.DB.Exec(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = now()
		WHERE id = $1`, productID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}
