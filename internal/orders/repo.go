package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

const orderCols = `id, user_id, status, payment_method, payment_status,
	subtotal_cents, tax_cents, shipping_cents, total_cents, shipping_address,
	tracking_number, cancel_reason, created_at, updated_at, cancelled_at, delivered_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.PaymentMethod, &o.PaymentStatus,
		&o.SubtotalCents, &o.TaxCents, &o.ShippingCents, &o.TotalCents, &o.ShippingAddress,
		&o.TrackingNumber, &o.CancelReason, &o.CreatedAt, &o.UpdatedAt, &o.CancelledAt, &o.DeliveredAt)
	return o, err
}

func (r *Repo) Insert(ctx context.Context, o *Order) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO orders(id, user_id, status, payment_method, payment_status,
			subtotal_cents, tax_cents, shipping_cents, total_cents, shipping_address,
			created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		o.ID, o.UserID, o.Status, o.PaymentMethod, o.PaymentStatus,
		o.SubtotalCents, o.TaxCents, o.ShippingCents, o.TotalCents, o.ShippingAddress,
		o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return err
	}

	for _, it := range o.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(order_id, product_id, name, qty, unit_price_cents)
			VALUES ($1,$2,$3,$4,$5)`,
			o.ID, it.ProductID, it.Name, it.Qty, it.UnitPriceCents); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *Repo) Get(ctx context.Context, id string) (*Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, map[string]*Order{o.ID: &o}); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Repo) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return r.list(ctx, `SELECT `+orderCols+` FROM orders WHERE user_id=$1 ORDER BY created_at DESC`, userID)
}

func (r *Repo) ListAll(ctx context.Context) ([]Order, error) {
	return r.list(ctx, `SELECT ` + orderCols + ` FROM orders ORDER BY created_at DESC`)
}

func (r *Repo) list(ctx context.Context, q string, args ...any) ([]Order, error) {
	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	byID := make(map[string]*Order, len(out))
	for i := range out {
		byID[out[i].ID] = &out[i]
	}
	if err := r.loadItems(ctx, byID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) loadItems(ctx context.Context, byID map[string]*Order) error {
	if len(byID) == 0 {
		return nil
	}
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	rows, err := r.DB.Query(ctx, `
		SELECT order_id, product_id, name, qty, unit_price_cents
		FROM order_items WHERE order_id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID string
			it      LineItem
		)
		if err := rows.Scan(&orderID, &it.ProductID, &it.Name, &it.Qty, &it.UnitPriceCents); err != nil {
			return err
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

// Update rewrites the lifecycle fields only. Financial columns and line
// items are immutable once created.
func (r *Repo) Update(ctx context.Context, o *Order) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders
		SET status=$2, payment_status=$3, tracking_number=$4, cancel_reason=$5,
		    updated_at=$6, cancelled_at=$7, delivered_at=$8
		WHERE id=$1`,
		o.ID, o.Status, o.PaymentStatus, o.TrackingNumber, o.CancelReason,
		o.UpdatedAt, o.CancelledAt, o.DeliveredAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}
