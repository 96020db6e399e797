package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AddressRepo struct{ DB *pgxpool.Pool }

const addressCols = `id, user_id, label, street, city, state, zip_code, country, is_default, created_at`

func scanAddress(row pgx.Row) (Address, error) {
	var a Address
	err := row.Scan(&a.ID, &a.UserID, &a.Label, &a.Street, &a.City, &a.State,
		&a.ZipCode, &a.Country, &a.IsDefault, &a.CreatedAt)
	return a, err
}

// ListByUser returns the book in insertion order, oldest first.
func (r *AddressRepo) ListByUser(ctx context.Context, userID string) ([]Address, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+addressCols+` FROM addresses WHERE user_id=$1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AddressRepo) Get(ctx context.Context, userID, id string) (*Address, error) {
	a, err := scanAddress(r.DB.QueryRow(ctx,
		`SELECT `+addressCols+` FROM addresses WHERE id=$1 AND user_id=$2`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAddressNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AddressRepo) Insert(ctx context.Context, a *Address) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return r.DB.QueryRow(ctx, `
		INSERT INTO addresses(id, user_id, label, street, city, state, zip_code, country, is_default)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at`,
		a.ID, a.UserID, a.Label, a.Street, a.City, a.State, a.ZipCode, a.Country, a.IsDefault,
	).Scan(&a.CreatedAt)
}

func (r *AddressRepo) Update(ctx context.Context, a *Address) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE addresses
		SET label=$3, street=$4, city=$5, state=$6, zip_code=$7, country=$8, is_default=$9
		WHERE id=$1 AND user_id=$2`,
		a.ID, a.UserID, a.Label, a.Street, a.City, a.State, a.ZipCode, a.Country, a.IsDefault)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrAddressNotFound
	}
	return nil
}

func (r *AddressRepo) Delete(ctx context.Context, userID, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM addresses WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrAddressNotFound
	}
	return nil
}

func (r *AddressRepo) ClearDefault(ctx context.Context, userID string) error {
	_, err := r.DB.Exec(ctx, `UPDATE addresses SET is_default=FALSE WHERE user_id=$1 AND is_default`, userID)
	return err
}
