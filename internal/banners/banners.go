// Package banners stores the promotional carousel entries shown on the
// storefront home page.
package banners

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("banner not found")

type Banner struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle"`
	Image     string    `json:"image"`
	Link      string    `json:"link"`
	IsActive  bool      `json:"is_active"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

type Repo struct{ DB *pgxpool.Pool }

const bannerCols = `id, title, subtitle, image, link, is_active, sort_order, created_at`

func scanBanner(row pgx.Row) (Banner, error) {
	var b Banner
	err := row.Scan(&b.ID, &b.Title, &b.Subtitle, &b.Image, &b.Link, &b.IsActive, &b.SortOrder, &b.CreatedAt)
	return b, err
}

// ListActive returns the banners to display, in carousel order.
func (r *Repo) ListActive(ctx context.Context) ([]Banner, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+bannerCols+` FROM banners WHERE is_active ORDER BY sort_order`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Banner
	for rows.Next() {
		b, err := scanBanner(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id string) (*Banner, error) {
	b, err := scanBanner(r.DB.QueryRow(ctx, `SELECT `+bannerCols+` FROM banners WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repo) Create(ctx context.Context, b *Banner) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return r.DB.QueryRow(ctx, `
		INSERT INTO banners(id, title, subtitle, image, link, is_active, sort_order)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at`,
		b.ID, b.Title, b.Subtitle, b.Image, b.Link, b.IsActive, b.SortOrder,
	).Scan(&b.CreatedAt)
}

func (r *Repo) Update(ctx context.Context, b *Banner) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE banners SET title=$2, subtitle=$3, image=$4, link=$5, is_active=$6, sort_order=$7
		WHERE id=$1`,
		b.ID, b.Title, b.Subtitle, b.Image, b.Link, b.IsActive, b.SortOrder)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

// Reorder rewrites sort_order to match the given id sequence, first id
// first. Unknown ids abort the whole batch.
func (r *Repo) Reorder(ctx context.Context, ids []string) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for i, id := range ids {
		ct, err := tx.Exec(ctx, `UPDATE banners SET sort_order=$2 WHERE id=$1`, id, i+1)
		if err != nil {
			return err
		}
		if ct.RowsAffected() != 1 {
			return ErrNotFound
		}
	}
	return tx.Commit(ctx)
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM banners WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}
