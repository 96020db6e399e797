package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("product not found")

type Repo struct{ DB *pgxpool.Pool }

const productCols = `id, sku, name, description, brand, category, image, price_cents, stock, featured, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.Brand, &p.Category,
		&p.Image, &p.PriceCents, &p.Stock, &p.Featured, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

type Filter struct {
	Category Category
	Search   string
	Featured bool
}

func (r *Repo) List(ctx context.Context, f Filter) ([]Product, error) {
	var (
		conds []string
		args  []any
	)
	if f.Category != "" {
		args = append(args, f.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d OR brand ILIKE $%d)", n, n, n))
	}
	if f.Featured {
		conds = append(conds, "featured")
	}
	q := `SELECT ` + productCols + ` FROM products`
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id string) (*Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) Create(ctx context.Context, p *Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return r.DB.QueryRow(ctx, `
		INSERT INTO products(id, sku, name, description, brand, category, image, price_cents, stock, featured)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`,
		p.ID, p.SKU, p.Name, p.Description, p.Brand, p.Category, p.Image,
		p.PriceCents, p.Stock, p.Featured,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

// Update rewrites the editable fields. Stock is deliberately not part of
// the statement: the inventory ledger is the only stock writer.
func (r *Repo) Update(ctx context.Context, p *Product) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE products
		SET sku=$2, name=$3, description=$4, brand=$5, category=$6, image=$7,
		    price_cents=$8, featured=$9, updated_at=now()
		WHERE id=$1`,
		p.ID, p.SKU, p.Name, p.Description, p.Brand, p.Category, p.Image,
		p.PriceCents, p.Featured)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}
