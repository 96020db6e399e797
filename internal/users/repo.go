package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

const userCols = `id, first_name, last_name, email, phone, password_hash, is_admin,
	otp_hash, otp_expires, pending_email, pending_phone, created_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Phone, &u.PasswordHash, &u.IsAdmin,
		&u.OTPHash, &u.OTPExpires, &u.PendingEmail, &u.PendingPhone, &u.CreatedAt)
	return u, err
}

func (r *Repo) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	err := r.DB.QueryRow(ctx, `
		INSERT INTO users(id, first_name, last_name, email, password_hash, is_admin)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at`,
		u.ID, u.FirstName, u.LastName, u.Email, u.PasswordHash, u.IsAdmin,
	).Scan(&u.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation on email
		return ErrEmailTaken
	}
	return err
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(r.DB.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE email=$1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repo) Get(ctx context.Context, id string) (*User, error) {
	u, err := scanUser(r.DB.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateContact rewrites the contact columns and the OTP staging state in
// one statement, so a verified change and its cleanup land together.
func (r *Repo) UpdateContact(ctx context.Context, u *User) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE users
		SET email=$2, phone=$3, otp_hash=$4, otp_expires=$5, pending_email=$6, pending_phone=$7
		WHERE id=$1`,
		u.ID, u.Email, u.Phone, u.OTPHash, u.OTPExpires, u.PendingEmail, u.PendingPhone)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" { // email raced another signup
		return ErrEmailTaken
	}
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) UpdateProfile(ctx context.Context, u *User) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE users SET first_name=$2, last_name=$3 WHERE id=$1`,
		u.ID, u.FirstName, u.LastName)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}
