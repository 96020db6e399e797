package users

import "time"

type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`

	// Contact-change state. A pending email or phone takes effect only
	// after the matching OTP is verified; none of this leaves the API.
	OTPHash      string     `json:"-"`
	OTPExpires   *time.Time `json:"-"`
	PendingEmail string     `json:"-"`
	PendingPhone string     `json:"-"`
}

func (u *User) FullName() string { return u.FirstName + " " + u.LastName }

// Address is a saved shipping destination. Exactly one address per user is
// the default; the first one saved becomes it automatically.
type Address struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Label     string    `json:"label"`
	Street    string    `json:"street"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	ZipCode   string    `json:"zip_code"`
	Country   string    `json:"country"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
}
