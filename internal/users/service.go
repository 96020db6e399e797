package users

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ValidationError rejects bad registration input with a 4xx at the edge.
type ValidationError struct{ Reason string }

func (e *ValidationError) Error() string { return e.Reason }

// UserStore lets tests run the service against an in-memory map.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	Get(ctx context.Context, id string) (*User, error)
	UpdateProfile(ctx context.Context, u *User) error
	UpdateContact(ctx context.Context, u *User) error
}

type Service struct {
	Users     UserStore
	Addresses AddressStore
	OTP       OTPSender
	Log       *logrus.Logger
}

type RegisterInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, &ValidationError{Reason: "invalid email"}
	}
	if len(in.Password) < 8 {
		return nil, &ValidationError{Reason: "password must be at least 8 characters"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        in.Email,
		PasswordHash: string(hash),
	}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.Log.WithField("user_id", u.ID).Info("user registered")
	return u, nil
}

// Login verifies credentials. A missing account and a wrong password both
// come back as ErrInvalidCredentials so the response does not leak which
// emails exist.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.Users.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) Profile(ctx context.Context, userID string) (*User, error) {
	return s.Users.Get(ctx, userID)
}

func (s *Service) UpdateProfile(ctx context.Context, userID, firstName, lastName string) (*User, error) {
	u, err := s.Users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.FirstName = strings.TrimSpace(firstName)
	u.LastName = strings.TrimSpace(lastName)
	if err := s.Users.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
