package users

import (
	"context"
	"errors"
)

var ErrAddressNotFound = errors.New("address not found")

// AddressStore lets the book run against an in-memory map in tests.
type AddressStore interface {
	ListByUser(ctx context.Context, userID string) ([]Address, error)
	Get(ctx context.Context, userID, id string) (*Address, error)
	Insert(ctx context.Context, a *Address) error
	Update(ctx context.Context, a *Address) error
	Delete(ctx context.Context, userID, id string) error
	ClearDefault(ctx context.Context, userID string) error
}

type AddressInput struct {
	Label     string `json:"label"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zip_code"`
	Country   string `json:"country"`
	IsDefault bool   `json:"is_default"`
}

// AddressUpdate applies only the fields the client sent.
type AddressUpdate struct {
	Label     *string `json:"label"`
	Street    *string `json:"street"`
	City      *string `json:"city"`
	State     *string `json:"state"`
	ZipCode   *string `json:"zip_code"`
	Country   *string `json:"country"`
	IsDefault *bool   `json:"is_default"`
}

func (s *Service) ListAddresses(ctx context.Context, userID string) ([]Address, error) {
	return s.Addresses.ListByUser(ctx, userID)
}

// AddAddress saves a new destination. The first address of a user, or one
// flagged as default, becomes the default and demotes the previous one.
func (s *Service) AddAddress(ctx context.Context, userID string, in AddressInput) ([]Address, error) {
	if in.Street == "" || in.City == "" || in.State == "" || in.ZipCode == "" {
		return nil, &ValidationError{Reason: "street, city, state and zip code are required"}
	}

	existing, err := s.Addresses.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	a := &Address{
		UserID:    userID,
		Label:     in.Label,
		Street:    in.Street,
		City:      in.City,
		State:     in.State,
		ZipCode:   in.ZipCode,
		Country:   in.Country,
		IsDefault: in.IsDefault || len(existing) == 0,
	}
	if a.Label == "" {
		a.Label = "Home"
	}
	if a.Country == "" {
		a.Country = "India"
	}

	if a.IsDefault {
		if err := s.Addresses.ClearDefault(ctx, userID); err != nil {
			return nil, err
		}
	}
	if err := s.Addresses.Insert(ctx, a); err != nil {
		return nil, err
	}
	return s.Addresses.ListByUser(ctx, userID)
}

func (s *Service) UpdateAddress(ctx context.Context, userID, addrID string, in AddressUpdate) ([]Address, error) {
	a, err := s.Addresses.Get(ctx, userID, addrID)
	if err != nil {
		return nil, err
	}

	if in.IsDefault != nil && *in.IsDefault {
		if err := s.Addresses.ClearDefault(ctx, userID); err != nil {
			return nil, err
		}
	}

	if in.Label != nil {
		a.Label = *in.Label
	}
	if in.Street != nil {
		a.Street = *in.Street
	}
	if in.City != nil {
		a.City = *in.City
	}
	if in.State != nil {
		a.State = *in.State
	}
	if in.ZipCode != nil {
		a.ZipCode = *in.ZipCode
	}
	if in.Country != nil {
		a.Country = *in.Country
	}
	if in.IsDefault != nil {
		a.IsDefault = *in.IsDefault
	}

	if err := s.Addresses.Update(ctx, a); err != nil {
		return nil, err
	}
	return s.Addresses.ListByUser(ctx, userID)
}

// DeleteAddress removes a destination. When the default is deleted and
// other addresses remain, the oldest one is promoted so the user always
// keeps a default.
func (s *Service) DeleteAddress(ctx context.Context, userID, addrID string) ([]Address, error) {
	a, err := s.Addresses.Get(ctx, userID, addrID)
	if err != nil {
		return nil, err
	}
	if err := s.Addresses.Delete(ctx, userID, addrID); err != nil {
		return nil, err
	}

	rest, err := s.Addresses.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if a.IsDefault && len(rest) > 0 {
		rest[0].IsDefault = true
		if err := s.Addresses.Update(ctx, &rest[0]); err != nil {
			return nil, err
		}
	}
	return rest, nil
}

func (s *Service) SetDefaultAddress(ctx context.Context, userID, addrID string) ([]Address, error) {
	a, err := s.Addresses.Get(ctx, userID, addrID)
	if err != nil {
		return nil, err
	}
	if err := s.Addresses.ClearDefault(ctx, userID); err != nil {
		return nil, err
	}
	a.IsDefault = true
	if err := s.Addresses.Update(ctx, a); err != nil {
		return nil, err
	}
	return s.Addresses.ListByUser(ctx, userID)
}
