package users

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
)

var ErrInvalidOTP = errors.New("invalid or expired verification code")

const otpTTL = 10 * time.Minute

// OTPSender delivers a verification code. The mail implementation lives in
// notify; tests record the code instead of sending it.
type OTPSender interface {
	SendOTP(to, code, purpose string) error
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n), nil
}

// Only the hash is stored; the cleartext code exists in the email and
// nowhere else.
func hashOTP(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// RequestEmailOTP stages an email change and mails a code to the NEW
// address, proving the caller controls it before anything switches over.
func (s *Service) RequestEmailOTP(ctx context.Context, userID, newEmail string) error {
	newEmail = strings.ToLower(strings.TrimSpace(newEmail))
	if newEmail == "" || !strings.Contains(newEmail, "@") {
		return &ValidationError{Reason: "invalid email"}
	}
	if _, err := s.Users.GetByEmail(ctx, newEmail); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	u, err := s.Users.Get(ctx, userID)
	if err != nil {
		return err
	}

	code, err := generateOTP()
	if err != nil {
		return err
	}
	exp := time.Now().Add(otpTTL)
	u.OTPHash = hashOTP(code)
	u.OTPExpires = &exp
	u.PendingEmail = newEmail
	u.PendingPhone = ""
	if err := s.Users.UpdateContact(ctx, u); err != nil {
		return err
	}

	if err := s.OTP.SendOTP(newEmail, code, "Email Update"); err != nil {
		s.Log.WithError(err).WithField("user_id", userID).Error("otp email failed")
		return err
	}
	return nil
}

// VerifyEmailOTP commits the staged email change.
func (s *Service) VerifyEmailOTP(ctx context.Context, userID, code string) (*User, error) {
	u, err := s.Users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !otpMatches(u, code) || u.PendingEmail == "" {
		return nil, ErrInvalidOTP
	}

	u.Email = u.PendingEmail
	clearOTP(u)
	if err := s.Users.UpdateContact(ctx, u); err != nil {
		return nil, err
	}
	s.Log.WithField("user_id", u.ID).Info("email updated")
	return u, nil
}

// RequestPhoneOTP stages a phone change. The code goes to the account's
// current email; there is no SMS channel.
func (s *Service) RequestPhoneOTP(ctx context.Context, userID, newPhone string) error {
	newPhone = strings.TrimSpace(newPhone)
	if newPhone == "" {
		return &ValidationError{Reason: "phone number is required"}
	}

	u, err := s.Users.Get(ctx, userID)
	if err != nil {
		return err
	}

	code, err := generateOTP()
	if err != nil {
		return err
	}
	exp := time.Now().Add(otpTTL)
	u.OTPHash = hashOTP(code)
	u.OTPExpires = &exp
	u.PendingPhone = newPhone
	u.PendingEmail = ""
	if err := s.Users.UpdateContact(ctx, u); err != nil {
		return err
	}

	if err := s.OTP.SendOTP(u.Email, code, "Phone Update"); err != nil {
		s.Log.WithError(err).WithField("user_id", userID).Error("otp email failed")
		return err
	}
	return nil
}

func (s *Service) VerifyPhoneOTP(ctx context.Context, userID, code string) (*User, error) {
	u, err := s.Users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !otpMatches(u, code) || u.PendingPhone == "" {
		return nil, ErrInvalidOTP
	}

	u.Phone = u.PendingPhone
	clearOTP(u)
	if err := s.Users.UpdateContact(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func otpMatches(u *User, code string) bool {
	if code == "" || u.OTPHash == "" || u.OTPExpires == nil {
		return false
	}
	if time.Now().After(*u.OTPExpires) {
		return false
	}
	return hashOTP(code) == u.OTPHash
}

func clearOTP(u *User) {
	u.OTPHash = ""
	u.OTPExpires = nil
	u.PendingEmail = ""
	u.PendingPhone = ""
}
