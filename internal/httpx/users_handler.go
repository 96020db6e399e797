package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/ariefcatur/go-elite-store.git/internal/auth"
	"github.com/ariefcatur/go-elite-store.git/internal/users"
)

type UsersHandler struct {
	Service   *users.Service
	JWTSecret []byte
	JWTTTL    time.Duration
	Log       *logrus.Logger
}

func (h *UsersHandler) Register(r chi.Router) {
	r.Post("/api/auth/register", h.register)
	r.Post("/api/auth/login", h.login)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(h.JWTSecret))
		r.Get("/api/profile", h.profile)
		r.Put("/api/profile", h.updateProfile)

		r.Post("/api/profile/email/request-otp", h.requestEmailOTP)
		r.Post("/api/profile/email/verify-otp", h.verifyEmailOTP)
		r.Post("/api/profile/phone/request-otp", h.requestPhoneOTP)
		r.Post("/api/profile/phone/verify-otp", h.verifyPhoneOTP)

		r.Get("/api/profile/addresses", h.listAddresses)
		r.Post("/api/profile/addresses", h.addAddress)
		r.Put("/api/profile/addresses/{id}", h.updateAddress)
		r.Delete("/api/profile/addresses/{id}", h.deleteAddress)
		r.Patch("/api/profile/addresses/{id}/default", h.setDefaultAddress)
	})
}

type authResp struct {
	Token string      `json:"token"`
	User  *users.User `json:"user"`
}

func (h *UsersHandler) register(w http.ResponseWriter, r *http.Request) {
	var in users.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := h.Service.Register(ctx, in)
	if err != nil {
		writeErr(w, err)
		return
	}
	token, err := auth.Sign(h.JWTSecret, u.ID, u.IsAdmin, h.JWTTTL)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResp{Token: token, User: u})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *UsersHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := h.Service.Login(ctx, req.Email, req.Password)
	if err != nil {
		writeErr(w, err)
		return
	}
	token, err := auth.Sign(h.JWTSecret, u.ID, u.IsAdmin, h.JWTTTL)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authResp{Token: token, User: u})
}

func (h *UsersHandler) profile(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	u, err := h.Service.Profile(ctx, id.UserID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type profileReq struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (h *UsersHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var req profileReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := h.Service.UpdateProfile(ctx, id.UserID, req.FirstName, req.LastName)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UsersHandler) requestEmailOTP(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var req struct {
		NewEmail string `json:"new_email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.Service.RequestEmailOTP(ctx, id.UserID, req.NewEmail); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Verification code sent to your new email"})
}

func (h *UsersHandler) verifyEmailOTP(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var req struct {
		OTP string `json:"otp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := h.Service.VerifyEmailOTP(ctx, id.UserID, req.OTP)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Email updated successfully", "user": u})
}

func (h *UsersHandler) requestPhoneOTP(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var req struct {
		NewPhone string `json:"new_phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := h.Service.RequestPhoneOTP(ctx, id.UserID, req.NewPhone); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Verification code sent to your registered email"})
}

func (h *UsersHandler) verifyPhoneOTP(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var req struct {
		OTP string `json:"otp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	u, err := h.Service.VerifyPhoneOTP(ctx, id.UserID, req.OTP)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Phone number updated successfully", "user": u})
}

func (h *UsersHandler) listAddresses(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Service.ListAddresses(ctx, id.UserID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"addresses": list})
}

func (h *UsersHandler) addAddress(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var in users.AddressInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := h.Service.AddAddress(ctx, id.UserID, in)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Address added successfully", "addresses": list})
}

func (h *UsersHandler) updateAddress(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var in users.AddressUpdate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := h.Service.UpdateAddress(ctx, id.UserID, chi.URLParam(r, "id"), in)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Address updated successfully", "addresses": list})
}

func (h *UsersHandler) deleteAddress(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := h.Service.DeleteAddress(ctx, id.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Address deleted successfully", "addresses": list})
}

func (h *UsersHandler) setDefaultAddress(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := h.Service.SetDefaultAddress(ctx, id.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Default address updated", "addresses": list})
}
