package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ariefcatur/go-elite-store.git/internal/banners"
	"github.com/ariefcatur/go-elite-store.git/internal/catalog"
	"github.com/ariefcatur/go-elite-store.git/internal/orders"
	"github.com/ariefcatur/go-elite-store.git/internal/users"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps the domain error taxonomy onto status codes. Anything not
// in the taxonomy is a 500 with a generic body.
func writeErr(w http.ResponseWriter, err error) {
	var (
		notFoundProduct *orders.ProductNotFoundError
		outOfStock      *orders.InsufficientStockError
		badTransition   *orders.InvalidTransitionError
		badInput        *orders.ValidationError
		badUserInput    *users.ValidationError
	)
	switch {
	case errors.Is(err, orders.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, banners.ErrNotFound),
		errors.Is(err, users.ErrNotFound),
		errors.Is(err, users.ErrAddressNotFound),
		errors.As(err, &notFoundProduct):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.As(err, &outOfStock),
		errors.As(err, &badTransition),
		errors.As(err, &badInput),
		errors.As(err, &badUserInput),
		errors.Is(err, users.ErrInvalidOTP):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, orders.ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, users.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
	case errors.Is(err, users.ErrEmailTaken):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
