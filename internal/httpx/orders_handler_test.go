package httpx_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-elite-store.git/internal/auth"
	"github.com/ariefcatur/go-elite-store.git/internal/catalog"
	"github.com/ariefcatur/go-elite-store.git/internal/httpx"
	"github.com/ariefcatur/go-elite-store.git/internal/inventory"
	"github.com/ariefcatur/go-elite-store.git/internal/orders"
	"github.com/ariefcatur/go-elite-store.git/internal/users"
)

var secret = []byte("handler-test-secret")

// shop is a self-contained in-memory backend for handler tests.
type shop struct {
	products map[string]*catalog.Product
	orders   map[string]*orders.Order
	users    map[string]*users.User
}

func (s *shop) Get(_ context.Context, id string) (*catalog.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *shop) Reserve(_ context.Context, id string, qty int) error {
	p, ok := s.products[id]
	if !ok {
		return inventory.ErrNotFound
	}
	if p.Stock < qty {
		return inventory.ErrOutOfStock
	}
	p.Stock -= qty
	return nil
}

func (s *shop) Release(_ context.Context, id string, qty int) error {
	p, ok := s.products[id]
	if !ok {
		return inventory.ErrNotFound
	}
	p.Stock += qty
	return nil
}

type orderStore shop

func (s *orderStore) Insert(_ context.Context, o *orders.Order) error {
	cp := *o
	s.orders[o.ID] = &cp
	return nil
}

func (s *orderStore) Get(_ context.Context, id string) (*orders.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, orders.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *orderStore) ListByUser(_ context.Context, userID string) ([]orders.Order, error) {
	var out []orders.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *orderStore) ListAll(_ context.Context) ([]orders.Order, error) {
	var out []orders.Order
	for _, o := range s.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (s *orderStore) Update(_ context.Context, o *orders.Order) error {
	if _, ok := s.orders[o.ID]; !ok {
		return orders.ErrNotFound
	}
	cp := *o
	s.orders[o.ID] = &cp
	return nil
}

type userStore shop

func (s *userStore) Create(_ context.Context, u *users.User) error { s.users[u.ID] = u; return nil }
func (s *userStore) GetByEmail(_ context.Context, email string) (*users.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, users.ErrNotFound
}
func (s *userStore) Get(_ context.Context, id string) (*users.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return u, nil
}
func (s *userStore) UpdateProfile(_ context.Context, u *users.User) error { return nil }
func (s *userStore) UpdateContact(_ context.Context, u *users.User) error { return nil }

func newTestServer(t *testing.T) (*httptest.Server, *shop) {
	t.Helper()

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	sh := &shop{
		products: map[string]*catalog.Product{
			"p1": {ID: "p1", Name: "Aurora Laptop", PriceCents: 129900, Stock: 5, Category: catalog.CategoryLaptops},
		},
		orders: map[string]*orders.Order{},
		users: map[string]*users.User{
			"u1": {ID: "u1", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
		},
	}

	svc := &orders.Service{
		Orders:   (*orderStore)(sh),
		Products: sh,
		Ledger:   sh,
		Log:      log,
	}
	h := &httpx.OrdersHandler{
		Service:     svc,
		Users:       (*userStore)(sh),
		ServiceName: "test",
		Log:         log,
	}

	r := httpx.NewRouter()
	h.Register(r, secret)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, sh
}

func token(t *testing.T, userID string, admin bool) string {
	t.Helper()
	tok, err := auth.Sign(secret, userID, admin, time.Hour)
	require.NoError(t, err)
	return tok
}

func do(t *testing.T, method, url, tok string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func checkoutBody() map[string]any {
	return map[string]any{
		"items":            []map[string]any{{"product_id": "p1", "qty": 2}},
		"payment_method":   "cod",
		"shipping_address": map[string]any{"full_name": "Ada L", "line1": "1 Main St", "city": "Graz", "zip": "8010", "country": "AT"},
		"subtotal_cents":   259800,
		"shipping_cents":   0,
		"total_cents":      259800,
	}
}

func TestCreateOrderEndpoint(t *testing.T) {
	srv, sh := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/orders", token(t, "u1", false), checkoutBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	o := decode[orders.Order](t, resp)
	assert.Equal(t, orders.StatusPending, o.Status)
	assert.Equal(t, "u1", o.UserID)
	assert.Equal(t, 3, sh.products["p1"].Stock)
}

func TestCreateOrderRequiresAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/orders", "", checkoutBody())
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateOrderOutOfStock(t *testing.T) {
	srv, sh := newTestServer(t)

	body := checkoutBody()
	body["items"] = []map[string]any{{"product_id": "p1", "qty": 99}}
	resp := do(t, http.MethodPost, srv.URL+"/api/orders", token(t, "u1", false), body)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	e := decode[map[string]string](t, resp)
	assert.Contains(t, e["error"], "Aurora Laptop")
	assert.Equal(t, 5, sh.products["p1"].Stock)
}

func TestCancelOrderEndpoint(t *testing.T) {
	srv, sh := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/orders", token(t, "u1", false), checkoutBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	o := decode[orders.Order](t, resp)

	resp = do(t, http.MethodPut, srv.URL+"/api/orders/"+o.ID+"/cancel", token(t, "u1", false), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode[struct {
		Message string       `json:"message"`
		Order   orders.Order `json:"order"`
	}](t, resp)
	assert.Contains(t, out.Message, "cancelled successfully")
	assert.Equal(t, orders.StatusCancelled, out.Order.Status)
	assert.Equal(t, 5, sh.products["p1"].Stock)
}

func TestCancelForeignOrderForbidden(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/orders", token(t, "u1", false), checkoutBody())
	o := decode[orders.Order](t, resp)

	resp = do(t, http.MethodPut, srv.URL+"/api/orders/"+o.ID+"/cancel", token(t, "u2", false), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestUpdateStatusAdminOnly(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/orders", token(t, "u1", false), checkoutBody())
	o := decode[orders.Order](t, resp)

	body := map[string]any{"status": "shipped", "tracking_number": "TRK-1"}
	resp = do(t, http.MethodPut, srv.URL+"/api/orders/"+o.ID+"/status", token(t, "u1", false), body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = do(t, http.MethodPut, srv.URL+"/api/orders/"+o.ID+"/status", token(t, "admin", true), body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[orders.Order](t, resp)
	assert.Equal(t, orders.StatusShipped, got.Status)
	assert.Equal(t, "TRK-1", got.TrackingNumber)
}

func TestInvoiceEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/orders", token(t, "u1", false), checkoutBody())
	o := decode[orders.Order](t, resp)

	resp = do(t, http.MethodGet, srv.URL+"/api/orders/"+o.ID+"/invoice", token(t, "u1", false), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))

	head := make([]byte, 4)
	_, err := io.ReadFull(resp.Body, head)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(head))
}

func TestGetOrderNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/api/orders/nope", token(t, "u1", false), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
