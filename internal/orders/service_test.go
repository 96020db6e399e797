package orders_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-elite-store.git/internal/catalog"
	"github.com/ariefcatur/go-elite-store.git/internal/inventory"
	"github.com/ariefcatur/go-elite-store.git/internal/orders"
)

// fixture backs both the product finder and the stock ledger with one map,
// the way the real implementations share the products table.
type fixture struct {
	products map[string]*catalog.Product
}

func (f *fixture) Get(_ context.Context, id string) (*catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fixture) Reserve(_ context.Context, id string, qty int) error {
	p, ok := f.products[id]
	if !ok {
		return inventory.ErrNotFound
	}
	if p.Stock < qty {
		return inventory.ErrOutOfStock
	}
	p.Stock -= qty
	return nil
}

func (f *fixture) Release(_ context.Context, id string, qty int) error {
	p, ok := f.products[id]
	if !ok {
		return inventory.ErrNotFound
	}
	p.Stock += qty
	return nil
}

// failLedger passes through until the marked product is reserved, to
// simulate the stock vanishing between the availability pass and the
// reservation.
type failLedger struct {
	inner  inventory.Ledger
	failID string
}

func (l *failLedger) Reserve(ctx context.Context, id string, qty int) error {
	if id == l.failID {
		return inventory.ErrOutOfStock
	}
	return l.inner.Reserve(ctx, id, qty)
}

func (l *failLedger) Release(ctx context.Context, id string, qty int) error {
	return l.inner.Release(ctx, id, qty)
}

type memStore struct {
	orders    map[string]*orders.Order
	insertErr error
}

func newMemStore() *memStore { return &memStore{orders: map[string]*orders.Order{}} }

func clone(o *orders.Order) *orders.Order {
	cp := *o
	cp.Items = append([]orders.LineItem(nil), o.Items...)
	return &cp
}

func (s *memStore) Insert(_ context.Context, o *orders.Order) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.orders[o.ID] = clone(o)
	return nil
}

func (s *memStore) Get(_ context.Context, id string) (*orders.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, orders.ErrNotFound
	}
	return clone(o), nil
}

func (s *memStore) ListByUser(_ context.Context, userID string) ([]orders.Order, error) {
	var out []orders.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, *clone(o))
		}
	}
	return out, nil
}

func (s *memStore) ListAll(_ context.Context) ([]orders.Order, error) {
	var out []orders.Order
	for _, o := range s.orders {
		out = append(out, *clone(o))
	}
	return out, nil
}

func (s *memStore) Update(_ context.Context, o *orders.Order) error {
	if _, ok := s.orders[o.ID]; !ok {
		return orders.ErrNotFound
	}
	s.orders[o.ID] = clone(o)
	return nil
}

func newFixture() *fixture {
	return &fixture{products: map[string]*catalog.Product{
		"p1": {ID: "p1", Name: "Aurora Laptop", PriceCents: 129900, Stock: 5, Category: catalog.CategoryLaptops},
		"p2": {ID: "p2", Name: "Nimbus Phone", PriceCents: 69900, Stock: 3, Category: catalog.CategoryPhones},
	}}
}

func newService(f *fixture, store orders.Store) *orders.Service {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return &orders.Service{Orders: store, Products: f, Ledger: f, Log: log}
}

func checkoutInput(method orders.PaymentMethod, items ...orders.CheckoutItem) orders.CheckoutInput {
	return orders.CheckoutInput{
		UserID:          "u1",
		Items:           items,
		ShippingAddress: orders.ShippingAddress{FullName: "Ada L", Line1: "1 Main St", City: "Graz", Zip: "8010", Country: "AT"},
		PaymentMethod:   method,
		SubtotalCents:   199800,
		TaxCents:        0,
		ShippingCents:   500,
		TotalCents:      200300,
	}
}

func TestCheckoutSuccess(t *testing.T) {
	f := newFixture()
	svc := newService(f, newMemStore())

	o, err := svc.Checkout(context.Background(), checkoutInput(orders.PaymentCOD,
		orders.CheckoutItem{ProductID: "p1", Qty: 2},
		orders.CheckoutItem{ProductID: "p2", Qty: 1},
	))
	require.NoError(t, err)

	assert.Equal(t, orders.StatusPending, o.Status)
	assert.Equal(t, orders.PaymentPending, o.PaymentStatus)
	assert.Equal(t, 3, f.products["p1"].Stock)
	assert.Equal(t, 2, f.products["p2"].Stock)

	// line items are snapshots of the product at purchase time
	require.Len(t, o.Items, 2)
	assert.Equal(t, "Aurora Laptop", o.Items[0].Name)
	assert.Equal(t, 129900, o.Items[0].UnitPriceCents)
	assert.Equal(t, 2, o.Items[0].Qty)

	// money fields stored verbatim from the client
	assert.Equal(t, 200300, o.TotalCents)
}

func TestCheckoutPrepaidSettlesImmediately(t *testing.T) {
	f := newFixture()
	svc := newService(f, newMemStore())

	o, err := svc.Checkout(context.Background(), checkoutInput(orders.PaymentPrepaid,
		orders.CheckoutItem{ProductID: "p1", Qty: 1}))
	require.NoError(t, err)
	assert.Equal(t, orders.PaymentCompleted, o.PaymentStatus)
}

func TestCheckoutUnknownProduct(t *testing.T) {
	f := newFixture()
	svc := newService(f, newMemStore())

	_, err := svc.Checkout(context.Background(), checkoutInput(orders.PaymentCOD,
		orders.CheckoutItem{ProductID: "p1", Qty: 1},
		orders.CheckoutItem{ProductID: "ghost", Qty: 1},
	))
	var nf *orders.ProductNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "ghost", nf.ProductID)
	assert.Equal(t, 5, f.products["p1"].Stock, "no partial reservation may survive")
}

func TestCheckoutInsufficientStock(t *testing.T) {
	f := newFixture()
	svc := newService(f, newMemStore())

	_, err := svc.Checkout(context.Background(), checkoutInput(orders.PaymentCOD,
		orders.CheckoutItem{ProductID: "p1", Qty: 2},
		orders.CheckoutItem{ProductID: "p2", Qty: 4},
	))
	var is *orders.InsufficientStockError
	require.ErrorAs(t, err, &is)
	assert.Contains(t, is.Error(), "Nimbus Phone")
	assert.Equal(t, 5, f.products["p1"].Stock)
	assert.Equal(t, 3, f.products["p2"].Stock)
}

func TestCheckoutReserveRaceCompensates(t *testing.T) {
	f := newFixture()
	svc := newService(f, newMemStore())
	// p2 sells out after the availability pass
	svc.Ledger = &failLedger{inner: f, failID: "p2"}

	_, err := svc.Checkout(context.Background(), checkoutInput(orders.PaymentCOD,
		orders.CheckoutItem{ProductID: "p1", Qty: 2},
		orders.CheckoutItem{ProductID: "p2", Qty: 1},
	))
	var is *orders.InsufficientStockError
	require.ErrorAs(t, err, &is)
	assert.Equal(t, 5, f.products["p1"].Stock, "reserved units must be released on abort")
}

func TestCheckoutInsertFailureReleases(t *testing.T) {
	f := newFixture()
	store := newMemStore()
	store.insertErr = errors.New("db down")
	svc := newService(f, store)

	_, err := svc.Checkout(context.Background(), checkoutInput(orders.PaymentCOD,
		orders.CheckoutItem{ProductID: "p1", Qty: 2}))
	require.Error(t, err)
	assert.Equal(t, 5, f.products["p1"].Stock)
}

func TestCheckoutValidation(t *testing.T) {
	f := newFixture()
	svc := newService(f, newMemStore())

	var ve *orders.ValidationError
	_, err := svc.Checkout(context.Background(), checkoutInput(orders.PaymentCOD))
	require.ErrorAs(t, err, &ve)

	_, err = svc.Checkout(context.Background(), checkoutInput("paypal",
		orders.CheckoutItem{ProductID: "p1", Qty: 1}))
	require.ErrorAs(t, err, &ve)

	_, err = svc.Checkout(context.Background(), checkoutInput(orders.PaymentCOD,
		orders.CheckoutItem{ProductID: "p1", Qty: 0}))
	require.ErrorAs(t, err, &ve)
}

func mustCheckout(t *testing.T, svc *orders.Service, method orders.PaymentMethod) *orders.Order {
	t.Helper()
	o, err := svc.Checkout(context.Background(), checkoutInput(method,
		orders.CheckoutItem{ProductID: "p1", Qty: 2}))
	require.NoError(t, err)
	return o
}

func TestCancelPendingCOD(t *testing.T) {
	f := newFixture()
	svc := newService(f, newMemStore())
	o := mustCheckout(t, svc, orders.PaymentCOD)
	require.Equal(t, 3, f.products["p1"].Stock)

	got, msg, err := svc.Cancel(context.Background(), o.ID, "u1", "ordered by mistake")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCancelled, got.Status)
	assert.Equal(t, orders.PaymentPending, got.PaymentStatus)
	assert.Equal(t, "ordered by mistake", got.CancelReason)
	assert.NotNil(t, got.CancelledAt)
	assert.Contains(t, msg, "cancelled successfully")
	assert.Equal(t, 5, f.products["p1"].Stock)
}

func TestCancelPendingPrepaid(t *testing.T) {
	f := newFixture()
	svc := newService(f, newMemStore())
	o := mustCheckout(t, svc, orders.PaymentPrepaid)

	got, msg, err := svc.Cancel(context.Background(), o.ID, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCancelled, got.Status)
	assert.Equal(t, orders.PaymentRefunded, got.PaymentStatus)
	assert.Contains(t, msg, "5-7 business days")
	assert.Equal(t, 5, f.products["p1"].Stock)
}

func TestCancelShippedRejected(t *testing.T) {
	for _, method := range []orders.PaymentMethod{orders.PaymentCOD, orders.PaymentPrepaid} {
		f := newFixture()
		svc := newService(f, newMemStore())
		o := mustCheckout(t, svc, method)

		_, err := svc.UpdateStatus(context.Background(), o.ID, orders.StatusShipped, "TRK-1")
		require.NoError(t, err)

		var it *orders.InvalidTransitionError
		_, _, err = svc.Cancel(context.Background(), o.ID, "u1", "")
		require.ErrorAsf(t, err, &it, "method=%s", method)
		assert.Equal(t, 3, f.products["p1"].Stock, "rejected cancel must not touch stock")
	}
}

func TestCancelNotOwner(t *testing.T) {
	f := newFixture()
	svc := newService(f, newMemStore())
	o := mustCheckout(t, svc, orders.PaymentCOD)

	_, _, err := svc.Cancel(context.Background(), o.ID, "intruder", "")
	require.ErrorIs(t, err, orders.ErrForbidden)
}

func TestCancelMissingOrder(t *testing.T) {
	f := newFixture()
	svc := newService(f, newMemStore())

	_, _, err := svc.Cancel(context.Background(), "nope", "u1", "")
	require.ErrorIs(t, err, orders.ErrNotFound)
}

func TestCancelTwiceDoesNotReleaseTwice(t *testing.T) {
	f := newFixture()
	svc := newService(f, newMemStore())
	o := mustCheckout(t, svc, orders.PaymentCOD)

	_, _, err := svc.Cancel(context.Background(), o.ID, "u1", "")
	require.NoError(t, err)
	require.Equal(t, 5, f.products["p1"].Stock)

	var it *orders.InvalidTransitionError
	_, _, err = svc.Cancel(context.Background(), o.ID, "u1", "")
	require.ErrorAs(t, err, &it)
	assert.Equal(t, 5, f.products["p1"].Stock)
}

func TestAdminForceCancelProcessing(t *testing.T) {
	for _, method := range []orders.PaymentMethod{orders.PaymentCOD, orders.PaymentPrepaid} {
		f := newFixture()
		svc := newService(f, newMemStore())
		o := mustCheckout(t, svc, method)

		_, err := svc.UpdateStatus(context.Background(), o.ID, orders.StatusProcessing, "")
		require.NoError(t, err)

		got, err := svc.UpdateStatus(context.Background(), o.ID, orders.StatusCancelled, "")
		require.NoError(t, err)
		assert.Equal(t, orders.StatusCancelled, got.Status)
		assert.NotNil(t, got.CancelledAt)
		assert.Equalf(t, 5, f.products["p1"].Stock, "method=%s", method)
	}
}

func TestAdminForceCancelShipped(t *testing.T) {
	f := newFixture()
	svc := newService(f, newMemStore())
	o := mustCheckout(t, svc, orders.PaymentPrepaid)

	_, err := svc.UpdateStatus(context.Background(), o.ID, orders.StatusShipped, "TRK-9")
	require.NoError(t, err)

	got, err := svc.UpdateStatus(context.Background(), o.ID, orders.StatusCancelled, "")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCancelled, got.Status)
	assert.Equal(t, 5, f.products["p1"].Stock)
}

func TestAdminCancelFinalizedRejected(t *testing.T) {
	f := newFixture()
	svc := newService(f, newMemStore())
	o := mustCheckout(t, svc, orders.PaymentCOD)

	_, err := svc.UpdateStatus(context.Background(), o.ID, orders.StatusDelivered, "")
	require.NoError(t, err)

	var it *orders.InvalidTransitionError
	_, err = svc.UpdateStatus(context.Background(), o.ID, orders.StatusCancelled, "")
	require.ErrorAs(t, err, &it)
	assert.Equal(t, 3, f.products["p1"].Stock, "delivered stock is gone, not releasable")
}

func TestAdminDelivered(t *testing.T) {
	f := newFixture()
	svc := newService(f, newMemStore())
	o := mustCheckout(t, svc, orders.PaymentCOD)

	got, err := svc.UpdateStatus(context.Background(), o.ID, orders.StatusDelivered, "")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusDelivered, got.Status)
	assert.Equal(t, orders.PaymentCompleted, got.PaymentStatus)
	assert.NotNil(t, got.DeliveredAt)
	assert.Equal(t, 3, f.products["p1"].Stock)
}

func TestAdminUnknownStatus(t *testing.T) {
	f := newFixture()
	svc := newService(f, newMemStore())
	o := mustCheckout(t, svc, orders.PaymentCOD)

	var it *orders.InvalidTransitionError
	_, err := svc.UpdateStatus(context.Background(), o.ID, "teleported", "")
	require.ErrorAs(t, err, &it)
}

func TestSnapshotSurvivesCatalogEdits(t *testing.T) {
	f := newFixture()
	svc := newService(f, newMemStore())
	o := mustCheckout(t, svc, orders.PaymentCOD)

	// an admin renames and reprices the product afterwards
	f.products["p1"].Name = "Aurora Laptop v2"
	f.products["p1"].PriceCents = 999900

	got, err := svc.Get(context.Background(), o.ID, "u1", false)
	require.NoError(t, err)
	assert.Equal(t, "Aurora Laptop", got.Items[0].Name)
	assert.Equal(t, 129900, got.Items[0].UnitPriceCents)

	// release still uses the snapshot quantity, not catalog state
	before := f.products["p1"].Stock
	_, _, err = svc.Cancel(context.Background(), o.ID, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, before+2, f.products["p1"].Stock)
}

func TestGetAuthz(t *testing.T) {
	f := newFixture()
	svc := newService(f, newMemStore())
	o := mustCheckout(t, svc, orders.PaymentCOD)

	_, err := svc.Get(context.Background(), o.ID, "u1", false)
	assert.NoError(t, err)

	_, err = svc.Get(context.Background(), o.ID, "someone-else", false)
	assert.ErrorIs(t, err, orders.ErrForbidden)

	_, err = svc.Get(context.Background(), o.ID, "someone-else", true)
	assert.NoError(t, err)
}

func TestListOrders(t *testing.T) {
	f := newFixture()
	svc := newService(f, newMemStore())

	_, err := svc.Checkout(context.Background(), checkoutInput(orders.PaymentCOD,
		orders.CheckoutItem{ProductID: "p1", Qty: 1}))
	require.NoError(t, err)

	in := checkoutInput(orders.PaymentCOD, orders.CheckoutItem{ProductID: "p2", Qty: 1})
	in.UserID = "u2"
	_, err = svc.Checkout(context.Background(), in)
	require.NoError(t, err)

	mine, err := svc.ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// The end-to-end example: one unit of stock, COD, cancel round-trip.
func TestLifecycleRoundTrip(t *testing.T) {
	f := &fixture{products: map[string]*catalog.Product{
		"solo": {ID: "solo", Name: "Last One", PriceCents: 5000, Stock: 1, Category: catalog.CategoryHome},
	}}
	svc := newService(f, newMemStore())

	in := checkoutInput(orders.PaymentCOD, orders.CheckoutItem{ProductID: "solo", Qty: 1})
	o, err := svc.Checkout(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPending, o.Status)
	assert.Equal(t, 0, f.products["solo"].Stock)

	// nobody else can grab the unit while it is held
	_, err = svc.Checkout(context.Background(), in)
	var is *orders.InsufficientStockError
	require.ErrorAs(t, err, &is)

	got, msg, err := svc.Cancel(context.Background(), o.ID, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCancelled, got.Status)
	assert.Contains(t, msg, "cancelled successfully")
	assert.Equal(t, 1, f.products["solo"].Stock)
}
