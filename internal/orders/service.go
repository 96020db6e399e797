package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ariefcatur/go-elite-store.git/internal/catalog"
	"github.com/ariefcatur/go-elite-store.git/internal/inventory"
)

// Store is the order persistence contract. Orders are never deleted;
// cancellation is a status, not a removal.
type Store interface {
	Insert(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	Update(ctx context.Context, o *Order) error
}

// ProductFinder is the read-only slice of the catalog the lifecycle needs.
type ProductFinder interface {
	Get(ctx context.Context, id string) (*catalog.Product, error)
}

type Service struct {
	Orders   Store
	Products ProductFinder
	Ledger   inventory.Ledger
	Log      *logrus.Logger
}

type CheckoutItem struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

// CheckoutInput carries the client-computed money fields verbatim. The
// server re-validates availability but does not recompute pricing; the
// stored totals are whatever the client sent. Known integrity gap kept for
// compatibility with the existing clients.
type CheckoutInput struct {
	UserID          string          `json:"-"`
	Items           []CheckoutItem  `json:"items"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	SubtotalCents   int             `json:"subtotal_cents"`
	TaxCents        int             `json:"tax_cents"`
	ShippingCents   int             `json:"shipping_cents"`
	TotalCents      int             `json:"total_cents"`
}

// Checkout validates availability, snapshots the line items, reserves
// stock and creates the pending order. A reserve failure part-way in
// releases what this checkout already took, so a failed checkout leaves
// every referenced product's stock unchanged.
func (s *Service) Checkout(ctx context.Context, in CheckoutInput) (*Order, error) {
	if len(in.Items) == 0 {
		return nil, &ValidationError{Reason: "no order items"}
	}
	if !in.PaymentMethod.Valid() {
		return nil, &ValidationError{Reason: "unknown payment method"}
	}

	// Availability pass: resolve every product and snapshot name/price
	// before any mutation. The authoritative stock check happens again
	// inside Ledger.Reserve; this pass exists to reject early with a
	// message naming the product.
	items := make([]LineItem, 0, len(in.Items))
	for _, it := range in.Items {
		if it.Qty < 1 {
			return nil, &ValidationError{Reason: "item quantity must be at least 1"}
		}
		p, err := s.Products.Get(ctx, it.ProductID)
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, &ProductNotFoundError{ProductID: it.ProductID}
		}
		if err != nil {
			return nil, err
		}
		if p.Stock < it.Qty {
			return nil, &InsufficientStockError{Name: p.Name}
		}
		items = append(items, LineItem{
			ProductID:      p.ID,
			Name:           p.Name,
			Qty:            it.Qty,
			UnitPriceCents: p.PriceCents,
		})
	}

	// Reserve with compensation: a failure on item i releases items [0,i).
	for i, it := range items {
		if err := s.Ledger.Reserve(ctx, it.ProductID, it.Qty); err != nil {
			s.releaseItems(ctx, items[:i])
			switch {
			case errors.Is(err, inventory.ErrNotFound):
				return nil, &ProductNotFoundError{ProductID: it.ProductID}
			case errors.Is(err, inventory.ErrOutOfStock):
				return nil, &InsufficientStockError{Name: it.Name}
			}
			return nil, err
		}
	}

	now := time.Now().UTC()
	o := &Order{
		ID:              uuid.NewString(),
		UserID:          in.UserID,
		Items:           items,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		PaymentStatus:   PaymentCompleted,
		Status:          StatusPending,
		SubtotalCents:   in.SubtotalCents,
		TaxCents:        in.TaxCents,
		ShippingCents:   in.ShippingCents,
		TotalCents:      in.TotalCents,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if in.PaymentMethod == PaymentCOD {
		// COD settles at the door.
		o.PaymentStatus = PaymentPending
	}

	if err := s.Orders.Insert(ctx, o); err != nil {
		s.releaseItems(ctx, items)
		return nil, err
	}
	return o, nil
}

// Get returns the order to its owner or to fulfillment staff.
func (s *Service) Get(ctx context.Context, orderID, requesterID string, isAdmin bool) (*Order, error) {
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != requesterID && !isAdmin {
		return nil, ErrForbidden
	}
	return o, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return s.Orders.ListByUser(ctx, userID)
}

func (s *Service) ListAll(ctx context.Context) ([]Order, error) {
	return s.Orders.ListAll(ctx)
}

// UpdateStatus is the fulfillment path. Any valid target overwrites the
// current status; delivered and cancelled carry side effects.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, target Status, trackingNumber string) (*Order, error) {
	if !target.Valid() {
		return nil, &InvalidTransitionError{Reason: "unknown status: " + string(target)}
	}
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	switch target {
	case StatusDelivered:
		o.DeliveredAt = &now
		o.PaymentStatus = PaymentCompleted
	case StatusCancelled:
		if !CanCancel(o.Status, ActorAdmin) {
			return nil, &InvalidTransitionError{Reason: "order is already finalized and cannot be cancelled"}
		}
		o.CancelledAt = &now
		s.releaseItems(ctx, o.Items)
	}

	o.Status = target
	if trackingNumber != "" {
		o.TrackingNumber = trackingNumber
	}
	o.UpdatedAt = now
	if err := s.Orders.Update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// Cancel is the customer path, stricter than UpdateStatus: only the owner,
// and only before shipment.
func (s *Service) Cancel(ctx context.Context, orderID, requesterID, reason string) (*Order, string, error) {
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, "", err
	}
	if o.UserID != requesterID {
		return nil, "", ErrForbidden
	}
	if !CanCancel(o.Status, ActorCustomer) {
		if o.Status == StatusShipped || o.Status == StatusDelivered {
			return nil, "", &InvalidTransitionError{Reason: "cannot cancel shipped or delivered orders"}
		}
		return nil, "", &InvalidTransitionError{Reason: "cannot cancel this order"}
	}

	now := time.Now().UTC()
	o.Status = StatusCancelled
	o.CancelReason = reason
	o.CancelledAt = &now
	o.UpdatedAt = now

	msg := "Order cancelled successfully"
	if o.PaymentMethod == PaymentPrepaid {
		o.PaymentStatus = PaymentRefunded
		msg = "Order cancelled. Refund will be processed within 5-7 business days."
	}

	s.releaseItems(ctx, o.Items)

	if err := s.Orders.Update(ctx, o); err != nil {
		return nil, "", err
	}
	return o, msg, nil
}

// releaseItems returns snapshot quantities to stock. Quantities come from
// the order's line items, never from a re-read of the product, so the
// release always mirrors the original reservation. Individual failures are
// logged and skipped: a product deleted since purchase must not block the
// cancellation itself.
func (s *Service) releaseItems(ctx context.Context, items []LineItem) {
	for _, it := range items {
		if err := s.Ledger.Release(ctx, it.ProductID, it.Qty); err != nil {
			s.Log.WithError(err).WithField("product_id", it.ProductID).Warn("stock release failed")
		}
	}
}
