package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/ariefcatur/go-elite-store.git/internal/auth"
	"github.com/ariefcatur/go-elite-store.git/internal/invoice"
	kafkax "github.com/ariefcatur/go-elite-store.git/internal/kafka"
	"github.com/ariefcatur/go-elite-store.git/internal/orders"
	"github.com/ariefcatur/go-elite-store.git/internal/redisx"
	"github.com/ariefcatur/go-elite-store.git/internal/users"
)

type OrdersHandler struct {
	Service *orders.Service
	Users   users.UserStore

	// One async producer per topic; nil producers are skipped so tests can
	// run without a broker.
	ProducerCreated   *kafkax.Producer
	ProducerCancelled *kafkax.Producer
	ProducerStatus    *kafkax.Producer

	Redis       *redis.Client
	ServiceName string
	Log         *logrus.Logger
}

func (h *OrdersHandler) Register(r chi.Router, jwtSecret []byte) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Use(auth.Middleware(jwtSecret))
		r.Post("/", h.create)
		r.Get("/my-orders", h.myOrders)
		r.Get("/{id}", h.get)
		r.Get("/{id}/invoice", h.invoicePDF)
		r.Put("/{id}/cancel", h.cancel)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Get("/", h.listAll)
			r.Put("/{id}/status", h.updateStatus)
		})
	})
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var in orders.CheckoutInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	in.UserID = id.UserID

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Optional idempotency shortcut: a retried checkout with the same key
	// returns the order it already created.
	idemKey := ""
	if k := r.Header.Get("Idempotency-Key"); k != "" && h.Redis != nil {
		idemKey = fmt.Sprintf(redisx.KeyIdemCheckout, id.UserID, k)
		if orderID, err := h.Redis.Get(ctx, idemKey).Result(); err == nil && orderID != "" {
			if o, err := h.Service.Get(ctx, orderID, id.UserID, id.IsAdmin); err == nil {
				writeJSON(w, http.StatusOK, o)
				return
			}
		}
	}

	o, err := h.Service.Checkout(ctx, in)
	if err != nil {
		writeErr(w, err)
		return
	}

	if idemKey != "" {
		_ = h.Redis.Set(ctx, idemKey, o.ID, redisx.TTLIdempotency).Err()
	}
	h.cacheOrder(ctx, o)

	h.publish(h.ProducerCreated, orders.EventOrderCreated, o.ID, r.Header.Get("X-Request-Id"),
		orders.OrderCreatedPayload{OrderID: o.ID, UserID: o.UserID, TotalCents: o.TotalCents})

	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) myOrders(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Service.ListByUser(ctx, id.UserID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *OrdersHandler) listAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Service.ListAll(ctx)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// Cache first; ownership still has to hold for the cached copy.
	key := fmt.Sprintf(redisx.KeyOrder, orderID)
	if s, err := h.cachedOrder(ctx, key); err == nil && s != "" {
		var o orders.Order
		if json.Unmarshal([]byte(s), &o) == nil {
			if o.UserID != id.UserID && !id.IsAdmin {
				writeErr(w, orders.ErrForbidden)
				return
			}
			writeJSON(w, http.StatusOK, &o)
			return
		}
	}

	o, err := h.Service.Get(ctx, orderID, id.UserID, id.IsAdmin)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.cacheOrder(ctx, o)
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) invoicePDF(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Service.Get(ctx, orderID, id.UserID, id.IsAdmin)
	if err != nil {
		writeErr(w, err)
		return
	}
	u, err := h.Users.Get(ctx, o.UserID)
	if err != nil {
		writeErr(w, err)
		return
	}
	pdf, err := invoice.Render(o, u)
	if err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="invoice-%s.pdf"`, o.ID))
	_, _ = w.Write(pdf)
}

type updateStatusReq struct {
	Status         orders.Status `json:"status"`
	TrackingNumber string        `json:"tracking_number"`
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	var req updateStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Service.UpdateStatus(ctx, orderID, req.Status, req.TrackingNumber)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.cacheOrder(ctx, o)

	h.publish(h.ProducerStatus, orders.EventStatusChanged, o.ID, r.Header.Get("X-Request-Id"),
		orders.StatusChangedPayload{OrderID: o.ID, Status: o.Status})

	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) cancel(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	orderID := chi.URLParam(r, "id")

	// Body is optional; an empty reason is fine.
	var req struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, msg, err := h.Service.Cancel(ctx, orderID, id.UserID, req.Reason)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.cacheOrder(ctx, o)

	h.publish(h.ProducerCancelled, orders.EventOrderCancelled, o.ID, r.Header.Get("X-Request-Id"),
		orders.OrderCancelledPayload{OrderID: o.ID, UserID: o.UserID, Refunded: o.PaymentStatus == orders.PaymentRefunded})

	writeJSON(w, http.StatusOK, map[string]any{"message": msg, "order": o})
}

func (h *OrdersHandler) cachedOrder(ctx context.Context, key string) (string, error) {
	if h.Redis == nil {
		return "", redis.Nil
	}
	return h.Redis.Get(ctx, key).Result()
}

func (h *OrdersHandler) cacheOrder(ctx context.Context, o *orders.Order) {
	if h.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrder, o.ID)
	_ = h.Redis.Set(ctx, key, kafkax.MustMarshal(o), redisx.TTLOrderCache).Err()
}

func (h *OrdersHandler) publish(p *kafkax.Producer, eventType, orderID, traceID string, payload any) {
	if p == nil {
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.ServiceName,
		TraceID:       traceID,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
