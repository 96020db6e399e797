// Package notify carries the fire-and-forget side effects of order
// creation: invoice rendering and the confirmation email. It runs behind
// the order.created topic so a mail outage can never fail a checkout.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/ariefcatur/go-elite-store.git/internal/invoice"
	kafkax "github.com/ariefcatur/go-elite-store.git/internal/kafka"
	"github.com/ariefcatur/go-elite-store.git/internal/orders"
	"github.com/ariefcatur/go-elite-store.git/internal/redisx"
	"github.com/ariefcatur/go-elite-store.git/internal/users"
)

type Service struct {
	Orders *orders.Repo
	Users  *users.Repo
	Mailer *Mailer
	Redis  *redis.Client
	Log    *logrus.Logger
}

// HandleOrderCreated is the consumer handler for order.created. It always
// returns nil for delivery problems on our side (mail, render): those are
// logged and the offset is committed, never retried into the customer's
// inbox twice.
func (s *Service) HandleOrderCreated(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		s.Log.WithError(err).Warn("bad event envelope, skipping")
		return nil
	}
	if env.EventType != orders.EventOrderCreated {
		return nil
	}

	// Dedup on event_id so a redelivered message does not send twice.
	dkey := fmt.Sprintf(redisx.KeyDedup, "notifier", env.EventID)
	if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
	if err != nil {
		s.Log.WithError(err).Warn("bad order.created payload, skipping")
		return nil
	}

	// Load fresh copies; the event is a thin pointer.
	o, err := s.Orders.Get(ctx, p.OrderID)
	if err != nil {
		return err // transient or ordering issue, let the consumer retry
	}
	u, err := s.Users.Get(ctx, o.UserID)
	if err != nil {
		return err
	}

	pdf, err := invoice.Render(o, u)
	if err != nil {
		s.Log.WithError(err).WithField("order_id", o.ID).Error("invoice render failed")
		return nil
	}
	if err := s.Mailer.SendOrderConfirmation(u, o, pdf); err != nil {
		s.Log.WithError(err).WithField("order_id", o.ID).Error("confirmation email failed")
		return nil
	}

	s.Log.WithFields(logrus.Fields{"order_id": o.ID, "email": u.Email}).Info("order confirmation sent")
	return nil
}
