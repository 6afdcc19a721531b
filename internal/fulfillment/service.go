// Package fulfillment reacts to finalized orders: it caches the terminal
// status for fast receipt reads and notifies the pickup point for completed
// orders. Side channel only; the checkout transaction is already committed
// by the time anything lands here.
package fulfillment

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-storefront.git/internal/kafka"
	"github.com/ariefcatur/go-storefront.git/internal/orders"
	"github.com/ariefcatur/go-storefront.git/internal/redisx"
)

type Service struct {
	Redis       *redis.Client
	ServiceName string
}

// HandleOrderFinalized is wired as the consumer handler for order.finalized.
func (s *Service) HandleOrderFinalized(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderFinalized {
		return nil
	}

	// dedup by event_id; repeat deliveries are expected
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	p, err := kafkax.UnwrapPayload[orders.OrderFinalizedPayload](env.Payload)
	if err != nil {
		return err
	}

	skey := fmt.Sprintf(redisx.KeyOrderStatus, p.OrderID)
	body := kafkax.MustMarshal(map[string]any{"status": p.FinalStatus})
	_ = s.Redis.Set(ctx, skey, body, redisx.TTLStatusCache).Err()

	switch p.FinalStatus {
	case orders.StatusCompleted:
		log.Printf("order %s ready for pickup at %q", p.OrderID, p.PickupPoint)
	case orders.StatusInsufficientStock:
		log.Printf("order %s rejected on stock: %v", p.OrderID, p.Shortages)
	default:
		log.Printf("order %s finalized as %s", p.OrderID, p.FinalStatus)
	}
	return nil
}
