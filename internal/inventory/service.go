package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkax "github.com/ariefcatur/go-repair-shop/internal/kafka"
	"github.com/ariefcatur/go-repair-shop/internal/redisx"
	"github.com/ariefcatur/go-repair-shop/internal/repairs"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Store interface {
	MarkSeen(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}

// Invalidator drops the cached optimization ranking.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type Service struct {
	Store       Store
	Ranking     Invalidator
	ServiceName string
	Log         *zap.Logger
}

var watched = map[string]bool{
	repairs.EventPartStockChanged:   true,
	repairs.EventOrderStatusChanged: true,
}

// HandleChange is installed as the consumer handler for stock and status
// change topics. Any such change makes the cached ranking stale.
func (s *Service) HandleChange(ctx context.Context, m kafkago.Message) error {
	var env repairs.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// poison message: log and let the offset move on
		s.log().Warn("undecodable event", zap.String("topic", m.Topic), zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}
	if !watched[env.EventType] {
		return nil
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	first, err := s.Store.MarkSeen(ctx, dkey, redisx.TTLDedup)
	if err != nil {
		return fmt.Errorf("dedup %s: %w", env.EventID, err)
	}
	if !first {
		return nil
	}

	if err := s.Ranking.Invalidate(ctx); err != nil {
		// forget the event so the redelivery is not deduplicated away
		_ = s.Store.Delete(ctx, dkey)
		return fmt.Errorf("invalidate ranking: %w", err)
	}
	s.log().Info("ranking invalidated",
		zap.String("event_type", env.EventType),
		zap.String("event_id", env.EventID),
		zap.String("aggregate_id", aggregateID(env)))
	return nil
}

// aggregateID names the part or order an event is about, for logging only.
func aggregateID(env repairs.Envelope) string {
	switch env.EventType {
	case repairs.EventPartStockChanged:
		if p, err := kafkax.UnwrapPayload[repairs.PartStockChangedPayload](env.Payload); err == nil {
			return p.PartID
		}
	case repairs.EventOrderStatusChanged:
		if p, err := kafkax.UnwrapPayload[repairs.OrderStatusChangedPayload](env.Payload); err == nil {
			return p.RepairOrderID
		}
	}
	return env.CorrelationID
}

func (s *Service) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
