package optimizer

import (
	"context"
	"sort"
	"time"

	"github.com/ariefcatur/go-repair-shop/internal/kafka"
	"github.com/ariefcatur/go-repair-shop/internal/repairs"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type OrderLister interface {
	ListPendingOrdersWithParts(ctx context.Context) ([]repairs.RepairOrder, error)
}

type PartLister interface {
	ListAllParts(ctx context.Context) ([]repairs.Part, error)
}

// Selector is anything that can produce the ranked list of fulfillable
// orders.
type Selector interface {
	SelectOrdersByProfit(ctx context.Context) ([]repairs.OptimizedOrder, error)
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type Service struct {
	orders OrderLister
	parts  PartLister
	log    *zap.Logger

	publisher   Publisher
	serviceName string
}

func NewService(orders OrderLister, parts PartLister, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{orders: orders, parts: parts, log: log}
}

// WithPublisher makes every successful pass emit an OrdersOptimized event.
func (s *Service) WithPublisher(p Publisher, serviceName string) *Service {
	s.publisher = p
	s.serviceName = serviceName
	return s
}

// SelectOrdersByProfit walks the pending orders in repository order,
// reserving stock for each fulfillable one in a pass-local snapshot, and
// returns the accepted orders ranked by expected profit, highest first.
//
// A negative labor cost or an order without line items aborts the whole
// pass with *repairs.InvalidOrderDataError. Orders that cannot be covered by
// the remaining stock are skipped. The loop must stay sequential: each
// check observes the reservations of every order accepted before it.
func (s *Service) SelectOrdersByProfit(ctx context.Context) ([]repairs.OptimizedOrder, error) {
	orders, err := s.orders.ListPendingOrdersWithParts(ctx)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, repairs.ErrNoAvailableOrders
	}

	parts, err := s.parts.ListAllParts(ctx)
	if err != nil {
		return nil, err
	}
	stock := NewStockSnapshot(parts)
	prices := newPriceBook(parts)

	out := make([]repairs.OptimizedOrder, 0, len(orders))
	for _, o := range orders {
		if o.LaborCost.IsNegative() {
			return nil, &repairs.InvalidOrderDataError{OrderID: o.ID, Reason: repairs.ReasonNegativeLaborCost}
		}
		if len(o.Parts) == 0 {
			return nil, &repairs.InvalidOrderDataError{OrderID: o.ID, Reason: repairs.ReasonNoParts}
		}

		if !stock.Fulfillable(o.Parts) {
			s.log.Debug("order skipped, stock exhausted", zap.String("repair_order_id", o.ID))
			continue
		}

		total, profit, err := prices.quote(o)
		if err != nil {
			return nil, err
		}

		out = append(out, repairs.OptimizedOrder{
			RepairOrderID:   o.ID,
			Customer:        o.Customer,
			Vehicle:         o.Vehicle,
			TotalCostRepair: total.InexactFloat64(),
			ExpectedProfit:  profit.InexactFloat64(),
		})
		stock.Reserve(o.Parts)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ExpectedProfit > out[j].ExpectedProfit
	})

	s.log.Info("optimization pass done",
		zap.Int("pending_orders", len(orders)),
		zap.Int("accepted_orders", len(out)))
	s.announce(len(orders), out)
	return out, nil
}

func (s *Service) announce(pending int, ranked []repairs.OptimizedOrder) {
	if s.publisher == nil {
		return
	}
	payload := repairs.OrdersOptimizedPayload{
		PassID:         uuid.NewString(),
		PendingOrders:  pending,
		AcceptedOrders: len(ranked),
	}
	sum := decimal.Zero
	for _, r := range ranked {
		sum = sum.Add(decimal.NewFromFloat(r.ExpectedProfit))
	}
	payload.TotalExpectedProfit = sum.Round(centsPlaces).InexactFloat64()
	if len(ranked) > 0 {
		payload.TopRepairOrderID = ranked[0].RepairOrderID
	}

	ev := repairs.Envelope{
		EventID:       uuid.NewString(),
		EventType:     repairs.EventOrdersOptimized,
		EventVersion:  repairs.EventVersion,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.serviceName,
		CorrelationID: payload.PassID,
		Payload:       kafka.MustMarshal(payload),
	}
	s.publisher.Publish(repairs.PartitionKey(payload.PassID), kafka.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(repairs.EventOrdersOptimized)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
