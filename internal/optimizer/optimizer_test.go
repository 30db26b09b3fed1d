package optimizer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ariefcatur/go-repair-shop/internal/repairs"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrders struct {
	orders []repairs.RepairOrder
	err    error
}

func (f *fakeOrders) ListPendingOrdersWithParts(context.Context) ([]repairs.RepairOrder, error) {
	return f.orders, f.err
}

type fakeParts struct {
	parts []repairs.Part
	err   error
	calls int
}

func (f *fakeParts) ListAllParts(context.Context) ([]repairs.Part, error) {
	f.calls++
	return f.parts, f.err
}

type recordingPublisher struct {
	messages []kafkago.Message
}

func (p *recordingPublisher) Publish(key, value []byte, headers ...kafkago.Header) {
	p.messages = append(p.messages, kafkago.Message{Key: key, Value: value, Headers: headers})
}

func part(id string, stock int, cost, price string) repairs.Part {
	return repairs.Part{ID: id, Name: id, StockQuantity: stock, Cost: dec(cost), FinalPrice: dec(price), IsActive: true}
}

func order(id, labor string, items ...repairs.PartUsage) repairs.RepairOrder {
	return repairs.RepairOrder{
		ID:        id,
		Status:    repairs.StatusPending,
		LaborCost: dec(labor),
		IsActive:  true,
		Parts:     items,
		Customer:  repairs.CustomerSummary{ID: "cust-1", Name: "John Doe"},
		Vehicle:   repairs.VehicleSummary{ID: "veh-1", LicensePlate: "ABC 123", Brand: "Toyota", Model: "Corolla", Year: 2020},
	}
}

func use(partID string, qty int) repairs.PartUsage {
	return repairs.PartUsage{PartID: partID, Quantity: qty, IsActive: true}
}

func ids(res []repairs.OptimizedOrder) []string {
	out := make([]string, 0, len(res))
	for _, r := range res {
		out = append(out, r.RepairOrderID)
	}
	return out
}

func TestSelectOrdersByProfit_SinglePartScenario(t *testing.T) {
	svc := NewService(
		&fakeOrders{orders: []repairs.RepairOrder{order("ro-1", "30", use("filter", 2))}},
		&fakeParts{parts: []repairs.Part{part("filter", 5, "20", "50")}},
		nil,
	)

	res, err := svc.SelectOrdersByProfit(context.Background())

	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "ro-1", res[0].RepairOrderID)
	assert.Equal(t, 90.0, res[0].ExpectedProfit)
	assert.Equal(t, 130.0, res[0].TotalCostRepair)
	assert.Equal(t, "John Doe", res[0].Customer.Name)
	assert.Equal(t, "ABC 123", res[0].Vehicle.LicensePlate)
}

func TestSelectOrdersByProfit_SortsByProfit(t *testing.T) {
	svc := NewService(
		&fakeOrders{orders: []repairs.RepairOrder{
			order("ro-b", "20", use("oil", 1)),
			order("ro-a", "50", use("filter", 2)),
		}},
		&fakeParts{parts: []repairs.Part{
			part("filter", 5, "20", "50"),
			part("oil", 10, "20", "60"),
		}},
		nil,
	)

	res, err := svc.SelectOrdersByProfit(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"ro-a", "ro-b"}, ids(res))
	assert.Equal(t, 110.0, res[0].ExpectedProfit)
	assert.Equal(t, 150.0, res[0].TotalCostRepair)
	assert.Equal(t, 60.0, res[1].ExpectedProfit)
	assert.Equal(t, 80.0, res[1].TotalCostRepair)
}

func TestSelectOrdersByProfit_RankingIsNonIncreasing(t *testing.T) {
	svc := NewService(
		&fakeOrders{orders: []repairs.RepairOrder{
			order("ro-1", "10", use("filter", 1)),
			order("ro-2", "200", use("oil", 2)),
			order("ro-3", "0", use("belt", 1)),
			order("ro-4", "75.5", use("filter", 1), use("belt", 2)),
			order("ro-5", "12.25", use("oil", 1)),
		}},
		&fakeParts{parts: []repairs.Part{
			part("filter", 10, "20", "50"),
			part("oil", 10, "20", "60"),
			part("belt", 10, "5", "9.99"),
		}},
		nil,
	)

	res, err := svc.SelectOrdersByProfit(context.Background())

	require.NoError(t, err)
	require.Len(t, res, 5)
	for i := 0; i+1 < len(res); i++ {
		assert.GreaterOrEqual(t, res[i].ExpectedProfit, res[i+1].ExpectedProfit)
	}
}

func TestSelectOrdersByProfit_TiesKeepIterationOrder(t *testing.T) {
	svc := NewService(
		&fakeOrders{orders: []repairs.RepairOrder{
			order("ro-1", "10", use("filter", 1)),
			order("ro-2", "10", use("filter", 1)),
			order("ro-3", "10", use("filter", 1)),
		}},
		&fakeParts{parts: []repairs.Part{part("filter", 10, "20", "50")}},
		nil,
	)

	res, err := svc.SelectOrdersByProfit(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"ro-1", "ro-2", "ro-3"}, ids(res))
}

func TestSelectOrdersByProfit_NoPendingOrders(t *testing.T) {
	parts := &fakeParts{parts: []repairs.Part{part("filter", 5, "20", "50")}}
	svc := NewService(&fakeOrders{}, parts, nil)

	res, err := svc.SelectOrdersByProfit(context.Background())

	require.ErrorIs(t, err, repairs.ErrNoAvailableOrders)
	assert.Nil(t, res)
	assert.Zero(t, parts.calls, "parts must not be loaded when there is nothing to optimize")
}

func TestSelectOrdersByProfit_StockExhaustedReturnsEmpty(t *testing.T) {
	svc := NewService(
		&fakeOrders{orders: []repairs.RepairOrder{order("ro-1", "50", use("filter", 1))}},
		&fakeParts{parts: []repairs.Part{part("filter", 0, "10", "40")}},
		nil,
	)

	res, err := svc.SelectOrdersByProfit(context.Background())

	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Empty(t, res)
}

func TestSelectOrdersByProfit_FirstComeReservation(t *testing.T) {
	svc := NewService(
		&fakeOrders{orders: []repairs.RepairOrder{
			order("ro-a", "10", use("filter", 1)),
			order("ro-b", "500", use("filter", 1)),
		}},
		&fakeParts{parts: []repairs.Part{part("filter", 1, "20", "50")}},
		nil,
	)

	res, err := svc.SelectOrdersByProfit(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"ro-a"}, ids(res), "the later order loses the last unit even if it is more profitable")
}

func TestSelectOrdersByProfit_ReservationsAccumulate(t *testing.T) {
	svc := NewService(
		&fakeOrders{orders: []repairs.RepairOrder{
			order("ro-1", "10", use("filter", 2)),
			order("ro-2", "20", use("filter", 2), use("oil", 1)),
			order("ro-3", "30", use("filter", 2)),
			order("ro-4", "40", use("oil", 1)),
			order("ro-5", "50", use("filter", 1)),
		}},
		&fakeParts{parts: []repairs.Part{
			part("filter", 5, "20", "50"),
			part("oil", 1, "20", "60"),
		}},
		nil,
	)

	res, err := svc.SelectOrdersByProfit(context.Background())

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ro-1", "ro-2", "ro-5"}, ids(res))
}

func TestSelectOrdersByProfit_InvalidDataAbortsPass(t *testing.T) {
	tests := []struct {
		name       string
		orders     []repairs.RepairOrder
		wantOrder  string
		wantReason string
	}{
		{
			name: "negative labor cost after valid orders",
			orders: []repairs.RepairOrder{
				order("ro-1", "30", use("filter", 1)),
				order("ro-2", "-1", use("filter", 1)),
				order("ro-3", "30", use("filter", 1)),
			},
			wantOrder:  "ro-2",
			wantReason: repairs.ReasonNegativeLaborCost,
		},
		{
			name: "negative labor cost on an unfulfillable order",
			orders: []repairs.RepairOrder{
				order("ro-1", "-1", use("filter", 99)),
			},
			wantOrder:  "ro-1",
			wantReason: repairs.ReasonNegativeLaborCost,
		},
		{
			name: "order without parts",
			orders: []repairs.RepairOrder{
				order("ro-1", "30", use("filter", 1)),
				order("ro-2", "30"),
			},
			wantOrder:  "ro-2",
			wantReason: repairs.ReasonNoParts,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &recordingPublisher{}
			svc := NewService(
				&fakeOrders{orders: tt.orders},
				&fakeParts{parts: []repairs.Part{part("filter", 10, "20", "50")}},
				nil,
			).WithPublisher(pub, "repair-api")

			res, err := svc.SelectOrdersByProfit(context.Background())

			require.ErrorIs(t, err, repairs.ErrInvalidOrderData)
			assert.Nil(t, res, "no partial results")
			var invalid *repairs.InvalidOrderDataError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.wantOrder, invalid.OrderID)
			assert.Equal(t, tt.wantReason, invalid.Reason)
			assert.Empty(t, pub.messages)
		})
	}
}

func TestSelectOrdersByProfit_MissingPartIsFault(t *testing.T) {
	// A zero-quantity line item passes the stock check even for an unknown part.
	svc := NewService(
		&fakeOrders{orders: []repairs.RepairOrder{order("ro-1", "30", use("filter", 1), use("ghost", 0))}},
		&fakeParts{parts: []repairs.Part{part("filter", 5, "20", "50")}},
		nil,
	)

	_, err := svc.SelectOrdersByProfit(context.Background())

	require.ErrorIs(t, err, repairs.ErrPartNotFound)
}

func TestSelectOrdersByProfit_RepositoryErrors(t *testing.T) {
	boom := errors.New("db down")

	_, err := NewService(&fakeOrders{err: boom}, &fakeParts{}, nil).SelectOrdersByProfit(context.Background())
	require.ErrorIs(t, err, boom)

	_, err = NewService(
		&fakeOrders{orders: []repairs.RepairOrder{order("ro-1", "30", use("filter", 1))}},
		&fakeParts{err: boom},
		nil,
	).SelectOrdersByProfit(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestSelectOrdersByProfit_PublishesPassSummary(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewService(
		&fakeOrders{orders: []repairs.RepairOrder{
			order("ro-b", "20", use("oil", 1)),
			order("ro-a", "50", use("filter", 2)),
			order("ro-c", "5", use("filter", 10)),
		}},
		&fakeParts{parts: []repairs.Part{
			part("filter", 5, "20", "50"),
			part("oil", 10, "20", "60"),
		}},
		nil,
	).WithPublisher(pub, "repair-api")

	_, err := svc.SelectOrdersByProfit(context.Background())
	require.NoError(t, err)
	require.Len(t, pub.messages, 1)

	var env repairs.Envelope
	require.NoError(t, json.Unmarshal(pub.messages[0].Value, &env))
	assert.Equal(t, repairs.EventOrdersOptimized, env.EventType)
	assert.Equal(t, "repair-api", env.Producer)
	assert.NotEmpty(t, env.EventID)

	var payload repairs.OrdersOptimizedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, 3, payload.PendingOrders)
	assert.Equal(t, 2, payload.AcceptedOrders)
	assert.Equal(t, 170.0, payload.TotalExpectedProfit)
	assert.Equal(t, "ro-a", payload.TopRepairOrderID)
	assert.Equal(t, payload.PassID, string(pub.messages[0].Key))
}
