package optimizer

import (
	"testing"

	"github.com/ariefcatur/go-repair-shop/internal/repairs"
	"github.com/stretchr/testify/assert"
)

func TestStockSnapshotFulfillable(t *testing.T) {
	snap := NewStockSnapshot([]repairs.Part{
		{ID: "filter", StockQuantity: 5},
		{ID: "oil", StockQuantity: 0},
	})

	tests := []struct {
		name  string
		items []repairs.PartUsage
		want  bool
	}{
		{name: "exact stock", items: []repairs.PartUsage{{PartID: "filter", Quantity: 5}}, want: true},
		{name: "more than stock", items: []repairs.PartUsage{{PartID: "filter", Quantity: 6}}, want: false},
		{name: "one item short", items: []repairs.PartUsage{{PartID: "filter", Quantity: 1}, {PartID: "oil", Quantity: 1}}, want: false},
		{name: "unknown part reads as zero", items: []repairs.PartUsage{{PartID: "belt", Quantity: 1}}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, snap.Fulfillable(tt.items))
		})
	}
	assert.Equal(t, StockSnapshot{"filter": 5, "oil": 0}, snap, "checks must not mutate the snapshot")
}

func TestStockSnapshotReserve(t *testing.T) {
	snap := NewStockSnapshot([]repairs.Part{{ID: "filter", StockQuantity: 5}, {ID: "oil", StockQuantity: 3}})

	snap.Reserve([]repairs.PartUsage{{PartID: "filter", Quantity: 2}, {PartID: "oil", Quantity: 3}})

	assert.Equal(t, 3, snap["filter"])
	assert.Equal(t, 0, snap["oil"])
	assert.False(t, snap.Fulfillable([]repairs.PartUsage{{PartID: "oil", Quantity: 1}}))
	assert.True(t, snap.Fulfillable([]repairs.PartUsage{{PartID: "filter", Quantity: 3}}))
}
