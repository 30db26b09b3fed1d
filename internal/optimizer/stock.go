package optimizer

import "github.com/ariefcatur/go-repair-shop/internal/repairs"

// StockSnapshot is the pass-local view of remaining quantity per part.
// Unknown part ids read as zero.
type StockSnapshot map[string]int

func NewStockSnapshot(parts []repairs.Part) StockSnapshot {
	s := make(StockSnapshot, len(parts))
	for _, p := range parts {
		s[p.ID] = p.StockQuantity
	}
	return s
}

// Fulfillable reports whether every line item can be covered by the
// remaining stock. It does not modify the snapshot.
func (s StockSnapshot) Fulfillable(items []repairs.PartUsage) bool {
	for _, it := range items {
		if s[it.PartID] < it.Quantity {
			return false
		}
	}
	return true
}

// Reserve takes the line items' quantities out of the snapshot so later
// orders of the same pass see reduced availability.
func (s StockSnapshot) Reserve(items []repairs.PartUsage) {
	for _, it := range items {
		s[it.PartID] -= it.Quantity
	}
}
