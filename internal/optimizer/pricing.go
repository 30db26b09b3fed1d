package optimizer

import (
	"github.com/ariefcatur/go-repair-shop/internal/repairs"
	"github.com/shopspring/decimal"
)

const centsPlaces = 2

// priceBook holds unit cost and final price per part for one pass.
type priceBook map[string]repairs.Part

func newPriceBook(parts []repairs.Part) priceBook {
	b := make(priceBook, len(parts))
	for _, p := range parts {
		b[p.ID] = p
	}
	return b
}

// quote returns the order's total repair cost (labor plus parts at final
// price) and its expected profit (labor plus per-unit margin), both rounded
// to cents. A line item whose part is not in the book is a
// *repairs.MissingPartError for both amounts.
func (b priceBook) quote(o repairs.RepairOrder) (total, profit decimal.Decimal, err error) {
	partsTotal := decimal.Zero
	margin := decimal.Zero
	for _, it := range o.Parts {
		p, ok := b[it.PartID]
		if !ok {
			return decimal.Zero, decimal.Zero, &repairs.MissingPartError{OrderID: o.ID, PartID: it.PartID}
		}
		qty := decimal.NewFromInt(int64(it.Quantity))
		partsTotal = partsTotal.Add(p.FinalPrice.Mul(qty))
		margin = margin.Add(p.FinalPrice.Sub(p.Cost).Mul(qty))
	}
	total = o.LaborCost.Add(partsTotal).Round(centsPlaces)
	profit = margin.Add(o.LaborCost).Round(centsPlaces)
	return total, profit, nil
}
