package repairs

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Repo struct{ DB *pgxpool.Pool }

const selectOrdersWithParts = `
SELECT o.id::text, o.vehicle_id::text, o.customer_id::text, o.status, o.labor_cost,
       o.total_cost_repair, o.is_active, o.date_in, o.date_expected_out, o.date_out,
       o.created_at, o.updated_at,
       c.name, COALESCE(c.email, ''), COALESCE(c.phone, ''),
       v.license_plate, v.brand, v.model, v.year,
       rp.id::text, rp.part_id::text, rp.quantity
FROM repair_orders o
JOIN customers c ON c.id = o.customer_id
JOIN vehicles v ON v.id = o.vehicle_id
LEFT JOIN repair_order_parts rp ON rp.repair_order_id = o.id AND rp.is_active`

// ListPendingOrdersWithParts loads every active pending order together with
// its line items in a single round-trip.
func (r *Repo) ListPendingOrdersWithParts(ctx context.Context) ([]RepairOrder, error) {
	out, err := r.queryOrders(ctx, selectOrdersWithParts+`
WHERE o.status = $1 AND o.is_active
ORDER BY o.created_at, o.id, rp.id`, string(StatusPending))
	if err != nil {
		return nil, fmt.Errorf("list pending orders: %w", err)
	}
	return out, nil
}

func (r *Repo) GetOrder(ctx context.Context, id string) (RepairOrder, error) {
	out, err := r.queryOrders(ctx, selectOrdersWithParts+`
WHERE o.id = $1
ORDER BY rp.id`, id)
	if err != nil {
		if isInvalidUUID(err) {
			return RepairOrder{}, ErrOrderNotFound
		}
		return RepairOrder{}, fmt.Errorf("get order: %w", err)
	}
	if len(out) == 0 {
		return RepairOrder{}, ErrOrderNotFound
	}
	return out[0], nil
}

func (r *Repo) queryOrders(ctx context.Context, query string, args ...any) ([]RepairOrder, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanOrders(rows)
}

func scanOrders(rows pgx.Rows) ([]RepairOrder, error) {
	defer rows.Close()

	var out []RepairOrder
	for rows.Next() {
		var (
			o        RepairOrder
			status   string
			usageID  *string
			partID   *string
			quantity *int
			total    decimal.NullDecimal
		)
		if err := rows.Scan(
			&o.ID, &o.VehicleID, &o.CustomerID, &status, &o.LaborCost,
			&total, &o.IsActive, &o.DateIn, &o.DateExpectedOut, &o.DateOut,
			&o.CreatedAt, &o.UpdatedAt,
			&o.Customer.Name, &o.Customer.Email, &o.Customer.Phone,
			&o.Vehicle.LicensePlate, &o.Vehicle.Brand, &o.Vehicle.Model, &o.Vehicle.Year,
			&usageID, &partID, &quantity,
		); err != nil {
			return nil, err
		}
		o.Status = Status(status)
		o.TotalCostRepair = zeroIfNull(total)
		o.Customer.ID = o.CustomerID
		o.Vehicle.ID = o.VehicleID

		var usage *PartUsage
		if usageID != nil && partID != nil && quantity != nil {
			usage = &PartUsage{ID: *usageID, RepairOrderID: o.ID, PartID: *partID, Quantity: *quantity, IsActive: true}
		}
		out = appendOrderRow(out, o, usage)
	}
	return out, rows.Err()
}

// appendOrderRow folds one joined row into out. Rows of the same order must
// be adjacent; the order of first appearance is preserved.
func appendOrderRow(out []RepairOrder, o RepairOrder, usage *PartUsage) []RepairOrder {
	if n := len(out); n > 0 && out[n-1].ID == o.ID {
		if usage != nil {
			out[n-1].Parts = append(out[n-1].Parts, *usage)
		}
		return out
	}
	o.Parts = nil
	if usage != nil {
		o.Parts = []PartUsage{*usage}
	}
	return append(out, o)
}

func (r *Repo) ListAllParts(ctx context.Context) ([]Part, error) {
	rows, err := r.DB.Query(ctx, `
SELECT id::text, name, COALESCE(description, ''), stock_quantity, cost, final_price,
       is_active, created_at, updated_at
FROM inventory_parts
ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list parts: %w", err)
	}
	defer rows.Close()

	var out []Part
	for rows.Next() {
		var p Part
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.StockQuantity, &p.Cost, &p.FinalPrice,
			&p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("list parts: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) ListOrderParts(ctx context.Context, orderID string) ([]PartDetail, error) {
	var exists bool
	err := r.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM repair_orders WHERE id = $1)`, orderID).Scan(&exists)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("list order parts: %w", err)
	}
	if !exists {
		return nil, ErrOrderNotFound
	}

	rows, err := r.DB.Query(ctx, `
SELECT p.id::text, p.name, COALESCE(p.description, ''), p.cost, p.final_price, rp.quantity
FROM repair_order_parts rp
JOIN inventory_parts p ON p.id = rp.part_id
WHERE rp.repair_order_id = $1 AND rp.is_active
ORDER BY rp.id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order parts: %w", err)
	}
	defer rows.Close()

	out := []PartDetail{}
	for rows.Next() {
		var d PartDetail
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.Cost, &d.FinalPrice, &d.QuantityUsed); err != nil {
			return nil, fmt.Errorf("list order parts: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// UpdateOrderStatus locks the order row, validates the transition and
// stores the new status. It returns the previous status.
func (r *Repo) UpdateOrderStatus(ctx context.Context, orderID string, next Status) (Status, error) {
	if !next.Valid() {
		return "", ErrInvalidStatus
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current string
	err = tx.QueryRow(ctx, `SELECT status FROM repair_orders WHERE id = $1 AND is_active FOR UPDATE`, orderID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return "", ErrOrderNotFound
		}
		return "", fmt.Errorf("lock order: %w", err)
	}
	from := Status(current)
	if !CanTransition(from, next) {
		return from, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, next)
	}

	if _, err := tx.Exec(ctx, `
UPDATE repair_orders
SET status = $2,
    date_out = CASE WHEN $2 = 'completed' THEN NOW() ELSE date_out END,
    updated_at = NOW()
WHERE id = $1`, orderID, string(next)); err != nil {
		return from, fmt.Errorf("update order status: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return from, err
	}
	return from, nil
}

// AdjustPartStock applies delta to the on-hand quantity under a row lock and
// refuses to take stock below zero. It returns the new quantity.
func (r *Repo) AdjustPartStock(ctx context.Context, partID string, delta int) (int, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var stock int
	err = tx.QueryRow(ctx, `SELECT stock_quantity FROM inventory_parts WHERE id = $1 FOR UPDATE`, partID).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return 0, ErrPartNotFound
		}
		return 0, fmt.Errorf("lock part: %w", err)
	}
	if stock+delta < 0 {
		return stock, fmt.Errorf("%w: part %s has %d, change %d", ErrInsufficientStock, partID, stock, delta)
	}

	ct, err := tx.Exec(ctx, `UPDATE inventory_parts SET stock_quantity = stock_quantity + $2, updated_at = NOW() WHERE id = $1`, partID, delta)
	if err != nil {
		return stock, fmt.Errorf("update stock: %w", err)
	}
	if ct.RowsAffected() != 1 {
		return stock, ErrPartNotFound
	}
	if err := tx.Commit(ctx); err != nil {
		return stock, err
	}
	return stock + delta, nil
}

func isInvalidUUID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}

// zeroIfNull keeps amounts usable when an optional numeric column is NULL.
func zeroIfNull(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}
