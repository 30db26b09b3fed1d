package repairs

import (
	"time"

	"github.com/shopspring/decimal"
)

type Part struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	StockQuantity int             `json:"stock_quantity"`
	Cost          decimal.Decimal `json:"cost"`
	FinalPrice    decimal.Decimal `json:"final_price"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// PartUsage reserves Quantity units of a part for one repair order.
type PartUsage struct {
	ID            string `json:"id"`
	RepairOrderID string `json:"repair_order_id"`
	PartID        string `json:"part_id"`
	Quantity      int    `json:"quantity"`
	IsActive      bool   `json:"is_active"`
}

type RepairOrder struct {
	ID              string          `json:"id"`
	VehicleID       string          `json:"vehicle_id"`
	CustomerID      string          `json:"customer_id"`
	Status          Status          `json:"status"`
	LaborCost       decimal.Decimal `json:"labor_cost"`
	TotalCostRepair decimal.Decimal `json:"total_cost_repair"`
	IsActive        bool            `json:"is_active"`
	Parts           []PartUsage     `json:"parts"`
	Customer        CustomerSummary `json:"customer"`
	Vehicle         VehicleSummary  `json:"vehicle"`
	DateIn          *time.Time      `json:"date_in,omitempty"`
	DateExpectedOut *time.Time      `json:"date_expected_out,omitempty"`
	DateOut         *time.Time      `json:"date_out,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type CustomerSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type VehicleSummary struct {
	ID           string `json:"id"`
	LicensePlate string `json:"license_plate"`
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
}

// OptimizedOrder is one ranked entry of an optimization pass. Amounts are
// already rounded to cents.
type OptimizedOrder struct {
	RepairOrderID   string          `json:"repair_order_id"`
	Customer        CustomerSummary `json:"customer"`
	Vehicle         VehicleSummary  `json:"vehicle"`
	TotalCostRepair float64         `json:"total_cost_repair"`
	ExpectedProfit  float64         `json:"expected_profit"`
}

// PartDetail describes a part as consumed by a specific order.
type PartDetail struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Cost         decimal.Decimal `json:"cost"`
	FinalPrice   decimal.Decimal `json:"final_price"`
	QuantityUsed int             `json:"quantity_used"`
}
