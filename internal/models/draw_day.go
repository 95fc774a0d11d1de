package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DrawCommissionSource indicates where a draw-day commission figure came from
type DrawCommissionSource string

const (
	DrawCommissionManual    DrawCommissionSource = "manual"    // Keyed in by an accountant
	DrawCommissionStatement DrawCommissionSource = "statement" // Taken from the lottery statement
	DrawCommissionRate      DrawCommissionSource = "rate"      // Computed from the configured rate
)

// DrawDay is the single online/draw-lottery entry per store per date.
// NetSale is always derived from its inputs, never stored independently.
type DrawDay struct {
	ID               int                  `json:"id"`
	StoreID          int                  `json:"store_id"`
	BusinessDate     string               `json:"business_date"`
	TotalSales       decimal.Decimal      `json:"total_sales"`
	TotalCashed      decimal.Decimal      `json:"total_cashed"`
	Adjustments      decimal.Decimal      `json:"adjustments"`
	CommissionSource DrawCommissionSource `json:"commission_source"`
	CommissionAmount *decimal.Decimal     `json:"commission_amount"` // nil means compute from rate
	CreatedBy        int                  `json:"created_by"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// NetSale returns total_sales - total_cashed - adjustments.
func (d *DrawDay) NetSale() decimal.Decimal {
	return d.TotalSales.Sub(d.TotalCashed).Sub(d.Adjustments)
}

// Commission returns the draw commission for the day: the explicit
// amount when present, otherwise net sale times the configured rate.
func (d *DrawDay) Commission(rate decimal.Decimal) decimal.Decimal {
	if d.CommissionAmount != nil {
		return *d.CommissionAmount
	}
	return d.NetSale().Mul(rate)
}

// UpsertDrawDayRequest replaces the draw entry for a store/date
type UpsertDrawDayRequest struct {
	StoreID          int                  `json:"store_id" validate:"required"`
	BusinessDate     string               `json:"business_date" validate:"required,datetime=2006-01-02"`
	TotalSales       decimal.Decimal      `json:"total_sales"`
	TotalCashed      decimal.Decimal      `json:"total_cashed"`
	Adjustments      decimal.Decimal      `json:"adjustments"`
	CommissionSource DrawCommissionSource `json:"commission_source" validate:"required,oneof=manual statement rate"`
	CommissionAmount *decimal.Decimal     `json:"commission_amount"`
}
