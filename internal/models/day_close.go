package models

import "github.com/shopspring/decimal"

// GameCommission is the instant-ticket commission earned for one game on
// a business date.
type GameCommission struct {
	GameID      int             `json:"game_id"`
	GameCode    string          `json:"game_code"`
	GameName    string          `json:"game_name"`
	TicketsSold int             `json:"tickets_sold"` // sum of positive deltas for the date
	Commission  decimal.Decimal `json:"commission"`   // tickets_sold * price * rate
}

// DrawTotals summarises the online/draw side of a day-close.
type DrawTotals struct {
	Present     bool            `json:"present"` // false when no DrawDay entry exists
	TotalSales  decimal.Decimal `json:"total_sales"`
	TotalCashed decimal.Decimal `json:"total_cashed"`
	Adjustments decimal.Decimal `json:"adjustments"`
	NetSale     decimal.Decimal `json:"net_sale"`
	Commission  decimal.Decimal `json:"commission"`
}

// DayCloseSummary is the derived (never persisted) reconciliation view
// for one store and business date. Open anomalies are always included;
// terminal ones are listed for audit but do not affect CanPost.
type DayCloseSummary struct {
	StoreID           int              `json:"store_id"`
	BusinessDate      string           `json:"business_date"`
	InstantByGame     []GameCommission `json:"instant_by_game"`
	InstantCommission decimal.Decimal  `json:"instant_commission"`
	Draw              DrawTotals       `json:"draw_totals"`
	TotalCommission   decimal.Decimal  `json:"total_commission"`
	Anomalies         []*Anomaly       `json:"anomalies"`
	Warnings          []string         `json:"warnings"`
	CanPost           bool             `json:"can_post"`
}

// BlockingAnomalies returns the open high-severity anomalies that
// prevent this date from being posted.
func (s *DayCloseSummary) BlockingAnomalies() []*Anomaly {
	var blocking []*Anomaly
	for _, a := range s.Anomalies {
		if a.Blocking() {
			blocking = append(blocking, a)
		}
	}
	return blocking
}

// DayCloseData is the raw material a summary is computed from. It is
// loaded in one shot so that preview and posting share the exact same
// aggregation code path.
type DayCloseData struct {
	StoreID      int
	BusinessDate string
	Readings     []*ReadingWithGame
	DrawDay      *DrawDay // nil when no entry exists
	Anomalies    []*Anomaly
	Boxes        []BoxActivity
}

// ReadingWithGame joins a reading with the game pricing needed for
// commission arithmetic.
type ReadingWithGame struct {
	Reading
	GameID         int             `json:"game_id"`
	GameCode       string          `json:"game_code"`
	GameName       string          `json:"game_name"`
	TicketPrice    decimal.Decimal `json:"ticket_price"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
}
