package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Posting is the GL entry set created by a successful day-close post.
// Keyed by (store, business date); re-posting supersedes the previous
// revision in place, it never duplicates.
type Posting struct {
	ID                int             `json:"id"`
	StoreID           int             `json:"store_id"`
	BusinessDate      string          `json:"business_date"`
	BatchID           string          `json:"batch_id"` // regenerated on every revision
	Revision          int             `json:"revision"` // 1 on first post, +1 per supersede
	InstantCommission decimal.Decimal `json:"instant_commission"`
	DrawCommission    decimal.Decimal `json:"draw_commission"`
	TotalCommission   decimal.Decimal `json:"total_commission"`
	PostedBy          int             `json:"posted_by"`
	PostedByName      string          `json:"posted_by_name"`
	PostedAt          time.Time       `json:"posted_at"`
	Entries           []GLEntry       `json:"entries"`
}

// GLEntry is one line of the structured entry set handed to the
// downstream General Ledger module.
type GLEntry struct {
	ID          int             `json:"id"`
	PostingID   int             `json:"posting_id"`
	Account     string          `json:"account"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// Ledger accounts used for day-close entry sets.
const (
	AccountCommissionReceivable = "1200-COMMISSION-RECEIVABLE"
	AccountInstantCommission    = "4100-INSTANT-COMMISSION"
	AccountDrawCommission       = "4200-DRAW-COMMISSION"
)
