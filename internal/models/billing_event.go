package models

import "time"

// BillingEvent records one successfully generated invoice. Immutable
// once written; the subtotal is the sum of the customer's run costs in
// [PeriodStart, PeriodEnd) evaluated at creation time.
type BillingEvent struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	CustomerID      uint      `gorm:"index" json:"customer_id"`
	PeriodStart     time.Time `json:"period_start"`
	PeriodEnd       time.Time `json:"period_end"`
	SubtotalUSD     float64   `gorm:"default:0" json:"subtotal_usd"`
	MarginPercent   float64   `gorm:"default:0" json:"margin_percent"`
	TotalUSD        float64   `gorm:"default:0" json:"total_usd"`
	StripeInvoiceID string    `gorm:"size:128;index" json:"stripe_invoice_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`

	Customer *Customer `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"-"`
}

func (BillingEvent) TableName() string { return "billing_events" }
