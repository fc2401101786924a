package models

import "time"

// Customer is a billable account. StripeCustomerID is set at most once
// by the billing-account link flow and reused afterwards.
type Customer struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	ExternalID       string    `gorm:"size:128;index" json:"external_id,omitempty"`
	Name             string    `gorm:"size:255;not null" json:"name"`
	Email            string    `gorm:"size:255" json:"email,omitempty"`
	StripeCustomerID string    `gorm:"size:128;index" json:"stripe_customer_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`

	AgentRuns     []AgentRun     `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"-"`
	BillingEvents []BillingEvent `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Customer) TableName() string { return "customers" }
