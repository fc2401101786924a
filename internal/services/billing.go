package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/Dljdd/AgentHack25/internal/models"
	"github.com/Dljdd/AgentHack25/pkg/logger"
	"github.com/Dljdd/AgentHack25/pkg/response"
	"gorm.io/gorm"
)

// BillingService turns a customer's tracked run costs into invoices
// through the payment processor.
type BillingService struct {
	db        *gorm.DB
	processor PaymentProcessor
}

func NewBillingService(db *gorm.DB, processor PaymentProcessor) *BillingService {
	return &BillingService{db: db, processor: processor}
}

// InvoiceResult is the outcome of a successful invoice generation.
type InvoiceResult struct {
	StripeInvoiceID string    `json:"stripe_invoice_id"`
	SubtotalUSD     float64   `json:"subtotal_usd"`
	MarginPercent   float64   `json:"margin_percent"`
	TotalUSD        float64   `json:"total_usd"`
	PeriodStart     time.Time `json:"period_start"`
	PeriodEnd       time.Time `json:"period_end"`
}

// CreateInvoice sums the customer's run costs over the trailing
// days-day window, applies the margin, creates and finalizes the
// invoice with the payment processor, and records a BillingEvent.
// Nothing is persisted when the processor call fails.
func (s *BillingService) CreateInvoice(customerID uint, marginPercent float64, days int) (*InvoiceResult, error) {
	if marginPercent < 0 {
		return nil, response.NewBadRequest("margin_percent must be non-negative")
	}
	if days < 1 || days > 60 {
		return nil, response.NewBadRequest("days must be between 1 and 60")
	}

	var cust models.Customer
	if err := s.db.First(&cust, customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("customer not found")
		}
		return nil, err
	}
	if cust.StripeCustomerID == "" {
		return nil, response.NewPreconditionFailed("customer has no linked billing account")
	}

	periodEnd := time.Now().UTC()
	periodStart := periodEnd.Add(-time.Duration(days) * 24 * time.Hour)

	var subtotal float64
	err := s.db.Model(&models.AgentRun{}).
		Where("customer_id = ? AND started_at >= ? AND started_at < ?", customerID, periodStart, periodEnd).
		Select("COALESCE(SUM(cost_usd), 0)").
		Scan(&subtotal).Error
	if err != nil {
		return nil, err
	}

	total := roundTo(subtotal*(1.0+marginPercent/100.0), 4)

	description := fmt.Sprintf("AI Agent usage %s - %s (incl. margin %g%%)",
		periodStart.Format("2006-01-02"), periodEnd.Format("2006-01-02"), marginPercent)

	invoiceID, err := s.processor.CreateInvoice(cust.StripeCustomerID, description, total)
	if err != nil {
		return nil, response.NewIntegrationError(fmt.Sprintf("invoice creation failed: %v", err))
	}

	event := &models.BillingEvent{
		CustomerID:      customerID,
		PeriodStart:     periodStart,
		PeriodEnd:       periodEnd,
		SubtotalUSD:     subtotal,
		MarginPercent:   marginPercent,
		TotalUSD:        total,
		StripeInvoiceID: invoiceID,
	}
	if err := s.db.Create(event).Error; err != nil {
		return nil, err
	}

	logger.Info().
		Uint("customer_id", customerID).
		Str("stripe_invoice_id", invoiceID).
		Float64("subtotal_usd", subtotal).
		Float64("total_usd", total).
		Msg("invoice created")

	return &InvoiceResult{
		StripeInvoiceID: invoiceID,
		SubtotalUSD:     subtotal,
		MarginPercent:   marginPercent,
		TotalUSD:        total,
		PeriodStart:     periodStart,
		PeriodEnd:       periodEnd,
	}, nil
}
