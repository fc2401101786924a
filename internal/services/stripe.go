package services

import (
	"errors"
	"fmt"
	"math"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/customer"
	"github.com/stripe/stripe-go/v76/invoice"
	"github.com/stripe/stripe-go/v76/invoiceitem"
)

// PaymentProcessor abstracts the external billing system. Tests use a
// fake; production uses Stripe.
type PaymentProcessor interface {
	// CreateCustomer registers a customer and returns its external id.
	CreateCustomer(name, email string) (string, error)
	// CreateInvoice creates and finalizes a one-item invoice for the
	// given USD amount and returns the external invoice id.
	CreateInvoice(processorCustomerID, description string, amountUSD float64) (string, error)
}

// ErrStripeNotConfigured is returned when no API key is set.
var ErrStripeNotConfigured = errors.New("stripe api key not configured")

// StripeGateway implements PaymentProcessor against the Stripe API.
type StripeGateway struct {
	apiKey string
}

func NewStripeGateway(apiKey string) *StripeGateway {
	stripe.Key = apiKey
	return &StripeGateway{apiKey: apiKey}
}

func (g *StripeGateway) CreateCustomer(name, email string) (string, error) {
	if g.apiKey == "" {
		return "", ErrStripeNotConfigured
	}

	params := &stripe.CustomerParams{
		Name: stripe.String(name),
	}
	if email != "" {
		params.Email = stripe.String(email)
	}

	cust, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe customer create: %w", err)
	}
	return cust.ID, nil
}

func (g *StripeGateway) CreateInvoice(processorCustomerID, description string, amountUSD float64) (string, error) {
	if g.apiKey == "" {
		return "", ErrStripeNotConfigured
	}

	amountCents := int64(math.Round(amountUSD * 100))

	_, err := invoiceitem.New(&stripe.InvoiceItemParams{
		Customer:    stripe.String(processorCustomerID),
		Amount:      stripe.Int64(amountCents),
		Currency:    stripe.String(string(stripe.CurrencyUSD)),
		Description: stripe.String(description),
	})
	if err != nil {
		return "", fmt.Errorf("stripe invoice item create: %w", err)
	}

	inv, err := invoice.New(&stripe.InvoiceParams{
		Customer:    stripe.String(processorCustomerID),
		AutoAdvance: stripe.Bool(false),
	})
	if err != nil {
		return "", fmt.Errorf("stripe invoice create: %w", err)
	}

	finalized, err := invoice.FinalizeInvoice(inv.ID, &stripe.InvoiceFinalizeInvoiceParams{})
	if err != nil {
		return "", fmt.Errorf("stripe invoice finalize: %w", err)
	}
	return finalized.ID, nil
}
