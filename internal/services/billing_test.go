package services

import (
	"errors"
	"testing"
	"time"

	"github.com/Dljdd/AgentHack25/internal/models"
	"github.com/Dljdd/AgentHack25/pkg/response"
	"gorm.io/gorm"
)

func newBillingFixture(t *testing.T, proc PaymentProcessor) (*gorm.DB, *BillingService, *models.Customer) {
	t.Helper()
	db := newTestDB(t)

	customers := NewCustomerService(db, proc)
	cust, err := customers.Create("Acme", "billing@acme.test", "")
	if err != nil {
		t.Fatalf("Create customer failed: %v", err)
	}
	if _, err := customers.LinkBillingAccount(cust.ID); err != nil {
		t.Fatalf("LinkBillingAccount failed: %v", err)
	}

	fresh, err := customers.Get(cust.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	return db, NewBillingService(db, proc), fresh
}

func seedRun(t *testing.T, db *gorm.DB, customerID uint, cost float64, startedAt time.Time) {
	t.Helper()
	run := &models.AgentRun{
		CustomerID: customerID,
		Prompt:     "p",
		CostUSD:    cost,
		StartedAt:  startedAt,
		Success:    true,
	}
	if err := db.Create(run).Error; err != nil {
		t.Fatalf("seed run failed: %v", err)
	}
}

func TestCreateInvoice_AppliesMargin(t *testing.T) {
	proc := &fakeProcessor{}
	db, billing, cust := newBillingFixture(t, proc)

	now := time.Now().UTC()
	seedRun(t, db, cust.ID, 30.0, now.Add(-1*24*time.Hour))
	seedRun(t, db, cust.ID, 20.0, now.Add(-10*24*time.Hour))
	// Outside the 30-day window
	seedRun(t, db, cust.ID, 99.0, now.Add(-45*24*time.Hour))

	result, err := billing.CreateInvoice(cust.ID, 10.0, 30)
	if err != nil {
		t.Fatalf("CreateInvoice failed: %v", err)
	}

	if result.SubtotalUSD != 50.0 {
		t.Errorf("subtotal = %v, expected 50.0", result.SubtotalUSD)
	}
	if result.TotalUSD != 55.0 {
		t.Errorf("total = %v, expected 55.0000", result.TotalUSD)
	}
	if result.StripeInvoiceID == "" {
		t.Error("expected a stripe invoice id")
	}
	if proc.invoiceCalls != 1 {
		t.Errorf("processor invoice calls = %d, expected 1", proc.invoiceCalls)
	}
	if proc.lastAmount != 55.0 {
		t.Errorf("processor was asked for %v, expected 55.0", proc.lastAmount)
	}

	var event models.BillingEvent
	if err := db.Where("customer_id = ?", cust.ID).First(&event).Error; err != nil {
		t.Fatalf("billing event not persisted: %v", err)
	}
	if event.SubtotalUSD != 50.0 || event.TotalUSD != 55.0 || event.MarginPercent != 10.0 {
		t.Errorf("billing event = %+v, expected 50/10%%/55", event)
	}
	if event.StripeInvoiceID != result.StripeInvoiceID {
		t.Errorf("event invoice id %q != result %q", event.StripeInvoiceID, result.StripeInvoiceID)
	}
}

func TestCreateInvoice_EmptyWindow(t *testing.T) {
	proc := &fakeProcessor{}
	_, billing, cust := newBillingFixture(t, proc)

	result, err := billing.CreateInvoice(cust.ID, 10.0, 30)
	if err != nil {
		t.Fatalf("CreateInvoice failed: %v", err)
	}
	if result.SubtotalUSD != 0 || result.TotalUSD != 0 {
		t.Errorf("empty window should invoice zero, got %+v", result)
	}
}

func TestCreateInvoice_Validation(t *testing.T) {
	_, billing, cust := newBillingFixture(t, &fakeProcessor{})

	var appErr *response.AppError

	_, err := billing.CreateInvoice(cust.ID, -1.0, 30)
	if !errors.As(err, &appErr) || appErr.HTTPStatus != 400 {
		t.Errorf("negative margin: expected 400 AppError, got %v", err)
	}

	_, err = billing.CreateInvoice(cust.ID, 10.0, 0)
	if !errors.As(err, &appErr) || appErr.HTTPStatus != 400 {
		t.Errorf("days=0: expected 400 AppError, got %v", err)
	}

	_, err = billing.CreateInvoice(cust.ID, 10.0, 61)
	if !errors.As(err, &appErr) || appErr.HTTPStatus != 400 {
		t.Errorf("days=61: expected 400 AppError, got %v", err)
	}
}

func TestCreateInvoice_UnknownCustomer(t *testing.T) {
	_, billing, _ := newBillingFixture(t, &fakeProcessor{})

	_, err := billing.CreateInvoice(9999, 10.0, 30)
	var appErr *response.AppError
	if !errors.As(err, &appErr) || appErr.HTTPStatus != 404 {
		t.Errorf("expected 404 AppError, got %v", err)
	}
}

func TestCreateInvoice_RequiresLinkedAccount(t *testing.T) {
	db := newTestDB(t)
	customers := NewCustomerService(db, &fakeProcessor{})
	billing := NewBillingService(db, &fakeProcessor{})

	cust, err := customers.Create("Unlinked", "", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err = billing.CreateInvoice(cust.ID, 10.0, 30)
	var appErr *response.AppError
	if !errors.As(err, &appErr) || appErr.HTTPStatus != 412 {
		t.Errorf("expected 412 AppError, got %v", err)
	}
}

func TestCreateInvoice_ProcessorFailureWritesNothing(t *testing.T) {
	proc := &fakeProcessor{}
	db, _, cust := newBillingFixture(t, proc)

	proc.failInvoice = true
	billing := NewBillingService(db, proc)

	seedRun(t, db, cust.ID, 50.0, time.Now().UTC().Add(-24*time.Hour))

	_, err := billing.CreateInvoice(cust.ID, 10.0, 30)
	var appErr *response.AppError
	if !errors.As(err, &appErr) || appErr.HTTPStatus != 502 {
		t.Errorf("expected 502 AppError, got %v", err)
	}

	var count int64
	if err := db.Model(&models.BillingEvent{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("billing events = %d after processor failure, expected 0", count)
	}
}
