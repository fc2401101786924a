package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Dljdd/AgentHack25/pkg/response"
)

// fakeProcessor is an in-memory PaymentProcessor counting its calls.
type fakeProcessor struct {
	customerCalls int
	invoiceCalls  int
	failCustomer  bool
	failInvoice   bool
	lastAmount    float64
	lastDesc      string
}

func (f *fakeProcessor) CreateCustomer(name, email string) (string, error) {
	f.customerCalls++
	if f.failCustomer {
		return "", errors.New("processor unavailable")
	}
	return fmt.Sprintf("cus_fake_%d", f.customerCalls), nil
}

func (f *fakeProcessor) CreateInvoice(processorCustomerID, description string, amountUSD float64) (string, error) {
	f.invoiceCalls++
	if f.failInvoice {
		return "", errors.New("processor unavailable")
	}
	f.lastAmount = amountUSD
	f.lastDesc = description
	return fmt.Sprintf("in_fake_%d", f.invoiceCalls), nil
}

func TestCustomerCreate_RequiresName(t *testing.T) {
	s := NewCustomerService(newTestDB(t), &fakeProcessor{})

	_, err := s.Create("", "a@b.com", "")
	var appErr *response.AppError
	if !errors.As(err, &appErr) || appErr.HTTPStatus != 400 {
		t.Errorf("expected 400 AppError, got %v", err)
	}
}

func TestCustomerCreateAndList(t *testing.T) {
	s := NewCustomerService(newTestDB(t), &fakeProcessor{})

	first, err := s.Create("Acme", "billing@acme.test", "acme-1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if first.ID == 0 {
		t.Error("customer should have an id")
	}

	if _, err := s.Create("Globex", "", ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	customers, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(customers) != 2 {
		t.Fatalf("len = %d, expected 2", len(customers))
	}
}

func TestLinkBillingAccount_Idempotent(t *testing.T) {
	proc := &fakeProcessor{}
	s := NewCustomerService(newTestDB(t), proc)

	cust, err := s.Create("Acme", "billing@acme.test", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	firstID, err := s.LinkBillingAccount(cust.ID)
	if err != nil {
		t.Fatalf("LinkBillingAccount failed: %v", err)
	}
	if firstID == "" {
		t.Fatal("expected a stripe customer id")
	}

	secondID, err := s.LinkBillingAccount(cust.ID)
	if err != nil {
		t.Fatalf("second LinkBillingAccount failed: %v", err)
	}
	if secondID != firstID {
		t.Errorf("second link returned %q, expected %q", secondID, firstID)
	}
	if proc.customerCalls != 1 {
		t.Errorf("processor called %d times, expected exactly 1", proc.customerCalls)
	}
}

func TestLinkBillingAccount_UnknownCustomer(t *testing.T) {
	s := NewCustomerService(newTestDB(t), &fakeProcessor{})

	_, err := s.LinkBillingAccount(999)
	var appErr *response.AppError
	if !errors.As(err, &appErr) || appErr.HTTPStatus != 404 {
		t.Errorf("expected 404 AppError, got %v", err)
	}
}

func TestLinkBillingAccount_ProcessorFailure(t *testing.T) {
	proc := &fakeProcessor{failCustomer: true}
	db := newTestDB(t)
	s := NewCustomerService(db, proc)

	cust, err := s.Create("Acme", "", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err = s.LinkBillingAccount(cust.ID)
	var appErr *response.AppError
	if !errors.As(err, &appErr) || appErr.HTTPStatus != 502 {
		t.Errorf("expected 502 AppError, got %v", err)
	}

	// Nothing persisted on failure
	fresh, err := s.Get(cust.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fresh.StripeCustomerID != "" {
		t.Errorf("stripe id should stay empty after failure, got %q", fresh.StripeCustomerID)
	}
}
