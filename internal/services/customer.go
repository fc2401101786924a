package services

import (
	"errors"
	"fmt"

	"github.com/Dljdd/AgentHack25/internal/models"
	"github.com/Dljdd/AgentHack25/pkg/logger"
	"github.com/Dljdd/AgentHack25/pkg/response"
	"gorm.io/gorm"
)

// CustomerService manages the customer directory and its link to the
// payment processor.
type CustomerService struct {
	db        *gorm.DB
	processor PaymentProcessor
}

func NewCustomerService(db *gorm.DB, processor PaymentProcessor) *CustomerService {
	return &CustomerService{db: db, processor: processor}
}

// Create inserts a new customer. Name is mandatory.
func (s *CustomerService) Create(name, email, externalID string) (*models.Customer, error) {
	if name == "" {
		return nil, response.NewBadRequest("name is required")
	}

	customer := &models.Customer{
		Name:       name,
		Email:      email,
		ExternalID: externalID,
	}
	if err := s.db.Create(customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

// List returns all customers, most recently created first.
func (s *CustomerService) List() ([]models.Customer, error) {
	var customers []models.Customer
	if err := s.db.Order("created_at DESC").Find(&customers).Error; err != nil {
		return nil, err
	}
	if customers == nil {
		customers = []models.Customer{}
	}
	return customers, nil
}

// Get returns the customer with the given id.
func (s *CustomerService) Get(id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := s.db.First(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("customer not found")
		}
		return nil, err
	}
	return &customer, nil
}

// LinkBillingAccount ensures the customer has a payment-processor
// account and returns its identifier. Idempotent: an already-linked
// customer returns the stored id without a second processor call.
func (s *CustomerService) LinkBillingAccount(customerID uint) (string, error) {
	customer, err := s.Get(customerID)
	if err != nil {
		return "", err
	}

	if customer.StripeCustomerID != "" {
		return customer.StripeCustomerID, nil
	}

	stripeID, err := s.processor.CreateCustomer(customer.Name, customer.Email)
	if err != nil {
		return "", response.NewIntegrationError(fmt.Sprintf("payment processor customer creation failed: %v", err))
	}

	if err := s.db.Model(customer).Update("stripe_customer_id", stripeID).Error; err != nil {
		return "", err
	}

	logger.Info().
		Uint("customer_id", customerID).
		Str("stripe_customer_id", stripeID).
		Msg("linked billing account")
	return stripeID, nil
}
