package handlers

import (
	"github.com/Dljdd/AgentHack25/internal/services"
	"github.com/Dljdd/AgentHack25/pkg/response"
	"github.com/gin-gonic/gin"
)

// BillingHandler provides billing-account and invoicing endpoints.
type BillingHandler struct {
	customers *services.CustomerService
	billing   *services.BillingService
}

func NewBillingHandler(customers *services.CustomerService, billing *services.BillingService) *BillingHandler {
	return &BillingHandler{customers: customers, billing: billing}
}

type linkBillingRequest struct {
	CustomerID uint `json:"customer_id"`
}

// LinkBillingAccount ensures the customer has a Stripe customer and
// returns its id. Safe to call repeatedly.
func (h *BillingHandler) LinkBillingAccount(c *gin.Context) {
	var req linkBillingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	stripeID, err := h.customers.LinkBillingAccount(req.CustomerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"stripe_customer_id": stripeID})
}

type createInvoiceRequest struct {
	CustomerID    uint     `json:"customer_id"`
	MarginPercent *float64 `json:"margin_percent"`
	Days          int      `json:"days"`
}

// CreateInvoice generates an invoice for the customer's trailing usage
// window and records the billing event.
func (h *BillingHandler) CreateInvoice(c *gin.Context) {
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	margin := 10.0
	if req.MarginPercent != nil {
		margin = *req.MarginPercent
	}
	if req.Days == 0 {
		req.Days = 30
	}

	result, err := h.billing.CreateInvoice(req.CustomerID, margin, req.Days)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}
