package handlers

import (
	"github.com/Dljdd/AgentHack25/internal/services"
	"github.com/Dljdd/AgentHack25/pkg/response"
	"github.com/gin-gonic/gin"
)

// CustomerHandler provides customer directory endpoints.
type CustomerHandler struct {
	customers *services.CustomerService
}

func NewCustomerHandler(customers *services.CustomerService) *CustomerHandler {
	return &CustomerHandler{customers: customers}
}

type customerCreateRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	ExternalID string `json:"external_id"`
}

// Create inserts a new customer.
func (h *CustomerHandler) Create(c *gin.Context) {
	var req customerCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	customer, err := h.customers.Create(req.Name, req.Email, req.ExternalID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, customer)
}

// List returns all customers, newest first.
func (h *CustomerHandler) List(c *gin.Context) {
	customers, err := h.customers.List()
	if err != nil {
		response.ServerError(c, "failed to list customers: "+err.Error())
		return
	}

	response.Success(c, customers)
}
