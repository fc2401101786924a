package handlers

import (
	"strconv"

	"github.com/Dljdd/AgentHack25/internal/services"
	"github.com/Dljdd/AgentHack25/pkg/response"
	"github.com/gin-gonic/gin"
)

// RunHandler provides agent-run endpoints.
type RunHandler struct {
	runs *services.RunService
}

func NewRunHandler(runs *services.RunService) *RunHandler {
	return &RunHandler{runs: runs}
}

type startRunRequest struct {
	CustomerID uint   `json:"customer_id"`
	Prompt     string `json:"prompt"`
	Provider   string `json:"provider"`
	Model      string `json:"model"`
}

// Start creates a run and schedules its execution; the created run is
// returned immediately while execution proceeds in the background.
func (h *RunHandler) Start(c *gin.Context) {
	var req startRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	if req.Provider == "" {
		req.Provider = "gemini"
	}
	if req.Model == "" {
		req.Model = "gemini-2.0-flash"
	}

	run, err := h.runs.Start(req.CustomerID, req.Prompt, req.Provider, req.Model)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, run)
}

// ListByCustomer returns a customer's runs, newest first.
func (h *RunHandler) ListByCustomer(c *gin.Context) {
	customerID, err := parseIDParam(c, "customer_id")
	if err != nil {
		response.BadRequest(c, "invalid customer_id")
		return
	}

	runs, err := h.runs.ListByCustomer(customerID)
	if err != nil {
		response.ServerError(c, "failed to list runs: "+err.Error())
		return
	}

	response.Success(c, runs)
}

// SummaryByCustomer returns aggregate run statistics for a customer.
func (h *RunHandler) SummaryByCustomer(c *gin.Context) {
	customerID, err := parseIDParam(c, "customer_id")
	if err != nil {
		response.BadRequest(c, "invalid customer_id")
		return
	}

	summary, err := h.runs.SummaryByCustomer(customerID)
	if err != nil {
		response.ServerError(c, "failed to summarize runs: "+err.Error())
		return
	}

	response.Success(c, summary)
}

func parseIDParam(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
