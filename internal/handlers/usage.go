package handlers

import (
	"strconv"
	"time"

	"github.com/Dljdd/AgentHack25/internal/services"
	"github.com/Dljdd/AgentHack25/pkg/response"
	"github.com/gin-gonic/gin"
)

// UsageHandler provides the usage tracking and aggregation endpoints.
type UsageHandler struct {
	usage *services.UsageService
}

func NewUsageHandler(usage *services.UsageService) *UsageHandler {
	return &UsageHandler{usage: usage}
}

type trackRequest struct {
	UserID       string     `json:"user_id"`
	Model        string     `json:"model"`
	InputTokens  int        `json:"input_tokens"`
	OutputTokens int        `json:"output_tokens"`
	Calls        int        `json:"calls"`
	CreatedAt    *time.Time `json:"created_at"`
}

type trackResponse struct {
	ID        uint      `json:"id"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	Tokens    int       `json:"tokens"`
	Calls     int       `json:"calls"`
	Cost      float64   `json:"cost"`
	CreatedAt time.Time `json:"created_at"`
}

// Track returns the handler for one provider-specific tracking route.
func (h *UsageHandler) Track(provider string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req trackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request body: "+err.Error())
			return
		}
		if req.UserID == "" {
			req.UserID = "demo-user"
		}
		if req.Calls == 0 {
			req.Calls = 1
		}

		rec, err := h.usage.Record(req.UserID, provider, req.Model, req.InputTokens, req.OutputTokens, req.Calls, req.CreatedAt)
		if err != nil {
			response.Error(c, err)
			return
		}

		response.Created(c, trackResponse{
			ID:        rec.ID,
			Provider:  rec.Provider,
			Model:     rec.Model,
			Tokens:    rec.TotalTokens(),
			Calls:     rec.Calls,
			Cost:      rec.Cost,
			CreatedAt: rec.CreatedAt,
		})
	}
}

// Recent lists the most recent usage records.
func (h *UsageHandler) Recent(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(c, "limit must be an integer")
			return
		}
		limit = parsed
	}

	records, err := h.usage.ListRecent(limit)
	if err != nil {
		response.ServerError(c, "failed to list usage: "+err.Error())
		return
	}

	response.Success(c, gin.H{"items": records})
}

// Summary aggregates usage over a symbolic period or an explicit
// window; the two are mutually exclusive.
func (h *UsageHandler) Summary(c *gin.Context) {
	period := c.Query("period")
	startRaw := c.Query("start")
	endRaw := c.Query("end")

	if period != "" && (startRaw != "" || endRaw != "") {
		response.BadRequest(c, "provide either period or start/end, not both")
		return
	}

	var start, end *time.Time
	if period != "" {
		start, end = h.usage.PeriodBounds(period)
	} else {
		var err error
		if start, err = parseTimeParam(startRaw); err != nil {
			response.BadRequest(c, "invalid start: "+err.Error())
			return
		}
		if end, err = parseTimeParam(endRaw); err != nil {
			response.BadRequest(c, "invalid end: "+err.Error())
			return
		}
	}

	summary, err := h.usage.Summarize(start, end)
	if err != nil {
		response.ServerError(c, "failed to summarize usage: "+err.Error())
		return
	}

	response.Success(c, gin.H{
		"total":       summary.Total,
		"by_provider": summary.ByProvider,
		"window":      gin.H{"start": start, "end": end},
	})
}

// Timeseries returns bucketed usage over the trailing window.
func (h *UsageHandler) Timeseries(c *gin.Context) {
	granularity := c.DefaultQuery("granularity", "day")
	provider := c.Query("provider")

	days := 7
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(c, "days must be an integer")
			return
		}
		days = parsed
	}

	series, err := h.usage.Timeseries(granularity, days, provider)
	if err != nil {
		response.ServerError(c, "failed to build timeseries: "+err.Error())
		return
	}

	response.Success(c, gin.H{
		"granularity": granularity,
		"days":        days,
		"provider":    provider,
		"series":      series,
	})
}

// Alerts evaluates the spend threshold for a period.
func (h *UsageHandler) Alerts(c *gin.Context) {
	period := c.DefaultQuery("period", "day")

	threshold := 10.0
	if raw := c.Query("threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			response.BadRequest(c, "threshold must be a number")
			return
		}
		threshold = parsed
	}

	result, err := h.usage.OverThreshold(period, threshold)
	if err != nil {
		response.ServerError(c, "failed to evaluate threshold: "+err.Error())
		return
	}

	response.Success(c, result)
}

func parseTimeParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
