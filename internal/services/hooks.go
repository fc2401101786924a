package services

import (
	"time"

	"github.com/Dljdd/AgentHack25/internal/models"
	"github.com/Dljdd/AgentHack25/pkg/logger"
	"gorm.io/gorm"
)

// CostHooks is the accounting callback surface invoked by an agent
// executor while a run progresses. All hooks for one run are invoked
// sequentially by that run's own task, on the task's own DB session.
type CostHooks struct {
	db    *gorm.DB
	runID uint
}

func NewCostHooks(db *gorm.DB, runID uint) *CostHooks {
	return &CostHooks{db: db, runID: runID}
}

// RunID returns the id of the run being accounted.
func (h *CostHooks) RunID() uint { return h.runID }

// BeforePlanRun stamps the run's start time.
func (h *CostHooks) BeforePlanRun() error {
	return h.db.Model(&models.AgentRun{}).
		Where("id = ?", h.runID).
		Update("started_at", time.Now().UTC()).Error
}

// BeforeToolCall opens a tool-call record with status "running" and
// returns its id for the matching AfterToolCall.
func (h *CostHooks) BeforeToolCall(toolName string) (uint, error) {
	call := &models.ToolCall{
		AgentRunID: h.runID,
		ToolName:   toolName,
		StartedAt:  time.Now().UTC(),
		Status:     models.ToolCallRunning,
	}
	if err := h.db.Create(call).Error; err != nil {
		return 0, err
	}
	return call.ID, nil
}

// AfterToolCall finalizes the tool call (end time, duration in whole
// milliseconds, usage figures) and increments the parent run's rolling
// totals. The increment happens exactly once per completed tool call,
// via SQL expressions so the row value is never read-modify-written.
func (h *CostHooks) AfterToolCall(toolCallID uint, inputTokens, outputTokens int, costUSD float64, status string) error {
	var call models.ToolCall
	if err := h.db.First(&call, toolCallID).Error; err != nil {
		return err
	}

	now := time.Now().UTC()
	durationMs := now.Sub(call.StartedAt).Milliseconds()
	if durationMs < 0 {
		durationMs = 0
	}

	err := h.db.Model(&call).Updates(map[string]interface{}{
		"ended_at":      now,
		"duration_ms":   durationMs,
		"input_tokens":  inputTokens,
		"output_tokens": outputTokens,
		"cost_usd":      costUSD,
		"status":        status,
	}).Error
	if err != nil {
		return err
	}

	return h.db.Model(&models.AgentRun{}).
		Where("id = ?", h.runID).
		UpdateColumns(map[string]interface{}{
			"calls":         gorm.Expr("calls + 1"),
			"input_tokens":  gorm.Expr("input_tokens + ?", inputTokens),
			"output_tokens": gorm.Expr("output_tokens + ?", outputTokens),
			"cost_usd":      gorm.Expr("cost_usd + ?", costUSD),
		}).Error
}

// AfterPlanRun finalizes the run: success flag, optional provider and
// model overwrite, end time and duration. The transition is terminal;
// a run that already ended is left untouched.
func (h *CostHooks) AfterPlanRun(success bool, provider, model string) error {
	var run models.AgentRun
	if err := h.db.First(&run, h.runID).Error; err != nil {
		return err
	}
	if run.EndedAt != nil {
		logger.Warn().Uint("run_id", h.runID).Msg("run already finalized, skipping")
		return nil
	}

	now := time.Now().UTC()
	durationMs := now.Sub(run.StartedAt).Milliseconds()
	if durationMs < 0 {
		durationMs = 0
	}

	updates := map[string]interface{}{
		"success":     success,
		"ended_at":    now,
		"duration_ms": durationMs,
	}
	if provider != "" {
		updates["provider"] = provider
	}
	if model != "" {
		updates["model"] = model
	}

	return h.db.Model(&run).Updates(updates).Error
}
