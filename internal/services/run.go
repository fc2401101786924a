package services

import (
	"context"
	"errors"
	"time"

	"github.com/Dljdd/AgentHack25/internal/models"
	"github.com/Dljdd/AgentHack25/pkg/logger"
	"github.com/Dljdd/AgentHack25/pkg/response"
	"gorm.io/gorm"
)

// RunService tracks the lifecycle of agent runs. Starting a run
// persists it and enqueues execution; the triggering request returns
// immediately while the run's own task does the work.
type RunService struct {
	db       *gorm.DB
	queue    TaskQueue
	executor AgentExecutor
}

func NewRunService(db *gorm.DB, queue TaskQueue, executor AgentExecutor) *RunService {
	return &RunService{db: db, queue: queue, executor: executor}
}

// Start creates the run with zero totals and schedules its execution.
func (s *RunService) Start(customerID uint, prompt, provider, model string) (*models.AgentRun, error) {
	if prompt == "" {
		return nil, response.NewBadRequest("prompt is required")
	}

	var cust models.Customer
	if err := s.db.First(&cust, customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("customer not found")
		}
		return nil, err
	}

	run := &models.AgentRun{
		CustomerID: customerID,
		Prompt:     prompt,
		Provider:   provider,
		Model:      model,
		StartedAt:  time.Now().UTC(),
	}
	if err := s.db.Create(run).Error; err != nil {
		return nil, err
	}

	// The task carries only the primitive id; the execution task opens
	// its own DB session rather than borrowing this request's.
	if err := s.queue.Enqueue(&RunTask{RunID: run.ID}); err != nil {
		logger.Error().Err(err).Uint("run_id", run.ID).Msg("failed to enqueue run execution")
		return nil, err
	}

	return run, nil
}

// ExecuteRun is the detached unit of work behind a RunTask. It opens a
// fresh session for its whole execution and guarantees the run reaches
// a finalized state on every exit path, failure included.
func (s *RunService) ExecuteRun(ctx context.Context, runID uint) error {
	sess := s.db.Session(&gorm.Session{NewDB: true})

	var run models.AgentRun
	if err := sess.First(&run, runID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn().Uint("run_id", runID).Msg("run vanished before execution")
			return nil
		}
		return err
	}
	if run.EndedAt != nil {
		logger.Warn().Uint("run_id", runID).Msg("run already finalized, not re-executing")
		return nil
	}

	hooks := NewCostHooks(sess, runID)
	if err := hooks.BeforePlanRun(); err != nil {
		return err
	}

	success := false
	var usedProvider, usedModel string
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Uint("run_id", runID).Msg("agent executor panicked")
		}
		if err := hooks.AfterPlanRun(success, usedProvider, usedModel); err != nil {
			logger.Error().Err(err).Uint("run_id", runID).Msg("failed to finalize run")
		}
	}()

	var err error
	if usedProvider, usedModel, err = s.executor.Execute(ctx, hooks, run.Prompt, run.Provider, run.Model); err != nil {
		// Recorded as a failed run, never propagated: a retry would
		// re-execute an already-finalized run.
		logger.Error().Err(err).
			Uint("run_id", runID).
			Str("executor", s.executor.Name()).
			Msg("agent execution failed")
		return nil
	}

	success = true
	return nil
}

// ListByCustomer returns the customer's runs, newest first.
func (s *RunService) ListByCustomer(customerID uint) ([]models.AgentRun, error) {
	var runs []models.AgentRun
	err := s.db.Where("customer_id = ?", customerID).
		Order("started_at DESC").
		Find(&runs).Error
	if err != nil {
		return nil, err
	}
	if runs == nil {
		runs = []models.AgentRun{}
	}
	return runs, nil
}

// RunSummary aggregates a customer's run history.
type RunSummary struct {
	TotalRuns    int64   `json:"total_runs"`
	TotalCostUSD float64 `json:"total_cost_usd"`
	AvgCostUSD   float64 `json:"avg_cost_usd"`
	SuccessRate  float64 `json:"success_rate"`
}

// SummaryByCustomer returns run counts, cost totals and success rate
// for one customer. All figures are zero when the customer has no runs.
func (s *RunService) SummaryByCustomer(customerID uint) (*RunSummary, error) {
	var summary RunSummary

	err := s.db.Model(&models.AgentRun{}).
		Where("customer_id = ?", customerID).
		Count(&summary.TotalRuns).Error
	if err != nil {
		return nil, err
	}
	if summary.TotalRuns == 0 {
		return &summary, nil
	}

	err = s.db.Model(&models.AgentRun{}).
		Where("customer_id = ?", customerID).
		Select("COALESCE(SUM(cost_usd), 0)").
		Scan(&summary.TotalCostUSD).Error
	if err != nil {
		return nil, err
	}

	var successCount int64
	err = s.db.Model(&models.AgentRun{}).
		Where("customer_id = ? AND success = ?", customerID, true).
		Count(&successCount).Error
	if err != nil {
		return nil, err
	}

	summary.AvgCostUSD = summary.TotalCostUSD / float64(summary.TotalRuns)
	summary.SuccessRate = float64(successCount) / float64(summary.TotalRuns)
	return &summary, nil
}
