package services

import (
	"github.com/Dljdd/AgentHack25/internal/config"
	"github.com/Dljdd/AgentHack25/pkg/logger"
	"github.com/robfig/cron/v3"
)

// AlertScheduler periodically evaluates the configured spend threshold
// and logs a warning when the period's cost meets or exceeds it. Purely
// observational; it writes no state.
type AlertScheduler struct {
	usage *UsageService
	cfg   *config.AlertsConfig
	cron  *cron.Cron
}

func NewAlertScheduler(usage *UsageService, cfg *config.AlertsConfig) *AlertScheduler {
	return &AlertScheduler{usage: usage, cfg: cfg}
}

// Start registers the cron job. No-op when alerts are disabled.
func (s *AlertScheduler) Start() {
	if !s.cfg.Enabled {
		return
	}

	s.cron = cron.New()
	_, err := s.cron.AddFunc(s.cfg.Cron, s.check)
	if err != nil {
		logger.Errorf("[Alerts] Failed to add cron job %q: %v", s.cfg.Cron, err)
		return
	}

	s.cron.Start()
	logger.Infof("[Alerts] Scheduler started (cron: %s, period: %s, threshold: %.4f)",
		s.cfg.Cron, s.cfg.Period, s.cfg.Threshold)
}

// Stop halts the scheduler.
func (s *AlertScheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *AlertScheduler) check() {
	result, err := s.usage.OverThreshold(s.cfg.Period, s.cfg.Threshold)
	if err != nil {
		logger.Errorf("[Alerts] Threshold check failed: %v", err)
		return
	}

	if result.OverThreshold {
		logger.Warn().
			Str("period", result.Period).
			Float64("threshold", result.Threshold).
			Float64("total_cost", result.TotalCost).
			Msg("spend over threshold")
		return
	}

	logger.Debug().
		Str("period", result.Period).
		Float64("total_cost", result.TotalCost).
		Msg("spend under threshold")
}
