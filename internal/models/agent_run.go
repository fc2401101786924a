package models

import "time"

// AgentRun is one end-to-end agent invocation for a customer. The
// rolling totals (InputTokens, OutputTokens, Calls, CostUSD) are
// incremented by the cost hooks as tool calls complete, so at any point
// they equal the sum over the run's finalized tool calls.
type AgentRun struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	CustomerID uint   `gorm:"index" json:"customer_id"`
	Prompt     string `gorm:"type:text" json:"prompt"`
	Provider   string `gorm:"size:32" json:"provider,omitempty"`
	Model      string `gorm:"size:128" json:"model,omitempty"`

	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	DurationMs *int64     `json:"duration_ms,omitempty"`
	Success    bool       `gorm:"default:false" json:"success"`

	InputTokens  int     `gorm:"default:0" json:"input_tokens"`
	OutputTokens int     `gorm:"default:0" json:"output_tokens"`
	Calls        int     `gorm:"default:0" json:"calls"`
	CostUSD      float64 `gorm:"default:0" json:"cost_usd"`

	Customer  *Customer  `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"-"`
	ToolCalls []ToolCall `gorm:"foreignKey:AgentRunID;constraint:OnDelete:CASCADE" json:"-"`
}

func (AgentRun) TableName() string { return "agent_runs" }
