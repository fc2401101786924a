package models

import "time"

// Tool call statuses.
const (
	ToolCallRunning = "running"
	ToolCallOK      = "ok"
	ToolCallError   = "error"
)

// ToolCall is one tool invocation inside an agent run. Created with
// status "running" when the tool starts and finalized exactly once when
// it ends; rows cascade-delete with their parent run.
type ToolCall struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	AgentRunID uint       `gorm:"index" json:"agent_run_id"`
	ToolName   string     `gorm:"size:255" json:"tool_name"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	DurationMs *int64     `json:"duration_ms,omitempty"`

	InputTokens  int     `gorm:"default:0" json:"input_tokens"`
	OutputTokens int     `gorm:"default:0" json:"output_tokens"`
	CostUSD      float64 `gorm:"default:0" json:"cost_usd"`
	Status       string  `gorm:"size:32" json:"status,omitempty"`

	AgentRun *AgentRun `gorm:"foreignKey:AgentRunID;constraint:OnDelete:CASCADE" json:"-"`
}

func (ToolCall) TableName() string { return "tool_calls" }
