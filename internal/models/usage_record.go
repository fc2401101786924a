package models

import "time"

// UsageRecord is one append-only ledger entry for a metered API call.
// Records are never updated or deleted once written.
type UsageRecord struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       string    `gorm:"size:128;index:idx_usage_user_provider" json:"user_id"`
	Provider     string    `gorm:"size:32;index;index:idx_usage_user_provider" json:"provider"`
	Model        string    `gorm:"size:128" json:"model"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	Calls        int       `gorm:"default:1" json:"calls"`
	Cost         float64   `json:"cost"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

func (UsageRecord) TableName() string { return "usage_records" }

// TotalTokens returns input plus output tokens, each clamped at zero.
func (u *UsageRecord) TotalTokens() int {
	in, out := u.InputTokens, u.OutputTokens
	if in < 0 {
		in = 0
	}
	if out < 0 {
		out = 0
	}
	return in + out
}
