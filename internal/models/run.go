package models

import "time"

// Run statuses
const (
	RunStatusDone   = "done"
	RunStatusFailed = "failed"
)

// PipelineRun is the persisted summary of one full pipeline run
type PipelineRun struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
	RequestID      string    `gorm:"size:64" json:"request_id"`
	UserID         string    `gorm:"index;size:128" json:"user_id"`
	Model          string    `gorm:"size:64" json:"model"`
	ServedBy       string    `gorm:"size:64" json:"served_by,omitempty"`
	UsedFallback   bool      `json:"used_fallback"`
	Debate         bool      `json:"debate"`
	Title          string    `json:"title,omitempty"`
	FinalVerdict   string    `gorm:"size:16" json:"final_verdict,omitempty"`
	ReviewDegraded bool      `json:"review_degraded"`
	Score          int       `json:"score"`
	Status         string    `gorm:"size:16;index" json:"status"`
	ErrorKind      string    `gorm:"size:16" json:"error_kind,omitempty"`
	Attempts       int       `json:"attempts"`
	DurationMS     int64     `json:"duration_ms"`
}
