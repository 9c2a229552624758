package model

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog records request-lifecycle actions (send/accept/reject) and other
// important mutations.
type AuditLog struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	TraceID    string         `gorm:"index:idx_audit_trace;size:36;not null" json:"trace_id"`
	UserID     *string        `gorm:"index:idx_audit_user;size:36" json:"user_id"`
	Action     string         `gorm:"size:64;not null" json:"action"`
	TargetID   string         `gorm:"size:36" json:"target_id"`
	Request    datatypes.JSON `json:"request"`
	Error      string         `gorm:"type:text" json:"error"`
	IP         string         `gorm:"size:45" json:"ip"`
	DurationMs int            `json:"duration_ms"`
	CreatedAt  time.Time      `gorm:"index:idx_audit_created;autoCreateTime:milli" json:"created_at"`
}
