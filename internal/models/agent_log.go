package models

import "time"

// AgentLog is the append-only audit trail: one row per verified webhook
// delivery against an active project, written whether or not reconciliation
// succeeds. Rows are never updated or deleted.
type AgentLog struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	OrgID     uint   `gorm:"index"`
	Level     string `gorm:"size:16"`
	Event     string `gorm:"size:64;index"`
	Meta      string `gorm:"type:json"`
	CreatedAt time.Time
}
