package models

import "time"

// Call is one media room lifecycle. ExternalRef is derived from the upstream
// room identity and is unique per organization; the composite index is what
// makes redelivered room_started events collapse into a single row. A call is
// open until EndedAt is set and is never reopened.
type Call struct {
	ID              uint   `gorm:"primaryKey;autoIncrement"`
	OrgID           uint   `gorm:"uniqueIndex:idx_org_ref"`
	ExternalRef     string `gorm:"size:128;uniqueIndex:idx_org_ref"`
	CallerName      string `gorm:"size:128"`
	CallerPhone     string `gorm:"size:32"`
	StartedAt       time.Time
	EndedAt         *time.Time
	DurationSeconds *int
	Summary         *string `gorm:"type:text"`
	Tags            string  `gorm:"type:json"`
}

// Open reports whether the call has not yet been closed.
func (c *Call) Open() bool {
	return c.EndedAt == nil
}
