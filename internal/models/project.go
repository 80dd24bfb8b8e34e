package models

// Project maps an inbound webhook slug to an organization. The webhook path
// only ever reads it; events against inactive projects are ignored.
type Project struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	OrgID    uint   `gorm:"index"`
	Slug     string `gorm:"size:64;uniqueIndex"`
	IsActive bool   `gorm:"default:true"`
}
