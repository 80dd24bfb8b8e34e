package models

// Organization is a tenant. Rows are managed by the operator (seeded from
// config); this service only reads them.
type Organization struct {
	ID   uint   `gorm:"primaryKey;autoIncrement"`
	Slug string `gorm:"size:64;uniqueIndex"`
	Name string `gorm:"size:128"`
}
