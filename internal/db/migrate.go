package db

import (
	"fmt"

	"github.com/zulandar/switchboard/internal/config"
	"github.com/zulandar/switchboard/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Organization{},
		&models.Project{},
		&models.Call{},
		&models.AgentLog{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedOrgs upserts Organization and Project rows from configuration.
// Re-running with a changed config updates names and active flags in place;
// rows removed from config are left alone.
func SeedOrgs(db *gorm.DB, orgs []config.OrgConfig) error {
	for _, oc := range orgs {
		org := models.Organization{
			Slug: oc.Slug,
			Name: oc.Name,
		}
		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"name"}),
		}).Create(&org)
		if result.Error != nil {
			return fmt.Errorf("db: seed org %q: %w", oc.Slug, result.Error)
		}

		// The upsert leaves org.ID zero when the row already existed.
		if org.ID == 0 {
			if err := db.Where("slug = ?", oc.Slug).First(&org).Error; err != nil {
				return fmt.Errorf("db: reload org %q: %w", oc.Slug, err)
			}
		}

		for _, pc := range oc.Projects {
			proj := models.Project{
				OrgID:    org.ID,
				Slug:     pc.Slug,
				IsActive: pc.ProjectActive(),
			}
			result := db.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "slug"}},
				DoUpdates: clause.AssignmentColumns([]string{"org_id", "is_active"}),
			}).Create(&proj)
			if result.Error != nil {
				return fmt.Errorf("db: seed project %q: %w", pc.Slug, result.Error)
			}
		}
	}
	return nil
}
