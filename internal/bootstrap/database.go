package bootstrap

import (
	"fmt"

	"gorm.io/gorm"

	"tradeidea/internal/models"
)

// Migrate ensures every table the service owns exists.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	return nil
}

func allModels() []interface{} {
	return []interface{}{
		&models.AutoGenerationSchedule{},
		&models.Profile{},
		&models.Notification{},
		// Sweep history
		&models.SweepRun{},
		&models.SweepRunItem{},
	}
}
