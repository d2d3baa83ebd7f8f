package database

import (
	"modulyn/internal/models"
	"modulyn/pkg/logger"
)

// Migrate 执行数据库迁移
func Migrate() error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting database migration...")

	err := DB.AutoMigrate(
		&models.Organization{},
		&models.User{},
		&models.Contact{},
		&models.Lead{},
		&models.Deal{},
		&models.Property{},
		&models.Task{},
		&models.Member{},
		&models.Event{},
		&models.EventRegistration{},
		&models.EmailTemplate{},
		&models.EmailCampaign{},
		&models.CampaignMetrics{},
		&models.Notification{},
	)

	if err != nil {
		appLogger.Errorf("Database migration failed: %v", err)
		return err
	}

	appLogger.Info("Database migration completed successfully")
	return nil
}
