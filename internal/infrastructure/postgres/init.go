package postgres

import (
	"log"

	"github.com/smmpanel/campaign-distribution-service/internal/config"
	"github.com/smmpanel/campaign-distribution-service/internal/infrastructure/postgres/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func MustInitDB(cfg *config.CampaignConfig) *gorm.DB {
	dsn := cfg.CampaignDB.Dsn
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to init db: %v\n", err.Error())
	}

	db.AutoMigrate(
		&models.OrderModel{},
		&models.FixedCampaignModel{},
		&models.ConversionCoefficientModel{},
		&models.CampaignAssignmentModel{},
	)

	return db
}
