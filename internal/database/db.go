package database

import (
	"fmt"

	"checklist-backend/internal/config"
	"checklist-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open Postgres bağlantısını açar ve tabloları migrate eder.
// Bağlantı global tutulmaz, çağıran taraf bileşenlere parametre olarak geçirir.
func Open(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("veritabanına bağlanılamadı: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info("veritabanı bağlantısı başarılı, migration tamamlandı")
	return db, nil
}

// Migrate tüm modelleri AutoMigrate eder.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Branch{},
		&models.User{},
		&models.Template{},
		&models.Item{},
		&models.ExternalLink{},
		&models.Instance{},
		&models.ItemProgress{},
		&models.LinkProgress{},
		&models.InventoryRecord{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("AutoMigrate hatası: %w", err)
	}
	return nil
}
