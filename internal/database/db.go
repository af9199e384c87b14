package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/javiercordova77/colchonesw-app/config"
	"github.com/javiercordova77/colchonesw-app/internal/database/models"
)

const stockTotalsView = `
CREATE OR REPLACE VIEW variant_stock_totals AS
SELECT
	v.id AS variant_id,
	COALESCE(SUM(ls.quantity), 0) AS total_quantity,
	COALESCE(SUM(ls.min_quantity), 0) AS total_min_quantity
FROM variants v
LEFT JOIN location_stocks ls ON ls.variant_id = v.id
GROUP BY v.id`

func DSN(cfg config.DBConfig) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)
}

func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	return db, nil
}

// Migrate creates the catalog tables and the stock aggregate view.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Category{},
		&models.Supplier{},
		&models.Location{},
		&models.Product{},
		&models.Variant{},
		&models.VariantColor{},
		&models.LocationStock{},
	); err != nil {
		return err
	}
	return db.Exec(stockTotalsView).Error
}
