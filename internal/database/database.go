package database

import (
	"fmt"
	"time"

	"github.com/lingoleap/api/internal/config"
	"github.com/lingoleap/api/internal/logging"
	"github.com/lingoleap/api/internal/model"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger:         logging.NewGormLogger(log),
		NowFunc:        Now,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// Now stamps rows in UTC. Period filters compare against these stamps.
func Now() time.Time {
	return time.Now().UTC()
}

// Models lists every persisted type in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.RefreshToken{},
		&model.Result{},
		&model.Challenge{},
		&model.Achievement{},
		&model.UserAchievement{},
		&model.Language{},
		&model.VisitLog{},
		&model.DailyWord{},
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
