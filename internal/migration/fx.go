package migration

import (
	"github.com/smallbiznis/cartsync/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		return Run(conn, cfg, log)
	}),
)

// Run brings the schema up to date: SQL migrations on postgres, model
// migration on every other dialect.
func Run(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
	log = log.Named("migration")
	if !cfg.DBAutoMigrate {
		log.Info("schema migration disabled")
		return nil
	}

	if cfg.DBType != "postgres" {
		log.Info("migrating schema from models", zap.String("dialect", cfg.DBType))
		return AutoMigrate(conn)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	log.Info("applying sql migrations")
	return RunMigrations(sqlDB)
}
