package app

import (
	"path/filepath"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shyamtrading/siteserver/config"
)

// getDatabase opens the configured relational backend. A failed open
// returns nil; the dispatcher then serves from the local store and the
// prober reports the database unavailable.
func getDatabase(cfg config.DatabaseConfig, workdir string) *gorm.DB {
	level := logger.Silent
	if cfg.Debug {
		level = logger.Info
	}
	gormConfig := &gorm.Config{Logger: logger.Default.LogMode(level)}

	var dialector gorm.Dialector
	switch cfg.Type {
	case "sqlite":
		path := cfg.Name
		if !filepath.IsAbs(path) {
			path = filepath.Join(workdir, path)
		}
		dialector = sqlite.Open(path)
	default:
		dialector = postgres.Open(cfg.DSN())
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		zap.S().Errorf("database open failed: %v", err)
		return nil
	}
	zap.S().Infof("database connection successful, type: %s", cfg.Type)
	return db
}
