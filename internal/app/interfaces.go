package app

import (
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/shyamtrading/siteserver/config"
	"github.com/shyamtrading/siteserver/internal/store"
)

// DBProvider provides database access
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// StoreProvider provides the routed persistence facade
type StoreProvider interface {
	Store() *store.Dispatcher
	Migrator() *store.Migrator
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
}
