package app

import (
	"os"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"

	"github.com/shyamtrading/siteserver/config"
	"github.com/shyamtrading/siteserver/internal/events"
	"github.com/shyamtrading/siteserver/internal/storage"
	"github.com/shyamtrading/siteserver/internal/store"
	"github.com/shyamtrading/siteserver/pkg/metrics"
)

// Application owns the long-lived pieces of the site server: the event
// bus, both storage backends, the dispatcher routing between them, and
// the background job scheduler.
type Application struct {
	appConfig  *config.AppConfig
	gormDB     *gorm.DB
	bus        *events.Bus
	local      *store.Local
	remote     *store.Remote
	probe      *store.Probe
	dispatcher *store.Dispatcher
	migrator   *store.Migrator
	objstore   *storage.Client
	realtime   *store.RealtimeBridge
	sched      *cron.Cron
}

var (
	_ DBProvider        = (*Application)(nil)
	_ ConfigProvider    = (*Application)(nil)
	_ StoreProvider     = (*Application)(nil)
	_ SchedulerProvider = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig   { return a.appConfig }
func (a *Application) DB() *gorm.DB                { return a.gormDB }
func (a *Application) Bus() *events.Bus            { return a.bus }
func (a *Application) Store() *store.Dispatcher    { return a.dispatcher }
func (a *Application) Remote() *store.Remote       { return a.remote }
func (a *Application) Migrator() *store.Migrator   { return a.migrator }
func (a *Application) Scheduler() *cron.Cron       { return a.sched }
func (a *Application) ObjectStore() *storage.Client { return a.objstore }

// OverrideDB replaces the database handle (used in tests).
func (a *Application) OverrideDB(db *gorm.DB) { a.gormDB = db }

func (a *Application) Init(cfg *config.AppConfig) error {
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	a.initLogger(cfg)

	if err := metrics.InitMetrics(cfg.System.Workdir); err != nil {
		zap.S().Warn("Failed to initialize metrics:", err)
	}

	a.bus = events.NewBus()

	a.local, err = store.NewLocal(cfg.Local, a.bus)
	if err != nil {
		return err
	}

	if cfg.Storage.Configured() {
		a.objstore, err = storage.New(cfg.Storage)
		if err != nil {
			zap.S().Warnf("object storage unavailable: %v", err)
			a.objstore = nil
		}
	}

	if cfg.Database.Configured() {
		a.gormDB = getDatabase(cfg.Database, cfg.System.Workdir)
		if a.gormDB != nil {
			if err := a.MigrateDB(false); err != nil {
				zap.S().Errorf("database migration failed: %v", err)
			}
			a.remote, err = store.NewRemote(a.gormDB, a.bus, a.objstore)
			if err != nil {
				return err
			}
		}
	}

	a.probe = store.NewProbe(a.gormDB, cfg.Database.Configured())
	a.dispatcher = store.NewDispatcher(a.local, a.remote, a.probe, a.bus)
	a.migrator = store.NewMigrator(a.local, a.remote, a.bus)

	if a.remote != nil && cfg.Database.Type == "postgres" {
		a.realtime = store.NewRealtimeBridge(cfg.Database.DSN(), a.bus)
		if err := a.realtime.Start(); err != nil {
			zap.S().Warnf("realtime bridge not started: %v", err)
			a.realtime = nil
		}
	}

	a.initJob()
	zap.S().Infof("site server initialized, serving mode: %s",
		map[bool]string{true: "database capable", false: "local only"}[a.remote != nil])
	return nil
}

func (a *Application) initLogger(cfg *config.AppConfig) {
	var zapConfig zap.Config
	if cfg.Logger.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	var logger *zap.Logger
	if cfg.Logger.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Logger.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}
		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	} else {
		var err error
		logger, err = zapConfig.Build(zap.AddCaller(), zap.AddCallerSkip(1))
		if err != nil {
			panic(err)
		}
	}
	zap.ReplaceGlobals(logger)
}

func (a *Application) MigrateDB(track bool) error {
	if track {
		return a.gormDB.Debug().Migrator().AutoMigrate(store.Tables...)
	}
	return a.gormDB.Migrator().AutoMigrate(store.Tables...)
}

func (a *Application) DropAll() {
	_ = a.gormDB.Migrator().DropTable(store.Tables...)
}

// Release releases application resources.
func (a *Application) Release() {
	if a.sched != nil {
		a.sched.Stop()
	}
	if a.realtime != nil {
		_ = a.realtime.Stop()
	}
	if a.local != nil {
		_ = a.local.Close()
	}
	_ = metrics.Close()
	_ = zap.L().Sync()
}
