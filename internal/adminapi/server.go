// Package adminapi serves the admin HTTP surface: CRUD over the hybrid
// store, connection controls, the migration workflow, export/import and
// the realtime event stream.
package adminapi

import (
	"fmt"
	"strconv"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/shyamtrading/siteserver/config"
	"github.com/shyamtrading/siteserver/internal/events"
	"github.com/shyamtrading/siteserver/internal/store"
)

// Server wires the echo instance to the persistence facade. All data
// traffic goes through the dispatcher; only the migration and
// diagnostics endpoints reach past it to a specific backend.
type Server struct {
	cfg      *config.AppConfig
	echo     *echo.Echo
	store    *store.Dispatcher
	remote   *store.Remote // nil without database config
	migrator *store.Migrator
	bus      *events.Bus
}

func NewServer(cfg *config.AppConfig, dispatcher *store.Dispatcher, remote *store.Remote, migrator *store.Migrator, bus *events.Bus) *Server {
	s := &Server{
		cfg:      cfg,
		echo:     echo.New(),
		store:    dispatcher,
		remote:   remote,
		migrator: migrator,
		bus:      bus,
	}
	s.echo.HideBanner = true
	s.echo.Use(middleware.Recover())
	s.echo.Use(session.Middleware(sessions.NewCookieStore([]byte(cfg.Admin.SessionSecret))))
	s.echo.Use(requestLogger())
	s.routes()
	return s
}

func (s *Server) routes() {
	// Uploads from local mode are served straight off disk.
	if s.cfg.Local.MediaDir != "" {
		s.echo.Static("/media", s.cfg.Local.MediaDir)
	}

	api := s.echo.Group("/api")

	api.POST("/login", s.login)
	api.POST("/logout", s.logout)
	api.GET("/status", s.connectionStatus)

	admin := api.Group("", s.requireAuth)

	admin.POST("/reconnect", s.reconnect)
	admin.PUT("/force-local", s.setForceLocal)

	admin.GET("/products", s.listProducts)
	admin.POST("/products", s.createProduct)
	admin.PUT("/products/:id", s.updateProduct)
	admin.DELETE("/products/:id", s.deleteProduct)

	admin.GET("/categories", s.listCategories)
	admin.POST("/categories", s.createCategory)
	admin.PUT("/categories/:id", s.updateCategory)
	admin.DELETE("/categories/:id", s.deleteCategory)

	admin.GET("/testimonials", s.listTestimonials)
	admin.POST("/testimonials", s.createTestimonial)
	admin.PUT("/testimonials/:id", s.updateTestimonial)
	admin.DELETE("/testimonials/:id", s.deleteTestimonial)

	admin.GET("/content", s.getContent)
	admin.PUT("/content", s.saveContent)
	admin.PUT("/content/:section", s.saveContentSection)

	admin.GET("/settings", s.getSettings)
	admin.PUT("/settings", s.saveSettings)
	admin.PUT("/settings/:key", s.saveSettingsKey)

	admin.GET("/media", s.listMedia)
	admin.POST("/media", s.uploadMedia)
	admin.DELETE("/media/:id", s.deleteMedia)

	admin.GET("/migration/status", s.migrationStatus)
	admin.POST("/migration/run", s.migrationRun)
	admin.POST("/migration/clear-local", s.migrationClearLocal)

	admin.GET("/export", s.exportJSON)
	admin.GET("/export/products.xlsx", s.exportProductsXLSX)
	admin.POST("/import", s.importJSON)

	admin.GET("/diagnostics/orphans", s.diagnosticsOrphans)
	admin.GET("/events/stream", s.eventStream)
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	zap.L().Info("admin api listening", zap.String("addr", addr))
	return s.echo.Start(addr)
}

func (s *Server) Echo() *echo.Echo { return s.echo }

func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			zap.L().Debug("http request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", c.Response().Status))
			return err
		}
	}
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}
