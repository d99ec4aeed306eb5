package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func (s *Server) connectionStatus(c echo.Context) error {
	return ok(c, s.store.ConnectionStatus(c.Request().Context()))
}

func (s *Server) reconnect(c echo.Context) error {
	status := s.store.Reconnect(c.Request().Context())
	zap.L().Info("reconnect requested", zap.Bool("connected", status.Connected))
	return ok(c, status)
}

type forceLocalPayload struct {
	ForceLocal bool `json:"forceLocal"`
}

func (s *Server) setForceLocal(c echo.Context) error {
	var payload forceLocalPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse force-local flag", nil)
	}
	if err := s.store.SetForceLocal(payload.ForceLocal); err != nil {
		return failStore(c, err)
	}
	return ok(c, s.store.ConnectionStatus(c.Request().Context()))
}

func (s *Server) migrationStatus(c echo.Context) error {
	status, err := s.migrator.CheckStatus(c.Request().Context())
	if err != nil {
		return failStore(c, err)
	}
	return ok(c, status)
}

func (s *Server) migrationRun(c echo.Context) error {
	report, err := s.migrator.Migrate(c.Request().Context())
	if err != nil {
		return failStore(c, err)
	}
	return ok(c, report)
}

type clearLocalPayload struct {
	Confirm bool `json:"confirm"`
}

// migrationClearLocal wipes local data after a migration. The caller
// must send confirm:true; declining simply leaves local data in place.
func (s *Server) migrationClearLocal(c echo.Context) error {
	var payload clearLocalPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse confirmation", nil)
	}
	if !payload.Confirm {
		return fail(c, http.StatusBadRequest, "CONFIRMATION_REQUIRED", "Set confirm:true to clear local data", nil)
	}
	if err := s.migrator.ClearLocal(c.Request().Context()); err != nil {
		return failStore(c, err)
	}
	return ok(c, map[string]bool{"cleared": true})
}

func (s *Server) diagnosticsOrphans(c echo.Context) error {
	if s.remote == nil {
		return fail(c, http.StatusServiceUnavailable, "NOT_CONFIGURED", "Database is not configured", nil)
	}
	report, err := s.remote.OrphanSweep(c.Request().Context())
	if err != nil {
		return failStore(c, err)
	}
	return ok(c, report)
}
