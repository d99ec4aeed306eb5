package adminapi

import (
	"crypto/subtle"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const sessionName = "siteserver_admin"

type loginPayload struct {
	Password string `json:"password"`
}

func (s *Server) login(c echo.Context) error {
	var payload loginPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse login parameters", nil)
	}
	if s.cfg.Admin.Password == "" {
		return fail(c, http.StatusServiceUnavailable, "ADMIN_DISABLED", "Admin password is not configured", nil)
	}
	if subtle.ConstantTimeCompare([]byte(payload.Password), []byte(s.cfg.Admin.Password)) != 1 {
		zap.L().Warn("admin login rejected", zap.String("remote", c.RealIP()))
		return fail(c, http.StatusUnauthorized, "INVALID_PASSWORD", "Password is incorrect", nil)
	}

	sess, _ := session.Get(sessionName, c)
	sess.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	sess.Values["authenticated"] = true
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return fail(c, http.StatusInternalServerError, "SESSION_ERROR", "Unable to persist session", nil)
	}
	return ok(c, map[string]bool{"authenticated": true})
}

func (s *Server) logout(c echo.Context) error {
	sess, _ := session.Get(sessionName, c)
	sess.Options = &sessions.Options{Path: "/", MaxAge: -1}
	sess.Values = map[interface{}]interface{}{}
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return fail(c, http.StatusInternalServerError, "SESSION_ERROR", "Unable to clear session", nil)
	}
	return ok(c, map[string]bool{"authenticated": false})
}

func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := session.Get(sessionName, c)
		if err == nil {
			if v, _ := sess.Values["authenticated"].(bool); v {
				return next(c)
			}
		}
		return fail(c, http.StatusUnauthorized, "NOT_AUTHENTICATED", "Login required", nil)
	}
}
