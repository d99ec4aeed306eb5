package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shyamtrading/siteserver/internal/domain"
)

func (s *Server) getContent(c echo.Context) error {
	content, err := s.store.GetContent(c.Request().Context())
	if err != nil {
		return failStore(c, err)
	}
	return ok(c, content)
}

func (s *Server) saveContent(c echo.Context) error {
	var content domain.ContentData
	if err := c.Bind(&content); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse content", nil)
	}
	if err := s.store.SaveContent(c.Request().Context(), &content); err != nil {
		return failStore(c, err)
	}
	return ok(c, &content)
}

func (s *Server) saveContentSection(c echo.Context) error {
	var data map[string]interface{}
	if err := (&echo.DefaultBinder{}).BindBody(c, &data); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse section data", nil)
	}
	section := c.Param("section")
	if err := s.store.SaveContentSection(c.Request().Context(), section, data); err != nil {
		return failStore(c, err)
	}
	return ok(c, map[string]interface{}{"section": section})
}

func (s *Server) getSettings(c echo.Context) error {
	settings, err := s.store.GetSettings(c.Request().Context())
	if err != nil {
		return failStore(c, err)
	}
	return ok(c, settings)
}

func (s *Server) saveSettings(c echo.Context) error {
	var settings domain.SettingsData
	if err := c.Bind(&settings); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse settings", nil)
	}
	if err := s.store.SaveSettings(c.Request().Context(), &settings); err != nil {
		return failStore(c, err)
	}
	return ok(c, &settings)
}

func (s *Server) saveSettingsKey(c echo.Context) error {
	var value interface{}
	if err := c.Bind(&value); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse settings value", nil)
	}
	key := c.Param("key")
	if err := s.store.SaveSettingsKey(c.Request().Context(), key, value); err != nil {
		return failStore(c, err)
	}
	return ok(c, map[string]interface{}{"key": key})
}
