package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"

	"github.com/shyamtrading/siteserver/internal/store"
)

func (s *Server) listMedia(c echo.Context) error {
	media, err := s.store.GetMedia(c.Request().Context())
	if err != nil {
		return failStore(c, err)
	}
	return ok(c, media)
}

func (s *Server) uploadMedia(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Multipart field 'file' is required", nil)
	}
	src, err := fh.Open()
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to read uploaded file", nil)
	}
	defer src.Close()

	allowVideo := cast.ToBool(c.FormValue("allowVideo"))
	item, err := s.store.AddMedia(c.Request().Context(), store.MediaUpload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Category:    c.FormValue("category"),
		AllowVideo:  allowVideo,
		Body:        src,
	})
	if err != nil {
		return failStore(c, err)
	}
	return ok(c, item)
}

func (s *Server) deleteMedia(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid media ID", nil)
	}
	if err := s.store.DeleteMedia(c.Request().Context(), id); err != nil {
		return failStore(c, err)
	}
	return ok(c, map[string]interface{}{"id": id})
}
