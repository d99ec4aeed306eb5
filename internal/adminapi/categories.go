package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shyamtrading/siteserver/internal/domain"
)

func (s *Server) listCategories(c echo.Context) error {
	categories, err := s.store.GetCategories(c.Request().Context())
	if err != nil {
		return failStore(c, err)
	}
	return ok(c, categories)
}

func (s *Server) createCategory(c echo.Context) error {
	var category domain.Category
	if err := c.Bind(&category); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse category", nil)
	}
	created, err := s.store.AddCategory(c.Request().Context(), category)
	if err != nil {
		return failStore(c, err)
	}
	return ok(c, created)
}

func (s *Server) updateCategory(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid category ID", nil)
	}
	var patch map[string]interface{}
	if err := c.Bind(&patch); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse category patch", nil)
	}
	updated, err := s.store.UpdateCategory(c.Request().Context(), id, patch)
	if err != nil {
		return failStore(c, err)
	}
	if updated == nil {
		return fail(c, http.StatusNotFound, "CATEGORY_NOT_FOUND", "Category not found", nil)
	}
	return ok(c, updated)
}

func (s *Server) deleteCategory(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid category ID", nil)
	}
	if err := s.store.DeleteCategory(c.Request().Context(), id); err != nil {
		return failStore(c, err)
	}
	return ok(c, map[string]interface{}{"id": id})
}
