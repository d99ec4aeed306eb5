package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shyamtrading/siteserver/internal/domain"
)

func (s *Server) listTestimonials(c echo.Context) error {
	testimonials, err := s.store.GetTestimonials(c.Request().Context())
	if err != nil {
		return failStore(c, err)
	}
	return ok(c, testimonials)
}

func (s *Server) createTestimonial(c echo.Context) error {
	var t domain.Testimonial
	if err := c.Bind(&t); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse testimonial", nil)
	}
	created, err := s.store.AddTestimonial(c.Request().Context(), t)
	if err != nil {
		return failStore(c, err)
	}
	return ok(c, created)
}

func (s *Server) updateTestimonial(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid testimonial ID", nil)
	}
	var patch map[string]interface{}
	if err := c.Bind(&patch); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse testimonial patch", nil)
	}
	updated, err := s.store.UpdateTestimonial(c.Request().Context(), id, patch)
	if err != nil {
		return failStore(c, err)
	}
	if updated == nil {
		return fail(c, http.StatusNotFound, "TESTIMONIAL_NOT_FOUND", "Testimonial not found", nil)
	}
	return ok(c, updated)
}

func (s *Server) deleteTestimonial(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid testimonial ID", nil)
	}
	if err := s.store.DeleteTestimonial(c.Request().Context(), id); err != nil {
		return failStore(c, err)
	}
	return ok(c, map[string]interface{}{"id": id})
}
