package adminapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/shyamtrading/siteserver/internal/domain"
)

func (s *Server) listProducts(c echo.Context) error {
	products, err := s.store.GetProducts(c.Request().Context())
	if err != nil {
		return failStore(c, err)
	}
	if q := strings.TrimSpace(c.QueryParam("category")); q != "" && !strings.EqualFold(q, "all") {
		filtered := products[:0]
		for _, p := range products {
			if strings.EqualFold(p.Category, q) {
				filtered = append(filtered, p)
			}
		}
		products = filtered
	}
	return ok(c, products)
}

func (s *Server) createProduct(c echo.Context) error {
	var product domain.Product
	if err := c.Bind(&product); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", nil)
	}
	created, err := s.store.AddProduct(c.Request().Context(), product)
	if err != nil {
		return failStore(c, err)
	}
	return ok(c, created)
}

func (s *Server) updateProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var patch map[string]interface{}
	if err := (&echo.DefaultBinder{}).BindBody(c, &patch); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product patch", nil)
	}
	updated, err := s.store.UpdateProduct(c.Request().Context(), id, patch)
	if err != nil {
		return failStore(c, err)
	}
	if updated == nil {
		return fail(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found", nil)
	}
	return ok(c, updated)
}

func (s *Server) deleteProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	if err := s.store.DeleteProduct(c.Request().Context(), id); err != nil {
		return failStore(c, err)
	}
	return ok(c, map[string]interface{}{"id": id})
}
