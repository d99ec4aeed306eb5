package adminapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/labstack/echo/v4"

	"github.com/shyamtrading/siteserver/internal/store"
)

func (s *Server) exportJSON(c echo.Context) error {
	doc, err := store.Export(c.Request().Context(), s.store)
	if err != nil {
		return failStore(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="website-export-%s.json"`, time.Now().Format("2006-01-02")))
	return c.JSON(http.StatusOK, doc)
}

func (s *Server) importJSON(c echo.Context) error {
	var doc store.ExportDocument
	if err := c.Bind(&doc); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse export document", nil)
	}
	report, err := store.Import(c.Request().Context(), s.store, &doc)
	if err != nil {
		return failStore(c, err)
	}
	return ok(c, report)
}

// exportProductsXLSX renders the product catalog as a spreadsheet for
// offline price-list editing.
func (s *Server) exportProductsXLSX(c echo.Context) error {
	products, err := s.store.GetProducts(c.Request().Context())
	if err != nil {
		return failStore(c, err)
	}

	f := excelize.NewFile()
	const sheet = "Sheet1"
	headers := []string{"ID", "Name", "Category", "Description", "Price", "Features", "In Stock", "Featured"}
	for i, h := range headers {
		f.SetCellValue(sheet, fmt.Sprintf("%c1", 'A'+i), h)
	}
	for i, p := range products {
		row := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), p.ID)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), p.Name)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), p.Category)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), p.Description)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), p.Price)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), strings.Join(p.Features, "; "))
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), p.InStock)
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), p.Featured)
	}

	c.Response().Header().Set(echo.HeaderContentType,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="products-%s.xlsx"`, time.Now().Format("2006-01-02")))
	c.Response().WriteHeader(http.StatusOK)
	return f.Write(c.Response())
}
