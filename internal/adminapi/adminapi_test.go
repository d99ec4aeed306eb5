package adminapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shyamtrading/siteserver/config"
	"github.com/shyamtrading/siteserver/internal/events"
	"github.com/shyamtrading/siteserver/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	bus := events.NewBus()
	local, err := store.NewLocal(config.LocalConfig{
		Path:     filepath.Join(dir, "site.db"),
		MediaDir: filepath.Join(dir, "media"),
	}, bus)
	require.NoError(t, err)
	t.Cleanup(func() { _ = local.Close() })

	dispatcher := store.NewDispatcher(local, nil, store.NewProbe(nil, false), bus)
	migrator := store.NewMigrator(local, nil, bus)

	cfg := &config.AppConfig{}
	cfg.Admin.Password = "secret"
	cfg.Admin.SessionSecret = "test-secret"
	return NewServer(cfg, dispatcher, nil, migrator, bus)
}

func doJSON(s *Server, method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echoHeaderContentType, "application/json")
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

const echoHeaderContentType = "Content-Type"

func loginCookies(t *testing.T, s *Server) []*http.Cookie {
	t.Helper()
	rec := doJSON(s, http.MethodPost, "/api/login", `{"password":"secret"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

func TestStatusIsPublic(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(s, http.MethodGet, "/api/status", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"mode":"localStorage"`)
	assert.Contains(t, rec.Body.String(), `"connected":false`)
}

func TestDataRoutesRequireLogin(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(s, http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_AUTHENTICATED")
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(s, http.MethodPost, "/api/login", `{"password":"nope"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginThenLogout(t *testing.T) {
	s := newTestServer(t)
	cookies := loginCookies(t, s)

	rec := doJSON(s, http.MethodGet, "/api/products", "", cookies)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(s, http.MethodPost, "/api/logout", "", cookies)
	assert.Equal(t, http.StatusOK, rec.Code)

	// the cleared cookie ends the session
	rec = doJSON(s, http.MethodGet, "/api/products", "", rec.Result().Cookies())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProductCRUDOverHTTP(t *testing.T) {
	s := newTestServer(t)
	cookies := loginCookies(t, s)

	rec := doJSON(s, http.MethodGet, "/api/products", "", cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "TMT Steel Bars")

	rec = doJSON(s, http.MethodPost, "/api/products",
		`{"name":"Binding Wire","category":"Wire","price":"₹70/kg","inStock":true}`, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":5`)

	rec = doJSON(s, http.MethodPut, "/api/products/5", `{"inStock":false}`, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"inStock":false`)

	rec = doJSON(s, http.MethodPut, "/api/products/999", `{"name":"Ghost"}`, cookies)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(s, http.MethodDelete, "/api/products/5", "", cookies)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProductValidationOverHTTP(t *testing.T) {
	s := newTestServer(t)
	cookies := loginCookies(t, s)

	rec := doJSON(s, http.MethodPost, "/api/products", `{"name":"  "}`, cookies)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_FAILED")
}

func TestProductCategoryFilter(t *testing.T) {
	s := newTestServer(t)
	cookies := loginCookies(t, s)

	rec := doJSON(s, http.MethodGet, "/api/products?category=Pipes", "", cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "GI Pipes")
	assert.NotContains(t, rec.Body.String(), "TMT Steel Bars")
}

func TestContentSectionOverHTTP(t *testing.T) {
	s := newTestServer(t)
	cookies := loginCookies(t, s)

	rec := doJSON(s, http.MethodPut, "/api/content/hero", `{"title":"Fresh"}`, cookies)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(s, http.MethodGet, "/api/content", "", cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"Fresh"`)

	rec = doJSON(s, http.MethodPut, "/api/content/bogus", `{}`, cookies)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// testimonials go through their own routes, never a section save
	rec = doJSON(s, http.MethodPut, "/api/content/testimonials", `{}`, cookies)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_FAILED")
}

func TestSettingsKeyOverHTTP(t *testing.T) {
	s := newTestServer(t)
	cookies := loginCookies(t, s)

	rec := doJSON(s, http.MethodPut, "/api/settings/categories", `["All","Wire"]`, cookies)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(s, http.MethodGet, "/api/settings", "", cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Wire"`)
}

func TestMigrationEndpointsWithoutDatabase(t *testing.T) {
	s := newTestServer(t)
	cookies := loginCookies(t, s)

	rec := doJSON(s, http.MethodGet, "/api/migration/status", "", cookies)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = doJSON(s, http.MethodPost, "/api/migration/clear-local", `{"confirm":false}`, cookies)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "CONFIRMATION_REQUIRED")

	rec = doJSON(s, http.MethodGet, "/api/diagnostics/orphans", "", cookies)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestForceLocalToggleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	cookies := loginCookies(t, s)

	rec := doJSON(s, http.MethodPut, "/api/force-local", `{"forceLocal":true}`, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"forceLocal":true`)
}

func TestExportEndpoints(t *testing.T) {
	s := newTestServer(t)
	cookies := loginCookies(t, s)

	rec := doJSON(s, http.MethodGet, "/api/export", "", cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, field := range []string{`"products"`, `"content"`, `"settings"`, `"exportDate"`} {
		assert.Contains(t, rec.Body.String(), field)
	}

	rec = doJSON(s, http.MethodGet, "/api/export/products.xlsx", "", cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "products-")
	assert.NotZero(t, rec.Body.Len())
}

func TestImportEndpoint(t *testing.T) {
	s := newTestServer(t)
	cookies := loginCookies(t, s)

	body := fmt.Sprintf(`{"products":[{"name":"Imported Sheet","category":"Sheets"}],"version":%q}`, store.ExportVersion)
	rec := doJSON(s, http.MethodPost, "/api/import", body, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"products":1`)

	rec = doJSON(s, http.MethodGet, "/api/products", "", cookies)
	assert.Contains(t, rec.Body.String(), "Imported Sheet")
}

func TestEventStreamOverHTTP(t *testing.T) {
	s := newTestServer(t)
	cookies := loginCookies(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/events/stream", nil).WithContext(ctx)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()

	go func() {
		// let the handler subscribe before emitting
		time.Sleep(100 * time.Millisecond)
		s.bus.Emit(events.ProductUpdated, store.Change{Entity: store.EntityProducts})
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	s.Echo().ServeHTTP(rec, req)

	body := rec.Body.String()
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, body, "event: product-updated\n")
	assert.Contains(t, body, `data: {"type":"products"}`)
}
