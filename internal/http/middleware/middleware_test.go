package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	echo "github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func run(t *testing.T, mw []echo.MiddlewareFunc, key string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	e := echo.New()
	var seen string
	e.GET("/x", func(c echo.Context) error {
		seen, _ = APIKeyIDFromCtx(c)
		return c.NoContent(http.StatusNoContent)
	}, mw...)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec, seen
}

func TestAPIKeyMiddleware(t *testing.T) {
	mw := []echo.MiddlewareFunc{APIKeyMiddleware([]string{"alpha", " ", "beta"})}

	rec, _ := run(t, mw, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing api key")

	rec, _ = run(t, mw, "gamma")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid api key")

	rec, id := run(t, mw, "beta")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "1", id)
}

func TestAPIKeyMiddleware_NoKeysConfigured(t *testing.T) {
	rec, _ := run(t, []echo.MiddlewareFunc{APIKeyMiddleware(nil)}, "anything")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimitMiddleware_WithoutRedisAllows(t *testing.T) {
	mw := []echo.MiddlewareFunc{
		APIKeyMiddleware([]string{"alpha"}),
		RateLimitMiddleware(RateLimitConfig{RPS: 1}),
	}
	for i := 0; i < 3; i++ {
		rec, _ := run(t, mw, "alpha")
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}
