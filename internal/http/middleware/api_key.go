package middleware

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	echo "github.com/labstack/echo/v4"
)

const ctxAPIKeyID = "api_key_id"

// APIKeyIDFromCtx returns the index of the configured key that authenticated
// the request, as set by APIKeyMiddleware.
func APIKeyIDFromCtx(c echo.Context) (string, bool) {
	id, ok := c.Get(ctxAPIKeyID).(string)
	return id, ok && id != ""
}

// APIKeyMiddleware authenticates requests using the X-API-Key header against
// the configured keys. With no keys configured every request is refused.
func APIKeyMiddleware(keys []string) echo.MiddlewareFunc {
	allowed := make([][]byte, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			allowed = append(allowed, []byte(k))
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := strings.TrimSpace(c.Request().Header.Get("X-API-Key"))
			if key == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing api key"})
			}
			for i, k := range allowed {
				if subtle.ConstantTimeCompare([]byte(key), k) == 1 {
					c.Set(ctxAPIKeyID, strconv.Itoa(i))
					return next(c)
				}
			}
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid api key"})
		}
	}
}
