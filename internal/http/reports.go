package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jmehdipour/group-load/internal/model"
	"github.com/jmehdipour/group-load/internal/repository"
	echo "github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func listDeliveriesHandler(repo repository.DeliveriesRepository, log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if repo == nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "delivery audit not configured"})
		}

		limit := 50
		offset := 0
		if v := c.QueryParam("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
				limit = n
			}
		}
		if v := c.QueryParam("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}

		var outcome model.DeliveryOutcome
		if raw := strings.TrimSpace(c.QueryParam("outcome")); raw != "" {
			outcome = model.DeliveryOutcome(raw)
			if !outcome.Valid() {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid outcome"})
			}
		}

		rows, err := repo.List(
			c.Request().Context(),
			strings.TrimSpace(c.QueryParam("group_id")),
			outcome,
			limit,
			offset,
		)
		if err != nil {
			log.Error("delivery list failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"limit":   limit,
			"offset":  offset,
			"count":   len(rows),
			"results": rows,
		})
	}
}

// summaryHandler counts deliveries per outcome. since accepts RFC 3339 or a
// Go duration ("24h") and defaults to the last 24 hours.
func summaryHandler(repo repository.CHDeliveriesRepository, environment string, log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if repo == nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "analytics store not configured"})
		}

		since, err := parseSince(c.QueryParam("since"), time.Now().UTC())
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid since"})
		}
		env := strings.TrimSpace(c.QueryParam("environment"))
		if env == "" {
			env = environment
		}

		rows, err := repo.Summary(c.Request().Context(), env, since)
		if err != nil {
			log.Error("delivery summary failed", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"since":       since,
			"environment": env,
			"results":     rows,
		})
	}
}

func parseSince(v string, now time.Time) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return now.Add(-24 * time.Hour), nil
	}
	if d, err := time.ParseDuration(v); err == nil {
		return now.Add(-d), nil
	}
	return time.Parse(time.RFC3339, v)
}
