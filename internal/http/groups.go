package http

import (
	"encoding/json"
	"net/http"

	"github.com/jmehdipour/group-load/internal/kafka"
	"github.com/jmehdipour/group-load/internal/streamer"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const maxBatchRecords = 1000

type outcomeResp struct {
	GroupID   string `json:"group_id"`
	MessageID string `json:"message_id,omitempty"`
	Published bool   `json:"published"`
	Failure   string `json:"failure,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
	Error     string `json:"error,omitempty"`
}

func toResp(o streamer.Outcome) outcomeResp {
	r := outcomeResp{
		GroupID:   o.GroupID,
		MessageID: o.MessageID,
		Published: o.OK(),
		Failure:   string(o.Failure),
	}
	if o.Err != nil {
		r.Error = o.Err.Error()
		if o.Failure == streamer.FailurePublish {
			r.ErrorKind = string(kafka.KindOf(o.Err))
		}
	}
	return r
}

// publishGroupHandler publishes one raw group object: 202 once the broker
// acknowledged it, 422 for an invalid record and 502 when publishing failed.
func publishGroupHandler(s GroupStreamer, log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var raw map[string]any
		if err := json.NewDecoder(c.Request().Body).Decode(&raw); err != nil || raw == nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "body must be a JSON object"})
		}

		out := s.Stream(c.Request().Context(), raw)
		switch out.Failure {
		case streamer.FailureNone:
			return c.JSON(http.StatusAccepted, toResp(out))
		case streamer.FailurePublish:
			log.Warn("http publish failed", zap.String("group_id", out.GroupID), zap.Error(out.Err))
			return c.JSON(http.StatusBadGateway, toResp(out))
		default:
			return c.JSON(http.StatusUnprocessableEntity, toResp(out))
		}
	}
}

// publishBatchHandler publishes a JSON array of group objects. Each record
// succeeds or fails on its own; the response is always 200 once the body
// parses.
func publishBatchHandler(s GroupStreamer, log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var raws []map[string]any
		if err := json.NewDecoder(c.Request().Body).Decode(&raws); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "body must be a JSON array of objects"})
		}
		if len(raws) > maxBatchRecords {
			return c.JSON(http.StatusRequestEntityTooLarge, map[string]any{
				"error": "too many records",
				"max":   maxBatchRecords,
			})
		}

		outcomes := s.StreamBatchOutcomes(c.Request().Context(), raws)

		results := make(map[string]bool, len(outcomes))
		details := make([]outcomeResp, 0, len(outcomes))
		published := 0
		for _, o := range outcomes {
			results[o.GroupID] = o.OK()
			details = append(details, toResp(o))
			if o.OK() {
				published++
			}
		}
		log.Info("http batch processed",
			zap.Int("records", len(outcomes)),
			zap.Int("published", published),
		)

		return c.JSON(http.StatusOK, map[string]any{
			"total":     len(outcomes),
			"published": published,
			"failed":    len(outcomes) - published,
			"results":   results,
			"outcomes":  details,
		})
	}
}
