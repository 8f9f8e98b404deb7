package http

import (
	"context"
	"net/http"
	"time"

	"github.com/jmehdipour/group-load/internal/config"
	"github.com/jmehdipour/group-load/internal/http/middleware"
	"github.com/jmehdipour/group-load/internal/repository"
	"github.com/jmehdipour/group-load/internal/streamer"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// GroupStreamer is the part of *streamer.Streamer the handlers use.
type GroupStreamer interface {
	Stream(ctx context.Context, raw map[string]any) streamer.Outcome
	StreamBatchOutcomes(ctx context.Context, raws []map[string]any) []streamer.Outcome
}

// Deps are the collaborators of the server. Stores and Redis are optional;
// report routes answer 503 when their store is missing.
type Deps struct {
	Streamer   GroupStreamer
	Deliveries repository.DeliveriesRepository
	Summaries  repository.CHDeliveriesRepository
	Redis      *redis.Client
	Log        *zap.Logger
}

type Server struct {
	e   *echo.Echo
	log *zap.Logger
}

func NewServer(cfg config.Config, deps Deps) *Server {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echoMid.Recover(), requestLogger(log))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	authMW := middleware.APIKeyMiddleware(cfg.HTTP.APIKeys)
	rlMW := middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Redis:          deps.Redis,
		RPS:            cfg.RateLimit.RPS,
		KeyPrefix:      "rl:key:",
		Window:         time.Second,
		RetryAfterHint: true,
	})

	v1 := e.Group("/v1", authMW, rlMW)
	v1.POST("/groups", publishGroupHandler(deps.Streamer, log))
	v1.POST("/groups/batch", publishBatchHandler(deps.Streamer, log))
	v1.GET("/reports/deliveries", listDeliveriesHandler(deps.Deliveries, log))
	v1.GET("/reports/summary", summaryHandler(deps.Summaries, cfg.Environment, log))

	return &Server{e: e, log: log}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.e }

func (s *Server) Start(addr string) error {
	s.log.Info("http listening", zap.String("addr", addr))
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }

func requestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return echoMid.RequestLoggerWithConfig(echoMid.RequestLoggerConfig{
		LogMethod:  true,
		LogURIPath: true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(_ echo.Context, v echoMid.RequestLoggerValues) error {
			log.Debug("request",
				zap.String("method", v.Method),
				zap.String("path", v.URIPath),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	})
}
