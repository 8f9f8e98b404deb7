package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmehdipour/group-load/internal/db"
	httpSrv "github.com/jmehdipour/group-load/internal/http"
	"github.com/jmehdipour/group-load/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP ingress",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime()
		if err != nil {
			return err
		}
		defer func() { _ = rt.log.Sync() }()

		metrics.MustRegister(prometheus.DefaultRegisterer)

		st, err := rt.openStores()
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		var redisClient *redis.Client
		if rt.cfg.Redis.Addr != "" {
			redisClient, err = db.NewRedisClient(db.RedisOpts{
				Addr:        rt.cfg.Redis.Addr,
				Password:    rt.cfg.Redis.Password,
				DB:          rt.cfg.Redis.DB,
				DialTimeout: rt.cfg.Redis.DialTimeout,
			})
			if err != nil {
				return fmt.Errorf("redis connect: %w", err)
			}
			defer func() { _ = redisClient.Close() }()
		} else {
			rt.log.Warn("redis not configured, rate limiting disabled")
		}

		s, err := rt.newStreamer(cmd.Context(), st)
		if err != nil {
			return err
		}
		defer s.Close()

		if len(rt.cfg.HTTP.APIKeys) == 0 {
			rt.log.Warn("no http api keys configured, /v1 routes will refuse every request")
		}

		server := httpSrv.NewServer(rt.cfg, httpSrv.Deps{
			Streamer:   s,
			Deliveries: st.deliveries,
			Summaries:  st.summaries,
			Redis:      redisClient,
			Log:        rt.log.Named("http"),
		})

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start(rt.cfg.HTTP.Addr)
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			rt.log.Info("signal received, shutting down", zap.String("signal", sig.String()))
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(ctx)
	},
}
