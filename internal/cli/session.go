package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Sternrassler/paged-select/pkg/client"
	"github.com/Sternrassler/paged-select/pkg/metrics"
	"github.com/Sternrassler/paged-select/pkg/selection"
)

// session wires the page client, the coordinator and the optional Redis and
// metrics server for one command run.
type session struct {
	client *client.Client
	coord  *selection.Coordinator
	redis  *redis.Client
	server *http.Server
}

func newSession(ctx context.Context, opts *options) (*session, error) {
	s := &session{}

	if opts.redisURL != "" {
		rc, err := newRedisClient(opts.redisURL)
		if err != nil {
			return nil, err
		}
		if err := rc.Ping(ctx).Err(); err != nil {
			rc.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", opts.redisURL, err)
		}
		logger.Info().Str("redis", opts.redisURL).Msg("Connected to Redis")
		s.redis = rc
	}

	cfg := client.DefaultConfig(opts.baseURL, opts.userAgent)
	cfg.Redis = s.redis
	pageClient, err := client.New(cfg)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("create page client: %w", err)
	}
	s.client = pageClient

	coord, err := selection.New(pageClient, selection.Config{PageSize: opts.pageSize})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("create coordinator: %w", err)
	}
	s.coord = coord

	if opts.metricsAddr != "" {
		s.server = newMetricsServer(opts.metricsAddr, s.redis)
		go func() {
			logger.Info().Str("addr", opts.metricsAddr).Msg("Starting metrics server")
			if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("Metrics server failed")
			}
		}()
	}

	return s, nil
}

// Close stops the metrics server and releases connections.
func (s *session) Close() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			logger.Warn().Err(err).Msg("Metrics server shutdown")
		}
	}
	if s.client != nil {
		s.client.Close()
	}
	if s.redis != nil {
		s.redis.Close()
	}
}

// newRedisClient accepts either a redis:// URL or a plain host:port address.
func newRedisClient(raw string) (*redis.Client, error) {
	if strings.HasPrefix(raw, "redis://") || strings.HasPrefix(raw, "rediss://") {
		opt, err := redis.ParseURL(raw)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: raw}), nil
}

// newMetricsServer serves /health and /metrics. Health reports 503 when a
// configured Redis does not answer.
func newMetricsServer(addr string, rc *redis.Client) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler(rc))
	mux.Handle("/metrics", metrics.Handler())

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func healthHandler(rc *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rc != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := rc.Ping(ctx).Err(); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	}
}
