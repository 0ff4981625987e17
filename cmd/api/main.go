package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"lojavirtual/internal/config"
	"lojavirtual/internal/db"
	"lojavirtual/internal/httpserver"
	"lojavirtual/internal/logging"
	"lojavirtual/internal/promotion"
	"lojavirtual/internal/ratelimit"
	cartrepo "lojavirtual/internal/repository/cart"
	productrepo "lojavirtual/internal/repository/product"
	tokenrepo "lojavirtual/internal/repository/token"
	userrepo "lojavirtual/internal/repository/user"
	authsvc "lojavirtual/internal/service/auth"
	cartsvc "lojavirtual/internal/service/cart"
	productsvc "lojavirtual/internal/service/product"
	"lojavirtual/internal/telemetry"
	"lojavirtual/internal/validation"
)

func main() {
	bootLogger := logging.New(os.Stdout, "", "info")
	cfg, err := config.FromEnv()
	if err != nil {
		bootLogger.Fatal().Err(err).Msg("load config")
	}
	logger := logging.Component(logging.New(os.Stdout, cfg.Env, cfg.LogLevel), "api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbpool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to db")
	}
	defer dbpool.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	business := telemetry.NewBusinessMetrics(reg)

	repoLogger := logging.Component(logger, "repository")
	productRepo := productrepo.NewPostgres(dbpool, &repoLogger)
	cartRepo := cartrepo.NewPostgres(dbpool, &repoLogger)
	userRepo := userrepo.NewPostgres(dbpool)
	tokenRepo := tokenrepo.NewPostgres(dbpool)

	rule := validation.NewQuantityRule(cfg.Cart.MaxQuantity).WithLocale(cfg.DefaultLocale)

	limiter, closeLimiter, err := newLimiter(ctx, cfg.RateLimit, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init rate limiter")
	}
	defer closeLimiter()

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		ProductSvc:     productsvc.New(productRepo),
		PromotionSvc:   promotion.NewService(productRepo),
		CartSvc:        cartsvc.New(cartRepo, productRepo, rule, business),
		AuthSvc:        authsvc.New(userRepo, tokenRepo, cfg.TokenTTL),
		Limiter:        limiter,
		HTTPMetrics:    telemetry.NewHTTPMetrics(reg),
		Business:       business,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	}, httpserver.Options{
		CORSOrigins:   cfg.CORSOrigins,
		CookieSecure:  cfg.CookieSecure || cfg.IsProduction(),
		DefaultLocale: cfg.DefaultLocale,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("init server")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		purgeExpiredTokens(gctx, tokenRepo, time.Hour, logger)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		return
	}
	logger.Info().Msg("server stopped")
}

// newLimiter builds the cart write limiter for the configured backend. The
// returned func releases its resources.
func newLimiter(ctx context.Context, cfg config.RateLimitConfig, logger zerolog.Logger) (ratelimit.Limiter, func(), error) {
	bucket := ratelimit.Config{PerSecond: cfg.PerSecond, Burst: cfg.Burst}
	if cfg.Backend != "redis" {
		l := ratelimit.NewMemoryLimiter(bucket)
		go l.Run(ctx, time.Minute)
		return l, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	logger.Info().Str("addr", cfg.RedisAddr).Msg("redis rate limiter ready")
	return ratelimit.NewRedisLimiter(client, bucket), func() { _ = client.Close() }, nil
}

func purgeExpiredTokens(ctx context.Context, repo tokenrepo.Repository, every time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := repo.DeleteExpired(ctx, now)
			if err != nil {
				logger.Warn().Err(err).Msg("purge expired tokens")
				continue
			}
			if n > 0 {
				logger.Info().Int64("removed", n).Msg("purged expired tokens")
			}
		}
	}
}
