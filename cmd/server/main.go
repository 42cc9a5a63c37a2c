// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"libreconsent/internal/banner"
	consenthandler "libreconsent/internal/consentlog/handler"
	"libreconsent/internal/consentlog/hasher"
	"libreconsent/internal/consentlog/service"
	"libreconsent/internal/consentlog/store"
	"libreconsent/internal/consentlog/workers/sweeper"
	"libreconsent/internal/platform/config"
	"libreconsent/internal/platform/database"
	"libreconsent/internal/platform/health"
	"libreconsent/internal/platform/kafka/producer"
	"libreconsent/internal/platform/logger"
	"libreconsent/internal/platform/metrics"
	"libreconsent/internal/platform/redis"
	httptransport "libreconsent/internal/transport/http"
	"libreconsent/pkg/secrets"
)

const countCacheKey = "libreconsent:consent_log_count"

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing libreconsent",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"retention_months", cfg.Retention.Months,
		"gtm_mode", cfg.GTMMode(),
	)

	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.DatabaseURL
	pool, err := database.New(dbCfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if pool == nil {
		log.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	defer pool.Close()

	redisCfg := redis.DefaultConfig()
	redisCfg.URL = cfg.RedisURL
	redisClient, err := redis.New(redisCfg)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	countCache := redis.NewCountCache(redisClient, countCacheKey, 5*time.Minute)

	ctx := context.Background()

	// Provision the hashing secret once; concurrent replicas converge on the
	// same value via the store's create-if-absent.
	candidate, err := secrets.Generate()
	if err != nil {
		log.Error("failed to generate secret candidate", "error", err)
		os.Exit(1)
	}
	secretStore := store.NewPostgresSecretStore(pool.DB())
	secret, err := secretStore.Ensure(ctx, candidate)
	if err != nil {
		log.Error("failed to provision consent secret", "error", err)
		os.Exit(1)
	}
	h, err := hasher.New(secret)
	if err != nil {
		log.Error("consent secret missing after provisioning", "error", err)
		os.Exit(1)
	}

	m := metrics.New()

	opts := []service.Option{
		service.WithMetrics(m),
		service.WithCountCache(countCache),
	}
	if cfg.KafkaBrokers != "" {
		mirror, err := producer.New(producer.Config{
			Brokers:         cfg.KafkaBrokers,
			DeliveryTimeout: 10 * time.Second,
		})
		if err != nil {
			log.Error("failed to create kafka producer", "error", err)
			os.Exit(1)
		}
		defer mirror.Close()
		opts = append(opts, service.WithMirror(mirror, cfg.KafkaTopic))
		log.Info("kafka mirror enabled", "topic", cfg.KafkaTopic)
	}

	svc := service.NewService(store.NewPostgres(pool.DB()), h, log, opts...)

	healthHandler := health.New(cfg.Environment)
	healthHandler.RegisterCheck("database", func() error {
		checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return pool.Health(checkCtx)
	})
	if redisClient != nil {
		healthHandler.RegisterCheck("redis", func() error {
			checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Health(checkCtx)
		})
	}

	clientConfig := banner.BuildClientConfig(cfg)
	consentHandler := consenthandler.New(svc, clientConfig, log, m)

	router := httptransport.NewRouter(httptransport.Config{
		Logger:         log,
		Consent:        consentHandler,
		Health:         healthHandler,
		AdminJWTKey:    cfg.AdminJWTKey,
		AdminTokenHash: cfg.AdminTokenHash,
		HideFromBots:   cfg.Banner.HideFromBots,
	})

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		w := sweeper.New(svc, cfg.Retention.Months,
			sweeper.WithLogger(log),
			sweeper.WithInterval(cfg.Retention.SweepInterval),
		)
		if err := w.Start(gCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
