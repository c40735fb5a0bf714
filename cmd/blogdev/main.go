// Command blogdev runs the local reference backend the blog client talks to
// during development and integration testing.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RaduPandor/Blog-Web-App/internal/cache"
	"github.com/RaduPandor/Blog-Web-App/internal/config"
	"github.com/RaduPandor/Blog-Web-App/internal/database"
	"github.com/RaduPandor/Blog-Web-App/internal/devserver"
	"github.com/RaduPandor/Blog-Web-App/internal/featureflags"
	"github.com/RaduPandor/Blog-Web-App/internal/observability"
	"github.com/RaduPandor/Blog-Web-App/internal/seed"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
)

func main() {
	port := pflag.String("port", "", "listen port (overrides DEV_PORT)")
	seedPosts := pflag.Int("seed-posts", -1, "number of demo posts to create on an empty database (overrides DEV_SEED_POSTS)")
	useRedis := pflag.Bool("redis", false, "use REDIS_URL for login rate limiting and session revocation")
	pflag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != "" {
		cfg.DevPort = *port
	}
	if *seedPosts >= 0 {
		cfg.DevSeedPosts = *seedPosts
	}
	if err := cfg.ValidateDev(); err != nil {
		log.Fatalf("Invalid dev backend configuration: %v", err)
	}

	logger := observability.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx := context.Background()
	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName:    "blogdev",
		ServiceVersion: "dev",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   1,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	db, err := database.Connect(cfg.DevDBDriver, cfg.DevDBDSN, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if _, err := seed.Run(ctx, db, seed.Options{
		AdminUsername: cfg.DevAdminUsername,
		AdminPassword: cfg.DevAdminPassword,
		Posts:         cfg.DevSeedPosts,
	}, logger); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}

	var rdb *redis.Client
	if *useRedis {
		rdb, err = cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("Redis unavailable, continuing without rate limiting", slog.String("error", err.Error()))
			rdb = nil
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	features := featureflags.NewManager(cfg.BackendFeatures)
	srv, err := devserver.New(db, devserver.Options{
		JWTSecret:       cfg.DevJWTSecret,
		SessionTTL:      7 * 24 * time.Hour,
		SecureCookies:   cfg.IsProduction(),
		AllowedOrigins:  cfg.AllowedOrigins,
		HonorCreateRole: features.Enabled(featureflags.AtomicUserRole),
		LoginLimit:      10,
		Redis:           rdb,
		Logger:          logger,
		Registry:        registry,
	})
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down dev backend...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", slog.String("error", err.Error()))
		}
		if rdb != nil {
			_ = rdb.Close()
		}
		if err := shutdownTracing(ctx); err != nil {
			logger.Error("Tracing shutdown error", slog.String("error", err.Error()))
		}
	}()

	if err := srv.Listen(":" + cfg.DevPort); err != nil {
		log.Fatal(err)
	}
}
