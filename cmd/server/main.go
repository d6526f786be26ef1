package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Learn-Trical-23/EE-24/internal/auth"
	"github.com/Learn-Trical-23/EE-24/internal/config"
	"github.com/Learn-Trical-23/EE-24/internal/db"
	"github.com/Learn-Trical-23/EE-24/internal/events"
	"github.com/Learn-Trical-23/EE-24/internal/eventsync"
	campusgrpc "github.com/Learn-Trical-23/EE-24/internal/grpc"
	internalhttp "github.com/Learn-Trical-23/EE-24/internal/http"
	"github.com/Learn-Trical-23/EE-24/internal/jobs"
	"github.com/Learn-Trical-23/EE-24/internal/logging"
	"github.com/Learn-Trical-23/EE-24/internal/metrics"
	"github.com/Learn-Trical-23/EE-24/internal/profiles"
	"github.com/Learn-Trical-23/EE-24/internal/requests"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New("info", "development")
		bootLog.Fatal().Err(err).Msg("config load failed")
	}
	logger := logging.New(cfg.LogLevel, cfg.Env).With().Str("service", "campus-api").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MigrateOnStart {
		if err := db.Migrate(cfg.DatabaseURL, "up"); err != nil {
			logger.Fatal().Err(err).Msg("migrations failed")
		}
		logger.Info().Msg("migrations applied")
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("db connection failed")
	}
	defer pool.Close()
	store := db.NewStore(pool)

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			logger.Fatal().Err(err).Msg("redis ping failed")
		}
		cancel()
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn().Err(err).Msg("redis close error")
			}
		}()
	}

	var tokenOpts []auth.Option
	if cfg.TokenRevocation {
		tokenOpts = append(tokenOpts, auth.WithRevocationList(auth.NewRedisRevocationList(redisClient, cfg.TokenTTL)))
	}
	tokens, err := auth.NewIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL, tokenOpts...)
	if err != nil {
		logger.Fatal().Err(err).Msg("token issuer init failed")
	}

	publisher := newPublisher(cfg, store, redisClient)
	m := metrics.New()

	eventService := events.NewService(store, publisher, m, logging.Component(logger, "events"), events.WithDegrade(cfg.EventsListDegrade))
	var reporter *campusgrpc.HealthReporter
	cleanup := jobs.NewCleanup(store, publisher, m, logging.Component(logger, "cleanup"), cfg.CleanupInterval, cfg.CleanupTimeout,
		jobs.WithOnRun(func(status jobs.Status) { reporter.Observe(status) }))
	var source campusgrpc.CleanupStatusSource
	if cfg.CleanupEnabled {
		source = cleanup
	}
	reporter = campusgrpc.NewHealthReporter(source, cfg.CleanupStaleAfter, healthCheckInterval(cfg), logging.Component(logger, "grpc"))
	if cfg.CleanupEnabled {
		cleanup.Start(ctx)
	}

	server := internalhttp.NewServer(*cfg, logging.Component(logger, "http"), internalhttp.Deps{
		Tokens:    tokens,
		Directory: profiles.NewDirectory(store, logging.Component(logger, "profiles")),
		Requests:  requests.NewWorkflow(store, logging.Component(logger, "requests")),
		Events:    eventService,
		Cleanup:   cleanup,
		Catalog:   store,
		Metrics:   m,
	})
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Str("change_feed", cfg.ChangeFeed).Msg("http listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	grpcServer, err := campusgrpc.NewServer(reporter, cfg.ServiceAuthToken)
	if err != nil {
		logger.Fatal().Err(err).Msg("grpc init failed")
	}
	if cfg.GRPCAddr != "" {
		go reporter.Run(ctx)
		go func() {
			listener, err := net.Listen("tcp", cfg.GRPCAddr)
			if err != nil {
				logger.Fatal().Err(err).Msg("grpc listen error")
			}
			logger.Info().Str("addr", cfg.GRPCAddr).Msg("grpc listening")
			if err := grpcServer.Serve(listener); err != nil {
				logger.Fatal().Err(err).Msg("grpc server error")
			}
		}()
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
	}
	grpcServer.GracefulStop()
	logger.Info().Msg("stopped")
}

// healthCheckInterval re-evaluates the cleanup health well inside the staleness window.
func healthCheckInterval(cfg *config.Config) time.Duration {
	return min(cfg.CleanupInterval, cfg.CleanupStaleAfter/3, 30*time.Second)
}

func newPublisher(cfg *config.Config, store *db.Store, redisClient *redis.Client) eventsync.Publisher {
	switch cfg.ChangeFeed {
	case config.ChangeFeedPostgres:
		return eventsync.NewPostgresPublisher(store.Pool, cfg.EventsChannel)
	case config.ChangeFeedRedis:
		return eventsync.NewRedisPublisher(redisClient, cfg.EventsChannel)
	default:
		return eventsync.NopPublisher{}
	}
}

