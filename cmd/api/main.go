package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"menu-advisor/internal/auth"
	"menu-advisor/internal/config"
	"menu-advisor/internal/confirmation"
	"menu-advisor/internal/database"
	"menu-advisor/internal/handler"
	"menu-advisor/internal/notification"
	"menu-advisor/internal/promo"
	"menu-advisor/internal/repository"
	"menu-advisor/internal/router"
	"menu-advisor/internal/sequence"
	"menu-advisor/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is fine; the environment may already be set
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting menu-advisor API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(cfg.Database.ConnectionString(), logger); err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	// Redis is only dialled when a component is configured to use it
	var rdb *redis.Client
	if cfg.Stores.UsesRedis() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("redis connection established")
	}

	counter, codeStore, usageStore := buildStores(cfg.Stores, pool, rdb, logger)

	catalog, err := buildCatalog(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize promo catalog: %w", err)
	}

	// Outbound notifications are queued and sent in the background
	notifier, err := notification.New(ctx, cfg.Notifier, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize notifier: %w", err)
	}
	dispatcher := notification.NewDispatcher(
		notifier,
		cfg.Notifier.Sender,
		cfg.Notifier.Timeout,
		logger,
		notification.WithWorkers(cfg.Notifier.Workers),
		notification.WithQueueSize(cfg.Notifier.QueueSize),
	)

	gate := confirmation.NewGate(codeStore, cfg.Confirmation.TokenSecret, logger, confirmation.WithTTL(cfg.Confirmation.TTL))
	sweeper := confirmation.NewSweeper(codeStore, cfg.Confirmation.TTL, cfg.Confirmation.SweepInterval, logger)
	sweeper.Start(ctx)

	// Initialize repositories
	orderRepo := repository.NewOrderRepository(pool, logger)
	restaurantRepo := repository.NewRestaurantRepository(pool, logger)
	userRepo := repository.NewUserRepository(pool, logger)
	dashboardRepo := repository.NewDashboardRepository(pool, logger)

	// Initialize services
	orderService := service.NewOrderService(orderRepo, restaurantRepo, userRepo, counter, gate, dispatcher, logger)
	promoService := service.NewPromoService(promo.NewGuard(usageStore, catalog, logger), logger)
	dashboardService := service.NewDashboardService(dashboardRepo, restaurantRepo, time.UTC, logger)
	counterService := service.NewCounterService(counter, logger)

	// Initialize router
	mux := router.New(
		handler.NewCommandHandler(orderService, logger),
		handler.NewPromoHandler(promoService, logger),
		handler.NewDashboardHandler(dashboardService, logger),
		handler.NewCounterHandler(counterService, logger),
		handler.NewReadinessHandler(func(ctx context.Context) error {
			return database.Ready(ctx, pool, 2*time.Second)
		}, logger),
		auth.NewAuthenticator(cfg.Auth.JWTSecret),
		cfg.Server.TrustProxy,
		logger,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		sweeper.Stop()
		_ = dispatcher.Close(context.Background())
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		sweeper.Stop()

		// Drain queued notifications before the pools close
		if err := dispatcher.Close(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("notifications dropped during shutdown")
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// buildStores selects the Postgres or Redis implementation of each shared
// state component.
func buildStores(
	cfg config.StoresConfig,
	pool *pgxpool.Pool,
	rdb *redis.Client,
	logger zerolog.Logger,
) (sequence.Counter, confirmation.Store, promo.UsageStore) {
	var (
		counter    sequence.Counter
		codeStore  confirmation.Store
		usageStore promo.UsageStore
	)

	if cfg.Counter == config.BackendRedis {
		counter = sequence.NewRedisCounter(rdb, logger)
	} else {
		counter = sequence.NewPostgresCounter(pool, logger)
	}

	if cfg.Confirmation == config.BackendRedis {
		codeStore = confirmation.NewRedisStore(rdb, logger)
	} else {
		codeStore = confirmation.NewPostgresStore(pool, logger)
	}

	if cfg.Promo == config.BackendRedis {
		usageStore = promo.NewRedisStore(rdb, logger)
	} else {
		usageStore = promo.NewPostgresStore(pool, logger)
	}

	logger.Info().
		Str("counter", cfg.Counter).
		Str("confirmation", cfg.Confirmation).
		Str("promo", cfg.Promo).
		Msg("state stores selected")

	return counter, codeStore, usageStore
}

// buildCatalog loads the promo code catalog from S3 with a local fallback.
// It returns nil when no catalog files are configured.
func buildCatalog(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (promo.Catalog, error) {
	if !cfg.Promo.CatalogEnabled() {
		logger.Info().Msg("promo catalog disabled, any code is accepted")
		return nil, nil
	}

	fileLoader := promo.NewFileLoader(cfg.Promo.DataDir, logger)

	var s3Loader promo.Loader
	if cfg.S3.Enabled {
		l, err := promo.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
		} else {
			s3Loader = l
		}
	} else {
		logger.Info().Msg("using local file system for promo catalog files (S3 disabled)")
	}

	loader := promo.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, logger)
	return promo.NewCatalog(ctx, cfg.Promo.CatalogFiles, cfg.Promo.MinMatch, loader, logger)
}
