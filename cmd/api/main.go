package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/catalog-service/internal/api/http"
	"github.com/spec-kit/catalog-service/internal/api/http/handlers"
	"github.com/spec-kit/catalog-service/internal/auth"
	"github.com/spec-kit/catalog-service/internal/config"
	"github.com/spec-kit/catalog-service/internal/events"
	"github.com/spec-kit/catalog-service/internal/observability"
	"github.com/spec-kit/catalog-service/internal/persistence"
	"github.com/spec-kit/catalog-service/internal/repository"
	"github.com/spec-kit/catalog-service/internal/service"
	"github.com/spec-kit/catalog-service/internal/stats"
	"github.com/spec-kit/catalog-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()

	registry, backend, err := stats.NewRegistry(cfg.Stats.Backend, pg.PoolHandle(), redis.Client)
	if err != nil {
		logger.Fatal("failed to build stats registry", zap.Error(err))
	}
	logger.Info("stats registry ready", zap.String("backend", backend))
	interceptor := stats.NewInterceptor(registry, logger.Named("stats"), metrics, cfg.Stats.Timeout())

	routes := httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Stats:       handlers.NewStatsHandler(service.NewStatsService(registry, cfg.Stats.CaseSensitive)),
		Interceptor: interceptor,
		Metrics:     metrics,
	}

	sweeper := wireCatalog(ctx, cfg, pg, redis, logger, &routes)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, routes)

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	if sweeper != nil {
		sweeper.Wait()
	}
	_ = app.Shutdown()
}

// wireCatalog registers the account and catalog routes, which need Postgres.
// It returns the running low-stock sweeper, or nil when there is no database.
func wireCatalog(ctx context.Context, cfg *config.Config, pg *persistence.Postgres, redis *persistence.Redis, logger *zap.Logger, routes *httptransport.RouteConfig) *worker.LowStockSweeper {
	if !pg.Configured() {
		logger.Warn("catalog and account routes disabled; POSTGRES_DSN not set")
		return nil
	}
	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	productRepo := repository.NewProductRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)

	if cfg.Catalog.SeedCategories {
		if err := persistence.SeedCategories(ctx, categoryRepo, logger); err != nil {
			logger.Fatal("failed to seed categories", zap.Error(err))
		}
	}

	revocations := auth.NewMemoryRevocationStore()
	if redis.Configured() {
		revocations = auth.NewRedisRevocationStore(redis.Client)
	}
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:    userRepo,
		Revocations: revocations,
	})

	dispatcher := events.NewInMemoryDispatcher(logger.Named("events"))
	notifications := service.NewNotificationService(dispatcher, userRepo, logger.Named("notifications"), cfg.Notification, cfg.Catalog.LowStockThreshold)
	worker.StartNotificationWorker(notifications)

	productService := service.NewProductService(cfg.Catalog, service.ProductDependencies{
		ProductRepo:  productRepo,
		CategoryRepo: categoryRepo,
		Dispatcher:   dispatcher,
	})

	routes.Users = handlers.NewUsersHandler(authService)
	routes.Products = handlers.NewProductsHandler(productService)
	routes.AuthMiddleware = auth.NewAuthMiddleware(authService.TokenManager(), userRepo, authService.Revocations())
	routes.Throttle = auth.NewThrottle(cfg.Auth.LoginRatePerMinute, cfg.Auth.LoginBurst)

	sweeper := worker.NewLowStockSweeper(productRepo, notifications, notifications.Threshold(), cfg.Catalog.SweepInterval(), logger.Named("sweeper"))
	sweeper.Start(ctx)
	return sweeper
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
