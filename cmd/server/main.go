package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	invoiceapp "github.com/billing/backend/internal/application/invoice"
	revenueapp "github.com/billing/backend/internal/application/revenue"
	"github.com/billing/backend/internal/domain/invoice"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/billing/backend/internal/infrastructure/auth"
	"github.com/billing/backend/internal/infrastructure/cache"
	"github.com/billing/backend/internal/infrastructure/config"
	"github.com/billing/backend/internal/infrastructure/event"
	"github.com/billing/backend/internal/infrastructure/logger"
	"github.com/billing/backend/internal/infrastructure/persistence"
	"github.com/billing/backend/internal/interfaces/http/handler"
	"github.com/billing/backend/internal/interfaces/http/middleware"
	"github.com/billing/backend/internal/interfaces/http/router"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync(log)

	log.Info("starting billing backend",
		zap.String("name", cfg.App.Name),
		zap.String("environment", cfg.App.Environment))

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", zap.Error(err))
		}
	}()

	// Repositories.
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	revenueRepo := persistence.NewGormMonthlyRevenueRepository(db.DB)

	// Event bus with idempotent projection delivery. Revenue aggregates
	// are maintained by the projection handler subscribed to invoice
	// lifecycle events.
	bus := event.NewInMemoryEventBus(log)

	idempotencyStore, err := newIdempotencyStore(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("failed to close idempotency store", zap.Error(err))
		}
	}()

	projection := revenueapp.NewProjectionHandler(revenueRepo, log)
	idempotent := event.NewIdempotentHandler(projection, idempotencyStore, shared.IdempotencyConfig{
		TTL:     cfg.Event.IdempotencyTTL,
		Enabled: cfg.Event.IdempotencyEnabled,
	}, log)
	bus.Subscribe(idempotent, invoice.LifecycleEventTypes()...)

	// Application services.
	invoiceService := invoiceapp.NewService(invoiceRepo, bus, log)
	dashboardService := revenueapp.NewDashboardService(revenueRepo, log)
	recalculationService := revenueapp.NewRecalculationService(invoiceRepo, revenueRepo, log)

	jwtService := auth.NewJWTService(cfg.JWT)

	engine := buildEngine(cfg, log)
	engine.GET("/health", healthHandler(db))

	setupRoutes(engine, cfg, jwtService, invoiceService, dashboardService, recalculationService)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	shutdownTimeout := cfg.HTTP.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}

	log.Info("server stopped")
}

func buildEngine(cfg *config.Config, log *zap.Logger) *gin.Engine {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSOrigins
	engine.Use(middleware.CORSWithConfig(corsConfig))

	return engine
}

func newIdempotencyStore(cfg *config.Config, log *zap.Logger) (shared.IdempotencyStore, error) {
	if !cfg.Event.UseRedis {
		log.Info("using in-memory idempotency store")
		return cache.NewInMemoryIdempotencyStore(), nil
	}
	log.Info("using redis idempotency store", zap.String("addr", cfg.Redis.Addr()))
	return cache.NewRedisIdempotencyStore(cache.RedisOptions{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(
	engine *gin.Engine,
	cfg *config.Config,
	jwtService *auth.JWTService,
	invoiceService *invoiceapp.Service,
	dashboardService *revenueapp.DashboardService,
	recalculationService *revenueapp.RecalculationService,
) {
	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.SkipPaths = append(jwtConfig.SkipPaths,
		"/api/v1/system/ping",
		"/api/v1/system/info",
	)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	billing := router.NewDomainGroup("billing", "")
	billing.GET("/invoices", invoiceHandler.List)
	billing.POST("/invoices", invoiceHandler.Create)
	billing.GET("/invoices/:id", invoiceHandler.Get)
	billing.PUT("/invoices/:id", invoiceHandler.Update)
	billing.DELETE("/invoices/:id", invoiceHandler.Delete)

	dashboardHandler := handler.NewDashboardHandler(dashboardService, recalculationService)
	revenue := router.NewDomainGroup("revenue", "/revenue")
	revenue.GET("/rolling-year", dashboardHandler.GetRollingYearRevenue)
	revenue.POST("/recalculate", dashboardHandler.Recalculate)

	systemHandler := handler.NewSystemHandler()
	system := router.NewDomainGroup("system", "/system")
	system.GET("/info", systemHandler.GetSystemInfo)
	system.GET("/ping", systemHandler.Ping)

	r.Register(billing).Register(revenue).Register(system).Setup()
}

func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "ok"
		dbStatus := "up"
		code := http.StatusOK
		if err := db.Ping(); err != nil {
			status = "degraded"
			dbStatus = "down"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":   status,
			"database": dbStatus,
			"time":     time.Now().UTC().Format(time.RFC3339),
		})
	}
}
