package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	cashdeskapp "github.com/lostcode-dev/cashdesk/internal/application/cashdesk"
	receivableapp "github.com/lostcode-dev/cashdesk/internal/application/receivable"
	"github.com/lostcode-dev/cashdesk/internal/domain/shared"
	"github.com/lostcode-dev/cashdesk/internal/infrastructure/auth"
	"github.com/lostcode-dev/cashdesk/internal/infrastructure/cache"
	"github.com/lostcode-dev/cashdesk/internal/infrastructure/config"
	"github.com/lostcode-dev/cashdesk/internal/infrastructure/logger"
	"github.com/lostcode-dev/cashdesk/internal/infrastructure/persistence"
	"github.com/lostcode-dev/cashdesk/internal/infrastructure/reporting"
	"github.com/lostcode-dev/cashdesk/internal/infrastructure/storage"
	"github.com/lostcode-dev/cashdesk/internal/infrastructure/telemetry"
	"github.com/lostcode-dev/cashdesk/internal/interfaces/http/handler"
	"github.com/lostcode-dev/cashdesk/internal/interfaces/http/middleware"
	"github.com/lostcode-dev/cashdesk/internal/interfaces/http/router"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Cashdesk API
//	@version		1.0
//	@description	Multi-tenant cash session and receivables settlement API

//	@contact.name	API Support
//	@contact.url	https://github.com/lostcode-dev/cashdesk

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting cashdesk",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	db, err := persistence.Open(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Distributed tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Database query tracing
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTracingCfg := telemetry.DefaultDBTracingConfig()
		dbTracingCfg.Enabled = true
		if err := db.DB.Use(telemetry.NewDBTracingPlugin(dbTracingCfg, log)); err != nil {
			log.Warn("Failed to enable database tracing", zap.Error(err))
		}
	}

	// Metrics
	meterProvider, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	// OTLP log export (zap bridge)
	loggerProvider, err := telemetry.NewLoggerProvider(context.Background(), telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Warn("Failed to initialize OTEL logger provider", zap.Error(err))
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := loggerProvider.Shutdown(ctx); err != nil {
				log.Error("Error shutting down logger provider", zap.Error(err))
			}
		}()
		// Tee application logs into the collector alongside stdout
		if loggerProvider.IsEnabled() {
			otelCore := telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
				ServiceName:    cfg.Telemetry.ServiceName,
				LoggerProvider: loggerProvider,
				Level:          zapcore.InfoLevel,
			})
			log = telemetry.NewBridgedLogger(log.Core(), otelCore,
				zap.AddCaller(),
				zap.AddStacktrace(zapcore.ErrorLevel),
			)
		}
	}

	// Database query metrics and connection pool gauges
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, telemetry.DefaultDBMetricsConfig(), log)
	if err != nil {
		log.Warn("Failed to register database metrics", zap.Error(err))
	} else if dbMetrics != nil {
		dbMetrics.StartPoolStatsCollection(context.Background())
		defer dbMetrics.Stop()
	}

	// Business metrics with periodic receivables gauge collection
	var businessMetrics *telemetry.BusinessMetrics
	if cfg.Telemetry.Enabled {
		businessMetrics, err = telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:              meterProvider.Meter("cashdesk"),
			Logger:             log,
			ReceivableProvider: telemetry.NewGormReceivableMetricsProvider(db.DB),
		})
		if err != nil {
			log.Warn("Failed to initialize business metrics", zap.Error(err))
		} else {
			businessMetrics.StartPeriodicCollection(
				context.Background(),
				telemetry.NewGormTenantProvider(db.DB),
				5*time.Minute,
			)
			defer businessMetrics.Stop()
		}
	}

	// Continuous profiling
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:             cfg.Profiling.Enabled,
		ServerAddress:       cfg.Profiling.ServerAddress,
		ApplicationName:     cfg.Profiling.ApplicationName,
		ProfileCPU:          true,
		ProfileAllocObjects: true,
		ProfileAllocSpace:   true,
	}, log)
	if err != nil {
		log.Warn("Failed to initialize profiler", zap.Error(err))
	} else if profiler != nil {
		defer func() {
			if err := profiler.Stop(); err != nil {
				log.Error("Error stopping profiler", zap.Error(err))
			}
		}()
		// Link CPU profiles to trace spans once the profiler is running
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to enable span profiles", zap.Error(err))
		}
	}

	// Initialize repositories
	sessionRepo := persistence.NewGormCashSessionRepository(db.DB)
	ledgerRepo := persistence.NewGormLedgerRepository(db.DB)
	receivableRepo := persistence.NewGormReceivableRepository(db.DB)
	receiptRepo := persistence.NewGormReceiptRepository(db.DB)
	settlementRepo := persistence.NewGormSettlementRepository(db.DB)

	// Idempotency store: Redis when available, in-memory otherwise
	idempotencyFactory := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log))
	idempotencyStore, err := idempotencyFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	// Closing statement reporting pipeline: headless Chrome render, S3 archive
	sessionOpts := []cashdeskapp.SessionServiceOption{
		cashdeskapp.WithIdempotencyStore(idempotencyStore, shared.IdempotencyConfig{
			TTL:     cfg.Idempotency.TTL,
			Enabled: true,
		}),
	}
	if cfg.Reporting.Enabled {
		renderer, err := reporting.NewChromedpRenderer(&reporting.ChromedpConfig{
			DefaultTimeout: cfg.Reporting.RenderTimeout,
			Logger:         log,
		})
		if err != nil {
			log.Fatal("Failed to initialize PDF renderer", zap.Error(err))
		}
		defer func() {
			if err := renderer.Close(); err != nil {
				log.Error("Error closing PDF renderer", zap.Error(err))
			}
		}()

		var objectStorage reporting.ObjectStorageService
		if cfg.Storage.Bucket == "" {
			log.Warn("No storage bucket configured, keeping closing statements in memory")
			objectStorage = storage.NewMemoryObjectStorage()
		} else {
			s3Storage, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
			if err != nil {
				log.Fatal("Failed to initialize object storage", zap.Error(err))
			}
			bucketCtx, cancelBucket := context.WithTimeout(context.Background(), 10*time.Second)
			if err := s3Storage.EnsureBucket(bucketCtx); err != nil {
				cancelBucket()
				log.Fatal("Failed to ensure statement bucket", zap.Error(err))
			}
			cancelBucket()
			objectStorage = s3Storage
		}

		statementReporter, err := reporting.NewStatementReporter(reporting.StatementReporterConfig{
			Renderer:      renderer,
			Storage:       objectStorage,
			RenderTimeout: cfg.Reporting.RenderTimeout,
			URLExpiration: cfg.Storage.PresignExpiration,
			Logger:        log,
		})
		if err != nil {
			log.Fatal("Failed to initialize statement reporter", zap.Error(err))
		}
		sessionOpts = append(sessionOpts, cashdeskapp.WithClosingStatementReporter(statementReporter))
		log.Info("Closing statement reporting enabled",
			zap.String("bucket", cfg.Storage.Bucket),
			zap.Duration("render_timeout", cfg.Reporting.RenderTimeout),
		)
	}

	// Initialize application services
	sessionService := cashdeskapp.NewSessionService(sessionRepo, ledgerRepo, settlementRepo, sessionOpts...)
	receivableService := receivableapp.NewReceivableService(receivableRepo, receiptRepo)
	settlementService := receivableapp.NewSettlementService(receivableRepo, settlementRepo, sessionRepo)

	// JWT validation for tenant-scoped API tokens. Tokens are minted by the
	// identity service; cashdesk only verifies them and honours revocations
	// published to the shared Redis.
	tokenVerifier := auth.NewTokenVerifier(cfg.JWT)
	var revocations auth.TokenRevocations
	{
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Warn("Redis unavailable, token revocation checks disabled", zap.Error(err))
			_ = rdb.Close()
		} else {
			revocations = auth.NewRedisTokenRevocations(rdb)
		}
		cancel()
	}

	// Initialize HTTP handlers
	sessionHandler := handler.NewCashSessionHandler(sessionService)
	receivableHandler := handler.NewReceivableHandler(receivableService)
	settlementHandler := handler.NewSettlementHandler(settlementService)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Tracing/Metrics/Profiling - Observability
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		ServiceName:   cfg.Telemetry.ServiceName,
		Enabled:       cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.ProfilingWithConfig(middleware.ProfilingConfig{
		Enabled:   cfg.Profiling.Enabled,
		SkipPaths: []string{"/health", "/api/v1/system/ping"},
	}))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Swagger documentation endpoint
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Apply JWT authentication middleware to API routes
	jwtConfig := middleware.JWTMiddlewareConfig{
		Verifier:    tokenVerifier,
		Revocations: revocations,
		SkipPaths: []string{
			"/api/v1/ping",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Runs after JWT so spans carry the authenticated tenant and user
	r.Use(middleware.TracingAttributeInjector())

	// Register domain handlers
	r.Register(sessionHandler).
		Register(receivableHandler).
		Register(settlementHandler)

	// System routes
	systemRoutes := router.NewDomainGroup("/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	r.Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
