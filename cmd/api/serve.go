package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/agrolink/agrolink_api/internal/cache"
	"github.com/agrolink/agrolink_api/internal/config"
	"github.com/agrolink/agrolink_api/internal/database"
	"github.com/agrolink/agrolink_api/internal/handler"
	"github.com/agrolink/agrolink_api/internal/lock"
	"github.com/agrolink/agrolink_api/internal/metrics"
	"github.com/agrolink/agrolink_api/internal/middleware"
	"github.com/agrolink/agrolink_api/internal/mq"
	"github.com/agrolink/agrolink_api/internal/otp"
	"github.com/agrolink/agrolink_api/internal/repository"
	"github.com/agrolink/agrolink_api/internal/service"
	"github.com/agrolink/agrolink_api/internal/sms"
	"github.com/agrolink/agrolink_api/internal/sse"
	"github.com/agrolink/agrolink_api/internal/storage"
	"github.com/agrolink/agrolink_api/internal/utils"
	"github.com/agrolink/agrolink_api/internal/worker"
	"github.com/agrolink/agrolink_api/pkg/imagegen"
	"github.com/agrolink/agrolink_api/pkg/textbee"
)

var skipMigrations bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and background workers",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply pending migrations on startup")
	rootCmd.AddCommand(serveCmd)
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health    *handler.HealthHandler
	SMS       *handler.SMSHandler
	Product   *handler.ProductHandler
	AdminUser *handler.AdminUserHandler
	SSE       *handler.SSEHandler
}

func runServe(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting agrolink api")
	utils.SetJWTSecret(cfg.JWTSecret)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	// 3a. Run migrations
	if !skipMigrations {
		if err := database.RunMigrations(db.DB, database.DefaultMigrationsURL); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		log.Info().Msg("migrations completed successfully")
	}

	checks := map[string]handler.HealthCheck{
		"database": func(ctx context.Context) error { return db.PingContext(ctx) },
	}

	// 3b. Per-phone lock
	var locker lock.Locker
	switch cfg.Lock.Backend {
	case "redis":
		redisClient, err := cache.NewRedisClient(&cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		defer redisClient.Close()
		locker = lock.NewRedisLocker(redisClient, cfg.Lock.TTL)
		checks["redis"] = redisClient.Ping
		log.Info().Msg("redis lock backend enabled")
	default:
		locker = lock.NewKeyedMutex()
	}

	m := metrics.New()

	// 4. Repositories
	userRepo := repository.NewUserRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)
	productRepo := repository.NewProductRepository(db)

	// 5. Outbound clients
	smsClient := textbee.NewClient(cfg.TextBee.BaseURL, cfg.TextBee.APIKey, cfg.TextBee.DeviceID, cfg.SMS.SendTimeout)
	if !smsClient.Configured() {
		log.Warn().Msg("TextBee credentials missing - replies will be logged and dropped")
	}
	imageClient := imagegen.NewClient(cfg.ImageGen.BaseURL, cfg.ImageGen.APIKey, cfg.ImageGen.Model, cfg.ImageGen.Timeout)
	if !imageClient.Configured() {
		log.Warn().Msg("Image generation not configured - products will be listed without pictures")
	}

	objectStore, err := storage.New(ctx, cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Object storage initialization failed - generated images will not be uploaded")
		objectStore = nil
	} else if objectStore != nil {
		log.Info().Str("backend", objectStore.Backend()).Msg("object storage enabled")
	}

	// 6. Events
	hub := sse.NewHub()
	events := service.FanoutNotifier{sse.NewHubNotifier(hub)}
	if cfg.AMQP.URL != "" {
		publisher, err := mq.NewPublisher(cfg.AMQP)
		if err != nil {
			log.Warn().Err(err).Msg("RabbitMQ unavailable - product events will not be published")
		} else {
			defer publisher.Close()
			events = append(events, publisher)
		}
	}

	// 7. Services and workers
	imageSvc := service.NewImageService(productRepo, imageClient, objectStore, m)
	imageWorker := worker.NewImageWorker(
		imageSvc, productRepo,
		cfg.Worker.ImageInterval,
		cfg.Worker.ImageMaxAttempts,
		cfg.Worker.ImageQueueSize,
		cfg.Worker.ImageJobTimeout,
	)
	ingestion := service.NewProductIngestion(productRepo, events, imageWorker, m)

	limiter := service.NewRateLimiter(attemptRepo,
		service.Limit{Max: cfg.SMS.AttemptLimit, Window: cfg.SMS.AttemptWindow},
		service.Limit{Max: cfg.SMS.OTPResendLimit, Window: cfg.SMS.AttemptWindow},
		m,
	)
	registration := service.NewRegistrationService(
		userRepo,
		limiter,
		otp.NewIssuer(cfg.SMS.OTPTTL),
		service.NewNotifier(smsClient, cfg.SMS.SendTimeout, m),
		ingestion,
		events,
		locker,
		sms.NewClassifier(cfg.SMS.Trigger, otp.DefaultLength),
		m,
	)

	// 8. Handlers and middleware
	handlers := &Handlers{
		Health:    handler.NewHealthHandler(checks),
		SMS:       handler.NewSMSHandler(registration),
		Product:   handler.NewProductHandler(service.NewProductService(productRepo)),
		AdminUser: handler.NewAdminUserHandler(service.NewUserService(userRepo)),
		SSE:       handler.NewSSEHandler(hub),
	}

	failures := middleware.NewFailureLimiter(10, 15*time.Minute)
	defer failures.Stop()
	sigMw := middleware.NewSignatureMiddleware(cfg.TextBee.SigningSecret, cfg.SMS.RequireSignature, failures)
	jwtMw := middleware.NewJWTMiddleware(failures)

	// 9. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware(m))
	router.GET("/metrics", gin.WrapH(m.Handler()))
	setupRoutes(router, handlers, sigMw, jwtMw)

	// 10. Start workers
	go imageWorker.Start(ctx)
	go worker.NewPurgeWorker(attemptRepo, cfg.Worker.PurgeInterval, cfg.SMS.AttemptWindow).Start(ctx)

	// 11. Start HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// 12. Wait for interrupt signal
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}
	stop()
	log.Info().Msg("Shutting down server...")

	// 13. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
	return nil
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, sigMw *middleware.SignatureMiddleware, jwtMw *middleware.JWTMiddleware) {
	// Inbound SMS gateway webhook
	router.POST("/api/sms/receive", sigMw.Handle(), handlers.SMS.Receive)

	// Public catalogue
	router.GET("/api/products", handlers.Product.GetProducts)
	router.GET("/api/products/:id", handlers.Product.GetProduct)

	router.GET("/v1/health", handlers.Health.GetHealth)

	// The SSE stream authenticates from the query string
	router.GET("/v1/admin/sse", handlers.SSE.Stream)

	admin := router.Group("/v1/admin")
	admin.Use(jwtMw.Handle())
	{
		admin.GET("/sms-users", handlers.AdminUser.ListSMSUsers)
	}
}
