package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"outlandish/config"
	"outlandish/cron"
	"outlandish/database"
	bookingRepoPkg "outlandish/database/repository/booking"
	guideRepoPkg "outlandish/database/repository/guide"
	tourRepoPkg "outlandish/database/repository/tour"
	userRepoPkg "outlandish/database/repository/user"
	"outlandish/handlers"
	"outlandish/metrics"
	"outlandish/middleware"
	"outlandish/routes"
	"outlandish/services/booking"
	"outlandish/services/catalog"
	"outlandish/services/guide"
	"outlandish/services/notification"
	"outlandish/services/payment"
	"outlandish/services/tasks"
	"outlandish/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger := utils.GetLogger()
	defer logger.Sync()

	if cfg.StripeWebhookSecret == "" {
		logger.Warn("STRIPE_WEBHOOK_SECRET is not set; every webhook delivery will be rejected")
	}

	mongoClient, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("main: mongo connection failed", zap.Error(err))
	}
	db := mongoClient.Database(cfg.DatabaseName)

	// repositories.
	bookingRepo, err := bookingRepoPkg.NewMongoBookingRepo(db)
	if err != nil {
		logger.Fatal("main: booking repository", zap.Error(err))
	}
	tourRepo, err := tourRepoPkg.NewMongoTourRepo(db)
	if err != nil {
		logger.Fatal("main: tour repository", zap.Error(err))
	}
	guideRepo, err := guideRepoPkg.NewMongoGuideRepo(db)
	if err != nil {
		logger.Fatal("main: guide repository", zap.Error(err))
	}
	userRepo, err := userRepoPkg.NewMongoUserRepo(db)
	if err != nil {
		logger.Fatal("main: user repository", zap.Error(err))
	}

	// The catalogue works without Redis, just uncached.
	var tourCache catalog.Cache
	cacheClient, err := utils.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisCacheDB)
	if err != nil {
		logger.Warn("main: catalogue cache disabled", zap.Error(err))
	} else {
		tourCache = catalog.NewRedisCache(cacheClient)
	}
	catalogService := catalog.NewCatalogService(tourRepo, tourCache, cfg.CatalogCacheTTL, logger)

	// payments.
	checkoutBuilder := payment.NewCheckoutBuilder(
		payment.NewStripeGateway(cfg.StripeSecretKey), cfg.Currency, cfg.PublicSiteURL, logger)
	verifier := payment.NewWebhookVerifier(cfg.StripeWebhookSecret)

	// background jobs.
	queueOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisQueueDB,
	}
	queueClient := asynq.NewClient(queueOpt)
	defer queueClient.Close()

	bookingService := &booking.DefaultBookingService{
		Bookings:          bookingRepo,
		Users:             userRepo,
		Guides:            guideRepo,
		Catalog:           catalogService,
		Checkout:          checkoutBuilder,
		Verifier:          verifier,
		Receipts:          tasks.NewAsynqReceiptQueue(queueClient),
		DepositPercent:    cfg.DepositPercent,
		MinBalancePercent: cfg.MinBalancePercent,
		Logger:            logger,
	}
	guideService := &guide.DefaultGuideService{
		Guides:   guideRepo,
		Bookings: bookingRepo,
		Logger:   logger,
	}

	worker := cron.StartWorker(queueOpt, &cron.ReceiptWorker{
		Bookings: bookingRepo,
		Users:    userRepo,
		Tours:    catalogService,
		Mailer:   notification.NewMailjetMailer(cfg.MailjetAPIKey, cfg.MailjetSecretKey, cfg.MailFromEmail, cfg.MailFromName),
		Logger:   logger,
	}, logger)

	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	defer stopMonitor()
	utils.StartHealthMonitor(monitorCtx, cacheClient, mongoClient)
	metrics.Register()

	// handlers.
	tourHandler := handlers.NewTourHandler(catalogService, bookingService)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	accountHandler := handlers.NewAccountHandler(bookingService)
	guideHandler := handlers.NewGuideHandler(bookingService)
	adminHandler := handlers.NewAdminHandler(bookingService, guideService)

	handlerBundle := &handlers.HandlerBundle{
		SessionAuth: middleware.SessionAuthMiddleware(cfg.SessionSecret, cfg.SessionCookie),

		ListToursHandler: tourHandler.ListToursHandler,
		GetTourHandler:   tourHandler.GetTourHandler,
		QuoteHandler:     tourHandler.QuoteHandler,

		StartBookingHandler:  bookingHandler.StartBookingHandler,
		CompleteHandler:      bookingHandler.CompleteHandler,
		StripeWebhookHandler: bookingHandler.StripeWebhookHandler,

		ListBookingsHandler:        accountHandler.ListBookingsHandler,
		GetBookingHandler:          accountHandler.GetBookingHandler,
		PayBalanceHandler:          accountHandler.PayBalanceHandler,
		UpdatePickupHandler:        accountHandler.UpdatePickupHandler,
		RequestCancellationHandler: accountHandler.RequestCancellationHandler,

		AssignedBookingsHandler: guideHandler.AssignedBookingsHandler,

		AdminHandler: adminHandler,
	}

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logger.Fatal("main: invalid TRUSTED_PROXIES", zap.Error(err))
	}
	router.Use(utils.ErrorHandler(logger))
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin, logger, routes.WebhookPath))
	routes.RegisterRoutes(router, handlerBundle, []string{cfg.PublicSiteURL})

	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Starting server", zap.String("addr", srv.Addr))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("main: server failed to start", zap.Error(err))
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	worker.Shutdown()
	if err := mongoClient.Disconnect(ctx); err != nil {
		logger.Warn("main: mongo disconnect", zap.Error(err))
	}

	logger.Info("main: server stopped gracefully")
}
