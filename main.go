package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ylgguide/config"
	"ylgguide/cron"
	"ylgguide/database"
	"ylgguide/database/repository"
	"ylgguide/handlers"
	"ylgguide/middleware"
	"ylgguide/routes"
	"ylgguide/services/booking"
	"ylgguide/services/invoice"
	"ylgguide/services/notification"
	"ylgguide/services/payment"
	"ylgguide/services/storage"
	"ylgguide/services/tasks"
	"ylgguide/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	utils.InitializeLogger()
	logger := utils.GetLogger()
	defer logger.Sync()

	cfg := config.AppConfig
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Persistence.
	var db *mongo.Database
	if cfg.StoreMode == repository.ModeMongo {
		if err := database.InitDB(); err != nil {
			logger.Fatal("main: failed to connect to MongoDB", zap.Error(err))
		}
		db = database.Database()
	}
	stores, err := repository.NewStores(cfg.StoreMode, db)
	if err != nil {
		logger.Fatal("main: failed to build repositories", zap.Error(err))
	}
	if stores.Mode == repository.ModeMemory {
		logger.Warn("Running with in-memory stores; data is lost on restart")
	}

	// Redis backs webhook dedupe and the task queue when configured.
	if err := utils.InitCache(); err != nil {
		logger.Fatal("main: failed to connect to Redis", zap.Error(err))
	}
	var seen payment.SeenStore = payment.NewMemorySeenStore()
	var redisClients []*redis.Client
	if client := utils.GetCacheClient(); client != nil {
		seen = payment.NewRedisSeenStore(client)
		redisClients = append(redisClients, client)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	blobs, err := storage.NewBlobStore(ctx, storage.Options{
		Backend:        cfg.StorageBackend,
		LocalRoot:      cfg.StorageRoot,
		GCSBucket:      cfg.GCSBucket,
		GCSCredentials: cfg.GCSCredentialsFile,
		CloudinaryURL:  cfg.CloudinaryURL,
		EncryptionKey:  cfg.StorageEncryptionKey,
	})
	if err != nil {
		logger.Fatal("main: failed to initialize artifact storage", zap.Error(err))
	}

	// Invoicing.
	renderer, err := invoice.NewRenderer(cfg.Renderer, invoice.Issuer{
		Name:    cfg.CompanyName,
		GSTIN:   cfg.CompanyGSTIN,
		Address: cfg.CompanyAddress,
	})
	if err != nil {
		logger.Fatal("main: failed to initialize invoice renderer", zap.Error(err))
	}
	tokens, err := invoice.NewTokenService(cfg.TokenSecret())
	if err != nil {
		logger.Fatal("main: failed to initialize download tokens", zap.Error(err))
	}
	invoiceService := &invoice.DefaultInvoiceService{
		Repo:            stores.Invoices,
		Blobs:           blobs,
		Renderer:        renderer,
		Numberer:        &invoice.Numberer{Counter: stores.Invoices, Prefix: cfg.InvoicePrefix},
		Tokens:          tokens,
		Logger:          logger,
		LenientBackfill: cfg.InvoiceLenientBackfill,
		PublicBaseURL:   cfg.PublicBaseURL,
	}

	// Email.
	var mailer notification.Mailer = &notification.LogMailer{Logger: logger}
	if cfg.SMTPHost != "" {
		mailer = notification.NewSMTPMailer(notification.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.EmailFrom,
			FromName: cfg.EmailFromName,
		})
	} else {
		logger.Warn("SMTP_HOST not set; confirmation emails are only logged")
	}
	dispatcher := &notification.Dispatcher{
		Mailer:      mailer,
		Invoices:    invoiceService,
		Tracker:     stores.Invoices,
		Bookings:    stores.Bookings,
		MaxAttempts: cfg.EmailMaxAttempts,
		Logger:      logger,
	}

	// Payments.
	gatewaySettings := payment.Settings{
		StripeSecretKey:     cfg.StripeSecretKey,
		StripeWebhookSecret: cfg.StripeWebhookSecret,
		ForceMock:           cfg.PaymentForceMock,
	}
	gateway := payment.NewGateway(gatewaySettings, logger)

	bookingService := &booking.DefaultBookingService{
		Bookings:        stores.Bookings,
		Payments:        stores.Payments,
		Invoices:        invoiceService,
		Notifier:        dispatcher,
		Gateway:         gateway,
		Fallback:        payment.NewSimulatedGateway(logger),
		Seen:            seen,
		GSTRate:         cfg.GSTRate,
		Currency:        cfg.Currency,
		MockFallback:    cfg.PaymentMockFallback,
		AutoCapture:     cfg.SimulatedAutoCapture,
		FollowUpTimeout: cfg.FollowUpTimeout,
		Logger:          logger,
	}

	// Follow-up work: asynq when Redis is available, otherwise in-process.
	mux := tasks.NewServeMux(bookingService)
	var (
		worker   *asynq.Server
		enqueuer *tasks.AsynqEnqueuer
		inline   *tasks.InlineQueue
	)
	if cfg.RedisEnabled() {
		redisOpt := asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisQueueDB,
		}
		enqueuer = tasks.NewAsynqEnqueuer(redisOpt, cfg.FollowUpTimeout)
		bookingService.Queue = enqueuer
		worker = cron.StartWorker(redisOpt, mux, logger)
	} else {
		inline = tasks.NewInlineQueue(mux, cfg.FollowUpTimeout, logger)
		bookingService.Queue = inline
	}

	sweeper := &cron.Sweeper{
		Invoices:         invoiceService,
		Repo:             stores.Invoices,
		Queue:            bookingService.Queue,
		MaxEmailAttempts: cfg.EmailMaxAttempts,
		StaleAfter:       5 * time.Minute,
		BatchSize:        50,
		Logger:           logger,
	}
	scheduler, err := cron.StartSweep(cfg.InvoiceSweepSpec, sweeper, 2*time.Minute)
	if err != nil {
		logger.Fatal("main: failed to schedule invoice sweep", zap.Error(err))
	}

	utils.StartHealthMonitor(ctx, redisClients, database.MongoClient, 30*time.Second)

	// Handlers.
	bookingHandler := handlers.NewBookingHandler(bookingService)
	paymentHandler := handlers.NewPaymentHandler(bookingService)
	invoiceHandler := handlers.NewInvoiceHandler(bookingService, invoiceService, dispatcher)

	hb := &handlers.HandlerBundle{
		SubmitBooking: bookingHandler.SubmitBooking,
		VerifyPayment: bookingHandler.VerifyPayment,
		GetBooking:    bookingHandler.GetBooking,
		CancelBooking: bookingHandler.CancelBooking,

		PaymentWebhook: paymentHandler.Webhook,

		DownloadInvoice:     invoiceHandler.Download,
		GetInvoiceByBooking: invoiceHandler.GetByBooking,
		ResendInvoice:       invoiceHandler.Resend,
		RegenerateInvoice:   invoiceHandler.Regenerate,

		Health: handlers.HealthHandler(stores.Mode, string(payment.SelectMode(gatewaySettings))),

		MaxRequestsPerMin: cfg.MaxRequestsPerMin,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(utils.ErrorHandler())
	routes.RegisterRoutes(router, hb)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: router,
	}

	go func() {
		logger.Info("Server starting", zap.String("port", cfg.AppPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	<-scheduler.Stop().Done()
	if worker != nil {
		worker.Shutdown()
	}
	if enqueuer != nil {
		if err := enqueuer.Close(); err != nil {
			logger.Warn("Failed to close task client", zap.Error(err))
		}
	}
	if inline != nil {
		inline.Wait()
	}
	stop()
	if err := database.Close(shutdownCtx); err != nil {
		logger.Warn("Failed to disconnect MongoDB", zap.Error(err))
	}
	logger.Info("Server exiting")
}
