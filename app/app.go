package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lmittmann/tint"

	"github.com/maviecommerce/mavie/internal/cache"
	"github.com/maviecommerce/mavie/internal/catalog"
	"github.com/maviecommerce/mavie/internal/config"
	"github.com/maviecommerce/mavie/internal/crypto"
	"github.com/maviecommerce/mavie/internal/db"
	"github.com/maviecommerce/mavie/internal/email"
	"github.com/maviecommerce/mavie/internal/handlers"
	"github.com/maviecommerce/mavie/internal/logging"
	"github.com/maviecommerce/mavie/internal/paystack"
	"github.com/maviecommerce/mavie/internal/services"
	"github.com/maviecommerce/mavie/internal/worker"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	DB            *pgxpool.Pool
	CacheProvider cache.Provider
	Handlers      *handlers.Handlers
	Worker        *worker.Worker

	sentryEnabled bool
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	sentryEnabled, err := initSentry(cfg)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg, sentryEnabled)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	database, err := db.Connect(startupCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	cacheProvider, err := cache.NewProvider(cache.Config{
		Provider:              cfg.CacheProvider,
		RedisConnectionString: cfg.RedisConnectionString,
	})
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize cache provider: %w", err)
	}

	encryptor, err := crypto.NewEncryptor(cfg.EncryptionKey)
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize encryptor: %w", err)
	}

	orderStore := db.NewOrderStore(database)
	productStore := db.NewProductStore(database)
	loyaltyStore := db.NewLoyaltyStore(database)
	paymentStore := db.NewPaymentStore(database)
	eventStore := db.NewEventStore(database)

	var emailProvider email.Provider
	if cfg.EmailEnabled() {
		emailProvider, err = email.NewProvider(email.Config{
			Provider: "resend",
			APIKey:   cfg.ResendAPIKey,
			From:     cfg.EmailFrom,
		})
		if err != nil {
			closeCacheProvider(logger, cacheProvider)
			database.Close()
			return nil, fmt.Errorf("failed to initialize email provider: %w", err)
		}
	} else {
		logger.Warn("email not configured, order notifications disabled")
	}

	emailSender := services.NewProviderEmailSender(emailProvider, cfg.ShopName, cfg.ShopURL)
	gateway := paystack.NewClient(cfg.PaystackSecretKey, cfg.PaystackBaseURL)

	orderService := services.NewOrderService(
		orderStore,
		productStore,
		loyaltyStore,
		paymentStore,
		encryptor,
		emailSender,
		logger.With("component", "order_service"),
	)
	paymentService := services.NewPaymentService(
		orderStore,
		paymentStore,
		gateway,
		orderService,
		cfg.ShopURL+"/payment/callback",
		logger.With("component", "payment_service"),
	)
	loyaltyService := services.NewLoyaltyService(loyaltyStore, logger.With("component", "loyalty_service"))
	webhookService := services.NewWebhookService(
		eventStore,
		gateway,
		orderService,
		logger.With("component", "webhook_service"),
	)
	alerter := services.NewOperatorAlerter(emailProvider, cfg.AdminEmail, cfg.ShopName, logger.With("component", "operator_alerter"))
	webhookWorker := worker.New(
		eventStore,
		webhookService,
		alerter,
		cfg.WebhookWorkers,
		cfg.WebhookQueueSize,
		logger.With("component", "webhook_worker"),
	)

	if cfg.CatalogPath != "" {
		syncer := catalog.NewSyncer(productStore)
		syncCtx := logging.WithLogger(startupCtx, logger.With("component", "catalog_syncer"))
		if _, err := syncer.SyncFromFile(syncCtx, cfg.CatalogPath); err != nil {
			closeCacheProvider(logger, cacheProvider)
			database.Close()
			return nil, fmt.Errorf("failed to sync catalog: %w", err)
		}
	}

	h, err := handlers.New(handlers.Dependencies{
		Config:         cfg,
		DB:             database,
		EventStore:     eventStore,
		CacheProvider:  cacheProvider,
		OrderService:   orderService,
		PaymentService: paymentService,
		LoyaltyService: loyaltyService,
		WebhookWorker:  webhookWorker,
		Logger:         logger,
	})
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	return &App{
		Config:        cfg,
		Logger:        logger,
		DB:            database,
		CacheProvider: cacheProvider,
		Handlers:      h,
		Worker:        webhookWorker,
		sentryEnabled: sentryEnabled,
	}, nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.CacheProvider != nil {
		closeCacheProvider(a.Logger, a.CacheProvider)
	}
	if a.DB != nil {
		a.DB.Close()
	}
	if a.sentryEnabled {
		sentry.Flush(2 * time.Second)
	}
}

func initSentry(cfg *config.Config) (bool, error) {
	if strings.TrimSpace(cfg.SentryDSN) == "" {
		return false, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		EnableTracing:    true,
		TracesSampleRate: 0.1,
		EnableLogs:       true,
	})
	if err != nil {
		return false, fmt.Errorf("failed to initialize sentry: %w", err)
	}
	return true, nil
}

func newLogger(cfg *config.Config, sentryEnabled bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var console slog.Handler
	switch strings.ToLower(strings.TrimSpace(cfg.LogFormat)) {
	case "json":
		console = slog.NewJSONHandler(os.Stdout, opts)
	default:
		console = tint.NewHandler(os.Stdout, &tint.Options{Level: cfg.LogLevel})
	}

	if !sentryEnabled {
		return slog.New(console)
	}

	sentryHandler := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   []slog.Level{slog.LevelWarn, slog.LevelError},
	}.NewSentryHandler(context.Background())

	return slog.New(logging.MultiHandler(console, sentryHandler))
}

func closeCacheProvider(logger *slog.Logger, provider cache.Provider) {
	if provider == nil {
		return
	}
	if err := provider.Close(); err != nil && logger != nil {
		logger.Warn("failed to close cache provider", "error", err)
	}
}
