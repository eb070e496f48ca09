package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"barberbridge/internal/api"
	"barberbridge/internal/config"
	"barberbridge/internal/database"
	"barberbridge/internal/domain"
	"barberbridge/internal/events"
	"barberbridge/internal/google"
	"barberbridge/internal/intent"
	"barberbridge/internal/logging"
	"barberbridge/internal/messaging"
	"barberbridge/internal/metrics"
	"barberbridge/internal/models"
	"barberbridge/internal/monitoring"
	"barberbridge/internal/notify"
	"barberbridge/internal/repository"
	"barberbridge/internal/service"
	"barberbridge/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	reporter, err := monitoring.New(cfg.Sentry, cfg.App)
	if err != nil {
		logger.Warn().Err(err).Msg("sentry disabled")
		reporter = &monitoring.Reporter{}
	}
	defer reporter.Flush(2 * time.Second)

	services, err := loadServices(cfg, &logger)
	if err != nil {
		return err
	}

	db, err := initDatabase(cfg, services, &logger)
	if err != nil {
		reporter.CaptureError(err, map[string]interface{}{"db_path": cfg.Database.Path})
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(db, cfg.Database.Path, cfg.Backup, logging.Component(&logger, "backup"))
		go backupService.Start(ctx)
	}

	redisClient := initRedis(ctx, cfg, &logger)
	if redisClient != nil {
		defer (func() { _ = repository.Close(redisClient) })()
	}
	inbound := initInboundLimiter(ctx, redisClient, &logger)

	eventBus := events.NewEventBus()
	eventBus.OnError(func(ev *events.Event, err error) {
		logger.Error().Err(err).Str("event", ev.Type).Msg("event handler failed")
	})
	kafkaForwarder := initKafka(ctx, cfg, eventBus, &logger)
	if kafkaForwarder != nil {
		defer (func() { _ = kafkaForwarder.Close() })()
	}
	initManagerNotifier(ctx, cfg, eventBus, &logger)

	// воркер синхронизации с Google Sheets (опционально)
	var syncWorker domain.SyncWorker
	if sheetsService := initGoogleSheets(ctx, cfg, &logger); sheetsService != nil {
		retryPolicy := worker.RetryPolicy{MaxRetries: 5, InitialDelay: 2 * time.Second, MaxDelay: time.Minute, BackoffFactor: 2}
		sheetsWorker := worker.NewSheetsWorker(db, sheetsService, redisClient, retryPolicy, logging.Component(&logger, "sheets-worker"))
		go sheetsWorker.Start(ctx)
		syncWorker = sheetsWorker

		if failed, err := db.GetFailedSyncTasks(ctx); err == nil && len(failed) > 0 {
			logger.Warn().Int("failed_tasks", len(failed)).Msg("sheets sync has failed tasks, see sync_queue")
		}
	}

	sender := initSender(cfg, &logger)

	ledger := service.NewAppointmentService(db, db, eventBus, syncWorker, logging.Component(&logger, "ledger"))
	classifier := intent.NewClassifier(func() time.Time { return time.Now().In(cfg.Location()) })
	router := service.NewConversationRouter(db, ledger, classifier, sender, eventBus, cfg.Shop, logging.Component(&logger, "router"))

	httpServer := api.NewHTTPServer(cfg, api.Deps{
		Ledger:        ledger,
		Conversations: router,
		Inbound:       inbound,
		Store:         db,
		Reporter:      reporter,
	}, logging.Component(&logger, "http"))

	startMetrics(ctx, cfg, &logger)

	return serve(ctx, cfg, httpServer, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	// компоненты добавляют своё поле component сами
	return cfg, *baseLogger, closer, nil
}

// loadServices reads the optional catalog file. Without it the config catalog is used.
func loadServices(cfg *config.Config, logger *zerolog.Logger) ([]models.ServiceCatalogEntry, error) {
	servicesPath := os.Getenv("SERVICES_PATH")
	if servicesPath == "" {
		servicesPath = "configs/services.yaml"
	}
	data, err := os.ReadFile(servicesPath)
	if errors.Is(err, os.ErrNotExist) {
		logger.Info().Str("services_path", servicesPath).Msg("catalog file not found, using config catalog")
		return cfg.Services, nil
	}
	if err != nil {
		logger.Error().Err(err).Str("services_path", servicesPath).Msg("read services")
		return nil, err
	}

	var servicesConfig struct {
		Services []models.ServiceCatalogEntry `yaml:"services"`
	}
	if err := yaml.Unmarshal(data, &servicesConfig); err != nil {
		logger.Error().Err(err).Str("services_path", servicesPath).Msg("parse services")
		return nil, err
	}
	if len(servicesConfig.Services) == 0 {
		return cfg.Services, nil
	}
	if err := config.ValidateServices(servicesConfig.Services); err != nil {
		logger.Error().Err(err).Msg("services validation failed")
		return nil, err
	}
	return servicesConfig.Services, nil
}

func initDatabase(cfg *config.Config, services []models.ServiceCatalogEntry, logger *zerolog.Logger) (*database.DB, error) {
	if cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			logger.Error().Err(err).Msg("create database directory")
			return nil, err
		}
	}

	db, err := database.NewDB(cfg.Database.Path, logging.Component(logger, "database"))
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}

	if err := db.SeedServices(context.Background(), services); err != nil {
		logger.Error().Err(err).Msg("seed services")
	}
	return db, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, client); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, falling back to in-memory limiter")
		_ = client.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

// initInboundLimiter prefers redis and falls back to the in-process counter.
func initInboundLimiter(ctx context.Context, redisClient *redis.Client, logger *zerolog.Logger) domain.RateLimiter {
	memory := repository.NewMemoryRateLimiter()
	go sweepLoop(ctx, memory, logger)

	if redisClient == nil {
		return memory
	}
	return repository.NewFailoverRateLimiter(repository.NewRedisRateLimiter(redisClient), memory, logging.Component(logger, "rate-limiter"))
}

func sweepLoop(ctx context.Context, memory *repository.MemoryRateLimiter, logger *zerolog.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := memory.Sweep(); n > 0 {
				logger.Debug().Int("removed", n).Msg("inbound limiter sweep")
			}
		}
	}
}

// initKafka forwards events to Kafka from its own queue, off the request path.
func initKafka(ctx context.Context, cfg *config.Config, bus *events.EventBus, logger *zerolog.Logger) *events.KafkaForwarder {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil
	}
	kafkaLogger := logging.Component(logger, "kafka")
	forwarder := events.NewKafkaForwarder(events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), kafkaLogger)
	queue := events.NewAsyncQueue(bus, "kafka", models.WorkerQueueSize, kafkaLogger)
	forwarder.Attach(queue)
	go queue.Run(ctx)
	logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("kafka forwarding enabled")
	return forwarder
}

func initManagerNotifier(ctx context.Context, cfg *config.Config, bus *events.EventBus, logger *zerolog.Logger) {
	if cfg.Telegram.BotToken == "" || len(cfg.Telegram.Managers) == 0 {
		return
	}
	bot, err := notify.NewBot(cfg.Telegram.BotToken, cfg.Telegram.Debug, cfg.Telegram.Timeout)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram notifications disabled")
		return
	}
	tgLogger := logging.Component(logger, "telegram")
	queue := events.NewAsyncQueue(bus, "telegram", models.WorkerQueueSize, tgLogger)
	notify.NewManagerNotifier(bot, cfg.Telegram.Managers, tgLogger).Attach(queue)
	go queue.Run(ctx)
	logger.Info().Int("managers", len(cfg.Telegram.Managers)).Msg("telegram notifications enabled")
}

func initGoogleSheets(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *google.SheetsService {
	if cfg.Google.CredentialsFile == "" || cfg.Google.SpreadsheetID == "" {
		return nil
	}

	sheetsService, err := google.NewSheetsService(ctx, cfg.Google.CredentialsFile, cfg.Google.SpreadsheetID, cfg.Google.SheetName, logging.Component(logger, "sheets"))
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}
	if err := sheetsService.TestConnection(ctx); err != nil {
		logger.Warn().Err(err).Msg("google sheets connection test failed, continuing without sheets")
		return nil
	}
	if err := sheetsService.EnsureHeader(ctx); err != nil {
		logger.Warn().Err(err).Msg("write sheet header")
	}
	if err := sheetsService.WarmUpCache(ctx); err != nil {
		logger.Warn().Err(err).Msg("warm up sheet row cache")
	}

	logger.Info().Msg("google sheets connected")
	return sheetsService
}

func initSender(cfg *config.Config, logger *zerolog.Logger) domain.MessageSender {
	if cfg.Messaging.BaseURL == "" {
		logger.Warn().Msg("messaging gateway not configured, replies are only logged")
		return messaging.NewNoopSender(logging.Component(logger, "messaging"))
	}
	return messaging.NewBIAClient(cfg.Messaging, logging.Component(logger, "messaging"))
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}

func serve(ctx context.Context, cfg *config.Config, httpServer *api.HTTPServer, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	logger.Info().Int("http_port", cfg.HTTP.Port).Str("shop", cfg.Shop.Name).Msg("server started")

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("server stopped")
	return nil
}
