package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpAdapter "github.com/lorrc/ticket-desk/internal/adapters/primary/http"
	mw "github.com/lorrc/ticket-desk/internal/adapters/primary/http/middleware"
	"github.com/lorrc/ticket-desk/internal/adapters/primary/websocket"
	"github.com/lorrc/ticket-desk/internal/adapters/secondary/email"
	"github.com/lorrc/ticket-desk/internal/adapters/secondary/memory"
	"github.com/lorrc/ticket-desk/internal/adapters/secondary/openai"
	"github.com/lorrc/ticket-desk/internal/adapters/secondary/postgres"
	"github.com/lorrc/ticket-desk/internal/adapters/secondary/redis"
	"github.com/lorrc/ticket-desk/internal/adapters/secondary/sqlite"
	"github.com/lorrc/ticket-desk/internal/config"
	"github.com/lorrc/ticket-desk/internal/core/ports"
	"github.com/lorrc/ticket-desk/internal/core/services"
	"github.com/lorrc/ticket-desk/internal/infrastructure/logging"
	"github.com/lorrc/ticket-desk/internal/infrastructure/scheduler"
)

func main() {
	// 1. Load Configuration
	logCfg := logging.DefaultConfig()
	cfg, err := config.Load()
	if err != nil {
		logging.NewLogger(logCfg).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logCfg.Level = cfg.Logging.Level
	logCfg.Format = cfg.Logging.Format
	logCfg.ServiceName = cfg.App.Name
	logCfg.Environment = cfg.App.Environment
	logger := logging.NewLogger(logCfg)

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"store", cfg.Store.Driver,
	)
	logger.Debug("effective configuration", "config", cfg.String())

	if err := run(cfg, logger); err != nil {
		logger.Error("service stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	// 3. Open the ticket store
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close ticket store", "error", err)
		}
	}()

	// 4. Secondary adapters
	var notifier ports.Notifier
	if cfg.Mail.Enabled() {
		notifier = email.NewSMTPNotifier(email.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.User,
			Password: cfg.Mail.Password,
			Timeout:  cfg.Reminder.SendTimeout,
		}, logger)
		logger.Info("smtp notifier configured", "host", cfg.Mail.Host, "port", cfg.Mail.Port)
	} else {
		notifier = email.NewLogNotifier(logger)
		logger.Warn("EMAIL_PASS not set, outgoing email is logged only")
	}

	var summarizer ports.Summarizer
	if cfg.AI.Enabled {
		summarizer = openai.NewSummarizer(openai.Config{
			APIKey:  cfg.AI.APIKey,
			Model:   cfg.AI.Model,
			BaseURL: cfg.AI.BaseURL,
			Timeout: cfg.AI.Timeout,
		})
		logger.Info("summarizer enabled", "model", cfg.AI.Model)
	} else {
		logger.Info("summarizer disabled, summaries use truncation")
	}

	var (
		cycleLock ports.CycleLock
		redisLock *redis.CycleLock
	)
	if cfg.Redis.Enabled() {
		redisLock = redis.NewCycleLock(redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		cycleLock = redisLock
		defer func() {
			if err := redisLock.Close(); err != nil {
				logger.Error("failed to close redis client", "error", err)
			}
		}()
	}

	// 5. Real-time hub
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	hub := websocket.NewHub(logger)
	go hub.Run(hubCtx)

	// 6. Services (Core)
	ticketService := services.NewTicketService(store, summarizer, hub, logger,
		services.WithDefaultAssignee(cfg.App.DefaultAssignee),
	)
	notificationService := services.NewNotificationService(notifier, logger)
	reminderService := services.NewReminderService(store, notifier, cycleLock, services.ReminderConfig{
		Recipient:   cfg.Reminder.Recipient,
		SendTimeout: cfg.Reminder.SendTimeout,
		Concurrency: cfg.Reminder.Concurrency,
	}, logger)

	// 7. Reminder scheduler
	sched, err := scheduler.New(cfg.Reminder.Schedule, reminderService, logger)
	if err != nil {
		return err
	}
	sched.Start()

	// 8. HTTP surface
	var rateLimiter *mw.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
		})
		defer rateLimiter.Stop()
	}

	errorHandler := httpAdapter.NewErrorHandler(logger)
	healthHandler := httpAdapter.NewHealthHandler(store, cfg.App.Version)
	if redisLock != nil {
		healthHandler.AddCheck("cycle_lock", redisLock)
	}

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		StaticDir:      cfg.Server.StaticDir,
		RateLimiter:    rateLimiter,
		Logger:         logger,
	}, httpAdapter.Handlers{
		Ticket:       httpAdapter.NewTicketHandler(ticketService, errorHandler, logger),
		Notification: httpAdapter.NewNotificationHandler(notificationService, errorHandler, logger),
		Health:       healthHandler,
		WebSocket: httpAdapter.NewWebSocketHandler(hub, httpAdapter.WebSocketConfig{
			AllowedOrigins:  cfg.WebSocket.AllowedOrigins,
			ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
			WriteBufferSize: cfg.WebSocket.WriteBufferSize,
			IsDevelopment:   cfg.IsDevelopment(),
			Timing: websocket.Timing{
				PongWait:   cfg.WebSocket.PongWait,
				PingPeriod: cfg.WebSocket.PingInterval,
			},
		}, logger),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// 9. Wait for interrupt signal or a listener failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			_ = sched.Stop(ctx)
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop accepting requests first, then the cycle, then live connections.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		logger.Error("scheduler shutdown error", "error", err)
	}
	stopHub()
	<-hub.Done()

	logger.Info("server shutdown complete")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.TicketRepository, error) {
	switch cfg.Store.Driver {
	case config.StorePostgres:
		if cfg.Database.AutoMigrate {
			if err := postgres.Migrate(cfg.Database.URL); err != nil {
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
			logger.Info("database migrations applied")
		}

		pool, err := postgres.Connect(ctx, postgres.PoolConfig{
			URL:             cfg.Database.URL,
			MaxConns:        cfg.Database.MaxOpenConns,
			MinConns:        cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("database connection established")
		return postgres.NewTicketRepository(pool), nil

	case config.StoreSQLite:
		repo, err := sqlite.Open(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("sqlite store opened", "path", cfg.Store.SQLitePath)
		return repo, nil

	default:
		logger.Warn("using in-memory ticket store, tickets are lost on restart")
		return memory.NewTicketRepository(), nil
	}
}
