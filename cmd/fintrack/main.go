package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/auth"
	"fintrack/internal/config"
	"fintrack/internal/core"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	var (
		expenseStore  services.ExpenseStore
		budgetStore   services.BudgetStore
		registryStore services.RegistryStore
		reminderStore services.ReminderStore
		reportStore   services.ReportStore
		authStore     auth.Store
	)

	switch cfg.DataBackend {
	case "sqlite":
		repo, err := storage.NewRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer repo.Close()
		expenseStore, budgetStore, registryStore, reminderStore, reportStore, authStore = repo, repo, repo, repo, repo, repo
		logger.Info("Initialized sqlite backend", "path", cfg.SQLiteDBPath)
	default:
		store := storage.NewMemoryStore()
		expenseStore, budgetStore, registryStore, reminderStore, reportStore, authStore = store, store, store, store, store, store
		logger.Info("Initialized memory backend")
	}

	// AMQP publishing is optional; a nil publisher disables it.
	var events services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		events = client
		logger.Info("AMQP publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP publishing disabled - no AMQP_URL provided")
	}

	var (
		resolver  auth.Resolver
		exchanger *auth.Exchanger
	)
	switch cfg.AuthMode {
	case "static":
		resolver = auth.NewStaticResolver(core.User{
			ID:        cfg.StaticUserID,
			Email:     cfg.StaticUserEmail,
			Name:      cfg.StaticUserName,
			CreatedAt: time.Now().UTC(),
		})
		logger.Warn("Static auth enabled - all requests act as one user", "user_id", cfg.StaticUserID)
	default:
		resolver = auth.NewSessionResolver(authStore)
		exchanger = auth.NewExchanger(authStore, cfg.IdentityProvider)
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Resolver:    resolver,
		Exchanger:   exchanger,
		Expenses:    services.NewExpenseService(expenseStore, events),
		Budgets:     services.NewBudgetService(budgetStore),
		Registry:    services.NewRegistryService(registryStore),
		Reminders:   services.NewReminderService(reminderStore, events),
		Reports:     services.NewReportService(reportStore),
		Logger:      logger,
		CORSOrigins: cfg.CORSOrigins,
		CacheSize:   cfg.CacheSize,
		CacheTTL:    cfg.CacheTTL,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting fintrack server", "port", cfg.Port, "backend", cfg.DataBackend, "auth_mode", cfg.AuthMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
