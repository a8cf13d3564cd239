// Package main - точка входа для API сервера MoodGarden Hub.
//
// Сервис отдаёт лидерборды мини-приложения MoodGarden: дневник настроения,
// где записи выращивают сад, а рейтинги показывают уровень, серию чекинов
// и коллекцию элементов сада.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: чистая бизнес-логика ранжирования без внешних зависимостей
// - Application: оркестрация запросов (CQRS read side)
// - Infrastructure: PostgreSQL (Supabase) и Redis
// - Interface: HTTP endpoints
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/moodgarden/moodgarden-hub/config"
	"github.com/moodgarden/moodgarden-hub/internal/application/query"
	"github.com/moodgarden/moodgarden-hub/internal/infrastructure/persistence/postgres"
	"github.com/moodgarden/moodgarden-hub/internal/infrastructure/persistence/redis"
	httpserver "github.com/moodgarden/moodgarden-hub/internal/interface/http"
	"github.com/moodgarden/moodgarden-hub/pkg/logger"
	"github.com/moodgarden/moodgarden-hub/pkg/retry"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	// .env отсутствует в контейнерах - это не ошибка.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting MoodGarden Hub API",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.Bool("debug", cfg.App.Debug),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ (PostgreSQL/Supabase)
	// ─────────────────────────────────────────────────────────────────────────
	// При старте в docker-compose база может подниматься параллельно с нами,
	// поэтому первое подключение делаем с повторными попытками.
	log.Info("connecting to database...")
	var dbConn *postgres.Connection
	err = retry.StartupRetrier().Do(ctx, func(ctx context.Context) error {
		conn, connErr := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		if connErr != nil {
			return retry.Retryable(connErr)
		}
		if pingErr := conn.Ping(ctx); pingErr != nil {
			conn.Close()
			return retry.Retryable(pingErr)
		}
		dbConn = conn
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАПУСК МИГРАЦИЙ
	// ─────────────────────────────────────────────────────────────────────────
	// Обычно схему ведёт пишущая сторона (мини-приложение); миграции здесь
	// нужны только для локальной разработки и тестовых стендов.
	if cfg.Database.MigrateOnStart {
		log.Info("running database migrations...")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("migrations completed")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ REDIS (rate limiting, опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var rateLimiter httpserver.Limiter
	var redisLimiter *redis.RateLimiter

	if !cfg.Redis.Disabled && cfg.HTTP.RateLimitPerMinute > 0 {
		log.Info("connecting to Redis...")
		redisCfg := redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   3,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
			PoolTimeout:  cfg.Redis.DialTimeout,
		}

		redisLimiter, err = redis.NewRateLimiter(redisCfg, cfg.HTTP.RateLimitPerMinute, time.Minute)
		if err != nil {
			// Лимитер не критичен: падаем на in-memory вариант.
			log.Warn("failed to connect to Redis, using in-memory rate limiter", logger.Err(err))
		} else {
			defer redisLimiter.Close()
			rateLimiter = redisLimiter
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ И QUERY HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")
	statsRepo := postgres.NewStatsRepository(dbConn, log)

	leaderboardQuery := query.NewGetLeaderboardHandler(statsRepo)
	viewerRankQuery := query.NewGetViewerRankHandler(statsRepo)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. HTTP СЕРВЕР
	// ─────────────────────────────────────────────────────────────────────────
	serverCfg := httpserver.Config{
		Host:               cfg.HTTP.Host,
		Port:               cfg.HTTP.Port,
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		MaxHeaderBytes:     cfg.HTTP.MaxHeaderBytes,
		EnableCORS:         cfg.HTTP.EnableCORS,
		AllowedOrigins:     cfg.HTTP.AllowedOrigins,
		EnableMetrics:      cfg.Observability.MetricsEnabled,
		RateLimitPerMinute: cfg.HTTP.RateLimitPerMinute,
	}

	server := httpserver.NewServer(serverCfg, httpserver.Dependencies{
		GetLeaderboardHandler: leaderboardQuery,
		GetViewerRankHandler:  viewerRankQuery,
		Logger:                log,
		HealthChecker:         newHealthChecker(dbConn, redisLimiter),
		RateLimiter:           rateLimiter,
	})

	errCh := server.StartAsync()
	log.Info("HTTP server started", logger.String("address", server.Address()))

	// ─────────────────────────────────────────────────────────────────────────
	// 8. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}

// setupLogger создаёт логгер по настройкам observability.
func setupLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}
	return logger.New(opts)
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH CHECKER
// ══════════════════════════════════════════════════════════════════════════════

// healthChecker объединяет проверки компонентов для /health и /ready.
type healthChecker struct {
	db      *postgres.Connection
	limiter *redis.RateLimiter
}

func newHealthChecker(db *postgres.Connection, limiter *redis.RateLimiter) *healthChecker {
	return &healthChecker{db: db, limiter: limiter}
}

func (h *healthChecker) Check(ctx context.Context) httpserver.HealthReport {
	report := httpserver.HealthReport{
		Healthy:    true,
		Ready:      true,
		Components: make(map[string]string),
		CheckedAt:  time.Now().UTC(),
	}

	checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := h.db.Ping(checkCtx); err != nil {
		report.Healthy = false
		report.Ready = false
		report.Message = "database unreachable"
		report.Components["postgres"] = err.Error()
	} else {
		report.Components["postgres"] = "ok"
	}

	// Redis деградирует мягко: без него работает in-memory лимитер.
	if h.limiter != nil {
		if err := h.limiter.Ping(checkCtx); err != nil {
			report.Components["redis"] = err.Error()
		} else {
			report.Components["redis"] = "ok"
		}
	}

	return report
}
