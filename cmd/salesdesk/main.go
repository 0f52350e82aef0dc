package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"salesdesk/config"
	"salesdesk/internal/repository/postgres"
	"salesdesk/internal/repository/rediscache"
	"salesdesk/internal/service/commission"
	"salesdesk/internal/service/crmsync"
	"salesdesk/internal/service/encryption"
	"salesdesk/internal/service/mailer"
	"salesdesk/internal/service/reporting"
	"salesdesk/internal/transport/api"
	"salesdesk/internal/transport/middleware"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	// Загружаем конфигурацию
	cfg := config.Load()

	// Подключаемся к БД
	db, err := sqlx.Connect("postgres", cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Выполняем миграции
	if err := postgres.RunMigrations(db.DB); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Кеш отчетов
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	cache := rediscache.New(redisClient, cfg.ReportCacheTTL)

	// Инициализируем репозитории
	eventRepo := postgres.NewEventRepository(db)
	pcfRepo := postgres.NewPCFRepository(db)
	teamRepo := postgres.NewTeamRepository(db)
	sourceRepo := postgres.NewSourceRepository(db)
	metricRepo := postgres.NewMetricRepository(db)
	payoutRepo := postgres.NewPayoutRepository(db)

	// Инициализируем сервисы
	encryptor := encryption.NewEncryptor(cfg.EncryptionKey)
	reports := reporting.NewService(eventRepo, pcfRepo, teamRepo, sourceRepo, cache)
	// Публичные ссылки живут под /api/v1/commission/:token
	links := commission.NewService(payoutRepo, cfg.BaseURL+"/api/v1", 30*24*time.Hour)
	mail := mailer.NewClient(cfg.MailerURL)
	crm := crmsync.NewClient(cfg.CRMSyncURL, payoutRepo, crmsync.Config{
		Timeout:    10 * time.Second,
		MaxRetries: 3,
	})

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret)

	// Создаем Echo сервер
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recovery())
	e.Use(middleware.Metrics())
	e.Use(echomw.CORS())

	e.GET("/healthz", func(c echo.Context) error {
		if err := db.PingContext(c.Request().Context()); err != nil {
			return c.JSON(503, map[string]string{"status": "unavailable"})
		}
		return c.JSON(200, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// API для фронтенда
	apiGroup := e.Group("/api/v1")
	api.SetupRoutes(apiGroup, api.Deps{
		Events:  eventRepo,
		PCFs:    pcfRepo,
		Team:    teamRepo,
		Sources: sourceRepo,
		Metrics: metricRepo,
		Payouts: payoutRepo,

		Reports: reports,
		Links:   links,
		CRM:     crm,
		Mail:    mail,
		Crypto:  encryptor,
		Cache:   cache,

		Auth:    authMiddleware,
		BaseURL: cfg.BaseURL,
	})

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil {
			log.Info().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to shut down server")
	}
}
