package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"vipauto/internal/controllers"
	"vipauto/internal/migrations"
	"vipauto/internal/repositories"
	"vipauto/internal/routes"
	"vipauto/internal/services"
	"vipauto/pkg/config"
	"vipauto/pkg/customvalidator"
	"vipauto/pkg/database/postgresql"
	applogger "vipauto/pkg/logger"
	"vipauto/pkg/service"
	appwebsocket "vipauto/pkg/websocket"
)

func main() {
	// 1. Конфиг и логгер
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("ошибка конфигурации: %v", err)
	}

	logger, err := applogger.NewLogger(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		log.Fatalf("не удалось создать логгер: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Подключаемся к базам данных
	dbConn, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatal("не удалось подключиться к PostgreSQL", zap.Error(err))
	}
	defer dbConn.Close()

	if cfg.Postgres.MigrateOnStart {
		if err := migrations.Up(ctx, dbConn); err != nil {
			logger.Fatal("не удалось применить миграции", zap.Error(err))
		}
	}

	var cacheRepo repositories.CacheRepositoryInterface
	if cfg.Redis.Address != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if _, err := redisClient.Ping(ctx).Result(); err != nil {
			logger.Fatal("не удалось подключиться к Redis", zap.Error(err), zap.String("address", cfg.Redis.Address))
		}
		cacheRepo = repositories.NewRedisCacheRepository(redisClient)
	} else {
		logger.Warn("REDIS_ADDRESS не задан, блокировка входа по числу попыток отключена")
	}

	v, err := customvalidator.New()
	if err != nil {
		logger.Fatal("Ошибка регистрации кастомных правил валидации", zap.Error(err))
	}

	// 3. Сервисы
	hub := appwebsocket.NewHub(logger)
	go hub.Run(ctx)

	store := repositories.NewStore(dbConn, logger)
	jwtSvc := service.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL, logger)

	viewOpts := services.ViewOptions{
		Location:      cfg.Shop.Location(),
		MastersFilter: services.MastersFilter(cfg.Shop.MastersFilter),
		DirectorName:  cfg.Shop.DirectorName,
	}
	broadcaster := services.NewBroadcastService(hub, store, viewOpts, logger)
	commandRouter := services.NewCommandRouter(store, broadcaster, v, cfg.Shop.AllowClientDelete, logger)
	authService := services.NewAuthService(store, cacheRepo, logger, &cfg.Auth)
	exportService := services.NewReportExportService(store, viewOpts.Location, logger)

	checks := map[string]controllers.Pinger{"postgres": store}
	if cacheRepo != nil {
		checks["redis"] = cacheRepo
	}

	// 4. Роуты
	e := echo.New()
	routes.InitRouter(e, routes.Dependencies{
		Ctx:          ctx,
		Validator:    v,
		JWT:          jwtSvc,
		AuthService:  authService,
		Hub:          hub,
		Broadcaster:  broadcaster,
		Commands:     commandRouter,
		ReportExport: exportService,
		HealthChecks: checks,
		Logger:       logger,
	})

	// 5. Запускаем сервер
	go func() {
		logger.Info("🚀 Сервер запущен", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Ошибка запуска сервера", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("получен сигнал остановки, завершаем работу")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("ошибка при остановке сервера", zap.Error(err))
	}
}
