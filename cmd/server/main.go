package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"DevDeckPlatform/internal/captcha"
	"DevDeckPlatform/internal/handler"
	"DevDeckPlatform/internal/metrics"
	"DevDeckPlatform/internal/middleware"
	"DevDeckPlatform/internal/notifier"
	rabbitnotifier "DevDeckPlatform/internal/notifier/rabbitmq"
	"DevDeckPlatform/internal/pkg/jwt"
	"DevDeckPlatform/internal/pkg/nickname"
	"DevDeckPlatform/internal/pkg/password"
	postgresrepo "DevDeckPlatform/internal/repository/postgres"
	redisrepo "DevDeckPlatform/internal/repository/redis"
	"DevDeckPlatform/internal/service"
	"DevDeckPlatform/pkg/config"
	"DevDeckPlatform/pkg/database"
	"DevDeckPlatform/pkg/health"
	"DevDeckPlatform/pkg/logger"
	"DevDeckPlatform/pkg/rabbitmq"
	"DevDeckPlatform/pkg/redis"
)

const serviceName = "auth_service"

func main() {
	configPath := flag.String("config", "config.yaml", "путь к файлу конфигурации")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(cfg.Environment, cfg.Logger.Level, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	if err := metrics.InitTracing(serviceName); err != nil {
		appLogger.Warn("failed to initialize tracing", logger.Error(err))
	}
	authMetrics := metrics.NewAuthMetrics(serviceName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis: сессии, коды, капчи и счетчики лимитов
	redisClient, err := redis.Connect(ctx, &redis.Config{
		Addr:          cfg.Redis.Addr,
		Password:      cfg.Redis.Password,
		DB:            cfg.Redis.DB,
		PoolSize:      cfg.Redis.PoolSize,
		MinIdleConn:   cfg.Redis.MinIdleConn,
		MaxRetries:    cfg.Redis.MaxRetries,
		RetryInterval: config.ParseDurationOr(cfg.Redis.RetryInterval, time.Second),
	})
	if err != nil {
		appLogger.Error("failed to connect to redis", logger.Error(err))
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	// PostgreSQL: внешнее хранилище пользователей
	pg, err := database.Connect(ctx, &database.Config{
		Host:          cfg.Database.Host,
		Port:          cfg.Database.Port,
		User:          cfg.Database.User,
		Password:      cfg.Database.Password,
		Database:      cfg.Database.Name,
		SSLMode:       cfg.Database.SSLMode,
		MaxConns:      cfg.Database.MaxConns,
		MinConns:      cfg.Database.MinConns,
		MaxConnLife:   30 * time.Minute,
		MaxConnIdle:   5 * time.Minute,
		MaxRetries:    cfg.Database.MaxRetries,
		RetryInterval: config.ParseDurationOr(cfg.Database.RetryInterval, time.Second),
	})
	if err != nil {
		appLogger.Error("failed to connect to postgres", logger.Error(err))
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pg.Close()

	codeNotifier := buildNotifier(cfg, appLogger)

	codec, err := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.LifetimeMinutes)
	if err != nil {
		log.Fatalf("failed to initialize token manager: %v", err)
	}

	sessionTTL, err := cfg.SessionTTL()
	if err != nil {
		log.Fatalf("invalid session ttl: %v", err)
	}
	slidingWindow, err := cfg.SlidingWindow()
	if err != nil {
		log.Fatalf("invalid sliding window: %v", err)
	}

	userRepo := postgresrepo.NewUserRepository(pg.Pool)
	sessionRepo := redisrepo.NewSessionRepository(redisClient.Client)
	verifyRepo := redisrepo.NewVerificationRepository(redisClient.Client)

	verifyService := service.NewVerifyService(
		verifyRepo,
		codeNotifier,
		captcha.NewImageRenderer(),
		authMetrics,
		appLogger,
		service.VerifyOptions{
			CodeLength:    cfg.Verify.CodeLength,
			CodeTTL:       config.ParseDurationOr(cfg.Verify.CodeTTL, 5*time.Minute),
			CaptchaTTL:    config.ParseDurationOr(cfg.Verify.CaptchaTTL, 5*time.Minute),
			Cooldown:      config.ParseDurationOr(cfg.Verify.Cooldown, time.Minute),
			DailyEmailMax: cfg.Verify.DailyEmailMax,
			DailyIPMax:    cfg.Verify.DailyIPMax,
			CounterTTL:    config.ParseDurationOr(cfg.Verify.CounterTTL, 7*24*time.Hour),
			BypassCode:    cfg.Verify.BypassCode,
			Environment:   cfg.Environment,
		},
	)

	userService := service.NewUserService(
		userRepo,
		sessionRepo,
		verifyService,
		codec,
		password.NewBcryptHasher(0),
		nickname.NewGenerator(rand.NewSource(time.Now().UnixNano())),
		authMetrics,
		appLogger,
		service.UserOptions{SessionTTL: sessionTTL},
	)

	httpHandler := handler.NewHTTPHandler(userService, verifyService, appLogger)
	tokenFilter := middleware.NewTokenFilter(
		codec, sessionRepo, authMetrics, appLogger, slidingWindow, handler.PublicPaths,
	)

	healthChecker := health.NewChecker(2 * time.Second)
	healthChecker.Register("redis", redisClient.HealthCheck)
	healthChecker.Register("postgres", pg.HealthCheck)

	mux := http.NewServeMux()
	httpHandler.RegisterRoutes(mux)
	mux.Handle("GET /health", health.Handler(healthChecker))
	mux.Handle("/metrics", authMetrics.GetHandler())

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      authMetrics.Middleware(tokenFilter.Handler(mux)),
		ReadTimeout:  config.ParseDurationOr(cfg.Server.ReadTimeout, 10*time.Second),
		WriteTimeout: config.ParseDurationOr(cfg.Server.WriteTimeout, 10*time.Second),
		IdleTimeout:  config.ParseDurationOr(cfg.Server.IdleTimeout, time.Minute),
	}

	go func() {
		appLogger.Info("http server started", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("http server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	appLogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("graceful shutdown failed", logger.Error(err))
	}
	appLogger.Info("server stopped")
}

// buildNotifier выбирает транспорт доставки кодов.
// Без настроенного брокера события пишутся в лог,
// что годится только для dev окружения.
func buildNotifier(cfg *config.Config, appLogger logger.Logger) notifier.Notifier {
	if cfg.RabbitMQ.URL == "" {
		appLogger.Warn("rabbitmq url is empty, verification codes will only be logged")
		return notifier.NewLogNotifier(appLogger)
	}

	mqConfig := &rabbitmq.Config{
		URL:               cfg.RabbitMQ.URL,
		Exchange:          cfg.RabbitMQ.Exchange,
		RoutingKey:        cfg.RabbitMQ.RoutingKey,
		ReconnectInterval: 5 * time.Second,
		MaxRetries:        3,
	}
	conn, err := rabbitmq.Connect(mqConfig)
	if err != nil {
		if cfg.Environment == "prod" {
			log.Fatalf("failed to connect to rabbitmq: %v", err)
		}
		appLogger.Warn("failed to connect to rabbitmq, falling back to log notifier", logger.Error(err))
		return notifier.NewLogNotifier(appLogger)
	}

	return rabbitnotifier.NewEmailNotifier(rabbitmq.NewProducer(conn, mqConfig), appLogger)
}
