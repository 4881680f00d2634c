package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"

	"taskboard/backend/internal/cache"
	"taskboard/backend/internal/config"
	"taskboard/backend/internal/database"
	"taskboard/backend/internal/handlers"
	"taskboard/backend/internal/mail"
	"taskboard/backend/internal/monitoring"
	"taskboard/backend/internal/router"
	"taskboard/backend/internal/services"
	"taskboard/backend/internal/worker"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment values")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := zap.NewProduction()
	if cfg.Server.Environment == "development" {
		zapLogger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	logLevel := logger.Warn
	if !cfg.IsProduction() {
		logLevel = logger.Info
	}

	pool, err := database.NewDatabasePool(&database.PoolConfig{
		DSN:             cfg.GetDatabaseDSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		LogLevel:        logLevel,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisCache := cache.NewRedisCache(&cache.CacheConfig{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	defer redisCache.Close()

	mailer := mail.NewSMTPMailer(cfg.Mail)

	userService := services.NewUserService(cfg.Auth.BCryptCost, cfg.Auth.ResetTokenTTL)
	tokenService := services.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	labelService := services.NewCachedLabelService(services.NewLabelService(), redisCache)
	taskService := services.NewCachedTaskService(services.NewTaskService(), redisCache)

	queue := worker.NewQueue(redisCache.Client())

	reminderWorker := worker.NewWorker(worker.WorkerConfig{
		RedisClient:  redisCache.Client(),
		Queues:       cfg.Worker.Queues,
		PollInterval: cfg.Worker.PollInterval,
	})
	reminderWorker.RegisterHandler(worker.JobTypeDueReminder, func(ctx context.Context, job *worker.Job) error {
		subject, body := mail.ReminderMessage(job.Payload["title"], job.Payload["due"])
		return mailer.Send(job.Payload["email"], subject, body)
	})
	reminderWorker.Start(cfg.Worker.Concurrency)
	defer reminderWorker.Stop()

	deps := router.Dependencies{
		DB:           pool.DB,
		Config:       cfg,
		Logger:       zapLogger,
		UserService:  userService,
		TokenService: tokenService,
		LabelService: labelService,
		TaskService:  taskService,
		AuthHandler:  handlers.NewAuthHandler(pool.DB, userService, tokenService, mailer, cfg),
		LabelHandler: handlers.NewLabelHandler(pool.DB, labelService),
		TaskHandler:  handlers.NewTaskHandler(pool.DB, taskService, queue),
		ShareHandler: handlers.NewShareHandler(pool.DB, taskService, cfg),
		HealthChecks: map[string]monitoring.HealthCheckFunc{
			"database": pool.Ping,
			"redis":    redisCache.Health,
		},
	}

	srv := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      router.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("Server listening on %s", cfg.GetServerAddr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Forced shutdown: %v", err)
	}
}
