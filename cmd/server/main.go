package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/skywatch/drone-annotation-service/internal/handler"
	"github.com/skywatch/drone-annotation-service/internal/infra/config"
	"github.com/skywatch/drone-annotation-service/internal/infra/email"
	"github.com/skywatch/drone-annotation-service/internal/infra/ffmpeg"
	"github.com/skywatch/drone-annotation-service/internal/infra/metrics"
	miniostorage "github.com/skywatch/drone-annotation-service/internal/infra/minio"
	"github.com/skywatch/drone-annotation-service/internal/infra/postgres"
	"github.com/skywatch/drone-annotation-service/internal/infra/rabbitmq"
	"github.com/skywatch/drone-annotation-service/internal/infra/tagging"
	"github.com/skywatch/drone-annotation-service/internal/infra/tracing"
	"github.com/skywatch/drone-annotation-service/internal/infra/ws"
	"github.com/skywatch/drone-annotation-service/internal/middleware"
	"github.com/skywatch/drone-annotation-service/internal/service"
	"github.com/skywatch/drone-annotation-service/internal/usecase"
	"github.com/skywatch/drone-annotation-service/internal/worker"
	"github.com/skywatch/drone-annotation-service/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting drone-annotation-service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, dir := range []string{cfg.UploadDir, cfg.FrameDir} {
		fatalOnErr(os.MkdirAll(dir, 0755), "create dir "+dir)
	}

	// Tracing (non-fatal if collector unavailable)
	tp, err := tracing.Init(ctx, tracing.Config{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: "drone-annotation-service",
		SampleRatio: cfg.TraceSampleRatio,
	})
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		// Flush with a fresh context: the run context is already canceled by
		// the time shutdown defers execute.
		defer func() {
			flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer flushCancel()
			if err := tp.Shutdown(flushCtx); err != nil {
				log.Warn("tracer shutdown error", zap.Error(err))
			}
		}()
	}

	// Database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	fatalOnErr(err, "connect to postgres")
	defer pool.Close()

	err = postgres.RunMigrations(cfg.DatabaseURL, "migrations")
	if err != nil {
		log.Warn("migration warning", zap.Error(err))
	}

	// Redis (asynq backend + rate limiter)
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn("redis unavailable, admission control degrades open", zap.Error(err))
	}

	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	// RabbitMQ status bus
	rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
	fatalOnErr(err, "connect to rabbitmq")
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQExchange, cfg.RabbitMQStatusQueue)
	fatalOnErr(err, "create rabbitmq publisher")
	statusPub := rabbitmq.NewStatusPublisher(pub)

	// Frame archive
	archive, err := miniostorage.NewArchive(miniostorage.ArchiveConfig{
		Endpoint:  cfg.MinIOEndpoint,
		AccessKey: cfg.MinIOAccessKey,
		SecretKey: cfg.MinIOSecretKey,
		UseSSL:    cfg.MinIOUseSSL,
		Bucket:    cfg.MinIOArchiveBucket,
	})
	fatalOnErr(err, "create minio archive")
	fatalOnErr(archive.EnsureBucket(ctx), "ensure archive bucket")

	// Fan-out hub
	hub := ws.NewHub(log)
	go hub.Run()

	// Infra adapters
	repo := postgres.NewJobRepository(pool)
	extractor := ffmpeg.NewExtractor(cfg.FFmpegFPS, cfg.FrameFormat, cfg.FrameQuality, log)
	tagger := tagging.NewClient(cfg.TaggerURL, time.Duration(cfg.TaggerTimeoutSec)*time.Second, log)
	notifier := email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, log)

	// Pipeline
	uc := usecase.NewAnnotateVideoUseCase(
		repo, extractor, tagger,
		hub, statusPub, archive, notifier,
		log,
		usecase.AnnotateVideoConfig{
			FrameDir:     cfg.FrameDir,
			StaticPrefix: "/static/frames",
			Workers:      cfg.FrameWorkers,
			NotifyTo:     cfg.NotificationTo,
		},
	)

	jobService := service.NewJobService(repo, asynqClient, log)
	uploadHandler := handler.NewUploadHandler(jobService, cfg.UploadDir, cfg.MaxUploadSizeMB, log)
	jobHandler := handler.NewJobHandler(repo)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// HTTP surface
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
		BodyLimit:    cfg.MaxUploadSizeMB * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Post("/upload", rateLimiter.UploadLimit(cfg.UploadRateLimit), uploadHandler.Upload)
	app.Get("/jobs/:id", jobHandler.Status)
	app.Static("/static", cfg.StaticDir)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/feeds/:channel", websocket.New(func(c *websocket.Conn) {
		hub.HandleConnection(c, c.Params("channel"))
	}))

	// Metrics listener
	metricsSrv := metrics.NewServer(cfg.MetricsPort, log)
	metricsSrv.Start()

	// Annotation worker server
	annotationWorker := worker.NewAnnotationWorker(uc, repo, log)
	asynqSrv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.JobConcurrency,
		Queues:      map[string]int{"annotation": 1},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeAnnotate, annotationWorker.ProcessTask)

	go func() {
		if err := asynqSrv.Run(mux); err != nil {
			log.Error("annotation worker server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("server shutdown error", zap.Error(err))
		}
		cancel()
	}()

	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	log.Info("drone-annotation-service started", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)

	asynqSrv.Shutdown()
	log.Info("drone-annotation-service stopped")
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
