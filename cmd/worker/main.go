package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fiapx/fiapx-pose-service/internal/infra/archive"
	"github.com/fiapx/fiapx-pose-service/internal/infra/config"
	"github.com/fiapx/fiapx-pose-service/internal/infra/email"
	"github.com/fiapx/fiapx-pose-service/internal/infra/metrics"
	miniostorage "github.com/fiapx/fiapx-pose-service/internal/infra/minio"
	"github.com/fiapx/fiapx-pose-service/internal/infra/postgres"
	"github.com/fiapx/fiapx-pose-service/internal/infra/rabbitmq"
	"github.com/fiapx/fiapx-pose-service/internal/infra/resultcodec"
	"github.com/fiapx/fiapx-pose-service/internal/infra/tracing"
	"github.com/fiapx/fiapx-pose-service/internal/usecase"
	"github.com/fiapx/fiapx-pose-service/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting fiapx-pose-service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (non-fatal if Jaeger unavailable)
	tp, err := tracing.InitTracer(ctx, cfg.JaegerEndpoint, cfg.TraceSampleRatio)
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer tp.Shutdown(ctx)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	fatalOnErr(err, "connect to postgres")
	defer pool.Close()

	err = postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir)
	if err != nil {
		log.Warn("migration warning", zap.Error(err))
	}

	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:       cfg.MinIOEndpoint,
		AccessKey:      cfg.MinIOAccessKey,
		SecretKey:      cfg.MinIOSecretKey,
		UseSSL:         cfg.MinIOUseSSL,
		KeypointBucket: cfg.MinIOKeypointBucket,
		ResultBucket:   cfg.MinIOResultBucket,
	})
	fatalOnErr(err, "create minio storage")
	fatalOnErr(storage.EnsureBuckets(ctx), "ensure minio buckets")

	rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
	fatalOnErr(err, "connect to rabbitmq for publisher")
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQExchange)
	fatalOnErr(err, "create rabbitmq publisher")

	statusPub := rabbitmq.NewStatusPublisher(pub)
	dlqPub := rabbitmq.NewDLQPublisher(pub, cfg.RabbitMQDLQ)

	format, err := resultcodec.ParseFormat(cfg.ResultFormat)
	fatalOnErr(err, "parse result format")

	repo := postgres.NewJobRepository(pool)
	archiver := archive.NewZipCreator()
	notifier := email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, log)

	uc := usecase.NewSmoothKeypointsUseCase(
		repo, storage, archiver,
		statusPub, dlqPub, notifier,
		log,
		usecase.SmoothKeypointsConfig{
			TempDir:      cfg.TempDir,
			MaxRetries:   cfg.MaxRetries,
			WindowSize:   cfg.SmoothWindow,
			InferLegs:    cfg.SmoothInferLegs,
			PersonIndex:  cfg.SmoothPersonIndex,
			ResultFormat: format,
		},
	)

	metricsSrv := metrics.StartMetricsServer(ctx, cfg.MetricsPort, pool.Ping, log)

	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:         cfg.RabbitMQURL,
		Queue:       cfg.RabbitMQSmoothingQueue,
		Exchange:    cfg.RabbitMQExchange,
		DLQ:         cfg.RabbitMQDLQ,
		StatusQueue: cfg.RabbitMQStatusQueue,
		Prefetch:    cfg.RabbitMQPrefetch,
		WorkerCount: cfg.WorkerCount,
		BaseDelayMs: cfg.RetryBaseDelayMs,
	}, uc.Execute, log)
	fatalOnErr(err, "create consumer")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	log.Info("fiapx-pose-service started, consuming messages",
		zap.String("queue", cfg.RabbitMQSmoothingQueue),
		zap.Int("window", cfg.SmoothWindow),
		zap.Bool("infer_legs", cfg.SmoothInferLegs),
	)

	if err := consumer.Start(ctx); err != nil {
		log.Error("consumer error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)

	consumer.Close()
	pub.Close()
	log.Info("fiapx-pose-service stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
