package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/murtazox04/kelishamiz-backend/config"
	kafkactrl "github.com/murtazox04/kelishamiz-backend/internal/controller/kafka"
	"github.com/murtazox04/kelishamiz-backend/internal/controller/restapi"
	"github.com/murtazox04/kelishamiz-backend/internal/controller/restapi/v1/validate"
	"github.com/murtazox04/kelishamiz-backend/internal/controller/worker/outbox"
	infrakafka "github.com/murtazox04/kelishamiz-backend/internal/infrastructure/kafka"
	"github.com/murtazox04/kelishamiz-backend/internal/infrastructure/processor"
	"github.com/murtazox04/kelishamiz-backend/internal/repo"
	"github.com/murtazox04/kelishamiz-backend/internal/repo/cache"
	"github.com/murtazox04/kelishamiz-backend/internal/repo/persistent"
	"github.com/murtazox04/kelishamiz-backend/internal/usecase/image"
	"github.com/murtazox04/kelishamiz-backend/internal/usecase/imageprocessor"
	"github.com/murtazox04/kelishamiz-backend/internal/usecase/ingest"
	"github.com/murtazox04/kelishamiz-backend/internal/usecase/listingcache"
	"github.com/murtazox04/kelishamiz-backend/internal/usecase/normalizer"
	"github.com/murtazox04/kelishamiz-backend/pkg/httpserver"
	"github.com/murtazox04/kelishamiz-backend/pkg/kafka/consumer"
	"github.com/murtazox04/kelishamiz-backend/pkg/kafka/producer"
	"github.com/murtazox04/kelishamiz-backend/pkg/logger"
	"github.com/murtazox04/kelishamiz-backend/pkg/metrics"
	"github.com/murtazox04/kelishamiz-backend/pkg/postgres"
	"github.com/murtazox04/kelishamiz-backend/pkg/redis"
	"github.com/murtazox04/kelishamiz-backend/pkg/s3client"
	"github.com/murtazox04/kelishamiz-backend/pkg/tracer"
)

const metricsNamespace = "kelishamiz_images"

func Run(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)

	// Metrics
	m := metrics.New(metricsNamespace)

	// Tracing
	if cfg.Tracing.OTLPEndpoint != "" {
		shutdownTracer, err := tracer.New(ctx, cfg.Tracing.ServiceName, cfg.Tracing.OTLPEndpoint)
		if err != nil {
			l.Fatal(fmt.Errorf("app - Run - tracer.New: %w", err))
		}
		defer func() {
			if err := shutdownTracer(context.WithoutCancel(ctx)); err != nil {
				l.Error(fmt.Errorf("app - Run - shutdownTracer: %w", err))
			}
		}()
	}

	// Repository

	// s3
	s3Ctx, s3Cancel := context.WithTimeout(ctx, cfg.S3.CfgLoadTimeout)
	defer s3Cancel()
	s3c, err := s3client.New(s3Ctx, cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey, cfg.S3.Bucket,
		s3client.CreateBucket(cfg.S3.CreateBucket),
		s3client.Region(cfg.S3.Region),
		s3client.UsePathStyle(cfg.S3.UsePathStyle),
		s3client.Logger(l),
	)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - s3client.New: %w", err))
	}

	// postgres
	pg, err := postgres.New(cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax), postgres.Logger(l))
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - postgres.New: %w", err))
	}
	defer pg.Close()

	// listing cache store: redis when configured, in process otherwise
	var snapshotStore repo.ListingSnapshotStore = cache.NewMemoryStore(cfg.Ingest.CacheTTL)
	if cfg.Redis.Addr != "" {
		rdb, err := redis.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, redis.Logger(l))
		if err != nil {
			l.Fatal(fmt.Errorf("app - Run - redis.New: %w", err))
		}
		defer rdb.Close()

		snapshotStore = cache.NewRedisStore(rdb.Client, cfg.Ingest.CacheTTL)
	}

	// Use-Case

	// image use-case (persistence sink)
	imageUseCase := image.New(
		persistent.NewImageObjectRepo(s3c),
		persistent.NewListingRepo(pg),
		persistent.NewListingImageRepo(pg),
		persistent.NewOutboxRepo(pg),
		pg,
		l,
	)

	imageProcessor := processor.New()

	// ingestion use-case
	ingestUseCase := ingest.New(
		listingcache.New(snapshotStore, imageUseCase, l,
			listingcache.Window(cfg.Ingest.CacheTTL),
			listingcache.Metrics(m),
		),
		normalizer.New(imageProcessor,
			normalizer.Threshold(cfg.Ingest.ReencodeThreshold),
			normalizer.Quality(cfg.Ingest.ReencodeQuality),
		),
		imageUseCase,
		l,
		ingest.MaxWorkers(cfg.Ingest.MaxWorkers),
		ingest.Timeout(cfg.Ingest.Timeout),
		ingest.Metrics(m),
	)

	// image processor use-case
	imageProcessorUseCase := imageprocessor.New(imageProcessor)

	// Kafka Producer
	kafkaProducer, err := producer.New(ctx, cfg.Kafka.Brokers,
		producer.Topic(cfg.Kafka.Topic, cfg.Kafka.TopicPartitions, cfg.Kafka.TopicReplicationFactor),
		producer.Logger(l),
	)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - producer.New: %w", err))
	}

	// Outbox Relay Worker
	outboxRelayWorker := outbox.New(
		imageUseCase,
		infrakafka.NewEventProducer(kafkaProducer, cfg.Kafka.Topic),
		l,
		outbox.PollInterval(cfg.OutboxRelay.PollInterval),
		outbox.CleanupInterval(cfg.OutboxRelay.CleanupInterval),
		outbox.MarkFailedInterval(cfg.OutboxRelay.MarkFailedInterval),
		outbox.ReleaseInterval(cfg.OutboxRelay.ReleaseInterval),
		outbox.StaleAfter(cfg.OutboxRelay.StaleAfter),
		outbox.BatchTimeout(cfg.OutboxRelay.ProcessBatchTimeout),
		outbox.BatchSize(cfg.OutboxRelay.BatchSize),
		outbox.MaxRetries(cfg.OutboxRelay.MaxRetries),
		outbox.Metrics(m),
	)

	// Kafka Consumer
	kafkaConsumer, err := consumer.New(ctx, cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topic,
		consumer.Logger(l),
	)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - consumer.New: %w", err))
	}

	// Kafka as Controller
	kafkaController := kafkactrl.New(
		imageProcessorUseCase,
		imageUseCase,
		infrakafka.NewEventConsumer(kafkaConsumer),
		l,
		kafkactrl.CommitTimeout(cfg.KafkaController.CommitTimeout),
		kafkactrl.ProcessTimeout(cfg.KafkaController.ProcessTimeout),
		kafkactrl.CPUTimeout(cfg.KafkaController.CPUTimeout),
		kafkactrl.Workers(cfg.KafkaController.Workers),
		kafkactrl.Watermark(cfg.Thumbnail.WatermarkText),
		kafkactrl.Metrics(m),
	)

	// HTTP Server
	bodyLimit := cfg.HTTP.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = validate.MaxRequestBody
	}

	httpServer := httpserver.New(l,
		httpserver.Port(cfg.HTTP.Port),
		httpserver.Prefork(cfg.HTTP.UsePreforkMode),
		httpserver.BodyLimit(bodyLimit),
	)
	restapi.NewRouter(httpServer.App, cfg, imageUseCase, ingestUseCase, m, l)

	// Start Components
	err = outboxRelayWorker.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - outboxRelayWorker.Start: %w", err))
	}
	err = kafkaController.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - kafkaController.Start: %w", err))
	}
	httpServer.Start()

	// Waiting Signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - Run - signal: %s", s.String())
	case err = <-httpServer.Notify():
		l.Error(fmt.Errorf("app - Run - httpServer.Notify: %w", err))
	}

	// Shutdown
	err = httpServer.Shutdown()
	if err != nil {
		l.Error(fmt.Errorf("app - Run - httpServer.Shutdown: %w", err))
	}

	orlShutdownCtx, orlShutdownCancel := context.WithTimeout(ctx, cfg.OutboxRelay.ShutdownTimeout)
	defer orlShutdownCancel()
	err = outboxRelayWorker.Shutdown(orlShutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - Run - outboxRelayWorker.Shutdown: %w", err))
	}

	kcShutdownCtx, kcShutdownCancel := context.WithTimeout(ctx, cfg.KafkaController.ShutdownTimeout)
	defer kcShutdownCancel()
	err = kafkaController.Shutdown(kcShutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - Run - kafkaController.Shutdown: %w", err))
	}
}
