package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"rentacar/internal/app/dto"
	carsapp "rentacar/internal/app/handlers/cars"
	"rentacar/internal/app/middleware"
	appoutbox "rentacar/internal/app/outbox"
	"rentacar/internal/app/uow"
	domainauth "rentacar/internal/domain/auth"
	"rentacar/internal/domain/pricing"
	domainuser "rentacar/internal/domain/user"
	kafka "rentacar/internal/infra/broker/kafka"
	rediscache "rentacar/internal/infra/cache/redis"
	"rentacar/internal/infra/config"
	mongostore "rentacar/internal/infra/db/mongo"
	"rentacar/internal/infra/inbox"
	"rentacar/internal/infra/obs"
	infraoutbox "rentacar/internal/infra/outbox"
	"rentacar/internal/infra/storage/memory"
	"rentacar/internal/infra/storage/s3"
)

const clientID = "rentacar"

// infrastructure holds the adapters chosen by configuration.
type infrastructure struct {
	factory         uow.UoWFactory
	outbox          appoutbox.Outbox
	idempotency     middleware.IdempotencyStore
	users           domainuser.Repository
	sessions        domainauth.SessionStore
	uploader        carsapp.PhotoUploader
	relay           *infraoutbox.Relay
	consumer        *catalogConsumer
	queryMiddleware []middleware.QueryMiddleware
	checks          map[string]obs.Check
	closers         []func(context.Context) error
}

func buildInfrastructure(ctx context.Context, cfg config.Config, logger *slog.Logger) (*infrastructure, error) {
	infra := &infrastructure{checks: map[string]obs.Check{}}
	var queue infraoutbox.Queue
	var dedup kafka.Deduper

	switch cfg.StorageMode {
	case config.StorageMemory:
		store := memory.NewStore()
		infra.factory = store.Factory()
		infra.outbox = store.Outbox
		queue = store.Outbox
		infra.idempotency = memory.NewIdempotencyStore().WithRetention(cfg.IdempotencyTTL)
		infra.users = memory.NewUserRepository()
		infra.sessions = memory.NewSessionStore()
		dedup = inbox.NewMemory(24 * time.Hour)
	case config.StorageMongo:
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("MONGO_URI is required with STORAGE_MODE=%s", config.StorageMongo)
		}
		client, err := mongostore.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		infra.closers = append(infra.closers, client.Close)
		if err := client.Ping(ctx); err != nil {
			return nil, fmt.Errorf("mongo ping: %w", err)
		}
		if err := client.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		box, err := infraoutbox.NewStore(ctx, client.DB)
		if err != nil {
			return nil, fmt.Errorf("mongo outbox: %w", err)
		}
		idem, err := mongostore.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
		if err != nil {
			return nil, fmt.Errorf("mongo idempotency: %w", err)
		}
		infra.factory = mongostore.Factory{DB: client.DB}
		infra.outbox = box
		queue = box
		infra.idempotency = idem
		infra.users = mongostore.NewUserRepository(client.DB)
		infra.sessions = memory.NewSessionStore()
		infra.checks["mongo"] = client.Ping
		if dedup, err = inbox.NewStore(ctx, client.DB, cfg.KafkaGroupID, 7*24*time.Hour); err != nil {
			return nil, fmt.Errorf("mongo inbox: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_MODE %q", cfg.StorageMode)
	}

	var cache *rediscache.CatalogCache
	if cfg.RedisAddr != "" {
		client, err := rediscache.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("redis connect: %w", err)
		}
		infra.closers = append(infra.closers, func(context.Context) error { return client.Close() })
		infra.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		infra.sessions = rediscache.NewSessionStore(client)
		cache = newCatalogCache(client, cfg.CatalogCacheTTL, logger)
		infra.queryMiddleware = append(infra.queryMiddleware, cache.Middleware())
	}

	if cfg.S3Endpoint != "" {
		photos, err := s3.NewPhotoStore(s3.Config{
			Endpoint:       cfg.S3Endpoint,
			PublicEndpoint: cfg.S3PublicEndpoint,
			AccessKey:      cfg.S3AccessKey,
			SecretKey:      cfg.S3SecretKey,
			Bucket:         cfg.S3Bucket,
			UseSSL:         cfg.S3UseSSL,
		}, logger)
		if err != nil {
			return nil, err
		}
		infra.uploader = photos
		infra.checks["s3"] = photos.Ping
	}

	var producer infraoutbox.Producer = infraoutbox.LogProducer{Logger: logger}
	if len(cfg.KafkaBrokers) > 0 {
		p, err := kafka.NewProducer(cfg.KafkaBrokers, clientID)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		infra.closers = append(infra.closers, func(context.Context) error { return p.Close() })
		producer = p
		if cache != nil {
			handler := &kafka.CatalogEvents{Inbox: dedup, Cache: cache, Logger: logger}
			consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, handler, logger)
			if err != nil {
				return nil, fmt.Errorf("kafka consumer: %w", err)
			}
			infra.closers = append(infra.closers, func(context.Context) error { return consumer.Close() })
			infra.consumer = &catalogConsumer{consumer: consumer, topics: kafka.CatalogTopics(cfg.KafkaTopicPrefix)}
		}
	} else if cache != nil {
		producer = invalidatingProducer{next: producer, cache: cache, topics: kafka.CatalogTopics(cfg.KafkaTopicPrefix)}
	}

	infra.relay = &infraoutbox.Relay{
		Queue:       queue,
		Producer:    producer,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Source:      "app://" + clientID,
		Backoff:     cfg.RetryBackoff,
		Logger:      logger,
	}
	return infra, nil
}

func (i *infrastructure) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for j := len(i.closers) - 1; j >= 0; j-- {
		if err := i.closers[j](ctx); err != nil {
			logger.Warn("shutdown step failed", "error", err)
		}
	}
}

func newPricingEngine(cfg config.Config) (*pricing.Engine, error) {
	if cfg.PricingConfigPath == "" {
		return pricing.NewEngine(pricing.DefaultConfig(), pricing.DefaultPromoTable())
	}
	pc, promos, err := config.LoadPricing(cfg.PricingConfigPath)
	if err != nil {
		return nil, err
	}
	return pricing.NewEngine(pc, promos)
}

func newCatalogCache(client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *rediscache.CatalogCache {
	cache := rediscache.NewCatalogCache(client, ttl, logger)
	rediscache.Cache[dto.CarCatalog](cache, carsapp.SearchCarsQuery{}.Key())
	rediscache.Cache[dto.Car](cache, carsapp.GetCarQuery{}.Key())
	return cache
}

type catalogConsumer struct {
	consumer *kafka.Consumer
	topics   []string
}

func (c *catalogConsumer) run(ctx context.Context) error {
	return c.consumer.Run(ctx, c.topics)
}

// invalidatingProducer drops the catalog cache in-process when no broker
// carries catalog events back to the consumer.
type invalidatingProducer struct {
	next   infraoutbox.Producer
	cache  kafka.Invalidator
	topics []string
}

func (p invalidatingProducer) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	if err := p.next.Publish(ctx, topic, key, payload, headers); err != nil {
		return err
	}
	for _, t := range p.topics {
		if strings.EqualFold(t, topic) {
			return p.cache.Invalidate(ctx)
		}
	}
	return nil
}
