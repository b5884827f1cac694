package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/config"
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/events/kafka"
	interfaces "github.com/sheikh-saqib/crypto-purchase-pipeline/internal/interfaces"
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/pipeline"
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/purchase"
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/rates"
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/storage/memory"
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/storage/postgres"
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/storage/sqlite"
	"github.com/sheikh-saqib/crypto-purchase-pipeline/internal/users"
	"go.uber.org/zap"
)

// App is the wired purchase service plus the resources it holds open.
type App struct {
	Service *purchase.Service

	closers []func() error
}

// Close releases every resource opened by Build, last opened first.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Build wires collaborators, pipeline and service from cfg.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	a := &App{}

	store, err := a.openStore(ctx, cfg.Storage, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	directory, err := a.openDirectory(ctx, cfg.Users, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	source := rateSource(cfg.Rates, logger)

	policy := cfg.PipelinePolicy()
	p, err := pipeline.New(policy, pipeline.Dependencies{
		Rates: source,
		Users: directory,
		Store: store,
	}, logger.Named("pipeline"))
	if err != nil {
		a.Close()
		return nil, err
	}

	opts := []purchase.Option{
		purchase.WithLogger(logger.Named("purchase")),
		purchase.WithConcurrency(cfg.BatchConcurrency),
	}
	if len(cfg.Kafka.Brokers) > 0 {
		pub := kafka.NewPublisher(cfg.Kafka.Brokers)
		a.closers = append(a.closers, pub.Close)
		opts = append(opts, purchase.WithPublisher(pub, cfg.Kafka.Topic))
		logger.Info("publishing purchase events", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	a.Service = purchase.NewService(p, policy, store, opts...)
	return a, nil
}

func (a *App) openStore(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (interfaces.TransactionStore, error) {
	switch cfg.Driver {
	case "memory":
		logger.Info("using in-memory transaction store")
		return memory.NewMemoryTransactionStore(), nil
	case "postgres":
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		store := postgres.NewPostgresTransactionStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		logger.Info("using postgres transaction store")
		return store, nil
	default:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		store := sqlite.NewSQLiteTransactionStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		logger.Info("using sqlite transaction store", zap.String("path", cfg.SQLitePath))
		return store, nil
	}
}

func (a *App) openDirectory(ctx context.Context, cfg config.UsersConfig, logger *zap.Logger) (interfaces.UserDirectory, error) {
	seed := users.DefaultUsers()
	if cfg.File != "" {
		loaded, err := users.LoadFile(cfg.File)
		if err != nil {
			return nil, err
		}
		seed = loaded
	}

	if cfg.Directory != "redis" {
		logger.Info("using in-memory user directory", zap.Int("users", len(seed)))
		return users.NewMemoryDirectory(seed), nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	a.closers = append(a.closers, client.Close)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis %s: %w", cfg.RedisAddr, err)
	}

	directory := users.NewRedisDirectory(client, cfg.KeyPrefix)
	// only seed explicitly provided users; the redis directory is otherwise authoritative
	if cfg.File != "" {
		if err := directory.Seed(ctx, seed); err != nil {
			return nil, err
		}
	}
	logger.Info("using redis user directory", zap.String("addr", cfg.RedisAddr))
	return directory, nil
}

func rateSource(cfg config.RatesConfig, logger *zap.Logger) interfaces.RateSource {
	var source interfaces.RateSource
	if cfg.Source == "http" {
		source = rates.NewHTTPSource(cfg.URL, cfg.HTTPTimeout, rates.BreakerConfig{
			ConsecutiveFailures: 5,
			Timeout:             30 * time.Second,
		}, logger.Named("rates"))
		logger.Info("using http rate source", zap.String("url", cfg.URL))
	} else {
		source = rates.NewFixedSource(rates.DefaultPrices(), rates.DefaultFX())
		logger.Info("using fixed rate source")
	}

	if cfg.CacheTTL > 0 {
		source = rates.NewCached(source, cfg.CacheTTL)
	}
	return source
}
