package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	goredis "github.com/go-redis/redis"

	"github.com/skillcoder/admission-scheduler/internal/adapters/outbound/etcd"
	"github.com/skillcoder/admission-scheduler/internal/adapters/outbound/memory"
	"github.com/skillcoder/admission-scheduler/internal/adapters/outbound/postgres"
	redisstore "github.com/skillcoder/admission-scheduler/internal/adapters/outbound/redis"
	"github.com/skillcoder/admission-scheduler/internal/config"
)

// openStore creates the configured backend. No connection is required to
// succeed here; waitForStore blocks until the backend answers.
func openStore(ctx context.Context, logger *slog.Logger, cfg *config.Config) (store, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return memory.New(logger), nil
	case config.StoreRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})

		return redisstore.New(logger, client, cfg.StorePrefix), nil
	case config.StoreEtcd:
		client, err := etcd.Dial(cfg.EtcdEndpoints)
		if err != nil {
			return nil, err
		}

		return etcd.New(logger, client, cfg.StorePrefix), nil
	case config.StorePostgres:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}

		return postgres.New(logger, db), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownStore, cfg.Store)
	}
}

// waitForStore pings the store with exponential backoff until it answers,
// maxElapsed passes or ctx is done.
func waitForStore(ctx context.Context, logger *slog.Logger, st storePinger, maxElapsed time.Duration) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.MaxElapsedTime = maxElapsed

	tries := 0

	operation := func() error {
		tries++

		return st.PingQuery(ctx)
	}

	notify := func(err error, next time.Duration) {
		logger.WarnContext(ctx, "store is not reachable yet, retrying",
			"store", st.Name(),
			"retryIn", next,
			"reason", err,
		)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(policy, ctx), notify); err != nil {
		return fmt.Errorf("wait for %s: %w", st.Name(), err)
	}

	logger.InfoContext(ctx, "store is reachable", "store", st.Name(), "tries", tries)

	return nil
}
