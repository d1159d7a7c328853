package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/avast/retry-go"
	"github.com/go-redis/redis"

	"github.com/skillcoder/admission-scheduler/internal/adapters/outbound/kvcodec"
	"github.com/skillcoder/admission-scheduler/internal/logic/scheduler"
)

const (
	conflictAttempts = 16
	conflictDelay    = 5 * time.Millisecond
)

// Store keeps workloads and pools as JSON values and commits every
// decision with WATCH/MULTI. Conflicting writers are retried.
type Store struct {
	logger *slog.Logger
	client *redis.Client
	keys   kvcodec.Keys
}

var _ scheduler.Repository = (*Store)(nil)

func New(logger *slog.Logger, client *redis.Client, prefix string) *Store {
	return &Store{
		logger: logger.With("component", "redis-store"),
		client: client,
		keys:   kvcodec.NewKeys(prefix),
	}
}

// Name returns the name of the store component
func (s *Store) Name() string {
	return "redis-store"
}

func (s *Store) PingQuery(ctx context.Context) error {
	if err := s.client.WithContext(ctx).Ping().Err(); err != nil {
		return fmt.Errorf("%w: ping redis: %w", scheduler.ErrPersistence, err)
	}

	return nil
}

// Ping satisfies the pinger contract
func (s *Store) Ping(ctx context.Context) error {
	return s.PingQuery(ctx)
}

// Shutdown closes the redis client
func (s *Store) Shutdown(_ context.Context) error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("close redis client: %w", err)
	}

	return nil
}

// RegisterClusterCommand adds a cluster unless one with the same ID exists.
func (s *Store) RegisterClusterCommand(ctx context.Context, c scheduler.Cluster) (bool, error) {
	if err := c.Pool.Validate(); err != nil {
		return false, fmt.Errorf("register cluster %s: %w", c.ID, err)
	}

	data, err := kvcodec.EncodeCluster(&c)
	if err != nil {
		return false, err
	}

	key := s.keys.Cluster(c.ID)
	created := false

	err = s.transact(ctx, func(tx *redis.Tx) error {
		created = false

		n, err := tx.Exists(key).Result()
		if err != nil {
			return err
		}

		if n > 0 {
			return nil
		}

		_, err = tx.Pipelined(func(pipe redis.Pipeliner) error {
			pipe.Set(key, data, 0)
			pipe.SAdd(s.keys.ClusterIndex(), c.ID)

			return nil
		})
		if err != nil {
			return err
		}

		created = true

		return nil
	}, key)
	if err != nil {
		return false, scheduler.WrapStoreError(fmt.Sprintf("register cluster %s", c.ID), err)
	}

	return created, nil
}

// RegisterWorkloadCommand adds a workload unless one with the same ID exists.
func (s *Store) RegisterWorkloadCommand(ctx context.Context, w scheduler.Workload) (bool, error) {
	if err := scheduler.CheckRegistration(&w); err != nil {
		return false, fmt.Errorf("register workload %s: %w", w.ID, err)
	}

	data, err := kvcodec.EncodeWorkload(&w)
	if err != nil {
		return false, err
	}

	key := s.keys.Workload(w.ID)
	clusterKey := s.keys.Cluster(w.ClusterID)
	created := false

	err = s.transact(ctx, func(tx *redis.Tx) error {
		created = false

		exists, err := tx.Exists(key).Result()
		if err != nil {
			return err
		}

		if exists > 0 {
			return nil
		}

		clusters, err := tx.Exists(clusterKey).Result()
		if err != nil {
			return err
		}

		if clusters == 0 {
			return fmt.Errorf("%w: %s", scheduler.ErrClusterNotFound, w.ClusterID)
		}

		_, err = tx.Pipelined(func(pipe redis.Pipeliner) error {
			pipe.Set(key, data, 0)

			return nil
		})
		if err != nil {
			return err
		}

		created = true

		return nil
	}, key, clusterKey)
	if err != nil {
		return false, scheduler.WrapStoreError(fmt.Sprintf("register workload %s", w.ID), err)
	}

	return created, nil
}

func (s *Store) GetWorkloadQuery(ctx context.Context, id string) (*scheduler.Workload, error) {
	w, err := getWorkload(s.client.WithContext(ctx), s.keys.Workload(id))
	if err != nil {
		return nil, scheduler.WrapStoreError(fmt.Sprintf("get workload %s", id), notFound(err, scheduler.ErrWorkloadNotFound, id))
	}

	return w, nil
}

func (s *Store) GetClusterQuery(ctx context.Context, id string) (*scheduler.Cluster, error) {
	c, err := getCluster(s.client.WithContext(ctx), s.keys.Cluster(id))
	if err != nil {
		return nil, scheduler.WrapStoreError(fmt.Sprintf("get cluster %s", id), notFound(err, scheduler.ErrClusterNotFound, id))
	}

	return c, nil
}

// ListClustersQuery returns every indexed cluster sorted by ID.
func (s *Store) ListClustersQuery(ctx context.Context) ([]scheduler.Cluster, error) {
	client := s.client.WithContext(ctx)

	ids, err := client.SMembers(s.keys.ClusterIndex()).Result()
	if err != nil {
		return nil, scheduler.WrapStoreError("list cluster index", err)
	}

	slices.Sort(ids)

	out := make([]scheduler.Cluster, 0, len(ids))

	for _, id := range ids {
		c, err := getCluster(client, s.keys.Cluster(id))
		if errors.Is(err, errRecordMissing) {
			s.logger.WarnContext(ctx, "indexed cluster has no record", "clusterID", id)

			continue
		}

		if err != nil {
			return nil, scheduler.WrapStoreError(fmt.Sprintf("get cluster %s", id), err)
		}

		out = append(out, *c)
	}

	return out, nil
}

func (s *Store) AdmitCommand(ctx context.Context, id string) (*scheduler.AdmitResult, error) {
	workloadKey := s.keys.Workload(id)

	var result *scheduler.AdmitResult

	err := s.transact(ctx, func(tx *redis.Tx) error {
		w, err := getWorkload(tx, workloadKey)
		if err != nil {
			return notFound(err, scheduler.ErrWorkloadNotFound, id)
		}

		clusterKey := s.keys.Cluster(w.ClusterID)
		if err := tx.Watch(clusterKey).Err(); err != nil {
			return err
		}

		c, err := getCluster(tx, clusterKey)
		if err != nil {
			return notFound(err, scheduler.ErrClusterNotFound, w.ClusterID)
		}

		decision := scheduler.Decide(w, &c.Pool)

		if decision == scheduler.DecisionAdmitted {
			if err := s.commit(tx, w, c); err != nil {
				return err
			}
		}

		result = &scheduler.AdmitResult{Workload: *w, Pool: c.Pool, Decision: decision}

		return nil
	}, workloadKey)
	if err != nil {
		return nil, scheduler.WrapStoreError(fmt.Sprintf("admit workload %s", id), err)
	}

	return result, nil
}

func (s *Store) CompleteCommand(
	ctx context.Context,
	id string,
	status scheduler.Status,
) (*scheduler.CompleteResult, error) {
	workloadKey := s.keys.Workload(id)

	var result *scheduler.CompleteResult

	err := s.transact(ctx, func(tx *redis.Tx) error {
		w, err := getWorkload(tx, workloadKey)
		if err != nil {
			return notFound(err, scheduler.ErrWorkloadNotFound, id)
		}

		clusterKey := s.keys.Cluster(w.ClusterID)
		if err := tx.Watch(clusterKey).Err(); err != nil {
			return err
		}

		c, err := getCluster(tx, clusterKey)
		if err != nil {
			return notFound(err, scheduler.ErrClusterNotFound, w.ClusterID)
		}

		capped, err := scheduler.Finish(w, &c.Pool, status)
		if err != nil {
			return err
		}

		if err := s.commit(tx, w, c); err != nil {
			return err
		}

		result = &scheduler.CompleteResult{Workload: *w, Pool: c.Pool, Capped: capped}

		return nil
	}, workloadKey)
	if err != nil {
		return nil, scheduler.WrapStoreError(fmt.Sprintf("complete workload %s", id), err)
	}

	return result, nil
}

// transact runs fn under WATCH and retries it while another writer wins
// the race for the watched keys.
func (s *Store) transact(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	client := s.client.WithContext(ctx)

	return retry.Do(
		func() error {
			return client.Watch(fn, keys...)
		},
		retry.Context(ctx),
		retry.Attempts(conflictAttempts),
		retry.Delay(conflictDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, redis.TxFailedErr)
		}),
		retry.OnRetry(func(n uint, err error) {
			s.logger.DebugContext(ctx, "redis transaction conflict, retrying",
				"try", n+1,
				"reason", err,
			)
		}),
	)
}

func (s *Store) commit(tx *redis.Tx, w *scheduler.Workload, c *scheduler.Cluster) error {
	workloadData, err := kvcodec.EncodeWorkload(w)
	if err != nil {
		return err
	}

	clusterData, err := kvcodec.EncodeCluster(c)
	if err != nil {
		return err
	}

	_, err = tx.Pipelined(func(pipe redis.Pipeliner) error {
		pipe.Set(s.keys.Workload(w.ID), workloadData, 0)
		pipe.Set(s.keys.Cluster(c.ID), clusterData, 0)

		return nil
	})

	return err
}

type getter interface {
	Get(key string) *redis.StringCmd
}

func getWorkload(g getter, key string) (*scheduler.Workload, error) {
	data, err := g.Get(key).Bytes()
	if err != nil {
		return nil, missing(err)
	}

	return kvcodec.DecodeWorkload(data)
}

func getCluster(g getter, key string) (*scheduler.Cluster, error) {
	data, err := g.Get(key).Bytes()
	if err != nil {
		return nil, missing(err)
	}

	return kvcodec.DecodeCluster(data)
}

func missing(err error) error {
	if errors.Is(err, redis.Nil) {
		return errRecordMissing
	}

	return err
}

func notFound(err, sentinel error, id string) error {
	if errors.Is(err, errRecordMissing) {
		return fmt.Errorf("%w: %s", sentinel, id)
	}

	return err
}
