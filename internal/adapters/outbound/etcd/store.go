package etcd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/concurrency"

	"github.com/skillcoder/admission-scheduler/internal/adapters/outbound/kvcodec"
	"github.com/skillcoder/admission-scheduler/internal/logic/scheduler"
)

const dialTimeout = 5 * time.Second

// Store keeps workloads and pools under a key prefix and commits every
// decision with a serializable software transaction.
type Store struct {
	logger *slog.Logger
	client *clientv3.Client
	keys   kvcodec.Keys
}

var _ scheduler.Repository = (*Store)(nil)

// Dial connects to the etcd cluster.
func Dial(endpoints []string) (*clientv3.Client, error) {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: dialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create etcd client: %w", err)
	}

	return client, nil
}

func New(logger *slog.Logger, client *clientv3.Client, prefix string) *Store {
	return &Store{
		logger: logger.With("component", "etcd-store"),
		client: client,
		keys:   kvcodec.NewKeys(prefix),
	}
}

// Name returns the name of the store component
func (s *Store) Name() string {
	return "etcd-store"
}

func (s *Store) PingQuery(ctx context.Context) error {
	_, err := s.client.Get(ctx, s.keys.Clusters(), clientv3.WithPrefix(), clientv3.WithCountOnly())
	if err != nil {
		return fmt.Errorf("%w: ping etcd: %w", scheduler.ErrPersistence, err)
	}

	return nil
}

// Ping satisfies the pinger contract
func (s *Store) Ping(ctx context.Context) error {
	return s.PingQuery(ctx)
}

// Shutdown closes the etcd client
func (s *Store) Shutdown(_ context.Context) error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("close etcd client: %w", err)
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

	err = s.transact(ctx, func(stm concurrency.STM) error {
		created = false

		if stm.Get(key) != "" {
			return nil
		}

		stm.Put(key, string(data))

		created = true

		return nil
	})
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
	created := false

	err = s.transact(ctx, func(stm concurrency.STM) error {
		created = false

		if stm.Get(key) != "" {
			return nil
		}

		if stm.Get(s.keys.Cluster(w.ClusterID)) == "" {
			return fmt.Errorf("%w: %s", scheduler.ErrClusterNotFound, w.ClusterID)
		}

		stm.Put(key, string(data))

		created = true

		return nil
	})
	if err != nil {
		return false, scheduler.WrapStoreError(fmt.Sprintf("register workload %s", w.ID), err)
	}

	return created, nil
}

func (s *Store) GetWorkloadQuery(ctx context.Context, id string) (*scheduler.Workload, error) {
	resp, err := s.client.Get(ctx, s.keys.Workload(id))
	if err != nil {
		return nil, scheduler.WrapStoreError(fmt.Sprintf("get workload %s", id), err)
	}

	if len(resp.Kvs) == 0 {
		return nil, fmt.Errorf("%w: %s", scheduler.ErrWorkloadNotFound, id)
	}

	w, err := kvcodec.DecodeWorkload(resp.Kvs[0].Value)
	if err != nil {
		return nil, scheduler.WrapStoreError(fmt.Sprintf("get workload %s", id), err)
	}

	return w, nil
}

func (s *Store) GetClusterQuery(ctx context.Context, id string) (*scheduler.Cluster, error) {
	resp, err := s.client.Get(ctx, s.keys.Cluster(id))
	if err != nil {
		return nil, scheduler.WrapStoreError(fmt.Sprintf("get cluster %s", id), err)
	}

	if len(resp.Kvs) == 0 {
		return nil, fmt.Errorf("%w: %s", scheduler.ErrClusterNotFound, id)
	}

	c, err := kvcodec.DecodeCluster(resp.Kvs[0].Value)
	if err != nil {
		return nil, scheduler.WrapStoreError(fmt.Sprintf("get cluster %s", id), err)
	}

	return c, nil
}

// ListClustersQuery returns every cluster; etcd orders the keys by ID.
func (s *Store) ListClustersQuery(ctx context.Context) ([]scheduler.Cluster, error) {
	resp, err := s.client.Get(ctx, s.keys.Clusters(), clientv3.WithPrefix())
	if err != nil {
		return nil, scheduler.WrapStoreError("list clusters", err)
	}

	out := make([]scheduler.Cluster, 0, len(resp.Kvs))

	for _, kv := range resp.Kvs {
		c, err := kvcodec.DecodeCluster(kv.Value)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to decode cluster",
				"key", string(kv.Key),
				"reason", err,
			)

			continue
		}

		out = append(out, *c)
	}

	return out, nil
}

func (s *Store) AdmitCommand(ctx context.Context, id string) (*scheduler.AdmitResult, error) {
	var result *scheduler.AdmitResult

	err := s.transact(ctx, func(stm concurrency.STM) error {
		w, c, err := s.load(stm, id)
		if err != nil {
			return err
		}

		decision := scheduler.Decide(w, &c.Pool)

		if decision == scheduler.DecisionAdmitted {
			if err := s.put(stm, w, c); err != nil {
				return err
			}
		}

		result = &scheduler.AdmitResult{Workload: *w, Pool: c.Pool, Decision: decision}

		return nil
	})
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
	var result *scheduler.CompleteResult

	err := s.transact(ctx, func(stm concurrency.STM) error {
		w, c, err := s.load(stm, id)
		if err != nil {
			return err
		}

		capped, err := scheduler.Finish(w, &c.Pool, status)
		if err != nil {
			return err
		}

		if err := s.put(stm, w, c); err != nil {
			return err
		}

		result = &scheduler.CompleteResult{Workload: *w, Pool: c.Pool, Capped: capped}

		return nil
	})
	if err != nil {
		return nil, scheduler.WrapStoreError(fmt.Sprintf("complete workload %s", id), err)
	}

	return result, nil
}

// transact runs apply in a serializable STM; conflicting commits are
// re-applied by the STM itself.
func (s *Store) transact(ctx context.Context, apply func(stm concurrency.STM) error) error {
	_, err := concurrency.NewSTM(
		s.client,
		apply,
		concurrency.WithAbortContext(ctx),
		concurrency.WithIsolation(concurrency.SerializableSnapshot),
	)

	return err
}

func (s *Store) load(stm concurrency.STM, id string) (*scheduler.Workload, *scheduler.Cluster, error) {
	raw := stm.Get(s.keys.Workload(id))
	if raw == "" {
		return nil, nil, fmt.Errorf("%w: %s", scheduler.ErrWorkloadNotFound, id)
	}

	w, err := kvcodec.DecodeWorkload([]byte(raw))
	if err != nil {
		return nil, nil, err
	}

	raw = stm.Get(s.keys.Cluster(w.ClusterID))
	if raw == "" {
		return nil, nil, fmt.Errorf("%w: %s", scheduler.ErrClusterNotFound, w.ClusterID)
	}

	c, err := kvcodec.DecodeCluster([]byte(raw))
	if err != nil {
		return nil, nil, err
	}

	return w, c, nil
}

func (s *Store) put(stm concurrency.STM, w *scheduler.Workload, c *scheduler.Cluster) error {
	workloadData, err := kvcodec.EncodeWorkload(w)
	if err != nil {
		return err
	}

	clusterData, err := kvcodec.EncodeCluster(c)
	if err != nil {
		return err
	}

	stm.Put(s.keys.Workload(w.ID), string(workloadData))
	stm.Put(s.keys.Cluster(c.ID), string(clusterData))

	return nil
}
