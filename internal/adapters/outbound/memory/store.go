package memory

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/skillcoder/admission-scheduler/internal/logic/ledger"
	"github.com/skillcoder/admission-scheduler/internal/logic/scheduler"
)

type cluster struct {
	id     string
	name   string
	ledger *ledger.Ledger
}

// Store keeps workloads and cluster pools in process memory. Workload state
// changes and pool updates happen under one lock, so a decision and both
// writes are observed together.
type Store struct {
	logger    *slog.Logger
	mu        sync.RWMutex
	workloads map[string]scheduler.Workload
	clusters  map[string]*cluster
}

var _ scheduler.Repository = (*Store)(nil)

func New(logger *slog.Logger) *Store {
	return &Store{
		logger:    logger,
		workloads: make(map[string]scheduler.Workload),
		clusters:  make(map[string]*cluster),
	}
}

// Name returns the name of the store component
func (s *Store) Name() string {
	return "memory-store"
}

func (s *Store) PingQuery(_ context.Context) error {
	return nil
}

// Ping satisfies the pinger contract
func (s *Store) Ping(ctx context.Context) error {
	return s.PingQuery(ctx)
}

// RegisterClusterCommand adds a cluster unless one with the same ID exists.
func (s *Store) RegisterClusterCommand(_ context.Context, c scheduler.Cluster) (bool, error) {
	if err := c.Pool.Validate(); err != nil {
		return false, fmt.Errorf("register cluster %s: %w", c.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clusters[c.ID]; ok {
		return false, nil
	}

	s.clusters[c.ID] = &cluster{
		id:     c.ID,
		name:   c.Name,
		ledger: ledger.New(c.Pool),
	}

	return true, nil
}

// RegisterWorkloadCommand adds a workload unless one with the same ID exists.
func (s *Store) RegisterWorkloadCommand(_ context.Context, w scheduler.Workload) (bool, error) {
	if err := scheduler.CheckRegistration(&w); err != nil {
		return false, fmt.Errorf("register workload %s: %w", w.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.workloads[w.ID]; ok {
		return false, nil
	}

	if _, ok := s.clusters[w.ClusterID]; !ok {
		return false, fmt.Errorf("register workload %s: %w: %s", w.ID, scheduler.ErrClusterNotFound, w.ClusterID)
	}

	s.workloads[w.ID] = cloneWorkload(w)

	return true, nil
}

func (s *Store) GetWorkloadQuery(_ context.Context, id string) (*scheduler.Workload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.workloads[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", scheduler.ErrWorkloadNotFound, id)
	}

	out := cloneWorkload(w)

	return &out, nil
}

func (s *Store) GetClusterQuery(_ context.Context, id string) (*scheduler.Cluster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.clusters[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", scheduler.ErrClusterNotFound, id)
	}

	return &scheduler.Cluster{ID: c.id, Name: c.name, Pool: c.ledger.Snapshot()}, nil
}

// ListClustersQuery returns every cluster sorted by ID.
func (s *Store) ListClustersQuery(_ context.Context) ([]scheduler.Cluster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]scheduler.Cluster, 0, len(s.clusters))
	for _, c := range s.clusters {
		out = append(out, scheduler.Cluster{ID: c.id, Name: c.name, Pool: c.ledger.Snapshot()})
	}

	slices.SortFunc(out, func(a, b scheduler.Cluster) int {
		return strings.Compare(a.ID, b.ID)
	})

	return out, nil
}

func (s *Store) AdmitCommand(_ context.Context, id string) (*scheduler.AdmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.workloads[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", scheduler.ErrWorkloadNotFound, id)
	}

	c, ok := s.clusters[w.ClusterID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", scheduler.ErrClusterNotFound, w.ClusterID)
	}

	var decision scheduler.Decision

	err := c.ledger.Update(func(pool *ledger.Pool) error {
		decision = scheduler.Decide(&w, pool)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: update pool %s: %w", scheduler.ErrPersistence, c.id, err)
	}

	if decision == scheduler.DecisionAdmitted || decision == scheduler.DecisionInsufficient {
		s.workloads[id] = w
	}

	return &scheduler.AdmitResult{
		Workload: cloneWorkload(w),
		Pool:     c.ledger.Snapshot(),
		Decision: decision,
	}, nil
}

func (s *Store) CompleteCommand(
	_ context.Context,
	id string,
	status scheduler.Status,
) (*scheduler.CompleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.workloads[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", scheduler.ErrWorkloadNotFound, id)
	}

	c, ok := s.clusters[w.ClusterID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", scheduler.ErrClusterNotFound, w.ClusterID)
	}

	var capped bool

	err := c.ledger.Update(func(pool *ledger.Pool) error {
		var err error

		capped, err = scheduler.Finish(&w, pool, status)

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("complete workload %s: %w", id, err)
	}

	s.workloads[id] = w

	return &scheduler.CompleteResult{
		Workload: cloneWorkload(w),
		Pool:     c.ledger.Snapshot(),
		Capped:   capped,
	}, nil
}

func cloneWorkload(w scheduler.Workload) scheduler.Workload {
	w.Dependencies = slices.Clone(w.Dependencies)

	return w
}
