package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/skillcoder/admission-scheduler/internal/logic/ledger"
	"github.com/skillcoder/admission-scheduler/internal/logic/scheduler"
)

// Store keeps workloads and pools in two tables. Every decision locks the
// workload row and then its cluster row.
type Store struct {
	logger *slog.Logger
	db     *pgxpool.Pool
}

var _ scheduler.Repository = (*Store)(nil)

// Connect creates a connection pool for dsn. Connections are opened on first
// use, so an unreachable server surfaces on PingQuery.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	poolConfig.LazyConnect = true

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	return db, nil
}

func New(logger *slog.Logger, db *pgxpool.Pool) *Store {
	return &Store{
		logger: logger.With("component", "postgres-store"),
		db:     db,
	}
}

// Name returns the name of the store component
func (s *Store) Name() string {
	return "postgres-store"
}

// EnsureSchema creates the tables when they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("%w: ensure schema: %w", scheduler.ErrPersistence, err)
	}

	return nil
}

func (s *Store) PingQuery(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("%w: ping postgres: %w", scheduler.ErrPersistence, err)
	}

	return nil
}

// Ping satisfies the pinger contract
func (s *Store) Ping(ctx context.Context) error {
	return s.PingQuery(ctx)
}

// Shutdown closes the pool
func (s *Store) Shutdown(_ context.Context) error {
	s.db.Close()

	return nil
}

// RegisterClusterCommand adds a cluster unless one with the same ID exists.
func (s *Store) RegisterClusterCommand(ctx context.Context, c scheduler.Cluster) (bool, error) {
	if err := c.Pool.Validate(); err != nil {
		return false, fmt.Errorf("register cluster %s: %w", c.ID, err)
	}

	tag, err := s.db.Exec(ctx, insertCluster,
		c.ID, c.Name,
		c.Pool.Limit.CPU, c.Pool.Limit.RAM, c.Pool.Limit.GPU,
		c.Pool.Available.CPU, c.Pool.Available.RAM, c.Pool.Available.GPU,
	)
	if err != nil {
		return false, scheduler.WrapStoreError(fmt.Sprintf("register cluster %s", c.ID), err)
	}

	return tag.RowsAffected() == 1, nil
}

// RegisterWorkloadCommand adds a workload unless one with the same ID exists.
func (s *Store) RegisterWorkloadCommand(ctx context.Context, w scheduler.Workload) (bool, error) {
	if err := scheduler.CheckRegistration(&w); err != nil {
		return false, fmt.Errorf("register workload %s: %w", w.ID, err)
	}

	created := false

	err := s.db.BeginTxFunc(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		var one int

		err := tx.QueryRow(ctx, clusterExists, w.ClusterID).Scan(&one)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", scheduler.ErrClusterNotFound, w.ClusterID)
		}

		if err != nil {
			return err
		}

		deps := w.Dependencies
		if deps == nil {
			deps = []string{}
		}

		tag, err := tx.Exec(ctx, insertWorkload,
			w.ID, w.Name, w.ClusterID, w.Image, string(w.Status), w.Priority,
			w.Required.CPU, w.Required.RAM, w.Required.GPU, deps,
		)
		if err != nil {
			return err
		}

		created = tag.RowsAffected() == 1

		return nil
	})
	if err != nil {
		return false, scheduler.WrapStoreError(fmt.Sprintf("register workload %s", w.ID), err)
	}

	return created, nil
}

func (s *Store) GetWorkloadQuery(ctx context.Context, id string) (*scheduler.Workload, error) {
	w, err := scanWorkload(s.db.QueryRow(ctx, selectWorkload, id))
	if err != nil {
		return nil, scheduler.WrapStoreError(fmt.Sprintf("get workload %s", id),
			notFound(err, scheduler.ErrWorkloadNotFound, id))
	}

	return w, nil
}

func (s *Store) GetClusterQuery(ctx context.Context, id string) (*scheduler.Cluster, error) {
	c, err := scanCluster(s.db.QueryRow(ctx, selectCluster, id))
	if err != nil {
		return nil, scheduler.WrapStoreError(fmt.Sprintf("get cluster %s", id),
			notFound(err, scheduler.ErrClusterNotFound, id))
	}

	return c, nil
}

// ListClustersQuery returns every cluster sorted by ID.
func (s *Store) ListClustersQuery(ctx context.Context) ([]scheduler.Cluster, error) {
	rows, err := s.db.Query(ctx, selectClusters)
	if err != nil {
		return nil, scheduler.WrapStoreError("list clusters", err)
	}
	defer rows.Close()

	var out []scheduler.Cluster

	for rows.Next() {
		c, err := scanCluster(rows)
		if err != nil {
			return nil, scheduler.WrapStoreError("scan cluster", err)
		}

		out = append(out, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, scheduler.WrapStoreError("list clusters", err)
	}

	return out, nil
}

func (s *Store) AdmitCommand(ctx context.Context, id string) (*scheduler.AdmitResult, error) {
	var result *scheduler.AdmitResult

	err := s.db.BeginTxFunc(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		w, c, err := lockPair(ctx, tx, id)
		if err != nil {
			return err
		}

		decision := scheduler.Decide(w, &c.Pool)

		if decision == scheduler.DecisionAdmitted {
			if err := persist(ctx, tx, w, c); err != nil {
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

	err := s.db.BeginTxFunc(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		w, c, err := lockPair(ctx, tx, id)
		if err != nil {
			return err
		}

		capped, err := scheduler.Finish(w, &c.Pool, status)
		if err != nil {
			return err
		}

		if err := persist(ctx, tx, w, c); err != nil {
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

// lockPair locks the workload row and then its cluster row. The fixed order
// keeps concurrent decisions on one cluster from deadlocking.
func lockPair(ctx context.Context, tx pgx.Tx, id string) (*scheduler.Workload, *scheduler.Cluster, error) {
	w, err := scanWorkload(tx.QueryRow(ctx, selectWorkload+" FOR UPDATE", id))
	if err != nil {
		return nil, nil, notFound(err, scheduler.ErrWorkloadNotFound, id)
	}

	c, err := scanCluster(tx.QueryRow(ctx, selectCluster+" FOR UPDATE", w.ClusterID))
	if err != nil {
		return nil, nil, notFound(err, scheduler.ErrClusterNotFound, w.ClusterID)
	}

	return w, c, nil
}

func persist(ctx context.Context, tx pgx.Tx, w *scheduler.Workload, c *scheduler.Cluster) error {
	if _, err := tx.Exec(ctx, updateWorkloadStatus, w.ID, string(w.Status)); err != nil {
		return fmt.Errorf("update workload: %w", err)
	}

	_, err := tx.Exec(ctx, updateClusterAvailable,
		c.ID, c.Pool.Available.CPU, c.Pool.Available.RAM, c.Pool.Available.GPU,
	)
	if err != nil {
		return fmt.Errorf("update cluster: %w", err)
	}

	return nil
}

func scanWorkload(row pgx.Row) (*scheduler.Workload, error) {
	var (
		w      scheduler.Workload
		status string
	)

	err := row.Scan(
		&w.ID, &w.Name, &w.ClusterID, &w.Image, &status, &w.Priority,
		&w.Required.CPU, &w.Required.RAM, &w.Required.GPU, &w.Dependencies,
	)
	if err != nil {
		return nil, err
	}

	w.Status = scheduler.Status(status)
	if !w.Status.Valid() {
		return nil, fmt.Errorf("workload %s: %w: %q", w.ID, scheduler.ErrInvalidStatus, status)
	}

	return &w, nil
}

func scanCluster(row pgx.Row) (*scheduler.Cluster, error) {
	var (
		c         scheduler.Cluster
		limit     ledger.Resources
		available ledger.Resources
	)

	err := row.Scan(
		&c.ID, &c.Name,
		&limit.CPU, &limit.RAM, &limit.GPU,
		&available.CPU, &available.RAM, &available.GPU,
	)
	if err != nil {
		return nil, err
	}

	c.Pool = ledger.Pool{Limit: limit, Available: available}

	return &c, nil
}

func notFound(err, sentinel error, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", sentinel, id)
	}

	return err
}
