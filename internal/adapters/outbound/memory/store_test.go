package memory_test

import (
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skillcoder/admission-scheduler/internal/adapters/outbound/memory"
	"github.com/skillcoder/admission-scheduler/internal/logic/ledger"
	"github.com/skillcoder/admission-scheduler/internal/logic/scheduler"
)

func newStore(t *testing.T, limit ledger.Resources, workloads ...scheduler.Workload) *memory.Store {
	t.Helper()

	store := memory.New(slog.Default())

	pool, err := ledger.NewPool(limit)
	require.NoError(t, err)

	created, err := store.RegisterClusterCommand(t.Context(), scheduler.Cluster{ID: "c1", Name: "alpha", Pool: pool})
	require.NoError(t, err)
	require.True(t, created)

	for _, w := range workloads {
		created, err = store.RegisterWorkloadCommand(t.Context(), w)
		require.NoError(t, err)
		require.True(t, created)
	}

	return store
}

func pending(id string, req ledger.Resources) scheduler.Workload {
	return scheduler.Workload{
		ID:        id,
		Name:      id,
		ClusterID: "c1",
		Status:    scheduler.StatusPending,
		Required:  req,
	}
}

type admitCase struct {
	name          string
	giveRequired  ledger.Resources
	wantDecision  scheduler.Decision
	wantStatus    scheduler.Status
	wantAvailable ledger.Resources
}

func TestStore_AdmitCommand(t *testing.T) {
	t.Parallel()

	limit := ledger.Resources{CPU: 10, RAM: 32, GPU: 2}

	tests := []admitCase{
		{
			name:          "fits and reserves",
			giveRequired:  ledger.Resources{CPU: 2, RAM: 4, GPU: 1},
			wantDecision:  scheduler.DecisionAdmitted,
			wantStatus:    scheduler.StatusRunning,
			wantAvailable: ledger.Resources{CPU: 8, RAM: 28, GPU: 1},
		},
		{
			name:          "exact fit drains the pool",
			giveRequired:  limit,
			wantDecision:  scheduler.DecisionAdmitted,
			wantStatus:    scheduler.StatusRunning,
			wantAvailable: ledger.Resources{},
		},
		{
			name:          "cpu shortage stays pending",
			giveRequired:  ledger.Resources{CPU: 20, RAM: 4, GPU: 1},
			wantDecision:  scheduler.DecisionInsufficient,
			wantStatus:    scheduler.StatusPending,
			wantAvailable: limit,
		},
		{
			name:          "negative requirement is invalid",
			giveRequired:  ledger.Resources{CPU: -1},
			wantDecision:  scheduler.DecisionInvalid,
			wantStatus:    scheduler.StatusPending,
			wantAvailable: limit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newStore(t, limit, pending("w1", tt.giveRequired))

			res, err := store.AdmitCommand(t.Context(), "w1")
			require.NoError(t, err)
			require.Equal(t, tt.wantDecision, res.Decision)
			require.Equal(t, tt.wantStatus, res.Workload.Status)
			require.Equal(t, tt.wantAvailable, res.Pool.Available)

			got, err := store.GetWorkloadQuery(t.Context(), "w1")
			require.NoError(t, err)
			require.Equal(t, tt.wantStatus, got.Status)

			c, err := store.GetClusterQuery(t.Context(), "c1")
			require.NoError(t, err)
			require.Equal(t, tt.wantAvailable, c.Pool.Available)
			require.NoError(t, c.Pool.Validate())
		})
	}
}

func TestStore_AdmitCommand_NotPendingIsNoop(t *testing.T) {
	t.Parallel()

	store := newStore(t, ledger.Resources{CPU: 10, RAM: 32, GPU: 2},
		pending("w1", ledger.Resources{CPU: 2, RAM: 4, GPU: 1}))

	_, err := store.AdmitCommand(t.Context(), "w1")
	require.NoError(t, err)

	res, err := store.AdmitCommand(t.Context(), "w1")
	require.NoError(t, err)
	require.Equal(t, scheduler.DecisionNotPending, res.Decision)
	require.Equal(t, ledger.Resources{CPU: 8, RAM: 28, GPU: 1}, res.Pool.Available)
}

func TestStore_AdmitCommand_NotFound(t *testing.T) {
	t.Parallel()

	store := newStore(t, ledger.Resources{CPU: 1})

	_, err := store.AdmitCommand(t.Context(), "missing")
	require.ErrorIs(t, err, scheduler.ErrWorkloadNotFound)
}

func TestStore_RegisterWorkloadCommand(t *testing.T) {
	t.Parallel()

	store := newStore(t, ledger.Resources{CPU: 1}, pending("w1", ledger.Resources{}))

	t.Run("existing workload is kept", func(t *testing.T) {
		t.Parallel()

		created, err := store.RegisterWorkloadCommand(t.Context(), pending("w1", ledger.Resources{CPU: 5}))
		require.NoError(t, err)
		require.False(t, created)

		got, err := store.GetWorkloadQuery(t.Context(), "w1")
		require.NoError(t, err)
		require.Equal(t, ledger.Resources{}, got.Required)
	})

	t.Run("running workload is rejected", func(t *testing.T) {
		t.Parallel()

		w := pending("w3", ledger.Resources{CPU: 1})
		w.Status = scheduler.StatusRunning

		created, err := store.RegisterWorkloadCommand(t.Context(), w)
		require.ErrorIs(t, err, scheduler.ErrRegisterRunning)
		require.False(t, created)

		c, err := store.GetClusterQuery(t.Context(), "c1")
		require.NoError(t, err)
		require.Equal(t, c.Pool.Limit, c.Pool.Available)
	})

	t.Run("unknown cluster is rejected", func(t *testing.T) {
		t.Parallel()

		w := pending("w2", ledger.Resources{})
		w.ClusterID = "nope"

		_, err := store.RegisterWorkloadCommand(t.Context(), w)
		require.ErrorIs(t, err, scheduler.ErrClusterNotFound)
	})
}

func TestStore_CompleteCommand(t *testing.T) {
	t.Parallel()

	limit := ledger.Resources{CPU: 10, RAM: 32, GPU: 2}

	t.Run("running workload releases its reservation", func(t *testing.T) {
		t.Parallel()

		store := newStore(t, limit, pending("w1", ledger.Resources{CPU: 2, RAM: 4, GPU: 1}))

		_, err := store.AdmitCommand(t.Context(), "w1")
		require.NoError(t, err)

		res, err := store.CompleteCommand(t.Context(), "w1", scheduler.StatusCompleted)
		require.NoError(t, err)
		require.Equal(t, scheduler.StatusCompleted, res.Workload.Status)
		require.Equal(t, limit, res.Pool.Available)
		require.False(t, res.Capped)
	})

	t.Run("pending workload is rejected", func(t *testing.T) {
		t.Parallel()

		store := newStore(t, limit, pending("w1", ledger.Resources{CPU: 2}))

		_, err := store.CompleteCommand(t.Context(), "w1", scheduler.StatusFailed)
		require.ErrorIs(t, err, scheduler.ErrNotRunning)

		c, err := store.GetClusterQuery(t.Context(), "c1")
		require.NoError(t, err)
		require.Equal(t, limit, c.Pool.Available)
	})
}

func TestStore_ConcurrentAdmission(t *testing.T) {
	t.Parallel()

	const total = 10

	limit := ledger.Resources{CPU: 64, RAM: 256, GPU: 2}
	workloads := make([]scheduler.Workload, 0, total)

	for i := range total {
		workloads = append(workloads, pending(fmt.Sprintf("w%d", i), ledger.Resources{CPU: 1, RAM: 2, GPU: 1}))
	}

	store := newStore(t, limit, workloads...)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)

	for _, w := range workloads {
		wg.Add(1)

		go func(id string) {
			defer wg.Done()

			res, err := store.AdmitCommand(t.Context(), id)
			if err != nil {
				t.Errorf("admit %s: %v", id, err)

				return
			}

			if res.Decision == scheduler.DecisionAdmitted {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}(w.ID)
	}

	wg.Wait()

	require.Equal(t, 2, admitted)

	clusters, err := store.ListClustersQuery(t.Context())
	require.NoError(t, err)
	require.Len(t, clusters, 1)
	require.Equal(t, ledger.Resources{CPU: 62, RAM: 252, GPU: 0}, clusters[0].Pool.Available)
	require.NoError(t, clusters[0].Pool.Validate())

	running := 0

	for _, w := range workloads {
		got, err := store.GetWorkloadQuery(t.Context(), w.ID)
		require.NoError(t, err)

		if got.Status == scheduler.StatusRunning {
			running++
		}
	}

	require.Equal(t, admitted, running)
}
