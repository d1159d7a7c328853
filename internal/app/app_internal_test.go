package app

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/skillcoder/admission-scheduler/internal/adapters/outbound/k8s"
	"github.com/skillcoder/admission-scheduler/internal/adapters/outbound/memory"
	"github.com/skillcoder/admission-scheduler/internal/config"
	"github.com/skillcoder/admission-scheduler/internal/logic/ledger"
)

type allChannelsCloseCase struct {
	name                         string
	giveNumChannels              int
	giveContextCancelBeforeClose bool
	wantClosed                   bool
}

func TestAllChannelsClose(t *testing.T) {
	logger := slog.Default()

	tests := []allChannelsCloseCase{
		{
			name:            "zero channels closes immediately",
			giveNumChannels: 0,
			wantClosed:      true,
		},
		{
			name:            "one channel closes when it closes",
			giveNumChannels: 1,
			wantClosed:      true,
		},
		{
			name:            "two channels close when both close",
			giveNumChannels: 2,
			wantClosed:      true,
		},
		{
			name:                         "context cancelled then channels close",
			giveNumChannels:              2,
			giveContextCancelBeforeClose: true,
			wantClosed:                   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := t.Context()

			if tt.giveContextCancelBeforeClose {
				var cancel context.CancelFunc

				ctx, cancel = context.WithCancel(ctx)
				cancel()
			}

			chans := make([]<-chan struct{}, 0, tt.giveNumChannels)
			readyChans := make([]chan struct{}, 0, tt.giveNumChannels)

			for range tt.giveNumChannels {
				ch := make(chan struct{})

				readyChans = append(readyChans, ch)
				chans = append(chans, ch)
			}

			out := allChannelsClose(ctx, logger, chans...)

			if tt.giveNumChannels == 0 {
				select {
				case <-out:
				case <-time.After(100 * time.Millisecond):
					t.Fatal("expected out channel to close immediately")
				}

				return
			}

			for _, ch := range readyChans {
				close(ch)
			}

			select {
			case <-out:
			case <-time.After(500 * time.Millisecond):
				t.Fatal("expected out channel to close after all input channels closed")
			}
		})
	}
}

var errUnreachable = errors.New("connection refused")

type flakyStore struct {
	failures int32
	calls    atomic.Int32
}

func (f *flakyStore) Name() string {
	return "flaky-store"
}

func (f *flakyStore) PingQuery(_ context.Context) error {
	if f.calls.Add(1) <= f.failures {
		return errUnreachable
	}

	return nil
}

func TestWaitForStore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		giveFailures   int32
		giveMaxElapsed time.Duration
		wantErr        error
		wantMinCalls   int32
	}{
		{
			name:           "reachable at once",
			giveMaxElapsed: time.Second,
			wantMinCalls:   1,
		},
		{
			name:           "reachable after retries",
			giveFailures:   2,
			giveMaxElapsed: 5 * time.Second,
			wantMinCalls:   3,
		},
		{
			name:           "never reachable",
			giveFailures:   1 << 20,
			giveMaxElapsed: 300 * time.Millisecond,
			wantErr:        errUnreachable,
			wantMinCalls:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			st := &flakyStore{failures: tt.giveFailures}

			err := waitForStore(t.Context(), slog.Default(), st, tt.giveMaxElapsed)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			require.GreaterOrEqual(t, st.calls.Load(), tt.wantMinCalls)
		})
	}
}

func TestWaitForStore_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err := waitForStore(ctx, slog.Default(), &flakyStore{failures: 1 << 20}, time.Minute)
	require.Error(t, err)
}

func readyNode(name, cpu, memory string) *corev1.Node {
	return &corev1.Node{
		ObjectMeta: metav1.ObjectMeta{Name: name},
		Status: corev1.NodeStatus{
			Allocatable: corev1.ResourceList{
				corev1.ResourceCPU:    resource.MustParse(cpu),
				corev1.ResourceMemory: resource.MustParse(memory),
			},
			Conditions: []corev1.NodeCondition{
				{Type: corev1.NodeReady, Status: corev1.ConditionTrue},
			},
		},
	}
}

func TestRegisterCapacity(t *testing.T) {
	t.Parallel()

	logger := slog.Default()
	st := memory.New(logger)
	capacity := k8s.New(logger, fake.NewSimpleClientset(
		readyNode("n1", "4", "16Gi"),
		readyNode("n2", "2", "8Gi"),
	))

	require.NoError(t, registerCapacity(t.Context(), logger, capacity, st, "k8s", ""))

	c, err := st.GetClusterQuery(t.Context(), "k8s")
	require.NoError(t, err)
	require.Equal(t, ledger.Resources{CPU: 6, RAM: 24}, c.Pool.Limit)
	require.Equal(t, c.Pool.Limit, c.Pool.Available)

	// a second registration keeps the existing ledger
	require.NoError(t, registerCapacity(t.Context(), logger, capacity, st, "k8s", ""))
}

func TestRegisterCapacity_NoNodes(t *testing.T) {
	t.Parallel()

	logger := slog.Default()
	capacity := k8s.New(logger, fake.NewSimpleClientset())

	err := registerCapacity(t.Context(), logger, capacity, memory.New(logger), "k8s", "")
	require.ErrorIs(t, err, k8s.ErrNoSchedulableNodes)
}

func TestOpenStore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		giveKind string
		wantName string
		wantErr  error
	}{
		{name: "memory", giveKind: config.StoreMemory, wantName: "memory-store"},
		{name: "redis client is lazy", giveKind: config.StoreRedis, wantName: "redis-store"},
		{name: "unknown", giveKind: "cassandra", wantErr: config.ErrUnknownStore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			st, err := openStore(t.Context(), slog.Default(), &config.Config{
				Store:     tt.giveKind,
				RedisAddr: "127.0.0.1:1",
			})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.wantName, st.Name())
		})
	}
}
