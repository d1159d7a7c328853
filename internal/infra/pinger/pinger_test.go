package pinger

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errPing = errors.New("ping failed")

type mockPinger struct {
	name  string
	mu    sync.Mutex
	err   error
	calls atomic.Int32
}

func (m *mockPinger) Name() string {
	return m.name
}

func (m *mockPinger) Ping(_ context.Context) error {
	m.calls.Add(1)

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.err
}

func (m *mockPinger) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.err = err
}

type optionalPinger struct {
	mockPinger
	readyCritical  bool
	healthCritical bool
	threshold      int
}

func (p *optionalPinger) PingerReadyCritical() bool { return p.readyCritical }

func (p *optionalPinger) PingerCritical() bool { return p.healthCritical }

func (p *optionalPinger) PingerFailureThreshold() int { return p.threshold }

type slowPinger struct {
	mockPinger
}

func (p *slowPinger) PingerTimeout() time.Duration { return 10 * time.Millisecond }

func (p *slowPinger) Ping(ctx context.Context) error {
	<-ctx.Done()

	return ctx.Err()
}

func TestService_Register(t *testing.T) {
	t.Parallel()

	t.Run("register valid pinger", func(t *testing.T) {
		t.Parallel()

		service := New(slog.Default(), time.Second)
		require.NoError(t, service.Register(&mockPinger{name: "store"}))

		_, err := service.GetStats("store")
		require.NoError(t, err)
	})

	t.Run("register nil pinger", func(t *testing.T) {
		t.Parallel()

		service := New(slog.Default(), time.Second)
		require.ErrorIs(t, service.Register(nil), ErrNilPinger)
	})

	t.Run("register duplicate pinger", func(t *testing.T) {
		t.Parallel()

		service := New(slog.Default(), time.Second)
		require.NoError(t, service.Register(&mockPinger{name: "store"}))
		require.ErrorIs(t, service.Register(&mockPinger{name: "store"}), ErrPingerAlreadyRegistered)
	})

	t.Run("unknown stats", func(t *testing.T) {
		t.Parallel()

		service := New(slog.Default(), time.Second)

		_, err := service.GetStats("absent")
		require.ErrorIs(t, err, ErrPingerNotFound)
	})
}

func TestService_PingAll(t *testing.T) {
	t.Parallel()

	t.Run("failure turns not ready at once and unhealthy after threshold", func(t *testing.T) {
		t.Parallel()

		service := New(slog.Default(), time.Second)
		p := &mockPinger{name: "store"}
		require.NoError(t, service.Register(p))

		service.PingAll(t.Context())

		stats, err := service.GetStats("store")
		require.NoError(t, err)
		require.True(t, stats.IsReady)
		require.True(t, stats.IsHealthy)
		require.Equal(t, 1, stats.SuccessCount)

		p.fail(errPing)

		for i := range defaultFailureThreshold {
			service.PingAll(t.Context())

			stats, err = service.GetStats("store")
			require.NoError(t, err)
			require.False(t, stats.IsReady)
			require.Equal(t, i < defaultFailureThreshold-1, stats.IsHealthy)
		}

		require.Equal(t, defaultFailureThreshold, stats.ConsecutiveFailures)
		require.ErrorIs(t, stats.LastError, errPing)
		require.NotNil(t, stats.LastErrorSnapshot)

		p.fail(nil)
		service.PingAll(t.Context())

		stats, err = service.GetStats("store")
		require.NoError(t, err)
		require.True(t, stats.IsReady)
		require.True(t, stats.IsHealthy)
		require.Zero(t, stats.ConsecutiveFailures)
		require.Equal(t, defaultFailureThreshold, stats.ErrorCount)
	})

	t.Run("optional interfaces relax criticality", func(t *testing.T) {
		t.Parallel()

		service := New(slog.Default(), time.Second)
		p := &optionalPinger{mockPinger: mockPinger{name: "queue"}, threshold: 1}
		p.fail(errPing)
		require.NoError(t, service.Register(p))

		service.PingAll(t.Context())

		stats := service.GetAllStats()["queue"]
		require.NotNil(t, stats)
		require.True(t, stats.IsReady)
		require.True(t, stats.IsHealthy)
		require.Equal(t, 1, stats.ErrorCount)
	})

	t.Run("threshold override", func(t *testing.T) {
		t.Parallel()

		service := New(slog.Default(), time.Second)
		p := &optionalPinger{
			mockPinger:     mockPinger{name: "store"},
			readyCritical:  true,
			healthCritical: true,
			threshold:      1,
		}
		p.fail(errPing)
		require.NoError(t, service.Register(p))

		service.PingAll(t.Context())

		stats, err := service.GetStats("store")
		require.NoError(t, err)
		require.False(t, stats.IsHealthy)
	})

	t.Run("ping timeout is reported", func(t *testing.T) {
		t.Parallel()

		service := New(slog.Default(), time.Second)
		require.NoError(t, service.Register(&slowPinger{mockPinger: mockPinger{name: "slow"}}))

		service.PingAll(t.Context())

		stats, err := service.GetStats("slow")
		require.NoError(t, err)
		require.ErrorIs(t, stats.LastError, context.DeadlineExceeded)
	})
}

func TestService_Lifecycle(t *testing.T) {
	t.Parallel()

	service := New(slog.Default(), 5*time.Millisecond)
	p := &mockPinger{name: "store"}
	require.NoError(t, service.Register(p))

	ctx, cancel := context.WithCancel(t.Context())
	require.NoError(t, service.Start(ctx))

	select {
	case <-service.Ready():
	case <-time.After(time.Second):
		t.Fatal("pinger not ready")
	}

	require.Eventually(t, func() bool {
		return p.calls.Load() >= 3
	}, time.Second, 5*time.Millisecond)

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(t.Context(), time.Second)
	defer shutdownCancel()

	require.NoError(t, service.Shutdown(shutdownCtx))
	require.NoError(t, service.Shutdown(shutdownCtx))
}
