package shutdown_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/skillcoder/admission-scheduler/internal/infra/shutdown"
	"github.com/skillcoder/admission-scheduler/internal/infra/shutdown/mocks"
)

type signalSource chan os.Signal

func (s signalSource) Quit() <-chan os.Signal {
	return s
}

func TestCheckTerminationFile(t *testing.T) {
	t.Parallel()

	logger := slog.Default()

	t.Run("file missing returns false", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nonexistent")

		require.False(t, shutdown.CheckTerminationFile(t.Context(), logger, path))
	})

	t.Run("file exists returns true", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "terminating")
		require.NoError(t, os.WriteFile(path, nil, 0o600))

		require.True(t, shutdown.CheckTerminationFile(t.Context(), logger, path))
	})

	t.Run("empty path disables the check", func(t *testing.T) {
		t.Parallel()

		require.False(t, shutdown.CheckTerminationFile(t.Context(), logger, ""))
	})
}

func TestHandler_CheckTermination(t *testing.T) {
	t.Parallel()

	logger := slog.Default()

	t.Run("no file starts", func(t *testing.T) {
		t.Parallel()

		h := shutdown.New(logger, make(signalSource), filepath.Join(t.TempDir(), "terminating"))
		require.NoError(t, h.CheckTermination(t.Context()))
	})

	t.Run("file present refuses start", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "terminating")
		require.NoError(t, os.WriteFile(path, nil, 0o600))

		h := shutdown.New(logger, make(signalSource), path)
		require.ErrorIs(t, h.CheckTermination(t.Context()), shutdown.ErrTerminationRequested)
	})

	t.Run("cancelled context refuses start", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		h := shutdown.New(logger, make(signalSource), "")
		require.ErrorIs(t, h.CheckTermination(ctx), context.Canceled)
	})
}

func TestHandler_HandleSignals(t *testing.T) {
	t.Parallel()

	logger := slog.Default()

	t.Run("signal cancels", func(t *testing.T) {
		t.Parallel()

		signals := make(signalSource, 1)
		h := shutdown.New(logger, signals, "")

		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()

		done := make(chan struct{})

		go func() {
			defer close(done)

			h.HandleSignals(ctx, cancel)
		}()

		signals <- syscall.SIGTERM

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("signal handler did not return")
		}

		require.ErrorIs(t, ctx.Err(), context.Canceled)
	})

	t.Run("context done returns without cancel", func(t *testing.T) {
		t.Parallel()

		h := shutdown.New(logger, make(signalSource), "")

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		called := false

		h.HandleSignals(ctx, func() { called = true })
		require.False(t, called)
	})
}

func TestGracefulShutdown(t *testing.T) {
	t.Parallel()

	logger := slog.Default()

	t.Run("empty list returns nil", func(t *testing.T) {
		t.Parallel()

		require.NoError(t, shutdown.GracefulShutdown(t.Context(), logger, nil))
	})

	t.Run("one shutdowner error returns error", func(t *testing.T) {
		t.Parallel()

		m := mocks.NewMockShutdowner(t)
		m.EXPECT().Name().Return("test").Once()
		m.EXPECT().Shutdown(mock.Anything).Return(context.DeadlineExceeded).Once()

		err := shutdown.GracefulShutdown(t.Context(), logger, []shutdown.Shutdowner{m})
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.ErrorContains(t, err, "shutdown test")
	})

	t.Run("reverse order and failures do not stop the sequence", func(t *testing.T) {
		t.Parallel()

		var order []string

		record := func(name string, err error) *mocks.MockShutdowner {
			m := mocks.NewMockShutdowner(t)
			m.EXPECT().Name().Return(name).Once()
			m.EXPECT().Shutdown(mock.Anything).RunAndReturn(func(context.Context) error {
				order = append(order, name)

				return err
			}).Once()

			return m
		}

		err := shutdown.GracefulShutdown(t.Context(), logger, []shutdown.Shutdowner{
			record("store", nil),
			record("queue", context.DeadlineExceeded),
			record("http", nil),
		})
		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.Equal(t, []string{"http", "queue", "store"}, order)
	})

	t.Run("cancelled parent still gets a live context", func(t *testing.T) {
		t.Parallel()

		parent, cancel := context.WithTimeout(t.Context(), time.Second)
		cancel()

		m := mocks.NewMockShutdowner(t)
		m.EXPECT().Name().Return("test").Once()
		m.EXPECT().Shutdown(mock.Anything).RunAndReturn(func(ctx context.Context) error {
			return context.Cause(ctx)
		}).Once()

		require.NoError(t, shutdown.GracefulShutdown(parent, logger, []shutdown.Shutdowner{m}))
	})
}
