package app_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skillcoder/admission-scheduler/internal/app"
	"github.com/skillcoder/admission-scheduler/internal/config"
	"github.com/skillcoder/admission-scheduler/internal/infra/appstate"
	"github.com/skillcoder/admission-scheduler/internal/infra/pinger"
)

func memoryConfig(seedFile string) *config.Config {
	return &config.Config{
		LogLevel:            "debug",
		LogFormat:           "text",
		HTTPPort:            "0",
		MetricsPort:         "0",
		PingerInterval:      time.Second,
		RetryDelay:          10 * time.Millisecond,
		RetryBudget:         3,
		FaultBudget:         3,
		Workers:             2,
		QueueSize:           16,
		AuditSchedule:       "*/5 * * * *",
		AuditTZ:             "UTC",
		Store:               config.StoreMemory,
		StoreConnectTimeout: time.Second,
		SeedFile:            seedFile,
		ShutdownTimeout:     5 * time.Second,
	}
}

func TestApp_RunWithMemoryStore(t *testing.T) {
	t.Parallel()

	seedFile := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(seedFile, []byte(`
clusters:
  - id: c1
    name: alpha
    cpu: "4"
    ram: "8"
    gpu: 0
workloads:
  - id: w1
    name: api
    cluster: c1
    cpu: "1"
    ram: "1"
`), 0o600))

	logger := slog.Default()
	signals := make(chan os.Signal, 1)
	appState := appstate.New(logger, time.Now(), "", signals, pinger.New(logger, time.Second))

	application, err := app.New(t.Context(), logger, memoryConfig(seedFile), appState)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	done := make(chan error, 1)

	go func() {
		done <- application.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return appState.GetState() == appstate.StateRunning
	}, 5*time.Second, 10*time.Millisecond)

	require.True(t, appState.IsReady())

	signals <- os.Interrupt

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("application did not stop")
	}

	require.Equal(t, appstate.StateTerminated, appState.GetState())
}

func TestApp_RunFailsOnBadSeed(t *testing.T) {
	t.Parallel()

	logger := slog.Default()
	appState := appstate.New(logger, time.Now(), "", make(chan os.Signal, 1), pinger.New(logger, time.Second))

	application, err := app.New(t.Context(), logger, memoryConfig(filepath.Join(t.TempDir(), "missing.yaml")), appState)
	require.NoError(t, err)

	require.Error(t, application.Run(t.Context()))
	require.Equal(t, appstate.StateTerminated, appState.GetState())
}

func TestNew_InvalidAuditSchedule(t *testing.T) {
	t.Parallel()

	logger := slog.Default()
	appState := appstate.New(logger, time.Now(), "", make(chan os.Signal, 1), pinger.New(logger, time.Second))

	cfg := memoryConfig("")
	cfg.AuditSchedule = "not a schedule"

	_, err := app.New(t.Context(), logger, cfg, appState)
	require.Error(t, err)
}
