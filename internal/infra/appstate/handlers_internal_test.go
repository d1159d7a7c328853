package appstate

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skillcoder/admission-scheduler/internal/infra/pinger"
)

type fakeState struct {
	healthy   bool
	ready     bool
	state     State
	uptime    time.Duration
	startTime time.Time
	stats     map[string]*pinger.Statistics
}

func (f *fakeState) IsHealthy() bool { return f.healthy }

func (f *fakeState) IsReady() bool { return f.ready }

func (f *fakeState) GetState() State { return f.state }

func (f *fakeState) GetUptime() time.Duration { return f.uptime }

func (f *fakeState) GetStartTime() time.Time { return f.startTime }

func (f *fakeState) GetAllStats() map[string]*pinger.Statistics { return f.stats }

func serveAndAssertStatus(t *testing.T, handler http.HandlerFunc, path string, wantCode int) {
	t.Helper()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)

	handler.ServeHTTP(rec, req)

	require.Equal(t, wantCode, rec.Code)
}

func TestHandleProbes(t *testing.T) {
	t.Parallel()

	logger := slog.Default()

	tests := []struct {
		name     string
		giveUp   bool
		wantCode int
	}{
		{name: "up returns 200", giveUp: true, wantCode: http.StatusOK},
		{name: "down returns 503", giveUp: false, wantCode: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := &fakeState{healthy: tt.giveUp, ready: tt.giveUp}

			serveAndAssertStatus(t, HandleHealthz(logger, f), "/-/healthz", tt.wantCode)
			serveAndAssertStatus(t, HandleReadyz(logger, f), "/-/readyz", tt.wantCode)
		})
	}
}

func TestHandleStatus(t *testing.T) {
	t.Parallel()

	lastRun := time.Date(2026, 1, 15, 10, 0, 5, 0, time.UTC)

	f := &fakeState{
		state:     StateRunning,
		startTime: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
		uptime:    5 * time.Second,
		stats: map[string]*pinger.Statistics{
			"redis-store": {
				IsReady:             false,
				IsHealthy:           true,
				LastRun:             lastRun,
				LastLatency:         2 * time.Millisecond,
				LastError:           errors.New("connection refused"),
				ConsecutiveFailures: 1,
			},
			"http-server": {IsReady: true, IsHealthy: true},
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/-/status", http.NoBody)

	HandleStatus(slog.Default(), f).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body statusResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))

	require.Equal(t, string(StateRunning), body.State)
	require.Equal(t, "5s", body.Uptime)
	require.InDelta(t, 5.0, body.UptimeSec, 1e-9)
	require.Len(t, body.Components, 2)

	require.Equal(t, componentStatus{Name: "http-server", Ready: true, Healthy: true}, body.Components[0])

	store := body.Components[1]
	require.Equal(t, "redis-store", store.Name)
	require.False(t, store.Ready)
	require.Equal(t, "connection refused", store.LastError)
	require.Equal(t, "2ms", store.LastLatency)
	require.NotNil(t, store.LastRun)
	require.True(t, lastRun.Equal(*store.LastRun))
}
