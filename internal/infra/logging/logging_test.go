package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skillcoder/admission-scheduler/internal/infra/logging"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		give string
		want slog.Level
	}{
		{give: "debug", want: slog.LevelDebug},
		{give: "INFO", want: slog.LevelInfo},
		{give: "warning", want: slog.LevelWarn},
		{give: "error", want: slog.LevelError},
		{give: "verbose", want: slog.LevelInfo},
		{give: "", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.give, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tt.want, logging.ParseLevel(tt.give))
		})
	}
}

func TestNewWithWriter(t *testing.T) {
	t.Parallel()

	t.Run("json carries service and filters by level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer

		logger := logging.NewWithWriter(&buf, "json", "warn")
		logger.Info("dropped")
		logger.Warn("kept", "workloadID", "w1")

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		require.Equal(t, "kept", record["msg"])
		require.Equal(t, "admission-scheduler", record["service"])
		require.Equal(t, "w1", record["workloadID"])
	})

	t.Run("text format", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer

		logging.NewWithWriter(&buf, "text", "info").Info("hello")
		require.Contains(t, buf.String(), "msg=hello")
		require.Contains(t, buf.String(), "service=admission-scheduler")
	})
}
