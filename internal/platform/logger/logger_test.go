package logger_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/phrazzld/cardforge/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		level slog.Level
		ok    bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"", slog.LevelInfo, true},
		{"Warn", slog.LevelWarn, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
	}

	for _, tc := range tests {
		level, ok := logger.ParseLevel(tc.name)
		assert.Equal(t, tc.level, level, tc.name)
		assert.Equal(t, tc.ok, ok, tc.name)
	}
}

// Not parallel: Setup replaces the process-wide default logger.
func TestSetupWithWriter(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	t.Run("filters below configured level", func(t *testing.T) {
		buf := &logger.TestLogBuffer{}
		l, err := logger.SetupWithWriter(logger.Config{Level: "warn"}, buf)
		require.NoError(t, err)

		l.Info("hidden")
		l.Warn("shown", slog.String("component", "test"))

		entries, err := buf.GetLogEntries()
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "shown", entries[0]["msg"])
		assert.Equal(t, "test", entries[0]["component"])
		assert.Same(t, l, slog.Default())
	})

	t.Run("invalid level warns and defaults to info", func(t *testing.T) {
		buf := &logger.TestLogBuffer{}
		l, err := logger.SetupWithWriter(logger.Config{Level: "loud"}, buf)
		require.NoError(t, err)

		l.Debug("hidden")
		l.Info("shown")

		warnings := buf.EntriesWithMessage("invalid log level configured, using default level")
		require.Len(t, warnings, 1)
		assert.Equal(t, "loud", warnings[0]["configured_level"])
		assert.Len(t, buf.EntriesWithMessage("shown"), 1)
		assert.Empty(t, buf.EntriesWithMessage("hidden"))
	})
}

func TestContextLogger(t *testing.T) {
	t.Parallel()

	l, buf := logger.GetTestLogger(t)
	ctx := logger.WithLogger(context.Background(), l)

	logger.FromContext(ctx).Info("from context")
	assert.Len(t, buf.EntriesWithMessage("from context"), 1)

	fallback, _ := logger.GetTestLogger(t)
	assert.Same(t, fallback, logger.FromContextOrDefault(context.Background(), fallback))
	assert.Same(t, l, logger.FromContextOrDefault(ctx, fallback))
	assert.NotNil(t, logger.FromContextOrDefault(context.Background(), nil))
}
